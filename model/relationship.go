package model

import (
	"github.com/google/uuid"
)

// Relationship represents a directed, typed link between two entities.
// Both referenced ids are expected to resolve inside the collection the
// relationship lives in; dangling references are reported by the
// collection's Validate, not rejected on insert.
type Relationship struct {
	ID           uuid.UUID `json:"id"`
	SourceEntity uuid.UUID `json:"source_entity"`
	TargetEntity uuid.UUID `json:"target_entity"`
	Type         string    `json:"type"`
	Confidence   float64   `json:"confidence"`
	Metadata     Metadata  `json:"metadata"`
}
