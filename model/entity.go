package model

import (
	"github.com/google/uuid"
)

// Entity represents a named item extracted from text (person, place,
// organization, concept, etc.) with its position in the source and a
// confidence score. The id is immutable once minted; during a merge
// only the confidence (upward) and the metadata are updated in place.
type Entity struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	SourceText    string    `json:"source_text"`
	StartPosition int       `json:"start_position"`
	EndPosition   int       `json:"end_position"`
	Confidence    float64   `json:"confidence"`
	Metadata      Metadata  `json:"metadata"`
}
