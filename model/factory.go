package model

import (
	"time"

	"github.com/google/uuid"
)

const createdAtKey = "created_at"

// NewEntity creates an entity with a fresh 128-bit random id and stamps
// the creation time into its metadata if not already present. Together
// with NewRelationship this is the only place new ids are minted; every
// other code path reuses existing ids.
func NewEntity(name string, entityType string, sourceText string, startPosition int, endPosition int, confidence float64, metadata Metadata) *Entity {
	return &Entity{
		ID:            uuid.New(),
		Name:          name,
		Type:          entityType,
		SourceText:    sourceText,
		StartPosition: startPosition,
		EndPosition:   endPosition,
		Confidence:    confidence,
		Metadata:      stampCreatedAt(metadata),
	}
}

// NewRelationship creates a relationship between two entity ids with a
// fresh 128-bit random id and a creation time stamp in its metadata.
func NewRelationship(sourceEntity uuid.UUID, targetEntity uuid.UUID, relationshipType string, confidence float64, metadata Metadata) *Relationship {
	return &Relationship{
		ID:           uuid.New(),
		SourceEntity: sourceEntity,
		TargetEntity: targetEntity,
		Type:         relationshipType,
		Confidence:   confidence,
		Metadata:     stampCreatedAt(metadata),
	}
}

func stampCreatedAt(metadata Metadata) Metadata {
	if metadata == nil {
		metadata = Metadata{}
	}
	if _, ok := metadata[createdAtKey]; !ok {
		metadata[createdAtKey] = time.Now().UTC().Format(time.RFC3339Nano)
	}
	return metadata
}
