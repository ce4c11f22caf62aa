package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/siherrmann/extractor/helper"
)

// EntityCollection holds the entities and relationships extracted from
// one source text. Both sequences keep insertion order (extraction
// order), and an id index gives O(1) entity lookup. A collection owns
// its records; merging moves records into a new owning collection.
type EntityCollection struct {
	Entities      []*Entity
	Relationships []*Relationship
	SourceID      string

	entityIndex map[uuid.UUID]*Entity
}

// NewEntityCollection creates an empty collection tagged with the
// optional source id of the originating text.
func NewEntityCollection(sourceID string) *EntityCollection {
	return &EntityCollection{
		Entities:      []*Entity{},
		Relationships: []*Relationship{},
		SourceID:      sourceID,
		entityIndex:   map[uuid.UUID]*Entity{},
	}
}

// AddEntity appends an entity and indexes it by id.
func (c *EntityCollection) AddEntity(entity *Entity) {
	if c.entityIndex == nil {
		c.entityIndex = map[uuid.UUID]*Entity{}
	}
	c.Entities = append(c.Entities, entity)
	c.entityIndex[entity.ID] = entity
}

// AddRelationship appends a relationship. Endpoints are not checked
// here to keep the append O(1); Validate reports dangling references.
func (c *EntityCollection) AddRelationship(relationship *Relationship) {
	c.Relationships = append(c.Relationships, relationship)
}

// GetEntityByID returns the entity with the given id or nil if the
// collection does not contain it. An absent id is not an error.
func (c *EntityCollection) GetEntityByID(id uuid.UUID) *Entity {
	return c.entityIndex[id]
}

// GetEntitiesByType returns all entities of the given type in insertion
// order.
func (c *EntityCollection) GetEntitiesByType(entityType string) []*Entity {
	var entities []*Entity
	for _, entity := range c.Entities {
		if entity.Type == entityType {
			entities = append(entities, entity)
		}
	}
	return entities
}

// GetRelationshipsByType returns all relationships of the given type in
// insertion order.
func (c *EntityCollection) GetRelationshipsByType(relationshipType string) []*Relationship {
	var relationships []*Relationship
	for _, relationship := range c.Relationships {
		if relationship.Type == relationshipType {
			relationships = append(relationships, relationship)
		}
	}
	return relationships
}

// GetRelationshipsForEntity returns every relationship in which the
// entity participates as source or target.
func (c *EntityCollection) GetRelationshipsForEntity(id uuid.UUID) []*Relationship {
	var relationships []*Relationship
	for _, relationship := range c.Relationships {
		if relationship.SourceEntity == id || relationship.TargetEntity == id {
			relationships = append(relationships, relationship)
		}
	}
	return relationships
}

// Validate reports every relationship referencing an entity that is not
// present in the collection. It collects all defects instead of
// stopping at the first one; an empty result means the collection is
// referentially intact.
func (c *EntityCollection) Validate() []error {
	var errs []error
	for _, relationship := range c.Relationships {
		if c.GetEntityByID(relationship.SourceEntity) == nil {
			errs = append(errs, fmt.Errorf("relationship %v references missing source entity %v", relationship.ID, relationship.SourceEntity))
		}
		if c.GetEntityByID(relationship.TargetEntity) == nil {
			errs = append(errs, fmt.Errorf("relationship %v references missing target entity %v", relationship.ID, relationship.TargetEntity))
		}
	}
	return errs
}

type entityCollectionJSON struct {
	Entities      []*Entity       `json:"entities"`
	Relationships []*Relationship `json:"relationships"`
	SourceID      string          `json:"source_id,omitempty"`
}

// MarshalJSON encodes the collection with its entities and
// relationships in insertion order.
func (c *EntityCollection) MarshalJSON() ([]byte, error) {
	entities := c.Entities
	if entities == nil {
		entities = []*Entity{}
	}
	relationships := c.Relationships
	if relationships == nil {
		relationships = []*Relationship{}
	}
	return json.Marshal(entityCollectionJSON{
		Entities:      entities,
		Relationships: relationships,
		SourceID:      c.SourceID,
	})
}

// UnmarshalJSON decodes a collection all-or-nothing: on any malformed
// record the receiver is left untouched and a descriptive error names
// the offending record.
func (c *EntityCollection) UnmarshalJSON(data []byte) error {
	var raw struct {
		Entities      []json.RawMessage `json:"entities"`
		Relationships []json.RawMessage `json:"relationships"`
		SourceID      string            `json:"source_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return helper.NewError("unmarshal collection", err)
	}

	decoded := NewEntityCollection(raw.SourceID)
	for i, rawEntity := range raw.Entities {
		entity, err := decodeEntity(rawEntity)
		if err != nil {
			return helper.NewError(fmt.Sprintf("decode entity %v", i), err)
		}
		decoded.AddEntity(entity)
	}
	for i, rawRelationship := range raw.Relationships {
		relationship, err := decodeRelationship(rawRelationship)
		if err != nil {
			return helper.NewError(fmt.Sprintf("decode relationship %v", i), err)
		}
		decoded.AddRelationship(relationship)
	}

	*c = *decoded
	return nil
}

func decodeEntity(data []byte) (*Entity, error) {
	var raw struct {
		ID            *uuid.UUID `json:"id"`
		Name          *string    `json:"name"`
		Type          *string    `json:"type"`
		SourceText    string     `json:"source_text"`
		StartPosition int        `json:"start_position"`
		EndPosition   int        `json:"end_position"`
		Confidence    *float64   `json:"confidence"`
		Metadata      Metadata   `json:"metadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	if raw.ID == nil {
		return nil, errors.New("missing required field id")
	}
	if raw.Name == nil {
		return nil, errors.New("missing required field name")
	}
	if raw.Type == nil {
		return nil, errors.New("missing required field type")
	}

	confidence := 1.0
	if raw.Confidence != nil {
		confidence = *raw.Confidence
	}
	metadata := raw.Metadata
	if metadata == nil {
		metadata = Metadata{}
	}

	return &Entity{
		ID:            *raw.ID,
		Name:          *raw.Name,
		Type:          *raw.Type,
		SourceText:    raw.SourceText,
		StartPosition: raw.StartPosition,
		EndPosition:   raw.EndPosition,
		Confidence:    confidence,
		Metadata:      metadata,
	}, nil
}

func decodeRelationship(data []byte) (*Relationship, error) {
	var raw struct {
		ID           *uuid.UUID `json:"id"`
		SourceEntity *uuid.UUID `json:"source_entity"`
		TargetEntity *uuid.UUID `json:"target_entity"`
		Type         *string    `json:"type"`
		Confidence   *float64   `json:"confidence"`
		Metadata     Metadata   `json:"metadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	if raw.ID == nil {
		return nil, errors.New("missing required field id")
	}
	if raw.SourceEntity == nil {
		return nil, errors.New("missing required field source_entity")
	}
	if raw.TargetEntity == nil {
		return nil, errors.New("missing required field target_entity")
	}
	if raw.Type == nil {
		return nil, errors.New("missing required field type")
	}

	confidence := 1.0
	if raw.Confidence != nil {
		confidence = *raw.Confidence
	}
	metadata := raw.Metadata
	if metadata == nil {
		metadata = Metadata{}
	}

	return &Relationship{
		ID:           *raw.ID,
		SourceEntity: *raw.SourceEntity,
		TargetEntity: *raw.TargetEntity,
		Type:         *raw.Type,
		Confidence:   confidence,
		Metadata:     metadata,
	}, nil
}
