package model

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/siherrmann/extractor/helper"
)

const observationsKey = "observations"

// Observation is one provenance record documenting a single detection
// of an entity or relationship. Records accumulate under the
// observations metadata key and are never overwritten or pruned.
type Observation struct {
	Timestamp  string               `json:"timestamp"`
	Source     string               `json:"source"`
	Extractor  string               `json:"extractor"`
	Context    json.RawMessage      `json:"context"`
	Position   *ObservationPosition `json:"position,omitempty"`
	Confidence float64              `json:"confidence"`
}

// ObservationContext is the text surrounding an entity mention.
type ObservationContext struct {
	Before string `json:"before"`
	Exact  string `json:"exact"`
	After  string `json:"after"`
}

// ObservationPosition is the mention offset range in the source text.
type ObservationPosition struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// EntityContext decodes the context window of an entity observation.
func (o *Observation) EntityContext() (*ObservationContext, error) {
	if len(o.Context) == 0 {
		return nil, helper.NewError("decode observation context", errors.New("context is empty"))
	}
	context := &ObservationContext{}
	if err := json.Unmarshal(o.Context, context); err != nil {
		return nil, helper.NewError("decode observation context", err)
	}
	return context, nil
}

// RelationshipContext decodes the free form context string of a
// relationship observation.
func (o *Observation) RelationshipContext() (string, error) {
	var context string
	if err := json.Unmarshal(o.Context, &context); err != nil {
		return "", helper.NewError("decode observation context", err)
	}
	return context, nil
}

// RecordEntityObservation appends one provenance record to the entity's
// observation list, initializing the list on first use. The recorder
// functions are the only writers of the observations key.
func RecordEntityObservation(entity *Entity, source string, contextBefore string, contextAfter string, extractor string) {
	if entity.Metadata == nil {
		entity.Metadata = Metadata{}
	}

	observation := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"source":    source,
		"extractor": extractor,
		"context": map[string]interface{}{
			"before": contextBefore,
			"exact":  entity.Name,
			"after":  contextAfter,
		},
		"position": map[string]interface{}{
			"start": entity.StartPosition,
			"end":   entity.EndPosition,
		},
		"confidence": entity.Confidence,
	}

	appendObservation(entity.Metadata, observation)
}

// RecordRelationshipObservation appends one provenance record to the
// relationship's observation list with a single free form context.
func RecordRelationshipObservation(relationship *Relationship, source string, context string, extractor string) {
	if relationship.Metadata == nil {
		relationship.Metadata = Metadata{}
	}

	observation := map[string]interface{}{
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		"source":     source,
		"extractor":  extractor,
		"context":    context,
		"confidence": relationship.Confidence,
	}

	appendObservation(relationship.Metadata, observation)
}

// Observations decodes the observation list recorded on a metadata bag.
// It returns nil if no observation has been recorded yet.
func Observations(metadata Metadata) ([]Observation, error) {
	raw, ok := metadata[observationsKey]
	if !ok {
		return nil, nil
	}

	bytes, err := json.Marshal(raw)
	if err != nil {
		return nil, helper.NewError("marshal observations", err)
	}

	var observations []Observation
	if err := json.Unmarshal(bytes, &observations); err != nil {
		return nil, helper.NewError("unmarshal observations", err)
	}

	return observations, nil
}

func appendObservation(metadata Metadata, observation map[string]interface{}) {
	observations, _ := metadata[observationsKey].([]interface{})
	metadata[observationsKey] = append(observations, observation)
}
