package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/siherrmann/extractor/core/confidence"
	"github.com/siherrmann/extractor/model"
)

const (
	patternBaseConfidence   = 0.8
	patternRelationStrength = 0.7
)

// PatternExtractor is a rule based capability scanning a text for
// literal patterns grouped by entity type. Repeated occurrences of the
// same pattern collapse into a single entity that accumulates one
// observation per occurrence and a frequency boosted confidence.
// Distinct entities sharing a type are pairwise linked with relatesTo
// relationships. Types are processed in sorted order so repeated runs
// produce the same sequence.
type PatternExtractor struct {
	patterns map[string][]string
	name     string
}

// NewPatternExtractor creates the capability from a mapping of entity
// type to the literal patterns that identify it.
func NewPatternExtractor(patterns map[string][]string) *PatternExtractor {
	return &PatternExtractor{
		patterns: patterns,
		name:     "PatternExtractor",
	}
}

func (e *PatternExtractor) Name() string {
	return e.name
}

// Extract scans for every non overlapping occurrence of every pattern.
func (e *PatternExtractor) Extract(ctx context.Context, text string, params model.Parameters) (*model.EntityCollection, error) {
	collection := model.NewEntityCollection(params.SourceID)
	source := observationSource(params)

	type patternKey struct {
		name       string
		entityType string
	}
	seen := map[patternKey]*model.Entity{}
	extraOccurrences := map[patternKey]int{}

	for _, entityType := range sortedKeys(e.patterns) {
		for _, pattern := range e.patterns[entityType] {
			if pattern == "" {
				continue
			}

			searchFrom := 0
			for {
				idx := strings.Index(text[searchFrom:], pattern)
				if idx == -1 {
					break
				}
				idx += searchFrom
				end := idx + len(pattern)
				before, after := contextAround(text, idx, end, extractionContextWindow)

				key := patternKey{name: pattern, entityType: entityType}
				if existing, ok := seen[key]; ok {
					// A repeated mention confirms the entity instead of
					// creating a new one.
					extraOccurrences[key]++
					model.RecordEntityObservation(existing, source, before, after, e.name)
					existing.Confidence = confidence.EntityScore(patternBaseConfidence, 1.0, float64(extraOccurrences[key]), 1.0)
				} else {
					entity := model.NewEntity(pattern, entityType, pattern, idx, end, patternBaseConfidence, model.Metadata{
						"extractor": e.name,
					})
					model.RecordEntityObservation(entity, source, before, after, e.name)
					collection.AddEntity(entity)
					seen[key] = entity
				}

				searchFrom = end
			}
		}
	}

	e.relateSameTypeEntities(collection, source)

	return collection, nil
}

// relateSameTypeEntities links every pair of distinct entities sharing
// a type with a relatesTo relationship.
func (e *PatternExtractor) relateSameTypeEntities(collection *model.EntityCollection, source string) {
	entitiesByType := map[string][]*model.Entity{}
	for _, entity := range collection.Entities {
		entitiesByType[entity.Type] = append(entitiesByType[entity.Type], entity)
	}

	for _, entityType := range sortedKeys(entitiesByType) {
		entities := entitiesByType[entityType]
		for i := 0; i < len(entities)-1; i++ {
			for j := i + 1; j < len(entities); j++ {
				score := confidence.RelationshipScore(entities[i].Confidence, entities[j].Confidence, patternRelationStrength, 1.0)
				relationship := model.NewRelationship(entities[i].ID, entities[j].ID, "relatesTo", score, model.Metadata{
					"extractor": e.name,
				})
				model.RecordRelationshipObservation(relationship, source, fmt.Sprintf("Both entities are of type %v", entityType), e.name)
				collection.AddRelationship(relationship)
			}
		}
	}
}
