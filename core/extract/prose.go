package extract

import (
	"context"
	"strings"

	"github.com/jdkato/prose/v2"
	"github.com/siherrmann/extractor/core/confidence"
	"github.com/siherrmann/extractor/helper"
	"github.com/siherrmann/extractor/model"
)

const (
	proseRelationWindow  = 200
	verbRelationStrength = 0.7
)

// verbCueRelations maps connecting verbs between two mentions to a
// relationship type. Cues are stem prefixes so common inflections match
// without a lemmatizer. Checked in order, first match wins.
var verbCueRelations = []struct {
	relationType string
	cues         []string
}{
	{"uses", []string{"use", "utiliz", "employ"}},
	{"worksOn", []string{"work", "collaborat"}},
	{"has", []string{"have", "has", "had", "own", "possess"}},
	{"dependsOn", []string{"depend", "rely", "relie"}},
	{"creates", []string{"creat", "make", "mak", "made", "develop", "build", "built"}},
}

// ProseExtractor is a pure Go NER capability built on the prose
// library. Every recognized mention becomes one entity; duplicates of
// the same name and type converge during a composite merge, not here.
// Mentions within a distance window are linked pairwise, typed by a
// connecting verb when one lies between them in the same sentence and
// falling back to a distance weighted relatesTo.
type ProseExtractor struct {
	minConfidence float64
	name          string
}

// NewProseExtractor creates the capability. Entities scoring below
// minConfidence are dropped.
func NewProseExtractor(minConfidence float64) *ProseExtractor {
	return &ProseExtractor{
		minConfidence: minConfidence,
		name:          "ProseExtractor",
	}
}

func (e *ProseExtractor) Name() string {
	return e.name
}

// Extract runs prose over the text and converts its entity spans.
func (e *ProseExtractor) Extract(ctx context.Context, text string, params model.Parameters) (*model.EntityCollection, error) {
	collection := model.NewEntityCollection(params.SourceID)
	if strings.TrimSpace(text) == "" {
		return collection, nil
	}

	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, helper.NewError("create prose document", err)
	}

	source := observationSource(params)

	// Prose reports mentions in document order without offsets, so the
	// positions are recovered by scanning forward through the text.
	searchFrom := 0
	for _, mention := range doc.Entities() {
		entityType, ok := entityTypeForLabel[mention.Label]
		if !ok {
			continue
		}

		start := strings.Index(text[searchFrom:], mention.Text)
		if start == -1 {
			start = strings.Index(text, mention.Text)
			if start == -1 {
				continue
			}
		} else {
			start += searchFrom
		}
		end := start + len(mention.Text)
		searchFrom = end

		score := labelConfidence(mention.Label, mention.Text)
		if score < e.minConfidence {
			continue
		}

		entity := model.NewEntity(mention.Text, entityType, mention.Text, start, end, score, model.Metadata{
			"prose_label": mention.Label,
			"extractor":   e.name,
		})
		before, after := contextAround(text, start, end, extractionContextWindow)
		model.RecordEntityObservation(entity, source, before, after, e.name)
		collection.AddEntity(entity)
	}

	e.relateMentions(collection, text, source)

	return collection, nil
}

// relateMentions links entity pairs within the relation window. A verb
// cue between two mentions in the same sentence types the relationship
// and carries a fixed syntactic strength; without a cue the pair gets a
// relatesTo whose strength decays with mention distance.
func (e *ProseExtractor) relateMentions(collection *model.EntityCollection, text string, source string) {
	entities := collection.Entities
	for i := 0; i < len(entities); i++ {
		for j := i + 1; j < len(entities); j++ {
			first, second := entities[i], entities[j]
			if second.StartPosition < first.StartPosition {
				first, second = second, first
			}

			distance := second.StartPosition - first.StartPosition
			if distance > proseRelationWindow {
				continue
			}

			relationType := ""
			verb := ""
			if first.EndPosition <= second.StartPosition {
				between := text[first.EndPosition:second.StartPosition]
				if !strings.ContainsAny(between, ".!?") {
					relationType, verb = verbCueRelation(between)
				}
			}

			var relationship *model.Relationship
			if relationType != "" {
				score := confidence.RelationshipScore(first.Confidence, second.Confidence, verbRelationStrength, 1.0)
				relationship = model.NewRelationship(first.ID, second.ID, relationType, score, model.Metadata{
					"verb":      verb,
					"extractor": e.name,
				})
			} else {
				strength := coOccurrenceStrength(distance)
				if strength <= 0 {
					continue
				}
				score := confidence.RelationshipScore(first.Confidence, second.Confidence, strength, 1.0)
				relationship = model.NewRelationship(first.ID, second.ID, "relatesTo", score, model.Metadata{
					"distance":  distance,
					"extractor": e.name,
				})
			}

			model.RecordRelationshipObservation(relationship, source, mentionSpan(text, first, second), e.name)
			collection.AddRelationship(relationship)
		}
	}
}

// verbCueRelation scans the text between two mentions for a connecting
// verb and returns the relationship type it implies, or empty strings
// when no cue is found.
func verbCueRelation(between string) (string, string) {
	for _, word := range strings.Fields(strings.ToLower(between)) {
		word = strings.Trim(word, ".,;:!?()\"'")
		for _, cue := range verbCueRelations {
			for _, prefix := range cue.cues {
				if strings.HasPrefix(word, prefix) {
					return cue.relationType, word
				}
			}
		}
	}
	return "", ""
}
