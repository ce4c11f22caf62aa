// Package extract provides the extraction capabilities and the
// composite merger that unifies their results into one collection.
// Every capability implements the same contract: given a text, produce
// an EntityCollection with positions and base confidences.
package extract

import (
	"context"
	"math"
	"sort"

	"github.com/siherrmann/extractor/core/confidence"
	"github.com/siherrmann/extractor/model"
)

// Extractor is the extraction capability interface. Implementations
// must not mutate the input text and must be pure with respect to
// their inputs, modulo fresh record ids.
type Extractor interface {
	// Name identifies the capability in observation records.
	Name() string
	// Extract runs the capability over the text. The parameters are
	// forwarded verbatim by a composite to every capability.
	Extract(ctx context.Context, text string, params model.Parameters) (*model.EntityCollection, error)
}

// ExtractFunc is the plain function form of a capability.
type ExtractFunc func(ctx context.Context, text string, params model.Parameters) (*model.EntityCollection, error)

// NamedExtractor wraps an ExtractFunc with a capability name so plain
// functions can join a composite.
func NamedExtractor(name string, fn ExtractFunc) Extractor {
	return &namedExtractor{name: name, fn: fn}
}

type namedExtractor struct {
	name string
	fn   ExtractFunc
}

func (e *namedExtractor) Name() string {
	return e.name
}

func (e *namedExtractor) Extract(ctx context.Context, text string, params model.Parameters) (*model.EntityCollection, error) {
	return e.fn(ctx, text, params)
}

// extractionContextWindow is the number of characters captured before
// and after a mention for its observation record.
const extractionContextWindow = 50

// entityTypeForLabel maps NER labels from the model backed capabilities
// to the shared open ended type vocabulary. Capabilities skip unmapped
// labels instead of guessing a type.
var entityTypeForLabel = map[string]string{
	"PERSON":        "Person",
	"PER":           "Person",
	"ORG":           "Organization",
	"ORGANIZATION":  "Organization",
	"GPE":           "Location",
	"LOC":           "Location",
	"LOCATION":      "Location",
	"ADDRESS":       "Location",
	"PRODUCT":       "Product",
	"CONSUMER_GOOD": "Product",
	"EVENT":         "Event",
	"WORK_OF_ART":   "CreativeWork",
	"LAW":           "Resource",
	"LANGUAGE":      "Technology",
	"DATE":          "Time",
	"TIME":          "Time",
	"MONEY":         "Value",
	"PRICE":         "Value",
	"QUANTITY":      "Value",
	"PERCENT":       "Value",
	"CARDINAL":      "Value",
	"ORDINAL":       "Value",
	"NUMBER":        "Value",
	"PHONE_NUMBER":  "Value",
	"MISC":          "Thing",
	"OTHER":         "Thing",
}

// baseConfidenceForLabel reflects how reliable each label tends to be
// in practice. Labels without an entry fall back to the default.
var baseConfidenceForLabel = map[string]float64{
	"PERSON":        0.85,
	"PER":           0.85,
	"ORG":           0.8,
	"ORGANIZATION":  0.8,
	"GPE":           0.85,
	"LOC":           0.75,
	"LOCATION":      0.75,
	"PRODUCT":       0.7,
	"CONSUMER_GOOD": 0.7,
	"EVENT":         0.7,
	"WORK_OF_ART":   0.65,
	"LAW":           0.7,
	"LANGUAGE":      0.8,
	"DATE":          0.9,
	"TIME":          0.9,
	"MONEY":         0.9,
	"PRICE":         0.9,
	"QUANTITY":      0.85,
	"PERCENT":       0.9,
	"CARDINAL":      0.75,
	"ORDINAL":       0.8,
	"MISC":          0.6,
}

const defaultBaseConfidence = 0.6

// labelConfidence returns the base confidence for a label scaled by a
// mention length factor; very short mentions are less reliable.
func labelConfidence(label string, mention string) float64 {
	base, ok := baseConfidenceForLabel[label]
	if !ok {
		base = defaultBaseConfidence
	}
	lengthFactor := math.Min(1.0, math.Max(0.7, float64(len(mention))/5.0))
	return base * lengthFactor
}

// contextAround returns up to window characters before and after the
// mention at [start, end).
func contextAround(text string, start int, end int, window int) (string, string) {
	before := ""
	if start > 0 {
		from := start - window
		if from < 0 {
			from = 0
		}
		if start > len(text) {
			start = len(text)
		}
		before = text[from:start]
	}
	after := ""
	if end >= 0 && end < len(text) {
		to := end + window
		if to > len(text) {
			to = len(text)
		}
		after = text[end:to]
	}
	return before, after
}

// observationSource returns the source recorded into observations,
// falling back to "unknown" when the parameters carry no source id.
func observationSource(params model.Parameters) string {
	if params.SourceID == "" {
		return "unknown"
	}
	return params.SourceID
}

// coOccurrenceStrength maps mention distance to relation strength.
// Adjacent mentions approach 1.0 and the strength fades to zero at 200
// characters.
func coOccurrenceStrength(distance int) float64 {
	strength := 1.0 - float64(distance)/200.0
	if strength < 0 {
		return 0
	}
	return strength
}

// addCoOccurrenceRelationships links entities whose mentions lie within
// maxDistance characters of each other. The relation strength decays
// linearly with distance and the confidence is bounded by the weaker
// endpoint.
func addCoOccurrenceRelationships(collection *model.EntityCollection, text string, source string, extractor string, maxDistance int) {
	entities := collection.Entities
	for i := 0; i < len(entities); i++ {
		for j := i + 1; j < len(entities); j++ {
			distance := entities[j].StartPosition - entities[i].StartPosition
			if distance < 0 {
				distance = -distance
			}
			if distance > maxDistance {
				continue
			}
			strength := coOccurrenceStrength(distance)
			if strength <= 0 {
				continue
			}

			score := confidence.RelationshipScore(entities[i].Confidence, entities[j].Confidence, strength, 1.0)
			relationship := model.NewRelationship(entities[i].ID, entities[j].ID, "relatesTo", score, model.Metadata{
				"distance":  distance,
				"extractor": extractor,
			})
			model.RecordRelationshipObservation(relationship, source, mentionSpan(text, entities[i], entities[j]), extractor)
			collection.AddRelationship(relationship)
		}
	}
}

// mentionSpan returns the text covering both mentions, truncated in the
// middle when the span grows too long for an observation context.
func mentionSpan(text string, first *model.Entity, second *model.Entity) string {
	start := first.StartPosition
	end := second.EndPosition
	if second.StartPosition < start {
		start = second.StartPosition
	}
	if first.EndPosition > end {
		end = first.EndPosition
	}
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start >= end {
		return ""
	}

	span := text[start:end]
	if len(span) > 200 {
		span = span[:100] + "..." + span[len(span)-97:]
	}
	return span
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
