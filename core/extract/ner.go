package extract

import (
	"context"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/extractor/core/confidence"
	"github.com/siherrmann/extractor/helper"
	"github.com/siherrmann/extractor/model"
)

// nerModelName is the token classification model behind the default
// NER capability. It detects PER, ORG, LOC and MISC entities.
const nerModelName = "KnightsAnalytics/distilbert-NER"

// NERExtractor is a model backed capability running token
// classification over the text. The model is downloaded on first use;
// a text that cannot be classified is reported as a capability failure
// so a composite treats it as an empty contribution.
type NERExtractor struct {
	session  *hugot.Session
	pipeline *pipelines.TokenClassificationPipeline
	name     string
}

// NewNERExtractor prepares the NER model and creates the
// classification pipeline. Construction fails when the model cannot be
// downloaded or loaded.
func NewNERExtractor() (*NERExtractor, error) {
	modelPath, err := helper.PrepareModel(nerModelName, "model.onnx")
	if err != nil {
		return nil, helper.NewError("prepare ner model", err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, helper.NewError("create hugot session", err)
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "ner-extraction",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}),
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, helper.NewError("create ner pipeline (session cleanup also failed)", err)
		}
		return nil, helper.NewError("create ner pipeline", err)
	}

	return &NERExtractor{
		session:  session,
		pipeline: nerPipeline,
		name:     "NERExtractor",
	}, nil
}

func (e *NERExtractor) Name() string {
	return e.name
}

// Close releases the model session.
func (e *NERExtractor) Close() error {
	if e.session == nil {
		return nil
	}
	return e.session.Destroy()
}

// Extract runs the classification pipeline and converts the aggregated
// spans into entities with co-occurrence relationships.
func (e *NERExtractor) Extract(ctx context.Context, text string, params model.Parameters) (*model.EntityCollection, error) {
	collection := model.NewEntityCollection(params.SourceID)
	if strings.TrimSpace(text) == "" {
		return collection, nil
	}

	result, err := e.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, helper.NewError("run ner pipeline", err)
	}
	if len(result.Entities) == 0 {
		return collection, nil
	}

	source := observationSource(params)

	for _, span := range result.Entities[0] {
		label := normalizeLabel(span.Entity)
		entityType, ok := entityTypeForLabel[label]
		if !ok {
			continue
		}

		name := strings.TrimSpace(span.Word)
		if name == "" {
			continue
		}
		start := int(span.Start)
		end := int(span.End)
		score := confidence.EntityScore(float64(span.Score), 1.0, 0, 1.0)

		entity := model.NewEntity(name, entityType, name, start, end, score, model.Metadata{
			"ner_label": label,
			"extractor": e.name,
		})
		before, after := contextAround(text, start, end, extractionContextWindow)
		model.RecordEntityObservation(entity, source, before, after, e.name)
		collection.AddEntity(entity)
	}

	addCoOccurrenceRelationships(collection, text, source, e.name, proseRelationWindow)

	return collection, nil
}

// normalizeLabel removes the B- and I- BIO tagging prefixes from an
// aggregated span label.
func normalizeLabel(label string) string {
	if strings.HasPrefix(label, "B-") || strings.HasPrefix(label, "I-") {
		return label[2:]
	}
	return label
}
