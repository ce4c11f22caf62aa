package extract

import (
	"context"
	"log/slog"
	"os"

	"github.com/siherrmann/extractor/helper"
	"github.com/siherrmann/extractor/model"
)

// Composite runs several capabilities over the same text and merges
// their collections into one. Entities converge: an entity matching an
// earlier one on exact (name, type) is treated as a confirming
// observation, raising the confidence when the new one scores higher
// and union merging the metadata so accumulated observations survive.
// Relationships accumulate: they are appended unconditionally, even
// when two capabilities report the identical triple.
//
// Capabilities run strictly in the configured order and each one dedups
// against the result built so far, so the order decides which entity
// instance survives as canonical. Two different referents sharing a
// name and type collapse into one entity; the dedup key is the literal
// (name, type) pair and nothing else.
type Composite struct {
	extractors []Extractor
	name       string
	log        *slog.Logger
}

// NewComposite creates a composite over the given capabilities. A nil
// logger falls back to a pretty handler on stdout.
func NewComposite(logger *slog.Logger, extractors ...Extractor) *Composite {
	if logger == nil {
		logger = slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{Level: slog.LevelInfo},
		}))
	}
	return &Composite{
		extractors: extractors,
		name:       "CompositeExtractor",
		log:        logger,
	}
}

func (c *Composite) Name() string {
	return c.name
}

// Extract runs every capability on the text and merges the results. A
// failing capability contributes an empty collection and is logged as a
// non fatal diagnostic; the merge itself never fails.
func (c *Composite) Extract(ctx context.Context, text string, params model.Parameters) (*model.EntityCollection, error) {
	result := model.NewEntityCollection(params.SourceID)

	for _, extractor := range c.extractors {
		collection, err := extractor.Extract(ctx, text, params)
		if err != nil {
			c.log.Warn(
				"Extraction capability failed, contributing an empty collection",
				slog.String("extractor", extractor.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		if collection == nil {
			continue
		}

		for _, entity := range collection.Entities {
			c.mergeEntity(result, entity)
		}
		for _, relationship := range collection.Relationships {
			result.AddRelationship(relationship)
		}
	}

	return result, nil
}

// mergeEntity folds one entity into the result collection. The scan
// covers the entities merged so far, so earlier capabilities provide
// the canonical instance and its id.
func (c *Composite) mergeEntity(result *model.EntityCollection, entity *model.Entity) {
	for _, existing := range result.Entities {
		if existing.Name != entity.Name || existing.Type != entity.Type {
			continue
		}

		// A duplicate confirms the existing entity. Confidence only
		// moves up; a later, lower scoring duplicate never erodes an
		// earlier one.
		if entity.Confidence > existing.Confidence {
			existing.Confidence = entity.Confidence
		}
		if entity.Metadata != nil {
			if existing.Metadata == nil {
				existing.Metadata = model.Metadata{}
			}
			existing.Metadata.Union(entity.Metadata)
		}
		return
	}

	result.AddEntity(entity)
}
