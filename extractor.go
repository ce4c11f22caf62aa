package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/extractor/core/extract"
	"github.com/siherrmann/extractor/database"
	"github.com/siherrmann/extractor/helper"
	"github.com/siherrmann/extractor/model"
	loadSql "github.com/siherrmann/extractor/sql"
)

// Extractor runs a set of extraction capabilities over text and merges
// their collections into one. With a store configured it also persists
// merged collections to postgres and searches stored entities by name.
type Extractor struct {
	DB        *helper.Database
	Store     *database.Store
	Composite *extract.Composite
	// Logging
	log *slog.Logger
}

type extractorOptions struct {
	extractors   []extract.Extractor
	logger       *slog.Logger
	dbConfig     *helper.DatabaseConfiguration
	embeddingDim int
	embed        extract.EmbedFunc
}

// Option configures NewExtractor.
type Option func(*extractorOptions)

// WithExtractors adds extraction capabilities. They run in the given
// order, and for duplicate entities the earlier capability provides the
// canonical instance.
func WithExtractors(extractors ...extract.Extractor) Option {
	return func(o *extractorOptions) {
		o.extractors = append(o.extractors, extractors...)
	}
}

// WithLogger replaces the default pretty stdout logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *extractorOptions) {
		o.logger = logger
	}
}

// WithStore enables the postgres store for the given configuration.
// embeddingDim is the dimension of the entity name embedding column.
func WithStore(config *helper.DatabaseConfiguration, embeddingDim int) Option {
	return func(o *extractorOptions) {
		o.dbConfig = config
		o.embeddingDim = embeddingDim
	}
}

// WithNameEmbedder sets the embedding function the store uses for
// entity names. Without it entities are stored without embeddings and
// SearchEntitiesByName is unavailable.
func WithNameEmbedder(embed extract.EmbedFunc) Option {
	return func(o *extractorOptions) {
		o.embed = embed
	}
}

// NewExtractor creates a new Extractor instance. Without WithStore it
// works purely in memory; ExtractAndMerge is available but
// ExtractAndStore returns an error.
func NewExtractor(options ...Option) (*Extractor, error) {
	o := &extractorOptions{}
	for _, option := range options {
		option(o)
	}

	// Logger
	logger := o.logger
	if logger == nil {
		opts := helper.PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{
				Level: slog.LevelInfo,
			},
		}
		logger = slog.New(helper.NewPrettyHandler(os.Stdout, opts))
	}

	extractor := &Extractor{
		Composite: extract.NewComposite(logger, o.extractors...),
		log:       logger,
	}

	if o.dbConfig != nil {
		// Initialize database
		db := helper.NewDatabase("extractor", o.dbConfig, logger)
		err := loadSql.Init(db.Instance)
		if err != nil {
			return nil, helper.NewError("initialize database extensions", err)
		}

		// force=false to not reload if functions already exist
		store, err := database.NewStore(db, o.embeddingDim, o.embed, false)
		if err != nil {
			return nil, helper.NewError("create store", err)
		}

		extractor.DB = db
		extractor.Store = store
	}

	return extractor, nil
}

// Close closes the database connection
func (e *Extractor) Close() error {
	if e.DB != nil && e.DB.Instance != nil {
		return e.DB.Instance.Close()
	}
	return nil
}

// ExtractAndMerge runs every configured capability over the text and
// merges the results into one collection. A failing capability
// contributes an empty collection; the merge itself never fails.
func (e *Extractor) ExtractAndMerge(ctx context.Context, text string, params model.Parameters) (*model.EntityCollection, error) {
	collection, err := e.Composite.Extract(ctx, text, params)
	if err != nil {
		return nil, helper.NewError("extract", err)
	}

	e.log.Info("Extracted collection",
		slog.Int("num_entities", len(collection.Entities)),
		slog.Int("num_relationships", len(collection.Relationships)),
		slog.String("source_id", params.SourceID))

	return collection, nil
}

// ExtractAndStore extracts, merges and persists the collection in one
// transaction. It returns the stored state with canonical entity ids.
func (e *Extractor) ExtractAndStore(ctx context.Context, text string, params model.Parameters) (*model.EntityCollection, error) {
	if e.Store == nil {
		return nil, helper.NewError("extract and store", fmt.Errorf("store not configured, use WithStore() first"))
	}

	collection, err := e.ExtractAndMerge(ctx, text, params)
	if err != nil {
		return nil, err
	}

	stored, err := e.Store.StoreCollection(ctx, collection)
	if err != nil {
		return nil, helper.NewError("store collection", err)
	}

	return stored, nil
}

// StoreCollection persists an already merged collection.
func (e *Extractor) StoreCollection(ctx context.Context, collection *model.EntityCollection) (*model.EntityCollection, error) {
	if e.Store == nil {
		return nil, helper.NewError("store collection", fmt.Errorf("store not configured, use WithStore() first"))
	}
	return e.Store.StoreCollection(ctx, collection)
}

// SearchEntitiesByName performs vector similarity search over stored
// entity names. It requires WithStore and WithNameEmbedder.
func (e *Extractor) SearchEntitiesByName(name string, limit int) ([]*model.EntityMatch, error) {
	if e.Store == nil {
		return nil, helper.NewError("search entities by name", fmt.Errorf("store not configured, use WithStore() first"))
	}
	return e.Store.Entities.SearchEntitiesByName(name, limit)
}

// ChangeIndexType changes the vector index type on the stored entity
// name embeddings between HNSW and IVFFlat
func (e *Extractor) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	if e.Store == nil {
		return helper.NewError("change index type", fmt.Errorf("store not configured, use WithStore() first"))
	}
	return e.Store.Entities.ChangeIndexType(ctx, indexType, params)
}
