package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/extractor/helper"
	"github.com/siherrmann/extractor/model"
	loadSql "github.com/siherrmann/extractor/sql"
)

// EntitiesDBHandlerFunctions defines the interface for Entities database operations.
type EntitiesDBHandlerFunctions interface {
	InsertEntity(entity *model.Entity) error
	SelectEntity(id uuid.UUID) (*model.Entity, error)
	SelectEntityByName(name string, entityType string) (*model.Entity, error)
	SelectEntitiesByType(entityType string, limit int) ([]*model.Entity, error)
	SelectEntitiesByIDs(ids []uuid.UUID) ([]*model.Entity, error)
	SearchEntitiesByName(name string, limit int) ([]*model.EntityMatch, error)
	UpdateEntityMetadata(id uuid.UUID, metadata model.Metadata) error
	RaiseEntityConfidence(id uuid.UUID, confidence float64) error
	DeleteEntity(id uuid.UUID) error
}

// EntitiesDBHandler handles entity-related database operations.
// Entities are unique per (name, type); inserting an entity that
// already exists folds it into the stored row instead of duplicating
// it. When an embed function is configured the handler embeds entity
// names on insert, which enables SearchEntitiesByName.
type EntitiesDBHandler struct {
	db    *helper.Database
	embed func(text string) ([]float32, error)
}

// NewEntitiesDBHandler creates a new entities database handler.
// It initializes the database connection and loads entity-related SQL functions.
// embeddingDim is the dimension of the name embedding column, embed may
// be nil to store entities without name embeddings.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEntitiesDBHandler(db *helper.Database, embeddingDim int, embed func(text string) ([]float32, error), force bool) (*EntitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entitiesDbHandler := &EntitiesDBHandler{
		db:    db,
		embed: embed,
	}

	err := loadSql.LoadEntitiesSql(entitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load entities sql", err)
	}

	err = entitiesDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EntitiesDBHandler")

	return entitiesDbHandler, nil
}

// CreateTable creates the 'entities' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *EntitiesDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if embeddingDim <= 0 {
		embeddingDim = 384
	}

	// Use the SQL init() function to create all tables, triggers, and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_entities($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing entities table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table entities")

	return nil
}

// InsertEntity inserts a new entity or folds it into the stored entity
// with the same name and type. On conflict the stored row keeps its id,
// confidence only rises and the metadata maps are unioned, so
// observation lists from both sides survive. The passed entity is
// updated to the stored state, including the canonical id.
func (h *EntitiesDBHandler) InsertEntity(entity *model.Entity) error {
	return h.insertWithQuerier(h.db.Instance, entity)
}

func (h *EntitiesDBHandler) insertWithQuerier(q rowQuerier, entity *model.Entity) error {
	if entity == nil {
		return helper.NewError("entity validation", fmt.Errorf("entity is nil"))
	}
	if entity.ID == uuid.Nil {
		entity.ID = uuid.New()
	}

	var embeddingParam interface{}
	if h.embed != nil {
		embedding, err := h.embed(entity.Name)
		if err != nil {
			return helper.NewError("embed entity name", err)
		}
		embeddingParam = pgvector.NewVector(embedding)
	}

	row := q.QueryRow(
		`SELECT * FROM insert_entity($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entity.ID,
		entity.Name,
		entity.Type,
		entity.SourceText,
		entity.StartPosition,
		entity.EndPosition,
		entity.Confidence,
		entity.Metadata,
		embeddingParam,
	)

	err := row.Scan(
		&entity.ID,
		&entity.Name,
		&entity.Type,
		&entity.SourceText,
		&entity.StartPosition,
		&entity.EndPosition,
		&entity.Confidence,
		&entity.Metadata,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectEntity retrieves an entity by ID
func (h *EntitiesDBHandler) SelectEntity(id uuid.UUID) (*model.Entity, error) {
	entity := &model.Entity{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_entity($1)`,
		id,
	)

	err := row.Scan(
		&entity.ID,
		&entity.Name,
		&entity.Type,
		&entity.SourceText,
		&entity.StartPosition,
		&entity.EndPosition,
		&entity.Confidence,
		&entity.Metadata,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectEntityByName retrieves an entity by name and type
func (h *EntitiesDBHandler) SelectEntityByName(name string, entityType string) (*model.Entity, error) {
	entity := &model.Entity{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_entity_by_name($1, $2)`,
		name,
		entityType,
	)

	err := row.Scan(
		&entity.ID,
		&entity.Name,
		&entity.Type,
		&entity.SourceText,
		&entity.StartPosition,
		&entity.EndPosition,
		&entity.Confidence,
		&entity.Metadata,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectEntitiesByType retrieves entities by type, highest confidence first
func (h *EntitiesDBHandler) SelectEntitiesByType(entityType string, limit int) ([]*model.Entity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_entities_by_type($1, $2)`,
		entityType,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entities []*model.Entity
	for rows.Next() {
		entity := &model.Entity{}
		err := rows.Scan(
			&entity.ID,
			&entity.Name,
			&entity.Type,
			&entity.SourceText,
			&entity.StartPosition,
			&entity.EndPosition,
			&entity.Confidence,
			&entity.Metadata,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		entities = append(entities, entity)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}

// SelectEntitiesByIDs retrieves entities by an id list, preserving the
// order of the list. Unknown ids are skipped, so the result can be
// shorter than the input. Useful for hydrating traversal paths.
func (h *EntitiesDBHandler) SelectEntitiesByIDs(ids []uuid.UUID) ([]*model.Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_entities_by_ids($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entities []*model.Entity
	for rows.Next() {
		entity := &model.Entity{}
		err := rows.Scan(
			&entity.ID,
			&entity.Name,
			&entity.Type,
			&entity.SourceText,
			&entity.StartPosition,
			&entity.EndPosition,
			&entity.Confidence,
			&entity.Metadata,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		entities = append(entities, entity)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}

// SearchEntitiesByName performs vector similarity search over entity
// name embeddings. It requires an embed function to be configured on
// the handler; entities stored without an embedding are not found.
func (h *EntitiesDBHandler) SearchEntitiesByName(name string, limit int) ([]*model.EntityMatch, error) {
	if h.embed == nil {
		return nil, helper.NewError("search entities by name", fmt.Errorf("no embed function configured"))
	}

	embedding, err := h.embed(name)
	if err != nil {
		return nil, helper.NewError("embed search query", err)
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM search_entities_by_name($1, $2)`,
		pgvector.NewVector(embedding),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var matches []*model.EntityMatch
	for rows.Next() {
		entity := &model.Entity{}
		var distance float64
		err := rows.Scan(
			&entity.ID,
			&entity.Name,
			&entity.Type,
			&entity.SourceText,
			&entity.StartPosition,
			&entity.EndPosition,
			&entity.Confidence,
			&entity.Metadata,
			&distance,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		matches = append(matches, &model.EntityMatch{
			Entity:   entity,
			Distance: distance,
		})
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return matches, nil
}

// UpdateEntityMetadata replaces the metadata of an entity
func (h *EntitiesDBHandler) UpdateEntityMetadata(id uuid.UUID, metadata model.Metadata) error {
	_, err := h.db.Instance.Exec(
		`SELECT * FROM update_entity_metadata($1, $2)`,
		id,
		metadata,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// RaiseEntityConfidence raises the confidence of an entity. A value
// lower than the stored confidence is ignored, confidence never drops.
func (h *EntitiesDBHandler) RaiseEntityConfidence(id uuid.UUID, confidence float64) error {
	_, err := h.db.Instance.Exec(
		`SELECT * FROM raise_entity_confidence($1, $2)`,
		id,
		confidence,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// DeleteEntity deletes an entity by ID
func (h *EntitiesDBHandler) DeleteEntity(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_entity($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
