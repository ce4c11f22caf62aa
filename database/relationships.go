package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/extractor/helper"
	"github.com/siherrmann/extractor/model"
	loadSql "github.com/siherrmann/extractor/sql"
)

// RelationshipsDBHandlerFunctions defines the interface for Relationships database operations.
type RelationshipsDBHandlerFunctions interface {
	InsertRelationship(relationship *model.Relationship) error
	SelectRelationship(id uuid.UUID) (*model.Relationship, error)
	SelectRelationshipsByType(relationshipType string, limit int) ([]*model.Relationship, error)
	SelectRelationshipsFromEntity(entityID uuid.UUID, relationshipType *string) ([]*model.Relationship, error)
	SelectRelationshipsToEntity(entityID uuid.UUID, relationshipType *string) ([]*model.Relationship, error)
	SelectRelationshipsForEntity(entityID uuid.UUID, relationshipType *string) ([]*model.Relationship, error)
	UpdateRelationshipConfidence(id uuid.UUID, confidence float64) error
	DeleteRelationship(id uuid.UUID) error
}

// RelationshipsDBHandler handles relationship-related database
// operations. Relationships are never deduplicated; every insert adds
// a row, and both endpoints have to reference stored entities.
type RelationshipsDBHandler struct {
	db *helper.Database
}

// NewRelationshipsDBHandler creates a new relationships database handler.
// It initializes the database connection and loads relationship-related
// SQL functions. The entities table has to exist before the handler is
// created because of the foreign keys.
// If force is true, it will reload the SQL functions even if they already exist.
func NewRelationshipsDBHandler(db *helper.Database, force bool) (*RelationshipsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	relationshipsDbHandler := &RelationshipsDBHandler{
		db: db,
	}

	err := loadSql.LoadRelationshipsSql(relationshipsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load relationships sql", err)
	}

	err = relationshipsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RelationshipsDBHandler")

	return relationshipsDbHandler, nil
}

// CreateTable creates the 'relationships' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *RelationshipsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables, triggers, and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_relationships();`)
	if err != nil {
		log.Panicf("error initializing relationships table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table relationships")

	return nil
}

// InsertRelationship inserts a new relationship
func (h *RelationshipsDBHandler) InsertRelationship(relationship *model.Relationship) error {
	return h.insertWithQuerier(h.db.Instance, relationship)
}

func (h *RelationshipsDBHandler) insertWithQuerier(q rowQuerier, relationship *model.Relationship) error {
	if relationship == nil {
		return helper.NewError("relationship validation", fmt.Errorf("relationship is nil"))
	}
	if relationship.ID == uuid.Nil {
		relationship.ID = uuid.New()
	}

	row := q.QueryRow(
		`SELECT * FROM insert_relationship($1, $2, $3, $4, $5, $6)`,
		relationship.ID,
		relationship.SourceEntity,
		relationship.TargetEntity,
		relationship.Type,
		relationship.Confidence,
		relationship.Metadata,
	)

	err := row.Scan(
		&relationship.ID,
		&relationship.SourceEntity,
		&relationship.TargetEntity,
		&relationship.Type,
		&relationship.Confidence,
		&relationship.Metadata,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectRelationship retrieves a relationship by ID
func (h *RelationshipsDBHandler) SelectRelationship(id uuid.UUID) (*model.Relationship, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_relationship($1)`,
		id,
	)

	relationship := &model.Relationship{}

	err := row.Scan(
		&relationship.ID,
		&relationship.SourceEntity,
		&relationship.TargetEntity,
		&relationship.Type,
		&relationship.Confidence,
		&relationship.Metadata,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return relationship, nil
}

// SelectRelationshipsByType retrieves relationships by type, highest
// confidence first
func (h *RelationshipsDBHandler) SelectRelationshipsByType(relationshipType string, limit int) ([]*model.Relationship, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_relationships_by_type($1, $2)`,
		relationshipType,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanRelationships(rows)
}

// SelectRelationshipsFromEntity retrieves relationships originating from an entity
func (h *RelationshipsDBHandler) SelectRelationshipsFromEntity(entityID uuid.UUID, relationshipType *string) ([]*model.Relationship, error) {
	var rows *sql.Rows
	var err error

	if relationshipType != nil {
		rows, err = h.db.Instance.Query(
			`SELECT * FROM select_relationships_from_entity($1, $2)`,
			entityID,
			*relationshipType,
		)
	} else {
		rows, err = h.db.Instance.Query(
			`SELECT * FROM select_relationships_from_entity($1, NULL)`,
			entityID,
		)
	}

	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanRelationships(rows)
}

// SelectRelationshipsToEntity retrieves relationships targeting an entity
func (h *RelationshipsDBHandler) SelectRelationshipsToEntity(entityID uuid.UUID, relationshipType *string) ([]*model.Relationship, error) {
	var rows *sql.Rows
	var err error

	if relationshipType != nil {
		rows, err = h.db.Instance.Query(
			`SELECT * FROM select_relationships_to_entity($1, $2)`,
			entityID,
			*relationshipType,
		)
	} else {
		rows, err = h.db.Instance.Query(
			`SELECT * FROM select_relationships_to_entity($1, NULL)`,
			entityID,
		)
	}

	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanRelationships(rows)
}

// SelectRelationshipsForEntity retrieves all relationships touching an
// entity in either direction
func (h *RelationshipsDBHandler) SelectRelationshipsForEntity(entityID uuid.UUID, relationshipType *string) ([]*model.Relationship, error) {
	var rows *sql.Rows
	var err error

	if relationshipType != nil {
		rows, err = h.db.Instance.Query(
			`SELECT * FROM select_relationships_for_entity($1, $2)`,
			entityID,
			*relationshipType,
		)
	} else {
		rows, err = h.db.Instance.Query(
			`SELECT * FROM select_relationships_for_entity($1, NULL)`,
			entityID,
		)
	}

	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanRelationships(rows)
}

// UpdateRelationshipConfidence updates the confidence of a relationship
func (h *RelationshipsDBHandler) UpdateRelationshipConfidence(id uuid.UUID, confidence float64) error {
	_, err := h.db.Instance.Exec(
		`SELECT * FROM update_relationship_confidence($1, $2)`,
		id,
		confidence,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// DeleteRelationship deletes a relationship by ID
func (h *RelationshipsDBHandler) DeleteRelationship(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_relationship($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// scanRelationships collects relationship rows into a slice.
func scanRelationships(rows *sql.Rows) ([]*model.Relationship, error) {
	var relationships []*model.Relationship
	for rows.Next() {
		relationship := &model.Relationship{}
		err := rows.Scan(
			&relationship.ID,
			&relationship.SourceEntity,
			&relationship.TargetEntity,
			&relationship.Type,
			&relationship.Confidence,
			&relationship.Metadata,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		relationships = append(relationships, relationship)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return relationships, nil
}
