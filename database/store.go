package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/siherrmann/extractor/helper"
	"github.com/siherrmann/extractor/model"
)

// rowQuerier is satisfied by *sql.DB and *sql.Tx, so the insert helpers
// can run standalone and inside a transaction.
type rowQuerier interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Store bundles the entity and relationship handlers on one connection
// and persists whole collections transactionally.
type Store struct {
	Entities      *EntitiesDBHandler
	Relationships *RelationshipsDBHandler

	db *helper.Database
}

// NewStore creates the entity and relationship handlers on the given
// connection. The entities handler is created first because the
// relationships table references entities.
func NewStore(db *helper.Database, embeddingDim int, embed func(text string) ([]float32, error), force bool) (*Store, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entities, err := NewEntitiesDBHandler(db, embeddingDim, embed, force)
	if err != nil {
		return nil, helper.NewError("new entities handler", err)
	}

	relationships, err := NewRelationshipsDBHandler(db, force)
	if err != nil {
		return nil, helper.NewError("new relationships handler", err)
	}

	return &Store{
		Entities:      entities,
		Relationships: relationships,
		db:            db,
	}, nil
}

// StoreCollection persists a collection in a single transaction and
// returns the stored state. Entities are upserted in collection order;
// an entity that already exists under its (name, type) keeps the stored
// id, so relationship endpoints are remapped from in-memory ids to
// stored ids before insert. Relationship rows get fresh ids on every
// store, repeated stores of the same collection accumulate relationship
// rows while entities stay deduplicated. A relationship endpoint that
// resolves neither inside the collection nor to an already stored
// entity violates the foreign key and rolls back the whole store.
// The passed collection is not modified.
func (s *Store) StoreCollection(ctx context.Context, collection *model.EntityCollection) (*model.EntityCollection, error) {
	if collection == nil {
		return nil, helper.NewError("collection validation", fmt.Errorf("collection is nil"))
	}

	tx, err := s.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return nil, helper.NewError("begin transaction", err)
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback()
	}()

	stored := model.NewEntityCollection(collection.SourceID)
	idRemap := map[uuid.UUID]uuid.UUID{}

	for _, entity := range collection.Entities {
		entityCopy := *entity
		err := s.Entities.insertWithQuerier(tx, &entityCopy)
		if err != nil {
			return nil, helper.NewError("insert entity", err)
		}

		idRemap[entity.ID] = entityCopy.ID
		if stored.GetEntityByID(entityCopy.ID) == nil {
			stored.AddEntity(&entityCopy)
		}
	}

	for _, relationship := range collection.Relationships {
		relationshipCopy := *relationship
		relationshipCopy.ID = uuid.New()
		if storedID, ok := idRemap[relationship.SourceEntity]; ok {
			relationshipCopy.SourceEntity = storedID
		}
		if storedID, ok := idRemap[relationship.TargetEntity]; ok {
			relationshipCopy.TargetEntity = storedID
		}

		err := s.Relationships.insertWithQuerier(tx, &relationshipCopy)
		if err != nil {
			return nil, helper.NewError("insert relationship", err)
		}

		stored.AddRelationship(&relationshipCopy)
	}

	err = tx.Commit()
	if err != nil {
		return nil, helper.NewError("commit transaction", err)
	}

	s.db.Logger.Info(fmt.Sprintf("Stored collection with %v entities and %v relationships", len(stored.Entities), len(stored.Relationships)))

	return stored, nil
}
