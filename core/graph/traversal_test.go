package graph

import (
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/extractor/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTestCollection creates a small graph:
//
//	Alice -works_for-> Acme -located_in-> Berlin
//	Alice -knows-> Bob
//	Bob -works_for-> Acme
func buildTestCollection() (*model.EntityCollection, map[string]*model.Entity) {
	collection := model.NewEntityCollection("doc-1")

	entities := map[string]*model.Entity{
		"alice":  model.NewEntity("Alice", "person", "Alice", 0, 5, 0.9, model.Metadata{}),
		"acme":   model.NewEntity("Acme", "organization", "Acme", 20, 24, 0.8, model.Metadata{}),
		"berlin": model.NewEntity("Berlin", "location", "Berlin", 40, 46, 0.7, model.Metadata{}),
		"bob":    model.NewEntity("Bob", "person", "Bob", 60, 63, 0.9, model.Metadata{}),
	}
	for _, key := range []string{"alice", "acme", "berlin", "bob"} {
		collection.AddEntity(entities[key])
	}

	collection.AddRelationship(model.NewRelationship(entities["alice"].ID, entities["acme"].ID, "works_for", 0.8, model.Metadata{}))
	collection.AddRelationship(model.NewRelationship(entities["acme"].ID, entities["berlin"].ID, "located_in", 0.7, model.Metadata{}))
	collection.AddRelationship(model.NewRelationship(entities["alice"].ID, entities["bob"].ID, "knows", 0.6, model.Metadata{}))
	collection.AddRelationship(model.NewRelationship(entities["bob"].ID, entities["acme"].ID, "works_for", 0.9, model.Metadata{}))

	return collection, entities
}

func TestBFS(t *testing.T) {
	collection, entities := buildTestCollection()

	t.Run("Start entity comes first at distance zero", func(t *testing.T) {
		results, err := BFS(collection, entities["alice"].ID, TraversalOptions{MaxDepth: 3, Direction: Outgoing})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, entities["alice"].ID, results[0].Entity.ID, "Expected start entity first")
		assert.Equal(t, 0, results[0].Distance, "Expected start at distance zero")
		assert.Equal(t, []uuid.UUID{entities["alice"].ID}, results[0].Path, "Expected path to start with the start entity")
	})

	t.Run("Visits entities in breadth order", func(t *testing.T) {
		results, err := BFS(collection, entities["alice"].ID, TraversalOptions{MaxDepth: 3, Direction: Outgoing})
		require.NoError(t, err)
		require.Len(t, results, 4, "Expected all reachable entities")

		// Distance one: Acme and Bob in relationship insertion order,
		// distance two: Berlin.
		assert.Equal(t, entities["acme"].ID, results[1].Entity.ID)
		assert.Equal(t, 1, results[1].Distance)
		assert.Equal(t, entities["bob"].ID, results[2].Entity.ID)
		assert.Equal(t, 1, results[2].Distance)
		assert.Equal(t, entities["berlin"].ID, results[3].Entity.ID)
		assert.Equal(t, 2, results[3].Distance)
		assert.Equal(t, []uuid.UUID{entities["alice"].ID, entities["acme"].ID, entities["berlin"].ID}, results[3].Path, "Expected path through Acme")
	})

	t.Run("Max depth limits traversal", func(t *testing.T) {
		results, err := BFS(collection, entities["alice"].ID, TraversalOptions{MaxDepth: 1, Direction: Outgoing})
		require.NoError(t, err)
		assert.Len(t, results, 3, "Expected start plus direct neighbors only")
		for _, result := range results {
			assert.LessOrEqual(t, result.Distance, 1, "Expected no entity beyond max depth")
		}
	})

	t.Run("Max depth zero returns only the start", func(t *testing.T) {
		results, err := BFS(collection, entities["alice"].ID, TraversalOptions{MaxDepth: 0, Direction: Outgoing})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, entities["alice"].ID, results[0].Entity.ID)
	})

	t.Run("Missing start entity returns error", func(t *testing.T) {
		_, err := BFS(collection, uuid.New(), TraversalOptions{MaxDepth: 2, Direction: Outgoing})
		assert.Error(t, err, "Expected error for start entity not in collection")
		assert.Contains(t, err.Error(), "not in collection", "Expected specific error message")
	})
}

func TestBFSDirection(t *testing.T) {
	collection, entities := buildTestCollection()

	t.Run("Outgoing does not reach sources pointing at the start", func(t *testing.T) {
		results, err := BFS(collection, entities["acme"].ID, TraversalOptions{MaxDepth: 2, Direction: Outgoing})
		require.NoError(t, err)
		require.Len(t, results, 2, "Expected only Acme and Berlin")
		assert.Equal(t, entities["berlin"].ID, results[1].Entity.ID)
	})

	t.Run("Incoming walks relationships backwards", func(t *testing.T) {
		results, err := BFS(collection, entities["acme"].ID, TraversalOptions{MaxDepth: 2, Direction: Incoming})
		require.NoError(t, err)
		require.Len(t, results, 3, "Expected Acme, Alice and Bob")
		assert.Equal(t, entities["alice"].ID, results[1].Entity.ID)
		assert.Equal(t, entities["bob"].ID, results[2].Entity.ID)
	})

	t.Run("Both reaches the whole component", func(t *testing.T) {
		results, err := BFS(collection, entities["berlin"].ID, TraversalOptions{MaxDepth: 3, Direction: Both})
		require.NoError(t, err)
		assert.Len(t, results, 4, "Expected every entity when ignoring direction")
	})
}

func TestBFSTypeFilter(t *testing.T) {
	collection, entities := buildTestCollection()

	results, err := BFS(collection, entities["alice"].ID, TraversalOptions{
		MaxDepth:          3,
		Direction:         Outgoing,
		RelationshipTypes: []string{"works_for"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2, "Expected only the works_for edge to be followed")
	assert.Equal(t, entities["acme"].ID, results[1].Entity.ID, "Expected Acme via works_for")
}

func TestBFSSkipsDanglingRelationships(t *testing.T) {
	collection, entities := buildTestCollection()

	// Relationship to an entity that is not part of the collection
	collection.AddRelationship(model.NewRelationship(entities["alice"].ID, uuid.New(), "knows", 0.5, model.Metadata{}))

	results, err := BFS(collection, entities["alice"].ID, TraversalOptions{MaxDepth: 3, Direction: Outgoing})
	require.NoError(t, err, "Expected dangling relationship to be skipped, not to fail")
	assert.Len(t, results, 4, "Expected only entities present in the collection")
}

func TestDFS(t *testing.T) {
	collection, entities := buildTestCollection()

	t.Run("Visits entities depth first", func(t *testing.T) {
		results, err := DFS(collection, entities["alice"].ID, TraversalOptions{MaxDepth: 3, Direction: Outgoing})
		require.NoError(t, err)
		require.Len(t, results, 4, "Expected all reachable entities")

		// Alice, then the full Acme branch, then Bob.
		assert.Equal(t, entities["alice"].ID, results[0].Entity.ID)
		assert.Equal(t, entities["acme"].ID, results[1].Entity.ID)
		assert.Equal(t, entities["berlin"].ID, results[2].Entity.ID)
		assert.Equal(t, entities["bob"].ID, results[3].Entity.ID)
		assert.Equal(t, 2, results[2].Distance, "Expected Berlin at distance two")
		assert.Equal(t, 1, results[3].Distance, "Expected Bob at distance one")
	})

	t.Run("Max depth limits traversal", func(t *testing.T) {
		results, err := DFS(collection, entities["alice"].ID, TraversalOptions{MaxDepth: 1, Direction: Outgoing})
		require.NoError(t, err)
		assert.Len(t, results, 3, "Expected start plus direct neighbors only")
	})

	t.Run("Missing start entity returns error", func(t *testing.T) {
		_, err := DFS(collection, uuid.New(), TraversalOptions{MaxDepth: 2, Direction: Outgoing})
		assert.Error(t, err, "Expected error for start entity not in collection")
	})
}

func TestNeighbors(t *testing.T) {
	collection, entities := buildTestCollection()

	t.Run("Returns one hop neighbors without the start", func(t *testing.T) {
		neighbors, err := Neighbors(collection, entities["alice"].ID, TraversalOptions{Direction: Outgoing})
		require.NoError(t, err)
		require.Len(t, neighbors, 2)
		assert.Equal(t, entities["acme"].ID, neighbors[0].ID)
		assert.Equal(t, entities["bob"].ID, neighbors[1].ID)
	})

	t.Run("Respects direction", func(t *testing.T) {
		neighbors, err := Neighbors(collection, entities["acme"].ID, TraversalOptions{Direction: Both})
		require.NoError(t, err)
		assert.Len(t, neighbors, 3, "Expected Alice, Bob and Berlin around Acme")
	})

	t.Run("Entity without relationships has no neighbors", func(t *testing.T) {
		lonely := model.NewEntity("Lonely", "person", "", 0, 0, 0.5, model.Metadata{})
		collection.AddEntity(lonely)

		neighbors, err := Neighbors(collection, lonely.ID, TraversalOptions{Direction: Both})
		require.NoError(t, err)
		assert.Empty(t, neighbors, "Expected no neighbors for an unconnected entity")
	})
}
