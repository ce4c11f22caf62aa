// Package graph provides in-memory traversal over the relationship
// structure of an entity collection.
package graph

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/siherrmann/extractor/helper"
	"github.com/siherrmann/extractor/model"
)

// Direction selects which relationship endpoints a traversal follows.
type Direction int

const (
	// Outgoing follows relationships where the current entity is the source.
	Outgoing Direction = iota
	// Incoming follows relationships where the current entity is the target.
	Incoming
	// Both follows relationships in either direction.
	Both
)

// TraversalOptions configures a traversal run.
type TraversalOptions struct {
	// MaxDepth limits how many hops from the start entity are visited.
	MaxDepth int
	// Direction selects the edge direction to follow.
	Direction Direction
	// RelationshipTypes filters the followed relationships; empty
	// follows every type.
	RelationshipTypes []string
}

// TraversalResult contains a reached entity, its hop distance from the
// start and the entity id path leading to it.
type TraversalResult struct {
	Entity   *model.Entity
	Distance int
	Path     []uuid.UUID
}

// BFS performs breadth-first traversal from a start entity. The start
// entity is the first result at distance zero. Relationships whose far
// endpoint is not present in the collection are skipped.
func BFS(collection *model.EntityCollection, startID uuid.UUID, opts TraversalOptions) ([]*TraversalResult, error) {
	start := collection.GetEntityByID(startID)
	if start == nil {
		return nil, helper.NewError("traverse collection", fmt.Errorf("start entity %v not in collection", startID))
	}

	visited := map[uuid.UUID]bool{startID: true}
	queue := []*TraversalResult{{
		Entity:   start,
		Distance: 0,
		Path:     []uuid.UUID{startID},
	}}

	var results []*TraversalResult
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		results = append(results, current)

		if current.Distance >= opts.MaxDepth {
			continue
		}

		for _, targetID := range neighborIDs(collection, current.Entity.ID, opts) {
			if visited[targetID] {
				continue
			}
			target := collection.GetEntityByID(targetID)
			if target == nil {
				continue
			}
			visited[targetID] = true

			path := make([]uuid.UUID, len(current.Path), len(current.Path)+1)
			copy(path, current.Path)
			path = append(path, targetID)

			queue = append(queue, &TraversalResult{
				Entity:   target,
				Distance: current.Distance + 1,
				Path:     path,
			})
		}
	}

	return results, nil
}

// DFS performs depth-first traversal from a start entity with the same
// contract as BFS.
func DFS(collection *model.EntityCollection, startID uuid.UUID, opts TraversalOptions) ([]*TraversalResult, error) {
	start := collection.GetEntityByID(startID)
	if start == nil {
		return nil, helper.NewError("traverse collection", fmt.Errorf("start entity %v not in collection", startID))
	}

	visited := map[uuid.UUID]bool{}
	var results []*TraversalResult
	dfsRecursive(collection, start, 0, []uuid.UUID{startID}, opts, visited, &results)

	return results, nil
}

func dfsRecursive(
	collection *model.EntityCollection,
	current *model.Entity,
	distance int,
	path []uuid.UUID,
	opts TraversalOptions,
	visited map[uuid.UUID]bool,
	results *[]*TraversalResult,
) {
	visited[current.ID] = true

	pathCopy := make([]uuid.UUID, len(path))
	copy(pathCopy, path)
	*results = append(*results, &TraversalResult{
		Entity:   current,
		Distance: distance,
		Path:     pathCopy,
	})

	if distance >= opts.MaxDepth {
		return
	}

	for _, targetID := range neighborIDs(collection, current.ID, opts) {
		if visited[targetID] {
			continue
		}
		target := collection.GetEntityByID(targetID)
		if target == nil {
			continue
		}

		dfsRecursive(collection, target, distance+1, append(path, targetID), opts, visited, results)
	}
}

// Neighbors returns the entities one hop away from the given entity.
func Neighbors(collection *model.EntityCollection, id uuid.UUID, opts TraversalOptions) ([]*model.Entity, error) {
	opts.MaxDepth = 1
	results, err := BFS(collection, id, opts)
	if err != nil {
		return nil, err
	}

	// The start entity itself is the first result.
	neighbors := make([]*model.Entity, 0, len(results)-1)
	for i := 1; i < len(results); i++ {
		neighbors = append(neighbors, results[i].Entity)
	}

	return neighbors, nil
}

// neighborIDs collects the far endpoints of every relationship the
// options allow from the given entity, in relationship insertion order.
func neighborIDs(collection *model.EntityCollection, id uuid.UUID, opts TraversalOptions) []uuid.UUID {
	var ids []uuid.UUID
	for _, relationship := range collection.Relationships {
		if !typeAllowed(relationship.Type, opts.RelationshipTypes) {
			continue
		}

		if relationship.SourceEntity == id && (opts.Direction == Outgoing || opts.Direction == Both) {
			ids = append(ids, relationship.TargetEntity)
		}
		if relationship.TargetEntity == id && (opts.Direction == Incoming || opts.Direction == Both) {
			ids = append(ids, relationship.SourceEntity)
		}
	}
	return ids
}

func typeAllowed(relationshipType string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, candidate := range allowed {
		if candidate == relationshipType {
			return true
		}
	}
	return false
}
