package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/siherrmann/extractor"
	"github.com/siherrmann/extractor/core/extract"
	"github.com/siherrmann/extractor/core/graph"
	"github.com/siherrmann/extractor/model"
)

const sampleText = `Ada Lovelace worked with Charles Babbage on the Analytical Engine.
Ada Lovelace wrote the first published algorithm intended for a machine.
Charles Babbage designed the Analytical Engine in London.`

func main() {
	// Two capabilities over the same text: literal patterns plus
	// statistical NER from prose. The composite runs them in this
	// order, so the pattern capability provides the canonical entity
	// instance for anything both of them find.
	pattern := extract.NewPatternExtractor(map[string][]string{
		"PERSON":  {"Ada Lovelace", "Charles Babbage"},
		"MACHINE": {"Analytical Engine"},
	})
	prose := extract.NewProseExtractor(0.3)

	e, err := extractor.NewExtractor(extractor.WithExtractors(pattern, prose))
	if err != nil {
		log.Fatalf("Failed to create extractor: %v", err)
	}

	collection, err := e.ExtractAndMerge(context.Background(), sampleText, model.Parameters{
		SourceID: "merge_example",
	})
	if err != nil {
		log.Fatalf("Failed to extract: %v", err)
	}

	// Entities found by both capabilities carry one observation per
	// mention and per capability.
	fmt.Printf("Merged %d entities and %d relationships\n\n", len(collection.Entities), len(collection.Relationships))
	for _, entity := range collection.Entities {
		observations, err := model.Observations(entity.Metadata)
		if err != nil {
			log.Fatalf("Failed to read observations: %v", err)
		}

		fmt.Printf("%s (%s, confidence %.2f)\n", entity.Name, entity.Type, entity.Confidence)
		for _, observation := range observations {
			fmt.Printf("  seen by %s in %s\n", observation.Extractor, observation.Source)
		}
	}

	// Traverse the merged graph from the first entity
	start := collection.Entities[0]
	fmt.Printf("\nEntities reachable from %s:\n", start.Name)

	results, err := graph.BFS(collection, start.ID, graph.TraversalOptions{
		MaxDepth:  2,
		Direction: graph.Both,
	})
	if err != nil {
		log.Fatalf("Failed to traverse: %v", err)
	}

	for _, result := range results {
		fmt.Printf("- %s at distance %d\n", result.Entity.Name, result.Distance)
	}

	// The collection round-trips through JSON, so it can be handed to
	// other systems without the store.
	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal collection: %v", err)
	}

	restored := &model.EntityCollection{}
	if err := json.Unmarshal(data, restored); err != nil {
		log.Fatalf("Failed to unmarshal collection: %v", err)
	}

	fmt.Printf("\nJSON round trip: %d bytes, %d entities and %d relationships restored\n",
		len(data), len(restored.Entities), len(restored.Relationships))

	fmt.Println("\nMerge example completed successfully!")
}
