package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/siherrmann/extractor"
	"github.com/siherrmann/extractor/core/extract"
	"github.com/siherrmann/extractor/helper"
	"github.com/siherrmann/extractor/model"
)

const sampleText = `Marie Curie was a physicist and chemist who conducted pioneering research on radioactivity.
She worked at the Sorbonne in Paris, where she became the first female professor.
Marie Curie collaborated closely with Pierre Curie, and together they discovered polonium and radium.
The Sorbonne later established a dedicated radium institute to continue her work in Paris.`

func main() {
	// Load database settings from a .env file if one exists, otherwise
	// fall back to a throwaway PostgreSQL container.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, starting a test PostgreSQL container")
	}

	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		teardown, dbPort, err := helper.MustStartPostgresContainer()
		if err != nil {
			log.Fatalf("Failed to start PostgreSQL container: %v", err)
		}
		defer teardown(context.Background())

		dbConfig = &helper.DatabaseConfiguration{
			Host:     "localhost",
			Port:     dbPort,
			Database: "database",
			Username: "user",
			Password: "password",
			Schema:   "public",
			SSLMode:  "disable",
		}
	}

	// The default embedder downloads all-MiniLM-L6-v2 on first use and
	// embeds entity names for similarity search.
	embed, err := extract.NewDefaultEmbedder()
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	// A pattern capability is the simplest way to get started; swap in
	// NewProseExtractor or NewNERExtractor for statistical extraction.
	pattern := extract.NewPatternExtractor(map[string][]string{
		"PERSON":       {"Marie Curie", "Pierre Curie"},
		"ORGANIZATION": {"Sorbonne"},
		"LOCATION":     {"Paris"},
	})

	e, err := extractor.NewExtractor(
		extractor.WithExtractors(pattern),
		extractor.WithStore(dbConfig, extract.EmbedderDimension),
		extractor.WithNameEmbedder(embed),
	)
	if err != nil {
		log.Fatalf("Failed to create extractor: %v", err)
	}
	defer e.Close()

	// Extract, merge and persist in one call
	fmt.Println("Extracting entities...")
	stored, err := e.ExtractAndStore(context.Background(), sampleText, model.Parameters{
		SourceID: "basic_example",
	})
	if err != nil {
		log.Fatalf("Failed to extract and store: %v", err)
	}
	fmt.Printf("Stored %d entities and %d relationships\n", len(stored.Entities), len(stored.Relationships))

	// Entities of one type, highest confidence first
	persons, err := e.Store.Entities.SelectEntitiesByType("PERSON", 10)
	if err != nil {
		log.Fatalf("Failed to select persons: %v", err)
	}

	fmt.Println("\nPersons found:")
	for _, person := range persons {
		observations, _ := model.Observations(person.Metadata)
		fmt.Printf("- %s (confidence %.2f, %d observations)\n", person.Name, person.Confidence, len(observations))
	}

	// Vector similarity search over stored entity names
	queryName := "Marie Curie"
	fmt.Printf("\nSearching entities similar to: %s\n", queryName)

	matches, err := e.SearchEntitiesByName(queryName, 3)
	if err != nil {
		log.Fatalf("Failed to search entities: %v", err)
	}

	for i, match := range matches {
		fmt.Printf("\n--- Match %d ---\n", i+1)
		fmt.Printf("Name: %s\n", match.Entity.Name)
		fmt.Printf("Type: %s\n", match.Entity.Type)
		fmt.Printf("Distance: %.4f\n", match.Distance)
	}

	fmt.Println("\nBasic example completed successfully!")
}
