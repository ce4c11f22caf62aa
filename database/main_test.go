package database

import (
	"context"
	"log"
	"testing"

	"github.com/siherrmann/extractor/helper"
	loadSql "github.com/siherrmann/extractor/sql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

func initDB(t *testing.T) *helper.Database {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	database := helper.NewTestDatabase(dbConfig)

	err = loadSql.Init(database.Instance)
	require.NoError(t, err)

	return database
}

// testEmbedder returns a deterministic fake embedding so vector search
// can run without a model. Texts of equal length map to equal vectors.
func testEmbedder(dim int) func(text string) ([]float32, error) {
	return func(text string) ([]float32, error) {
		embedding := make([]float32, dim)
		for i := range embedding {
			embedding[i] = float32((len(text)+i)%100) / 100.0
		}
		// Avoid the all-zero vector, cosine distance is undefined there.
		embedding[0] += 1.0
		return embedding, nil
	}
}
