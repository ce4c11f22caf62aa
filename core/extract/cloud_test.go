package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCloudExtractor(t *testing.T) {
	t.Run("Missing credentials fail construction", func(t *testing.T) {
		_, err := NewCloudExtractor(context.Background(), nil)
		assert.Error(t, err, "Expected construction to fail early instead of producing a capability that cannot run")
		assert.Contains(t, err.Error(), "missing credentials JSON")
	})

	t.Run("Unset environment variable fails construction", func(t *testing.T) {
		t.Setenv("NATURAL_LANGUAGE_CREDENTIALS", "")

		_, err := NewCloudExtractorFromEnv(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "NATURAL_LANGUAGE_CREDENTIALS is not set")
	})

	t.Run("Invalid base64 credentials fail construction", func(t *testing.T) {
		t.Setenv("NATURAL_LANGUAGE_CREDENTIALS", "not-base64!!!")

		_, err := NewCloudExtractorFromEnv(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "decode credentials")
	})
}
