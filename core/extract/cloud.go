package extract

import (
	"context"
	"encoding/base64"
	"errors"
	"os"

	language "cloud.google.com/go/language/apiv2"
	"cloud.google.com/go/language/apiv2/languagepb"
	"github.com/siherrmann/extractor/core/confidence"
	"github.com/siherrmann/extractor/helper"
	"github.com/siherrmann/extractor/model"
	"google.golang.org/api/option"
)

// CloudExtractor is a capability backed by the Cloud Natural Language
// API. Every mention the API reports becomes one entity with the
// mention probability as its base confidence. Missing credentials fail
// construction so a composite is never configured with a capability
// that cannot possibly run; API errors at extraction time are ordinary
// capability failures.
type CloudExtractor struct {
	client *language.Client
	name   string
}

// NewCloudExtractor creates the capability from a service account
// credentials JSON.
func NewCloudExtractor(ctx context.Context, credentialsJSON []byte) (*CloudExtractor, error) {
	if len(credentialsJSON) == 0 {
		return nil, helper.NewError("create cloud extractor", errors.New("missing credentials JSON"))
	}

	client, err := language.NewClient(ctx, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, helper.NewError("create language client", err)
	}

	return &CloudExtractor{
		client: client,
		name:   "CloudExtractor",
	}, nil
}

// NewCloudExtractorFromEnv reads base64 encoded credentials from the
// NATURAL_LANGUAGE_CREDENTIALS environment variable.
func NewCloudExtractorFromEnv(ctx context.Context) (*CloudExtractor, error) {
	encoded := os.Getenv("NATURAL_LANGUAGE_CREDENTIALS")
	if encoded == "" {
		return nil, helper.NewError("create cloud extractor", errors.New("NATURAL_LANGUAGE_CREDENTIALS is not set"))
	}

	credentials, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, helper.NewError("decode credentials", err)
	}

	return NewCloudExtractor(ctx, credentials)
}

func (e *CloudExtractor) Name() string {
	return e.name
}

// Close releases the API client.
func (e *CloudExtractor) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}

// Extract sends the text to AnalyzeEntities and converts the response.
func (e *CloudExtractor) Extract(ctx context.Context, text string, params model.Parameters) (*model.EntityCollection, error) {
	collection := model.NewEntityCollection(params.SourceID)
	if text == "" {
		return collection, nil
	}

	req := &languagepb.AnalyzeEntitiesRequest{
		Document: &languagepb.Document{
			Source: &languagepb.Document_Content{
				Content: text,
			},
			Type: languagepb.Document_PLAIN_TEXT,
		},
		EncodingType: languagepb.EncodingType_UTF8,
	}

	resp, err := e.client.AnalyzeEntities(ctx, req)
	if err != nil {
		return nil, helper.NewError("analyze entities", err)
	}

	source := observationSource(params)

	for _, apiEntity := range resp.Entities {
		entityType, ok := entityTypeForLabel[apiEntity.Type.String()]
		if !ok {
			continue
		}

		metadata := model.Metadata{
			"language_type": apiEntity.Type.String(),
			"extractor":     e.name,
		}
		for key, value := range apiEntity.Metadata {
			metadata[key] = value
		}

		for _, mention := range apiEntity.Mentions {
			if mention.Text == nil {
				continue
			}
			start := int(mention.Text.BeginOffset)
			if start < 0 {
				continue
			}
			end := start + len(mention.Text.Content)
			score := confidence.EntityScore(float64(mention.Probability), 1.0, 0, 1.0)

			mentionMetadata := model.Metadata{}
			mentionMetadata.Union(metadata)

			entity := model.NewEntity(apiEntity.Name, entityType, mention.Text.Content, start, end, score, mentionMetadata)
			before, after := contextAround(text, start, end, extractionContextWindow)
			model.RecordEntityObservation(entity, source, before, after, e.name)
			collection.AddEntity(entity)
		}
	}

	addCoOccurrenceRelationships(collection, text, source, e.name, proseRelationWindow)

	return collection, nil
}
