package extract

import (
	"errors"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/extractor/helper"
)

// EmbedFunc generates an embedding vector for a text. The store uses
// it to embed entity names for similarity search.
type EmbedFunc func(text string) ([]float32, error)

// EmbedderDimension is the output dimension of the default embedder.
const EmbedderDimension = 384

const embedderModelName = "sentence-transformers/all-MiniLM-L6-v2"

// NewDefaultEmbedder creates an embedder using the all-MiniLM-L6-v2
// sentence transformer, producing 384 dimensional embeddings. The
// model is downloaded on first use.
func NewDefaultEmbedder() (EmbedFunc, error) {
	modelPath, err := helper.PrepareModel(embedderModelName, "onnx/model.onnx")
	if err != nil {
		return nil, helper.NewError("prepare embedder model", err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, helper.NewError("create hugot session", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "name-embedder",
	}
	embeddingPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, helper.NewError("create embedding pipeline (session cleanup also failed)", err)
		}
		return nil, helper.NewError("create embedding pipeline", err)
	}

	return func(text string) ([]float32, error) {
		result, err := embeddingPipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, helper.NewError("generate embedding", err)
		}
		if len(result.Embeddings) == 0 {
			return nil, helper.NewError("generate embedding", errors.New("no embedding generated"))
		}
		return result.Embeddings[0], nil
	}, nil
}
