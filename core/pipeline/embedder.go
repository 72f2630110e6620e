package pipeline

import (
	"fmt"

	"github.com/knights-analytics/hugot"

	"github.com/VilyWonca/KAF-BACK/helper"
)

// DefaultEmbedder creates an embedder backed by a local sentence
// transformer model. Uses all-MiniLM-L6-v2, which produces
// 384-dimensional embeddings.
func DefaultEmbedder() (EmbedFunc, error) {
	return LocalEmbedder("sentence-transformers/all-MiniLM-L6-v2", "./models")
}

// LocalEmbedder creates an embedder running the named model in-process
// through a hugot feature-extraction pipeline. The model is downloaded
// into modelDir on first use.
func LocalEmbedder(modelName, modelDir string) (EmbedFunc, error) {
	modelPath, err := helper.PrepareModel(modelName, modelDir)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return func(text string) ([]float32, error) {
		result, err := sentencePipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}

		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}

		return result.Embeddings[0], nil
	}, nil
}
