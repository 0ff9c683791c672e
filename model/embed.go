// Package model provides the embedding backends. Exactly one embedder is
// constructed per process at startup and shared read-only by every in-flight
// request; implementations must be safe for concurrent use.
package model

import (
	"context"
	"fmt"
	"math"

	"datarag/config"
	"datarag/types"
)

// Embedder maps a batch of texts to fixed-dimension vectors. A batch either
// succeeds fully or fails with no partial vectors returned.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension is the configured width of produced vectors.
	Dimension() int
}

// New selects the embedding backend from configuration. The choice is made
// once at startup, never at call time.
func New(cfg *config.Config) (Embedder, error) {
	switch cfg.EmbedderType {
	case "ollama":
		return NewOllamaEmbedder(cfg.EmbeddingURL, cfg.EmbeddingModel, cfg.EmbeddingDim), nil
	case "openai":
		return NewOpenAIEmbedder(cfg.EmbeddingModel, cfg.EmbeddingDim)
	default:
		return nil, types.NewConfigError("EMBEDDER_TYPE", fmt.Sprintf("unknown backend %q", cfg.EmbedderType))
	}
}

// VerifyDimension embeds a probe text and checks the produced width against
// the configured one. A mismatch is fatal: it means the embedding model and
// the vector column disagree, which no request could ever recover from.
func VerifyDimension(ctx context.Context, e Embedder) error {
	vecs, err := e.Embed(ctx, []string{"dimension probe"})
	if err != nil {
		return err
	}
	if len(vecs) != 1 {
		return types.NewConfigError("EMBEDDING_DIM", "probe batch came back empty")
	}
	if len(vecs[0]) != e.Dimension() {
		return types.NewConfigError("EMBEDDING_DIM",
			fmt.Sprintf("model produced %d-dimensional vectors, configured %d", len(vecs[0]), e.Dimension()))
	}
	return nil
}

// normalize scales a vector to unit length in place so cosine similarity in
// the store stays well-conditioned.
func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
	return vec
}
