package model

import (
	"context"
	"fmt"
	"os"
	"time"

	"datarag/types"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIEmbedder is the remote embedding backend, same contract as the local
// one behind the shared Embedder interface.
type OpenAIEmbedder struct {
	client    openai.Client
	modelName string
	dimension int
}

func NewOpenAIEmbedder(modelName string, dimension int) (*OpenAIEmbedder, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, types.NewConfigError("OPENAI_API_KEY", "required for the openai embedder")
	}
	opts := []option.RequestOption{option.WithAPIKey(key)}
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	return &OpenAIEmbedder{
		client:    openai.NewClient(opts...),
		modelName: modelName,
		dimension: dimension,
	}, nil
}

func (e *OpenAIEmbedder) Dimension() int { return e.dimension }

// Embed requests the whole batch at once, retrying a single time on failure.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.embedOnce(ctx, texts)
	if err == nil {
		return vecs, nil
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", types.ErrEmbeddingUnavailable, ctx.Err())
	case <-time.After(500 * time.Millisecond):
	}

	vecs, err = e.embedOnce(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrEmbeddingUnavailable, err)
	}
	return vecs, nil
}

func (e *OpenAIEmbedder) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.modelName),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings call failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vecs := make([][]float32, len(resp.Data))
	for _, item := range resp.Data {
		vec := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			vec[i] = float32(v)
		}
		vecs[item.Index] = normalize(vec)
	}
	return vecs, nil
}
