package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"datarag/types"
)

// OllamaEmbedder produces embeddings through a local Ollama instance using
// the batched /api/embed endpoint.
type OllamaEmbedder struct {
	apiURL    string
	modelName string
	dimension int
	client    *http.Client
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func NewOllamaEmbedder(apiURL, modelName string, dimension int) *OllamaEmbedder {
	return &OllamaEmbedder{
		apiURL:    apiURL,
		modelName: modelName,
		dimension: dimension,
		client:    &http.Client{},
	}
}

func (e *OllamaEmbedder) Dimension() int { return e.dimension }

// Embed sends the whole batch in one call. On failure it retries exactly
// once after a short backoff, then surfaces ErrEmbeddingUnavailable.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
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

func (e *OllamaEmbedder) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{
		Model: e.modelName,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var ollamaResp ollamaEmbedResponse
	if err := json.Unmarshal(respBody, &ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	// Atomicity: the batch either comes back whole or not at all.
	if len(ollamaResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(ollamaResp.Embeddings))
	}

	for i := range ollamaResp.Embeddings {
		ollamaResp.Embeddings[i] = normalize(ollamaResp.Embeddings[i])
	}
	return ollamaResp.Embeddings, nil
}
