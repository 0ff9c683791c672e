package rag

import (
	"context"
	"fmt"
	"testing"
	"time"

	"datarag/config"
	"datarag/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	dim int
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, f.dim)
		vec[0] = 1
		vecs[i] = vec
	}
	return vecs, nil
}

func (f *fakeEmbedder) Dimension() int { return f.dim }

type fakeStore struct {
	hits types.RetrievalResult
	err  error
}

func (f *fakeStore) Upsert(_ context.Context, items []types.StoredVector) (int, error) {
	return len(items), nil
}

func (f *fakeStore) Search(_ context.Context, _ []float32, k int, floor float64) (types.RetrievalResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out types.RetrievalResult
	for _, h := range f.hits {
		if h.Similarity > floor {
			out = append(out, h)
		}
		if len(out) == k {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) Count(_ context.Context) (int64, error) {
	return int64(len(f.hits)), nil
}

func storedHit(id string, startRow, endRow int, similarity float64) types.SearchHit {
	return types.SearchHit{
		Vector: types.StoredVector{
			ID:      id,
			Content: fmt.Sprintf("month=2024-01; rate=3.4 (rows %d-%d)", startRow, endRow),
			Meta:    types.ChunkMeta{StartRow: startRow, EndRow: endRow, SourceID: "lfs_month"},
		},
		Similarity: similarity,
	}
}

func testConfig() *config.Config {
	return &config.Config{
		EmbedderType:     "ollama",
		EmbeddingDim:     4,
		TopK:             5,
		SimilarityFloor:  0.0,
		ConfThreshold:    0.6,
		ClarifyThreshold: 0.25,
		SpreadWeight:     0.1,
		ChunkSize:        5,
		ChunkOverlap:     1,
		RequestTimeout:   5 * time.Second,
		DatasetSource:    "test_dataset",
		ModelVersion:     "test",
	}
}

func newTestEngine(embedder *fakeEmbedder, storer *fakeStore) *Engine {
	return NewEngine(testConfig(), embedder, storer)
}

func TestAnswer_EmptyStoreRefusesWithNoData(t *testing.T) {
	engine := newTestEngine(&fakeEmbedder{dim: 4}, &fakeStore{err: types.ErrEmptyStore})

	p := engine.Answer(context.Background(), types.Query{Text: "unemployment rate?"})

	require.NotNil(t, p.Answer)
	assert.Equal(t, "No relevant data found.", *p.Answer)
	assert.Empty(t, p.Citations)
	assert.Zero(t, p.Confidence)
	require.NotNil(t, p.FailureMode)
	assert.Equal(t, types.FailureNoData, *p.FailureMode)
}

func TestAnswer_AtConfThresholdAnswersWithCitations(t *testing.T) {
	engine := newTestEngine(&fakeEmbedder{dim: 4}, &fakeStore{
		hits: types.RetrievalResult{storedHit("chunk_0_4", 0, 4, 0.6)},
	})

	p := engine.Answer(context.Background(), types.Query{Text: "unemployment rate?"})

	assert.Nil(t, p.FailureMode, "exactly at the threshold must answer")
	require.NotNil(t, p.Answer)
	assert.Contains(t, *p.Answer, "rows 0–4")
	require.NotEmpty(t, p.Citations, "every answer must carry at least one citation")
	assert.Equal(t, "lfs_month", p.Citations[0].Source)
	assert.Equal(t, 0, p.Citations[0].RowOrPage)
	assert.GreaterOrEqual(t, p.Confidence, 0.6)
}

func TestAnswer_MidConfidenceAsksForClarification(t *testing.T) {
	engine := newTestEngine(&fakeEmbedder{dim: 4}, &fakeStore{
		hits: types.RetrievalResult{storedHit("chunk_4_8", 4, 8, 0.3)},
	})

	p := engine.Answer(context.Background(), types.Query{Text: "rate?"})

	require.NotNil(t, p.FailureMode)
	assert.Equal(t, types.FailureNeedsClarification, *p.FailureMode)
	require.NotNil(t, p.Answer)
	assert.Equal(t, answerClarify, *p.Answer)
	assert.Empty(t, p.Citations)
	assert.InDelta(t, 0.3, p.Confidence, 1e-9)
}

func TestAnswer_LowConfidenceRefuses(t *testing.T) {
	engine := newTestEngine(&fakeEmbedder{dim: 4}, &fakeStore{
		hits: types.RetrievalResult{storedHit("chunk_8_9", 8, 9, 0.1)},
	})

	p := engine.Answer(context.Background(), types.Query{Text: "weather on mars?"})

	require.NotNil(t, p.FailureMode)
	assert.Equal(t, types.FailureLowConfidence, *p.FailureMode)
	assert.Nil(t, p.Answer)
	assert.Empty(t, p.Citations)
}

func TestAnswer_NoHitsAboveFloorRefuses(t *testing.T) {
	cfg := testConfig()
	cfg.SimilarityFloor = 0.5
	engine := NewEngine(cfg, &fakeEmbedder{dim: 4}, &fakeStore{
		hits: types.RetrievalResult{storedHit("chunk_0_4", 0, 4, 0.4)},
	})

	p := engine.Answer(context.Background(), types.Query{Text: "anything"})

	require.NotNil(t, p.FailureMode)
	assert.Equal(t, types.FailureLowConfidence, *p.FailureMode)
	assert.Empty(t, p.Citations)
	assert.Zero(t, p.Confidence)
}

func TestAnswer_EmbeddingFailureMapsToFailureMode(t *testing.T) {
	engine := newTestEngine(
		&fakeEmbedder{dim: 4, err: fmt.Errorf("%w: connection refused", types.ErrEmbeddingUnavailable)},
		&fakeStore{},
	)

	p := engine.Answer(context.Background(), types.Query{Text: "rate?"})

	require.NotNil(t, p.FailureMode)
	assert.Equal(t, types.FailureEmbeddingUnavailable, *p.FailureMode)
	assert.Nil(t, p.Answer)
	assert.Empty(t, p.Citations)
	assert.Zero(t, p.Confidence)
}

func TestAnswer_StoreFailureMapsToFailureMode(t *testing.T) {
	engine := newTestEngine(&fakeEmbedder{dim: 4}, &fakeStore{
		err: fmt.Errorf("%w: dial tcp: refused", types.ErrStoreUnavailable),
	})

	p := engine.Answer(context.Background(), types.Query{Text: "rate?"})

	require.NotNil(t, p.FailureMode)
	assert.Equal(t, types.FailureStoreUnavailable, *p.FailureMode)
	assert.Zero(t, p.Confidence)
}

func TestAnswer_DecisionsPartitionCitations(t *testing.T) {
	// Answer decisions always cite; clarify and refuse never do.
	cases := []struct {
		name       string
		similarity float64
		wantCited  bool
	}{
		{"strong match answers with citations", 0.9, true},
		{"borderline match clarifies without citations", 0.4, false},
		{"weak match refuses without citations", 0.05, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := newTestEngine(&fakeEmbedder{dim: 4}, &fakeStore{
				hits: types.RetrievalResult{storedHit("chunk_0_4", 0, 4, tc.similarity)},
			})
			p := engine.Answer(context.Background(), types.Query{Text: "q"})
			if tc.wantCited {
				assert.NotEmpty(t, p.Citations)
				assert.Nil(t, p.FailureMode)
			} else {
				assert.Empty(t, p.Citations)
				assert.NotNil(t, p.FailureMode)
			}
		})
	}
}
