package types

import (
	"fmt"
	"time"
)

// Field is a single named value of a dataset row. Order matters: fields are
// serialized in the order the dataset declares them.
type Field struct {
	Name  string
	Value string
}

// Row is one record of the source dataset, identified by its ordinal position.
type Row struct {
	Ordinal int
	Fields  []Field
}

// ChunkMeta locates a chunk inside the source dataset. Row bounds are inclusive.
type ChunkMeta struct {
	StartRow int    `json:"start_row"`
	EndRow   int    `json:"end_row"`
	SourceID string `json:"source_id"`
}

// Chunk is a contiguous range of rows rendered as a single text blob.
// Identity derives from the row range, so re-chunking the same dataset with
// the same parameters yields the same IDs and upserts stay idempotent.
type Chunk struct {
	ID       string
	Content  string
	Meta     ChunkMeta
	RowCount int
}

// ChunkID builds the deterministic chunk identifier for a row range.
func ChunkID(startRow, endRow int) string {
	return fmt.Sprintf("chunk_%d_%d", startRow, endRow)
}

// StoredVector is the persisted unit owned by the vector store.
type StoredVector struct {
	ID        string
	Content   string
	Embedding []float32
	Meta      ChunkMeta
	CreatedAt time.Time
}

// SearchHit pairs a stored vector with its cosine similarity to a query.
type SearchHit struct {
	Vector     StoredVector
	Similarity float64
}

// RetrievalResult is an ordered sequence of hits, descending by similarity.
type RetrievalResult []SearchHit

// Query is the user question plus optional caller metadata. Ephemeral: the
// core never persists it.
type Query struct {
	Text     string
	UserID   string
	ToolName string
}

// Citation points back at the chunk that grounds part of an answer.
type Citation struct {
	Source    string `json:"source"`
	Snippet   string `json:"snippet"`
	RowOrPage int    `json:"row_or_page"`
}

// Failure modes reported on a Prediction. Empty means success.
const (
	FailureNone                 = ""
	FailureNeedsClarification   = "needs_clarification"
	FailureLowConfidence        = "low_confidence"
	FailureNoData               = "no_data"
	FailureEmbeddingUnavailable = "embedding_unavailable"
	FailureStoreUnavailable     = "store_unavailable"
)

// Prediction is the terminal result of one query. Every code path through the
// engine ends in a well-formed Prediction; it is never mutated afterwards.
type Prediction struct {
	Answer      *string    `json:"answer"`
	Citations   []Citation `json:"citations"`
	Confidence  float64    `json:"confidence"`
	FailureMode *string    `json:"failure_mode"`
}

// NewPrediction builds a Prediction. An empty answer or failure mode is
// rendered as JSON null, matching the wire contract.
func NewPrediction(answer string, citations []Citation, confidence float64, failureMode string) Prediction {
	p := Prediction{
		Citations:  citations,
		Confidence: confidence,
	}
	if p.Citations == nil {
		p.Citations = []Citation{}
	}
	if answer != "" {
		p.Answer = &answer
	}
	if failureMode != FailureNone {
		p.FailureMode = &failureMode
	}
	return p
}
