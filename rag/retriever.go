package rag

import (
	"context"
	"errors"

	"datarag/model"
	"datarag/store"
	"datarag/types"
)

// Retrieval is the outcome of one retrieve call. StoreEmpty marks an empty
// corpus explicitly: that is a valid state during early ingestion and must
// route to a "no data" refusal, not an error.
type Retrieval struct {
	Hits       types.RetrievalResult
	StoreEmpty bool
}

// Retriever embeds a query and fetches its nearest chunks. It owns no state;
// it only composes the embedder and the store.
type Retriever struct {
	embedder model.Embedder
	store    store.VectorStorer
	topK     int
	floor    float64
}

func NewRetriever(embedder model.Embedder, storer store.VectorStorer, topK int, floor float64) *Retriever {
	return &Retriever{
		embedder: embedder,
		store:    storer,
		topK:     topK,
		floor:    floor,
	}
}

// Retrieve embeds the query text as a single-item batch and searches the
// store. Embedding and search failures propagate wrapped in their sentinel
// errors for the engine to map to failure modes.
func (r *Retriever) Retrieve(ctx context.Context, query types.Query) (Retrieval, error) {
	vecs, err := r.embedder.Embed(ctx, []string{query.Text})
	if err != nil {
		return Retrieval{}, err
	}

	hits, err := r.store.Search(ctx, vecs[0], r.topK, r.floor)
	if err != nil {
		if errors.Is(err, types.ErrEmptyStore) {
			return Retrieval{Hits: types.RetrievalResult{}, StoreEmpty: true}, nil
		}
		return Retrieval{}, err
	}
	return Retrieval{Hits: hits}, nil
}
