// Package service runs the batch ingestion pipeline: chunk a dataset
// snapshot, embed the chunks, and upsert them into the vector store. This is
// never part of the query-serving path.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"datarag/chunker"
	"datarag/config"
	"datarag/loader/internal"
	"datarag/model"
	"datarag/store"
	"datarag/types"

	"golang.org/x/sync/errgroup"
)

const (
	embedBatchSize   = 32
	embedConcurrency = 4
)

// Report summarizes one ingestion run. ValidationPassed holds when every
// produced chunk was stored, with no silent drops.
type Report struct {
	RowCount         int  `json:"row_count"`
	ChunkCount       int  `json:"chunk_count"`
	StoredCount      int  `json:"stored_count"`
	ValidationPassed bool `json:"validation_passed"`
}

type Pipeline struct {
	chunker  *chunker.Chunker
	embedder model.Embedder
	store    store.VectorStorer
	loader   *internal.CSVLoader
	logger   *slog.Logger
}

// New validates chunk geometry up front; a bad configuration fails here,
// before any snapshot is touched.
func New(cfg *config.Config, embedder model.Embedder, storer store.VectorStorer) (*Pipeline, error) {
	c, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		chunker:  c,
		embedder: embedder,
		store:    storer,
		loader:   internal.NewCSVLoader(),
		logger:   slog.Default(),
	}, nil
}

// Run loads a snapshot from disk and ingests it. This is the callable an
// external scheduler invokes on a fixed cadence.
func (p *Pipeline) Run(ctx context.Context, snapshotPath string) (Report, error) {
	rows, err := p.loader.Load(snapshotPath)
	if err != nil {
		return Report{}, err
	}
	return p.Ingest(ctx, rows, internal.SourceID(snapshotPath))
}

// Ingest runs chunk → embed → upsert over the given rows. Upserts are
// per-chunk idempotent, so a run that stops short leaves previously stored
// chunks valid; re-running simply replaces them.
func (p *Pipeline) Ingest(ctx context.Context, rows []types.Row, sourceID string) (Report, error) {
	start := time.Now()
	report := Report{RowCount: len(rows)}

	chunks := p.chunker.Chunk(rows, sourceID)
	report.ChunkCount = len(chunks)
	if len(chunks) == 0 {
		return report, fmt.Errorf("snapshot %s produced no chunks", sourceID)
	}
	p.logger.Info("snapshot chunked", "source", sourceID, "rows", len(rows), "chunks", len(chunks))

	vectors, err := p.embedChunks(ctx, chunks)
	if err != nil {
		return report, err
	}

	items := make([]types.StoredVector, len(chunks))
	for i, ch := range chunks {
		items[i] = types.StoredVector{
			ID:        ch.ID,
			Content:   ch.Content,
			Embedding: vectors[i],
			Meta:      ch.Meta,
		}
	}

	stored, err := p.store.Upsert(ctx, items)
	report.StoredCount = stored
	if err != nil {
		return report, fmt.Errorf("upsert stopped after %d of %d chunks: %w", stored, len(chunks), err)
	}

	report.ValidationPassed = report.StoredCount == report.ChunkCount
	if !report.ValidationPassed {
		return report, fmt.Errorf("stored %d chunks, expected %d", report.StoredCount, report.ChunkCount)
	}

	p.logger.Info("ingestion finished",
		"source", sourceID,
		"rows", report.RowCount,
		"chunks", report.ChunkCount,
		"stored", report.StoredCount,
		"took", time.Since(start),
	)
	return report, nil
}

// embedChunks embeds in fixed-size batches with bounded concurrency. Each
// batch is atomic; one failed batch fails the whole run.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []types.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for batchStart := 0; batchStart < len(chunks); batchStart += embedBatchSize {
		lo := batchStart
		hi := lo + embedBatchSize
		if hi > len(chunks) {
			hi = len(chunks)
		}
		g.Go(func() error {
			texts := make([]string, hi-lo)
			for i, ch := range chunks[lo:hi] {
				texts[i] = ch.Content
			}
			vecs, err := p.embedder.Embed(ctx, texts)
			if err != nil {
				return fmt.Errorf("embedding batch [%d,%d): %w", lo, hi, err)
			}
			copy(vectors[lo:hi], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
