// Package store persists chunk vectors in Postgres with the pgvector
// extension and answers nearest-neighbor queries over an HNSW cosine index.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"datarag/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// VectorStorer is the persistence contract the retrieval side consumes.
type VectorStorer interface {
	// Upsert writes the batch, replacing rows that share an id, and returns
	// the number of rows written. Re-upserting the same ids never duplicates.
	Upsert(ctx context.Context, items []types.StoredVector) (int, error)
	// Search returns up to k hits ordered by descending cosine similarity,
	// excluding hits at or below floor. An empty store yields ErrEmptyStore
	// so the caller can tell "no data" from "no match".
	Search(ctx context.Context, embedding []float32, k int, floor float64) (types.RetrievalResult, error)
	// Count reports how many vectors are stored.
	Count(ctx context.Context) (int64, error)
}

type PostgresStore struct {
	pool      *pgxpool.Pool
	dimension int
}

// NewPostgresStore connects a bounded pool. Requests block on acquisition
// until their context deadline instead of queueing unboundedly.
func NewPostgresStore(ctx context.Context, connStr string, dimension int) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	if cfg.MaxConns < 4 {
		cfg.MaxConns = 10
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool, dimension: dimension}, nil
}

// Init creates the embeddings table and its indexes. The vector column width
// is fixed at startup; changing it requires re-ingestion.
func (p *PostgresStore) Init(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS embeddings (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		embedding vector(%d) NOT NULL,
		metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_embeddings_hnsw ON embeddings
		USING hnsw (embedding vector_cosine_ops);

	CREATE INDEX IF NOT EXISTS idx_embeddings_metadata ON embeddings
		USING gin (metadata);

	CREATE INDEX IF NOT EXISTS idx_embeddings_start_row ON embeddings
		(((metadata->>'start_row')::int));
	`, p.dimension)

	_, err := p.pool.Exec(ctx, query)
	return err
}

const upsertQuery = `
	INSERT INTO embeddings (id, content, embedding, metadata, created_at)
	VALUES ($1, $2, $3, $4, now())
	ON CONFLICT (id) DO UPDATE SET
		content = EXCLUDED.content,
		embedding = EXCLUDED.embedding,
		metadata = EXCLUDED.metadata,
		created_at = now()
`

func (p *PostgresStore) Upsert(ctx context.Context, items []types.StoredVector) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, item := range items {
		if len(item.Embedding) != p.dimension {
			return 0, types.NewConfigError("EMBEDDING_DIM",
				fmt.Sprintf("vector %s has dimension %d, column is %d", item.ID, len(item.Embedding), p.dimension))
		}
		meta, err := json.Marshal(item.Meta)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal metadata for %s: %w", item.ID, err)
		}
		batch.Queue(upsertQuery, item.ID, item.Content, pgvector.NewVector(item.Embedding), meta)
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()

	written := 0
	for range items {
		if _, err := results.Exec(); err != nil {
			return written, fmt.Errorf("%w: upsert failed: %v", types.ErrStoreUnavailable, err)
		}
		written++
	}
	return written, nil
}

const searchQuery = `
	SELECT id, content, embedding, metadata, created_at,
	       1 - (embedding <=> $1) AS similarity
	FROM embeddings
	WHERE 1 - (embedding <=> $1) > $3
	ORDER BY embedding <=> $1, created_at
	LIMIT $2
`

func (p *PostgresStore) Search(ctx context.Context, embedding []float32, k int, floor float64) (types.RetrievalResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("top-k must be positive, got %d", k)
	}
	if len(embedding) != p.dimension {
		return nil, types.NewConfigError("EMBEDDING_DIM",
			fmt.Sprintf("query vector has dimension %d, column is %d", len(embedding), p.dimension))
	}

	rows, err := p.pool.Query(ctx, searchQuery, pgvector.NewVector(embedding), k, floor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var result types.RetrievalResult
	for rows.Next() {
		var (
			hit  types.SearchHit
			vec  pgvector.Vector
			meta []byte
		)
		if err := rows.Scan(
			&hit.Vector.ID,
			&hit.Vector.Content,
			&vec,
			&meta,
			&hit.Vector.CreatedAt,
			&hit.Similarity,
		); err != nil {
			return nil, fmt.Errorf("%w: scan failed: %v", types.ErrStoreUnavailable, err)
		}
		hit.Vector.Embedding = vec.Slice()
		if err := json.Unmarshal(meta, &hit.Vector.Meta); err != nil {
			return nil, fmt.Errorf("%w: bad metadata for %s: %v", types.ErrStoreUnavailable, hit.Vector.ID, err)
		}
		result = append(result, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrStoreUnavailable, err)
	}

	if len(result) == 0 {
		count, err := p.Count(ctx)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, types.ErrEmptyStore
		}
	}
	return result, nil
}

func (p *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := p.pool.QueryRow(ctx, "SELECT count(*) FROM embeddings").Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %v", types.ErrStoreUnavailable, err)
	}
	return count, nil
}

// Ping reports store reachability for health checks.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		slog.Info("postgres connection pool closed")
	}
	return nil
}
