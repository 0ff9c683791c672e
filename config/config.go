package config

import (
	"os"
	"strconv"
	"time"

	"datarag/types"
)

// Config holds every value the core consumes. Loading mechanism is plain
// environment variables (a .env file is read by the entrypoints); the core
// only sees the parsed values.
type Config struct {
	ServerAddr  string
	PostgresDSN string

	// Embedding backend: "ollama" (local) or "openai" (remote).
	EmbedderType   string
	EmbeddingModel string
	EmbeddingURL   string
	EmbeddingDim   int

	TopK             int
	SimilarityFloor  float64
	ConfThreshold    float64
	ClarifyThreshold float64
	SpreadWeight     float64

	ChunkSize    int
	ChunkOverlap int

	// Per-call budget for embedding and search on the query path.
	RequestTimeout time.Duration

	// Source label attached to citations, e.g. the dataset URL.
	DatasetSource string
	ModelVersion  string
}

// FromEnv reads the configuration from the environment, applying defaults,
// and validates it. A returned error is fatal: the process must not start.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ServerAddr:       envOr("SERVER_ADDR", ":8080"),
		PostgresDSN:      os.Getenv("POSTGRES_DSN"),
		EmbedderType:     envOr("EMBEDDER_TYPE", "ollama"),
		EmbeddingModel:   envOr("EMBEDDING_MODEL", "all-minilm"),
		EmbeddingURL:     os.Getenv("EMBEDDING_URL"),
		EmbeddingDim:     envInt("EMBEDDING_DIM", 384),
		TopK:             envInt("RAG_TOP_K", 5),
		SimilarityFloor:  envFloat("SIMILARITY_FLOOR", 0.0),
		ConfThreshold:    envFloat("CONF_THRESHOLD", 0.6),
		ClarifyThreshold: envFloat("CLARIFY_THRESHOLD", 0.25),
		SpreadWeight:     envFloat("SPREAD_WEIGHT", 0.1),
		ChunkSize:        envInt("CHUNK_SIZE", 25),
		ChunkOverlap:     envInt("CHUNK_OVERLAP", 1),
		RequestTimeout:   time.Duration(envInt("REQUEST_TIMEOUT_SECS", 15)) * time.Second,
		DatasetSource:    envOr("DATASET_SOURCE", "dataset"),
		ModelVersion:     envOr("MODEL_VERSION", "datarag-local"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the startup invariants. Chunk geometry and vector
// dimension problems are configuration errors, never per-request errors.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return types.NewConfigError("CHUNK_SIZE", "must be positive")
	}
	if c.ChunkOverlap < 0 {
		return types.NewConfigError("CHUNK_OVERLAP", "must not be negative")
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return types.NewConfigError("CHUNK_OVERLAP", "must be smaller than CHUNK_SIZE")
	}
	if c.EmbeddingDim <= 0 {
		return types.NewConfigError("EMBEDDING_DIM", "must be positive")
	}
	if c.TopK <= 0 {
		return types.NewConfigError("RAG_TOP_K", "must be positive")
	}
	if c.ConfThreshold < 0 || c.ConfThreshold > 1 {
		return types.NewConfigError("CONF_THRESHOLD", "must be within [0,1]")
	}
	if c.ClarifyThreshold < 0 || c.ClarifyThreshold > c.ConfThreshold {
		return types.NewConfigError("CLARIFY_THRESHOLD", "must be within [0,CONF_THRESHOLD]")
	}
	if c.EmbedderType != "ollama" && c.EmbedderType != "openai" {
		return types.NewConfigError("EMBEDDER_TYPE", "must be 'ollama' or 'openai'")
	}
	if c.RequestTimeout <= 0 {
		return types.NewConfigError("REQUEST_TIMEOUT_SECS", "must be positive")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
