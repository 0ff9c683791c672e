package config

import (
	"testing"
	"time"

	"datarag/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		EmbedderType:     "ollama",
		EmbeddingDim:     384,
		TopK:             5,
		ConfThreshold:    0.6,
		ClarifyThreshold: 0.25,
		ChunkSize:        25,
		ChunkOverlap:     1,
		RequestTimeout:   15 * time.Second,
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"CHUNK_SIZE", "CHUNK_OVERLAP", "RAG_TOP_K", "CONF_THRESHOLD",
		"CLARIFY_THRESHOLD", "EMBEDDING_DIM", "EMBEDDER_TYPE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.ChunkSize)
	assert.Equal(t, 1, cfg.ChunkOverlap)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, 384, cfg.EmbeddingDim)
	assert.InDelta(t, 0.6, cfg.ConfThreshold, 1e-9)
	assert.InDelta(t, 0.25, cfg.ClarifyThreshold, 1e-9)
	assert.Equal(t, "ollama", cfg.EmbedderType)
}

func TestValidate_FailsFast(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }},
		{"overlap not below size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }},
		{"zero dimension", func(c *Config) { c.EmbeddingDim = 0 }},
		{"zero top-k", func(c *Config) { c.TopK = 0 }},
		{"threshold above one", func(c *Config) { c.ConfThreshold = 1.5 }},
		{"clarify above conf", func(c *Config) { c.ClarifyThreshold = 0.9 }},
		{"unknown embedder", func(c *Config) { c.EmbedderType = "markov" }},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var cfgErr types.ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestValidate_AcceptsBoundaryValues(t *testing.T) {
	cfg := validConfig()
	cfg.ClarifyThreshold = cfg.ConfThreshold
	assert.NoError(t, cfg.Validate())

	cfg = validConfig()
	cfg.ChunkOverlap = 0
	assert.NoError(t, cfg.Validate())
}
