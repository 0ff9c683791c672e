package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. The engine maps each of these to
// a refusing Prediction at the request boundary; nothing below the boundary
// is allowed to leak to the caller.
var (
	// ErrEmptyStore means the vector store is reachable but holds no vectors
	// yet. A valid state during early ingestion, distinct from "no match".
	ErrEmptyStore = errors.New("vector store is empty")

	// ErrStoreUnavailable means the vector store could not be queried.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrEmbeddingUnavailable means the embedding backend failed. Retried at
	// most once; further failures propagate.
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")
)

// ConfigError is a fatal startup-time misconfiguration (dimension mismatch,
// invalid chunk parameters). The process must not start with one pending.
type ConfigError struct {
	Field  string
	Reason string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// NewConfigError builds a ConfigError for the given configuration field.
func NewConfigError(field, reason string) ConfigError {
	return ConfigError{Field: field, Reason: reason}
}
