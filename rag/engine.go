// Package rag implements the retrieval-and-decision pipeline: embed the
// query, fetch nearest chunks, derive a confidence, then answer, ask for
// clarification, or refuse. Every path through the engine terminates in a
// well-formed Prediction.
package rag

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"datarag/config"
	"datarag/model"
	"datarag/store"
	"datarag/types"
)

const (
	answerNoData  = "No relevant data found."
	answerClarify = "I cannot confidently answer from the dataset; could you clarify or provide more specifics?"
)

type Engine struct {
	retriever *Retriever
	scorer    *Scorer
	synth     *Synthesizer
	timeout   time.Duration
	logger    *slog.Logger
}

func NewEngine(cfg *config.Config, embedder model.Embedder, storer store.VectorStorer) *Engine {
	return &Engine{
		retriever: NewRetriever(embedder, storer, cfg.TopK, cfg.SimilarityFloor),
		scorer: &Scorer{
			ConfThreshold:    cfg.ConfThreshold,
			ClarifyThreshold: cfg.ClarifyThreshold,
			SpreadWeight:     cfg.SpreadWeight,
		},
		synth:   NewSynthesizer(cfg.DatasetSource),
		timeout: cfg.RequestTimeout,
		logger:  slog.Default(),
	}
}

// Answer runs one query through retrieval and the decision rule. It never
// returns an error: failures below the request boundary become refusing
// Predictions with the matching failure mode, and no call outlives the
// configured timeout.
func (e *Engine) Answer(ctx context.Context, query types.Query) types.Prediction {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	retrieval, err := e.retriever.Retrieve(ctx, query)
	if err != nil {
		return e.refuse(err)
	}
	if retrieval.StoreEmpty {
		e.logger.Info("refusing query against empty store", "tool", query.ToolName)
		return types.NewPrediction(answerNoData, nil, 0, types.FailureNoData)
	}

	confidence := e.scorer.Confidence(retrieval.Hits)
	decision := e.scorer.Decide(confidence, len(retrieval.Hits))
	e.logger.Info("query decided",
		"decision", string(decision),
		"confidence", confidence,
		"hits", len(retrieval.Hits),
	)

	switch decision {
	case DecisionAnswer:
		answer, citations := e.synth.Synthesize(query, retrieval.Hits)
		return types.NewPrediction(answer, citations, confidence, types.FailureNone)
	case DecisionClarify:
		return types.NewPrediction(answerClarify, nil, confidence, types.FailureNeedsClarification)
	default:
		if len(retrieval.Hits) == 0 {
			return types.NewPrediction(answerNoData, nil, confidence, types.FailureLowConfidence)
		}
		return types.NewPrediction("", nil, confidence, types.FailureLowConfidence)
	}
}

// refuse maps a pipeline error to its failure mode. Confidence is 0.0 on any
// hard failure.
func (e *Engine) refuse(err error) types.Prediction {
	mode := types.FailureStoreUnavailable
	if errors.Is(err, types.ErrEmbeddingUnavailable) {
		mode = types.FailureEmbeddingUnavailable
	}
	e.logger.Error("query failed, refusing", "failure_mode", mode, "error", err)
	return types.NewPrediction("", nil, 0, mode)
}
