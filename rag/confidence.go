package rag

import "datarag/types"

// Decision is the terminal classification of a single query. One decision is
// made per request; there are no transitions afterwards.
type Decision string

const (
	DecisionAnswer  Decision = "answer"
	DecisionClarify Decision = "clarify"
	DecisionRefuse  Decision = "refuse"
)

// Scorer converts retrieval similarities into a scalar confidence and
// classifies the outcome against configured thresholds. Thresholds are
// calibrated empirically; treat them as configuration.
type Scorer struct {
	ConfThreshold    float64
	ClarifyThreshold float64
	// SpreadWeight blends in the gap between the best hit and the runner-up:
	// a widely separated top hit implies higher confidence than a cluster of
	// near-equal scores.
	SpreadWeight float64
}

// Confidence is monotonic in the top-1 similarity: raising the best score
// while holding the rest fixed never lowers the result.
func (s *Scorer) Confidence(result types.RetrievalResult) float64 {
	if len(result) == 0 {
		return 0
	}
	top := clamp01(result[0].Similarity)
	if len(result) == 1 {
		return top
	}
	spread := top - clamp01(result[1].Similarity)
	if spread < 0 {
		spread = 0
	}
	return clamp01(top + s.SpreadWeight*spread)
}

// Decide applies the threshold rule. Ties at a boundary resolve to the
// higher-confidence bucket.
func (s *Scorer) Decide(confidence float64, hits int) Decision {
	if hits == 0 {
		return DecisionRefuse
	}
	switch {
	case confidence >= s.ConfThreshold:
		return DecisionAnswer
	case confidence >= s.ClarifyThreshold:
		return DecisionClarify
	default:
		return DecisionRefuse
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
