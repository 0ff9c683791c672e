package rag

import (
	"fmt"
	"log/slog"
	"strings"

	"datarag/types"

	"github.com/pkoukk/tiktoken-go"
)

const (
	maxSnippetTokens = 48
	maxAnswerTokens  = 120

	// Fallback bound when no token encoder is available; roughly four
	// characters per token.
	runesPerToken = 4
)

// Synthesizer builds a grounded answer and its citations from retrieved
// chunks. Nothing outside the retrieved content may appear in the answer.
type Synthesizer struct {
	source string
	enc    *tiktoken.Tiktoken
}

// NewSynthesizer prepares the synthesizer. source labels citations whose
// chunks carry no source of their own. The token encoder is best effort:
// when it cannot be loaded, length bounds degrade to character counts.
func NewSynthesizer(source string) *Synthesizer {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		slog.Warn("token encoder unavailable, falling back to character bounds", "error", err)
		enc = nil
	}
	return &Synthesizer{source: source, enc: enc}
}

// Synthesize is called only for an answer decision, so the retrieval is
// non-empty. Every answer carries at least one citation; an answer with zero
// citations is a contract violation.
func (s *Synthesizer) Synthesize(query types.Query, result types.RetrievalResult) (string, []types.Citation) {
	top := result[0].Vector
	answer := fmt.Sprintf("Based on dataset rows %d–%d, key info: %s",
		top.Meta.StartRow, top.Meta.EndRow, s.truncate(top.Content, maxAnswerTokens))

	citations := make([]types.Citation, 0, len(result))
	for _, hit := range result {
		citations = append(citations, types.Citation{
			Source:    s.citationSource(hit.Vector.Meta),
			Snippet:   s.truncate(hit.Vector.Content, maxSnippetTokens),
			RowOrPage: hit.Vector.Meta.StartRow,
		})
	}
	return answer, citations
}

func (s *Synthesizer) citationSource(meta types.ChunkMeta) string {
	if meta.SourceID != "" {
		return meta.SourceID
	}
	return s.source
}

// truncate bounds text to maxTokens, cutting on a token boundary.
func (s *Synthesizer) truncate(text string, maxTokens int) string {
	if s.enc == nil {
		runes := []rune(text)
		if len(runes) <= maxTokens*runesPerToken {
			return text
		}
		return strings.TrimRight(string(runes[:maxTokens*runesPerToken]), " \n") + "…"
	}
	tokens := s.enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return strings.TrimRight(s.enc.Decode(tokens[:maxTokens]), " \n") + "…"
}
