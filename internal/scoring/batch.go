package scoring

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/creator-discovery/internal/llm"
	"github.com/lox/creator-discovery/internal/types"
)

const (
	smallBatch        = 3
	largeBatch        = 20
	batchPromptLimit  = 15
	smallBatchDefault = 0.9
	largeBatchDefault = 0.7
	unscoredDefault   = 0.5
)

const batchSystemPrompt = `You rate how likely each TikTok username is to match a creator search,
using the username pattern, its source and the text it was found in.

Respond with a JSON object mapping list numbers to scores between 0 and 1:
{"1": 0.8, "2": 0.3}

1.0 highly relevant, 0.7 moderately, 0.5 possibly, 0.2 probably not, 0.0 definitely not.`

// ScoreBatch assigns provisional relevance to candidates that have none.
// Tiny batches get a high default and huge batches a medium one to bound
// cost; anything in between is rated in one LLM call. Candidates that
// already carry a relevance are left untouched.
func (s *Scorer) ScoreBatch(ctx context.Context, q types.SearchQuery, cands []types.Candidate) []types.Candidate {
	out := append([]types.Candidate(nil), cands...)

	switch {
	case len(out) == 0:
		return out
	case len(out) <= smallBatch:
		return fill(out, func(int) float64 { return smallBatchDefault })
	case len(out) > largeBatch:
		return fill(out, func(int) float64 { return largeBatchDefault })
	case s.client == nil:
		return fill(out, func(int) float64 { return unscoredDefault })
	}

	text, err := s.client.Complete(ctx, llm.Request{
		System:      batchSystemPrompt,
		User:        batchPrompt(q, out),
		Temperature: 0.3,
		MaxTokens:   400,
		JSON:        true,
	})
	if err != nil {
		s.logger.Warn("Batch scoring failed, using defaults", "candidates", len(out), "error", err)
		return fill(out, func(int) float64 { return unscoredDefault })
	}

	scores, err := parseBatch(text)
	if err != nil {
		s.logger.Warn("Unparseable batch scores, using defaults", "error", err)
		return fill(out, func(int) float64 { return unscoredDefault })
	}

	return fill(out, func(i int) float64 {
		if i >= batchPromptLimit {
			return unscoredDefault
		}
		if v, ok := scores[i+1]; ok {
			return types.Clamp(v)
		}
		return unscoredDefault
	})
}

func fill(cands []types.Candidate, score func(i int) float64) []types.Candidate {
	for i := range cands {
		if cands[i].HasRelevance() {
			continue
		}
		v := score(i)
		cands[i].SearchRelevance = &v
	}
	return cands
}

func batchPrompt(q types.SearchQuery, cands []types.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search: %s\n\nCandidates:\n", q.Raw)
	for i, c := range cands {
		if i == batchPromptLimit {
			break
		}
		snippet := c.Context
		if snippet == "" {
			snippet = "No context available"
		}
		fmt.Fprintf(&b, "%d. @%s (source: %s)\nContext: %s\n\n", i+1, c.Identifier, c.Source, snippet)
	}
	return b.String()
}

// parseBatch reads {"1": 0.8, ...}; values may be numbers or numeric strings
func parseBatch(text string) (map[int]float64, error) {
	var raw map[string]any
	if err := llm.DecodeJSON(text, &raw); err != nil {
		return nil, err
	}
	out := make(map[int]float64, len(raw))
	for k, v := range raw {
		idx, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			out[idx] = n
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				out[idx] = f
			}
		}
	}
	return out, nil
}
