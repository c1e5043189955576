package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/creator-discovery/internal/llm"
	"github.com/lox/creator-discovery/internal/types"
)

const criteriaSystemPrompt = `You help find TikTok creators. Turn the user's search into explicit
requirements a matching creator profile must meet.

Respond with a JSON object:
{"required_criteria": ["..."], "search_explanation": "..."}

required_criteria holds 1 to 5 short, checkable statements (topic, location,
audience, content style). search_explanation is one sentence describing how
the search will be run.`

type criteriaPayload struct {
	RequiredCriteria  []string `json:"required_criteria"`
	SearchExplanation string   `json:"search_explanation"`
}

// CriteriaExtractor asks an LLM for the explicit criteria of a query
type CriteriaExtractor struct {
	client  llm.Client
	logger  *log.Logger
	maxLoop int
}

// NewCriteriaExtractor creates an extractor; a nil client always uses the fallback
func NewCriteriaExtractor(client llm.Client, logger *log.Logger) *CriteriaExtractor {
	return &CriteriaExtractor{client: client, logger: logger, maxLoop: 2}
}

// Fallback is the criterion used when no LLM answer is available
func Fallback(q types.SearchQuery) types.SearchQuery {
	return q.WithCriteria(
		[]string{"Relevant to: " + q.Raw},
		fmt.Sprintf("Searching for TikTok creators matching '%s'", q.Raw),
	)
}

// Extract returns a copy of q with criteria attached. It never fails.
func (e *CriteriaExtractor) Extract(ctx context.Context, q types.SearchQuery) types.SearchQuery {
	if e.client == nil {
		return Fallback(q)
	}

	start := time.Now()
	payload, err := llm.RunLoop(ctx, e.logger, e.client, llm.Request{
		System:      criteriaSystemPrompt,
		User:        "Search: " + q.Raw,
		Temperature: 0.2,
		MaxTokens:   400,
		JSON:        true,
	}, validateCriteria, e.maxLoop)
	if err != nil {
		e.logger.Warn("Criteria extraction failed, using fallback", "query", q.Raw, "error", err)
		return Fallback(q)
	}

	e.logger.Debug("Extracted search criteria", "criteria", payload.RequiredCriteria, "duration", time.Since(start))
	return q.WithCriteria(payload.RequiredCriteria, payload.SearchExplanation)
}

func validateCriteria(text string) (criteriaPayload, error) {
	var p criteriaPayload
	if err := llm.DecodeJSON(text, &p); err != nil {
		return p, err
	}
	cleaned := p.RequiredCriteria[:0]
	for _, c := range p.RequiredCriteria {
		if c = strings.TrimSpace(c); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	p.RequiredCriteria = cleaned
	if len(p.RequiredCriteria) == 0 {
		return p, fmt.Errorf("required_criteria must contain at least one entry")
	}
	return p, nil
}
