package discovery

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/creator-discovery/internal/metrics"
	"github.com/lox/creator-discovery/internal/query"
	"github.com/lox/creator-discovery/internal/scoring"
	"github.com/lox/creator-discovery/internal/types"
)

// ScoreUpdate is a refined score for one match of a finished search
type ScoreUpdate struct {
	RequestID  string
	Identifier string
	Score      types.RelevanceScore
}

// DeepAnalyzer re-scores finished searches in the background with vision
// enabled. Each scheduled run is best effort and happens at most once;
// updates are only delivered through the returned channel.
type DeepAnalyzer struct {
	scorer  *scoring.Scorer
	logger  *log.Logger
	timeout time.Duration
}

func NewDeepAnalyzer(scorer *scoring.Scorer, logger *log.Logger, timeout time.Duration) *DeepAnalyzer {
	return &DeepAnalyzer{scorer: scorer.WithVision(true), logger: logger, timeout: timeout}
}

// Schedule starts the background pass and returns immediately. The channel
// is buffered for every match and closed when the pass ends. The pass
// outlives ctx's cancellation but not the analyzer's own timeout.
func (d *DeepAnalyzer) Schedule(ctx context.Context, resp types.SearchResponse) <-chan ScoreUpdate {
	matches := append([]types.MatchResult(nil), resp.Matches...)
	updates := make(chan ScoreUpdate, len(matches))

	q := query.Analyze(resp.Query).WithCriteria(resp.RequiredCriteria, "")
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)

	go func() {
		defer close(updates)
		defer cancel()

		start := time.Now()
		for _, m := range matches {
			if ctx.Err() != nil {
				d.logger.Warn("Deep analysis stopped early", "request_id", resp.RequestID, "error", ctx.Err())
				return
			}
			if m.Degraded {
				continue
			}
			score := d.scorer.Score(ctx, m.Profile, q, types.Captions(m.Videos), mediaFor(m.Profile, m.Videos))
			score.DiscoveryMethod = m.DiscoveryMethod
			updates <- ScoreUpdate{RequestID: resp.RequestID, Identifier: m.Identifier, Score: score}
			metrics.DeepAnalysisUpdatesTotal.Inc()
		}
		d.logger.Info("Deep analysis complete", "request_id", resp.RequestID, "matches", len(matches), "duration", time.Since(start))
	}()

	return updates
}

// Apply writes an update into resp, reporting whether a match was found.
// The matches are re-ranked afterwards so the list stays ordered by score.
func Apply(resp *types.SearchResponse, u ScoreUpdate) bool {
	if resp.RequestID != u.RequestID {
		return false
	}
	for i := range resp.Matches {
		if resp.Matches[i].Identifier == u.Identifier {
			resp.Matches[i].RelevanceScore = u.Score
			rerank(resp)
			return true
		}
	}
	return false
}

func rerank(resp *types.SearchResponse) {
	matches := make([]scored, len(resp.Matches))
	for i, m := range resp.Matches {
		matches[i] = scored{match: m}
	}
	rank(query.Analyze(resp.Query), matches, false)
	for i, s := range matches {
		resp.Matches[i] = s.match
	}
}
