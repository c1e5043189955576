// Package sources finds candidate creator identifiers for a query. Each
// connector fails independently: errors are logged and produce no candidates.
package sources

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/creator-discovery/internal/metrics"
	"github.com/lox/creator-discovery/internal/types"
	"golang.org/x/sync/errgroup"
)

// Connector finds candidates for a query
type Connector interface {
	Name() string
	Find(ctx context.Context, q types.SearchQuery, max int) []types.Candidate
}

// Merge concatenates candidate lists, dropping case-insensitive duplicates.
// The first occurrence wins and order is preserved.
func Merge(lists ...[]types.Candidate) []types.Candidate {
	seen := make(map[string]struct{})
	var out []types.Candidate
	for _, list := range lists {
		for _, c := range list {
			key := strings.ToLower(c.Identifier)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// Collect runs every connector concurrently and returns their results in
// connector order, so the output does not depend on which finished first
func Collect(ctx context.Context, logger *log.Logger, q types.SearchQuery, max int, connectors ...Connector) [][]types.Candidate {
	results := make([][]types.Candidate, len(connectors))

	g, gCtx := errgroup.WithContext(ctx)
	for i, c := range connectors {
		g.Go(func() error {
			found := c.Find(gCtx, q, max)
			results[i] = found
			metrics.CandidatesTotal.WithLabelValues(c.Name()).Add(float64(len(found)))
			logger.Debug("Connector finished", "connector", c.Name(), "candidates", len(found))
			return nil
		})
	}
	_ = g.Wait() // connectors never return errors
	return results
}

// Gather collects from every connector and merges the results
func Gather(ctx context.Context, logger *log.Logger, q types.SearchQuery, max int, connectors ...Connector) []types.Candidate {
	start := time.Now()
	merged := Merge(Collect(ctx, logger, q, max, connectors...)...)
	logger.Info("Gathered candidates", "total", len(merged), "duration", time.Since(start))
	return merged
}
