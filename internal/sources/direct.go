package sources

import (
	"context"
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/lox/creator-discovery/internal/extract"
	"github.com/lox/creator-discovery/internal/platform"
	"github.com/lox/creator-discovery/internal/schema"
	"github.com/lox/creator-discovery/internal/types"
)

// UserSearcher is the platform's own user search
type UserSearcher interface {
	SearchUsers(ctx context.Context, keyword string, count, cursor int) ([]platform.Object, error)
}

// DirectConnector searches the platform's user index with the raw query
type DirectConnector struct {
	searcher UserSearcher
	logger   *log.Logger
}

var _ Connector = (*DirectConnector)(nil)

func NewDirectConnector(searcher UserSearcher, logger *log.Logger) *DirectConnector {
	return &DirectConnector{searcher: searcher, logger: logger}
}

func (d *DirectConnector) Name() string { return string(types.SourceDirect) }

// Find returns up to 2×max users, each pre-scored with DirectRelevance
func (d *DirectConnector) Find(ctx context.Context, q types.SearchQuery, max int) []types.Candidate {
	users, err := d.searcher.SearchUsers(ctx, q.Raw, 2*max, 0)
	if err != nil {
		d.logger.Warn("Direct search failed", "query", q.Raw, "error", err)
		return nil
	}

	var out []types.Candidate
	for _, u := range users {
		p := schema.Profile(u, "")
		if !extract.Valid(p.Identifier) {
			continue
		}
		rel := DirectRelevance(p.Verified, p.Followers)
		out = append(out, types.Candidate{
			Identifier:      p.Identifier,
			Source:          types.SourceDirect,
			Origin:          "search-users",
			Context:         fmt.Sprintf("Bio: %s Followers: %d", p.Bio, p.Followers),
			SearchRelevance: &rel,
		})
		if len(out) >= 2*max {
			break
		}
	}
	return out
}

// DirectRelevance is the provisional score for a direct search hit:
// 0.5 base, +0.3 when verified, plus up to 0.2 scaled by followers up to one million
func DirectRelevance(verified bool, followers int64) float64 {
	score := 0.5
	if verified {
		score += 0.3
	}
	score += math.Min(0.2, float64(followers)/1_000_000)
	return math.Min(1.0, score)
}
