package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lox/creator-discovery/internal/extract"
	"github.com/lox/creator-discovery/internal/niche"
	"github.com/lox/creator-discovery/internal/query"
	"github.com/lox/creator-discovery/internal/types"
)

// DefaultDomains is the allow-list of platform and influencer-directory sites
var DefaultDomains = []string{
	"tiktok.com", "tokfluence.com", "heepsy.com", "influencermarketinghub.com",
	"hiveinfluence.io", "starngage.com", "favikon.com", "socialtracker.io",
	"socialblade.com", "omniinfluencer.com", "tokboard.com", "affable.ai",
}

// WebSearcher is a general web search provider
type WebSearcher interface {
	Search(ctx context.Context, query, depth string, domains []string, maxResults int) ([]types.RawHit, error)
}

// WebConnector rewrites the query, searches the web and extracts handles
// from the hits
type WebConnector struct {
	searcher   WebSearcher
	domains    []string
	maxResults int
	logger     *log.Logger
}

var _ Connector = (*WebConnector)(nil)

// NewWebConnector creates a connector; empty domains uses DefaultDomains
func NewWebConnector(searcher WebSearcher, domains []string, maxResults int, logger *log.Logger) *WebConnector {
	if len(domains) == 0 {
		domains = DefaultDomains
	}
	if maxResults <= 0 {
		maxResults = 10
	}
	return &WebConnector{searcher: searcher, domains: domains, maxResults: maxResults, logger: logger}
}

func (w *WebConnector) Name() string { return string(types.SourceWeb) }

func (w *WebConnector) Find(ctx context.Context, q types.SearchQuery, max int) []types.Candidate {
	rewritten := Rewrite(q.Raw)
	w.logger.Debug("Rewrote web query", "query", q.Raw, "rewritten", rewritten)

	hits, err := w.searcher.Search(ctx, rewritten, "advanced", w.domains, w.maxResults)
	if err != nil {
		w.logger.Warn("Web search failed", "query", rewritten, "error", err)
		return nil
	}
	return extract.FromHits(hits, max)
}

// Rewrite turns a query into a directory-biased search string. Security and
// privacy queries come first, then location queries, then everything else.
func Rewrite(raw string) string {
	raw = strings.TrimSpace(raw)

	if niche.Concerns(raw) {
		topics := strings.Join(niche.SubTopics(raw), " and ")
		return fmt.Sprintf("best TikTok %s experts OR popular %s influencers on TikTok", topics, topics)
	}

	if topic, location := query.SplitLocation(raw); location != "" {
		topic = strings.TrimSpace(query.StripRoleNouns(topic))
		if topic == "" {
			topic = "content"
		}
		return fmt.Sprintf("top %s TikTok influencers from %s OR most popular %s TikTokers who create %s content",
			topic, location, location, topic)
	}

	topic := strings.TrimSpace(query.StripRoleNouns(raw))
	if topic == "" {
		topic = raw
	}
	return fmt.Sprintf("most popular TikTok accounts focused on %s OR top %s experts on TikTok", topic, topic)
}
