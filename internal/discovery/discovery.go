// Package discovery runs the creator search pipeline: criteria extraction,
// candidate gathering, bounded enrichment, scoring, filtering and ranking.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/creator-discovery/internal/embeddings"
	"github.com/lox/creator-discovery/internal/metrics"
	"github.com/lox/creator-discovery/internal/niche"
	"github.com/lox/creator-discovery/internal/query"
	"github.com/lox/creator-discovery/internal/scoring"
	"github.com/lox/creator-discovery/internal/sources"
	"github.com/lox/creator-discovery/internal/types"
)

var (
	ErrEmptyQuery        = errors.New("query is required")
	ErrInvalidMaxResults = errors.New("max results must be greater than 0")
)

// State names a step of the pipeline
type State string

const (
	StateQueryReceived      State = "QueryReceived"
	StateCriteriaExtracted  State = "CriteriaExtracted"
	StateCandidatesGathered State = "CandidatesGathered"
	StateCandidatesDeduped  State = "CandidatesDeduped"
	StateEnriched           State = "Enriched"
	StateScored             State = "Scored"
	StateFiltered           State = "Filtered"
	StateRanked             State = "Ranked"
	StateTruncated          State = "Truncated"
)

// Resolver is the enrichment surface the pipeline needs
type Resolver interface {
	Resolve(ctx context.Context, identifier string) types.Profile
	RecentVideos(ctx context.Context, p types.Profile, n int) []types.Video
}

// Request is one search
type Request struct {
	Query      string
	MaxResults int
	// MinRelevance overrides the configured threshold when set
	MinRelevance *float64
	// Criteria skips LLM criteria extraction when non-empty
	Criteria []string
	Filters  types.Filters
}

type Discoverer struct {
	logger     *log.Logger
	extractor  *query.CriteriaExtractor
	connectors []sources.Connector
	resolver   Resolver
	scorer     *scoring.Scorer
	similarity *embeddings.SimilarityIndex
	config     Config
}

// NewDiscoverer creates a pipeline with explicit dependencies. similarity
// may be nil.
func NewDiscoverer(
	logger *log.Logger,
	extractor *query.CriteriaExtractor,
	resolver Resolver,
	scorer *scoring.Scorer,
	similarity *embeddings.SimilarityIndex,
	config Config,
	connectors ...sources.Connector,
) (*Discoverer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Discoverer{
		logger:     logger,
		extractor:  extractor,
		connectors: connectors,
		resolver:   resolver,
		scorer:     scorer,
		similarity: similarity,
		config:     config,
	}, nil
}

// enriched is a candidate with its resolved profile
type enriched struct {
	candidate types.Candidate
	profile   types.Profile
}

// scored is a match still carrying its provisional relevance
type scored struct {
	match       types.MatchResult
	provisional float64
	niche       float64
}

func (d *Discoverer) transition(state State, kv ...any) {
	d.logger.Debug("Pipeline state", append([]any{"state", state}, kv...)...)
}

// Search runs the pipeline. It only returns an error for invalid input;
// provider and LLM failures degrade the result instead.
func (d *Discoverer) Search(ctx context.Context, req Request) (types.SearchResponse, error) {
	raw := strings.TrimSpace(req.Query)
	if raw == "" {
		return types.SearchResponse{}, ErrEmptyQuery
	}
	if req.MaxResults <= 0 {
		return types.SearchResponse{}, ErrInvalidMaxResults
	}

	start := time.Now()
	defer func() { metrics.PipelineDuration.Observe(time.Since(start).Seconds()) }()

	ctx, cancel := context.WithTimeout(ctx, d.config.RequestTimeout)
	defer cancel()

	thresholds := d.config.Thresholds
	if req.MinRelevance != nil {
		thresholds.MinRelevance = types.Clamp(*req.MinRelevance)
		thresholds.RelaxedRelevance = min(thresholds.RelaxedRelevance, thresholds.MinRelevance)
	}

	q := query.Analyze(raw)
	d.transition(StateQueryReceived, "query", raw, "max_results", req.MaxResults)

	if len(req.Criteria) > 0 {
		q = q.WithCriteria(req.Criteria, "")
	} else {
		q = d.extractor.Extract(ctx, q)
	}
	d.transition(StateCriteriaExtracted, "criteria", len(q.RequiredCriteria))

	resp := types.SearchResponse{
		Query:            raw,
		RequiredCriteria: q.RequiredCriteria,
		SearchStrategy:   d.strategy(q),
		Matches:          []types.MatchResult{},
	}

	lists := sources.Collect(ctx, d.logger, q, req.MaxResults, d.connectors...)
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	d.transition(StateCandidatesGathered, "candidates", total)

	candidates := sources.Merge(lists...)
	resp.CandidatesFound = len(candidates)
	d.transition(StateCandidatesDeduped, "candidates", len(candidates))

	if len(candidates) == 0 {
		d.logger.Info("No candidates found", "query", raw)
		metrics.PipelineRunsTotal.WithLabelValues("empty").Inc()
		return resp, nil
	}

	candidates = d.prioritize(ctx, q, candidates)
	limit := min(len(candidates), d.config.enrichLimit(req.MaxResults))
	toEnrich := candidates[:limit]

	var progress Progress = NewCountingProgress()
	if d.config.Progress {
		progress = NewBarProgress(os.Stderr, len(toEnrich))
	}

	var (
		records  []enriched
		matches  []scored
		resolved = make(map[string]struct{}, len(toEnrich))
	)
	for _, c := range toEnrich {
		if ctx.Err() != nil {
			d.logger.Warn("Request deadline reached, skipping remaining candidates", "remaining", len(toEnrich)-len(records))
			break
		}

		profile := d.resolver.Resolve(ctx, c.Identifier)
		records = append(records, enriched{candidate: c, profile: profile})
		progress.Resolved(profile.Identifier, profile.Degraded)
		d.transition(StateEnriched, "identifier", c.Identifier, "degraded", profile.Degraded, "provider", profile.Provider)

		if profile.Degraded {
			continue
		}
		// a closest search match can land on an account already resolved
		if _, dup := resolved[profile.Identifier]; dup {
			d.logger.Debug("Skipping duplicate account", "identifier", c.Identifier, "matched", profile.Identifier)
			continue
		}
		resolved[profile.Identifier] = struct{}{}
		provisional := c.Relevance(d.config.DegradedRelevance)
		if d.belowQualityGate(profile, provisional) {
			d.logger.Debug("Skipping low quality profile", "identifier", c.Identifier, "followers", profile.Followers, "provisional", provisional)
			continue
		}
		if !req.Filters.Match(profile) {
			d.logger.Debug("Profile does not match filters", "identifier", c.Identifier)
			continue
		}

		videos := d.resolver.RecentVideos(ctx, profile, d.config.VideosPerMatch)
		score := d.scorer.Score(ctx, profile, q, types.Captions(videos), mediaFor(profile, videos))
		score.DiscoveryMethod = discoveryMethod(c.Source)
		d.transition(StateScored, "identifier", c.Identifier, "score", score.Value, "tier", score.Tier)

		matches = append(matches, scored{
			match:       types.MatchResult{Profile: profile, RelevanceScore: score, Videos: videos},
			provisional: provisional,
		})
	}
	tally := progress.Close()
	d.logger.Debug("Enrichment finished", "resolved", tally.Resolved, "degraded", tally.Degraded, "shortlist", len(toEnrich))
	resp.ProfilesAnalyzed = len(records)

	d.addSemantic(ctx, q, matches)

	kept, nicheMode := d.filter(q, matches, thresholds)
	d.transition(StateFiltered, "kept", len(kept), "scored", len(matches), "niche", nicheMode)

	rank(q, kept, nicheMode)
	d.transition(StateRanked, "matches", len(kept))

	if len(kept) > req.MaxResults {
		kept = kept[:req.MaxResults]
	}
	d.transition(StateTruncated, "matches", len(kept))

	for _, s := range kept {
		resp.Matches = append(resp.Matches, s.match)
	}

	outcome := "ranked"
	if len(resp.Matches) == 0 {
		resp.Matches = d.degrade(q, records, toEnrich, req)
		outcome = "degraded"
		d.logger.Info("No profiles passed scoring, returning limited data", "query", raw, "matches", len(resp.Matches))
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		outcome = "deadline"
	}
	metrics.PipelineRunsTotal.WithLabelValues(outcome).Inc()

	d.logger.Info("Search complete",
		"query", raw,
		"candidates", resp.CandidatesFound,
		"analyzed", resp.ProfilesAnalyzed,
		"matches", len(resp.Matches),
		"duration", time.Since(start))
	return resp, nil
}

// prioritize batch-scores candidates without a provisional relevance and
// orders everything by it, keeping discovery order for ties
func (d *Discoverer) prioritize(ctx context.Context, q types.SearchQuery, candidates []types.Candidate) []types.Candidate {
	var unscored []int
	for i, c := range candidates {
		if !c.HasRelevance() {
			unscored = append(unscored, i)
		}
	}

	out := append([]types.Candidate(nil), candidates...)
	if len(unscored) > 0 {
		batch := make([]types.Candidate, len(unscored))
		for j, i := range unscored {
			batch[j] = out[i]
		}
		batch = d.scorer.ScoreBatch(ctx, q, batch)
		for j, i := range unscored {
			out[i] = batch[j]
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Relevance(0) > out[j].Relevance(0)
	})
	return out
}

func (d *Discoverer) belowQualityGate(p types.Profile, provisional float64) bool {
	weak := p.Followers < d.config.QualityMinFollowers || strings.TrimSpace(p.Bio) == ""
	return weak && provisional < d.config.QualityBypassRelevance
}

func (d *Discoverer) addSemantic(ctx context.Context, q types.SearchQuery, matches []scored) {
	if d.similarity == nil || len(matches) == 0 {
		return
	}
	docs := make(map[string]string, len(matches))
	for _, s := range matches {
		docs[s.match.Identifier] = embeddings.ProfileText(s.match.Profile, types.Captions(s.match.Videos))
	}
	sims, err := d.similarity.Similarities(ctx, q.Raw, docs)
	if err != nil {
		d.logger.Warn("Semantic similarity failed", "error", err)
		return
	}
	for i := range matches {
		if sim, ok := sims[matches[i].match.Identifier]; ok {
			matches[i].match.RelevanceScore = scoring.WithSemantic(matches[i].match.RelevanceScore, sim)
		}
	}
}

// filter applies the threshold policy, then the niche filter when the
// query is about security or privacy
func (d *Discoverer) filter(q types.SearchQuery, matches []scored, t Thresholds) ([]scored, bool) {
	kept := aboveThreshold(matches, t.MinRelevance)
	if len(kept) < t.MinStrictResults {
		relaxed := aboveThreshold(matches, t.RelaxedRelevance)
		d.logger.Debug("Too few strict matches, relaxing threshold", "strict", len(kept), "relaxed", len(relaxed), "threshold", t.RelaxedRelevance)
		kept = relaxed
	}

	if !niche.Concerns(q.Raw) || len(kept) == 0 {
		return kept, false
	}

	var passing, focused []scored
	for _, s := range kept {
		captions := types.Captions(s.match.Videos)
		s.niche = niche.Score(s.match.Profile, captions)
		if s.niche < niche.MinScore {
			continue
		}
		passing = append(passing, s)
		if niche.Focused(s.match.Profile, captions) {
			focused = append(focused, s)
		}
	}

	switch {
	case len(focused) >= t.MinStrictResults:
		return focused, true
	case len(passing) >= t.MinStrictResults:
		return passing, true
	default:
		// too few niche matches; keep everything, using the niche score for ties
		for i := range kept {
			kept[i].niche = niche.Score(kept[i].match.Profile, types.Captions(kept[i].match.Videos))
		}
		return kept, true
	}
}

func aboveThreshold(matches []scored, threshold float64) []scored {
	var out []scored
	for _, s := range matches {
		if s.match.Value >= threshold {
			out = append(out, s)
		}
	}
	return out
}

// rank sorts by relevance, with the location match ahead of it for
// location queries. In niche mode the niche score breaks relevance ties.
func rank(q types.SearchQuery, matches []scored, nicheMode bool) {
	loc := q.Location()
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if loc != "" {
			la, lb := locationMatch(a.match.Profile, loc), locationMatch(b.match.Profile, loc)
			if la != lb {
				return la > lb
			}
		}
		if a.match.Value != b.match.Value {
			return a.match.Value > b.match.Value
		}
		if nicheMode && a.niche != b.niche {
			return a.niche > b.niche
		}
		return a.match.Followers > b.match.Followers
	})
}

// locationMatch is 10 for a location in the handle or display name plus 5
// for one in the bio
func locationMatch(p types.Profile, loc string) int {
	loc = strings.ToLower(loc)
	compact := strings.ReplaceAll(loc, " ", "")
	score := 0
	if strings.Contains(strings.ToLower(p.Identifier), compact) || strings.Contains(strings.ToLower(p.DisplayName), loc) {
		score += 10
	}
	if strings.Contains(strings.ToLower(p.Bio), loc) {
		score += 5
	}
	return score
}

// degrade builds limited-data matches straight from enrichment records when
// nothing survived scoring, so any signal reaches the caller
func (d *Discoverer) degrade(q types.SearchQuery, records []enriched, candidates []types.Candidate, req Request) []types.MatchResult {
	if len(records) == 0 {
		for _, c := range candidates {
			records = append(records, enriched{candidate: c, profile: types.Placeholder(c.Identifier)})
		}
	}

	out := []types.MatchResult{}
	for _, r := range records {
		if len(out) == req.MaxResults {
			break
		}
		if !r.profile.Degraded && !req.Filters.Match(r.profile) {
			continue
		}
		method := discoveryMethod(r.candidate.Source)
		if r.profile.Degraded {
			method += " (Limited Data)"
		}
		out = append(out, types.MatchResult{
			Profile: r.profile,
			RelevanceScore: types.RelevanceScore{
				Value:           types.Clamp(r.candidate.Relevance(d.config.DegradedRelevance)),
				Explanation:     fmt.Sprintf("Found via web search for '%s'", q.Raw),
				DiscoveryMethod: method,
				Tier:            types.TierProvisional,
			},
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

func (d *Discoverer) strategy(q types.SearchQuery) string {
	names := make([]string, 0, len(d.connectors))
	for _, c := range d.connectors {
		names = append(names, c.Name())
	}
	s := fmt.Sprintf("Sources: %s; scoring: ", strings.Join(names, ", "))
	if d.scorer.HasLLM() {
		s += "LLM analysis with heuristic fallback"
	} else {
		s += "heuristic"
	}
	if q.SearchExplanation != "" {
		s += "\n\nSearching for: " + q.SearchExplanation
	}
	return s
}

func discoveryMethod(src types.SourceTag) string {
	switch src {
	case types.SourceDirect:
		return "TikTok Search"
	case types.SourceWeb:
		return "Web Search"
	default:
		return string(src)
	}
}

func mediaFor(p types.Profile, videos []types.Video) scoring.Media {
	m := scoring.Media{AvatarURL: p.AvatarURL}
	for _, v := range videos {
		if v.Thumbnail != "" {
			m.ThumbnailURL = v.Thumbnail
			break
		}
	}
	return m
}
