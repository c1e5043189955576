package types

import "strings"

// ScoreTier records which scoring path produced a RelevanceScore
type ScoreTier string

const (
	TierHeuristic   ScoreTier = "heuristic"
	TierLLM         ScoreTier = "llm"
	TierProvisional ScoreTier = "provisional"
)

// SubScores holds the optional image and semantic scores
type SubScores struct {
	Avatar    *float64 `json:"avatar,omitempty"`
	Thumbnail *float64 `json:"thumbnail,omitempty"`
	Semantic  *float64 `json:"semantic,omitempty"`
}

// RelevanceScore is a clamped 0..1 score with its rationale
type RelevanceScore struct {
	Value           float64   `json:"relevance_score"`
	Explanation     string    `json:"why_matches"`
	DiscoveryMethod string    `json:"discovery_method"`
	Tier            ScoreTier `json:"tier"`
	SubScores       SubScores `json:"sub_scores"`
	// GenericAccount is set when the location-named account penalty fired
	GenericAccount bool `json:"generic_account,omitempty"`
}

// Clamp limits v to [0, 1]
func Clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// SearchQuery is the analysed form of a free-text query. Build it with
// query.Analyze; values are copied, never mutated in place.
type SearchQuery struct {
	Raw               string   `json:"query"`
	TopicTerms        []string `json:"topic_terms,omitempty"`
	LocationTerms     []string `json:"location_terms,omitempty"`
	ProfessionTerms   []string `json:"profession_terms,omitempty"`
	SeekingCreator    bool     `json:"seeking_creator"`
	RequiredCriteria  []string `json:"required_criteria,omitempty"`
	SearchExplanation string   `json:"search_explanation,omitempty"`
}

// Location returns the detected location phrase, or empty
func (q SearchQuery) Location() string {
	return strings.Join(q.LocationTerms, " ")
}

// WithCriteria returns a copy of q carrying the given criteria
func (q SearchQuery) WithCriteria(criteria []string, explanation string) SearchQuery {
	out := q
	out.RequiredCriteria = append([]string(nil), criteria...)
	out.SearchExplanation = explanation
	return out
}

// Filters are optional structured constraints applied after enrichment
type Filters struct {
	MinFollowers *int64 `json:"min_followers,omitempty"`
	MaxFollowers *int64 `json:"max_followers,omitempty"`
	MinFollowing *int64 `json:"min_following,omitempty"`
	MaxFollowing *int64 `json:"max_following,omitempty"`
	MinLikes     *int64 `json:"min_likes,omitempty"`
	MaxLikes     *int64 `json:"max_likes,omitempty"`
	Verified     *bool  `json:"verified,omitempty"`
}

// Match reports whether p satisfies every set constraint
func (f Filters) Match(p Profile) bool {
	within := func(v int64, lo, hi *int64) bool {
		if lo != nil && v < *lo {
			return false
		}
		if hi != nil && v > *hi {
			return false
		}
		return true
	}
	if !within(p.Followers, f.MinFollowers, f.MaxFollowers) {
		return false
	}
	if !within(p.Following, f.MinFollowing, f.MaxFollowing) {
		return false
	}
	if !within(p.Likes, f.MinLikes, f.MaxLikes) {
		return false
	}
	if f.Verified != nil && p.Verified != *f.Verified {
		return false
	}
	return true
}

// MatchResult is one ranked output entry
type MatchResult struct {
	Profile
	RelevanceScore
	Videos []Video `json:"videos,omitempty"`
}

// SearchResponse is returned by a pipeline run
type SearchResponse struct {
	RequestID        string        `json:"request_id,omitempty"`
	Query            string        `json:"query"`
	RequiredCriteria []string      `json:"required_criteria"`
	Matches          []MatchResult `json:"matches"`
	SearchStrategy   string        `json:"search_strategy"`
	CandidatesFound  int           `json:"usernames_found"`
	ProfilesAnalyzed int           `json:"profiles_analyzed"`
}
