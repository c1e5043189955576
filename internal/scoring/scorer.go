package scoring

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/creator-discovery/internal/llm"
	"github.com/lox/creator-discovery/internal/metrics"
	"github.com/lox/creator-discovery/internal/types"
)

const profileSystemPrompt = `You judge whether a TikTok profile matches a creator search.

Decide:
1. Is this an individual creator, or a generic, branded, news or fan account?
2. Do the bio and recent captions show real activity on the searched topic?
3. Is the location plausible when the search names one?

Score low when the username is only a place name, the display name is an
all-caps brand, the account calls itself official, or the bio is empty while
the search asks for a creator.

Respond with a JSON object:
{"relevant": true, "score": 0.0 to 1.0, "explanation": "one or two sentences"}`

const visionSystemPrompt = `You describe TikTok images for a creator search.
Respond with a JSON object: {"description": "...", "score": 0.0 to 1.0}
where score is how strongly the image suggests an individual creator on the searched topic.`

var (
	scorePattern       = regexp.MustCompile(`score"?\s*:\s*([0-9.]+)`)
	explanationPattern = regexp.MustCompile(`explanation"?\s*:\s*"([^"]+)`)
)

// Media are the image URLs available for vision scoring
type Media struct {
	AvatarURL    string
	ThumbnailURL string
}

// profileVerdict.Score is nil when the model left the score out
type profileVerdict struct {
	Relevant    bool     `json:"relevant"`
	Score       *float64 `json:"score"`
	Explanation string   `json:"explanation"`
}

type visionVerdict struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// Scorer runs the two scoring tiers. A nil client leaves only the heuristic.
type Scorer struct {
	client llm.Client
	vision bool
	logger *log.Logger
}

func NewScorer(client llm.Client, logger *log.Logger) *Scorer {
	return &Scorer{client: client, logger: logger}
}

// WithVision returns a copy of the scorer that describes avatar and
// thumbnail images before judging
func (s *Scorer) WithVision(enabled bool) *Scorer {
	c := *s
	c.vision = enabled
	return &c
}

// HasLLM reports whether the LLM tier is available
func (s *Scorer) HasLLM() bool {
	return s.client != nil
}

// Score never fails: any LLM problem falls back to the heuristic result
func (s *Scorer) Score(ctx context.Context, p types.Profile, q types.SearchQuery, captions []string, media Media) types.RelevanceScore {
	heuristic := Heuristic(p, q, captions)
	if s.client == nil {
		metrics.ScoresTotal.WithLabelValues(string(types.TierHeuristic)).Inc()
		return heuristic
	}

	var sub types.SubScores
	var descriptions []string
	if s.vision {
		if d, score, ok := s.describe(ctx, "profile picture", media.AvatarURL, q); ok {
			sub.Avatar = &score
			descriptions = append(descriptions, "Profile picture: "+d)
		}
		if d, score, ok := s.describe(ctx, "video thumbnail", media.ThumbnailURL, q); ok {
			sub.Thumbnail = &score
			descriptions = append(descriptions, "Recent video thumbnail: "+d)
		}
	}

	start := time.Now()
	text, err := s.client.Complete(ctx, llm.Request{
		System:      profileSystemPrompt,
		User:        profilePrompt(p, q, captions, descriptions),
		Temperature: 0.3,
		MaxTokens:   300,
		JSON:        true,
	})
	if err != nil {
		s.logger.Warn("LLM scoring failed, using heuristic", "identifier", p.Identifier, "error", err)
		metrics.ScoresTotal.WithLabelValues(string(types.TierHeuristic)).Inc()
		heuristic.SubScores = sub
		return heuristic
	}

	verdict, ok := parseVerdict(text)
	if !ok {
		s.logger.Warn("Unparseable LLM verdict, using heuristic", "identifier", p.Identifier)
		metrics.ScoresTotal.WithLabelValues(string(types.TierHeuristic)).Inc()
		heuristic.SubScores = sub
		return heuristic
	}
	if verdict.Score == nil {
		s.logger.Warn("LLM verdict has no score, using heuristic", "identifier", p.Identifier)
		metrics.ScoresTotal.WithLabelValues(string(types.TierHeuristic)).Inc()
		heuristic.SubScores = sub
		return heuristic
	}

	s.logger.Debug("Scored profile", "identifier", p.Identifier, "score", *verdict.Score, "relevant", verdict.Relevant, "duration", time.Since(start))
	metrics.ScoresTotal.WithLabelValues(string(types.TierLLM)).Inc()
	return types.RelevanceScore{
		Value:          types.Clamp(*verdict.Score),
		Explanation:    verdict.Explanation,
		Tier:           types.TierLLM,
		SubScores:      sub,
		GenericAccount: heuristic.GenericAccount,
	}
}

// parseVerdict decodes the JSON verdict, salvaging score and explanation
// with regular expressions when the JSON is broken
func parseVerdict(text string) (profileVerdict, bool) {
	var v profileVerdict
	if err := llm.DecodeJSON(text, &v); err == nil {
		if v.Explanation == "" {
			v.Explanation = "No explanation provided"
		}
		return v, true
	}

	m := scorePattern.FindStringSubmatch(text)
	if m == nil {
		return v, false
	}
	score, err := strconv.ParseFloat(strings.TrimRight(m[1], "."), 64)
	if err != nil {
		return v, false
	}
	v.Score = &score
	v.Explanation = "Analysis partially parsed"
	if e := explanationPattern.FindStringSubmatch(text); e != nil {
		v.Explanation = e[1]
	}
	return v, true
}

func (s *Scorer) describe(ctx context.Context, kind, url string, q types.SearchQuery) (string, float64, bool) {
	if url == "" {
		return "", 0, false
	}
	text, err := s.client.Complete(ctx, llm.Request{
		System:      visionSystemPrompt,
		User:        fmt.Sprintf("Describe this %s. The search is: %s", kind, q.Raw),
		Temperature: 0.2,
		MaxTokens:   200,
		JSON:        true,
		Images:      []string{url},
	})
	if err != nil {
		s.logger.Debug("Vision description failed", "kind", kind, "error", err)
		return "", 0, false
	}
	var v visionVerdict
	if err := llm.DecodeJSON(text, &v); err != nil || v.Description == "" {
		return "", 0, false
	}
	return v.Description, types.Clamp(v.Score), true
}

func profilePrompt(p types.Profile, q types.SearchQuery, captions, descriptions []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search: %s\n", q.Raw)
	if len(q.RequiredCriteria) > 0 {
		b.WriteString("\nRequired criteria:\n")
		for _, c := range q.RequiredCriteria {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}

	b.WriteString("\nProfile:\n")
	fmt.Fprintf(&b, "- Username: @%s\n", p.Identifier)
	fmt.Fprintf(&b, "- Display name: %s\n", p.DisplayName)
	fmt.Fprintf(&b, "- Bio: %s\n", p.Bio)
	fmt.Fprintf(&b, "- Followers: %d\n", p.Followers)
	fmt.Fprintf(&b, "- Verified: %t\n", p.Verified)

	if len(captions) > 0 {
		b.WriteString("\nRecent video captions:\n")
		for i, c := range captions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, c)
		}
	}
	if len(descriptions) > 0 {
		b.WriteString("\nImages:\n")
		for _, d := range descriptions {
			fmt.Fprintf(&b, "- %s\n", d)
		}
	}
	return b.String()
}
