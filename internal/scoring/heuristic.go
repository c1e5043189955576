// Package scoring judges how well an enriched profile matches a query. The
// heuristic tier is local and always available; the LLM tier refines it when
// a client is configured.
package scoring

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/lox/creator-discovery/internal/types"
)

const (
	baseScore = 0.3

	locationHandlePenalty = 0.1
	brandNamePenalty      = 0.15
	officialPenalty       = 0.2
	emptyBioPenalty       = 0.15
	// extra when the handle is only a place name and the query asks for a creator
	genericAccountPenalty = 0.2
	// penalties together never take more than this off the base, so a
	// penalized profile still ranks by its rewards
	maxPenalty = 0.25

	creatorVocabReward   = 0.1
	locationReward       = 0.15
	professionReward     = 0.15
	maxProfessionReward  = 0.3
	topicReward          = 0.05
	maxTopicReward       = 0.15
	captionRatioReward   = 0.15
	maxSemanticIncrement = 0.1

	maxExplanationParts = 3
)

var creatorVocabulary = []string{
	"creator", "content", "videos", "vlog", "blogger", "influencer", "follow",
	"subscribe", "daily", "tips", "tutorial", "sharing", "my journey", "i post",
	"collab", "dm for", "business inquiries", "link in bio",
}

// Heuristic scores p against q using bio, names and captions only
func Heuristic(p types.Profile, q types.SearchQuery, captions []string) types.RelevanceScore {
	var (
		score   = baseScore
		penalty float64
		reasons []string
		generic bool
	)

	handle := strings.ToLower(p.Identifier)
	name := strings.ToLower(p.DisplayName)
	bio := strings.ToLower(p.Bio)
	text := bio + " " + strings.ToLower(strings.Join(captions, " "))

	if locationHandle(handle, q.LocationTerms) {
		penalty += locationHandlePenalty
		generic = true
		reasons = append(reasons, "username is just a place name")
	}
	if brandLike(p.DisplayName) {
		penalty += brandNamePenalty
		reasons = append(reasons, "display name looks like a brand")
	}
	if strings.Contains(handle, "official") || strings.Contains(name, "official") {
		penalty += officialPenalty
		reasons = append(reasons, "official account")
	}
	if strings.TrimSpace(p.Bio) == "" && q.SeekingCreator {
		penalty += emptyBioPenalty
		reasons = append(reasons, "no bio")
	}

	if generic && q.SeekingCreator {
		penalty += genericAccountPenalty
	}
	score -= min(penalty, maxPenalty)

	if containsAny(text, creatorVocabulary) {
		score += creatorVocabReward
		reasons = append(reasons, "bio reads like a creator")
	}
	if loc := q.Location(); loc != "" {
		switch {
		case locationPhrase(bio, loc):
			score += locationReward
			reasons = append(reasons, fmt.Sprintf("says they are from %s", loc))
		case strings.Contains(bio, loc):
			score += locationReward / 2
			reasons = append(reasons, fmt.Sprintf("bio mentions %s", loc))
		}
	}

	var professionHits float64
	for _, term := range q.ProfessionTerms {
		if strings.Contains(bio, term) {
			professionHits += professionReward
			reasons = append(reasons, fmt.Sprintf("bio mentions %q", term))
		}
	}
	score += min(professionHits, maxProfessionReward)

	var topicHits float64
	for _, term := range q.TopicTerms {
		if strings.Contains(bio, term) || strings.Contains(name, term) {
			topicHits += topicReward
		}
	}
	if topicHits > 0 {
		reasons = append(reasons, "profile covers the topic")
	}
	score += min(topicHits, maxTopicReward)

	if ratio := captionTopicRatio(captions, q.TopicTerms); ratio > 0 {
		score += ratio * captionRatioReward
		reasons = append(reasons, fmt.Sprintf("%.0f%% of recent videos on topic", ratio*100))
	}

	return types.RelevanceScore{
		Value:          types.Clamp(score),
		Explanation:    explain(reasons),
		Tier:           types.TierHeuristic,
		GenericAccount: generic,
	}
}

// WithSemantic adds the bounded similarity increment to a heuristic score
func WithSemantic(s types.RelevanceScore, similarity float64) types.RelevanceScore {
	sim := types.Clamp(similarity)
	s.SubScores.Semantic = &sim
	if s.Tier == types.TierHeuristic {
		s.Value = types.Clamp(s.Value + sim*maxSemanticIncrement)
	}
	return s
}

// locationHandle reports whether the handle, with separators removed, is one
// of the location terms or all of them run together
func locationHandle(handle string, location []string) bool {
	if len(location) == 0 {
		return false
	}
	h := strings.NewReplacer(".", "", "_", "").Replace(handle)
	if h == "" {
		return false
	}
	if h == strings.Join(location, "") {
		return true
	}
	for _, term := range location {
		if h == term {
			return true
		}
	}
	return false
}

// brandLike reports an all-caps display name of at most two words
func brandLike(display string) bool {
	fields := strings.Fields(display)
	if len(fields) == 0 || len(fields) > 2 {
		return false
	}
	letters := 0
	for _, r := range display {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 2
}

func locationPhrase(text, location string) bool {
	for _, phrase := range []string{"from " + location, "based in " + location, "living in " + location} {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

func captionTopicRatio(captions []string, topics []string) float64 {
	if len(captions) == 0 || len(topics) == 0 {
		return 0
	}
	hits := 0
	for _, c := range captions {
		if containsAny(strings.ToLower(c), topics) {
			hits++
		}
	}
	return float64(hits) / float64(len(captions))
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func explain(reasons []string) string {
	if len(reasons) == 0 {
		return "No strong signals either way"
	}
	if len(reasons) > maxExplanationParts {
		reasons = reasons[:maxExplanationParts]
	}
	s := strings.Join(reasons, "; ")
	return strings.ToUpper(s[:1]) + s[1:]
}
