package scoring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/lox/creator-discovery/internal/llm"
	"github.com/lox/creator-discovery/internal/query"
	"github.com/lox/creator-discovery/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicPenalizesLocationNamedAccount(t *testing.T) {
	q := query.Analyze("tech influencer from South Africa")
	p := types.Profile{Identifier: "southafrica", DisplayName: "South Africa"}

	s := Heuristic(p, q, nil)

	assert.Less(t, s.Value, 0.3)
	assert.True(t, s.GenericAccount)
	assert.Equal(t, types.TierHeuristic, s.Tier)
	assert.Contains(t, s.Explanation, "place name")
}

func TestHeuristicKeywordBioBeatsEmptyBio(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		profile types.Profile
		bio     string
	}{
		{name: "place handle", query: "chef from Lagos", profile: types.Profile{Identifier: "lagos"}, bio: "Private chef sharing recipes"},
		{name: "place handle and brand name", query: "chef from Lagos", profile: types.Profile{Identifier: "lagos", DisplayName: "LAGOS"}, bio: "chef"},
		{name: "official brand", query: "sneaker influencers", profile: types.Profile{Identifier: "kicksofficial", DisplayName: "KICKS"}, bio: "sneaker reviews"},
		{name: "plain creator", query: "fitness coach from Nairobi", profile: types.Profile{Identifier: "amani_fit", DisplayName: "Amani"}, bio: "fitness coach"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := query.Analyze(tt.query)
			withBio := tt.profile
			withBio.Bio = tt.bio

			empty := Heuristic(tt.profile, q, nil)
			keyword := Heuristic(withBio, q, nil)

			assert.Greater(t, keyword.Value, empty.Value)
			assert.GreaterOrEqual(t, empty.Value, 0.0)
		})
	}
}

func TestHeuristicRewardsFocusedCreator(t *testing.T) {
	q := query.Analyze("fitness coach from Nairobi")
	p := types.Profile{
		Identifier:  "amani_fit",
		DisplayName: "Amani",
		Bio:         "Certified fitness coach based in Nairobi. Daily workout tips",
		Followers:   42000,
	}
	captions := []string{"fitness routine for beginners", "morning run", "fitness meal prep"}

	s := Heuristic(p, q, captions)

	assert.Greater(t, s.Value, 0.7)
	assert.False(t, s.GenericAccount)
	assert.LessOrEqual(t, strings.Count(s.Explanation, ";"), maxExplanationParts-1)
}

func TestHeuristicStaysInBounds(t *testing.T) {
	queries := []string{
		"tech influencer from South Africa",
		"best chefs",
		"cybersecurity experts",
		"",
	}
	profiles := []types.Profile{
		{},
		{Identifier: "nikeofficial", DisplayName: "NIKE"},
		{Identifier: "x", Bio: strings.Repeat("creator tips daily chef tech security ", 20)},
		{Identifier: "southafrica", DisplayName: "SOUTH AFRICA"},
	}
	for _, raw := range queries {
		q := query.Analyze(raw)
		for _, p := range profiles {
			s := Heuristic(p, q, []string{"tech", "chef", "security"})
			assert.GreaterOrEqual(t, s.Value, 0.0, "%q / %q", raw, p.Identifier)
			assert.LessOrEqual(t, s.Value, 1.0, "%q / %q", raw, p.Identifier)
			assert.NotEmpty(t, s.Explanation)
		}
	}
}

func TestHeuristicOfficialAccount(t *testing.T) {
	q := query.Analyze("sneaker influencers")
	plain := Heuristic(types.Profile{Identifier: "kicksbykemi", Bio: "sneaker reviews"}, q, nil)
	official := Heuristic(types.Profile{Identifier: "kicksofficial", Bio: "sneaker reviews"}, q, nil)
	assert.Less(t, official.Value, plain.Value)
}

func TestBrandLike(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"NIKE", true},
		{"NIKE STORE", true},
		{"NIKE STORE LAGOS", false},
		{"Jane Doe", false},
		{"X", false},
		{"", false},
		{"BBC 1", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, brandLike(tt.name), tt.name)
	}
}

func TestWithSemantic(t *testing.T) {
	base := types.RelevanceScore{Value: 0.5, Tier: types.TierHeuristic}
	s := WithSemantic(base, 0.8)
	require.NotNil(t, s.SubScores.Semantic)
	assert.InDelta(t, 0.58, s.Value, 1e-9)

	llmScore := types.RelevanceScore{Value: 0.5, Tier: types.TierLLM}
	s = WithSemantic(llmScore, 0.8)
	assert.Equal(t, 0.5, s.Value, "LLM scores only record the similarity")
	assert.Equal(t, 0.8, *s.SubScores.Semantic)
}

// fakeClient answers vision requests with visionReply and everything else
// with reply, recording every request
type fakeClient struct {
	reply       string
	visionReply string
	err         error

	mu       sync.Mutex
	requests []llm.Request
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if len(req.Images) > 0 {
		return f.visionReply, nil
	}
	return f.reply, nil
}

func newScorer(client llm.Client) *Scorer {
	return NewScorer(client, log.New(io.Discard))
}

var chef = types.Profile{Identifier: "chefada", DisplayName: "Ada", Bio: "Nigerian home cook", Followers: 12000}

func TestScoreUsesLLMVerdict(t *testing.T) {
	client := &fakeClient{reply: `{"relevant": true, "score": 0.82, "explanation": "Cooks Nigerian food daily"}`}
	q := query.Analyze("nigerian food creators").WithCriteria([]string{"posts about Nigerian food"}, "")

	s := newScorer(client).Score(context.Background(), chef, q, []string{"jollof rice"}, Media{})

	assert.Equal(t, types.TierLLM, s.Tier)
	assert.Equal(t, 0.82, s.Value)
	assert.Equal(t, "Cooks Nigerian food daily", s.Explanation)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.True(t, req.JSON)
	assert.Contains(t, req.User, "@chefada")
	assert.Contains(t, req.User, "- posts about Nigerian food")
	assert.Contains(t, req.User, "1. jollof rice")
}

func TestScoreSalvagesBrokenJSON(t *testing.T) {
	client := &fakeClient{reply: `Sure! {"relevant": true, "score": 0.64, "explanation": "Regular recipe videos`}
	s := newScorer(client).Score(context.Background(), chef, query.Analyze("cooking creators"), nil, Media{})

	assert.Equal(t, types.TierLLM, s.Tier)
	assert.Equal(t, 0.64, s.Value)
	assert.Equal(t, "Regular recipe videos", s.Explanation)
}

func TestScoreFallsBackToHeuristic(t *testing.T) {
	q := query.Analyze("cooking creators")
	want := Heuristic(chef, q, nil)

	for name, client := range map[string]*fakeClient{
		"error":   {err: errors.New("boom")},
		"garbage": {reply: "I cannot rate this profile."},
		"no score": {reply: `{"relevant": true, "explanation": "Great cook"}`},
		"null score": {reply: `{"relevant": true, "score": null, "explanation": "Great cook"}`},
	} {
		t.Run(name, func(t *testing.T) {
			got := newScorer(client).Score(context.Background(), chef, q, nil, Media{})
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Score() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScoreClampsVerdict(t *testing.T) {
	client := &fakeClient{reply: `{"relevant": true, "score": 1.7, "explanation": "very"}`}
	s := newScorer(client).Score(context.Background(), chef, query.Analyze("cooks"), nil, Media{})
	assert.Equal(t, 1.0, s.Value)
}

func TestScoreWithVision(t *testing.T) {
	client := &fakeClient{
		reply:       `{"relevant": true, "score": 0.9, "explanation": "Cooking on camera"}`,
		visionReply: `{"description": "a woman stirring a pot", "score": 0.75}`,
	}
	media := Media{AvatarURL: "https://cdn.test/a.jpg", ThumbnailURL: "https://cdn.test/t.jpg"}

	s := newScorer(client).WithVision(true).Score(context.Background(), chef, query.Analyze("cooking creators"), nil, media)

	require.NotNil(t, s.SubScores.Avatar)
	require.NotNil(t, s.SubScores.Thumbnail)
	assert.Equal(t, 0.75, *s.SubScores.Avatar)
	require.Len(t, client.requests, 3)
	assert.Equal(t, []string{"https://cdn.test/a.jpg"}, client.requests[0].Images)
	assert.Contains(t, client.requests[2].User, "Profile picture: a woman stirring a pot")
}

func TestScoreVisionSkippedWithoutMedia(t *testing.T) {
	client := &fakeClient{reply: `{"relevant": false, "score": 0.1, "explanation": "brand"}`}
	s := newScorer(client).WithVision(true).Score(context.Background(), chef, query.Analyze("cooks"), nil, Media{})

	assert.Nil(t, s.SubScores.Avatar)
	assert.Len(t, client.requests, 1)
}

func candidates(n int) []types.Candidate {
	out := make([]types.Candidate, n)
	for i := range out {
		out[i] = types.Candidate{Identifier: fmt.Sprintf("user%d", i), Source: types.SourceWeb}
	}
	return out
}

func relevances(cands []types.Candidate) []float64 {
	out := make([]float64, len(cands))
	for i, c := range cands {
		out[i] = c.Relevance(-1)
	}
	return out
}

func TestScoreBatchSizeRules(t *testing.T) {
	client := &fakeClient{err: errors.New("should not be called")}
	s := newScorer(client)
	q := query.Analyze("chefs")

	small := s.ScoreBatch(context.Background(), q, candidates(3))
	assert.Equal(t, []float64{0.9, 0.9, 0.9}, relevances(small))

	large := s.ScoreBatch(context.Background(), q, candidates(21))
	for _, v := range relevances(large) {
		assert.Equal(t, 0.7, v)
	}
	assert.Empty(t, client.requests)
}

func TestScoreBatchLLM(t *testing.T) {
	client := &fakeClient{reply: `{"1": 0.8, "2": "0.3", "3": 1.4}`}
	cands := candidates(5)
	pre := 0.95
	cands[4].SearchRelevance = &pre

	got := newScorer(client).ScoreBatch(context.Background(), query.Analyze("chefs"), cands)

	assert.Equal(t, []float64{0.8, 0.3, 1.0, 0.5, 0.95}, relevances(got))
	assert.False(t, cands[0].HasRelevance(), "input is not mutated")
	require.Len(t, client.requests, 1)
	assert.Contains(t, client.requests[0].User, "1. @user0 (source: web_search)")
}

func TestScoreBatchOverflowGetsDefault(t *testing.T) {
	var parts []string
	for i := 1; i <= 18; i++ {
		parts = append(parts, fmt.Sprintf(`"%d": 0.9`, i))
	}
	client := &fakeClient{reply: "{" + strings.Join(parts, ",") + "}"}

	got := relevances(newScorer(client).ScoreBatch(context.Background(), query.Analyze("chefs"), candidates(18)))

	assert.Equal(t, 0.9, got[14])
	assert.Equal(t, 0.5, got[15])
	assert.Equal(t, 0.5, got[17])
	assert.NotContains(t, client.requests[0].User, "@user15")
}

func TestScoreBatchFailuresUseDefault(t *testing.T) {
	q := query.Analyze("chefs")
	for name, s := range map[string]*Scorer{
		"error":     newScorer(&fakeClient{err: errors.New("boom")}),
		"garbage":   newScorer(&fakeClient{reply: "no"}),
		"no client": newScorer(nil),
	} {
		t.Run(name, func(t *testing.T) {
			got := relevances(s.ScoreBatch(context.Background(), q, candidates(6)))
			assert.Equal(t, []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5}, got)
		})
	}
}
