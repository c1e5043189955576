package sources

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/lox/creator-discovery/internal/platform"
	"github.com/lox/creator-discovery/internal/query"
	"github.com/lox/creator-discovery/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserSearcher struct {
	users      []platform.Object
	err        error
	gotCount   int
	gotKeyword string
}

func (s *stubUserSearcher) SearchUsers(ctx context.Context, keyword string, count, cursor int) ([]platform.Object, error) {
	s.gotCount = count
	s.gotKeyword = keyword
	return s.users, s.err
}

type stubWebSearcher struct {
	hits     []types.RawHit
	err      error
	gotQuery string
	gotDepth string
}

func (s *stubWebSearcher) Search(ctx context.Context, q, depth string, domains []string, maxResults int) ([]types.RawHit, error) {
	s.gotQuery = q
	s.gotDepth = depth
	return s.hits, s.err
}

func TestDirectRelevance(t *testing.T) {
	assert.InDelta(t, 0.5, DirectRelevance(false, 0), 1e-9)
	assert.InDelta(t, 0.8, DirectRelevance(true, 0), 1e-9)
	assert.InDelta(t, 0.6, DirectRelevance(false, 100_000), 1e-9)
	assert.InDelta(t, 1.0, DirectRelevance(true, 5_000_000), 1e-9)
}

func TestDirectConnector(t *testing.T) {
	searcher := &stubUserSearcher{users: []platform.Object{
		{"unique_id": "ChefAda", "signature": "Lagos chef", "follower_count": float64(200_000), "custom_verify": "Verified"},
		{"unique_id": "tiktok"},
		{"unique_id": "bo", "follower_count": float64(10)},
	}}
	c := NewDirectConnector(searcher, log.New(io.Discard))

	got := c.Find(context.Background(), query.Analyze("nigerian chefs"), 5)
	assert.Equal(t, 10, searcher.gotCount)
	assert.Equal(t, "nigerian chefs", searcher.gotKeyword)
	require.Len(t, got, 2)
	assert.Equal(t, "chefada", got[0].Identifier)
	assert.Equal(t, types.SourceDirect, got[0].Source)
	require.NotNil(t, got[0].SearchRelevance)
	assert.InDelta(t, 1.0, *got[0].SearchRelevance, 1e-9)
	assert.Equal(t, "Bio: Lagos chef Followers: 200000", got[0].Context)
}

func TestDirectConnectorFailureIsEmpty(t *testing.T) {
	c := NewDirectConnector(&stubUserSearcher{err: errors.New("429")}, log.New(io.Discard))
	assert.Empty(t, c.Find(context.Background(), query.Analyze("x"), 5))
}

func TestWebConnector(t *testing.T) {
	searcher := &stubWebSearcher{hits: []types.RawHit{
		{URL: "https://www.tiktok.com/@one", Content: "@two and @three", Source: types.SourceWeb},
		{URL: "https://heepsy.com/list", Content: "@four", Source: types.SourceWeb},
	}}
	c := NewWebConnector(searcher, nil, 10, log.New(io.Discard))

	got := c.Find(context.Background(), query.Analyze("fashion influencer"), 3)
	assert.Equal(t, "advanced", searcher.gotDepth)
	assert.Contains(t, searcher.gotQuery, "fashion")
	ids := make([]string, 0, len(got))
	for _, c := range got {
		ids = append(ids, c.Identifier)
		assert.Nil(t, c.SearchRelevance)
	}
	assert.Equal(t, []string{"one", "two", "three"}, ids)
}

func TestWebConnectorFailureIsEmpty(t *testing.T) {
	c := NewWebConnector(&stubWebSearcher{err: errors.New("down")}, nil, 10, log.New(io.Discard))
	assert.Empty(t, c.Find(context.Background(), query.Analyze("x"), 5))
}

func TestRewrite(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{
			raw:  "privacy influencers",
			want: "best TikTok data privacy experts OR popular data privacy influencers on TikTok",
		},
		{
			raw:  "security and privacy creators in Kenya",
			want: "best TikTok cybersecurity and data privacy experts OR popular cybersecurity and data privacy influencers on TikTok",
		},
		{
			raw:  "tech influencer from South Africa",
			want: "top tech TikTok influencers from South Africa OR most popular South Africa TikTokers who create tech content",
		},
		{
			raw:  "fashion creators",
			want: "most popular TikTok accounts focused on fashion OR top fashion experts on TikTok",
		},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Rewrite(tt.raw))
		})
	}
}

type fixedConnector struct {
	name  string
	found []types.Candidate
}

func (f fixedConnector) Name() string { return f.name }
func (f fixedConnector) Find(ctx context.Context, q types.SearchQuery, max int) []types.Candidate {
	return f.found
}

func TestGatherMergesInConnectorOrder(t *testing.T) {
	rel := 0.9
	direct := fixedConnector{name: "direct", found: []types.Candidate{
		{Identifier: "alice", Source: types.SourceDirect, SearchRelevance: &rel},
		{Identifier: "bob", Source: types.SourceDirect, SearchRelevance: &rel},
	}}
	web := fixedConnector{name: "web", found: []types.Candidate{
		{Identifier: "ALICE", Source: types.SourceWeb},
		{Identifier: "carol", Source: types.SourceWeb},
	}}

	got := Gather(context.Background(), log.New(io.Discard), query.Analyze("x"), 5, direct, web)
	want := []types.Candidate{
		{Identifier: "alice", Source: types.SourceDirect, SearchRelevance: &rel},
		{Identifier: "bob", Source: types.SourceDirect, SearchRelevance: &rel},
		{Identifier: "carol", Source: types.SourceWeb},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Gather() mismatch (-want +got):\n%s", diff)
	}
}

func TestGatherNoCandidates(t *testing.T) {
	got := Gather(context.Background(), log.New(io.Discard), query.Analyze("x"), 5,
		fixedConnector{name: "a"}, fixedConnector{name: "b"})
	assert.Empty(t, got)
}
