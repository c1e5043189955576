package mcp

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/lox/creator-discovery/internal/discovery"
	"github.com/lox/creator-discovery/internal/types"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSearcher struct {
	got  discovery.Request
	resp types.SearchResponse
}

func (r *recordingSearcher) Search(_ context.Context, req discovery.Request) (types.SearchResponse, error) {
	r.got = req
	return r.resp, nil
}

func call(t *testing.T, s *Server, args map[string]any) (*mcp.CallToolResult, error) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Name = "search_creators"
	req.Params.Arguments = args
	return s.searchCreatorsHandler(context.Background(), req)
}

func TestSearchCreatorsArguments(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		wantMax int
		wantMin float64
		wantErr bool
	}{
		{name: "defaults", args: map[string]any{"query": "chefs"}, wantMax: 5, wantMin: 0.5},
		{name: "numbers", args: map[string]any{"query": "chefs", "max_results": float64(3), "min_relevance": 0.2}, wantMax: 3, wantMin: 0.2},
		{name: "strings", args: map[string]any{"query": "chefs", "max_results": "7", "min_relevance": "0.7"}, wantMax: 7, wantMin: 0.7},
		{name: "bad max", args: map[string]any{"query": "chefs", "max_results": "many"}, wantErr: true},
		{name: "bad relevance", args: map[string]any{"query": "chefs", "min_relevance": true}, wantErr: true},
		{name: "missing query", args: map[string]any{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &recordingSearcher{}
			s := New(searcher, log.New(&bytes.Buffer{}))

			_, err := call(t, s, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMax, searcher.got.MaxResults)
			require.NotNil(t, searcher.got.MinRelevance)
			assert.InDelta(t, tt.wantMin, *searcher.got.MinRelevance, 1e-9)
		})
	}
}

func TestFormatResponse(t *testing.T) {
	resp := types.SearchResponse{
		Query:          "privacy creators",
		SearchStrategy: "niche",
		Matches: []types.MatchResult{
			{
				Profile:        types.Profile{Identifier: "cyberjane", DisplayName: "Jane Doe", Followers: 12000, Verified: true, Bio: "Ethical hacker\nCISSP"},
				RelevanceScore: types.RelevanceScore{Value: 0.91, Explanation: "Security researcher", DiscoveryMethod: "TikTok Search"},
			},
			{
				Profile:        types.Placeholder("ghostuser"),
				RelevanceScore: types.RelevanceScore{Value: 0.8, Explanation: "Found via web search for 'privacy creators' (Limited Data)"},
			},
		},
	}

	out := formatResponse(resp)
	assert.Contains(t, out, `Creators for "privacy creators" (strategy: niche)`)
	assert.Contains(t, out, "1. @cyberjane (Jane Doe) - relevance 0.91")
	assert.Contains(t, out, "Bio: Ethical hacker CISSP")
	assert.Contains(t, out, "Found via: TikTok Search")
	assert.Contains(t, out, "2. @ghostuser - relevance 0.80")
	assert.Contains(t, out, "Profile details unavailable")
}

func TestFormatEmptyResponse(t *testing.T) {
	out := formatResponse(types.SearchResponse{Query: "nothing", CandidatesFound: 0})
	assert.Equal(t, "No creators found for \"nothing\" (0 candidates checked)\n", out)
}
