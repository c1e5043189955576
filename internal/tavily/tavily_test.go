package tavily

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/lox/creator-discovery/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "top tech creators", req.Query)
		assert.Equal(t, "advanced", req.SearchDepth)
		assert.Equal(t, 10, req.MaxResults)
		assert.Equal(t, []string{"tiktok.com"}, req.IncludeDomains)
		fmt.Fprint(w, `{"answer":"Try @answerhandle","results":[{"url":"https://tiktok.com/@a1","title":"A","content":"c"}]}`)
	}))
	defer srv.Close()

	client, err := NewClient(NewConfig().
		WithAPIKey("key").
		WithEndpoint(srv.URL).
		WithLogger(log.New(io.Discard)), srv.Client())
	require.NoError(t, err)

	hits, err := client.Search(context.Background(), "top tech creators", "advanced", []string{"tiktok.com"}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "https://tiktok.com/@a1", hits[0].URL)
	assert.Equal(t, types.SourceWeb, hits[0].Source)
	assert.Equal(t, "Try @answerhandle", hits[1].Content)
}

func TestConfigValidate(t *testing.T) {
	err := NewConfig().WithLogger(log.New(io.Discard)).Validate()
	assert.Error(t, err)
}
