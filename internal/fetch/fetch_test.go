package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "jane", r.URL.Query().Get("unique_id"))
		fmt.Fprint(w, `{"user":{"nickname":"Jane"}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), time.Second, map[string]string{"X-RapidAPI-Key": "secret"}, log.New(io.Discard))

	var out map[string]any
	err := c.GetJSON(context.Background(), srv.URL+"/user-info", url.Values{"unique_id": {"jane"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "Jane", out["user"].(map[string]any)["nickname"])
}

func TestGetJSONKeepsLargeIntegers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"user":{"uid":6812345678901234567,"follower_count":1200}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), time.Second, nil, log.New(io.Discard))

	var out map[string]any
	require.NoError(t, c.GetJSON(context.Background(), srv.URL+"/user-info", nil, &out))
	user := out["user"].(map[string]any)
	assert.Equal(t, json.Number("6812345678901234567"), user["uid"])
	assert.Equal(t, json.Number("1200"), user["follower_count"])
}

func TestGetJSONErrors(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		rateLimited bool
		timeout     bool
		malformed   bool
	}{
		{
			name:        "rate limited",
			handler:     func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) },
			rateLimited: true,
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
		},
		{
			name:      "malformed",
			handler:   func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, "<html>") },
			malformed: true,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(time.Second):
				}
			},
			timeout: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(srv.Client(), 50*time.Millisecond, nil, log.New(io.Discard))
			var out map[string]any
			err := c.GetJSON(context.Background(), srv.URL, nil, &out)
			require.Error(t, err)
			assert.Equal(t, tt.rateLimited, IsRateLimited(err))
			assert.Equal(t, tt.timeout, IsTimeout(err))
			assert.Equal(t, tt.malformed, errors.Is(err, ErrMalformed))
			assert.Equal(t, tt.rateLimited || tt.timeout, IsTransient(err))
		})
	}
}

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"query":"hello"}`, string(body))
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), time.Second, nil, log.New(io.Discard))
	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, c.PostJSON(context.Background(), srv.URL, map[string]string{"query": "hello"}, &out))
	assert.True(t, out.OK)
}
