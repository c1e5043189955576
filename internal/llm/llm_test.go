package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedClient struct {
	responses []string
	errs      []error
	prompts   []string
}

func (s *scriptedClient) Name() string { return "scripted" }

func (s *scriptedClient) Complete(ctx context.Context, req Request) (string, error) {
	i := len(s.prompts)
	s.prompts = append(s.prompts, req.User)
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("script exhausted")
}

type scorePayload struct {
	Score float64 `json:"score"`
}

func validateScore(text string) (scorePayload, error) {
	var p scorePayload
	if err := DecodeJSON(text, &p); err != nil {
		return p, err
	}
	if p.Score < 0 || p.Score > 1 {
		return p, fmt.Errorf("score %v out of range", p.Score)
	}
	return p, nil
}

func TestRunLoopReprompts(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"score": 7}`, `{"score": 0.7}`}}

	got, err := RunLoop(context.Background(), log.New(io.Discard), client, Request{User: "rate it"}, validateScore, 3)
	require.NoError(t, err)
	assert.Equal(t, 0.7, got.Score)
	require.Len(t, client.prompts, 2)
	assert.Equal(t, "rate it", client.prompts[0])
	assert.Contains(t, client.prompts[1], `Previous response:`+"\n"+`{"score": 7}`)
	assert.Contains(t, client.prompts[1], "out of range")
}

func TestRunLoopGivesUp(t *testing.T) {
	client := &scriptedClient{errs: []error{errors.New("boom"), errors.New("boom")}}

	_, err := RunLoop(context.Background(), log.New(io.Discard), client, Request{User: "x"}, validateScore, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestExtractJSON(t *testing.T) {
	tests := map[string]string{
		"```json\n{\"a\":1}\n```":         `{"a":1}`,
		"Sure! Here you go: {\"a\":1} ok": `{"a":1}`,
		`{"a":{"b":2}}`:                   `{"a":{"b":2}}`,
		"no json":                         "no json",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtractJSON(in), in)
	}
}

func TestOpenAIClientComplete(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"score\":0.9}"}}]}`)
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(NewOpenAIConfig().
		WithAPIKey("key").
		WithEndpoint(srv.URL).
		WithModel("test-model").
		WithVisionModel("vision-model").
		WithLogger(log.New(io.Discard)))
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), Request{System: "sys", User: "hello", JSON: true, Images: []string{"https://img/a.jpg"}})
	require.NoError(t, err)
	assert.Equal(t, `{"score":0.9}`, text)

	assert.Equal(t, "vision-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "sys", got.Messages[0].Content)
	require.Len(t, got.Messages[1].MultiContent, 2)
	assert.Equal(t, "https://img/a.jpg", got.Messages[1].MultiContent[1].ImageURL.URL)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, got.ResponseFormat.Type)
}

func TestOpenAIClientDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(NewOpenAIConfig().
		WithAPIKey("key").
		WithEndpoint(srv.URL).
		WithModel("m").
		WithLogger(log.New(io.Discard)))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), Request{User: "hi"})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestConfigValidation(t *testing.T) {
	_, err := NewOpenAIClient(NewOpenAIConfig().WithLogger(log.New(io.Discard)))
	assert.Error(t, err)
	assert.Error(t, NewGeminiConfig().WithAPIKey("k").Validate())
}
