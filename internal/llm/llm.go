// Package llm wraps the chat-completion providers used for criteria
// extraction and relevance scoring.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoChoices is returned when a provider responds without any content
	ErrNoChoices = errors.New("no choices in response")
	// ErrImagesUnsupported is returned by clients that cannot take image URLs
	ErrImagesUnsupported = errors.New("image input not supported by this client")
)

// Request is one completion call
type Request struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	// JSON asks the provider for a JSON object response
	JSON bool
	// Images are image URLs attached to the user message
	Images []string
}

// Client completes a single prompt
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

// ExtractJSON returns the outermost JSON object in text, tolerating code fences
// and chatter around it
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return strings.TrimSpace(text)
	}
	return text[start : end+1]
}

// DecodeJSON unmarshals the JSON object embedded in text into out
func DecodeJSON(text string, out any) error {
	if err := json.Unmarshal([]byte(ExtractJSON(text)), out); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}
