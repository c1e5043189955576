// Package tavily is a client for the Tavily web search API.
package tavily

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/creator-discovery/internal/fetch"
	"github.com/lox/creator-discovery/internal/types"
)

const DefaultEndpoint = "https://api.tavily.com/search"

// Config holds configuration for the Tavily client
type Config struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
	Logger   *log.Logger
}

func NewConfig() Config {
	return Config{
		Endpoint: DefaultEndpoint,
		Timeout:  15 * time.Second,
	}
}

func (c Config) WithAPIKey(apiKey string) Config {
	c.APIKey = apiKey
	return c
}
func (c Config) WithEndpoint(endpoint string) Config {
	c.Endpoint = endpoint
	return c
}
func (c Config) WithTimeout(timeout time.Duration) Config {
	c.Timeout = timeout
	return c
}
func (c Config) WithLogger(logger *log.Logger) Config {
	c.Logger = logger
	return c
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("tavily api key is required")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("tavily endpoint is required")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	return nil
}

// Request is the search payload
type Request struct {
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	IncludeAnswer  bool     `json:"include_answer"`
	IncludeImages  bool     `json:"include_images"`
}

type result struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type response struct {
	Answer  string   `json:"answer"`
	Results []result `json:"results"`
}

// Client searches the web through Tavily
type Client struct {
	config Config
	http   *fetch.Client
}

func NewClient(config Config, httpClient *http.Client) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Client{
		config: config,
		http: fetch.NewClient(httpClient, config.Timeout, map[string]string{
			"Authorization": "Bearer " + config.APIKey,
		}, config.Logger),
	}, nil
}

// Search runs query restricted to domains and returns the hits as RawHits
func (c *Client) Search(ctx context.Context, query, depth string, domains []string, maxResults int) ([]types.RawHit, error) {
	var resp response
	err := c.http.PostJSON(ctx, c.config.Endpoint, Request{
		Query:          query,
		SearchDepth:    depth,
		MaxResults:     maxResults,
		IncludeDomains: domains,
		IncludeAnswer:  true,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("tavily search failed: %w", err)
	}

	hits := make([]types.RawHit, 0, len(resp.Results)+1)
	for _, r := range resp.Results {
		hits = append(hits, types.RawHit{URL: r.URL, Title: r.Title, Content: r.Content, Source: types.SourceWeb})
	}
	// the synthesized answer often names handles the snippets truncate
	if resp.Answer != "" {
		hits = append(hits, types.RawHit{Title: "answer", Content: resp.Answer, Source: types.SourceWeb})
	}
	c.config.Logger.Debug("Web search completed", "query", query, "results", len(resp.Results))
	return hits, nil
}
