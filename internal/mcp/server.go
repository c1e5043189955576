package mcp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lox/creator-discovery/internal/discovery"
	"github.com/lox/creator-discovery/internal/types"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Searcher runs the discovery pipeline
type Searcher interface {
	Search(ctx context.Context, req discovery.Request) (types.SearchResponse, error)
}

type Server struct {
	searcher Searcher
	logger   *log.Logger
}

func New(searcher Searcher, logger *log.Logger) *Server {
	return &Server{
		searcher: searcher,
		logger:   logger,
	}
}

func (s *Server) Run() error {
	mcpServer := server.NewMCPServer(
		"Creator Discovery",
		"1.0.0",
	)

	mcpServer.AddTool(mcp.NewTool("search_creators",
		mcp.WithDescription("Find TikTok creators matching a free-text description, ranked by relevance"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("What kind of creator you're looking for, e.g. 'cybersecurity creators in Berlin'"),
		),
		mcp.WithString("max_results",
			mcp.Description("Maximum number of creators to return (default: 5)"),
		),
		mcp.WithString("min_relevance",
			mcp.Description("Minimum relevance score between 0 and 1 (default: 0.5)"),
		),
	), s.searchCreatorsHandler)

	if err := server.ServeStdio(mcpServer); err != nil {
		return err
	}

	return nil
}

func (s *Server) searchCreatorsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, ok := request.Params.Arguments["query"].(string)
	if !ok {
		return nil, errors.New("query must be a string")
	}

	maxResults := 5
	if val, ok := request.Params.Arguments["max_results"]; ok {
		switch v := val.(type) {
		case int:
			maxResults = v
		case float64:
			maxResults = int(v)
		case string:
			var err error
			maxResults, err = strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("max_results must be a valid integer: %w", err)
			}
		default:
			return nil, errors.New("max_results must be a number or string")
		}
	}

	minRelevance := 0.5
	if val, ok := request.Params.Arguments["min_relevance"]; ok {
		switch v := val.(type) {
		case float64:
			minRelevance = v
		case int:
			minRelevance = float64(v)
		case string:
			var err error
			minRelevance, err = strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("min_relevance must be a valid number: %w", err)
			}
		default:
			return nil, errors.New("min_relevance must be a number or string")
		}
	}

	resp, err := s.searcher.Search(ctx, discovery.Request{
		Query:        query,
		MaxResults:   maxResults,
		MinRelevance: &minRelevance,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search creators: %w", err)
	}
	s.logger.Debug("Search completed", "query", query, "matches", len(resp.Matches))

	return mcp.NewToolResultText(formatResponse(resp)), nil
}

func formatResponse(resp types.SearchResponse) string {
	var sb strings.Builder
	if len(resp.Matches) == 0 {
		fmt.Fprintf(&sb, "No creators found for %q (%d candidates checked)\n", resp.Query, resp.CandidatesFound)
		return sb.String()
	}

	fmt.Fprintf(&sb, "Creators for %q (strategy: %s)\n\n", resp.Query, resp.SearchStrategy)
	for i, m := range resp.Matches {
		fmt.Fprintf(&sb, "%d. @%s", i+1, m.Identifier)
		if m.DisplayName != "" && m.DisplayName != m.Identifier {
			fmt.Fprintf(&sb, " (%s)", m.DisplayName)
		}
		fmt.Fprintf(&sb, " - relevance %.2f\n", m.Value)
		if m.Degraded {
			sb.WriteString("  Profile details unavailable\n")
		} else {
			fmt.Fprintf(&sb, "  Followers: %d\n", m.Followers)
			if m.Verified {
				sb.WriteString("  Verified\n")
			}
			if m.Bio != "" {
				fmt.Fprintf(&sb, "  Bio: %s\n", strings.ReplaceAll(m.Bio, "\n", " "))
			}
		}
		if m.Explanation != "" {
			fmt.Fprintf(&sb, "  Why: %s\n", m.Explanation)
		}
		if m.DiscoveryMethod != "" {
			fmt.Fprintf(&sb, "  Found via: %s\n", m.DiscoveryMethod)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
