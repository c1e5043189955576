package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/lox/creator-discovery/internal/commands"
	"github.com/lox/creator-discovery/internal/discovery"
	"github.com/lox/creator-discovery/internal/types"
)

type CLI struct {
	commands.CommonConfig
	commands.LLMConfig
	commands.EmbeddingConfig

	Query        string   `arg:"" help:"What kind of creator you're looking for"`
	MaxResults   int      `help:"Maximum number of creators to return" default:"5"`
	MinRelevance float64  `help:"Minimum relevance score (0.0-1.0)" default:"0.5"`
	Criteria     []string `help:"Required criteria, skips LLM criteria extraction"`
	MinFollowers int64    `help:"Minimum follower count (0 = no minimum)" default:"0"`
	MaxFollowers int64    `help:"Maximum follower count (0 = no maximum)" default:"0"`
	Verified     bool     `help:"Only return verified accounts" default:"false"`
	Deep         bool     `help:"Wait for vision-assisted deep analysis before printing" default:"false"`
	NoProgress   bool     `help:"Disable progress bar" default:"false"`
}

func (c *CLI) Run() error {
	ctx := context.Background()

	cfg, logger, err := commands.Setup(c.CommonConfig)
	if err != nil {
		return err
	}

	client, err := commands.SetupLLM(ctx, c.LLMConfig, logger)
	if err != nil {
		return err
	}
	defer commands.CloseLLM(client, logger)

	embedder, err := commands.SetupEmbeddingProvider(ctx, c.EmbeddingConfig, logger)
	if err != nil {
		return err
	}
	defer commands.CloseEmbeddingProvider(embedder, logger)

	pipeline, err := commands.SetupPipeline(cfg, client, embedder, !c.NoProgress, logger)
	if err != nil {
		return err
	}

	req := discovery.Request{
		Query:        c.Query,
		MaxResults:   c.MaxResults,
		MinRelevance: &c.MinRelevance,
		Criteria:     c.Criteria,
	}
	if c.MinFollowers > 0 {
		req.Filters.MinFollowers = &c.MinFollowers
	}
	if c.MaxFollowers > 0 {
		req.Filters.MaxFollowers = &c.MaxFollowers
	}
	if c.Verified {
		req.Filters.Verified = &c.Verified
	}

	resp, err := pipeline.Discoverer.Search(ctx, req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if c.Deep {
		resp.RequestID = "cli"
		for u := range pipeline.Deep.Schedule(ctx, resp) {
			discovery.Apply(&resp, u)
		}
	}

	logger.Info("Search complete", "matches", len(resp.Matches), "candidates", resp.CandidatesFound, "analyzed", resp.ProfilesAnalyzed)
	return printJSON(resp)
}

func printJSON(resp types.SearchResponse) error {
	b, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	fmt.Println(string(b))
	return nil
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("creator-search"),
		kong.Description("Find and rank TikTok creators matching a description"),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
