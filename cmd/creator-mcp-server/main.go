package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/lox/creator-discovery/internal/commands"
	"github.com/lox/creator-discovery/internal/mcp"
)

type CLI struct {
	commands.CommonConfig
	commands.LLMConfig
	commands.EmbeddingConfig
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

	pipeline, err := commands.SetupPipeline(cfg, client, embedder, false, logger)
	if err != nil {
		return err
	}

	return mcp.New(pipeline.Discoverer, logger).Run()
}

func main() {
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("creator-mcp-server"),
		kong.Description("MCP server exposing TikTok creator search over stdio"),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
