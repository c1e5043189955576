package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/lox/creator-discovery/internal/commands"
	"github.com/lox/creator-discovery/internal/metrics"
	"github.com/lox/creator-discovery/internal/server"
)

type CLI struct {
	commands.CommonConfig
	commands.LLMConfig
	commands.EmbeddingConfig

	Port int `help:"Port to listen on, overrides http.port" default:"0"`
}

func (c *CLI) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	metrics.Register()

	port := cfg.HTTP.Port
	if c.Port > 0 {
		port = c.Port
	}

	srv := server.New(
		pipeline.Discoverer,
		pipeline.Resolver,
		pipeline.Deep,
		server.NewResultStore(cfg.Search.ResultTTL()),
		logger,
		server.Options{
			AllowOrigins:    cfg.HTTP.AllowOrigins,
			ReadTimeout:     time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
			WriteTimeout:    time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
			ShutdownTimeout: time.Duration(cfg.HTTP.ShutdownSec) * time.Second,
		},
	)
	return srv.Run(ctx, fmt.Sprintf(":%d", port))
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("creator-server"),
		kong.Description("HTTP API for TikTok creator discovery"),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
