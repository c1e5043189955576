package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/lox/creator-discovery/internal/config"
	"github.com/lox/creator-discovery/internal/discovery"
	"github.com/lox/creator-discovery/internal/embeddings"
	"github.com/lox/creator-discovery/internal/enrich"
	"github.com/lox/creator-discovery/internal/llm"
	"github.com/lox/creator-discovery/internal/platform"
	"github.com/lox/creator-discovery/internal/query"
	"github.com/lox/creator-discovery/internal/scoring"
	"github.com/lox/creator-discovery/internal/sources"
	"github.com/lox/creator-discovery/internal/tavily"
	"golang.org/x/exp/slices"
)

// Setup loads the configuration file and creates a logger at the configured
// level. A non-empty --log-level wins over the file.
func Setup(common CommonConfig) (config.Config, *log.Logger, error) {
	cfg, err := config.Load(common.ConfigPath)
	if err != nil {
		return config.Config{}, nil, err
	}

	levelName := cfg.Logging.Level
	if common.LogLevel != "" {
		levelName = common.LogLevel
	}
	level, err := log.ParseLevel(levelName)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("invalid log level: %w", err)
	}

	logger := log.New(os.Stderr)
	logger.SetLevel(level)
	return cfg, logger, nil
}

// SetupLLM creates the chat client. It returns a nil client when the
// provider is none, which makes every LLM step use its heuristic fallback.
func SetupLLM(ctx context.Context, config LLMConfig, logger *log.Logger) (llm.Client, error) {
	switch config.LLMProvider {
	case "none":
		logger.Info("LLM disabled, using heuristic scoring only")
		return nil, nil

	case "gemini":
		client, err := llm.NewGeminiClient(ctx, llm.NewGeminiConfig().
			WithAPIKey(config.GeminiAPIKey).
			WithModel(config.GeminiModel).
			WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		logger.Info("Using Gemini for scoring", "model", config.GeminiModel)
		return client, nil

	case "openai", "":
		client, err := llm.NewOpenAIClient(llm.NewOpenAIConfig().
			WithAPIKey(config.OpenRouterKey).
			WithEndpoint(config.OpenRouterEndpoint).
			WithModel(config.OpenRouterModel).
			WithVisionModel(config.VisionModel).
			WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI-compatible client: %w", err)
		}
		logger.Info("Using OpenAI-compatible API for scoring", "model", config.OpenRouterModel, "endpoint", config.OpenRouterEndpoint)
		return client, nil

	default:
		return nil, fmt.Errorf("unknown llm provider: %s", config.LLMProvider)
	}
}

// CloseLLM closes the client if it holds resources
func CloseLLM(client llm.Client, logger *log.Logger) {
	if closer, ok := client.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("Failed to close LLM client", "error", err)
		}
	}
}

// Pipeline is a fully wired discovery pipeline and the parts the servers
// use directly
type Pipeline struct {
	Discoverer *discovery.Discoverer
	Resolver   *enrich.Resolver
	Deep       *discovery.DeepAnalyzer
}

// SetupPipeline wires vendors, connectors, the enrichment chain and scoring
// from cfg. client and embedder may be nil.
func SetupPipeline(cfg config.Config, client llm.Client, embedder embeddings.EmbeddingProvider, progress bool, logger *log.Logger) (*Pipeline, error) {
	httpClient := &http.Client{}

	primary, err := platform.NewClient(platform.NewPrimaryConfig().
		WithAPIKey(cfg.Platform.Primary.APIKey).
		WithBaseURL(cfg.Platform.Primary.BaseURL).
		WithTimeout(cfg.Platform.Primary.Timeout()).
		WithLogger(logger), httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create primary platform client: %w", err)
	}

	registry := enrich.NewRegistry()
	registry.Register(enrich.NewUserInfoProvider(primary))
	registry.Register(enrich.NewWebUserProvider(primary))
	registry.Register(enrich.NewSearchMatchProvider(primary))
	registry.RegisterPosts(enrich.NewUserPostsSource(primary))
	registry.RegisterPosts(enrich.NewSearchPostsSource(primary))

	if cfg.Platform.Alternate.APIKey != "" {
		alternate, err := platform.NewClient(platform.NewAlternateConfig().
			WithAPIKey(cfg.Platform.Alternate.APIKey).
			WithBaseURL(cfg.Platform.Alternate.BaseURL).
			WithTimeout(cfg.Platform.Alternate.Timeout()).
			WithLogger(logger), httpClient)
		if err != nil {
			return nil, fmt.Errorf("failed to create alternate platform client: %w", err)
		}
		registry.Register(enrich.NewAltUserInfoProvider(alternate))
		registry.RegisterPosts(enrich.NewAltPostsSource(alternate))
	} else {
		logger.Warn("Alternate platform vendor not configured, its providers are skipped")
	}

	chain, err := registry.Chain(available(cfg.Enrichment.ChainSpecs(), registry.List(), logger))
	if err != nil {
		return nil, fmt.Errorf("failed to build enrichment chain: %w", err)
	}
	posts, err := registry.PostChain(available(cfg.Enrichment.PostSpecs(), registry.ListPosts(), logger))
	if err != nil {
		return nil, fmt.Errorf("failed to build posts chain: %w", err)
	}

	resolver, err := enrich.NewResolver(enrich.NewConfig().
		WithChain(chain...).
		WithPosts(posts...).
		WithBaseDelay(cfg.Enrichment.BaseDelay()).
		WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}

	connectors := []sources.Connector{sources.NewDirectConnector(primary, logger)}
	if cfg.WebSearch.APIKey != "" {
		web, err := tavily.NewClient(tavily.NewConfig().
			WithAPIKey(cfg.WebSearch.APIKey).
			WithEndpoint(cfg.WebSearch.Endpoint).
			WithTimeout(cfg.WebSearch.Timeout()).
			WithLogger(logger), httpClient)
		if err != nil {
			return nil, fmt.Errorf("failed to create web search client: %w", err)
		}
		connectors = append([]sources.Connector{sources.NewWebConnector(web, cfg.WebSearch.Domains, cfg.WebSearch.MaxResults, logger)}, connectors...)
	} else {
		logger.Warn("Web search not configured, using platform search only")
	}

	var similarity *embeddings.SimilarityIndex
	if embedder != nil {
		similarity = embeddings.NewSimilarityIndex(embedder, logger)
	}

	scorer := scoring.NewScorer(client, logger)
	discoveryConfig := cfg.Discovery()
	discoveryConfig.Progress = progress

	discoverer, err := discovery.NewDiscoverer(
		logger,
		query.NewCriteriaExtractor(client, logger),
		resolver,
		scorer,
		similarity,
		discoveryConfig,
		connectors...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create discoverer: %w", err)
	}

	return &Pipeline{
		Discoverer: discoverer,
		Resolver:   resolver,
		Deep:       discovery.NewDeepAnalyzer(scorer, logger, cfg.Search.DeepAnalysisTimeout()),
	}, nil
}

// available drops specs naming providers that were not registered
func available(specs []enrich.LinkSpec, registered []string, logger *log.Logger) []enrich.LinkSpec {
	out := make([]enrich.LinkSpec, 0, len(specs))
	for _, s := range specs {
		if !slices.Contains(registered, s.Name) {
			logger.Warn("Skipping unavailable enrichment provider", "provider", s.Name)
			continue
		}
		out = append(out, s)
	}
	return out
}
