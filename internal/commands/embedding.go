package commands

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/lox/creator-discovery/internal/embeddings"
)

// SetupEmbeddingProvider initializes and returns an embedding provider based on
// the config. It returns nil when embeddings are disabled.
func SetupEmbeddingProvider(ctx context.Context, config EmbeddingConfig, logger *log.Logger) (embeddings.EmbeddingProvider, error) {
	var embeddingProvider embeddings.EmbeddingProvider
	var err error

	switch config.EmbeddingProvider {
	case "", "none":
		logger.Debug("Semantic similarity disabled")
		return nil, nil

	case "gemini":
		if config.EmbeddingKey == "" {
			return nil, fmt.Errorf("embedding api key is required when using Gemini embeddings")
		}

		geminiConfig := embeddings.NewGeminiConfig().
			WithAPIKey(config.EmbeddingKey).
			WithLogger(logger)

		if config.EmbeddingModel != "" {
			geminiConfig = geminiConfig.WithModelName(config.EmbeddingModel)
		}

		embeddingProvider, err = embeddings.NewGeminiProfileEmbedder(ctx, geminiConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini embedding provider: %w", err)
		}

		logger.Info("Using Gemini API for embeddings", "model", geminiConfig.ModelName)

	case "openai":
		if config.EmbeddingKey == "" {
			return nil, fmt.Errorf("embedding api key is required when using OpenAI embeddings")
		}
		openaiConfig := embeddings.NewOpenAIConfig().
			WithAPIKey(config.EmbeddingKey).
			WithLogger(logger)
		if config.EmbeddingModel != "" {
			openaiConfig = openaiConfig.WithModelName(config.EmbeddingModel)
		}
		if config.EmbeddingEndpoint != "" {
			openaiConfig = openaiConfig.WithEndpoint(config.EmbeddingEndpoint)
		}
		embeddingProvider, err = embeddings.NewOpenAIEmbeddingProvider(openaiConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI embedding provider: %w", err)
		}
		logger.Info("Using OpenAI-compatible API for embeddings", "model", openaiConfig.ModelName, "endpoint", openaiConfig.Endpoint)

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", config.EmbeddingProvider)
	}

	return embeddingProvider, nil
}

// CloseEmbeddingProvider attempts to close the embedding provider if it implements Close
func CloseEmbeddingProvider(provider embeddings.EmbeddingProvider, logger *log.Logger) {
	if closer, ok := provider.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("Failed to close embedding provider", "error", err)
		}
	}
}
