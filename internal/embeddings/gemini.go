package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/charmbracelet/log"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// profileTitle labels every embedded profile document
const profileTitle = "TikTok creator profile"

type GeminiConfig struct {
	APIKey        string
	ModelName     string
	RetryAttempts uint
	Logger        *log.Logger
}

func NewGeminiConfig() GeminiConfig {
	return GeminiConfig{
		ModelName:     "text-embedding-004",
		RetryAttempts: 3,
	}
}

func (c GeminiConfig) WithAPIKey(apiKey string) GeminiConfig {
	c.APIKey = apiKey
	return c
}

func (c GeminiConfig) WithModelName(modelName string) GeminiConfig {
	c.ModelName = modelName
	return c
}

func (c GeminiConfig) WithLogger(logger *log.Logger) GeminiConfig {
	c.Logger = logger
	return c
}

func (c GeminiConfig) Validate() error {
	switch {
	case c.APIKey == "":
		return fmt.Errorf("gemini api key is required")
	case c.ModelName == "":
		return fmt.Errorf("model name is required")
	case c.RetryAttempts == 0:
		return fmt.Errorf("retry attempts must be greater than 0")
	case c.Logger == nil:
		return fmt.Errorf("logger is required")
	}
	return nil
}

// GeminiProfileEmbedder embeds creator profiles as retrieval documents and
// search queries as retrieval queries, so the two sides land in the space
// Gemini tunes for search.
type GeminiProfileEmbedder struct {
	config   GeminiConfig
	client   *genai.Client
	profiles *genai.EmbeddingModel
	queries  *genai.EmbeddingModel
	logger   *log.Logger
}

func NewGeminiProfileEmbedder(ctx context.Context, config GeminiConfig) (*GeminiProfileEmbedder, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	profiles := client.EmbeddingModel(config.ModelName)
	profiles.TaskType = genai.TaskTypeRetrievalDocument
	queries := client.EmbeddingModel(config.ModelName)
	queries.TaskType = genai.TaskTypeRetrievalQuery

	return &GeminiProfileEmbedder{
		config:   config,
		client:   client,
		profiles: profiles,
		queries:  queries,
		logger:   config.Logger,
	}, nil
}

// GenerateEmbedding embeds one profile document (see ProfileText)
func (g *GeminiProfileEmbedder) GenerateEmbedding(ctx context.Context, profileText string) ([]float32, error) {
	return g.embed(ctx, "profile", profileText, func(ctx context.Context) (*genai.EmbedContentResponse, error) {
		return g.profiles.EmbedContentWithTitle(ctx, profileTitle, genai.Text(truncate(profileText)))
	})
}

// GenerateQueryEmbedding embeds the raw search query
func (g *GeminiProfileEmbedder) GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error) {
	return g.embed(ctx, "query", query, func(ctx context.Context) (*genai.EmbedContentResponse, error) {
		return g.queries.EmbedContent(ctx, genai.Text(truncate(query)))
	})
}

func (g *GeminiProfileEmbedder) embed(ctx context.Context, kind, text string, call func(context.Context) (*genai.EmbedContentResponse, error)) ([]float32, error) {
	start := time.Now()
	values, err := retry.DoWithData(
		func() ([]float32, error) {
			res, err := call(ctx)
			if err != nil {
				return nil, err
			}
			if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
				return nil, fmt.Errorf("gemini returned no %s embedding", kind)
			}
			return res.Embedding.Values, nil
		},
		retry.Context(ctx),
		retry.Attempts(g.config.RetryAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			g.logger.Warn("Retrying Gemini embedding", "kind", kind, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %s: %w", kind, err)
	}
	g.logger.Debug("Embedded with Gemini", "kind", kind, "chars", len(text), "dimensions", len(values), "duration", time.Since(start))
	return values, nil
}

func (g *GeminiProfileEmbedder) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiProfileEmbedder) GetEmbeddingModelName() string {
	return g.config.ModelName
}
