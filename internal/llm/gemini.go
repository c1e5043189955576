package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/charmbracelet/log"
	"github.com/google/generative-ai-go/genai"
	"github.com/lox/creator-discovery/internal/metrics"
	"google.golang.org/api/option"
)

// GeminiConfig holds configuration for the Gemini chat client
type GeminiConfig struct {
	APIKey        string
	Model         string
	RetryAttempts uint
	Logger        *log.Logger
}

func NewGeminiConfig() GeminiConfig {
	return GeminiConfig{
		Model:         "gemini-2.0-flash",
		RetryAttempts: 3,
	}
}

func (c GeminiConfig) WithAPIKey(apiKey string) GeminiConfig {
	c.APIKey = apiKey
	return c
}
func (c GeminiConfig) WithModel(model string) GeminiConfig {
	c.Model = model
	return c
}
func (c GeminiConfig) WithRetryAttempts(attempts uint) GeminiConfig {
	c.RetryAttempts = attempts
	return c
}
func (c GeminiConfig) WithLogger(logger *log.Logger) GeminiConfig {
	c.Logger = logger
	return c
}

func (c GeminiConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("gemini api key is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model name is required")
	}
	if c.RetryAttempts == 0 {
		return fmt.Errorf("retry attempts must be greater than 0")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	return nil
}

// GeminiClient implements Client using the Gemini generative API. Image URLs
// are not accepted.
type GeminiClient struct {
	config GeminiConfig
	client *genai.Client
	logger *log.Logger
}

var _ Client = (*GeminiClient)(nil)

func NewGeminiClient(ctx context.Context, config GeminiConfig) (*GeminiClient, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{
		config: config,
		client: client,
		logger: config.Logger,
	}, nil
}

func (c *GeminiClient) Name() string {
	return "gemini:" + c.config.Model
}

func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	if len(req.Images) > 0 {
		return "", ErrImagesUnsupported
	}

	model := c.client.GenerativeModel(c.config.Model)
	model.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	start := time.Now()
	text, err := retry.DoWithData(
		func() (string, error) {
			resp, err := model.GenerateContent(ctx, genai.Text(req.User))
			if err != nil {
				return "", fmt.Errorf("failed to generate content: %w", err)
			}
			if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
				return "", ErrNoChoices
			}
			var sb strings.Builder
			for _, part := range resp.Candidates[0].Content.Parts {
				if t, ok := part.(genai.Text); ok {
					sb.WriteString(string(t))
				}
			}
			return sb.String(), nil
		},
		retry.Context(ctx),
		retry.Attempts(c.config.RetryAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("Retrying Gemini request", "attempt", n+1, "max_attempts", c.config.RetryAttempts, "error", err)
		}),
	)
	metrics.LLMRequestDuration.WithLabelValues(c.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(c.Name(), "error").Inc()
		return "", fmt.Errorf("failed to get Gemini completion: %w", err)
	}
	metrics.LLMRequestsTotal.WithLabelValues(c.Name(), "ok").Inc()
	c.logger.Debug("Gemini completion finished", "model", c.config.Model, "response_length", len(text), "duration", time.Since(start))
	return text, nil
}

func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
