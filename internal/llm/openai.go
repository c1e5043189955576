package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/charmbracelet/log"
	"github.com/lox/creator-discovery/internal/metrics"
	openai "github.com/sashabaranov/go-openai"
)

const OpenRouterEndpoint = "https://openrouter.ai/api/v1"

// OpenAIConfig holds configuration for an OpenAI-compatible chat endpoint
// (OpenAI, OpenRouter, LMStudio, etc)
type OpenAIConfig struct {
	APIKey        string
	Endpoint      string
	Model         string
	VisionModel   string
	Timeout       time.Duration
	RetryAttempts uint
	Logger        *log.Logger
}

func NewOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		Endpoint:      OpenRouterEndpoint,
		Timeout:       30 * time.Second,
		RetryAttempts: 3,
	}
}

func (c OpenAIConfig) WithAPIKey(apiKey string) OpenAIConfig {
	c.APIKey = apiKey
	return c
}
func (c OpenAIConfig) WithEndpoint(endpoint string) OpenAIConfig {
	c.Endpoint = endpoint
	return c
}
func (c OpenAIConfig) WithModel(model string) OpenAIConfig {
	c.Model = model
	return c
}
func (c OpenAIConfig) WithVisionModel(model string) OpenAIConfig {
	c.VisionModel = model
	return c
}
func (c OpenAIConfig) WithTimeout(timeout time.Duration) OpenAIConfig {
	c.Timeout = timeout
	return c
}
func (c OpenAIConfig) WithRetryAttempts(attempts uint) OpenAIConfig {
	c.RetryAttempts = attempts
	return c
}
func (c OpenAIConfig) WithLogger(logger *log.Logger) OpenAIConfig {
	c.Logger = logger
	return c
}

func (c OpenAIConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("openai api key is required")
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

// OpenAIClient implements Client using the go-openai chat completion API
type OpenAIClient struct {
	config OpenAIConfig
	client *openai.Client
	logger *log.Logger
}

var _ Client = (*OpenAIClient)(nil)

func NewOpenAIClient(config OpenAIConfig) (*OpenAIClient, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg := openai.DefaultConfig(config.APIKey)
	cfg.BaseURL = config.Endpoint
	if config.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: config.Timeout}
	}
	return &OpenAIClient{
		config: config,
		client: openai.NewClientWithConfig(cfg),
		logger: config.Logger,
	}, nil
}

func (c *OpenAIClient) Name() string {
	return "openai:" + c.config.Model
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	model := c.config.Model
	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.User}
	if len(req.Images) > 0 {
		if c.config.VisionModel != "" {
			model = c.config.VisionModel
		}
		parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: req.User}}
		for _, u := range req.Images {
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: u, Detail: openai.ImageURLDetailLow},
			})
		}
		user = openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts}
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, user)

	request := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSON {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	text, err := retry.DoWithData(
		func() (string, error) {
			resp, err := c.client.CreateChatCompletion(ctx, request)
			if err != nil {
				if !isRetryableAPIError(err) {
					return "", retry.Unrecoverable(err)
				}
				return "", err
			}
			if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
				return "", ErrNoChoices
			}
			return resp.Choices[0].Message.Content, nil
		},
		retry.Context(ctx),
		retry.Attempts(c.config.RetryAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("Retrying chat completion", "attempt", n+1, "max_attempts", c.config.RetryAttempts, "model", model, "error", err)
		}),
	)
	metrics.LLMRequestDuration.WithLabelValues(c.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(c.Name(), "error").Inc()
		return "", fmt.Errorf("failed to get chat completion: %w", err)
	}
	metrics.LLMRequestsTotal.WithLabelValues(c.Name(), "ok").Inc()
	c.logger.Debug("Chat completion finished", "model", model, "response_length", len(text), "duration", time.Since(start))
	return text, nil
}

func isRetryableAPIError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	// network errors and timeouts
	return true
}
