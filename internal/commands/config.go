package commands

// CommonConfig contains configuration common to all commands
type CommonConfig struct {
	// ConfigPath is the path to the YAML configuration file
	ConfigPath string `help:"Path to the configuration file" default:"config/config.yaml" env:"CONFIG_PATH" type:"path"`
	// LogLevel overrides logging.level from the configuration file
	LogLevel string `help:"Log level (debug, info, warn, error), overrides the config file"`
}

// LLMConfig contains flag definitions for the chat model used for criteria
// extraction and scoring
type LLMConfig struct {
	// LLMProvider selects the chat model backend
	LLMProvider string `help:"LLM provider to use" default:"openai" enum:"openai,gemini,none" env:"LLM_PROVIDER"`
	// OpenRouterKey is the API key for OpenRouter or another OpenAI-compatible endpoint
	OpenRouterKey string `help:"OpenRouter API key" env:"OPENROUTER_API_KEY"`
	// OpenRouterEndpoint is the OpenAI-compatible base URL
	OpenRouterEndpoint string `help:"OpenAI-compatible endpoint" default:"https://openrouter.ai/api/v1" env:"OPENROUTER_ENDPOINT"`
	// OpenRouterModel is the text model
	OpenRouterModel string `help:"OpenRouter model to use for scoring" default:"openai/gpt-4o-mini" env:"OPENROUTER_MODEL"`
	// VisionModel is used for avatar and thumbnail analysis
	VisionModel string `help:"Model to use for image analysis" default:"openai/gpt-4o" env:"OPENROUTER_VISION_MODEL"`
	// GeminiAPIKey is the API key for Gemini
	GeminiAPIKey string `help:"Google Gemini API key" env:"GEMINI_API_KEY"`
	// GeminiModel is the Gemini chat model
	GeminiModel string `help:"Gemini model to use for scoring" default:"gemini-2.0-flash" env:"GEMINI_MODEL"`
}

// EmbeddingConfig contains common flag definitions for embedding configuration
type EmbeddingConfig struct {
	// EmbeddingProvider is the embedding provider to use, none disables semantic similarity
	EmbeddingProvider string `help:"Embedding provider to use" default:"none" enum:"none,openai,gemini" env:"EMBEDDING_PROVIDER"`
	// EmbeddingKey is the API key for the embedding provider
	EmbeddingKey string `help:"Embedding provider API key" env:"EMBEDDING_API_KEY"`
	// EmbeddingEndpoint is the OpenAI-compatible embedding endpoint
	EmbeddingEndpoint string `help:"OpenAI-compatible embedding endpoint" env:"EMBEDDING_ENDPOINT"`
	// EmbeddingModel is the embedding model name
	EmbeddingModel string `help:"Embedding model name" env:"EMBEDDING_MODEL"`
}
