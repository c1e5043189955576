// Package config loads the pipeline configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/lox/creator-discovery/internal/discovery"
	"github.com/lox/creator-discovery/internal/enrich"
	"github.com/lox/creator-discovery/internal/platform"
	"github.com/lox/creator-discovery/internal/tavily"
	"gopkg.in/yaml.v3"
)

// Config holds the creator discovery pipeline configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Search     SearchConfig     `yaml:"search"`
	WebSearch  WebSearchConfig  `yaml:"web_search"`
	Platform   PlatformConfig   `yaml:"platform"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	AllowOrigins    []string `yaml:"allow_origins"`
}

// SearchConfig holds ranking thresholds and pipeline limits.
type SearchConfig struct {
	MinRelevance           float64 `yaml:"min_relevance"`
	RelaxedRelevance       float64 `yaml:"relaxed_relevance"`
	MinStrictResults       int     `yaml:"min_strict_results"`
	MaxEnrich              int     `yaml:"max_enrich"`
	EnrichMultiplier       int     `yaml:"enrich_multiplier"`
	QualityMinFollowers    int64   `yaml:"quality_min_followers"`
	QualityBypassRelevance float64 `yaml:"quality_bypass_relevance"`
	DegradedRelevance      float64 `yaml:"degraded_relevance"`
	VideosPerMatch         int     `yaml:"videos_per_match"`
	RequestTimeoutSec      int     `yaml:"request_timeout_sec"`
	DeepAnalysisTimeoutSec int     `yaml:"deep_analysis_timeout_sec"`
	ResultTTLMin           int     `yaml:"result_ttl_min"`
}

// WebSearchConfig holds the web search provider settings. An empty API key
// disables the web connector.
type WebSearchConfig struct {
	APIKey     string   `yaml:"api_key"`
	Endpoint   string   `yaml:"endpoint"`
	Domains    []string `yaml:"domains"`
	MaxResults int      `yaml:"max_results"`
	TimeoutSec int      `yaml:"timeout_sec"`
}

// PlatformConfig holds both platform vendors.
type PlatformConfig struct {
	Primary   VendorConfig `yaml:"primary"`
	Alternate VendorConfig `yaml:"alternate"`
}

// VendorConfig holds one platform vendor's settings.
type VendorConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// EnrichmentConfig orders the enrichment providers.
type EnrichmentConfig struct {
	BaseDelayMs int        `yaml:"base_delay_ms"`
	Chain       []LinkSpec `yaml:"chain"`
	Posts       []LinkSpec `yaml:"posts"`
}

// LinkSpec names a provider and its attempt budget.
type LinkSpec struct {
	Provider string `yaml:"provider"`
	Attempts uint   `yaml:"attempts"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Load reads configuration from a YAML file, expanding ${VAR} and
// ${VAR:-default} references from the environment.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates configuration data.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Default returns the defaulted configuration with no file.
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if len(c.HTTP.AllowOrigins) == 0 {
		c.HTTP.AllowOrigins = []string{"*"}
	}

	d := discovery.DefaultConfig()
	s := &c.Search
	if s.MinRelevance <= 0 {
		s.MinRelevance = d.Thresholds.MinRelevance
	}
	if s.RelaxedRelevance <= 0 {
		s.RelaxedRelevance = d.Thresholds.RelaxedRelevance
	}
	if s.MinStrictResults <= 0 {
		s.MinStrictResults = d.Thresholds.MinStrictResults
	}
	if s.MaxEnrich <= 0 {
		s.MaxEnrich = d.MaxEnrich
	}
	if s.EnrichMultiplier <= 0 {
		s.EnrichMultiplier = d.EnrichMultiplier
	}
	if s.QualityMinFollowers <= 0 {
		s.QualityMinFollowers = d.QualityMinFollowers
	}
	if s.QualityBypassRelevance <= 0 {
		s.QualityBypassRelevance = d.QualityBypassRelevance
	}
	if s.DegradedRelevance <= 0 {
		s.DegradedRelevance = d.DegradedRelevance
	}
	if s.VideosPerMatch <= 0 {
		s.VideosPerMatch = d.VideosPerMatch
	}
	if s.RequestTimeoutSec <= 0 {
		s.RequestTimeoutSec = int(d.RequestTimeout / time.Second)
	}
	if s.DeepAnalysisTimeoutSec <= 0 {
		s.DeepAnalysisTimeoutSec = 300
	}
	if s.ResultTTLMin <= 0 {
		s.ResultTTLMin = 30
	}

	if c.WebSearch.Endpoint == "" {
		c.WebSearch.Endpoint = tavily.DefaultEndpoint
	}
	if c.WebSearch.MaxResults <= 0 {
		c.WebSearch.MaxResults = 10
	}
	if c.WebSearch.TimeoutSec <= 0 {
		c.WebSearch.TimeoutSec = 15
	}

	if c.Platform.Primary.BaseURL == "" {
		c.Platform.Primary.BaseURL = platform.PrimaryBaseURL
	}
	if c.Platform.Primary.TimeoutSec <= 0 {
		c.Platform.Primary.TimeoutSec = 15
	}
	if c.Platform.Alternate.BaseURL == "" {
		c.Platform.Alternate.BaseURL = platform.AlternateBaseURL
	}
	if c.Platform.Alternate.TimeoutSec <= 0 {
		c.Platform.Alternate.TimeoutSec = 10
	}

	if c.Enrichment.BaseDelayMs <= 0 {
		c.Enrichment.BaseDelayMs = 2000
	}
	if len(c.Enrichment.Chain) == 0 {
		c.Enrichment.Chain = []LinkSpec{
			{Provider: "user-info", Attempts: 3},
			{Provider: "web-user", Attempts: 3},
			{Provider: "search-match", Attempts: 3},
			{Provider: "alt-user-info", Attempts: 2},
		}
	}
	if len(c.Enrichment.Posts) == 0 {
		c.Enrichment.Posts = []LinkSpec{
			{Provider: "user-posts", Attempts: 2},
			{Provider: "search-posts", Attempts: 1},
			{Provider: "alt-user-posts", Attempts: 1},
		}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Platform.Primary.APIKey == "" {
		return fmt.Errorf("platform.primary.api_key is required")
	}
	for i, l := range c.Enrichment.Chain {
		if l.Provider == "" {
			return fmt.Errorf("enrichment.chain[%d].provider is required", i)
		}
		if l.Attempts == 0 {
			return fmt.Errorf("enrichment.chain[%d].attempts must be greater than 0", i)
		}
	}
	if err := c.Discovery().Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}

// Discovery converts the search section into pipeline settings.
func (c *Config) Discovery() discovery.Config {
	s := c.Search
	return discovery.Config{
		Thresholds: discovery.Thresholds{
			MinRelevance:     s.MinRelevance,
			RelaxedRelevance: s.RelaxedRelevance,
			MinStrictResults: s.MinStrictResults,
		},
		MaxEnrich:              s.MaxEnrich,
		EnrichMultiplier:       s.EnrichMultiplier,
		QualityMinFollowers:    s.QualityMinFollowers,
		QualityBypassRelevance: s.QualityBypassRelevance,
		DegradedRelevance:      s.DegradedRelevance,
		VideosPerMatch:         s.VideosPerMatch,
		RequestTimeout:         time.Duration(s.RequestTimeoutSec) * time.Second,
	}
}

// ChainSpecs returns the enrichment chain in registry form.
func (e EnrichmentConfig) ChainSpecs() []enrich.LinkSpec {
	return toSpecs(e.Chain)
}

// PostSpecs returns the recent-posts chain in registry form.
func (e EnrichmentConfig) PostSpecs() []enrich.LinkSpec {
	return toSpecs(e.Posts)
}

func toSpecs(links []LinkSpec) []enrich.LinkSpec {
	out := make([]enrich.LinkSpec, len(links))
	for i, l := range links {
		out[i] = enrich.LinkSpec{Name: l.Provider, Attempts: l.Attempts}
	}
	return out
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func (s SearchConfig) DeepAnalysisTimeout() time.Duration { return seconds(s.DeepAnalysisTimeoutSec) }

func (s SearchConfig) ResultTTL() time.Duration { return time.Duration(s.ResultTTLMin) * time.Minute }

func (w WebSearchConfig) Timeout() time.Duration { return seconds(w.TimeoutSec) }

func (v VendorConfig) Timeout() time.Duration { return seconds(v.TimeoutSec) }

func (e EnrichmentConfig) BaseDelay() time.Duration {
	return time.Duration(e.BaseDelayMs) * time.Millisecond
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
