package discovery

import (
	"fmt"
	"time"
)

// Thresholds is the single relevance threshold policy. When fewer than
// MinStrictResults matches reach MinRelevance, RelaxedRelevance applies.
type Thresholds struct {
	MinRelevance     float64
	RelaxedRelevance float64
	MinStrictResults int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinRelevance:     0.5,
		RelaxedRelevance: 0.3,
		MinStrictResults: 3,
	}
}

type Config struct {
	Thresholds Thresholds
	// MaxEnrich caps enrichment at min(MaxEnrich, max_results*EnrichMultiplier)
	MaxEnrich        int
	EnrichMultiplier int
	// Profiles under QualityMinFollowers or without a bio are skipped unless
	// their provisional relevance reaches QualityBypassRelevance
	QualityMinFollowers    int64
	QualityBypassRelevance float64
	// DegradedRelevance is the score given to limited-data results that
	// carry no provisional relevance
	DegradedRelevance float64
	VideosPerMatch    int
	RequestTimeout    time.Duration
	Progress          bool
}

func DefaultConfig() Config {
	return Config{
		Thresholds:             DefaultThresholds(),
		MaxEnrich:              15,
		EnrichMultiplier:       3,
		QualityMinFollowers:    100,
		QualityBypassRelevance: 0.8,
		DegradedRelevance:      0.8,
		VideosPerMatch:         3,
		RequestTimeout:         90 * time.Second,
	}
}

func (c Config) Validate() error {
	t := c.Thresholds
	if t.MinRelevance < 0 || t.MinRelevance > 1 || t.RelaxedRelevance < 0 || t.RelaxedRelevance > 1 {
		return fmt.Errorf("relevance thresholds must be between 0 and 1")
	}
	if t.RelaxedRelevance > t.MinRelevance {
		return fmt.Errorf("relaxed relevance %.2f is above min relevance %.2f", t.RelaxedRelevance, t.MinRelevance)
	}
	if c.MaxEnrich <= 0 || c.EnrichMultiplier <= 0 {
		return fmt.Errorf("enrichment limits must be greater than 0")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	return nil
}

// enrichLimit is N = min(MaxEnrich, max*EnrichMultiplier)
func (c Config) enrichLimit(max int) int {
	return min(c.MaxEnrich, max*c.EnrichMultiplier)
}
