// Package enrich resolves a creator handle into a canonical profile by
// walking an ordered chain of vendor endpoints.
package enrich

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/charmbracelet/log"
	"github.com/lox/creator-discovery/internal/fetch"
	"github.com/lox/creator-discovery/internal/metrics"
	"github.com/lox/creator-discovery/internal/schema"
	"github.com/lox/creator-discovery/internal/types"
)

// Provider is one enrichment endpoint
type Provider interface {
	Name() string
	TryResolve(ctx context.Context, identifier string) (schema.Object, error)
}

// Link is a provider with its retry budget
type Link struct {
	Provider Provider
	Attempts uint
}

// Config holds resolver settings
type Config struct {
	Chain     []Link
	Posts     []PostLink
	BaseDelay time.Duration
	Logger    *log.Logger
}

func NewConfig() Config {
	return Config{BaseDelay: 2 * time.Second}
}

func (c Config) WithChain(chain ...Link) Config {
	c.Chain = chain
	return c
}
func (c Config) WithPosts(posts ...PostLink) Config {
	c.Posts = posts
	return c
}
func (c Config) WithBaseDelay(d time.Duration) Config {
	c.BaseDelay = d
	return c
}
func (c Config) WithLogger(logger *log.Logger) Config {
	c.Logger = logger
	return c
}

func (c Config) Validate() error {
	if len(c.Chain) == 0 {
		return fmt.Errorf("at least one enrichment provider is required")
	}
	for _, l := range c.Chain {
		if l.Provider == nil {
			return fmt.Errorf("enrichment chain contains a nil provider")
		}
		if l.Attempts == 0 {
			return fmt.Errorf("provider %s: attempts must be greater than 0", l.Provider.Name())
		}
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	return nil
}

// Resolver turns identifiers into profiles. Resolve never fails: when every
// provider is exhausted it returns a degraded placeholder.
type Resolver struct {
	config Config
	logger *log.Logger
}

func NewResolver(config Config) (*Resolver, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Resolver{config: config, logger: config.Logger}, nil
}

// attemptLog tracks per-identifier logging so repeated timeouts stay quiet
type attemptLog struct {
	identifier    string
	timeoutLogged bool
}

// Resolve walks the provider chain until one succeeds
func (r *Resolver) Resolve(ctx context.Context, identifier string) types.Profile {
	start := time.Now()
	state := &attemptLog{identifier: identifier}

	for _, link := range r.config.Chain {
		obj, err := withBudget(ctx, r, link.Provider.Name(), link.Attempts, state, func(ctx context.Context) (schema.Object, error) {
			return link.Provider.TryResolve(ctx, identifier)
		})
		if err == nil {
			// keep the payload's own handle so a closest search match is
			// never reported under the requested identifier
			p := schema.Profile(obj, identifier)
			p.Provider = link.Provider.Name()
			if p.Identifier != strings.ToLower(identifier) {
				r.logger.Info("Provider returned a different account", "identifier", identifier, "matched", p.Identifier, "provider", p.Provider)
			}
			metrics.EnrichmentTotal.WithLabelValues("resolved").Inc()
			r.logger.Debug("Resolved profile", "identifier", identifier, "provider", p.Provider, "followers", p.Followers, "duration", time.Since(start))
			return p
		}
		r.logger.Debug("Provider gave up", "identifier", identifier, "provider", link.Provider.Name(), "error", err)
		if ctx.Err() != nil {
			break
		}
	}

	metrics.EnrichmentTotal.WithLabelValues("degraded").Inc()
	r.logger.Warn("All providers failed, using placeholder", "identifier", identifier, "duration", time.Since(start))
	return types.Placeholder(identifier)
}

// withBudget calls fn up to attempts times. Rate limits back off
// exponentially, timeouts linearly, and any other error ends the budget.
func withBudget[T any](ctx context.Context, r *Resolver, name string, attempts uint, state *attemptLog, fn func(context.Context) (T, error)) (T, error) {
	return retry.DoWithData(
		func() (T, error) {
			out, err := fn(ctx)
			switch {
			case err == nil:
				metrics.ProviderAttemptsTotal.WithLabelValues(name, "ok").Inc()
				return out, nil
			case fetch.IsRateLimited(err):
				metrics.ProviderAttemptsTotal.WithLabelValues(name, "rate_limited").Inc()
				r.logger.Debug("Provider rate limited", "identifier", state.identifier, "provider", name)
				return out, err
			case fetch.IsTimeout(err):
				metrics.ProviderAttemptsTotal.WithLabelValues(name, "timeout").Inc()
				if !state.timeoutLogged {
					state.timeoutLogged = true
					r.logger.Warn("Provider timed out", "identifier", state.identifier, "provider", name)
				} else {
					r.logger.Debug("Provider timed out", "identifier", state.identifier, "provider", name)
				}
				return out, err
			default:
				metrics.ProviderAttemptsTotal.WithLabelValues(name, "failed").Inc()
				return out, retry.Unrecoverable(err)
			}
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.DelayType(r.delay),
		retry.LastErrorOnly(true),
	)
}

// delay is base*2^n after a rate limit and base*(n+1) after a timeout
func (r *Resolver) delay(n uint, err error, _ *retry.Config) time.Duration {
	base := r.config.BaseDelay
	if fetch.IsRateLimited(err) {
		return time.Duration(float64(base) * math.Pow(2, float64(n)))
	}
	return base * time.Duration(n+1)
}
