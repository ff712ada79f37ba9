package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/sawpanic/equitycore/internal/domain"
	"github.com/sawpanic/equitycore/internal/metrics"
)

// Chain orders a set of DataProvider implementations and tries each in turn
// until one succeeds, attaching the winning provider's name to the result
// (spec.md §4.1). Each provider is gated by its own circuit breaker so a
// persistently failing vendor is skipped without a network round trip.
type Chain struct {
	providers []DataProvider
	breakers  map[string]*gobreaker.CircuitBreaker
	metrics   *metrics.Registry
	log       zerolog.Logger
}

// NewChain builds a failover chain in priority order.
func NewChain(providers []DataProvider, m *metrics.Registry, log zerolog.Logger) *Chain {
	breakers := make(map[string]*gobreaker.CircuitBreaker, len(providers))
	for _, p := range providers {
		breakers[p.Name()] = NewBreaker(p.Name())
	}
	return &Chain{providers: providers, breakers: breakers, metrics: m, log: log}
}

// FetchPriceHistory tries each provider in order, returning the first
// success. The final error is the last provider's error, as required by
// spec.md §4.1 ("last error is surfaced if all fail").
func (c *Chain) FetchPriceHistory(ctx context.Context, ticker, interval, period string) (domain.Series, string, error) {
	var lastErr error
	for _, p := range c.providers {
		c.metrics.ProviderAttempts.WithLabelValues(p.Name()).Inc()
		result, err := c.breakers[p.Name()].Execute(func() (any, error) {
			return p.FetchPriceHistory(ctx, ticker, interval, period)
		})
		c.metrics.CircuitState.WithLabelValues(p.Name()).Set(CircuitStateValue(c.breakers[p.Name()].State()))
		if err != nil {
			kind := "circuit_or_network"
			if pe, ok := err.(*Error); ok {
				kind = string(pe.Kind)
			}
			c.metrics.ProviderFailures.WithLabelValues(p.Name(), kind).Inc()
			c.log.Warn().Err(err).Str("provider", p.Name()).Str("ticker", ticker).Msg("provider failed, trying next")
			lastErr = err
			continue
		}
		series := result.(domain.Series)
		series.Provider = p.Name()
		return series, p.Name(), nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no providers configured")
	}
	return domain.Series{}, "", fmt.Errorf("all providers failed for %s: %w", ticker, lastErr)
}

// FetchTickerInfo tries each provider in order for ticker metadata, with the
// same failover semantics as FetchPriceHistory. A "junk" result (per
// IsJunkInfo) from the winning provider does not trigger another provider
// attempt here — reconstruction from financial statements is the caller's
// (FundamentalsEngine's) responsibility per spec.md §4.1.
func (c *Chain) FetchTickerInfo(ctx context.Context, ticker string) (map[string]any, string, error) {
	var lastErr error
	for _, p := range c.providers {
		result, err := c.breakers[p.Name()].Execute(func() (any, error) {
			return p.FetchTickerInfo(ctx, ticker)
		})
		if err != nil {
			lastErr = err
			continue
		}
		return result.(map[string]any), p.Name(), nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no providers configured")
	}
	return nil, "", fmt.Errorf("all providers failed for %s info: %w", ticker, lastErr)
}

// WithTimeout is a small helper the sensors use to bound a single provider
// call inside the orchestrator's global deadline.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, d)
}
