// Package sensor implements MarketDataSensor (spec.md §4.2): a cached
// wrapper over the provider failover chain, grounded in the teacher's
// decorator-cache pattern (internal/providers/guards/cache.go) but made
// explicit rather than implicit per spec.md §9.
package sensor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/equitycore/internal/cache"
	"github.com/sawpanic/equitycore/internal/domain"
	"github.com/sawpanic/equitycore/internal/metrics"
	"github.com/sawpanic/equitycore/internal/provider"
)

// MarketDataSensor caches price history by (ticker, interval) with a 5
// minute TTL (spec.md §4.2).
type MarketDataSensor struct {
	chain   *provider.Chain
	cache   cache.Cache
	ttl     time.Duration
	metrics *metrics.Registry
	log     zerolog.Logger
}

// NewMarketDataSensor builds a sensor over chain and c, with ttl defaulting
// to 5 minutes when zero.
func NewMarketDataSensor(chain *provider.Chain, c cache.Cache, ttl time.Duration, m *metrics.Registry, log zerolog.Logger) *MarketDataSensor {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MarketDataSensor{chain: chain, cache: c, ttl: ttl, metrics: m, log: log.With().Str("component", "market_data_sensor").Logger()}
}

func cacheKey(ticker, interval string) string {
	return fmt.Sprintf("market:%s:%s", ticker, interval)
}

// Fetch returns the bar series for (ticker, interval), consulting the cache
// first and falling through to the provider failover chain on a miss. The
// period is derived from the interval per spec.md §4.2. Cache writes only
// happen on full success, so a cancelled fetch never leaves partial state
// (spec.md §5).
func (s *MarketDataSensor) Fetch(ctx context.Context, ticker, interval string) (domain.Series, error) {
	key := cacheKey(ticker, interval)
	start := time.Now()
	defer func() {
		s.metrics.SensorLatency.WithLabelValues("market_data:" + interval).Observe(time.Since(start).Seconds())
	}()

	var cached domain.Series
	if cache.GetJSON(ctx, s.cache, key, &cached) {
		s.metrics.CacheHits.WithLabelValues("market").Inc()
		return cached, nil
	}
	s.metrics.CacheMisses.WithLabelValues("market").Inc()

	period := provider.PeriodForInterval(interval)
	series, winner, err := s.chain.FetchPriceHistory(ctx, ticker, interval, period)
	if err != nil {
		s.metrics.SensorFailures.WithLabelValues("market_data", "chain_exhausted").Inc()
		return domain.Series{}, err
	}
	if len(series.Bars) < 20 {
		s.metrics.SensorFailures.WithLabelValues("market_data", string(provider.KindLiquidityHalt)).Inc()
		return domain.Series{}, provider.NewLiquidityHalt(winner, len(series.Bars))
	}
	if err := series.Validate(); err != nil {
		return domain.Series{}, fmt.Errorf("market data sensor: %w", err)
	}

	s.cache.Set(ctx, key, series, s.ttl)
	return series, nil
}
