package sensor

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/equitycore/internal/cache"
	"github.com/sawpanic/equitycore/internal/domain"
	"github.com/sawpanic/equitycore/internal/metrics"
	"github.com/sawpanic/equitycore/internal/provider"
)

func newTestSensor(t *testing.T, providers []provider.DataProvider) (*MarketDataSensor, cache.Cache) {
	t.Helper()
	m := metrics.NewRegistry(prometheus.NewRegistry())
	c := cache.NewRedisCache(nil, "v1", zerolog.Nop())
	chain := provider.NewChain(providers, m, zerolog.Nop())
	return NewMarketDataSensor(chain, c, time.Minute, m, zerolog.Nop()), c
}

func TestFetch_ReturnsSeriesOnFirstCallAndCachesIt(t *testing.T) {
	s, c := newTestSensor(t, []provider.DataProvider{&provider.MockProvider{NameStr: "mock", Seed: 50}})

	series, err := s.Fetch(context.Background(), "ACME", "1d")
	require.NoError(t, err)
	assert.Equal(t, "ACME", series.Ticker)
	assert.GreaterOrEqual(t, len(series.Bars), 20)

	var cached struct {
		Ticker string `json:"ticker"`
	}
	ok := cache.GetJSON(context.Background(), c, "market:ACME:1d", &cached)
	require.True(t, ok, "a successful fetch must populate the cache")
	assert.Equal(t, "ACME", cached.Ticker)
}

func TestFetch_ServesFromCacheOnSecondCallWithoutHittingProvider(t *testing.T) {
	calls := 0
	counting := &countingProvider{inner: &provider.MockProvider{NameStr: "mock", Seed: 10}, calls: &calls}
	s, _ := newTestSensor(t, []provider.DataProvider{counting})

	_, err := s.Fetch(context.Background(), "ACME", "1d")
	require.NoError(t, err)
	_, err = s.Fetch(context.Background(), "ACME", "1d")
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second fetch should be served from cache")
}

func TestFetch_PropagatesErrorWhenAllProvidersFail(t *testing.T) {
	s, _ := newTestSensor(t, []provider.DataProvider{
		&provider.ErrorProvider{NameStr: "dead", Err: provider.NewTickerNotFound("dead", "ZZZZ")},
	})

	_, err := s.Fetch(context.Background(), "ZZZZ", "1d")
	assert.Error(t, err)
}

type countingProvider struct {
	inner provider.DataProvider
	calls *int
}

func (p *countingProvider) Name() string { return p.inner.Name() }

func (p *countingProvider) FetchPriceHistory(ctx context.Context, ticker, interval, period string) (domain.Series, error) {
	*p.calls++
	return p.inner.FetchPriceHistory(ctx, ticker, interval, period)
}

func (p *countingProvider) FetchTickerInfo(ctx context.Context, ticker string) (map[string]any, error) {
	return p.inner.FetchTickerInfo(ctx, ticker)
}
