package context

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/equitycore/internal/cache"
	"github.com/sawpanic/equitycore/internal/domain"
	"github.com/sawpanic/equitycore/internal/metrics"
)

type stubProvider struct {
	ratings  []domain.AnalystRating
	insider  []domain.InsiderTrade
	options  *domain.OptionSentiment
	earnings *domain.EarningsEvent
}

func (s stubProvider) FetchAnalystRatings(context.Context, string) ([]domain.AnalystRating, error) {
	return s.ratings, nil
}
func (s stubProvider) FetchInsiderActivity(context.Context, string) ([]domain.InsiderTrade, error) {
	return s.insider, nil
}
func (s stubProvider) FetchOptionSentiment(context.Context, string) (*domain.OptionSentiment, error) {
	return s.options, nil
}
func (s stubProvider) FetchNextEarnings(context.Context, string) (*domain.EarningsEvent, error) {
	return s.earnings, nil
}

func newTestSensor(t *testing.T, p Provider) *Sensor {
	t.Helper()
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	c := cache.NewRedisCache(nil, "v1", zerolog.Nop())
	return New(p, c, time.Minute, reg, zerolog.Nop())
}

func f(v float64) *float64 { return &v }

func TestFetch_FiltersOldRatingsAndAppliesMaterialityToInsiderTrades(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	old := now.AddDate(-3, 0, 0)
	recent := now.AddDate(0, -1, 0)

	p := stubProvider{
		ratings: []domain.AnalystRating{
			{Firm: "Old Co", Rating: "Buy", PriceTarget: f(100), Date: old},
			{Firm: "New Co", Rating: "Strong Buy", PriceTarget: f(120), Date: recent},
		},
		insider: []domain.InsiderTrade{
			{Insider: "CEO", Shares: 10_000, Value: 200_000, Date: recent},
			{Insider: "Clerk", Shares: 10, Value: 500, Date: recent},
		},
	}
	s := newTestSensor(t, p)
	s.now = func() time.Time { return now }

	mc, err := s.Fetch(context.Background(), "ACME")
	require.NoError(t, err)
	require.Len(t, mc.AnalystRatings, 1)
	assert.Equal(t, "New Co", mc.AnalystRatings[0].Firm)
	require.Len(t, mc.InsiderActivity, 1)
	assert.Equal(t, "CEO", mc.InsiderActivity[0].Insider)
	assert.Equal(t, domain.ConsensusStrongBuy, mc.Consensus)
}

func TestFetch_SanitizesNaNOptionSentiment(t *testing.T) {
	p := stubProvider{
		options: &domain.OptionSentiment{PutCallRatio: f(math.NaN())},
	}
	s := newTestSensor(t, p)
	mc, err := s.Fetch(context.Background(), "ACME")
	require.NoError(t, err)
	require.NotNil(t, mc.OptionSentiment)
	assert.Nil(t, mc.OptionSentiment.PutCallRatio)
}

func TestFetch_HighIVGetsCompressionLabel(t *testing.T) {
	p := stubProvider{
		options: &domain.OptionSentiment{ImpliedVolatility: f(75)},
	}
	s := newTestSensor(t, p)
	mc, err := s.Fetch(context.Background(), "ACME")
	require.NoError(t, err)
	require.NotNil(t, mc.OptionSentiment)
	assert.Equal(t, "High Compression", mc.OptionSentiment.Label)
}

func TestFetch_CachesSecondCall(t *testing.T) {
	calls := 0
	p := countingProvider{stubProvider{ratings: []domain.AnalystRating{{Firm: "X", Rating: "Hold", Date: time.Now()}}}, &calls}
	s := newTestSensor(t, p)

	_, err := s.Fetch(context.Background(), "ACME")
	require.NoError(t, err)
	_, err = s.Fetch(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

type countingProvider struct {
	stubProvider
	calls *int
}

func (c countingProvider) FetchAnalystRatings(ctx context.Context, ticker string) ([]domain.AnalystRating, error) {
	*c.calls++
	return c.stubProvider.FetchAnalystRatings(ctx, ticker)
}
