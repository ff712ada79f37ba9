// Package context implements ContextSensor (spec.md §4.6): analyst
// ratings, insider trades, options sentiment, and earnings events, cached
// with a 5 minute TTL. The vendor client behind ContextProvider is out of
// scope per spec.md §1; this package only shapes and filters whatever the
// provider returns.
package context

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/equitycore/internal/cache"
	"github.com/sawpanic/equitycore/internal/domain"
	"github.com/sawpanic/equitycore/internal/metrics"
)

// Provider is the out-of-scope vendor capability this sensor wraps.
type Provider interface {
	FetchAnalystRatings(ctx context.Context, ticker string) ([]domain.AnalystRating, error)
	FetchInsiderActivity(ctx context.Context, ticker string) ([]domain.InsiderTrade, error)
	FetchOptionSentiment(ctx context.Context, ticker string) (*domain.OptionSentiment, error)
	FetchNextEarnings(ctx context.Context, ticker string) (*domain.EarningsEvent, error)
}

const (
	analystLookbackMonths = 24
	materialityValueUSD   = 100_000.0
	materialityShares     = 5_000.0
	topInsiderTrades      = 5
	defaultTTL            = 5 * time.Minute
	highIVThreshold        = 60.0 // implied vol percentage above which we label compression rather than reject
)

// Sensor produces a MarketContext for a ticker.
type Sensor struct {
	provider Provider
	cache    cache.Cache
	ttl      time.Duration
	now      func() time.Time
	metrics  *metrics.Registry
	log      zerolog.Logger
}

// New builds a Sensor with the given cache TTL (defaulting to 5 minutes).
func New(p Provider, c cache.Cache, ttl time.Duration, m *metrics.Registry, log zerolog.Logger) *Sensor {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Sensor{provider: p, cache: c, ttl: ttl, now: time.Now, metrics: m, log: log.With().Str("component", "context_sensor").Logger()}
}

func cacheKey(ticker string) string { return fmt.Sprintf("context:%s", ticker) }

// Fetch returns the MarketContext for ticker, consulting the cache first.
func (s *Sensor) Fetch(ctx context.Context, ticker string) (domain.MarketContext, error) {
	key := cacheKey(ticker)
	start := time.Now()
	defer func() {
		s.metrics.SensorLatency.WithLabelValues("context").Observe(time.Since(start).Seconds())
	}()

	var cached domain.MarketContext
	if cache.GetJSON(ctx, s.cache, key, &cached) {
		s.metrics.CacheHits.WithLabelValues("context").Inc()
		return cached, nil
	}
	s.metrics.CacheMisses.WithLabelValues("context").Inc()

	ratings, err := s.provider.FetchAnalystRatings(ctx, ticker)
	if err != nil {
		s.metrics.SensorFailures.WithLabelValues("context", "analyst_ratings").Inc()
		return domain.MarketContext{}, fmt.Errorf("analyst ratings: %w", err)
	}
	ratings = filterRecentRatings(ratings, s.now(), analystLookbackMonths)

	insider, err := s.provider.FetchInsiderActivity(ctx, ticker)
	if err != nil {
		s.metrics.SensorFailures.WithLabelValues("context", "insider_activity").Inc()
		return domain.MarketContext{}, fmt.Errorf("insider activity: %w", err)
	}
	insider = filterMaterialInsiderTrades(insider)

	options, err := s.provider.FetchOptionSentiment(ctx, ticker)
	if err != nil {
		s.metrics.SensorFailures.WithLabelValues("context", "option_sentiment").Inc()
		return domain.MarketContext{}, fmt.Errorf("option sentiment: %w", err)
	}
	options = sanitizeOptionSentiment(options)

	events, err := s.provider.FetchNextEarnings(ctx, ticker)
	if err != nil {
		s.metrics.SensorFailures.WithLabelValues("context", "earnings_events").Inc()
		return domain.MarketContext{}, fmt.Errorf("earnings events: %w", err)
	}

	mc := domain.MarketContext{
		Ticker:          ticker,
		AnalystRatings:  ratings,
		PriceTargetMean: meanTarget(ratings),
		Consensus:       consensusBucket(ratings),
		Events:          events,
		InsiderActivity: insider,
		OptionSentiment: options,
		FetchedAt:       s.now(),
	}

	s.cache.Set(ctx, key, mc, s.ttl)
	return mc, nil
}

func filterRecentRatings(ratings []domain.AnalystRating, now time.Time, months int) []domain.AnalystRating {
	cutoff := now.AddDate(0, -months, 0)
	out := make([]domain.AnalystRating, 0, len(ratings))
	for _, r := range ratings {
		if r.Date.After(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

func filterMaterialInsiderTrades(trades []domain.InsiderTrade) []domain.InsiderTrade {
	material := make([]domain.InsiderTrade, 0, len(trades))
	for _, t := range trades {
		if t.Value >= materialityValueUSD || t.Shares >= materialityShares {
			material = append(material, t)
		}
	}
	sort.Slice(material, func(i, j int) bool { return material[i].Date.After(material[j].Date) })
	if len(material) > topInsiderTrades {
		material = material[:topInsiderTrades]
	}
	return material
}

func meanTarget(ratings []domain.AnalystRating) *float64 {
	sum, n := 0.0, 0
	for _, r := range ratings {
		if r.PriceTarget != nil {
			sum += *r.PriceTarget
			n++
		}
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

func consensusBucket(ratings []domain.AnalystRating) domain.ConsensusBucket {
	if len(ratings) == 0 {
		return domain.ConsensusNone
	}
	score := 0
	for _, r := range ratings {
		switch r.Rating {
		case "Strong Buy":
			score += 2
		case "Buy":
			score++
		case "Hold":
		case "Sell":
			score--
		case "Strong Sell":
			score -= 2
		}
	}
	avg := float64(score) / float64(len(ratings))
	switch {
	case avg >= 1.5:
		return domain.ConsensusStrongBuy
	case avg >= 0.5:
		return domain.ConsensusBuy
	case avg > -0.5:
		return domain.ConsensusHold
	case avg > -1.5:
		return domain.ConsensusSell
	default:
		return domain.ConsensusStrongSell
	}
}

// sanitizeOptionSentiment nulls NaN/Inf fields (spec.md §4.6) and applies
// the "High Compression" label instead of rejecting high-IV readings.
func sanitizeOptionSentiment(o *domain.OptionSentiment) *domain.OptionSentiment {
	if o == nil {
		return nil
	}
	out := *o
	out.PutCallRatio = sanitize(out.PutCallRatio)
	out.ImpliedVolatility = sanitize(out.ImpliedVolatility)
	if out.ImpliedVolatility != nil && *out.ImpliedVolatility > highIVThreshold {
		out.Label = "High Compression"
	}
	return &out
}

func sanitize(v *float64) *float64 {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}
