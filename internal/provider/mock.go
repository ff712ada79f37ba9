package provider

import (
	"context"
	"math"
	"time"

	"github.com/sawpanic/equitycore/internal/domain"
)

// MockProvider generates a deterministic synthetic OHLCV series for local
// `analyze` runs and tests, standing in for the out-of-scope vendor clients
// (spec.md §1). It never fails, which makes it unsuitable for exercising
// failover; ErrorProvider below covers that case.
type MockProvider struct {
	NameStr string
	Seed    float64
}

func (m *MockProvider) Name() string { return m.NameStr }

func (m *MockProvider) FetchPriceHistory(ctx context.Context, ticker, interval, period string) (domain.Series, error) {
	n := 260
	bars := make([]domain.Bar, 0, n)
	price := m.Seed
	start := time.Now().Add(-time.Duration(n) * 24 * time.Hour)
	for i := 0; i < n; i++ {
		drift := math.Sin(float64(i)/11.0) * 0.6
		open := price
		close := open + drift + (math.Mod(float64(i), 7)-3)*0.05
		high := math.Max(open, close) + 0.4
		low := math.Min(open, close) - 0.4
		vol := 1_000_000 + math.Abs(math.Sin(float64(i)/5.0))*500_000
		bars = append(bars, domain.Bar{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      open, High: high, Low: low, Close: close, Volume: vol,
		})
		price = close
	}
	return domain.Series{Ticker: ticker, Interval: interval, Bars: bars}, nil
}

func (m *MockProvider) FetchTickerInfo(ctx context.Context, ticker string) (map[string]any, error) {
	return map[string]any{
		"name":       ticker + " Inc.",
		"long_name":  ticker + " Incorporated",
		"sector":     "Technology",
		"industry":   "Software",
		"exchange":   "NASDAQ",
		"currency":   "USD",
		"country":    "US",
		"market_cap": 1_500_000_000_000,
		"employees":  160000,
		"website":    "https://example.com",
	}, nil
}

// ErrorProvider always fails with the configured error kind; used to test
// failover behavior deterministically.
type ErrorProvider struct {
	NameStr string
	Err     error
}

func (e *ErrorProvider) Name() string { return e.NameStr }

func (e *ErrorProvider) FetchPriceHistory(ctx context.Context, ticker, interval, period string) (domain.Series, error) {
	return domain.Series{}, e.Err
}

func (e *ErrorProvider) FetchTickerInfo(ctx context.Context, ticker string) (map[string]any, error) {
	return nil, e.Err
}
