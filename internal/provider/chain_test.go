package provider

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/equitycore/internal/metrics"
)

func newTestMetrics() *metrics.Registry {
	return metrics.NewRegistry(prometheus.NewRegistry())
}

func TestChain_FetchPriceHistory_FailoverToSecondProvider(t *testing.T) {
	first := &ErrorProvider{NameStr: "primary", Err: NewThrottled("primary", nil)}
	second := &MockProvider{NameStr: "secondary", Seed: 100}

	chain := NewChain([]DataProvider{first, second}, newTestMetrics(), zerolog.Nop())

	series, winner, err := chain.FetchPriceHistory(context.Background(), "AAPL", "1d", "1y")
	require.NoError(t, err)
	assert.Equal(t, "secondary", winner)
	assert.Equal(t, "secondary", series.Provider)
	assert.NotEmpty(t, series.Bars)
}

func TestChain_FetchPriceHistory_AllFail_SurfacesLastError(t *testing.T) {
	first := &ErrorProvider{NameStr: "a", Err: NewTickerNotFound("a", "ZZZZ")}
	second := &ErrorProvider{NameStr: "b", Err: NewTickerNotFound("b", "ZZZZ")}

	chain := NewChain([]DataProvider{first, second}, newTestMetrics(), zerolog.Nop())

	_, _, err := chain.FetchPriceHistory(context.Background(), "ZZZZ", "1d", "1y")
	require.Error(t, err)
}

func TestIsJunkInfo(t *testing.T) {
	assert.True(t, IsJunkInfo(map[string]any{"a": 1}))
	assert.True(t, IsJunkInfo(map[string]any{
		"a": 1, "b": 2, "c": 3, "d": 4, "e": 5, "f": 6, "g": 7, "h": 8, "i": 9, "j": 10,
	}))
	full := map[string]any{"name": "X"}
	for i := 0; i < 12; i++ {
		full[string(rune('a'+i))] = i
	}
	assert.False(t, IsJunkInfo(full))
}

func TestPeriodForInterval(t *testing.T) {
	assert.Equal(t, "60d", PeriodForInterval("15m"))
	assert.Equal(t, "60d", PeriodForInterval("60m"))
	assert.Equal(t, "1y", PeriodForInterval("1d"))
	assert.Equal(t, "1y", PeriodForInterval("1wk"))
}
