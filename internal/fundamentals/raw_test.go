package fundamentals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/equitycore/internal/domain"
)

func TestRevenueGrowthFromQuarters_ComputesYoYFromDescendingQuarters(t *testing.T) {
	// newest first: Q4, Q3, Q2, Q1, Q4(last year)
	quarters := []float64{110, 108, 105, 102, 100}
	growth := RevenueGrowthFromQuarters(quarters, ptr(0.5))
	require.NotNil(t, growth)
	assert.InDelta(t, 0.10, *growth, 1e-9)
}

func TestRevenueGrowthFromQuarters_FallsBackToVendorTTMWhenFewerThanFiveQuarters(t *testing.T) {
	growth := RevenueGrowthFromQuarters([]float64{110, 108}, ptr(0.5))
	require.NotNil(t, growth)
	assert.Equal(t, 0.5, *growth)
}

func TestRevenueGrowthFromQuarters_FallsBackToVendorTTMWhenNotMonotonicNonIncreasing(t *testing.T) {
	// Q3 > Q4 breaks the newest-first ordering this check can detect.
	quarters := []float64{110, 120, 105, 102, 100}
	growth := RevenueGrowthFromQuarters(quarters, ptr(0.5))
	require.NotNil(t, growth)
	assert.Equal(t, 0.5, *growth, "a misordered column sequence must fall back to the vendor TTM figure")
}

func TestRevenueGrowthFromQuarters_NoVendorFallbackReturnsNil(t *testing.T) {
	growth := RevenueGrowthFromQuarters([]float64{110, 120, 105, 102, 100}, nil)
	assert.Nil(t, growth)
}

func TestIsDescendingByTime_RejectsSingleElement(t *testing.T) {
	assert.False(t, isDescendingByTime([]float64{100}))
}

func TestIsDescendingByTime_AcceptsStrictlyDecreasing(t *testing.T) {
	assert.True(t, isDescendingByTime([]float64{110, 108, 105, 102, 100}))
}

func TestIsDescendingByTime_AcceptsTies(t *testing.T) {
	assert.True(t, isDescendingByTime([]float64{100, 100, 90}))
}

func TestDeriveRaw_DerivesEarningsYieldFromForwardPE(t *testing.T) {
	out := DeriveRaw(domain.FundamentalData{ForwardPE: ptr(20)})
	require.NotNil(t, out.EarningsYield)
	assert.InDelta(t, 0.05, *out.EarningsYield, 1e-9)
}
