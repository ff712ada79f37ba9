package governor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/equitycore/internal/domain"
)

func f(v float64) *float64 { return &v }

func fixedGovernor(now time.Time) *Governor {
	return &Governor{now: func() time.Time { return now }}
}

func TestAssessDataIntegrity_InvalidWhenCriticalFieldsMissing(t *testing.T) {
	g := New()
	assert.Equal(t, IntegrityInvalid, g.AssessDataIntegrity(domain.Technicals{}, nil, "ACME"))
}

func TestAssessDataIntegrity_DegradedWhenPoisoned(t *testing.T) {
	g := New()
	tech := domain.Technicals{RSI: f(50), MACDHistogram: f(0.1)}
	assert.Equal(t, IntegrityDegraded, g.AssessDataIntegrity(tech, nil, "ACME"))
}

func TestAssessDataIntegrity_LocaleExceptionForInternationalTickers(t *testing.T) {
	g := New()
	tech := domain.Technicals{RSI: f(50), MACDHistogram: f(0.1), CCI: f(10), VolumeRatio: nil}
	assert.Equal(t, IntegrityValid, g.AssessDataIntegrity(tech, nil, "RELIANCE.NS"))
}

func TestAssessDataIntegrity_ValidWhenClean(t *testing.T) {
	g := New()
	tech := domain.Technicals{RSI: f(50), MACDHistogram: f(0.1), CCI: f(10), VolumeRatio: f(1.2)}
	assert.Equal(t, IntegrityValid, g.AssessDataIntegrity(tech, nil, "ACME"))
}

func TestCheckInsiderTrading_FlagsThreeOrMoreSellsWithinWindow(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	g := fixedGovernor(now)
	mc := &domain.MarketContext{InsiderActivity: []domain.InsiderTrade{
		{TransactionType: domain.InsiderSell, Date: now.AddDate(0, 0, -10)},
		{TransactionType: domain.InsiderSell, Date: now.AddDate(0, 0, -20)},
		{TransactionType: domain.InsiderSell, Date: now.AddDate(0, 0, -30)},
		{TransactionType: domain.InsiderBuy, Date: now.AddDate(0, 0, -5)},
	}}
	tracker := &RejectionTracker{}
	g.CheckInsiderTrading(tracker, mc)
	require.True(t, tracker.HasViolations())
	assert.Contains(t, tracker.PrimaryReason(), "RULE_1_INSIDER_SELLS")
}

func TestCheckEarningsRisk_FlagsProximityWindow(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	g := fixedGovernor(now)
	earningsDate := now.AddDate(0, 0, 5)
	mc := &domain.MarketContext{Events: &domain.EarningsEvent{Date: &earningsDate}}
	tracker := &RejectionTracker{}
	g.CheckEarningsRisk(tracker, mc)
	require.True(t, tracker.HasViolations())
	assert.Contains(t, tracker.PrimaryReason(), "RULE_4_EARNINGS_PROXIMITY")
}

func TestCheckAccrualQuality_FlagsSloanRatioAboveThreshold(t *testing.T) {
	g := New()
	raw := domain.FundamentalData{NetIncome: f(200), OperatingCashFlow: f(50), TotalAssets: f(1000)}
	tracker := &RejectionTracker{}
	g.CheckAccrualQuality(tracker, raw)
	require.True(t, tracker.HasViolations())
	assert.Contains(t, tracker.PrimaryReason(), "RULE_5_EARNINGS_QUALITY_LOW")
}

func TestIsUntradeableRegime_CapitalShredder(t *testing.T) {
	g := New()
	tech := domain.Technicals{ATRPercent: f(3.5), ADX: f(15)}
	assert.True(t, g.IsUntradeableRegime(tech))
}

func TestIsUntradeableRegime_FalseWhenTrending(t *testing.T) {
	g := New()
	tech := domain.Technicals{ATRPercent: f(3.5), ADX: f(25)}
	assert.False(t, g.IsUntradeableRegime(tech))
}

func TestPreScreen_OnlyAppliesR1AndR4(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	g := fixedGovernor(now)
	mc := &domain.MarketContext{
		Events: &domain.EarningsEvent{Date: ptrTime(now.AddDate(0, 0, 3))},
	}
	tracker := g.PreScreen(mc)
	require.True(t, tracker.HasViolations())
	for _, v := range tracker.Violations() {
		assert.NotContains(t, v, "RULE_2")
		assert.NotContains(t, v, "RULE_5")
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
