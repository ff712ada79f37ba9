// Package governor implements Governor (spec.md §4.8): a data-integrity
// assessor plus an accumulating rule set, grounded directly on
// original_source/app/governor.py's SignalGovernor and
// UnifiedRejectionTracker.
package governor

import (
	"fmt"
	"strings"
	"time"

	"github.com/sawpanic/equitycore/internal/domain"
	"github.com/sawpanic/equitycore/internal/fundamentals"
)

// DataIntegrity mirrors the Python DataIntegrity enum.
type DataIntegrity string

const (
	IntegrityValid    DataIntegrity = "VALID"
	IntegrityDegraded DataIntegrity = "DEGRADED"
	IntegrityInvalid  DataIntegrity = "INVALID"
)

const (
	insiderSellWindowDays = 90
	insiderSellThreshold  = 3
	adxTrendThreshold     = 15.0
	adxChopThreshold      = 20.0
	atrShredderThreshold  = 3.0
	ivPoisonThreshold     = 200.0
)

// RejectionTracker accumulates violation codes and descriptions in the
// order they were found; the first entry is the primary reason.
type RejectionTracker struct {
	violations []string
}

// AddViolation records a violation as "CODE: description".
func (t *RejectionTracker) AddViolation(code, description string) {
	t.violations = append(t.violations, code+": "+description)
}

// HasViolations reports whether any rule fired.
func (t *RejectionTracker) HasViolations() bool { return len(t.violations) > 0 }

// PrimaryReason returns the first violation, or "None".
func (t *RejectionTracker) PrimaryReason() string {
	if len(t.violations) == 0 {
		return "None"
	}
	return t.violations[0]
}

// Violations returns every recorded violation, in order.
func (t *RejectionTracker) Violations() []string {
	return append([]string(nil), t.violations...)
}

// VetoState is the serializable snapshot get_veto_state returns.
type VetoState struct {
	HasViolations       bool
	Violations          []string
	DataIntegrity       DataIntegrity
	IsUntradeableRegime bool
}

// Governor evaluates the rule set for a single ticker/horizon combination.
type Governor struct {
	now func() time.Time
}

// New builds a Governor using the real clock.
func New() *Governor {
	return &Governor{now: time.Now}
}

// AssessDataIntegrity implements spec.md §4.8's data-integrity table.
// Missing options/insider context never counts as poisoning, and an
// international ticker (one containing '.') with a non-null CCI is VALID
// even when volume_ratio is null or implied volatility is above the poison
// threshold.
func (g *Governor) AssessDataIntegrity(t domain.Technicals, mc *domain.MarketContext, ticker string) DataIntegrity {
	if t.RSI == nil || t.MACDHistogram == nil {
		return IntegrityInvalid
	}

	poisoned := 0
	if t.CCI == nil {
		poisoned++
	}
	if t.VolumeRatio == nil {
		poisoned++
	}
	if mc != nil && mc.OptionSentiment != nil && mc.OptionSentiment.ImpliedVolatility != nil &&
		*mc.OptionSentiment.ImpliedVolatility > ivPoisonThreshold {
		poisoned++
	}

	isInternational := strings.Contains(ticker, ".")

	if poisoned > 0 {
		if isInternational && t.CCI != nil {
			return IntegrityValid
		}
		return IntegrityDegraded
	}
	return IntegrityValid
}

// CheckInsiderTrading is Rule 1: three or more sells within 90 days.
func (g *Governor) CheckInsiderTrading(tracker *RejectionTracker, mc *domain.MarketContext) {
	if mc == nil {
		return
	}
	sells := g.countRecentSells(mc.InsiderActivity, insiderSellWindowDays)
	if sells >= insiderSellThreshold {
		tracker.AddViolation("RULE_1_INSIDER_SELLS", formatInsiderSells(sells, insiderSellWindowDays))
	}
}

func (g *Governor) countRecentSells(trades []domain.InsiderTrade, days int) int {
	cutoff := g.now().AddDate(0, 0, -days)
	count := 0
	for _, tr := range trades {
		if tr.TransactionType == domain.InsiderSell && !tr.Date.Before(cutoff) {
			count++
		}
	}
	return count
}

// CheckEarningsRisk is Rule 4: a blackout window around the next earnings
// date, plus a same-day-after grace note for a report that landed yesterday.
func (g *Governor) CheckEarningsRisk(tracker *RejectionTracker, mc *domain.MarketContext) {
	if mc == nil {
		return
	}
	days := mc.DaysToEarnings(g.now())
	if days == nil {
		return
	}
	switch {
	case *days >= 0 && *days <= 14:
		tracker.AddViolation("RULE_4_EARNINGS_PROXIMITY", "earnings too close; binary risk too high")
	case *days == -1:
		tracker.AddViolation("RULE_4_EARNINGS_PROXIMITY", "earnings reported yesterday; high volatility zone")
	}
}

// CheckAccrualQuality is Rule 5: Sloan ratio above 0.10 flags manipulation
// risk, when net income, operating cash flow, and total assets are known.
func (g *Governor) CheckAccrualQuality(tracker *RejectionTracker, raw domain.FundamentalData) {
	sloan := fundamentals.SloanRatio(raw.NetIncome, raw.OperatingCashFlow, raw.TotalAssets)
	if sloan == nil {
		return
	}
	if sloan.Status == "MANIPULATION_RISK_HIGH" {
		tracker.AddViolation("RULE_5_EARNINGS_QUALITY_LOW", "Sloan ratio exceeds 0.10 threshold")
	}
}

// ApplyTradingRules runs every rule except the regime capital-shredder,
// which TradingSystem checks separately since it is a hard reject rather
// than an accumulated violation.
func (g *Governor) ApplyTradingRules(tracker *RejectionTracker, t domain.Technicals, mc *domain.MarketContext, raw domain.FundamentalData) {
	g.CheckInsiderTrading(tracker, mc)

	if t.ADX != nil && *t.ADX < adxTrendThreshold {
		tracker.AddViolation("RULE_2_ADX_TREND", fmt.Sprintf("ADX=%.1f < %.0f (chop zone)", *t.ADX, adxTrendThreshold))
	}

	g.CheckEarningsRisk(tracker, mc)
	g.CheckAccrualQuality(tracker, raw)
}

// IsUntradeableRegime is the "regime capital-shredder" hard reject:
// elevated volatility with no trend to ride.
func (g *Governor) IsUntradeableRegime(t domain.Technicals) bool {
	atrPct := 0.0
	if t.ATRPercent != nil {
		atrPct = *t.ATRPercent
	}
	adx := 0.0
	if t.ADX != nil {
		adx = *t.ADX
	}
	return atrPct > atrShredderThreshold && adx < adxChopThreshold
}

// GetVetoState runs the full rule set and returns the serializable snapshot
// TradingSystem and the orchestrator consume.
func (g *Governor) GetVetoState(t domain.Technicals, mc *domain.MarketContext, raw domain.FundamentalData, ticker string) VetoState {
	tracker := &RejectionTracker{}
	g.ApplyTradingRules(tracker, t, mc, raw)
	integrity := g.AssessDataIntegrity(t, mc, ticker)

	return VetoState{
		HasViolations:       tracker.HasViolations(),
		Violations:          tracker.Violations(),
		DataIntegrity:       integrity,
		IsUntradeableRegime: g.IsUntradeableRegime(t),
	}
}

// PreScreen applies only R1 and R4 (spec.md §4.8), letting the orchestrator
// short-circuit a clearly rejected ticker before any pricing work runs.
func (g *Governor) PreScreen(mc *domain.MarketContext) *RejectionTracker {
	tracker := &RejectionTracker{}
	g.CheckInsiderTrading(tracker, mc)
	g.CheckEarningsRisk(tracker, mc)
	return tracker
}

func formatInsiderSells(count, days int) string {
	return fmt.Sprintf("%d sales in %d days", count, days)
}
