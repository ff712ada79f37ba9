// Package fundamentals implements FundamentalsEngine (spec.md §4.5): raw
// metric extraction and derivation (pass A), qualitative rule-based
// inference (pass B), and the DCF/Graham valuation models, grounded in
// original_source/app/fundamentals_analytics.py's IntrinsicValuationEngine
// and original_source/app/fundamentals_rules.py's inference rules,
// re-expressed as an explicit two-pass pipeline per spec.md §9 ("break
// implicit cycles into a strict pipeline").
package fundamentals

import (
	"math"

	"github.com/sawpanic/equitycore/internal/domain"
)

// DeriveRaw fills the derived fields of a FundamentalData record from
// whatever vendor-supplied fields are already populated. It never
// overwrites a field the vendor supplied unless the field is provably
// wrong (ROE/ROA, which spec.md §4.5 requires be recomputed from
// net_income_to_common to avoid the sign paradox).
func DeriveRaw(raw domain.FundamentalData) domain.FundamentalData {
	out := raw

	if out.EarningsYield == nil {
		if out.ForwardPE != nil && *out.ForwardPE != 0 {
			out.EarningsYield = f(1 / *out.ForwardPE)
		} else if out.EPS != nil && out.Price != nil && *out.Price != 0 {
			out.EarningsYield = f(*out.EPS / *out.Price)
		}
	}

	if out.EnterpriseToRevenue == nil && out.EnterpriseToEBITDA != nil && out.NetMargin != nil && *out.NetMargin != 0 {
		out.EnterpriseToRevenue = f(*out.EnterpriseToEBITDA * *out.NetMargin)
	}

	if out.FreeCashFlowMargin == nil && out.FreeCashFlow != nil && out.TotalRevenue != nil && *out.TotalRevenue != 0 {
		out.FreeCashFlowMargin = f(*out.FreeCashFlow / *out.TotalRevenue)
	}

	if out.FCFToNIRatio == nil && out.FreeCashFlow != nil && out.NetIncome != nil && *out.NetIncome != 0 {
		ratio := *out.FreeCashFlow / *out.NetIncome
		out.FCFToNIRatio = f(ratio) // sign preserved: negative NI keeps the ratio's sign meaningful
	}

	if out.NetCash == nil && out.TotalCash != nil && out.TotalDebt != nil {
		nc := *out.TotalCash - *out.TotalDebt
		out.NetCash = f(nc)
	}
	if out.NetCash != nil {
		if *out.NetCash >= 0 {
			out.NetCashStatus = "Net Cash"
		} else {
			out.NetCashStatus = "Net Debt"
		}
	}

	if out.DebtToEquity != nil {
		out.DebtToEquity = f(normalizeDebtToEquity(*out.DebtToEquity))
	}

	// ROE/ROA must be derived from net_income_to_common to prevent the
	// sign-paradox invariant violation (spec.md §3, §4.5).
	if out.NetIncomeToCommon != nil {
		if out.TotalEquity != nil && *out.TotalEquity != 0 {
			out.ROE = f(*out.NetIncomeToCommon / *out.TotalEquity)
		}
		if out.TotalAssets != nil && *out.TotalAssets != 0 {
			out.ROA = f(*out.NetIncomeToCommon / *out.TotalAssets)
		}
	}

	return out
}

// normalizeDebtToEquity handles the percent-style vendor conventions
// spec.md §4.5 calls out: values reported as "120" (meaning 1.20x) or "8.5"
// (meaning 0.085x via a looser percent convention) are divided down.
func normalizeDebtToEquity(v float64) float64 {
	if v > 100 {
		return v / 100
	}
	if v > 5 {
		return v / 100
	}
	return v
}

func f(v float64) *float64 { return &v }

// RevenueGrowthFromQuarters computes YoY revenue growth from a descending
// (most recent first) slice of quarterly revenue figures, falling back to
// vendor's TTM field when fewer than 5 quarters are available or the
// ordering cannot be validated as descending (spec.md §4.5).
func RevenueGrowthFromQuarters(quarterlyRevenueDescending []float64, vendorTTM *float64) *float64 {
	if len(quarterlyRevenueDescending) >= 5 && isDescendingByTime(quarterlyRevenueDescending) {
		latest := quarterlyRevenueDescending[0]
		yearAgo := quarterlyRevenueDescending[4]
		if yearAgo != 0 {
			growth := (latest - yearAgo) / math.Abs(yearAgo)
			return &growth
		}
	}
	return vendorTTM
}

// isDescendingByTime rejects a quarterly series that is not ordered newest
// first. The slice carries no per-quarter timestamp, so this checks the
// only signal available: that the revenue figures are monotonically
// non-increasing, which catches a reversed or shuffled statement column
// order even though a genuinely growing company will also fail it and fall
// back to the vendor's TTM figure.
func isDescendingByTime(values []float64) bool {
	if len(values) < 2 {
		return false
	}
	for i := 0; i < len(values)-1; i++ {
		if values[i] < values[i+1] {
			return false
		}
	}
	return true
}
