package fundamentals

import (
	"math"

	"github.com/sawpanic/equitycore/internal/domain"
)

const (
	defaultDiscountRate = 0.10
	defaultTerminalGrowth = 0.03
	thinMarginThreshold = 0.10
	thinMarginRiskPremium = 0.02
	terminalDominanceKillSwitch = 0.85
)

// DCFInputs bundles what CalculateDCF needs beyond the raw record, since
// the free-cash-flow fallback (spec.md §4.5) can source FCF from either the
// direct figure or total_revenue*fcf_margin.
type DCFInputs struct {
	FCF           *float64
	RevenueGrowth float64
	Shares        *int64
	TotalRevenue  *float64
	FCFMargin     *float64
}

// CalculateDCF implements the three-stage DCF from spec.md §4.5, grounded
// on original_source/app/fundamentals_analytics.py's IntrinsicValuationEngine.calculate_dcf.
func CalculateDCF(in DCFInputs) domain.DCFResult {
	fcf := in.FCF
	if fcf == nil || *fcf <= 0 {
		if in.TotalRevenue != nil && in.FCFMargin != nil {
			derived := *in.TotalRevenue * *in.FCFMargin
			fcf = &derived
		} else {
			return domain.DCFResult{Status: domain.ValuationInvalidInputs}
		}
	}
	if in.Shares == nil || *in.Shares <= 0 {
		return domain.DCFResult{Status: domain.ValuationInvalidInputs}
	}

	discountRate := defaultDiscountRate
	if in.FCFMargin != nil && *in.FCFMargin < thinMarginThreshold {
		discountRate += thinMarginRiskPremium
	}

	terminalGrowth := defaultTerminalGrowth
	currentFCF := *fcf

	pvStage1 := 0.0
	for i := 1; i <= 5; i++ {
		currentFCF *= 1 + in.RevenueGrowth
		pvStage1 += currentFCF / math.Pow(1+discountRate, float64(i))
	}

	pvStage2 := 0.0
	lastGrowth := in.RevenueGrowth
	fadeStep := (in.RevenueGrowth - terminalGrowth) / 5
	for i := 6; i <= 10; i++ {
		currentGrowth := math.Max(terminalGrowth, lastGrowth-fadeStep)
		currentFCF *= 1 + currentGrowth
		pvStage2 += currentFCF / math.Pow(1+discountRate, float64(i))
		lastGrowth = currentGrowth
	}

	terminalFCF := currentFCF * (1 + terminalGrowth)
	tv := terminalFCF / (discountRate - terminalGrowth)
	pvTV := tv / math.Pow(1+discountRate, 10)

	totalPV := pvStage1 + pvStage2 + pvTV
	valuePerShare := round2(totalPV / float64(*in.Shares))
	dominance := 0.0
	if totalPV != 0 {
		dominance = pvTV / totalPV
	}

	status := domain.ValuationValid
	if dominance > terminalDominanceKillSwitch {
		status = domain.ValuationTerminalValueDominant
	}

	return domain.DCFResult{
		ValuePerShare:          f(valuePerShare),
		Status:                 status,
		TerminalValueDominance: round2(dominance),
		Stage1PV:               round2(pvStage1),
		Stage2PV:               round2(pvStage2),
		TerminalPV:             round2(pvTV),
		DiscountRate:           discountRate,
		SensitivityGrid:        terminalGrowthSensitivity(*fcf, in.RevenueGrowth, discountRate, float64(*in.Shares)),
	}
}

// terminalGrowthSensitivity recomputes value-per-share at a small grid of
// alternate terminal growth rates, so callers can show how exposed the
// valuation is to that single assumption.
func terminalGrowthSensitivity(fcf, revenueGrowth, discountRate, shares float64) map[string]float64 {
	grid := map[string]float64{}
	for _, tg := range []float64{0.01, 0.02, 0.03, 0.04} {
		currentFCF := fcf
		pv := 0.0
		for i := 1; i <= 5; i++ {
			currentFCF *= 1 + revenueGrowth
			pv += currentFCF / math.Pow(1+discountRate, float64(i))
		}
		fadeStep := (revenueGrowth - tg) / 5
		lastGrowth := revenueGrowth
		for i := 6; i <= 10; i++ {
			currentGrowth := math.Max(tg, lastGrowth-fadeStep)
			currentFCF *= 1 + currentGrowth
			pv += currentFCF / math.Pow(1+discountRate, float64(i))
			lastGrowth = currentGrowth
		}
		terminalFCF := currentFCF * (1 + tg)
		tv := terminalFCF / (discountRate - tg)
		pv += tv / math.Pow(1+discountRate, 10)
		grid[formatPct(tg)] = round2(pv / shares)
	}
	return grid
}

func formatPct(v float64) string {
	switch v {
	case 0.01:
		return "1%"
	case 0.02:
		return "2%"
	case 0.03:
		return "3%"
	case 0.04:
		return "4%"
	default:
		return "?"
	}
}

// CalculateGraham implements the Graham-number valuation, defined only for
// strictly positive EPS and BVPS (spec.md §4.5).
func CalculateGraham(eps, bvps *float64) domain.GrahamResult {
	if eps == nil || bvps == nil || *eps <= 0 || *bvps <= 0 {
		return domain.GrahamResult{
			Status: domain.ValuationUndefined,
			Reason: "sqrt(22.5 * EPS * BVPS) requires strictly positive EPS and BVPS",
		}
	}
	val := round2(math.Sqrt(22.5 * *eps * *bvps))
	return domain.GrahamResult{Value: f(val), Status: domain.ValuationValid}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
