package fundamentals

import "github.com/sawpanic/equitycore/internal/domain"

// pillarWeights are the weighted pillar contributions to QualityGrade,
// drawn from the latest-versioned rule set per spec.md §9's note resolving
// the multi-source weight disagreement.
var pillarWeights = map[string]float64{
	"profitability": 0.35,
	"growth":        0.20,
	"health":        0.25,
	"efficiency":    0.20,
}

// Infer runs pass B: qualitative labelling, risk assessment, and the
// weighted-pillar quality grade, grounded on
// original_source/app/fundamentals_rules.py's rule engine.
func Infer(raw domain.FundamentalData, sectorOperatingMarginBenchmark *float64) domain.FundamentalInferences {
	valuation := classifyValuation(raw)
	growth := classifyGrowth(raw)
	health := classifyHealth(raw)
	efficiency := classifyEfficiency(raw)
	earningsQuality := "UNKNOWN"

	risk := assessRisk(raw)

	pillars := map[string]float64{
		"profitability": pillarScore(raw.NetMargin, 0, 0.25),
		"growth":        pillarScore(raw.RevenueGrowth, -0.1, 0.3),
		"health":        healthPillarScore(raw),
		"efficiency":    pillarScore(raw.ROA, -0.05, 0.2),
	}
	grade := weightedGrade(pillars)

	// Margin-fragility hard cap: operating margin below half the sector
	// benchmark with negative FCF caps the grade at a C-equivalent score
	// regardless of the weighted pillar result (spec.md §4.5).
	if sectorOperatingMarginBenchmark != nil && raw.OperatingMargin != nil &&
		*raw.OperatingMargin < *sectorOperatingMarginBenchmark/2 &&
		raw.FreeCashFlow != nil && *raw.FreeCashFlow < 0 {
		grade = capGrade(grade, GradeCEquivalent)
	}

	return domain.FundamentalInferences{
		Valuation:       valuation,
		Growth:          growth,
		Health:          health,
		Efficiency:      efficiency,
		EarningsQuality: earningsQuality,
		QualityGrade:    grade,
		Risk:            risk,
	}
}

const GradeCEquivalent = 65.0 // the hard cap score spec.md §4.5 names ("margin-fragility hard cap (65)")

func classifyValuation(raw domain.FundamentalData) string {
	if raw.ForwardPE == nil {
		return "UNKNOWN"
	}
	switch {
	case *raw.ForwardPE < 15:
		return "UNDERVALUED"
	case *raw.ForwardPE > 30:
		return "OVERVALUED"
	default:
		return "FAIRLY_VALUED"
	}
}

func classifyGrowth(raw domain.FundamentalData) string {
	if raw.RevenueGrowth == nil {
		return "UNKNOWN"
	}
	switch {
	case *raw.RevenueGrowth > 0.20:
		return "HIGH_GROWTH"
	case *raw.RevenueGrowth > 0.05:
		return "MODERATE_GROWTH"
	case *raw.RevenueGrowth >= 0:
		return "LOW_GROWTH"
	default:
		return "CONTRACTING"
	}
}

func classifyHealth(raw domain.FundamentalData) string {
	if raw.NetCashStatus == "Net Cash" {
		return "STRONG_BALANCE_SHEET"
	}
	if raw.DebtToEquity != nil && *raw.DebtToEquity > 2.0 {
		return "HIGHLY_LEVERAGED"
	}
	return "MODERATE_LEVERAGE"
}

func classifyEfficiency(raw domain.FundamentalData) string {
	if raw.ROA == nil {
		return "UNKNOWN"
	}
	switch {
	case *raw.ROA > 0.10:
		return "EFFICIENT"
	case *raw.ROA > 0:
		return "ADEQUATE"
	default:
		return "INEFFICIENT"
	}
}

func assessRisk(raw domain.FundamentalData) domain.RiskAssessment {
	score := 50.0
	var factors []string

	if raw.DebtToEquity != nil && *raw.DebtToEquity > 2.0 {
		score += 20
		factors = append(factors, "high leverage")
	}
	if raw.CurrentRatio != nil && *raw.CurrentRatio < 1.0 {
		score += 15
		factors = append(factors, "weak liquidity")
	}
	if raw.FreeCashFlow != nil && *raw.FreeCashFlow < 0 {
		score += 10
		factors = append(factors, "negative free cash flow")
	}
	if raw.NetMargin != nil && *raw.NetMargin < 0 {
		score += 10
		factors = append(factors, "unprofitable")
	}
	score = clampScore(score)

	level := domain.RiskLow
	switch {
	case score >= 80:
		level = domain.RiskSevere
	case score >= 60:
		level = domain.RiskElevated
	case score >= 40:
		level = domain.RiskModerate
	}

	return domain.RiskAssessment{Level: level, Score: score, Factors: factors}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func pillarScore(v *float64, lo, hi float64) float64 {
	if v == nil {
		return 50
	}
	if hi == lo {
		return 50
	}
	normalized := (*v - lo) / (hi - lo) * 100
	return clampScore(normalized)
}

func healthPillarScore(raw domain.FundamentalData) float64 {
	if raw.NetCashStatus == "Net Cash" {
		return 85
	}
	return pillarScore(raw.DebtToEquity, 3.0, 0.0) // inverted: lower D/E is healthier
}

func weightedGrade(pillars map[string]float64) domain.QualityGrade {
	total := 0.0
	for name, weight := range pillarWeights {
		total += pillars[name] * weight
	}
	return gradeFromScore(total)
}

func gradeFromScore(score float64) domain.QualityGrade {
	switch {
	case score >= 85:
		return domain.GradeA
	case score >= 70:
		return domain.GradeB
	case score >= 55:
		return domain.GradeC
	case score >= 40:
		return domain.GradeD
	default:
		return domain.GradeF
	}
}

func capGrade(current domain.QualityGrade, capScore float64) domain.QualityGrade {
	capped := gradeFromScore(capScore)
	if gradeRank(capped) < gradeRank(current) {
		return capped
	}
	return current
}

func gradeRank(g domain.QualityGrade) int {
	switch g {
	case domain.GradeA:
		return 5
	case domain.GradeB:
		return 4
	case domain.GradeC:
		return 3
	case domain.GradeD:
		return 2
	default:
		return 1
	}
}
