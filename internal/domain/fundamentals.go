package domain

// FundamentalData is the wide nullable record produced by FundamentalsEngine
// pass A. Every field is optional; downstream rules must treat a missing
// field as a first-class case, never a silent zero (spec.md §9).
type FundamentalData struct {
	// Valuation
	ForwardPE           *float64 `json:"forward_pe"`
	TrailingPE          *float64 `json:"trailing_pe"`
	PriceToBook         *float64 `json:"price_to_book"`
	EnterpriseToRevenue *float64 `json:"enterprise_to_revenue"`
	EnterpriseToEBITDA  *float64 `json:"enterprise_to_ebitda"`
	EarningsYield       *float64 `json:"earnings_yield"`
	EPS                 *float64 `json:"eps"`
	BVPS                *float64 `json:"bvps"`
	Price               *float64 `json:"price"`

	// Profitability
	GrossMargin     *float64 `json:"gross_margin"`
	OperatingMargin *float64 `json:"operating_margin"`
	NetMargin       *float64 `json:"net_margin"`
	ROE             *float64 `json:"roe"`
	ROA             *float64 `json:"roa"`
	NetIncome       *float64 `json:"net_income"`
	NetIncomeToCommon *float64 `json:"net_income_to_common"`
	TotalEquity     *float64 `json:"total_equity"`
	TotalAssets     *float64 `json:"total_assets"`

	// Cash flow
	FreeCashFlow        *float64 `json:"free_cash_flow"`
	OperatingCashFlow   *float64 `json:"operating_cash_flow"`
	FreeCashFlowMargin  *float64 `json:"free_cash_flow_margin"`
	FCFToNIRatio        *float64 `json:"fcf_to_ni_ratio"`
	TotalRevenue        *float64 `json:"total_revenue"`

	// Growth
	RevenueGrowth *float64 `json:"revenue_growth"`
	EPSGrowth     *float64 `json:"eps_growth"`

	// Health
	TotalCash     *float64 `json:"total_cash"`
	TotalDebt     *float64 `json:"total_debt"`
	NetCash       *float64 `json:"net_cash"`
	NetCashStatus string   `json:"net_cash_status"`
	DebtToEquity  *float64 `json:"debt_to_equity"`
	CurrentRatio  *float64 `json:"current_ratio"`

	// Ownership / analyst
	InsiderOwnershipPct  *float64 `json:"insider_ownership_pct"`
	InstitutionalOwnershipPct *float64 `json:"institutional_ownership_pct"`
	AnalystTargetMean    *float64 `json:"analyst_target_mean"`
	AnalystCount         *int     `json:"analyst_count"`

	Shares *int64 `json:"shares_outstanding"`
	Sector string `json:"sector"`
}

// IntegrityViolation reports a math-consistency check that failed
// (spec.md §3 derived invariants).
type IntegrityViolation struct {
	Rule        string `json:"rule"`
	Description string `json:"description"`
}

// CheckIntegrity evaluates the two named derived invariants. It never
// mutates the record; callers decide how to react to violations.
func (f FundamentalData) CheckIntegrity() []IntegrityViolation {
	var violations []IntegrityViolation
	if f.OperatingMargin != nil && f.GrossMargin != nil && *f.OperatingMargin > *f.GrossMargin {
		violations = append(violations, IntegrityViolation{
			Rule:        "MARGIN_PARADOX",
			Description: "operating_margin exceeds gross_margin",
		})
	}
	if f.NetIncome != nil && f.ROE != nil && *f.NetIncome > 0 && *f.ROE < 0 {
		violations = append(violations, IntegrityViolation{
			Rule:        "SIGN_PARADOX",
			Description: "positive net income with negative ROE",
		})
	}
	return violations
}

// ValuationStatus enumerates the outcome of a valuation model run.
type ValuationStatus string

const (
	ValuationValid                    ValuationStatus = "VALID"
	ValuationInvalidInputs            ValuationStatus = "INVALID_INPUTS"
	ValuationUndefined                ValuationStatus = "UNDEFINED"
	ValuationTerminalValueDominant    ValuationStatus = "TERMINAL_VALUE_DOMINANT_WARNING"
)

// DCFResult is the three-stage discounted cash flow output (spec.md §4.5).
type DCFResult struct {
	ValuePerShare           *float64        `json:"value_per_share"`
	Status                  ValuationStatus `json:"status"`
	TerminalValueDominance  float64         `json:"terminal_value_dominance"`
	Stage1PV                float64         `json:"stage1_pv"`
	Stage2PV                float64         `json:"stage2_pv"`
	TerminalPV              float64         `json:"terminal_pv"`
	DiscountRate            float64         `json:"discount_rate"`
	SensitivityGrid         map[string]float64 `json:"terminal_growth_sensitivity"`
}

// GrahamResult is the Graham number valuation output (spec.md §4.5).
type GrahamResult struct {
	Value  *float64        `json:"value"`
	Status ValuationStatus `json:"status"`
	Reason string          `json:"reason,omitempty"`
}

// QualityGrade is the letter-style grade from pillar scoring (pass B).
type QualityGrade string

const (
	GradeA QualityGrade = "A"
	GradeB QualityGrade = "B"
	GradeC QualityGrade = "C"
	GradeD QualityGrade = "D"
	GradeF QualityGrade = "F"
)

// RiskLevel buckets the RiskAssessment score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskElevated RiskLevel = "ELEVATED"
	RiskSevere   RiskLevel = "SEVERE"
)

// RiskAssessment is the qualitative risk readout from pass B.
type RiskAssessment struct {
	Level   RiskLevel `json:"level"`
	Score   float64   `json:"score"` // 0..100
	Factors []string  `json:"factors"`
}

// FundamentalInferences is the pass-B qualitative labelling layer.
type FundamentalInferences struct {
	Valuation      string       `json:"valuation"`
	Growth         string       `json:"growth"`
	Health         string       `json:"health"`
	Efficiency     string       `json:"efficiency"`
	EarningsQuality string      `json:"earnings_quality"`
	QualityGrade   QualityGrade `json:"quality_grade"`
	Risk           RiskAssessment `json:"risk"`
}

// FundamentalsResult bundles both passes plus valuations for downstream use.
type FundamentalsResult struct {
	Raw         FundamentalData       `json:"raw"`
	Integrity   []IntegrityViolation  `json:"integrity_violations"`
	Inferences  FundamentalInferences `json:"inferences"`
	DCF         DCFResult             `json:"dcf"`
	Graham      GrahamResult          `json:"graham"`
	PeerPercentile *float64           `json:"peer_percentile"`
}
