package fundamentals

import "github.com/sawpanic/equitycore/internal/domain"

// Inputs bundles the vendor-sourced raw record plus the extra context the
// DCF/peer-comparison stages need.
type Inputs struct {
	Raw                            domain.FundamentalData
	QuarterlyRevenueDescending     []float64
	SectorOperatingMarginBenchmark *float64
	PeerForwardPEs                 []float64
}

// Run executes both passes plus valuation models, returning a complete
// FundamentalsResult (spec.md §4.5).
func Run(in Inputs) domain.FundamentalsResult {
	raw := DeriveRaw(in.Raw)
	if raw.RevenueGrowth == nil {
		raw.RevenueGrowth = RevenueGrowthFromQuarters(in.QuarterlyRevenueDescending, in.Raw.RevenueGrowth)
	}

	integrity := raw.CheckIntegrity()
	inferences := Infer(raw, in.SectorOperatingMarginBenchmark)

	revGrowth := 0.0
	if raw.RevenueGrowth != nil {
		revGrowth = *raw.RevenueGrowth
	}
	dcf := CalculateDCF(DCFInputs{
		FCF:           raw.FreeCashFlow,
		RevenueGrowth: revGrowth,
		Shares:        raw.Shares,
		TotalRevenue:  raw.TotalRevenue,
		FCFMargin:     raw.FreeCashFlowMargin,
	})
	graham := CalculateGraham(raw.EPS, raw.BVPS)

	var peerPercentile *float64
	if raw.ForwardPE != nil && len(in.PeerForwardPEs) > 0 {
		p := PeerPercentile(*raw.ForwardPE, in.PeerForwardPEs)
		peerPercentile = &p
	}

	return domain.FundamentalsResult{
		Raw:            raw,
		Integrity:      integrity,
		Inferences:     inferences,
		DCF:            dcf,
		Graham:         graham,
		PeerPercentile: peerPercentile,
	}
}

// PeerPercentile returns the fraction of peers with a forward P/E greater
// than or equal to value's own, i.e. how cheap value is relative to peers.
func PeerPercentile(value float64, peers []float64) float64 {
	if len(peers) == 0 {
		return 0.5
	}
	count := 0
	for _, p := range peers {
		if p >= value {
			count++
		}
	}
	return float64(count) / float64(len(peers))
}

// SloanResult is the accrual-quality read used by Governor rule R5.
type SloanResult struct {
	Ratio  float64
	Status string
}

// SloanRatio implements the accrual-quality check from
// original_source/app/fundamentals_analytics.py's AccrualQualityAnalyzer:
// (NetIncome - OperatingCashFlow) / TotalAssets, flagged above 0.10.
func SloanRatio(netIncome, operatingCashFlow, totalAssets *float64) *SloanResult {
	if netIncome == nil || operatingCashFlow == nil || totalAssets == nil || *totalAssets == 0 {
		return nil
	}
	ratio := (*netIncome - *operatingCashFlow) / *totalAssets
	status := "NORMAL"
	if ratio > 0.10 {
		status = "MANIPULATION_RISK_HIGH"
	}
	return &SloanResult{Ratio: ratio, Status: status}
}
