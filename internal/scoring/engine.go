// Package scoring implements ScoringEngine (spec.md §4.4): a Bayesian-odds
// update from Technicals to an AlgoSignal, regime-conditioned on trend
// strength, grounded in the teacher's internal/scoring/model.go weighting
// style but replacing its momentum/residual factor stack with the
// likelihood-ratio table spec.md fixes explicitly (per spec.md §9's note
// that this spec chooses one consistent weight set).
package scoring

import (
	"math"

	"github.com/sawpanic/equitycore/internal/domain"
)

// Score converts a Technicals record into an AlgoSignal.
func Score(t domain.Technicals) domain.AlgoSignal {
	if t.RSI == nil || t.MACDHistogram == nil || t.EMA50 == nil {
		return domain.InsufficientSignal()
	}

	regime := domain.RegimeRange
	trending := t.ADX != nil && *t.ADX >= 20
	if trending {
		regime = domain.RegimeTrending
	}

	odds := 1.0 // prior 0.5 -> odds 1:1

	if trending {
		switch t.TrendStructure {
		case domain.TrendBullish:
			odds *= 1.6
		case domain.TrendBearish:
			odds *= 0.6
		}
		if t.EMA200 != nil {
			if *t.EMA50 > *t.EMA200 {
				odds *= 1.25
			} else {
				odds *= 0.8
			}
		}
		if *t.MACDHistogram > 0 {
			odds *= 1.15
		}
		if *t.RSI > 80 {
			odds *= 0.7
		} else if *t.RSI > 60 {
			odds *= 1.2
		}
	} else {
		if *t.RSI < 30 {
			odds *= 1.7
		} else if *t.RSI > 70 {
			odds *= 0.6
		}
		if t.BBPosition != nil {
			if *t.BBPosition < 0.1 {
				odds *= 1.4
			} else if *t.BBPosition > 0.9 {
				odds *= 0.7
			}
		}
		if *t.MACDHistogram < -2 {
			odds *= 0.8
		}
	}

	if t.ATRPercent != nil && *t.ATRPercent > 3.5 {
		odds *= 0.75
	}

	pWin := odds / (1 + odds)
	pWin = clamp(pWin, 0.10, 0.90)

	opportunity := (pWin - 0.5) * 200
	atrPct := 0.0
	if t.ATRPercent != nil {
		atrPct = *t.ATRPercent
	}
	stability := clamp((2.5-atrPct)*40, -100, 100)
	overall := opportunity*0.7 + stability*0.3
	confluence := int(math.Floor(pWin * 10))

	volRisk := volatilityRisk(t.ATRPercent)
	volScore, volLabel := volumeScore(t.VolumeRatio)

	return domain.AlgoSignal{
		Overall:    detail(overall, -100, 100, trendLabel(overall), "Composite opportunity/stability blend"),
		Trend:      detail(score01(trending), 0, 1, string(t.TrendStructure), "Trend regime classification"),
		Momentum:   detail(*t.MACDHistogram, -100, 100, momentumLabel(*t.MACDHistogram), "MACD histogram momentum"),
		Volatility: detail(atrPct, 0, 100, string(volRisk), "ATR percent of price"),
		Volume:     detail(volScore, 0, 100, volLabel, "20d volume ratio"),
		PWin:            pWin,
		ConfluenceScore: confluence,
		VolatilityRisk:  volRisk,
		Regime:          regime,
	}
}

func detail(value, min, max float64, label, legend string) domain.ScoreDetail {
	return domain.ScoreDetail{Value: value, Min: min, Max: max, Label: label, Legend: legend}
}

func score01(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func trendLabel(overall float64) string {
	switch {
	case overall >= 20:
		return "BULLISH"
	case overall <= -20:
		return "BEARISH"
	default:
		return "NEUTRAL"
	}
}

func momentumLabel(hist float64) string {
	if hist > 0 {
		return "POSITIVE"
	}
	if hist < 0 {
		return "NEGATIVE"
	}
	return "FLAT"
}

func volatilityRisk(atrPercent *float64) domain.VolatilityRisk {
	if atrPercent == nil {
		return domain.VolUnknown
	}
	switch {
	case *atrPercent < 1.5:
		return domain.VolLow
	case *atrPercent < 3.0:
		return domain.VolModerate
	default:
		return domain.VolHigh
	}
}

// volumeScore maps a volume ratio onto [0,100] per spec.md §4.4 with
// buckets LOW<0.8<=NORMAL<=1.2<HIGH<=1.5<VERY_HIGH.
func volumeScore(ratio *float64) (float64, string) {
	if ratio == nil {
		return 0, "UNKNOWN"
	}
	r := *ratio
	var value float64
	switch {
	case r <= 1:
		value = r * 50
	case r <= 2:
		value = 50 + (r-1)*50
	default:
		value = 100
	}
	var label string
	switch {
	case r < 0.8:
		label = "LOW"
	case r <= 1.2:
		label = "NORMAL"
	case r <= 1.5:
		label = "HIGH"
	default:
		label = "VERY_HIGH"
	}
	return clamp(value, 0, 100), label
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
