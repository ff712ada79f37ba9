// Package indicator implements IndicatorEngine (spec.md §4.3): a pure
// function from an OHLCV series to a Technicals record, with explicit
// null-preservation and poison clamps rather than zero-fill, grounded in
// the teacher's factors/orthogonal.go numerical style and
// github.com/montanaflynn/stats for mean/stdev/MAD helpers (pack dep
// wired per SPEC_FULL.md's domain-stack table).
package indicator

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/sawpanic/equitycore/internal/domain"
)

const minSeriesLength = 50

// Compute runs the full indicator suite over series and returns a
// Technicals record extracted from the last non-NaN row. It never panics
// and never returns an error: insufficient or degenerate input always
// yields a best-effort (possibly all-null) Technicals, per spec.md §4.3.
func Compute(series domain.Series) domain.Technicals {
	bars := series.Bars
	if len(bars) < minSeriesLength {
		return domain.NeutralTechnicals()
	}

	closes := closesOf(bars)
	highs := highsOf(bars)
	lows := lowsOf(bars)
	volumes := volumesOf(bars)

	idx := lastValidIndex(closes)
	if idx < 0 {
		return domain.NeutralTechnicals()
	}

	t := domain.Technicals{}
	t.LastClose = ptr(closes[idx])

	rsiSeries := wilderRSI(closes, 14)
	ema50Series := ema(closes, 50)
	ema20Series := ema(closes, 20)
	ema200Series := ema(closes, 200)

	if v, ok := at(rsiSeries, idx); ok {
		t.RSI = ptr(v)
	}
	if v, ok := at(ema20Series, idx); ok {
		t.EMA20 = ptr(v)
	}
	if v, ok := at(ema50Series, idx); ok {
		t.EMA50 = ptr(v)
	}
	if v, ok := at(ema200Series, idx); ok {
		t.EMA200 = ptr(v)
	}

	macdLine, macdSignal, macdHist := macd(closes, 12, 26, 9)
	if v, ok := at(macdLine, idx); ok {
		t.MACDLine = ptr(v)
	}
	if v, ok := at(macdSignal, idx); ok {
		t.MACDSignal = ptr(v)
	}
	if v, ok := at(macdHist, idx); ok {
		t.MACDHistogram = ptr(v)
	}

	adxSeries := adx(highs, lows, closes, 14)
	if v, ok := at(adxSeries, idx); ok {
		t.ADX = ptr(v)
	}

	atrSeries := atr(highs, lows, closes, 14)
	if v, ok := at(atrSeries, idx); ok {
		t.ATR = ptr(v)
		if closes[idx] != 0 {
			t.ATRPercent = ptr(v / closes[idx] * 100)
		}
	}

	if cci, ok := computeCCI(highs, lows, closes, idx, 20); ok {
		if math.Abs(cci) > 5000 {
			t.CCI = nil // poison clamp, spec.md §4.3
		} else {
			t.CCI = ptr(cci)
		}
	}

	bbUpper, bbMiddle, bbLower := bollinger(closes, 20, 2.0)
	if u, ok := at(bbUpper, idx); ok {
		if m, ok2 := at(bbMiddle, idx); ok2 {
			if l, ok3 := at(bbLower, idx); ok3 {
				t.BBUpper = ptr(u)
				t.BBMiddle = ptr(m)
				t.BBLower = ptr(l)
				if u != l {
					t.BBPosition = ptr((closes[idx] - l) / (u - l))
				}
			}
		}
	}

	volAvg20, ok := sma(volumes, 20, idx)
	if ok {
		t.VolumeAvg20d = ptr(volAvg20)
		t.VolumeCurrent = ptr(volumes[idx])
		if volAvg20 != 0 {
			ratio := volumes[idx] / volAvg20
			if ratio < 0 || ratio > 100 {
				t.VolumeRatio = nil // poison clamp, spec.md §4.3
			} else {
				t.VolumeRatio = ptr(ratio)
			}
		}
	}

	h, l, c := highs[idx], lows[idx], closes[idx]
	pivot := (h + l + c) / 3
	t.ResistanceR1 = ptr(2*pivot - l)
	t.ResistanceR2 = ptr(pivot + (h - l))
	t.SupportS1 = ptr(2*pivot - h)
	t.SupportS2 = ptr(pivot - (h - l))

	t.RSISignal = rsiSignal(t.RSI, t.EMA50, closes[idx])
	t.TrendStructure = trendStructure(t.ADX, closes[idx], t.EMA20, t.EMA50, t.EMA200)

	return t
}

func rsiSignal(rsi, ema50 *float64, close float64) domain.RSISignal {
	if rsi == nil {
		return domain.RSINeutral
	}
	switch {
	case *rsi < 30 && ema50 != nil && close >= *ema50:
		return domain.RSIBullish
	case *rsi < 30:
		return domain.RSINeutral // falling-knife veto, spec.md §4.3
	case *rsi > 70:
		return domain.RSIBearish
	default:
		return domain.RSINeutral
	}
}

func trendStructure(adx *float64, close float64, ema20, ema50, ema200 *float64) domain.TrendStructure {
	if adx == nil || *adx < 20 {
		return domain.TrendNeutralTransition
	}
	if ema20 != nil && ema50 != nil && ema200 != nil {
		if close > *ema20 && *ema20 > *ema50 && *ema50 > *ema200 {
			return domain.TrendBullish
		}
		if close < *ema20 && *ema20 < *ema50 && *ema50 < *ema200 {
			return domain.TrendBearish
		}
	}
	if ema200 != nil && ema50 != nil {
		if close > *ema200 && *ema50 > *ema200 {
			return domain.TrendBullish
		}
		if close < *ema200 && *ema50 < *ema200 {
			return domain.TrendBearish
		}
	}
	return domain.TrendNeutral
}

func ptr(v float64) *float64 { return &v }

func lastValidIndex(closes []float64) int {
	for i := len(closes) - 1; i >= 0; i-- {
		if !math.IsNaN(closes[i]) {
			return i
		}
	}
	return -1
}

func at(series []float64, idx int) (float64, bool) {
	if idx < 0 || idx >= len(series) {
		return 0, false
	}
	v := series[idx]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func closesOf(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func highsOf(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

func lowsOf(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}

func volumesOf(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

func sma(values []float64, period, idx int) (float64, bool) {
	if idx+1 < period {
		return 0, false
	}
	mean, err := stats.Mean(values[idx-period+1 : idx+1])
	if err != nil {
		return 0, false
	}
	return mean, true
}
