package indicator

import (
	"math"

	"github.com/montanaflynn/stats"
)

func nanSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

// ema computes the exponential moving average, seeded with a simple
// average of the first `period` values; entries before the seed are NaN.
func ema(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if len(values) < period {
		return out
	}
	seed, err := stats.Mean(values[:period])
	if err != nil {
		return out
	}
	out[period-1] = seed
	k := 2.0 / float64(period+1)
	prev := seed
	for i := period; i < len(values); i++ {
		curr := values[i]*k + prev*(1-k)
		out[i] = curr
		prev = curr
	}
	return out
}

// wilderRSI computes RSI(period) using Wilder's smoothing method.
func wilderRSI(closes []float64, period int) []float64 {
	out := nanSeries(len(closes))
	if len(closes) <= period {
		return out
	}
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		diff := closes[i] - closes[i-1]
		if diff > 0 {
			gains[i] = diff
		} else {
			losses[i] = -diff
		}
	}
	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiFromAvg(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
		out[i] = rsiFromAvg(avgGain, avgLoss)
	}
	return out
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// macd returns the MACD line, signal line, and histogram for the given
// fast/slow/signal periods.
func macd(closes []float64, fast, slow, signalPeriod int) (line, signal, hist []float64) {
	fastEMA := ema(closes, fast)
	slowEMA := ema(closes, slow)
	line = nanSeries(len(closes))
	for i := range closes {
		if !math.IsNaN(fastEMA[i]) && !math.IsNaN(slowEMA[i]) {
			line[i] = fastEMA[i] - slowEMA[i]
		}
	}
	signal = ema(compact(line), signalPeriod)
	signal = expand(signal, line)
	hist = nanSeries(len(closes))
	for i := range closes {
		if !math.IsNaN(line[i]) && !math.IsNaN(signal[i]) {
			hist[i] = line[i] - signal[i]
		}
	}
	return line, signal, hist
}

// compact drops leading NaNs so ema() can seed correctly on a sub-series.
func compact(series []float64) []float64 {
	start := 0
	for start < len(series) && math.IsNaN(series[start]) {
		start++
	}
	return series[start:]
}

// expand re-aligns a series computed over compact(full) back to full's
// original indexing, left-padding with NaN.
func expand(compacted, full []float64) []float64 {
	offset := len(full) - len(compacted)
	out := nanSeries(len(full))
	for i, v := range compacted {
		out[offset+i] = v
	}
	return out
}

// atr implements Average True Range (Wilder smoothing).
func atr(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := nanSeries(n)
	if n <= period {
		return out
	}
	tr := make([]float64, n)
	tr[0] = highs[0] - lows[0]
	for i := 1; i < n; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += tr[i]
	}
	avg := sum / float64(period)
	out[period] = avg
	for i := period + 1; i < n; i++ {
		avg = (avg*float64(period-1) + tr[i]) / float64(period)
		out[i] = avg
	}
	return out
}

// adx implements the Average Directional Index over highs/lows/closes.
func adx(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := nanSeries(n)
	if n <= 2*period {
		return out
	}
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := highs[i] - highs[i-1]
		downMove := lows[i-1] - lows[i]
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	smooth := func(values []float64) []float64 {
		s := make([]float64, n)
		sum := 0.0
		for i := 1; i <= period; i++ {
			sum += values[i]
		}
		s[period] = sum
		for i := period + 1; i < n; i++ {
			s[i] = s[i-1] - s[i-1]/float64(period) + values[i]
		}
		return s
	}
	smTR := smooth(tr)
	smPlusDM := smooth(plusDM)
	smMinusDM := smooth(minusDM)

	dx := nanSeries(n)
	for i := period; i < n; i++ {
		if smTR[i] == 0 {
			continue
		}
		plusDI := 100 * smPlusDM[i] / smTR[i]
		minusDI := 100 * smMinusDM[i] / smTR[i]
		denom := plusDI + minusDI
		if denom == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * math.Abs(plusDI-minusDI) / denom
	}

	firstDX := period
	adxStart := firstDX + period
	if adxStart >= n {
		return out
	}
	sum := 0.0
	count := 0
	for i := firstDX; i < adxStart; i++ {
		if !math.IsNaN(dx[i]) {
			sum += dx[i]
			count++
		}
	}
	if count == 0 {
		return out
	}
	avg := sum / float64(count)
	out[adxStart] = avg
	for i := adxStart + 1; i < n; i++ {
		if math.IsNaN(dx[i]) {
			continue
		}
		avg = (avg*float64(period-1) + dx[i]) / float64(period)
		out[i] = avg
	}
	return out
}

// bollinger returns upper/middle/lower bands using a `period`-length SMA
// and `mult` standard deviations.
func bollinger(closes []float64, period int, mult float64) (upper, middle, lower []float64) {
	n := len(closes)
	upper, middle, lower = nanSeries(n), nanSeries(n), nanSeries(n)
	for i := period - 1; i < n; i++ {
		window := closes[i-period+1 : i+1]
		mean, err := stats.Mean(window)
		if err != nil {
			continue
		}
		sd, err := stats.StandardDeviation(window)
		if err != nil {
			continue
		}
		middle[i] = mean
		upper[i] = mean + mult*sd
		lower[i] = mean - mult*sd
	}
	return upper, middle, lower
}

// computeCCI implements Commodity Channel Index(period) at idx, with the
// MAD-based fallback from spec.md §4.3 when the primary formula yields NaN.
func computeCCI(highs, lows, closes []float64, idx, period int) (float64, bool) {
	if idx+1 < period {
		return 0, false
	}
	tp := make([]float64, idx+1)
	for i := 0; i <= idx; i++ {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	window := tp[idx-period+1 : idx+1]
	sma, err := stats.Mean(window)
	if err != nil {
		return 0, false
	}
	meanDev := 0.0
	for _, v := range window {
		meanDev += math.Abs(v - sma)
	}
	meanDev /= float64(period)

	var cci float64
	if meanDev == 0 {
		cci = math.NaN()
	} else {
		cci = (tp[idx] - sma) / (0.015 * meanDev)
	}

	if math.IsNaN(cci) {
		mad, err := stats.MedianAbsoluteDeviation(window)
		if err != nil || mad == 0 {
			mad = 1e-9
		}
		cci = (tp[idx] - sma) / (0.015 * mad)
	}
	if math.IsNaN(cci) {
		cci = 0
	}
	return cci, true
}
