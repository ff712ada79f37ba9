package domain

// RSISignal discriminates the RSI reading into a directional bucket.
type RSISignal string

const (
	RSIBullish RSISignal = "BULLISH"
	RSIBearish RSISignal = "BEARISH"
	RSINeutral RSISignal = "NEUTRAL"
)

// TrendStructure discriminates the EMA/ADX trend read.
type TrendStructure string

const (
	TrendBullish          TrendStructure = "BULLISH"
	TrendBearish          TrendStructure = "BEARISH"
	TrendNeutral          TrendStructure = "NEUTRAL"
	TrendNeutralTransition TrendStructure = "Neutral/Transition"
)

// Technicals is the output of IndicatorEngine. Every numeric field is a
// pointer so that "missing" and "zero" are distinguishable; poisoned values
// are nulled out rather than clamped to a sentinel number.
type Technicals struct {
	RSI            *float64 `json:"rsi"`
	MACDLine       *float64 `json:"macd_line"`
	MACDSignal     *float64 `json:"macd_signal"`
	MACDHistogram  *float64 `json:"macd_histogram"`
	ADX            *float64 `json:"adx"`
	ATR            *float64 `json:"atr"`
	ATRPercent     *float64 `json:"atr_percent"`
	CCI            *float64 `json:"cci"`
	BBUpper        *float64 `json:"bb_upper"`
	BBMiddle       *float64 `json:"bb_middle"`
	BBLower        *float64 `json:"bb_lower"`
	BBPosition     *float64 `json:"bb_position"`
	SupportS1      *float64 `json:"s1"`
	SupportS2      *float64 `json:"s2"`
	ResistanceR1   *float64 `json:"r1"`
	ResistanceR2   *float64 `json:"r2"`
	EMA20          *float64 `json:"ema_20"`
	EMA50          *float64 `json:"ema_50"`
	EMA200         *float64 `json:"ema_200"`
	VolumeAvg20d   *float64 `json:"volume_avg_20d"`
	VolumeCurrent  *float64 `json:"volume_current"`
	VolumeRatio    *float64 `json:"volume_ratio"`
	LastClose      *float64 `json:"last_close"`
	RSISignal      RSISignal      `json:"rsi_signal"`
	TrendStructure TrendStructure `json:"trend_structure"`
}

// NeutralTechnicals is returned by IndicatorEngine when the input series is
// too short to compute anything (spec.md §4.3 hard gate: len < 50).
func NeutralTechnicals() Technicals {
	return Technicals{
		RSISignal:      RSINeutral,
		TrendStructure: TrendNeutral,
	}
}
