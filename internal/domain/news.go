package domain

import "time"

// NewsClassification is the signal/noise bucket assigned to a headline
// (spec.md §4.7).
type NewsClassification string

const (
	NewsSignal  NewsClassification = "SIGNAL"
	NewsNoise   NewsClassification = "NOISE"
	NewsNeutral NewsClassification = "NEUTRAL"
)

// NewsItem is a single deduplicated headline.
type NewsItem struct {
	Title          string             `json:"title"`
	Publisher      string             `json:"publisher"`
	URL            string             `json:"url"`
	PublishedAt    time.Time          `json:"published_at"`
	Classification NewsClassification `json:"classification"`
	Score          float64            `json:"score"`
}

// NewsDigest is the aggregated, scored, capped headline set for a ticker.
type NewsDigest struct {
	Ticker              string     `json:"ticker"`
	Items               []NewsItem `json:"items"`
	SignalScore         float64    `json:"signal_score"`
	NoiseRatio          float64    `json:"noise_ratio"`
	SourceDiversity     float64    `json:"source_diversity"`
	NarrativeTrapWarning bool      `json:"narrative_trap_warning"`
}
