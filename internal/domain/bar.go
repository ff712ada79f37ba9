// Package domain holds the request-scoped, immutable data model shared by
// every engine in the decision core: bars, technicals, signals,
// fundamentals, context, and the final trading decision.
package domain

import (
	"fmt"
	"time"
)

// Bar is a single OHLCV observation. Series are strictly time-ordered
// ascending; callers must not mutate a Bar once it is part of a Series.
type Bar struct {
	Timestamp time.Time `json:"ts"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Validate checks the OHLCV invariants from spec.md §3. It does not check
// ordering against neighboring bars; Series.Validate does that.
func (b Bar) Validate() error {
	if b.High < b.Open || b.High < b.Close {
		return fmt.Errorf("bar %s: high %.4f below max(open,close)", b.Timestamp, b.High)
	}
	if b.Low > b.Open || b.Low > b.Close {
		return fmt.Errorf("bar %s: low %.4f above min(open,close)", b.Timestamp, b.Low)
	}
	if b.Volume < 0 {
		return fmt.Errorf("bar %s: negative volume %.4f", b.Timestamp, b.Volume)
	}
	return nil
}

// Series is an ordered collection of Bars, ascending by Timestamp.
type Series struct {
	Ticker   string `json:"ticker"`
	Interval string `json:"interval"`
	Provider string `json:"provider"`
	Bars     []Bar  `json:"bars"`
}

// Validate enforces per-bar invariants plus strict ascending ordering.
func (s Series) Validate() error {
	for i, bar := range s.Bars {
		if err := bar.Validate(); err != nil {
			return fmt.Errorf("series %s/%s: %w", s.Ticker, s.Interval, err)
		}
		if i > 0 && !bar.Timestamp.After(s.Bars[i-1].Timestamp) {
			return fmt.Errorf("series %s/%s: bar %d out of order", s.Ticker, s.Interval, i)
		}
	}
	return nil
}

// Last returns the most recent bar and true, or a zero Bar and false when
// the series is empty.
func (s Series) Last() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}
