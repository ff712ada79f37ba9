// Package provider implements the polymorphic DataProvider capability set
// from spec.md §4.1: a failover chain over vendor clients, each wrapped in
// its own circuit breaker, grounded in the teacher's
// internal/provider/fallback_chain.go and infra/breakers/breakers.go.
//
// Vendor clients themselves (Polygon, Finnhub, yahoo-style scrapers) are
// out of scope per spec.md §1 ("Specific data-vendor client code ... not
// reimplemented here"); this package defines the DataProvider interface
// callers are wired against and a deterministic in-memory provider used by
// tests and local `analyze` runs.
package provider

import (
	"context"
	"time"

	"github.com/sawpanic/equitycore/internal/domain"
)

// DataProvider is the capability set every vendor client implements
// (spec.md §9: "express as a capability set rather than a runtime class
// hierarchy").
type DataProvider interface {
	Name() string
	FetchPriceHistory(ctx context.Context, ticker, interval, period string) (domain.Series, error)
	FetchTickerInfo(ctx context.Context, ticker string) (map[string]any, error)
}

// IsJunkInfo reports whether a ticker-info map is too sparse to trust
// (spec.md §4.1: "<10 keys or missing name fields" must trigger
// reconstruction from financial statements).
func IsJunkInfo(info map[string]any) bool {
	if len(info) < 10 {
		return true
	}
	_, hasName := info["name"]
	_, hasLongName := info["long_name"]
	return !hasName && !hasLongName
}

// PeriodForInterval derives the fetch period from an interval string
// (spec.md §4.2): intraday intervals of 60 minutes or less get 60 days of
// history, everything else gets 1 year.
func PeriodForInterval(interval string) string {
	switch interval {
	case "1m", "5m", "15m", "30m", "60m":
		return "60d"
	default:
		return "1y"
	}
}

// Snapshot is what FetchPriceHistory ultimately returns to a caller once
// the failover chain has picked a winner; Provider is attached so the
// Orchestrator can surface which vendor served the data.
type Snapshot struct {
	Series    domain.Series
	Info      map[string]any
	Provider  string
	FetchedAt time.Time
}
