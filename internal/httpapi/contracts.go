// Package httpapi exposes the external HTTP surface (spec.md §6): a
// gorilla/mux dispatcher over the Orchestrator and the individual sensors,
// grounded in the teacher's internal/interfaces/http package (server.go,
// handlers/, contracts.go) but re-pointed at equity analysis payloads
// instead of crypto candidate scans.
package httpapi

import (
	"time"

	"github.com/sawpanic/equitycore/internal/domain"
)

// ErrorResponse is the standardized error envelope every non-2xx response
// uses, matching the teacher's internal/http.ErrorResponse shape.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse is the /health payload from spec.md §6. Uptime carries both
// the raw seconds (for monitoring) and a humanize.RelTime rendering (for the
// operator staring at curl output).
type HealthResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Uptime        string  `json:"uptime"`
	Version       string  `json:"version"`
}

// TechnicalResponse is the /technical/{ticker} payload: the indicator set
// for a single interval, computed on demand rather than through the full
// analyze() pipeline.
type TechnicalResponse struct {
	Ticker    string            `json:"ticker"`
	Interval  string            `json:"interval"`
	Timestamp time.Time         `json:"timestamp"`
	Technicals domain.Technicals `json:"technicals"`
	Signal    domain.AlgoSignal `json:"signal"`
}

// FundamentalResponse is the /fundamental/{ticker} payload.
type FundamentalResponse struct {
	Ticker    string                   `json:"ticker"`
	Timestamp time.Time                `json:"timestamp"`
	Result    domain.FundamentalsResult `json:"result"`
}

// NewsResponse is the /news/{ticker} payload.
type NewsResponse struct {
	Ticker    string           `json:"ticker"`
	Timestamp time.Time        `json:"timestamp"`
	Digest    domain.NewsDigest `json:"digest"`
}

// ContextResponse is the /context/{ticker} payload.
type ContextResponse struct {
	Ticker    string              `json:"ticker"`
	Timestamp time.Time           `json:"timestamp"`
	Context   domain.MarketContext `json:"context"`
}

// ResearchReportResponse is the /research/{ticker}/report payload: the full
// analyze() response with the narrative forced on, for a human reader
// rather than an execution system.
type ResearchReportResponse struct {
	Ticker    string          `json:"ticker"`
	Timestamp time.Time       `json:"timestamp"`
	Report    domain.Response `json:"report"`
}
