package provider

import (
	"time"

	"github.com/sony/gobreaker"
)

// NewBreaker builds a circuit breaker for a single provider, grounded in
// infra/breakers/breakers.go's settings: trip after 3 consecutive failures,
// or a >5% failure rate once at least 20 requests have been observed in the
// rolling 60s interval.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 3 {
				return true
			}
			if counts.Requests < 20 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
		},
	}
	return gobreaker.NewCircuitBreaker(settings)
}

// CircuitStateValue maps a gobreaker.State to the 0/1/2 gauge value
// internal/metrics.Registry.CircuitState publishes.
func CircuitStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
