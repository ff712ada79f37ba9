package provider

import (
	"errors"
	"fmt"
)

// ErrorKind is the provider-level error taxonomy from spec.md §7.
type ErrorKind string

const (
	KindTickerNotFound   ErrorKind = "TICKER_NOT_FOUND"
	KindLiquidityHalt    ErrorKind = "LIQUIDITY_HALT"
	KindProviderThrottled ErrorKind = "PROVIDER_THROTTLED"
	KindSensorError      ErrorKind = "SENSOR_ERROR"
)

// Error wraps a provider-level failure with its taxonomy kind, the
// provider name that produced it, and whether retrying (possibly against
// the next provider in the chain) might succeed.
type Error struct {
	Provider  string
	Kind      ErrorKind
	Message   string
	Temporary bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s[%s]: %s: %v", e.Provider, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Provider, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewTickerNotFound builds the error returned when a provider's result set
// for a ticker is empty.
func NewTickerNotFound(provider, ticker string) *Error {
	return &Error{Provider: provider, Kind: KindTickerNotFound, Message: "ticker not found: " + ticker}
}

// NewLiquidityHalt builds the error returned when fewer than 20 bars are
// available (spec.md §4.1).
func NewLiquidityHalt(provider string, bars int) *Error {
	return &Error{Provider: provider, Kind: KindLiquidityHalt, Message: fmt.Sprintf("only %d bars available, need >=20", bars)}
}

// NewThrottled builds the error returned when an upstream rate limit is hit;
// Temporary signals the caller may retry after a cool-down.
func NewThrottled(provider string, cause error) *Error {
	return &Error{Provider: provider, Kind: KindProviderThrottled, Message: "rate limited", Temporary: true, Cause: cause}
}

// NewSensorError wraps an arbitrary provider-side exception.
func NewSensorError(provider string, cause error) *Error {
	return &Error{Provider: provider, Kind: KindSensorError, Message: "sensor error", Temporary: true, Cause: cause}
}

// IsKind reports whether err (or something it wraps) is a provider Error of
// the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == kind
}
