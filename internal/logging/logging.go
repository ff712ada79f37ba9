// Package logging configures the process-wide zerolog logger and hands out
// component-scoped child loggers, mirroring cmd/cryptorun/main.go's single
// logging setup call in the teacher repo.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Environment selects the console-vs-JSON rendering of the root logger.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Init configures the global zerolog logger once at process start. Calling
// it more than once is safe but pointless; it always replaces log.Logger.
func Init(env Environment, level zerolog.Level) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	if env == Production || env == Staging {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

// Component returns a child logger tagged with the given component name,
// the way every engine in this service identifies its log lines.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}

// WithRequest returns a child logger additionally tagged with a request id,
// used by the Orchestrator for every fan-out branch of a single analysis.
func WithRequest(l zerolog.Logger, requestID, ticker string) zerolog.Logger {
	return l.With().Str("request_id", requestID).Str("ticker", ticker).Logger()
}
