// Package scheduler runs the decision core's housekeeping jobs on a fixed
// cadence: a cache-version bump acting as a blunt invalidation safety net,
// and a sweep of the IP rate limiter so its per-IP state does not grow
// unbounded. Grounded on the
// teacher's cron wiring for periodic background work (najim2004-mrcrypto-go's
// internal/loader.Loader, which drives a robfig/cron job over a polling
// cycle) but re-pointed at housekeeping instead of signal generation.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/sawpanic/equitycore/internal/cache"
	"github.com/sawpanic/equitycore/internal/ratelimit"
)

// Config controls the two housekeeping cadences. Both accept any cron
// expression robfig/cron understands ("@every 1h", "0 */4 * * *", ...).
type Config struct {
	// CacheVersionBumpSpec controls how often BumpVersion is called. Empty
	// disables the job.
	CacheVersionBumpSpec string
	// SweepSpec controls how often the rate limiter's idle entries are
	// swept. Empty disables the job.
	SweepSpec string
	// SweepIdleSince is the idle threshold passed to IPLimiter.Sweep.
	SweepIdleSince time.Duration
}

// DefaultConfig matches the teacher's 4-hour regime-detector cadence for the
// cache-version bump, and a tighter 10-minute cadence for the limiter sweep
// since per-IP state churns far faster than cached analysis payloads.
func DefaultConfig() Config {
	return Config{
		CacheVersionBumpSpec: "@every 4h",
		SweepSpec:            "@every 10m",
		SweepIdleSince:       30 * time.Minute,
	}
}

// Scheduler owns a single cron.Cron instance running the housekeeping jobs.
type Scheduler struct {
	cron    *cron.Cron
	cache   cache.Cache
	limiter *ratelimit.IPLimiter
	log     zerolog.Logger
	cfg     Config
}

// New builds a Scheduler. cache or limiter may be nil to skip the
// corresponding job entirely (e.g. a deployment with no distributed cache
// configured has nothing for the version bump to invalidate).
func New(cfg Config, c cache.Cache, limiter *ratelimit.IPLimiter, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		cache:   c,
		limiter: limiter,
		log:     log.With().Str("component", "scheduler").Logger(),
		cfg:     cfg,
	}
}

// Start registers the configured jobs and begins running them in the
// background. It returns an error if a cron spec is malformed.
func (s *Scheduler) Start() error {
	if s.cfg.CacheVersionBumpSpec != "" && s.cache != nil {
		if _, err := s.cron.AddFunc(s.cfg.CacheVersionBumpSpec, s.bumpCacheVersion); err != nil {
			return fmt.Errorf("schedule cache version bump: %w", err)
		}
	}
	if s.cfg.SweepSpec != "" && s.limiter != nil {
		if _, err := s.cron.AddFunc(s.cfg.SweepSpec, s.sweepLimiter); err != nil {
			return fmt.Errorf("schedule limiter sweep: %w", err)
		}
	}
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
	return nil
}

// Stop blocks until any in-flight job finishes, then stops the cron loop.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) bumpCacheVersion() {
	next := time.Now().UTC().Format("20060102T150405")
	s.cache.BumpVersion(next)
	s.log.Info().Str("version", next).Msg("cache version bumped")
}

func (s *Scheduler) sweepLimiter() {
	s.limiter.Sweep(s.cfg.SweepIdleSince)
	s.log.Debug().Dur("idle_since", s.cfg.SweepIdleSince).Msg("rate limiter swept")
}
