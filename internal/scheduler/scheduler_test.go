package scheduler

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/equitycore/internal/cache"
	"github.com/sawpanic/equitycore/internal/ratelimit"
)

func TestStart_RegistersCacheVersionBumpJob(t *testing.T) {
	c := cache.NewRedisCache(nil, "v0", zerolog.Nop())
	s := New(Config{CacheVersionBumpSpec: "@every 1h"}, c, nil, zerolog.Nop())

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Equal(t, "v0", c.Version())
	s.bumpCacheVersion()
	assert.NotEqual(t, "v0", c.Version())
}

func TestStart_SkipsJobsWithEmptySpecOrNilDeps(t *testing.T) {
	s := New(Config{}, nil, nil, zerolog.Nop())
	require.NoError(t, s.Start())
	s.Stop()
}

func TestStart_RejectsMalformedCronSpec(t *testing.T) {
	c := cache.NewRedisCache(nil, "v0", zerolog.Nop())
	s := New(Config{CacheVersionBumpSpec: "not a cron spec"}, c, nil, zerolog.Nop())
	assert.Error(t, s.Start())
}

func TestSweepLimiter_RunsOnPartiallyDrainedLimiter(t *testing.T) {
	limiter := ratelimit.New(60)
	limiter.Allow("1.2.3.4")

	s := New(DefaultConfig(), nil, limiter, zerolog.Nop())
	time.Sleep(time.Millisecond)
	s.sweepLimiter()
}

func TestDefaultConfig_HasNonEmptySpecs(t *testing.T) {
	cfg := DefaultConfig()
	assert.NotEmpty(t, cfg.CacheVersionBumpSpec)
	assert.NotEmpty(t, cfg.SweepSpec)
	assert.Greater(t, cfg.SweepIdleSince, time.Duration(0))
}
