package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGet_RoundTripsThroughMemoryFallbackWhenNoClient(t *testing.T) {
	c := NewRedisCache(nil, "v1", zerolog.Nop())
	defer c.Close()

	c.Set(context.Background(), "ticker:ACME", map[string]string{"a": "b"}, time.Minute)

	var out map[string]string
	ok := GetJSON(context.Background(), c, "ticker:ACME", &out)
	require.True(t, ok)
	assert.Equal(t, "b", out["a"])
}

func TestGet_MissReturnsFalse(t *testing.T) {
	c := NewRedisCache(nil, "v1", zerolog.Nop())
	defer c.Close()

	_, ok := c.Get(context.Background(), "nope")
	assert.False(t, ok)
}

func TestBumpVersion_OrphansPreviouslyWrittenKeys(t *testing.T) {
	c := NewRedisCache(nil, "v1", zerolog.Nop())
	defer c.Close()

	c.Set(context.Background(), "k", "old", time.Minute)
	c.BumpVersion("v2")

	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok, "key written under v1 must not be visible under v2")
	assert.Equal(t, "v2", c.Version())
}

func TestSet_SkipsUnserializableValueWithoutPanicking(t *testing.T) {
	c := NewRedisCache(nil, "v1", zerolog.Nop())
	defer c.Close()

	c.Set(context.Background(), "bad", make(chan int), time.Minute)

	_, ok := c.Get(context.Background(), "bad")
	assert.False(t, ok)
}
