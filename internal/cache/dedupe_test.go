package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDeduper(t *testing.T) (*Deduper, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewDeduper(client, 5*time.Minute), mr
}

func TestFirstSeenClaimsSlot(t *testing.T) {
	deduper, _ := newTestDeduper(t)
	ctx := context.Background()

	assert.True(t, deduper.FirstSeen(ctx, "0xaaa", "critical"))
	assert.False(t, deduper.FirstSeen(ctx, "0xaaa", "critical"))
}

func TestSeverityKeysAreIndependent(t *testing.T) {
	deduper, _ := newTestDeduper(t)
	ctx := context.Background()

	assert.True(t, deduper.FirstSeen(ctx, "0xaaa", "critical"))
	assert.True(t, deduper.FirstSeen(ctx, "0xaaa", "warning"))
	assert.True(t, deduper.FirstSeen(ctx, "0xbbb", "critical"))
}

func TestWindowExpiry(t *testing.T) {
	deduper, mr := newTestDeduper(t)
	ctx := context.Background()

	assert.True(t, deduper.FirstSeen(ctx, "0xaaa", "critical"))
	assert.False(t, deduper.FirstSeen(ctx, "0xaaa", "critical"))

	mr.FastForward(5*time.Minute + time.Second)
	assert.True(t, deduper.FirstSeen(ctx, "0xaaa", "critical"))
}

func TestNilClientAlwaysFirstSeen(t *testing.T) {
	deduper := NewDeduper(nil, time.Minute)
	ctx := context.Background()

	assert.True(t, deduper.FirstSeen(ctx, "0xaaa", "critical"))
	assert.True(t, deduper.FirstSeen(ctx, "0xaaa", "critical"))
}

func TestRedisDownDegradesToFirstSeen(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	deduper := NewDeduper(client, time.Minute)

	mr.Close()
	assert.True(t, deduper.FirstSeen(context.Background(), "0xaaa", "critical"))
}
