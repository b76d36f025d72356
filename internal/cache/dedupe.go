// Package cache provides the Redis-backed alert deduplication window.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sunnyshin8/BridgeGuard-AI/internal/logger"
)

const dedupeKeyPrefix = "bridge:alert:dedupe"

// Deduper suppresses repeat alert notifications within a rolling window.
// The window lives in Redis so restarts do not re-fire recent alerts.
// With no Redis client configured every alert counts as first seen:
// losing the cache degrades to duplicate notifications, never to dropped
// ones.
type Deduper struct {
	client *redis.Client
	window time.Duration
}

// NewDeduper creates a deduper. client may be nil.
func NewDeduper(client *redis.Client, window time.Duration) *Deduper {
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &Deduper{client: client, window: window}
}

// FirstSeen reports whether this tx/severity pair has not alerted within
// the window, and claims the slot if so.
func (d *Deduper) FirstSeen(ctx context.Context, txHash, severity string) bool {
	if d.client == nil {
		return true
	}

	key := fmt.Sprintf("%s:%s:%s", dedupeKeyPrefix, txHash, severity)
	ok, err := d.client.SetNX(ctx, key, 1, d.window).Result()
	if err != nil {
		logger.L().Warn("dedupe cache unavailable, treating alert as first seen",
			zap.String("tx_hash", txHash),
			zap.Error(err))
		return true
	}
	return ok
}
