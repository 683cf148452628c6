package ratelimit

import (
	"context"
	"time"
)

// RateLimiter bounds how often a key may perform an action within a sliding
// window. Keys are caller-defined, typically "login:<ip>".
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Reset(ctx context.Context, key string) error
}
