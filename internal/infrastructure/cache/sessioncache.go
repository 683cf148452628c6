package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionTokenPrefix = "session:token:"
	sessionIndexPrefix = "session:index:"
	sessionCacheTTL    = 30 * time.Second
)

// ErrSessionNotCached is returned on a cache miss.
var ErrSessionNotCached = errors.New("session not cached")

// CachedSession is the snapshot stored per presented-token hash. It exists to
// spare the hot resolve path a database round trip; the session record remains
// the source of truth and the short TTL bounds how long a revoked session can
// still resolve from here.
type CachedSession struct {
	SessionID      string    `json:"session_id"`
	UserID         uint      `json:"user_id"`
	TokenHash      string    `json:"token_hash"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// SessionCache provides a Redis read-through cache for token-hash lookups,
// with explicit invalidation by session ID on revoke, refresh, and renewal.
type SessionCache struct {
	client *redis.Client
}

func NewSessionCache(client *redis.Client) *SessionCache {
	return &SessionCache{client: client}
}

func (c *SessionCache) Get(ctx context.Context, tokenHash string) (*CachedSession, error) {
	val, err := c.client.Get(ctx, sessionTokenPrefix+tokenHash).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotCached
		}
		return nil, fmt.Errorf("failed to get cached session: %w", err)
	}

	var cached CachedSession
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return nil, fmt.Errorf("failed to decode cached session: %w", err)
	}
	return &cached, nil
}

func (c *SessionCache) Set(ctx context.Context, cached *CachedSession) error {
	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to encode session for cache: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, sessionTokenPrefix+cached.TokenHash, data, sessionCacheTTL)
	// Index by session ID so revocation can evict without knowing the token.
	pipe.Set(ctx, sessionIndexPrefix+cached.SessionID, cached.TokenHash, sessionCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache session: %w", err)
	}
	return nil
}

// Invalidate evicts the cached entry for the given session ID. Missing keys
// are not an error; the entry may already have aged out.
func (c *SessionCache) Invalidate(ctx context.Context, sessionID string) error {
	indexKey := sessionIndexPrefix + sessionID

	tokenHash, err := c.client.GetDel(ctx, indexKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return fmt.Errorf("failed to read session cache index: %w", err)
	}

	if err := c.client.Del(ctx, sessionTokenPrefix+tokenHash).Err(); err != nil {
		return fmt.Errorf("failed to evict cached session: %w", err)
	}
	return nil
}
