package authstate

import (
	"context"
	"io"
	"sync"
	"time"
)

// DefaultTTL is the staleness budget applied when no TTL option is given.
const DefaultTTL = 30 * time.Second

// State is a point-in-time copy of the cached auth state.
//
// Stale means the data on hand may no longer match the server: the TTL ran
// out, a mutation invalidated it, or a refetch failed. Stale data is still
// returned so callers always have something to render, but it must not be
// treated as fresh.
//
// Pending means an optimistic local patch has been applied and not yet
// confirmed; the next successful refetch overwrites it with the server's view.
type State struct {
	Profile   *Profile
	Sessions  []Session
	FetchedAt time.Time
	Stale     bool
	Pending   bool
}

// Cache holds the caller's profile and session list with a TTL staleness
// budget. All methods are safe for concurrent use.
type Cache struct {
	client *Client
	ttl    time.Duration
	now    func() time.Time

	mu    sync.Mutex
	state State
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL sets the staleness budget.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates an auth state cache backed by the given client. The cache
// starts empty and stale; the first read triggers a fetch.
func NewCache(client *Client, opts ...CacheOption) *Cache {
	c := &Cache{
		client: client,
		ttl:    DefaultTTL,
		now:    time.Now,
		state:  State{Stale: true},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state without touching the network.
func (c *Cache) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Profile returns the cached profile, refetching when the cache cannot be
// trusted. On refetch failure the previous data is returned alongside the
// error, marked stale.
func (c *Cache) Profile(ctx context.Context) (*Profile, error) {
	state, err := c.ensureFresh(ctx)
	return state.Profile, err
}

// Sessions returns the cached session list, refetching when the cache cannot
// be trusted. On refetch failure the previous data is returned alongside the
// error, marked stale.
func (c *Cache) Sessions(ctx context.Context) ([]Session, error) {
	state, err := c.ensureFresh(ctx)
	return state.Sessions, err
}

// Refresh fetches both views from the server unconditionally. On failure the
// cached data is kept and marked stale.
func (c *Cache) Refresh(ctx context.Context) error {
	profile, err := c.client.GetProfile(ctx)
	if err != nil {
		c.markStale()
		return err
	}
	sessions, err := c.client.ListSessions(ctx)
	if err != nil {
		c.markStale()
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = State{
		Profile:   profile,
		Sessions:  sessions,
		FetchedAt: c.now(),
	}
	return nil
}

// Invalidate marks the cache stale so the next read refetches. The data on
// hand is kept.
func (c *Cache) Invalidate() {
	c.markStale()
}

// RevokeSession ends one of the caller's other sessions. The cached list is
// patched optimistically, then reconciled against the server.
func (c *Cache) RevokeSession(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	kept := make([]Session, 0, len(c.state.Sessions))
	for _, s := range c.state.Sessions {
		if s.ID != sessionID {
			kept = append(kept, s)
		}
	}
	c.state.Sessions = kept
	c.state.Pending = true
	c.state.Stale = true
	c.mu.Unlock()

	if err := c.client.RevokeSession(ctx, sessionID); err != nil {
		// The patch stays pending and stale; the next successful refetch
		// restores the server's view.
		return err
	}
	return c.Refresh(ctx)
}

// UpdateProfile applies a partial profile update. The cached profile is
// patched optimistically, then reconciled against the server.
func (c *Cache) UpdateProfile(ctx context.Context, req UpdateProfileRequest) error {
	c.mu.Lock()
	if c.state.Profile != nil {
		patched := *c.state.Profile
		if req.DisplayName != nil {
			patched.DisplayName = *req.DisplayName
		}
		if req.Preferences != nil {
			patched.Preferences = *req.Preferences
		}
		c.state.Profile = &patched
	}
	c.state.Pending = true
	c.state.Stale = true
	c.mu.Unlock()

	if _, err := c.client.UpdateProfile(ctx, req); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

// SetAvatar uploads a new avatar, then reconciles the cache against the
// server. There is no optimistic patch: the new URL is only known once the
// server answers.
func (c *Cache) SetAvatar(ctx context.Context, filename string, image io.Reader) error {
	c.markPending()

	if _, err := c.client.SetAvatar(ctx, filename, image); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

// ClearAvatar removes the avatar. The cached profile is patched
// optimistically, then reconciled against the server.
func (c *Cache) ClearAvatar(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Profile != nil {
		patched := *c.state.Profile
		patched.AvatarURL = nil
		c.state.Profile = &patched
	}
	c.state.Pending = true
	c.state.Stale = true
	c.mu.Unlock()

	if _, err := c.client.ClearAvatar(ctx); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

// ensureFresh refetches when the state is stale or past its TTL, and returns
// a snapshot either way.
func (c *Cache) ensureFresh(ctx context.Context) (State, error) {
	c.mu.Lock()
	fresh := !c.state.Stale && c.now().Sub(c.state.FetchedAt) < c.ttl
	if fresh {
		defer c.mu.Unlock()
		return c.snapshotLocked(), nil
	}
	c.mu.Unlock()

	err := c.Refresh(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(), err
}

func (c *Cache) snapshotLocked() State {
	out := c.state
	out.Sessions = append([]Session(nil), c.state.Sessions...)
	if c.state.Profile != nil {
		profile := *c.state.Profile
		out.Profile = &profile
	}
	return out
}

func (c *Cache) markStale() {
	c.mu.Lock()
	c.state.Stale = true
	c.mu.Unlock()
}

func (c *Cache) markPending() {
	c.mu.Lock()
	c.state.Pending = true
	c.state.Stale = true
	c.mu.Unlock()
}
