package user

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"warden/internal/shared/biztime"
)

// Session represents one authenticated device or browser instance for a user.
// It is distinct from the credential that references it: callers carry tokens,
// the registry stores their hashes.
type Session struct {
	ID               string
	UserID           uint
	IPAddress        string
	UserAgent        string
	RememberMe       bool
	TokenHash        string
	RefreshTokenHash string
	ExpiresAt        time.Time
	LastActivityAt   time.Time
	CreatedAt        time.Time
}

// NewSession creates a session record for the given user. The remember-me class
// is fixed here and never changes; expiresAt must already reflect it.
func NewSession(userID uint, rememberMe bool, ipAddress, userAgent string, expiresAt time.Time) (*Session, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}

	now := biztime.NowUTC()
	if !expiresAt.After(now) {
		return nil, fmt.Errorf("session expiry must be in the future")
	}

	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	return &Session{
		ID:             id,
		UserID:         userID,
		IPAddress:      ipAddress,
		UserAgent:      userAgent,
		RememberMe:     rememberMe,
		ExpiresAt:      expiresAt,
		LastActivityAt: now,
		CreatedAt:      now,
	}, nil
}

func (s *Session) IsExpired() bool {
	return biztime.NowUTC().After(s.ExpiresAt)
}

// ShouldRenew reports whether the remaining lifetime has dropped below the
// renewal threshold fraction of the class duration. Touch only pushes
// expires_at forward when this is true, bounding write volume.
func (s *Session) ShouldRenew(classDuration time.Duration, threshold float64) bool {
	remaining := time.Until(s.ExpiresAt)
	if remaining <= 0 {
		return false
	}
	return float64(remaining) < float64(classDuration)*threshold
}

func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// SessionRepository is the durable session registry, the sole source of truth
// for session existence, expiry, and activity timestamps.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	// GetByID returns a live session or a not-found error. Expired sessions
	// are never returned.
	GetByID(ctx context.Context, sessionID string) (*Session, error)
	// GetByUserID lists a user's live sessions, most recently active first.
	GetByUserID(ctx context.Context, userID uint) ([]*Session, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)
	GetByRefreshTokenHash(ctx context.Context, refreshTokenHash string) (*Session, error)
	// UpdateTokens replaces the stored token hashes (refresh rotation).
	UpdateTokens(ctx context.Context, sessionID, tokenHash, refreshTokenHash string) error
	// Touch advances last_activity_at. It is monotonic: an update carrying a
	// timestamp older than the stored value is dropped, never applied.
	Touch(ctx context.Context, sessionID string, at time.Time) error
	// ExtendExpiry pushes expires_at forward. It never moves it backward.
	ExtendExpiry(ctx context.Context, sessionID string, expiresAt time.Time) error
	// Delete removes a session. Deleting an absent session is a no-op success
	// so that retries on flaky networks stay safe.
	Delete(ctx context.Context, sessionID string) error
	DeleteByUserID(ctx context.Context, userID uint) error
	// DeleteExpired removes sessions with expires_at <= now and reports how
	// many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
