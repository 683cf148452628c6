package usecases

import (
	"context"
	"time"

	"warden/internal/shared/config"
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// JWTService issues and rotates the signed token pairs carried by clients.
type JWTService interface {
	Generate(userID uint, sessionID string) (*TokenPair, error)
	Refresh(refreshToken string) (*TokenPair, error)
}

// TokenHasher derives the storable hash of a presented token.
type TokenHasher interface {
	Hash(plainToken string) string
	Verify(plainToken, hash string) bool
}

// LoginAlertSender delivers new-login notifications. Implementations may be
// slow; callers must not invoke it on the request path.
type LoginAlertSender interface {
	SendLoginAlert(username, ipAddress, userAgent string, at time.Time) error
}

// SessionCacheInvalidator evicts a cached session lookup after its stored
// hashes or lifetime change.
type SessionCacheInvalidator interface {
	Invalidate(ctx context.Context, sessionID string) error
}

// sessionClassDuration returns the full lifetime for a session's expiry class.
// The class is fixed at login and never changes afterward.
func sessionClassDuration(cfg config.SessionConfig, rememberMe bool) time.Duration {
	if rememberMe {
		return time.Duration(cfg.RememberExpDays) * 24 * time.Hour
	}
	return time.Duration(cfg.DefaultExpHours) * time.Hour
}
