package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"warden/internal/domain/user"
	"warden/internal/infrastructure/auth"
	"warden/internal/infrastructure/cache"
	"warden/internal/infrastructure/token"
	"warden/internal/shared/biztime"
	"warden/internal/shared/config"
	"warden/internal/shared/constants"
	"warden/internal/shared/goroutine"
	"warden/internal/shared/logger"
	"warden/internal/shared/utils"
)

// AuthMiddleware resolves a presented credential to a stored session. A valid
// signature alone is not enough: the session row must still exist, be
// unexpired, and hold the hash of this exact token. Any failure on that path
// denies the request; the resolver never falls back to trusting the claims.
type AuthMiddleware struct {
	jwtService    *auth.JWTService
	sessionRepo   user.SessionRepository
	tokenHasher   token.TokenGenerator
	sessionCache  *cache.SessionCache
	sessionConfig config.SessionConfig
	logger        logger.Interface
}

func NewAuthMiddleware(
	jwtService *auth.JWTService,
	sessionRepo user.SessionRepository,
	tokenHasher token.TokenGenerator,
	sessionCache *cache.SessionCache,
	sessionConfig config.SessionConfig,
	logger logger.Interface,
) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:    jwtService,
		sessionRepo:   sessionRepo,
		tokenHasher:   tokenHasher,
		sessionCache:  sessionCache,
		sessionConfig: sessionConfig,
		logger:        logger,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := m.extractToken(c)
		if tokenString == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing authorization token")
			c.Abort()
			return
		}

		claims, err := m.jwtService.Verify(tokenString)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		if claims.TokenType != auth.TokenTypeAccess {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid token type")
			c.Abort()
			return
		}

		identity, ok := m.resolveSession(c, tokenString, claims)
		if !ok {
			return
		}

		c.Set(constants.ContextKeyUserID, identity.UserID)
		c.Set(constants.ContextKeySessionID, identity.SessionID)

		c.Next()
	}
}

// resolveSession checks the presented token against the session registry.
// On failure it writes the response and aborts.
func (m *AuthMiddleware) resolveSession(c *gin.Context, tokenString string, claims *auth.Claims) (user.AuthenticatedIdentity, bool) {
	ctx := c.Request.Context()
	tokenHash := m.tokenHasher.Hash(tokenString)

	if identity, ok := m.resolveFromCache(ctx, tokenString, tokenHash, claims); ok {
		m.touchAsync(identity.SessionID, nil)
		return identity, true
	}

	session, err := m.sessionRepo.GetByID(ctx, claims.SessionID)
	if err != nil {
		// Missing and unreachable sessions both deny the request. A store
		// outage must not let revoked credentials through.
		utils.ErrorResponse(c, http.StatusUnauthorized, "session is no longer valid")
		c.Abort()
		return user.AuthenticatedIdentity{}, false
	}

	// Constant-time comparison of the presented token against the stored
	// hash. A rotated or revoked token fails here even though its signature
	// still verifies.
	if !m.tokenHasher.Verify(tokenString, session.TokenHash) {
		utils.ErrorResponse(c, http.StatusUnauthorized, "session is no longer valid")
		c.Abort()
		return user.AuthenticatedIdentity{}, false
	}

	if m.sessionCache != nil {
		if err := m.sessionCache.Set(ctx, &cache.CachedSession{
			SessionID:      session.ID,
			UserID:         session.UserID,
			TokenHash:      tokenHash,
			ExpiresAt:      session.ExpiresAt,
			LastActivityAt: session.LastActivityAt,
		}); err != nil {
			m.logger.Debugw("failed to cache session", "error", err, "session_id", session.ID)
		}
	}

	m.touchAsync(session.ID, session)

	return user.AuthenticatedIdentity{UserID: session.UserID, SessionID: session.ID}, true
}

func (m *AuthMiddleware) resolveFromCache(ctx context.Context, tokenString, tokenHash string, claims *auth.Claims) (user.AuthenticatedIdentity, bool) {
	if m.sessionCache == nil {
		return user.AuthenticatedIdentity{}, false
	}

	cached, err := m.sessionCache.Get(ctx, tokenHash)
	if err != nil {
		if err != cache.ErrSessionNotCached {
			m.logger.Debugw("session cache lookup failed", "error", err)
		}
		return user.AuthenticatedIdentity{}, false
	}

	if cached.SessionID != claims.SessionID || biztime.NowUTC().After(cached.ExpiresAt) {
		return user.AuthenticatedIdentity{}, false
	}
	if !m.tokenHasher.Verify(tokenString, cached.TokenHash) {
		return user.AuthenticatedIdentity{}, false
	}

	return user.AuthenticatedIdentity{UserID: cached.UserID, SessionID: cached.SessionID}, true
}

// touchAsync records activity off the request path. The repository drops
// stale timestamps, so out-of-order delivery from concurrent requests cannot
// move last_activity_at backward. When the session is near its expiry the
// touch also renews the fixed window.
func (m *AuthMiddleware) touchAsync(sessionID string, session *user.Session) {
	now := biztime.NowUTC()

	var renewTo *time.Time
	if session != nil {
		classDuration := sessionClassDuration(m.sessionConfig, session.RememberMe)
		if session.ShouldRenew(classDuration, m.sessionConfig.RenewThreshold) {
			t := now.Add(classDuration)
			renewTo = &t
		}
	}

	goroutine.SafeGo(m.logger, "session-touch", func() {
		ctx := context.Background()
		if err := m.sessionRepo.Touch(ctx, sessionID, now); err != nil {
			m.logger.Debugw("failed to touch session", "error", err, "session_id", sessionID)
			return
		}
		if renewTo != nil {
			if err := m.sessionRepo.ExtendExpiry(ctx, sessionID, *renewTo); err != nil {
				m.logger.Warnw("failed to renew session expiry", "error", err, "session_id", sessionID)
			} else {
				m.logger.Infow("session expiry renewed", "session_id", sessionID, "expires_at", *renewTo)
			}
		}
	})
}

func sessionClassDuration(cfg config.SessionConfig, rememberMe bool) time.Duration {
	if rememberMe {
		return time.Duration(cfg.RememberExpDays) * 24 * time.Hour
	}
	return time.Duration(cfg.DefaultExpHours) * time.Hour
}

func (m *AuthMiddleware) extractToken(c *gin.Context) string {
	if token := utils.GetTokenFromCookie(c, utils.AccessTokenCookie); token != "" {
		return token
	}

	authHeader := c.GetHeader(constants.HeaderAuthorization)
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
