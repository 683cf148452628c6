package middleware

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/internal/domain/user"
	"warden/internal/infrastructure/auth"
	"warden/internal/infrastructure/token"
	"warden/internal/shared/config"
	"warden/internal/shared/constants"
	"warden/internal/shared/errors"
	"warden/internal/shared/logger"
)

type stubSessionRepo struct {
	mu       sync.Mutex
	session  *user.Session
	err      error
	touched  []time.Time
	extended []time.Time
}

func (m *stubSessionRepo) Create(ctx context.Context, s *user.Session) error { return nil }

func (m *stubSessionRepo) GetByID(ctx context.Context, sessionID string) (*user.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.session == nil || m.session.ID != sessionID {
		return nil, errors.NewNotFoundError("session not found")
	}
	return m.session, nil
}

func (m *stubSessionRepo) GetByUserID(ctx context.Context, userID uint) ([]*user.Session, error) {
	return nil, nil
}

func (m *stubSessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*user.Session, error) {
	return nil, errors.NewNotFoundError("session not found")
}

func (m *stubSessionRepo) GetByRefreshTokenHash(ctx context.Context, refreshTokenHash string) (*user.Session, error) {
	return nil, errors.NewNotFoundError("session not found")
}

func (m *stubSessionRepo) UpdateTokens(ctx context.Context, sessionID, tokenHash, refreshTokenHash string) error {
	return nil
}

func (m *stubSessionRepo) Touch(ctx context.Context, sessionID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched = append(m.touched, at)
	return nil
}

func (m *stubSessionRepo) ExtendExpiry(ctx context.Context, sessionID string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extended = append(m.extended, expiresAt)
	return nil
}

func (m *stubSessionRepo) Delete(ctx context.Context, sessionID string) error         { return nil }
func (m *stubSessionRepo) DeleteByUserID(ctx context.Context, userID uint) error      { return nil }
func (m *stubSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (m *stubSessionRepo) touchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.touched)
}

func (m *stubSessionRepo) extendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.extended)
}

func newResolverTestSetup(t *testing.T, repo *stubSessionRepo) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtSvc := auth.NewJWTService("test-secret", 15, 7)
	log := logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))

	sessionCfg := config.SessionConfig{
		DefaultExpHours: 12,
		RememberExpDays: 30,
		RenewThreshold:  0.2,
	}

	mw := NewAuthMiddleware(jwtSvc, repo, token.NewTokenGenerator(), nil, sessionCfg, log)

	engine := gin.New()
	engine.GET("/protected", mw.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":    c.GetUint(constants.ContextKeyUserID),
			"session_id": c.GetString(constants.ContextKeySessionID),
		})
	})
	return engine, jwtSvc
}

// mintSession issues a token pair and a matching session row.
func mintSession(t *testing.T, jwtSvc *auth.JWTService, userID uint, rememberMe bool, expiresAt time.Time) (*user.Session, string) {
	t.Helper()

	sessionID := fmt.Sprintf("sess-%d", userID)
	pair, err := jwtSvc.Generate(userID, sessionID)
	require.NoError(t, err)

	gen := token.NewTokenGenerator()
	now := time.Now().UTC()
	return &user.Session{
		ID:               sessionID,
		UserID:           userID,
		RememberMe:       rememberMe,
		TokenHash:        gen.Hash(pair.AccessToken),
		RefreshTokenHash: gen.Hash(pair.RefreshToken),
		ExpiresAt:        expiresAt,
		LastActivityAt:   now,
		CreatedAt:        now,
	}, pair.AccessToken
}

func doProtected(engine *gin.Engine, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequireAuthMissingToken(t *testing.T) {
	engine, _ := newResolverTestSetup(t, &stubSessionRepo{})

	w := doProtected(engine, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthGarbageToken(t *testing.T) {
	engine, _ := newResolverTestSetup(t, &stubSessionRepo{})

	w := doProtected(engine, "not-a-jwt")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthRejectsRefreshToken(t *testing.T) {
	repo := &stubSessionRepo{}
	engine, jwtSvc := newResolverTestSetup(t, repo)

	pair, err := jwtSvc.Generate(1, "sess-1")
	require.NoError(t, err)

	w := doProtected(engine, pair.RefreshToken)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthValidTokenResolvesSession(t *testing.T) {
	repo := &stubSessionRepo{}
	engine, jwtSvc := newResolverTestSetup(t, repo)

	session, accessToken := mintSession(t, jwtSvc, 1, false, time.Now().UTC().Add(12*time.Hour))
	repo.session = session

	w := doProtected(engine, accessToken)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"session_id":"sess-1"`)
	assert.Contains(t, w.Body.String(), `"user_id":1`)

	// Activity is recorded off the request path.
	require.Eventually(t, func() bool {
		return repo.touchCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRequireAuthSignedButRevokedToken(t *testing.T) {
	repo := &stubSessionRepo{}
	engine, jwtSvc := newResolverTestSetup(t, repo)

	// The session row is gone. A valid signature alone must not pass.
	_, accessToken := mintSession(t, jwtSvc, 1, false, time.Now().UTC().Add(12*time.Hour))

	w := doProtected(engine, accessToken)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthRotatedTokenFailsHashCheck(t *testing.T) {
	repo := &stubSessionRepo{}
	engine, jwtSvc := newResolverTestSetup(t, repo)

	session, _ := mintSession(t, jwtSvc, 1, false, time.Now().UTC().Add(12*time.Hour))
	repo.session = session

	// A second pair for the same session: same valid claims, but the stored
	// hash now belongs to a different token.
	stale, err := jwtSvc.Generate(1, session.ID)
	require.NoError(t, err)
	session.TokenHash = "sha-of-something-else"

	w := doProtected(engine, stale.AccessToken)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthFailsClosedOnStoreError(t *testing.T) {
	repo := &stubSessionRepo{err: fmt.Errorf("connection refused")}
	engine, jwtSvc := newResolverTestSetup(t, repo)

	_, accessToken := mintSession(t, jwtSvc, 1, false, time.Now().UTC().Add(12*time.Hour))

	w := doProtected(engine, accessToken)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthRenewsNearExpiry(t *testing.T) {
	repo := &stubSessionRepo{}
	engine, jwtSvc := newResolverTestSetup(t, repo)

	// 1h left of a 12h class is under the 0.2 threshold.
	session, accessToken := mintSession(t, jwtSvc, 1, false, time.Now().UTC().Add(1*time.Hour))
	repo.session = session

	w := doProtected(engine, accessToken)

	require.Equal(t, http.StatusOK, w.Code)
	require.Eventually(t, func() bool {
		return repo.extendCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRequireAuthNoRenewalFarFromExpiry(t *testing.T) {
	repo := &stubSessionRepo{}
	engine, jwtSvc := newResolverTestSetup(t, repo)

	session, accessToken := mintSession(t, jwtSvc, 1, false, time.Now().UTC().Add(10*time.Hour))
	repo.session = session

	w := doProtected(engine, accessToken)

	require.Equal(t, http.StatusOK, w.Code)
	require.Eventually(t, func() bool {
		return repo.touchCount() == 1
	}, time.Second, 10*time.Millisecond)
	assert.Zero(t, repo.extendCount())
}
