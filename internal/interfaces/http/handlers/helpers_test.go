package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"warden/internal/application/auth/usecases"
	"warden/internal/domain/user"
	"warden/internal/shared/constants"
	"warden/internal/shared/errors"
	"warden/internal/shared/logger"
)

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// withIdentity simulates the auth middleware for routes under test.
func withIdentity(userID uint, sessionID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, userID)
		c.Set(constants.ContextKeySessionID, sessionID)
		c.Next()
	}
}

type mockUserRepo struct {
	user    *user.User
	exists  bool
	err     error
	created *user.User
	updated *user.User
}

func (m *mockUserRepo) Create(ctx context.Context, u *user.User) error {
	if m.err != nil {
		return m.err
	}
	if u.ID == 0 {
		u.ID = 1
	}
	m.created = u
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, u *user.User) error {
	if m.err != nil {
		return m.err
	}
	m.updated = u
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uint) (*user.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.user == nil || m.user.ID != id {
		return nil, errors.NewNotFoundError("user not found")
	}
	return m.user, nil
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.user == nil || m.user.Username != username {
		return nil, errors.NewNotFoundError("user not found")
	}
	return m.user, nil
}

func (m *mockUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return m.exists, m.err
}

type mockSessionRepo struct {
	sessions  []*user.Session
	err       error
	created   *user.Session
	deletedID string
}

func (m *mockSessionRepo) Create(ctx context.Context, s *user.Session) error {
	if m.err != nil {
		return m.err
	}
	m.created = s
	m.sessions = append(m.sessions, s)
	return nil
}

func (m *mockSessionRepo) GetByID(ctx context.Context, sessionID string) (*user.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, s := range m.sessions {
		if s.ID == sessionID {
			return s, nil
		}
	}
	return nil, errors.NewNotFoundError("session not found")
}

func (m *mockSessionRepo) GetByUserID(ctx context.Context, userID uint) ([]*user.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*user.Session
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*user.Session, error) {
	for _, s := range m.sessions {
		if s.TokenHash == tokenHash {
			return s, nil
		}
	}
	return nil, errors.NewNotFoundError("session not found")
}

func (m *mockSessionRepo) GetByRefreshTokenHash(ctx context.Context, refreshTokenHash string) (*user.Session, error) {
	for _, s := range m.sessions {
		if s.RefreshTokenHash == refreshTokenHash {
			return s, nil
		}
	}
	return nil, errors.NewNotFoundError("session not found")
}

func (m *mockSessionRepo) UpdateTokens(ctx context.Context, sessionID, tokenHash, refreshTokenHash string) error {
	return m.err
}

func (m *mockSessionRepo) Touch(ctx context.Context, sessionID string, at time.Time) error {
	return m.err
}

func (m *mockSessionRepo) ExtendExpiry(ctx context.Context, sessionID string, expiresAt time.Time) error {
	return m.err
}

func (m *mockSessionRepo) Delete(ctx context.Context, sessionID string) error {
	if m.err != nil {
		return m.err
	}
	m.deletedID = sessionID
	return nil
}

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID uint) error {
	return m.err
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, m.err
}

type stubHasher struct{}

func (stubHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (stubHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return fmt.Errorf("password verification failed")
	}
	return nil
}

type stubJWTService struct{}

func (stubJWTService) Generate(userID uint, sessionID string) (*usecases.TokenPair, error) {
	return &usecases.TokenPair{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresIn:    900,
	}, nil
}

func (stubJWTService) Refresh(refreshToken string) (*usecases.TokenPair, error) {
	return &usecases.TokenPair{
		AccessToken:  "rotated-access-token",
		RefreshToken: "rotated-refresh-token",
		ExpiresIn:    900,
	}, nil
}

type stubTokenHasher struct{}

func (stubTokenHasher) Hash(plainToken string) string {
	return "h:" + plainToken
}

func (stubTokenHasher) Verify(plainToken, hash string) bool {
	return hash == "h:"+plainToken
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(ctx context.Context, sessionID string) error {
	return nil
}

func activeUser() *user.User {
	return &user.User{
		ID:           1,
		Username:     "alice",
		DisplayName:  "alice",
		Preferences:  user.DefaultPreferences(),
		PasswordHash: "hashed:correct-horse1",
		Active:       true,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
}
