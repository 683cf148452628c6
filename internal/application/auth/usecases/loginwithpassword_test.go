package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"warden/internal/domain/user"
	"warden/internal/shared/biztime"
	"warden/internal/shared/config"
	"warden/internal/shared/errors"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		DefaultExpHours: 12,
		RememberExpDays: 30,
		RenewThreshold:  0.2,
		SweepMinutes:    30,
	}
}

func activeTestUser(t *testing.T) *user.User {
	t.Helper()
	u, err := user.NewUser("alice", "$2a$10$stored-hash")
	require.NoError(t, err)
	u.ID = 1
	return u
}

func newLoginUseCase(
	userRepo *mockUserRepository,
	sessionRepo *mockSessionRepository,
	hasher *mockPasswordHasher,
	jwtSvc *mockJWTService,
	tokenHasher *mockTokenHasher,
) *LoginWithPasswordUseCase {
	return NewLoginWithPasswordUseCase(
		userRepo, sessionRepo, hasher, jwtSvc, tokenHasher, nil, testSessionConfig(), nopLogger{},
	)
}

func TestLoginWithPassword_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	sessionRepo := new(mockSessionRepository)
	hasher := new(mockPasswordHasher)
	jwtSvc := new(mockJWTService)
	tokenHasher := new(mockTokenHasher)

	u := activeTestUser(t)
	userRepo.On("GetByUsername", mock.Anything, "alice").Return(u, nil)
	hasher.On("Compare", u.PasswordHash, "correct-password").Return(nil)
	jwtSvc.On("Generate", uint(1), mock.AnythingOfType("string")).
		Return(&TokenPair{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900}, nil)
	tokenHasher.On("Hash", "access").Return("access-hash")
	tokenHasher.On("Hash", "refresh").Return("refresh-hash")

	var created *user.Session
	sessionRepo.On("Create", mock.Anything, mock.AnythingOfType("*user.Session")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*user.Session)
		}).Return(nil)

	uc := newLoginUseCase(userRepo, sessionRepo, hasher, jwtSvc, tokenHasher)
	result, err := uc.Execute(context.Background(), LoginWithPasswordCommand{
		Username:   "alice",
		Password:   "correct-password",
		RememberMe: false,
		IPAddress:  "203.0.113.7",
		UserAgent:  "Mozilla/5.0",
	})

	require.NoError(t, err)
	assert.Equal(t, "access", result.AccessToken)
	assert.Equal(t, "refresh", result.RefreshToken)

	require.NotNil(t, created)
	assert.Equal(t, uint(1), created.UserID)
	assert.False(t, created.RememberMe)
	assert.Equal(t, "access-hash", created.TokenHash)
	assert.Equal(t, "refresh-hash", created.RefreshTokenHash)
	assert.WithinDuration(t, biztime.NowUTC().Add(12*time.Hour), created.ExpiresAt, time.Minute,
		"default class expiry is hours, not days")
}

func TestLoginWithPassword_RememberMeClass(t *testing.T) {
	userRepo := new(mockUserRepository)
	sessionRepo := new(mockSessionRepository)
	hasher := new(mockPasswordHasher)
	jwtSvc := new(mockJWTService)
	tokenHasher := new(mockTokenHasher)

	u := activeTestUser(t)
	userRepo.On("GetByUsername", mock.Anything, "alice").Return(u, nil)
	hasher.On("Compare", mock.Anything, mock.Anything).Return(nil)
	jwtSvc.On("Generate", uint(1), mock.AnythingOfType("string")).
		Return(&TokenPair{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900}, nil)
	tokenHasher.On("Hash", mock.Anything).Return("hash")

	var created *user.Session
	sessionRepo.On("Create", mock.Anything, mock.AnythingOfType("*user.Session")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*user.Session)
		}).Return(nil)

	uc := newLoginUseCase(userRepo, sessionRepo, hasher, jwtSvc, tokenHasher)
	_, err := uc.Execute(context.Background(), LoginWithPasswordCommand{
		Username:   "alice",
		Password:   "correct-password",
		RememberMe: true,
	})

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.True(t, created.RememberMe)
	assert.WithinDuration(t, biztime.NowUTC().Add(30*24*time.Hour), created.ExpiresAt, time.Minute)
}

func TestLoginWithPassword_WrongPassword(t *testing.T) {
	userRepo := new(mockUserRepository)
	sessionRepo := new(mockSessionRepository)
	hasher := new(mockPasswordHasher)
	jwtSvc := new(mockJWTService)
	tokenHasher := new(mockTokenHasher)

	u := activeTestUser(t)
	userRepo.On("GetByUsername", mock.Anything, "alice").Return(u, nil)
	hasher.On("Compare", u.PasswordHash, "wrong").Return(assert.AnError)

	uc := newLoginUseCase(userRepo, sessionRepo, hasher, jwtSvc, tokenHasher)
	_, err := uc.Execute(context.Background(), LoginWithPasswordCommand{Username: "alice", Password: "wrong"})

	authErr := errors.GetAuthError(err)
	require.NotNil(t, authErr)
	assert.Equal(t, errors.ErrorTypeInvalidCredentials, authErr.Type)
	sessionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLoginWithPassword_UnknownUsernameSameError(t *testing.T) {
	userRepo := new(mockUserRepository)
	sessionRepo := new(mockSessionRepository)
	hasher := new(mockPasswordHasher)
	jwtSvc := new(mockJWTService)
	tokenHasher := new(mockTokenHasher)

	userRepo.On("GetByUsername", mock.Anything, "ghost").
		Return(nil, errors.NewNotFoundError("user not found"))

	uc := newLoginUseCase(userRepo, sessionRepo, hasher, jwtSvc, tokenHasher)
	_, err := uc.Execute(context.Background(), LoginWithPasswordCommand{Username: "ghost", Password: "whatever"})

	authErr := errors.GetAuthError(err)
	require.NotNil(t, authErr)
	assert.Equal(t, errors.ErrorTypeInvalidCredentials, authErr.Type,
		"unknown username must be indistinguishable from a wrong password")
}

func TestLoginWithPassword_InactiveAccount(t *testing.T) {
	userRepo := new(mockUserRepository)
	sessionRepo := new(mockSessionRepository)
	hasher := new(mockPasswordHasher)
	jwtSvc := new(mockJWTService)
	tokenHasher := new(mockTokenHasher)

	u := activeTestUser(t)
	u.Active = false
	userRepo.On("GetByUsername", mock.Anything, "alice").Return(u, nil)
	hasher.On("Compare", mock.Anything, mock.Anything).Return(nil)

	uc := newLoginUseCase(userRepo, sessionRepo, hasher, jwtSvc, tokenHasher)
	_, err := uc.Execute(context.Background(), LoginWithPasswordCommand{Username: "alice", Password: "correct-password"})

	authErr := errors.GetAuthError(err)
	require.NotNil(t, authErr)
	assert.Equal(t, errors.ErrorTypeAccountInactive, authErr.Type)
	sessionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
