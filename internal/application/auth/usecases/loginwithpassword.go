package usecases

import (
	"context"
	"fmt"

	"warden/internal/domain/user"
	"warden/internal/shared/biztime"
	"warden/internal/shared/config"
	"warden/internal/shared/errors"
	"warden/internal/shared/goroutine"
	"warden/internal/shared/logger"
)

type LoginWithPasswordCommand struct {
	Username   string
	Password   string
	RememberMe bool
	IPAddress  string
	UserAgent  string
}

type LoginWithPasswordResult struct {
	User         *user.User
	Session      *user.Session
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

type LoginWithPasswordUseCase struct {
	userRepo       user.Repository
	sessionRepo    user.SessionRepository
	passwordHasher user.PasswordHasher
	jwtService     JWTService
	tokenHasher    TokenHasher
	alertSender    LoginAlertSender
	sessionConfig  config.SessionConfig
	logger         logger.Interface
}

// NewLoginWithPasswordUseCase wires the login flow. alertSender may be nil
// when email delivery is disabled.
func NewLoginWithPasswordUseCase(
	userRepo user.Repository,
	sessionRepo user.SessionRepository,
	passwordHasher user.PasswordHasher,
	jwtService JWTService,
	tokenHasher TokenHasher,
	alertSender LoginAlertSender,
	sessionConfig config.SessionConfig,
	logger logger.Interface,
) *LoginWithPasswordUseCase {
	return &LoginWithPasswordUseCase{
		userRepo:       userRepo,
		sessionRepo:    sessionRepo,
		passwordHasher: passwordHasher,
		jwtService:     jwtService,
		tokenHasher:    tokenHasher,
		alertSender:    alertSender,
		sessionConfig:  sessionConfig,
		logger:         logger,
	}
}

func (uc *LoginWithPasswordUseCase) Execute(ctx context.Context, cmd LoginWithPasswordCommand) (*LoginWithPasswordResult, error) {
	existingUser, err := uc.userRepo.GetByUsername(ctx, cmd.Username)
	if err != nil {
		if errors.IsNotFoundError(err) {
			// Same error as a wrong password so the response never reveals
			// whether the username exists.
			return nil, errors.NewInvalidCredentialsError()
		}
		uc.logger.Errorw("failed to get user by username", "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := existingUser.VerifyPassword(cmd.Password, uc.passwordHasher); err != nil {
		return nil, errors.NewInvalidCredentialsError()
	}

	if !existingUser.Active {
		return nil, errors.NewAccountInactiveError()
	}

	duration := sessionClassDuration(uc.sessionConfig, cmd.RememberMe)
	session, err := user.NewSession(existingUser.ID, cmd.RememberMe, cmd.IPAddress, cmd.UserAgent, biztime.NowUTC().Add(duration))
	if err != nil {
		uc.logger.Errorw("failed to create session", "error", err, "user_id", existingUser.ID)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	tokens, err := uc.jwtService.Generate(existingUser.ID, session.ID)
	if err != nil {
		uc.logger.Errorw("failed to generate tokens", "error", err, "user_id", existingUser.ID)
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	session.TokenHash = uc.tokenHasher.Hash(tokens.AccessToken)
	session.RefreshTokenHash = uc.tokenHasher.Hash(tokens.RefreshToken)

	if err := uc.sessionRepo.Create(ctx, session); err != nil {
		uc.logger.Errorw("failed to save session", "error", err, "user_id", existingUser.ID)
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	if uc.alertSender != nil {
		username, ip, ua, at := existingUser.Username, cmd.IPAddress, cmd.UserAgent, session.CreatedAt
		goroutine.SafeGo(uc.logger, "login-alert", func() {
			if err := uc.alertSender.SendLoginAlert(username, ip, ua, at); err != nil {
				uc.logger.Warnw("failed to send login alert", "error", err, "username", username)
			}
		})
	}

	uc.logger.Infow("user logged in",
		"user_id", existingUser.ID,
		"session_id", session.ID,
		"remember_me", cmd.RememberMe,
	)

	return &LoginWithPasswordResult{
		User:         existingUser,
		Session:      session,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	}, nil
}
