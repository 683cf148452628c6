package usecases

import (
	"context"
	"fmt"

	"warden/internal/domain/user"
	"warden/internal/shared/biztime"
	"warden/internal/shared/config"
	"warden/internal/shared/errors"
	"warden/internal/shared/logger"
)

type RefreshTokenCommand struct {
	RefreshToken string
}

type RefreshTokenResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// RefreshTokenUseCase rotates a session's token pair. The old refresh token
// stops working the moment the stored hashes are replaced. When the session is
// close to its expiry, the refresh also renews the expiry window.
type RefreshTokenUseCase struct {
	userRepo      user.Repository
	sessionRepo   user.SessionRepository
	jwtService    JWTService
	tokenHasher   TokenHasher
	cache         SessionCacheInvalidator
	sessionConfig config.SessionConfig
	logger        logger.Interface
}

func NewRefreshTokenUseCase(
	userRepo user.Repository,
	sessionRepo user.SessionRepository,
	jwtService JWTService,
	tokenHasher TokenHasher,
	cache SessionCacheInvalidator,
	sessionConfig config.SessionConfig,
	logger logger.Interface,
) *RefreshTokenUseCase {
	return &RefreshTokenUseCase{
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		jwtService:    jwtService,
		tokenHasher:   tokenHasher,
		cache:         cache,
		sessionConfig: sessionConfig,
		logger:        logger,
	}
}

func (uc *RefreshTokenUseCase) Execute(ctx context.Context, cmd RefreshTokenCommand) (*RefreshTokenResult, error) {
	refreshTokenHash := uc.tokenHasher.Hash(cmd.RefreshToken)

	session, err := uc.sessionRepo.GetByRefreshTokenHash(ctx, refreshTokenHash)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, errors.NewTokenInvalidError("refresh token")
		}
		uc.logger.Errorw("failed to get session by refresh token", "error", err)
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	existingUser, err := uc.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		uc.logger.Errorw("failed to get user during token refresh", "error", err, "user_id", session.UserID)
		return nil, errors.NewTokenInvalidError("refresh token")
	}
	if !existingUser.Active {
		return nil, errors.NewAccountInactiveError()
	}

	tokens, err := uc.jwtService.Refresh(cmd.RefreshToken)
	if err != nil {
		uc.logger.Warnw("refresh token failed verification", "error", err, "session_id", session.ID)
		return nil, errors.NewTokenInvalidError("refresh token")
	}

	newTokenHash := uc.tokenHasher.Hash(tokens.AccessToken)
	newRefreshTokenHash := uc.tokenHasher.Hash(tokens.RefreshToken)

	if err := uc.sessionRepo.UpdateTokens(ctx, session.ID, newTokenHash, newRefreshTokenHash); err != nil {
		uc.logger.Errorw("failed to rotate session tokens", "error", err, "session_id", session.ID)
		return nil, fmt.Errorf("failed to rotate session tokens: %w", err)
	}

	// Renew the fixed expiry window only when the session is inside the
	// renewal threshold, so steady traffic does not rewrite expires_at on
	// every refresh.
	classDuration := sessionClassDuration(uc.sessionConfig, session.RememberMe)
	if session.ShouldRenew(classDuration, uc.sessionConfig.RenewThreshold) {
		newExpiry := biztime.NowUTC().Add(classDuration)
		if err := uc.sessionRepo.ExtendExpiry(ctx, session.ID, newExpiry); err != nil {
			uc.logger.Warnw("failed to renew session expiry", "error", err, "session_id", session.ID)
		} else {
			uc.logger.Infow("session expiry renewed", "session_id", session.ID, "expires_at", newExpiry)
		}
	}

	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx, session.ID); err != nil {
			uc.logger.Warnw("failed to invalidate session cache", "error", err, "session_id", session.ID)
		}
	}

	uc.logger.Infow("tokens refreshed", "user_id", session.UserID, "session_id", session.ID)

	return &RefreshTokenResult{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	}, nil
}
