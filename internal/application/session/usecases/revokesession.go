package usecases

import (
	"context"
	"fmt"

	"warden/internal/domain/user"
	"warden/internal/shared/errors"
	"warden/internal/shared/logger"
)

type RevokeSessionCommand struct {
	Identity        user.AuthenticatedIdentity
	TargetSessionID string
}

// SessionCacheInvalidator evicts a cached session lookup after revocation.
type SessionCacheInvalidator interface {
	Invalidate(ctx context.Context, sessionID string) error
}

// RevokeSessionUseCase ends one of the caller's other sessions. The caller's
// own session is rejected here; ending it is a logout, which returns cookies
// and client state to a clean slate.
type RevokeSessionUseCase struct {
	sessionRepo user.SessionRepository
	cache       SessionCacheInvalidator
	logger      logger.Interface
}

func NewRevokeSessionUseCase(
	sessionRepo user.SessionRepository,
	cache SessionCacheInvalidator,
	logger logger.Interface,
) *RevokeSessionUseCase {
	return &RevokeSessionUseCase{
		sessionRepo: sessionRepo,
		cache:       cache,
		logger:      logger,
	}
}

func (uc *RevokeSessionUseCase) Execute(ctx context.Context, cmd RevokeSessionCommand) error {
	if cmd.TargetSessionID == cmd.Identity.SessionID {
		return errors.NewSelfRevokeError()
	}

	target, err := uc.sessionRepo.GetByID(ctx, cmd.TargetSessionID)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return errors.NewNotFoundError("session not found")
		}
		uc.logger.Errorw("failed to get session", "error", err, "session_id", cmd.TargetSessionID)
		return fmt.Errorf("failed to get session: %w", err)
	}

	// Another user's session is reported as not found, identical to a session
	// that never existed, so session IDs cannot be probed.
	if target.UserID != cmd.Identity.UserID {
		return errors.NewNotFoundError("session not found")
	}

	if err := uc.sessionRepo.Delete(ctx, cmd.TargetSessionID); err != nil {
		uc.logger.Errorw("failed to delete session", "error", err, "session_id", cmd.TargetSessionID)
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx, cmd.TargetSessionID); err != nil {
			uc.logger.Warnw("failed to invalidate session cache", "error", err, "session_id", cmd.TargetSessionID)
		}
	}

	uc.logger.Infow("session revoked",
		"user_id", cmd.Identity.UserID,
		"revoked_session_id", cmd.TargetSessionID,
		"acting_session_id", cmd.Identity.SessionID,
	)
	return nil
}
