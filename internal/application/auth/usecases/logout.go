package usecases

import (
	"context"
	"fmt"

	"warden/internal/domain/user"
	"warden/internal/shared/logger"
)

type LogoutCommand struct {
	SessionID string
}

type LogoutUseCase struct {
	sessionRepo user.SessionRepository
	cache       SessionCacheInvalidator
	logger      logger.Interface
}

func NewLogoutUseCase(
	sessionRepo user.SessionRepository,
	cache SessionCacheInvalidator,
	logger logger.Interface,
) *LogoutUseCase {
	return &LogoutUseCase{
		sessionRepo: sessionRepo,
		cache:       cache,
		logger:      logger,
	}
}

// Execute ends the caller's own session. Logging out an already-removed
// session succeeds so retries stay safe.
func (uc *LogoutUseCase) Execute(ctx context.Context, cmd LogoutCommand) error {
	if err := uc.sessionRepo.Delete(ctx, cmd.SessionID); err != nil {
		uc.logger.Errorw("failed to delete session", "error", err, "session_id", cmd.SessionID)
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx, cmd.SessionID); err != nil {
			uc.logger.Warnw("failed to invalidate session cache", "error", err, "session_id", cmd.SessionID)
		}
	}

	uc.logger.Infow("user logged out", "session_id", cmd.SessionID)
	return nil
}
