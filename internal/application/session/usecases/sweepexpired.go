package usecases

import (
	"context"
	"fmt"

	"warden/internal/domain/user"
	"warden/internal/shared/biztime"
	"warden/internal/shared/logger"
)

// SweepExpiredSessionsUseCase removes session records whose expiry has passed.
// Expired sessions are already invisible to reads, so this only reclaims
// storage and keeps the device list queries cheap.
type SweepExpiredSessionsUseCase struct {
	sessionRepo user.SessionRepository
	logger      logger.Interface
}

func NewSweepExpiredSessionsUseCase(sessionRepo user.SessionRepository, logger logger.Interface) *SweepExpiredSessionsUseCase {
	return &SweepExpiredSessionsUseCase{
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

func (uc *SweepExpiredSessionsUseCase) Execute(ctx context.Context) (int64, error) {
	removed, err := uc.sessionRepo.DeleteExpired(ctx, biztime.NowUTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return removed, nil
}
