package usecases

import (
	"context"
	"fmt"

	"warden/internal/domain/user"
	"warden/internal/shared/logger"
)

type GetProfileQuery struct {
	Identity user.AuthenticatedIdentity
}

type GetProfileUseCase struct {
	userRepo user.Repository
	logger   logger.Interface
}

func NewGetProfileUseCase(userRepo user.Repository, logger logger.Interface) *GetProfileUseCase {
	return &GetProfileUseCase{
		userRepo: userRepo,
		logger:   logger,
	}
}

func (uc *GetProfileUseCase) Execute(ctx context.Context, query GetProfileQuery) (*user.User, error) {
	u, err := uc.userRepo.GetByID(ctx, query.Identity.UserID)
	if err != nil {
		uc.logger.Errorw("failed to get profile", "error", err, "user_id", query.Identity.UserID)
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return u, nil
}
