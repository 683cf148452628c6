package usecases

import (
	"context"
	"fmt"

	"warden/internal/domain/user"
	"warden/internal/shared/logger"
)

type ClearAvatarCommand struct {
	Identity user.AuthenticatedIdentity
}

type ClearAvatarUseCase struct {
	userRepo user.Repository
	storage  AvatarStorage
	logger   logger.Interface
}

func NewClearAvatarUseCase(userRepo user.Repository, storage AvatarStorage, logger logger.Interface) *ClearAvatarUseCase {
	return &ClearAvatarUseCase{
		userRepo: userRepo,
		storage:  storage,
		logger:   logger,
	}
}

// Execute removes the caller's avatar. Clearing an avatar that is already
// unset is a success, not an error.
func (uc *ClearAvatarUseCase) Execute(ctx context.Context, cmd ClearAvatarCommand) (*user.User, error) {
	u, err := uc.userRepo.GetByID(ctx, cmd.Identity.UserID)
	if err != nil {
		uc.logger.Errorw("failed to get user", "error", err, "user_id", cmd.Identity.UserID)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if u.AvatarURL == nil {
		return u, nil
	}

	oldKey := uc.storage.KeyFromURL(*u.AvatarURL)
	u.ClearAvatar()

	if err := uc.userRepo.Update(ctx, u); err != nil {
		uc.logger.Errorw("failed to clear avatar", "error", err, "user_id", u.ID)
		return nil, fmt.Errorf("failed to clear avatar: %w", err)
	}

	if oldKey != "" {
		if err := uc.storage.Delete(ctx, oldKey); err != nil {
			uc.logger.Warnw("failed to delete avatar object", "error", err, "user_id", u.ID)
		}
	}

	uc.logger.Infow("avatar cleared", "user_id", u.ID)
	return u, nil
}
