package usecases

import (
	"context"
	"fmt"

	"warden/internal/domain/user"
	"warden/internal/shared/errors"
	"warden/internal/shared/logger"
)

type UpdateProfileCommand struct {
	Identity    user.AuthenticatedIdentity
	DisplayName *string
	Preferences *user.Preferences
}

// UpdateProfileUseCase applies partial profile updates. The target is always
// the caller resolved from the credential, never a caller-supplied user ID.
type UpdateProfileUseCase struct {
	userRepo user.Repository
	logger   logger.Interface
}

func NewUpdateProfileUseCase(userRepo user.Repository, logger logger.Interface) *UpdateProfileUseCase {
	return &UpdateProfileUseCase{
		userRepo: userRepo,
		logger:   logger,
	}
}

func (uc *UpdateProfileUseCase) Execute(ctx context.Context, cmd UpdateProfileCommand) (*user.User, error) {
	u, err := uc.userRepo.GetByID(ctx, cmd.Identity.UserID)
	if err != nil {
		uc.logger.Errorw("failed to get user", "error", err, "user_id", cmd.Identity.UserID)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if cmd.DisplayName != nil {
		if err := u.UpdateDisplayName(*cmd.DisplayName); err != nil {
			return nil, errors.NewValidationError(err.Error())
		}
	}

	if cmd.Preferences != nil {
		u.UpdatePreferences(*cmd.Preferences)
	}

	if err := uc.userRepo.Update(ctx, u); err != nil {
		uc.logger.Errorw("failed to update profile", "error", err, "user_id", u.ID)
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	uc.logger.Infow("profile updated", "user_id", u.ID)
	return u, nil
}
