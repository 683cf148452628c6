package usecases

import (
	"context"
	"fmt"

	"warden/internal/domain/user"
	"warden/internal/shared/errors"
	"warden/internal/shared/logger"
)

type RegisterWithPasswordCommand struct {
	Username string
	Password string
}

type RegisterWithPasswordResult struct {
	User *user.User
}

type RegisterWithPasswordUseCase struct {
	userRepo       user.Repository
	passwordHasher user.PasswordHasher
	logger         logger.Interface
}

func NewRegisterWithPasswordUseCase(
	userRepo user.Repository,
	passwordHasher user.PasswordHasher,
	logger logger.Interface,
) *RegisterWithPasswordUseCase {
	return &RegisterWithPasswordUseCase{
		userRepo:       userRepo,
		passwordHasher: passwordHasher,
		logger:         logger,
	}
}

func (uc *RegisterWithPasswordUseCase) Execute(ctx context.Context, cmd RegisterWithPasswordCommand) (*RegisterWithPasswordResult, error) {
	// bcrypt truncates input beyond 72 bytes, so longer passwords are rejected
	// rather than silently weakened.
	if len(cmd.Password) < 8 || len(cmd.Password) > 72 {
		return nil, errors.NewValidationError("password must be between 8 and 72 characters")
	}

	exists, err := uc.userRepo.ExistsByUsername(ctx, cmd.Username)
	if err != nil {
		uc.logger.Errorw("failed to check username availability", "error", err)
		return nil, fmt.Errorf("failed to check username availability: %w", err)
	}
	if exists {
		return nil, errors.NewConflictError("username already taken")
	}

	passwordHash, err := uc.passwordHasher.Hash(cmd.Password)
	if err != nil {
		uc.logger.Errorw("failed to hash password", "error", err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := user.NewUser(cmd.Username, passwordHash)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	if err := uc.userRepo.Create(ctx, newUser); err != nil {
		uc.logger.Errorw("failed to create user", "error", err, "username", cmd.Username)
		return nil, err
	}

	uc.logger.Infow("user registered", "user_id", newUser.ID, "username", newUser.Username)

	return &RegisterWithPasswordResult{User: newUser}, nil
}
