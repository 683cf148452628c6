package usecases

import (
	"context"
	"fmt"
	"io"

	"warden/internal/domain/user"
	"warden/internal/shared/logger"
)

// AvatarStorage stores avatar images outside the database and maps between
// object keys and public URLs.
type AvatarStorage interface {
	Upload(ctx context.Context, userID uint, reader io.Reader, size int64, contentType string) (objectKey, publicURL string, err error)
	Delete(ctx context.Context, objectKey string) error
	KeyFromURL(url string) string
}

type SetAvatarCommand struct {
	Identity    user.AuthenticatedIdentity
	Reader      io.Reader
	Size        int64
	ContentType string
}

type SetAvatarUseCase struct {
	userRepo user.Repository
	storage  AvatarStorage
	logger   logger.Interface
}

func NewSetAvatarUseCase(userRepo user.Repository, storage AvatarStorage, logger logger.Interface) *SetAvatarUseCase {
	return &SetAvatarUseCase{
		userRepo: userRepo,
		storage:  storage,
		logger:   logger,
	}
}

func (uc *SetAvatarUseCase) Execute(ctx context.Context, cmd SetAvatarCommand) (*user.User, error) {
	u, err := uc.userRepo.GetByID(ctx, cmd.Identity.UserID)
	if err != nil {
		uc.logger.Errorw("failed to get user", "error", err, "user_id", cmd.Identity.UserID)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	oldKey := ""
	if u.AvatarURL != nil {
		oldKey = uc.storage.KeyFromURL(*u.AvatarURL)
	}

	_, publicURL, err := uc.storage.Upload(ctx, u.ID, cmd.Reader, cmd.Size, cmd.ContentType)
	if err != nil {
		return nil, err
	}

	u.SetAvatar(publicURL)

	if err := uc.userRepo.Update(ctx, u); err != nil {
		uc.logger.Errorw("failed to update avatar", "error", err, "user_id", u.ID)
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}

	// Old object is orphaned once the profile points elsewhere; removal is
	// best effort.
	if oldKey != "" {
		if err := uc.storage.Delete(ctx, oldKey); err != nil {
			uc.logger.Warnw("failed to delete previous avatar object", "error", err, "user_id", u.ID)
		}
	}

	uc.logger.Infow("avatar updated", "user_id", u.ID)
	return u, nil
}
