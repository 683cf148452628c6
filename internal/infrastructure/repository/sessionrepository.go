package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"warden/internal/domain/user"
	"warden/internal/infrastructure/persistence/mappers"
	"warden/internal/infrastructure/persistence/models"
	"warden/internal/shared/biztime"
	"warden/internal/shared/errors"
)

// SessionRepository is the gorm-backed session registry. Live-session queries
// always filter on expires_at so an expired row is never handed back to the
// lifecycle layer.
type SessionRepository struct {
	db     *gorm.DB
	mapper mappers.SessionMapper
}

func NewSessionRepository(db *gorm.DB) user.SessionRepository {
	return &SessionRepository{
		db:     db,
		mapper: mappers.NewSessionMapper(),
	}
}

func (r *SessionRepository) Create(ctx context.Context, session *user.Session) error {
	model := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID string) (*user.Session, error) {
	var model models.SessionModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND expires_at > ?", sessionID, biztime.NowUTC()).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("session not found")
		}
		return nil, fmt.Errorf("failed to get session by ID: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *SessionRepository) GetByUserID(ctx context.Context, userID uint) ([]*user.Session, error) {
	var sessionModels []models.SessionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, biztime.NowUTC()).
		Order("last_activity_at DESC").
		Find(&sessionModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get sessions by user ID: %w", err)
	}

	sessions := make([]*user.Session, len(sessionModels))
	for i := range sessionModels {
		sessions[i] = r.mapper.ToDomain(&sessionModels[i])
	}
	return sessions, nil
}

func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*user.Session, error) {
	var model models.SessionModel
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND expires_at > ?", tokenHash, biztime.NowUTC()).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("session not found")
		}
		return nil, fmt.Errorf("failed to get session by token hash: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *SessionRepository) GetByRefreshTokenHash(ctx context.Context, refreshTokenHash string) (*user.Session, error) {
	var model models.SessionModel
	err := r.db.WithContext(ctx).
		Where("refresh_token_hash = ? AND expires_at > ?", refreshTokenHash, biztime.NowUTC()).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("session not found")
		}
		return nil, fmt.Errorf("failed to get session by refresh token hash: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *SessionRepository) UpdateTokens(ctx context.Context, sessionID, tokenHash, refreshTokenHash string) error {
	result := r.db.WithContext(ctx).
		Model(&models.SessionModel{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"token_hash":         tokenHash,
			"refresh_token_hash": refreshTokenHash,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update session tokens: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("session not found")
	}
	return nil
}

// Touch advances last_activity_at with a monotonic guard inside the UPDATE:
// a retried or out-of-order request carrying an older timestamp matches zero
// rows and is dropped, so concurrent touches converge on max(t1, t2).
func (r *SessionRepository) Touch(ctx context.Context, sessionID string, at time.Time) error {
	at = biztime.ToUTC(at)
	result := r.db.WithContext(ctx).
		Model(&models.SessionModel{}).
		Where("id = ? AND last_activity_at < ?", sessionID, at).
		Update("last_activity_at", at)
	if result.Error != nil {
		return fmt.Errorf("failed to touch session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Either the row is gone or the stored timestamp is already newer.
		// A stale write is resolved silently; only a missing row is an error.
		return r.checkExists(ctx, sessionID)
	}
	return nil
}

// ExtendExpiry pushes expires_at forward, never backward.
func (r *SessionRepository) ExtendExpiry(ctx context.Context, sessionID string, expiresAt time.Time) error {
	expiresAt = biztime.ToUTC(expiresAt)
	result := r.db.WithContext(ctx).
		Model(&models.SessionModel{}).
		Where("id = ? AND expires_at < ?", sessionID, expiresAt).
		Update("expires_at", expiresAt)
	if result.Error != nil {
		return fmt.Errorf("failed to extend session expiry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.checkExists(ctx, sessionID)
	}
	return nil
}

// Delete removes a session. A missing row is a no-op success so callers can
// retry safely.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", sessionID).
		Delete(&models.SessionModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete session: %w", result.Error)
	}
	return nil
}

func (r *SessionRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.SessionModel{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete sessions by user ID: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", biztime.ToUTC(now)).
		Delete(&models.SessionModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *SessionRepository) checkExists(ctx context.Context, sessionID string) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SessionModel{}).
		Where("id = ?", sessionID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check session existence: %w", err)
	}
	if count == 0 {
		return errors.NewNotFoundError("session not found")
	}
	return nil
}
