package mappers

import (
	"warden/internal/domain/user"
	"warden/internal/infrastructure/persistence/models"
)

// SessionMapper handles the conversion between Session domain entities and persistence models.
type SessionMapper interface {
	ToModel(entity *user.Session) *models.SessionModel
	ToDomain(model *models.SessionModel) *user.Session
}

type sessionMapper struct{}

// NewSessionMapper creates a new SessionMapper.
func NewSessionMapper() SessionMapper {
	return &sessionMapper{}
}

func (m *sessionMapper) ToModel(entity *user.Session) *models.SessionModel {
	if entity == nil {
		return nil
	}
	return &models.SessionModel{
		ID:               entity.ID,
		UserID:           entity.UserID,
		IPAddress:        entity.IPAddress,
		UserAgent:        entity.UserAgent,
		RememberMe:       entity.RememberMe,
		TokenHash:        entity.TokenHash,
		RefreshTokenHash: entity.RefreshTokenHash,
		ExpiresAt:        entity.ExpiresAt,
		LastActivityAt:   entity.LastActivityAt,
		CreatedAt:        entity.CreatedAt,
	}
}

func (m *sessionMapper) ToDomain(model *models.SessionModel) *user.Session {
	if model == nil {
		return nil
	}
	return &user.Session{
		ID:               model.ID,
		UserID:           model.UserID,
		IPAddress:        model.IPAddress,
		UserAgent:        model.UserAgent,
		RememberMe:       model.RememberMe,
		TokenHash:        model.TokenHash,
		RefreshTokenHash: model.RefreshTokenHash,
		ExpiresAt:        model.ExpiresAt,
		LastActivityAt:   model.LastActivityAt,
		CreatedAt:        model.CreatedAt,
	}
}
