package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"warden/internal/domain/user"
	"warden/internal/infrastructure/persistence/models"
)

// UserMapper handles the conversion between User domain entities and persistence models.
type UserMapper interface {
	ToModel(entity *user.User) (*models.UserModel, error)
	ToDomain(model *models.UserModel) (*user.User, error)
}

type userMapper struct{}

// NewUserMapper creates a new UserMapper.
func NewUserMapper() UserMapper {
	return &userMapper{}
}

func (m *userMapper) ToModel(entity *user.User) (*models.UserModel, error) {
	if entity == nil {
		return nil, nil
	}

	prefs, err := json.Marshal(entity.Preferences)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal preferences: %w", err)
	}

	return &models.UserModel{
		ID:           entity.ID,
		Username:     entity.Username,
		DisplayName:  entity.DisplayName,
		AvatarURL:    entity.AvatarURL,
		Preferences:  datatypes.JSON(prefs),
		PasswordHash: entity.PasswordHash,
		Active:       entity.Active,
		CreatedAt:    entity.CreatedAt,
		UpdatedAt:    entity.UpdatedAt,
	}, nil
}

func (m *userMapper) ToDomain(model *models.UserModel) (*user.User, error) {
	if model == nil {
		return nil, nil
	}

	prefs := user.DefaultPreferences()
	if len(model.Preferences) > 0 {
		if err := json.Unmarshal(model.Preferences, &prefs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
		}
	}

	return &user.User{
		ID:           model.ID,
		Username:     model.Username,
		DisplayName:  model.DisplayName,
		AvatarURL:    model.AvatarURL,
		Preferences:  prefs,
		PasswordHash: model.PasswordHash,
		Active:       model.Active,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}, nil
}
