package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserModel represents the database persistence model for users.
type UserModel struct {
	ID           uint    `gorm:"primarykey"`
	Username     string  `gorm:"size:64;uniqueIndex;not null"`
	DisplayName  string  `gorm:"size:100;not null"`
	AvatarURL    *string `gorm:"size:512"`
	Preferences  datatypes.JSON
	PasswordHash string `gorm:"size:255;not null"`
	Active       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name for GORM
func (UserModel) TableName() string {
	return "users"
}
