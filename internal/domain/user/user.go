package user

import (
	"fmt"
	"strings"
	"time"

	"warden/internal/shared/biztime"
)

// Preferences holds a user's appearance settings. They travel with the
// profile and go through the same mutation path as the avatar.
type Preferences struct {
	ThemeName      string `json:"theme_name"`
	ThemePrimary   string `json:"theme_primary"`
	ThemeSecondary string `json:"theme_secondary"`
	DarkMode       bool   `json:"dark_mode"`
}

// DefaultPreferences returns the appearance settings applied at registration.
func DefaultPreferences() Preferences {
	return Preferences{
		ThemeName:      "classic",
		ThemePrimary:   "#10b981",
		ThemeSecondary: "#1f2937",
		DarkMode:       false,
	}
}

// User is the owning entity for sessions and the profile. Username is unique
// and immutable after registration.
type User struct {
	ID           uint
	Username     string
	DisplayName  string
	AvatarURL    *string
	Preferences  Preferences
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PasswordHasher abstracts the password hashing scheme.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// NewUser creates a user with the given username and pre-hashed password.
func NewUser(username, passwordHash string) (*User, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 64 {
		return nil, fmt.Errorf("username must be between 3 and 64 characters")
	}
	if passwordHash == "" {
		return nil, fmt.Errorf("password hash is required")
	}

	now := biztime.NowUTC()
	return &User{
		Username:     username,
		DisplayName:  username,
		Preferences:  DefaultPreferences(),
		PasswordHash: passwordHash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// VerifyPassword checks the given plaintext password against the stored hash.
func (u *User) VerifyPassword(password string, hasher PasswordHasher) error {
	return hasher.Compare(u.PasswordHash, password)
}

// UpdateDisplayName changes the mutable display name.
func (u *User) UpdateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if len(name) < 1 || len(name) > 100 {
		return fmt.Errorf("display name must be between 1 and 100 characters")
	}
	u.DisplayName = name
	u.UpdatedAt = biztime.NowUTC()
	return nil
}

// SetAvatar records the avatar location after a successful upload.
func (u *User) SetAvatar(url string) {
	u.AvatarURL = &url
	u.UpdatedAt = biztime.NowUTC()
}

// ClearAvatar removes the avatar. Clearing an avatar that is already unset is
// idempotent success, not an error.
func (u *User) ClearAvatar() {
	if u.AvatarURL == nil {
		return
	}
	u.AvatarURL = nil
	u.UpdatedAt = biztime.NowUTC()
}

// UpdatePreferences replaces the appearance settings.
func (u *User) UpdatePreferences(p Preferences) {
	u.Preferences = p
	u.UpdatedAt = biztime.NowUTC()
}
