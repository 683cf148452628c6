// Package authstate provides a Go SDK for the Warden profile and session
// APIs, with a client-side cache of the caller's auth state.
package authstate

import "time"

// Profile is the caller's own profile as served by the API.
type Profile struct {
	ID          uint        `json:"id"`
	Username    string      `json:"username"`
	DisplayName string      `json:"display_name"`
	AvatarURL   *string     `json:"avatar_url"`
	Preferences Preferences `json:"preferences"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Preferences holds the appearance settings attached to a profile.
type Preferences struct {
	ThemeName      string `json:"theme_name"`
	ThemePrimary   string `json:"theme_primary"`
	ThemeSecondary string `json:"theme_secondary"`
	DarkMode       bool   `json:"dark_mode"`
}

// Session is one entry in the caller's device list. Current is true for the
// session whose credential made the listing request.
type Session struct {
	ID             string    `json:"id"`
	IPAddress      string    `json:"ip_address"`
	UserAgent      string    `json:"user_agent"`
	RememberMe     bool      `json:"remember_me"`
	Current        bool      `json:"current"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// UpdateProfileRequest carries a partial profile update. Nil fields are left
// unchanged.
type UpdateProfileRequest struct {
	DisplayName *string      `json:"display_name,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

// apiResponse is the standard response envelope used by the API.
type apiResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Error   *apiError `json:"error,omitempty"`
	Data    any       `json:"data,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
