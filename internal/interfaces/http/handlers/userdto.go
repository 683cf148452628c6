package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"warden/internal/domain/user"
	"warden/internal/shared/constants"
)

// UserView is the wire representation of a user profile. The password hash
// never leaves the server.
type UserView struct {
	ID          uint              `json:"id"`
	Username    string            `json:"username"`
	DisplayName string            `json:"display_name"`
	AvatarURL   *string           `json:"avatar_url"`
	Preferences user.Preferences  `json:"preferences"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func toUserView(u *user.User) UserView {
	return UserView{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Preferences: u.Preferences,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// identityFromContext rebuilds the identity the auth middleware stored.
// Returns false when the handler is reached without authentication, which is
// a routing mistake rather than a user error.
func identityFromContext(c *gin.Context) (user.AuthenticatedIdentity, bool) {
	userID, ok := c.Get(constants.ContextKeyUserID)
	if !ok {
		return user.AuthenticatedIdentity{}, false
	}
	sessionID, ok := c.Get(constants.ContextKeySessionID)
	if !ok {
		return user.AuthenticatedIdentity{}, false
	}

	uid, ok := userID.(uint)
	if !ok {
		return user.AuthenticatedIdentity{}, false
	}
	sid, ok := sessionID.(string)
	if !ok {
		return user.AuthenticatedIdentity{}, false
	}

	return user.AuthenticatedIdentity{UserID: uid, SessionID: sid}, true
}
