package usecases

import (
	"context"
	"fmt"
	"time"

	"warden/internal/domain/user"
	"warden/internal/shared/logger"
)

type ListSessionsQuery struct {
	Identity user.AuthenticatedIdentity
}

// SessionView is one entry in the caller's device list. Current is computed
// against the caller's own session at view time.
type SessionView struct {
	ID             string    `json:"id"`
	IPAddress      string    `json:"ip_address"`
	UserAgent      string    `json:"user_agent"`
	RememberMe     bool      `json:"remember_me"`
	Current        bool      `json:"current"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	CreatedAt      time.Time `json:"created_at"`
}

type ListSessionsUseCase struct {
	sessionRepo user.SessionRepository
	logger      logger.Interface
}

func NewListSessionsUseCase(sessionRepo user.SessionRepository, logger logger.Interface) *ListSessionsUseCase {
	return &ListSessionsUseCase{
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// Execute lists the caller's live sessions, most recently active first. The
// result only ever contains the caller's own sessions.
func (uc *ListSessionsUseCase) Execute(ctx context.Context, query ListSessionsQuery) ([]SessionView, error) {
	sessions, err := uc.sessionRepo.GetByUserID(ctx, query.Identity.UserID)
	if err != nil {
		uc.logger.Errorw("failed to list sessions", "error", err, "user_id", query.Identity.UserID)
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	views := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, SessionView{
			ID:             s.ID,
			IPAddress:      s.IPAddress,
			UserAgent:      s.UserAgent,
			RememberMe:     s.RememberMe,
			Current:        query.Identity.IsCurrent(s),
			ExpiresAt:      s.ExpiresAt,
			LastActivityAt: s.LastActivityAt,
			CreatedAt:      s.CreatedAt,
		})
	}

	return views, nil
}
