package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"warden/internal/application/session/usecases"
	"warden/internal/shared/logger"
	"warden/internal/shared/utils"
)

// SessionHandler exposes the caller's device list and remote revocation.
type SessionHandler struct {
	listUseCase   *usecases.ListSessionsUseCase
	revokeUseCase *usecases.RevokeSessionUseCase
	logger        logger.Interface
}

func NewSessionHandler(
	listUC *usecases.ListSessionsUseCase,
	revokeUC *usecases.RevokeSessionUseCase,
	logger logger.Interface,
) *SessionHandler {
	return &SessionHandler{
		listUseCase:   listUC,
		revokeUseCase: revokeUC,
		logger:        logger,
	}
}

func (h *SessionHandler) ListSessions(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	sessions, err := h.listUseCase.Execute(c.Request.Context(), usecases.ListSessionsQuery{Identity: identity})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"sessions": sessions})
}

func (h *SessionHandler) RevokeSession(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	targetID := c.Param("id")
	if targetID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "session id is required")
		return
	}

	err := h.revokeUseCase.Execute(c.Request.Context(), usecases.RevokeSessionCommand{
		Identity:        identity,
		TargetSessionID: targetID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "session revoked", nil)
}
