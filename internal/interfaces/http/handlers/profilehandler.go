package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"warden/internal/application/profile/usecases"
	"warden/internal/domain/user"
	"warden/internal/shared/constants"
	"warden/internal/shared/logger"
	"warden/internal/shared/utils"
)

// ProfileHandler serves the caller's own profile. There is no path parameter
// for the user: the target is always the identity resolved from the
// credential.
type ProfileHandler struct {
	getUseCase         *usecases.GetProfileUseCase
	updateUseCase      *usecases.UpdateProfileUseCase
	setAvatarUseCase   *usecases.SetAvatarUseCase
	clearAvatarUseCase *usecases.ClearAvatarUseCase
	logger             logger.Interface
}

func NewProfileHandler(
	getUC *usecases.GetProfileUseCase,
	updateUC *usecases.UpdateProfileUseCase,
	setAvatarUC *usecases.SetAvatarUseCase,
	clearAvatarUC *usecases.ClearAvatarUseCase,
	logger logger.Interface,
) *ProfileHandler {
	return &ProfileHandler{
		getUseCase:         getUC,
		updateUseCase:      updateUC,
		setAvatarUseCase:   setAvatarUC,
		clearAvatarUseCase: clearAvatarUC,
		logger:             logger,
	}
}

type UpdateProfileRequest struct {
	DisplayName *string             `json:"display_name" binding:"omitempty,min=1,max=100"`
	Preferences *PreferencesRequest `json:"preferences"`
}

type PreferencesRequest struct {
	ThemeName      string `json:"theme_name" binding:"required,max=50"`
	ThemePrimary   string `json:"theme_primary" binding:"required,hexcolor"`
	ThemeSecondary string `json:"theme_secondary" binding:"required,hexcolor"`
	DarkMode       bool   `json:"dark_mode"`
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	u, err := h.getUseCase.Execute(c.Request.Context(), usecases.GetProfileQuery{Identity: identity})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", toUserView(u))
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	cmd := usecases.UpdateProfileCommand{
		Identity:    identity,
		DisplayName: req.DisplayName,
	}
	if req.Preferences != nil {
		cmd.Preferences = &user.Preferences{
			ThemeName:      req.Preferences.ThemeName,
			ThemePrimary:   req.Preferences.ThemePrimary,
			ThemeSecondary: req.Preferences.ThemeSecondary,
			DarkMode:       req.Preferences.DarkMode,
		}
	}

	u, err := h.updateUseCase.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "profile updated", toUserView(u))
}

func (h *ProfileHandler) SetAvatar(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "avatar file is required")
		return
	}
	if fileHeader.Size > constants.AvatarMaxBytes {
		utils.ErrorResponse(c, http.StatusBadRequest, "avatar exceeds the maximum allowed size")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "failed to read avatar file")
		return
	}
	defer file.Close()

	u, err := h.setAvatarUseCase.Execute(c.Request.Context(), usecases.SetAvatarCommand{
		Identity:    identity,
		Reader:      file,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "avatar updated", toUserView(u))
}

func (h *ProfileHandler) ClearAvatar(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	u, err := h.clearAvatarUseCase.Execute(c.Request.Context(), usecases.ClearAvatarCommand{Identity: identity})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "avatar cleared", toUserView(u))
}
