package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/internal/application/profile/usecases"
)

type stubAvatarStorage struct {
	uploadedKey string
	deletedKey  string
	uploadErr   error
}

func (s *stubAvatarStorage) Upload(ctx context.Context, userID uint, reader io.Reader, size int64, contentType string) (string, string, error) {
	if s.uploadErr != nil {
		return "", "", s.uploadErr
	}
	s.uploadedKey = "u1/abcd1234.png"
	return s.uploadedKey, "http://cdn.local/avatars/" + s.uploadedKey, nil
}

func (s *stubAvatarStorage) Delete(ctx context.Context, objectKey string) error {
	s.deletedKey = objectKey
	return nil
}

func (s *stubAvatarStorage) KeyFromURL(url string) string {
	return strings.TrimPrefix(url, "http://cdn.local/avatars/")
}

func newProfileTestRouter(userRepo *mockUserRepo, storage *stubAvatarStorage) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := testLogger()

	getUC := usecases.NewGetProfileUseCase(userRepo, log)
	updateUC := usecases.NewUpdateProfileUseCase(userRepo, log)
	setAvatarUC := usecases.NewSetAvatarUseCase(userRepo, storage, log)
	clearAvatarUC := usecases.NewClearAvatarUseCase(userRepo, storage, log)
	handler := NewProfileHandler(getUC, updateUC, setAvatarUC, clearAvatarUC, log)

	engine := gin.New()
	authed := engine.Group("", withIdentity(1, "sess-1"))
	authed.GET("/api/profile", handler.GetProfile)
	authed.PATCH("/api/profile", handler.UpdateProfile)
	authed.PUT("/api/profile/avatar", handler.SetAvatar)
	authed.DELETE("/api/profile/avatar", handler.ClearAvatar)

	// No identity on this route: simulates a routing mistake.
	engine.GET("/unprotected/profile", handler.GetProfile)
	return engine
}

func TestGetProfile(t *testing.T) {
	engine := newProfileTestRouter(&mockUserRepo{user: activeUser()}, &stubAvatarStorage{})

	w := doJSON(t, engine, http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	assert.Equal(t, "alice", data["username"])
	assert.NotContains(t, data, "password_hash")

	prefs := data["preferences"].(map[string]any)
	assert.Equal(t, "classic", prefs["theme_name"])
}

func TestGetProfileWithoutIdentity(t *testing.T) {
	engine := newProfileTestRouter(&mockUserRepo{user: activeUser()}, &stubAvatarStorage{})

	w := doJSON(t, engine, http.MethodGet, "/unprotected/profile", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfileDisplayName(t *testing.T) {
	userRepo := &mockUserRepo{user: activeUser()}
	engine := newProfileTestRouter(userRepo, &stubAvatarStorage{})

	w := doJSON(t, engine, http.MethodPatch, "/api/profile", gin.H{
		"display_name": "Alice B.",
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, userRepo.updated)
	assert.Equal(t, "Alice B.", userRepo.updated.DisplayName)
	// Untouched fields survive a partial update.
	assert.Equal(t, "classic", userRepo.updated.Preferences.ThemeName)
}

func TestUpdateProfilePreferences(t *testing.T) {
	userRepo := &mockUserRepo{user: activeUser()}
	engine := newProfileTestRouter(userRepo, &stubAvatarStorage{})

	w := doJSON(t, engine, http.MethodPatch, "/api/profile", gin.H{
		"preferences": gin.H{
			"theme_name":      "midnight",
			"theme_primary":   "#3b82f6",
			"theme_secondary": "#111827",
			"dark_mode":       true,
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, userRepo.updated)
	assert.Equal(t, "midnight", userRepo.updated.Preferences.ThemeName)
	assert.True(t, userRepo.updated.Preferences.DarkMode)
	assert.Equal(t, "alice", userRepo.updated.DisplayName)
}

func TestUpdateProfileRejectsBadColor(t *testing.T) {
	engine := newProfileTestRouter(&mockUserRepo{user: activeUser()}, &stubAvatarStorage{})

	w := doJSON(t, engine, http.MethodPatch, "/api/profile", gin.H{
		"preferences": gin.H{
			"theme_name":      "midnight",
			"theme_primary":   "not-a-color",
			"theme_secondary": "#111827",
		},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func doMultipart(t *testing.T, engine *gin.Engine, path, field, filename string, payload []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPut, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestSetAvatar(t *testing.T) {
	userRepo := &mockUserRepo{user: activeUser()}
	storage := &stubAvatarStorage{}
	engine := newProfileTestRouter(userRepo, storage)

	w := doMultipart(t, engine, "/api/profile/avatar", "avatar", "me.png", []byte("png-bytes"))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, userRepo.updated)
	require.NotNil(t, userRepo.updated.AvatarURL)
	assert.Equal(t, "http://cdn.local/avatars/u1/abcd1234.png", *userRepo.updated.AvatarURL)
}

func TestSetAvatarReplacesOldObject(t *testing.T) {
	u := activeUser()
	oldURL := "http://cdn.local/avatars/u1/old-key.png"
	u.AvatarURL = &oldURL
	storage := &stubAvatarStorage{}
	engine := newProfileTestRouter(&mockUserRepo{user: u}, storage)

	w := doMultipart(t, engine, "/api/profile/avatar", "avatar", "me.png", []byte("png-bytes"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1/old-key.png", storage.deletedKey)
}

func TestSetAvatarRejectsOversizedFile(t *testing.T) {
	engine := newProfileTestRouter(&mockUserRepo{user: activeUser()}, &stubAvatarStorage{})

	w := doMultipart(t, engine, "/api/profile/avatar", "avatar", "huge.png", make([]byte, (2<<20)+1))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetAvatarRequiresFile(t *testing.T) {
	engine := newProfileTestRouter(&mockUserRepo{user: activeUser()}, &stubAvatarStorage{})

	w := doJSON(t, engine, http.MethodPut, "/api/profile/avatar", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClearAvatar(t *testing.T) {
	u := activeUser()
	url := "http://cdn.local/avatars/u1/old-key.png"
	u.AvatarURL = &url
	userRepo := &mockUserRepo{user: u}
	storage := &stubAvatarStorage{}
	engine := newProfileTestRouter(userRepo, storage)

	w := doJSON(t, engine, http.MethodDelete, "/api/profile/avatar", nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, userRepo.updated)
	assert.Nil(t, userRepo.updated.AvatarURL)
	assert.Equal(t, "u1/old-key.png", storage.deletedKey)
}

func TestClearAvatarWithoutAvatarIsIdempotent(t *testing.T) {
	userRepo := &mockUserRepo{user: activeUser()}
	engine := newProfileTestRouter(userRepo, &stubAvatarStorage{})

	w := doJSON(t, engine, http.MethodDelete, "/api/profile/avatar", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	// Nothing to persist when there was no avatar.
	assert.Nil(t, userRepo.updated)
}
