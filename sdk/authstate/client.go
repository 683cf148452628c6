package authstate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client is the Warden profile and session API client. All calls are scoped
// to the identity behind the access token; there is no way to address another
// user.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu          sync.RWMutex
	accessToken string
}

// Option is a function that configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// NewClient creates a new API client.
//
// Parameters:
//   - baseURL: the API base URL (e.g., "https://warden.example.com")
//   - accessToken: the bearer access token for the current session
func NewClient(baseURL, accessToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAccessToken replaces the bearer token, e.g. after a refresh. Safe to
// call while requests are in flight.
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

func (c *Client) bearerToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// GetProfile retrieves the caller's profile.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.doRequest(ctx, http.MethodGet, "/api/profile", nil, &profile); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &profile, nil
}

// ListSessions retrieves the caller's active sessions, most recently active
// first.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var result struct {
		Sessions []Session `json:"sessions"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/api/sessions", nil, &result); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return result.Sessions, nil
}

// RevokeSession ends one of the caller's other sessions. Revoking the current
// session is rejected by the server; use logout instead.
func (c *Client) RevokeSession(ctx context.Context, sessionID string) error {
	path := "/api/sessions/" + sessionID
	if err := c.doRequest(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// UpdateProfile applies a partial profile update and returns the full updated
// profile.
func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*Profile, error) {
	var profile Profile
	if err := c.doRequest(ctx, http.MethodPatch, "/api/profile", req, &profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &profile, nil
}

// SetAvatar uploads a new avatar image and returns the updated profile.
// The server accepts PNG, JPEG, and WebP up to 2 MiB.
func (c *Client) SetAvatar(ctx context.Context, filename string, image io.Reader) (*Profile, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("avatar", filename)
	if err != nil {
		return nil, fmt.Errorf("set avatar: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("set avatar: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("set avatar: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/api/profile/avatar", &body)
	if err != nil {
		return nil, fmt.Errorf("set avatar: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken())
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var profile Profile
	if err := c.do(req, &profile); err != nil {
		return nil, fmt.Errorf("set avatar: %w", err)
	}
	return &profile, nil
}

// ClearAvatar removes the caller's avatar. Clearing an unset avatar is a
// no-op success.
func (c *Client) ClearAvatar(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.doRequest(ctx, http.MethodDelete, "/api/profile/avatar", nil, &profile); err != nil {
		return nil, fmt.Errorf("clear avatar: %w", err)
	}
	return &profile, nil
}

// doRequest performs a JSON request against the API and decodes the response
// envelope into result.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.bearerToken())
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("api error: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	if !apiResp.Success {
		msg := apiResp.Message
		if apiResp.Error != nil {
			msg = apiResp.Error.Message
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if result == nil || apiResp.Data == nil {
		return nil
	}

	// Re-marshal and unmarshal to convert Data to the target type.
	dataBytes, err := json.Marshal(apiResp.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}
	if err := json.Unmarshal(dataBytes, result); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}

	return nil
}

// APIError is a non-success response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d message=%s", e.StatusCode, e.Message)
}
