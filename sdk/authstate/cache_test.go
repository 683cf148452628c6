package authstate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type fakeServer struct {
	*httptest.Server

	profile        atomic.Pointer[Profile]
	sessions       atomic.Pointer[[]Session]
	profileCalls   atomic.Int64
	sessionCalls   atomic.Int64
	failReads      atomic.Bool
	revokedID      atomic.Pointer[string]
	lastAuthHeader atomic.Pointer[string]
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	fs := &fakeServer{}
	fs.profile.Store(&Profile{ID: 1, Username: "alice", DisplayName: "Alice"})
	fs.sessions.Store(&[]Session{
		{ID: "sess-current", Current: true},
		{ID: "sess-other"},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/profile", func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		fs.lastAuthHeader.Store(&auth)
		fs.profileCalls.Add(1)
		if fs.failReads.Load() {
			writeFailure(w, http.StatusInternalServerError, "boom")
			return
		}
		writeSuccess(w, fs.profile.Load())
	})
	mux.HandleFunc("GET /api/sessions", func(w http.ResponseWriter, r *http.Request) {
		fs.sessionCalls.Add(1)
		if fs.failReads.Load() {
			writeFailure(w, http.StatusInternalServerError, "boom")
			return
		}
		writeSuccess(w, map[string]any{"sessions": *fs.sessions.Load()})
	})
	mux.HandleFunc("DELETE /api/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "sess-current" {
			writeFailure(w, http.StatusForbidden, "cannot revoke the current session")
			return
		}
		fs.revokedID.Store(&id)
		kept := make([]Session, 0)
		for _, s := range *fs.sessions.Load() {
			if s.ID != id {
				kept = append(kept, s)
			}
		}
		fs.sessions.Store(&kept)
		writeSuccess(w, nil)
	})
	mux.HandleFunc("PATCH /api/profile", func(w http.ResponseWriter, r *http.Request) {
		var req UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeFailure(w, http.StatusBadRequest, "bad body")
			return
		}
		updated := *fs.profile.Load()
		if req.DisplayName != nil {
			updated.DisplayName = *req.DisplayName
		}
		if req.Preferences != nil {
			updated.Preferences = *req.Preferences
		}
		fs.profile.Store(&updated)
		writeSuccess(w, &updated)
	})
	mux.HandleFunc("DELETE /api/profile/avatar", func(w http.ResponseWriter, r *http.Request) {
		updated := *fs.profile.Load()
		updated.AvatarURL = nil
		fs.profile.Store(&updated)
		writeSuccess(w, &updated)
	})

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func writeSuccess(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: false, Error: &apiError{Type: "error", Message: msg}})
}

func TestCacheFetchesOnFirstRead(t *testing.T) {
	fs := newFakeServer(t)
	cache := NewCache(NewClient(fs.URL, "token-123"))

	profile, err := cache.Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if profile.Username != "alice" {
		t.Errorf("username = %q, want alice", profile.Username)
	}
	if got := *fs.lastAuthHeader.Load(); got != "Bearer token-123" {
		t.Errorf("auth header = %q", got)
	}

	state := cache.Snapshot()
	if state.Stale {
		t.Error("state should be fresh after a successful fetch")
	}
	if len(state.Sessions) != 2 {
		t.Errorf("sessions = %d, want 2", len(state.Sessions))
	}
}

func TestCacheServesFreshReadsWithoutRefetch(t *testing.T) {
	fs := newFakeServer(t)
	now := time.Now()
	cache := NewCache(NewClient(fs.URL, "t"), WithTTL(30*time.Second), WithClock(func() time.Time { return now }))

	ctx := context.Background()
	if _, err := cache.Profile(ctx); err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if _, err := cache.Sessions(ctx); err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if _, err := cache.Profile(ctx); err != nil {
		t.Fatalf("Profile: %v", err)
	}

	if calls := fs.profileCalls.Load(); calls != 1 {
		t.Errorf("profile fetches = %d, want 1", calls)
	}
}

func TestCacheRefetchesAfterTTL(t *testing.T) {
	fs := newFakeServer(t)
	now := time.Now()
	cache := NewCache(NewClient(fs.URL, "t"), WithTTL(30*time.Second), WithClock(func() time.Time { return now }))

	ctx := context.Background()
	if _, err := cache.Profile(ctx); err != nil {
		t.Fatalf("Profile: %v", err)
	}

	now = now.Add(31 * time.Second)
	if _, err := cache.Profile(ctx); err != nil {
		t.Fatalf("Profile: %v", err)
	}

	if calls := fs.profileCalls.Load(); calls != 2 {
		t.Errorf("profile fetches = %d, want 2", calls)
	}
}

func TestFailedRefetchKeepsDataAndMarksStale(t *testing.T) {
	fs := newFakeServer(t)
	cache := NewCache(NewClient(fs.URL, "t"))

	ctx := context.Background()
	if _, err := cache.Profile(ctx); err != nil {
		t.Fatalf("Profile: %v", err)
	}

	fs.failReads.Store(true)
	cache.Invalidate()

	profile, err := cache.Profile(ctx)
	if err == nil {
		t.Fatal("expected refetch error")
	}
	if profile == nil || profile.Username != "alice" {
		t.Error("previous data should survive a failed refetch")
	}
	if !cache.Snapshot().Stale {
		t.Error("state should stay stale after a failed refetch")
	}
}

func TestRevokeSessionPatchesThenReconciles(t *testing.T) {
	fs := newFakeServer(t)
	cache := NewCache(NewClient(fs.URL, "t"))

	ctx := context.Background()
	if err := cache.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if err := cache.RevokeSession(ctx, "sess-other"); err != nil {
		t.Fatalf("RevokeSession: %v", err)
	}

	if got := *fs.revokedID.Load(); got != "sess-other" {
		t.Errorf("revoked %q, want sess-other", got)
	}

	state := cache.Snapshot()
	if state.Pending {
		t.Error("pending flag should clear after a successful reconcile")
	}
	if state.Stale {
		t.Error("state should be fresh after reconcile")
	}
	if len(state.Sessions) != 1 || state.Sessions[0].ID != "sess-current" {
		t.Errorf("sessions after revoke = %+v", state.Sessions)
	}
}

func TestRevokeFailureLeavesPendingPatch(t *testing.T) {
	fs := newFakeServer(t)
	cache := NewCache(NewClient(fs.URL, "t"))

	ctx := context.Background()
	if err := cache.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	err := cache.RevokeSession(ctx, "sess-current")
	if err == nil {
		t.Fatal("expected revoke of the current session to fail")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("err = %v, want 403 APIError", err)
	}

	state := cache.Snapshot()
	if !state.Pending {
		t.Error("pending flag should survive a failed mutation")
	}
	if !state.Stale {
		t.Error("state should be stale after a failed mutation")
	}

	// The next successful read restores the server's view.
	sessions, err := cache.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("sessions = %d, want server view of 2", len(sessions))
	}
	if cache.Snapshot().Pending {
		t.Error("pending flag should clear after a successful refetch")
	}
}

func TestUpdateProfileAppliesOptimisticPatch(t *testing.T) {
	fs := newFakeServer(t)
	cache := NewCache(NewClient(fs.URL, "t"))

	ctx := context.Background()
	if err := cache.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	name := "Alice B."
	if err := cache.UpdateProfile(ctx, UpdateProfileRequest{DisplayName: &name}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	state := cache.Snapshot()
	if state.Profile.DisplayName != "Alice B." {
		t.Errorf("display name = %q", state.Profile.DisplayName)
	}
	if state.Pending || state.Stale {
		t.Errorf("state should be reconciled, got pending=%v stale=%v", state.Pending, state.Stale)
	}
}

func TestClearAvatarReconciles(t *testing.T) {
	fs := newFakeServer(t)
	url := "http://cdn.example.com/avatars/a.png"
	p := *fs.profile.Load()
	p.AvatarURL = &url
	fs.profile.Store(&p)

	cache := NewCache(NewClient(fs.URL, "t"))
	ctx := context.Background()
	if err := cache.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if err := cache.ClearAvatar(ctx); err != nil {
		t.Fatalf("ClearAvatar: %v", err)
	}

	if got := cache.Snapshot().Profile.AvatarURL; got != nil {
		t.Errorf("avatar url = %v, want nil", *got)
	}
}
