package authclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newClient(t *testing.T, srv *httptest.Server) *HTTPClient {
	t.Helper()
	c, err := NewHTTPClient(srv.URL, 2*time.Second)
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	return c
}

func TestCurrentUserResolvesBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/me" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer session-1" {
			t.Errorf("authorization = %q", got)
		}
		w.Write([]byte(`{"id":"user-1","email":"ada@example.com","name":"Ada"}`))
	}))
	defer srv.Close()

	user, err := newClient(t, srv).CurrentUser(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if user == nil || user.ID != "user-1" || user.Email != "ada@example.com" {
		t.Errorf("user = %+v", user)
	}
}

func TestCurrentUserEmptyBearerIsGuest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request made for an empty bearer")
	}))
	defer srv.Close()

	user, err := newClient(t, srv).CurrentUser(context.Background(), "  ")
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if user != nil {
		t.Errorf("user = %+v, want nil", user)
	}
}

func TestCurrentUserUnauthorizedIsGuest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	user, err := newClient(t, srv).CurrentUser(context.Background(), "stale-session")
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if user != nil {
		t.Errorf("user = %+v, want nil for a dead session", user)
	}
}

func TestCurrentUserServerErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := newClient(t, srv).CurrentUser(context.Background(), "session-1"); err == nil {
		t.Fatal("server error swallowed")
	}
}

func TestEmailExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/exists" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("email"); got != "ada+test@example.com" {
			t.Errorf("email = %q", got)
		}
		w.Write([]byte(`{"exists":true}`))
	}))
	defer srv.Close()

	exists, err := newClient(t, srv).EmailExists(context.Background(), "ada+test@example.com")
	if err != nil {
		t.Fatalf("EmailExists: %v", err)
	}
	if !exists {
		t.Error("exists = false, want true")
	}
}
