// Package authclient talks to the platform authentication service. The
// wizard only needs two answers from it: who the current browser user is, and
// whether an email already belongs to an account.
package authclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// User is the authenticated identity reported by the auth service.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Client is the auth-service surface the wizard consumes.
type Client interface {
	// CurrentUser resolves the bearer token to a user, or returns (nil, nil)
	// when the token is absent or not a live session.
	CurrentUser(ctx context.Context, bearer string) (*User, error)
	// EmailExists reports whether an account already owns the email.
	EmailExists(ctx context.Context, email string) (bool, error)
}

// HTTPClient implements Client against the auth service's REST API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("authclient: base URL is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPClient) CurrentUser(ctx context.Context, bearer string) (*User, error) {
	if strings.TrimSpace(bearer) == "" {
		return nil, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/me", nil)
	if err != nil {
		return nil, fmt.Errorf("authclient: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authclient: current user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("authclient: current user: status %d", resp.StatusCode)
	}

	var user User
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&user); err != nil {
		return nil, fmt.Errorf("authclient: decode user: %w", err)
	}
	if user.ID == "" {
		return nil, nil
	}
	return &user, nil
}

func (c *HTTPClient) EmailExists(ctx context.Context, email string) (bool, error) {
	endpoint := c.baseURL + "/users/exists?email=" + url.QueryEscape(email)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("authclient: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("authclient: email exists: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("authclient: email exists: status %d", resp.StatusCode)
	}

	var out struct {
		Exists bool `json:"exists"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return false, fmt.Errorf("authclient: decode response: %w", err)
	}
	return out.Exists, nil
}
