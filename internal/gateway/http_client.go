package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// HTTPClient implements Client against the enrollment service's REST API.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient constructs an HTTPClient. The timeout applies per call; zero
// selects the default.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) (*HTTPClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("gateway: base URL is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type remoteError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *HTTPClient) Status(ctx context.Context, token string) (Snapshot, error) {
	var snap Snapshot
	err := c.do(ctx, http.MethodGet, "/enrollments/"+token, nil, nil, &snap)
	return snap, err
}

func (c *HTTPClient) LinkAccount(ctx context.Context, token string, settle time.Duration) error {
	if err := c.do(ctx, http.MethodPost, "/enrollments/"+token+"/link", nil, nil, nil); err != nil {
		return err
	}
	if settle <= 0 {
		return nil
	}
	// The remote acknowledges the link before its pooled readers observe it;
	// wait out the window so the next Status read includes the account.
	timer := time.NewTimer(settle)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *HTTPClient) RequestSignature(ctx context.Context, token string, profile Profile) (Envelope, error) {
	var env Envelope
	body := map[string]any{"profile": profile}
	err := c.do(ctx, http.MethodPost, "/enrollments/"+token+"/signature", body, nil, &env)
	return env, err
}

func (c *HTTPClient) SyncSignatureStatus(ctx context.Context, token string) (SignatureStatus, error) {
	var out struct {
		Status SignatureStatus `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/enrollments/"+token+"/signature/sync", nil, nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

func (c *HTTPClient) Commit(ctx context.Context, token string, payload CommitPayload) (CommitResult, error) {
	var res CommitResult
	headers := map[string]string{}
	if payload.IdempotencyKey != "" {
		headers["Idempotency-Key"] = payload.IdempotencyKey
	}
	err := c.do(ctx, http.MethodPost, "/enrollments/"+token+"/commit", payload, headers, &res)
	return res, err
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gateway: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("gateway: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var remote remoteError
		_ = json.Unmarshal(data, &remote)
		switch {
		case resp.StatusCode == http.StatusGone || remote.Error.Code == "expired":
			return ErrExpired
		case resp.StatusCode == http.StatusConflict && remote.Error.Code == "already_completed":
			// The remote de-duplicated a repeated commit; the body still
			// carries the original result.
			if out != nil {
				if err := json.Unmarshal(data, out); err != nil {
					return fmt.Errorf("gateway: decode duplicate-commit response: %w", err)
				}
			}
			return nil
		case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusConflict:
			reason := remote.Error.Message
			if reason == "" {
				reason = fmt.Sprintf("status %d", resp.StatusCode)
			}
			return &RejectedError{Reason: reason}
		default:
			msg := remote.Error.Message
			if msg == "" {
				msg = http.StatusText(resp.StatusCode)
			}
			return fmt.Errorf("gateway: %s %s: %s (status %d)", method, path, msg, resp.StatusCode)
		}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("gateway: decode response: %w", err)
	}
	return nil
}
