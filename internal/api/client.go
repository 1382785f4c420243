// Package api is the transport adapter for the remote audio-cleanup service.
// It is the only place that talks HTTP to the service; every call carries the
// same authorization context (bearer token or anonymous guest session).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/cleartrack/client/internal/config"
	"github.com/cleartrack/client/internal/model"
)

// Endpoints of the remote service.
const (
	endpointUpload   = "/audio/upload"
	endpointStatus   = "/audio/status/%s"
	endpointDownload = "/audio/download/%s"
	endpointOriginal = "/audio/original/%s"
	endpointEvents   = "/audio/events/%s"
	endpointProjects = "/audio/projects"
)

// ErrStreamRejected is returned by Events when the server refuses the
// persistent connection outright (as opposed to a transient failure).
var ErrStreamRejected = errors.New("api: event stream rejected by server")

// AudioService defines the remote operations the orchestration core depends on.
type AudioService interface {
	Upload(ctx context.Context, fileName string, content []byte, preset model.Preset, onProgress ProgressFunc) (*model.UploadResponse, error)
	Status(ctx context.Context, remoteJobID string) (*model.StatusResponse, error)
	Events(ctx context.Context, remoteJobID string) (io.ReadCloser, error)
	FetchResult(ctx context.Context, remoteJobID string) ([]byte, error)
	FetchOriginal(ctx context.Context, remoteJobID string) ([]byte, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
}

// Client implements AudioService over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	guestID    string
}

// NewClient creates a new transport adapter. When no bearer token is
// configured the client identifies itself with a per-process guest session id.
func NewClient(cfg *config.APIConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
	}
	if c.token == "" {
		c.guestID = uuid.NewString()
	}
	return c
}

// authorize applies the authorization context to an outgoing request.
func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else {
		req.Header.Set("X-Guest-ID", c.guestID)
	}
}

// get performs an authorized GET and decodes a JSON response.
func (c *Client) get(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("service error (status %d): %s", resp.StatusCode, extractDetail(body, "request failed"))
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// getBinary performs an authorized GET and returns the raw response body.
func (c *Client) getBinary(ctx context.Context, endpoint string) ([]byte, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, fmt.Errorf("service error (status %d): %s", resp.StatusCode, extractDetail(body, "request failed"))
	}
	return body, resp, nil
}

// extractDetail pulls a human-readable message out of the service's
// structured error body: {"detail": "..."} or {"detail": {"message": "..."}}.
func extractDetail(body []byte, fallback string) string {
	var wrapper struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil || len(wrapper.Detail) == 0 {
		return fallback
	}

	var msg string
	if err := json.Unmarshal(wrapper.Detail, &msg); err == nil && msg != "" {
		return msg
	}

	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(wrapper.Detail, &nested); err == nil && nested.Message != "" {
		return nested.Message
	}
	return fallback
}
