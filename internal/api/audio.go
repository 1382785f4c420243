package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/cleartrack/client/internal/model"
)

// Upload submits a file for processing as a multipart request, reporting
// transfer progress through onProgress (0–100). On rejection the returned
// error carries the service's structured detail message when present.
func (c *Client) Upload(ctx context.Context, fileName string, content []byte, preset model.Preset, onProgress ProgressFunc) (*model.UploadResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.WriteField("preset", string(preset)); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}

	total := int64(buf.Len())
	body := newProgressReader(bytes.NewReader(buf.Bytes()), total, onProgress)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpointUpload, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.ContentLength = total
	c.authorize(req)

	log.Printf("[API] → POST %s (%s, %d bytes)", endpointUpload, fileName, len(content))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := extractDetail(respBody, "Upload failed")
		log.Printf("[API] ✗ POST %s — %d: %s", endpointUpload, resp.StatusCode, msg)
		return nil, fmt.Errorf("%s", msg)
	}

	var result model.UploadResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// Status retrieves one status snapshot for a remote job.
func (c *Client) Status(ctx context.Context, remoteJobID string) (*model.StatusResponse, error) {
	var result model.StatusResponse
	if err := c.get(ctx, fmt.Sprintf(endpointStatus, remoteJobID), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Events opens the server-push status stream for a remote job. The returned
// body delivers text/event-stream frames until the server closes it. A
// non-2xx response means the stream mode is unavailable and yields
// ErrStreamRejected rather than a transient error.
func (c *Client) Events(ctx context.Context, remoteJobID string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+fmt.Sprintf(endpointEvents, remoteJobID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	c.authorize(req)

	// Streams outlive the client's request timeout; use a bare transport call.
	resp, err := c.streamClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open event stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w (status %d)", ErrStreamRejected, resp.StatusCode)
	}
	return resp.Body, nil
}

// streamClient is an http.Client without an overall timeout, for
// long-lived event streams. Cancellation comes from the request context.
func (c *Client) streamClient() *http.Client {
	return &http.Client{Transport: c.httpClient.Transport}
}

// FetchResult downloads the processed bytes for a remote job. The bytes must
// be fetched (with auth) and wrapped in a local handle because playback
// components cannot attach authorization headers to a bare URL.
func (c *Client) FetchResult(ctx context.Context, remoteJobID string) ([]byte, error) {
	content, _, err := c.getBinary(ctx, fmt.Sprintf(endpointDownload, remoteJobID))
	return content, err
}

// FetchOriginal downloads the originally uploaded bytes for a remote job,
// needed when reviewing a project not created in this session.
func (c *Client) FetchOriginal(ctx context.Context, remoteJobID string) ([]byte, error) {
	content, _, err := c.getBinary(ctx, fmt.Sprintf(endpointOriginal, remoteJobID))
	return content, err
}

// ListProjects retrieves the remote catalog of previously completed work.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var result []model.Project
	if err := c.get(ctx, endpointProjects, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Download fetches the processed bytes together with a filename suitable for
// saving: the server's Content-Disposition name when present, otherwise the
// original filename with a "_processed" suffix.
func (c *Client) Download(ctx context.Context, remoteJobID, originalFileName string) (string, []byte, error) {
	content, resp, err := c.getBinary(ctx, fmt.Sprintf(endpointDownload, remoteJobID))
	if err != nil {
		return "", nil, err
	}

	name := dispositionFilename(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = processedName(originalFileName)
	}
	return name, content, nil
}

func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func processedName(original string) string {
	if original == "" {
		return "processed_audio.wav"
	}
	ext := filepath.Ext(original)
	base := strings.TrimSuffix(original, ext)
	return base + "_processed" + ext
}
