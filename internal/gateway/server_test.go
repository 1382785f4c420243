package gateway

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/cleartrack/client/internal/blob"
	"github.com/cleartrack/client/internal/notify"
)

func newTestServer() (*Server, *blob.Store) {
	blobs := blob.NewStore()
	return New(blobs, notify.NewEmitter()), blobs
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer()

	resp, err := s.App().Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestBlobServesLiveHandle(t *testing.T) {
	s, blobs := newTestServer()
	h := blobs.Acquire([]byte("audio bytes"))

	resp, err := s.App().Test(httptest.NewRequest("GET", "/blobs/"+h.Token(), nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/octet-stream" {
		t.Fatalf("content-type = %q", got)
	}
	if got := resp.Header.Get("Cache-Control"); got != "no-store" {
		t.Fatalf("cache-control = %q", got)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "audio bytes" {
		t.Fatalf("body = %q", body)
	}
}

func TestBlobRevokedTokenIs404(t *testing.T) {
	s, blobs := newTestServer()
	h := blobs.Acquire([]byte("audio bytes"))
	blobs.Release(h)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/blobs/"+h.Token(), nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Fatalf("status = %d, want 404 after release", resp.StatusCode)
	}
}

func TestBlobUnknownTokenIs404(t *testing.T) {
	s, _ := newTestServer()

	resp, err := s.App().Test(httptest.NewRequest("GET", "/blobs/nope", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestWSRouteRequiresUpgrade(t *testing.T) {
	s, _ := newTestServer()

	resp, err := s.App().Test(httptest.NewRequest("GET", "/ws/notifications", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 426 {
		t.Fatalf("status = %d, want 426 for plain GET", resp.StatusCode)
	}
}
