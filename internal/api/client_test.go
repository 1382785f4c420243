package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cleartrack/client/internal/config"
	"github.com/cleartrack/client/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler, token string) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.APIConfig{BaseURL: srv.URL, Token: token, Timeout: 5}), srv
}

func TestUploadSuccessReportsProgress(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(16 << 20); err != nil {
			t.Errorf("bad multipart request: %v", err)
		}
		if got := r.FormValue("preset"); got != "noise_reduction" {
			t.Errorf("preset = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		defer file.Close()
		if header.Filename != "track.wav" {
			t.Errorf("filename = %q", header.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"job_id":"srv-1","status":"processing","progress":0,"filename":"abc.wav","original_filename":"track.wav"}`))
	})
	c, _ := newTestClient(t, handler, "")

	var progress []int
	resp, err := c.Upload(context.Background(), "track.wav", make([]byte, 64*1024), model.PresetNoiseReduction, func(p int) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if resp.JobID != "srv-1" || resp.OriginalFilename != "track.wav" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	if len(progress) == 0 || progress[len(progress)-1] != 100 {
		t.Fatalf("progress should end at 100: %v", progress)
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Fatalf("progress not monotonic: %v", progress)
		}
	}
}

func TestUploadErrorDetailExtraction(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"flat detail", `{"detail":"file too large"}`, "file too large"},
		{"nested detail", `{"detail":{"message":"unsupported codec"}}`, "unsupported codec"},
		{"garbage body", `<html>oops</html>`, "Upload failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tc.body))
			})
			c, _ := newTestClient(t, handler, "")

			_, err := c.Upload(context.Background(), "a.wav", []byte("x"), model.PresetNoiseReduction, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tc.want {
				t.Fatalf("error = %q, want %q", err.Error(), tc.want)
			}
		})
	}
}

func TestAuthorizationHeaders(t *testing.T) {
	var gotAuth, gotGuest string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotGuest = r.Header.Get("X-Guest-ID")
		w.Write([]byte(`{"job_id":"x","status":"processing","progress":10,"filename":"f","original_filename":"f"}`))
	})

	c, _ := newTestClient(t, handler, "secret-token")
	if _, err := c.Status(context.Background(), "x"); err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("Authorization = %q", gotAuth)
	}

	anon, _ := newTestClient(t, handler, "")
	if _, err := anon.Status(context.Background(), "x"); err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("anonymous call sent Authorization %q", gotAuth)
	}
	first := gotGuest
	if first == "" {
		t.Fatal("anonymous call missing guest id")
	}
	if _, err := anon.Status(context.Background(), "x"); err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if gotGuest != first {
		t.Fatal("guest id must be stable per process")
	}
}

func TestDownloadFilename(t *testing.T) {
	withDisposition := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="server_name.wav"`)
		w.Write([]byte("bytes"))
	})
	c, _ := newTestClient(t, withDisposition, "")
	name, content, err := c.Download(context.Background(), "id", "track.wav")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if name != "server_name.wav" || string(content) != "bytes" {
		t.Fatalf("got %q / %q", name, content)
	}

	plain := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("bytes"))
	})
	c2, _ := newTestClient(t, plain, "")
	name, _, err = c2.Download(context.Background(), "id", "track.wav")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if name != "track_processed.wav" {
		t.Fatalf("derived name = %q", name)
	}
}

func TestEventsRejectedIsPermanent(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no streams here", http.StatusNotFound)
	})
	c, _ := newTestClient(t, handler, "")

	_, err := c.Events(context.Background(), "id")
	if !errors.Is(err, ErrStreamRejected) {
		t.Fatalf("expected ErrStreamRejected, got %v", err)
	}
}

func TestListProjects(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/projects" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"job_id":"p1","project_name":null,"filename":"a.wav","original_filename":"take1.wav","status":"completed","created_at":"2026-08-01T10:00:00Z"}]`))
	})
	c, _ := newTestClient(t, handler, "")

	projects, err := c.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("projects = %+v", projects)
	}
	p := projects[0]
	if p.JobID != "p1" || p.OriginalFilename != "take1.wav" || p.Status != model.JobStatusCompleted {
		t.Fatalf("project = %+v", p)
	}
	if p.ProjectName != nil {
		t.Fatalf("project name should be nil, got %q", *p.ProjectName)
	}
}

func TestFetchResultErrorUsesDetail(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"not yours"}`))
	})
	c, _ := newTestClient(t, handler, "")

	_, err := c.FetchResult(context.Background(), "id")
	if err == nil || err.Error() != "service error (status 403): not yours" {
		t.Fatalf("unexpected error: %v", err)
	}
}
