package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nijaru/yt-review/models"
	"github.com/pkg/errors"
)

const videoJSON = `{"id":1,"url":"https://www.youtube.com/watch?v=abc12345678","video_id":"abc12345678",
"status":"completed","transcript_segments":[{"start":0,"text":"Hello world"}],
"summary_json":{"overview":"This is the summary overview.","key_points":[{"timestamp":30,"text":"Second key point"}]}}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/api/", Timeout: time.Second})
}

func TestGetVideo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/videos/1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(videoJSON))
	})

	v, err := c.GetVideo(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetVideo: %v", err)
	}
	if v.VideoID != "abc12345678" || !v.IsCompleted() || v.Summary == nil {
		t.Errorf("unexpected video: %+v", v)
	}
}

func TestGetVideoErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		notFound bool
	}{
		{"not found", http.StatusNotFound, `{"detail":"Video not found"}`, true},
		{"server error", http.StatusInternalServerError, "boom", false},
		{"bad json", http.StatusOK, "{", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.GetVideo(context.Background(), 7)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if got := errors.Cause(err) == ErrNotFound; got != tt.notFound {
				t.Errorf("ErrNotFound = %v, want %v (err: %v)", got, tt.notFound, err)
			}
		})
	}
}

func TestListVideosStatusFilter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("status"); got != "completed" {
			t.Errorf("expected status=completed, got %q", got)
		}
		w.Write([]byte("[" + videoJSON + "]"))
	})

	videos, err := c.ListVideos(context.Background(), models.StatusCompleted)
	if err != nil {
		t.Fatalf("ListVideos: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("expected 1 video, got %d", len(videos))
	}
}

func TestRateLimitHonoursContext(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Timeout: time.Second, RateLimit: 1, RateInterval: time.Hour})

	if _, err := c.ListVideos(context.Background(), ""); err != nil {
		t.Fatalf("first request: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.ListVideos(ctx, ""); err == nil {
		t.Fatal("expected second request to be throttled")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("expected 1 backend hit, got %d", n)
	}
}
