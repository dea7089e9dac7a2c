package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-review/client"
	"github.com/nijaru/yt-review/db"
	"github.com/nijaru/yt-review/errors"
	"github.com/nijaru/yt-review/middleware"
	"github.com/nijaru/yt-review/models"
	"github.com/nijaru/yt-review/utils"
	"github.com/nijaru/yt-review/validation"
	"github.com/nijaru/yt-review/view"
)

// VideoSource supplies video records, from the backend database or its API.
type VideoSource interface {
	GetVideo(ctx context.Context, id int64) (*models.Video, error)
	ListVideos(ctx context.Context, status models.Status) ([]models.Video, error)
}

// Handler serves the control surface of the single detail view.
type Handler struct {
	source    VideoSource
	newDetail func() *view.Detail
	timeout   time.Duration

	mu     sync.Mutex
	detail *view.Detail
}

// New returns a handler. newDetail builds a fresh view whenever none is open.
func New(source VideoSource, newDetail func() *view.Detail, timeout time.Duration) *Handler {
	return &Handler{source: source, newDetail: newDetail, timeout: timeout}
}

func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /api/videos", h.ListVideos)
	mux.HandleFunc("POST /api/view/{id}", h.LoadView)
	mux.HandleFunc("GET /api/view", h.GetView)
	mux.HandleFunc("DELETE /api/view", h.CloseView)
	mux.HandleFunc("POST /api/view/speech/{action}", h.Speech)
	mux.HandleFunc("POST /api/view/seek", h.Seek)
	return mux
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	videos, err := h.source.ListVideos(ctx, models.Status(r.URL.Query().Get("status")))
	if err != nil {
		utils.HandleAppError(w, errors.Unavailable("ListVideos", err, "Failed to list videos"))
		return
	}
	if videos == nil {
		videos = []models.Video{}
	}
	utils.WriteJSON(w, http.StatusOK, videos)
}

// LoadView fetches a video and shows it in the detail view, opening one if
// needed.
func (h *Handler) LoadView(w http.ResponseWriter, r *http.Request) {
	const op = "LoadView"
	logger := middleware.GetLogger(r.Context())

	id, err := validation.ParseRecordID(r.PathValue("id"))
	if err != nil {
		utils.HandleAppError(w, errors.InvalidInput(op, err, err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	video, err := h.source.GetVideo(ctx, id)
	if err != nil {
		if isNotFound(err) {
			utils.HandleAppError(w, errors.NotFound(op, err, "Video not found"))
			return
		}
		utils.HandleAppError(w, errors.Unavailable(op, err, "Failed to fetch video"))
		return
	}
	if video.IsCompleted() && video.VideoID != "" {
		if err := validation.ValidateVideoID(video.VideoID); err != nil {
			utils.HandleAppError(w, errors.Internal(op, err, "Video has an invalid YouTube id"))
			return
		}
	}

	h.mu.Lock()
	if h.detail == nil {
		h.detail = h.newDetail()
	}
	d := h.detail
	h.mu.Unlock()

	d.Load(video)
	logger.WithFields(logrus.Fields{
		"id":       video.ID,
		"video_id": video.VideoID,
		"status":   video.Status,
	}).Info("Video loaded into view")

	utils.WriteJSON(w, http.StatusOK, d.Snapshot())
}

func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	d, ok := h.current(w, "GetView")
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, d.Snapshot())
}

func (h *Handler) CloseView(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	d := h.detail
	h.detail = nil
	h.mu.Unlock()

	if d != nil {
		d.Close()
		middleware.GetLogger(r.Context()).Info("View closed")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Speech(w http.ResponseWriter, r *http.Request) {
	const op = "Speech"
	d, ok := h.current(w, op)
	if !ok {
		return
	}

	switch action := r.PathValue("action"); action {
	case "play":
		d.Play()
	case "pause":
		d.Pause()
	case "stop":
		d.Stop()
	default:
		utils.HandleAppError(w, errors.InvalidInput(op, nil, "Unknown speech action: "+action))
		return
	}
	utils.WriteJSON(w, http.StatusOK, d.Snapshot())
}

// Seek moves the player to `seconds`, key point `key_point` or transcript
// segment `transcript`. Seeks before the player is ready are dropped.
func (h *Handler) Seek(w http.ResponseWriter, r *http.Request) {
	const op = "Seek"
	d, ok := h.current(w, op)
	if !ok {
		return
	}

	var err error
	switch {
	case r.FormValue("key_point") != "":
		err = seekIndex(r.FormValue("key_point"), "key_point", d.SeekToKeyPoint)
	case r.FormValue("transcript") != "":
		err = seekIndex(r.FormValue("transcript"), "transcript", d.SeekToTranscript)
	default:
		var seconds float64
		seconds, err = validation.ParseSeekOffset(r.FormValue("seconds"))
		if err == nil {
			d.SeekTo(seconds)
		}
	}
	if err != nil {
		utils.HandleAppError(w, errors.InvalidInput(op, err, err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, d.Snapshot())
}

// Close releases the open view, if any.
func (h *Handler) Close() {
	h.mu.Lock()
	d := h.detail
	h.detail = nil
	h.mu.Unlock()
	if d != nil {
		d.Close()
	}
}

func (h *Handler) current(w http.ResponseWriter, op string) (*view.Detail, bool) {
	h.mu.Lock()
	d := h.detail
	h.mu.Unlock()
	if d == nil {
		utils.HandleAppError(w, errors.Conflict(op, nil, "No video loaded"))
		return nil, false
	}
	return d, true
}

func seekIndex(raw, field string, seek func(int) bool) error {
	i, err := validation.ParseIndex(field, raw)
	if err != nil {
		return err
	}
	if !seek(i) {
		return &validation.ValidationError{Field: field, Message: "error: " + field + " out of range"}
	}
	return nil
}

func isNotFound(err error) bool {
	cause := pkgerrors.Cause(err)
	return cause == db.ErrNotFound || cause == client.ErrNotFound
}
