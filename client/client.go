package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nijaru/yt-review/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned when the backend answers 404.
var ErrNotFound = errors.New("video not found")

type Config struct {
	BaseURL      string
	Timeout      time.Duration
	RateLimit    int
	RateInterval time.Duration
	HTTPClient   *http.Client
}

// Client reads video records from the backend REST API. Requests are
// throttled so a polling view cannot flood the backend.
type Client struct {
	base    string
	http    *http.Client
	limiter *rate.Limiter
}

func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 && cfg.RateInterval > 0 {
		limit = rate.Every(cfg.RateInterval / time.Duration(cfg.RateLimit))
	}
	burst := cfg.RateLimit
	if burst < 1 {
		burst = 1
	}
	return &Client{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// GetVideo fetches GET /videos/{id}.
func (c *Client) GetVideo(ctx context.Context, id int64) (*models.Video, error) {
	var v models.Video
	if err := c.get(ctx, fmt.Sprintf("/videos/%d", id), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListVideos fetches GET /videos, optionally filtered by status.
func (c *Client) ListVideos(ctx context.Context, status models.Status) ([]models.Video, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	var videos []models.Video
	if err := c.get(ctx, "/videos", q, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter")
	}

	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(err, "error creating request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "GET %s", path)
	}
	defer resp.Body.Close()

	logrus.WithFields(logrus.Fields{
		"component": "client",
		"path":      path,
		"status":    resp.StatusCode,
	}).Debug("Backend response")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.Wrapf(ErrNotFound, "GET %s", path)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("GET %s: unexpected status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "GET %s: decoding response", path)
	}
	return nil
}
