package player

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-review/cache"
)

// ErrScriptLoad is reported to every session waiting on a failed load.
var ErrScriptLoad = errors.New("Failed to load YouTube IFrame API")

const (
	DefaultScriptSource = "https://www.youtube.com/iframe_api"
	DefaultPollInterval = 100 * time.Millisecond
)

// LoaderConfig configures a ScriptLoader.
type LoaderConfig struct {
	// Source is handed to Host.InjectScript.
	Source string
	// PollInterval is how often an externally injected script is checked
	// for readiness.
	PollInterval time.Duration
}

// ScriptLoader provisions the embed script once per process. All sessions
// share one loader.
type ScriptLoader struct {
	host Host
	cfg  LoaderConfig
	cell *cache.Cell[struct{}]
	log  *logrus.Entry
}

// NewScriptLoader returns a loader over host. ctx bounds the shared load.
func NewScriptLoader(ctx context.Context, host Host, cfg LoaderConfig) *ScriptLoader {
	if cfg.Source == "" {
		cfg.Source = DefaultScriptSource
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &ScriptLoader{
		host: host,
		cfg:  cfg,
		cell: cache.NewCell[struct{}](ctx),
		log:  logrus.WithField("component", "script-loader"),
	}
}

// Load returns once the script is available. Concurrent callers share one
// attempt; after a failure the next call starts a new one.
func (l *ScriptLoader) Load(ctx context.Context) error {
	if l.host.APIReady() {
		return nil
	}
	_, err := l.cell.Get(ctx, l.load)
	return err
}

func (l *ScriptLoader) load(ctx context.Context) (struct{}, error) {
	if l.host.APIReady() {
		return struct{}{}, nil
	}
	if l.host.ScriptPresent() {
		l.log.Debug("Script already present, polling for readiness")
		return struct{}{}, l.poll(ctx)
	}

	done := make(chan error, 2)
	l.log.WithField("src", l.cfg.Source).Info("Injecting player script")
	l.host.InjectScript(l.cfg.Source,
		func() { done <- nil },
		func(err error) {
			if err == nil {
				err = ErrScriptLoad
			}
			done <- err
		},
	)

	select {
	case err := <-done:
		if err != nil {
			l.log.WithError(err).Error("Player script failed to load")
			return struct{}{}, ErrScriptLoad
		}
		return struct{}{}, nil
	case <-ctx.Done():
		return struct{}{}, errors.Wrap(ctx.Err(), "load player script")
	}
}

func (l *ScriptLoader) poll(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if l.host.APIReady() {
				return nil
			}
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "poll player script")
		}
	}
}
