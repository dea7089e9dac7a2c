package speech

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-review/cache"
)

// ErrNoVoice means no enumerated voice matched the preference.
var ErrNoVoice = errors.New("no preferred voice available")

// DefaultVoiceTimeout bounds how long a session waits for the voice list.
const DefaultVoiceTimeout = 2 * time.Second

// VoicePreference picks a voice by exact name, then by locale and vendor.
type VoicePreference struct {
	Name   string
	Lang   string
	Vendor string
}

// SelectVoice returns the preferred voice from voices.
func SelectVoice(voices []Voice, pref VoicePreference) (Voice, bool) {
	if pref.Name != "" {
		for _, v := range voices {
			if v.Name == pref.Name || v.ID == pref.Name {
				return v, true
			}
		}
	}
	if pref.Lang == "" {
		return Voice{}, false
	}
	for _, v := range voices {
		if !sameLocale(v.Lang, pref.Lang) {
			continue
		}
		if pref.Vendor == "" || strings.Contains(strings.ToLower(v.Name), strings.ToLower(pref.Vendor)) {
			return v, true
		}
	}
	return Voice{}, false
}

func sameLocale(a, b string) bool {
	norm := func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
	}
	return norm(a) == norm(b)
}

// VoiceResolver finds the preferred voice once per process. Sequencers share
// one resolver so they share its pending resolution and its voice-list
// subscription.
type VoiceResolver struct {
	engine  Engine
	pref    VoicePreference
	timeout time.Duration
	cell    *cache.Cell[Voice]
	log     *logrus.Entry
}

// NewVoiceResolver returns a resolver over engine. ctx bounds background
// resolutions.
func NewVoiceResolver(ctx context.Context, engine Engine, pref VoicePreference, timeout time.Duration) *VoiceResolver {
	if timeout <= 0 {
		timeout = DefaultVoiceTimeout
	}
	return &VoiceResolver{
		engine:  engine,
		pref:    pref,
		timeout: timeout,
		cell:    cache.NewCell[Voice](ctx),
		log:     logrus.WithField("component", "voice"),
	}
}

// Cached returns a voice found by an earlier resolution.
func (r *VoiceResolver) Cached() (Voice, bool) {
	return r.cell.Peek()
}

// Lookup resolves without waiting. done is false when the engine has not
// enumerated any voices yet and the caller must Resolve instead.
func (r *VoiceResolver) Lookup() (voice *Voice, done bool) {
	if v, ok := r.cell.Peek(); ok {
		return &v, true
	}
	voices := r.engine.Voices()
	if len(voices) == 0 {
		return nil, false
	}
	if v, ok := SelectVoice(voices, r.pref); ok {
		r.cell.Store(v)
		return &v, true
	}
	return nil, true
}

// Resolve waits for the voice list, at most for the resolver timeout. A nil
// result means the engine default voice should be used.
func (r *VoiceResolver) Resolve(ctx context.Context) *Voice {
	if v, done := r.Lookup(); done {
		return v
	}
	v, err := r.cell.Get(ctx, r.await)
	if err != nil {
		if errors.Cause(err) != ErrNoVoice {
			r.log.WithError(err).Debug("Voice resolution abandoned")
		}
		return nil
	}
	return &v
}

func (r *VoiceResolver) await(ctx context.Context) (Voice, error) {
	changed := make(chan struct{}, 1)
	unsubscribe := r.engine.OnVoicesChanged(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	for {
		if voices := r.engine.Voices(); len(voices) > 0 {
			if v, ok := SelectVoice(voices, r.pref); ok {
				r.log.WithFields(logrus.Fields{
					"voice": v.Name,
					"lang":  v.Lang,
				}).Info("Resolved preferred voice")
				return v, nil
			}
			return Voice{}, ErrNoVoice
		}

		select {
		case <-changed:
		case <-timer.C:
			r.log.WithField("timeout", r.timeout).Info("Voice list not ready, using engine default")
			return Voice{}, ErrNoVoice
		case <-ctx.Done():
			return Voice{}, errors.Wrap(ctx.Err(), "await voices")
		}
	}
}
