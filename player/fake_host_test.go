package player

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakePlayer struct {
	mu        sync.Mutex
	videoID   string
	events    Events
	seeks     []float64
	plays     int
	destroyed bool
}

func (p *fakePlayer) SeekTo(seconds float64, allowSeekAhead bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seeks = append(p.seeks, seconds)
}

func (p *fakePlayer) PlayVideo() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays++
}

func (p *fakePlayer) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destroyed = true
}

func (p *fakePlayer) isDestroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

type fakeHost struct {
	mu         sync.Mutex
	apiReady   bool
	present    bool
	injections int
	onLoad     []func()
	onError    []func(error)
	players    []*fakePlayer
	newErr     error
}

func (h *fakeHost) APIReady() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.apiReady
}

func (h *fakeHost) ScriptPresent() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.present
}

func (h *fakeHost) InjectScript(src string, onLoad func(), onError func(error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.injections++
	h.onLoad = append(h.onLoad, onLoad)
	h.onError = append(h.onError, onError)
}

func (h *fakeHost) NewPlayer(node Node, videoID string, opts Options, events Events) (Player, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.newErr != nil {
		return nil, h.newErr
	}
	p := &fakePlayer{videoID: videoID, events: events}
	h.players = append(h.players, p)
	return p, nil
}

func (h *fakeHost) setReady() {
	h.mu.Lock()
	h.apiReady = true
	h.mu.Unlock()
}

// loadScript completes the most recent injection.
func (h *fakeHost) loadScript() {
	h.mu.Lock()
	h.apiReady = true
	fn := h.onLoad[len(h.onLoad)-1]
	h.mu.Unlock()
	fn()
}

func (h *fakeHost) failScript() {
	h.mu.Lock()
	fn := h.onError[len(h.onError)-1]
	h.mu.Unlock()
	fn(errors.New("network error"))
}

func (h *fakeHost) injectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.injections
}

func (h *fakeHost) playerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.players)
}

func (h *fakeHost) player(i int) *fakePlayer {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.players[i]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
