package view

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nijaru/yt-review/player"
	"github.com/nijaru/yt-review/speech"
)

type fakeEngine struct {
	mu       sync.Mutex
	spoken   []*speech.Utterance
	inflight *speech.Utterance
	cancels  int
}

func (f *fakeEngine) Speak(u *speech.Utterance) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, u)
	f.inflight = u
}

func (f *fakeEngine) Pause()  {}
func (f *fakeEngine) Resume() {}

func (f *fakeEngine) Cancel() {
	f.mu.Lock()
	f.cancels++
	u := f.inflight
	f.inflight = nil
	f.mu.Unlock()
	if u != nil && u.OnError != nil {
		u.OnError(speech.ErrCanceled)
	}
}

func (f *fakeEngine) Voices() []speech.Voice { return nil }

func (f *fakeEngine) OnVoicesChanged(fn func()) (unsub func()) { return func() {} }

func (f *fakeEngine) finish(t *testing.T) {
	t.Helper()
	f.mu.Lock()
	u := f.inflight
	f.inflight = nil
	f.mu.Unlock()
	if u == nil {
		t.Fatal("no utterance in flight")
	}
	u.OnEnd()
}

func (f *fakeEngine) spokenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.spoken)
}

func (f *fakeEngine) cancelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancels
}

type fakePlayer struct {
	mu        sync.Mutex
	videoID   string
	events    player.Events
	seeks     []float64
	destroyed bool
}

func (p *fakePlayer) SeekTo(seconds float64, allowSeekAhead bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seeks = append(p.seeks, seconds)
}

func (p *fakePlayer) PlayVideo() {}

func (p *fakePlayer) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destroyed = true
}

func (p *fakePlayer) seekLog() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.seeks...)
}

func (p *fakePlayer) isDestroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

// fakeHost has its script already loaded. Every player becomes ready at
// once, or fails with errCode when it is set.
type fakeHost struct {
	mu      sync.Mutex
	players []*fakePlayer
	errCode int
}

func (h *fakeHost) APIReady() bool      { return true }
func (h *fakeHost) ScriptPresent() bool { return true }

func (h *fakeHost) InjectScript(src string, onLoad func(), onError func(error)) { onLoad() }

func (h *fakeHost) NewPlayer(node player.Node, videoID string, opts player.Options, events player.Events) (player.Player, error) {
	p := &fakePlayer{videoID: videoID, events: events}
	h.mu.Lock()
	h.players = append(h.players, p)
	code := h.errCode
	h.mu.Unlock()
	if code != 0 {
		events.OnError(code)
	} else {
		events.OnReady()
	}
	return p, nil
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

type fixture struct {
	detail *Detail
	engine *fakeEngine
	host   *fakeHost
	mount  *player.SlotMount
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{engine: &fakeEngine{}, host: &fakeHost{}, mount: player.NewSlotMount("test")}
	loader := player.NewScriptLoader(context.Background(), f.host, player.LoaderConfig{PollInterval: time.Millisecond})
	binder := player.NewBinder(f.host, loader, player.DefaultOptions("http://localhost"))
	binder.MountHandle().Attach(f.mount)
	f.detail = NewDetail(binder, speech.New(f.engine, nil), opts)
	t.Cleanup(f.detail.Close)
	return f
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
