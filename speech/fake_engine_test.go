package speech

import (
	"sync"
	"testing"
	"time"
)

type fakeEngine struct {
	mu        sync.Mutex
	spoken    []*Utterance
	inflight  *Utterance
	pauses    int
	resumes   int
	cancels   int
	voices    []Voice
	listeners map[int]func()
	nextID    int
	maxSubs   int
}

func newFakeEngine(voices ...Voice) *fakeEngine {
	return &fakeEngine{voices: voices, listeners: make(map[int]func())}
}

func (f *fakeEngine) Speak(u *Utterance) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, u)
	f.inflight = u
}

func (f *fakeEngine) Pause() {
	f.mu.Lock()
	f.pauses++
	f.mu.Unlock()
}

func (f *fakeEngine) Resume() {
	f.mu.Lock()
	f.resumes++
	f.mu.Unlock()
}

func (f *fakeEngine) Cancel() {
	f.mu.Lock()
	f.cancels++
	u := f.inflight
	f.inflight = nil
	f.mu.Unlock()
	if u != nil {
		u.fail(ErrCanceled)
	}
}

func (f *fakeEngine) Voices() []Voice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Voice(nil), f.voices...)
}

func (f *fakeEngine) OnVoicesChanged(fn func()) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	if len(f.listeners) > f.maxSubs {
		f.maxSubs = len(f.listeners)
	}
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

func (f *fakeEngine) setVoices(voices ...Voice) {
	f.mu.Lock()
	f.voices = voices
	var fns []func()
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// finish reports natural completion of the utterance in flight and waits
// until s has handled it.
func (f *fakeEngine) finish(t *testing.T, s *Sequencer) {
	t.Helper()
	f.take(t).end()
	s.Snapshot()
}

// failInflight fails the utterance in flight with code and waits until s has
// handled it.
func (f *fakeEngine) failInflight(t *testing.T, s *Sequencer, code ErrorCode) {
	t.Helper()
	f.take(t).fail(code)
	s.Snapshot()
}

func (f *fakeEngine) take(t *testing.T) *Utterance {
	t.Helper()
	f.mu.Lock()
	u := f.inflight
	f.inflight = nil
	f.mu.Unlock()
	if u == nil {
		t.Fatal("no utterance in flight")
	}
	return u
}

func (f *fakeEngine) spokenTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	texts := make([]string, len(f.spoken))
	for i, u := range f.spoken {
		texts[i] = u.Text
	}
	return texts
}

func (f *fakeEngine) lastSpoken() *Utterance {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.spoken) == 0 {
		return nil
	}
	return f.spoken[len(f.spoken)-1]
}

func (f *fakeEngine) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
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
