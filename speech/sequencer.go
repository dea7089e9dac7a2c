package speech

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-review/loop"
)

// Snapshot is the observable state of a Sequencer.
type Snapshot struct {
	State       State `json:"state"`
	ActiveIndex int   `json:"active_index"`
	Supported   bool  `json:"supported"`
}

// Sequencer speaks a list of segments in order. A nil engine yields an
// unsupported sequencer whose operations do nothing.
//
// Fields below the loop are owned by the loop goroutine.
type Sequencer struct {
	engine   Engine
	resolver *VoiceResolver
	loop     *loop.Loop
	ctx      context.Context
	cancel   context.CancelFunc
	log      *logrus.Entry
	once     sync.Once

	gen           loop.Generation
	segments      []string
	session       []string
	sessionID     string
	state         State
	index         int
	voice         *Voice
	current       *Utterance
	pendingStart  bool
	awaitingVoice bool
	listeners     []func(Snapshot)

	mu   sync.RWMutex
	snap Snapshot
}

// New returns a sequencer over engine. The resolver is normally shared by
// every sequencer in the process; nil means always use the engine default.
func New(engine Engine, resolver *VoiceResolver) *Sequencer {
	s := &Sequencer{
		engine:   engine,
		resolver: resolver,
		state:    StateIdle,
		index:    -1,
		log:      logrus.WithField("component", "speech"),
	}
	s.snap = Snapshot{State: StateIdle, ActiveIndex: -1, Supported: engine != nil}
	if engine == nil {
		return s
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.loop = loop.New()
	return s
}

// Supported reports whether a speech engine is available at all.
func (s *Sequencer) Supported() bool {
	return s.engine != nil
}

// SetSegments replaces the list the next Play will speak. A session already
// running keeps the list it started with.
func (s *Sequencer) SetSegments(segments []string) {
	cp := append([]string(nil), segments...)
	s.do(func() { s.segments = cp })
}

// OnChange registers fn to receive every new snapshot. fn runs on the
// sequencer's loop and must not call back into the sequencer synchronously.
func (s *Sequencer) OnChange(fn func(Snapshot)) {
	s.do(func() { s.listeners = append(s.listeners, fn) })
}

// Play starts from the first segment, or resumes when paused.
func (s *Sequencer) Play() {
	s.do(func() {
		if s.state == StatePaused {
			s.resume()
			return
		}

		s.engine.Cancel()
		tok := s.gen.Next()
		s.current = nil
		s.pendingStart = false
		s.awaitingVoice = false
		s.session = s.segments
		s.sessionID = uuid.NewString()

		if len(s.session) == 0 {
			s.reset()
			s.publish()
			return
		}

		s.state = StatePlaying
		s.index = 0
		s.log.WithFields(logrus.Fields{
			"session":  s.sessionID,
			"segments": len(s.session),
		}).Debug("Speech session started")
		s.publish()

		if s.resolver == nil {
			s.speak(tok, 0)
			return
		}
		if v, done := s.resolver.Lookup(); done {
			s.voice = v
			s.speak(tok, 0)
			return
		}

		s.pendingStart = true
		s.awaitingVoice = true
		go func() {
			v := s.resolver.Resolve(s.ctx)
			s.loop.Post(func() { s.voiceResolved(tok, v) })
		}()
	})
}

// Pause suspends the utterance in flight. It does nothing unless playing.
func (s *Sequencer) Pause() {
	s.do(func() {
		if s.state != StatePlaying {
			return
		}
		s.engine.Pause()
		s.state = StatePaused
		s.publish()
	})
}

// Stop cancels speech and returns to idle. Safe to call repeatedly.
func (s *Sequencer) Stop() {
	s.do(func() {
		s.engine.Cancel()
		s.gen.Next()
		s.reset()
		s.publish()
	})
}

// Close cancels any pending or in-flight speech and releases the sequencer.
func (s *Sequencer) Close() {
	if s.loop == nil {
		return
	}
	s.once.Do(func() {
		s.loop.Do(func() {
			s.engine.Cancel()
			s.gen.Next()
			s.reset()
			s.publish()
			s.listeners = nil
		})
		s.cancel()
		s.loop.Close()
	})
}

// Snapshot returns the state after every event delivered so far.
func (s *Sequencer) Snapshot() Snapshot {
	if s.loop != nil {
		s.loop.Do(func() {})
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// State returns the transport state.
func (s *Sequencer) State() State {
	return s.Snapshot().State
}

// ActiveIndex returns the segment being spoken, or -1 when idle.
func (s *Sequencer) ActiveIndex() int {
	return s.Snapshot().ActiveIndex
}

func (s *Sequencer) do(fn func()) {
	if s.loop == nil {
		return
	}
	s.loop.Do(fn)
}

func (s *Sequencer) resume() {
	s.engine.Resume()
	s.state = StatePlaying
	s.publish()
	if s.pendingStart && !s.awaitingVoice {
		s.pendingStart = false
		s.speak(s.gen.Current(), s.index)
	}
}

func (s *Sequencer) speak(tok loop.Token, i int) {
	u := &Utterance{Text: s.session[i], Voice: s.voice}
	u.OnEnd = func() {
		s.loop.Post(func() { s.ended(tok, u) })
	}
	u.OnError = func(code ErrorCode) {
		s.loop.Post(func() { s.failed(tok, u, code) })
	}
	s.current = u
	s.engine.Speak(u)
}

func (s *Sequencer) voiceResolved(tok loop.Token, v *Voice) {
	if !s.gen.Valid(tok) {
		return
	}
	s.voice = v
	s.awaitingVoice = false
	if s.pendingStart && s.state == StatePlaying {
		s.pendingStart = false
		s.speak(tok, s.index)
	}
}

func (s *Sequencer) ended(tok loop.Token, u *Utterance) {
	if !s.gen.Valid(tok) || u != s.current {
		return
	}
	next := s.index + 1
	if next >= len(s.session) {
		s.log.WithField("session", s.sessionID).Debug("Speech session finished")
		s.current = nil
		s.reset()
		s.publish()
		return
	}
	s.index = next
	s.publish()
	s.speak(tok, next)
}

func (s *Sequencer) failed(tok loop.Token, u *Utterance, code ErrorCode) {
	if code.Expected() {
		return
	}
	if !s.gen.Valid(tok) || u != s.current {
		return
	}
	s.log.WithFields(logrus.Fields{
		"session": s.sessionID,
		"index":   s.index,
		"code":    code,
	}).Warn("Utterance failed, stopping speech")
	s.gen.Next()
	s.reset()
	s.publish()
}

func (s *Sequencer) reset() {
	s.state = StateIdle
	s.index = -1
	s.current = nil
	s.pendingStart = false
	s.awaitingVoice = false
}

func (s *Sequencer) publish() {
	next := Snapshot{State: s.state, ActiveIndex: s.index, Supported: true}
	s.mu.Lock()
	changed := next != s.snap
	s.snap = next
	s.mu.Unlock()
	if !changed {
		return
	}
	for _, fn := range s.listeners {
		fn(next)
	}
}
