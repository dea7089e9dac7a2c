package player

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-review/loop"
)

// Snapshot is the observable state of a Binder.
type Snapshot struct {
	VideoID string `json:"video_id,omitempty"`
	State   State  `json:"state"`
	Ready   bool   `json:"is_ready"`
	Error   string `json:"error,omitempty"`
}

// Binder owns at most one player session, scoped to a content identifier and
// the mount attached to its MountHandle.
//
// Fields below the loop are owned by the loop goroutine.
type Binder struct {
	host   Host
	loader *ScriptLoader
	opts   Options
	mount  *MountHandle
	loop   *loop.Loop
	ctx    context.Context
	cancel context.CancelFunc
	log    *logrus.Entry
	once   sync.Once

	gen       loop.Generation
	videoID   string
	bound     bool
	sessionID string
	player    Player
	state     State
	errMsg    string

	mu   sync.RWMutex
	snap Snapshot
}

// NewBinder returns an unbound binder. Attach a mount to MountHandle, then
// call Bind.
func NewBinder(host Host, loader *ScriptLoader, opts Options) *Binder {
	b := &Binder{
		host:   host,
		loader: loader,
		opts:   opts,
		mount:  &MountHandle{},
		loop:   loop.New(),
		state:  StateUninitialized,
		log:    logrus.WithField("component", "player"),
	}
	b.ctx, b.cancel = context.WithCancel(context.Background())
	b.snap = Snapshot{State: StateUninitialized}
	return b
}

// MountHandle returns the handle the view must attach its mount point to.
func (b *Binder) MountHandle() *MountHandle {
	return b.mount
}

// Bind starts a session for videoID, releasing any session for a different
// identifier first. An empty identifier leaves the binder uninitialized.
func (b *Binder) Bind(videoID string) {
	b.loop.Do(func() {
		if b.bound && videoID == b.videoID {
			return
		}
		b.teardown()
		b.videoID = videoID
		if videoID == "" {
			b.publish()
			return
		}

		mount := b.mount.Current()
		if mount == nil {
			b.log.WithField("video_id", videoID).Warn("No mount point attached, player not created")
			b.publish()
			return
		}

		tok := b.gen.Next()
		b.bound = true
		b.sessionID = uuid.NewString()
		b.state = StateLoading
		b.log.WithFields(logrus.Fields{
			"video_id": videoID,
			"session":  b.sessionID,
		}).Debug("Player session started")
		b.publish()

		go func() {
			err := b.loader.Load(b.ctx)
			b.loop.Post(func() { b.scriptLoaded(tok, videoID, mount, err) })
		}()
	})
}

// SeekTo jumps to seconds and resumes playback. It does nothing unless the
// player is ready.
func (b *Binder) SeekTo(seconds float64) {
	b.loop.Do(func() {
		if b.state != StateReady || b.player == nil {
			return
		}
		b.player.SeekTo(seconds, true)
		b.player.PlayVideo()
	})
}

// Close releases the session and stops the binder. Safe to call repeatedly.
func (b *Binder) Close() {
	b.once.Do(func() {
		b.loop.Do(func() {
			b.teardown()
			b.videoID = ""
			b.publish()
		})
		b.cancel()
		b.loop.Close()
	})
}

// Snapshot returns the state after every event delivered so far.
func (b *Binder) Snapshot() Snapshot {
	b.loop.Do(func() {})
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snap
}

// State returns the session state.
func (b *Binder) State() State {
	return b.Snapshot().State
}

// IsReady reports whether SeekTo will reach a player.
func (b *Binder) IsReady() bool {
	return b.Snapshot().Ready
}

// Err returns the human-readable failure, or "".
func (b *Binder) Err() string {
	return b.Snapshot().Error
}

func (b *Binder) scriptLoaded(tok loop.Token, videoID string, mount Mount, err error) {
	if !b.gen.Valid(tok) {
		return
	}
	if err != nil {
		b.state = StateError
		b.errMsg = err.Error()
		b.publish()
		return
	}

	mount.Clear()
	node := mount.AppendChild()
	events := Events{
		OnReady: func() {
			b.loop.Post(func() { b.ready(tok) })
		},
		OnError: func(code int) {
			b.loop.Post(func() { b.failed(tok, code) })
		},
	}

	p, err := b.host.NewPlayer(node, videoID, b.opts, events)
	if err != nil {
		b.log.WithError(err).WithField("video_id", videoID).Error("Failed to create player")
		b.state = StateError
		b.errMsg = err.Error()
		b.publish()
		return
	}
	b.player = p
}

func (b *Binder) ready(tok loop.Token) {
	if !b.gen.Valid(tok) || b.state != StateLoading {
		return
	}
	b.state = StateReady
	b.publish()
}

func (b *Binder) failed(tok loop.Token, code int) {
	if !b.gen.Valid(tok) {
		return
	}
	b.log.WithFields(logrus.Fields{
		"video_id": b.videoID,
		"code":     code,
	}).Warn("Player reported an error")
	b.state = StateError
	b.errMsg = fmt.Sprintf("YouTube player error (code %d)", code)
	b.publish()
}

// teardown invalidates the session and destroys its player, even while the
// session is still loading.
func (b *Binder) teardown() {
	b.gen.Next()
	if b.player != nil {
		b.player.Destroy()
		b.player = nil
	}
	b.bound = false
	b.state = StateUninitialized
	b.errMsg = ""
}

func (b *Binder) publish() {
	next := Snapshot{
		State: b.state,
		Ready: b.state == StateReady,
		Error: b.errMsg,
	}
	if b.bound {
		next.VideoID = b.videoID
	}
	b.mu.Lock()
	b.snap = next
	b.mu.Unlock()
}
