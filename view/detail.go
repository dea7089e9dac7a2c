// Package view composes a PlayerBinder and a SpeechSequencer into the detail
// view of one reviewed video.
package view

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-review/models"
	"github.com/nijaru/yt-review/player"
	"github.com/nijaru/yt-review/speech"
)

type Options struct {
	// AutoSeek moves the player to a key point when speech reaches it.
	AutoSeek bool
}

// Detail is the detail view of one video. Operations are serialized; the
// speech listener only reads the current record.
type Detail struct {
	binder   *player.Binder
	seq      *speech.Sequencer
	autoSeek bool
	log      *logrus.Entry

	opMu   sync.Mutex
	closed bool

	mu     sync.RWMutex
	video  *models.Video
	script models.SpeechScript

	// owned by the sequencer's loop
	lastSpoken int
}

// NewDetail wires binder and seq into a view. The binder's mount handle must
// already be attached for a player to be created.
func NewDetail(binder *player.Binder, seq *speech.Sequencer, opts Options) *Detail {
	d := &Detail{
		binder:     binder,
		seq:        seq,
		autoSeek:   opts.AutoSeek,
		lastSpoken: -1,
		log:        logrus.WithField("component", "view"),
	}
	seq.OnChange(d.speechChanged)
	return d
}

// Load shows v. Only completed videos get a player and speech segments. A
// different video stops speech and rebinds the player; a refreshed record
// for the same video keeps both sessions.
func (d *Detail) Load(v *models.Video) {
	d.opMu.Lock()
	defer d.opMu.Unlock()
	if d.closed {
		return
	}

	var (
		script  models.SpeechScript
		videoID string
	)
	if v != nil && v.IsCompleted() {
		script = models.NewSpeechScript(v.Summary)
		videoID = v.VideoID
	}

	d.mu.Lock()
	prev := d.video
	d.video = v
	d.script = script
	d.mu.Unlock()

	if prev != nil && (v == nil || prev.ID != v.ID) {
		d.log.WithField("video", prev.ID).Debug("Video changed, stopping speech")
		d.seq.Stop()
	}
	d.seq.SetSegments(script.Segments)
	d.binder.Bind(videoID)
}

// Video returns the record last loaded, or nil.
func (d *Detail) Video() *models.Video {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.video
}

func (d *Detail) Play()  { d.seq.Play() }
func (d *Detail) Pause() { d.seq.Pause() }
func (d *Detail) Stop()  { d.seq.Stop() }

// SeekTo moves the player to seconds. Dropped until the player is ready.
func (d *Detail) SeekTo(seconds float64) {
	d.binder.SeekTo(seconds)
}

// SeekToKeyPoint seeks to key point i. It reports false when there is no
// such key point.
func (d *Detail) SeekToKeyPoint(i int) bool {
	ts, ok := d.keyPointTimestamp(i)
	if ok {
		d.binder.SeekTo(ts)
	}
	return ok
}

// SeekToTranscript seeks to transcript segment i.
func (d *Detail) SeekToTranscript(i int) bool {
	d.mu.RLock()
	v := d.video
	d.mu.RUnlock()
	if v == nil || i < 0 || i >= len(v.TranscriptSegments) {
		return false
	}
	d.binder.SeekTo(v.TranscriptSegments[i].Start)
	return true
}

// Close stops speech and releases the player. Safe to call repeatedly.
func (d *Detail) Close() {
	d.opMu.Lock()
	defer d.opMu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.seq.Close()
	d.binder.Close()
	d.binder.MountHandle().Detach()
}

func (d *Detail) keyPointTimestamp(i int) (float64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.video == nil || d.video.Summary == nil {
		return 0, false
	}
	kps := d.video.Summary.KeyPoints
	if i < 0 || i >= len(kps) {
		return 0, false
	}
	return kps[i].Timestamp, true
}

func (d *Detail) speechChanged(s speech.Snapshot) {
	if s.ActiveIndex == d.lastSpoken {
		return
	}
	d.lastSpoken = s.ActiveIndex
	if !d.autoSeek || s.State != speech.StatePlaying {
		return
	}

	d.mu.RLock()
	kp, ok := d.script.KeyPointIndex(s.ActiveIndex)
	d.mu.RUnlock()
	if !ok {
		return
	}
	if ts, ok := d.keyPointTimestamp(kp); ok {
		d.binder.SeekTo(ts)
	}
}
