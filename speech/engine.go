// Package speech reads an ordered list of text segments aloud through a host
// speech engine, one utterance at a time, with play, pause and stop.
package speech

// State is the transport state of a Sequencer.
type State string

const (
	StateIdle    State = "idle"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

// Voice is one voice offered by the engine.
type Voice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Lang string `json:"lang"`
}

// ErrorCode is the reason an engine gives when an utterance does not finish.
type ErrorCode string

const (
	ErrCanceled        ErrorCode = "canceled"
	ErrInterrupted     ErrorCode = "interrupted"
	ErrSynthesisFailed ErrorCode = "synthesis-failed"
	ErrAudioBusy       ErrorCode = "audio-busy"
)

// Expected reports whether the code means the utterance was stopped on
// purpose rather than failing.
func (c ErrorCode) Expected() bool {
	return c == ErrCanceled || c == ErrInterrupted
}

// Utterance is one request to vocalize a segment. The engine calls exactly
// one of OnEnd or OnError, from any goroutine.
type Utterance struct {
	Text    string
	Voice   *Voice
	OnEnd   func()
	OnError func(ErrorCode)
}

func (u *Utterance) end() {
	if u.OnEnd != nil {
		u.OnEnd()
	}
}

func (u *Utterance) fail(code ErrorCode) {
	if u.OnError != nil {
		u.OnError(code)
	}
}

// Engine is the host text-to-speech facility. Only a Sequencer drives it.
type Engine interface {
	// Speak starts vocalizing u.
	Speak(u *Utterance)
	// Pause suspends the utterance in flight without discarding it.
	Pause()
	// Resume continues a paused utterance.
	Resume()
	// Cancel discards any utterance in flight; it reports ErrCanceled.
	Cancel()
	// Voices returns the voices enumerated so far, possibly none.
	Voices() []Voice
	// OnVoicesChanged registers fn to run when the voice list changes.
	OnVoicesChanged(fn func()) (unsubscribe func())
}
