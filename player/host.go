// Package player binds an embedded video player to a mount point.
//
// The embed's script is loaded once per process by a ScriptLoader; each
// Binder then instantiates one player per content identifier and exposes
// readiness, errors and seeking.
package player

// State is the lifecycle of a Binder session.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
	StateError         State = "error"
)

// Options is the fixed player configuration.
type Options struct {
	Autoplay       bool
	ModestBranding bool
	Related        bool
	Origin         string
}

// DefaultOptions disables autoplay and related videos and pins the origin.
func DefaultOptions(origin string) Options {
	return Options{
		Autoplay:       false,
		ModestBranding: true,
		Related:        false,
		Origin:         origin,
	}
}

// Events are the player's own notifications. Hosts may call them from any
// goroutine.
type Events struct {
	OnReady func()
	OnError func(code int)
}

// Node is a child element created inside a Mount.
type Node interface{}

// Mount is where a player is attached.
type Mount interface {
	// Clear removes everything previously attached.
	Clear()
	// AppendChild creates a fresh child and returns it.
	AppendChild() Node
}

// Player is one embedded player instance.
type Player interface {
	SeekTo(seconds float64, allowSeekAhead bool)
	PlayVideo()
	Destroy()
}

// Host provides the embed script and constructs players.
type Host interface {
	// APIReady reports whether the script's entry point is available.
	APIReady() bool
	// ScriptPresent reports whether the script was injected by someone else.
	ScriptPresent() bool
	// InjectScript starts loading src and reports the outcome once.
	InjectScript(src string, onLoad func(), onError func(error))
	// NewPlayer constructs a player for videoID inside node.
	NewPlayer(node Node, videoID string, opts Options, events Events) (Player, error)
}
