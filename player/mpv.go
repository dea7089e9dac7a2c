package player

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-review/models"
)

// Error codes reported by MPVHost players, numbered like the IFrame API's.
const (
	CodeInvalidParam = 2
	CodePlayback     = 5
	CodeNotFound     = 100
	CodeNotEmbedable = 150
)

// MPVHost hosts players in a shared mpv process driven over its JSON IPC
// socket. The mpv process stands in for the embed script: it is started once
// and reused by every player.
type MPVHost struct {
	command string
	socket  string
	log     *logrus.Entry

	mu   sync.Mutex
	proc *exec.Cmd
}

// NewMPVHost returns a host that runs command with its IPC server at socket.
func NewMPVHost(command, socket string) *MPVHost {
	return &MPVHost{
		command: command,
		socket:  socket,
		log:     logrus.WithField("component", "mpv"),
	}
}

func (h *MPVHost) ScriptPresent() bool {
	_, err := os.Stat(h.socket)
	return err == nil
}

func (h *MPVHost) APIReady() bool {
	conn, err := net.DialTimeout("unix", h.socket, 200*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// InjectScript starts mpv idle. src, when it names a file, is loaded as an
// mpv user script.
func (h *MPVHost) InjectScript(src string, onLoad func(), onError func(error)) {
	args := []string{
		"--idle=yes",
		"--force-window=yes",
		"--no-terminal",
		"--input-ipc-server=" + h.socket,
	}
	if _, err := os.Stat(src); err == nil {
		args = append(args, "--script="+src)
	}
	cmd := exec.Command(h.command, args...)
	if err := cmd.Start(); err != nil {
		onError(errors.Wrapf(err, "start %s", h.command))
		return
	}

	h.mu.Lock()
	h.proc = cmd
	h.mu.Unlock()

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case err := <-exited:
				if err == nil {
					err = errors.New("mpv exited before its IPC socket was ready")
				}
				onError(errors.Wrap(err, "mpv"))
				return
			case <-ticker.C:
				if h.APIReady() {
					h.log.WithField("socket", h.socket).Info("mpv ready")
					onLoad()
					return
				}
			}
		}
	}()
}

// Shutdown stops an mpv process this host started.
func (h *MPVHost) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.proc != nil && h.proc.Process != nil {
		_ = h.proc.Process.Kill()
		h.proc = nil
	}
}

func (h *MPVHost) NewPlayer(node Node, videoID string, opts Options, events Events) (Player, error) {
	conn, err := net.Dial("unix", h.socket)
	if err != nil {
		return nil, errors.Wrap(err, "dial mpv")
	}
	p, err := newMPVPlayer(conn, videoID, opts, events, h.log)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// loadRequest tags the loadfile command so its reply can be told apart from
// events, which carry no request_id.
const loadRequest = 1

type mpvPlayer struct {
	conn   net.Conn
	events Events
	log    *logrus.Entry

	mu     sync.Mutex
	enc    *json.Encoder
	closed bool
	ready  bool
	failed bool
}

type mpvMessage struct {
	Event     string `json:"event"`
	Reason    string `json:"reason"`
	FileError string `json:"file_error"`
	RequestID int    `json:"request_id"`
	Error     string `json:"error"`
}

// newMPVPlayer loads videoID on conn. Pause is set as a global property
// before loadfile so the command keeps the two-argument form every mpv
// version accepts.
func newMPVPlayer(conn net.Conn, videoID string, opts Options, events Events, log *logrus.Entry) (*mpvPlayer, error) {
	p := &mpvPlayer{
		conn:   conn,
		enc:    json.NewEncoder(conn),
		events: events,
		log:    log.WithField("video_id", videoID),
	}
	go p.readEvents()

	if err := p.send(0, "set_property", "pause", !opts.Autoplay); err != nil {
		conn.Close()
		return nil, err
	}
	if err := p.send(loadRequest, "loadfile", models.WatchURL(videoID), "replace"); err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

func (p *mpvPlayer) send(requestID int, args ...interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	msg := map[string]interface{}{"command": args}
	if requestID != 0 {
		msg["request_id"] = requestID
	}
	if err := p.enc.Encode(msg); err != nil {
		return errors.Wrap(err, "send mpv command")
	}
	return nil
}

func (p *mpvPlayer) readEvents() {
	scanner := bufio.NewScanner(p.conn)
	for scanner.Scan() {
		var msg mpvMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		switch {
		case msg.RequestID == loadRequest && msg.Event == "":
			if msg.Error != "" && msg.Error != "success" {
				p.log.WithField("error", msg.Error).Warn("mpv rejected loadfile")
				p.fail(CodeInvalidParam)
			}
		case msg.Event == "file-loaded":
			p.mu.Lock()
			first := !p.ready && !p.failed
			p.ready = true
			p.mu.Unlock()
			if first && p.events.OnReady != nil {
				p.events.OnReady()
			}
		case msg.Event == "end-file" && msg.Reason == "error":
			p.fail(errorCode(msg.FileError))
		}
	}
}

func (p *mpvPlayer) fail(code int) {
	p.mu.Lock()
	p.failed = true
	p.mu.Unlock()
	if p.events.OnError != nil {
		p.events.OnError(code)
	}
}

func (p *mpvPlayer) SeekTo(seconds float64, allowSeekAhead bool) {
	if err := p.send(0, "seek", seconds, "absolute"); err != nil {
		p.log.WithError(err).Warn("Seek failed")
	}
}

func (p *mpvPlayer) PlayVideo() {
	if err := p.send(0, "set_property", "pause", false); err != nil {
		p.log.WithError(err).Warn("Play failed")
	}
}

func (p *mpvPlayer) Destroy() {
	_ = p.send(0, "stop")
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		p.conn.Close()
	}
}

func errorCode(fileError string) int {
	switch fileError {
	case "loading failed":
		return CodeNotFound
	case "unrecognized file format", "no audio or video data played":
		return CodePlayback
	case "":
		return CodeInvalidParam
	default:
		return CodePlayback
	}
}
