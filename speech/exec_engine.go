package speech

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ExecEngine speaks through a command-line synthesizer such as espeak-ng,
// one child process per utterance.
type ExecEngine struct {
	command string
	log     *logrus.Entry

	mu        sync.Mutex
	run       *utteranceRun
	paused    bool
	voices    []Voice
	listeners map[int]func()
	nextID    int
}

type utteranceRun struct {
	u      *Utterance
	cmd    *exec.Cmd
	reason ErrorCode
}

// NewExecEngine returns an engine around command and starts enumerating its
// voices in the background. Voices is empty until enumeration finishes.
func NewExecEngine(ctx context.Context, command string) *ExecEngine {
	e := &ExecEngine{
		command:   command,
		listeners: make(map[int]func()),
		log:       logrus.WithField("component", "speech-engine"),
	}
	go e.enumerateVoices(ctx)
	return e
}

// Available reports whether the synthesizer binary can be found.
func (e *ExecEngine) Available() bool {
	_, err := exec.LookPath(e.command)
	return err == nil
}

func (e *ExecEngine) Speak(u *Utterance) {
	args := []string{}
	if u.Voice != nil {
		id := u.Voice.ID
		if id == "" {
			id = u.Voice.Name
		}
		args = append(args, "-v", id)
	}
	args = append(args, u.Text)
	cmd := exec.Command(e.command, args...)

	e.mu.Lock()
	if prev := e.run; prev != nil {
		prev.reason = ErrInterrupted
		killProcess(prev.cmd)
	}
	if err := cmd.Start(); err != nil {
		e.run = nil
		e.mu.Unlock()
		e.log.WithError(err).Error("Failed to start synthesizer")
		go u.fail(ErrSynthesisFailed)
		return
	}
	run := &utteranceRun{u: u, cmd: cmd}
	e.run = run
	if e.paused {
		suspendProcess(cmd)
	}
	e.mu.Unlock()

	go e.wait(run)
}

func (e *ExecEngine) wait(run *utteranceRun) {
	err := run.cmd.Wait()

	e.mu.Lock()
	reason := run.reason
	if e.run == run {
		e.run = nil
	}
	e.mu.Unlock()

	switch {
	case reason != "":
		run.u.fail(reason)
	case err != nil:
		e.log.WithError(err).Warn("Synthesizer exited with error")
		run.u.fail(ErrSynthesisFailed)
	default:
		run.u.end()
	}
}

func (e *ExecEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = true
	if e.run != nil {
		suspendProcess(e.run.cmd)
	}
}

func (e *ExecEngine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = false
	if e.run != nil {
		continueProcess(e.run.cmd)
	}
}

func (e *ExecEngine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = false
	if e.run != nil {
		e.run.reason = ErrCanceled
		killProcess(e.run.cmd)
		e.run = nil
	}
}

func (e *ExecEngine) Voices() []Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Voice(nil), e.voices...)
}

func (e *ExecEngine) OnVoicesChanged(fn func()) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

func (e *ExecEngine) enumerateVoices(ctx context.Context) {
	output, err := exec.CommandContext(ctx, e.command, "--voices").Output()
	if err != nil {
		e.log.WithError(errors.Wrap(err, "list voices")).Warn("Voice enumeration failed")
		return
	}
	voices := parseVoices(output)

	e.mu.Lock()
	e.voices = voices
	listeners := make([]func(), 0, len(e.listeners))
	for _, fn := range e.listeners {
		listeners = append(listeners, fn)
	}
	e.mu.Unlock()

	e.log.WithField("count", len(voices)).Debug("Voices enumerated")
	for _, fn := range listeners {
		fn()
	}
}

// parseVoices reads the table printed by `espeak-ng --voices`:
//
//	Pty Language       Age/Gender VoiceName          File          Other Languages
//	 5  en-us           --/M      English_(America)  gmw/en-US
func parseVoices(output []byte) []Voice {
	var voices []Voice
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		voices = append(voices, Voice{
			ID:   fields[1],
			Name: strings.ReplaceAll(fields[3], "_", " "),
			Lang: fields[1],
		})
	}
	return voices
}
