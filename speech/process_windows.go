//go:build windows

package speech

import "os/exec"

// Windows has no job-control signals; pausing leaves the utterance running.
func suspendProcess(cmd *exec.Cmd) {}

func continueProcess(cmd *exec.Cmd) {}

func killProcess(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}
