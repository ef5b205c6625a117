//go:build unix

package sidecar

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setSysProcAttr places the child in its own process group so terminate can
// reap everything it spawned.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminate(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
}

func exitStatus(cmd *exec.Cmd) ExitStatus {
	state := cmd.ProcessState
	if state == nil {
		return ExitStatus{}
	}

	var status ExitStatus
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		sig := int(ws.Signal())
		status.Signal = &sig
		return status
	}
	code := state.ExitCode()
	status.Code = &code
	return status
}
