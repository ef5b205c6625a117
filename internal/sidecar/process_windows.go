//go:build windows

package sidecar

import (
	"os/exec"
	"syscall"
)

const createNoWindow = 0x08000000

func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNoWindow}
}

func terminate(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

func exitStatus(cmd *exec.Cmd) ExitStatus {
	state := cmd.ProcessState
	if state == nil {
		return ExitStatus{}
	}
	code := state.ExitCode()
	return ExitStatus{Code: &code}
}
