package sidecar

import (
	"bufio"
	"errors"
	"io"
	"os/exec"

	"golang.org/x/sync/errgroup"
)

const eventBuffer = 256

// Handle controls a running supervised process.
type Handle struct {
	kill chan struct{}
	pid  int
}

// Kill requests termination of the process and its children. It is
// fire-and-forget and idempotent: at most one request is queued, and extra
// calls while one is pending are no-ops. Completion is observed through the
// event stream's Terminated event, not through this call.
func (h *Handle) Kill() {
	select {
	case h.kill <- struct{}{}:
	default:
	}
}

// PID returns the process id of the supervised process.
func (h *Handle) PID() int { return h.pid }

// Spawn launches the given command with stdin disabled and stdout/stderr
// captured line by line into the returned channel. The process is placed in
// its own process group so killing the handle also reaps any children.
//
// The channel is bounded: a slow consumer stalls the pipe readers rather than
// dropping lines. The final event is exactly one Terminated (or SpawnError if
// waiting failed), after which the channel is closed. A process that cannot
// be started at all reports the error synchronously with no stream.
func Spawn(spec CommandSpec) (<-chan Event, *Handle, error) {
	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Env = spec.Env
	cmd.Stdin = nil
	setSysProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}

	events := make(chan Event, eventBuffer)
	handle := &Handle{kill: make(chan struct{}, 1), pid: cmd.Process.Pid}

	readers := new(errgroup.Group)
	readers.Go(func() error { return readLines(stdout, EventStdout, events) })
	readers.Go(func() error { return readLines(stderr, EventStderr, events) })

	go supervise(cmd, handle, events, readers)

	return events, handle, nil
}

func readLines(r io.Reader, kind EventKind, events chan<- Event) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		events <- Event{Kind: kind, Line: line}
	}
	return scanner.Err()
}

// supervise waits for the process while listening for kill requests. The
// Terminated event is emitted only after both pipe readers have finished, so
// no stdout/stderr event can follow it.
func supervise(cmd *exec.Cmd, handle *Handle, events chan<- Event, readers *errgroup.Group) {
	waitDone := make(chan error, 1)
	go func() {
		readErr := readers.Wait()
		err := cmd.Wait()
		if err == nil {
			err = readErr
		}
		waitDone <- err
	}()

	for {
		select {
		case <-handle.kill:
			_ = terminate(cmd)
		case err := <-waitDone:
			var exitErr *exec.ExitError
			if err == nil || errors.As(err, &exitErr) {
				events <- Event{Kind: EventTerminated, Exit: exitStatus(cmd)}
			} else {
				events <- Event{Kind: EventSpawnError, Err: err.Error()}
			}
			close(events)
			return
		}
	}
}
