package sidecar

import "fmt"

// EventKind discriminates supervisor events.
type EventKind int

const (
	// EventStdout carries one complete line from the process stdout.
	EventStdout EventKind = iota
	// EventStderr carries one complete line from the process stderr.
	EventStderr
	// EventSpawnError reports a wait failure after a successful spawn. It
	// terminates the stream in place of EventTerminated.
	EventSpawnError
	// EventTerminated reports process exit. It is always the final event.
	EventTerminated
)

// Event is one item of a supervised process's output stream. Per-stream line
// order is preserved; relative ordering between stdout and stderr lines is
// not guaranteed.
type Event struct {
	Kind EventKind
	Line []byte
	Err  string
	Exit ExitStatus
}

// ExitStatus describes how a process ended.
type ExitStatus struct {
	Code   *int
	Signal *int
	// Err is set when waiting on the process itself failed.
	Err string
}

func (e ExitStatus) String() string {
	if e.Err != "" {
		return e.Err
	}
	code := "none"
	if e.Code != nil {
		code = fmt.Sprintf("%d", *e.Code)
	}
	signal := "none"
	if e.Signal != nil {
		signal = fmt.Sprintf("%d", *e.Signal)
	}
	return fmt.Sprintf("code=%s signal=%s", code, signal)
}
