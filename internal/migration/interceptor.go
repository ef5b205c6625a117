// Package migration extracts the sidecar's database migration protocol from
// its stdout stream.
//
// The sidecar reports first-run migration progress as specially prefixed
// stdout lines. Intercept consumes those lines, re-emits them as structured
// Progress notifications, and forwards everything else untouched.
package migration

import (
	"strconv"
	"strings"

	"skipper/internal/sidecar"
)

// Prefix marks a migration protocol line on the sidecar's stdout.
const Prefix = "sqlite-migration:"

// Progress is one migration notification: either a percentage step or the
// completion marker.
type Progress struct {
	Done    bool
	Percent uint8
}

// Intercept returns a stream with migration protocol lines filtered out.
// Matched lines are delivered to notify instead of being forwarded. Once the
// completion sentinel has been seen, every later line passes through
// unmodified, so ordinary output can never re-match. Prefixed lines that
// parse as neither a percentage nor the sentinel are dropped as protocol
// noise.
func Intercept(in <-chan sidecar.Event, notify func(Progress)) <-chan sidecar.Event {
	out := make(chan sidecar.Event)

	go func() {
		defer close(out)
		done := false
		for event := range in {
			if done || event.Kind != sidecar.EventStdout {
				out <- event
				continue
			}

			rest, ok := strings.CutPrefix(string(event.Line), Prefix)
			if !ok {
				out <- event
				continue
			}

			switch rest = strings.TrimSpace(rest); {
			case rest == "done":
				done = true
				if notify != nil {
					notify(Progress{Done: true})
				}
			default:
				if value, err := strconv.ParseUint(rest, 10, 8); err == nil && notify != nil {
					notify(Progress{Percent: uint8(value)})
				}
			}
		}
	}()

	return out
}
