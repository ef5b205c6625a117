package bootstrap

import "sync"

// Completion is a single-use completion signal: one Signal, any number of
// observers that all see the same completion. Extra Signal calls are no-ops.
type Completion struct {
	once sync.Once
	done chan struct{}
}

func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Signal marks the completion. Safe to call more than once.
func (c *Completion) Signal() {
	c.once.Do(func() { close(c.done) })
}

// Done returns a channel closed once Signal has been called.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Signaled reports without blocking whether Signal happened.
func (c *Completion) Signaled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
