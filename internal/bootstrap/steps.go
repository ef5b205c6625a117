package bootstrap

import "sync"

// InitStep is the externally visible initialization phase. Transitions only
// move forward; a later step is never followed by an earlier one.
type InitStep int

const (
	// StepServerWaiting means the server has not reported healthy yet.
	StepServerWaiting InitStep = iota
	// StepSqliteWaiting means a first-run database migration is in flight.
	StepSqliteWaiting
	// StepDone means initialization finished, successfully or not.
	StepDone
)

func (s InitStep) String() string {
	switch s {
	case StepServerWaiting:
		return "server-waiting"
	case StepSqliteWaiting:
		return "sqlite-waiting"
	case StepDone:
		return "done"
	default:
		return "unknown"
	}
}

// ParseInitStep maps the wire name back to a step.
func ParseInitStep(name string) (InitStep, bool) {
	switch name {
	case "server-waiting":
		return StepServerWaiting, true
	case "sqlite-waiting":
		return StepSqliteWaiting, true
	case "done":
		return StepDone, true
	}
	return StepServerWaiting, false
}

// StepBroadcaster fans InitStep transitions out to any number of
// subscribers. A new subscriber immediately receives the current step, then
// every later transition; its channel is closed once StepDone has been
// delivered.
type StepBroadcaster struct {
	mu      sync.Mutex
	current InitStep
	subs    map[int]chan InitStep
	nextID  int
}

func NewStepBroadcaster() *StepBroadcaster {
	return &StepBroadcaster{
		current: StepServerWaiting,
		subs:    make(map[int]chan InitStep),
	}
}

// Current returns the latest published step.
func (b *StepBroadcaster) Current() InitStep {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Subscribe registers a new observer. The returned channel is buffered to
// hold the full remaining step sequence, so the broadcaster never blocks on
// a slow subscriber. The cancel function detaches early; calling it after
// the channel closed is harmless.
func (b *StepBroadcaster) Subscribe() (<-chan InitStep, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan InitStep, int(StepDone)+1)
	ch <- b.current
	if b.current == StepDone {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}

// Advance publishes step to all subscribers. Steps at or before the current
// one are ignored, which makes transitions idempotent and monotonic. After
// StepDone every subscriber channel is closed and dropped.
func (b *StepBroadcaster) Advance(step InitStep) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if step <= b.current {
		return
	}
	b.current = step
	for id, sub := range b.subs {
		sub <- step
		if step == StepDone {
			delete(b.subs, id)
			close(sub)
		}
	}
}
