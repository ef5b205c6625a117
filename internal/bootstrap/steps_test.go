package bootstrap

import (
	"testing"
	"time"
)

func collectSteps(t *testing.T, ch <-chan InitStep, want int) []InitStep {
	t.Helper()
	var got []InitStep
	for len(got) < want {
		select {
		case step, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, step)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for steps, have %v", got)
		}
	}
	return got
}

func TestSubscriberReceivesCurrentThenTransitions(t *testing.T) {
	b := NewStepBroadcaster()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Advance(StepSqliteWaiting)
	b.Advance(StepDone)

	got := collectSteps(t, ch, 3)
	want := []InitStep{StepServerWaiting, StepSqliteWaiting, StepDone}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("step sequence = %v, want %v", got, want)
		}
	}
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after done")
	}
}

func TestLateSubscriberSeesExactlyDone(t *testing.T) {
	b := NewStepBroadcaster()
	b.Advance(StepSqliteWaiting)
	b.Advance(StepDone)

	ch, cancel := b.Subscribe()
	defer cancel()

	if step := <-ch; step != StepDone {
		t.Fatalf("late subscriber got %v, want %v", step, StepDone)
	}
	if _, ok := <-ch; ok {
		t.Fatal("late subscriber should see nothing after done")
	}
}

func TestAdvanceIsMonotonic(t *testing.T) {
	b := NewStepBroadcaster()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Advance(StepSqliteWaiting)
	b.Advance(StepServerWaiting)
	b.Advance(StepSqliteWaiting)
	b.Advance(StepDone)

	got := collectSteps(t, ch, 3)
	want := []InitStep{StepServerWaiting, StepSqliteWaiting, StepDone}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSubscribeCancelDetaches(t *testing.T) {
	b := NewStepBroadcaster()
	ch, cancel := b.Subscribe()
	<-ch
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("canceled subscription should be closed")
	}
	b.Advance(StepDone)
	if b.Current() != StepDone {
		t.Fatalf("current = %v, want %v", b.Current(), StepDone)
	}
}

func TestParseInitStepRoundTrip(t *testing.T) {
	for _, step := range []InitStep{StepServerWaiting, StepSqliteWaiting, StepDone} {
		parsed, ok := ParseInitStep(step.String())
		if !ok || parsed != step {
			t.Fatalf("round trip of %v failed: %v %v", step, parsed, ok)
		}
	}
	if _, ok := ParseInitStep("banana"); ok {
		t.Fatal("unknown name should not parse")
	}
}
