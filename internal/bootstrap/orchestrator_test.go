package bootstrap

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type stubResolver struct {
	calls atomic.Int32
	delay time.Duration
	conn  *Connection
	err   error
}

func (r *stubResolver) Resolve(ctx context.Context) (*Connection, error) {
	r.calls.Add(1)
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return r.conn, r.err
}

func waitForStep(t *testing.T, o *Orchestrator, want InitStep) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if o.CurrentStep() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("step never reached %v, now %v", want, o.CurrentStep())
}

func TestAwaitMemoizesAcrossConcurrentWaiters(t *testing.T) {
	r := &stubResolver{conn: &Connection{URL: "http://example.test:9000"}}
	o := NewOrchestrator(nil, r, nil, nil)
	defer o.Close()

	const waiters = 5
	results := make([]Result, waiters)
	errs := make([]error, waiters)
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = o.Await(context.Background())
		}(i)
	}
	wg.Wait()

	if got := r.calls.Load(); got != 1 {
		t.Fatalf("resolver invoked %d times, want exactly 1", got)
	}
	for i := 0; i < waiters; i++ {
		if errs[i] != nil {
			t.Fatalf("waiter %d: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Fatalf("waiter %d saw %+v, waiter 0 saw %+v", i, results[i], results[0])
		}
	}
}

func TestDoneStepWaitsForUIAcknowledgment(t *testing.T) {
	r := &stubResolver{conn: &Connection{URL: "http://example.test:9000"}}
	o := NewOrchestrator(nil, r, nil, nil)
	defer o.Close()

	if _, err := o.Await(context.Background()); err != nil {
		t.Fatalf("Await: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if o.CurrentStep() == StepDone {
		t.Fatal("done step must wait for the UI acknowledgment")
	}

	o.UIReady().Signal()
	waitForStep(t, o, StepDone)
}

func TestFailurePublishesSharedErrorAndFinalStep(t *testing.T) {
	r := &stubResolver{err: context.DeadlineExceeded}
	o := NewOrchestrator(nil, r, nil, nil)
	defer o.Close()

	_, err := o.Await(context.Background())
	if err == nil || !strings.Contains(err.Error(), "resolving server connection") {
		t.Fatalf("err = %v", err)
	}
	waitForStep(t, o, StepDone)

	_, again := o.Await(context.Background())
	if again == nil || again.Error() != err.Error() {
		t.Fatalf("second waiter saw %v, want %v", again, err)
	}
	if r.calls.Load() != 1 {
		t.Fatalf("resolver invoked %d times", r.calls.Load())
	}

	ch, cancel := o.WatchSteps()
	defer cancel()
	if step := <-ch; step != StepDone {
		t.Fatalf("late subscriber got %v", step)
	}
	if _, ok := <-ch; ok {
		t.Fatal("late subscriber channel should be closed")
	}
}

func TestAwaitHonorsCallerContext(t *testing.T) {
	r := &stubResolver{delay: time.Second, conn: &Connection{URL: "http://example.test:9000"}}
	o := NewOrchestrator(nil, r, nil, nil)
	defer o.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := o.Await(ctx); err != context.DeadlineExceeded {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestShowLoadingScreenDecidesOnce(t *testing.T) {
	fast := NewOrchestrator(nil, &stubResolver{conn: &Connection{URL: "http://fast.test"}}, nil, nil)
	defer fast.Close()
	fast.loadingDelay = 500 * time.Millisecond
	if fast.ShowLoadingScreen() {
		t.Fatal("fast initialization should skip the loading screen")
	}

	slow := NewOrchestrator(nil, &stubResolver{delay: 300 * time.Millisecond, conn: &Connection{URL: "http://slow.test"}}, nil, nil)
	defer slow.Close()
	slow.loadingDelay = 20 * time.Millisecond
	if !slow.ShowLoadingScreen() {
		t.Fatal("slow initialization should show the loading screen")
	}
	// decision is sticky even after completion
	slow.Await(context.Background())
	if !slow.ShowLoadingScreen() {
		t.Fatal("loading decision must not change after the race")
	}
}
