package bootstrap

import (
	"sync"
	"testing"
	"time"
)

func TestCompletionReleasesAllWaiters(t *testing.T) {
	c := NewCompletion()
	if c.Signaled() {
		t.Fatal("fresh completion should not be signaled")
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-c.Done()
		}()
	}

	c.Signal()
	c.Signal()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("waiters were not released")
	}
	if !c.Signaled() {
		t.Fatal("completion should report signaled")
	}
}
