package worker

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	if got := NewPool(4).Size(); got != 4 {
		t.Errorf("Expected 4 workers, got %d", got)
	}
	if got := NewPool(0).Size(); got != runtime.NumCPU() {
		t.Errorf("Expected %d workers for zero, got %d", runtime.NumCPU(), got)
	}
}

func TestPool_WaitBlocksUntilJobsFinish(t *testing.T) {
	pool := NewPool(2)
	pool.Start()
	defer pool.Close()

	var counter int64
	for i := 0; i < 10; i++ {
		pool.Submit(func() {
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&counter, 1)
		})
	}
	pool.Wait()

	if got := atomic.LoadInt64(&counter); got != 10 {
		t.Errorf("Expected counter to be 10 after Wait, got %d", got)
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	pool := NewPool(3)
	pool.Start()
	defer pool.Close()

	var running, peak int64
	var mu sync.Mutex
	for i := 0; i < 12; i++ {
		pool.Submit(func() {
			n := atomic.AddInt64(&running, 1)
			mu.Lock()
			if n > peak {
				peak = n
			}
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt64(&running, -1)
		})
	}
	pool.Wait()

	if peak > 3 {
		t.Errorf("Expected at most 3 concurrent jobs, saw %d", peak)
	}
}

func TestPool_StartAndCloseAreIdempotent(t *testing.T) {
	pool := NewPool(2)
	pool.Start()
	pool.Start()

	done := make(chan struct{})
	pool.Submit(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Job did not run")
	}
	pool.Wait()
	pool.Close()
	pool.Close()
}
