// Package worker runs independent jobs on a fixed number of goroutines.
package worker

import (
	"runtime"
	"sync"
)

// Pool executes submitted jobs with bounded concurrency
type Pool struct {
	workers   int
	jobs      chan func()
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// NewPool creates a pool with the given number of workers; values <= 0
// mean one per CPU.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		workers: workers,
		jobs:    make(chan func(), workers*2),
	}
}

// Size returns the number of workers
func (p *Pool) Size() int {
	return p.workers
}

// Start launches the workers. Calling it more than once has no effect.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			go p.run()
		}
	})
}

func (p *Pool) run() {
	for job := range p.jobs {
		func() {
			defer p.wg.Done()
			job()
		}()
	}
}

// Submit queues job, blocking while the queue is full. It must not be
// called after Close.
func (p *Pool) Submit(job func()) {
	p.wg.Add(1)
	p.jobs <- job
}

// Wait blocks until every submitted job has returned
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Close stops the workers once the queue drains
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.jobs) })
}
