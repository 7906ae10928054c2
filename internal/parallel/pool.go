// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package parallel runs batches of independent jobs on a fixed set of worker
// goroutines. Each worker owns a queue and steals from the others when its own
// queue runs dry, which keeps slabs of uneven cost balanced.
package parallel

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrClosed is reported by batches submitted to a closed pool.
var ErrClosed = errors.New("parallel: pool closed")

// Job is one unit of work. A non-nil error fails the batch it belongs to.
type Job func() error

// Pool is a work-stealing worker pool.
//
// Pool is safe for concurrent use.
type Pool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	// mu orders submission against Close so no job is queued after the
	// workers have drained.
	mu sync.RWMutex
}

// NewPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	depth := max(workers*4, 8)

	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan func(), depth)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.work(i)
	}
	return p
}

func (p *Pool) work(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		if fn := p.take(id); fn != nil {
			fn()
			continue
		}
		select {
		case fn := <-own:
			fn()
		case <-p.done:
			for {
				select {
				case fn := <-own:
					fn()
				default:
					return
				}
			}
		}
	}
}

// take returns a queued job from the worker's own queue or, failing that,
// from any other worker. It never blocks.
func (p *Pool) take(id int) func() {
	for i := range p.workers {
		select {
		case fn := <-p.queues[(id+i)%p.workers]:
			return fn
		default:
		}
	}
	return nil
}

// Go submits jobs round-robin and returns immediately. The returned Batch
// reports completion without blocking.
func (p *Pool) Go(jobs []Job) *Batch {
	b := newBatch(len(jobs))
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running.Load() {
		b.fail(ErrClosed, len(jobs))
		return b
	}
	for i, job := range jobs {
		p.queues[i%p.workers] <- func() { b.finish(job()) }
	}
	return b
}

// Run submits jobs and waits for all of them. It returns the first error.
func (p *Pool) Run(jobs []Job) error {
	return p.Go(jobs).Wait()
}

// Close stops accepting work, lets queued jobs finish and stops the workers.
// Close is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.mu.Unlock()
		return
	}
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.workers }

// IsRunning reports whether the pool accepts work.
func (p *Pool) IsRunning() bool { return p.running.Load() }

// Batch tracks the jobs of one Go call.
type Batch struct {
	remaining atomic.Int64
	done      chan struct{}

	mu  sync.Mutex
	err error
}

func newBatch(n int) *Batch {
	b := &Batch{done: make(chan struct{})}
	b.remaining.Store(int64(n))
	if n == 0 {
		close(b.done)
	}
	return b
}

func (b *Batch) finish(err error) {
	if err != nil {
		b.mu.Lock()
		if b.err == nil {
			b.err = err
		}
		b.mu.Unlock()
	}
	if b.remaining.Add(-1) == 0 {
		close(b.done)
	}
}

// fail accounts for n jobs that were never queued.
func (b *Batch) fail(err error, n int) {
	b.mu.Lock()
	if b.err == nil {
		b.err = err
	}
	b.mu.Unlock()
	if n > 0 && b.remaining.Add(-int64(n)) == 0 {
		close(b.done)
	}
}

// Done reports whether every job has finished. It never blocks.
func (b *Batch) Done() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// Wait blocks until every job has finished and returns the first error.
func (b *Batch) Wait() error {
	<-b.done
	return b.Err()
}

// Err returns the first job error recorded so far.
func (b *Batch) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}
