// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package parallel

import (
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_Create(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("pool should be running after creation")
	}
}

func TestPool_DefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -3} {
		pool := NewPool(n)
		if pool.Workers() != runtime.GOMAXPROCS(0) {
			t.Errorf("NewPool(%d).Workers() = %d, want GOMAXPROCS", n, pool.Workers())
		}
		pool.Close()
	}
}

func TestPool_Run(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	var counter atomic.Int64
	jobs := make([]Job, 100)
	for i := range jobs {
		jobs[i] = func() error {
			counter.Add(1)
			return nil
		}
	}
	if err := pool.Run(jobs); err != nil {
		t.Fatal(err)
	}
	if counter.Load() != 100 {
		t.Errorf("counter = %d, want 100", counter.Load())
	}
}

func TestPool_RunFirstError(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	boom := errors.New("boom")
	var ran atomic.Int64
	jobs := []Job{
		func() error { ran.Add(1); return nil },
		func() error { ran.Add(1); return boom },
		func() error { ran.Add(1); return nil },
	}
	if err := pool.Run(jobs); !errors.Is(err, boom) {
		t.Fatalf("Run = %v, want boom", err)
	}
	if ran.Load() != 3 {
		t.Errorf("ran %d jobs, want all 3", ran.Load())
	}
}

func TestPool_GoIsNonBlocking(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	release := make(chan struct{})
	b := pool.Go([]Job{func() error {
		<-release
		return nil
	}})
	if b.Done() {
		t.Fatal("batch done before its job was released")
	}
	close(release)

	deadline := time.Now().Add(5 * time.Second)
	for !b.Done() {
		if time.Now().After(deadline) {
			t.Fatal("batch never completed")
		}
		time.Sleep(time.Millisecond)
	}
	if err := b.Err(); err != nil {
		t.Errorf("Err = %v", err)
	}
}

func TestPool_EmptyBatch(t *testing.T) {
	pool := NewPool(1)
	defer pool.Close()

	b := pool.Go(nil)
	if !b.Done() {
		t.Error("empty batch should be done immediately")
	}
	if err := b.Wait(); err != nil {
		t.Errorf("Wait = %v", err)
	}
}

func TestPool_Closed(t *testing.T) {
	pool := NewPool(2)
	pool.Close()
	pool.Close()

	if pool.IsRunning() {
		t.Error("closed pool reports running")
	}
	var ran atomic.Bool
	err := pool.Run([]Job{func() error { ran.Store(true); return nil }})
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("Run on closed pool = %v, want ErrClosed", err)
	}
	if ran.Load() {
		t.Error("job ran on closed pool")
	}
}

func TestPool_CloseDrainsQueuedWork(t *testing.T) {
	pool := NewPool(1)

	var counter atomic.Int64
	jobs := make([]Job, 6)
	for i := range jobs {
		jobs[i] = func() error {
			time.Sleep(time.Millisecond)
			counter.Add(1)
			return nil
		}
	}
	b := pool.Go(jobs)
	pool.Close()

	if !b.Done() {
		t.Fatal("queued work not finished after Close")
	}
	if counter.Load() != 6 {
		t.Errorf("counter = %d, want 6", counter.Load())
	}
}

func TestPool_Stealing(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	// Jobs alternate between the two queues. One job blocks its worker, so
	// the counter job queued behind it only runs if the other worker steals.
	block := make(chan struct{})
	var counter atomic.Int64
	count := func() error { counter.Add(1); return nil }
	b := pool.Go([]Job{func() error { <-block; return nil }, count, count, count})

	deadline := time.Now().Add(5 * time.Second)
	for counter.Load() != 3 {
		if time.Now().After(deadline) {
			close(block)
			t.Fatal("job behind a blocked worker was not stolen")
		}
		time.Sleep(time.Millisecond)
	}
	close(block)
	if err := b.Wait(); err != nil {
		t.Error(err)
	}
}
