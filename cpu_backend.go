// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package terrain

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/terrain/internal/mc"
	"github.com/gogpu/terrain/internal/parallel"
	"github.com/gogpu/terrain/voxel"
)

// slabsPerWorker is how many z-slabs each worker gets on average, so that
// slabs crossing more surface do not leave other workers idle.
const slabsPerWorker = 2

// CPUBackend runs marching cubes on the host with a worker pool. It produces
// the same records as the compute program and serves as the fallback when no
// GPU is available.
type CPUBackend struct {
	pool   *parallel.Pool
	logger atomic.Pointer[slog.Logger]
}

var _ Backend = (*CPUBackend)(nil)

// NewCPUBackend starts a backend with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewCPUBackend(workers int) *CPUBackend {
	b := &CPUBackend{pool: parallel.NewPool(workers)}
	b.logger.Store(Logger())
	return b
}

// Name returns "cpu".
func (b *CPUBackend) Name() string { return "cpu" }

// SetLogger sets the logger used for dispatch diagnostics.
func (b *CPUBackend) SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	b.logger.Store(l)
}

// Workers returns the size of the worker pool.
func (b *CPUBackend) Workers() int { return b.pool.Workers() }

// Dispatch prefills the record buffer and queues one job per z-slab. It
// returns before the jobs finish.
func (b *CPUBackend) Dispatch(req DispatchRequest) (Readback, error) {
	if !b.pool.IsRunning() {
		return nil, ErrClosed
	}
	if req.Density == nil {
		return nil, fmt.Errorf("terrain: dispatch without density lattice")
	}
	if req.Density.Cells() != req.Cells {
		return nil, fmt.Errorf("%w: lattice has %d cells per axis, request has %d",
			ErrInvalidResolution, req.Density.Cells(), req.Cells)
	}
	buf, err := voxel.Prefill(req.Density, 0)
	if err != nil {
		return nil, err
	}

	cells, iso := req.Cells, req.IsoLevel
	spans := parallel.Split(cells, b.pool.Workers()*slabsPerWorker)
	jobs := make([]parallel.Job, len(spans))
	for i, s := range spans {
		jobs[i] = func() error {
			return mc.Fill(buf, cells, iso, s.Lo, s.Hi)
		}
	}
	b.logger.Load().Debug("cpu marching cubes dispatched",
		"cells", cells,
		"slabs", len(spans),
		"workers", b.pool.Workers(),
		"bytes", len(buf))
	return &cpuReadback{batch: b.pool.Go(jobs), data: buf}, nil
}

// Close stops the worker pool after queued slabs finish.
func (b *CPUBackend) Close() {
	b.pool.Close()
}

// cpuReadback maps once every slab job has finished.
type cpuReadback struct {
	mu       sync.Mutex
	batch    *parallel.Batch
	data     []byte
	mapped   bool
	released bool
}

func (r *cpuReadback) Poll() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.mapped:
		return true, nil
	case r.released:
		return false, ErrNotMapped
	case !r.batch.Done():
		return false, nil
	}
	if err := r.batch.Err(); err != nil {
		r.released = true
		r.data = nil
		return false, fmt.Errorf("%w: %w", ErrMapFailed, err)
	}
	r.mapped = true
	return true, nil
}

func (r *cpuReadback) MappedRange() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.mapped:
		return r.data, nil
	case r.released:
		return nil, ErrNotMapped
	default:
		return nil, ErrMapPending
	}
}

func (r *cpuReadback) Unmap() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.mapped:
		r.mapped = false
		r.released = true
		r.data = nil
		return nil
	case r.released:
		return ErrNotMapped
	default:
		return ErrMapPending
	}
}
