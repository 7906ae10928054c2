// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package terrain

import (
	"github.com/gogpu/terrain/voxel"
)

// DispatchRequest describes one generation.
type DispatchRequest struct {
	// Cells is the number of cells per grid axis.
	Cells int

	// IsoLevel is the density of the extracted surface.
	IsoLevel float32

	// Density holds the field sampled on the (Cells+1)³ corner lattice.
	Density voxel.Lattice
}

// Backend runs marching cubes over a grid and returns the output records
// through an asynchronous Readback.
//
// Dispatch must not wait for the work to finish. The returned buffer, once
// mapped, holds Cells³ records in the layout of package voxel.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// Dispatch starts a generation.
	Dispatch(req DispatchRequest) (Readback, error)

	// Close releases the backend. Outstanding readbacks stay valid.
	Close()
}

// bufferLimiter is implemented by backends whose output buffer size is
// configurable.
type bufferLimiter interface {
	MaxBufferSize() uint64
}

// bufferLimit returns the output buffer limit of b, or zero for the
// default limit.
func bufferLimit(b Backend) uint64 {
	if bl, ok := b.(bufferLimiter); ok {
		return bl.MaxBufferSize()
	}
	return 0
}

// Readback is the host side of one dispatched generation.
//
// The mapping is requested at dispatch time. Poll checks for completion
// without blocking; once it reports true, MappedRange returns the records
// until Unmap is called. Unmap must be called exactly once and releases
// the generation's buffers; a second call returns ErrNotMapped. When Poll
// fails with ErrMapFailed the buffers have already been released.
type Readback interface {
	Poll() (bool, error)
	MappedRange() ([]byte, error)
	Unmap() error
}
