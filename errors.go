// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package terrain

import (
	"errors"

	"github.com/gogpu/terrain/voxel"
)

// Generation errors.
var (
	// ErrDeviceUnavailable is returned when a backend cannot obtain a compute
	// device.
	ErrDeviceUnavailable = errors.New("terrain: compute device unavailable")

	// ErrMapFailed is returned when the readback of a dispatch fails. The
	// generation is abandoned and its buffers are released.
	ErrMapFailed = errors.New("terrain: readback mapping failed")

	// ErrCorruptRecord is returned when a record declares more triangles than
	// a cell can hold. The whole generation is rejected.
	ErrCorruptRecord = voxel.ErrCorruptRecord

	// ErrInvalidResolution is returned for grid sizes that are not a positive
	// multiple of the workgroup size or do not fit in one storage buffer.
	ErrInvalidResolution = voxel.ErrInvalidResolution

	// ErrGenerationInProgress is returned by Start while a generation is
	// outstanding.
	ErrGenerationInProgress = errors.New("terrain: generation already in progress")

	// ErrNoResult is returned by TakeResult when no completed generation is
	// waiting.
	ErrNoResult = errors.New("terrain: no completed generation")

	// ErrNotMapped is returned by a Readback that is not mapped, including
	// a second Unmap.
	ErrNotMapped = errors.New("terrain: readback not mapped")

	// ErrMapPending is returned by a Readback whose mapping has not completed.
	ErrMapPending = errors.New("terrain: readback mapping pending")

	// ErrClosed is returned by a closed backend.
	ErrClosed = errors.New("terrain: backend closed")
)
