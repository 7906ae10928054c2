// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"fmt"
	"sync"
)

// Readback errors.
var (
	// ErrBufferDestroyed is returned when operating on a released buffer.
	ErrBufferDestroyed = errors.New("gpu: staging buffer has been destroyed")

	// ErrAlreadyMapped is returned by MapAsync when a mapping is pending or
	// established.
	ErrAlreadyMapped = errors.New("gpu: staging buffer is already mapped or mapping is pending")

	// ErrNotMapped is returned when reading or unmapping a buffer that is not
	// mapped.
	ErrNotMapped = errors.New("gpu: staging buffer is not mapped")

	// ErrMapPending is returned when the mapping has not completed yet.
	ErrMapPending = errors.New("gpu: staging buffer mapping is pending")

	// ErrMapFailed is returned when the device reports an error while the
	// mapping is pending.
	ErrMapFailed = errors.New("gpu: staging buffer mapping failed")

	// ErrCallbackNil is returned when MapAsync is called with a nil callback.
	ErrCallbackNil = errors.New("gpu: map callback is nil")
)

// MapState is the mapping state of a StagingBuffer.
type MapState int

const (
	// MapStateUnmapped means no mapping is pending or established.
	MapStateUnmapped MapState = iota
	// MapStatePending means MapAsync was called and the copy has not landed.
	MapStatePending
	// MapStateMapped means the contents are readable through MappedRange.
	MapStateMapped
)

// String returns the name of the state.
func (s MapState) String() string {
	switch s {
	case MapStateUnmapped:
		return "Unmapped"
	case MapStatePending:
		return "Pending"
	case MapStateMapped:
		return "Mapped"
	default:
		return fmt.Sprintf("MapState(%d)", int(s))
	}
}

// MapStatus is passed to the MapAsync callback.
type MapStatus int

const (
	// MapStatusSuccess means the contents are mapped.
	MapStatusSuccess MapStatus = iota
	// MapStatusError means the device failed; the buffer has been released.
	MapStatusError
	// MapStatusDestroyed means the buffer was destroyed while pending.
	MapStatusDestroyed
)

// String returns the name of the status.
func (s MapStatus) String() string {
	switch s {
	case MapStatusSuccess:
		return "Success"
	case MapStatusError:
		return "Error"
	case MapStatusDestroyed:
		return "Destroyed"
	default:
		return fmt.Sprintf("MapStatus(%d)", int(s))
	}
}

// completion reports, without blocking, whether the submission that fills
// the buffer has finished on the device.
type completion func() (bool, error)

// StagingBuffer is the host side of one dispatch: a MapRead buffer that the
// submitted commands copy the device output into.
//
// Mapping follows the WebGPU pattern. MapAsync records intent and returns at
// once; Poll checks the submission index without blocking and, once the
// device has completed it, copies the contents to host memory and fires the callback.
// The buffer owns every device object of its dispatch and releases them on
// Unmap, on a failed mapping or on Destroy.
//
// StagingBuffer is safe for concurrent use; callbacks run on the goroutine
// that calls Poll or Destroy.
type StagingBuffer struct {
	mu sync.Mutex

	label string
	size  uint64

	done    completion
	read    func(dst []byte) error
	release func()

	state     MapState
	callback  func(MapStatus)
	data      []byte
	destroyed bool
}

func newStagingBuffer(label string, size uint64, done completion, read func([]byte) error, release func()) *StagingBuffer {
	return &StagingBuffer{
		label:   label,
		size:    size,
		done:    done,
		read:    read,
		release: release,
	}
}

// Label returns the debug label of the dispatch.
func (b *StagingBuffer) Label() string { return b.label }

// Size returns the buffer size in bytes.
func (b *StagingBuffer) Size() uint64 { return b.size }

// MapState returns the current mapping state.
func (b *StagingBuffer) MapState() MapState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsDestroyed reports whether the device objects have been released.
func (b *StagingBuffer) IsDestroyed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.destroyed
}

// MapAsync requests a read mapping of the whole buffer. It never blocks; the
// callback fires from a later Poll.
func (b *StagingBuffer) MapAsync(callback func(MapStatus)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return ErrBufferDestroyed
	}
	if callback == nil {
		return ErrCallbackNil
	}
	if b.state != MapStateUnmapped {
		return ErrAlreadyMapped
	}
	b.state = MapStatePending
	b.callback = callback
	return nil
}

// Poll advances a pending mapping. It reports true once the buffer is mapped.
// While the device is still working it returns (false, nil) and changes
// nothing. A device error releases the buffer and returns an error wrapping
// ErrMapFailed.
func (b *StagingBuffer) Poll() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.destroyed:
		return false, ErrBufferDestroyed
	case b.state == MapStateMapped:
		return true, nil
	case b.state == MapStateUnmapped:
		return false, ErrNotMapped
	}

	done, err := b.done()
	if err != nil {
		return false, b.failLocked(fmt.Errorf("%w: wait for submission: %w", ErrMapFailed, err))
	}
	if !done {
		return false, nil
	}

	data := make([]byte, b.size)
	if err := b.read(data); err != nil {
		return false, b.failLocked(fmt.Errorf("%w: read %s: %w", ErrMapFailed, b.label, err))
	}
	b.data = data
	b.state = MapStateMapped
	b.fireLocked(MapStatusSuccess)
	slogger().Debug("staging buffer mapped", "label", b.label, "bytes", b.size)
	return true, nil
}

// MappedRange returns the mapped contents. The slice stays valid until Unmap.
func (b *StagingBuffer) MappedRange() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.destroyed:
		return nil, ErrBufferDestroyed
	case b.state == MapStatePending:
		return nil, ErrMapPending
	case b.state != MapStateMapped:
		return nil, ErrNotMapped
	}
	return b.data, nil
}

// Unmap ends the mapping and releases the dispatch's device objects. It must
// be called exactly once after the contents are consumed; later calls return
// ErrNotMapped. A pending mapping cannot be unmapped.
func (b *StagingBuffer) Unmap() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.state == MapStatePending && !b.destroyed:
		return ErrMapPending
	case b.state != MapStateMapped:
		return ErrNotMapped
	}
	b.state = MapStateUnmapped
	b.data = nil
	b.destroyLocked()
	return nil
}

// Destroy releases the device objects in any state. A pending callback fires
// with MapStatusDestroyed. Destroy is safe to call more than once.
func (b *StagingBuffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == MapStatePending {
		b.fireLocked(MapStatusDestroyed)
	}
	b.state = MapStateUnmapped
	b.data = nil
	b.destroyLocked()
}

func (b *StagingBuffer) failLocked(err error) error {
	slogger().Warn("staging buffer mapping failed", "label", b.label, "err", err)
	b.state = MapStateUnmapped
	b.fireLocked(MapStatusError)
	b.destroyLocked()
	return err
}

func (b *StagingBuffer) fireLocked(status MapStatus) {
	cb := b.callback
	b.callback = nil
	if cb != nil {
		cb(status)
	}
}

func (b *StagingBuffer) destroyLocked() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	if b.release != nil {
		b.release()
	}
}
