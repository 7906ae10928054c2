// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gpu runs terrain generation on a WebGPU compute device.
//
// A Backend either opens its own Vulkan device:
//
//	b, err := gpu.New(gpu.Config{})
//	if err != nil {
//	    // fall back to terrain.NewCPUBackend
//	}
//
// or borrows the device of a host application, such as a gogpu app:
//
//	b, err := gpu.NewWithProvider(app.DeviceProvider(), gpu.Config{})
//
// Each Dispatch uploads the prefilled record buffer, runs one marching-cubes
// pass, copies the result into a staging buffer and requests its mapping.
// Nothing waits on the device; the session polls the returned Readback.
package gpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/terrain"
	internalgpu "github.com/gogpu/terrain/internal/gpu"
	"github.com/gogpu/terrain/voxel"
)

// Config configures a Backend.
type Config struct {
	// Label prefixes the labels of device objects. Empty means "terrain".
	Label string

	// PrecompileSPIRV hands the device SPIR-V compiled by naga instead of
	// WGSL source.
	PrecompileSPIRV bool

	// MaxBufferSize bounds the output buffer of one generation. Zero means
	// the WebGPU default storage binding limit of 128 MiB.
	MaxBufferSize uint64

	// MaxPipelines bounds the number of compiled grid size and iso level
	// combinations kept alive. Zero means 8.
	MaxPipelines int
}

// Backend implements terrain.Backend on a compute device.
type Backend struct {
	device        *internalgpu.Device
	dispatcher    *internalgpu.Dispatcher
	maxBufferSize uint64
	closeOnce     sync.Once
}

var _ terrain.Backend = (*Backend)(nil)

// New opens a standalone device. Errors wrap terrain.ErrDeviceUnavailable.
func New(cfg Config) (*Backend, error) {
	dev, err := internalgpu.OpenDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", terrain.ErrDeviceUnavailable, err)
	}
	return newBackend(dev, cfg)
}

// NewWithProvider uses the device and queue of a host application. The
// provider must also expose its HAL objects through HalDevice and HalQueue.
// Close leaves the borrowed device open.
func NewWithProvider(provider gpucontext.DeviceProvider, cfg Config) (*Backend, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: nil device provider", terrain.ErrDeviceUnavailable)
	}
	dev, err := internalgpu.DeviceFromProvider(provider)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", terrain.ErrDeviceUnavailable, err)
	}
	return newBackend(dev, cfg)
}

func newBackend(dev *internalgpu.Device, cfg Config) (*Backend, error) {
	d := internalgpu.NewDispatcher(dev.HalDevice(), dev.HalQueue(), internalgpu.Config{
		Label:           cfg.Label,
		PrecompileSPIRV: cfg.PrecompileSPIRV,
		MaxBufferSize:   cfg.MaxBufferSize,
		MaxPipelines:    cfg.MaxPipelines,
	})
	if err := d.Init(); err != nil {
		dev.Close()
		return nil, fmt.Errorf("%w: %w", terrain.ErrDeviceUnavailable, err)
	}
	limit := cfg.MaxBufferSize
	if limit == 0 {
		limit = voxel.DefaultMaxBufferSize
	}
	return &Backend{device: dev, dispatcher: d, maxBufferSize: limit}, nil
}

// MaxBufferSize returns the largest output buffer one generation may use.
// Sessions validate their resolution against it.
func (b *Backend) MaxBufferSize() uint64 { return b.maxBufferSize }

// Name returns "gpu" followed by the adapter name.
func (b *Backend) Name() string {
	if n := b.device.Name(); n != "" {
		return "gpu:" + n
	}
	return "gpu"
}

// SetLogger sets the logger for device diagnostics. Sessions call it with
// terrain.Logger().
func (b *Backend) SetLogger(l *slog.Logger) {
	internalgpu.SetLogger(l)
}

// Dispatch submits one generation and requests the mapping of its staging
// buffer. It does not wait for the device.
func (b *Backend) Dispatch(req terrain.DispatchRequest) (terrain.Readback, error) {
	if req.Density == nil {
		return nil, errors.New("gpu: dispatch without density lattice")
	}
	if req.Density.Cells() != req.Cells {
		return nil, fmt.Errorf("%w: lattice has %d cells per axis, request has %d",
			terrain.ErrInvalidResolution, req.Density.Cells(), req.Cells)
	}
	prefill, err := voxel.Prefill(req.Density, b.maxBufferSize)
	if err != nil {
		return nil, err
	}
	buf, err := b.dispatcher.Dispatch(req.Cells, req.IsoLevel, prefill)
	if err != nil {
		return nil, translate(err)
	}
	label := buf.Label()
	if err := buf.MapAsync(func(status internalgpu.MapStatus) {
		internalgpu.Logger().Debug("staging buffer map callback", "label", label, "status", status)
	}); err != nil {
		buf.Destroy()
		return nil, translate(err)
	}
	return &readback{buf: buf}, nil
}

// Close releases the compute program and, unless it is borrowed, the device.
// Readbacks already returned stay valid until unmapped.
func (b *Backend) Close() {
	b.closeOnce.Do(func() {
		b.dispatcher.Close()
		b.device.Close()
	})
}

// readback exposes a staging buffer as a terrain.Readback.
type readback struct {
	buf *internalgpu.StagingBuffer
}

func (r *readback) Poll() (bool, error) {
	ready, err := r.buf.Poll()
	return ready, translate(err)
}

func (r *readback) MappedRange() ([]byte, error) {
	data, err := r.buf.MappedRange()
	return data, translate(err)
}

func (r *readback) Unmap() error {
	return translate(r.buf.Unmap())
}

// translate maps device-layer errors onto the terrain error values.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, internalgpu.ErrMapFailed):
		return fmt.Errorf("%w: %w", terrain.ErrMapFailed, err)
	case errors.Is(err, internalgpu.ErrMapPending):
		return terrain.ErrMapPending
	case errors.Is(err, internalgpu.ErrNotMapped), errors.Is(err, internalgpu.ErrBufferDestroyed):
		return terrain.ErrNotMapped
	case errors.Is(err, internalgpu.ErrClosed):
		return terrain.ErrClosed
	case errors.Is(err, internalgpu.ErrDeviceUnavailable):
		return fmt.Errorf("%w: %w", terrain.ErrDeviceUnavailable, err)
	}
	return err
}
