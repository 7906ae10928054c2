// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// dispatcher.go records and submits one marching-cubes compute pass per
// generation and hands the result back as a StagingBuffer.

package gpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/terrain/internal/cache"
	"github.com/gogpu/terrain/voxel"
)

// ErrClosed is returned by a Dispatcher after Close.
var ErrClosed = errors.New("gpu: dispatcher closed")

// Config configures a Dispatcher.
type Config struct {
	// Label prefixes every device object label. Empty means "terrain".
	Label string

	// PrecompileSPIRV compiles the program to SPIR-V with naga before
	// handing it to the device, instead of passing WGSL.
	PrecompileSPIRV bool

	// MaxBufferSize bounds the output buffer. Zero means the WebGPU default
	// storage binding limit.
	MaxBufferSize uint64

	// MaxPipelines bounds the number of cached program specializations.
	// Zero means DefaultMaxPipelines.
	MaxPipelines int
}

// DefaultMaxPipelines is the pipeline cache size used when
// Config.MaxPipelines is zero.
const DefaultMaxPipelines = 8

func (c Config) label() string {
	if c.Label == "" {
		return "terrain"
	}
	return c.Label
}

// pipelineKey identifies a specialization of the program.
type pipelineKey struct {
	cells int
	iso   float32
}

type computePipeline struct {
	module   hal.ShaderModule
	pipeline hal.ComputePipeline
}

// Dispatcher owns the compute program and submits generations to a queue.
//
// Device objects shared by every generation (bind group layout, pipeline
// layout, one pipeline per grid size and iso level) live as long as the
// Dispatcher. Objects of a single generation are owned by the returned
// StagingBuffer.
//
// Dispatcher is safe for concurrent use.
type Dispatcher struct {
	mu sync.Mutex

	device hal.Device
	queue  hal.Queue
	cfg    Config

	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipelines  *cache.LRU[pipelineKey, *computePipeline]

	// retired pipelines were evicted while generations may still reference
	// them. They are destroyed once no generation is in flight.
	retired  []*computePipeline
	inflight atomic.Int64

	serial atomic.Uint64
	closed bool
}

// NewDispatcher returns a Dispatcher for device and queue. Device objects are
// created lazily on the first Dispatch.
func NewDispatcher(device hal.Device, queue hal.Queue, cfg Config) *Dispatcher {
	d := &Dispatcher{
		device: device,
		queue:  queue,
		cfg:    cfg,
	}
	size := cfg.MaxPipelines
	if size <= 0 {
		size = DefaultMaxPipelines
	}
	d.pipelines = cache.New(size, func(key pipelineKey, p *computePipeline) {
		st := d.pipelines.Stats()
		slogger().Debug("marching cubes pipeline evicted",
			"cells", key.cells,
			"iso", key.iso,
			"cached", st.Len,
			"capacity", st.Capacity,
			"evictions", st.Evictions,
			"hit_rate", st.HitRate())
		d.retired = append(d.retired, p)
	})
	return d
}

// Init creates the bind group layout and pipeline layout. Dispatch calls it
// as needed; calling it early surfaces device errors at startup.
func (d *Dispatcher) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return d.initLocked()
}

func (d *Dispatcher) initLocked() error {
	if d.pipeLayout != nil {
		return nil
	}
	if d.device == nil || d.queue == nil {
		return ErrDeviceUnavailable
	}
	label := d.cfg.label()

	bindLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: label + "_cubes_bgl",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_cubes_pl",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		d.device.DestroyBindGroupLayout(bindLayout)
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	d.bindLayout = bindLayout
	d.pipeLayout = pipeLayout
	return nil
}

// pipelineLocked returns the pipeline for key, creating it on first use.
func (d *Dispatcher) pipelineLocked(key pipelineKey) (*computePipeline, error) {
	if p, ok := d.pipelines.Get(key); ok {
		return p, nil
	}

	src, err := MarchingCubesSource(key.cells, key.iso)
	if err != nil {
		return nil, err
	}
	source := hal.ShaderSource{WGSL: src}
	if d.cfg.PrecompileSPIRV {
		words, err := CompileSPIRV(src)
		if err != nil {
			return nil, err
		}
		source = hal.ShaderSource{SPIRV: words}
	}

	label := fmt.Sprintf("%s_marching_cubes_%d", d.cfg.label(), key.cells)
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: source,
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module: %w", err)
	}

	pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  label,
		Layout: d.pipeLayout,
		Compute: hal.ComputeState{
			Module:     module,
			EntryPoint: marchingCubesEntryPoint,
		},
	})
	if err != nil {
		d.device.DestroyShaderModule(module)
		return nil, fmt.Errorf("create compute pipeline: %w", err)
	}

	p := &computePipeline{module: module, pipeline: pipeline}
	d.pipelines.Add(key, p)
	slogger().Debug("marching cubes pipeline created",
		"cells", key.cells,
		"iso", key.iso,
		"spirv", d.cfg.PrecompileSPIRV,
		"shader_bytes", len(src))
	return p, nil
}

// PipelineCount returns the number of cached pipeline specializations.
func (d *Dispatcher) PipelineCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pipelines.Len()
}

// destroyRetiredLocked frees evicted pipelines when no submitted work can
// still use them.
func (d *Dispatcher) destroyRetiredLocked(force bool) {
	if len(d.retired) == 0 || (!force && d.inflight.Load() > 0) {
		return
	}
	for _, p := range d.retired {
		p.destroy(d.device)
	}
	d.retired = nil
}

func (p *computePipeline) destroy(device hal.Device) {
	device.DestroyComputePipeline(p.pipeline)
	device.DestroyShaderModule(p.module)
}

// generation holds the device objects of one dispatch.
type generation struct {
	device  hal.Device
	storage hal.Buffer
	staging hal.Buffer
	group   hal.BindGroup
	cmd     hal.CommandBuffer
	index   uint64
}

func (g *generation) release() {
	if g.cmd != nil {
		g.device.FreeCommandBuffer(g.cmd)
	}
	if g.group != nil {
		g.device.DestroyBindGroup(g.group)
	}
	if g.staging != nil {
		g.device.DestroyBuffer(g.staging)
	}
	if g.storage != nil {
		g.device.DestroyBuffer(g.storage)
	}
	*g = generation{}
}

// Dispatch uploads the prefilled record buffer for a grid of cells³ cells,
// runs the marching-cubes pass over it and schedules a copy into a staging
// buffer. It returns without waiting for the device; poll the returned
// StagingBuffer for completion.
func (d *Dispatcher) Dispatch(cells int, iso float32, prefill []byte) (*StagingBuffer, error) {
	if err := voxel.ValidateCells(cells, d.cfg.MaxBufferSize); err != nil {
		return nil, err
	}
	size := voxel.BufferSize(cells)
	if uint64(len(prefill)) != size {
		return nil, fmt.Errorf("%w: prefill is %d bytes, grid needs %d", voxel.ErrShortBuffer, len(prefill), size)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if err := d.initLocked(); err != nil {
		return nil, err
	}
	d.destroyRetiredLocked(false)
	p, err := d.pipelineLocked(pipelineKey{cells: cells, iso: iso})
	if err != nil {
		return nil, err
	}

	label := fmt.Sprintf("%s_gen%d", d.cfg.label(), d.serial.Add(1))
	g := &generation{device: d.device}
	if err := d.record(g, p, label, cells, size, prefill); err != nil {
		g.release()
		return nil, err
	}

	index, staging := g.index, g.staging
	done := func() (bool, error) {
		return d.queue.PollCompleted() >= index, nil
	}
	read := func(dst []byte) error {
		return d.readStaging(staging, dst)
	}
	slogger().Debug("marching cubes dispatched",
		"label", label,
		"cells", cells,
		"workgroups", voxel.WorkgroupCount(cells),
		"bytes", size)
	d.inflight.Add(1)
	release := func() {
		g.release()
		d.inflight.Add(-1)
	}
	return newStagingBuffer(label, size, done, read, release), nil
}

func (d *Dispatcher) record(g *generation, p *computePipeline, label string, cells int, size uint64, prefill []byte) error {
	var err error
	g.storage, err = d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label + "_cubes", Size: size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create storage buffer: %w", err)
	}
	g.staging, err = d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label + "_staging", Size: size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}
	if err := d.queue.WriteBuffer(g.storage, 0, prefill); err != nil {
		return fmt.Errorf("upload prefill: %w", err)
	}

	g.group, err = d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  label + "_bind",
		Layout: d.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: g.storage.NativeHandle(), Offset: 0, Size: size}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label + "_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	groups := voxel.WorkgroupCount(cells)
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: label + "_pass"})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, g.group, nil)
	pass.Dispatch(groups, groups, groups)
	pass.End()

	encoder.CopyBufferToBuffer(g.storage, g.staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})
	g.cmd, err = encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}

	g.index, err = d.queue.Submit([]hal.CommandBuffer{g.cmd})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return nil
}

// readStaging copies a completed staging buffer into dst.
func (d *Dispatcher) readStaging(staging hal.Buffer, dst []byte) error {
	m, err := d.device.MapBuffer(staging, 0, uint64(len(dst)))
	if err != nil {
		return fmt.Errorf("map staging buffer: %w", err)
	}
	copy(dst, unsafe.Slice((*byte)(m.Ptr), len(dst)))
	if err := d.device.UnmapBuffer(staging); err != nil {
		return fmt.Errorf("unmap staging buffer: %w", err)
	}
	return nil
}

// Close destroys the cached pipelines and layouts. Staging buffers already
// returned stay valid until they are unmapped or destroyed. The device itself
// is not closed.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if d.device == nil {
		return
	}
	d.pipelines.Purge()
	d.destroyRetiredLocked(true)
	if d.pipeLayout != nil {
		d.device.DestroyPipelineLayout(d.pipeLayout)
		d.pipeLayout = nil
	}
	if d.bindLayout != nil {
		d.device.DestroyBindGroupLayout(d.bindLayout)
		d.bindLayout = nil
	}
}
