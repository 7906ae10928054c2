// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// ErrDeviceUnavailable is returned when no usable adapter or device exists.
var ErrDeviceUnavailable = errors.New("gpu: device unavailable")

// Device is an opened device and its queue, either created here or borrowed
// from a host application.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	name     string
	external bool
}

// OpenDevice opens a standalone Vulkan device. Discrete adapters are
// preferred over integrated ones, and both over anything else.
func OpenDevice() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", ErrDeviceUnavailable)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrDeviceUnavailable, err)
	}
	adapters := instance.EnumerateAdapters(nil)
	selected := selectAdapter(adapters)
	if selected == nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no GPU adapters found", ErrDeviceUnavailable)
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: open device: %w", ErrDeviceUnavailable, err)
	}
	slogger().Info("gpu device opened", "adapter", selected.Info.Name, "type", selected.Info.DeviceType)
	return &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		name:     selected.Info.Name,
	}, nil
}

// selectAdapter picks a discrete GPU, then an integrated GPU, then the first
// adapter. It returns nil for an empty list.
func selectAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	if len(adapters) == 0 {
		return nil
	}
	for _, want := range []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU} {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				return &adapters[i]
			}
		}
	}
	return &adapters[0]
}

// halProvider is implemented by hosts that expose their HAL objects, such as
// gogpu applications.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// DeviceFromProvider borrows the device and queue of a host application.
// The returned Device does not destroy them on Close.
func DeviceFromProvider(provider any) (*Device, error) {
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider does not expose HAL types", ErrDeviceUnavailable)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", ErrDeviceUnavailable)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", ErrDeviceUnavailable)
	}
	slogger().Info("gpu device shared from provider")
	return NewDevice(device, queue, "shared"), nil
}

// NewDevice wraps an existing device and queue. Close leaves them open.
func NewDevice(device hal.Device, queue hal.Queue, name string) *Device {
	return &Device{
		device:   device,
		queue:    queue,
		name:     name,
		external: true,
	}
}

// Name returns the adapter name.
func (d *Device) Name() string { return d.name }

// HalDevice returns the underlying device.
func (d *Device) HalDevice() hal.Device { return d.device }

// HalQueue returns the underlying queue.
func (d *Device) HalQueue() hal.Queue { return d.queue }

// Close destroys the device and instance unless they are borrowed.
func (d *Device) Close() {
	if d.external {
		d.device = nil
		d.queue = nil
		return
	}
	if d.device != nil {
		d.device.Destroy()
		d.device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
	d.queue = nil
}
