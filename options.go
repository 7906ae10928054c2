// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package terrain

// Defaults used by NewSession.
const (
	// DefaultCells is the grid resolution per axis.
	DefaultCells = 64

	// DefaultIsoLevel is the density of the extracted surface.
	DefaultIsoLevel = 0

	// DefaultFrequency scales lattice coordinates before sampling the field.
	DefaultFrequency = 1.0 / 16
)

// Option configures a Session.
//
// Example:
//
//	s, err := terrain.NewSession(backend, field, scene,
//	    terrain.WithCells(32),
//	    terrain.WithIsoLevel(0.1))
type Option func(*options)

type options struct {
	cells     int
	iso       float32
	frequency float64
}

func defaultOptions() options {
	return options{
		cells:     DefaultCells,
		iso:       DefaultIsoLevel,
		frequency: DefaultFrequency,
	}
}

// WithCells sets the number of cells per grid axis. It must be a positive
// multiple of 8.
func WithCells(n int) Option {
	return func(o *options) {
		o.cells = n
	}
}

// WithIsoLevel sets the density at which the surface is extracted.
func WithIsoLevel(iso float32) Option {
	return func(o *options) {
		o.iso = iso
	}
}

// WithFrequency sets the scale from grid units to field coordinates.
// Non-positive values are ignored.
func WithFrequency(f float64) Option {
	return func(o *options) {
		if f > 0 {
			o.frequency = f
		}
	}
}
