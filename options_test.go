// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package terrain

import (
	"errors"
	"testing"

	"github.com/gogpu/terrain/density"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.cells != DefaultCells {
		t.Errorf("cells = %d, want %d", o.cells, DefaultCells)
	}
	if o.iso != DefaultIsoLevel {
		t.Errorf("iso = %v, want %v", o.iso, DefaultIsoLevel)
	}
	if o.frequency != DefaultFrequency {
		t.Errorf("frequency = %v, want %v", o.frequency, DefaultFrequency)
	}
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want options
	}{
		{"cells", []Option{WithCells(32)}, options{cells: 32, iso: DefaultIsoLevel, frequency: DefaultFrequency}},
		{"iso", []Option{WithIsoLevel(-0.25)}, options{cells: DefaultCells, iso: -0.25, frequency: DefaultFrequency}},
		{"frequency", []Option{WithFrequency(0.5)}, options{cells: DefaultCells, iso: DefaultIsoLevel, frequency: 0.5}},
		{"ignores zero frequency", []Option{WithFrequency(0)}, defaultOptions()},
		{"ignores negative frequency", []Option{WithFrequency(-2)}, defaultOptions()},
		{"last wins", []Option{WithCells(8), WithCells(16)}, options{cells: 16, iso: DefaultIsoLevel, frequency: DefaultFrequency}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			for _, opt := range tt.opts {
				opt(&o)
			}
			if o != tt.want {
				t.Errorf("options = %+v, want %+v", o, tt.want)
			}
		})
	}
}

func TestNewSessionValidatesCells(t *testing.T) {
	for _, cells := range []int{0, 7, 12, -8, 256} {
		_, err := NewSession(&fakeBackend{}, density.FieldFunc(flatField), nil, WithCells(cells))
		if !errors.Is(err, ErrInvalidResolution) {
			t.Errorf("WithCells(%d): err = %v, want ErrInvalidResolution", cells, err)
		}
	}
	s, err := NewSession(&fakeBackend{}, density.FieldFunc(flatField), nil, WithCells(16), WithIsoLevel(0.5))
	if err != nil {
		t.Fatal(err)
	}
	if s.Cells() != 16 || s.IsoLevel() != 0.5 {
		t.Errorf("Cells, IsoLevel = %d, %v", s.Cells(), s.IsoLevel())
	}
}
