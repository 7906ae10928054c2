// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package density provides the seeded scalar fields that drive terrain
// extraction.
//
// A Field maps a point in field space to a density. Positive values are
// solid, negative values are air, and the surface is the iso level between
// them (zero by default). Fields are deterministic: the same seed and the same
// coordinates always give the same value, so they can be sampled from any
// number of goroutines.
package density

import (
	"fmt"
	"strings"
)

// Field is a deterministic scalar field.
type Field interface {
	Sample(x, y, z float64) float64
}

// FieldFunc adapts an ordinary function to the Field interface.
type FieldFunc func(x, y, z float64) float64

// Sample calls f(x, y, z).
func (f FieldFunc) Sample(x, y, z float64) float64 {
	return f(x, y, z)
}

// Kind selects a noise generator.
type Kind int

const (
	// KindPerlin is classic gradient noise (github.com/aquilax/go-perlin).
	KindPerlin Kind = iota
	// KindSimplex is OpenSimplex noise (github.com/ojrac/opensimplex-go).
	KindSimplex
)

// String returns the flag spelling of k.
func (k Kind) String() string {
	switch k {
	case KindPerlin:
		return "perlin"
	case KindSimplex:
		return "simplex"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses a generator name as accepted on the command line.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "perlin":
		return KindPerlin, nil
	case "simplex", "opensimplex":
		return KindSimplex, nil
	default:
		return 0, fmt.Errorf("density: unknown noise kind %q", s)
	}
}

// New returns a noise field of the given kind.
func New(kind Kind, seed int64) (Field, error) {
	switch kind {
	case KindPerlin:
		return NewPerlin(seed), nil
	case KindSimplex:
		return NewSimplex(seed), nil
	default:
		return nil, fmt.Errorf("density: unknown noise kind %v", kind)
	}
}
