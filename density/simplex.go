// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package density

import (
	"github.com/ojrac/opensimplex-go"
)

// Simplex is a seeded OpenSimplex noise field with values in [-1, 1].
type Simplex struct {
	noise opensimplex.Noise
}

// NewSimplex returns an OpenSimplex field for seed.
func NewSimplex(seed int64) *Simplex {
	return &Simplex{noise: opensimplex.New(seed)}
}

// Sample implements Field.
func (s *Simplex) Sample(x, y, z float64) float64 {
	return s.noise.Eval3(x, y, z)
}
