// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package density

import (
	"github.com/aquilax/go-perlin"
)

// Default Perlin parameters.
const (
	DefaultAlpha   = 2.0
	DefaultBeta    = 2.0
	DefaultOctaves = 3
)

// Perlin is a seeded fractal Perlin noise field with values roughly in [-1, 1].
type Perlin struct {
	noise *perlin.Perlin
}

type perlinOptions struct {
	alpha   float64
	beta    float64
	octaves int32
}

// PerlinOption configures NewPerlin.
type PerlinOption func(*perlinOptions)

// WithAlpha sets the weight falloff between octaves.
func WithAlpha(alpha float64) PerlinOption {
	return func(o *perlinOptions) { o.alpha = alpha }
}

// WithBeta sets the frequency multiplier between octaves.
func WithBeta(beta float64) PerlinOption {
	return func(o *perlinOptions) { o.beta = beta }
}

// WithOctaves sets the number of octaves summed. Values below 1 are ignored.
func WithOctaves(n int) PerlinOption {
	return func(o *perlinOptions) {
		if n >= 1 {
			o.octaves = int32(n) //nolint:gosec // small octave counts
		}
	}
}

// NewPerlin returns a Perlin field for seed.
func NewPerlin(seed int64, opts ...PerlinOption) *Perlin {
	o := perlinOptions{alpha: DefaultAlpha, beta: DefaultBeta, octaves: DefaultOctaves}
	for _, opt := range opts {
		opt(&o)
	}
	return &Perlin{
		noise: perlin.NewPerlin(o.alpha, o.beta, o.octaves, seed),
	}
}

// Sample implements Field.
func (p *Perlin) Sample(x, y, z float64) float64 {
	return p.noise.Noise3D(x, y, z)
}
