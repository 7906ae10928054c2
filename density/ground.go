// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package density

// Ground turns a noise field into a height-field-like terrain: density falls
// off linearly with height so that points well below BaseHeight are solid and
// points well above it are air, with the noise carving overhangs and caves
// near the surface.
//
// All quantities are in field space (grid coordinates times the sampling
// frequency).
type Ground struct {
	Field Field

	// BaseHeight is the y at which the gradient term is zero.
	BaseHeight float64

	// Strength is the height over which the gradient term changes by one
	// noise amplitude. Zero means 1.
	Strength float64
}

// Sample implements Field.
func (g Ground) Sample(x, y, z float64) float64 {
	s := g.Strength
	if s == 0 {
		s = 1
	}
	d := (g.BaseHeight - y) / s
	if g.Field != nil {
		d += g.Field.Sample(x, y, z)
	}
	return d
}
