// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package density

// Lattice is a field sampled on the (cells+1)³ corner points of a cubic grid.
// It satisfies voxel.Lattice.
type Lattice struct {
	cells  int
	values []float32
}

// SampleLattice samples f at every grid point (i, j, k) scaled by frequency,
// for 0 <= i, j, k <= cells. Negative cells are treated as zero.
func SampleLattice(f Field, cells int, frequency float64) *Lattice {
	cells = max(cells, 0)
	n := cells + 1
	l := &Lattice{cells: cells, values: make([]float32, n*n*n)}
	i := 0
	for z := range n {
		for y := range n {
			for x := range n {
				l.values[i] = float32(f.Sample(float64(x)*frequency, float64(y)*frequency, float64(z)*frequency))
				i++
			}
		}
	}
	return l
}

// Cells returns the number of cells per axis.
func (l *Lattice) Cells() int { return l.cells }

// At returns the density at grid point (x, y, z).
func (l *Lattice) At(x, y, z int) float32 {
	n := l.cells + 1
	return l.values[x+y*n+z*n*n]
}

// Range returns the smallest and largest sampled densities.
func (l *Lattice) Range() (lo, hi float32) {
	if len(l.values) == 0 {
		return 0, 0
	}
	lo, hi = l.values[0], l.values[0]
	for _, v := range l.values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}
