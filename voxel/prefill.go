// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package voxel

import (
	"encoding/binary"
	"math"
)

// CornerOffsets lists the eight corners of a cell in case-table order.
// Bit i of a marching-cubes case index refers to CornerOffsets[i].
var CornerOffsets = [8][3]int{
	{0, 0, 0},
	{1, 0, 0},
	{1, 1, 0},
	{0, 1, 0},
	{0, 0, 1},
	{1, 0, 1},
	{1, 1, 1},
	{0, 1, 1},
}

// cornerByteOffsets are the record offsets holding corner densities before
// dispatch: triangles[0].a.xyz, triangles[0].b.xyz, triangles[0].c.xy.
var cornerByteOffsets = [8]int{16, 20, 24, 32, 36, 40, 48, 52}

// PutCornerDensities stores the eight corner densities of one cell in a
// record. The compute program reads them back from the same slots before
// overwriting the record with its triangles.
func PutCornerDensities(dst []byte, d [8]float32) {
	for i, off := range cornerByteOffsets {
		binary.LittleEndian.PutUint32(dst[off:], math.Float32bits(d[i]))
	}
}

// CornerDensities reads the eight corner densities written by
// PutCornerDensities.
func CornerDensities(src []byte) [8]float32 {
	var d [8]float32
	for i, off := range cornerByteOffsets {
		d[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[off:]))
	}
	return d
}

// Lattice is a scalar field sampled on the (cells+1)³ grid points.
type Lattice interface {
	Cells() int
	At(x, y, z int) float32
}

// Corners gathers the corner densities of cell (x, y, z) in case-table order.
func Corners(l Lattice, x, y, z int) [8]float32 {
	var d [8]float32
	for i, o := range CornerOffsets {
		d[i] = l.At(x+o[0], y+o[1], z+o[2])
	}
	return d
}

// Prefill builds the initial contents of the output buffer: one zero-count
// record per cell carrying that cell's corner densities. The buffer must fit
// in maxBytes; zero means DefaultMaxBufferSize.
func Prefill(l Lattice, maxBytes uint64) ([]byte, error) {
	cells := l.Cells()
	if err := ValidateCells(cells, maxBytes); err != nil {
		return nil, err
	}
	buf := make([]byte, BufferSize(cells))
	for z := range cells {
		for y := range cells {
			for x := range cells {
				off := CellIndex(cells, x, y, z) * CubeSize
				PutCornerDensities(buf[off:off+CubeSize], Corners(l, x, y, z))
			}
		}
	}
	return buf, nil
}
