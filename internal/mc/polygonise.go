// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package mc is the host-side marching-cubes kernel. It computes exactly what
// shaders/marching_cubes.wgsl computes for one cell and is used by the CPU
// backend and by tests that check device output against the host.
package mc

import (
	"math"

	"github.com/gogpu/terrain/voxel"
)

// interpEpsilon is the smallest density difference along an edge that is
// interpolated. Flatter edges place the vertex at the midpoint.
const interpEpsilon = 1e-6

// CaseIndex returns the 8-bit configuration of a cell: bit i is set when
// corner i lies below the iso level.
func CaseIndex(d [8]float32, iso float32) uint8 {
	var idx uint8
	for i, v := range d {
		if v < iso {
			idx |= 1 << i
		}
	}
	return idx
}

// TriangleCount returns the number of triangles emitted for a case.
func TriangleCount(idx uint8) int {
	n := 0
	for n < 15 && triTable[idx][n] >= 0 {
		n++
	}
	return n / 3
}

// Edges returns the edge list of a case, three entries per triangle.
func Edges(idx uint8) []int8 {
	row := triTable[idx]
	return row[:TriangleCount(idx)*3]
}

// EdgeCorners returns the two corner indices joined by edge e.
func EdgeCorners(e int) (int, int) {
	return edgeCorners[e][0], edgeCorners[e][1]
}

// Polygonise triangulates the cell whose minimum corner sits at origin and
// stores the result in c. Vertices are in grid-local space, one unit per cell.
func Polygonise(origin [3]float32, d [8]float32, iso float32, c *voxel.Cube) {
	*c = voxel.Cube{}
	idx := CaseIndex(d, iso)
	if idx == 0 || idx == 0xff {
		return
	}

	var verts [12][3]float32
	var have uint16
	vertex := func(e int8) [3]float32 {
		if have&(1<<e) == 0 {
			verts[e] = edgeVertex(origin, d, iso, int(e))
			have |= 1 << e
		}
		return verts[e]
	}

	edges := Edges(idx)
	for i := 0; i < len(edges); i += 3 {
		c.Triangles[c.TriangleCount] = voxel.Triangle{
			A: vertex(edges[i]),
			B: vertex(edges[i+1]),
			C: vertex(edges[i+2]),
		}
		c.TriangleCount++
	}
}

func edgeVertex(origin [3]float32, d [8]float32, iso float32, e int) [3]float32 {
	a, b := EdgeCorners(e)
	t := Interpolant(d[a], d[b], iso)
	pa, pb := voxel.CornerOffsets[a], voxel.CornerOffsets[b]
	var p [3]float32
	for k := range 3 {
		p[k] = origin[k] + float32(pa[k]) + t*float32(pb[k]-pa[k])
	}
	return p
}

// Interpolant returns where the iso level crosses the edge from d0 to d1,
// as a fraction of the edge length in [0, 1].
func Interpolant(d0, d1, iso float32) float32 {
	diff := d1 - d0
	if float32(math.Abs(float64(diff))) < interpEpsilon {
		return 0.5
	}
	t := (iso - d0) / diff
	return min(max(t, 0), 1)
}

// Fill runs the kernel over the z-slab [z0, z1) of a prefilled output buffer.
// Each record's corner densities are read and the record is overwritten with
// its triangles, as the compute program does.
func Fill(buf []byte, cells int, iso float32, z0, z1 int) error {
	var c voxel.Cube
	for z := z0; z < z1; z++ {
		for y := range cells {
			for x := range cells {
				off := voxel.CellIndex(cells, x, y, z) * voxel.CubeSize
				rec := buf[off : off+voxel.CubeSize]
				d := voxel.CornerDensities(rec)
				Polygonise([3]float32{float32(x), float32(y), float32(z)}, d, iso, &c)
				if err := voxel.EncodeCube(rec, &c); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
