// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package terrain

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/terrain/voxel"
)

// degenerateArea is the cross-product length below which a triangle has no
// usable orientation.
const degenerateArea = 1e-12

// DegenerateNormal is used for triangles with no area.
var DegenerateNormal = mgl32.Vec3{0, 1, 0}

// Mesh is a flat-shaded triangle mesh.
//
// Vertices are not shared: triangle i owns vertices 3i, 3i+1 and 3i+2, and
// Indices is the identity mapping. Every vertex of a triangle carries the
// triangle's face normal. UVs are all zero.
type Mesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Indices   []uint32

	// Transform places the mesh in the scene.
	Transform mgl32.Mat4
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Positions) }

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// Translation returns the translation part of Transform.
func (m *Mesh) Translation() mgl32.Vec3 { return m.Transform.Col(3).Vec3() }

// Bounds returns the axis-aligned bounds of the positions in mesh space.
// An empty mesh has zero bounds.
func (m *Mesh) Bounds() (lo, hi mgl32.Vec3) {
	if len(m.Positions) == 0 {
		return lo, hi
	}
	lo, hi = m.Positions[0], m.Positions[0]
	for _, p := range m.Positions[1:] {
		for k := range 3 {
			lo[k] = min(lo[k], p[k])
			hi[k] = max(hi[k], p[k])
		}
	}
	return lo, hi
}

// FlatNormal returns normalize((b-a) × (c-a)), or DegenerateNormal when the
// triangle has no area.
func FlatNormal(a, b, c mgl32.Vec3) mgl32.Vec3 {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Len() < degenerateArea {
		return DegenerateNormal
	}
	return n.Normalize()
}

// CenterTransform returns the placement that moves a grid of cells³ cells so
// its center sits at the origin.
func CenterTransform(cells int) mgl32.Mat4 {
	h := -float32(cells) / 2
	return mgl32.Translate3D(h, h, h)
}

// Assemble flattens the mapped output of a generation into a Mesh.
//
// data must hold exactly cells³ records. Records are visited in cell order
// and their triangles in slot order; only the first triangle_count slots of
// each record are read. A record claiming more than voxel.MaxTriangles
// triangles rejects the whole buffer with ErrCorruptRecord.
func Assemble(data []byte, cells int) (*Mesh, error) {
	if cells <= 0 {
		return nil, fmt.Errorf("%w: %d cells per axis", ErrInvalidResolution, cells)
	}
	if want := voxel.BufferSize(cells); uint64(len(data)) != want {
		return nil, fmt.Errorf("%w: readback is %d bytes, grid needs %d",
			voxel.ErrShortBuffer, len(data), want)
	}

	n, err := voxel.CountTriangles(data)
	if err != nil {
		return nil, err
	}

	m := &Mesh{
		Positions: make([]mgl32.Vec3, 0, 3*n),
		Normals:   make([]mgl32.Vec3, 0, 3*n),
		UVs:       make([]mgl32.Vec2, 3*n),
		Indices:   make([]uint32, 3*n),
		Transform: CenterTransform(cells),
	}
	for i := range m.Indices {
		m.Indices[i] = uint32(i) //nolint:gosec // vertex count bounded by buffer size
	}
	err = voxel.ForEachTriangle(data, func(t *voxel.Triangle) {
		a, b, c := mgl32.Vec3(t.A), mgl32.Vec3(t.B), mgl32.Vec3(t.C)
		normal := FlatNormal(a, b, c)
		m.Positions = append(m.Positions, a, b, c)
		m.Normals = append(m.Normals, normal, normal, normal)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
