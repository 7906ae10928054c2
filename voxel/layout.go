// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package voxel defines the binary record layout shared by the marching-cubes
// compute program and the host.
//
// The device writes one Cube record per grid cell into a storage buffer using
// WGSL storage-buffer alignment, which for these types is identical to std140:
//
//	struct Triangle {            // 48 bytes, align 16
//	    a: vec3<f32>,            // offset  0
//	    b: vec3<f32>,            // offset 16
//	    c: vec3<f32>,            // offset 32
//	}
//	struct Cube {                // 256 bytes, align 16
//	    triangle_count: u32,     // offset  0
//	    triangles: array<Triangle, 5>, // offset 16, stride 48
//	}
//
// All scalars are little-endian. The record layout is the only wire format in
// the system and must stay bit-compatible with shaders/marching_cubes.wgsl.
package voxel

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// MaxTriangles is the triangle capacity of one Cube record. It is fixed by
	// the marching-cubes case table: no configuration of eight corners yields
	// more than five triangles. Widening it requires changing the compute
	// program and this layout together.
	MaxTriangles = 5

	// WorkgroupSize is the local workgroup footprint of the compute program
	// along each axis (@workgroup_size(8, 8, 8)).
	WorkgroupSize = 8

	// vec3Stride is the aligned size of a vec3<f32> inside a struct.
	vec3Stride = 16

	// TriangleSize is the aligned size of one Triangle record in bytes.
	TriangleSize = 3 * vec3Stride

	// trianglesOffset is the byte offset of the triangle array inside a Cube.
	trianglesOffset = 16

	// CubeSize is the aligned size of one Cube record in bytes.
	CubeSize = trianglesOffset + MaxTriangles*TriangleSize

	// DefaultMaxBufferSize mirrors the WebGPU default
	// maxStorageBufferBindingSize (128 MiB).
	DefaultMaxBufferSize = 128 << 20
)

// Layout errors.
var (
	// ErrInvalidResolution is returned for grid resolutions the compute
	// program cannot cover exactly.
	ErrInvalidResolution = errors.New("voxel: invalid grid resolution")

	// ErrCorruptRecord is returned when a record declares more triangles than
	// MaxTriangles.
	ErrCorruptRecord = errors.New("voxel: corrupt cube record")

	// ErrShortBuffer is returned when a byte slice is too small for the
	// records it is supposed to hold.
	ErrShortBuffer = errors.New("voxel: buffer too short")
)

// Triangle is one surface triangle in grid-local space.
type Triangle struct {
	A, B, C [3]float32
}

// Cube is the per-cell output record. Only the first TriangleCount entries of
// Triangles are meaningful.
type Cube struct {
	TriangleCount uint32
	Triangles     [MaxTriangles]Triangle
}

// Valid reports whether TriangleCount is within capacity.
func (c *Cube) Valid() bool {
	return c.TriangleCount <= MaxTriangles
}

// Active returns the meaningful prefix of the triangle array.
// It panics if the record is not Valid.
func (c *Cube) Active() []Triangle {
	return c.Triangles[:c.TriangleCount]
}

// ValidateCells checks that a grid of cells³ can be dispatched with whole
// 8×8×8 workgroups and that its output fits in maxBytes. A maxBytes of zero
// uses DefaultMaxBufferSize.
func ValidateCells(cells int, maxBytes uint64) error {
	if cells <= 0 {
		return fmt.Errorf("%w: %d cells per axis", ErrInvalidResolution, cells)
	}
	if cells%WorkgroupSize != 0 {
		return fmt.Errorf("%w: %d cells per axis is not a multiple of %d",
			ErrInvalidResolution, cells, WorkgroupSize)
	}
	if maxBytes == 0 {
		maxBytes = DefaultMaxBufferSize
	}
	if size := BufferSize(cells); size > maxBytes {
		return fmt.Errorf("%w: %d cells per axis needs %d bytes, limit is %d",
			ErrInvalidResolution, cells, size, maxBytes)
	}
	return nil
}

// CellCount returns cells³.
func CellCount(cells int) int {
	return cells * cells * cells
}

// BufferSize returns the byte size of the output buffer for a cubic grid with
// the given number of cells per axis.
func BufferSize(cells int) uint64 {
	return uint64(CellCount(cells)) * CubeSize
}

// CellIndex returns the linear record index of cell (x, y, z). It matches
// the index computed from global_invocation_id in the compute program.
func CellIndex(cells, x, y, z int) int {
	return x + y*cells + z*cells*cells
}

// WorkgroupCount returns the number of workgroups dispatched along one axis.
func WorkgroupCount(cells int) uint32 {
	return uint32((cells + WorkgroupSize - 1) / WorkgroupSize) //nolint:gosec // cells validated by caller
}

// EncodeCube writes c into dst, which must hold at least CubeSize bytes.
// Unused triangle slots are zeroed.
func EncodeCube(dst []byte, c *Cube) error {
	if len(dst) < CubeSize {
		return fmt.Errorf("%w: %d bytes for one cube", ErrShortBuffer, len(dst))
	}
	if !c.Valid() {
		return fmt.Errorf("%w: triangle_count %d", ErrCorruptRecord, c.TriangleCount)
	}
	clear(dst[:CubeSize])
	binary.LittleEndian.PutUint32(dst[0:], c.TriangleCount)
	for i := uint32(0); i < c.TriangleCount; i++ {
		putTriangle(dst[trianglesOffset+int(i)*TriangleSize:], &c.Triangles[i])
	}
	return nil
}

// DecodeCube reads one record from src. Only the first TriangleCount slots are
// decoded; the remaining slots are left zero. A count above MaxTriangles is
// reported as ErrCorruptRecord and nothing past capacity is read.
func DecodeCube(src []byte, c *Cube) error {
	if len(src) < CubeSize {
		return fmt.Errorf("%w: %d bytes for one cube", ErrShortBuffer, len(src))
	}
	*c = Cube{}
	count := binary.LittleEndian.Uint32(src[0:])
	if count > MaxTriangles {
		return fmt.Errorf("%w: triangle_count %d exceeds capacity %d", ErrCorruptRecord, count, MaxTriangles)
	}
	c.TriangleCount = count
	for i := uint32(0); i < count; i++ {
		getTriangle(src[trianglesOffset+int(i)*TriangleSize:], &c.Triangles[i])
	}
	return nil
}

// ForEachTriangle decodes data as a sequence of Cube records and calls fn for
// every active triangle in cell order, then triangle order. It fails on the
// first corrupt record without calling fn for any of its triangles.
func ForEachTriangle(data []byte, fn func(t *Triangle)) error {
	if len(data)%CubeSize != 0 {
		return fmt.Errorf("%w: %d bytes is not a whole number of %d-byte records",
			ErrShortBuffer, len(data), CubeSize)
	}
	var c Cube
	for off, cell := 0, 0; off < len(data); off, cell = off+CubeSize, cell+1 {
		if err := DecodeCube(data[off:], &c); err != nil {
			return fmt.Errorf("cell %d: %w", cell, err)
		}
		for i := range c.Active() {
			fn(&c.Triangles[i])
		}
	}
	return nil
}

// CountTriangles returns the sum of triangle_count over all records.
func CountTriangles(data []byte) (int, error) {
	n := 0
	err := ForEachTriangle(data, func(*Triangle) { n++ })
	return n, err
}

func putTriangle(dst []byte, t *Triangle) {
	putVec3(dst[0:], t.A)
	putVec3(dst[vec3Stride:], t.B)
	putVec3(dst[2*vec3Stride:], t.C)
}

func getTriangle(src []byte, t *Triangle) {
	t.A = getVec3(src[0:])
	t.B = getVec3(src[vec3Stride:])
	t.C = getVec3(src[2*vec3Stride:])
}

func putVec3(dst []byte, v [3]float32) {
	for i, f := range v {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}

func getVec3(src []byte) [3]float32 {
	return [3]float32{
		math.Float32frombits(binary.LittleEndian.Uint32(src[0:])),
		math.Float32frombits(binary.LittleEndian.Uint32(src[4:])),
		math.Float32frombits(binary.LittleEndian.Uint32(src[8:])),
	}
}
