// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package voxel

import (
	"encoding/binary"
	"errors"
	"math/rand"
	"testing"
)

func TestRecordSizes(t *testing.T) {
	if TriangleSize != 48 {
		t.Errorf("TriangleSize = %d, want 48", TriangleSize)
	}
	if CubeSize != 256 {
		t.Errorf("CubeSize = %d, want 256", CubeSize)
	}
}

func TestBufferSize(t *testing.T) {
	tests := []struct {
		cells int
		want  uint64
	}{
		{1, 256},
		{8, 8 * 8 * 8 * 256},
		{64, 64 * 64 * 64 * 256},
	}
	for _, tt := range tests {
		if got := BufferSize(tt.cells); got != tt.want {
			t.Errorf("BufferSize(%d) = %d, want %d", tt.cells, got, tt.want)
		}
		if got := BufferSize(tt.cells); got != uint64(tt.cells*tt.cells*tt.cells)*CubeSize {
			t.Errorf("BufferSize(%d) = %d, not cells³ × CubeSize", tt.cells, got)
		}
	}
}

func TestValidateCells(t *testing.T) {
	tests := []struct {
		name  string
		cells int
		max   uint64
		ok    bool
	}{
		{"zero", 0, 0, false},
		{"negative", -8, 0, false},
		{"not multiple of 8", 12, 0, false},
		{"one", 1, 0, false},
		{"eight", 8, 0, true},
		{"sixty four", 64, 0, true},
		{"over default limit", 128, 0, false},
		{"over custom limit", 16, 1024, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCells(tt.cells, tt.max)
			if tt.ok && err != nil {
				t.Fatalf("ValidateCells(%d) = %v, want nil", tt.cells, err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidResolution) {
				t.Fatalf("ValidateCells(%d) = %v, want ErrInvalidResolution", tt.cells, err)
			}
		})
	}
}

func TestWorkgroupCount(t *testing.T) {
	for cells, want := range map[int]uint32{8: 1, 16: 2, 64: 8, 9: 2} {
		if got := WorkgroupCount(cells); got != want {
			t.Errorf("WorkgroupCount(%d) = %d, want %d", cells, got, want)
		}
	}
}

func TestCellIndex(t *testing.T) {
	if got := CellIndex(8, 1, 2, 3); got != 1+2*8+3*64 {
		t.Errorf("CellIndex = %d", got)
	}
	if got := CellIndex(8, 7, 7, 7); got != CellCount(8)-1 {
		t.Errorf("last CellIndex = %d, want %d", got, CellCount(8)-1)
	}
}

func randomTriangle(r *rand.Rand) Triangle {
	var tri Triangle
	for i := range 3 {
		tri.A[i] = r.Float32()*128 - 64
		tri.B[i] = r.Float32()*128 - 64
		tri.C[i] = r.Float32()*128 - 64
	}
	return tri
}

func TestCubeRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	buf := make([]byte, CubeSize)
	for count := uint32(0); count <= MaxTriangles; count++ {
		in := Cube{TriangleCount: count}
		for i := range in.Triangles {
			in.Triangles[i] = randomTriangle(r)
		}
		if err := EncodeCube(buf, &in); err != nil {
			t.Fatalf("EncodeCube(count=%d): %v", count, err)
		}
		var out Cube
		if err := DecodeCube(buf, &out); err != nil {
			t.Fatalf("DecodeCube(count=%d): %v", count, err)
		}
		if out.TriangleCount != count {
			t.Fatalf("TriangleCount = %d, want %d", out.TriangleCount, count)
		}
		for i := range count {
			if out.Triangles[i] != in.Triangles[i] {
				t.Errorf("count=%d slot %d: got %v, want %v", count, i, out.Triangles[i], in.Triangles[i])
			}
		}
	}
}

func TestEncodeLayoutOffsets(t *testing.T) {
	in := Cube{TriangleCount: 2}
	in.Triangles[1] = Triangle{A: [3]float32{1, 2, 3}, B: [3]float32{4, 5, 6}, C: [3]float32{7, 8, 9}}
	buf := make([]byte, CubeSize)
	if err := EncodeCube(buf, &in); err != nil {
		t.Fatal(err)
	}
	if got := binary.LittleEndian.Uint32(buf[0:]); got != 2 {
		t.Errorf("triangle_count word = %d, want 2", got)
	}
	// Triangle 1 starts at 16 + 48; b and c start 16 and 32 bytes later.
	vec := getVec3(buf[64+16:])
	if vec != [3]float32{4, 5, 6} {
		t.Errorf("triangles[1].b = %v, want [4 5 6]", vec)
	}
	vec = getVec3(buf[64+32:])
	if vec != [3]float32{7, 8, 9} {
		t.Errorf("triangles[1].c = %v, want [7 8 9]", vec)
	}
}

func TestDecodeCorruptCount(t *testing.T) {
	buf := make([]byte, CubeSize)
	binary.LittleEndian.PutUint32(buf, MaxTriangles+1)
	var c Cube
	if err := DecodeCube(buf, &c); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("DecodeCube = %v, want ErrCorruptRecord", err)
	}
	if c.TriangleCount != 0 {
		t.Errorf("corrupt record leaked TriangleCount %d", c.TriangleCount)
	}
}

func TestEncodeRejectsOverflow(t *testing.T) {
	c := Cube{TriangleCount: 6}
	if err := EncodeCube(make([]byte, CubeSize), &c); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("EncodeCube = %v, want ErrCorruptRecord", err)
	}
}

func TestShortBuffers(t *testing.T) {
	var c Cube
	if err := DecodeCube(make([]byte, CubeSize-1), &c); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("DecodeCube short = %v", err)
	}
	if err := EncodeCube(make([]byte, 10), &c); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("EncodeCube short = %v", err)
	}
	if err := ForEachTriangle(make([]byte, CubeSize+1), func(*Triangle) {}); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("ForEachTriangle ragged = %v", err)
	}
}

func TestForEachTriangleOrder(t *testing.T) {
	data := make([]byte, 3*CubeSize)
	mk := func(v float32) Triangle { return Triangle{A: [3]float32{v, 0, 0}} }
	cubes := []Cube{
		{TriangleCount: 2, Triangles: [MaxTriangles]Triangle{mk(1), mk(2), mk(99)}},
		{TriangleCount: 0, Triangles: [MaxTriangles]Triangle{mk(98)}},
		{TriangleCount: 1, Triangles: [MaxTriangles]Triangle{mk(3)}},
	}
	for i := range cubes {
		if err := EncodeCube(data[i*CubeSize:], &cubes[i]); err != nil {
			t.Fatal(err)
		}
	}
	var got []float32
	if err := ForEachTriangle(data, func(tri *Triangle) { got = append(got, tri.A[0]) }); err != nil {
		t.Fatal(err)
	}
	want := []float32{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	n, err := CountTriangles(data)
	if err != nil || n != 3 {
		t.Errorf("CountTriangles = %d, %v; want 3", n, err)
	}
}

func TestForEachTriangleStopsAtCorruptRecord(t *testing.T) {
	data := make([]byte, 2*CubeSize)
	binary.LittleEndian.PutUint32(data[CubeSize:], 9)
	calls := 0
	err := ForEachTriangle(data, func(*Triangle) { calls++ })
	if !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("err = %v, want ErrCorruptRecord", err)
	}
	if calls != 0 {
		t.Errorf("fn called %d times", calls)
	}
}
