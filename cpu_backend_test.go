// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package terrain

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/gogpu/terrain/density"
	"github.com/gogpu/terrain/internal/mc"
	"github.com/gogpu/terrain/voxel"
)

func waitMapped(t *testing.T, rb Readback) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		ready, err := rb.Poll()
		if err != nil {
			t.Fatal(err)
		}
		if ready {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("readback never mapped")
		}
		time.Sleep(time.Millisecond)
	}
}

func sphereRequest(cells int) DispatchRequest {
	return DispatchRequest{
		Cells:   cells,
		Density: density.SampleLattice(density.FieldFunc(sphereField), cells, 1),
	}
}

func TestCPUBackendMatchesKernel(t *testing.T) {
	b := NewCPUBackend(3)
	defer b.Close()

	req := sphereRequest(16)
	rb, err := b.Dispatch(req)
	if err != nil {
		t.Fatal(err)
	}
	waitMapped(t, rb)
	got, err := rb.MappedRange()
	if err != nil {
		t.Fatal(err)
	}

	want, err := voxel.Prefill(req.Density, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := mc.Fill(want, 16, 0, 0, 16); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatal("parallel output differs from sequential kernel")
	}
	if err := rb.Unmap(); err != nil {
		t.Fatal(err)
	}
}

func TestCPUBackendSeededDeterminism(t *testing.T) {
	b := NewCPUBackend(4)
	defer b.Close()

	const cells = 32
	var outputs [][]byte
	for range 2 {
		field := density.NewPerlin(5225)
		rb, err := b.Dispatch(DispatchRequest{
			Cells:   cells,
			Density: density.SampleLattice(field, cells, DefaultFrequency),
		})
		if err != nil {
			t.Fatal(err)
		}
		waitMapped(t, rb)
		data, err := rb.MappedRange()
		if err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, bytes.Clone(data))
		if err := rb.Unmap(); err != nil {
			t.Fatal(err)
		}
	}
	if !bytes.Equal(outputs[0], outputs[1]) {
		t.Fatal("same seed and resolution produced different buffers")
	}
	if n, err := voxel.CountTriangles(outputs[0]); err != nil || n == 0 {
		t.Errorf("CountTriangles = %d, %v; want a non-empty surface", n, err)
	}
}

func TestCPUBackendWorkerCountIndependent(t *testing.T) {
	var outputs [][]byte
	for _, workers := range []int{1, 2, 7} {
		b := NewCPUBackend(workers)
		rb, err := b.Dispatch(sphereRequest(16))
		if err != nil {
			t.Fatal(err)
		}
		waitMapped(t, rb)
		data, _ := rb.MappedRange()
		outputs = append(outputs, bytes.Clone(data))
		_ = rb.Unmap()
		b.Close()
	}
	for i := 1; i < len(outputs); i++ {
		if !bytes.Equal(outputs[0], outputs[i]) {
			t.Errorf("output %d differs", i)
		}
	}
}

func TestCPUReadbackStates(t *testing.T) {
	b := NewCPUBackend(2)
	defer b.Close()

	rb, err := b.Dispatch(sphereRequest(8))
	if err != nil {
		t.Fatal(err)
	}
	waitMapped(t, rb)
	if ready, err := rb.Poll(); !ready || err != nil {
		t.Errorf("mapped Poll = %v, %v", ready, err)
	}
	if err := rb.Unmap(); err != nil {
		t.Fatalf("Unmap = %v", err)
	}
	if err := rb.Unmap(); !errors.Is(err, ErrNotMapped) {
		t.Errorf("second Unmap = %v, want ErrNotMapped", err)
	}
	if _, err := rb.MappedRange(); !errors.Is(err, ErrNotMapped) {
		t.Errorf("MappedRange after Unmap = %v, want ErrNotMapped", err)
	}
	if _, err := rb.Poll(); !errors.Is(err, ErrNotMapped) {
		t.Errorf("Poll after Unmap = %v, want ErrNotMapped", err)
	}
}

func TestCPUBackendRejects(t *testing.T) {
	b := NewCPUBackend(1)
	defer b.Close()

	if _, err := b.Dispatch(DispatchRequest{Cells: 8}); err == nil {
		t.Error("nil density accepted")
	}
	req := sphereRequest(8)
	req.Cells = 16
	if _, err := b.Dispatch(req); !errors.Is(err, ErrInvalidResolution) {
		t.Errorf("mismatched lattice: %v", err)
	}
	req = DispatchRequest{Cells: 12, Density: density.SampleLattice(density.FieldFunc(flatField), 12, 1)}
	if _, err := b.Dispatch(req); !errors.Is(err, ErrInvalidResolution) {
		t.Errorf("12 cells: %v", err)
	}
}

func TestCPUBackendClosed(t *testing.T) {
	b := NewCPUBackend(2)
	if b.Name() != "cpu" {
		t.Errorf("Name = %q", b.Name())
	}
	if b.Workers() != 2 {
		t.Errorf("Workers = %d", b.Workers())
	}
	b.Close()
	if _, err := b.Dispatch(sphereRequest(8)); !errors.Is(err, ErrClosed) {
		t.Errorf("Dispatch after Close = %v, want ErrClosed", err)
	}
}
