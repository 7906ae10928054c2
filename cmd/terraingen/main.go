// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command terraingen generates one terrain mesh and reports on it.
//
// It samples a noise field on a cubic grid, runs marching cubes on the GPU
// (or on the CPU when no device is available), and optionally writes a
// density slice through the middle of the grid as PNG.
//
//	terraingen -cells 64 -seed 5225 -preview slice.png
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/terrain"
	"github.com/gogpu/terrain/density"
	"github.com/gogpu/terrain/gpu"
)

func main() {
	var (
		cells       = flag.Int("cells", terrain.DefaultCells, "cells per grid axis (multiple of 8)")
		seed        = flag.Int64("seed", 5225, "noise seed")
		noise       = flag.String("noise", "perlin", "noise kind: perlin or simplex")
		backendName = flag.String("backend", "auto", "compute backend: auto, gpu or cpu")
		iso         = flag.Float64("iso", terrain.DefaultIsoLevel, "surface density")
		freq        = flag.Float64("freq", terrain.DefaultFrequency, "grid-to-field scale")
		spirv       = flag.Bool("spirv", false, "precompile the compute program to SPIR-V")
		previewPath = flag.String("preview", "", "write a density slice as PNG")
		previewSize = flag.Int("preview-size", 512, "preview edge length in pixels")
		tick        = flag.Duration("tick", 2*time.Millisecond, "readback poll interval")
		timeout     = flag.Duration("timeout", 30*time.Second, "generation timeout")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	terrain.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	kind, err := density.ParseKind(*noise)
	if err != nil {
		log.Fatal(err)
	}
	base, err := density.New(kind, *seed)
	if err != nil {
		log.Fatal(err)
	}
	field := density.Ground{
		Field:      base,
		BaseHeight: float64(*cells) * *freq / 2,
	}

	backend, err := openBackend(*backendName, gpu.Config{PrecompileSPIRV: *spirv})
	if err != nil {
		log.Fatal(err)
	}
	defer backend.Close()

	var scene terrain.Collector
	session, err := terrain.NewSession(backend, field, &scene,
		terrain.WithCells(*cells),
		terrain.WithIsoLevel(float32(*iso)),
		terrain.WithFrequency(*freq))
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	start := time.Now()
	mesh, err := session.Generate(ctx, *tick)
	if err != nil {
		log.Fatalf("generate: %v", err)
	}
	elapsed := time.Since(start)

	printStats(message.NewPrinter(language.English), backend.Name(), kind, *cells, mesh, elapsed)

	if *previewPath != "" {
		img := densitySlice(field, *cells, *freq, *cells/2)
		if err := writePreview(*previewPath, img, *previewSize); err != nil {
			log.Fatalf("write preview: %v", err)
		}
	}
}

// openBackend returns the requested backend. "auto" tries the GPU first and
// falls back to the CPU.
func openBackend(name string, cfg gpu.Config) (terrain.Backend, error) {
	switch name {
	case "cpu":
		return terrain.NewCPUBackend(0), nil
	case "gpu":
		return gpu.New(cfg)
	case "auto":
		b, err := gpu.New(cfg)
		if err != nil {
			terrain.Logger().Warn("GPU unavailable, using CPU backend", "err", err)
			return terrain.NewCPUBackend(0), nil
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown backend %q", name)
}

func printStats(p *message.Printer, backend string, kind density.Kind, cells int, m *terrain.Mesh, elapsed time.Duration) {
	lo, hi := m.Bounds()
	p.Printf("backend:    %s\n", backend)
	p.Printf("noise:      %s\n", kind)
	p.Printf("grid:       %d³ cells\n", cells)
	p.Printf("triangles:  %d\n", m.TriangleCount())
	p.Printf("vertices:   %d\n", m.VertexCount())
	p.Printf("bounds:     (%.2f, %.2f, %.2f) to (%.2f, %.2f, %.2f)\n", lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
	p.Printf("elapsed:    %v\n", elapsed.Round(time.Microsecond))
}
