// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package terrain generates voxel terrain meshes with a marching-cubes
// compute pass.
//
// # Overview
//
// One generation runs in four stages:
//
//   - a seeded density field is sampled on the corner lattice of a cubic grid
//     (package density);
//   - a Backend runs marching cubes over every cell and writes one fixed-size
//     record per cell (package voxel describes the records);
//   - the records come back through an asynchronous Readback that the host
//     polls without blocking;
//   - Assemble flattens the records into a Mesh that is handed to a Scene.
//
// # Quick Start
//
//	var backend terrain.Backend
//	if b, err := gpu.New(gpu.Config{}); err == nil {
//	    backend = b
//	} else {
//	    backend = terrain.NewCPUBackend(0)
//	}
//	defer backend.Close()
//
//	field := density.Ground{Field: density.NewPerlin(5225), BaseHeight: 2}
//	scene := &terrain.Collector{}
//	s, err := terrain.NewSession(backend, field, scene, terrain.WithCells(64))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mesh, err := s.Generate(ctx, 16*time.Millisecond)
//
// Hosts with their own frame loop call Session.Start once and then
// Session.Poll every frame until it reports true, followed by
// Session.TakeResult.
//
// # Coordinate System
//
// Mesh positions are in grid units, one unit per cell, with the grid's
// minimum corner at the origin. Mesh.Transform translates the grid so that
// its center sits at the world origin. Normals point from solid towards air.
package terrain
