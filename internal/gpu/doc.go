// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gpu drives the marching-cubes compute program on a wgpu HAL
// device.
//
// A Dispatcher owns the program and its layouts and records one compute
// pass per generation: upload the prefilled record buffer, dispatch
// (cells/8)³ workgroups, copy the records into a staging buffer and submit.
// The StagingBuffer it returns is the host side of that
// generation and is polled, never waited on, by the frame loop.
//
// The program is specialized per grid size and iso level by substituting
// constants into shaders/marching_cubes.wgsl, and can be precompiled to
// SPIR-V with naga.
package gpu
