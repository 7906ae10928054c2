// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package terrain

import "sync"

// Scene receives finished meshes. It stands for whatever renders or stores
// them; terrain only ever adds.
type Scene interface {
	AddMesh(m *Mesh)
}

// SceneFunc adapts a function to the Scene interface.
type SceneFunc func(m *Mesh)

// AddMesh calls f(m).
func (f SceneFunc) AddMesh(m *Mesh) { f(m) }

// Collector is a Scene that keeps every mesh it receives.
// The zero value is ready to use and safe for concurrent use.
type Collector struct {
	mu     sync.Mutex
	meshes []*Mesh
}

// AddMesh implements Scene.
func (c *Collector) AddMesh(m *Mesh) {
	c.mu.Lock()
	c.meshes = append(c.meshes, m)
	c.mu.Unlock()
}

// Len returns the number of meshes received.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.meshes)
}

// Meshes returns a copy of the received meshes in arrival order.
func (c *Collector) Meshes() []*Mesh {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Mesh, len(c.meshes))
	copy(out, c.meshes)
	return out
}

// Last returns the most recent mesh, or nil.
func (c *Collector) Last() *Mesh {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.meshes) == 0 {
		return nil
	}
	return c.meshes[len(c.meshes)-1]
}
