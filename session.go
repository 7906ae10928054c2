// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package terrain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/terrain/density"
	"github.com/gogpu/terrain/voxel"
)

// State is the phase of a Session's single generation slot.
type State int

const (
	// StateIdle means no generation is outstanding.
	StateIdle State = iota
	// StateDispatched means work was submitted and the readback is pending.
	StateDispatched
	// StateReady means the readback is mapped and waiting for TakeResult.
	StateReady
)

// String returns the name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateDispatched:
		return "Dispatched"
	case StateReady:
		return "Ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session drives generations on one backend, one at a time.
//
// The lifecycle is Idle → Dispatched → Ready → Idle:
//
//	s.Start()               // Idle → Dispatched
//	for {
//	    ready, err := s.Poll() // Dispatched → Ready once mapped
//	    ...
//	}
//	mesh, err := s.TakeResult() // Ready → Idle
//
// Nothing blocks except Generate. A generation cannot be cancelled; Start
// while one is outstanding returns ErrGenerationInProgress. Session is safe
// for concurrent use, though calls are serialized.
type Session struct {
	mu sync.Mutex

	backend Backend
	field   density.Field
	scene   Scene
	opts    options

	state      State
	readback   Readback
	generation uint64
	started    time.Time
}

// NewSession returns an idle session. scene may be nil, in which case meshes
// are only returned from TakeResult.
func NewSession(backend Backend, field density.Field, scene Scene, opts ...Option) (*Session, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: nil backend", ErrDeviceUnavailable)
	}
	if field == nil {
		return nil, errors.New("terrain: nil density field")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := voxel.ValidateCells(o.cells, bufferLimit(backend)); err != nil {
		return nil, err
	}
	propagateLogger(backend, Logger())
	return &Session{
		backend: backend,
		field:   field,
		scene:   scene,
		opts:    o,
	}, nil
}

// Cells returns the grid resolution per axis.
func (s *Session) Cells() int { return s.opts.cells }

// IsoLevel returns the surface density.
func (s *Session) IsoLevel() float32 { return s.opts.iso }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start samples the density field and dispatches a generation. It returns
// ErrGenerationInProgress unless the session is idle. On error the session
// stays idle.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked()
}

func (s *Session) startLocked() error {
	if s.state != StateIdle {
		return fmt.Errorf("%w (state %s)", ErrGenerationInProgress, s.state)
	}

	lattice := density.SampleLattice(s.field, s.opts.cells, s.opts.frequency)
	rb, err := s.backend.Dispatch(DispatchRequest{
		Cells:    s.opts.cells,
		IsoLevel: s.opts.iso,
		Density:  lattice,
	})
	if err != nil {
		return fmt.Errorf("terrain: %s dispatch: %w", s.backend.Name(), err)
	}

	s.generation++
	s.readback = rb
	s.state = StateDispatched
	s.started = time.Now()
	lo, hi := lattice.Range()
	Logger().Debug("terrain generation dispatched",
		"generation", s.generation,
		"backend", s.backend.Name(),
		"cells", s.opts.cells,
		"density_min", lo,
		"density_max", hi)
	return nil
}

// Poll checks the outstanding generation without blocking and reports
// whether a result is ready. It returns false with no error while idle or
// while the backend is still working. A failed readback returns the session
// to idle and reports an error wrapping ErrMapFailed.
func (s *Session) Poll() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pollLocked()
}

func (s *Session) pollLocked() (bool, error) {
	switch s.state {
	case StateIdle:
		return false, nil
	case StateReady:
		return true, nil
	}

	ready, err := s.readback.Poll()
	if err != nil {
		s.readback = nil
		s.state = StateIdle
		Logger().Warn("terrain generation failed",
			"generation", s.generation,
			"backend", s.backend.Name(),
			"err", err)
		if !errors.Is(err, ErrMapFailed) {
			err = fmt.Errorf("%w: %w", ErrMapFailed, err)
		}
		return false, err
	}
	if ready {
		s.state = StateReady
	}
	return ready, nil
}

// TakeResult assembles the mapped generation into a mesh, unmaps the
// readback and returns to idle. The mesh is also added to the scene. It
// returns ErrNoResult unless Poll has reported a result. A corrupt buffer
// yields ErrCorruptRecord and no mesh; the session returns to idle either
// way.
func (s *Session) TakeResult() (*Mesh, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.takeLocked()
}

func (s *Session) takeLocked() (*Mesh, error) {
	if s.state != StateReady {
		return nil, fmt.Errorf("%w (state %s)", ErrNoResult, s.state)
	}
	rb := s.readback
	s.readback = nil
	s.state = StateIdle

	var mesh *Mesh
	data, err := rb.MappedRange()
	if err == nil {
		mesh, err = Assemble(data, s.opts.cells)
	}
	if uerr := rb.Unmap(); uerr != nil {
		Logger().Warn("terrain readback unmap failed", "generation", s.generation, "err", uerr)
	}
	if err != nil {
		return nil, fmt.Errorf("terrain: generation %d: %w", s.generation, err)
	}

	Logger().Info("terrain generated",
		"generation", s.generation,
		"backend", s.backend.Name(),
		"cells", s.opts.cells,
		"triangles", mesh.TriangleCount(),
		"elapsed", time.Since(s.started))
	if s.scene != nil {
		s.scene.AddMesh(mesh)
	}
	return mesh, nil
}

// Generate runs one generation to completion, polling every interval.
// If a generation is already outstanding it is resumed rather than
// restarted. When ctx ends first, Generate returns ctx.Err() and the
// generation keeps running; a later Poll or Generate picks it up.
func (s *Session) Generate(ctx context.Context, interval time.Duration) (*Mesh, error) {
	if interval <= 0 {
		interval = time.Millisecond
	}

	s.mu.Lock()
	if s.state == StateIdle {
		if err := s.startLocked(); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	gen := s.generation
	s.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		s.mu.Lock()
		if s.generation != gen || s.state == StateIdle {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: generation %d was taken by another caller", ErrNoResult, gen)
		}
		ready, err := s.pollLocked()
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		if ready {
			mesh, err := s.takeLocked()
			s.mu.Unlock()
			return mesh, err
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
