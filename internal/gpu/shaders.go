// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	_ "embed"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/naga"
)

//go:embed shaders/marching_cubes.wgsl
var marchingCubesTemplate string

// marchingCubesEntryPoint is the compute entry point of the program.
const marchingCubesEntryPoint = "main"

// MarchingCubesSource returns the compute program specialized for a grid of
// cells³ cells and the given iso level.
func MarchingCubesSource(cells int, iso float32) (string, error) {
	if cells <= 0 {
		return "", fmt.Errorf("gpu: shader for %d cells", cells)
	}
	if math.IsNaN(float64(iso)) || math.IsInf(float64(iso), 0) {
		return "", fmt.Errorf("gpu: iso level %v is not finite", iso)
	}
	r := strings.NewReplacer(
		"{{CELLS}}", strconv.Itoa(cells),
		"{{ISO_LEVEL}}", wgslFloat(iso),
	)
	return r.Replace(marchingCubesTemplate), nil
}

// wgslFloat formats f as a WGSL f32 literal.
func wgslFloat(f float32) string {
	s := strconv.FormatFloat(float64(f), 'g', -1, 32)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// CompileSPIRV compiles WGSL source to SPIR-V words with naga.
func CompileSPIRV(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("gpu: SPIR-V length %d is not word aligned", len(spirvBytes))
	}
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
