// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shader

import (
	"cogentcore.org/vision/gpu"
	"cogentcore.org/vision/isf"
)

// Pair is the vertex and fragment slot of a program.
type Pair struct {
	Vertex   *Slot
	Fragment *Slot

	// Errors are the errors of the last compile of each slot,
	// keyed by file name, so that vertex and fragment errors coexist.
	Errors map[string]error
}

// NewPair returns a pair for the given sources. An empty vert
// uses [FullScreenVertex].
func NewPair(vert, frag string) *Pair {
	return &Pair{
		Vertex:   NewSlot(vert, gpu.VertexShader),
		Fragment: NewSlot(frag, gpu.FragmentShader),
		Errors:   map[string]error{},
	}
}

// Compile compiles both slots and returns whether both succeeded.
// Slots that fail keep their previous modules.
func (p *Pair) Compile(dev gpu.Device, comp Compiler) bool {
	ok := true
	for _, sl := range []*Slot{p.Vertex, p.Fragment} {
		delete(p.Errors, sl.Name())
		if err := sl.Compile(dev, comp); err != nil {
			p.Errors[sl.Name()] = err
			ok = false
		}
	}
	return ok
}

// Ready returns whether both slots have a module.
func (p *Pair) Ready() bool {
	return p.Vertex.Module != nil && p.Fragment.Module != nil
}

// Uses returns whether any of the paths is a source or import of the pair.
func (p *Pair) Uses(paths []string) bool {
	for _, path := range paths {
		if p.Vertex.Uses(path) || p.Fragment.Uses(path) {
			return true
		}
	}
	return false
}

// Manifest returns the ISF manifest of the fragment shader, nil if it has none.
func (p *Pair) Manifest() *isf.Manifest {
	return p.Fragment.Manifest
}

// Err returns the error of the given stage.
func (p *Pair) Err(stage gpu.ShaderStages) error {
	if stage == gpu.VertexShader {
		return p.Errors[p.Vertex.Name()]
	}
	return p.Errors[p.Fragment.Name()]
}

// Release releases both modules.
func (p *Pair) Release() {
	p.Vertex.Release()
	p.Fragment.Release()
}
