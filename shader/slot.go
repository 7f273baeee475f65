// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/gpu"
	"cogentcore.org/vision/isf"
	"cogentcore.org/vision/metrics"
)

// SlotStates are the compile states of a [Slot].
type SlotStates int32

const (
	Unloaded SlotStates = iota
	Compiling
	Compiled
	Failed
)

func (s SlotStates) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Compiling:
		return "compiling"
	case Compiled:
		return "compiled"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("SlotStates(%d)", int32(s))
}

// FullScreenVertex is the vertex shader used by programs without
// one: a single triangle covering the viewport, passing normalized
// coordinates to the fragment stage.
const FullScreenVertex = `#version 450
layout(location = 0) out vec2 isf_FragNormCoord;
void main() {
	vec2 uv = vec2(float((gl_VertexIndex << 1) & 2), float(gl_VertexIndex & 2));
	isf_FragNormCoord = vec2(uv.x, 1.0 - uv.y);
	gl_Position = vec4(uv * 2.0 - 1.0, 0.0, 1.0);
}
`

// FullScreenName is the file name reported for [FullScreenVertex].
const FullScreenName = "fullscreen.vert"

// Slot is one shader stage of a program. A failed compile leaves
// the previous module in place.
type Slot struct {
	// Path is the source file, empty for [FullScreenVertex].
	Path  string
	Stage gpu.ShaderStages
	State SlotStates

	// Module is the last successfully compiled module.
	Module *gpu.ShaderModule

	// Manifest is the ISF manifest of the last successful compile of
	// a fragment shader with an ISF header, else nil.
	Manifest *isf.Manifest

	// Imports are the files imported by the last compile attempt.
	Imports []string

	// Err is the error of the last compile, nil when Compiled.
	Err error
}

// NewSlot returns an [Unloaded] slot for path.
func NewSlot(path string, stage gpu.ShaderStages) *Slot {
	return &Slot{Path: path, Stage: stage}
}

// Name returns the file name used to key errors of this slot.
func (sl *Slot) Name() string {
	if sl.Path == "" {
		return FullScreenName
	}
	return filepath.Base(sl.Path)
}

// Uses returns whether the slot depends on the file at path,
// either as its source or as an import.
func (sl *Slot) Uses(path string) bool {
	if sl.Path != "" && sameFile(sl.Path, path) {
		return true
	}
	for _, f := range sl.Imports {
		if sameFile(f, path) {
			return true
		}
	}
	return false
}

func sameFile(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	ba, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return aa == ba
}

// Source reads and prepares the source of the slot: imports are
// resolved, and the ISF header of a fragment shader is parsed and its
// declarations injected. It returns the manifest, nil without a header.
func (sl *Slot) Source() (string, *isf.Manifest, error) {
	if sl.Path == "" {
		return FullScreenVertex, nil, nil
	}
	b, err := os.ReadFile(sl.Path)
	if err != nil {
		return "", nil, errors.EPath(errors.IO, "read shader", sl.Path, err)
	}
	src, imports, err := ResolveImports(sl.Path, string(b))
	sl.Imports = imports
	if err != nil {
		return "", nil, err
	}
	if sl.Stage != gpu.FragmentShader || !isf.IsISF(src) {
		return src, nil, nil
	}
	m, err := isf.Parse(sl.Path, src)
	if err != nil {
		return "", nil, err
	}
	return isf.Inject(src, isf.Preamble(m)), m, nil
}

// Compile compiles the slot into a new module on dev. On failure the
// previous module and manifest are kept and the error is returned
// and recorded in Err.
func (sl *Slot) Compile(dev gpu.Device, comp Compiler) error {
	sl.State = Compiling
	start := time.Now()
	stage := sl.Stage.String()
	err := sl.compile(dev, comp)
	if err != nil {
		sl.State, sl.Err = Failed, err
		metrics.Compiles.WithLabelValues(stage, "failure").Inc()
		slog.Error("shader compile failed", "file", sl.Name(), "err", err)
		return err
	}
	sl.State, sl.Err = Compiled, nil
	metrics.Compiles.WithLabelValues(stage, "success").Inc()
	slog.Info("shader compiled", "file", sl.Name(), "took", time.Since(start))
	return nil
}

func (sl *Slot) compile(dev gpu.Device, comp Compiler) error {
	src, m, err := sl.Source()
	if err != nil {
		return err
	}
	spv, err := comp.Compile(sl.Stage, sl.Name(), src)
	if err != nil {
		return err
	}
	mod, err := dev.NewShaderModule(sl.Name(), sl.Stage, spv)
	if err != nil {
		return errors.EPath(errors.Compile, "create shader module", sl.Name(), err)
	}
	sl.Module.Release()
	sl.Module, sl.Manifest = mod, m
	return nil
}

// Release releases the module.
func (sl *Slot) Release() {
	sl.Module.Release()
	sl.Module = nil
	sl.State = Unloaded
}
