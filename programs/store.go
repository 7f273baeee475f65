// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package programs coordinates the selected program: its shaders,
// uniforms and ISF inputs, compiled, updated and rendered every frame.
package programs

import (
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"time"

	"cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/gpu"
	"cogentcore.org/vision/isf"
	"cogentcore.org/vision/metrics"
	"cogentcore.org/vision/pipeline"
	"cogentcore.org/vision/shader"
	"cogentcore.org/vision/uniforms"
)

// States are the states of the selected program.
type States int32

const (
	Idle States = iota
	Compiling
	Ready
	Errored
)

func (s States) String() string {
	switch s {
	case Idle:
		return "idle"
	case Compiling:
		return "compiling"
	case Ready:
		return "ready"
	case Errored:
		return "errored"
	}
	return fmt.Sprintf("States(%d)", int32(s))
}

// Poller returns batches of changed file paths without blocking,
// as [shader.Watcher.Poll] does.
type Poller interface {
	Poll() ([]string, bool)
}

// Store is the top level coordinator. It owns the selected program
// and everything it uses, including the audio source of Env.
type Store struct {
	Catalog  *Catalog
	Env      *uniforms.Env
	Compiler shader.Compiler

	// Watcher, if set, is polled for changed shader files every frame.
	Watcher Poller

	// Size is the output render size.
	Size image.Point

	// Format is the output texture format.
	Format gpu.TextureFormats

	// Mouse is the pointer position in pixels.
	Mouse image.Point

	current  Ref
	state    States
	pair     *shader.Pair
	uniforms *uniforms.Store
	isf      *isf.Store
	graph    *pipeline.Graph
	buildErr error
	rebuild  bool

	time  time.Duration
	frame int
	took  time.Duration
}

// NewStore returns a new [Store] with nothing selected.
func NewStore(cat *Catalog, env *uniforms.Env, comp shader.Compiler, size image.Point) *Store {
	return &Store{Catalog: cat, Env: env, Compiler: comp, Size: size, Format: gpu.RGBA8}
}

// State returns the state of the selected program.
func (s *Store) State() States { return s.state }

// Current returns the selected program.
func (s *Store) Current() Ref { return s.current }

// ISF returns the ISF input store of the selected program.
func (s *Store) ISF() *isf.Store { return s.isf }

// Uniforms returns the uniform domains of the selected program.
func (s *Store) Uniforms() *uniforms.Store { return s.uniforms }

// Shaders returns the shader slots of the selected program.
func (s *Store) Shaders() *shader.Pair { return s.pair }

// Pipeline returns the render pipeline of the selected program,
// nil until it first compiles.
func (s *Store) Pipeline() *gpu.RenderPipeline {
	if s.graph == nil {
		return nil
	}
	return s.graph.Pipeline()
}

// SelectDefault selects the default program of the catalog.
func (s *Store) SelectDefault() error {
	return s.Select(s.Catalog.Default())
}

// Next selects the program delta places after the current one.
func (s *Store) Next(delta int) error {
	return s.Select(s.Catalog.Next(s.current, delta))
}

// Select ends the current program and starts r, compiling it.
// A failed compile is not an error here; it is reported by [Store.Errors].
func (s *Store) Select(r Ref) error {
	pc, ok := s.Catalog.Get(r)
	if !ok {
		return fmt.Errorf("programs: no program %v", r)
	}
	s.end()
	us, err := uniforms.NewStore(s.Env, pc.Uniforms, pc.Config)
	if err != nil {
		return err
	}
	vert, frag := s.Catalog.Paths(r, pc)
	s.current, s.uniforms = r, us
	s.pair = shader.NewPair(vert, frag)
	s.isf = isf.NewStore(filepath.Dir(frag), s.Env.MediaDir, s.Env.Audio)
	s.isf.OpenVideo = s.Env.OpenVideo
	s.isf.VideoMaxSize = s.Env.VideoMaxSize
	s.isf.SpectrumBins = s.Env.SpectrumBins
	s.isf.Smoothing = s.Env.Smoothing
	s.graph = pipeline.New(s.Env.Device, r.String(), s.Format)
	s.time, s.frame = 0, 0
	slog.Info("program selected", "program", r.String(), "uniforms", us.Domains())
	s.compile()
	return nil
}

// compile compiles the shaders. A successful compile schedules a new
// pipeline; a failed one keeps the current pipeline rendering.
func (s *Store) compile() {
	s.state = Compiling
	ok := s.pair.Compile(s.Env.Device, s.Compiler)
	s.uniforms.ClearRecompile()
	s.buildErr = nil
	if ok {
		s.state = Ready
		s.rebuild = true
		return
	}
	s.state = Errored
}

// FilesChanged recompiles the program if it uses any of the paths,
// returning whether it did.
func (s *Store) FilesChanged(paths []string) bool {
	if s.pair == nil || !s.pair.Uses(paths) {
		return false
	}
	slog.Info("shader changed, recompiling", "program", s.current.String())
	s.compile()
	return true
}

// Update advances the program by dt: it applies file changes and
// recompiles as needed, updates every uniform domain, reconciles the
// ISF inputs and rebuilds the pipeline when its layouts changed.
func (s *Store) Update(dt time.Duration) {
	if s.pair == nil {
		return
	}
	start := time.Now()
	if s.Watcher != nil {
		if paths, ok := s.Watcher.Poll(); ok {
			s.FilesChanged(paths)
		}
	}
	if s.uniforms.NeedsRecompile() {
		s.compile()
	}
	f := &uniforms.Frame{Time: s.time, Delta: dt, Index: s.frame, Size: s.Size, Mouse: s.Mouse, Now: time.Now()}
	if err := s.uniforms.Update(f); err != nil {
		slog.Debug("uniform update", "err", err)
	}
	if m := s.pair.Manifest(); m != nil {
		s.syncISF(m, f)
	} else if s.isf.Manifest() != nil {
		errors.Log(s.isf.EndSessions())
	}
	layouts := s.layouts()
	if s.pair.Ready() && (s.rebuild || !s.graph.Compatible(layouts)) {
		s.build(layouts)
	}
	s.time += dt
	s.frame++
	s.took = time.Since(start)
}

func (s *Store) syncISF(m *isf.Manifest, f *uniforms.Frame) {
	changed, err := s.isf.Sync(s.Env.Device, m, s.Size)
	if err != nil {
		slog.Debug("isf sync", "err", err)
	}
	t := &isf.Timing{Time: f.Time, Delta: f.Delta, Frame: f.Index, Size: f.Size, Now: f.Now}
	if _, err := s.isf.Bind(t, changed); err != nil {
		slog.Error("isf bind", "err", err)
	}
}

func (s *Store) build(layouts []*gpu.BindGroupLayout) {
	err := s.graph.Build(s.pair.Vertex.Module, s.pair.Fragment.Module, layouts)
	s.buildErr = err
	if err != nil {
		s.state = Errored
		slog.Error("pipeline build failed", "program", s.current.String(), "err", err)
		return
	}
	s.rebuild = false
}

// isISF returns whether the program has bound ISF groups.
func (s *Store) isISF() bool {
	return s.pair.Manifest() != nil && s.isf.Manifest() != nil && s.isf.Layouts() != nil
}

// layouts returns the bind group layouts of the program: the ISF
// timing and input groups for ISF programs, then the uniform domains.
func (s *Store) layouts() []*gpu.BindGroupLayout {
	var ls []*gpu.BindGroupLayout
	if s.isISF() {
		ls = append(ls, s.isf.Layouts()...)
	}
	ls = append(ls, s.uniforms.Layouts()...)
	if ls == nil {
		ls = []*gpu.BindGroupLayout{}
	}
	return ls
}

func (s *Store) groups() []*gpu.BindGroup {
	var gs []*gpu.BindGroup
	if s.isISF() {
		gs = append(gs, s.isf.Groups()...)
	}
	return append(gs, s.uniforms.Groups()...)
}

// Render renders the program into target. Without a pipeline matching
// the current layouts nothing is drawn and target keeps its last frame.
func (s *Store) Render(target *gpu.Texture) error {
	if s.graph == nil || !s.graph.Compatible(s.layouts()) {
		return nil
	}
	start := time.Now()
	var passes []pipeline.Pass
	if s.isISF() {
		for _, pt := range s.isf.Passes() {
			passes = append(passes, pipeline.Pass{Render: pt.Render, Uniform: pt.Uniform, Persistent: pt.Persistent})
		}
	}
	n := max(len(passes), 1)
	setPass := func(pass int) error {
		var err error
		if s.isISF() {
			err = s.isf.SetPass(pass)
		}
		if mp := s.uniforms.Multipass(); mp != nil {
			err = errors.Join(err, mp.SetPass(pass, n))
		}
		return err
	}
	if err := s.graph.Render(s.groups(), passes, target, setPass); err != nil {
		return err
	}
	metrics.FramesRendered.Inc()
	metrics.FrameSeconds.Observe((s.took + time.Since(start)).Seconds())
	return nil
}

// Errors returns the current errors of the program in display
// priority order: shader errors, then audio, image, video and webcam.
func (s *Store) Errors() []Error {
	if s.pair == nil {
		return nil
	}
	var errs []Error
	if err := s.pair.Err(gpu.VertexShader); err != nil {
		errs = append(errs, Error{VertexError, s.pair.Vertex.Name(), err})
	}
	if err := s.pair.Err(gpu.FragmentShader); err != nil {
		errs = append(errs, Error{FragmentError, s.pair.Fragment.Name(), err})
	} else if s.buildErr != nil {
		errs = append(errs, Error{FragmentError, s.pair.Fragment.Name(), s.buildErr})
	}
	for d, err := range s.uniforms.Errors() {
		errs = append(errs, Error{domainCategory(d), d.String(), err})
	}
	for name, err := range s.isf.Errors() {
		v, _ := s.isf.Value(name)
		errs = append(errs, Error{valueCategory(v), name, err})
	}
	sortErrors(errs)
	return errs
}

// Err returns the error to display, the first of [Store.Errors].
func (s *Store) Err() error {
	errs := s.Errors()
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}

// end ends the current program.
func (s *Store) end() {
	if s.pair == nil {
		return
	}
	s.isf.Release()
	s.uniforms.Release()
	s.graph.Release()
	s.pair.Release()
	s.pair, s.isf, s.uniforms, s.graph = nil, nil, nil, nil
	s.state = Idle
	slog.Info("program ended", "program", s.current.String())
}

// Release ends the current program and the audio source.
func (s *Store) Release() {
	s.end()
	if s.Env.Audio != nil {
		errors.Log(s.Env.Audio.EndSession())
	}
}
