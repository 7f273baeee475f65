// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pipeline renders a compiled program as a chain of
// full-screen passes.
package pipeline

import (
	"fmt"
	"log/slog"
	"slices"

	"cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/gpu"
)

// Pass is a render pass of a [Graph]. The pass renders into Render,
// which is then copied into Uniform for later passes and frames to read.
type Pass struct {
	Render  *gpu.Texture
	Uniform *gpu.Texture

	// Persistent passes keep their contents between frames
	// instead of being cleared before rendering.
	Persistent bool
}

// Graph is a render pipeline and the bind group layouts it was built
// from. A new set of layouts needs a new pipeline through [Graph.Build].
type Graph struct {
	Label  string
	Format gpu.TextureFormats

	dev      gpu.Device
	layouts  []*gpu.BindGroupLayout
	layout   *gpu.PipelineLayout
	pipeline *gpu.RenderPipeline
}

// New returns an empty [Graph] rendering to targets of the given format.
func New(dev gpu.Device, label string, format gpu.TextureFormats) *Graph {
	return &Graph{Label: label, Format: format, dev: dev}
}

// Pipeline returns the current render pipeline, nil before
// the first successful [Graph.Build].
func (g *Graph) Pipeline() *gpu.RenderPipeline { return g.pipeline }

// Compatible returns whether the pipeline was built with exactly
// these bind group layouts.
func (g *Graph) Compatible(layouts []*gpu.BindGroupLayout) bool {
	return g.pipeline != nil && slices.Equal(g.layouts, layouts)
}

// Build creates a new pipeline from the shader modules and bind group
// layouts, replacing the current one. On failure the current pipeline
// is kept.
func (g *Graph) Build(vert, frag *gpu.ShaderModule, layouts []*gpu.BindGroupLayout) error {
	if vert == nil || frag == nil {
		return errors.E(errors.Compile, "build pipeline "+g.Label, errors.New("missing shader module"))
	}
	pl, err := g.dev.NewPipelineLayout(g.Label, layouts)
	if err != nil {
		return errors.E(errors.Compile, "build pipeline layout "+g.Label, err)
	}
	rp, err := g.dev.NewRenderPipeline(&gpu.RenderPipelineDesc{Label: g.Label, Layout: pl, Vertex: vert, Fragment: frag, Format: g.Format})
	if err != nil {
		pl.Release()
		return errors.E(errors.Compile, "build pipeline "+g.Label, err)
	}
	g.pipeline.Release()
	g.layout.Release()
	g.pipeline, g.layout = rp, pl
	g.layouts = slices.Clone(layouts)
	slog.Debug("pipeline built", "label", g.Label, "groups", len(layouts))
	return nil
}

// Render draws the passes in order with the given bind groups.
// Before each draw, setPass is called with the pass index, if non-nil.
// Every pass but the last renders into its Render texture, which is
// then copied into its Uniform texture. The last pass, or the single
// draw of a program without passes, renders into target, and is copied
// into the Uniform texture of the last pass when the sizes match.
func (g *Graph) Render(groups []*gpu.BindGroup, passes []Pass, target *gpu.Texture, setPass func(pass int) error) error {
	if g.pipeline == nil {
		return fmt.Errorf("pipeline %q: render before build", g.Label)
	}
	n := max(len(passes), 1)
	for i := range n {
		if setPass != nil {
			if err := setPass(i); err != nil {
				return err
			}
		}
		last := i == n-1
		dst, clearIt := target, true
		if !last {
			dst, clearIt = passes[i].Render, !passes[i].Persistent
		}
		err := g.dev.Draw(&gpu.RenderPass{Pipeline: g.pipeline, BindGroups: groups, Target: dst, Clear: clearIt})
		if err != nil {
			return fmt.Errorf("pipeline %q pass %d: %w", g.Label, i, err)
		}
		if len(passes) == 0 {
			break
		}
		src, up := dst, passes[i].Uniform
		if up == nil || up.Size != src.Size {
			continue
		}
		if err := g.dev.CopyTexture(up, src); err != nil {
			return fmt.Errorf("pipeline %q pass %d: %w", g.Label, i, err)
		}
	}
	return nil
}

// Release releases the pipeline and its layout,
// but not the bind group layouts.
func (g *Graph) Release() {
	g.pipeline.Release()
	g.layout.Release()
	g.pipeline, g.layout, g.layouts = nil, nil, nil
}
