// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

// Binding numbers within a bind group: the optional uniform buffer is
// at binding 0, and texture i uses a texture binding and a sampler binding
// that follow it. Shader preambles must declare resources using
// these numbers.

// BufferBinding is the binding number of the uniform buffer.
const BufferBinding = 0

// TextureBinding returns the binding number of texture i.
func TextureBinding(i int) int { return 1 + 2*i }

// SamplerBinding returns the binding number of the sampler for texture i.
func SamplerBinding(i int) int { return 2 + 2*i }

// ShaderModule is a compiled shader stage.
type ShaderModule struct {
	Label string
	Stage ShaderStages

	// Handle is the backend object, owned by the [Device] that created it.
	Handle Releaser
}

// Release frees the module.
func (sm *ShaderModule) Release() {
	if sm == nil {
		return
	}
	release(sm.Handle)
	sm.Handle = nil
}

// BindGroupLayout describes the bindings of one bind group. It is
// immutable: a different buffer presence or texture count requires
// a new layout.
type BindGroupLayout struct {
	Label string

	// HasBuffer is whether binding 0 is a uniform buffer.
	HasBuffer bool

	// Textures is the number of texture + sampler binding pairs.
	Textures int

	// Handle is the backend object, owned by the [Device] that created it.
	Handle Releaser
}

// Compatible returns whether the layout has the given shape.
func (bl *BindGroupLayout) Compatible(hasBuffer bool, textures int) bool {
	return bl != nil && bl.HasBuffer == hasBuffer && bl.Textures == textures
}

// Release frees the layout.
func (bl *BindGroupLayout) Release() {
	if bl == nil {
		return
	}
	release(bl.Handle)
	bl.Handle = nil
}

// BindGroup binds actual resources according to a [BindGroupLayout].
type BindGroup struct {
	Label  string
	Layout *BindGroupLayout

	// Handle is the backend object, owned by the [Device] that created it.
	Handle Releaser
}

// Release frees the bind group.
func (bg *BindGroup) Release() {
	if bg == nil {
		return
	}
	release(bg.Handle)
	bg.Handle = nil
}

// PipelineLayout is the ordered list of bind group layouts
// used by a render pipeline.
type PipelineLayout struct {
	Label   string
	Layouts []*BindGroupLayout

	// Handle is the backend object, owned by the [Device] that created it.
	Handle Releaser
}

// Release frees the pipeline layout, but not the bind group layouts.
func (pl *PipelineLayout) Release() {
	if pl == nil {
		return
	}
	release(pl.Handle)
	pl.Handle = nil
}

// RenderPipelineDesc describes a render pipeline drawing
// a full-screen triangle.
type RenderPipelineDesc struct {
	Label    string
	Layout   *PipelineLayout
	Vertex   *ShaderModule
	Fragment *ShaderModule

	// Format of the color target.
	Format TextureFormats
}

// RenderPipeline is a compiled render pipeline.
type RenderPipeline struct {
	Label  string
	Layout *PipelineLayout
	Format TextureFormats

	// Handle is the backend object, owned by the [Device] that created it.
	Handle Releaser
}

// Release frees the pipeline.
func (rp *RenderPipeline) Release() {
	if rp == nil {
		return
	}
	release(rp.Handle)
	rp.Handle = nil
}

// RenderPass is a single draw of a full-screen triangle.
type RenderPass struct {
	Pipeline *RenderPipeline

	// BindGroups are set at group index i in order.
	BindGroups []*BindGroup

	// Target is the texture rendered into.
	Target *Texture

	// Clear is whether to clear the target first,
	// as opposed to loading its prior contents.
	Clear bool
}
