// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gpu defines the GPU resources used by the visualizer:
// textures, uniform buffers, shader modules, bind groups and render
// pipelines, along with the [Device] interface that creates them.
//
// Each resource is a small struct holding its descriptive state
// (label, size, format) plus an opaque Handle owned by the [Device]
// backend that created it. Resources are immutable once created:
// binding layouts bake in the number of bindings, so any change in
// buffer size or texture count requires creating new objects and
// releasing the old ones.
//
// Two backends are provided: gpu/webgpu on top of WebGPU, and
// gpu/headless which keeps pixels in host memory and records draws,
// for tests and runs without a display.
package gpu

import (
	"image"
)

// Debug is whether to log debugging information about GPU resource use.
var Debug = false

// Releaser is implemented by backend handles that own device memory.
type Releaser interface {
	Release()
}

// Device creates GPU resources and executes render passes.
// All methods must be called from the render thread.
type Device interface {
	// NewTexture creates a new texture, initialized to all zeros.
	NewTexture(label string, size image.Point, format TextureFormats, usage TextureUsage) (*Texture, error)

	// WriteTexture uploads the given image into the texture.
	// The image is converted to RGBA and must be the size of the texture.
	WriteTexture(tx *Texture, img image.Image) error

	// ClearTexture sets every texel of the texture to zero.
	ClearTexture(tx *Texture) error

	// CopyTexture copies src into dst, which must be the same size.
	CopyTexture(dst, src *Texture) error

	// ReadTexture reads the texture back to host memory.
	ReadTexture(tx *Texture) (*image.RGBA, error)

	// NewBuffer creates a new uniform buffer of the given size in bytes.
	NewBuffer(label string, size int) (*Buffer, error)

	// WriteBuffer writes data into the buffer starting at offset 0.
	WriteBuffer(buf *Buffer, data []byte) error

	// NewShaderModule creates a shader module from SPIR-V code.
	NewShaderModule(label string, stage ShaderStages, code []byte) (*ShaderModule, error)

	// NewBindGroupLayout creates a layout with an optional uniform
	// buffer binding and the given number of texture bindings.
	NewBindGroupLayout(label string, hasBuffer bool, textures int) (*BindGroupLayout, error)

	// NewBindGroup binds the given buffer (may be nil) and textures
	// according to the layout.
	NewBindGroup(label string, layout *BindGroupLayout, buf *Buffer, textures []*Texture) (*BindGroup, error)

	// NewPipelineLayout creates a pipeline layout from the given bind group
	// layouts, where group index i uses layouts[i].
	NewPipelineLayout(label string, layouts []*BindGroupLayout) (*PipelineLayout, error)

	// NewRenderPipeline creates a render pipeline.
	NewRenderPipeline(desc *RenderPipelineDesc) (*RenderPipeline, error)

	// Draw executes a single full-screen triangle draw.
	Draw(pass *RenderPass) error

	// Release releases the device and everything it owns.
	Release()
}

// ShaderStages are the shader stages of a render pipeline.
type ShaderStages int32

const (
	VertexShader ShaderStages = iota
	FragmentShader
)

func (st ShaderStages) String() string {
	if st == VertexShader {
		return "vertex"
	}
	return "fragment"
}

// release calls Release on h if it is non-nil.
func release(h Releaser) {
	if h != nil {
		h.Release()
	}
}
