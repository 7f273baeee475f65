// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"image"
	"testing"

	"cogentcore.org/vision/gpu"
	"cogentcore.org/vision/gpu/headless"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	dev    *headless.Device
	vert   *gpu.ShaderModule
	frag   *gpu.ShaderModule
	layout *gpu.BindGroupLayout
	group  *gpu.BindGroup
}

func newFixture(t *testing.T) *fixture {
	dev := headless.New()
	f := &fixture{dev: dev}
	var err error
	f.vert, err = dev.NewShaderModule("vert", gpu.VertexShader, []byte("v"))
	require.NoError(t, err)
	f.frag, err = dev.NewShaderModule("frag", gpu.FragmentShader, []byte("f"))
	require.NoError(t, err)
	f.layout, err = dev.NewBindGroupLayout("layout", false, 0)
	require.NoError(t, err)
	f.group, err = dev.NewBindGroup("group", f.layout, nil, nil)
	require.NoError(t, err)
	return f
}

func (f *fixture) texture(t *testing.T, label string, size image.Point) *gpu.Texture {
	tx, err := f.dev.NewTexture(label, size, gpu.RGBA8, gpu.UsageRender)
	require.NoError(t, err)
	return tx
}

func TestBuild(t *testing.T) {
	f := newFixture(t)
	g := New(f.dev, "main", gpu.RGBA8)
	assert.Error(t, g.Render(nil, nil, nil, nil))
	assert.Error(t, g.Build(nil, f.frag, nil))
	assert.Nil(t, g.Pipeline())

	layouts := []*gpu.BindGroupLayout{f.layout}
	require.NoError(t, g.Build(f.vert, f.frag, layouts))
	first := g.Pipeline()
	assert.True(t, g.Compatible(layouts))
	assert.False(t, g.Compatible(nil))

	other, err := f.dev.NewBindGroupLayout("other", true, 1)
	require.NoError(t, err)
	assert.False(t, g.Compatible([]*gpu.BindGroupLayout{other}))

	other.Release()
	assert.Error(t, g.Build(f.vert, f.frag, []*gpu.BindGroupLayout{other}))
	assert.Same(t, first, g.Pipeline())
	assert.Equal(t, 1, f.dev.Live("pipeline"))

	require.NoError(t, g.Build(f.vert, f.frag, layouts))
	assert.NotSame(t, first, g.Pipeline())
	assert.Equal(t, 1, f.dev.Live("pipeline"))
	assert.Equal(t, 1, f.dev.Live("pipelinelayout"))

	g.Release()
	assert.Equal(t, 0, f.dev.Live("pipeline"))
}

func TestRenderSingle(t *testing.T) {
	f := newFixture(t)
	g := New(f.dev, "main", gpu.RGBA8)
	require.NoError(t, g.Build(f.vert, f.frag, []*gpu.BindGroupLayout{f.layout}))
	out := f.texture(t, "out", image.Pt(4, 4))

	var calls []int
	err := g.Render([]*gpu.BindGroup{f.group}, nil, out, func(pass int) error {
		calls = append(calls, pass)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, calls)
	draws := f.dev.Draws()
	require.Len(t, draws, 1)
	assert.Equal(t, headless.Draw{Pipeline: "main", Target: "out", Clear: true, BindGroups: []string{"group"}}, draws[0])

	assert.Error(t, g.Render(nil, nil, out, nil))
}

func TestRenderPasses(t *testing.T) {
	f := newFixture(t)
	f.dev.Shade = func(pass *gpu.RenderPass, target *image.RGBA) {
		target.Pix[0] = 7
	}
	g := New(f.dev, "multi", gpu.RGBA8)
	require.NoError(t, g.Build(f.vert, f.frag, []*gpu.BindGroupLayout{f.layout}))

	size := image.Pt(4, 4)
	passes := []Pass{
		{Render: f.texture(t, "a render", image.Pt(2, 2)), Uniform: f.texture(t, "a uniform", image.Pt(2, 2)), Persistent: true},
		{Render: f.texture(t, "b render", size), Uniform: f.texture(t, "b uniform", size)},
	}
	out := f.texture(t, "out", size)
	var calls []int
	err := g.Render([]*gpu.BindGroup{f.group}, passes, out, func(pass int) error {
		calls = append(calls, pass)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, calls)

	draws := f.dev.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, "a render", draws[0].Target)
	assert.False(t, draws[0].Clear)
	assert.Equal(t, "out", draws[1].Target)
	assert.True(t, draws[1].Clear)

	assert.Equal(t, uint8(7), headless.Pixels(passes[0].Uniform).Pix[0])
	assert.Equal(t, uint8(7), headless.Pixels(passes[1].Uniform).Pix[0])
	assert.Equal(t, uint8(0), headless.Pixels(passes[1].Render).Pix[0])
}
