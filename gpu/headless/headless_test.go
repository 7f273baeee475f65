// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package headless

import (
	"image"
	"image/color"
	"testing"

	"cogentcore.org/vision/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextureLifecycle(t *testing.T) {
	dv := New()
	tx, err := dv.NewTexture("t", image.Pt(2, 2), gpu.RGBA8, gpu.UsageRender)
	require.NoError(t, err)
	assert.Equal(t, 1, dv.Live("texture"))

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.RGBA{255, 0, 0, 255})
	require.NoError(t, dv.WriteTexture(tx, img))
	got, err := dv.ReadTexture(tx)
	require.NoError(t, err)
	assert.Equal(t, img.Pix, got.Pix)

	require.NoError(t, dv.ClearTexture(tx))
	assert.Equal(t, make([]byte, 16), Pixels(tx).Pix)

	tx.Release()
	tx.Release()
	assert.True(t, tx.Released())
	assert.Equal(t, 0, dv.Live(""))
	assert.Error(t, dv.ClearTexture(tx))
}

func TestWriteTextureSizeMismatch(t *testing.T) {
	dv := New()
	tx, err := dv.NewTexture("t", image.Pt(2, 2), gpu.RGBA8, gpu.UsageImage)
	require.NoError(t, err)
	assert.Error(t, dv.WriteTexture(tx, image.NewRGBA(image.Rect(0, 0, 3, 3))))
}

func TestDrawChecksLayout(t *testing.T) {
	dv := New()
	bl, _ := dv.NewBindGroupLayout("l", true, 1)
	buf, _ := dv.NewBuffer("b", 16)
	tx, _ := dv.NewTexture("t", image.Pt(1, 1), gpu.RGBA8, gpu.UsageRender)
	_, err := dv.NewBindGroup("bad", bl, buf, nil)
	assert.Error(t, err)
	bg, err := dv.NewBindGroup("g", bl, buf, []*gpu.Texture{tx})
	require.NoError(t, err)

	pl, _ := dv.NewPipelineLayout("pl", []*gpu.BindGroupLayout{bl})
	vs, _ := dv.NewShaderModule("vs", gpu.VertexShader, []byte{1})
	fs, _ := dv.NewShaderModule("fs", gpu.FragmentShader, []byte{1})
	rp, err := dv.NewRenderPipeline(&gpu.RenderPipelineDesc{Label: "p", Layout: pl, Vertex: vs, Fragment: fs})
	require.NoError(t, err)

	out, _ := dv.NewTexture("out", image.Pt(1, 1), gpu.RGBA8, gpu.UsageRender)
	dv.Shade = func(pass *gpu.RenderPass, target *image.RGBA) {
		target.Pix[0] = 9
	}
	require.NoError(t, dv.Draw(&gpu.RenderPass{Pipeline: rp, BindGroups: []*gpu.BindGroup{bg}, Target: out, Clear: true}))
	assert.Equal(t, byte(9), Pixels(out).Pix[0])
	assert.Equal(t, []Draw{{Pipeline: "p", Target: "out", BindGroups: []string{"g"}, Clear: true}}, dv.Draws())

	assert.Error(t, dv.Draw(&gpu.RenderPass{Pipeline: rp, Target: out}))
	dv.Release()
	assert.Equal(t, 0, dv.Live(""))
}
