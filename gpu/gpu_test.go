// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBindings(t *testing.T) {
	assert.Equal(t, 0, BufferBinding)
	assert.Equal(t, 1, TextureBinding(0))
	assert.Equal(t, 2, SamplerBinding(0))
	assert.Equal(t, 3, TextureBinding(1))
}

func TestAlignedSize(t *testing.T) {
	assert.Equal(t, 16, AlignedSize(4))
	assert.Equal(t, 32, AlignedSize(17))
	assert.Equal(t, 0, AlignedSize(0))
}

func TestImageToRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(2, 2, 4, 4))
	img.Pix[0] = 7
	out := ImageToRGBA(img)
	assert.Equal(t, image.Rect(0, 0, 2, 2), out.Rect)
	assert.Equal(t, byte(7), out.Pix[0])

	assert.Equal(t, byte(7), img.Pix[0])
	out.Pix[0] = 9
	assert.Equal(t, byte(7), img.Pix[0])

	shifted := image.NewGray(image.Rect(5, 5, 7, 6))
	shifted.Pix[1] = 50
	out = ImageToRGBA(shifted)
	assert.Equal(t, image.Rect(0, 0, 2, 1), out.Rect)
	assert.Equal(t, []byte{0, 0, 0, 255, 50, 50, 50, 255}, out.Pix)
	assert.Equal(t, uint8(50), out.RGBAAt(1, 0).R)

	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.Pix[0] = 200
	out = ImageToRGBA(gray)
	assert.Equal(t, []byte{200, 200, 200, 255}, out.Pix)
}

func TestTextureUsage(t *testing.T) {
	assert.True(t, UsageRender.Has(UsageImage))
	assert.False(t, UsageImage.Has(UsageRenderTarget))
	var tx *Texture
	assert.True(t, tx.Released())
	tx.Release()
}
