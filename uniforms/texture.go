// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uniforms

import (
	"image"

	"cogentcore.org/vision/gpu"
)

// UploadImage writes img into tx, replacing tx with a new texture
// when it is nil or a different size. The old texture is released.
func UploadImage(dev gpu.Device, tx *gpu.Texture, label string, img image.Image) (*gpu.Texture, bool, error) {
	size := img.Bounds().Size()
	replaced := false
	if tx == nil || tx.Size != size {
		ntx, err := dev.NewTexture(label, size, gpu.RGBA8, gpu.UsageImage)
		if err != nil {
			return tx, false, err
		}
		tx.Release()
		tx = ntx
		replaced = true
	}
	return tx, replaced, dev.WriteTexture(tx, img)
}

// Row returns a width x 1 image whose red channel holds the given
// values in [0, 1].
func Row(values []float32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, max(len(values), 1), 1))
	for i, v := range values {
		img.Pix[i*4] = uint8(min(max(v, 0), 1) * 255)
		img.Pix[i*4+3] = 0xff
	}
	return img
}
