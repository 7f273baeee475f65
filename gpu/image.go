// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"image"

	"github.com/anthonynsimon/bild/clone"
)

// ImageToRGBA returns img as an [image.RGBA] with a zero origin,
// converting if necessary. An *image.RGBA already at the origin is
// returned as is.
func ImageToRGBA(img image.Image) *image.RGBA {
	if rimg, ok := img.(*image.RGBA); ok && rimg.Rect.Min == (image.Point{}) {
		return rimg
	}
	out := clone.AsRGBA(img)
	out.Rect = out.Rect.Sub(out.Rect.Min)
	return out
}

// Placeholder returns a 1x1 opaque black image, used for textures
// whose content is not yet available.
func Placeholder() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Pix[3] = 0xff
	return img
}
