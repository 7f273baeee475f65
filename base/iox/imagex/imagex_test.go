// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package imagex

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveOpen(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.RGBA{10, 20, 30, 255})
	for _, ext := range []string{".png", ".bmp", ".tiff"} {
		fn := filepath.Join(t.TempDir(), "img"+ext)
		require.NoError(t, Save(img, fn))
		got, f, err := Open(fn)
		require.NoError(t, err)
		want, _ := ExtToFormat(ext)
		assert.Equal(t, want, f)
		assert.Equal(t, image.Rect(0, 0, 3, 2), got.Bounds())
		r, g, b, _ := got.At(1, 1).RGBA()
		assert.Equal(t, []uint32{10, 20, 30}, []uint32{r >> 8, g >> 8, b >> 8})
	}
}

func TestExtToFormat(t *testing.T) {
	f, err := ExtToFormat("JPG")
	assert.NoError(t, err)
	assert.Equal(t, JPEG, f)
	_, err = ExtToFormat("")
	assert.Error(t, err)
	_, err = ExtToFormat(".xyz")
	assert.Error(t, err)
}
