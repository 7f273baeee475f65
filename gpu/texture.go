// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"
	"image"
)

// TextureFormats are the texel formats supported for textures.
type TextureFormats int32

const (
	// RGBA8 is 8 bits per channel RGBA, matching [image.RGBA].
	RGBA8 TextureFormats = iota

	// RGBA16Float is 16 bit float per channel, used for
	// float render passes.
	RGBA16Float

	// BGRA8 is the usual surface format for presentation.
	BGRA8
)

var textureFormatNames = [...]string{"RGBA8", "RGBA16Float", "BGRA8"}

func (f TextureFormats) String() string {
	if f < 0 || int(f) >= len(textureFormatNames) {
		return fmt.Sprintf("TextureFormats(%d)", int(f))
	}
	return textureFormatNames[f]
}

// BytesPerTexel returns the number of bytes per texel.
func (f TextureFormats) BytesPerTexel() int {
	if f == RGBA16Float {
		return 8
	}
	return 4
}

// TextureUsage is a bit flag set of the ways a texture can be used.
type TextureUsage uint32

const (
	// UsageSampled means the texture can be bound and sampled in a shader.
	UsageSampled TextureUsage = 1 << iota

	// UsageCopyDst means the texture can be written or copied to.
	UsageCopyDst

	// UsageCopySrc means the texture can be copied or read from.
	UsageCopySrc

	// UsageRenderTarget means the texture can be rendered into.
	UsageRenderTarget
)

// UsageImage is the usage for an uploaded image.
const UsageImage = UsageSampled | UsageCopyDst

// UsageRender is the usage for a render target that is
// also copied to other textures and read back.
const UsageRender = UsageSampled | UsageCopyDst | UsageCopySrc | UsageRenderTarget

// Has returns whether all bits of u are set.
func (us TextureUsage) Has(u TextureUsage) bool {
	return us&u == u
}

// Texture is a 2D texture on the GPU.
type Texture struct {
	// Label for debugging.
	Label string

	// Size of the texture in texels.
	Size image.Point

	// Format of the texels.
	Format TextureFormats

	// Usage flags the texture was created with.
	Usage TextureUsage

	// Handle is the backend object, owned by the [Device] that created it.
	Handle Releaser
}

func (tx *Texture) String() string {
	return fmt.Sprintf("%s %v %s", tx.Label, tx.Size, tx.Format)
}

// Released returns whether the texture has been released.
func (tx *Texture) Released() bool {
	return tx == nil || tx.Handle == nil
}

// Release frees the device memory for the texture.
// It is safe to call more than once.
func (tx *Texture) Release() {
	if tx == nil {
		return
	}
	release(tx.Handle)
	tx.Handle = nil
}

// ReleaseTextures releases each of the given textures.
func ReleaseTextures(txs ...*Texture) {
	for _, tx := range txs {
		tx.Release()
	}
}
