// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

// Buffer is a uniform buffer on the GPU.
type Buffer struct {
	// Label for debugging.
	Label string

	// Size in bytes.
	Size int

	// Handle is the backend object, owned by the [Device] that created it.
	Handle Releaser
}

// Release frees the device memory for the buffer.
func (bf *Buffer) Release() {
	if bf == nil {
		return
	}
	release(bf.Handle)
	bf.Handle = nil
}

// UniformAlign is the alignment in bytes required for uniform buffer sizes.
const UniformAlign = 16

// AlignedSize returns size rounded up to [UniformAlign].
func AlignedSize(size int) int {
	return (size + UniformAlign - 1) &^ (UniformAlign - 1)
}
