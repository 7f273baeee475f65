// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package uniforms provides GPU resident uniform data: the generic
// [Buffer] pairing a data block with a set of textures, the uniform
// domains that programs subscribe to, and the [Store] that owns them.
package uniforms

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"cogentcore.org/vision/gpu"
)

// Buffer is a data block of type T in a GPU uniform buffer together
// with zero or more textures, bound as one bind group. T must have a
// fixed size for encoding/binary, laid out with std140 rules using
// explicit padding fields, or be a []byte already in that layout.
//
// The layout is fixed at construction: a change in the byte size of
// T or the number of textures needs a new Buffer from [NewBuffer].
type Buffer[T any] struct {
	// Label for debugging.
	Label string

	// Data is the value written to the GPU by [Buffer.Update].
	Data T

	dev      gpu.Device
	size     int
	buf      *gpu.Buffer
	textures []*gpu.Texture
	layout   *gpu.BindGroupLayout
	group    *gpu.BindGroup
}

// NewBuffer returns a new [Buffer] for data with the given textures,
// writing data to the GPU. There is no GPU buffer when data has size 0.
func NewBuffer[T any](dev gpu.Device, label string, data T, textures ...*gpu.Texture) (*Buffer[T], error) {
	size := binary.Size(data)
	if size < 0 {
		return nil, fmt.Errorf("uniforms: %s: type %T does not have a fixed size", label, data)
	}
	ub := &Buffer[T]{Label: label, Data: data, dev: dev, size: size, textures: textures}
	var err error
	if size > 0 {
		ub.buf, err = dev.NewBuffer(label, gpu.AlignedSize(size))
		if err != nil {
			return nil, err
		}
	}
	ub.layout, err = dev.NewBindGroupLayout(label, ub.buf != nil, len(textures))
	if err != nil {
		ub.Release()
		return nil, err
	}
	if ub.group, err = ub.newGroup(textures); err != nil {
		ub.Release()
		return nil, err
	}
	if err := ub.Update(); err != nil {
		ub.Release()
		return nil, err
	}
	return ub, nil
}

func (ub *Buffer[T]) newGroup(textures []*gpu.Texture) (*gpu.BindGroup, error) {
	return ub.dev.NewBindGroup(ub.Label, ub.layout, ub.buf, textures)
}

// Bytes returns the encoding of Data, padded to the uniform alignment.
func (ub *Buffer[T]) Bytes() ([]byte, error) {
	var bb bytes.Buffer
	if err := binary.Write(&bb, binary.LittleEndian, ub.Data); err != nil {
		return nil, err
	}
	b := bb.Bytes()
	if len(b) != ub.size {
		return nil, fmt.Errorf("uniforms: %s: size changed from %d to %d bytes", ub.Label, ub.size, len(b))
	}
	if pad := gpu.AlignedSize(len(b)) - len(b); pad > 0 {
		b = append(b, make([]byte, pad)...)
	}
	return b, nil
}

// Update writes Data to the GPU buffer in place.
func (ub *Buffer[T]) Update() error {
	if ub.buf == nil {
		return nil
	}
	b, err := ub.Bytes()
	if err != nil {
		return err
	}
	return ub.dev.WriteBuffer(ub.buf, b)
}

// SetTextures binds the given textures in place of the current ones.
// If the number of textures is unchanged it builds a new bind group
// with the existing layout. Otherwise nothing is changed and it
// returns layoutChanged = true: the caller must construct a new Buffer.
func (ub *Buffer[T]) SetTextures(textures ...*gpu.Texture) (layoutChanged bool, err error) {
	if len(textures) != len(ub.textures) {
		return true, nil
	}
	group, err := ub.newGroup(textures)
	if err != nil {
		return false, err
	}
	ub.group.Release()
	ub.group = group
	ub.textures = textures
	return false, nil
}

// Size returns the byte size of Data, 0 when there is no GPU buffer.
func (ub *Buffer[T]) Size() int { return ub.size }

// GPUBuffer returns the GPU buffer, nil when Data has size 0.
func (ub *Buffer[T]) GPUBuffer() *gpu.Buffer { return ub.buf }

// Textures returns the bound textures. They are owned by the caller.
func (ub *Buffer[T]) Textures() []*gpu.Texture { return ub.textures }

// Layout returns the bind group layout.
func (ub *Buffer[T]) Layout() *gpu.BindGroupLayout { return ub.layout }

// Group returns the current bind group.
func (ub *Buffer[T]) Group() *gpu.BindGroup { return ub.group }

// Release releases the GPU buffer, bind group and layout,
// but not the textures.
func (ub *Buffer[T]) Release() {
	if ub == nil {
		return
	}
	ub.group.Release()
	ub.layout.Release()
	ub.buf.Release()
	ub.group, ub.layout, ub.buf = nil, nil, nil
}
