// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uniforms

import (
	"fmt"
	"image"
	"strings"
	"time"

	"cogentcore.org/vision/gpu"
)

// Domains are the uniform domains that a program can subscribe to.
type Domains int32

const (
	DomainGeneral Domains = iota
	DomainAudio
	DomainAudioFFT
	DomainAudioFeatures
	DomainCamera
	DomainColor
	DomainGeometry
	DomainImage
	DomainNoise
	DomainMultipass
	DomainWebcam
)

var domainNames = [...]string{"general", "audio", "audio_fft", "audio_features", "camera", "color", "geometry", "image", "noise", "multipass", "webcam"}

func (d Domains) String() string {
	if d < 0 || int(d) >= len(domainNames) {
		return fmt.Sprintf("Domains(%d)", int(d))
	}
	return domainNames[d]
}

// DomainFromString returns the domain with the given subscription name.
func DomainFromString(s string) (Domains, bool) {
	for i, n := range domainNames {
		if n == strings.TrimSpace(s) {
			return Domains(i), true
		}
	}
	return 0, false
}

// Frame is the per-frame state passed to [Uniforms.Update].
type Frame struct {
	// Time is the time since the program started.
	Time time.Duration

	// Delta is the time since the previous frame.
	Delta time.Duration

	// Index is the frame number, starting at 0.
	Index int

	// Size is the render size.
	Size image.Point

	// Mouse is the pointer position in pixels.
	Mouse image.Point

	// Now is the wall clock time of the frame.
	Now time.Time
}

// Uniforms is one uniform domain: a data block and textures bound as
// one bind group, updated every frame.
type Uniforms interface {
	// Domain returns the domain of the uniforms.
	Domain() Domains

	// Update advances the uniforms one frame and writes them to the GPU.
	Update(f *Frame) error

	// Layout returns the bind group layout.
	Layout() *gpu.BindGroupLayout

	// Group returns the current bind group.
	Group() *gpu.BindGroup

	// NeedsRecompile returns whether the layout changed since the
	// pipeline was built, which needs a new pipeline layout.
	NeedsRecompile() bool

	// ClearRecompile is called once the pipeline layout has been rebuilt.
	ClearRecompile()

	// Err returns the current error of the uniforms' producer, if any.
	Err() error

	// Release ends any session and releases the GPU resources.
	Release()
}

// base is embedded by the uniform domains for the common parts.
type base[T any] struct {
	*Buffer[T]
	domain    Domains
	recompile bool
	err       error
}

func (b *base[T]) Domain() Domains      { return b.domain }
func (b *base[T]) NeedsRecompile() bool { return b.recompile }
func (b *base[T]) Err() error           { return b.err }

func (b *base[T]) ClearRecompile() { b.recompile = false }

// setTextures binds textures, rebuilding the buffer when the
// number of textures changed.
func (b *base[T]) setTextures(dev gpu.Device, textures ...*gpu.Texture) error {
	changed, err := b.SetTextures(textures...)
	if err != nil || !changed {
		return err
	}
	nb, err := NewBuffer(dev, b.Label, b.Data, textures...)
	if err != nil {
		return err
	}
	b.Buffer.Release()
	b.Buffer = nb
	b.recompile = true
	return nil
}

func newBase[T any](dev gpu.Device, d Domains, data T, textures ...*gpu.Texture) (base[T], error) {
	ub, err := NewBuffer(dev, d.String(), data, textures...)
	return base[T]{Buffer: ub, domain: d}, err
}

// f32 converts a duration to seconds.
func f32(d time.Duration) float32 { return float32(d.Seconds()) }
