// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package isf

import (
	"fmt"

	"cogentcore.org/vision/audio"
	"cogentcore.org/vision/base/fsx"
	"cogentcore.org/vision/gpu"
	"cogentcore.org/vision/video"
)

// Value is the current value of a declared input. It is one of
// [*EventValue], [*BoolValue], [*LongValue], [*FloatValue],
// [*Point2DValue], [*ColorValue], [*ImageValue], [*AudioValue]
// and [*AudioFFTValue], matching the [InputKind] of the input.
type Value interface {
	// Kind returns the kind of input that the value is for.
	Kind() InputKind

	isValue()
}

// EventValue is true for the one frame after [EventValue.Fire].
type EventValue struct {
	Active bool
	fired  bool
}

// Fire makes the event active for the next frame.
func (v *EventValue) Fire() { v.fired = true }

// BoolValue is a boolean input.
type BoolValue struct{ V bool }

// LongValue is an integer input.
type LongValue struct{ V int32 }

// FloatValue is a float input.
type FloatValue struct{ V float32 }

// Point2DValue is a 2D point input.
type Point2DValue struct{ V [2]float32 }

// ColorValue is an RGBA color input.
type ColorValue struct{ V [4]float32 }

// ImageValue is an image input showing either a still image,
// decoded asynchronously, or the frames of a video.
type ImageValue struct {
	// Path is the image or video file, "" for none.
	Path string

	// Slot is the still image, nil for a video or no file.
	Slot *ImageSlot

	// Video is the video session, nil for a still image.
	Video *video.Session

	// Err is the error opening or decoding the file.
	Err error

	// texture is the placeholder and video frame texture,
	// used when there is no slot.
	texture *gpu.Texture
}

// AudioValue is the waveform of the audio input as a one row
// texture of up to MaxSamples samples.
type AudioValue struct {
	MaxSamples int
	Err        error

	src     *audio.Source
	frames  *audio.Frames
	session uint64
	texture *gpu.Texture
}

// AudioFFTValue is the audio spectrum as a one row texture.
type AudioFFTValue struct {
	Spectrum *audio.Spectrum
	Err      error

	texture *gpu.Texture
}

func (v *EventValue) Kind() InputKind    { return Event }
func (v *BoolValue) Kind() InputKind     { return Bool }
func (v *LongValue) Kind() InputKind     { return Long }
func (v *FloatValue) Kind() InputKind    { return Float }
func (v *Point2DValue) Kind() InputKind  { return Point2D }
func (v *ColorValue) Kind() InputKind    { return Color }
func (v *ImageValue) Kind() InputKind    { return Image }
func (v *AudioValue) Kind() InputKind    { return Audio }
func (v *AudioFFTValue) Kind() InputKind { return AudioFFT }

func (v *EventValue) isValue()    {}
func (v *BoolValue) isValue()     {}
func (v *LongValue) isValue()     {}
func (v *FloatValue) isValue()    {}
func (v *Point2DValue) isValue()  {}
func (v *ColorValue) isValue()    {}
func (v *ImageValue) isValue()    {}
func (v *AudioValue) isValue()    {}
func (v *AudioFFTValue) isValue() {}

// Texture returns the texture bound for an image value.
func (v *ImageValue) Texture() *gpu.Texture {
	if v.Slot != nil && v.Slot.Texture != nil {
		return v.Slot.Texture
	}
	return v.texture
}

// State returns the state of a still image, or [SlotReady] for
// a video that has shown a frame and [SlotLoading] before.
func (v *ImageValue) State() SlotStates {
	switch {
	case v.Slot != nil:
		return v.Slot.State
	case v.Video != nil:
		if _, ok := v.Video.Latest(); ok {
			return SlotReady
		}
		return SlotLoading
	}
	return SlotEmpty
}

// IsVideo returns whether path is a video file.
func IsVideo(path string) bool {
	return fsx.MediaOf(path) == fsx.Video
}

// Texture returns the waveform texture.
func (v *AudioValue) Texture() *gpu.Texture { return v.texture }

// Texture returns the spectrum texture.
func (v *AudioFFTValue) Texture() *gpu.Texture { return v.texture }

// Scalars returns the numeric components of a scalar value:
// 0 or 1 for events and bools. It returns nil for texture values.
func Scalars(v Value) []float64 {
	switch x := v.(type) {
	case *EventValue:
		return []float64{b2f(x.Active)}
	case *BoolValue:
		return []float64{b2f(x.V)}
	case *LongValue:
		return []float64{float64(x.V)}
	case *FloatValue:
		return []float64{float64(x.V)}
	case *Point2DValue:
		return []float64{float64(x.V[0]), float64(x.V[1])}
	case *ColorValue:
		return []float64{float64(x.V[0]), float64(x.V[1]), float64(x.V[2]), float64(x.V[3])}
	case *ImageValue, *AudioValue, *AudioFFTValue:
		return nil
	default:
		panic(fmt.Sprintf("isf: unknown value type %T", v))
	}
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// textureOf returns the bound texture of a texture value.
func textureOf(v Value) *gpu.Texture {
	switch x := v.(type) {
	case *ImageValue:
		return x.Texture()
	case *AudioValue:
		return x.texture
	case *AudioFFTValue:
		return x.texture
	case *EventValue, *BoolValue, *LongValue, *FloatValue, *Point2DValue, *ColorValue:
		return nil
	default:
		panic(fmt.Sprintf("isf: unknown value type %T", v))
	}
}
