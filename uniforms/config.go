// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uniforms

import (
	"context"
	"image"

	"cogentcore.org/vision/audio"
	"cogentcore.org/vision/gpu"
	"cogentcore.org/vision/video"
)

// Config is the optional typed configuration of a program's uniforms,
// given in the program manifest. Absent fields use defaults.
type Config struct {
	// Palette is the color palette, up to 4 RGBA colors.
	Palette [][4]float32 `json:"palette,omitempty"`

	// Cycle is the palette cycles per second.
	Cycle float32 `json:"cycle,omitempty"`

	// Camera is the initial camera.
	Camera *CameraConfig `json:"camera,omitempty"`

	// Geometry is the initial transform.
	Geometry *GeometryData `json:"geometry,omitempty"`

	// Noise is the noise parameters.
	Noise *NoiseConfig `json:"noise,omitempty"`

	// Image is the initial image, relative to the media directory.
	Image string `json:"image,omitempty"`

	// Features are the names of the audio features requested
	// from the feature extraction service, at most [MaxFeatures].
	Features []string `json:"features,omitempty"`

	// Webcam is the webcam device path.
	Webcam string `json:"webcam,omitempty"`
}

// CameraConfig is the camera position and orbit.
type CameraConfig struct {
	Position [3]float32 `json:"position"`
	Target   [3]float32 `json:"target"`
	Fov      float32    `json:"fov"`

	// Orbit is the rotation speed around the target in radians per second.
	Orbit float32 `json:"orbit"`
}

// NoiseConfig is the noise parameters.
type NoiseConfig struct {
	Seed    float32 `json:"seed"`
	Scale   float32 `json:"scale"`
	Octaves int32   `json:"octaves"`
	Speed   float32 `json:"speed"`
}

// Env is what uniform domains need from their owner.
type Env struct {
	// Context bounds network sessions.
	Context context.Context

	// Device is the GPU device.
	Device gpu.Device

	// Audio is the shared audio source, nil without audio input.
	Audio *audio.Source

	// FeatureURL is the address of the feature extraction service.
	FeatureURL string

	// SpectrumBins is the number of spectrum bins.
	SpectrumBins int

	// Smoothing is the smoothing factor for audio values.
	Smoothing float32

	// OpenVideo opens webcam and video decoders.
	OpenVideo video.Opener

	// VideoMaxSize is the maximum size of video frames.
	VideoMaxSize image.Point

	// MediaDir is the directory that image paths are relative to.
	MediaDir string
}

func (e *Env) context() context.Context {
	if e.Context == nil {
		return context.Background()
	}
	return e.Context
}
