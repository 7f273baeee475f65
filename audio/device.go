// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package audio provides the audio input producers: the [Source]
// that owns the capture device and fans frames out to subscribers,
// the [Spectrum] analyzer, and the [FeatureClient] for an external
// feature extraction service.
package audio

// DefaultBufferSize is the number of samples per frame requested
// from devices.
const DefaultBufferSize = 1024

// Device is an audio input that delivers mono frames of float32
// samples in [-1, 1].
type Device interface {
	// Name returns a human readable name for the device.
	Name() string

	// Start begins streaming, calling fn for every buffer from a
	// device thread, and returns the negotiated sample rate.
	// fn must not retain the frame.
	Start(fn func(frame []float32)) (sampleRate float64, err error)

	// Close stops streaming and releases the device. After Close
	// returns, fn is no longer called.
	Close() error
}

// Opener opens a [Device]; it is called at the start of every session.
type Opener func() (Device, error)
