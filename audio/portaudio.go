// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package audio

import (
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"
)

// SampleRates are the rates tried by [PortAudioDevice], highest first.
var SampleRates = []float64{192000, 96000, 48000, 44100, 22050}

// PortAudioDevice is the default system input device opened
// through portaudio at its highest supported sample rate.
type PortAudioDevice struct {
	// BufferSize is the number of samples per frame.
	BufferSize int

	info   *portaudio.DeviceInfo
	stream *portaudio.Stream
}

// OpenPortAudio is an [Opener] for the default input device.
func OpenPortAudio() (Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	info, err := portaudio.DefaultInputDevice()
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	return &PortAudioDevice{BufferSize: DefaultBufferSize, info: info}, nil
}

func (d *PortAudioDevice) Name() string { return d.info.Name }

// params returns stream parameters for the highest sample rate
// that the device supports for one input channel.
func (d *PortAudioDevice) params() (portaudio.StreamParameters, error) {
	p := portaudio.LowLatencyParameters(d.info, nil)
	p.Input.Channels = 1
	p.Output.Channels = 0
	p.FramesPerBuffer = d.BufferSize
	for _, rate := range SampleRates {
		p.SampleRate = rate
		if err := portaudio.IsFormatSupported(p, make([]float32, d.BufferSize)); err == nil {
			return p, nil
		}
		slog.Debug("audio sample rate not supported", "device", d.info.Name, "rate", rate)
	}
	if d.info.DefaultSampleRate > 0 {
		p.SampleRate = d.info.DefaultSampleRate
		return p, nil
	}
	return p, fmt.Errorf("device %q supports none of the sample rates %v", d.info.Name, SampleRates)
}

func (d *PortAudioDevice) Start(fn func(frame []float32)) (float64, error) {
	p, err := d.params()
	if err != nil {
		return 0, err
	}
	d.stream, err = portaudio.OpenStream(p, func(in []float32) {
		fn(in)
	})
	if err != nil {
		return 0, err
	}
	if err := d.stream.Start(); err != nil {
		d.stream.Close()
		d.stream = nil
		return 0, err
	}
	return p.SampleRate, nil
}

func (d *PortAudioDevice) Close() error {
	defer portaudio.Terminate()
	if d.stream == nil {
		return nil
	}
	err := d.stream.Stop()
	if cerr := d.stream.Close(); err == nil {
		err = cerr
	}
	d.stream = nil
	return err
}
