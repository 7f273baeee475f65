// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package audio

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
)

// FileDevice plays a wav file in real time as if it were an input
// device, looping at the end. It is used in place of a microphone
// when one is not available or for reproducible output.
type FileDevice struct {
	// Path is the wav file.
	Path string

	// BufferSize is the number of samples per frame.
	BufferSize int

	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
	done     chan struct{}
	wg       sync.WaitGroup
}

// FileOpener returns an [Opener] for a [FileDevice] on the given wav file.
func FileOpener(path string) Opener {
	return func() (Device, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		st, format, err := wav.Decode(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &FileDevice{Path: path, BufferSize: DefaultBufferSize, file: f, streamer: st, format: format}, nil
	}
}

func (d *FileDevice) Name() string { return filepath.Base(d.Path) }

func (d *FileDevice) Start(fn func(frame []float32)) (float64, error) {
	d.done = make(chan struct{})
	rate := float64(d.format.SampleRate)
	interval := d.format.SampleRate.D(d.BufferSize)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		samples := make([][2]float64, d.BufferSize)
		frame := make([]float32, d.BufferSize)
		tick := time.NewTicker(interval)
		defer tick.Stop()
		for {
			select {
			case <-d.done:
				return
			case <-tick.C:
			}
			n, ok := d.streamer.Stream(samples)
			if !ok || n < len(samples) {
				if err := d.streamer.Seek(0); err != nil {
					return
				}
			}
			for i := range frame {
				if i < n {
					frame[i] = float32((samples[i][0] + samples[i][1]) / 2)
				} else {
					frame[i] = 0
				}
			}
			fn(frame)
		}
	}()
	return rate, nil
}

func (d *FileDevice) Close() error {
	if d.done != nil {
		close(d.done)
		d.wg.Wait()
		d.done = nil
	}
	return d.streamer.Close()
}
