// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package video provides video capture sessions that decode frames
// from a file or device on their own goroutine and publish the latest
// frame for the render loop.
package video

import (
	"image"
	"io"
	"time"

	"cogentcore.org/vision/base/errors"
	"github.com/cogentcore/reisen"
)

// Decoder is a source of video frames.
type Decoder interface {
	// FrameRate returns the frames per second of the source.
	FrameRate() float64

	// Next decodes the next frame, returning [io.EOF] at the end of the stream.
	Next() (*image.RGBA, error)

	// Rewind seeks back to the first frame.
	Rewind() error

	// Close releases the decoder.
	Close() error
}

// Opener opens a [Decoder] for the given file or device path.
type Opener func(path string) (Decoder, error)

// DefaultFrameRate is used when a source does not report its frame rate.
const DefaultFrameRate = 30

// ReisenDecoder is a [Decoder] on ffmpeg through reisen.
type ReisenDecoder struct {
	// Path is the file or device path.
	Path string

	media  *reisen.Media
	stream *reisen.VideoStream
	fps    float64
}

// OpenReisen opens the first video stream of the media at path.
// It is an [Opener].
func OpenReisen(path string) (Decoder, error) {
	media, err := reisen.NewMedia(path)
	if err != nil {
		return nil, errors.EPath(errors.Decode, "open video", path, err)
	}
	if err := media.OpenDecode(); err != nil {
		media.Close()
		return nil, errors.EPath(errors.Decode, "open video decode", path, err)
	}
	streams := media.VideoStreams()
	if len(streams) == 0 {
		media.CloseDecode()
		media.Close()
		return nil, errors.EPath(errors.Decode, "open video", path, errors.New("no video stream"))
	}
	vs := streams[0]
	if err := vs.Open(); err != nil {
		media.CloseDecode()
		media.Close()
		return nil, errors.EPath(errors.Decode, "open video stream", path, err)
	}
	d := &ReisenDecoder{Path: path, media: media, stream: vs, fps: DefaultFrameRate}
	if num, den := vs.FrameRate(); num > 0 && den > 0 {
		d.fps = float64(num) / float64(den)
	}
	return d, nil
}

func (d *ReisenDecoder) FrameRate() float64 { return d.fps }

func (d *ReisenDecoder) Next() (*image.RGBA, error) {
	for {
		packet, gotPacket, err := d.media.ReadPacket()
		if err != nil {
			return nil, err
		}
		if !gotPacket {
			return nil, io.EOF
		}
		if packet.Type() != reisen.StreamVideo || packet.StreamIndex() != d.stream.Index() {
			continue
		}
		frame, gotFrame, err := d.stream.ReadVideoFrame()
		if err != nil {
			return nil, err
		}
		if !gotFrame {
			return nil, io.EOF
		}
		if frame == nil {
			continue
		}
		return frame.Image(), nil
	}
}

func (d *ReisenDecoder) Rewind() error {
	return d.stream.Rewind(time.Duration(0))
}

func (d *ReisenDecoder) Close() error {
	err := d.stream.Close()
	d.media.CloseDecode()
	d.media.Close()
	return err
}
