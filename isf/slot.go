// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package isf

import (
	"fmt"
	"image"
	"log/slog"
	"path/filepath"

	"cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/base/iox/imagex"
	"cogentcore.org/vision/gpu"
	"cogentcore.org/vision/uniforms"
)

// SlotStates are the states of an [ImageSlot].
type SlotStates int32

const (
	// SlotEmpty has not started loading.
	SlotEmpty SlotStates = iota

	// SlotLoading is decoding on a goroutine, showing a placeholder.
	SlotLoading

	// SlotReady has the decoded image in its texture.
	SlotReady

	// SlotErrored failed to decode and keeps the placeholder.
	SlotErrored
)

var slotStateNames = [...]string{"empty", "loading", "ready", "errored"}

func (s SlotStates) String() string {
	if s < 0 || int(s) >= len(slotStateNames) {
		return fmt.Sprintf("SlotStates(%d)", int(s))
	}
	return slotStateNames[s]
}

type decoded struct {
	img image.Image
	err error
}

// ImageSlot is an image file decoded asynchronously into a texture.
type ImageSlot struct {
	// Path is the image file.
	Path string

	// State is the current state.
	State SlotStates

	// Err is the decode error in [SlotErrored].
	Err error

	// Texture is the placeholder while loading and the image when ready.
	Texture *gpu.Texture

	result chan decoded
}

// NewImageSlot returns a new empty [ImageSlot] for the given path.
func NewImageSlot(path string) *ImageSlot {
	return &ImageSlot{Path: path}
}

// Start creates the placeholder texture and starts decoding.
func (s *ImageSlot) Start(dev gpu.Device) error {
	if s.State != SlotEmpty {
		return nil
	}
	tx, _, err := uniforms.UploadImage(dev, nil, "placeholder "+filepath.Base(s.Path), gpu.Placeholder())
	if err != nil {
		return err
	}
	s.Texture = tx
	s.State = SlotLoading
	s.result = make(chan decoded, 1)
	go func(path string, res chan<- decoded) {
		img, _, err := imagex.Open(path)
		res <- decoded{img, err}
	}(s.Path, s.result)
	return nil
}

// Poll advances the slot without blocking: an empty slot starts
// loading, and a loading slot becomes ready or errored once its
// decode finishes. It returns whether the texture changed.
func (s *ImageSlot) Poll(dev gpu.Device) (bool, error) {
	switch s.State {
	case SlotEmpty:
		if err := s.Start(dev); err != nil {
			return false, err
		}
		return true, nil
	case SlotLoading:
		select {
		case res := <-s.result:
			return true, s.finish(dev, res)
		default:
		}
	}
	return false, nil
}

func (s *ImageSlot) finish(dev gpu.Device, res decoded) error {
	if res.err != nil {
		s.State = SlotErrored
		s.Err = errors.EPath(errors.Decode, "decode image", s.Path, res.err)
		slog.Error(s.Err.Error())
		return nil
	}
	tx, _, err := uniforms.UploadImage(dev, nil, filepath.Base(s.Path), res.img)
	if err != nil {
		s.State = SlotErrored
		s.Err = err
		return err
	}
	s.Texture.Release()
	s.Texture = tx
	s.State = SlotReady
	return nil
}

// Release releases the texture. A decode in progress finishes
// into its buffered channel and is discarded.
func (s *ImageSlot) Release() {
	s.Texture.Release()
	s.Texture = nil
}
