// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package video

import (
	"errors"
	"image"
	"image/color"
	"io"
	"sync"
	"testing"
	"time"

	verrors "cogentcore.org/vision/base/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDecoder yields frames whose first pixel red channel is the frame index.
type fakeDecoder struct {
	mu      sync.Mutex
	n       int
	pos     int
	rewinds int
	closed  int
	fail    error
}

func (d *fakeDecoder) FrameRate() float64 { return 1000 }

func (d *fakeDecoder) Next() (*image.RGBA, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail != nil {
		return nil, d.fail
	}
	if d.pos >= d.n {
		return nil, io.EOF
	}
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.SetRGBA(0, 0, color.RGBA{uint8(d.pos), 0, 0, 255})
	d.pos++
	return img, nil
}

func (d *fakeDecoder) Rewind() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pos = 0
	d.rewinds++
	return nil
}

func (d *fakeDecoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	return nil
}

func (d *fakeDecoder) stats() (rewinds, closed int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rewinds, d.closed
}

func TestSessionLoops(t *testing.T) {
	dec := &fakeDecoder{n: 2}
	s := Start("test", dec, image.Point{}, true)
	assert.Eventually(t, func() bool {
		s.TryPop()
		r, _ := dec.stats()
		return r >= 2
	}, 2*time.Second, time.Millisecond)
	require.NoError(t, s.EndSession())
	_, closed := dec.stats()
	assert.Equal(t, 1, closed)
	assert.NoError(t, s.EndSession())
	_, closed = dec.stats()
	assert.Equal(t, 1, closed)
	assert.False(t, s.Running())
}

func TestSessionPause(t *testing.T) {
	dec := &fakeDecoder{n: 1000}
	s := Start("test", dec, image.Point{}, true)
	s.Pause()
	assert.Eventually(t, func() bool {
		s.TryPop()
		return s.Paused()
	}, time.Second, time.Millisecond)
	s.TryPop()
	time.Sleep(20 * time.Millisecond)
	s.TryPop()
	_, ok := s.TryPop()
	assert.False(t, ok)
	s.Unpause()
	assert.Eventually(t, func() bool {
		_, ok := s.TryPop()
		return ok
	}, time.Second, time.Millisecond)
	require.NoError(t, s.EndSession())
}

func TestSessionEndWhilePaused(t *testing.T) {
	dec := &fakeDecoder{n: 10}
	s := Start("test", dec, image.Point{}, true)
	s.Pause()
	assert.Eventually(t, func() bool {
		s.TryPop()
		return s.Paused()
	}, time.Second, time.Millisecond)
	assert.NoError(t, s.EndSession())
}

func TestSessionEndWithFullControls(t *testing.T) {
	dec := &fakeDecoder{n: 10}
	s := Start("test", dec, image.Point{}, true)
	s.Pause()
	assert.Eventually(t, func() bool {
		s.TryPop()
		return s.Paused()
	}, time.Second, time.Millisecond)
	for range 20 {
		s.Unpause()
		s.Pause()
	}
	start := time.Now()
	assert.NoError(t, s.EndSession())
	assert.Less(t, time.Since(start), time.Second)
	_, closed := dec.stats()
	assert.Equal(t, 1, closed)
}

func TestSessionDecodeError(t *testing.T) {
	dec := &fakeDecoder{fail: errors.New("corrupt")}
	s := Start("bad.mp4", dec, image.Point{}, true)
	assert.Eventually(t, func() bool { return s.Err() != nil }, time.Second, time.Millisecond)
	assert.Equal(t, verrors.Decode, verrors.KindOf(s.Err()))
	assert.NoError(t, s.EndSession())
}

func TestOpenError(t *testing.T) {
	_, err := Open(func(string) (Decoder, error) { return nil, errors.New("nope") }, "/dev/video9", image.Point{})
	assert.Equal(t, verrors.Device, verrors.KindOf(err))
}

func TestScale(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 200))
	assert.Same(t, img, Scale(img, image.Point{}))
	assert.Same(t, img, Scale(img, image.Pt(800, 800)))
	assert.Equal(t, image.Pt(100, 50), Scale(img, image.Pt(100, 100)).Bounds().Size())
}
