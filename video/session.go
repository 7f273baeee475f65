// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package video

import (
	"image"
	"io"
	"log/slog"
	"sync"
	"time"

	"cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/base/ringbuf"
	"cogentcore.org/vision/base/session"
	"cogentcore.org/vision/metrics"
	"golang.org/x/image/draw"
)

// control is a message to the decode goroutine.
type control int

const (
	pause control = iota
	unpause
)

// Session decodes frames from a [Decoder] on its own goroutine at the
// source frame rate, publishing each into a ring that the render loop
// samples with [Session.TryPop]. File sources loop back to the first
// frame at the end of the stream.
type Session struct {
	// Name identifies the session in logs and metrics.
	Name string

	// MaxSize is the maximum frame size; larger frames are scaled
	// down preserving aspect ratio. Zero means no limit.
	MaxSize image.Point

	// Loop rewinds at the end of the stream instead of ending the session.
	Loop bool

	dec     Decoder
	out     *ringbuf.Ring[*image.RGBA]
	ctrl    chan control
	done    chan struct{}
	wg      sync.WaitGroup
	running bool

	mu     sync.Mutex
	paused bool
	err    error
}

// Start starts a new [Session] on dec.
func Start(name string, dec Decoder, maxSize image.Point, loop bool) *Session {
	s := &Session{Name: name, MaxSize: maxSize, Loop: loop, dec: dec}
	s.out = ringbuf.New[*image.RGBA](ringbuf.DefaultCapacity)
	s.ctrl = make(chan control, 4)
	s.done = make(chan struct{})
	s.running = true
	metrics.ActiveSessions.WithLabelValues("video").Inc()
	slog.Info("video session started", "name", name, "fps", dec.FrameRate())
	s.wg.Add(1)
	go s.run()
	return s
}

// Open opens path with open and starts a looping [Session] on it.
func Open(open Opener, path string, maxSize image.Point) (*Session, error) {
	if open == nil {
		open = OpenReisen
	}
	dec, err := open(path)
	if err != nil {
		return nil, errors.EPath(errors.Device, "open video", path, err)
	}
	return Start(path, dec, maxSize, true), nil
}

func (s *Session) interval() time.Duration {
	fps := s.dec.FrameRate()
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	return time.Duration(float64(time.Second) / fps)
}

func (s *Session) run() {
	defer s.wg.Done()
	interval := s.interval()
	for {
		start := time.Now()
		frame, err := s.dec.Next()
		if err == io.EOF && s.Loop {
			if err = s.dec.Rewind(); err == nil {
				frame, err = s.dec.Next()
			}
		}
		if err != nil {
			if err != io.EOF {
				s.setErr(errors.EPath(errors.Decode, "decode video frame", s.Name, err))
			}
			return
		}
		if s.out.Push(Scale(frame, s.MaxSize)) != nil {
			return
		}
		if !s.wait(interval - time.Since(start)) {
			return
		}
	}
}

// wait handles control messages, blocking while paused and then
// sleeping for d. It returns false when the session is closing.
func (s *Session) wait(d time.Duration) bool {
	timer := time.NewTimer(max(d, 0))
	defer timer.Stop()
	paused := false
	for {
		var tick <-chan time.Time
		if !paused {
			tick = timer.C
		}
		select {
		case <-s.done:
			return false
		case c := <-s.ctrl:
			paused = c == pause
			s.mu.Lock()
			s.paused = paused
			s.mu.Unlock()
		case <-tick:
			return true
		}
	}
}

// Pause stops decoding after the current frame.
func (s *Session) Pause() { s.send(pause) }

// Unpause resumes decoding.
func (s *Session) Unpause() { s.send(unpause) }

// Paused returns whether the decode goroutine is paused.
func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Session) send(c control) {
	if !s.running {
		return
	}
	select {
	case s.ctrl <- c:
	default:
		slog.Debug("video control dropped", "name", s.Name)
	}
}

// TryPop returns the newest decoded frame without blocking.
func (s *Session) TryPop() (*image.RGBA, bool) {
	return s.out.TryPop()
}

// Latest returns the most recently popped frame.
func (s *Session) Latest() (*image.RGBA, bool) {
	return s.out.Latest()
}

// Running returns whether [Session.EndSession] has not yet been called.
func (s *Session) Running() bool { return s.running }

// EndSession signals the decode goroutine to stop, joins it and
// closes the decoder. If the goroutine does not exit in time it is
// abandoned along with the decoder.
func (s *Session) EndSession() error {
	if !s.running {
		return nil
	}
	close(s.done)
	s.running = false
	s.out.Close()
	metrics.ActiveSessions.WithLabelValues("video").Dec()
	metrics.Drops.WithLabelValues("video").Add(float64(s.out.Drops()))
	if err := session.Join(&s.wg, s.Name, 0); err != nil {
		metrics.UncleanSessions.WithLabelValues("video").Inc()
		s.setErr(err)
		return err
	}
	slog.Info("video session ended", "name", s.Name)
	return errors.Log(s.dec.Close())
}

// Err returns the decode error that ended the session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	slog.Error(err.Error())
}

// Scale returns img scaled down to fit within maxSize preserving
// its aspect ratio, or img itself if it already fits or maxSize is zero.
func Scale(img *image.RGBA, maxSize image.Point) *image.RGBA {
	sz := img.Bounds().Size()
	if maxSize.X <= 0 || maxSize.Y <= 0 || (sz.X <= maxSize.X && sz.Y <= maxSize.Y) {
		return img
	}
	f := min(float64(maxSize.X)/float64(sz.X), float64(maxSize.Y)/float64(sz.Y))
	nsz := image.Pt(max(int(float64(sz.X)*f), 1), max(int(float64(sz.Y)*f), 1))
	dst := image.NewRGBA(image.Rectangle{Max: nsz})
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
