// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package audio

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/base/ringbuf"
	"cogentcore.org/vision/base/session"
	"cogentcore.org/vision/metrics"
)

// Frames is a ring of audio frames delivered to one subscriber.
type Frames = ringbuf.Ring[[]float32]

// Source owns the audio capture device and delivers a copy of every
// frame to each subscriber. The subscriber list belongs to a session:
// [Source.EndSession] closes every subscriber ring and clears the list,
// so subscribers must subscribe again for the next session.
//
// Source is not a global: it is constructed once by its owner and
// passed by pointer to everything that subscribes.
type Source struct {
	open Opener

	mu         sync.Mutex
	device     Device
	subs       []*Frames
	running    bool
	sampleRate float64
	err        error
	id         uint64
	ids        session.Counter

	// out is the snapshot of subs read by the device callback.
	out atomic.Pointer[[]*Frames]
}

// NewSource returns a new [Source] using the given opener.
func NewSource(open Opener) *Source {
	return &Source{open: open}
}

// StartSession opens the device and starts streaming to the current
// subscribers. A failure is recorded as a device error, returned, and
// leaves no stream running. It does nothing if already running.
func (s *Source) StartSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	if s.open == nil {
		s.err = errors.E(errors.Device, "open audio device", errors.New("no audio device configured"))
		return s.err
	}
	dev, err := s.open()
	if err != nil {
		s.err = errors.E(errors.Device, "open audio device", err)
		slog.Error(s.err.Error())
		return s.err
	}
	s.storeOut()
	rate, err := dev.Start(s.publish)
	if err != nil {
		dev.Close()
		s.err = errors.E(errors.Device, "start audio stream", err)
		slog.Error(s.err.Error())
		return s.err
	}
	s.device = dev
	s.sampleRate = rate
	s.running = true
	s.err = nil
	s.id = s.ids.Next()
	metrics.ActiveSessions.WithLabelValues("audio").Inc()
	slog.Info("audio session started", "device", dev.Name(), "sample_rate", rate, "subscribers", len(s.subs))
	return nil
}

// EndSession stops the stream and closes every subscriber ring so
// that subscriber goroutines exit their receive loops.
func (s *Source) EndSession() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	dev := s.device
	subs := s.subs
	s.device = nil
	s.subs = nil
	s.running = false
	s.storeOut()
	s.mu.Unlock()

	err := dev.Close()
	for _, r := range subs {
		r.Close()
	}
	metrics.ActiveSessions.WithLabelValues("audio").Dec()
	slog.Info("audio session ended", "device", dev.Name())
	return errors.E(errors.Device, "close audio device", err)
}

// Subscribe adds a new subscriber and returns its ring.
// The ring is closed at the end of the session or by [Source.Unsubscribe].
func (s *Source) Subscribe() *Frames {
	r := ringbuf.New[[]float32](ringbuf.DefaultCapacity)
	s.mu.Lock()
	s.subs = append(s.subs, r)
	s.storeOut()
	s.mu.Unlock()
	return r
}

// Unsubscribe removes the subscriber and closes its ring.
func (s *Source) Unsubscribe(r *Frames) {
	if r == nil {
		return
	}
	s.mu.Lock()
	s.subs = slices.DeleteFunc(s.subs, func(o *Frames) bool { return o == r })
	s.storeOut()
	s.mu.Unlock()
	r.Close()
}

// storeOut publishes the subscriber list to the callback. Must hold mu.
func (s *Source) storeOut() {
	out := slices.Clone(s.subs)
	s.out.Store(&out)
}

// publish is the device callback. It never blocks: a subscriber that
// has not consumed its previous frames loses the oldest one.
func (s *Source) publish(frame []float32) {
	out := s.out.Load()
	if out == nil {
		return
	}
	for _, r := range *out {
		r.Offer(slices.Clone(frame))
	}
}

// Running returns whether a session is active.
func (s *Source) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Session returns the id of the current or most recent session,
// 0 if none has started.
func (s *Source) Session() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// SampleRate returns the sample rate negotiated for the current session.
func (s *Source) SampleRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampleRate
}

// Subscribers returns the number of current subscribers.
func (s *Source) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Err returns the error of the last failed session start, if any.
func (s *Source) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
