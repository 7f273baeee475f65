// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package audio

import (
	"log/slog"
	"sync"

	"cogentcore.org/vision/base/ringbuf"
	"cogentcore.org/vision/base/session"
	"cogentcore.org/vision/metrics"
	"github.com/chewxy/math32"
	"github.com/mjibson/go-dsp/fft"
)

// DefaultBins is the default number of spectrum bins.
const DefaultBins = 64

// DefaultAlpha is the default smoothing factor.
const DefaultAlpha = 0.8

// Spectrum computes a smoothed magnitude spectrum over the last two
// frames of a [Source] on its own goroutine, publishing each result
// into a ring that the render loop samples with [Spectrum.TryPop].
type Spectrum struct {
	// Bins is the number of output bins.
	Bins int

	// Alpha is the smoothing factor: smoothed = Alpha*prev + (1-Alpha)*new.
	Alpha float32

	src     *Source
	in      *Frames
	out     *ringbuf.Ring[[]float32]
	wg      sync.WaitGroup
	session uint64
	running bool
}

// NewSpectrum returns a new [Spectrum] with the given number of bins
// and smoothing factor, using the defaults for values <= 0.
func NewSpectrum(bins int, alpha float32) *Spectrum {
	if bins <= 0 {
		bins = DefaultBins
	}
	if alpha < 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}
	return &Spectrum{Bins: bins, Alpha: alpha}
}

// StartSession subscribes to src and starts the analysis goroutine.
// The source session must be started separately by its owner.
func (s *Spectrum) StartSession(src *Source) {
	if s.running {
		s.EndSession()
	}
	s.src = src
	s.in = src.Subscribe()
	s.out = ringbuf.New[[]float32](ringbuf.DefaultCapacity)
	s.session = src.Session()
	s.running = true
	metrics.ActiveSessions.WithLabelValues("fft").Inc()
	s.wg.Add(1)
	go s.run(s.in, s.out)
}

func (s *Spectrum) run(in *Frames, out *ringbuf.Ring[[]float32]) {
	defer s.wg.Done()
	var prev, window, smoothed []float32
	for {
		frame, ok := in.Pop()
		if !ok {
			return
		}
		window = append(append(window[:0], prev...), frame...)
		prev = frame
		next := Analyze(window, s.Bins)
		smoothed = Smooth(smoothed, next, s.Alpha)
		if out.Push(smoothed) != nil {
			return
		}
	}
}

// Refresh resubscribes when the source has moved on to a new session,
// which closed the previous subscription.
func (s *Spectrum) Refresh() {
	if !s.running || s.src == nil {
		return
	}
	if s.src.Running() && s.src.Session() != s.session {
		slog.Debug("spectrum resubscribing", "session", s.src.Session())
		s.StartSession(s.src)
	}
}

// TryPop returns the newest published spectrum without blocking.
func (s *Spectrum) TryPop() ([]float32, bool) {
	if s.out == nil {
		return nil, false
	}
	return s.out.TryPop()
}

// Latest returns the most recently popped spectrum.
func (s *Spectrum) Latest() ([]float32, bool) {
	if s.out == nil {
		return nil, false
	}
	return s.out.Latest()
}

// Running returns whether the analysis goroutine has been started.
func (s *Spectrum) Running() bool { return s.running }

// EndSession unsubscribes from the source and joins the goroutine.
func (s *Spectrum) EndSession() error {
	if !s.running {
		return nil
	}
	s.running = false
	s.src.Unsubscribe(s.in)
	s.out.Close()
	metrics.ActiveSessions.WithLabelValues("fft").Dec()
	err := session.Join(&s.wg, "fft", 0)
	if err != nil {
		metrics.UncleanSessions.WithLabelValues("fft").Inc()
	}
	metrics.Drops.WithLabelValues("fft").Add(float64(s.out.Drops()))
	return err
}

// Analyze applies a Hann window to samples, runs a forward FFT and
// returns the magnitude of the lower half of the spectrum block
// averaged into the given number of bins.
func Analyze(samples []float32, bins int) []float32 {
	n := len(samples)
	res := make([]float32, bins)
	if n < 2 || bins <= 0 {
		return res
	}
	in := make([]float64, n)
	for i, v := range samples {
		w := 0.5 - 0.5*math32.Cos(2*math32.Pi*float32(i)/float32(n-1))
		in[i] = float64(v * w)
	}
	spec := fft.FFTReal(in)
	half := n / 2
	mags := make([]float32, half)
	for i := range mags {
		re, im := float32(real(spec[i])), float32(imag(spec[i]))
		mags[i] = math32.Sqrt(re*re+im*im) * 2 / float32(n)
	}
	for b := range res {
		lo := b * half / bins
		hi := (b + 1) * half / bins
		if hi <= lo {
			hi = lo + 1
		}
		if hi > half {
			hi = half
		}
		if lo >= hi {
			continue
		}
		var sum float32
		for _, m := range mags[lo:hi] {
			sum += m
		}
		res[b] = sum / float32(hi-lo)
	}
	return res
}

// SmoothValue returns alpha*prev + (1-alpha)*next.
func SmoothValue(prev, next, alpha float32) float32 {
	return alpha*prev + (1-alpha)*next
}

// Smooth returns a new slice with next smoothed against prev, or
// next itself when prev has a different length.
func Smooth(prev, next []float32, alpha float32) []float32 {
	if len(prev) != len(next) {
		return next
	}
	out := make([]float32, len(next))
	for i := range next {
		out[i] = SmoothValue(prev[i], next[i], alpha)
	}
	return out
}
