// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uniforms

import (
	"cogentcore.org/vision/audio"
	"cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/gpu"
	"github.com/chewxy/math32"
)

// AudioData is the std140 block of the [Audio] uniforms.
type AudioData struct {
	RMS     float32
	Peak    float32
	Samples int32
	_       float32
}

// Audio are the level of the audio input and its waveform as a
// one row texture, with samples mapped from [-1, 1] to [0, 1].
type Audio struct {
	base[AudioData]
	env     *Env
	frames  *audio.Frames
	session uint64
	texture *gpu.Texture
}

func NewAudio(env *Env) (*Audio, error) {
	u := &Audio{env: env}
	tx, err := env.Device.NewTexture("audio waveform", Row(nil).Bounds().Size(), gpu.RGBA8, gpu.UsageImage)
	if err != nil {
		return nil, err
	}
	u.texture = tx
	u.base, err = newBase(env.Device, DomainAudio, AudioData{}, tx)
	if err != nil {
		tx.Release()
		return nil, err
	}
	u.subscribe()
	return u, nil
}

// subscribe subscribes to the audio source and starts its session.
func (u *Audio) subscribe() {
	src := u.env.Audio
	if src == nil {
		u.err = errors.E(errors.Device, "audio uniforms", errors.New("no audio source"))
		return
	}
	u.err = src.StartSession()
	u.frames = src.Subscribe()
	u.session = src.Session()
}

func (u *Audio) Update(f *Frame) error {
	src := u.env.Audio
	if src != nil && src.Running() && src.Session() != u.session {
		u.subscribe()
	}
	if u.frames == nil {
		return nil
	}
	frame, ok := u.frames.TryPop()
	if !ok {
		return nil
	}
	var sum, peak float32
	wave := make([]float32, len(frame))
	for i, s := range frame {
		sum += s * s
		peak = max(peak, math32.Abs(s))
		wave[i] = (s + 1) / 2
	}
	rms := math32.Sqrt(sum / float32(max(len(frame), 1)))
	d := &u.Data
	d.RMS = audio.SmoothValue(d.RMS, rms, u.env.Smoothing)
	d.Peak = audio.SmoothValue(d.Peak, peak, u.env.Smoothing)
	d.Samples = int32(len(frame))
	tx, replaced, err := UploadImage(u.env.Device, u.texture, "audio waveform", Row(wave))
	u.texture = tx
	if err != nil {
		return err
	}
	if replaced {
		if err := u.setTextures(u.env.Device, tx); err != nil {
			return err
		}
	}
	return u.Buffer.Update()
}

func (u *Audio) Release() {
	if u.env.Audio != nil {
		u.env.Audio.Unsubscribe(u.frames)
	}
	u.Buffer.Release()
	u.texture.Release()
}

// AudioFFTData is the std140 block of the [AudioFFT] uniforms.
type AudioFFTData struct {
	Bins int32
	Peak float32
	_    [2]float32
}

// AudioFFT is the smoothed audio spectrum as a one row texture.
type AudioFFT struct {
	base[AudioFFTData]
	env      *Env
	spectrum *audio.Spectrum
	texture  *gpu.Texture
}

func NewAudioFFT(env *Env) (*AudioFFT, error) {
	u := &AudioFFT{env: env, spectrum: audio.NewSpectrum(env.SpectrumBins, env.Smoothing)}
	tx, err := env.Device.NewTexture("audio spectrum", Row(make([]float32, u.spectrum.Bins)).Bounds().Size(), gpu.RGBA8, gpu.UsageImage)
	if err != nil {
		return nil, err
	}
	u.texture = tx
	u.base, err = newBase(env.Device, DomainAudioFFT, AudioFFTData{Bins: int32(u.spectrum.Bins)}, tx)
	if err != nil {
		tx.Release()
		return nil, err
	}
	if env.Audio == nil {
		u.err = errors.E(errors.Device, "audio fft uniforms", errors.New("no audio source"))
		return u, nil
	}
	u.err = env.Audio.StartSession()
	u.spectrum.StartSession(env.Audio)
	return u, nil
}

func (u *AudioFFT) Update(f *Frame) error {
	u.spectrum.Refresh()
	bins, ok := u.spectrum.TryPop()
	if !ok {
		return nil
	}
	var peak float32
	for _, b := range bins {
		peak = max(peak, b)
	}
	u.Data.Peak = peak
	if err := u.env.Device.WriteTexture(u.texture, Row(bins)); err != nil {
		return err
	}
	return u.Buffer.Update()
}

func (u *AudioFFT) Release() {
	u.spectrum.EndSession()
	u.Buffer.Release()
	u.texture.Release()
}

// MaxFeatures is the number of feature slots in [AudioFeaturesData].
const MaxFeatures = 8

// AudioFeaturesData is the std140 block of the [AudioFeatures] uniforms.
type AudioFeaturesData struct {
	Values [MaxFeatures]float32
	Count  int32
	_      [3]int32
}

// DefaultFeatures are requested when the program does not name any.
var DefaultFeatures = []string{"rms", "spectral_centroid", "spectral_flux", "onset"}

// AudioFeatures are smoothed features from the feature extraction
// service, in the order they were requested.
type AudioFeatures struct {
	base[AudioFeaturesData]
	env    *Env
	client *audio.FeatureClient
}

func NewAudioFeatures(env *Env, features []string) (*AudioFeatures, error) {
	if len(features) == 0 {
		features = DefaultFeatures
	}
	if len(features) > MaxFeatures {
		features = features[:MaxFeatures]
	}
	b, err := newBase(env.Device, DomainAudioFeatures, AudioFeaturesData{Count: int32(len(features))})
	if err != nil {
		return nil, err
	}
	u := &AudioFeatures{base: b, env: env, client: audio.NewFeatureClient(env.FeatureURL, features...)}
	u.client.Alpha = env.Smoothing
	if env.Audio == nil {
		u.err = errors.E(errors.Device, "audio feature uniforms", errors.New("no audio source"))
		return u, nil
	}
	if u.err = env.Audio.StartSession(); u.err == nil {
		u.err = u.client.StartSession(env.context(), env.Audio)
	}
	return u, nil
}

func (u *AudioFeatures) Update(f *Frame) error {
	u.client.Refresh(u.env.context())
	if err := u.client.Err(); err != nil {
		u.err = err
	}
	fs, ok := u.client.TryPop()
	if !ok {
		return nil
	}
	for i, name := range u.client.Features {
		u.Data.Values[i] = fs[name]
	}
	return u.Buffer.Update()
}

func (u *AudioFeatures) Release() {
	u.client.EndSession()
	u.Buffer.Release()
}
