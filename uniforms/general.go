// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uniforms

import (
	"github.com/chewxy/math32"
)

// GeneralData is the std140 block of the [General] uniforms.
type GeneralData struct {
	Time       float32
	Delta      float32
	Frame      int32
	_          int32
	Resolution [2]float32
	Mouse      [2]float32

	// Date is year, month, day and seconds since midnight.
	Date [4]float32
}

// General are the timing, resolution, mouse and date uniforms.
type General struct {
	base[GeneralData]
}

func NewGeneral(env *Env) (*General, error) {
	b, err := newBase(env.Device, DomainGeneral, GeneralData{})
	return &General{b}, err
}

func (u *General) Update(f *Frame) error {
	d := &u.Data
	d.Time = f32(f.Time)
	d.Delta = f32(f.Delta)
	d.Frame = int32(f.Index)
	d.Resolution = [2]float32{float32(f.Size.X), float32(f.Size.Y)}
	d.Mouse = [2]float32{float32(f.Mouse.X), float32(f.Mouse.Y)}
	now := f.Now
	mid := float32(now.Hour()*3600+now.Minute()*60+now.Second()) + float32(now.Nanosecond())/1e9
	d.Date = [4]float32{float32(now.Year()), float32(now.Month()), float32(now.Day()), mid}
	return u.Buffer.Update()
}

// MultipassData is the std140 block of the [Multipass] uniforms.
type MultipassData struct {
	Pass   int32
	Passes int32
	_      [2]int32
}

// Multipass holds the index of the pass being rendered.
type Multipass struct {
	base[MultipassData]
}

func NewMultipass(env *Env) (*Multipass, error) {
	b, err := newBase(env.Device, DomainMultipass, MultipassData{Passes: 1})
	return &Multipass{b}, err
}

func (u *Multipass) Update(f *Frame) error { return nil }

// SetPass writes the index of the pass about to be rendered.
func (u *Multipass) SetPass(pass, passes int) error {
	u.Data.Pass, u.Data.Passes = int32(pass), int32(passes)
	return u.Buffer.Update()
}

// CameraData is the std140 block of the [Camera] uniforms.
type CameraData struct {
	Position [4]float32
	Target   [4]float32
	Up       [4]float32
	Fov      float32
	Aspect   float32
	_        [2]float32
}

// Camera is a camera orbiting its target.
type Camera struct {
	base[CameraData]
	config CameraConfig
}

// DefaultCamera is used when the program does not configure a camera.
var DefaultCamera = CameraConfig{Position: [3]float32{0, 0, 3}, Fov: 60}

func NewCamera(env *Env, cfg *CameraConfig) (*Camera, error) {
	c := DefaultCamera
	if cfg != nil {
		c = *cfg
	}
	b, err := newBase(env.Device, DomainCamera, CameraData{Up: [4]float32{0, 1, 0, 0}, Fov: c.Fov})
	u := &Camera{base: b, config: c}
	if err == nil {
		u.orbit(0)
	}
	return u, err
}

func (u *Camera) orbit(angle float32) {
	c := &u.config
	dx, dz := c.Position[0]-c.Target[0], c.Position[2]-c.Target[2]
	cos, sin := math32.Cos(angle), math32.Sin(angle)
	u.Data.Position = [4]float32{c.Target[0] + dx*cos - dz*sin, c.Position[1], c.Target[2] + dx*sin + dz*cos, 1}
	u.Data.Target = [4]float32{c.Target[0], c.Target[1], c.Target[2], 1}
}

func (u *Camera) Update(f *Frame) error {
	u.orbit(u.config.Orbit * f32(f.Time))
	if f.Size.Y > 0 {
		u.Data.Aspect = float32(f.Size.X) / float32(f.Size.Y)
	}
	return u.Buffer.Update()
}

// ColorData is the std140 block of the [Color] uniforms.
type ColorData struct {
	Palette [4][4]float32
	Shift   float32
	_       [3]float32
}

// DefaultPalette is used when the program does not configure one.
var DefaultPalette = [4][4]float32{
	{0.5, 0.5, 0.5, 1},
	{0.5, 0.5, 0.5, 1},
	{1, 1, 1, 1},
	{0, 0.33, 0.67, 1},
}

// Color is a palette cycling over time.
type Color struct {
	base[ColorData]
	cycle float32
}

func NewColor(env *Env, palette [][4]float32, cycle float32) (*Color, error) {
	d := ColorData{Palette: DefaultPalette}
	for i, c := range palette {
		if i < len(d.Palette) {
			d.Palette[i] = c
		}
	}
	b, err := newBase(env.Device, DomainColor, d)
	return &Color{base: b, cycle: cycle}, err
}

func (u *Color) Update(f *Frame) error {
	s := u.cycle * f32(f.Time)
	u.Data.Shift = s - math32.Floor(s)
	return u.Buffer.Update()
}

// GeometryData is the std140 block of the [Geometry] uniforms.
type GeometryData struct {
	Translate [2]float32 `json:"translate"`
	Rotate    float32    `json:"rotate"`
	Zoom      float32    `json:"zoom"`
}

// Geometry is a 2D transform edited by the user.
type Geometry struct {
	base[GeometryData]
}

func NewGeometry(env *Env, cfg *GeometryData) (*Geometry, error) {
	d := GeometryData{Zoom: 1}
	if cfg != nil {
		d = *cfg
	}
	b, err := newBase(env.Device, DomainGeometry, d)
	return &Geometry{b}, err
}

func (u *Geometry) Update(f *Frame) error { return u.Buffer.Update() }

// NoiseData is the std140 block of the [Noise] uniforms.
type NoiseData struct {
	Seed    float32
	Scale   float32
	Octaves int32
	Offset  float32
}

// Noise are noise parameters with an offset advancing over time.
type Noise struct {
	base[NoiseData]
	speed float32
}

// DefaultNoise is used when the program does not configure noise.
var DefaultNoise = NoiseConfig{Seed: 1, Scale: 1, Octaves: 4, Speed: 0.1}

func NewNoise(env *Env, cfg *NoiseConfig) (*Noise, error) {
	c := DefaultNoise
	if cfg != nil {
		c = *cfg
	}
	b, err := newBase(env.Device, DomainNoise, NoiseData{Seed: c.Seed, Scale: c.Scale, Octaves: c.Octaves})
	return &Noise{base: b, speed: c.Speed}, err
}

func (u *Noise) Update(f *Frame) error {
	u.Data.Offset = u.speed * f32(f.Time)
	return u.Buffer.Update()
}
