// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uniforms

import (
	"log/slog"
	"slices"

	"cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/gpu"
)

// ParseDomains returns the domains named in a program's uniform
// subscriptions, in order and without duplicates. Unknown names are ignored.
func ParseDomains(names []string) []Domains {
	var ds []Domains
	for _, n := range names {
		d, ok := DomainFromString(n)
		if !ok {
			slog.Debug("ignoring unknown uniform subscription", "name", n)
			continue
		}
		if !slices.Contains(ds, d) {
			ds = append(ds, d)
		}
	}
	return ds
}

// Store owns the uniform domains that a program subscribes to.
// Their bind groups follow each other in subscription order.
type Store struct {
	env     *Env
	domains []Uniforms
}

// NewStore returns a new [Store] with the domains named in names.
func NewStore(env *Env, names []string, cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	st := &Store{env: env}
	for _, d := range ParseDomains(names) {
		u, err := newUniforms(env, d, cfg)
		if err != nil {
			st.Release()
			return nil, err
		}
		st.domains = append(st.domains, u)
	}
	return st, nil
}

func newUniforms(env *Env, d Domains, cfg *Config) (Uniforms, error) {
	switch d {
	case DomainGeneral:
		return NewGeneral(env)
	case DomainAudio:
		return NewAudio(env)
	case DomainAudioFFT:
		return NewAudioFFT(env)
	case DomainAudioFeatures:
		return NewAudioFeatures(env, cfg.Features)
	case DomainCamera:
		return NewCamera(env, cfg.Camera)
	case DomainColor:
		return NewColor(env, cfg.Palette, cfg.Cycle)
	case DomainGeometry:
		return NewGeometry(env, cfg.Geometry)
	case DomainImage:
		return NewImage(env, cfg.Image)
	case DomainNoise:
		return NewNoise(env, cfg.Noise)
	case DomainMultipass:
		return NewMultipass(env)
	case DomainWebcam:
		return NewWebcam(env, cfg.Webcam)
	}
	panic("uniforms: unknown domain " + d.String())
}

// Domains returns the domains in the store, in binding order.
func (st *Store) Domains() []Domains {
	ds := make([]Domains, len(st.domains))
	for i, u := range st.domains {
		ds[i] = u.Domain()
	}
	return ds
}

// Get returns the uniforms of the given domain.
func (st *Store) Get(d Domains) (Uniforms, bool) {
	for _, u := range st.domains {
		if u.Domain() == d {
			return u, true
		}
	}
	return nil, false
}

// Multipass returns the multipass uniforms, nil if not subscribed.
func (st *Store) Multipass() *Multipass {
	u, _ := st.Get(DomainMultipass)
	mp, _ := u.(*Multipass)
	return mp
}

// Image returns the image uniforms, nil if not subscribed.
func (st *Store) Image() *Image {
	u, _ := st.Get(DomainImage)
	im, _ := u.(*Image)
	return im
}

// Update updates every domain for the frame. A failing domain does
// not stop the others; the failures are returned joined.
func (st *Store) Update(f *Frame) error {
	var errs []error
	for _, u := range st.domains {
		if err := u.Update(f); err != nil {
			errs = append(errs, errors.E(errors.Unknown, "update "+u.Domain().String()+" uniforms", err))
		}
	}
	return errors.Join(errs...)
}

// Layouts returns the bind group layouts in binding order.
func (st *Store) Layouts() []*gpu.BindGroupLayout {
	ls := make([]*gpu.BindGroupLayout, len(st.domains))
	for i, u := range st.domains {
		ls[i] = u.Layout()
	}
	return ls
}

// Groups returns the current bind groups in binding order.
func (st *Store) Groups() []*gpu.BindGroup {
	gs := make([]*gpu.BindGroup, len(st.domains))
	for i, u := range st.domains {
		gs[i] = u.Group()
	}
	return gs
}

// NeedsRecompile returns whether any domain changed its layout.
func (st *Store) NeedsRecompile() bool {
	return slices.ContainsFunc(st.domains, Uniforms.NeedsRecompile)
}

// ClearRecompile clears the recompile flag of every domain.
func (st *Store) ClearRecompile() {
	for _, u := range st.domains {
		u.ClearRecompile()
	}
}

// Errors returns the current producer error of each domain that has one.
func (st *Store) Errors() map[Domains]error {
	errs := map[Domains]error{}
	for _, u := range st.domains {
		if err := u.Err(); err != nil {
			errs[u.Domain()] = err
		}
	}
	return errs
}

// Release ends every session and releases all GPU resources.
func (st *Store) Release() {
	for _, u := range st.domains {
		u.Release()
	}
	st.domains = nil
}
