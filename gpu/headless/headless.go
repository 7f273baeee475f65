// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package headless provides a [gpu.Device] that keeps all resources
// in host memory. Shaders are not executed: draws are recorded, and
// an optional [Device.Shade] function stands in for the fragment stage.
// It is used for tests and for running without a display.
package headless

import (
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"sync"

	"cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/gpu"
)

// Draw is a record of one [gpu.Device.Draw] call.
type Draw struct {
	Pipeline   string
	Target     string
	BindGroups []string
	Clear      bool
}

// Device is an in-memory [gpu.Device].
type Device struct {
	// Shade, if set, is called for every draw after any clear,
	// to produce the pixels of the target.
	Shade func(pass *gpu.RenderPass, target *image.RGBA)

	mu    sync.Mutex
	draws []Draw
	live  map[*handle]struct{}
}

var _ gpu.Device = (*Device)(nil)

// New returns a new headless [Device].
func New() *Device {
	return &Device{live: map[*handle]struct{}{}}
}

type handle struct {
	dev   *Device
	kind  string
	label string

	// pixels for textures, bytes for buffers
	img  *image.RGBA
	data []byte

	released bool
}

func (h *handle) Release() {
	h.dev.mu.Lock()
	h.released = true
	delete(h.dev.live, h)
	h.dev.mu.Unlock()
	h.img = nil
	h.data = nil
}

func (dv *Device) newHandle(kind, label string) *handle {
	h := &handle{dev: dv, kind: kind, label: label}
	dv.mu.Lock()
	dv.live[h] = struct{}{}
	dv.mu.Unlock()
	if gpu.Debug {
		slog.Debug("headless: new", "kind", kind, "label", label)
	}
	return h
}

// Live returns the number of resources of the given kind ("texture",
// "buffer", "shader", "bindgrouplayout", "bindgroup", "pipelinelayout",
// "pipeline") that have been created and not released.
// An empty kind counts all resources.
func (dv *Device) Live(kind string) int {
	dv.mu.Lock()
	defer dv.mu.Unlock()
	n := 0
	for h := range dv.live {
		if kind == "" || h.kind == kind {
			n++
		}
	}
	return n
}

// Draws returns the draws recorded so far.
func (dv *Device) Draws() []Draw {
	dv.mu.Lock()
	defer dv.mu.Unlock()
	return append([]Draw(nil), dv.draws...)
}

// ResetDraws clears the draw record.
func (dv *Device) ResetDraws() {
	dv.mu.Lock()
	dv.draws = nil
	dv.mu.Unlock()
}

func handleOf(r gpu.Releaser, kind string) (*handle, error) {
	h, ok := r.(*handle)
	if !ok || h == nil || h.released || h.kind != kind {
		return nil, fmt.Errorf("headless: invalid or released %s", kind)
	}
	return h, nil
}

// Pixels returns the live pixel memory of the texture,
// or nil if it is not a valid headless texture.
func Pixels(tx *gpu.Texture) *image.RGBA {
	if tx == nil {
		return nil
	}
	h, err := handleOf(tx.Handle, "texture")
	if err != nil {
		return nil
	}
	return h.img
}

// Bytes returns the live memory of the buffer.
func Bytes(bf *gpu.Buffer) []byte {
	if bf == nil {
		return nil
	}
	h, err := handleOf(bf.Handle, "buffer")
	if err != nil {
		return nil
	}
	return h.data
}

func (dv *Device) NewTexture(label string, size image.Point, format gpu.TextureFormats, usage gpu.TextureUsage) (*gpu.Texture, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("headless: texture %q has invalid size %v", label, size)
	}
	h := dv.newHandle("texture", label)
	h.img = image.NewRGBA(image.Rectangle{Max: size})
	return &gpu.Texture{Label: label, Size: size, Format: format, Usage: usage, Handle: h}, nil
}

func (dv *Device) WriteTexture(tx *gpu.Texture, img image.Image) error {
	h, err := handleOf(tx.Handle, "texture")
	if err != nil {
		return err
	}
	rimg := gpu.ImageToRGBA(img)
	if rimg.Rect.Size() != tx.Size {
		return fmt.Errorf("headless: write %v image to %v texture %q", rimg.Rect.Size(), tx.Size, tx.Label)
	}
	draw.Draw(h.img, h.img.Rect, rimg, image.Point{}, draw.Src)
	return nil
}

func (dv *Device) ClearTexture(tx *gpu.Texture) error {
	h, err := handleOf(tx.Handle, "texture")
	if err != nil {
		return err
	}
	clear(h.img.Pix)
	return nil
}

func (dv *Device) CopyTexture(dst, src *gpu.Texture) error {
	dh, err := handleOf(dst.Handle, "texture")
	if err != nil {
		return err
	}
	sh, err := handleOf(src.Handle, "texture")
	if err != nil {
		return err
	}
	if dst.Size != src.Size {
		return fmt.Errorf("headless: copy %v texture %q to %v texture %q", src.Size, src.Label, dst.Size, dst.Label)
	}
	copy(dh.img.Pix, sh.img.Pix)
	return nil
}

func (dv *Device) ReadTexture(tx *gpu.Texture) (*image.RGBA, error) {
	h, err := handleOf(tx.Handle, "texture")
	if err != nil {
		return nil, err
	}
	out := image.NewRGBA(h.img.Rect)
	copy(out.Pix, h.img.Pix)
	return out, nil
}

func (dv *Device) NewBuffer(label string, size int) (*gpu.Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("headless: buffer %q has invalid size %d", label, size)
	}
	h := dv.newHandle("buffer", label)
	h.data = make([]byte, size)
	return &gpu.Buffer{Label: label, Size: size, Handle: h}, nil
}

func (dv *Device) WriteBuffer(buf *gpu.Buffer, data []byte) error {
	h, err := handleOf(buf.Handle, "buffer")
	if err != nil {
		return err
	}
	if len(data) > len(h.data) {
		return fmt.Errorf("headless: write %d bytes to %d byte buffer %q", len(data), len(h.data), buf.Label)
	}
	copy(h.data, data)
	return nil
}

func (dv *Device) NewShaderModule(label string, stage gpu.ShaderStages, code []byte) (*gpu.ShaderModule, error) {
	if len(code) == 0 {
		return nil, errors.New("headless: empty shader code for " + label)
	}
	h := dv.newHandle("shader", label)
	h.data = append([]byte(nil), code...)
	return &gpu.ShaderModule{Label: label, Stage: stage, Handle: h}, nil
}

func (dv *Device) NewBindGroupLayout(label string, hasBuffer bool, textures int) (*gpu.BindGroupLayout, error) {
	h := dv.newHandle("bindgrouplayout", label)
	return &gpu.BindGroupLayout{Label: label, HasBuffer: hasBuffer, Textures: textures, Handle: h}, nil
}

func (dv *Device) NewBindGroup(label string, layout *gpu.BindGroupLayout, buf *gpu.Buffer, textures []*gpu.Texture) (*gpu.BindGroup, error) {
	if _, err := handleOf(layout.Handle, "bindgrouplayout"); err != nil {
		return nil, err
	}
	if layout.HasBuffer != (buf != nil) || layout.Textures != len(textures) {
		return nil, fmt.Errorf("headless: bind group %q does not match layout %q", label, layout.Label)
	}
	for _, tx := range textures {
		if _, err := handleOf(tx.Handle, "texture"); err != nil {
			return nil, fmt.Errorf("headless: bind group %q: %w", label, err)
		}
	}
	h := dv.newHandle("bindgroup", label)
	return &gpu.BindGroup{Label: label, Layout: layout, Handle: h}, nil
}

func (dv *Device) NewPipelineLayout(label string, layouts []*gpu.BindGroupLayout) (*gpu.PipelineLayout, error) {
	for _, bl := range layouts {
		if _, err := handleOf(bl.Handle, "bindgrouplayout"); err != nil {
			return nil, err
		}
	}
	h := dv.newHandle("pipelinelayout", label)
	return &gpu.PipelineLayout{Label: label, Layouts: append([]*gpu.BindGroupLayout(nil), layouts...), Handle: h}, nil
}

func (dv *Device) NewRenderPipeline(desc *gpu.RenderPipelineDesc) (*gpu.RenderPipeline, error) {
	if _, err := handleOf(desc.Layout.Handle, "pipelinelayout"); err != nil {
		return nil, err
	}
	if _, err := handleOf(desc.Vertex.Handle, "shader"); err != nil {
		return nil, err
	}
	if _, err := handleOf(desc.Fragment.Handle, "shader"); err != nil {
		return nil, err
	}
	h := dv.newHandle("pipeline", desc.Label)
	return &gpu.RenderPipeline{Label: desc.Label, Layout: desc.Layout, Format: desc.Format, Handle: h}, nil
}

func (dv *Device) Draw(pass *gpu.RenderPass) error {
	if _, err := handleOf(pass.Pipeline.Handle, "pipeline"); err != nil {
		return err
	}
	th, err := handleOf(pass.Target.Handle, "texture")
	if err != nil {
		return err
	}
	if len(pass.BindGroups) != len(pass.Pipeline.Layout.Layouts) {
		return fmt.Errorf("headless: draw with %d bind groups, pipeline %q wants %d", len(pass.BindGroups), pass.Pipeline.Label, len(pass.Pipeline.Layout.Layouts))
	}
	rec := Draw{Pipeline: pass.Pipeline.Label, Target: pass.Target.Label, Clear: pass.Clear}
	for i, bg := range pass.BindGroups {
		if _, err := handleOf(bg.Handle, "bindgroup"); err != nil {
			return err
		}
		if bg.Layout != pass.Pipeline.Layout.Layouts[i] {
			return fmt.Errorf("headless: bind group %q at %d does not use the pipeline layout", bg.Label, i)
		}
		rec.BindGroups = append(rec.BindGroups, bg.Label)
	}
	if pass.Clear {
		clear(th.img.Pix)
	}
	if dv.Shade != nil {
		dv.Shade(pass, th.img)
	}
	dv.mu.Lock()
	dv.draws = append(dv.draws, rec)
	dv.mu.Unlock()
	return nil
}

// Release releases all live resources.
func (dv *Device) Release() {
	dv.mu.Lock()
	hs := make([]*handle, 0, len(dv.live))
	for h := range dv.live {
		hs = append(hs, h)
	}
	dv.mu.Unlock()
	for _, h := range hs {
		h.Release()
	}
}
