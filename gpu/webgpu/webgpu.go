// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package webgpu implements [gpu.Device] on WebGPU,
// rendering offscreen into textures.
package webgpu

import (
	"fmt"
	"image"
	"log/slog"

	"cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// Device is a [gpu.Device] on a WebGPU adapter.
type Device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// sampler is shared by every texture binding.
	sampler *wgpu.Sampler
}

var _ gpu.Device = (*Device)(nil)

// New requests a high performance adapter and device.
func New() (*Device, error) {
	dv := &Device{}
	dv.instance = wgpu.CreateInstance(nil)
	a, err := dv.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		dv.Release()
		return nil, errors.E(errors.Device, "request gpu adapter", err)
	}
	dv.adapter = a
	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{Label: "vision"})
	if err != nil {
		dv.Release()
		return nil, errors.E(errors.Device, "request gpu device", err)
	}
	dv.device = d
	dv.queue = d.GetQueue()
	s, err := d.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "vision sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		dv.Release()
		return nil, errors.E(errors.Device, "create sampler", err)
	}
	dv.sampler = s
	info := a.GetInfo()
	slog.Info("gpu device", "name", info.Name, "backend", info.BackendType.String())
	return dv, nil
}

// WaitDone waits until the device is done with current processing steps.
func (dv *Device) WaitDone() {
	dv.device.Poll(true, nil)
}

func textureFormat(f gpu.TextureFormats) wgpu.TextureFormat {
	switch f {
	case gpu.RGBA16Float:
		return wgpu.TextureFormatRGBA16Float
	case gpu.BGRA8:
		return wgpu.TextureFormatBGRA8Unorm
	}
	return wgpu.TextureFormatRGBA8Unorm
}

func textureUsage(us gpu.TextureUsage) wgpu.TextureUsage {
	var u wgpu.TextureUsage
	if us.Has(gpu.UsageSampled) {
		u |= wgpu.TextureUsageTextureBinding
	}
	if us.Has(gpu.UsageCopyDst) {
		u |= wgpu.TextureUsageCopyDst
	}
	if us.Has(gpu.UsageCopySrc) {
		u |= wgpu.TextureUsageCopySrc
	}
	if us.Has(gpu.UsageRenderTarget) {
		u |= wgpu.TextureUsageRenderAttachment
	}
	return u
}

type texture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (tx *texture) Release() {
	if tx.view != nil {
		tx.view.Release()
		tx.view = nil
	}
	if tx.texture != nil {
		tx.texture.Release()
		tx.texture = nil
	}
}

func textureOf(tx *gpu.Texture) (*texture, error) {
	if tx == nil {
		return nil, errors.New("webgpu: nil texture")
	}
	t, ok := tx.Handle.(*texture)
	if !ok || t.texture == nil {
		return nil, fmt.Errorf("webgpu: texture %q is released", tx.Label)
	}
	return t, nil
}

func extent(sz image.Point) wgpu.Extent3D {
	return wgpu.Extent3D{Width: uint32(sz.X), Height: uint32(sz.Y), DepthOrArrayLayers: 1}
}

func (dv *Device) NewTexture(label string, size image.Point, format gpu.TextureFormats, usage gpu.TextureUsage) (*gpu.Texture, error) {
	t, err := dv.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          extent(size),
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        textureFormat(format),
		Usage:         textureUsage(usage),
	})
	if err != nil {
		return nil, err
	}
	vw, err := t.CreateView(nil)
	if err != nil {
		t.Release()
		return nil, err
	}
	tx := &gpu.Texture{Label: label, Size: size, Format: format, Usage: usage, Handle: &texture{texture: t, view: vw}}
	if usage.Has(gpu.UsageCopyDst) {
		// new textures are not guaranteed to be zeroed on every backend
		if err := dv.ClearTexture(tx); err != nil {
			tx.Release()
			return nil, err
		}
	}
	return tx, nil
}

func (dv *Device) writeTexel(t *texture, size image.Point, bpt int, data []byte) {
	ext := extent(size)
	dv.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Aspect:   wgpu.TextureAspectAll,
			Texture:  t.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: 0},
		},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(bpt * size.X),
			RowsPerImage: uint32(size.Y),
		},
		&ext,
	)
}

func (dv *Device) WriteTexture(tx *gpu.Texture, img image.Image) error {
	t, err := textureOf(tx)
	if err != nil {
		return err
	}
	if tx.Format != gpu.RGBA8 {
		return fmt.Errorf("webgpu: cannot upload an image to %s texture %q", tx.Format, tx.Label)
	}
	rimg := gpu.ImageToRGBA(img)
	if rimg.Rect.Size() != tx.Size {
		return fmt.Errorf("webgpu: write %v image to %v texture %q", rimg.Rect.Size(), tx.Size, tx.Label)
	}
	dv.writeTexel(t, tx.Size, 4, rimg.Pix)
	return nil
}

func (dv *Device) ClearTexture(tx *gpu.Texture) error {
	t, err := textureOf(tx)
	if err != nil {
		return err
	}
	bpt := tx.Format.BytesPerTexel()
	dv.writeTexel(t, tx.Size, bpt, make([]byte, bpt*tx.Size.X*tx.Size.Y))
	return nil
}

// submit encodes commands with fn and submits them to the queue.
func (dv *Device) submit(fn func(cmd *wgpu.CommandEncoder) error) error {
	cmd, err := dv.device.CreateCommandEncoder(nil)
	if errors.Log(err) != nil {
		return err
	}
	defer cmd.Release()
	if err := fn(cmd); err != nil {
		return err
	}
	cb, err := cmd.Finish(nil)
	if errors.Log(err) != nil {
		return err
	}
	dv.queue.Submit(cb)
	cb.Release()
	return nil
}

func (dv *Device) CopyTexture(dst, src *gpu.Texture) error {
	dt, err := textureOf(dst)
	if err != nil {
		return err
	}
	st, err := textureOf(src)
	if err != nil {
		return err
	}
	if dst.Size != src.Size {
		return fmt.Errorf("webgpu: copy %v texture %q to %v texture %q", src.Size, src.Label, dst.Size, dst.Label)
	}
	ext := extent(src.Size)
	return dv.submit(func(cmd *wgpu.CommandEncoder) error {
		cmd.CopyTextureToTexture(
			&wgpu.ImageCopyTexture{Texture: st.texture, Aspect: wgpu.TextureAspectAll},
			&wgpu.ImageCopyTexture{Texture: dt.texture, Aspect: wgpu.TextureAspectAll},
			&ext,
		)
		return nil
	})
}

// rowAlign is the required alignment of bytes per row in texture to buffer copies.
const rowAlign = 256

func (dv *Device) ReadTexture(tx *gpu.Texture) (*image.RGBA, error) {
	t, err := textureOf(tx)
	if err != nil {
		return nil, err
	}
	if tx.Format == gpu.RGBA16Float {
		return nil, fmt.Errorf("webgpu: cannot read back %s texture %q", tx.Format, tx.Label)
	}
	sz := tx.Size
	row := 4 * sz.X
	stride := (row + rowAlign - 1) &^ (rowAlign - 1)
	size := uint64(stride * sz.Y)
	buf, err := dv.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: tx.Label + " readback",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	defer buf.Release()
	ext := extent(sz)
	err = dv.submit(func(cmd *wgpu.CommandEncoder) error {
		cmd.CopyTextureToBuffer(
			&wgpu.ImageCopyTexture{Texture: t.texture, Aspect: wgpu.TextureAspectAll},
			&wgpu.ImageCopyBuffer{
				Buffer: buf,
				Layout: wgpu.TextureDataLayout{BytesPerRow: uint32(stride), RowsPerImage: uint32(sz.Y)},
			},
			&ext,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	var status wgpu.BufferMapAsyncStatus
	err = buf.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	})
	if errors.Log(err) != nil {
		return nil, err
	}
	dv.WaitDone()
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, errors.New("webgpu: texture readback map was not successful")
	}
	data := buf.GetMappedRange(0, uint(size))
	img := image.NewRGBA(image.Rectangle{Max: sz})
	for y := range sz.Y {
		copy(img.Pix[y*img.Stride:y*img.Stride+row], data[y*stride:y*stride+row])
	}
	buf.Unmap()
	if tx.Format == gpu.BGRA8 {
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i], img.Pix[i+2] = img.Pix[i+2], img.Pix[i]
		}
	}
	return img, nil
}

type buffer struct {
	buffer *wgpu.Buffer
}

func (bf *buffer) Release() {
	if bf.buffer != nil {
		bf.buffer.Release()
		bf.buffer = nil
	}
}

func (dv *Device) NewBuffer(label string, size int) (*gpu.Buffer, error) {
	b, err := dv.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(gpu.AlignedSize(size)),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	return &gpu.Buffer{Label: label, Size: size, Handle: &buffer{buffer: b}}, nil
}

func (dv *Device) WriteBuffer(buf *gpu.Buffer, data []byte) error {
	b, ok := buf.Handle.(*buffer)
	if !ok || b.buffer == nil {
		return fmt.Errorf("webgpu: buffer %q is released", buf.Label)
	}
	if len(data)%4 != 0 {
		data = append(data, make([]byte, 4-len(data)%4)...)
	}
	return dv.queue.WriteBuffer(b.buffer, 0, data)
}

type shaderModule struct {
	module *wgpu.ShaderModule
}

func (sm *shaderModule) Release() {
	if sm.module != nil {
		sm.module.Release()
		sm.module = nil
	}
}

func (dv *Device) NewShaderModule(label string, stage gpu.ShaderStages, code []byte) (*gpu.ShaderModule, error) {
	m, err := dv.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:           label,
		SPIRVDescriptor: &wgpu.ShaderModuleSPIRVDescriptor{Code: code},
	})
	if err != nil {
		return nil, err
	}
	return &gpu.ShaderModule{Label: label, Stage: stage, Handle: &shaderModule{module: m}}, nil
}

type bindGroupLayout struct {
	layout *wgpu.BindGroupLayout
}

func (bl *bindGroupLayout) Release() {
	if bl.layout != nil {
		bl.layout.Release()
		bl.layout = nil
	}
}

func (dv *Device) NewBindGroupLayout(label string, hasBuffer bool, textures int) (*gpu.BindGroupLayout, error) {
	var entries []wgpu.BindGroupLayoutEntry
	if hasBuffer {
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    gpu.BufferBinding,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type: wgpu.BufferBindingTypeUniform,
			},
		})
	}
	for i := range textures {
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    uint32(gpu.TextureBinding(i)),
			Visibility: wgpu.ShaderStageFragment,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		}, wgpu.BindGroupLayoutEntry{
			Binding:    uint32(gpu.SamplerBinding(i)),
			Visibility: wgpu.ShaderStageFragment,
			Sampler: wgpu.SamplerBindingLayout{
				Type: wgpu.SamplerBindingTypeFiltering,
			},
		})
	}
	l, err := dv.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	return &gpu.BindGroupLayout{Label: label, HasBuffer: hasBuffer, Textures: textures, Handle: &bindGroupLayout{layout: l}}, nil
}

func layoutOf(bl *gpu.BindGroupLayout) (*wgpu.BindGroupLayout, error) {
	l, ok := bl.Handle.(*bindGroupLayout)
	if !ok || l.layout == nil {
		return nil, fmt.Errorf("webgpu: bind group layout %q is released", bl.Label)
	}
	return l.layout, nil
}

type bindGroup struct {
	group *wgpu.BindGroup
}

func (bg *bindGroup) Release() {
	if bg.group != nil {
		bg.group.Release()
		bg.group = nil
	}
}

func (dv *Device) NewBindGroup(label string, layout *gpu.BindGroupLayout, buf *gpu.Buffer, textures []*gpu.Texture) (*gpu.BindGroup, error) {
	l, err := layoutOf(layout)
	if err != nil {
		return nil, err
	}
	if layout.HasBuffer != (buf != nil) || layout.Textures != len(textures) {
		return nil, fmt.Errorf("webgpu: bind group %q does not match layout %q", label, layout.Label)
	}
	var entries []wgpu.BindGroupEntry
	if buf != nil {
		b, ok := buf.Handle.(*buffer)
		if !ok || b.buffer == nil {
			return nil, fmt.Errorf("webgpu: buffer %q is released", buf.Label)
		}
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: gpu.BufferBinding,
			Buffer:  b.buffer,
			Offset:  0,
			Size:    wgpu.WholeSize,
		})
	}
	for i, tx := range textures {
		t, err := textureOf(tx)
		if err != nil {
			return nil, err
		}
		entries = append(entries, wgpu.BindGroupEntry{
			Binding:     uint32(gpu.TextureBinding(i)),
			TextureView: t.view,
		}, wgpu.BindGroupEntry{
			Binding: uint32(gpu.SamplerBinding(i)),
			Sampler: dv.sampler,
		})
	}
	g, err := dv.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label,
		Layout:  l,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	return &gpu.BindGroup{Label: label, Layout: layout, Handle: &bindGroup{group: g}}, nil
}

type pipelineLayout struct {
	layout *wgpu.PipelineLayout
}

func (pl *pipelineLayout) Release() {
	if pl.layout != nil {
		pl.layout.Release()
		pl.layout = nil
	}
}

func (dv *Device) NewPipelineLayout(label string, layouts []*gpu.BindGroupLayout) (*gpu.PipelineLayout, error) {
	wls := make([]*wgpu.BindGroupLayout, len(layouts))
	for i, bl := range layouts {
		l, err := layoutOf(bl)
		if err != nil {
			return nil, err
		}
		wls[i] = l
	}
	l, err := dv.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: wls,
	})
	if err != nil {
		return nil, err
	}
	return &gpu.PipelineLayout{Label: label, Layouts: append([]*gpu.BindGroupLayout(nil), layouts...), Handle: &pipelineLayout{layout: l}}, nil
}

type renderPipeline struct {
	pipeline *wgpu.RenderPipeline
}

func (rp *renderPipeline) Release() {
	if rp.pipeline != nil {
		rp.pipeline.Release()
		rp.pipeline = nil
	}
}

func moduleOf(sm *gpu.ShaderModule) (*wgpu.ShaderModule, error) {
	m, ok := sm.Handle.(*shaderModule)
	if !ok || m.module == nil {
		return nil, fmt.Errorf("webgpu: shader module %q is released", sm.Label)
	}
	return m.module, nil
}

func (dv *Device) NewRenderPipeline(desc *gpu.RenderPipelineDesc) (*gpu.RenderPipeline, error) {
	pl, ok := desc.Layout.Handle.(*pipelineLayout)
	if !ok || pl.layout == nil {
		return nil, fmt.Errorf("webgpu: pipeline layout %q is released", desc.Layout.Label)
	}
	vs, err := moduleOf(desc.Vertex)
	if err != nil {
		return nil, err
	}
	fs, err := moduleOf(desc.Fragment)
	if err != nil {
		return nil, err
	}
	p, err := dv.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: pl.layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: "main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: "main",
			Targets: []wgpu.ColorTargetState{{
				Format:    textureFormat(desc.Format),
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}
	return &gpu.RenderPipeline{Label: desc.Label, Layout: desc.Layout, Format: desc.Format, Handle: &renderPipeline{pipeline: p}}, nil
}

func (dv *Device) Draw(pass *gpu.RenderPass) error {
	rp, ok := pass.Pipeline.Handle.(*renderPipeline)
	if !ok || rp.pipeline == nil {
		return fmt.Errorf("webgpu: pipeline %q is released", pass.Pipeline.Label)
	}
	t, err := textureOf(pass.Target)
	if err != nil {
		return err
	}
	groups := make([]*wgpu.BindGroup, len(pass.BindGroups))
	for i, bg := range pass.BindGroups {
		g, ok := bg.Handle.(*bindGroup)
		if !ok || g.group == nil {
			return fmt.Errorf("webgpu: bind group %q is released", bg.Label)
		}
		groups[i] = g.group
	}
	load := wgpu.LoadOpLoad
	if pass.Clear {
		load = wgpu.LoadOpClear
	}
	return dv.submit(func(cmd *wgpu.CommandEncoder) error {
		rpe := cmd.BeginRenderPass(&wgpu.RenderPassDescriptor{
			ColorAttachments: []wgpu.RenderPassColorAttachment{{
				View:       t.view,
				LoadOp:     load,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 0},
			}},
		})
		rpe.SetPipeline(rp.pipeline)
		for i, g := range groups {
			rpe.SetBindGroup(uint32(i), g, nil)
		}
		rpe.Draw(3, 1, 0, 0)
		rpe.End()
		rpe.Release() // must happen before Finish
		return nil
	})
}

// Release releases the device and everything it owns.
func (dv *Device) Release() {
	if dv.sampler != nil {
		dv.sampler.Release()
		dv.sampler = nil
	}
	if dv.queue != nil {
		dv.queue.Release()
		dv.queue = nil
	}
	if dv.device != nil {
		dv.device.Release()
		dv.device = nil
	}
	if dv.adapter != nil {
		dv.adapter.Release()
		dv.adapter = nil
	}
	if dv.instance != nil {
		dv.instance.Release()
		dv.instance = nil
	}
}
