// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uniforms

import (
	"encoding/binary"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cogentcore.org/vision/base/iox/imagex"
	"cogentcore.org/vision/gpu"
	"cogentcore.org/vision/gpu/headless"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32At(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func TestBufferUpdate(t *testing.T) {
	dev := headless.New()
	ub, err := NewBuffer(dev, "test", MultipassData{Pass: 1, Passes: 3})
	require.NoError(t, err)
	assert.Equal(t, 16, ub.Size())
	b := headless.Bytes(ub.GPUBuffer())
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(b[0:]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(b[4:]))

	ub.Data.Pass = 2
	require.NoError(t, ub.Update())
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(headless.Bytes(ub.GPUBuffer())[0:]))
	assert.True(t, ub.Layout().Compatible(true, 0))

	ub.Release()
	assert.Equal(t, 0, dev.Live(""))
}

func TestBufferEmpty(t *testing.T) {
	dev := headless.New()
	ub, err := NewBuffer(dev, "empty", struct{}{})
	require.NoError(t, err)
	assert.Nil(t, ub.GPUBuffer())
	assert.True(t, ub.Layout().Compatible(false, 0))
	assert.Equal(t, 0, dev.Live("buffer"))

	_, err = NewBuffer(dev, "bad", map[string]int{})
	assert.Error(t, err)
}

func TestBufferBytesSizeChange(t *testing.T) {
	dev := headless.New()
	ub, err := NewBuffer(dev, "raw", []byte{1, 2, 3, 4})
	require.NoError(t, err)
	ub.Data = []byte{1, 2, 3, 4, 5, 6, 7, 8}
	assert.Error(t, ub.Update())
}

func TestBufferSetTextures(t *testing.T) {
	dev := headless.New()
	a, _ := dev.NewTexture("a", image.Pt(1, 1), gpu.RGBA8, gpu.UsageImage)
	b, _ := dev.NewTexture("b", image.Pt(2, 2), gpu.RGBA8, gpu.UsageImage)
	ub, err := NewBuffer(dev, "tex", ImageData{}, a)
	require.NoError(t, err)
	layout, group := ub.Layout(), ub.Group()

	changed, err := ub.SetTextures(b)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Same(t, layout, ub.Layout())
	assert.NotSame(t, group, ub.Group())
	assert.Equal(t, 1, dev.Live("bindgroup"))

	changed, err = ub.SetTextures(a, b)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []*gpu.Texture{b}, ub.Textures())
}

func TestGeneral(t *testing.T) {
	dev := headless.New()
	g, err := NewGeneral(&Env{Device: dev})
	require.NoError(t, err)
	now := time.Date(2026, 3, 4, 1, 0, 30, 0, time.UTC)
	require.NoError(t, g.Update(&Frame{Time: 2 * time.Second, Delta: time.Second / 60, Index: 7, Size: image.Pt(800, 600), Now: now}))
	b := headless.Bytes(g.GPUBuffer())
	require.Len(t, b, 48)
	assert.Equal(t, float32(2), f32At(b, 0))
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(b[8:]))
	assert.Equal(t, float32(800), f32At(b, 16))
	assert.Equal(t, float32(600), f32At(b, 20))
	assert.Equal(t, float32(2026), f32At(b, 32))
	assert.Equal(t, float32(3630), f32At(b, 44))
}

func TestColorShift(t *testing.T) {
	dev := headless.New()
	c, err := NewColor(&Env{Device: dev}, [][4]float32{{1, 0, 0, 1}}, 0.5)
	require.NoError(t, err)
	require.NoError(t, c.Update(&Frame{Time: 3 * time.Second}))
	assert.Equal(t, float32(0.5), c.Data.Shift)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, c.Data.Palette[0])
	assert.Equal(t, DefaultPalette[1], c.Data.Palette[1])
}

func TestParseDomains(t *testing.T) {
	ds := ParseDomains([]string{"general", "bogus", "audio_fft", "general", "webcam"})
	assert.Equal(t, []Domains{DomainGeneral, DomainAudioFFT, DomainWebcam}, ds)
	assert.Equal(t, "audio_features", DomainAudioFeatures.String())
}

func writePNG(t *testing.T, path string, size image.Point) {
	img := image.NewRGBA(image.Rectangle{Max: size})
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	require.NoError(t, imagex.Save(img, path))
}

func loaded(t *testing.T, im *Image) {
	t.Helper()
	require.Eventually(t, func() bool {
		assert.NoError(t, im.Update(&Frame{}))
		return !im.Loading()
	}, 5*time.Second, time.Millisecond)
}

func TestImageRecompile(t *testing.T) {
	dev := headless.New()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), image.Pt(4, 2))
	writePNG(t, filepath.Join(dir, "b.png"), image.Pt(8, 8))
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)

	im, err := NewImage(&Env{Device: dev, MediaDir: dir}, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.png"), im.Path())
	assert.False(t, im.NeedsRecompile())
	assert.True(t, im.Layout().Compatible(true, 1))
	assert.Equal(t, int32(0), im.Data.Has)
	loaded(t, im)
	assert.Equal(t, [2]float32{4, 2}, im.Data.Size)
	assert.Equal(t, int32(1), im.Data.Has)
	assert.False(t, im.NeedsRecompile())

	require.NoError(t, im.Select("b.png"))
	loaded(t, im)
	assert.Equal(t, [2]float32{8, 8}, im.Data.Size)
	assert.False(t, im.NeedsRecompile())
	assert.Equal(t, 1, dev.Live("texture"))

	require.NoError(t, im.Select(""))
	assert.True(t, im.NeedsRecompile())
	assert.True(t, im.Layout().Compatible(true, 0))
	assert.Equal(t, 0, dev.Live("texture"))

	assert.Error(t, im.Select("missing.png"))
	assert.Error(t, im.Err())
}

func TestImageDecodeError(t *testing.T) {
	dev := headless.New()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.png"), []byte("not a png"), 0o644))

	im, err := NewImage(&Env{Device: dev}, "")
	require.NoError(t, err)
	require.NoError(t, im.Select(filepath.Join(dir, "bad.png")))
	assert.True(t, im.Loading())
	loaded(t, im)
	assert.Error(t, im.Err())
	assert.Equal(t, int32(0), im.Data.Has)
	assert.True(t, im.Layout().Compatible(true, 1))
	im.Release()
	assert.Equal(t, 0, dev.Live(""))
}

func TestStore(t *testing.T) {
	dev := headless.New()
	st, err := NewStore(&Env{Device: dev}, []string{"general", "geometry", "unknown", "multipass", "noise", "camera", "color"}, &Config{
		Geometry: &GeometryData{Zoom: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []Domains{DomainGeneral, DomainGeometry, DomainMultipass, DomainNoise, DomainCamera, DomainColor}, st.Domains())
	assert.Len(t, st.Layouts(), 6)
	assert.Len(t, st.Groups(), 6)
	assert.NotNil(t, st.Multipass())
	assert.Nil(t, st.Image())

	require.NoError(t, st.Update(&Frame{Size: image.Pt(10, 10), Now: time.Now()}))
	g, ok := st.Get(DomainGeometry)
	require.True(t, ok)
	assert.Equal(t, float32(2), g.(*Geometry).Data.Zoom)
	assert.False(t, st.NeedsRecompile())
	assert.Empty(t, st.Errors())

	require.NoError(t, st.Multipass().SetPass(1, 2))
	st.Release()
	assert.Equal(t, 0, dev.Live(""))
}

func TestAudioWithoutSource(t *testing.T) {
	dev := headless.New()
	st, err := NewStore(&Env{Device: dev}, []string{"audio", "audio_fft"}, nil)
	require.NoError(t, err)
	errs := st.Errors()
	assert.Len(t, errs, 2)
	assert.NoError(t, st.Update(&Frame{}))
	st.Release()
	assert.Equal(t, 0, dev.Live(""))
}
