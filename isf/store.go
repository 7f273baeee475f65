// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package isf

import (
	"encoding/binary"
	"fmt"
	"image"
	"log/slog"
	"math"
	"path/filepath"
	"slices"
	"time"

	"cogentcore.org/vision/audio"
	"cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/base/fsx"
	"cogentcore.org/vision/gpu"
	"cogentcore.org/vision/uniforms"
	"cogentcore.org/vision/video"
)

// PassTextures are the textures of one render pass: Render is
// rendered into, and Uniform is the stable copy read as an input
// by later passes and frames.
type PassTextures struct {
	Render     *gpu.Texture
	Uniform    *gpu.Texture
	Size       image.Point
	Persistent bool
	Float      bool
}

func (pt *PassTextures) release() {
	gpu.ReleaseTextures(pt.Render, pt.Uniform)
}

// Timing is the frame timing written to the timing block.
type Timing struct {
	Time  time.Duration
	Delta time.Duration
	Frame int
	Size  image.Point
	Now   time.Time
}

// timingData is the std140 IsfTiming block.
type timingData struct {
	Time       float32
	Delta      float32
	Frame      int32
	Pass       int32
	RenderSize [2]float32
	_          [2]float32
	Date       [4]float32
}

// Store holds the live state of the inputs, imported images and
// render passes declared by an ISF manifest, reconciled against the
// manifest by [Store.Sync] every frame.
type Store struct {
	// Dir is the shader directory that imported images are relative to.
	Dir string

	// MediaDir is where image inputs find their initial image.
	MediaDir string

	// Audio is the shared audio source, nil without audio input.
	Audio *audio.Source

	// OpenVideo opens video files for image inputs.
	OpenVideo video.Opener

	// VideoMaxSize is the maximum size of video frames.
	VideoMaxSize image.Point

	// SpectrumBins is the default number of spectrum bins.
	SpectrumBins int

	// Smoothing is the smoothing factor for spectra.
	Smoothing float32

	dev      gpu.Device
	manifest *Manifest
	imported map[string]*ImageSlot
	inputs   map[string]Value
	passes   []*PassTextures
	dirty    bool

	timing *uniforms.Buffer[timingData]
	values *uniforms.Buffer[[]byte]
}

// NewStore returns a new empty [Store].
func NewStore(dir, mediaDir string, src *audio.Source) *Store {
	return &Store{Dir: dir, MediaDir: mediaDir, Audio: src, imported: map[string]*ImageSlot{}, inputs: map[string]Value{}}
}

// Manifest returns the manifest of the last sync.
func (s *Store) Manifest() *Manifest { return s.manifest }

// Sync brings the store in line with m at the base render size:
// imports and inputs no longer declared are torn down, new ones
// created, existing ones advanced one frame, and pass textures
// allocated at their evaluated size. It returns whether the identity
// of any bound texture changed, in which case bind groups must be rebuilt.
func (s *Store) Sync(dev gpu.Device, m *Manifest, base image.Point) (texturesUpdated bool, err error) {
	s.dev = dev
	if s.dirty {
		texturesUpdated, s.dirty = true, false
	}
	if !m.Equal(s.manifest) {
		snap, err := m.Clone()
		if err != nil {
			return false, err
		}
		slog.Debug("isf manifest changed", "inputs", len(m.Inputs), "passes", len(m.Passes))
		s.manifest = snap
	}
	m = s.manifest
	var errs []error
	note := func(changed bool, err error) {
		texturesUpdated = texturesUpdated || changed
		if err != nil {
			errs = append(errs, err)
		}
	}

	// imports
	for name, slot := range s.imported {
		if _, ok := m.Imported[name]; !ok {
			slot.Release()
			delete(s.imported, name)
			texturesUpdated = true
		}
	}
	for _, name := range m.ImportNames() {
		if _, ok := s.imported[name]; !ok {
			path := m.Imported[name].Path
			if !filepath.IsAbs(path) {
				path = filepath.Join(s.Dir, path)
			}
			s.imported[name] = NewImageSlot(path)
		}
	}
	for _, name := range m.ImportNames() {
		note(s.imported[name].Poll(dev))
	}

	// inputs
	for name, v := range s.inputs {
		if _, ok := m.Input(name); !ok {
			note(textureOf(v) != nil, s.endSession(v))
			delete(s.inputs, name)
		}
	}
	for i := range m.Inputs {
		in := &m.Inputs[i]
		v, ok := s.inputs[in.Name]
		if ok && v.Kind() != in.Kind {
			note(textureOf(v) != nil, s.endSession(v))
			ok = false
		}
		if !ok {
			v, err = s.newValue(in)
			if err != nil {
				errs = append(errs, err)
				delete(s.inputs, in.Name)
				continue
			}
			s.inputs[in.Name] = v
			texturesUpdated = texturesUpdated || in.Kind.IsTexture()
			continue
		}
		note(s.step(v))
	}

	note(s.syncPasses(m, base))
	return texturesUpdated, errors.Join(errs...)
}

// syncPasses reuses pass textures whose size is unchanged, clearing
// them when not persistent, and allocates the others.
func (s *Store) syncPasses(m *Manifest, base image.Point) (bool, error) {
	changed := false
	for i := len(m.Passes); i < len(s.passes); i++ {
		s.passes[i].release()
		changed = true
	}
	if len(s.passes) > len(m.Passes) {
		s.passes = s.passes[:len(m.Passes)]
	}
	for i := range m.Passes {
		pd := &m.Passes[i]
		size := PassSize(pd, base, s.lookup)
		if i < len(s.passes) {
			pt := s.passes[i]
			if pt.Size == size && pt.Float == pd.Float {
				pt.Persistent = pd.Persistent
				if !pt.Persistent {
					if err := s.dev.ClearTexture(pt.Uniform); err != nil {
						return changed, err
					}
				}
				continue
			}
			pt.release()
		}
		pt, err := s.newPass(i, pd, size)
		if err != nil {
			return changed, err
		}
		if i < len(s.passes) {
			s.passes[i] = pt
		} else {
			s.passes = append(s.passes, pt)
		}
		changed = true
	}
	return changed, nil
}

func (s *Store) newPass(i int, pd *PassDecl, size image.Point) (*PassTextures, error) {
	format := gpu.RGBA8
	if pd.Float {
		format = gpu.RGBA16Float
	}
	label := fmt.Sprintf("pass %d %s", i, pd.Target)
	render, err := s.dev.NewTexture(label+" render", size, format, gpu.UsageRender)
	if err != nil {
		return nil, err
	}
	uniform, err := s.dev.NewTexture(label+" uniform", size, format, gpu.UsageRender)
	if err != nil {
		render.Release()
		return nil, err
	}
	return &PassTextures{Render: render, Uniform: uniform, Size: size, Persistent: pd.Persistent, Float: pd.Float}, nil
}

// lookup returns the value of a numeric input for dimension
// expressions: Float and Long values, and 0 for other kinds.
func (s *Store) lookup(name string) (float64, bool) {
	switch x := s.inputs[name].(type) {
	case *FloatValue:
		return float64(x.V), true
	case *LongValue:
		return float64(x.V), true
	case nil:
		return 0, false
	}
	return 0, true
}

// initial returns the initial components of a scalar input: its
// default, else its minimum, else its first enumerated value, else zeros.
func initial(in *InputDecl) []float64 {
	switch {
	case len(in.Default) > 0:
		return in.Default
	case len(in.Min) > 0:
		return in.Min
	case in.Kind == Long && len(in.Values) > 0:
		return []float64{float64(in.Values[0])}
	}
	return make([]float64, in.Kind.Components())
}

func (s *Store) newValue(in *InputDecl) (Value, error) {
	switch in.Kind {
	case Event:
		return &EventValue{}, nil
	case Bool, Long, Float, Point2D, Color:
		v := scalarValue(in.Kind)
		setScalars(v, initial(in))
		return v, nil
	case Image:
		v := &ImageValue{}
		path, _ := fsx.First(s.MediaDir, fsx.Image)
		return v, s.setSource(v, path)
	case Audio:
		v := &AudioValue{MaxSamples: in.MaxSamples, src: s.Audio}
		if v.MaxSamples <= 0 {
			v.MaxSamples = audio.DefaultBufferSize
		}
		tx, _, err := uniforms.UploadImage(s.dev, nil, "audio "+in.Name, uniforms.Row(nil))
		if err != nil {
			return nil, err
		}
		v.texture = tx
		v.subscribe()
		return v, nil
	case AudioFFT:
		bins := in.MaxSamples
		if bins <= 0 {
			bins = s.SpectrumBins
		}
		v := &AudioFFTValue{Spectrum: audio.NewSpectrum(bins, s.Smoothing)}
		tx, _, err := uniforms.UploadImage(s.dev, nil, "audio fft "+in.Name, uniforms.Row(make([]float32, v.Spectrum.Bins)))
		if err != nil {
			return nil, err
		}
		v.texture = tx
		if s.Audio == nil {
			v.Err = errors.E(errors.Device, "audio fft input "+in.Name, errors.New("no audio source"))
			return v, nil
		}
		v.Err = s.Audio.StartSession()
		v.Spectrum.StartSession(s.Audio)
		return v, nil
	}
	panic(fmt.Sprintf("isf: unknown input kind %v", in.Kind))
}

func scalarValue(k InputKind) Value {
	switch k {
	case Bool:
		return &BoolValue{}
	case Long:
		return &LongValue{}
	case Float:
		return &FloatValue{}
	case Point2D:
		return &Point2DValue{}
	case Color:
		return &ColorValue{}
	}
	panic(fmt.Sprintf("isf: %v is not a scalar kind", k))
}

// setScalars sets the components of a scalar value.
func setScalars(v Value, c []float64) {
	at := func(i int) float32 {
		if i < len(c) {
			return float32(c[i])
		}
		return 0
	}
	switch x := v.(type) {
	case *EventValue:
		if at(0) != 0 {
			x.Fire()
		}
	case *BoolValue:
		x.V = at(0) != 0
	case *LongValue:
		x.V = int32(math.Round(float64(at(0))))
	case *FloatValue:
		x.V = at(0)
	case *Point2DValue:
		x.V = [2]float32{at(0), at(1)}
	case *ColorValue:
		x.V = [4]float32{at(0), at(1), at(2), at(3)}
	case *ImageValue, *AudioValue, *AudioFFTValue:
	default:
		panic(fmt.Sprintf("isf: unknown value type %T", v))
	}
}

func (v *AudioValue) subscribe() {
	if v.src == nil {
		v.Err = errors.E(errors.Device, "audio input", errors.New("no audio source"))
		return
	}
	v.Err = v.src.StartSession()
	v.frames = v.src.Subscribe()
	v.session = v.src.Session()
}

// setSource shows path in an image value, as a video when it is a
// video file. An empty path shows a placeholder.
func (s *Store) setSource(v *ImageValue, path string) error {
	v.Path, v.Err = path, nil
	if path == "" || IsVideo(path) {
		tx, _, err := uniforms.UploadImage(s.dev, nil, "image placeholder", gpu.Placeholder())
		if err != nil {
			return err
		}
		v.texture = tx
	}
	switch {
	case path == "":
	case IsVideo(path):
		v.Video, v.Err = video.Open(s.OpenVideo, path, s.VideoMaxSize)
	default:
		v.Slot = NewImageSlot(path)
		return v.Slot.Start(s.dev)
	}
	return nil
}

// step advances a value one frame, returning whether its texture changed.
func (s *Store) step(v Value) (bool, error) {
	switch x := v.(type) {
	case *EventValue:
		x.Active, x.fired = x.fired, false
		return false, nil
	case *BoolValue, *LongValue, *FloatValue, *Point2DValue, *ColorValue:
		return false, nil
	case *ImageValue:
		if x.Slot != nil {
			changed, err := x.Slot.Poll(s.dev)
			x.Err = x.Slot.Err
			return changed, err
		}
		if x.Video == nil {
			return false, nil
		}
		if err := x.Video.Err(); err != nil {
			x.Err = err
		}
		frame, ok := x.Video.TryPop()
		if !ok {
			return false, nil
		}
		tx, replaced, err := uniforms.UploadImage(s.dev, x.texture, "video "+filepath.Base(x.Path), frame)
		x.texture = tx
		return replaced, err
	case *AudioValue:
		if x.src != nil && x.src.Running() && x.src.Session() != x.session {
			x.subscribe()
		}
		if x.frames == nil {
			return false, nil
		}
		frame, ok := x.frames.TryPop()
		if !ok {
			return false, nil
		}
		wave := make([]float32, min(len(frame), x.MaxSamples))
		for i := range wave {
			wave[i] = (frame[i] + 1) / 2
		}
		tx, replaced, err := uniforms.UploadImage(s.dev, x.texture, "audio", uniforms.Row(wave))
		x.texture = tx
		return replaced, err
	case *AudioFFTValue:
		x.Spectrum.Refresh()
		bins, ok := x.Spectrum.TryPop()
		if !ok {
			return false, nil
		}
		tx, replaced, err := uniforms.UploadImage(s.dev, x.texture, "audio fft", uniforms.Row(bins))
		x.texture = tx
		return replaced, err
	default:
		panic(fmt.Sprintf("isf: unknown value type %T", v))
	}
}

// endSession ends any session owned by the value and releases its textures.
func (s *Store) endSession(v Value) error {
	switch x := v.(type) {
	case *EventValue, *BoolValue, *LongValue, *FloatValue, *Point2DValue, *ColorValue:
		return nil
	case *ImageValue:
		var err error
		if x.Video != nil {
			err = x.Video.EndSession()
			x.Video = nil
		}
		if x.Slot != nil {
			x.Slot.Release()
			x.Slot = nil
		}
		x.texture.Release()
		x.texture = nil
		return err
	case *AudioValue:
		if x.src != nil {
			x.src.Unsubscribe(x.frames)
		}
		x.frames = nil
		x.texture.Release()
		x.texture = nil
		return nil
	case *AudioFFTValue:
		err := x.Spectrum.EndSession()
		x.texture.Release()
		x.texture = nil
		return err
	default:
		panic(fmt.Sprintf("isf: unknown value type %T", v))
	}
}

// Inputs returns a copy of the declared inputs with their constraints.
func (s *Store) Inputs() []InputDecl {
	if s.manifest == nil {
		return nil
	}
	return slices.Clone(s.manifest.Inputs)
}

// Value returns the current value of the named input.
func (s *Store) Value(name string) (Value, bool) {
	v, ok := s.inputs[name]
	return v, ok
}

// Len returns the number of input values.
func (s *Store) Len() int { return len(s.inputs) }

// Passes returns the pass textures in pass order.
func (s *Store) Passes() []*PassTextures { return s.passes }

// Imported returns the slot of the named imported image.
func (s *Store) Imported(name string) (*ImageSlot, bool) {
	slot, ok := s.imported[name]
	return slot, ok
}

// SetValue sets the components of a scalar input, clamped to its
// declared minimum and maximum. Setting an event to non-zero fires it.
func (s *Store) SetValue(name string, c ...float64) error {
	if s.manifest == nil {
		return fmt.Errorf("isf: no input %q", name)
	}
	in, ok := s.manifest.Input(name)
	v, vok := s.inputs[name]
	if !ok || !vok {
		return fmt.Errorf("isf: no input %q", name)
	}
	n := in.Kind.Components()
	if n == 0 {
		return fmt.Errorf("isf: input %q of kind %v has no scalar value", name, in.Kind)
	}
	if len(c) != n {
		return fmt.Errorf("isf: input %q wants %d values, got %d", name, n, len(c))
	}
	c = slices.Clone(c)
	for i := range c {
		if i < len(in.Min) {
			c[i] = max(c[i], in.Min[i])
		}
		if i < len(in.Max) {
			c[i] = min(c[i], in.Max[i])
		}
	}
	setScalars(v, c)
	return nil
}

// SelectImage shows the given image or video file in the named
// image input. The new texture is reported by the next [Store.Sync].
func (s *Store) SelectImage(name, path string) error {
	v, ok := s.inputs[name].(*ImageValue)
	if !ok {
		return fmt.Errorf("isf: no image input %q", name)
	}
	err := s.endSession(v)
	*v = ImageValue{}
	s.dirty = true
	return errors.Join(err, s.setSource(v, path))
}

// Errors returns the current errors of inputs and imported images, by name.
func (s *Store) Errors() map[string]error {
	errs := map[string]error{}
	for name, v := range s.inputs {
		var err error
		switch x := v.(type) {
		case *ImageValue:
			err = x.Err
		case *AudioValue:
			err = x.Err
		case *AudioFFTValue:
			err = x.Err
		}
		if err != nil {
			errs[name] = err
		}
	}
	for name, slot := range s.imported {
		if slot.Err != nil {
			errs[name] = slot.Err
		}
	}
	return errs
}

// ValueBytes returns the IsfInputs block for the current values.
func (s *Store) ValueBytes() []byte {
	if s.manifest == nil {
		return nil
	}
	fields, size := Layout(s.manifest)
	b := make([]byte, size)
	for _, f := range fields {
		c := Scalars(s.inputs[f.Name])
		if c == nil {
			continue
		}
		for i, x := range c {
			off := f.Offset + 4*i
			switch f.Kind {
			case Event, Bool, Long:
				binary.LittleEndian.PutUint32(b[off:], uint32(int32(x)))
			default:
				binary.LittleEndian.PutUint32(b[off:], math.Float32bits(float32(x)))
			}
		}
	}
	return b
}

// Textures returns the bound textures in the order of [TextureNames].
func (s *Store) Textures() []*gpu.Texture {
	if s.manifest == nil {
		return nil
	}
	var txs []*gpu.Texture
	for _, in := range s.manifest.Inputs {
		if in.Kind.IsTexture() {
			txs = append(txs, textureOf(s.inputs[in.Name]))
		}
	}
	for _, name := range s.manifest.ImportNames() {
		txs = append(txs, s.imported[name].Texture)
	}
	for _, pt := range s.passes {
		txs = append(txs, pt.Uniform)
	}
	return txs
}

// Bind writes the timing and input values to the GPU, rebuilding the
// input bind group when texturesUpdated. It returns whether a bind
// group layout changed, which needs a new pipeline layout.
func (s *Store) Bind(t *Timing, texturesUpdated bool) (layoutChanged bool, err error) {
	if s.timing == nil {
		if s.timing, err = uniforms.NewBuffer(s.dev, "isf timing", timingData{}); err != nil {
			return false, err
		}
		layoutChanged = true
	}
	mid := t.Now.Sub(time.Date(t.Now.Year(), t.Now.Month(), t.Now.Day(), 0, 0, 0, 0, t.Now.Location()))
	s.timing.Data = timingData{
		Time: float32(t.Time.Seconds()), Delta: float32(t.Delta.Seconds()), Frame: int32(t.Frame),
		RenderSize: [2]float32{float32(t.Size.X), float32(t.Size.Y)},
		Date:       [4]float32{float32(t.Now.Year()), float32(t.Now.Month()), float32(t.Now.Day()), float32(mid.Seconds())},
	}
	if err := s.timing.Update(); err != nil {
		return layoutChanged, err
	}

	data, txs := s.ValueBytes(), s.Textures()
	if s.values == nil || s.values.Size() != len(data) || len(s.values.Textures()) != len(txs) {
		nv, err := uniforms.NewBuffer(s.dev, "isf inputs", data, txs...)
		if err != nil {
			return layoutChanged, err
		}
		s.values.Release()
		s.values = nv
		return true, nil
	}
	s.values.Data = data
	if err := s.values.Update(); err != nil {
		return layoutChanged, err
	}
	if texturesUpdated {
		if _, err := s.values.SetTextures(txs...); err != nil {
			return layoutChanged, err
		}
	}
	return layoutChanged, nil
}

// SetPass writes the index of the pass about to be rendered.
func (s *Store) SetPass(pass int) error {
	if s.timing == nil {
		return nil
	}
	s.timing.Data.Pass = int32(pass)
	return s.timing.Update()
}

// Layouts returns the layouts of the timing and input groups,
// nil before the first [Store.Bind].
func (s *Store) Layouts() []*gpu.BindGroupLayout {
	if s.timing == nil || s.values == nil {
		return nil
	}
	return []*gpu.BindGroupLayout{s.timing.Layout(), s.values.Layout()}
}

// Groups returns the timing and input bind groups.
func (s *Store) Groups() []*gpu.BindGroup {
	if s.timing == nil || s.values == nil {
		return nil
	}
	return []*gpu.BindGroup{s.timing.Group(), s.values.Group()}
}

// EndSessions tears down every input, import and pass, leaving the
// store empty for another program.
func (s *Store) EndSessions() error {
	var errs []error
	for name, v := range s.inputs {
		if err := s.endSession(v); err != nil {
			errs = append(errs, err)
		}
		delete(s.inputs, name)
	}
	for name, slot := range s.imported {
		slot.Release()
		delete(s.imported, name)
	}
	for _, pt := range s.passes {
		pt.release()
	}
	s.passes = nil
	s.manifest = nil
	return errors.Join(errs...)
}

// Release ends all sessions and releases the GPU buffers.
func (s *Store) Release() {
	errors.Log(s.EndSessions())
	s.timing.Release()
	s.values.Release()
	s.timing, s.values = nil, nil
}
