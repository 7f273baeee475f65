// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package settings provides the application settings,
// loaded from a TOML file over defaults given in struct tags.
package settings

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/base/fsx"
	"cogentcore.org/vision/base/iox/jsonx"
	"cogentcore.org/vision/base/iox/tomlx"
	"github.com/mitchellh/go-homedir"
)

// DefaultFile is the default settings file.
const DefaultFile = "~/.config/vision/settings.toml"

// Settings are the application settings.
type Settings struct {
	// ProgramsDir holds programs.json and the program folders.
	ProgramsDir string `default:"~/.config/vision/programs"`

	// MediaDir holds the images and videos for image inputs.
	MediaDir string `default:"~/.config/vision/media"`

	// Width and Height are the render size.
	Width  int `default:"1280"`
	Height int `default:"720"`

	// FPS is the target frame rate.
	FPS int `default:"60"`

	// DebounceMS is the quiet time in milliseconds before
	// a burst of shader file changes triggers a recompile.
	DebounceMS int `default:"1000"`

	// AudioFile, if set, is a wav file played in a loop
	// instead of capturing the default input device.
	AudioFile string

	// NoAudio disables audio input.
	NoAudio bool

	// FeatureURL is the address of the feature extraction service.
	FeatureURL string `default:"ws://127.0.0.1:9002"`

	// SpectrumBins is the number of spectrum bins.
	SpectrumBins int `default:"64"`

	// Smoothing is the smoothing factor of audio spectra and features.
	Smoothing float32 `default:"0.8"`

	// VideoMaxSize is the maximum width and height of video frames.
	VideoMaxSize [2]int `default:"[640, 480]"`

	// Headless renders without a window or GPU, for testing programs.
	Headless bool

	// MetricsAddr, if set, is the address to serve metrics on.
	MetricsAddr string

	// Glslang is the glslang command, optionally with extra arguments.
	Glslang string `default:"glslangValidator"`
}

// Size returns the render size.
func (s *Settings) Size() image.Point { return image.Pt(s.Width, s.Height) }

// Debounce returns the watcher debounce time.
func (s *Settings) Debounce() time.Duration {
	return time.Duration(s.DebounceMS) * time.Millisecond
}

// MaxVideoSize returns the maximum size of video frames.
func (s *Settings) MaxVideoSize() image.Point {
	return image.Pt(s.VideoMaxSize[0], s.VideoMaxSize[1])
}

// Load returns the defaults overridden by the settings in file, if
// it exists, with home-relative directories expanded. An empty file
// uses [DefaultFile].
func Load(file string) (*Settings, error) {
	s := &Settings{}
	if err := SetFromDefaults(s); err != nil {
		return nil, err
	}
	if file == "" {
		file = DefaultFile
	}
	file, err := homedir.Expand(file)
	if err != nil {
		return nil, errors.EPath(errors.IO, "load settings", file, err)
	}
	if ok, _ := fsx.FileExists(file); ok {
		if err := tomlx.Open(s, file); err != nil {
			return nil, errors.EPath(errors.Parse, "load settings", file, err)
		}
		slog.Debug("settings loaded", "file", file)
	}
	return s, s.expand()
}

func (s *Settings) expand() error {
	for _, p := range []*string{&s.ProgramsDir, &s.MediaDir, &s.AudioFile} {
		if *p == "" {
			continue
		}
		x, err := homedir.Expand(*p)
		if err != nil {
			return err
		}
		*p = filepath.Clean(x)
	}
	return nil
}

// Save writes the settings to file, creating its directory.
func (s *Settings) Save(file string) error {
	file, err := homedir.Expand(file)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return err
	}
	return tomlx.Save(s, file)
}

// SetFromDefaults sets the fields of the struct pointed to by obj
// from their `default:` tags. Nested structs without a tag are set
// recursively. Errors are logged in addition to being returned.
func SetFromDefaults(obj any) error {
	val := reflect.ValueOf(obj)
	if val.Kind() != reflect.Pointer || val.IsNil() || val.Elem().Kind() != reflect.Struct {
		return errors.Log(fmt.Errorf("settings: SetFromDefaults needs a struct pointer, not %T", obj))
	}
	val = val.Elem()
	typ := val.Type()
	var errs []error
	for i := range typ.NumField() {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		fv := val.Field(i)
		def, ok := f.Tag.Lookup("default")
		if !ok || def == "" {
			if fv.Kind() == reflect.Struct {
				errs = append(errs, SetFromDefaults(fv.Addr().Interface()))
			}
			continue
		}
		if err := setValue(fv, def); err != nil {
			errs = append(errs, fmt.Errorf("settings: field %s from %q: %w", f.Name, def, err))
		}
	}
	return errors.Log(errors.Join(errs...))
}

func setValue(fv reflect.Value, def string) error {
	if def[0] == '[' || def[0] == '{' {
		return jsonx.Unmarshal([]byte(strings.ReplaceAll(def, `'`, `"`)), fv.Addr().Interface())
	}
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(def)
	case reflect.Bool:
		b, err := strconv.ParseBool(def)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(def, 0, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(def, 0, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		x, err := strconv.ParseFloat(def, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetFloat(x)
	default:
		return fmt.Errorf("unsupported kind %v", fv.Kind())
	}
	return nil
}
