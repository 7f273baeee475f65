// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package isf

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/base/iox/jsonx"
	"github.com/jinzhu/copier"
)

// InputKind is the type of an ISF input.
type InputKind int32

const (
	Event InputKind = iota
	Bool
	Long
	Float
	Point2D
	Color
	Image
	Audio
	AudioFFT
)

var kindNames = [...]string{"event", "bool", "long", "float", "point2D", "color", "image", "audio", "audioFFT"}

func (k InputKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("InputKind(%d)", int(k))
	}
	return kindNames[k]
}

// KindFromString returns the [InputKind] for an ISF TYPE string,
// ignoring case.
func KindFromString(s string) (InputKind, error) {
	for i, n := range kindNames {
		if strings.EqualFold(n, s) {
			return InputKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown input type %q", s)
}

// Components returns the number of scalar components of a value of
// this kind, or 0 for kinds that are bound as textures.
func (k InputKind) Components() int {
	switch k {
	case Event, Bool, Long, Float:
		return 1
	case Point2D:
		return 2
	case Color:
		return 4
	}
	return 0
}

// IsTexture returns whether inputs of this kind are bound as textures.
func (k InputKind) IsTexture() bool {
	return k.Components() == 0
}

// InputDecl is a declared input. Numeric constraints hold
// [InputKind.Components] values each, or are nil when absent.
type InputDecl struct {
	Name  string
	Kind  InputKind
	Label string

	Default  []float64
	Min      []float64
	Max      []float64
	Identity []float64

	// Values and Labels are the enumerated values of a Long input.
	Values []int
	Labels []string

	// MaxSamples is the MAX of an Audio or AudioFFT input:
	// the number of samples or bins wanted, 0 for the default.
	MaxSamples int
}

// ImportDecl is an image file imported by the shader.
type ImportDecl struct {
	Name string
	Path string
}

// PassDecl is a declared render pass. Width and Height are
// dimension expressions, empty for the base render size.
type PassDecl struct {
	Target     string
	Width      string
	Height     string
	Persistent bool
	Float      bool
}

// Manifest is the parsed ISF header of a shader.
type Manifest struct {
	Description string
	Credit      string
	Categories  []string
	Inputs      []InputDecl
	Imported    map[string]ImportDecl
	Passes      []PassDecl
}

// Clone returns a deep copy of m. Absent constraints stay nil
// in the copy, so they remain distinguishable from declared ones.
func (m *Manifest) Clone() (*Manifest, error) {
	c := &Manifest{}
	if err := copier.CopyWithOption(c, m, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	c.Categories = nilIfEmpty(c.Categories)
	c.Passes = nilIfEmpty(c.Passes)
	for i := range c.Inputs {
		in := &c.Inputs[i]
		in.Default = nilIfEmpty(in.Default)
		in.Min = nilIfEmpty(in.Min)
		in.Max = nilIfEmpty(in.Max)
		in.Identity = nilIfEmpty(in.Identity)
		in.Values = nilIfEmpty(in.Values)
		in.Labels = nilIfEmpty(in.Labels)
	}
	return c, nil
}

func nilIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}

// Equal returns whether the two manifests are the same by value.
// Nil and empty lists compare equal.
func (m *Manifest) Equal(o *Manifest) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.Description == o.Description && m.Credit == o.Credit &&
		slices.Equal(m.Categories, o.Categories) &&
		slices.EqualFunc(m.Inputs, o.Inputs, func(a, b InputDecl) bool { return a.Equal(&b) }) &&
		maps.Equal(m.Imported, o.Imported) &&
		slices.Equal(m.Passes, o.Passes)
}

// Equal returns whether the two declarations are the same by value.
func (in *InputDecl) Equal(o *InputDecl) bool {
	return in.Name == o.Name && in.Kind == o.Kind && in.Label == o.Label &&
		in.MaxSamples == o.MaxSamples &&
		slices.Equal(in.Default, o.Default) && slices.Equal(in.Min, o.Min) &&
		slices.Equal(in.Max, o.Max) && slices.Equal(in.Identity, o.Identity) &&
		slices.Equal(in.Values, o.Values) && slices.Equal(in.Labels, o.Labels)
}

// Input returns the declared input with the given name.
func (m *Manifest) Input(name string) (*InputDecl, bool) {
	for i := range m.Inputs {
		if m.Inputs[i].Name == name {
			return &m.Inputs[i], true
		}
	}
	return nil, false
}

// ImportNames returns the names of the imported images in sorted order.
func (m *Manifest) ImportNames() []string {
	names := make([]string, 0, len(m.Imported))
	for n := range m.Imported {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// header is the JSON form of the ISF header.
type header struct {
	Description string           `json:"DESCRIPTION"`
	Credit      string           `json:"CREDIT"`
	Version     string           `json:"ISFVSN"`
	Categories  []string         `json:"CATEGORIES"`
	Inputs      []headerInput    `json:"INPUTS"`
	Imported    jsonx.RawMessage `json:"IMPORTED"`
	Passes      []headerPass     `json:"PASSES"`
}

type headerInput struct {
	Name     string           `json:"NAME"`
	Type     string           `json:"TYPE"`
	Label    string           `json:"LABEL"`
	Default  jsonx.RawMessage `json:"DEFAULT"`
	Min      jsonx.RawMessage `json:"MIN"`
	Max      jsonx.RawMessage `json:"MAX"`
	Identity jsonx.RawMessage `json:"IDENTITY"`
	Values   []int            `json:"VALUES"`
	Labels   []string         `json:"LABELS"`
}

type headerPass struct {
	Target     string           `json:"TARGET"`
	Width      jsonx.RawMessage `json:"WIDTH"`
	Height     jsonx.RawMessage `json:"HEIGHT"`
	Persistent jsonx.RawMessage `json:"PERSISTENT"`
	Float      jsonx.RawMessage `json:"FLOAT"`
}

type headerImport struct {
	Name string `json:"NAME"`
	Path string `json:"PATH"`
}

// Header returns the JSON text of the ISF header comment in src,
// which is the first /* */ comment whose content starts with '{'.
// It returns false if there is no such comment.
func Header(src string) (string, bool) {
	rest := src
	for {
		st := strings.Index(rest, "/*")
		if st < 0 {
			return "", false
		}
		ed := strings.Index(rest[st+2:], "*/")
		if ed < 0 {
			return "", false
		}
		body := strings.TrimSpace(rest[st+2 : st+2+ed])
		if strings.HasPrefix(body, "{") {
			return body, true
		}
		rest = rest[st+2+ed+2:]
	}
}

// IsISF returns whether the shader source has an ISF header.
func IsISF(src string) bool {
	_, ok := Header(src)
	return ok
}

// Parse parses the ISF header of the given shader source.
// A missing header yields an empty manifest. Any malformed
// content returns an error of kind [errors.Parse].
func Parse(name, src string) (*Manifest, error) {
	js, ok := Header(src)
	if !ok {
		return &Manifest{}, nil
	}
	m, err := ParseJSON([]byte(js))
	return m, errors.EPath(errors.Parse, "parse isf header", name, err)
}

// ParseJSON parses the JSON text of an ISF header.
func ParseJSON(js []byte) (*Manifest, error) {
	var h header
	if err := jsonx.Unmarshal(js, &h); err != nil {
		return nil, err
	}
	m := &Manifest{Description: h.Description, Credit: h.Credit, Categories: h.Categories}
	seen := map[string]bool{}
	for _, hi := range h.Inputs {
		in, err := hi.decl()
		if err != nil {
			return nil, err
		}
		if seen[in.Name] {
			return nil, fmt.Errorf("duplicate input %q", in.Name)
		}
		seen[in.Name] = true
		m.Inputs = append(m.Inputs, in)
	}
	imps, err := parseImports(h.Imported)
	if err != nil {
		return nil, err
	}
	if len(imps) > 0 {
		m.Imported = imps
	}
	for i, hp := range h.Passes {
		pd, err := hp.decl()
		if err != nil {
			return nil, fmt.Errorf("pass %d: %w", i, err)
		}
		m.Passes = append(m.Passes, pd)
	}
	return m, nil
}

func (hi *headerInput) decl() (InputDecl, error) {
	in := InputDecl{Name: hi.Name, Label: hi.Label, Values: hi.Values, Labels: hi.Labels}
	if in.Name == "" {
		return in, errors.New("input without NAME")
	}
	kind, err := KindFromString(hi.Type)
	if err != nil {
		return in, fmt.Errorf("input %q: %w", hi.Name, err)
	}
	in.Kind = kind
	if len(in.Labels) > 0 && len(in.Labels) != len(in.Values) {
		return in, fmt.Errorf("input %q: %d LABELS for %d VALUES", hi.Name, len(in.Labels), len(in.Values))
	}
	if kind == Audio || kind == AudioFFT {
		mx, err := numbers(hi.Max, 1)
		if err != nil {
			return in, fmt.Errorf("input %q MAX: %w", hi.Name, err)
		}
		if mx != nil {
			in.MaxSamples = int(mx[0])
		}
		return in, nil
	}
	n := kind.Components()
	if n == 0 {
		return in, nil
	}
	fields := []struct {
		raw jsonx.RawMessage
		dst *[]float64
		tag string
	}{
		{hi.Default, &in.Default, "DEFAULT"},
		{hi.Min, &in.Min, "MIN"},
		{hi.Max, &in.Max, "MAX"},
		{hi.Identity, &in.Identity, "IDENTITY"},
	}
	for _, f := range fields {
		v, err := numbers(f.raw, n)
		if err != nil {
			return in, fmt.Errorf("input %q %s: %w", hi.Name, f.tag, err)
		}
		*f.dst = v
	}
	return in, nil
}

// numbers decodes a raw constraint as n numbers. A scalar may be a
// number or a bool, and a vector is an array of exactly n numbers.
func numbers(raw jsonx.RawMessage, n int) ([]float64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil, nil
	}
	if n == 1 {
		switch s {
		case "true":
			return []float64{1}, nil
		case "false":
			return []float64{0}, nil
		}
		var f float64
		if err := jsonx.Unmarshal(raw, &f); err != nil {
			return nil, err
		}
		return []float64{f}, nil
	}
	var fs []float64
	if err := jsonx.Unmarshal(raw, &fs); err != nil {
		return nil, err
	}
	if len(fs) != n {
		return nil, fmt.Errorf("want %d values, got %d", n, len(fs))
	}
	return fs, nil
}

// parseImports accepts both the object form {"name": {"PATH": ...}}
// and the array form [{"NAME": ..., "PATH": ...}].
func parseImports(raw jsonx.RawMessage) (map[string]ImportDecl, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil, nil
	}
	imps := map[string]ImportDecl{}
	if strings.HasPrefix(s, "[") {
		var list []headerImport
		if err := jsonx.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("IMPORTED: %w", err)
		}
		for _, hi := range list {
			if hi.Name == "" || hi.Path == "" {
				return nil, errors.New("IMPORTED: entry needs NAME and PATH")
			}
			imps[hi.Name] = ImportDecl{Name: hi.Name, Path: hi.Path}
		}
		return imps, nil
	}
	var obj map[string]headerImport
	if err := jsonx.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("IMPORTED: %w", err)
	}
	for n, hi := range obj {
		if hi.Path == "" {
			return nil, fmt.Errorf("IMPORTED %q: missing PATH", n)
		}
		imps[n] = ImportDecl{Name: n, Path: hi.Path}
	}
	return imps, nil
}

func (hp *headerPass) decl() (PassDecl, error) {
	pd := PassDecl{Target: hp.Target}
	var err error
	if pd.Width, err = dimension(hp.Width); err != nil {
		return pd, fmt.Errorf("WIDTH: %w", err)
	}
	if pd.Height, err = dimension(hp.Height); err != nil {
		return pd, fmt.Errorf("HEIGHT: %w", err)
	}
	if pd.Persistent, err = flag(hp.Persistent); err != nil {
		return pd, fmt.Errorf("PERSISTENT: %w", err)
	}
	if pd.Float, err = flag(hp.Float); err != nil {
		return pd, fmt.Errorf("FLOAT: %w", err)
	}
	return pd, nil
}

// dimension accepts an expression string or a plain number.
func dimension(raw jsonx.RawMessage) (string, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return "", nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		err := jsonx.Unmarshal(raw, &str)
		return str, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

// flag accepts true/false, 0/1, or "true"/"false".
func flag(raw jsonx.RawMessage) (bool, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	switch strings.ToLower(s) {
	case "", "null", "false", "0":
		return false, nil
	case "true", "1":
		return true, nil
	}
	return false, fmt.Errorf("invalid flag %s", s)
}
