// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package isf

import (
	"fmt"
	"strings"
	"text/template"

	"cogentcore.org/vision/gpu"
)

// Bind group indices used by ISF programs. Uniform domains that the
// program subscribes to follow at [UserGroup] and above.
const (
	TimingGroup = 0
	InputGroup  = 1
	UserGroup   = 2
)

// DefaultVersion is the version directive inserted
// when a shader does not have one.
const DefaultVersion = "#version 450"

// Field is a member of the input value uniform block,
// with its std140 byte offset.
type Field struct {
	Name   string
	Kind   InputKind
	GLSL   string
	Offset int
	Size   int
}

func glslType(k InputKind) (typ string, size, align int) {
	switch k {
	case Event, Bool:
		return "bool", 4, 4
	case Long:
		return "int", 4, 4
	case Float:
		return "float", 4, 4
	case Point2D:
		return "vec2", 8, 8
	case Color:
		return "vec4", 16, 16
	}
	panic(fmt.Sprintf("isf: no uniform type for input kind %v", k))
}

// Layout returns the std140 layout of the input value block for the
// non-texture inputs of the manifest, and the total block size, which
// is 0 when there are no such inputs.
func Layout(m *Manifest) (fields []Field, size int) {
	off := 0
	for _, in := range m.Inputs {
		if in.Kind.IsTexture() {
			continue
		}
		typ, sz, align := glslType(in.Kind)
		off = (off + align - 1) &^ (align - 1)
		fields = append(fields, Field{Name: in.Name, Kind: in.Kind, GLSL: typ, Offset: off, Size: sz})
		off += sz
	}
	if len(fields) == 0 {
		return nil, 0
	}
	return fields, gpu.AlignedSize(off)
}

// TextureNames returns the names of the textures bound in the input
// group, in binding order: texture inputs in declaration order,
// imported images sorted by name, then one texture per pass, named
// by its target (empty for passes without a target).
func TextureNames(m *Manifest) []string {
	var names []string
	for _, in := range m.Inputs {
		if in.Kind.IsTexture() {
			names = append(names, in.Name)
		}
	}
	names = append(names, m.ImportNames()...)
	for _, p := range m.Passes {
		names = append(names, p.Target)
	}
	return names
}

type preambleTexture struct {
	Name           string
	Binding        int
	SamplerBinding int
}

type preambleData struct {
	TimingGroup int
	InputGroup  int
	Fields      []Field
	Textures    []preambleTexture
}

var preambleTemplate = template.Must(template.New("preamble").Parse(`
layout(set = {{.TimingGroup}}, binding = 0) uniform IsfTiming {
	float TIME;
	float TIMEDELTA;
	int FRAMEINDEX;
	int PASSINDEX;
	vec2 RENDERSIZE;
	vec4 DATE;
};
{{- if .Fields}}
layout(set = {{.InputGroup}}, binding = 0) uniform IsfInputs {
{{- range .Fields}}
	{{.GLSL}} {{.Name}};
{{- end}}
};
{{- end}}
{{- range .Textures}}
layout(set = {{$.InputGroup}}, binding = {{.Binding}}) uniform texture2D isf_tex_{{.Name}};
layout(set = {{$.InputGroup}}, binding = {{.SamplerBinding}}) uniform sampler isf_smp_{{.Name}};
#define {{.Name}} sampler2D(isf_tex_{{.Name}}, isf_smp_{{.Name}})
{{- end}}
layout(location = 0) in vec2 isf_FragNormCoord;
layout(location = 0) out vec4 isf_FragColor;
#define gl_FragColor isf_FragColor
#define IMG_NORM_PIXEL(img, coord) texture(img, coord)
#define IMG_PIXEL(img, coord) texture(img, (coord) / vec2(textureSize(img, 0)))
#define IMG_THIS_NORM_PIXEL(img) texture(img, isf_FragNormCoord)
#define IMG_THIS_PIXEL(img) texture(img, isf_FragNormCoord)
#define IMG_SIZE(img) vec2(textureSize(img, 0))
`))

// Preamble returns the GLSL declarations for the manifest: the timing
// block, the input value block, a texture and sampler per bound
// texture, and the ISF helper macros.
func Preamble(m *Manifest) string {
	fields, _ := Layout(m)
	pd := preambleData{TimingGroup: TimingGroup, InputGroup: InputGroup, Fields: fields}
	for i, name := range TextureNames(m) {
		if name == "" {
			continue
		}
		pd.Textures = append(pd.Textures, preambleTexture{Name: name, Binding: gpu.TextureBinding(i), SamplerBinding: gpu.SamplerBinding(i)})
	}
	var sb strings.Builder
	if err := preambleTemplate.Execute(&sb, pd); err != nil {
		panic(err) // only on a template bug
	}
	return sb.String()
}

// Inject inserts the preamble right after the version directive of src,
// inserting [DefaultVersion] first if src has none. A #line directive
// keeps compiler line numbers matching the original source.
func Inject(src, preamble string) string {
	lines := strings.SplitAfter(src, "\n")
	for i, ln := range lines {
		if strings.HasPrefix(strings.TrimSpace(ln), "#version") {
			var sb strings.Builder
			for _, l := range lines[:i+1] {
				sb.WriteString(l)
			}
			if !strings.HasSuffix(ln, "\n") {
				sb.WriteString("\n")
			}
			sb.WriteString(strings.TrimPrefix(preamble, "\n"))
			fmt.Fprintf(&sb, "\n#line %d\n", i+2)
			for _, l := range lines[i+1:] {
				sb.WriteString(l)
			}
			return sb.String()
		}
	}
	return DefaultVersion + "\n" + strings.TrimPrefix(preamble, "\n") + "\n#line 1\n" + src
}
