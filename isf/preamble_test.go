// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package isf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout(t *testing.T) {
	m, err := Parse("test.fs", testShader)
	require.NoError(t, err)
	fields, size := Layout(m)
	require.Len(t, fields, 5)
	offsets := map[string]int{}
	for _, f := range fields {
		offsets[f.Name] = f.Offset
	}
	// float, bool, int packed; vec2 at 8 alignment; vec4 at 16.
	assert.Equal(t, map[string]int{"speed": 0, "invert": 4, "mode": 8, "center": 16, "tint": 32}, offsets)
	assert.Equal(t, 48, size)

	_, size = Layout(&Manifest{Inputs: []InputDecl{{Name: "t", Kind: Image}}})
	assert.Equal(t, 0, size)
}

func TestTextureNames(t *testing.T) {
	m, err := Parse("test.fs", testShader)
	require.NoError(t, err)
	assert.Equal(t, []string{"tex", "wave", "logo", "half", ""}, TextureNames(m))
}

func TestPreamble(t *testing.T) {
	m, err := Parse("test.fs", testShader)
	require.NoError(t, err)
	p := Preamble(m)
	assert.Contains(t, p, "uniform IsfTiming")
	assert.Contains(t, p, "float speed;")
	assert.Contains(t, p, "vec4 tint;")
	assert.Contains(t, p, "layout(set = 1, binding = 1) uniform texture2D isf_tex_tex;")
	assert.Contains(t, p, "layout(set = 1, binding = 2) uniform sampler isf_smp_tex;")
	assert.Contains(t, p, "#define half sampler2D(isf_tex_half, isf_smp_half)")
	assert.NotContains(t, p, "isf_tex_;")
}

func TestInject(t *testing.T) {
	src := "#version 450\nvoid main() {}\n"
	out := Inject(src, "\nPREAMBLE")
	lines := strings.Split(out, "\n")
	assert.Equal(t, []string{"#version 450", "PREAMBLE", "#line 2", "void main() {}", ""}, lines)

	out = Inject("void main() {}", "PREAMBLE")
	assert.True(t, strings.HasPrefix(out, DefaultVersion+"\nPREAMBLE\n#line 1\nvoid main() {}"))
}
