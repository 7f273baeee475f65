// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package isf

import (
	"testing"

	"cogentcore.org/vision/base/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testShader = `/*{
	"DESCRIPTION": "test",
	"CATEGORIES": ["Test"],
	"INPUTS": [
		{"NAME": "speed", "TYPE": "float", "DEFAULT": 0.5, "MIN": 0, "MAX": 2},
		{"NAME": "invert", "TYPE": "bool", "DEFAULT": true},
		{"NAME": "mode", "TYPE": "long", "VALUES": [2, 4], "LABELS": ["a", "b"]},
		{"NAME": "center", "TYPE": "point2D", "DEFAULT": [0.5, 0.5]},
		{"NAME": "tint", "TYPE": "color", "DEFAULT": [1, 0, 0, 1]},
		{"NAME": "tex", "TYPE": "image"},
		{"NAME": "wave", "TYPE": "audio", "MAX": 256}
	],
	"IMPORTED": {"logo": {"PATH": "logo.png"}},
	"PASSES": [
		{"TARGET": "half", "WIDTH": "$WIDTH/2", "HEIGHT": 300, "PERSISTENT": true},
		{}
	]
}*/
#version 450
void main() { gl_FragColor = vec4(speed); }
`

func TestParse(t *testing.T) {
	m, err := Parse("test.fs", testShader)
	require.NoError(t, err)
	assert.Equal(t, "test", m.Description)
	require.Len(t, m.Inputs, 7)

	speed, ok := m.Input("speed")
	require.True(t, ok)
	assert.Equal(t, Float, speed.Kind)
	assert.Equal(t, []float64{0.5}, speed.Default)
	assert.Equal(t, []float64{2}, speed.Max)

	inv, _ := m.Input("invert")
	assert.Equal(t, []float64{1}, inv.Default)
	mode, _ := m.Input("mode")
	assert.Equal(t, []int{2, 4}, mode.Values)
	center, _ := m.Input("center")
	assert.Equal(t, []float64{0.5, 0.5}, center.Default)
	wave, _ := m.Input("wave")
	assert.Equal(t, 256, wave.MaxSamples)

	assert.Equal(t, map[string]ImportDecl{"logo": {Name: "logo", Path: "logo.png"}}, m.Imported)
	require.Len(t, m.Passes, 2)
	assert.Equal(t, PassDecl{Target: "half", Width: "$WIDTH/2", Height: "300", Persistent: true}, m.Passes[0])
	assert.Equal(t, PassDecl{}, m.Passes[1])
}

func TestParseNoHeader(t *testing.T) {
	m, err := Parse("plain.frag", "#version 450\n/* not a header */\nvoid main() {}\n")
	require.NoError(t, err)
	assert.Empty(t, m.Inputs)
	assert.False(t, IsISF("void main() {}"))
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"syntax":    `/*{ "INPUTS": [ }*/`,
		"type":      `/*{ "INPUTS": [{"NAME": "a", "TYPE": "matrix"}] }*/`,
		"duplicate": `/*{ "INPUTS": [{"NAME": "a", "TYPE": "float"}, {"NAME": "a", "TYPE": "bool"}] }*/`,
		"labels":    `/*{ "INPUTS": [{"NAME": "a", "TYPE": "long", "VALUES": [1, 2], "LABELS": ["x"]}] }*/`,
		"vector":    `/*{ "INPUTS": [{"NAME": "a", "TYPE": "point2D", "DEFAULT": [1]}] }*/`,
		"imported":  `/*{ "IMPORTED": [{"NAME": "a"}] }*/`,
	}
	for name, src := range cases {
		_, err := Parse(name+".fs", src)
		if assert.Error(t, err, name) {
			assert.Equal(t, errors.Parse, errors.KindOf(err), name)
		}
	}
}

func TestImportedArray(t *testing.T) {
	m, err := ParseJSON([]byte(`{"IMPORTED": [{"NAME": "b", "PATH": "b.png"}, {"NAME": "a", "PATH": "a.jpg"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, m.ImportNames())
}

func TestManifestEqual(t *testing.T) {
	a, err := Parse("a", testShader)
	require.NoError(t, err)
	b, err := Parse("b", testShader)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.True(t, (&Manifest{}).Equal(&Manifest{Inputs: []InputDecl{}}))

	b.Inputs[0].Default = []float64{1}
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(nil))
}

func TestManifestClone(t *testing.T) {
	m, err := Parse("a", testShader)
	require.NoError(t, err)
	c, err := m.Clone()
	require.NoError(t, err)
	assert.True(t, m.Equal(c))

	speed, ok := c.Input("speed")
	require.True(t, ok)
	assert.NotNil(t, speed.Default)
	invert, ok := c.Input("invert")
	require.True(t, ok)
	assert.Nil(t, invert.Min)
	assert.Nil(t, invert.Max)

	c.Inputs[0].Default[0] = 99
	assert.False(t, m.Equal(c))
}
