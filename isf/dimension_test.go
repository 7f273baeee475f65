// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package isf

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvalDimension(t *testing.T) {
	base := image.Pt(800, 600)
	inputs := map[string]float64{"foo": 3, "scale": 0.25}
	lookup := func(name string) (float64, bool) {
		v, ok := inputs[name]
		return v, ok
	}
	cases := []struct {
		exp  string
		want int
		ok   bool
	}{
		{"$WIDTH/2", 400, true},
		{"$WIDTH", 800, true},
		{"$HEIGHT * $scale", 150, true},
		{"$WIDTH / $foo", 267, true},
		{"$undeclared + 10", 10, true},
		{"$WIDTH - 1000", 0, true},
		{"$WIDTH +", 0, false},
		{"\"abc\"", 0, false},
		{"$WIDTH / 0", 0, false},
	}
	for _, c := range cases {
		got, ok := EvalDimension(c.exp, base, lookup)
		assert.Equal(t, c.ok, ok, c.exp)
		assert.Equal(t, c.want, got, c.exp)
	}
}

func TestPassSize(t *testing.T) {
	base := image.Pt(800, 600)
	assert.Equal(t, base, PassSize(&PassDecl{}, base, nil))
	assert.Equal(t, image.Pt(400, 600), PassSize(&PassDecl{Width: "$WIDTH/2", Height: "bad("}, base, nil))
	assert.Equal(t, image.Pt(1, 600), PassSize(&PassDecl{Width: "0"}, base, nil))
}
