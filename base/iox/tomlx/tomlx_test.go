// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tomlx

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name  string
	Count int
	Sizes []int
}

func TestSaveOpen(t *testing.T) {
	file := filepath.Join(t.TempDir(), "c.toml")
	in := testConfig{Name: "a", Count: 3, Sizes: []int{1, 2}}
	require.NoError(t, Save(&in, file))
	var out testConfig
	require.NoError(t, Open(&out, file))
	assert.Equal(t, in, out)
}

func TestUnknownField(t *testing.T) {
	var c testConfig
	assert.Error(t, ReadBytes(&c, []byte("Bogus = 1\n")))
	assert.NoError(t, ReadBytes(&c, []byte("Count = 2\n")))
	assert.Equal(t, 2, c.Count)
}
