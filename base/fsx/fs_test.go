// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fsx

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string) {
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 2))))
}

func TestFirstImage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("text"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	writePNG(t, filepath.Join(dir, "sub", "b.png"))
	writePNG(t, filepath.Join(dir, "c.png"))

	fn, ok := First(dir, Image)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "c.png"), fn)

	assert.Len(t, Files(dir, Image), 2)
	_, ok = First(dir, Video)
	assert.False(t, ok)
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "x")
	ok, err := FileExists(fn)
	assert.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, os.WriteFile(fn, nil, 0o644))
	ok, err = FileExists(fn)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, DirExists(dir))
}

func TestSplitRootPathFS(t *testing.T) {
	r, rest := SplitRootPathFS("a/b/c")
	assert.Equal(t, "a", r)
	assert.Equal(t, "b/c", rest)
}
