// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStruct struct {
	Name  string  `json:"name"`
	Value float32 `json:"value"`
}

func TestOpen(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "a.json")
	require.NoError(t, os.WriteFile(fn, []byte(`{"name":"a","value":1.5}`), 0o644))
	var ts testStruct
	require.NoError(t, Open(&ts, fn))
	assert.Equal(t, testStruct{"a", 1.5}, ts)

	b, err := WriteBytes(ts)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"a","value":1.5}`, string(b))
	assert.Error(t, ReadBytes(&ts, []byte("{")))
}
