// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package errors

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := EPath(IO, "read shader", "a.frag", fs.ErrNotExist)
	assert.Equal(t, IO, KindOf(err))
	assert.True(t, Is(err, fs.ErrNotExist))
	assert.Equal(t, "io error: read shader a.frag: file does not exist", err.Error())

	wrapped := Join(New("other"), err)
	assert.Equal(t, IO, KindOf(wrapped))
	assert.Equal(t, Unknown, KindOf(New("plain")))
}

func TestENil(t *testing.T) {
	assert.Nil(t, E(Parse, "parse", nil))
	assert.Nil(t, EPath(Parse, "parse", "x", nil))
}

func TestLog1(t *testing.T) {
	v := Log1(3, New("boom"))
	assert.Equal(t, 3, v)
	assert.Equal(t, 5, Ignore1(5, New("ignored")))
	assert.Panics(t, func() { Must(New("panic")) })
}
