// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tomlx provides TOML file helpers.
package tomlx

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Open reads the given object from the given filename using TOML encoding.
func Open(v any, filename string) error {
	fp, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	return Read(v, bufio.NewReader(fp))
}

// Read reads the given object from the given reader, using TOML encoding.
// Keys that do not match a field are an error.
func Read(v any, reader io.Reader) error {
	d := toml.NewDecoder(reader)
	d.DisallowUnknownFields()
	return d.Decode(v)
}

// ReadBytes reads the given object from the given bytes, using TOML encoding.
func ReadBytes(v any, data []byte) error {
	return Read(v, bytes.NewReader(data))
}

// Save writes the given object to the given filename using TOML encoding.
func Save(v any, filename string) error {
	b, err := WriteBytes(v)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0o644)
}

// WriteBytes returns the TOML encoding of the given object.
func WriteBytes(v any) ([]byte, error) {
	return toml.Marshal(v)
}
