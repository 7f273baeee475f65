// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package programs

import (
	"fmt"
	"path/filepath"
	"slices"

	"cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/base/iox/jsonx"
	"cogentcore.org/vision/uniforms"
)

const (
	// RootFile is the name of the root program manifest.
	RootFile = "programs.json"

	// FolderFile is the name of the manifest in each program folder.
	FolderFile = "folder.json"
)

// Root is the root program manifest.
type Root struct {
	// Default is the folder selected at startup.
	Default string `json:"default"`

	// Folders are the program folders, in display order.
	Folders []string `json:"folders"`
}

// Folder is the manifest of one program folder.
type Folder struct {
	// Default is the program selected when the folder is.
	Default string `json:"default"`

	Programs map[string]*ProgramConfig `json:"programs"`
}

// PipelineConfig names the shader files of a program,
// relative to its folder.
type PipelineConfig struct {
	// Vert is the vertex shader, empty for a full-screen triangle.
	Vert string `json:"vert,omitempty"`

	Frag string `json:"frag"`
}

// ProgramConfig is the configuration of one program.
type ProgramConfig struct {
	Pipeline PipelineConfig `json:"pipeline"`

	// Uniforms are the uniform domains the program subscribes to.
	Uniforms []string `json:"uniforms"`

	Config *uniforms.Config `json:"config,omitempty"`
}

// Ref identifies a program in a [Catalog].
type Ref struct {
	Folder  string
	Program string
}

func (r Ref) String() string { return r.Folder + "/" + r.Program }

// Catalog is the set of programs under a directory.
type Catalog struct {
	Dir     string
	Root    Root
	Folders map[string]*Folder

	order []Ref
}

// LoadCatalog reads the root manifest in dir and the manifest of
// each folder it names. There is no earlier state to fall back to,
// so any missing or malformed manifest is an error.
func LoadCatalog(dir string) (*Catalog, error) {
	c := &Catalog{Dir: dir, Folders: map[string]*Folder{}}
	rootFile := filepath.Join(dir, RootFile)
	if err := jsonx.Open(&c.Root, rootFile); err != nil {
		return nil, errors.EPath(errors.Parse, "load programs", rootFile, err)
	}
	for _, name := range c.Root.Folders {
		file := filepath.Join(dir, name, FolderFile)
		f := &Folder{}
		if err := jsonx.Open(f, file); err != nil {
			return nil, errors.EPath(errors.Parse, "load folder", file, err)
		}
		for _, pn := range sortedKeys(f.Programs) {
			if f.Programs[pn] == nil || f.Programs[pn].Pipeline.Frag == "" {
				return nil, errors.EPath(errors.Parse, "load folder", file, fmt.Errorf("program %q has no fragment shader", pn))
			}
			c.order = append(c.order, Ref{name, pn})
		}
		c.Folders[name] = f
	}
	if len(c.order) == 0 {
		return nil, errors.EPath(errors.Parse, "load programs", rootFile, errors.New("no programs"))
	}
	return c, nil
}

func sortedKeys[V any](m map[string]V) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	slices.Sort(ks)
	return ks
}

// Refs returns every program, folder by folder in manifest order
// and sorted by name within a folder.
func (c *Catalog) Refs() []Ref { return slices.Clone(c.order) }

// Default returns the default program of the default folder,
// falling back to the first program.
func (c *Catalog) Default() Ref {
	folder := c.Root.Default
	if f, ok := c.Folders[folder]; ok {
		if _, ok := f.Programs[f.Default]; ok {
			return Ref{folder, f.Default}
		}
		for _, r := range c.order {
			if r.Folder == folder {
				return r
			}
		}
	}
	return c.order[0]
}

// Get returns the configuration of a program.
func (c *Catalog) Get(r Ref) (*ProgramConfig, bool) {
	f, ok := c.Folders[r.Folder]
	if !ok {
		return nil, false
	}
	pc, ok := f.Programs[r.Program]
	return pc, ok
}

// Next returns the program delta places after r, wrapping around.
func (c *Catalog) Next(r Ref, delta int) Ref {
	i := slices.Index(c.order, r)
	if i < 0 {
		return c.Default()
	}
	n := len(c.order)
	return c.order[((i+delta)%n+n)%n]
}

// Paths returns the shader paths of a program. An empty vert
// means the program has no vertex shader.
func (c *Catalog) Paths(r Ref, pc *ProgramConfig) (vert, frag string) {
	dir := filepath.Join(c.Dir, r.Folder)
	frag = filepath.Join(dir, pc.Pipeline.Frag)
	if pc.Pipeline.Vert != "" {
		vert = filepath.Join(dir, pc.Pipeline.Vert)
	}
	return vert, frag
}
