// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package shader compiles shader sources into modules, resolving
// imports and ISF headers, and watches the shader tree for changes.
package shader

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cogentcore.org/vision/base/errors"
)

// ImportDirective starts a line that imports <name>.glsl
// from the directory of the importing file.
const ImportDirective = "//@import"

var (
	// ErrImportNotFound is wrapped by errors of imports that do not exist.
	ErrImportNotFound = errors.New("import not found")

	// ErrImportCycle is wrapped by errors of imports that include themselves.
	ErrImportCycle = errors.New("import cycle")
)

// ResolveImports replaces every import line of src, the contents of
// the file at path, by the contents of the imported file, recursively.
// It returns the resolved source and the paths of all imported files.
// A missing import is an [errors.Compile] error naming the import;
// the paths are still returned on error, including the missing file,
// so that creating or fixing any of them can trigger a recompile.
func ResolveImports(path, src string) (string, []string, error) {
	r := &resolver{}
	out, err := r.resolve(path, src)
	if err != nil {
		return "", r.files, err
	}
	return out, r.files, nil
}

type resolver struct {
	stack []string
	files []string
}

func (r *resolver) resolve(path, src string) (string, error) {
	r.stack = append(r.stack, path)
	defer func() { r.stack = r.stack[:len(r.stack)-1] }()

	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	for li := len(lines) - 1; li >= 0; li-- {
		name, ok := importName(lines[li])
		if !ok {
			continue
		}
		file := filepath.Join(filepath.Dir(path), name+".glsl")
		if slices.Contains(r.stack, file) {
			return "", errors.EPath(errors.Compile, "import "+name, path, ErrImportCycle)
		}
		if !slices.Contains(r.files, file) {
			r.files = append(r.files, file)
		}
		b, err := os.ReadFile(file)
		if err != nil {
			return "", errors.EPath(errors.Compile, "import "+name, path, ErrImportNotFound)
		}
		sub, err := r.resolve(file, string(b))
		if err != nil {
			return "", err
		}
		lines[li] = "// " + strings.TrimSpace(lines[li])
		lines = slices.Insert(lines, li+1, strings.TrimSuffix(sub, "\n"))
	}
	return strings.Join(lines, "\n"), nil
}

// importName returns the name of an import line.
func importName(line string) (string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), ImportDirective)
	if !ok || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
		return "", false
	}
	name := strings.Trim(strings.TrimSpace(rest), `"<>`)
	return name, name != ""
}
