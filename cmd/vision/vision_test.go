// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cogentcore.org/vision/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inputsShader = `/*{
	"INPUTS": [
		{"NAME": "speed", "TYPE": "float", "DEFAULT": 0.5, "MIN": 0, "MAX": 2},
		{"NAME": "tex", "TYPE": "image"}
	],
	"IMPORTED": {"logo": {"PATH": "logo.png"}},
	"PASSES": [{"TARGET": "half", "WIDTH": "$WIDTH/2"}, {}]
}*/
void main() {}
`

func write(t *testing.T, file, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInputs(t *testing.T) {
	file := filepath.Join(t.TempDir(), "a.frag")
	write(t, file, inputsShader)
	out, err := execute(t, "-q", "inputs", file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[1], "speed")
	assert.Contains(t, lines[1], "0.5")
	assert.Contains(t, lines[2], "image")
	assert.Contains(t, lines[3], "logo.png")
	assert.Contains(t, lines[4], "$WIDTH/2x$HEIGHT")

	write(t, file, "/*{\"INPUTS\": 3}*/\n")
	_, err = execute(t, "-q", "inputs", file)
	assert.Error(t, err)
}

type fakeCompiler struct{}

func (fakeCompiler) Compile(stage gpu.ShaderStages, name, src string) ([]byte, error) {
	if strings.Contains(src, "oops") {
		return nil, errors.New(name + ":2: syntax error")
	}
	return []byte{3, 2, 35, 7}, nil
}

func TestCompileFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.frag")
	bad := filepath.Join(dir, "bad.vert")
	write(t, good, "void main() {}\n")
	write(t, bad, "oops\n")

	cmd := newCompileCmd(&rootFlags{})
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	err := compileFiles(cmd, fakeCompiler{}, []string{good, bad})
	assert.ErrorContains(t, err, "1 of 2")
	assert.Contains(t, out.String(), good+": ok")
	assert.Contains(t, out.String(), "syntax error")
	assert.Equal(t, gpu.VertexShader, stageOf(bad))
	assert.Equal(t, gpu.FragmentShader, stageOf(good))
}

func TestRunHeadless(t *testing.T) {
	dir := t.TempDir()
	progs := filepath.Join(dir, "programs")
	write(t, filepath.Join(progs, "programs.json"), `{"default": "main", "folders": ["main"]}`)
	write(t, filepath.Join(progs, "main", "folder.json"), `{"programs": {"one": {"pipeline": {"frag": "one.frag"}}}}`)
	write(t, filepath.Join(progs, "main", "one.frag"), "void main() {}\n")
	config := filepath.Join(dir, "settings.toml")
	write(t, config, `
ProgramsDir = "`+filepath.ToSlash(progs)+`"
MediaDir = "`+filepath.ToSlash(dir)+`"
Width = 32
Height = 16
FPS = 200
NoAudio = true
Glslang = "vision-missing-glslang"
`)
	_, err := execute(t, "-q", "--config", config, "run", "--headless", "--frames", "3", "--program", "main/one")
	assert.NoError(t, err)

	write(t, config, `ProgramsDir = "`+filepath.ToSlash(filepath.Join(dir, "empty"))+`"`)
	_, err = execute(t, "-q", "--config", config, "run", "--headless", "--frames", "1")
	assert.Error(t, err)
}
