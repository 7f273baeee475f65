// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/base/exec"
	"cogentcore.org/vision/gpu"
	"cogentcore.org/vision/gpu/headless"
	"cogentcore.org/vision/isf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompiler returns the source as the module code, failing
// on sources that contain "syntax error".
type fakeCompiler struct {
	calls int
	last  string
}

func (fc *fakeCompiler) Compile(stage gpu.ShaderStages, name, src string) ([]byte, error) {
	fc.calls++
	fc.last = src
	if strings.Contains(src, "syntax error") {
		return nil, errors.EPath(errors.Compile, "compile "+stage.String(), name, errors.New(name+":3: syntax error"))
	}
	return []byte(src), nil
}

func write(t *testing.T, path, src string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
}

func TestResolveImports(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "noise.glsl"), "//@import common\nfloat noise() { return one(); }")
	write(t, filepath.Join(dir, "common.glsl"), "float one() { return 1.0; }\n")
	main := filepath.Join(dir, "main.frag")

	out, files, err := ResolveImports(main, "#version 450\n//@import noise\nvoid main() {}")
	require.NoError(t, err)
	assert.Equal(t, "#version 450\n// //@import noise\n// //@import common\nfloat one() { return 1.0; }\nfloat noise() { return one(); }\nvoid main() {}", out)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "noise.glsl"), filepath.Join(dir, "common.glsl")}, files)

	_, files, err = ResolveImports(main, "//@import noise\n//@import missing\n")
	assert.ErrorIs(t, err, ErrImportNotFound)
	assert.Equal(t, []string{filepath.Join(dir, "missing.glsl")}, files)
	assert.Equal(t, errors.Compile, errors.KindOf(err))
	assert.Contains(t, err.Error(), "missing")

	write(t, filepath.Join(dir, "a.glsl"), "//@import b")
	write(t, filepath.Join(dir, "b.glsl"), "//@import a")
	_, _, err = ResolveImports(main, "//@import a")
	assert.ErrorIs(t, err, ErrImportCycle)

	out, _, err = ResolveImports(main, "//@imports are not directives")
	require.NoError(t, err)
	assert.Equal(t, "//@imports are not directives", out)
}

func TestParseLog(t *testing.T) {
	log := `stdin
ERROR: 0:12: 'foo' : undeclared identifier
WARNING: 0:3: 'bar' : deprecated
ERROR: 1 compilation errors.  No code generated.`
	assert.Equal(t, "main.frag:12: 'foo' : undeclared identifier", ParseLog(log, "main.frag"))
}

func TestGlslangCommand(t *testing.T) {
	cmd, args, err := (&Glslang{}).Command()
	require.NoError(t, err)
	assert.Equal(t, DefaultGlslang, cmd)
	assert.Empty(t, args)

	cmd, args, err = (&Glslang{Path: `/opt/vk/glslang --target-env "vulkan1.2"`}).Command()
	require.NoError(t, err)
	assert.Equal(t, "/opt/vk/glslang", cmd)
	assert.Equal(t, []string{"--target-env", "vulkan1.2"}, args)

	_, _, err = (&Glslang{Path: `glslang "unterminated`}).Command()
	assert.Equal(t, errors.Parse, errors.KindOf(err))
}

func TestGlslang(t *testing.T) {
	if _, err := exec.LookPath(DefaultGlslang); err != nil {
		t.Skip("glslangValidator not installed")
	}
	g := &Glslang{}
	spv, err := g.Compile(gpu.VertexShader, FullScreenName, FullScreenVertex)
	require.NoError(t, err)
	assert.NotEmpty(t, spv)

	_, err = g.Compile(gpu.FragmentShader, "bad.frag", "#version 450\nvoid main() { undefined(); }\n")
	require.Error(t, err)
	assert.Equal(t, errors.Compile, errors.KindOf(err))
	assert.Contains(t, err.Error(), "bad.frag:2")
}

const isfShader = `/*{"INPUTS": [{"NAME": "speed", "TYPE": "float", "DEFAULT": 0.5}]}*/
#version 450
void main() { gl_FragColor = vec4(speed); }
`

func TestSlotCompile(t *testing.T) {
	dev := headless.New()
	fc := &fakeCompiler{}
	dir := t.TempDir()
	frag := filepath.Join(dir, "main.frag")
	write(t, frag, isfShader)

	sl := NewSlot(frag, gpu.FragmentShader)
	assert.Equal(t, Unloaded, sl.State)
	require.NoError(t, sl.Compile(dev, fc))
	assert.Equal(t, Compiled, sl.State)
	require.NotNil(t, sl.Manifest)
	assert.Len(t, sl.Manifest.Inputs, 1)
	assert.Contains(t, fc.last, "uniform IsfInputs")
	header, body, ok := strings.Cut(fc.last, "#version 450\n")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(header, "/*{"))
	assert.True(t, strings.HasPrefix(body, strings.TrimPrefix(isf.Preamble(sl.Manifest), "\n")))
	assert.Contains(t, body, "\n#line 3\nvoid main()")
	mod := sl.Module

	write(t, frag, "#version 450\nsyntax error\n")
	require.Error(t, sl.Compile(dev, fc))
	assert.Equal(t, Failed, sl.State)
	assert.Same(t, mod, sl.Module)
	assert.NotNil(t, sl.Manifest)
	assert.Equal(t, 1, dev.Live("shader"))

	write(t, frag, "#version 450\nvoid main() {}\n")
	require.NoError(t, sl.Compile(dev, fc))
	assert.NotSame(t, mod, sl.Module)
	assert.Nil(t, sl.Manifest)
	assert.Equal(t, 1, dev.Live("shader"))

	sl.Release()
	assert.Equal(t, 0, dev.Live("shader"))
}

func TestPairErrors(t *testing.T) {
	dev := headless.New()
	fc := &fakeCompiler{}
	dir := t.TempDir()
	vert := filepath.Join(dir, "main.vert")
	frag := filepath.Join(dir, "main.frag")
	write(t, vert, "#version 450\nvoid main() {}\n")
	write(t, frag, isfShader)

	p := NewPair(vert, frag)
	require.True(t, p.Compile(dev, fc))
	assert.True(t, p.Ready())
	assert.Empty(t, p.Errors)
	fragMod := p.Fragment.Module

	write(t, frag, `/*{"INPUTS": [ }*/`+"\nvoid main() {}\n")
	write(t, vert, "syntax error")
	assert.False(t, p.Compile(dev, fc))
	require.Len(t, p.Errors, 2)
	assert.Equal(t, errors.Parse, errors.KindOf(p.Errors["main.frag"]))
	assert.Equal(t, errors.Compile, errors.KindOf(p.Err(gpu.VertexShader)))
	assert.Same(t, fragMod, p.Fragment.Module)
	assert.True(t, p.Ready())

	write(t, vert, "#version 450\nvoid main() {}\n")
	assert.False(t, p.Compile(dev, fc))
	assert.Len(t, p.Errors, 1)
	assert.Error(t, p.Err(gpu.FragmentShader))
}

func TestPairImportFailureKeepsWatching(t *testing.T) {
	dev := headless.New()
	fc := &fakeCompiler{}
	dir := t.TempDir()
	frag := filepath.Join(dir, "main.frag")
	a := filepath.Join(dir, "a.glsl")
	b := filepath.Join(dir, "b.glsl")
	write(t, frag, "#version 450\n//@import a\nvoid main() {}\n")
	write(t, a, "float a() { return 1.0; }\n")

	p := NewPair("", frag)
	require.True(t, p.Compile(dev, fc))
	assert.True(t, p.Uses([]string{a}))

	write(t, a, "//@import b\nfloat a() { return b(); }\n")
	assert.False(t, p.Compile(dev, fc))
	assert.ErrorIs(t, p.Err(gpu.FragmentShader), ErrImportNotFound)
	assert.True(t, p.Uses([]string{a}))
	assert.True(t, p.Uses([]string{b}))

	write(t, b, "float b() { return 2.0; }\n")
	require.True(t, p.Compile(dev, fc))
	assert.Empty(t, p.Errors)
	assert.True(t, p.Uses([]string{b}))
}

func TestPairDefaultVertex(t *testing.T) {
	dev := headless.New()
	dir := t.TempDir()
	frag := filepath.Join(dir, "a.frag")
	write(t, frag, "#version 450\n//@import lib\nvoid main() {}\n")
	write(t, filepath.Join(dir, "lib.glsl"), "float f() { return 0.0; }\n")

	p := NewPair("", frag)
	require.True(t, p.Compile(dev, &fakeCompiler{}))
	assert.Equal(t, FullScreenName, p.Vertex.Name())
	assert.True(t, p.Uses([]string{filepath.Join(dir, "lib.glsl")}))
	assert.True(t, p.Uses([]string{frag}))
	assert.False(t, p.Uses([]string{filepath.Join(dir, "other.frag")}))
	assert.Nil(t, p.Manifest())
}
