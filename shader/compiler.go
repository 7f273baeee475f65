// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/base/exec"
	"cogentcore.org/vision/gpu"
	"github.com/mattn/go-shellwords"
)

// Compiler compiles GLSL source for a stage into SPIR-V.
// The name is used in error messages.
type Compiler interface {
	Compile(stage gpu.ShaderStages, name, src string) ([]byte, error)
}

// DefaultGlslang is the default glslang executable.
const DefaultGlslang = "glslangValidator"

// Glslang is a [Compiler] that runs the glslang reference compiler.
type Glslang struct {
	// Path is the glslang command line, [DefaultGlslang] if empty.
	// It may carry extra arguments, quoted as in a shell.
	Path string

	// Timeout bounds each compile, 10s if zero.
	Timeout time.Duration
}

func stageArg(stage gpu.ShaderStages) string {
	if stage == gpu.VertexShader {
		return "vert"
	}
	return "frag"
}

// Command returns the executable and the extra arguments in Path.
func (g *Glslang) Command() (string, []string, error) {
	if strings.TrimSpace(g.Path) == "" {
		return DefaultGlslang, nil, nil
	}
	args, err := shellwords.Parse(g.Path)
	if err != nil {
		return "", nil, errors.E(errors.Parse, "glslang command", err)
	}
	if len(args) == 0 {
		return DefaultGlslang, nil, nil
	}
	return args[0], args[1:], nil
}

func (g *Glslang) Compile(stage gpu.ShaderStages, name, src string) ([]byte, error) {
	path, extra, err := g.Command()
	if err != nil {
		return nil, err
	}
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out, err := os.CreateTemp("", "vision-*.spv")
	if err != nil {
		return nil, errors.E(errors.IO, "compile "+name, err)
	}
	out.Close()
	defer os.Remove(out.Name())

	args := append(extra, "-V", "--stdin", "-S", stageArg(stage), "-o", out.Name())
	res, err := exec.Minor().Pipe(ctx, []byte(src), path, args...)
	if err != nil {
		msg := ParseLog(res.Log(), filepath.Base(name))
		if msg == "" {
			msg = err.Error()
		}
		return nil, errors.EPath(errors.Compile, "compile "+stage.String(), name, errors.New(msg))
	}
	spv, err := os.ReadFile(out.Name())
	if err != nil {
		return nil, errors.E(errors.IO, "compile "+name, err)
	}
	return spv, nil
}

var logRegexp = regexp.MustCompile(`^(ERROR|WARNING): (?:[^:]*:)?(\d+): (.*)$`)

// ParseLog extracts the error lines of a glslang log,
// rewriting their locations as name:line.
func ParseLog(log, name string) string {
	var msgs []string
	for _, ln := range strings.Split(log, "\n") {
		ln = strings.TrimSpace(ln)
		m := logRegexp.FindStringSubmatch(ln)
		if m == nil || m[1] != "ERROR" {
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s:%s: %s", name, m[2], m[3]))
	}
	return strings.Join(msgs, "\n")
}
