// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package exec runs external tools with configurable standard
// input and output, capturing their output for error reporting.
package exec

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Cmd is a type alias for [exec.Cmd].
type Cmd = exec.Cmd

// ErrNotFound is the error resulting if a path search failed to find an executable file.
var ErrNotFound = exec.ErrNotFound

// StdIO holds the standard input and output routing for a command.
type StdIO struct {
	// Out is the writer to write the standard output of called commands to.
	// It can be set to nil to disable the writing of the standard output.
	Out io.Writer

	// Err is the writer to write the standard error of called commands to.
	// It can be set to nil to disable the writing of the standard error.
	Err io.Writer

	// In is the reader to use as the standard input.
	In io.Reader
}

// StdAll sets all to os.Std*
func (st *StdIO) StdAll() {
	st.Out = os.Stdout
	st.Err = os.Stderr
	st.In = os.Stdin
}

// Config contains the configuration information that
// controls the behavior of running commands.
type Config struct {
	StdIO

	// Dir is the directory to run commands in; empty means the
	// current directory.
	Dir string

	// Env contains any additional environment variables specified.
	Env map[string]string

	// Echo, if non-nil, receives each command line before it is run.
	Echo io.Writer
}

// Major returns a [Config] that routes output to the terminal,
// for commands the user should see.
func Major() *Config {
	c := &Config{}
	c.StdAll()
	return c
}

// Minor returns a [Config] that discards output,
// for commands whose results are only captured.
func Minor() *Config {
	return &Config{}
}

// Exec runs the command with the given arguments, waiting for it to
// finish. It returns whether the command actually ran (as opposed to
// failing to start) along with any error.
func (c *Config) Exec(ctx context.Context, cmd string, args ...string) (bool, error) {
	cm := c.command(ctx, cmd, args...)
	err := cm.Run()
	ran := cm.ProcessState != nil
	if err != nil {
		slog.Debug("command failed", "cmd", cm.String(), "ran", ran, "err", err)
	}
	return ran, err
}

func (c *Config) command(ctx context.Context, cmd string, args ...string) *exec.Cmd {
	cm := exec.CommandContext(ctx, cmd, args...)
	cm.Dir = c.Dir
	if len(c.Env) > 0 {
		cm.Env = os.Environ()
		for k, v := range c.Env {
			cm.Env = append(cm.Env, k+"="+v)
		}
	}
	cm.Stdout = c.Out
	cm.Stderr = c.Err
	cm.Stdin = c.In
	if c.Echo != nil {
		io.WriteString(c.Echo, cm.String()+"\n")
	}
	return cm
}

// Run runs the given command using the given configuration information and arguments.
func (c *Config) Run(ctx context.Context, cmd string, args ...string) error {
	_, err := c.Exec(ctx, cmd, args...)
	return err
}

// Output runs the command and returns the text from stdout.
func (c *Config) Output(ctx context.Context, cmd string, args ...string) (string, error) {
	oldStdout := c.Out
	// need to use buf to capture output
	buf := &bytes.Buffer{}
	c.Out = buf
	_, err := c.Exec(ctx, cmd, args...)
	c.Out = oldStdout
	if c.Out != nil {
		c.Out.Write(buf.Bytes())
	}
	return strings.TrimSuffix(buf.String(), "\n"), err
}

// Result holds the captured output of [Config.Pipe].
type Result struct {
	Stdout []byte
	Stderr []byte
}

// Log returns the combined textual output, which is where most
// compilers write their diagnostics.
func (r *Result) Log() string {
	s := strings.TrimSpace(string(r.Stdout))
	e := strings.TrimSpace(string(r.Stderr))
	switch {
	case s == "":
		return e
	case e == "":
		return s
	}
	return s + "\n" + e
}

// Pipe runs the command with in as its standard input, capturing
// standard output and error in the returned [Result] regardless of
// the configured writers.
func (c *Config) Pipe(ctx context.Context, in []byte, cmd string, args ...string) (*Result, error) {
	res := &Result{}
	var out, errb bytes.Buffer
	sc := *c
	sc.In = bytes.NewReader(in)
	sc.Out = &out
	sc.Err = &errb
	_, err := sc.Exec(ctx, cmd, args...)
	res.Stdout, res.Stderr = out.Bytes(), errb.Bytes()
	return res, err
}

// LookPath searches for an executable named file in the
// directories named by the PATH environment variable.
func LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run calls [Config.Run] on [Major]
func Run(ctx context.Context, cmd string, args ...string) error {
	return Major().Run(ctx, cmd, args...)
}

// Output calls [Config.Output] on [Minor]
func Output(ctx context.Context, cmd string, args ...string) (string, error) {
	return Minor().Output(ctx, cmd, args...)
}
