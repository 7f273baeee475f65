// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"cogentcore.org/vision/gpu"
	"cogentcore.org/vision/gpu/headless"
	"cogentcore.org/vision/settings"
	"cogentcore.org/vision/shader"
	"github.com/spf13/cobra"
)

func newCompileCmd(rf *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "compile <shader>...",
		Short: "Compile shaders once and report errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.Load(rf.config)
			if err != nil {
				return err
			}
			return compileFiles(cmd, &shader.Glslang{Path: s.Glslang}, args)
		},
	}
}

func stageOf(path string) gpu.ShaderStages {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vert", ".vs":
		return gpu.VertexShader
	}
	return gpu.FragmentShader
}

func compileFiles(cmd *cobra.Command, comp shader.Compiler, paths []string) error {
	dev := headless.New()
	defer dev.Release()
	failed := 0
	for _, p := range paths {
		sl := shader.NewSlot(p, stageOf(p))
		if err := sl.Compile(dev, comp); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			failed++
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", p)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d shaders failed", failed, len(paths))
	}
	return nil
}
