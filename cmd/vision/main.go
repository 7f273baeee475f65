// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command vision is a real-time shader visualizer that hot-reloads
// shader programs and feeds them audio, video and image inputs.
package main

import (
	"os"

	"cogentcore.org/vision/base/logx"
	"cogentcore.org/vision/settings"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	config   string
	vv, v, q bool
}

func newRootCmd() *cobra.Command {
	rf := &rootFlags{}
	root := &cobra.Command{
		Use:           "vision",
		Short:         "Real-time shader visualizer",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logx.UserLevel = logx.LevelFromFlags(rf.vv, rf.v, rf.q)
			logx.SetDefaultLogger()
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&rf.config, "config", "", "settings file (default "+settings.DefaultFile+")")
	pf.BoolVar(&rf.vv, "vv", false, "very verbose: show debug messages")
	pf.BoolVarP(&rf.v, "verbose", "v", false, "verbose: show info messages")
	pf.BoolVarP(&rf.q, "quiet", "q", false, "quiet: only show errors")

	root.AddCommand(newRunCmd(rf), newCompileCmd(rf), newInputsCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
