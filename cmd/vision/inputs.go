// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/isf"
	"github.com/spf13/cobra"
)

func newInputsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inputs <shader>",
		Short: "Print the ISF inputs and passes declared by a shader",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return errors.EPath(errors.IO, "read shader", args[0], err)
			}
			m, err := isf.Parse(args[0], string(b))
			if err != nil {
				return err
			}
			printManifest(cmd, m)
			return nil
		},
	}
}

func nums(v []float64) string {
	if v == nil {
		return "-"
	}
	s := make([]string, len(v))
	for i, x := range v {
		s[i] = fmt.Sprint(x)
	}
	return strings.Join(s, ",")
}

func printManifest(cmd *cobra.Command, m *isf.Manifest) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tDEFAULT\tMIN\tMAX")
	for _, in := range m.Inputs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", in.Name, in.Kind, nums(in.Default), nums(in.Min), nums(in.Max))
	}
	for _, name := range m.ImportNames() {
		fmt.Fprintf(tw, "%s\timported\t%s\t-\t-\n", name, m.Imported[name].Path)
	}
	for i, p := range m.Passes {
		w, h := p.Width, p.Height
		if w == "" {
			w = "$WIDTH"
		}
		if h == "" {
			h = "$HEIGHT"
		}
		fmt.Fprintf(tw, "pass %d %s\tpass\t%sx%s\t-\t-\n", i, p.Target, w, h)
	}
	tw.Flush()
}
