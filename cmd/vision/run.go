// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"cogentcore.org/vision/audio"
	"cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/gpu"
	"cogentcore.org/vision/gpu/headless"
	"cogentcore.org/vision/gpu/webgpu"
	"cogentcore.org/vision/metrics"
	"cogentcore.org/vision/programs"
	"cogentcore.org/vision/settings"
	"cogentcore.org/vision/shader"
	"cogentcore.org/vision/uniforms"
	"cogentcore.org/vision/video"
	"github.com/spf13/cobra"
)

type runFlags struct {
	headless bool
	frames   int
	program  string
}

func newRunCmd(rf *rootFlags) *cobra.Command {
	fl := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the visualizer on the programs directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.Load(rf.config)
			if err != nil {
				return err
			}
			if fl.headless {
				s.Headless = true
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, s, fl)
		},
	}
	cmd.Flags().BoolVar(&fl.headless, "headless", false, "render in memory without a GPU")
	cmd.Flags().IntVar(&fl.frames, "frames", 0, "stop after this many frames, 0 to run until interrupted")
	cmd.Flags().StringVar(&fl.program, "program", "", "program to start with, as folder/name")
	return cmd
}

func newDevice(s *settings.Settings) (gpu.Device, error) {
	if s.Headless {
		return headless.New(), nil
	}
	return webgpu.New()
}

func newAudio(s *settings.Settings) *audio.Source {
	switch {
	case s.NoAudio:
		return nil
	case s.AudioFile != "":
		return audio.NewSource(audio.FileOpener(s.AudioFile))
	}
	return audio.NewSource(audio.OpenPortAudio)
}

func run(ctx context.Context, s *settings.Settings, fl *runFlags) error {
	cat, err := programs.LoadCatalog(s.ProgramsDir)
	if err != nil {
		return err
	}
	dev, err := newDevice(s)
	if err != nil {
		return err
	}
	defer dev.Release()

	if s.MetricsAddr != "" {
		go func() { errors.Log(metrics.Serve(ctx, s.MetricsAddr)) }()
	}
	env := &uniforms.Env{
		Context:      ctx,
		Device:       dev,
		Audio:        newAudio(s),
		FeatureURL:   s.FeatureURL,
		SpectrumBins: s.SpectrumBins,
		Smoothing:    s.Smoothing,
		OpenVideo:    video.OpenReisen,
		VideoMaxSize: s.MaxVideoSize(),
		MediaDir:     s.MediaDir,
	}
	st := programs.NewStore(cat, env, &shader.Glslang{Path: s.Glslang}, s.Size())
	defer st.Release()

	w, err := shader.Watch(s.ProgramsDir, s.Debounce())
	if err != nil {
		slog.Warn("shader watching disabled", "err", err)
	} else {
		defer w.Close()
		st.Watcher = w
	}

	if err := selectProgram(st, fl.program); err != nil {
		return err
	}
	out, err := dev.NewTexture("output", s.Size(), gpu.RGBA8, gpu.UsageRender)
	if err != nil {
		return err
	}
	defer out.Release()
	return loop(ctx, st, out, s.FPS, fl.frames)
}

func selectProgram(st *programs.Store, name string) error {
	if name == "" {
		return st.SelectDefault()
	}
	for _, r := range st.Catalog.Refs() {
		if r.String() == name {
			return st.Select(r)
		}
	}
	slog.Warn("program not found, using default", "program", name)
	return st.SelectDefault()
}

// loop updates and renders at fps until ctx is done or frames
// frames have been rendered, logging the displayed error when it changes.
func loop(ctx context.Context, st *programs.Store, out *gpu.Texture, fps, frames int) error {
	fps = max(fps, 1)
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	last := time.Now()
	shown := ""
	for n := 0; frames <= 0 || n < frames; n++ {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			st.Update(now.Sub(last))
			last = now
		}
		if err := st.Render(out); err != nil {
			slog.Error("render", "err", err)
		}
		msg := ""
		if err := st.Err(); err != nil {
			msg = err.Error()
		}
		if msg != shown {
			if msg != "" {
				slog.Error("program error", "program", st.Current().String(), "err", msg)
			} else {
				slog.Info("program ok", "program", st.Current().String())
			}
			shown = msg
		}
	}
	return nil
}
