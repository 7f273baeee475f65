// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metrics defines the prometheus collectors for the engine
// and an optional HTTP endpoint that exposes them.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FramesRendered counts rendered frames.
	FramesRendered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vision_frames_rendered_total",
			Help: "Total number of frames rendered",
		},
	)

	// FrameSeconds tracks the time spent updating and rendering a frame.
	FrameSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vision_frame_seconds",
			Help:    "Time spent updating and rendering a frame",
			Buckets: []float64{.001, .002, .004, .008, .016, .033, .066, .133},
		},
	)

	// Compiles counts shader compiles by stage and result.
	Compiles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vision_shader_compiles_total",
			Help: "Total number of shader compiles by stage and result",
		},
		[]string{"stage", "result"},
	)

	// ActiveSessions tracks live producer sessions by kind.
	ActiveSessions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vision_active_sessions",
			Help: "Number of live producer sessions by kind",
		},
		[]string{"kind"},
	)

	// UncleanSessions counts sessions whose worker did not exit in time.
	UncleanSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vision_unclean_sessions_total",
			Help: "Total number of sessions abandoned at teardown by kind",
		},
		[]string{"kind"},
	)

	// Drops counts values published by producers that the
	// consumer never observed.
	Drops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vision_producer_drops_total",
			Help: "Total number of producer values overwritten before being observed",
		},
		[]string{"kind"},
	)
)

// Handler returns the HTTP handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes the metrics at /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(sctx)
	}()
	slog.Info("serving metrics", "addr", addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
