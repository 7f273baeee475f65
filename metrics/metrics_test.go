// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectors(t *testing.T) {
	before := testutil.ToFloat64(Compiles.WithLabelValues("fragment", "ok"))
	Compiles.WithLabelValues("fragment", "ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Compiles.WithLabelValues("fragment", "ok")))

	ActiveSessions.WithLabelValues("test").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(ActiveSessions.WithLabelValues("test")))
	ActiveSessions.WithLabelValues("test").Dec()
}

func TestHandler(t *testing.T) {
	FramesRendered.Inc()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "vision_frames_rendered_total"))
}
