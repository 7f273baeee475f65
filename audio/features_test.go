// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package audio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	verrors "cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/base/iox/jsonx"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// featureServer answers the handshake, then replies to every
// audio frame with a feature message whose rms mean is the first sample.
func featureServer(t *testing.T, confirm string) (*httptest.Server, chan sessionRequest) {
	reqs := make(chan sessionRequest, 1)
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		assert.NotEmpty(t, r.Header.Get(SessionHeader))
		var req sessionRequest
		if conn.ReadJSON(&req) != nil {
			return
		}
		reqs <- req
		conn.WriteMessage(websocket.TextMessage, []byte(confirm))
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var f audioFrame
			if jsonx.Unmarshal(msg, &f) != nil || f.Type != "audio_frame" || len(f.Payload) == 0 {
				conn.WriteMessage(websocket.TextMessage, []byte("not json"))
				continue
			}
			reply := map[string]map[string][]float32{"rms": {"mean": {f.Payload[0]}}}
			conn.WriteJSON(reply)
		}
	}))
	return srv, reqs
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestFeatureClient(t *testing.T) {
	srv, reqs := featureServer(t, `{"status":"ok"}`)
	defer srv.Close()
	src, dev := fakeSource()
	require.NoError(t, src.StartSession())

	fc := NewFeatureClient(wsURL(srv), "rms")
	fc.Alpha = 0.5
	require.NoError(t, fc.StartSession(context.Background(), src))
	req := <-reqs
	assert.Equal(t, []string{"rms"}, req.Features)
	assert.Equal(t, 48000, req.SampleRate)
	assert.Equal(t, DefaultHopSize, req.HopSize)

	pop := func() Features {
		var got Features
		require.Eventually(t, func() bool {
			v, ok := fc.TryPop()
			if ok {
				got = v
			}
			return ok
		}, 2*time.Second, 5*time.Millisecond)
		return got
	}
	dev.emit([]float32{0})
	assert.Equal(t, float32(0), pop()["rms"])
	dev.emit([]float32{1})
	assert.Equal(t, float32(0.5), pop()["rms"])

	require.NoError(t, fc.EndSession())
	assert.NoError(t, fc.Err())
	assert.Equal(t, 0, src.Subscribers())
	src.EndSession()
}

func TestFeatureClientRejected(t *testing.T) {
	srv, _ := featureServer(t, `{"error":"unknown feature"}`)
	defer srv.Close()
	src, _ := fakeSource()
	require.NoError(t, src.StartSession())
	fc := NewFeatureClient(wsURL(srv), "nope")
	err := fc.StartSession(context.Background(), src)
	require.Error(t, err)
	assert.Equal(t, verrors.Session, verrors.KindOf(err))
	assert.False(t, fc.Running())
	assert.Equal(t, 0, src.Subscribers())
	src.EndSession()
}

// silentServer accepts the session request and never confirms it.
func silentServer(t *testing.T) *httptest.Server {
	done := make(chan struct{})
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var req sessionRequest
		if conn.ReadJSON(&req) != nil {
			return
		}
		<-done
	}))
	t.Cleanup(func() {
		close(done)
		srv.Close()
	})
	return srv
}

func TestFeatureClientHandshakeTimeout(t *testing.T) {
	srv := silentServer(t)
	src, _ := fakeSource()
	require.NoError(t, src.StartSession())
	defer src.EndSession()

	fc := NewFeatureClient(wsURL(srv), "rms")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := fc.StartSession(ctx, src)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, verrors.Session, verrors.KindOf(err))
	assert.False(t, fc.Running())
	assert.Equal(t, 0, src.Subscribers())

	fc = NewFeatureClient(wsURL(srv), "rms")
	fc.HandshakeTimeout = 50 * time.Millisecond
	start = time.Now()
	err = fc.StartSession(context.Background(), src)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, verrors.Session, verrors.KindOf(fc.Err()))
}

func TestFeatureClientMalformed(t *testing.T) {
	srv, _ := featureServer(t, "ok")
	defer srv.Close()
	src, dev := fakeSource()
	require.NoError(t, src.StartSession())
	fc := NewFeatureClient(wsURL(srv), "rms")
	require.NoError(t, fc.StartSession(context.Background(), src))
	dev.emit([]float32{})
	assert.Eventually(t, func() bool { return fc.Err() != nil }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, verrors.Session, verrors.KindOf(fc.Err()))
	fc.EndSession()
	src.EndSession()
}

func TestDecodeFeatures(t *testing.T) {
	f, err := DecodeFeatures([]byte(`{"rms":{"mean":[1,3]},"empty":{"mean":[]}}`))
	require.NoError(t, err)
	assert.Equal(t, Features{"rms": 2}, f)
	_, err = DecodeFeatures([]byte(`[`))
	assert.Error(t, err)
}
