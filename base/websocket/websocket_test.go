// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoServer(t *testing.T) *httptest.Server {
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(r.Header.Get("X-Test")))
		for {
			typ, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			conn.WriteMessage(typ, msg)
		}
	}))
}

func TestClient(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, err := Connect(context.Background(), url, http.Header{"X-Test": {"hello"}}, 1)
	require.NoError(t, err)

	typ, msg, err := c.Read()
	require.NoError(t, err)
	assert.Equal(t, TextMessage, typ)
	assert.Equal(t, "hello", string(msg))

	require.NoError(t, c.SendJSON(map[string]int{"a": 1}))
	_, msg, err = c.Read()
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(msg))

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
	_, _, err = c.Read()
	assert.Error(t, err)
}

func TestConnectFails(t *testing.T) {
	srv := echoServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()
	_, err := Connect(context.Background(), url, nil, 2)
	assert.Error(t, err)
}
