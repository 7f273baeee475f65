// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package websocket provides a small WebSocket client used to talk
// to local analysis services.
package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"cogentcore.org/vision/base/iox/jsonx"
	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

// MessageTypes are the types of WebSocket messages.
type MessageTypes int

const (
	// TextMessage is a UTF-8 text message, typically JSON.
	TextMessage MessageTypes = websocket.TextMessage

	// BinaryMessage is a binary data message.
	BinaryMessage MessageTypes = websocket.BinaryMessage
)

// DefaultTries is the number of dial attempts made by [Connect].
const DefaultTries = 3

// Client represents a WebSocket client connection.
// You can use [Connect] to create a new Client. One goroutine
// may send while another reads.
type Client struct {

	// conn is the underlying WebSocket connection.
	conn *websocket.Conn

	// closeOnce guards closing conn.
	closeOnce sync.Once
}

// Connect dials the WebSocket server at url with the given request
// header, retrying with exponential backoff up to tries times.
func Connect(ctx context.Context, url string, header http.Header, tries int) (*Client, error) {
	if tries < 1 {
		tries = DefaultTries
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	var conn *websocket.Conn
	err := backoff.Retry(func() error {
		c, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			return err
		}
		conn = c
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(tries-1)), ctx))
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Send sends a message with the given type.
func (c *Client) Send(typ MessageTypes, msg []byte) error {
	return c.conn.WriteMessage(int(typ), msg)
}

// SendJSON sends v encoded as JSON in a text message.
func (c *Client) SendJSON(v any) error {
	b, err := jsonx.Marshal(v)
	if err != nil {
		return err
	}
	return c.Send(TextMessage, b)
}

// Read blocks until the next message arrives.
func (c *Client) Read() (MessageTypes, []byte, error) {
	typ, msg, err := c.conn.ReadMessage()
	return MessageTypes(typ), msg, err
}

// SetReadDeadline sets the deadline for the next [Client.Read].
func (c *Client) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// Close sends a close frame and closes the connection, which
// unblocks any pending [Client.Read]. It is safe to call more than once
// and concurrently with Send.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.conn.Close()
	})
	return err
}

// IsClosed returns whether err reports a normal closure of the connection.
func IsClosed(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
