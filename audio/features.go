// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"sync"
	"time"

	"cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/base/iox/jsonx"
	"cogentcore.org/vision/base/ringbuf"
	"cogentcore.org/vision/base/session"
	"cogentcore.org/vision/base/websocket"
	"cogentcore.org/vision/metrics"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultFeatureURL is the default address of the feature extraction service.
const DefaultFeatureURL = "ws://127.0.0.1:9002"

// DefaultHopSize is the default hop size requested from the service.
const DefaultHopSize = 512

// DefaultHandshakeTimeout bounds the wait for the session confirmation.
const DefaultHandshakeTimeout = 2 * time.Second

// SessionHeader is the request header carrying the session id.
const SessionHeader = "X-Session-Id"

// Features maps feature names to smoothed scalar values.
type Features map[string]float32

// sessionRequest is the handshake message sent after connecting.
type sessionRequest struct {
	Features   []string `json:"features"`
	SampleRate int      `json:"sample_rate"`
	HopSize    int      `json:"hop_size"`
}

// audioFrame is an outbound frame message.
type audioFrame struct {
	Type    string    `json:"type"`
	Payload []float32 `json:"payload"`
}

// featureValue is one inbound feature entry.
type featureValue struct {
	Mean []float32 `json:"mean"`
}

// FeatureClient streams audio frames from a [Source] to an external
// feature extraction service over a WebSocket, and publishes the
// smoothed features it sends back. Any failure ends the session and
// is available from [FeatureClient.Err]; it never panics the caller.
type FeatureClient struct {
	// URL is the WebSocket address of the service.
	URL string

	// Features are the names of the requested features.
	Features []string

	// HopSize is the hop size requested from the service.
	HopSize int

	// Alpha is the smoothing factor applied to every feature.
	Alpha float32

	// HandshakeTimeout bounds the wait for the session confirmation,
	// [DefaultHandshakeTimeout] if zero. An earlier context deadline wins.
	HandshakeTimeout time.Duration

	// ID is the id of the current session, sent in [SessionHeader].
	ID string

	src     *Source
	in      *Frames
	out     *ringbuf.Ring[Features]
	client  *websocket.Client
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	session uint64
	running bool

	mu      sync.Mutex
	err     error
	closing bool
}

// NewFeatureClient returns a new [FeatureClient] for the given features.
func NewFeatureClient(url string, features ...string) *FeatureClient {
	if url == "" {
		url = DefaultFeatureURL
	}
	return &FeatureClient{URL: url, Features: features, HopSize: DefaultHopSize, Alpha: DefaultAlpha}
}

// StartSession connects to the service, performs the handshake and
// starts the sender and receiver goroutines. The returned error is
// also recorded and available from [FeatureClient.Err].
func (fc *FeatureClient) StartSession(ctx context.Context, src *Source) error {
	if fc.running {
		fc.EndSession()
	}
	fc.src = src
	fc.session = src.Session()
	fc.setErr(nil)
	fc.closing = false
	fc.ID = uuid.NewString()

	client, err := websocket.Connect(ctx, fc.URL, http.Header{SessionHeader: {fc.ID}}, websocket.DefaultTries)
	if err != nil {
		return fc.fail("connect", err)
	}
	if err := fc.handshake(ctx, client); err != nil {
		client.Close()
		return fc.fail("handshake", err)
	}
	in := src.Subscribe()
	out := ringbuf.New[Features](ringbuf.DefaultCapacity)
	fc.client, fc.in, fc.out = client, in, out
	fc.running = true
	metrics.ActiveSessions.WithLabelValues("features").Inc()
	slog.Info("feature session started", "url", fc.URL, "id", fc.ID, "features", fc.Features)

	gctx, cancel := context.WithCancel(context.Background())
	fc.cancel = cancel
	g, gctx := errgroup.WithContext(gctx)
	g.Go(func() error { return fc.send(in, client) })
	g.Go(func() error { return fc.receive(client, out) })
	fc.wg.Add(2)
	go func() {
		defer fc.wg.Done()
		<-gctx.Done()
		src.Unsubscribe(in)
		client.Close()
	}()
	go func() {
		defer fc.wg.Done()
		if err := g.Wait(); err != nil {
			fc.fail("stream", err)
		}
		out.Close()
	}()
	return nil
}

func (fc *FeatureClient) handshake(ctx context.Context, client *websocket.Client) error {
	req := sessionRequest{Features: fc.Features, SampleRate: int(fc.src.SampleRate()), HopSize: fc.HopSize}
	if err := client.SendJSON(req); err != nil {
		return err
	}
	timeout := fc.HandshakeTimeout
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := client.SetReadDeadline(deadline); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { client.SetReadDeadline(time.Now()) })
	typ, msg, err := client.Read()
	stop()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("no session confirmation: %w", err)
	}
	if err := client.SetReadDeadline(time.Time{}); err != nil {
		return err
	}
	if typ != websocket.TextMessage {
		return fmt.Errorf("expected text confirmation, got message type %d", typ)
	}
	var reply struct {
		Error string `json:"error"`
	}
	if jsonx.Unmarshal(msg, &reply) == nil && reply.Error != "" {
		return errors.New(reply.Error)
	}
	slog.Debug("feature session confirmed", "reply", string(msg))
	return nil
}

// send forwards frames until the subscription is closed.
func (fc *FeatureClient) send(in *Frames, client *websocket.Client) error {
	for {
		frame, ok := in.Pop()
		if !ok {
			return nil
		}
		if err := client.SendJSON(audioFrame{Type: "audio_frame", Payload: frame}); err != nil {
			if fc.isClosing() {
				return nil
			}
			return err
		}
	}
}

// receive decodes feature messages until the connection is closed.
func (fc *FeatureClient) receive(client *websocket.Client, out *ringbuf.Ring[Features]) error {
	var prev Features
	for {
		_, msg, err := client.Read()
		if err != nil {
			if fc.isClosing() || websocket.IsClosed(err) {
				return nil
			}
			return err
		}
		next, err := DecodeFeatures(msg)
		if err != nil {
			return err
		}
		cur := make(Features, len(next))
		for k, v := range next {
			if p, ok := prev[k]; ok {
				v = SmoothValue(p, v, fc.Alpha)
			}
			cur[k] = v
		}
		prev = cur
		if out.Push(maps.Clone(cur)) != nil {
			return nil
		}
	}
}

// DecodeFeatures decodes an inbound feature message of the form
// {"name": {"mean": [..]}, ...} into the average of each mean array.
func DecodeFeatures(msg []byte) (Features, error) {
	var raw map[string]featureValue
	if err := jsonx.Unmarshal(msg, &raw); err != nil {
		return nil, fmt.Errorf("malformed feature message: %w", err)
	}
	f := make(Features, len(raw))
	for name, v := range raw {
		if len(v.Mean) == 0 {
			continue
		}
		var sum float32
		for _, m := range v.Mean {
			sum += m
		}
		f[name] = sum / float32(len(v.Mean))
	}
	return f, nil
}

// Refresh starts a new session when the source has moved on to a new
// session, which closed the previous subscription.
func (fc *FeatureClient) Refresh(ctx context.Context) {
	if !fc.running || fc.src == nil {
		return
	}
	if fc.src.Running() && fc.src.Session() != fc.session {
		fc.StartSession(ctx, fc.src)
	}
}

// TryPop returns the newest published features without blocking.
func (fc *FeatureClient) TryPop() (Features, bool) {
	if fc.out == nil {
		return nil, false
	}
	return fc.out.TryPop()
}

// Latest returns the most recently popped features.
func (fc *FeatureClient) Latest() (Features, bool) {
	if fc.out == nil {
		return nil, false
	}
	return fc.out.Latest()
}

// Running returns whether a session was started and not yet ended.
func (fc *FeatureClient) Running() bool { return fc.running }

// EndSession closes the connection and joins both goroutines.
func (fc *FeatureClient) EndSession() error {
	if !fc.running {
		return nil
	}
	fc.running = false
	fc.mu.Lock()
	fc.closing = true
	fc.mu.Unlock()
	fc.cancel()
	fc.out.Close()
	metrics.ActiveSessions.WithLabelValues("features").Dec()
	err := session.Join(&fc.wg, "features", 0)
	if err != nil {
		metrics.UncleanSessions.WithLabelValues("features").Inc()
		fc.setErr(errors.E(errors.Session, "end feature session", err))
	}
	slog.Info("feature session ended", "id", fc.ID)
	return err
}

// Err returns the last session error, if any.
func (fc *FeatureClient) Err() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.err
}

func (fc *FeatureClient) fail(op string, err error) error {
	err = errors.E(errors.Session, op+" feature service", err)
	slog.Error(err.Error(), "url", fc.URL, "id", fc.ID)
	fc.setErr(err)
	return err
}

func (fc *FeatureClient) setErr(err error) {
	fc.mu.Lock()
	fc.err = err
	fc.mu.Unlock()
}

func (fc *FeatureClient) isClosing() bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.closing
}
