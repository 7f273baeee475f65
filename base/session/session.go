// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package session provides bounded joining of worker goroutines
// at the end of a producer session.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// DefaultJoinTimeout is how long [Join] waits for a worker
// before abandoning it.
var DefaultJoinTimeout = 2 * time.Second

// ErrUnclean is returned by [Join] when a worker did not exit in time.
var ErrUnclean = errors.New("session did not terminate cleanly")

// Join waits for wg, giving up after timeout (or [DefaultJoinTimeout]
// if timeout <= 0). On timeout the worker is abandoned: a warning is
// logged and [ErrUnclean] is returned, and the caller must not wait
// for it again.
func Join(wg *sync.WaitGroup, name string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultJoinTimeout
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		slog.Warn(ErrUnclean.Error(), "session", name, "timeout", timeout)
		return ErrUnclean
	}
}

// Counter counts sessions, giving each a distinct id.
type Counter struct {
	mu sync.Mutex
	n  uint64
}

// Next returns the next session id, starting at 1.
func (c *Counter) Next() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}
