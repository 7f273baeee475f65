// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ringbuf provides a small bounded ring buffer used to hand
// values from producer goroutines to the render loop. The render loop
// only ever calls [Ring.TryPop], which never blocks and always yields
// the most recently published value, so a stalled producer simply
// leaves the previous value in place.
package ringbuf

import (
	"errors"
	"sync"
)

// DefaultCapacity is the capacity used when none is given:
// one slot currently being published and one for the next value.
const DefaultCapacity = 2

// ErrClosed is returned by [Ring.Push] after [Ring.Close].
var ErrClosed = errors.New("ringbuf: closed")

// Ring is a fixed-capacity queue between one producer and one consumer.
// Push blocks while the ring is full; TryPop drains everything pending
// and returns only the newest value (last value wins).
type Ring[T any] struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	buf   []T
	head  int
	count int

	// last is the value most recently returned by TryPop or Pop.
	last    T
	hasLast bool

	closed bool
	drops  uint64
}

// New returns a new [Ring] with the given capacity,
// using [DefaultCapacity] if capacity < 1.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	r := &Ring[T]{buf: make([]T, capacity)}
	r.notFull = sync.NewCond(&r.mu)
	r.notEmpty = sync.NewCond(&r.mu)
	return r
}

// Cap returns the capacity of the ring.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Len returns the number of values pending.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Push appends v, blocking until there is capacity.
// It returns [ErrClosed] if the ring is or becomes closed.
func (r *Ring[T]) Push(v T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.count == len(r.buf) && !r.closed {
		r.notFull.Wait()
	}
	if r.closed {
		return ErrClosed
	}
	r.put(v)
	return nil
}

// Offer appends v without blocking. If the ring is full the oldest
// pending value is dropped to make room. It returns false if closed.
// This is used from real-time callbacks that must never block.
func (r *Ring[T]) Offer(v T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	if r.count == len(r.buf) {
		var zero T
		r.buf[r.head] = zero
		r.head = (r.head + 1) % len(r.buf)
		r.count--
		r.drops++
	}
	r.put(v)
	return true
}

func (r *Ring[T]) put(v T) {
	r.buf[(r.head+r.count)%len(r.buf)] = v
	r.count++
	r.notEmpty.Signal()
}

// TryPop returns the newest pending value and discards any older
// pending values, without blocking. If nothing is pending it returns
// false, and the value from [Ring.Latest] is unchanged.
func (r *Ring[T]) TryPop() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == 0 {
		var zero T
		return zero, false
	}
	newest := (r.head + r.count - 1) % len(r.buf)
	v := r.buf[newest]
	if r.count > 1 {
		r.drops += uint64(r.count - 1)
	}
	r.clear()
	r.last, r.hasLast = v, true
	r.notFull.Broadcast()
	return v, true
}

// Pop removes and returns the oldest pending value, blocking until one
// is available. It returns false once the ring is closed and drained.
// Worker goroutines that must see every value use this.
func (r *Ring[T]) Pop() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.count == 0 && !r.closed {
		r.notEmpty.Wait()
	}
	if r.count == 0 {
		var zero T
		return zero, false
	}
	v := r.buf[r.head]
	var zero T
	r.buf[r.head] = zero
	r.head = (r.head + 1) % len(r.buf)
	r.count--
	r.last, r.hasLast = v, true
	r.notFull.Signal()
	return v, true
}

// Latest returns the value most recently popped, if any.
func (r *Ring[T]) Latest() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.hasLast
}

// Drops returns the number of values that were published but never observed.
func (r *Ring[T]) Drops() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drops
}

// Close closes the ring, waking any blocked Push or Pop.
// Pending values can still be popped. Close is idempotent.
func (r *Ring[T]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.notFull.Broadcast()
	r.notEmpty.Broadcast()
}

// Closed returns whether [Ring.Close] has been called.
func (r *Ring[T]) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Ring[T]) clear() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.head, r.count = 0, 0
}
