// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJoin(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		time.Sleep(5 * time.Millisecond)
		wg.Done()
	}()
	assert.NoError(t, Join(&wg, "ok", time.Second))
}

func TestJoinTimeout(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	stuck := make(chan struct{})
	go func() {
		<-stuck
		wg.Done()
	}()
	start := time.Now()
	assert.ErrorIs(t, Join(&wg, "stuck", 20*time.Millisecond), ErrUnclean)
	assert.Less(t, time.Since(start), time.Second)
	close(stuck)
}

func TestCounter(t *testing.T) {
	var c Counter
	assert.Equal(t, uint64(1), c.Next())
	assert.Equal(t, uint64(2), c.Next())
}
