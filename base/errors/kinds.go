// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package errors

import (
	"errors"
	"fmt"
)

// Kinds are the categories of failure that the engine distinguishes.
// Every producer-side failure is stored on its owning component with
// one of these kinds, rather than being propagated up the frame loop.
type Kinds int32

const (
	// Unknown is any error not created through [E].
	Unknown Kinds = iota

	// IO is a file read failure.
	IO

	// Parse is a malformed manifest or JSON document.
	Parse

	// Compile is a shader compiler rejection, including a missing import.
	Compile

	// Device is an audio or video device that is unavailable or misconfigured.
	Device

	// Session is a socket handshake, send, or receive failure
	// with the feature-extraction service.
	Session

	// Decode is an image or video decode failure.
	Decode
)

var kindNames = [...]string{"unknown", "io", "parse", "compile", "device", "session", "decode"}

func (k Kinds) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kinds(%d)", int(k))
	}
	return kindNames[k]
}

// Error is an error with a [Kinds] category, the operation that
// failed, and an optional path that the operation was working on.
type Error struct {
	Kind Kinds
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	s := e.Kind.String() + " error: " + e.Op
	if e.Path != "" {
		s += " " + e.Path
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// E returns a new [Error] of the given kind for the given operation.
// It returns nil if err is nil.
func E(kind Kinds, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// EPath is like [E] with a path attached.
func EPath(kind Kinds, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf returns the [Kinds] of the first [Error] in err's tree,
// or [Unknown] if there is none.
func KindOf(err error) Kinds {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
