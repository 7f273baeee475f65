// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package programs

import (
	"cmp"
	"fmt"
	"slices"

	"cogentcore.org/vision/isf"
	"cogentcore.org/vision/uniforms"
)

// Categories are the categories of displayed errors,
// in display priority order.
type Categories int32

const (
	VertexError Categories = iota
	FragmentError
	AudioError
	ImageError
	VideoError
	WebcamError
)

var categoryNames = [...]string{"vertex shader", "fragment shader", "audio", "image", "video", "webcam"}

func (c Categories) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Categories(%d)", int32(c))
	}
	return categoryNames[c]
}

// Error is a current error of a program with its display category.
type Error struct {
	Category Categories

	// Source is the file, domain or input the error is about.
	Source string

	Err error
}

func (e Error) Error() string {
	return e.Category.String() + ": " + e.Err.Error()
}

func (e Error) Unwrap() error { return e.Err }

func domainCategory(d uniforms.Domains) Categories {
	switch d {
	case uniforms.DomainImage:
		return ImageError
	case uniforms.DomainWebcam:
		return WebcamError
	}
	return AudioError
}

func valueCategory(v isf.Value) Categories {
	switch x := v.(type) {
	case *isf.ImageValue:
		if x.Video != nil {
			return VideoError
		}
		return ImageError
	case *isf.AudioValue, *isf.AudioFFTValue:
		return AudioError
	}
	return ImageError
}

func sortErrors(errs []Error) {
	slices.SortStableFunc(errs, func(a, b Error) int {
		if c := cmp.Compare(a.Category, b.Category); c != 0 {
			return c
		}
		return cmp.Compare(a.Source, b.Source)
	})
}
