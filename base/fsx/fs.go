// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fsx provides file system helpers, including
// detection of image and video files in a media directory.
package fsx

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cogentcore.org/vision/base/errors"
	"github.com/h2non/filetype"
)

// FileExists checks whether given file exists, returning true if so,
// false if not, and error if there is an error in accessing the file.
func FileExists(filePath string) (bool, error) {
	fileInfo, err := os.Stat(filePath)
	if err == nil {
		return !fileInfo.IsDir(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// DirExists returns whether the given path is an existing directory.
func DirExists(dir string) bool {
	fi, err := os.Stat(dir)
	return err == nil && fi.IsDir()
}

// Media is a category of media file.
type Media int32

const (
	// Other is any file that is not an image or video.
	Other Media = iota

	// Image is a still image file.
	Image

	// Video is a video file.
	Video
)

func (m Media) String() string {
	switch m {
	case Image:
		return "image"
	case Video:
		return "video"
	}
	return "other"
}

// MediaOf returns the [Media] category of the given file,
// based on its content header, falling back on its extension.
func MediaOf(path string) Media {
	kind, err := filetype.MatchFile(path)
	if err == nil && kind != filetype.Unknown {
		switch kind.MIME.Type {
		case "image":
			return Image
		case "video":
			return Video
		}
		return Other
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return Image
	case ".mp4", ".mov", ".mkv", ".webm", ".avi":
		return Video
	}
	return Other
}

// Files returns all files of the given media category under dir,
// recursively, in lexical order. Hidden files and directories are skipped.
func Files(dir string, media Media) []string {
	var fns []string
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if path != dir && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if MediaOf(path) == media {
			fns = append(fns, path)
		}
		return nil
	})
	return fns
}

// First returns the first file of the given media category under dir,
// in the same order as [Files].
func First(dir string, media Media) (string, bool) {
	found := ""
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || found != "" {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && MediaOf(path) == media {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	return found, found != ""
}

// SplitRootPathFS returns a split of the given FS path (only / path separators)
// into the root element and everything after that point.
// Examples:
//   - "/a/b/c" returns "/", "a/b/c"
//   - "a/b/c" returns "a", "b/c" (note removal of intervening "/")
//   - "a" returns "a", ""
//   - "a/" returns "a", "" (note removal of trailing "/")
func SplitRootPathFS(path string) (root, rest string) {
	pi := strings.IndexByte(path, '/')
	if pi < 0 {
		return path, ""
	}
	if pi == 0 {
		return "/", path[1:]
	}
	if pi < len(path)-1 {
		return path[:pi], path[pi+1:]
	}
	return path[:pi], ""
}
