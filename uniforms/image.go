// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uniforms

import (
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/base/fsx"
	"cogentcore.org/vision/base/iox/imagex"
	"cogentcore.org/vision/gpu"
	"cogentcore.org/vision/video"
)

// ImageData is the std140 block of the [Image] and [Webcam] uniforms.
type ImageData struct {
	Size [2]float32
	Has  int32
	_    int32
}

func imageData(tx *gpu.Texture) ImageData {
	if tx == nil {
		return ImageData{}
	}
	return ImageData{Size: [2]float32{float32(tx.Size.X), float32(tx.Size.Y)}, Has: 1}
}

// Image is a user selected image. It has one texture while an image
// is loading or loaded and none otherwise, so selecting the first image
// or clearing it changes the layout and needs a recompile. Images are
// decoded off the render thread; a black placeholder is bound with Has
// 0 until [Image.Update] uploads the result.
type Image struct {
	base[ImageData]
	env     *Env
	path    string
	texture *gpu.Texture
	loading chan decodedImage
}

type decodedImage struct {
	path string
	img  image.Image
	err  error
}

// NewImage returns new [Image] uniforms loading the given path,
// relative to the media directory. With no path the first image in
// the media directory is used, if any.
func NewImage(env *Env, path string) (*Image, error) {
	b, err := newBase(env.Device, DomainImage, ImageData{})
	if err != nil {
		return nil, err
	}
	u := &Image{base: b, env: env}
	if path == "" {
		first, ok := fsx.First(env.MediaDir, fsx.Image)
		if !ok {
			return u, nil
		}
		path = first
	}
	u.Select(path)
	u.recompile = false
	return u, nil
}

// Path returns the path of the loaded or loading image, "" for none.
func (u *Image) Path() string { return u.path }

// Loading returns whether an image is still being decoded.
func (u *Image) Loading() bool { return u.loading != nil }

// Select starts loading the image at path, replacing the current one
// once decoded. A path that does not exist as given is taken relative
// to the media directory. An empty path clears the image. Decode
// errors are reported by [Image.Err] after a later [Image.Update].
func (u *Image) Select(path string) error {
	dev := u.env.Device
	if path == "" {
		u.texture.Release()
		u.texture, u.path, u.loading = nil, "", nil
		u.Data = ImageData{}
		return u.setTextures(dev)
	}
	if ok, _ := fsx.FileExists(path); !ok && !filepath.IsAbs(path) {
		path = filepath.Join(u.env.MediaDir, path)
	}
	if _, err := os.Stat(path); err != nil {
		u.err = errors.EPath(errors.IO, "open image", path, err)
		slog.Error(u.err.Error())
		return u.err
	}
	if u.texture == nil {
		tx, _, err := UploadImage(dev, nil, "image", gpu.Placeholder())
		if err != nil {
			return err
		}
		u.texture = tx
		if err := u.setTextures(dev, tx); err != nil {
			return err
		}
	}
	u.path = path
	loading := make(chan decodedImage, 1)
	u.loading = loading
	go func() {
		img, _, err := imagex.Open(path)
		loading <- decodedImage{path: path, img: img, err: err}
	}()
	return nil
}

// Update uploads a decoded image, if one has arrived.
func (u *Image) Update(f *Frame) error {
	if u.loading == nil {
		return nil
	}
	var d decodedImage
	select {
	case d = <-u.loading:
	default:
		return nil
	}
	u.loading = nil
	if d.err != nil {
		u.err = errors.EPath(errors.Decode, "open image", d.path, d.err)
		slog.Error(u.err.Error())
		u.Data = ImageData{}
		return u.Buffer.Update()
	}
	dev := u.env.Device
	tx, replaced, err := UploadImage(dev, u.texture, "image "+filepath.Base(d.path), d.img)
	u.texture = tx
	if err != nil {
		return err
	}
	if replaced {
		if err := u.setTextures(dev, tx); err != nil {
			return err
		}
	}
	u.err = nil
	u.Data = imageData(tx)
	return u.Buffer.Update()
}

func (u *Image) Release() {
	u.Buffer.Release()
	u.texture.Release()
}

// DefaultWebcam is the webcam device used when none is configured.
const DefaultWebcam = "/dev/video0"

// Webcam is the latest frame of a webcam. The texture is a black
// placeholder until the first frame arrives.
type Webcam struct {
	base[ImageData]
	env     *Env
	session *video.Session
	texture *gpu.Texture
}

func NewWebcam(env *Env, device string) (*Webcam, error) {
	if device == "" {
		device = DefaultWebcam
	}
	tx, _, err := UploadImage(env.Device, nil, "webcam", gpu.Placeholder())
	if err != nil {
		return nil, err
	}
	b, err := newBase(env.Device, DomainWebcam, ImageData{}, tx)
	if err != nil {
		tx.Release()
		return nil, err
	}
	u := &Webcam{base: b, env: env, texture: tx}
	u.session, u.err = video.Open(env.OpenVideo, device, env.VideoMaxSize)
	if u.err != nil {
		slog.Error(u.err.Error())
	}
	return u, nil
}

func (u *Webcam) Update(f *Frame) error {
	if u.session == nil {
		return nil
	}
	if err := u.session.Err(); err != nil {
		u.err = err
	}
	frame, ok := u.session.TryPop()
	if !ok {
		return nil
	}
	return u.show(frame)
}

func (u *Webcam) show(frame image.Image) error {
	tx, replaced, err := UploadImage(u.env.Device, u.texture, "webcam", frame)
	u.texture = tx
	if err != nil {
		return err
	}
	if replaced {
		if err := u.setTextures(u.env.Device, tx); err != nil {
			return err
		}
	}
	u.Data = imageData(tx)
	return u.Buffer.Update()
}

// Pause pauses or resumes the webcam.
func (u *Webcam) Pause(paused bool) {
	if u.session == nil {
		return
	}
	if paused {
		u.session.Pause()
	} else {
		u.session.Unpause()
	}
}

func (u *Webcam) Release() {
	if u.session != nil {
		u.session.EndSession()
	}
	u.Buffer.Release()
	u.texture.Release()
}
