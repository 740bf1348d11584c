/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package imaging turns a user photo into the pieces the wallpaper needs: a bounded
// background bitmap, an accent color and, through an external service, a cutout of the
// foreground subject.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"golang.org/x/image/draw"

	// decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode wraps every failure to read or decode the source photo.
var ErrDecode = errors.New("decode photo")

// ErrTooLarge is returned for photos above the pixel cap. It wraps ErrDecode.
var ErrTooLarge = fmt.Errorf("%w: image too large", ErrDecode)

// DefaultTarget is the bound decoded photos are reduced towards.
var DefaultTarget = image.Point{X: 1080, Y: 1920}

// DefaultMaxPixels caps the source resolution; a full decode of it needs about 200 MiB.
const DefaultMaxPixels = 50_000_000

// SampleSize returns the power-of-two reduction factor for an image of w x h pixels so
// that the reduced image still covers reqW x reqH. Images that do not exceed the target
// on either axis are not reduced.
func SampleSize(w, h, reqW, reqH int) int {
	s := 1
	if h > reqH || w > reqW {
		halfH, halfW := h/2, w/2
		for halfH/s >= reqH && halfW/s >= reqW {
			s *= 2
		}
	}
	return s
}

// DecodeFile reads the photo at path and reduces it by SampleSize. Photos with more
// than maxPixels pixels are rejected before their pixel data is decoded; maxPixels <= 0
// means DefaultMaxPixels.
func DecodeFile(path string, target image.Point, maxPixels int) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()
	return Decode(f, target, maxPixels)
}

// Decode is DecodeFile for a stream. The header is probed first so that a corrupt or
// oversized photo fails before the pixel data is read.
func Decode(r io.Reader, target image.Point, maxPixels int) (image.Image, error) {
	if target.X <= 0 || target.Y <= 0 {
		target = DefaultTarget
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	var head bytes.Buffer
	cfg, format, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty %s image", ErrDecode, format)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d %s exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, format, maxPixels)
	}
	img, _, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return Reduce(img, SampleSize(cfg.Width, cfg.Height, target.X, target.Y)), nil
}

// Reduce shrinks img by an integer factor into a new NRGBA image. A factor of 1 still
// copies, so the result never aliases the decoder's buffer.
func Reduce(img image.Image, factor int) *image.NRGBA {
	if factor < 1 {
		factor = 1
	}
	b := img.Bounds()
	w, h := max(b.Dx()/factor, 1), max(b.Dy()/factor, 1)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if factor == 1 {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
