/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package imaging

import (
	"context"
	"image"
	"log/slog"
	"time"

	"depthclock/internal/domain"
	applog "depthclock/internal/log"
)

// Photo is a decoded photo with its accent color.
type Photo struct {
	Background image.Image
	Accent     domain.Color
	HasAccent  bool
}

// Result is the outcome of Acquire. SegmentErr is set when the cutout could not be
// produced; the rest of the result is still valid.
type Result struct {
	Photo
	Foreground image.Image
	SegmentErr error
}

// Pipeline wires decoding, palette extraction and segmentation.
type Pipeline struct {
	Target image.Point
	// MaxPixels rejects larger photos; zero means DefaultMaxPixels.
	MaxPixels int
	Palette   PaletteExtractor
	Segmenter Segmenter
	log       *slog.Logger
}

// NewPipeline returns a pipeline; a nil segmenter means Unavailable.
func NewPipeline(target image.Point, seg Segmenter) *Pipeline {
	if seg == nil {
		seg = Unavailable{}
	}
	return &Pipeline{Target: target, Palette: DefaultPalette(), Segmenter: seg, log: applog.WithComponent("imaging")}
}

// Prepare decodes path and extracts the accent color. Errors wrap ErrDecode.
func (p *Pipeline) Prepare(path string) (Photo, error) {
	start := time.Now()
	img, err := DecodeFile(path, p.Target, p.MaxPixels)
	if err != nil {
		p.log.Warn("photo rejected", slog.String("path", path), slog.Any("err", err))
		return Photo{}, err
	}
	accent, ok := p.Palette.Accent(img)
	p.log.Info("photo decoded",
		slog.String("path", path),
		slog.Int("w", img.Bounds().Dx()), slog.Int("h", img.Bounds().Dy()),
		slog.String("accent", accent.Hex()), slog.Bool("has_accent", ok),
		slog.Duration("took", time.Since(start)))
	return Photo{Background: img, Accent: accent, HasAccent: ok}, nil
}

// Cutout runs the segmenter on a prepared photo.
func (p *Pipeline) Cutout(ctx context.Context, img image.Image) (image.Image, error) {
	cut, err := p.Segmenter.Segment(ctx, img)
	if err != nil {
		p.log.Warn("segmentation failed", slog.Any("err", err))
		return nil, err
	}
	return cut, nil
}

// Acquire runs the whole pipeline synchronously. A decode failure is returned as the
// error; a segmentation failure is reported in Result.SegmentErr.
func (p *Pipeline) Acquire(ctx context.Context, path string) (Result, error) {
	photo, err := p.Prepare(path)
	if err != nil {
		return Result{}, err
	}
	res := Result{Photo: photo}
	res.Foreground, res.SegmentErr = p.Cutout(ctx, photo.Background)
	return res, nil
}
