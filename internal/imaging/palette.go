/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package imaging

import (
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"

	"depthclock/internal/domain"
)

// PaletteExtractor picks a representative accent color from a photo. It prefers a vivid,
// mid-lightness color and falls back to the most common one.
type PaletteExtractor struct {
	// MaxDim bounds the side of the working copy; zero means 112.
	MaxDim int
	// MinSaturation and the lightness band define a vibrant swatch.
	MinSaturation float64
	MinLightness  float64
	MaxLightness  float64
}

// DefaultPalette returns the extractor used by the app.
func DefaultPalette() PaletteExtractor {
	return PaletteExtractor{MaxDim: 112, MinSaturation: 0.35, MinLightness: 0.3, MaxLightness: 0.7}
}

type swatch struct {
	r, g, b    uint64 // channel sums
	population int
}

func (s swatch) color() colorful.Color {
	n := float64(s.population)
	return colorful.Color{R: float64(s.r) / n / 255, G: float64(s.g) / n / 255, B: float64(s.b) / n / 255}
}

// Accent returns the accent color of img. It reports false for an empty or fully
// transparent image.
func (p PaletteExtractor) Accent(img image.Image) (domain.Color, bool) {
	if img == nil || img.Bounds().Empty() {
		return 0, false
	}
	if p.MaxDim <= 0 {
		p = DefaultPalette()
	}
	small := p.shrink(img)
	swatches := map[uint16]*swatch{}
	b := small.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := small.NRGBAAt(x, y)
			if c.A < 128 {
				continue
			}
			// 5 bits per channel
			key := uint16(c.R>>3)<<10 | uint16(c.G>>3)<<5 | uint16(c.B>>3)
			s := swatches[key]
			if s == nil {
				s = &swatch{}
				swatches[key] = s
			}
			s.r += uint64(c.R)
			s.g += uint64(c.G)
			s.b += uint64(c.B)
			s.population++
		}
	}
	if len(swatches) == 0 {
		return 0, false
	}

	var dominant, vibrant *swatch
	maxPop := 0
	for _, s := range swatches {
		if s.population > maxPop || (s.population == maxPop && less(s, dominant)) {
			maxPop = s.population
			dominant = s
		}
	}
	best := math.Inf(-1)
	for _, s := range swatches {
		_, sat, l := s.color().Hsl()
		if sat < p.MinSaturation || l < p.MinLightness || l > p.MaxLightness {
			continue
		}
		score := 0.24*sat + 0.52*(1-math.Abs(l-0.5)) + 0.24*float64(s.population)/float64(maxPop)
		if score > best || (score == best && less(s, vibrant)) {
			best = score
			vibrant = s
		}
	}
	pick := dominant
	if vibrant != nil {
		pick = vibrant
	}
	r, g, bl := pick.color().Clamped().RGB255()
	return domain.RGB(r, g, bl), true
}

// less orders swatches deterministically when scores tie.
func less(a, b *swatch) bool {
	if b == nil {
		return true
	}
	ka := a.r/uint64(a.population)<<16 | a.g/uint64(a.population)<<8 | a.b/uint64(a.population)
	kb := b.r/uint64(b.population)<<16 | b.g/uint64(b.population)<<8 | b.b/uint64(b.population)
	return ka < kb
}

func (p PaletteExtractor) shrink(img image.Image) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if m := max(w, h); m > p.MaxDim {
		w = max(w*p.MaxDim/m, 1)
		h = max(h*p.MaxDim/m, 1)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
