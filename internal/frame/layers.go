/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package frame

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"depthclock/internal/domain"
	"depthclock/internal/overlay"
	"depthclock/internal/vector"
)

// Cover scales img to fill bounds while keeping its aspect ratio, centered and
// cropped.
func Cover(img image.Image, bounds image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(bounds)
	src := img.Bounds()
	if src.Empty() || bounds.Empty() {
		return dst
	}
	srcAspect := float64(src.Dx()) / float64(src.Dy())
	dstAspect := float64(bounds.Dx()) / float64(bounds.Dy())
	w, h := bounds.Dx(), bounds.Dy()
	if srcAspect < dstAspect {
		h = int(float64(w)/srcAspect + 0.5)
	} else {
		w = int(float64(h)*srcAspect + 0.5)
	}
	x := bounds.Min.X + (bounds.Dx()-w)/2
	y := bounds.Min.Y + (bounds.Dy()-h)/2
	draw.CatmullRom.Scale(dst, image.Rect(x, y, x+w, y+h), img, src, draw.Over, nil)
	return dst
}

// Photo draws a full-bleed image, cover scaled.
type Photo struct {
	Image image.Image
}

func (p Photo) Render(dst *image.RGBA) {
	if p.Image == nil {
		return
	}
	draw.Draw(dst, dst.Bounds(), Cover(p.Image, dst.Bounds()), dst.Bounds().Min, draw.Over)
}

// Sprite places an entity sprite: scaled about its center, moved so the center
// sits at Anchor plus the transform offset, blended with the entity alpha.
type Sprite struct {
	Image     image.Image
	Anchor    vector.Pt
	Transform domain.WidgetTransform
}

// Matrix maps sprite pixels to frame pixels.
func (s Sprite) Matrix() vector.Affine {
	b := s.Image.Bounds()
	c := vector.Pt{X: float32(b.Min.X) + float32(b.Dx())/2, Y: float32(b.Min.Y) + float32(b.Dy())/2}
	return vector.Translate(-c.X, -c.Y).
		Then(vector.Place(s.Anchor, s.Transform.Offset, s.Transform.ScaleX, s.Transform.ScaleY))
}

// Bounds is the frame-space rectangle covered by the sprite.
func (s Sprite) Bounds() vector.Rect {
	b := s.Image.Bounds()
	return s.Matrix().ApplyRect(vector.R(float32(b.Min.X), float32(b.Min.Y), float32(b.Dx()), float32(b.Dy())))
}

func (s Sprite) Render(dst *image.RGBA) {
	if s.Image == nil || s.Image.Bounds().Empty() {
		return
	}
	alpha := s.Transform.EffectiveAlpha()
	if alpha <= 0 {
		return
	}
	var opts *draw.Options
	if alpha < 1 {
		opts = &draw.Options{SrcMask: image.NewUniform(color.Alpha16{A: uint16(alpha * 0xffff)})}
	}
	draw.BiLinear.Transform(dst, s.Matrix().Aff3(), s.Image, s.Image.Bounds(), draw.Over, opts)
}

// Tint dims everything below it and optionally shows a caption near the top.
type Tint struct {
	Color   color.Color
	Caption string
	Density float64
	Fonts   *overlay.FontSet
}

// EditTint is the dim drawn while an editing mode is active.
var EditTint = color.NRGBA{A: 102}

func (t Tint) Render(dst *image.RGBA) {
	c := t.Color
	if c == nil {
		c = EditTint
	}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Over)
	if t.Caption == "" {
		return
	}
	d := t.Density
	if d <= 0 {
		d = 1
	}
	text(dst, t.Fonts, t.Caption, 16*d, 0.5, 48*d, domain.White.WithAlpha(0.8))
}

// Prompt is shown instead of the widgets until a photo is chosen.
type Prompt struct {
	Text    string
	Density float64
	Fonts   *overlay.FontSet
}

func (p Prompt) Render(dst *image.RGBA) {
	d := p.Density
	if d <= 0 {
		d = 1
	}
	text(dst, p.Fonts, p.Text, 16*d, 0.5, float64(dst.Bounds().Dy())/2, domain.White)
}

// text draws s centered horizontally at fraction fx of the width and at y.
func text(dst *image.RGBA, fonts *overlay.FontSet, s string, size, fx, y float64, col color.Color) {
	if fonts == nil {
		fonts = overlay.DefaultFonts()
	}
	face := fonts.Face(overlay.Regular, size)
	defer face.Close()
	dc := gg.NewContextForRGBA(dst)
	dc.SetFontFace(face)
	dc.SetColor(col)
	dc.DrawStringAnchored(s, float64(dst.Bounds().Dx())*fx, y, 0.5, 0.5)
}
