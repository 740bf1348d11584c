/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package overlay draws the clock and calendar entities as free-standing sprites.
// Sprites are rendered at scale 1 and centered on their own bounds; placement,
// scaling and entity alpha are applied by the compositor.
package overlay

import (
	"image/color"

	"github.com/fogleman/gg"

	"depthclock/internal/domain"
	"depthclock/internal/vector"
)

// baseWidthDp is the short side of the reference phone in density independent pixels.
const baseWidthDp = 392.7

// Density returns pixels per dp for a viewport, so sprite sizes keep the same
// proportion to the screen as on the reference phone.
func Density(viewport vector.Size) float64 {
	short := min(viewport.W, viewport.H)
	if short <= 0 {
		return 1
	}
	return float64(short) / baseWidthDp
}

// Style carries what an entity sprite depends on besides the time.
type Style struct {
	Color   domain.Color
	Editing bool
	Density float64
	Fonts   *FontSet
}

func (s Style) density() float64 {
	if s.Density <= 0 {
		return 1
	}
	return s.Density
}

func (s Style) fonts() *FontSet {
	if s.Fonts == nil {
		return DefaultFonts()
	}
	return s.Fonts
}

// headline is the color of the prominent text, dimmed while the entity is edited.
func (s Style) headline() domain.Color {
	if s.Editing {
		return s.Color.WithAlpha(0.8)
	}
	return s.Color
}

var shadowColor = color.NRGBA{A: 70}

// shadowed draws s with a soft dark shadow of the given radius, then the text itself.
func shadowed(dc *gg.Context, s string, x, y float64, col color.Color, radius float64) {
	dc.SetColor(shadowColor)
	r := radius / 3
	for _, d := range [...][2]float64{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}} {
		dc.DrawStringAnchored(s, x+d[0]*r, y+d[1]*r, 0.5, 0.5)
	}
	dc.SetColor(col)
	dc.DrawStringAnchored(s, x, y, 0.5, 0.5)
}
