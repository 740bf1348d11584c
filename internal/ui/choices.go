/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ui is the Fyne front end. Helpers in this file carry no toolkit
// dependency so they are shared with headless builds.
package ui

import (
	"errors"
	"math"

	"depthclock/internal/domain"
	"depthclock/internal/vector"
)

// ErrNoUI is returned by Run in binaries built without the Fyne front end.
var ErrNoUI = errors.New("editor window not available in this build")

// ColorChoice is one quick pick of the color settings.
type ColorChoice struct {
	Label string
	Color domain.Color
}

// QuickColors lists the color quick picks: white, black and the accent of the photo.
func QuickColors(accent domain.Color) []ColorChoice {
	return []ColorChoice{
		{Label: "White", Color: domain.White},
		{Label: "Black", Color: domain.Black},
		{Label: "Auto", Color: accent},
	}
}

// Orientations are the labels of the orientation selector, in persisted order.
var Orientations = []string{"Auto", "Portrait", "Landscape"}

// OrientationLabel returns the selector label of o.
func OrientationLabel(o domain.Orientation) string {
	if !o.Valid() {
		o = domain.OrientationAuto
	}
	return Orientations[o]
}

// OrientationFromLabel is the inverse of OrientationLabel.
func OrientationFromLabel(s string) domain.Orientation {
	for i, l := range Orientations {
		if l == s {
			return domain.Orientation(i)
		}
	}
	return domain.OrientationAuto
}

// wheelStep is the zoom factor of one wheel unit.
const wheelStep = 0.005

// WheelZoom turns a scroll delta into per-axis zoom ratios. Vertical scrolling scales
// both axes; horizontal scrolling (shift+wheel on most mice) scales only X.
func WheelZoom(dx, dy float32) (rx, ry float32) {
	rx = float32(math.Exp(float64(dx+dy) * wheelStep))
	ry = float32(math.Exp(float64(dy) * wheelStep))
	return rx, ry
}

// Viewport maps between widget coordinates and the scene rendered with contain fill.
type Viewport struct {
	Widget vector.Size
	Scene  vector.Size
}

// scale and origin of the contained scene inside the widget.
func (v Viewport) placement() (s float32, origin vector.Pt) {
	if v.Scene.W <= 0 || v.Scene.H <= 0 {
		return 1, vector.Pt{}
	}
	s = min(v.Widget.W/v.Scene.W, v.Widget.H/v.Scene.H)
	if s <= 0 {
		return 1, vector.Pt{}
	}
	origin = vector.Pt{X: (v.Widget.W - v.Scene.W*s) / 2, Y: (v.Widget.H - v.Scene.H*s) / 2}
	return s, origin
}

// ToScene converts a widget position into scene coordinates.
func (v Viewport) ToScene(p vector.Pt) vector.Pt {
	s, o := v.placement()
	return vector.Pt{X: (p.X - o.X) / s, Y: (p.Y - o.Y) / s}
}

// DeltaToScene converts a widget movement into a scene movement.
func (v Viewport) DeltaToScene(d vector.Pt) vector.Pt {
	s, _ := v.placement()
	return vector.Pt{X: d.X / s, Y: d.Y / s}
}
