/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package vector is the plane geometry used to place overlay widgets on the
// wallpaper. Values are float32 to match the persisted transform fields and the UI
// toolkit.
package vector

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Pt is a 2D point or offset.
type Pt struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

func (p Pt) Add(q Pt) Pt       { return Pt{p.X + q.X, p.Y + q.Y} }
func (p Pt) Sub(q Pt) Pt       { return Pt{p.X - q.X, p.Y - q.Y} }
func (p Pt) Len() float32      { return float32(math.Hypot(float64(p.X), float64(p.Y))) }
func (p Pt) Dist(q Pt) float32 { return q.Sub(p).Len() }

// Finite reports whether neither coordinate is NaN or infinite. Pointer events from
// some drivers carry NaN during device changes.
func (p Pt) Finite() bool { return finite(p.X) && finite(p.Y) }

// Mid returns the centroid of pts, or the zero point for an empty slice.
func Mid(pts ...Pt) Pt {
	if len(pts) == 0 {
		return Pt{}
	}
	var s Pt
	for _, p := range pts {
		s = s.Add(p)
	}
	n := float32(len(pts))
	return Pt{s.X / n, s.Y / n}
}

// Size is a width/height pair.
type Size struct{ W, H float32 }

// Center is the midpoint of a box of this size anchored at the origin.
func (s Size) Center() Pt { return Pt{s.W / 2, s.H / 2} }

// Landscape reports whether the box is wider than tall.
func (s Size) Landscape() bool { return s.W > s.H }

// Rect is an axis-aligned rectangle given by its min corner and size.
type Rect struct {
	X, Y float32
	W, H float32
}

func R(x, y, w, h float32) Rect { return Rect{X: x, Y: y, W: w, H: h} }

// Centered returns a rect of size s whose center is c.
func Centered(c Pt, s Size) Rect { return Rect{X: c.X - s.W/2, Y: c.Y - s.H/2, W: s.W, H: s.H} }

func (r Rect) Center() Pt { return Pt{r.X + r.W/2, r.Y + r.H/2} }

// Contains is inclusive on all edges so a touch on a widget's border still hits it.
func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Affine is a 2D affine transform
//
//	| A C E |
//	| B D F |
type Affine struct{ A, B, C, D, E, F float32 }

var Identity = Affine{A: 1, D: 1}

func Translate(tx, ty float32) Affine { return Affine{A: 1, D: 1, E: tx, F: ty} }
func Scale(sx, sy float32) Affine     { return Affine{A: sx, D: sy} }

// Then returns the transform that applies m first and n second.
func (m Affine) Then(n Affine) Affine {
	return Affine{
		A: n.A*m.A + n.C*m.B,
		B: n.B*m.A + n.D*m.B,
		C: n.A*m.C + n.C*m.D,
		D: n.B*m.C + n.D*m.D,
		E: n.A*m.E + n.C*m.F + n.E,
		F: n.B*m.E + n.D*m.F + n.F,
	}
}

func (m Affine) Apply(p Pt) Pt {
	return Pt{X: m.A*p.X + m.C*p.Y + m.E, Y: m.B*p.X + m.D*p.Y + m.F}
}

// ApplyRect maps the corners of r and returns their bounding box.
func (m Affine) ApplyRect(r Rect) Rect {
	corners := [4]Pt{
		m.Apply(Pt{r.X, r.Y}), m.Apply(Pt{r.X + r.W, r.Y}),
		m.Apply(Pt{r.X, r.Y + r.H}), m.Apply(Pt{r.X + r.W, r.Y + r.H}),
	}
	lo, hi := corners[0], corners[0]
	for _, c := range corners[1:] {
		lo = Pt{min(lo.X, c.X), min(lo.Y, c.Y)}
		hi = Pt{max(hi.X, c.X), max(hi.Y, c.Y)}
	}
	return Rect{X: lo.X, Y: lo.Y, W: hi.X - lo.X, H: hi.Y - lo.Y}
}

// Aff3 converts m to the row-major matrix taken by x/image/draw transformers.
func (m Affine) Aff3() f64.Aff3 {
	return f64.Aff3{float64(m.A), float64(m.C), float64(m.E), float64(m.B), float64(m.D), float64(m.F)}
}

// Place is the transform used for a widget: scale about its own center, then move
// that center to anchor+offset.
func Place(anchor, offset Pt, sx, sy float32) Affine {
	c := anchor.Add(offset)
	return Scale(sx, sy).Then(Translate(c.X, c.Y))
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
