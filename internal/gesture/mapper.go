/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package gesture turns raw pointer events into widget transform updates: one pointer
// pans, two pointers pinch, and a short gesture without travel is a tap.
package gesture

import (
	"math"

	"depthclock/internal/domain"
	"depthclock/internal/vector"
)

// DefaultSlop is the travel in pixels after which a single pointer gesture is a drag.
const DefaultSlop = 10

// minSpan is the shortest span along an axis that still drives scaling.
const minSpan = 1

// Result is the outcome of one pointer event.
type Result struct {
	// Transform is the updated transform; valid when Changed is set.
	Transform domain.WidgetTransform
	Changed   bool
	// Tap is set when the gesture ended without becoming a drag or pinch.
	Tap bool
}

// Mapper tracks the pointers of one gesture at a time. It is not safe for concurrent use;
// the UI goroutine owns it.
type Mapper struct {
	slop float32

	entity domain.Entity
	cur    domain.WidgetTransform

	pointers map[int]vector.Pt
	// ids of the two pointers that drive the gesture, in arrival order
	ids     []int
	travel  float32
	pending vector.Pt
	drag    bool
	pinched bool
}

// NewMapper returns a mapper with the given tap slop; non-positive means DefaultSlop.
func NewMapper(slop float32) *Mapper {
	if slop <= 0 {
		slop = DefaultSlop
	}
	return &Mapper{slop: slop, pointers: map[int]vector.Pt{}}
}

// Attach sets the widget and its current transform. Call it whenever the transform
// changes outside of a gesture (undo, settings, mode entry).
func (m *Mapper) Attach(e domain.Entity, t domain.WidgetTransform) {
	m.entity = e
	m.cur = t
}

// Active reports whether a gesture is in progress.
func (m *Mapper) Active() bool { return len(m.pointers) > 0 }

// Transform returns the transform the mapper currently holds.
func (m *Mapper) Transform() domain.WidgetTransform { return m.cur }

// Down registers a pointer.
func (m *Mapper) Down(id int, p vector.Pt) Result {
	if !p.Finite() {
		return Result{}
	}
	if len(m.pointers) == 0 {
		m.travel = 0
		m.pending = vector.Pt{}
		m.drag = false
		m.pinched = false
		m.ids = m.ids[:0]
	}
	if _, ok := m.pointers[id]; ok {
		return Result{}
	}
	m.pointers[id] = p
	if len(m.ids) < 2 {
		m.ids = append(m.ids, id)
	}
	if len(m.ids) == 2 {
		m.pinched = true
	}
	return Result{}
}

// Move updates a pointer position.
func (m *Mapper) Move(id int, p vector.Pt) Result {
	prev, ok := m.pointers[id]
	if !ok || !p.Finite() {
		return Result{}
	}
	if !m.driving(id) {
		m.pointers[id] = p
		return Result{}
	}
	if len(m.ids) >= 2 {
		a, b := m.ids[0], m.ids[1]
		oldA, oldB := m.pointers[a], m.pointers[b]
		m.pointers[id] = p
		return m.pinch(oldA, oldB, m.pointers[a], m.pointers[b])
	}
	m.pointers[id] = p
	return m.pan(p.Sub(prev))
}

// Up releases a pointer. When the last pointer is gone the gesture ends.
func (m *Mapper) Up(id int, p vector.Pt) Result {
	if _, ok := m.pointers[id]; !ok {
		return Result{}
	}
	res := Result{}
	if p.Finite() && m.driving(id) {
		res = m.Move(id, p)
	}
	delete(m.pointers, id)
	m.drop(id)
	if len(m.pointers) > 0 {
		return res
	}
	res.Tap = !m.drag && !m.pinched
	res.Transform = m.cur
	return res
}

// Cancel abandons the gesture without producing a tap.
func (m *Mapper) Cancel() {
	clear(m.pointers)
	m.ids = m.ids[:0]
	m.drag = false
	m.pinched = false
}

// Zoom scales by rx horizontally and ry vertically, as from a wheel or trackpad.
// The calendar uses the geometric mean so it stays uniform.
func (m *Mapper) Zoom(rx, ry float32) Result {
	if m.entity == domain.EntityCalendar {
		r := float32(math.Sqrt(float64(rx) * float64(ry)))
		m.cur = m.scaled(r, r)
	} else {
		m.cur = m.scaled(rx, ry)
	}
	return Result{Transform: m.cur, Changed: true}
}

// Pan moves the widget by d without tap classification.
func (m *Mapper) Pan(d vector.Pt) Result {
	if !d.Finite() {
		return Result{}
	}
	m.cur.Offset = m.cur.Offset.Add(d)
	return Result{Transform: m.cur, Changed: true}
}

func (m *Mapper) driving(id int) bool {
	for _, x := range m.ids {
		if x == id {
			return true
		}
	}
	return false
}

// drop removes id from the driving pair and promotes a waiting pointer, if any.
func (m *Mapper) drop(id int) {
	out := m.ids[:0]
	for _, x := range m.ids {
		if x != id {
			out = append(out, x)
		}
	}
	m.ids = out
	for pid := range m.pointers {
		if len(m.ids) >= 2 {
			break
		}
		if !m.driving(pid) {
			m.ids = append(m.ids, pid)
		}
	}
}

func (m *Mapper) pan(d vector.Pt) Result {
	if m.drag {
		return m.Pan(d)
	}
	m.travel += d.Len()
	m.pending = m.pending.Add(d)
	if m.travel <= m.slop {
		return Result{}
	}
	m.drag = true
	d, m.pending = m.pending, vector.Pt{}
	return m.Pan(d)
}

func (m *Mapper) pinch(oldA, oldB, newA, newB vector.Pt) Result {
	m.drag = true
	var rx, ry float32 = 1, 1
	if m.entity == domain.EntityCalendar {
		if od, nd := oldA.Dist(oldB), newA.Dist(newB); od >= minSpan && nd >= minSpan {
			rx = nd / od
			ry = rx
		}
	} else {
		rx = spanRatio(oldB.X-oldA.X, newB.X-newA.X)
		ry = spanRatio(oldB.Y-oldA.Y, newB.Y-newA.Y)
	}
	m.cur = m.scaled(rx, ry)
	m.cur.Offset = m.cur.Offset.Add(vector.Mid(newA, newB).Sub(vector.Mid(oldA, oldB)))
	return Result{Transform: m.cur, Changed: true}
}

func spanRatio(oldSpan, newSpan float32) float32 {
	o := float32(math.Abs(float64(oldSpan)))
	n := float32(math.Abs(float64(newSpan)))
	if o < minSpan || n < minSpan {
		return 1
	}
	return n / o
}

func (m *Mapper) scaled(rx, ry float32) domain.WidgetTransform {
	t := m.cur
	lim := m.entity.Limits()
	t.ScaleX = lim.Clamp(t.ScaleX * rx)
	t.ScaleY = lim.Clamp(t.ScaleY * ry)
	if m.entity == domain.EntityCalendar {
		t.ScaleY = t.ScaleX
	}
	return t
}
