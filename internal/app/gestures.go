/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package app

import (
	"depthclock/internal/domain"
	"depthclock/internal/gesture"
	"depthclock/internal/state"
	"depthclock/internal/undo"
	"depthclock/internal/vector"
)

// PointerDown, PointerMove and PointerUp feed touch input to the gesture mapper
// while a mode is being edited. A gesture that ends as a tap leaves the mode.
func (c *Controller) PointerDown(id int, p vector.Pt) {
	c.gesture(func(m *gesture.Mapper) gesture.Result { return m.Down(id, p) })
}

func (c *Controller) PointerMove(id int, p vector.Pt) {
	c.gesture(func(m *gesture.Mapper) gesture.Result { return m.Move(id, p) })
}

func (c *Controller) PointerUp(id int, p vector.Pt) {
	c.gesture(func(m *gesture.Mapper) gesture.Result { return m.Up(id, p) })
}

// PointerCancel drops the current gesture, as when the system steals the touch.
func (c *Controller) PointerCancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mapper.Cancel()
}

// Zoom and Pan are the wheel and drag stand-ins for a pinch on desktops.
func (c *Controller) Zoom(rx, ry float32) {
	c.gesture(func(m *gesture.Mapper) gesture.Result { return m.Zoom(rx, ry) })
}

func (c *Controller) Pan(d vector.Pt) {
	c.gesture(func(m *gesture.Mapper) gesture.Result { return m.Pan(d) })
}

// Tap leaves the current editing mode, as a tap outside the controls does.
func (c *Controller) Tap() { c.Dispatch(state.TapOutside{}) }

func (c *Controller) gesture(fn func(*gesture.Mapper) gesture.Result) {
	c.mu.Lock()
	s := c.snap
	if s.Mode == state.ModeNone || s.Dialog != state.DialogNone {
		c.mu.Unlock()
		return
	}
	e, widget := s.Mode.Entity()
	var before domain.WidgetTransform
	if widget {
		before = s.App.Widget(e)
	}
	res := fn(c.mapper)
	c.mu.Unlock()

	switch {
	case res.Tap:
		c.Dispatch(state.TapOutside{})
	case res.Changed && widget:
		c.history.Record(undo.Snapshot{Entity: e, Transform: before, TS: c.now()})
		c.Dispatch(state.ApplyTransform{Entity: e, Transform: res.Transform})
	}
}

// Undo reverts the last change of the widget being edited.
func (c *Controller) Undo() bool { return c.step(c.history.Undo) }

// Redo reapplies a change reverted by Undo.
func (c *Controller) Redo() bool { return c.step(c.history.Redo) }

func (c *Controller) step(fn func(domain.Entity, domain.WidgetTransform) (domain.WidgetTransform, bool)) bool {
	c.mu.Lock()
	e, ok := c.snap.Mode.Entity()
	active := c.mapper.Active()
	cur := c.snap.App.Widget(e)
	c.mu.Unlock()
	if !ok || active {
		return false
	}
	t, ok := fn(e, cur)
	if !ok {
		return false
	}
	c.Dispatch(state.ApplyTransform{Entity: e, Transform: t})
	return true
}

// CanUndo and CanRedo report whether the edited widget has history.
func (c *Controller) CanUndo() bool {
	e, ok := c.Snapshot().Mode.Entity()
	return ok && c.history.CanUndo(e)
}

func (c *Controller) CanRedo() bool {
	e, ok := c.Snapshot().Mode.Entity()
	return ok && c.history.CanRedo(e)
}
