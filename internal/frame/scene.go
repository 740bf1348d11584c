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
	"time"

	"depthclock/internal/domain"
	"depthclock/internal/overlay"
	"depthclock/internal/state"
	"depthclock/internal/vector"
)

// PromptText is shown while no photo has been chosen.
const PromptText = "Tap to choose a photo"

// Options are the inputs of a scene that do not live in the snapshot.
type Options struct {
	Now   time.Time
	Fonts *overlay.FontSet
}

// Scene is a composed wallpaper plus where its entities ended up, for hit testing.
type Scene struct {
	*Frame
	Clock    *Sprite
	Calendar *Sprite
}

// Oriented returns the viewport as seen with the orientation lock applied.
func Oriented(v vector.Size, o domain.Orientation) vector.Size {
	switch {
	case o == domain.OrientationPortrait && v.W > v.H,
		o == domain.OrientationLandscape && v.H > v.W:
		return vector.Size{W: v.H, H: v.W}
	}
	return v
}

// Caption is the label shown while a widget is being edited.
func Caption(m state.EditMode) string {
	switch m {
	case state.ModeClock:
		return "Editing clock"
	case state.ModeCalendar:
		return "Editing calendar"
	}
	return ""
}

// Compose builds the layers for s: photo, calendar, clock, the foreground cutout
// when the depth effect is on and the editing tint.
func Compose(s state.Snapshot, opt Options) *Scene {
	if opt.Now.IsZero() {
		opt.Now = time.Now()
	}
	if opt.Fonts == nil {
		opt.Fonts = overlay.DefaultFonts()
	}
	f := New(int(s.Viewport.W+0.5), int(s.Viewport.H+0.5))
	sc := &Scene{Frame: f}
	density := overlay.Density(s.Viewport)

	if !s.App.HasImage {
		f.Add(Prompt{Text: PromptText, Density: density, Fonts: opt.Fonts})
		return sc
	}
	if s.Background != nil {
		f.Add(Photo{Image: s.Background})
	}

	anchor := s.Viewport.Center()
	if s.App.CalendarVisible {
		t := s.App.Calendar
		img := overlay.Calendar(opt.Now, overlay.Style{
			Color: t.Color, Editing: s.Mode == state.ModeCalendar, Density: density, Fonts: opt.Fonts,
		})
		sc.Calendar = &Sprite{Image: img, Anchor: anchor, Transform: t}
		f.Add(*sc.Calendar)
	}
	t := s.App.Clock
	img := overlay.Clock(opt.Now, overlay.Style{
		Color: t.Color, Editing: s.Mode == state.ModeClock, Density: density, Fonts: opt.Fonts,
	})
	sc.Clock = &Sprite{Image: img, Anchor: anchor, Transform: t}
	f.Add(*sc.Clock)

	if s.App.DepthEnabled && s.Foreground != nil {
		f.Add(Photo{Image: s.Foreground})
	}
	if s.Editing() {
		f.Add(Tint{Caption: Caption(s.Mode), Density: density, Fonts: opt.Fonts})
	}
	return sc
}

// Render composes and paints s.
func Render(s state.Snapshot, opt Options) *image.RGBA {
	return Compose(s, opt).Render()
}

// Hit reports the entity under p, clock first since it is drawn above the
// calendar. ok is false for the background.
func (sc *Scene) Hit(p vector.Pt) (domain.Entity, bool) {
	if sc.Clock != nil && sc.Clock.Bounds().Contains(p) {
		return domain.EntityClock, true
	}
	if sc.Calendar != nil && sc.Calendar.Bounds().Contains(p) {
		return domain.EntityCalendar, true
	}
	return 0, false
}
