/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package state

import (
	"depthclock/internal/domain"
)

// Warnings shown to the user.
const (
	WarnPhotoUnreadable = "The photo could not be opened."
	WarnSegmentation    = "Subject detection failed; depth effect unavailable for this photo."
)

// Reduce applies a to s. Actions that are not allowed in the current state return s
// unchanged with an empty Effect.
func Reduce(s Snapshot, a Action) (Snapshot, Effect) {
	switch a := a.(type) {
	case LongPressBackground:
		if !s.App.HasImage || s.Dialog != DialogNone {
			return s, Effect{}
		}
		if s.Mode == ModeNone || s.Mode == ModeBackground {
			s.Mode = ModeBackground
		}
		return s, Effect{}

	case LongPressClock:
		if !s.App.HasImage || s.Dialog != DialogNone {
			return s, Effect{}
		}
		if s.Mode != ModeBackground && s.Mode != ModeCalendar {
			s.Mode = ModeClock
		}
		return s, Effect{}

	case LongPressCalendar:
		if !s.App.HasImage || !s.App.CalendarVisible || s.Dialog != DialogNone {
			return s, Effect{}
		}
		if s.Mode != ModeBackground && s.Mode != ModeClock {
			s.Mode = ModeCalendar
		}
		return s, Effect{}

	case TapOutside:
		if s.Mode == ModeNone || s.Dialog != DialogNone {
			return s, Effect{}
		}
		s.Mode = ModeNone
		return s, Effect{Commit: true}

	case OpenDialog:
		if a.Dialog == DialogNone || s.Dialog != DialogNone || a.Dialog.mode() != s.Mode {
			return s, Effect{}
		}
		s.Dialog = a.Dialog
		return s, Effect{}

	case DismissDialog:
		if s.Dialog == DialogNone {
			return s, Effect{}
		}
		s.Dialog = DialogNone
		return s, Effect{Commit: true}

	case Resize:
		if a.Viewport.W > 0 && a.Viewport.H > 0 {
			s.Viewport = a.Viewport
		}
		return s, Effect{}

	case Restore:
		return restore(s, a), Effect{}

	case PhotoSelected:
		s.Generation++
		s.Loading = true
		s.Warning = ""
		return s, Effect{}

	case PhotoDecoded:
		if a.Generation != s.Generation || a.Background == nil {
			return s, Effect{}
		}
		return acceptPhoto(s, a)

	case PhotoFailed:
		if a.Generation != s.Generation {
			return s, Effect{}
		}
		s.Loading = false
		s.Warning = WarnPhotoUnreadable
		return s, Effect{}

	case SegmentationDone:
		if a.Generation != s.Shown || !s.Segmenting {
			return s, Effect{}
		}
		s.Segmenting = false
		s.Foreground = a.Foreground
		s.App.ForegroundPresent = a.Foreground != nil
		if a.Foreground == nil {
			return s, Effect{Commit: true, RemoveForeground: true}
		}
		return s, Effect{Commit: true, SaveForeground: true}

	case SegmentationFailed:
		if a.Generation != s.Shown || !s.Segmenting {
			return s, Effect{}
		}
		s.Segmenting = false
		s.Foreground = nil
		s.App.ForegroundPresent = false
		s.Warning = WarnSegmentation
		return s, Effect{}

	case ApplyTransform:
		if e, ok := s.Mode.Entity(); !ok || e != a.Entity {
			return s, Effect{}
		}
		s.App = s.App.WithWidget(a.Entity, a.Transform)
		return s, Effect{}

	case SetColor:
		if !s.App.HasImage {
			return s, Effect{}
		}
		t := s.App.Widget(a.Entity)
		t.Color = a.Color
		s.App = s.App.WithWidget(a.Entity, t)
		return s, Effect{}

	case SetAlphaEnabled:
		if !s.App.HasImage {
			return s, Effect{}
		}
		t := s.App.Widget(a.Entity)
		t.AlphaEnabled = a.Enabled
		s.App = s.App.WithWidget(a.Entity, t)
		return s, Effect{}

	case SetAlpha:
		if !s.App.HasImage {
			return s, Effect{}
		}
		t := s.App.Widget(a.Entity)
		t.Alpha = domain.ClampUnit(a.Alpha)
		s.App = s.App.WithWidget(a.Entity, t)
		return s, Effect{}

	case SetDepthEnabled:
		if !s.App.HasImage {
			return s, Effect{}
		}
		s.App.DepthEnabled = a.Enabled
		return s, Effect{}

	case SetCalendarVisible:
		if !s.App.HasImage {
			return s, Effect{}
		}
		s.App.CalendarVisible = a.Visible
		if !a.Visible && s.Mode == ModeCalendar {
			s.Mode = ModeNone
			s.Dialog = DialogNone
			return s, Effect{Commit: true}
		}
		return s, Effect{}

	case SetOrientation:
		if !a.Orientation.Valid() || !s.App.HasImage {
			return s, Effect{}
		}
		s.App.Orientation = a.Orientation
		s.App = relayout(s.App, s.Viewport)
		return s, Effect{}

	case SetCustomFont:
		s.App.CustomFontPath = a.Path
		return s, Effect{}

	case ResetCustomFont:
		had := s.App.CustomFontPath != ""
		s.App.CustomFontPath = ""
		return s, Effect{RemoveFont: had}

	case ImportLayout:
		if !s.App.HasImage || s.Dialog != DialogNone {
			return s, Effect{}
		}
		s.App = s.App.WithWidget(domain.EntityClock, a.Clock)
		s.App = s.App.WithWidget(domain.EntityCalendar, a.Calendar)
		s.App.CalendarVisible = a.CalendarVisible
		s.App.DepthEnabled = a.DepthEnabled
		if a.Orientation.Valid() {
			s.App.Orientation = a.Orientation
		}
		s.Mode = ModeNone
		return s, Effect{Commit: true}

	case ResetAll:
		n := New(s.Viewport)
		n.Generation = s.Generation + 1
		return n, Effect{ClearAll: true}
	}
	return s, Effect{}
}

// ReduceAll folds actions over s and merges their effects.
func ReduceAll(s Snapshot, actions ...Action) (Snapshot, Effect) {
	var eff Effect
	for _, a := range actions {
		var e Effect
		s, e = Reduce(s, a)
		eff = eff.merge(e)
	}
	return s, eff
}

func acceptPhoto(s Snapshot, a PhotoDecoded) (Snapshot, Effect) {
	accent := domain.White
	if a.HasAccent {
		accent = a.Accent
	}
	app := s.App
	app.HasImage = true
	app.BackgroundPresent = true
	app.ForegroundPresent = false
	app.AccentColor = accent
	app.Clock.Color = accent
	app.Calendar.Color = accent
	app.Clock.ScaleX, app.Clock.ScaleY = domain.DefaultScale, domain.DefaultScale
	app.Calendar.ScaleX, app.Calendar.ScaleY = domain.DefaultScale, domain.DefaultScale
	s.App = relayout(app, s.Viewport)

	s.Shown = a.Generation
	s.Background = a.Background
	s.Foreground = nil
	s.Mode = ModeNone
	s.Dialog = DialogNone
	s.Loading = false
	s.Segmenting = true
	s.Warning = ""
	return s, Effect{Commit: true, SaveBackground: true, RemoveForeground: true}
}

func restore(s Snapshot, r Restore) Snapshot {
	app := r.App
	if !app.HasImage {
		app = domain.Defaults()
		r.Background, r.Foreground = nil, nil
	}
	if !app.Orientation.Valid() {
		app.Orientation = domain.OrientationAuto
	}
	app = app.WithWidget(domain.EntityClock, app.Clock)
	app = app.WithWidget(domain.EntityCalendar, app.Calendar)
	app.BackgroundPresent = r.Background != nil
	app.ForegroundPresent = r.Foreground != nil
	s.App = app
	s.Background = r.Background
	s.Foreground = r.Foreground
	s.Mode = ModeNone
	s.Dialog = DialogNone
	s.Loading = false
	s.Segmenting = false
	return s
}
