/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package state holds the editor state machine. The UI owns one Snapshot and replaces it
// with the result of Reduce for every user or background event; nothing else mutates it.
package state

import (
	"fmt"
	"image"

	"depthclock/internal/domain"
	"depthclock/internal/vector"
)

// EditMode is the single active editing mode.
type EditMode int

const (
	ModeNone EditMode = iota
	ModeBackground
	ModeClock
	ModeCalendar
)

func (m EditMode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeBackground:
		return "background"
	case ModeClock:
		return "clock"
	case ModeCalendar:
		return "calendar"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Entity returns the widget edited in m, if any.
func (m EditMode) Entity() (domain.Entity, bool) {
	switch m {
	case ModeClock:
		return domain.EntityClock, true
	case ModeCalendar:
		return domain.EntityCalendar, true
	}
	return 0, false
}

// Dialog is the settings surface currently shown.
type Dialog int

const (
	DialogNone Dialog = iota
	DialogBackground
	DialogClock
	DialogCalendar
)

// mode is the editing mode a dialog can be opened from.
func (d Dialog) mode() EditMode {
	switch d {
	case DialogBackground:
		return ModeBackground
	case DialogClock:
		return ModeClock
	case DialogCalendar:
		return ModeCalendar
	}
	return ModeNone
}

func (d Dialog) String() string {
	switch d {
	case DialogBackground:
		return "background-settings"
	case DialogClock:
		return "clock-settings"
	case DialogCalendar:
		return "calendar-settings"
	}
	return "none"
}

// Snapshot is the complete editor state. Treat it as a value: Reduce returns a new one.
// Background and Foreground are never modified in place once stored.
type Snapshot struct {
	App        domain.AppState
	Mode       EditMode
	Dialog     Dialog
	Background image.Image
	Foreground image.Image
	// Warning is a non-blocking message (segmentation failure, unreadable photo).
	Warning string
	// Generation identifies the latest photo selection; decodes of older ones are dropped.
	Generation uint64
	// Shown is the generation of the displayed photo. Only its cutout is accepted, so
	// a selection that fails to decode does not orphan the pending one.
	Shown uint64
	// Loading is true while the latest selection is still being decoded.
	Loading bool
	// Segmenting is true while a cutout for the displayed photo is pending.
	Segmenting bool
	Viewport   vector.Size
}

// New returns the snapshot of a first run.
func New(viewport vector.Size) Snapshot {
	return Snapshot{App: domain.Defaults(), Viewport: viewport}
}

// Flags reports the three editing flags in the form the UI exposes them.
func (s Snapshot) Flags() (background, clock, calendar bool) {
	return s.Mode == ModeBackground, s.Mode == ModeClock, s.Mode == ModeCalendar
}

// Editing reports whether any editing mode is active.
func (s Snapshot) Editing() bool { return s.Mode != ModeNone }

// Effect lists the side effects the caller must perform after a reduction.
// The reducer never performs I/O itself.
type Effect struct {
	// Commit persists the scalar fields of App.
	Commit bool
	// SaveBackground and SaveForeground rewrite the cached bitmaps.
	SaveBackground bool
	SaveForeground bool
	// RemoveForeground deletes a cached cutout that no longer belongs to the photo.
	RemoveForeground bool
	// RemoveFont deletes the imported font file.
	RemoveFont bool
	// ClearAll wipes every persisted key and cached file.
	ClearAll bool
}

// Any reports whether there is something to do.
func (e Effect) Any() bool { return e != Effect{} }

func (e Effect) merge(o Effect) Effect {
	return Effect{
		Commit:           e.Commit || o.Commit,
		SaveBackground:   e.SaveBackground || o.SaveBackground,
		SaveForeground:   e.SaveForeground || o.SaveForeground,
		RemoveForeground: e.RemoveForeground || o.RemoveForeground,
		RemoveFont:       e.RemoveFont || o.RemoveFont,
		ClearAll:         e.ClearAll || o.ClearAll,
	}
}
