/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package state

import (
	"image"

	"depthclock/internal/domain"
	"depthclock/internal/vector"
)

// Action is an input to Reduce.
type Action interface{ action() }

// Long presses request an editing mode.
type (
	LongPressBackground struct{}
	LongPressClock      struct{}
	LongPressCalendar   struct{}
)

// TapOutside leaves the current editing mode.
type TapOutside struct{}

// OpenDialog shows the settings surface of the current mode.
type OpenDialog struct{ Dialog Dialog }

// DismissDialog closes the open settings surface.
type DismissDialog struct{}

// Resize records the drawable size.
type Resize struct{ Viewport vector.Size }

// Restore installs state loaded from the store at startup.
type Restore struct {
	App        domain.AppState
	Background image.Image
	Foreground image.Image
}

// PhotoSelected starts a new photo selection and bumps the generation.
type PhotoSelected struct{}

// PhotoDecoded delivers the decoded photo and its accent color.
type PhotoDecoded struct {
	Generation uint64
	Background image.Image
	Accent     domain.Color
	HasAccent  bool
}

// PhotoFailed reports an unreadable photo.
type PhotoFailed struct {
	Generation uint64
	Err        error
}

// SegmentationDone delivers the cutout; a nil Foreground means no subject was found.
type SegmentationDone struct {
	Generation uint64
	Foreground image.Image
}

// SegmentationFailed reports an error from the segmentation service.
type SegmentationFailed struct {
	Generation uint64
	Err        error
}

// ApplyTransform replaces the transform of the widget being edited.
type ApplyTransform struct {
	Entity    domain.Entity
	Transform domain.WidgetTransform
}

// Settings.
type (
	SetColor struct {
		Entity domain.Entity
		Color  domain.Color
	}
	SetAlphaEnabled struct {
		Entity  domain.Entity
		Enabled bool
	}
	SetAlpha struct {
		Entity domain.Entity
		Alpha  float32
	}
	SetDepthEnabled    struct{ Enabled bool }
	SetCalendarVisible struct{ Visible bool }
	SetOrientation     struct{ Orientation domain.Orientation }
	SetCustomFont      struct{ Path string }
	ResetCustomFont    struct{}
	// ResetAll forgets the photo and every setting.
	ResetAll struct{}
)

// ImportLayout replaces the widget transforms and background settings at once, as
// when a shared preset is applied.
type ImportLayout struct {
	Clock           domain.WidgetTransform
	Calendar        domain.WidgetTransform
	CalendarVisible bool
	DepthEnabled    bool
	Orientation     domain.Orientation
}

func (LongPressBackground) action() {}
func (LongPressClock) action()      {}
func (LongPressCalendar) action()   {}
func (TapOutside) action()          {}
func (OpenDialog) action()          {}
func (DismissDialog) action()       {}
func (Resize) action()              {}
func (Restore) action()             {}
func (PhotoSelected) action()       {}
func (PhotoDecoded) action()        {}
func (PhotoFailed) action()         {}
func (SegmentationDone) action()    {}
func (SegmentationFailed) action()  {}
func (ApplyTransform) action()      {}
func (SetColor) action()            {}
func (SetAlphaEnabled) action()     {}
func (SetAlpha) action()            {}
func (SetDepthEnabled) action()     {}
func (SetCalendarVisible) action()  {}
func (SetOrientation) action()      {}
func (SetCustomFont) action()       {}
func (ResetCustomFont) action()     {}
func (ResetAll) action()            {}
func (ImportLayout) action()        {}
