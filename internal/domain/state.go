/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the persistent model of the wallpaper editor: the two overlay
// widgets (clock and calendar), their transforms and the global toggles.

import (
	"fmt"
	"math"
	"strings"

	"depthclock/internal/vector"
)

// Entity identifies one of the overlay widgets.
type Entity int

const (
	EntityClock Entity = iota
	EntityCalendar
)

func (e Entity) String() string {
	switch e {
	case EntityClock:
		return "clock"
	case EntityCalendar:
		return "calendar"
	default:
		return fmt.Sprintf("entity(%d)", int(e))
	}
}

// ScaleLimits bounds a widget scale factor.
type ScaleLimits struct{ Min, Max float32 }

var (
	ClockScaleLimits    = ScaleLimits{Min: 0.5, Max: 10}
	CalendarScaleLimits = ScaleLimits{Min: 0.5, Max: 5}
)

// Limits returns the scale range allowed for the entity.
func (e Entity) Limits() ScaleLimits {
	if e == EntityCalendar {
		return CalendarScaleLimits
	}
	return ClockScaleLimits
}

// Clamp keeps v inside the limits. NaN and negative values map to Min.
func (l ScaleLimits) Clamp(v float32) float32 {
	if math.IsNaN(float64(v)) || v < l.Min {
		return l.Min
	}
	if v > l.Max {
		return l.Max
	}
	return v
}

// Orientation is the requested screen orientation. The integer values are persisted.
type Orientation int

const (
	OrientationAuto Orientation = iota
	OrientationPortrait
	OrientationLandscape
)

func (o Orientation) String() string {
	switch o {
	case OrientationPortrait:
		return "portrait"
	case OrientationLandscape:
		return "landscape"
	default:
		return "auto"
	}
}

// Valid reports whether o is one of the known orientations.
func (o Orientation) Valid() bool { return o >= OrientationAuto && o <= OrientationLandscape }

// ParseOrientation accepts the names returned by String.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto", "sensor", "":
		return OrientationAuto, nil
	case "portrait", "vertical":
		return OrientationPortrait, nil
	case "landscape", "horizontal":
		return OrientationLandscape, nil
	}
	return OrientationAuto, fmt.Errorf("unknown orientation %q", s)
}

// WidgetTransform is the placement and look of one overlay widget.
// Offset is relative to the screen center. The calendar keeps ScaleX == ScaleY.
type WidgetTransform struct {
	Offset       vector.Pt `json:"offset"`
	ScaleX       float32   `json:"scaleX"`
	ScaleY       float32   `json:"scaleY"`
	AlphaEnabled bool      `json:"alphaEnabled"`
	Alpha        float32   `json:"alpha"`
	Color        Color     `json:"color"`
}

const (
	DefaultScale = float32(1)
	DefaultAlpha = float32(0.5)
)

// DefaultTransform is the transform of a widget that was never edited.
func DefaultTransform() WidgetTransform {
	return WidgetTransform{ScaleX: DefaultScale, ScaleY: DefaultScale, Alpha: DefaultAlpha, Color: White}
}

// EffectiveAlpha is the opacity used for drawing.
func (t WidgetTransform) EffectiveAlpha() float32 {
	if !t.AlphaEnabled {
		return 1
	}
	return ClampUnit(t.Alpha)
}

// ClampUnit clamps v to [0,1]; NaN maps to 0.
func ClampUnit(v float32) float32 {
	if math.IsNaN(float64(v)) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// AppState is everything that survives a restart.
type AppState struct {
	HasImage          bool            `json:"hasImage"`
	BackgroundPresent bool            `json:"backgroundPresent"`
	ForegroundPresent bool            `json:"foregroundPresent"`
	Clock             WidgetTransform `json:"clock"`
	Calendar          WidgetTransform `json:"calendar"`
	CalendarVisible   bool            `json:"calendarVisible"`
	DepthEnabled      bool            `json:"depthEnabled"`
	AccentColor       Color           `json:"accentColor"`
	CustomFontPath    string          `json:"customFontPath,omitempty"`
	Orientation       Orientation     `json:"orientation"`
}

// Defaults returns the first-run state.
func Defaults() AppState {
	return AppState{
		Clock:           DefaultTransform(),
		Calendar:        DefaultTransform(),
		CalendarVisible: true,
		DepthEnabled:    true,
		AccentColor:     White,
		Orientation:     OrientationAuto,
	}
}

// Widget returns the transform of e.
func (s AppState) Widget(e Entity) WidgetTransform {
	if e == EntityCalendar {
		return s.Calendar
	}
	return s.Clock
}

// WithWidget returns a copy of s with the transform of e replaced. Scales are clamped
// to the entity limits and the calendar scale is forced uniform.
func (s AppState) WithWidget(e Entity, t WidgetTransform) AppState {
	lim := e.Limits()
	t.ScaleX = lim.Clamp(t.ScaleX)
	t.ScaleY = lim.Clamp(t.ScaleY)
	t.Alpha = ClampUnit(t.Alpha)
	if e == EntityCalendar {
		t.ScaleY = t.ScaleX
		s.Calendar = t
	} else {
		s.Clock = t
	}
	return s
}
