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
	"depthclock/internal/vector"
)

// AutoLayout returns the default offsets of clock and calendar. The widgets sit a quarter
// of the long side away from the center, side by side in landscape and stacked in
// portrait. With the calendar hidden the clock is centered.
func AutoLayout(viewport vector.Size, o domain.Orientation, calendarVisible bool) (clock, calendar vector.Pt) {
	if !calendarVisible {
		return vector.Pt{}, vector.Pt{}
	}
	q := max(viewport.W, viewport.H) / 4
	if landscape(viewport, o) {
		return vector.Pt{X: -q}, vector.Pt{X: q}
	}
	return vector.Pt{Y: -q}, vector.Pt{Y: q}
}

func landscape(viewport vector.Size, o domain.Orientation) bool {
	switch o {
	case domain.OrientationLandscape:
		return true
	case domain.OrientationPortrait:
		return false
	}
	return viewport.Landscape()
}

func relayout(app domain.AppState, viewport vector.Size) domain.AppState {
	app.Clock.Offset, app.Calendar.Offset = AutoLayout(viewport, app.Orientation, app.CalendarVisible)
	return app
}
