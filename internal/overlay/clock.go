/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package overlay

import (
	"image"
	"math"
	"time"

	"github.com/fogleman/gg"
)

// ClockFontSize is the clock text size in dp.
const ClockFontSize = 100

const (
	clockShadow  = 10
	clockPadding = 12
)

// ClockText formats t the way the clock shows it: 24 hour HH:mm.
func ClockText(t time.Time) string { return t.Format("15:04") }

// Clock renders the clock sprite for now.
func Clock(now time.Time, st Style) image.Image {
	d := st.density()
	face := st.fonts().Face(Bold, ClockFontSize*d)
	defer face.Close()

	text := ClockText(now)
	probe := gg.NewContext(1, 1)
	probe.SetFontFace(face)
	w, h := probe.MeasureString(text)

	pad := (clockPadding + clockShadow) * d
	dc := gg.NewContext(int(math.Ceil(w+2*pad)), int(math.Ceil(h+2*pad)))
	dc.SetFontFace(face)
	shadowed(dc, text, float64(dc.Width())/2, float64(dc.Height())/2, st.headline(), clockShadow*d)
	return dc.Image()
}
