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
	"strconv"
	"time"

	"github.com/fogleman/gg"

	"depthclock/internal/domain"
)

// Calendar sizes in dp.
const (
	CalendarTitleSize = 32
	CalendarCellSize  = 16
	calendarCellWidth = 30
	calendarMarker    = 24
	calendarGap       = 8
	calendarPadding   = 8
)

// Weekdays are the header labels, Monday first.
var Weekdays = [7]string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

// MonthGrid lays out the month containing date as weeks of Monday-first days.
// Zero marks a blank cell.
func MonthGrid(date time.Time) [][7]int {
	first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
	days := first.AddDate(0, 1, -1).Day()
	lead := (int(first.Weekday()) + 6) % 7

	var weeks [][7]int
	var row [7]int
	col := lead
	for day := 1; day <= days; day++ {
		row[col] = day
		col++
		if col == 7 {
			weeks = append(weeks, row)
			row, col = [7]int{}, 0
		}
	}
	if col > 0 {
		weeks = append(weeks, row)
	}
	return weeks
}

// CalendarTitle is the "Month YYYY" heading.
func CalendarTitle(date time.Time) string { return date.Format("January 2006") }

// Calendar renders the month sheet for today with today's cell marked.
func Calendar(today time.Time, st Style) image.Image {
	d := st.density()
	fonts := st.fonts()
	title := fonts.Face(Bold, CalendarTitleSize*d)
	bold := fonts.Face(Bold, CalendarCellSize*d)
	regular := fonts.Face(Regular, CalendarCellSize*d)
	defer title.Close()
	defer bold.Close()
	defer regular.Close()

	probe := gg.NewContext(1, 1)
	probe.SetFontFace(title)
	heading := CalendarTitle(today)
	tw, th := probe.MeasureString(heading)
	probe.SetFontFace(bold)
	_, lh := probe.MeasureString("0")

	cell := calendarCellWidth * d
	rowH := math.Max(lh*1.25, calendarMarker*d)
	weeks := MonthGrid(today)
	pad := calendarPadding * d
	gridW := 7 * cell
	w := math.Max(tw, gridW) + 2*pad
	h := pad + th + calendarGap*d + rowH*float64(1+len(weeks)) + pad

	dc := gg.NewContext(int(math.Ceil(w)), int(math.Ceil(h)))
	cx := float64(dc.Width()) / 2
	y := pad + th/2
	dc.SetFontFace(title)
	shadowed(dc, heading, cx, y, st.headline(), 10*d)

	left := cx - gridW/2
	y = pad + th + calendarGap*d + rowH/2
	dc.SetFontFace(bold)
	for i, name := range Weekdays {
		shadowed(dc, name, left+(float64(i)+0.5)*cell, y, st.Color.WithAlpha(0.9), 5*d)
	}
	for _, week := range weeks {
		y += rowH
		for i, day := range week {
			if day == 0 {
				continue
			}
			x := left + (float64(i)+0.5)*cell
			label := strconv.Itoa(day)
			if day == today.Day() {
				dc.SetColor(st.Color.WithAlpha(0.3))
				dc.DrawCircle(x, y, calendarMarker*d/2)
				dc.Fill()
				dc.SetFontFace(bold)
				shadowed(dc, label, x, y, domain.Red, 5*d)
				continue
			}
			dc.SetFontFace(regular)
			shadowed(dc, label, x, y, st.Color, 5*d)
		}
	}
	return dc.Image()
}
