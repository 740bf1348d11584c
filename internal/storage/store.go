/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"depthclock/internal/domain"
	applog "depthclock/internal/log"
	"depthclock/internal/vector"
)

// Keys of the flat preference namespace. They are shared with earlier releases and must
// not be renamed.
const (
	KeyClockColor          = "clockColor"
	KeyClockScaleX         = "clockScaleX"
	KeyClockScaleY         = "clockScaleY"
	KeyOffsetX             = "offsetX"
	KeyOffsetY             = "offsetY"
	KeyClockAlphaEnabled   = "isAlphaEnabled"
	KeyClockAlpha          = "clockAlpha"
	KeyCalendarVisible     = "isCalendarVisible"
	KeyCalendarColor       = "calendarColor"
	KeyCalendarScale       = "calendarScale"
	KeyCalendarOffsetX     = "calendarOffsetX"
	KeyCalendarOffsetY     = "calendarOffsetY"
	KeyCalendarAlphaEnable = "isCalendarAlphaEnabled"
	KeyCalendarAlpha       = "calendarAlpha"
	KeyDepthEnabled        = "isDepthEnabled"
	KeyHasImages           = "hasImages"
	KeyExtractedColor      = "extractedColor"
	KeyCustomFontPath      = "customFontPath"
	KeyOrientation         = "orientation"

	// written by releases that had a single clock scale and color
	KeyLegacyScale = "scale"
	KeyLegacyColor = "color"
)

// AllKeys lists every key the store may write.
var AllKeys = []string{
	KeyClockColor, KeyClockScaleX, KeyClockScaleY, KeyOffsetX, KeyOffsetY,
	KeyClockAlphaEnabled, KeyClockAlpha, KeyCalendarVisible, KeyCalendarColor,
	KeyCalendarScale, KeyCalendarOffsetX, KeyCalendarOffsetY, KeyCalendarAlphaEnable,
	KeyCalendarAlpha, KeyDepthEnabled, KeyHasImages, KeyExtractedColor,
	KeyCustomFontPath, KeyOrientation, KeyLegacyScale, KeyLegacyColor,
}

// Store maps AppState onto Prefs and the cached files in dir.
type Store struct {
	prefs Prefs
	dir   string
	log   *slog.Logger
}

// NewStore returns a store over p with files kept in dir.
func NewStore(p Prefs, dir string) *Store {
	return &Store{prefs: p, dir: dir, log: applog.WithComponent("storage")}
}

// Dir is the data directory.
func (s *Store) Dir() string { return s.dir }

// Prefs is the underlying key-value backend.
func (s *Store) Prefs() Prefs { return s.prefs }

// Save writes every scalar field of a. Bitmaps are not touched.
func (s *Store) Save(a domain.AppState) error {
	err := Apply(s.prefs, func(p Prefs) {
		p.SetInt(KeyClockColor, a.Clock.Color.Int())
		p.SetFloat(KeyClockScaleX, float64(a.Clock.ScaleX))
		p.SetFloat(KeyClockScaleY, float64(a.Clock.ScaleY))
		p.SetFloat(KeyOffsetX, float64(a.Clock.Offset.X))
		p.SetFloat(KeyOffsetY, float64(a.Clock.Offset.Y))
		p.SetBool(KeyClockAlphaEnabled, a.Clock.AlphaEnabled)
		p.SetFloat(KeyClockAlpha, float64(a.Clock.Alpha))

		p.SetBool(KeyCalendarVisible, a.CalendarVisible)
		p.SetInt(KeyCalendarColor, a.Calendar.Color.Int())
		p.SetFloat(KeyCalendarScale, float64(a.Calendar.ScaleX))
		p.SetFloat(KeyCalendarOffsetX, float64(a.Calendar.Offset.X))
		p.SetFloat(KeyCalendarOffsetY, float64(a.Calendar.Offset.Y))
		p.SetBool(KeyCalendarAlphaEnable, a.Calendar.AlphaEnabled)
		p.SetFloat(KeyCalendarAlpha, float64(a.Calendar.Alpha))

		p.SetBool(KeyDepthEnabled, a.DepthEnabled)
		p.SetBool(KeyHasImages, a.HasImage)
		p.SetInt(KeyExtractedColor, a.AccentColor.Int())
		if a.CustomFontPath != "" {
			p.SetString(KeyCustomFontPath, a.CustomFontPath)
		} else {
			p.RemoveValue(KeyCustomFontPath)
		}
		p.SetInt(KeyOrientation, int(a.Orientation))
	})
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Load reads the scalar state. It returns false when no photo was ever accepted, in which
// case the defaults are returned. Missing keys take their documented defaults, and keys
// written by older releases are honored. Presence flags reflect the cached files.
func (s *Store) Load() (domain.AppState, bool) {
	p := s.prefs
	if !p.BoolWithFallback(KeyHasImages, false) {
		return domain.Defaults(), false
	}
	a := domain.Defaults()
	a.HasImage = true

	legacyScale := p.FloatWithFallback(KeyLegacyScale, float64(domain.DefaultScale))
	clockColor := domain.ColorFromInt(p.IntWithFallback(KeyClockColor, p.IntWithFallback(KeyLegacyColor, domain.White.Int())))
	a.Clock = domain.WidgetTransform{
		Offset:       vector.Pt{X: f32(p.FloatWithFallback(KeyOffsetX, 0), 0), Y: f32(p.FloatWithFallback(KeyOffsetY, 0), 0)},
		ScaleX:       f32(p.FloatWithFallback(KeyClockScaleX, legacyScale), domain.DefaultScale),
		ScaleY:       f32(p.FloatWithFallback(KeyClockScaleY, legacyScale), domain.DefaultScale),
		AlphaEnabled: p.BoolWithFallback(KeyClockAlphaEnabled, false),
		Alpha:        f32(p.FloatWithFallback(KeyClockAlpha, float64(domain.DefaultAlpha)), domain.DefaultAlpha),
		Color:        clockColor,
	}
	calScale := f32(p.FloatWithFallback(KeyCalendarScale, float64(domain.DefaultScale)), domain.DefaultScale)
	a.Calendar = domain.WidgetTransform{
		Offset:       vector.Pt{X: f32(p.FloatWithFallback(KeyCalendarOffsetX, 0), 0), Y: f32(p.FloatWithFallback(KeyCalendarOffsetY, 0), 0)},
		ScaleX:       calScale,
		ScaleY:       calScale,
		AlphaEnabled: p.BoolWithFallback(KeyCalendarAlphaEnable, false),
		Alpha:        f32(p.FloatWithFallback(KeyCalendarAlpha, float64(domain.DefaultAlpha)), domain.DefaultAlpha),
		Color:        domain.ColorFromInt(p.IntWithFallback(KeyCalendarColor, clockColor.Int())),
	}
	a = a.WithWidget(domain.EntityClock, a.Clock)
	a = a.WithWidget(domain.EntityCalendar, a.Calendar)

	a.CalendarVisible = p.BoolWithFallback(KeyCalendarVisible, true)
	a.DepthEnabled = p.BoolWithFallback(KeyDepthEnabled, true)
	a.AccentColor = domain.ColorFromInt(p.IntWithFallback(KeyExtractedColor, domain.White.Int()))
	a.CustomFontPath = p.StringWithFallback(KeyCustomFontPath, "")
	if o := domain.Orientation(p.IntWithFallback(KeyOrientation, int(domain.OrientationAuto))); o.Valid() {
		a.Orientation = o
	}
	a.BackgroundPresent = fileExists(s.BackgroundPath())
	a.ForegroundPresent = fileExists(s.ForegroundPath())
	return a, true
}

// Clear removes every key and cached file.
func (s *Store) Clear(ctx context.Context) error {
	if c, ok := s.prefs.(interface{ Clear(context.Context) error }); ok {
		if err := c.Clear(ctx); err != nil {
			return err
		}
	} else {
		_ = Apply(s.prefs, func(p Prefs) {
			for _, k := range AllKeys {
				p.RemoveValue(k)
			}
		})
	}
	var errs []error
	for _, path := range []string{s.BackgroundPath(), s.ForegroundPath()} {
		if err := removeIfExists(path); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.ResetFont(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LoadImages decodes the cached bitmaps. Missing or unreadable files yield nil.
func (s *Store) LoadImages() (background, foreground image.Image) {
	return s.readPNG(s.BackgroundPath()), s.readPNG(s.ForegroundPath())
}

// f32 narrows a stored float, replacing non-finite values with def.
func f32(v float64, def float32) float32 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return float32(v)
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", filepath.Base(path), err)
	}
	return nil
}
