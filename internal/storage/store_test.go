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
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"depthclock/internal/domain"
	"depthclock/internal/vector"
)

func sampleState() domain.AppState {
	a := domain.Defaults()
	a.HasImage = true
	a.Clock = domain.WidgetTransform{
		Offset:       vector.Pt{X: -270.25, Y: 13.125},
		ScaleX:       2.75,
		ScaleY:       0.625,
		AlphaEnabled: true,
		Alpha:        0.3,
		Color:        domain.RGB(10, 20, 30),
	}
	a.Calendar = domain.WidgetTransform{
		Offset:       vector.Pt{X: 270.1, Y: -0.7},
		ScaleX:       4.2,
		ScaleY:       4.2,
		AlphaEnabled: false,
		Alpha:        0.9,
		Color:        0x80FF00FF,
	}
	a.CalendarVisible = false
	a.DepthEnabled = false
	a.AccentColor = domain.RGB(200, 100, 0)
	a.CustomFontPath = "/data/custom_font.ttf"
	a.Orientation = domain.OrientationLandscape
	return a
}

func backends(t *testing.T) map[string]Prefs {
	t.Helper()
	sq, err := OpenSQLitePrefs(t.TempDir())
	if err != nil {
		t.Fatalf("open sqlite prefs: %v", err)
	}
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]Prefs{"memory": NewMemoryPrefs(), "sqlite": sq}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for name, p := range backends(t) {
		t.Run(name, func(t *testing.T) {
			st := NewStore(p, t.TempDir())
			want := sampleState()
			if err := st.Save(want); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, ok := st.Load()
			if !ok {
				t.Fatalf("load reported first run")
			}
			// no bitmaps were written
			want.BackgroundPresent, want.ForegroundPresent = false, false
			if got != want {
				t.Fatalf("round trip mismatch\n got: %+v\nwant: %+v", got, want)
			}
		})
	}
}

func TestRoundTripPresenceFlags(t *testing.T) {
	st := NewStore(NewMemoryPrefs(), t.TempDir())
	a := sampleState()
	bg := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	bg.Set(1, 1, color.NRGBA{R: 255, A: 255})
	if err := st.SaveBackground(bg); err != nil {
		t.Fatalf("save background: %v", err)
	}
	if err := st.Save(a); err != nil {
		t.Fatal(err)
	}
	got, _ := st.Load()
	if !got.BackgroundPresent || got.ForegroundPresent {
		t.Fatalf("presence flags: bg=%v fg=%v", got.BackgroundPresent, got.ForegroundPresent)
	}
	fg := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	if err := st.SaveForeground(fg); err != nil {
		t.Fatal(err)
	}
	got, _ = st.Load()
	if !got.ForegroundPresent {
		t.Fatalf("foreground flag not set")
	}
	lbg, lfg := st.LoadImages()
	if lbg == nil || lfg == nil || lbg.Bounds() != bg.Bounds() {
		t.Fatalf("images not reloaded: %v %v", lbg, lfg)
	}
	if r, _, _, _ := lbg.At(1, 1).RGBA(); r>>8 != 255 {
		t.Fatalf("pixel lost in PNG cache")
	}
	if err := st.SaveForeground(nil); err != nil {
		t.Fatal(err)
	}
	if got, _ := st.Load(); got.ForegroundPresent {
		t.Fatalf("stale foreground still present")
	}
}

func TestFirstRunReturnsDefaults(t *testing.T) {
	st := NewStore(NewMemoryPrefs(), t.TempDir())
	got, ok := st.Load()
	if ok || got != domain.Defaults() {
		t.Fatalf("first run: ok=%v state=%+v", ok, got)
	}
}

func TestLegacyKeysAndMissingFields(t *testing.T) {
	p := NewMemoryPrefs()
	// what an early release wrote: one scale, one color, no calendar fields
	p.SetBool(KeyHasImages, true)
	p.SetFloat(KeyLegacyScale, 1.75)
	p.SetInt(KeyLegacyColor, domain.RGB(1, 2, 3).Int())
	p.SetFloat(KeyOffsetX, 12)
	st := NewStore(p, t.TempDir())
	got, ok := st.Load()
	if !ok {
		t.Fatalf("legacy store treated as first run")
	}
	if got.Clock.ScaleX != 1.75 || got.Clock.ScaleY != 1.75 {
		t.Fatalf("legacy scale not mapped: %+v", got.Clock)
	}
	if got.Clock.Color != domain.RGB(1, 2, 3) || got.Calendar.Color != domain.RGB(1, 2, 3) {
		t.Fatalf("legacy color not mapped: clock %s calendar %s", got.Clock.Color.Hex(), got.Calendar.Color.Hex())
	}
	if got.Clock.Offset.X != 12 || got.Clock.Alpha != 0.5 || got.Clock.AlphaEnabled {
		t.Fatalf("clock defaults: %+v", got.Clock)
	}
	if got.Calendar.ScaleX != 1 || got.Calendar.Alpha != 0.5 || !got.CalendarVisible || !got.DepthEnabled {
		t.Fatalf("calendar defaults: %+v", got)
	}
	if got.AccentColor != domain.White || got.Orientation != domain.OrientationAuto || got.CustomFontPath != "" {
		t.Fatalf("global defaults: %+v", got)
	}
}

func TestNewKeysWinOverLegacy(t *testing.T) {
	p := NewMemoryPrefs()
	p.SetBool(KeyHasImages, true)
	p.SetFloat(KeyLegacyScale, 3)
	p.SetFloat(KeyClockScaleX, 2)
	st := NewStore(p, t.TempDir())
	got, _ := st.Load()
	if got.Clock.ScaleX != 2 || got.Clock.ScaleY != 3 {
		t.Fatalf("scale precedence: %+v", got.Clock)
	}
}

func TestCorruptValuesFallBack(t *testing.T) {
	p := NewMemoryPrefs()
	p.SetBool(KeyHasImages, true)
	p.SetString(KeyClockScaleX, "big")
	p.SetInt(KeyOrientation, 42)
	p.SetFloat(KeyCalendarScale, 99)
	st := NewStore(p, t.TempDir())
	got, _ := st.Load()
	if got.Clock.ScaleX != 1 || got.Orientation != domain.OrientationAuto || got.Calendar.ScaleX != 5 {
		t.Fatalf("corrupt values not defaulted/clamped: %+v", got)
	}
}

func TestHiddenCalendarSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	sq, err := OpenSQLitePrefs(dir)
	if err != nil {
		t.Fatal(err)
	}
	a := domain.Defaults()
	a.HasImage = true
	a.CalendarVisible = false
	if err := NewStore(sq, dir).Save(a); err != nil {
		t.Fatal(err)
	}
	_ = sq.Close()

	sq2, err := OpenSQLitePrefs(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer sq2.Close()
	got, ok := NewStore(sq2, dir).Load()
	if !ok || got.CalendarVisible {
		t.Fatalf("calendar visibility lost: ok=%v %+v", ok, got)
	}
	if v := sq2.BoolWithFallback(KeyCalendarVisible, true); v {
		t.Fatalf("isCalendarVisible reads %v", v)
	}
}

func TestCustomFontRemovedWhenAbsent(t *testing.T) {
	p := NewMemoryPrefs()
	st := NewStore(p, t.TempDir())
	a := sampleState()
	_ = st.Save(a)
	a.CustomFontPath = ""
	_ = st.Save(a)
	for _, k := range p.Keys() {
		if k == KeyCustomFontPath {
			t.Fatalf("customFontPath still stored")
		}
	}
}

func TestImportFont(t *testing.T) {
	dir := t.TempDir()
	st := NewStore(NewMemoryPrefs(), dir)
	src := filepath.Join(t.TempDir(), "Go-Regular.ttf")
	if err := os.WriteFile(src, goregular.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	path, err := st.ImportFont(src)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if path != filepath.Join(dir, "custom_font.ttf") || st.FontPath() != path {
		t.Fatalf("unexpected font path %q", path)
	}
	if err := st.ResetFont(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if st.FontPath() != "" {
		t.Fatalf("font not removed")
	}
}

func TestImportFontRejectsGarbage(t *testing.T) {
	st := NewStore(NewMemoryPrefs(), t.TempDir())
	if _, err := st.ImportFontData([]byte("definitely not a font")); !errors.Is(err, ErrInvalidFont) {
		t.Fatalf("expected ErrInvalidFont, got %v", err)
	}
	if _, err := st.ImportFont(filepath.Join(t.TempDir(), "missing.ttf")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if st.FontPath() != "" {
		t.Fatalf("failed import left a font behind")
	}
}

func TestClear(t *testing.T) {
	for name, p := range backends(t) {
		t.Run(name, func(t *testing.T) {
			st := NewStore(p, t.TempDir())
			_ = st.Save(sampleState())
			_ = st.SaveBackground(image.NewGray(image.Rect(0, 0, 1, 1)))
			if err := st.Clear(context.Background()); err != nil {
				t.Fatalf("clear: %v", err)
			}
			if _, ok := st.Load(); ok {
				t.Fatalf("state survived clear")
			}
			if fileExists(st.BackgroundPath()) {
				t.Fatalf("background survived clear")
			}
		})
	}
}
