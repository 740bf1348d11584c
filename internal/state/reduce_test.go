/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package state

import (
	"errors"
	"image"
	"math/rand"
	"testing"

	"depthclock/internal/domain"
	"depthclock/internal/vector"
)

var portrait = vector.Size{W: 1080, H: 1920}

func withPhoto(t *testing.T) Snapshot {
	t.Helper()
	s, _ := Reduce(New(portrait), PhotoSelected{})
	s, eff := Reduce(s, PhotoDecoded{Generation: s.Generation, Background: image.NewRGBA(image.Rect(0, 0, 4, 4)), Accent: domain.RGB(200, 40, 40), HasAccent: true})
	if !s.App.HasImage || !eff.SaveBackground || !eff.Commit {
		t.Fatalf("photo not accepted: %+v %+v", s.App, eff)
	}
	return s
}

func countFlags(s Snapshot) int {
	b, c, k := s.Flags()
	n := 0
	for _, f := range []bool{b, c, k} {
		if f {
			n++
		}
	}
	return n
}

func TestEnteringModeClearsOthers(t *testing.T) {
	base := withPhoto(t)
	cases := []struct {
		name    string
		act     Action
		wantB   bool
		wantC   bool
		wantCal bool
	}{
		{"background", LongPressBackground{}, true, false, false},
		{"clock", LongPressClock{}, false, true, false},
		{"calendar", LongPressCalendar{}, false, false, true},
	}
	for _, c := range cases {
		s, _ := Reduce(base, c.act)
		b, cl, cal := s.Flags()
		if b != c.wantB || cl != c.wantC || cal != c.wantCal {
			t.Fatalf("%s: flags = %v,%v,%v", c.name, b, cl, cal)
		}
	}
}

func TestModeEntryBlockedByOtherModes(t *testing.T) {
	s := withPhoto(t)
	s, _ = Reduce(s, LongPressClock{})
	for _, a := range []Action{LongPressBackground{}, LongPressCalendar{}} {
		if got, _ := Reduce(s, a); got.Mode != ModeClock {
			t.Fatalf("%T must not leave clock mode, got %v", a, got.Mode)
		}
	}
	s, _ = Reduce(s, TapOutside{})
	s, _ = Reduce(s, LongPressBackground{})
	for _, a := range []Action{LongPressClock{}, LongPressCalendar{}} {
		if got, _ := Reduce(s, a); got.Mode != ModeBackground {
			t.Fatalf("%T must not leave background mode, got %v", a, got.Mode)
		}
	}
}

func TestAtMostOneFlagForRandomSequences(t *testing.T) {
	actions := []Action{
		LongPressBackground{}, LongPressClock{}, LongPressCalendar{}, TapOutside{},
		OpenDialog{Dialog: DialogClock}, OpenDialog{Dialog: DialogCalendar}, OpenDialog{Dialog: DialogBackground},
		DismissDialog{}, SetCalendarVisible{Visible: false}, SetCalendarVisible{Visible: true},
		PhotoSelected{},
	}
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 200; run++ {
		s := withPhoto(t)
		for step := 0; step < 60; step++ {
			a := actions[rng.Intn(len(actions))]
			s, _ = Reduce(s, a)
			if countFlags(s) > 1 {
				t.Fatalf("run %d step %d after %T: more than one mode active", run, step, a)
			}
			if s.Dialog != DialogNone && s.Dialog.mode() != s.Mode {
				t.Fatalf("dialog %v open outside its mode %v", s.Dialog, s.Mode)
			}
		}
	}
}

func TestLongPressIgnoredWithoutImage(t *testing.T) {
	s := New(portrait)
	for _, a := range []Action{LongPressBackground{}, LongPressClock{}, LongPressCalendar{}} {
		if got, _ := Reduce(s, a); got.Mode != ModeNone {
			t.Fatalf("%T entered %v without an image", a, got.Mode)
		}
	}
}

func TestCalendarLongPressIgnoredWhenHidden(t *testing.T) {
	s := withPhoto(t)
	s, _ = Reduce(s, SetCalendarVisible{Visible: false})
	if got, _ := Reduce(s, LongPressCalendar{}); got.Mode != ModeNone {
		t.Fatalf("hidden calendar entered edit mode")
	}
}

func TestHidingCalendarLeavesCalendarMode(t *testing.T) {
	s := withPhoto(t)
	s, _ = Reduce(s, LongPressCalendar{})
	s, eff := Reduce(s, SetCalendarVisible{Visible: false})
	if s.Mode != ModeNone || !eff.Commit {
		t.Fatalf("expected exit with commit, got mode %v eff %+v", s.Mode, eff)
	}
}

func TestTapOutsideCommitsOnlyWhenEditing(t *testing.T) {
	s := withPhoto(t)
	if _, eff := Reduce(s, TapOutside{}); eff.Any() {
		t.Fatalf("tap without mode should do nothing, got %+v", eff)
	}
	s, _ = Reduce(s, LongPressBackground{})
	s, eff := Reduce(s, TapOutside{})
	if s.Mode != ModeNone || eff != (Effect{Commit: true}) {
		t.Fatalf("tap outside: mode %v eff %+v", s.Mode, eff)
	}
}

func TestDialogsOnlyFromOwnMode(t *testing.T) {
	s := withPhoto(t)
	if got, _ := Reduce(s, OpenDialog{Dialog: DialogClock}); got.Dialog != DialogNone {
		t.Fatalf("clock dialog opened outside clock mode")
	}
	s, _ = Reduce(s, LongPressClock{})
	if got, _ := Reduce(s, OpenDialog{Dialog: DialogCalendar}); got.Dialog != DialogNone {
		t.Fatalf("calendar dialog opened in clock mode")
	}
	s, _ = Reduce(s, OpenDialog{Dialog: DialogClock})
	if s.Dialog != DialogClock {
		t.Fatalf("clock dialog did not open")
	}
	if got, _ := Reduce(s, TapOutside{}); got.Mode != ModeClock {
		t.Fatalf("tap must not leave the mode while a dialog is open")
	}
	s, eff := Reduce(s, DismissDialog{})
	if s.Dialog != DialogNone || s.Mode != ModeClock || !eff.Commit {
		t.Fatalf("dismiss: dialog %v mode %v eff %+v", s.Dialog, s.Mode, eff)
	}
}

func TestApplyTransformOnlyInOwnMode(t *testing.T) {
	s := withPhoto(t)
	tr := s.App.Clock
	tr.ScaleX = 3
	if got, _ := Reduce(s, ApplyTransform{Entity: domain.EntityClock, Transform: tr}); got.App.Clock.ScaleX != 1 {
		t.Fatalf("transform applied outside edit mode")
	}
	s, _ = Reduce(s, LongPressClock{})
	if got, _ := Reduce(s, ApplyTransform{Entity: domain.EntityCalendar, Transform: tr}); got.App.Calendar.ScaleX != 1 {
		t.Fatalf("calendar transform applied in clock mode")
	}
	tr.ScaleY = 40
	s, _ = Reduce(s, ApplyTransform{Entity: domain.EntityClock, Transform: tr})
	if s.App.Clock.ScaleX != 3 || s.App.Clock.ScaleY != 10 {
		t.Fatalf("unexpected clock scale %+v", s.App.Clock)
	}
}

func TestPhotoAcceptedSetsAccentAndLayout(t *testing.T) {
	s := withPhoto(t)
	want := domain.RGB(200, 40, 40)
	if s.App.AccentColor != want || s.App.Clock.Color != want || s.App.Calendar.Color != want {
		t.Fatalf("accent not applied: %+v", s.App)
	}
	if s.App.Clock.Offset != (vector.Pt{Y: -480}) || s.App.Calendar.Offset != (vector.Pt{Y: 480}) {
		t.Fatalf("portrait layout: clock %+v calendar %+v", s.App.Clock.Offset, s.App.Calendar.Offset)
	}
	if !s.Segmenting || s.App.ForegroundPresent {
		t.Fatalf("cutout should be pending")
	}
}

func TestPhotoWithoutAccentFallsBackToWhite(t *testing.T) {
	s, _ := Reduce(New(portrait), PhotoSelected{})
	s, _ = Reduce(s, PhotoDecoded{Generation: s.Generation, Background: image.NewGray(image.Rect(0, 0, 1, 1))})
	if s.App.AccentColor != domain.White || s.App.Clock.Color != domain.White {
		t.Fatalf("expected white accent, got %s", s.App.AccentColor.Hex())
	}
}

func TestStaleResultsAreDropped(t *testing.T) {
	s := withPhoto(t)
	old := s.Generation
	s, _ = Reduce(s, PhotoSelected{})
	s, _ = Reduce(s, PhotoDecoded{Generation: s.Generation, Background: image.NewGray(image.Rect(0, 0, 3, 3))})
	cut := image.NewNRGBA(image.Rect(0, 0, 2, 2))

	got, eff := Reduce(s, SegmentationDone{Generation: old, Foreground: cut})
	if got.Foreground != nil || got.App.ForegroundPresent || eff.Any() {
		t.Fatalf("stale cutout applied")
	}
	got, _ = Reduce(s, SegmentationFailed{Generation: old, Err: errors.New("late")})
	if got.Warning != "" {
		t.Fatalf("stale failure raised a warning")
	}
	got, _ = Reduce(s, PhotoDecoded{Generation: old, Background: cut})
	if got.Background == cut {
		t.Fatalf("stale decode applied")
	}
}

func TestSegmentationOutcomes(t *testing.T) {
	s := withPhoto(t)
	cut := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	ok, eff := Reduce(s, SegmentationDone{Generation: s.Generation, Foreground: cut})
	if !ok.App.ForegroundPresent || !eff.SaveForeground || !eff.Commit {
		t.Fatalf("cutout not stored: %+v", eff)
	}
	none, eff := Reduce(s, SegmentationDone{Generation: s.Generation})
	if none.App.ForegroundPresent || !eff.RemoveForeground {
		t.Fatalf("empty cutout: %+v", eff)
	}
	failed, _ := Reduce(s, SegmentationFailed{Generation: s.Generation, Err: errors.New("boom")})
	if failed.Warning != WarnSegmentation || failed.App.ForegroundPresent || !failed.App.HasImage {
		t.Fatalf("failure: %+v", failed)
	}
	// a second delivery for the same photo is ignored
	if again, eff := Reduce(ok, SegmentationFailed{Generation: s.Generation}); again.Warning != "" || eff.Any() {
		t.Fatalf("duplicate delivery applied")
	}
}

func TestPhotoFailureLeavesStateUntouched(t *testing.T) {
	s := withPhoto(t)
	before := s.App
	s, _ = Reduce(s, PhotoSelected{})
	s, eff := Reduce(s, PhotoFailed{Generation: s.Generation, Err: errors.New("corrupt")})
	if s.App != before || eff.Any() || s.Loading || s.Warning != WarnPhotoUnreadable {
		t.Fatalf("decode failure mutated state: %+v %+v", s.App, eff)
	}
}

func TestFailedSelectionKeepsPendingCutout(t *testing.T) {
	s := withPhoto(t)
	shown := s.Generation
	s, _ = Reduce(s, PhotoSelected{})
	s, _ = Reduce(s, PhotoFailed{Generation: s.Generation, Err: errors.New("corrupt")})
	if !s.Segmenting || s.Shown != shown {
		t.Fatalf("cutout of the displayed photo no longer pending: shown=%d segmenting=%v", s.Shown, s.Segmenting)
	}
	cut := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	s, eff := Reduce(s, SegmentationDone{Generation: shown, Foreground: cut})
	if s.Foreground != cut || !s.App.ForegroundPresent || !eff.SaveForeground {
		t.Fatalf("cutout dropped after a failed selection: %+v", eff)
	}
}

func TestSettingsIgnoredWithoutImage(t *testing.T) {
	s := New(portrait)
	for _, a := range []Action{
		SetOrientation{Orientation: domain.OrientationLandscape},
		SetColor{Entity: domain.EntityClock, Color: domain.Black},
		SetAlphaEnabled{Entity: domain.EntityCalendar, Enabled: true},
		SetAlpha{Entity: domain.EntityClock, Alpha: 0.2},
		SetDepthEnabled{Enabled: false},
		SetCalendarVisible{Visible: false},
	} {
		if got, eff := Reduce(s, a); got.App != domain.Defaults() || eff.Any() {
			t.Fatalf("%T changed state without an image: %+v", a, got.App)
		}
	}
}

func TestSetOrientationRelayouts(t *testing.T) {
	s := withPhoto(t)
	s, _ = Reduce(s, SetOrientation{Orientation: domain.OrientationLandscape})
	if s.App.Clock.Offset != (vector.Pt{X: -480}) || s.App.Calendar.Offset != (vector.Pt{X: 480}) {
		t.Fatalf("landscape layout: %+v %+v", s.App.Clock.Offset, s.App.Calendar.Offset)
	}
	if got, _ := Reduce(s, SetOrientation{Orientation: domain.Orientation(9)}); got.App.Orientation != domain.OrientationLandscape {
		t.Fatalf("invalid orientation accepted")
	}
}

func TestSettingsReducers(t *testing.T) {
	s := withPhoto(t)
	s, _ = ReduceAll(s,
		SetColor{Entity: domain.EntityCalendar, Color: domain.Black},
		SetAlphaEnabled{Entity: domain.EntityClock, Enabled: true},
		SetAlpha{Entity: domain.EntityClock, Alpha: 1.7},
		SetDepthEnabled{Enabled: false},
		SetCustomFont{Path: "/data/custom_font.ttf"},
	)
	if s.App.Calendar.Color != domain.Black || !s.App.Clock.AlphaEnabled || s.App.Clock.Alpha != 1 || s.App.DepthEnabled {
		t.Fatalf("settings not applied: %+v", s.App)
	}
	s, eff := Reduce(s, ResetCustomFont{})
	if s.App.CustomFontPath != "" || !eff.RemoveFont {
		t.Fatalf("font reset: %+v", eff)
	}
	if _, eff := Reduce(s, ResetCustomFont{}); eff.RemoveFont {
		t.Fatalf("nothing to remove the second time")
	}
}

func TestRestoreWithoutImageUsesDefaults(t *testing.T) {
	app := domain.Defaults()
	app.Clock.ScaleX = 4
	s, _ := Reduce(New(portrait), Restore{App: app})
	if s.App != domain.Defaults() {
		t.Fatalf("restore without image should yield defaults: %+v", s.App)
	}
}

func TestResetAllBumpsGeneration(t *testing.T) {
	s := withPhoto(t)
	gen := s.Generation
	s, eff := Reduce(s, ResetAll{})
	if !eff.ClearAll || s.App.HasImage || s.Generation != gen+1 || s.Viewport != portrait {
		t.Fatalf("reset: %+v %+v", s, eff)
	}
}

func TestAutoLayout(t *testing.T) {
	land := vector.Size{W: 2400, H: 1080}
	c, k := AutoLayout(land, domain.OrientationAuto, true)
	if c != (vector.Pt{X: -600}) || k != (vector.Pt{X: 600}) {
		t.Fatalf("auto landscape: %+v %+v", c, k)
	}
	c, k = AutoLayout(land, domain.OrientationPortrait, true)
	if c != (vector.Pt{Y: -600}) || k != (vector.Pt{Y: 600}) {
		t.Fatalf("forced portrait: %+v %+v", c, k)
	}
	c, k = AutoLayout(land, domain.OrientationAuto, false)
	if c != (vector.Pt{}) || k != (vector.Pt{}) {
		t.Fatalf("hidden calendar: %+v %+v", c, k)
	}
}

func TestImportLayout(t *testing.T) {
	imp := ImportLayout{
		Clock:           domain.WidgetTransform{Offset: vector.Pt{X: 5}, ScaleX: 20, ScaleY: 2, Alpha: 0.3, Color: domain.Black},
		Calendar:        domain.WidgetTransform{ScaleX: 2, ScaleY: 4, Alpha: 1, Color: domain.White},
		CalendarVisible: false,
		DepthEnabled:    false,
		Orientation:     domain.OrientationLandscape,
	}
	if s, eff := Reduce(New(portrait), imp); eff.Any() || s.App.Clock.Offset.X != 0 {
		t.Fatalf("layout imported without a photo")
	}
	s, _ := Reduce(withPhoto(t), LongPressClock{})
	s, eff := Reduce(s, imp)
	if !eff.Commit || s.Mode != ModeNone {
		t.Fatalf("import should commit and leave editing: %+v mode=%v", eff, s.Mode)
	}
	if s.App.Clock.ScaleX != 10 || s.App.Clock.ScaleY != 2 || s.App.Calendar.ScaleY != 2 {
		t.Fatalf("scales not clamped: %+v %+v", s.App.Clock, s.App.Calendar)
	}
	if s.App.CalendarVisible || s.App.DepthEnabled || s.App.Orientation != domain.OrientationLandscape {
		t.Fatalf("flags not imported: %+v", s.App)
	}
}
