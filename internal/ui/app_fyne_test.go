//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests drive the wallpaper widget with synthetic events. They are gated behind
// the "fyne" build tag so headless CI does not need Fyne or a display. To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"depthclock/internal/app"
	"depthclock/internal/config"
	"depthclock/internal/frame"
	"depthclock/internal/imaging"
	"depthclock/internal/state"
	"depthclock/internal/vector"
)

func newView(t *testing.T) (*WallpaperView, *app.Controller) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)

	cfg := config.Defaults()
	cfg.General.DataDir = t.TempDir()
	cfg.General.Storage = "memory"
	ctl, err := app.Open(cfg, app.Setup{Viewport: vector.Size{W: 540, H: 960}, Segmenter: imaging.Unavailable{}})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = ctl.Close(context.Background()) })
	v := NewWallpaperView(ctl)
	v.Resize(fyne.NewSize(540, 960))
	return v, ctl
}

func loadPhoto(t *testing.T, ctl *app.Controller) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 54, 96))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	path := filepath.Join(t.TempDir(), "photo.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()
	ctl.SelectPhoto(path)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ctl.Wait(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestTapWithoutPhotoAsksForOne(t *testing.T) {
	v, _ := newView(t)
	asked := false
	v.OnChoosePhoto = func() { asked = true }
	v.Tapped(&fyne.PointEvent{Position: fyne.NewPos(10, 10)})
	if !asked {
		t.Fatalf("tap without a photo should open the chooser")
	}
}

func TestSecondaryTapDragAndWheelEditTheClock(t *testing.T) {
	v, ctl := newView(t)
	loadPhoto(t, ctl)

	sc := frame.Compose(ctl.Snapshot(), frame.Options{})
	c := sc.Clock.Bounds().Center()
	v.TappedSecondary(&fyne.PointEvent{Position: fyne.NewPos(c.X, c.Y)})
	if ctl.Snapshot().Mode != state.ModeClock {
		t.Fatalf("mode = %v, want clock", ctl.Snapshot().Mode)
	}

	before := ctl.Snapshot().App.Clock
	v.Dragged(&fyne.DragEvent{Dragged: fyne.NewDelta(12, -4)})
	after := ctl.Snapshot().App.Clock
	if after.Offset.X != before.Offset.X+12 || after.Offset.Y != before.Offset.Y-4 {
		t.Fatalf("drag moved clock to %+v from %+v", after.Offset, before.Offset)
	}
	v.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.NewDelta(0, 100)})
	if got := ctl.Snapshot().App.Clock; got.ScaleX <= before.ScaleX || got.ScaleY <= before.ScaleY {
		t.Fatalf("wheel did not grow the clock: %+v", got)
	}

	settings := false
	v.OnSettings = func() { settings = true }
	v.DoubleTapped(&fyne.PointEvent{})
	if !settings {
		t.Fatalf("double tap in an editing mode should open settings")
	}

	v.Tapped(&fyne.PointEvent{})
	if ctl.Snapshot().Mode != state.ModeNone {
		t.Fatalf("tap should finish editing")
	}
}

func TestStatusText(t *testing.T) {
	s := state.New(vector.Size{W: 10, H: 10})
	if statusText(s) != frame.PromptText {
		t.Fatalf("first run status = %q", statusText(s))
	}
	s.Loading = true
	if statusText(s) != "Loading photo…" {
		t.Fatalf("loading status = %q", statusText(s))
	}
	s.Loading = false
	s.Warning = state.WarnSegmentation
	if statusText(s) != state.WarnSegmentation {
		t.Fatalf("warning status = %q", statusText(s))
	}
}
