//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"image"
	"image/color"
	"log/slog"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"depthclock/internal/app"
	"depthclock/internal/config"
	"depthclock/internal/crash"
	"depthclock/internal/domain"
	"depthclock/internal/frame"
	applog "depthclock/internal/log"
	"depthclock/internal/state"
	"depthclock/internal/telemetry"
	"depthclock/internal/vector"
	"depthclock/internal/version"
)

var (
	photoExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tif", ".tiff"}
	fontExtensions  = []string{".ttf", ".otf"}
)

// Run starts the editor window.
func Run(cfg config.AppConfig) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.String()))

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return err
	}
	var ctl *app.Controller
	defer crash.Recover(crash.Guard{DataDir: dataDir, Flush: func(ctx context.Context) error {
		if ctl == nil {
			return nil
		}
		return ctl.Flush(ctx)
	}})

	fyneApp := fyneapp.NewWithID("io.depthclock.editor")
	w := fyneApp.NewWindow("Depth Clock")
	prefs := fyneApp.Preferences()
	winW := max(prefs.IntWithFallback("window.width", 540), 360)
	winH := max(prefs.IntWithFallback("window.height", 960), 640)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	su := app.Setup{
		Viewport: vector.Size{W: float32(winW), H: float32(winH)},
		Post:     fyne.Do,
	}
	if cfg.General.Storage == "fyne" {
		su.Prefs = prefs
	}
	ctl, err = app.Open(cfg, su)
	if err != nil {
		return err
	}

	status := widget.NewLabel("")
	status.Truncation = fyne.TextTruncateEllipsis
	view := NewWallpaperView(ctl)

	choosePhoto := func() {
		open := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if rc == nil {
				return
			}
			path := rc.URI().Path()
			_ = rc.Close()
			l.Info("photo chosen", slog.String("path", path))
			ctl.SelectPhoto(path)
		}, w)
		open.SetFilter(fstorage.NewExtensionFileFilter(photoExtensions))
		open.Show()
	}
	view.OnChoosePhoto = choosePhoto

	importFont := func(done func()) {
		open := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if rc == nil {
				return
			}
			path := rc.URI().Path()
			_ = rc.Close()
			if err := ctl.ImportFont(context.Background(), path); err != nil {
				dialog.ShowError(err, w)
				return
			}
			done()
		}, w)
		open.SetFilter(fstorage.NewExtensionFileFilter(fontExtensions))
		open.Show()
	}

	var showSettings func()
	view.OnSettings = func() { showSettings() }
	showSettings = func() {
		s := ctl.Snapshot()
		var d dialog.Dialog
		switch s.Mode {
		case state.ModeBackground:
			ctl.Dispatch(state.OpenDialog{Dialog: state.DialogBackground})
			d = backgroundSettings(ctl, w, choosePhoto, importFont)
		case state.ModeClock:
			ctl.Dispatch(state.OpenDialog{Dialog: state.DialogClock})
			d = widgetSettings(ctl, domain.EntityClock, w)
		case state.ModeCalendar:
			ctl.Dispatch(state.OpenDialog{Dialog: state.DialogCalendar})
			d = widgetSettings(ctl, domain.EntityCalendar, w)
		default:
			dialog.ShowInformation("Settings", "Long-press the background, the clock or the calendar first.", w)
			return
		}
		d.SetOnClosed(func() { ctl.Dispatch(state.DismissDialog{}) })
		d.Show()
	}

	undoItem := fyne.NewMenuItem("Undo", func() {
		if !ctl.Undo() {
			status.SetText("Nothing to undo.")
		}
	})
	redoItem := fyne.NewMenuItem("Redo", func() {
		if !ctl.Redo() {
			status.SetText("Nothing to redo.")
		}
	})
	undoItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}
	redoItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault | fyne.KeyModifierShift}

	photoItem := fyne.NewMenuItem("Choose Photo…", choosePhoto)
	photoItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierShortcutDefault}

	importPresetItem := fyne.NewMenuItem("Import Preset…", func() {
		open := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if rc == nil {
				return
			}
			path := rc.URI().Path()
			_ = rc.Close()
			if err := ctl.ImportPreset(context.Background(), path); err != nil {
				dialog.ShowError(err, w)
				return
			}
			status.SetText("Preset applied.")
		}, w)
		open.SetFilter(fstorage.NewExtensionFileFilter([]string{".zip"}))
		open.Show()
	})
	exportPresetItem := fyne.NewMenuItem("Export Preset…", func() {
		if !ctl.Snapshot().App.HasImage {
			dialog.ShowInformation("Export Preset", "Choose a photo first.", w)
			return
		}
		name := widget.NewEntry()
		name.SetText("My layout")
		dialog.ShowForm("Export Preset", "Next", "Cancel", []*widget.FormItem{widget.NewFormItem("Name", name)}, func(ok bool) {
			if !ok {
				return
			}
			save := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
				if err != nil {
					dialog.ShowError(err, w)
					return
				}
				if wc == nil {
					return
				}
				out := wc.URI().Path()
				_ = wc.Close()
				if !strings.HasSuffix(strings.ToLower(out), ".zip") {
					out += ".zip"
				}
				if err := ctl.ExportPreset(context.Background(), out, strings.TrimSpace(name.Text)); err != nil {
					dialog.ShowError(err, w)
					return
				}
				dialog.ShowInformation("Export Preset", "Exported to "+out, w)
			}, w)
			save.SetFileName("depthclock-preset.zip")
			save.SetFilter(fstorage.NewExtensionFileFilter([]string{".zip"}))
			save.Show()
		}, w)
	})
	resetItem := fyne.NewMenuItem("Reset Everything…", func() {
		dialog.ShowConfirm("Reset", "Forget the photo and every setting?", func(ok bool) {
			if ok {
				ctl.Reset()
			}
		}, w)
	})

	settingsItem := fyne.NewMenuItem("Settings…", showSettings)
	settingsItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyComma, Modifier: fyne.KeyModifierShortcutDefault}
	editBackground := fyne.NewMenuItem("Edit Background", func() { ctl.Dispatch(state.LongPressBackground{}) })
	editClock := fyne.NewMenuItem("Edit Clock", func() { ctl.Dispatch(state.LongPressClock{}) })
	editCalendar := fyne.NewMenuItem("Edit Calendar", func() { ctl.Dispatch(state.LongPressCalendar{}) })
	doneItem := fyne.NewMenuItem("Done Editing", ctl.Tap)

	aboutItem := fyne.NewMenuItem("About", func() {
		dialog.ShowInformation("Depth Clock", "Version "+version.String()+"\nData: "+ctl.Store().Dir(), w)
	})

	w.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu("File", photoItem, fyne.NewMenuItemSeparator(), importPresetItem, exportPresetItem,
			fyne.NewMenuItemSeparator(), resetItem),
		fyne.NewMenu("Edit", undoItem, redoItem, fyne.NewMenuItemSeparator(), editBackground, editClock,
			editCalendar, doneItem, fyne.NewMenuItemSeparator(), settingsItem),
		fyne.NewMenu("Help", aboutItem),
	))
	for _, it := range []*fyne.MenuItem{undoItem, redoItem, photoItem, settingsItem} {
		item := it
		w.Canvas().AddShortcut(item.Shortcut, func(fyne.Shortcut) { item.Action() })
	}
	w.Canvas().SetOnTypedKey(func(e *fyne.KeyEvent) {
		if e.Name == fyne.KeyEscape {
			ctl.Tap()
		}
	})

	ctl.OnChange(func(s state.Snapshot) {
		status.SetText(statusText(s))
		undoItem.Disabled = !ctl.CanUndo()
		redoItem.Disabled = !ctl.CanRedo()
		view.Refresh()
	})
	status.SetText(statusText(ctl.Snapshot()))

	ticker := time.NewTicker(time.Second)
	stop := make(chan struct{})
	go func() {
		last := time.Now().Minute()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				if now.Minute() != last {
					last = now.Minute()
					fyne.Do(view.Refresh)
				}
			}
		}
	}()

	w.SetContent(container.NewBorder(nil, status, nil, nil, view))
	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		ctl.Commit()
		w.Close()
	})

	w.ShowAndRun()

	ticker.Stop()
	close(stop)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	telemetry.Default().Flush(ctx)
	if err := ctl.Close(ctx); err != nil {
		l.Error("shutdown", slog.Any("err", err))
		return err
	}
	return nil
}

func statusText(s state.Snapshot) string {
	switch {
	case s.Loading:
		return "Loading photo…"
	case s.Warning != "":
		return s.Warning
	case s.Segmenting:
		return "Detecting subject…"
	case !s.App.HasImage:
		return frame.PromptText
	case s.Mode == state.ModeBackground:
		return "Editing background. Open Settings for depth, orientation and font."
	case s.Mode != state.ModeNone:
		return frame.Caption(s.Mode) + ". Drag to move, scroll to resize, tap to finish."
	}
	return "Long-press (right-click) the clock, the calendar or the background to edit."
}

// backgroundSettings holds the depth, calendar, orientation and font switches.
func backgroundSettings(ctl *app.Controller, w fyne.Window, choosePhoto func(), importFont func(done func())) dialog.Dialog {
	s := ctl.Snapshot()
	depth := widget.NewCheck("Depth effect", func(v bool) { ctl.Dispatch(state.SetDepthEnabled{Enabled: v}) })
	depth.SetChecked(s.App.DepthEnabled)
	calendar := widget.NewCheck("Show calendar", func(v bool) { ctl.Dispatch(state.SetCalendarVisible{Visible: v}) })
	calendar.SetChecked(s.App.CalendarVisible)
	orientation := widget.NewSelect(Orientations, func(v string) {
		ctl.Dispatch(state.SetOrientation{Orientation: OrientationFromLabel(v)})
	})
	orientation.SetSelected(OrientationLabel(s.App.Orientation))

	fontLabel := widget.NewLabel(fontText(s.App.CustomFontPath))
	showFont := func() { fontLabel.SetText(fontText(ctl.Snapshot().App.CustomFontPath)) }
	fonts := container.NewHBox(
		widget.NewButton("Import font…", func() { importFont(showFont) }),
		widget.NewButton("Default font", func() {
			ctl.ResetFont()
			showFont()
		}),
	)
	content := container.NewVBox(
		depth, calendar,
		widget.NewForm(widget.NewFormItem("Orientation", orientation)),
		widget.NewSeparator(), fontLabel, fonts,
		widget.NewSeparator(), widget.NewButton("Choose another photo…", choosePhoto),
	)
	return dialog.NewCustom("Background", "Done", content, w)
}

func fontText(path string) string {
	if path == "" {
		return "Font: Go (bundled)"
	}
	return "Font: " + path
}

// widgetSettings holds the color quick picks and the alpha switch of e.
func widgetSettings(ctl *app.Controller, e domain.Entity, w fyne.Window) dialog.Dialog {
	s := ctl.Snapshot()
	t := s.App.Widget(e)

	swatch := canvas.NewRectangle(t.Color.NRGBA())
	swatch.SetMinSize(fyne.NewSize(32, 32))
	setColor := func(c domain.Color) {
		ctl.Dispatch(state.SetColor{Entity: e, Color: c})
		swatch.FillColor = c.NRGBA()
		swatch.Refresh()
	}
	picks := container.NewHBox(swatch)
	for _, ch := range QuickColors(s.App.AccentColor) {
		c := ch.Color
		picks.Add(widget.NewButton(ch.Label, func() { setColor(c) }))
	}
	picks.Add(widget.NewButton("Custom…", func() {
		p := dialog.NewColorPicker("Color", "Pick a color", func(c color.Color) { setColor(domain.ColorOf(c)) }, w)
		p.Advanced = true
		p.SetColor(t.Color.NRGBA())
		p.Show()
	}))

	alpha := widget.NewSlider(0, 1)
	alpha.Step = 0.01
	alpha.SetValue(float64(t.Alpha))
	alpha.OnChanged = func(v float64) { ctl.Dispatch(state.SetAlpha{Entity: e, Alpha: float32(v)}) }
	alphaOn := widget.NewCheck("Transparency", func(v bool) {
		ctl.Dispatch(state.SetAlphaEnabled{Entity: e, Enabled: v})
		if v {
			alpha.Enable()
		} else {
			alpha.Disable()
		}
	})
	alphaOn.SetChecked(t.AlphaEnabled)
	if !t.AlphaEnabled {
		alpha.Disable()
	}

	content := container.NewVBox(picks, alphaOn, alpha)
	title := strings.ToUpper(e.String()[:1]) + e.String()[1:]
	return dialog.NewCustom(title, "Done", content, w)
}

// WallpaperView shows the composed wallpaper and turns pointer input into editing
// actions: a secondary tap stands in for a long press, drag moves and the wheel resizes.
type WallpaperView struct {
	widget.BaseWidget
	ctl *app.Controller

	// OnChoosePhoto is called for a tap while no photo is set.
	OnChoosePhoto func()
	// OnSettings is called for a double tap in an editing mode.
	OnSettings func()

	size vector.Size
}

// NewWallpaperView returns a view driving ctl.
func NewWallpaperView(ctl *app.Controller) *WallpaperView {
	v := &WallpaperView{ctl: ctl}
	v.ExtendBaseWidget(v)
	return v
}

func (v *WallpaperView) viewport() Viewport {
	return Viewport{Widget: v.size, Scene: v.ctl.Snapshot().Viewport}
}

func pt(p fyne.Position) vector.Pt { return vector.Pt{X: p.X, Y: p.Y} }

// Tapped ends the editing mode, or asks for a photo when there is none.
func (v *WallpaperView) Tapped(_ *fyne.PointEvent) {
	s := v.ctl.Snapshot()
	switch {
	case !s.App.HasImage && !s.Loading:
		if v.OnChoosePhoto != nil {
			v.OnChoosePhoto()
		}
	case s.Editing():
		v.ctl.Tap()
	}
}

// TappedSecondary is the long press.
func (v *WallpaperView) TappedSecondary(e *fyne.PointEvent) {
	v.ctl.LongPressAt(v.viewport().ToScene(pt(e.Position)))
}

// DoubleTapped opens the settings of the current mode.
func (v *WallpaperView) DoubleTapped(_ *fyne.PointEvent) {
	if v.ctl.Snapshot().Editing() && v.OnSettings != nil {
		v.OnSettings()
	}
}

func (v *WallpaperView) Dragged(e *fyne.DragEvent) {
	v.ctl.Pan(v.viewport().DeltaToScene(vector.Pt{X: e.Dragged.DX, Y: e.Dragged.DY}))
}

func (v *WallpaperView) DragEnd() {}

func (v *WallpaperView) Scrolled(e *fyne.ScrollEvent) {
	v.ctl.Zoom(WheelZoom(e.Scrolled.DX, e.Scrolled.DY))
}

func (v *WallpaperView) MinSize() fyne.Size { return fyne.NewSize(180, 320) }

func (v *WallpaperView) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.Black)
	img := canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleFastest
	return &wallpaperRenderer{v: v, bg: bg, img: img, objects: []fyne.CanvasObject{bg, img}}
}

type wallpaperRenderer struct {
	v       *WallpaperView
	bg      *canvas.Rectangle
	img     *canvas.Image
	objects []fyne.CanvasObject
}

func (r *wallpaperRenderer) Destroy()                     {}
func (r *wallpaperRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *wallpaperRenderer) MinSize() fyne.Size           { return r.v.MinSize() }

func (r *wallpaperRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.img.Resize(size)
	r.img.Move(fyne.NewPos(0, 0))
	sz := vector.Size{W: size.Width, H: size.Height}
	if sz != r.v.size && sz.W > 0 && sz.H > 0 {
		r.v.size = sz
		want := frame.Oriented(sz, r.v.ctl.Snapshot().App.Orientation)
		if want != r.v.ctl.Snapshot().Viewport {
			// Resize notifies listeners, which refresh this renderer
			r.v.ctl.Resize(want)
			return
		}
	}
	r.Refresh()
}

func (r *wallpaperRenderer) Refresh() {
	if want := frame.Oriented(r.v.size, r.v.ctl.Snapshot().App.Orientation); want.W > 0 && want != r.v.ctl.Snapshot().Viewport {
		r.v.ctl.Resize(want)
		return
	}
	r.img.Image = r.v.ctl.Render()
	r.img.Refresh()
}

var (
	_ fyne.Tappable          = (*WallpaperView)(nil)
	_ fyne.SecondaryTappable = (*WallpaperView)(nil)
	_ fyne.DoubleTappable    = (*WallpaperView)(nil)
	_ fyne.Draggable         = (*WallpaperView)(nil)
	_ fyne.Scrollable        = (*WallpaperView)(nil)
)
