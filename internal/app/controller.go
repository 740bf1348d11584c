/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package app owns the running state: it feeds actions through the reducer,
// turns effects into persistence jobs and runs photo work in the background.
package app

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"depthclock/internal/crash"
	"depthclock/internal/domain"
	"depthclock/internal/frame"
	"depthclock/internal/gesture"
	"depthclock/internal/imaging"
	applog "depthclock/internal/log"
	"depthclock/internal/overlay"
	"depthclock/internal/state"
	"depthclock/internal/storage"
	"depthclock/internal/telemetry"
	"depthclock/internal/undo"
	"depthclock/internal/vector"
)

// ErrNoPhoto is returned by operations that need a photo first.
var ErrNoPhoto = errors.New("no photo selected")

// Options tune a Controller.
type Options struct {
	Viewport vector.Size
	// Post runs fn on the goroutine that owns the controller. Nil runs fn inline.
	Post func(fn func())
	// Slop is the tap slop in pixels; zero means gesture.DefaultSlop.
	Slop float32
	Now  func() time.Time
}

// Controller is the single writer of the app snapshot. Dispatch may be called from
// any goroutine, but the UI calls it from its own loop and background results come
// back through Post.
type Controller struct {
	log       *slog.Logger
	store     *storage.Store
	writer    *storage.Writer
	pipe      *imaging.Pipeline
	post      func(func())
	now       func() time.Time
	closer    io.Closer
	ctx       context.Context
	cancel    context.CancelFunc
	tasks     sync.WaitGroup
	closeOnce sync.Once
	closeErr  error

	mu        sync.Mutex
	snap      state.Snapshot
	fonts     *overlay.FontSet
	scene     *frame.Scene
	listeners []func(state.Snapshot)
	mapper    *gesture.Mapper
	history   *undo.Manager
}

// New wires a controller. Call Start to load the persisted state.
func New(store *storage.Store, w *storage.Writer, pipe *imaging.Pipeline, opt Options) *Controller {
	if opt.Post == nil {
		opt.Post = func(fn func()) { fn() }
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		log:     applog.WithComponent("controller"),
		store:   store,
		writer:  w,
		pipe:    pipe,
		post:    opt.Post,
		now:     opt.Now,
		ctx:     ctx,
		cancel:  cancel,
		snap:    state.New(opt.Viewport),
		fonts:   overlay.DefaultFonts(),
		mapper:  gesture.NewMapper(opt.Slop),
		history: undo.NewManager(undo.Config{}),
	}
}

// Start restores the persisted state. A store without a photo yields the defaults.
func (c *Controller) Start() {
	l := applog.WithOperation(c.log, "start")
	app, ok := c.store.Load()
	var bg, fg image.Image
	if ok {
		bg, fg = c.store.LoadImages()
		if bg == nil {
			l.Warn("cached background missing", slog.String("path", c.store.BackgroundPath()))
		}
	}
	c.Dispatch(state.Restore{App: app, Background: bg, Foreground: fg})
	s := c.Snapshot()
	l.Info("state restored", slog.Bool("has_image", s.App.HasImage),
		slog.Bool("foreground", s.App.ForegroundPresent), slog.String("font", s.App.CustomFontPath))
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() state.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Store is the persistence layer the controller writes through.
func (c *Controller) Store() *storage.Store { return c.store }

// OnChange registers fn to be called after every dispatched action.
func (c *Controller) OnChange(fn func(state.Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Dispatch reduces a, schedules its effects and notifies listeners.
func (c *Controller) Dispatch(a state.Action) state.Effect {
	c.mu.Lock()
	prev := c.snap
	next, eff := state.Reduce(prev, a)
	c.snap = next
	c.sync(prev, next)
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	c.apply(eff, next)
	for _, fn := range listeners {
		fn(next)
	}
	return eff
}

// sync keeps the gesture mapper, the undo history and the fonts in step with the
// snapshot. Called with mu held.
func (c *Controller) sync(prev, next state.Snapshot) {
	if prev.Mode != next.Mode {
		c.history.Clear()
		c.mapper.Cancel()
	}
	if e, ok := next.Mode.Entity(); ok && !c.mapper.Active() {
		c.mapper.Attach(e, next.App.Widget(e))
	}
	if prev.App.CustomFontPath != next.App.CustomFontPath || c.fonts == nil {
		c.fonts = overlay.LoadFonts(next.App.CustomFontPath)
	}
	if prev.Mode != next.Mode || prev.App != next.App || prev.Background != next.Background ||
		prev.Foreground != next.Foreground || prev.Viewport != next.Viewport {
		c.scene = nil
	}
}

func (c *Controller) apply(eff state.Effect, s state.Snapshot) {
	if !eff.Any() {
		return
	}
	if eff.ClearAll {
		// Close cancels c.ctx before it drains the writer; the wipe must still land.
		ctx := context.WithoutCancel(c.ctx)
		c.submit("clear", func() error { return c.store.Clear(ctx) })
	}
	if eff.SaveBackground {
		bg := s.Background
		c.submit("save background", func() error { return c.store.SaveBackground(bg) })
	}
	if eff.RemoveForeground {
		c.submit("remove foreground", c.store.RemoveForeground)
	}
	if eff.SaveForeground {
		fg := s.Foreground
		c.submit("save foreground", func() error { return c.store.SaveForeground(fg) })
	}
	if eff.RemoveFont {
		c.submit("reset font", c.store.ResetFont)
	}
	if eff.Commit {
		c.commitChanges(s.App)
	}
}

// commitChanges persists every scalar of app. It is the only path that writes them.
func (c *Controller) commitChanges(app domain.AppState) {
	c.submit("save state", func() error { return c.store.Save(app) })
}

// Commit persists the current scalars, for callers that change settings outside of
// an editing session.
func (c *Controller) Commit() { c.commitChanges(c.Snapshot().App) }

func (c *Controller) submit(name string, fn func() error) {
	if err := c.writer.Submit(name, fn); err != nil {
		c.log.Warn("write dropped", slog.String("job", name), slog.Any("err", err))
	}
}

// SelectPhoto starts decoding path. The decoded photo, its accent and later the
// cutout arrive through Post tagged with the selection's generation, so a newer
// selection makes them stale.
func (c *Controller) SelectPhoto(path string) {
	c.Dispatch(state.PhotoSelected{})
	gen := c.Snapshot().Generation
	l := applog.WithOperation(c.log, "select_photo").With(slog.Uint64("generation", gen))
	telemetry.Event("photo_selected", nil)

	c.tasks.Add(1)
	go func() {
		defer c.tasks.Done()
		var photo imaging.Photo
		err := crash.Catch("decode photo", func() (err error) {
			photo, err = c.pipe.Prepare(path)
			return err
		})
		if err != nil {
			l.Warn("photo rejected", slog.Any("err", err))
			c.post(func() { c.Dispatch(state.PhotoFailed{Generation: gen, Err: err}) })
			return
		}
		c.post(func() {
			c.Dispatch(state.PhotoDecoded{Generation: gen, Background: photo.Background, Accent: photo.Accent, HasAccent: photo.HasAccent})
		})

		var cut image.Image
		err = crash.Catch("segment photo", func() (err error) {
			cut, err = c.pipe.Cutout(c.ctx, photo.Background)
			return err
		})
		outcome := "cutout"
		switch {
		case err != nil:
			outcome = "error"
		case cut == nil:
			outcome = "none"
		}
		telemetry.Event("segmentation", map[string]any{"outcome": outcome})
		l.Info("segmentation finished", slog.String("outcome", outcome))
		c.post(func() {
			if err != nil {
				c.Dispatch(state.SegmentationFailed{Generation: gen, Err: err})
				return
			}
			c.Dispatch(state.SegmentationDone{Generation: gen, Foreground: cut})
		})
	}()
}

// Wait blocks until background photo work has finished or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.tasks.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Resize records a new drawable size.
func (c *Controller) Resize(v vector.Size) { c.Dispatch(state.Resize{Viewport: v}) }

// Render composes the wallpaper for the current state and remembers the layout for
// hit testing.
func (c *Controller) Render() *image.RGBA {
	c.mu.Lock()
	s, fonts := c.snap, c.fonts
	c.mu.Unlock()
	sc := frame.Compose(s, frame.Options{Now: c.now(), Fonts: fonts})
	img := sc.Render()
	c.mu.Lock()
	if c.snap.App == s.App && c.snap.Viewport == s.Viewport {
		c.scene = sc
	}
	c.mu.Unlock()
	return img
}

// LongPressAt requests the editing mode of whatever is under p.
func (c *Controller) LongPressAt(p vector.Pt) {
	c.mu.Lock()
	sc, s, fonts := c.scene, c.snap, c.fonts
	c.mu.Unlock()
	if sc == nil {
		sc = frame.Compose(s, frame.Options{Now: c.now(), Fonts: fonts})
	}
	e, ok := sc.Hit(p)
	switch {
	case !ok:
		c.Dispatch(state.LongPressBackground{})
	case e == domain.EntityClock:
		c.Dispatch(state.LongPressClock{})
	default:
		c.Dispatch(state.LongPressCalendar{})
	}
}
