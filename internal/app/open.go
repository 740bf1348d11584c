/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"time"

	"depthclock/internal/config"
	"depthclock/internal/imaging"
	applog "depthclock/internal/log"
	"depthclock/internal/storage"
	"depthclock/internal/vector"
)

// Setup holds the dependencies Open may take from the caller instead of building
// them from the configuration.
type Setup struct {
	Viewport vector.Size
	Post     func(fn func())
	// Prefs replaces the configured key-value backend.
	Prefs storage.Prefs
	// Segmenter replaces the configured segmentation service.
	Segmenter imaging.Segmenter
	Now       func() time.Time
}

// Open builds a controller from cfg and restores the persisted state.
func Open(cfg config.AppConfig, su Setup) (*Controller, error) {
	l := applog.WithOperation(applog.WithComponent("app"), "open")
	dir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	var closer io.Closer
	prefs := su.Prefs
	if prefs == nil {
		prefs, closer = openPrefs(cfg.General.Storage, dir, l)
	}

	seg := su.Segmenter
	if seg == nil {
		seg = imaging.Unavailable{}
		if cfg.Segmentation.URL != "" {
			seg = imaging.NewHTTPSegmenter(cfg.Segmentation.URL, cfg.Segmentation.Timeout(),
				cfg.Segmentation.TLSInsecure, config.SegmenterToken)
		}
	}
	target := image.Pt(cfg.Imaging.TargetWidth, cfg.Imaging.TargetHeight)
	if target.X <= 0 || target.Y <= 0 {
		target = imaging.DefaultTarget
	}

	viewport := su.Viewport
	if viewport.W <= 0 || viewport.H <= 0 {
		viewport = vector.Size{W: float32(target.X), H: float32(target.Y)}
	}
	pipe := imaging.NewPipeline(target, seg)
	pipe.MaxPixels = cfg.Imaging.MaxPixels
	w := storage.NewWriter()
	c := New(storage.NewStore(prefs, dir), w, pipe, Options{
		Viewport: viewport,
		Post:     su.Post,
		Slop:     cfg.Gesture.TapSlop,
		Now:      su.Now,
	})
	c.closer = closer
	c.Start()
	l.Info("opened", slog.String("data_dir", dir), slog.String("storage", cfg.General.Storage),
		slog.Bool("segmentation", cfg.Segmentation.URL != "" || su.Segmenter != nil))
	return c, nil
}

// openPrefs opens the configured backend. A database that cannot be opened is logged
// and replaced by an in-memory store so the editor still starts.
func openPrefs(kind, dir string, l *slog.Logger) (storage.Prefs, io.Closer) {
	if kind == "memory" {
		return storage.NewMemoryPrefs(), nil
	}
	p, err := storage.OpenSQLitePrefs(dir)
	if err != nil {
		l.Error("preferences unavailable, settings will not persist", slog.Any("err", err))
		return storage.NewMemoryPrefs(), nil
	}
	return p, p
}

// Close cancels background work, drains pending writes and closes the preferences.
func (c *Controller) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.cancel()
		var errs []error
		if err := c.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("wait tasks: %w", err))
		}
		if err := c.writer.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain writes: %w", err))
		}
		if c.closer != nil {
			if err := c.closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close prefs: %w", err))
			}
		}
		c.closeErr = errors.Join(errs...)
	})
	return c.closeErr
}

// Flush waits until every write scheduled so far has reached storage.
func (c *Controller) Flush(ctx context.Context) error { return c.writer.Flush(ctx) }
