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
	"fmt"
	"log/slog"

	"depthclock/internal/preset"
	"depthclock/internal/state"
	"depthclock/internal/telemetry"
)

// ImportFont copies the font at src into the data directory and makes it the
// custom font.
func (c *Controller) ImportFont(ctx context.Context, src string) error {
	// a pending reset must not delete the file we are about to write
	if err := c.writer.Flush(ctx); err != nil {
		return err
	}
	path, err := c.store.ImportFont(src)
	if err != nil {
		return err
	}
	c.useFont(path)
	return nil
}

// ResetFont returns to the bundled fonts.
func (c *Controller) ResetFont() { c.Dispatch(state.ResetCustomFont{}) }

func (c *Controller) useFont(path string) {
	c.mu.Lock()
	// same path, new bytes
	c.fonts = nil
	c.mu.Unlock()
	c.Dispatch(state.SetCustomFont{Path: path})
}

// ApplyPreset installs the layout, colors and font of p over the current photo.
func (c *Controller) ApplyPreset(ctx context.Context, p preset.Preset) error {
	s := c.Snapshot()
	if !s.App.HasImage {
		return ErrNoPhoto
	}
	if s.Dialog != state.DialogNone {
		return fmt.Errorf("close the %s dialog first", s.Dialog)
	}
	if len(p.FontData) > 0 {
		if err := c.writer.Flush(ctx); err != nil {
			return err
		}
		path, err := c.store.ImportFontData(p.FontData)
		if err != nil {
			return fmt.Errorf("preset font: %w", err)
		}
		c.useFont(path)
	} else if s.App.CustomFontPath != "" {
		c.Dispatch(state.ResetCustomFont{})
	}
	next := p.Apply(c.Snapshot().App)
	c.Dispatch(state.ImportLayout{
		Clock:           next.Clock,
		Calendar:        next.Calendar,
		CalendarVisible: next.CalendarVisible,
		DepthEnabled:    next.DepthEnabled,
		Orientation:     next.Orientation,
	})
	telemetry.Event("preset_imported", map[string]any{"name": p.Settings.Name, "font": len(p.FontData) > 0})
	c.log.Info("preset applied", slog.String("name", p.Settings.Name))
	return nil
}

// ImportPreset loads the bundle at path and applies it.
func (c *Controller) ImportPreset(ctx context.Context, path string) error {
	p, err := preset.Load(path)
	if err != nil {
		return err
	}
	return c.ApplyPreset(ctx, p)
}

// ExportPreset writes the current layout, colors and font to a bundle at path.
func (c *Controller) ExportPreset(ctx context.Context, path, name string) error {
	if err := c.writer.Flush(ctx); err != nil {
		return err
	}
	s := c.Snapshot()
	if err := preset.Export(s.App, name, s.App.CustomFontPath, path); err != nil {
		return err
	}
	telemetry.Event("preset_exported", map[string]any{"name": name})
	return nil
}

// Reset forgets the photo and every setting.
func (c *Controller) Reset() { c.Dispatch(state.ResetAll{}) }
