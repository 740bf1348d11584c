/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package preset shares a wallpaper layout as a zip bundle: settings.json with the
// widget transforms and flags, plus the custom font when one is set.
package preset

import (
	"archive/zip"
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"depthclock/internal/domain"
	applog "depthclock/internal/log"
)

const (
	Version      = 1
	SettingsName = "settings.json"
	ManifestName = "preset.manifest.txt"
	maxEntrySize = 32 << 20
)

//go:embed schema.json
var schema []byte

// ErrInvalid wraps every way a bundle can be malformed.
var ErrInvalid = errors.New("invalid preset")

// Settings is the settings.json document.
type Settings struct {
	Version         int                    `json:"version"`
	Name            string                 `json:"name,omitempty"`
	Created         string                 `json:"created,omitempty"`
	Clock           domain.WidgetTransform `json:"clock"`
	Calendar        domain.WidgetTransform `json:"calendar"`
	CalendarVisible bool                   `json:"calendarVisible"`
	DepthEnabled    bool                   `json:"depthEnabled"`
	Orientation     string                 `json:"orientation"`
	Font            string                 `json:"font,omitempty"`
}

// Preset is a loaded bundle.
type Preset struct {
	Settings
	// FontData is the embedded font, nil when the preset uses the default font.
	FontData []byte
}

// FromState captures the shareable part of app.
func FromState(app domain.AppState, name string) Settings {
	return Settings{
		Version:         Version,
		Name:            name,
		Created:         time.Now().UTC().Format(time.RFC3339),
		Clock:           app.Clock,
		Calendar:        app.Calendar,
		CalendarVisible: app.CalendarVisible,
		DepthEnabled:    app.DepthEnabled,
		Orientation:     app.Orientation.String(),
	}
}

// Apply copies the preset onto app. Scales and alpha are clamped; the font is
// left to the caller since it has to be installed first.
func (p Preset) Apply(app domain.AppState) domain.AppState {
	app = app.WithWidget(domain.EntityClock, p.Clock)
	app = app.WithWidget(domain.EntityCalendar, p.Calendar)
	app.CalendarVisible = p.CalendarVisible
	app.DepthEnabled = p.DepthEnabled
	if o, err := domain.ParseOrientation(p.Orientation); err == nil {
		app.Orientation = o
	}
	return app
}

// Validate checks a settings document against the bundled JSON schema.
func Validate(data []byte) error {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
	}
	return nil
}

// Export writes a bundle for app to destZipPath. fontPath may be empty.
func Export(app domain.AppState, name, fontPath, destZipPath string) error {
	l := applog.WithOperation(applog.WithComponent("preset"), "export").With(slog.String("zip", destZipPath))
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	s := FromState(app, name)
	var font []byte
	if fontPath != "" {
		data, err := os.ReadFile(fontPath)
		if err != nil {
			return fmt.Errorf("read font: %w", err)
		}
		font = data
		s.Font = "fonts/" + fontName(fontPath)
	}
	doc, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZipPath)
	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)

	manifest := fmt.Sprintf("Depth Clock Preset\nName: %s\nCreated: %s\nFont: %t\n", name, s.Created, font != nil)
	entries := []struct {
		name string
		data []byte
	}{{ManifestName, []byte(manifest)}, {SettingsName, doc}}
	if font != nil {
		entries = append(entries, struct {
			name string
			data []byte
		}{s.Font, font})
	}
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			return fmt.Errorf("add %s: %w", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return fmt.Errorf("write %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish zip: %w", err)
	}
	l.Info("preset exported", slog.Bool("font", font != nil))
	return nil
}

// Load opens and validates a bundle.
func Load(packZipPath string) (Preset, error) {
	l := applog.WithOperation(applog.WithComponent("preset"), "load").With(slog.String("zip", packZipPath))
	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return Preset{}, fmt.Errorf("open preset: %w", err)
	}
	defer func() { _ = r.Close() }()

	files := map[string]*zip.File{}
	for _, f := range r.File {
		files[f.Name] = f
	}
	sf, ok := files[SettingsName]
	if !ok {
		return Preset{}, fmt.Errorf("%w: missing %s", ErrInvalid, SettingsName)
	}
	doc, err := readEntry(sf)
	if err != nil {
		return Preset{}, err
	}
	if err := Validate(doc); err != nil {
		l.Warn("preset rejected", slog.Any("err", err))
		return Preset{}, err
	}
	var p Preset
	if err := json.NewDecoder(bytes.NewReader(doc)).Decode(&p.Settings); err != nil {
		return Preset{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if p.Font != "" {
		ff, ok := files[p.Font]
		if !ok {
			return Preset{}, fmt.Errorf("%w: missing %s", ErrInvalid, p.Font)
		}
		if p.FontData, err = readEntry(ff); err != nil {
			return Preset{}, err
		}
	}
	l.Info("preset loaded", slog.String("name", p.Name), slog.Bool("font", p.FontData != nil))
	return p, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxEntrySize {
		return nil, fmt.Errorf("%w: %s too large", ErrInvalid, f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if len(data) > maxEntrySize {
		return nil, fmt.Errorf("%w: %s too large", ErrInvalid, f.Name)
	}
	return data, nil
}

func fontName(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".otf") {
		return "custom.otf"
	}
	return "custom.ttf"
}
