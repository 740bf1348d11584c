/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/image/font/opentype"
)

// ErrInvalidFont is returned when an imported file is not a TrueType or OpenType font.
var ErrInvalidFont = errors.New("not a TrueType/OpenType font")

const customFontBase = "custom_font"

// FontPath returns the path of the imported font, or "" when there is none.
func (s *Store) FontPath() string {
	for _, ext := range []string{".ttf", ".otf"} {
		p := filepath.Join(s.dir, customFontBase+ext)
		if fileExists(p) {
			return p
		}
	}
	return ""
}

// ImportFont validates the font at src, copies it into the data directory and returns the
// new path. A previously imported font is replaced.
func (s *Store) ImportFont(src string) (string, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("read font: %w", err)
	}
	return s.ImportFontData(data)
}

// ImportFontData is ImportFont for in-memory data.
func (s *Store) ImportFontData(data []byte) (string, error) {
	if _, err := opentype.Parse(data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFont, err)
	}
	ext := ".ttf"
	if bytes.HasPrefix(data, []byte("OTTO")) {
		ext = ".otf"
	}
	dst := filepath.Join(s.dir, customFontBase+ext)
	if err := writeAtomic(dst, data); err != nil {
		return "", fmt.Errorf("copy font: %w", err)
	}
	// keep a single imported font
	for _, other := range []string{".ttf", ".otf"} {
		if other != ext {
			_ = removeIfExists(filepath.Join(s.dir, customFontBase+other))
		}
	}
	s.log.Info("font imported", slog.String("path", dst), slog.Int("bytes", len(data)))
	return dst, nil
}

// ResetFont deletes the imported font.
func (s *Store) ResetFont() error {
	return errors.Join(
		removeIfExists(filepath.Join(s.dir, customFontBase+".ttf")),
		removeIfExists(filepath.Join(s.dir, customFontBase+".otf")),
	)
}
