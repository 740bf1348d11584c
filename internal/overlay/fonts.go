/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package overlay

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	applog "depthclock/internal/log"
)

// Weight selects the bold or regular member of a FontSet.
type Weight int

const (
	Regular Weight = iota
	Bold
)

// source produces sized faces. Faces are not safe for concurrent use, so every
// render asks for fresh ones.
type source interface {
	face(size float64) (font.Face, error)
}

type ttSource struct{ f *truetype.Font }

func (s ttSource) face(size float64) (font.Face, error) {
	return truetype.NewFace(s.f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull}), nil
}

type otSource struct{ f *opentype.Font }

func (s otSource) face(size float64) (font.Face, error) {
	return opentype.NewFace(s.f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
}

// FontSet holds the bold and regular fonts used by the overlays. A custom font
// replaces both weights.
type FontSet struct {
	fonts  map[Weight]source
	custom string
}

var (
	defaultOnce sync.Once
	defaultSet  *FontSet
)

// DefaultFonts returns the bundled Go fonts.
func DefaultFonts() *FontSet {
	defaultOnce.Do(func() {
		bold, err := truetype.Parse(gobold.TTF)
		if err != nil {
			panic(fmt.Sprintf("bundled font: %v", err))
		}
		regular, err := truetype.Parse(goregular.TTF)
		if err != nil {
			panic(fmt.Sprintf("bundled font: %v", err))
		}
		defaultSet = &FontSet{fonts: map[Weight]source{Bold: ttSource{bold}, Regular: ttSource{regular}}}
	})
	return defaultSet
}

// ParseFont parses TrueType or OpenType data into a FontSet using it for both weights.
func ParseFont(data []byte) (*FontSet, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	src := otSource{f}
	return &FontSet{fonts: map[Weight]source{Bold: src, Regular: src}}, nil
}

// LoadFonts returns the fonts for a custom font path. An empty path, an unreadable
// file or an unparsable font all yield DefaultFonts.
func LoadFonts(path string) *FontSet {
	if path == "" {
		return DefaultFonts()
	}
	l := applog.WithComponent("overlay").With(slog.String("path", path))
	data, err := os.ReadFile(path)
	if err != nil {
		l.Warn("custom font unreadable, using default", slog.Any("err", err))
		return DefaultFonts()
	}
	fs, err := ParseFont(data)
	if err != nil {
		l.Warn("custom font rejected, using default", slog.Any("err", err))
		return DefaultFonts()
	}
	fs.custom = path
	return fs
}

// Custom returns the path of the custom font, or "" for the bundled fonts.
func (fs *FontSet) Custom() string {
	if fs == nil {
		return ""
	}
	return fs.custom
}

// Face returns a face of the given weight and pixel size, falling back to the
// bundled fonts when the set cannot produce one.
func (fs *FontSet) Face(w Weight, size float64) font.Face {
	if size <= 0 {
		size = 12
	}
	if fs != nil {
		if src, ok := fs.fonts[w]; ok {
			if f, err := src.face(size); err == nil {
				return f
			}
		}
	}
	if def := DefaultFonts(); fs != def {
		return def.Face(w, size)
	}
	return nil
}
