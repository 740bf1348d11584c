/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is a packed 0xAARRGGBB value, the representation persisted in the store.
type Color uint32

const (
	White Color = 0xFFFFFFFF
	Black Color = 0xFF000000
	Red   Color = 0xFFFF0000
)

// RGB builds an opaque color.
func RGB(r, g, b uint8) Color {
	return Color(0xFF000000 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// ColorFromInt converts the signed 32-bit integer form used by the key-value store.
func ColorFromInt(v int) Color { return Color(uint32(int32(v))) }

// ColorOf converts any color.Color to a packed non-premultiplied value.
func ColorOf(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color(uint32(n.A)<<24 | uint32(n.R)<<16 | uint32(n.G)<<8 | uint32(n.B))
}

// Int returns the signed 32-bit integer form.
func (c Color) Int() int { return int(int32(uint32(c))) }

func (c Color) A() uint8 { return uint8(c >> 24) }
func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }

// NRGBA implements the conversion to the image/color model.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R(), G: c.G(), B: c.B(), A: c.A()}
}

// RGBA makes Color usable as a color.Color.
func (c Color) RGBA() (r, g, b, a uint32) { return c.NRGBA().RGBA() }

// WithAlpha multiplies the alpha channel by f in [0,1].
func (c Color) WithAlpha(f float32) Color {
	a := float32(c.A()) * ClampUnit(f)
	return Color(uint32(uint8(a+0.5))<<24 | uint32(c)&0x00FFFFFF)
}

// Luminance is the relative luminance in [0,1] (sRGB, no gamma correction).
func (c Color) Luminance() float64 {
	return (0.2126*float64(c.R()) + 0.7152*float64(c.G()) + 0.0722*float64(c.B())) / 255
}

// Hex formats as #AARRGGBB.
func (c Color) Hex() string { return fmt.Sprintf("#%08X", uint32(c)) }

// ParseColor accepts #RRGGBB, #AARRGGBB and the names white, black and red.
func ParseColor(s string) (Color, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "white":
		return White, nil
	case "black":
		return Black, nil
	case "red":
		return Red, nil
	}
	v = strings.TrimPrefix(v, "#")
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("parse color %q: %w", s, err)
	}
	switch len(v) {
	case 6:
		return Color(0xFF000000 | uint32(n)), nil
	case 8:
		return Color(uint32(n)), nil
	}
	return 0, fmt.Errorf("parse color %q: want #RRGGBB or #AARRGGBB", s)
}

// MarshalText encodes the color as #AARRGGBB so presets stay human-readable.
func (c Color) MarshalText() ([]byte, error) { return []byte(c.Hex()), nil }

func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
