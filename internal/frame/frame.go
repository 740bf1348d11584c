/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package frame composes the wallpaper: a frame is a buffer painted by an ordered
// list of layers, bottom first.
package frame

import (
	"image"
	"image/color"
	"image/draw"
)

// Layer paints itself onto the frame buffer.
type Layer interface {
	Render(dst *image.RGBA)
}

// Frame holds the output buffer and the layers painted onto it.
type Frame struct {
	Bounds   image.Rectangle
	Buffer   *image.RGBA
	BGColour color.RGBA
	layers   []Layer
}

// New returns an empty frame of w x h pixels on a black background.
func New(w, h int) *Frame {
	b := image.Rect(0, 0, max(w, 1), max(h, 1))
	return &Frame{Bounds: b, Buffer: image.NewRGBA(b), BGColour: color.RGBA{A: 255}}
}

// Add appends a layer on top of the existing ones.
func (f *Frame) Add(l Layer) {
	if l != nil {
		f.layers = append(f.layers, l)
	}
}

// Layers returns the number of layers.
func (f *Frame) Layers() int { return len(f.layers) }

// Render repaints the background and every layer and returns the buffer.
func (f *Frame) Render() *image.RGBA {
	draw.Draw(f.Buffer, f.Bounds, &image.Uniform{C: f.BGColour}, image.Point{}, draw.Src)
	for _, l := range f.layers {
		l.Render(f.Buffer)
	}
	return f.Buffer
}
