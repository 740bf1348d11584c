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
	"image"
	"image/png"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
)

const (
	BackgroundFileName = "background.png"
	ForegroundFileName = "foreground.png"
)

func (s *Store) BackgroundPath() string { return filepath.Join(s.dir, BackgroundFileName) }
func (s *Store) ForegroundPath() string { return filepath.Join(s.dir, ForegroundFileName) }

// SaveBackground replaces the cached photo.
func (s *Store) SaveBackground(img image.Image) error {
	if img == nil {
		return errors.New("nil background")
	}
	return s.writePNG(s.BackgroundPath(), img)
}

// SaveForeground replaces the cached cutout; nil removes it.
func (s *Store) SaveForeground(img image.Image) error {
	if img == nil {
		return s.RemoveForeground()
	}
	return s.writePNG(s.ForegroundPath(), img)
}

// RemoveForeground deletes a cached cutout if there is one.
func (s *Store) RemoveForeground() error { return removeIfExists(s.ForegroundPath()) }

func (s *Store) writePNG(path string, img image.Image) error {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	s.log.Debug("bitmap cached", slog.String("file", filepath.Base(path)), slog.Int("bytes", buf.Len()))
	return nil
}

func (s *Store) readPNG(path string) image.Image {
	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("open cached bitmap failed", slog.String("file", filepath.Base(path)), slog.Any("err", err))
		}
		return nil
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		s.log.Warn("decode cached bitmap failed", slog.String("file", filepath.Base(path)), slog.Any("err", err))
		return nil
	}
	return img
}

// writeAtomic writes data to a temp file in the target directory, syncs it and renames it
// over path, so readers see either the old or the new content.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		_ = os.Remove(temp)
		return err
	}
	if err := os.Rename(temp, path); err != nil {
		// On Windows, replace by removing destination first if needed
		if _, statErr := os.Stat(path); statErr == nil {
			_ = os.Remove(path)
			err = os.Rename(temp, path)
		}
		if err != nil {
			_ = os.Remove(temp)
			return err
		}
	}
	return nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}
