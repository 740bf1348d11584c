/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"depthclock/internal/app"
	"depthclock/internal/config"
)

type memKeyring map[string]string

var errNoKey = errors.New("not found")

func (m memKeyring) Get(service, key string) (string, error) {
	v, ok := m[service+"/"+key]
	if !ok {
		return "", errNoKey
	}
	return v, nil
}

func (m memKeyring) Set(service, key, value string) error {
	m[service+"/"+key] = value
	return nil
}

func (m memKeyring) Delete(service, key string) error {
	delete(m, service+"/"+key)
	return nil
}

type harness struct {
	t       *testing.T
	dataDir string
	stdin   string
}

func newHarness(t *testing.T, segmenterURL string) *harness {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv(config.EnvSegmenterURL, segmenterURL)
	t.Setenv(config.EnvLogLevel, "error")
	prev := config.SetTokenStore(memKeyring{})
	t.Cleanup(func() { config.SetTokenStore(prev) })
	return &harness{t: t, dataDir: filepath.Join(home, "data")}
}

func (h *harness) run(args ...string) (string, string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&cliState{})
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(h.stdin))
	cmd.SetArgs(append([]string{"--data-dir", h.dataDir}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func (h *harness) must(args ...string) string {
	h.t.Helper()
	out, errOut, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("%v: %v\nstderr: %s", args, err, errOut)
	}
	return out
}

func (h *harness) show() stateView {
	h.t.Helper()
	var v stateView
	if err := json.Unmarshal([]byte(h.must("show", "--format", "json")), &v); err != nil {
		h.t.Fatalf("decode show output: %v", err)
	}
	return v
}

func writePhoto(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 90, 160))
	for y := 0; y < 160; y++ {
		for x := 0; x < 90; x++ {
			img.Set(x, y, color.NRGBA{R: 240, G: 120, B: 20, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "photo.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

// echoSegmenter returns the uploaded photo as its own cutout.
func echoSegmenter(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestImportEditRenderAndPreset(t *testing.T) {
	h := newHarness(t, echoSegmenter(t).URL)
	photo := writePhoto(t)

	out := h.must("import", photo)
	if !strings.Contains(out, "Background: 90x160") || !strings.Contains(out, "Cutout:     yes") {
		t.Fatalf("unexpected import output:\n%s", out)
	}
	v := h.show()
	if !v.HasImage || !v.Background || !v.Foreground || v.Clock.Color != v.Accent {
		t.Fatalf("unexpected state after import: %+v", v)
	}

	h.must("set", "clock", "--scale-x", "2", "--offset-x", "100", "--color", "white")
	h.must("set", "calendar", "--scale", "1.5", "--alpha-enabled", "--alpha", "0.25")
	h.must("set", "depth", "off")
	v = h.show()
	if v.Clock.ScaleX != 2 || v.Clock.ScaleY != 1 || v.Clock.OffsetX != 100 || v.Clock.Color != "#FFFFFFFF" {
		t.Fatalf("clock = %+v", v.Clock)
	}
	if v.Calendar.ScaleX != 1.5 || v.Calendar.ScaleY != 1.5 || !v.Calendar.AlphaEnabled || v.Calendar.Alpha != 0.25 {
		t.Fatalf("calendar = %+v", v.Calendar)
	}
	if v.DepthEnabled {
		t.Fatalf("depth still enabled")
	}

	png1 := filepath.Join(t.TempDir(), "wall.png")
	out = h.must("render", "--width", "108", "--height", "192", "--out", png1, "--at", "2026-10-19T09:41:00Z")
	if !strings.Contains(out, "Rendered 108x192") {
		t.Fatalf("render output: %s", out)
	}
	f, err := os.Open(png1)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(f)
	_ = f.Close()
	if err != nil || cfg.Width != 108 || cfg.Height != 192 {
		t.Fatalf("rendered png: %+v %v", cfg, err)
	}

	bundle := filepath.Join(t.TempDir(), "layout.zip")
	h.must("preset", "export", bundle, "--name", "wide clock")
	if _, _, err := h.run("preset", "export", bundle); err == nil {
		t.Fatalf("export over an existing bundle should need --force")
	}
	if out := h.must("preset", "inspect", bundle); !strings.Contains(out, "wide clock") || !strings.Contains(out, "scale_x: 2") {
		t.Fatalf("inspect output:\n%s", out)
	}

	if _, _, err := h.run("reset"); err == nil {
		t.Fatalf("reset without --yes should fail")
	}
	h.must("reset", "--yes")
	if v := h.show(); v.HasImage || v.Clock.ScaleX != 1 {
		t.Fatalf("state after reset: %+v", v)
	}
	if _, _, err := h.run("preset", "import", bundle); err == nil {
		t.Fatalf("preset import without a photo should fail")
	}

	h.must("import", photo)
	h.must("preset", "import", bundle)
	v = h.show()
	if v.Clock.ScaleX != 2 || v.Clock.OffsetX != 100 || v.DepthEnabled || v.Calendar.Alpha != 0.25 {
		t.Fatalf("state after preset import: %+v", v)
	}
}

func TestHiddenCalendarPersists(t *testing.T) {
	h := newHarness(t, "")
	_, errOut, err := h.run("import", writePhoto(t))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(errOut, "Subject detection failed") {
		t.Fatalf("expected segmentation warning, got %q", errOut)
	}
	h.must("set", "calendar", "--visible=false")
	if v := h.show(); v.CalendarVisible {
		t.Fatalf("calendar still visible")
	}
	if _, _, err := h.run("set", "calendar", "--offset-x", "10"); err == nil {
		t.Fatalf("placing a hidden calendar should fail")
	}
}

func TestSettingsNeedAPhoto(t *testing.T) {
	h := newHarness(t, "")
	if _, _, err := h.run("set", "clock", "--offset-x", "5"); err == nil || !strings.Contains(err.Error(), "no photo") {
		t.Fatalf("expected no photo error, got %v", err)
	}
	for _, args := range [][]string{{"set", "orientation", "landscape"}, {"set", "depth", "off"}, {"set", "calendar", "--visible=false"}} {
		if _, _, err := h.run(args...); !errors.Is(err, app.ErrNoPhoto) {
			t.Fatalf("%v: expected ErrNoPhoto, got %v", args, err)
		}
	}
	if v := h.show(); v.Clock.OffsetX != 0 || v.Orientation != "auto" || !v.DepthEnabled || !v.CalendarVisible {
		t.Fatalf("settings changed without a photo: %+v", v)
	}
	if _, _, err := h.run("set", "depth", "maybe"); !errors.Is(err, errSwitch) {
		t.Fatalf("expected errSwitch, got %v", err)
	}
	if _, _, err := h.run("set", "clock", "--color", "purple-ish"); err == nil {
		t.Fatalf("expected color parse error")
	}
	if _, _, err := h.run("import", filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatalf("importing a missing photo should fail")
	}
}

func TestOrientationCommand(t *testing.T) {
	h := newHarness(t, "")
	h.must("import", writePhoto(t))
	h.must("set", "orientation", "landscape")
	v := h.show()
	if v.Orientation != "landscape" {
		t.Fatalf("orientation = %q", v.Orientation)
	}
	if v.Clock.OffsetY != 0 || v.Clock.OffsetX >= 0 || v.Calendar.OffsetX <= 0 {
		t.Fatalf("landscape layout not applied: clock %+v calendar %+v", v.Clock, v.Calendar)
	}
	if _, _, err := h.run("set", "orientation", "diagonal"); err == nil {
		t.Fatalf("expected unknown orientation error")
	}
}

func TestTokenCommands(t *testing.T) {
	h := newHarness(t, "")
	if out := h.must("token"); !strings.Contains(out, "Not Found") {
		t.Fatalf("status output: %s", out)
	}
	h.stdin = "secret-token\n"
	h.must("token", "set")
	if config.SegmenterToken() != "secret-token" {
		t.Fatalf("token not stored")
	}
	if out := h.must("token", "status"); !strings.Contains(out, "Found (source=Keychain)") {
		t.Fatalf("status output: %s", out)
	}
	h.must("token", "delete")
	if config.SegmenterToken() != "" {
		t.Fatalf("token not deleted")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	h := newHarness(t, "")
	out := h.must("config", "init")
	path := strings.TrimSpace(strings.TrimPrefix(out, "Wrote"))
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file: %v", err)
	}
	if _, _, err := h.run("config", "init"); err == nil {
		t.Fatalf("config init should not overwrite without --force")
	}
	show := h.must("config", "show")
	if !strings.Contains(show, "storage: sqlite") || !strings.Contains(show, h.dataDir) {
		t.Fatalf("config show:\n%s", show)
	}
}

func TestVersion(t *testing.T) {
	h := newHarness(t, "")
	if out := h.must("version"); !strings.Contains(out, "Depth Clock") {
		t.Fatalf("version output: %s", out)
	}
}
