/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileSinkWritesJSONWithIdentity(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "depthclock.json")
	Init(Options{Level: "debug", File: fpath, Console: io.Discard})
	t.Cleanup(func() { _ = Close() })

	l := WithOperation(WithComponent("store"), "save")
	l.Info("scalars saved", slog.Int("keys", 19))
	if err := Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var last string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			last = s
		}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal %q: %v", last, err)
	}
	if m["app"] != "depthclock" || m["ver"] == nil {
		t.Fatalf("identity attrs missing: %v", m)
	}
	if m["component"] != "store" || m["op"] != "save" || m["msg"] != "scalars saved" || m["keys"] != float64(19) {
		t.Fatalf("record mismatch: %v", m)
	}
}

func TestConsoleLine(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", Console: &buf})
	t.Cleanup(func() { Init(Options{Level: "error", Console: io.Discard}) })

	l := WithOperation(WithComponent("segmenter"), "cutout")
	l.Debug("hidden")
	l.Warn("segmentation request failed", slog.Any("err", errors.New("dial tcp: refused")), slog.Int("status", 503))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record printed at info level: %q", out)
	}
	for _, want := range []string{" WRN [segmenter] segmentation request failed", "op=cutout", `err="dial tcp: refused"`, "status=503"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %q", want, out)
		}
	}
	if strings.Contains(out, "app=") || strings.Contains(out, "component=") {
		t.Fatalf("console line carries identity or component attr: %q", out)
	}
}

func TestConsoleGroups(t *testing.T) {
	var buf bytes.Buffer
	h := newConsole(&buf, slog.LevelWarn, false)
	ctx := context.Background()
	if h.Enabled(ctx, slog.LevelInfo) || !h.Enabled(ctx, slog.LevelError) {
		t.Fatalf("level threshold not applied")
	}

	h2 := h.WithAttrs([]slog.Attr{slog.String("mode", "clock")}).WithGroup("pinch")
	r := slog.NewRecord(time.Date(2026, 10, 19, 7, 45, 0, 0, time.UTC), slog.LevelError, "scale clamped", 0)
	r.AddAttrs(slog.Float64("sx", 10), slog.Group("span", slog.Float64("x", 2.5)), slog.Bool("uniform", false))
	if err := h2.Handle(ctx, r); err != nil {
		t.Fatalf("handle: %v", err)
	}
	want := "07:45:00.000 ERR scale clamped mode=clock pinch.sx=10 pinch.span.x=2.5 pinch.uniform=false\n"
	if got := buf.String(); got != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("DEPTHCLOCK_LOG_LEVEL", "warn")
	t.Setenv("DEPTHCLOCK_LOG_FORMAT", "json")
	t.Setenv("DEPTHCLOCK_LOG_SOURCE", "TRUE")
	t.Setenv("DEPTHCLOCK_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConsoleQuotesNonScalarsAndNamesSource(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(newConsole(&buf, slog.LevelInfo, true))
	l.Info("saved", slog.Any("err", errors.New("open bg.png: no space")), slog.String("key", "a=b"),
		slog.Duration("took", 1500*time.Millisecond), slog.Any("n", 7))

	out := buf.String()
	for _, want := range []string{`err="open bg.png: no space"`, `key="a=b"`, "took=1.5s", "n=7", "src=", "logger_test.go:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %q", want, out)
		}
	}
}
