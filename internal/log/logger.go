/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log provides the slog setup shared by the CLI and the UI.
// Records go to stderr (compact console lines or JSON) and optionally to a rotating
// JSON file. Loggers are derived per component and operation.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"depthclock/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger initialization.
// Environment variables read by FromEnv:
//   - DEPTHCLOCK_LOG_LEVEL=debug|info|warn|error
//   - DEPTHCLOCK_LOG_FORMAT=console|json
//   - DEPTHCLOCK_LOG_FILE=<path> (enables rotated file logging)
//   - DEPTHCLOCK_LOG_SOURCE=true|false
type Options struct {
	Level     string
	Format    string // "console" or "json"
	AddSource bool
	File      string
	// Rotation limits for File; zero uses 10 MB and 3 backups.
	MaxSizeMB  int
	MaxBackups int
	// Console overrides stderr, mainly for tests.
	Console io.Writer
}

const componentKey = "component"

var (
	mu     sync.RWMutex
	logger *slog.Logger
	rotor  *lj.Logger
)

// L returns the application logger, initializing it from env on first use.
func L() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l == nil {
		Init(FromEnv())
		mu.RLock()
		l = logger
		mu.RUnlock()
	}
	return l
}

// Init configures the global logger and installs it as slog.Default.
// Calling Init again replaces the logger and closes a previous log file.
func Init(opts Options) {
	lvl := parseLevel(opts.Level)
	hopts := &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}
	// JSON sinks carry the build identity; the console line stays short.
	identity := []slog.Attr{slog.String("app", "depthclock"), slog.String("ver", version.Version)}

	out := opts.Console
	if out == nil {
		out = os.Stderr
	}
	var sinks tee
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		sinks = append(sinks, slog.NewJSONHandler(out, hopts).WithAttrs(identity))
	} else {
		sinks = append(sinks, newConsole(out, lvl, opts.AddSource))
	}

	var fw *lj.Logger
	if path := strings.TrimSpace(opts.File); path != "" {
		fw = &lj.Logger{
			Filename:   path,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     28,
			Compress:   true,
		}
		sinks = append(sinks, slog.NewJSONHandler(fw, hopts).WithAttrs(identity))
	}

	var h slog.Handler = sinks
	if len(sinks) == 1 {
		h = sinks[0]
	}
	l := slog.New(h)

	mu.Lock()
	prev := rotor
	logger, rotor = l, fw
	mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	slog.SetDefault(l)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Close flushes and closes the rotating log file, if any.
func Close() error {
	mu.Lock()
	fw := rotor
	rotor = nil
	mu.Unlock()
	if fw == nil {
		return nil
	}
	return fw.Close()
}

// FromEnv builds Options from environment variables.
func FromEnv() Options {
	return Options{
		Level:     getenv("DEPTHCLOCK_LOG_LEVEL", "info"),
		Format:    getenv("DEPTHCLOCK_LOG_FORMAT", "console"),
		AddSource: strings.EqualFold(getenv("DEPTHCLOCK_LOG_SOURCE", "false"), "true"),
		File:      os.Getenv("DEPTHCLOCK_LOG_FILE"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// WithComponent returns a logger tagged with a component such as "store" or "segmenter".
func WithComponent(name string) *slog.Logger { return L().With(slog.String(componentKey, name)) }

// WithOperation annotates the logger with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// tee sends each record to every handler that accepts its level.
type tee []slog.Handler

func (t tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t tee) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t tee) WithGroup(name string) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t tee) each(fn func(slog.Handler) slog.Handler) tee {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = fn(h)
	}
	return out
}

// console writes one line per record:
//
//	07:45:00.120 WRN [segmenter] segmentation request failed op=cutout err="dial tcp: refused"
//
// The component attribute becomes the bracketed tag; grouped keys are dotted.
type console struct {
	w         io.Writer
	mu        *sync.Mutex
	level     slog.Level
	source    bool
	component string
	attrs     string
	group     string
}

func newConsole(w io.Writer, level slog.Level, source bool) *console {
	return &console{w: w, mu: &sync.Mutex{}, level: level, source: source}
}

func (c *console) Enabled(_ context.Context, level slog.Level) bool { return level >= c.level }

func (c *console) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteString(ts.Format("15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(levelTag(r.Level))
	if c.component != "" {
		b.WriteString(" [" + c.component + "]")
	}
	if r.Message != "" {
		b.WriteByte(' ')
		b.WriteString(r.Message)
	}
	b.WriteString(c.attrs)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, c.group, a)
		return true
	})
	if c.source {
		if file, line := recordSource(r); file != "" {
			b.WriteString(" src=" + file + ":" + strconv.Itoa(line))
		}
	}
	b.WriteByte('\n')
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.w, b.String())
	return err
}

func (c *console) WithAttrs(attrs []slog.Attr) slog.Handler {
	n := *c
	var b strings.Builder
	b.WriteString(c.attrs)
	for _, a := range attrs {
		if a.Key == componentKey && c.group == "" {
			n.component = a.Value.String()
			continue
		}
		writeAttr(&b, c.group, a)
	}
	n.attrs = b.String()
	return &n
}

func (c *console) WithGroup(name string) slog.Handler {
	if name == "" {
		return c
	}
	n := *c
	n.group = c.group + name + "."
	return &n
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, g := range v.Group() {
			writeAttr(b, p, g)
		}
		return
	}
	if a.Key == "" {
		return
	}
	b.WriteByte(' ')
	b.WriteString(prefix + a.Key + "=" + formatValue(v))
}

func levelTag(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DBG"
	case l < slog.LevelWarn:
		return "INF"
	case l < slog.LevelError:
		return "WRN"
	default:
		return "ERR"
	}
}

// recordSource reports the call site of r. Newer toolchains expose
// Record.Source(); older ones only carry the PC.
func recordSource(r slog.Record) (string, int) {
	if rs, ok := any(r).(interface{ Source() *slog.Source }); ok {
		if src := rs.Source(); src != nil {
			return src.File, src.Line
		}
		return "", 0
	}
	if r.PC == 0 {
		return "", 0
	}
	f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
	return f.File, f.Line
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindInt64, slog.KindUint64, slog.KindBool:
		return v.String()
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', 6, 64)
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	default:
		return quote(v.String())
	}
}

// quote wraps s when it would not read back as a single token.
func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
