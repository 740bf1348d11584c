/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns panics into a crash report and a clean exit.
package crash

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	applog "depthclock/internal/log"
	"depthclock/internal/telemetry"
	"depthclock/internal/version"
)

// Replaced in tests.
var (
	exitFn           = os.Exit
	stderr io.Writer = os.Stderr
	now              = time.Now
)

// flushTimeout bounds how long Recover waits for pending writes.
const flushTimeout = 2 * time.Second

// Guard is what Recover needs: where to put the report and how to flush pending writes.
type Guard struct {
	DataDir string
	Flush   func(context.Context) error
}

// report is the content of a crash-<stamp>.log file.
type report struct {
	at      time.Time
	panic   any
	stack   []byte
	dataDir string
	// cache lists the data dir entries with their sizes so a report shows whether a
	// wallpaper was cached when the process died.
	cache []string
	flush error
}

func newReport(dir string, panicVal any, stack []byte) *report {
	r := &report{at: now(), panic: panicVal, stack: stack, dataDir: dir}
	if entries, err := os.ReadDir(dir); err == nil && dir != "" {
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), "crash-") {
				continue
			}
			if fi, err := e.Info(); err == nil {
				r.cache = append(r.cache, fmt.Sprintf("%s (%d bytes)", e.Name(), fi.Size()))
			}
		}
		sort.Strings(r.cache)
	}
	return r
}

func (r *report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Depth Clock Crash Report\n")
	fmt.Fprintf(&b, "Timestamp: %s\n", r.at.Format(time.RFC3339))
	fmt.Fprintf(&b, "Version: %s\n", version.String())
	fmt.Fprintf(&b, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&b, "Goroutines: %d\n", runtime.NumGoroutine())
	if r.dataDir != "" {
		fmt.Fprintf(&b, "Data dir: %s\n", r.dataDir)
		for _, c := range r.cache {
			fmt.Fprintf(&b, "  %s\n", c)
		}
	}
	if r.flush != nil {
		fmt.Fprintf(&b, "Flush: %v\n", r.flush)
	}
	fmt.Fprintf(&b, "\nPanic: %v\n\n", r.panic)
	fmt.Fprintf(&b, "Stack:\n%s\n", r.stack)
	return b.String()
}

// Recover captures a panic, flushes pending writes, writes crash-<stamp>.log into the
// data dir and exits with code 2.
//
// Usage: defer crash.Recover(guard)
func Recover(g Guard) {
	v := recover()
	if v == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", v), slog.String("stack", string(stack)))

	rep := newReport(g.DataDir, v, stack)
	if g.Flush != nil {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		rep.flush = g.Flush(ctx)
		cancel()
		if rep.flush != nil {
			l.Error("flush after panic failed", slog.Any("err", rep.flush))
		} else {
			l.Info("pending writes flushed")
		}
	}
	path, err := rep.write(g.DataDir)
	if err != nil {
		l.Error("crash report not written", slog.Any("err", err))
	}
	fmt.Fprintf(stderr, "Depth Clock stopped unexpectedly. A crash report was saved to: %s\n", path)
	fmt.Fprintf(stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

// Catch runs fn and converts a panic into an error, for background work whose
// failure should not end the process.
func Catch(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			applog.WithComponent("crash").Error("panic in background task",
				slog.String("task", name), slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("%s: panic: %v", name, r)
		}
	}()
	return fn()
}

// write stores the report in dir, or the temp dir when dir is unusable, and hands it
// to telemetry.
func (r *report) write(dir string) (string, error) {
	if dir == "" || os.MkdirAll(dir, 0o755) != nil {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "crash-"+r.at.Format("20060102-150405")+".log")
	body := []byte(r.String())
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return path, err
	}
	telemetry.UploadCrash(body)
	return path, nil
}
