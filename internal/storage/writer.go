/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	applog "depthclock/internal/log"
)

// ErrWriterClosed is returned by Submit after Close.
var ErrWriterClosed = errors.New("writer closed")

type job struct {
	name string
	fn   func() error
	done chan struct{} // barrier only
}

// Writer runs persistence jobs one at a time, in submission order, on its own goroutine.
// Submit never blocks; failures are logged and counted, never returned to the caller.
type Writer struct {
	log *slog.Logger

	mu     sync.Mutex
	queue  []job
	closed bool
	wake   chan struct{}
	done   chan struct{}

	failures atomic.Uint64
	// OnError, when set before the first Submit, is called on the writer goroutine for
	// each failed job.
	OnError func(name string, err error)
}

// NewWriter starts the writer goroutine.
func NewWriter() *Writer {
	w := &Writer{
		log:  applog.WithComponent("writer"),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go w.loop()
	return w
}

// Submit enqueues fn. It returns ErrWriterClosed after Close.
func (w *Writer) Submit(name string, fn func() error) error {
	return w.push(job{name: name, fn: fn})
}

func (w *Writer) push(j job) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWriterClosed
	}
	w.queue = append(w.queue, j)
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

// Flush waits until every job submitted before the call has run.
func (w *Writer) Flush(ctx context.Context) error {
	b := make(chan struct{})
	if err := w.push(job{name: "flush", done: b}); err != nil {
		// closing: the remaining queue drains before done is closed
		select {
		case <-w.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	select {
	case <-b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the goroutine. It waits at most until ctx is done.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	already := w.closed
	w.closed = true
	w.mu.Unlock()
	if !already {
		select {
		case w.wake <- struct{}{}:
		default:
		}
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Failures is the number of jobs that returned an error or panicked.
func (w *Writer) Failures() uint64 { return w.failures.Load() }

// Pending is the number of queued jobs.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

func (w *Writer) loop() {
	defer close(w.done)
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			closed := w.closed
			w.mu.Unlock()
			if closed {
				return
			}
			<-w.wake
			continue
		}
		j := w.queue[0]
		w.queue[0] = job{}
		w.queue = w.queue[1:]
		w.mu.Unlock()

		if j.done != nil {
			close(j.done)
			continue
		}
		w.run(j)
	}
}

func (w *Writer) run(j job) {
	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return j.fn()
	}()
	if err != nil {
		w.failures.Add(1)
		w.log.Error("persist failed", slog.String("op", j.name), slog.Any("err", err))
		if w.OnError != nil {
			w.OnError(j.name, err)
		}
		return
	}
	w.log.Debug("persisted", slog.String("op", j.name), slog.Duration("took", time.Since(start)))
}
