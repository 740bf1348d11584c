/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"testing"
	"time"

	"depthclock/internal/domain"
	"depthclock/internal/vector"
)

func at(x float32) domain.WidgetTransform {
	t := domain.DefaultTransform()
	t.Offset = vector.Pt{X: x}
	return t
}

func TestUndoRedoBasic(t *testing.T) {
	m := NewManager(Config{MaxPerEntity: 10, MinInterval: 10 * time.Millisecond})
	t0 := time.Now()
	m.Record(Snapshot{Entity: domain.EntityClock, Transform: at(0), TS: t0})
	m.Record(Snapshot{Entity: domain.EntityClock, Transform: at(10), TS: t0.Add(20 * time.Millisecond)})
	if entities, total := m.Stats(); entities != 1 || total != 2 {
		t.Fatalf("expected 1 entity and 2 snapshots, got entities=%d total=%d", entities, total)
	}
	got, ok := m.Undo(domain.EntityClock, at(20))
	if !ok || got.Offset.X != 10 {
		t.Fatalf("undo expected offset 10, got ok=%v %v", ok, got.Offset)
	}
	got, ok = m.Undo(domain.EntityClock, got)
	if !ok || got.Offset.X != 0 {
		t.Fatalf("second undo expected offset 0, got ok=%v %v", ok, got.Offset)
	}
	if _, ok := m.Undo(domain.EntityClock, got); ok {
		t.Fatalf("history should be exhausted")
	}
	got, ok = m.Redo(domain.EntityClock, got)
	if !ok || got.Offset.X != 10 {
		t.Fatalf("redo expected offset 10, got ok=%v %v", ok, got.Offset)
	}
	got, ok = m.Redo(domain.EntityClock, got)
	if !ok || got.Offset.X != 20 {
		t.Fatalf("redo expected offset 20, got ok=%v %v", ok, got.Offset)
	}
}

func TestCoalesceKeepsStateBeforeBurst(t *testing.T) {
	m := NewManager(Config{MaxPerEntity: 10, MinInterval: 50 * time.Millisecond})
	t0 := time.Now()
	for i := 0; i < 5; i++ {
		m.Record(Snapshot{Entity: domain.EntityCalendar, Transform: at(float32(i)), TS: t0.Add(time.Duration(i) * 10 * time.Millisecond)})
	}
	if _, total := m.Stats(); total != 1 {
		t.Fatalf("expected coalesced to 1 snapshot, got %d", total)
	}
	got, ok := m.Undo(domain.EntityCalendar, at(99))
	if !ok || got.Offset.X != 0 {
		t.Fatalf("expected the pre-burst transform, got ok=%v %v", ok, got.Offset)
	}
}

func TestCaps(t *testing.T) {
	m := NewManager(Config{MaxPerEntity: 2, MinInterval: time.Millisecond})
	t0 := time.Now()
	for i := 0; i < 10; i++ {
		m.Record(Snapshot{Entity: domain.EntityClock, Transform: at(float32(i)), TS: t0.Add(time.Duration(i) * time.Second)})
	}
	if _, total := m.Stats(); total != 2 {
		t.Fatalf("expected MaxPerEntity cap to limit to 2, got %d", total)
	}
	got, _ := m.Undo(domain.EntityClock, at(10))
	if got.Offset.X != 9 {
		t.Fatalf("newest snapshots should survive, got %v", got.Offset)
	}
}
