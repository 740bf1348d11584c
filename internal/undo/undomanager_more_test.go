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
)

func TestEntitiesAreIndependentAndClear(t *testing.T) {
	m := NewManager(Config{MinInterval: time.Millisecond})
	t0 := time.Now()
	m.Record(Snapshot{Entity: domain.EntityClock, Transform: at(1), TS: t0})
	m.Record(Snapshot{Entity: domain.EntityCalendar, Transform: at(2), TS: t0})
	if entities, total := m.Stats(); entities != 2 || total != 2 {
		t.Fatalf("unexpected stats: entities=%d total=%d", entities, total)
	}
	got, ok := m.Undo(domain.EntityCalendar, at(3))
	if !ok || got.Offset.X != 2 {
		t.Fatalf("calendar undo = %v %v", ok, got.Offset)
	}
	if !m.CanUndo(domain.EntityClock) || m.CanUndo(domain.EntityCalendar) || !m.CanRedo(domain.EntityCalendar) {
		t.Fatalf("stacks leaked between entities")
	}
	m.Clear()
	if entities, total := m.Stats(); entities != 0 || total != 0 {
		t.Fatalf("expected cleared stats to be zero, got entities=%d total=%d", entities, total)
	}
	if m.CanRedo(domain.EntityCalendar) {
		t.Fatalf("clear should drop redo history")
	}
}

func TestRecordClearsRedo(t *testing.T) {
	m := NewManager(Config{MinInterval: time.Millisecond})
	t0 := time.Now()
	m.Record(Snapshot{Entity: domain.EntityClock, Transform: at(1), TS: t0})
	if _, ok := m.Undo(domain.EntityClock, at(2)); !ok {
		t.Fatalf("undo failed")
	}
	m.Record(Snapshot{Entity: domain.EntityClock, Transform: at(1), TS: t0.Add(time.Second)})
	if _, ok := m.Redo(domain.EntityClock, at(1)); ok {
		t.Fatalf("a new change should invalidate redo")
	}
}
