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
	"sync"
	"time"

	"depthclock/internal/domain"
)

// Snapshot is a transform an entity had before a change.
// TS is when the snapshot was captured.
type Snapshot struct {
	Entity    domain.Entity
	Transform domain.WidgetTransform
	TS        time.Time
}

// Config controls depth caps and coalescing behavior.
type Config struct {
	// MaxPerEntity limits number of snapshots per entity (0 means unlimited).
	MaxPerEntity int
	// MinInterval coalesces snapshots captured within the interval for the same entity.
	// The older snapshot is kept so one undo reverts the whole burst.
	MinInterval time.Duration
}

// Manager provides an undo/redo stack per entity for one editing session.
// It is safe for concurrent use.
type Manager struct {
	cfg  Config
	mu   sync.Mutex
	undo map[domain.Entity][]Snapshot
	redo map[domain.Entity][]Snapshot
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxPerEntity <= 0 {
		cfg.MaxPerEntity = 64
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Manager{cfg: cfg, undo: make(map[domain.Entity][]Snapshot), redo: make(map[domain.Entity][]Snapshot)}
}

// Record stores the transform an entity had before a change. Within MinInterval of
// the last record only the timestamp moves. Clears the redo stack for the entity.
func (m *Manager) Record(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redo[s.Entity] = nil
	stack := m.undo[s.Entity]
	if n := len(stack); n > 0 && s.TS.Sub(stack[n-1].TS) < m.cfg.MinInterval {
		stack[n-1].TS = s.TS
		return
	}
	stack = append(stack, s)
	if len(stack) > m.cfg.MaxPerEntity {
		stack = append([]Snapshot{}, stack[len(stack)-m.cfg.MaxPerEntity:]...)
	}
	m.undo[s.Entity] = stack
}

// Undo returns the transform to restore for e and remembers current for Redo.
func (m *Manager) Undo(e domain.Entity, current domain.WidgetTransform) (domain.WidgetTransform, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[e]
	if len(stack) == 0 {
		return domain.WidgetTransform{}, false
	}
	s := stack[len(stack)-1]
	m.undo[e] = stack[:len(stack)-1]
	m.redo[e] = append(m.redo[e], Snapshot{Entity: e, Transform: current, TS: s.TS})
	return s.Transform, true
}

// Redo reverses the last Undo for e.
func (m *Manager) Redo(e domain.Entity, current domain.WidgetTransform) (domain.WidgetTransform, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[e]
	if len(r) == 0 {
		return domain.WidgetTransform{}, false
	}
	s := r[len(r)-1]
	m.redo[e] = r[:len(r)-1]
	// a zero TS keeps the next Record from coalescing into this entry
	m.undo[e] = append(m.undo[e], Snapshot{Entity: e, Transform: current})
	return s.Transform, true
}

// CanUndo and CanRedo report whether the stacks of e are non-empty.
func (m *Manager) CanUndo(e domain.Entity) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo[e]) > 0
}

func (m *Manager) CanRedo(e domain.Entity) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo[e]) > 0
}

// Clear drops all history, ending the editing session.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.undo)
	clear(m.redo)
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (entities int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.undo {
		if len(v) > 0 {
			entities++
		}
		totalSnapshots += len(v)
	}
	return entities, totalSnapshots
}
