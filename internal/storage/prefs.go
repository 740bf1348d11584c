/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"sync"
)

// Prefs is the key-value interface the store is written against. It matches the
// corresponding methods of fyne.Preferences. Reads never fail: a missing or unreadable
// value yields the fallback.
type Prefs interface {
	BoolWithFallback(key string, fallback bool) bool
	SetBool(key string, value bool)
	FloatWithFallback(key string, fallback float64) float64
	SetFloat(key string, value float64)
	IntWithFallback(key string, fallback int) int
	SetInt(key string, value int)
	StringWithFallback(key, fallback string) string
	SetString(key, value string)
	RemoveValue(key string)
}

// Batcher is implemented by backends that can apply several writes atomically.
type Batcher interface {
	Batch(fn func(p Prefs)) error
}

// MemoryPrefs is an in-process Prefs used for tests and as the degraded backend when the
// database cannot be opened.
type MemoryPrefs struct {
	mu sync.RWMutex
	m  map[string]any
}

// NewMemoryPrefs returns an empty store.
func NewMemoryPrefs() *MemoryPrefs { return &MemoryPrefs{m: map[string]any{}} }

func (p *MemoryPrefs) get(key string) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.m[key]
	return v, ok
}

func (p *MemoryPrefs) set(key string, v any) {
	p.mu.Lock()
	p.m[key] = v
	p.mu.Unlock()
}

func (p *MemoryPrefs) BoolWithFallback(key string, fallback bool) bool {
	if v, ok := p.get(key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

func (p *MemoryPrefs) FloatWithFallback(key string, fallback float64) float64 {
	if v, ok := p.get(key); ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return fallback
}

func (p *MemoryPrefs) IntWithFallback(key string, fallback int) int {
	if v, ok := p.get(key); ok {
		if i, ok := v.(int); ok {
			return i
		}
	}
	return fallback
}

func (p *MemoryPrefs) StringWithFallback(key, fallback string) string {
	if v, ok := p.get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

func (p *MemoryPrefs) SetBool(key string, value bool)     { p.set(key, value) }
func (p *MemoryPrefs) SetFloat(key string, value float64) { p.set(key, value) }
func (p *MemoryPrefs) SetInt(key string, value int)       { p.set(key, value) }
func (p *MemoryPrefs) SetString(key, value string)        { p.set(key, value) }

func (p *MemoryPrefs) RemoveValue(key string) {
	p.mu.Lock()
	delete(p.m, key)
	p.mu.Unlock()
}

// Keys returns the stored keys in no particular order.
func (p *MemoryPrefs) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.m))
	for k := range p.m {
		out = append(out, k)
	}
	return out
}

// Batch applies the writes of fn at once, so readers never observe a partial update.
func (p *MemoryPrefs) Batch(fn func(Prefs)) error {
	st := newStaged(p)
	fn(st)
	p.mu.Lock()
	for _, o := range st.ops {
		if o.remove {
			delete(p.m, o.key)
		} else {
			p.m[o.key] = o.val
		}
	}
	p.mu.Unlock()
	return nil
}

// op is one staged write.
type op struct {
	key    string
	val    any
	remove bool
}

// staged records writes in order and serves reads from them before falling back to base.
type staged struct {
	base Prefs
	ops  []op
	view map[string]op
}

func newStaged(base Prefs) *staged { return &staged{base: base, view: map[string]op{}} }

func (s *staged) put(o op) {
	s.ops = append(s.ops, o)
	s.view[o.key] = o
}

func (s *staged) lookup(key string) (any, bool, bool) {
	o, ok := s.view[key]
	if !ok {
		return nil, false, false
	}
	return o.val, !o.remove, true
}

func (s *staged) BoolWithFallback(key string, fallback bool) bool {
	if v, present, hit := s.lookup(key); hit {
		if b, ok := v.(bool); ok && present {
			return b
		}
		return fallback
	}
	return s.base.BoolWithFallback(key, fallback)
}

func (s *staged) FloatWithFallback(key string, fallback float64) float64 {
	if v, present, hit := s.lookup(key); hit {
		if f, ok := v.(float64); ok && present {
			return f
		}
		return fallback
	}
	return s.base.FloatWithFallback(key, fallback)
}

func (s *staged) IntWithFallback(key string, fallback int) int {
	if v, present, hit := s.lookup(key); hit {
		if i, ok := v.(int); ok && present {
			return i
		}
		return fallback
	}
	return s.base.IntWithFallback(key, fallback)
}

func (s *staged) StringWithFallback(key, fallback string) string {
	if v, present, hit := s.lookup(key); hit {
		if str, ok := v.(string); ok && present {
			return str
		}
		return fallback
	}
	return s.base.StringWithFallback(key, fallback)
}

func (s *staged) SetBool(key string, value bool)     { s.put(op{key: key, val: value}) }
func (s *staged) SetFloat(key string, value float64) { s.put(op{key: key, val: value}) }
func (s *staged) SetInt(key string, value int)       { s.put(op{key: key, val: value}) }
func (s *staged) SetString(key, value string)        { s.put(op{key: key, val: value}) }
func (s *staged) RemoveValue(key string)             { s.put(op{key: key, remove: true}) }

// Apply runs fn against p, atomically when p supports it.
func Apply(p Prefs, fn func(Prefs)) error {
	if b, ok := p.(Batcher); ok {
		return b.Batch(fn)
	}
	fn(p)
	return nil
}
