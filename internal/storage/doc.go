/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements persistence of the editor state.
// Scalar settings live in a flat key-value namespace behind Prefs, which is the method set
// of fyne.Preferences so the app's own preferences can back it. Outside the UI the same
// keys are kept in an embedded SQLite database at <data>/prefs.sqlite.
// The cached photo and cutout are PNG files next to it, written atomically, and an
// imported font is copied into the same directory. All writes from the UI go through a
// single Writer goroutine so they never interleave.
package storage
