/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Command depthclock edits a depth-clock wallpaper: pick a photo, place the clock and
// calendar, and render the result. The ui subcommand opens the editor window; the
// other subcommands drive the same state headlessly.
package main

import (
	"context"
	"fmt"
	"os"

	"depthclock/internal/config"
	"depthclock/internal/crash"
	applog "depthclock/internal/log"
	"depthclock/internal/telemetry"
)

func main() {
	// crash reports go next to the data even before a command has loaded the config
	cfg, _ := config.Load()
	dir, _ := cfg.ResolveDataDir()
	state := &cliState{}
	defer crash.Recover(crash.Guard{DataDir: dir, Flush: state.flush})

	err := newRootCmd(state).Execute()
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	telemetry.Default().Flush(ctx)
	telemetry.Default().Close()
	cancel()
	_ = applog.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
