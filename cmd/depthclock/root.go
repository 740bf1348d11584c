/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"depthclock/internal/app"
	"depthclock/internal/config"
	applog "depthclock/internal/log"
	"depthclock/internal/telemetry"
	"depthclock/internal/version"
)

const flushTimeout = 5 * time.Second

// cliState is shared by the subcommands of one invocation.
type cliState struct {
	cfg     config.AppConfig
	dataDir string
	storage string
	level   string
	now     func() time.Time

	mu  sync.Mutex
	ctl *app.Controller
}

// flush drains pending writes of the open controller, if any.
func (s *cliState) flush(ctx context.Context) error {
	s.mu.Lock()
	ctl := s.ctl
	s.mu.Unlock()
	if ctl == nil {
		return nil
	}
	return ctl.Flush(ctx)
}

// open loads the persisted state. Results of background photo work are applied
// inline since the CLI has no event loop.
func (s *cliState) open() (*app.Controller, error) {
	ctl, err := app.Open(s.cfg, app.Setup{Now: s.now})
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.ctl = ctl
	s.mu.Unlock()
	return ctl, nil
}

// close waits for background work and pending writes.
func (s *cliState) close() error {
	s.mu.Lock()
	ctl := s.ctl
	s.ctl = nil
	s.mu.Unlock()
	if ctl == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	return ctl.Close(ctx)
}

// withController opens the controller, runs fn and closes it again.
func (s *cliState) withController(fn func(ctl *app.Controller) error) error {
	ctl, err := s.open()
	if err != nil {
		return err
	}
	return errors.Join(fn(ctl), s.close())
}

func newRootCmd(s *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "depthclock",
		Short:         "Depth clock wallpaper editor",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.load(cmd)
		},
	}
	cmd.Version = version.String()
	cmd.SetVersionTemplate("{{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&s.dataDir, "data-dir", "", "Directory for preferences, cached images and fonts")
	pf.StringVar(&s.storage, "storage", "", "Preferences backend: sqlite, memory or fyne (ui only)")
	pf.StringVar(&s.level, "log-level", "", "Log level: debug, info, warn or error")

	cmd.AddCommand(
		newUICmd(s),
		newImportCmd(s),
		newRenderCmd(s),
		newShowCmd(s),
		newSetCmd(s),
		newFontCmd(s),
		newPresetCmd(s),
		newResetCmd(s),
		newTokenCmd(),
		newConfigCmd(s),
		newVersionCmd(),
	)
	return cmd
}

// load reads the configuration and applies the global flags on top of it.
func (s *cliState) load(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", err)
	}
	if s.dataDir != "" {
		cfg.General.DataDir = s.dataDir
	}
	if s.storage != "" {
		cfg.General.Storage = strings.ToLower(s.storage)
	}
	if s.level != "" {
		cfg.Logging.Level = s.level
	}
	s.cfg = cfg

	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
		Console:   cmd.ErrOrStderr(),
	})
	telemetry.SetDefault(telemetry.New(telemetry.FromEnv()))
	applog.WithComponent("cli").Debug("start", slog.String("command", cmd.CommandPath()),
		slog.Int("flags", changedFlags(cmd)))
	return nil
}

func changedFlags(cmd *cobra.Command) int {
	n := 0
	cmd.Flags().Visit(func(*pflag.Flag) { n++ })
	return n
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "Depth Clock")
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return nil
		},
	}
}

// exists reports whether path can be stat'ed.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
