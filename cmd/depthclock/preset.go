/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"depthclock/internal/app"
	"depthclock/internal/config"
	"depthclock/internal/domain"
	"depthclock/internal/preset"
)

func newPresetCmd(s *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Share layouts as preset bundles (.zip)",
	}

	var name string
	var force bool
	exportCmd := &cobra.Command{
		Use:   "export <out.zip>",
		Short: "Write the current layout, colors and font to a bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := args[0]
			if !strings.HasSuffix(strings.ToLower(out), ".zip") {
				out += ".zip"
			}
			if exists(out) && !force {
				return fmt.Errorf("%s exists; pass --force to overwrite", out)
			}
			return s.withController(func(ctl *app.Controller) error {
				if !ctl.Snapshot().App.HasImage {
					return app.ErrNoPhoto
				}
				if err := ctl.ExportPreset(cmd.Context(), out, name); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Exported to", out)
				return nil
			})
		},
	}
	exportCmd.Flags().StringVar(&name, "name", "My layout", "Preset name")
	exportCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	importCmd := &cobra.Command{
		Use:   "import <bundle.zip>",
		Short: "Apply a preset bundle to the current photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := preset.Load(args[0])
			if err != nil {
				return err
			}
			return s.withController(func(ctl *app.Controller) error {
				if err := ctl.ApplyPreset(cmd.Context(), p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied preset %q\n", p.Name)
				return nil
			})
		},
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect <bundle.zip>",
		Short: "Validate a bundle and print its settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := preset.Load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:    %s\nCreated: %s\n", p.Name, p.Created)
			if len(p.FontData) > 0 {
				fmt.Fprintf(out, "Font:    %s (%d bytes)\n", p.Font, len(p.FontData))
			} else {
				fmt.Fprintln(out, "Font:    default")
			}
			st := stateViewOf(p.Apply(domain.Defaults()), "")
			return printYAML(out, struct {
				Clock           widgetView `yaml:"clock"`
				Calendar        widgetView `yaml:"calendar"`
				CalendarVisible bool       `yaml:"calendar_visible"`
				DepthEnabled    bool       `yaml:"depth_enabled"`
				Orientation     string     `yaml:"orientation"`
			}{st.Clock, st.Calendar, st.CalendarVisible, st.DepthEnabled, st.Orientation})
		},
	}

	cmd.AddCommand(exportCmd, importCmd, inspectCmd)
	return cmd
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the segmentation service token in the OS keychain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokenStatus(cmd)
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set",
			Short: "Read a token from stdin and store it",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				tok, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && err != io.EOF {
					return fmt.Errorf("read token: %w", err)
				}
				tok = strings.TrimSpace(tok)
				if tok == "" {
					return fmt.Errorf("token is required")
				}
				if err := config.SetSegmenterToken(tok); err != nil {
					return fmt.Errorf("save token: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Saved segmentation token to keychain.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Remove the stored token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.SetSegmenterToken(""); err != nil {
					return fmt.Errorf("delete token: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Deleted segmentation token from keychain.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether a token is stored",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTokenStatus(cmd)
			},
		},
	)
	return cmd
}

func runTokenStatus(cmd *cobra.Command) error {
	if config.SegmenterToken() != "" {
		fmt.Fprintln(cmd.OutOrStdout(), "Segmentation token: Found (source=Keychain)")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Segmentation token: Not Found")
	return nil
}

func newConfigCmd(s *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the user configuration",
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ConfigPath()
			if err != nil {
				return err
			}
			if exists(path) && !force {
				return fmt.Errorf("%s exists; pass --force to overwrite", path)
			}
			if err := config.SaveFile(path, config.Defaults()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if path, err := config.ConfigPath(); err == nil {
				fmt.Fprintf(out, "# %s\n", path)
			}
			for _, key := range []string{"general.data_dir", "general.storage", "segmentation.url", "imaging.target", "logging.level"} {
				if env, ok := config.EnvOverrideFor(key); ok {
					fmt.Fprintf(out, "# %s overridden by %s\n", key, env)
				}
			}
			return printYAML(out, s.cfg)
		},
	}
	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
