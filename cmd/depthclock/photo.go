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
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"depthclock/internal/app"
	"depthclock/internal/frame"
	"depthclock/internal/state"
	"depthclock/internal/ui"
	"depthclock/internal/vector"
)

func newUICmd(s *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the editor window (build with -tags fyne)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := ui.Run(s.cfg)
			if errors.Is(err, ui.ErrNoUI) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Hint: `depthclock render -o wallpaper.png` previews the wallpaper without a window.")
			}
			return err
		},
	}
}

func newImportCmd(s *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "import <photo>",
		Short: "Use a photo as the wallpaper background",
		Long: "Decodes the photo, picks its accent color for the clock and calendar and asks the\n" +
			"segmentation service for a subject cutout. The layout is reset to the defaults.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			return s.withController(func(ctl *app.Controller) error {
				ctl.SelectPhoto(path)
				if err := ctl.Wait(cmd.Context()); err != nil {
					return err
				}
				snap := ctl.Snapshot()
				if !snap.App.HasImage || snap.Warning == state.WarnPhotoUnreadable {
					return fmt.Errorf("%s: %s", args[0], state.WarnPhotoUnreadable)
				}
				out := cmd.OutOrStdout()
				b := snap.Background.Bounds()
				fmt.Fprintf(out, "Background: %dx%d\n", b.Dx(), b.Dy())
				fmt.Fprintf(out, "Accent:     %s\n", snap.App.AccentColor.Hex())
				if snap.Foreground != nil {
					fmt.Fprintln(out, "Cutout:     yes")
				} else {
					fmt.Fprintln(out, "Cutout:     no")
				}
				if snap.Warning != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", snap.Warning)
				}
				return nil
			})
		},
	}
}

type renderOptions struct {
	out    string
	width  int
	height int
	at     string
}

func newRenderCmd(s *cliState) *cobra.Command {
	opts := renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the wallpaper to a PNG file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, s, &opts)
		},
	}
	cmd.Flags().StringVarP(&opts.out, "out", "o", "wallpaper.png", "Output PNG path")
	cmd.Flags().IntVar(&opts.width, "width", 0, "Screen width in pixels (default: imaging target)")
	cmd.Flags().IntVar(&opts.height, "height", 0, "Screen height in pixels (default: imaging target)")
	cmd.Flags().StringVar(&opts.at, "at", "", "Time shown by the clock, RFC 3339 (default: now)")
	return cmd
}

func runRender(cmd *cobra.Command, s *cliState, opts *renderOptions) error {
	if opts.at != "" {
		at, err := time.Parse(time.RFC3339, opts.at)
		if err != nil {
			return fmt.Errorf("--at: %w", err)
		}
		s.now = func() time.Time { return at }
	}
	return s.withController(func(ctl *app.Controller) error {
		w, h := opts.width, opts.height
		if w <= 0 || h <= 0 {
			w, h = s.cfg.Imaging.TargetWidth, s.cfg.Imaging.TargetHeight
		}
		snap := ctl.Snapshot()
		ctl.Resize(frame.Oriented(vector.Size{W: float32(w), H: float32(h)}, snap.App.Orientation))
		img := ctl.Render()

		f, err := os.Create(opts.out)
		if err != nil {
			return err
		}
		bw := bufio.NewWriter(f)
		if err := png.Encode(bw, img); err != nil {
			_ = f.Close()
			return fmt.Errorf("encode png: %w", err)
		}
		if err := bw.Flush(); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		b := img.Bounds()
		fmt.Fprintf(cmd.OutOrStdout(), "Rendered %dx%d to %s\n", b.Dx(), b.Dy(), opts.out)
		if !snap.App.HasImage {
			fmt.Fprintln(cmd.ErrOrStderr(), "Warning: no photo imported yet; rendered the prompt only.")
		}
		return nil
	})
}

func newResetCmd(s *cliState) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget the photo and every setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("this deletes the photo, the cutout, the imported font and every setting; pass --yes to confirm")
			}
			return s.withController(func(ctl *app.Controller) error {
				ctl.Reset()
				fmt.Fprintln(cmd.OutOrStdout(), "Reset to defaults.")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}

func newFontCmd(s *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "font",
		Short: "Manage the custom clock and calendar font",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "import <file.ttf|file.otf>",
			Short: "Import a TrueType or OpenType font",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return s.withController(func(ctl *app.Controller) error {
					if err := ctl.ImportFont(cmd.Context(), args[0]); err != nil {
						return err
					}
					ctl.Commit()
					fmt.Fprintln(cmd.OutOrStdout(), "Font:", ctl.Snapshot().App.CustomFontPath)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Return to the bundled font",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return s.withController(func(ctl *app.Controller) error {
					ctl.ResetFont()
					ctl.Commit()
					fmt.Fprintln(cmd.OutOrStdout(), "Font: default")
					return nil
				})
			},
		},
	)
	return cmd
}
