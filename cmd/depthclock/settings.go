/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"depthclock/internal/app"
	"depthclock/internal/domain"
	"depthclock/internal/state"
)

// widgetView is the printed form of a widget transform.
type widgetView struct {
	Color        string  `yaml:"color" json:"color"`
	OffsetX      float32 `yaml:"offset_x" json:"offsetX"`
	OffsetY      float32 `yaml:"offset_y" json:"offsetY"`
	ScaleX       float32 `yaml:"scale_x" json:"scaleX"`
	ScaleY       float32 `yaml:"scale_y" json:"scaleY"`
	AlphaEnabled bool    `yaml:"alpha_enabled" json:"alphaEnabled"`
	Alpha        float32 `yaml:"alpha" json:"alpha"`
}

// stateView is the printed form of the persisted state.
type stateView struct {
	HasImage        bool       `yaml:"has_image" json:"hasImage"`
	Background      bool       `yaml:"background_cached" json:"backgroundCached"`
	Foreground      bool       `yaml:"cutout_cached" json:"cutoutCached"`
	Accent          string     `yaml:"accent" json:"accent"`
	DepthEnabled    bool       `yaml:"depth_enabled" json:"depthEnabled"`
	CalendarVisible bool       `yaml:"calendar_visible" json:"calendarVisible"`
	Orientation     string     `yaml:"orientation" json:"orientation"`
	Font            string     `yaml:"font" json:"font"`
	Clock           widgetView `yaml:"clock" json:"clock"`
	Calendar        widgetView `yaml:"calendar" json:"calendar"`
	DataDir         string     `yaml:"data_dir" json:"dataDir"`
}

func viewOf(t domain.WidgetTransform) widgetView {
	return widgetView{
		Color: t.Color.Hex(), OffsetX: t.Offset.X, OffsetY: t.Offset.Y,
		ScaleX: t.ScaleX, ScaleY: t.ScaleY, AlphaEnabled: t.AlphaEnabled, Alpha: t.Alpha,
	}
}

func stateViewOf(a domain.AppState, dataDir string) stateView {
	font := a.CustomFontPath
	if font == "" {
		font = "default"
	}
	return stateView{
		HasImage: a.HasImage, Background: a.BackgroundPresent, Foreground: a.ForegroundPresent,
		Accent: a.AccentColor.Hex(), DepthEnabled: a.DepthEnabled, CalendarVisible: a.CalendarVisible,
		Orientation: a.Orientation.String(), Font: font,
		Clock: viewOf(a.Clock), Calendar: viewOf(a.Calendar), DataDir: dataDir,
	}
}

func newShowCmd(s *cliState) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the saved wallpaper settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withController(func(ctl *app.Controller) error {
				v := stateViewOf(ctl.Snapshot().App, ctl.Store().Dir())
				switch strings.ToLower(format) {
				case "json":
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(v)
				case "yaml", "":
					enc := yaml.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent(2)
					if err := enc.Encode(v); err != nil {
						return err
					}
					return enc.Close()
				}
				return fmt.Errorf("unknown format %q (yaml or json)", format)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml or json")
	return cmd
}

// widgetFlags are the settable fields of one widget. Only flags given on the command
// line are applied.
type widgetFlags struct {
	color        string
	offsetX      float32
	offsetY      float32
	scaleX       float32
	scaleY       float32
	alpha        float32
	alphaEnabled bool
}

func (f *widgetFlags) register(fs *pflag.FlagSet, uniform bool) {
	fs.StringVar(&f.color, "color", "", "Color: #RRGGBB, #AARRGGBB, white, black or auto (photo accent)")
	fs.Float32Var(&f.offsetX, "offset-x", 0, "Horizontal offset from the screen center in pixels")
	fs.Float32Var(&f.offsetY, "offset-y", 0, "Vertical offset from the screen center in pixels")
	if uniform {
		fs.Float32Var(&f.scaleX, "scale", 1, "Scale factor")
	} else {
		fs.Float32Var(&f.scaleX, "scale-x", 1, "Horizontal scale factor")
		fs.Float32Var(&f.scaleY, "scale-y", 1, "Vertical scale factor")
	}
	fs.Float32Var(&f.alpha, "alpha", 0.5, "Opacity used when transparency is enabled, 0..1")
	fs.BoolVar(&f.alphaEnabled, "alpha-enabled", false, "Draw with the --alpha opacity")
}

// parseColor accepts the quick pick "auto" on top of domain.ParseColor.
func parseColor(s string, accent domain.Color) (domain.Color, error) {
	if strings.EqualFold(strings.TrimSpace(s), "auto") {
		return accent, nil
	}
	return domain.ParseColor(s)
}

// apply edits e the way the editor does. Color and transparency go through the
// settings actions; placement opens an editing session that the final tap commits.
func (f *widgetFlags) apply(ctl *app.Controller, e domain.Entity, fs *pflag.FlagSet) error {
	if err := needPhoto(ctl); err != nil {
		return err
	}
	changed := fs.Changed
	if changed("color") {
		c, err := parseColor(f.color, ctl.Snapshot().App.AccentColor)
		if err != nil {
			return err
		}
		ctl.Dispatch(state.SetColor{Entity: e, Color: c})
	}
	if changed("alpha-enabled") {
		ctl.Dispatch(state.SetAlphaEnabled{Entity: e, Enabled: f.alphaEnabled})
	}
	if changed("alpha") {
		if f.alpha < 0 || f.alpha > 1 {
			return fmt.Errorf("--alpha must be within 0..1, got %v", f.alpha)
		}
		ctl.Dispatch(state.SetAlpha{Entity: e, Alpha: f.alpha})
	}

	placement := changed("offset-x") || changed("offset-y") || changed("scale") || changed("scale-x") || changed("scale-y")
	if placement {
		if e == domain.EntityClock {
			ctl.Dispatch(state.LongPressClock{})
		} else {
			ctl.Dispatch(state.LongPressCalendar{})
		}
		if m, _ := ctl.Snapshot().Mode.Entity(); !ctl.Snapshot().Editing() || m != e {
			return fmt.Errorf("%s cannot be edited now (is it hidden?)", e)
		}
		t := ctl.Snapshot().App.Widget(e)
		if changed("offset-x") {
			t.Offset.X = f.offsetX
		}
		if changed("offset-y") {
			t.Offset.Y = f.offsetY
		}
		if changed("scale") {
			t.ScaleX, t.ScaleY = f.scaleX, f.scaleX
		}
		if changed("scale-x") {
			t.ScaleX = f.scaleX
		}
		if changed("scale-y") {
			t.ScaleY = f.scaleY
		}
		ctl.Dispatch(state.ApplyTransform{Entity: e, Transform: t})
		ctl.Tap()
		return nil
	}
	ctl.Commit()
	return nil
}

func newSetCmd(s *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change wallpaper settings",
	}

	var clock widgetFlags
	clockCmd := &cobra.Command{
		Use:   "clock",
		Short: "Color, placement and transparency of the clock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withController(func(ctl *app.Controller) error {
				return clock.apply(ctl, domain.EntityClock, cmd.Flags())
			})
		},
	}
	clock.register(clockCmd.Flags(), false)

	var cal widgetFlags
	var visible bool
	calCmd := &cobra.Command{
		Use:   "calendar",
		Short: "Color, placement, transparency and visibility of the calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withController(func(ctl *app.Controller) error {
				if err := needPhoto(ctl); err != nil {
					return err
				}
				if cmd.Flags().Changed("visible") {
					ctl.Dispatch(state.SetCalendarVisible{Visible: visible})
					ctl.Commit()
				}
				return cal.apply(ctl, domain.EntityCalendar, cmd.Flags())
			})
		},
	}
	cal.register(calCmd.Flags(), true)
	calCmd.Flags().BoolVar(&visible, "visible", true, "Show the calendar")

	depthCmd := &cobra.Command{
		Use:       "depth <on|off>",
		Short:     "Draw the subject cutout above the clock and calendar",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := parseSwitch(args[0])
			if err != nil {
				return err
			}
			return s.withController(func(ctl *app.Controller) error {
				if err := needPhoto(ctl); err != nil {
					return err
				}
				ctl.Dispatch(state.SetDepthEnabled{Enabled: on})
				ctl.Commit()
				return nil
			})
		},
	}

	orientationCmd := &cobra.Command{
		Use:       "orientation <auto|portrait|landscape>",
		Short:     "Lock the wallpaper orientation; resets the widget offsets",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"auto", "portrait", "landscape"},
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := domain.ParseOrientation(args[0])
			if err != nil {
				return err
			}
			return s.withController(func(ctl *app.Controller) error {
				if err := needPhoto(ctl); err != nil {
					return err
				}
				ctl.Dispatch(state.SetOrientation{Orientation: o})
				ctl.Commit()
				return nil
			})
		},
	}

	cmd.AddCommand(clockCmd, calCmd, depthCmd, orientationCmd)
	return cmd
}

// needPhoto refuses edits before a photo is imported; the reducer would ignore them.
func needPhoto(ctl *app.Controller) error {
	if !ctl.Snapshot().App.HasImage {
		return app.ErrNoPhoto
	}
	return nil
}

var errSwitch = errors.New("expected on or off")

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("%q: %w", s, errSwitch)
}
