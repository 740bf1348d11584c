/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type GeneralConfig struct {
	// DataDir holds the preferences database, cached bitmaps and the imported font.
	// Empty means the platform default next to the config file.
	DataDir string `yaml:"data_dir"`
	// Storage selects the key-value backend: "sqlite", "memory" or "fyne" (UI only; the CLI treats it as sqlite).
	Storage string `yaml:"storage"`
}

type ImagingConfig struct {
	TargetWidth  int `yaml:"target_width"`
	TargetHeight int `yaml:"target_height"`
	// MaxPixels rejects photos with a larger width*height before they are decoded.
	MaxPixels int `yaml:"max_pixels"`
}

type GestureConfig struct {
	// TapSlop is the travel in pixels below which a gesture still counts as a tap.
	TapSlop float32 `yaml:"tap_slop"`
}

type SegmentationConfig struct {
	// URL of the subject segmentation service. Empty disables segmentation.
	URL         string `yaml:"url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int                `yaml:"config_version"`
	General       GeneralConfig      `yaml:"general"`
	Imaging       ImagingConfig      `yaml:"imaging"`
	Gesture       GestureConfig      `yaml:"gesture"`
	Segmentation  SegmentationConfig `yaml:"segmentation"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Storage: "sqlite"},
		Imaging:       ImagingConfig{TargetWidth: 1080, TargetHeight: 1920, MaxPixels: 50_000_000},
		Gesture:       GestureConfig{TapSlop: 10},
		Segmentation:  SegmentationConfig{TimeoutMs: 20000},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvDataDir          = "DEPTHCLOCK_DATA_DIR"
	EnvStorage          = "DEPTHCLOCK_STORAGE"
	EnvSegmenterURL     = "DEPTHCLOCK_SEGMENTER_URL"
	EnvSegmenterTimeout = "DEPTHCLOCK_SEGMENTER_TIMEOUT_MS"
	EnvSegmenterTLSInsc = "DEPTHCLOCK_SEGMENTER_TLS_INSECURE"
	EnvTargetSize       = "DEPTHCLOCK_TARGET_SIZE" // WxH, e.g. 1080x1920
	// EnvLogLevel Logging envs
	EnvLogLevel  = "DEPTHCLOCK_LOG_LEVEL"
	EnvLogFormat = "DEPTHCLOCK_LOG_FORMAT"
	EnvLogSource = "DEPTHCLOCK_LOG_SOURCE"
	EnvLogFile   = "DEPTHCLOCK_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "DepthClock"
	keyringToken   = "segmenter_token"
)

// tokenStore abstracts keyring, so we can stub in tests.
var tokenStore TokenStore = osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// SetTokenStore swaps the keyring backend and returns the previous one.
func SetTokenStore(ts TokenStore) TokenStore {
	prev := tokenStore
	tokenStore = ts
	return prev
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// SegmenterToken returns the stored service token, or "" when none is stored or the
// keychain is unavailable.
func SegmenterToken() string {
	tok, err := tokenStore.Get(keyringService, keyringToken)
	if err != nil {
		return ""
	}
	return tok
}

// SetSegmenterToken stores tok; an empty token removes the entry.
func SetSegmenterToken(tok string) error {
	if tok == "" {
		err := tokenStore.Delete(keyringService, keyringToken)
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return err
	}
	return tokenStore.Set(keyringService, keyringToken, tok)
}

func baseDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "DepthClock")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "DepthClock")
	default: // linux and others
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "depthclock")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "depthclock")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	base, err := baseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.yaml"), nil
}

// ResolveDataDir returns the configured data directory or the platform default.
func (c AppConfig) ResolveDataDir() (string, error) {
	if d := strings.TrimSpace(c.General.DataDir); d != "" {
		return d, nil
	}
	base, err := baseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "data"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// A malformed file is reported but the defaults (plus env) are still returned.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit path.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	var ferr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			ferr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		ferr = fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return cfg, ferr
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile is Save for an explicit path.
func SaveFile(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if v := strings.TrimSpace(src.General.DataDir); v != "" {
		dst.General.DataDir = v
	}
	if v := strings.ToLower(strings.TrimSpace(src.General.Storage)); v != "" {
		dst.General.Storage = v
	}
	if src.Imaging.TargetWidth > 0 && src.Imaging.TargetHeight > 0 {
		dst.Imaging.TargetWidth, dst.Imaging.TargetHeight = src.Imaging.TargetWidth, src.Imaging.TargetHeight
	}
	if src.Imaging.MaxPixels > 0 {
		dst.Imaging.MaxPixels = src.Imaging.MaxPixels
	}
	if src.Gesture.TapSlop > 0 {
		dst.Gesture.TapSlop = src.Gesture.TapSlop
	}
	if v := strings.TrimSpace(src.Segmentation.URL); v != "" {
		dst.Segmentation.URL = v
	}
	if src.Segmentation.TimeoutMs != 0 {
		dst.Segmentation.TimeoutMs = src.Segmentation.TimeoutMs
	}
	dst.Segmentation.TLSInsecure = src.Segmentation.TLSInsecure
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.General.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorage)); v != "" {
		cfg.General.Storage = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvSegmenterURL)); v != "" {
		cfg.Segmentation.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSegmenterTimeout)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Segmentation.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSegmenterTLSInsc)); v != "" {
		cfg.Segmentation.TLSInsecure = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTargetSize)); v != "" {
		if w, h, ok := parseSize(v); ok {
			cfg.Imaging.TargetWidth, cfg.Imaging.TargetHeight = w, h
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func parseSize(v string) (int, int, bool) {
	ws, hs, ok := strings.Cut(strings.ToLower(v), "x")
	if !ok {
		return 0, 0, false
	}
	w, err1 := strconv.Atoi(strings.TrimSpace(ws))
	h, err2 := strconv.Atoi(strings.TrimSpace(hs))
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	names := map[string]string{
		"general.data_dir":          EnvDataDir,
		"general.storage":           EnvStorage,
		"segmentation.url":          EnvSegmenterURL,
		"segmentation.timeout_ms":   EnvSegmenterTimeout,
		"segmentation.tls_insecure": EnvSegmenterTLSInsc,
		"imaging.target":            EnvTargetSize,
		"logging.level":             EnvLogLevel,
		"logging.format":            EnvLogFormat,
		"logging.source":            EnvLogSource,
		"logging.file":              EnvLogFile,
	}
	if env, ok := names[key]; ok && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// Timeout returns the request timeout for the segmentation service.
func (s SegmentationConfig) Timeout() time.Duration {
	if s.TimeoutMs <= 0 {
		return time.Duration(Defaults().Segmentation.TimeoutMs) * time.Millisecond
	}
	return time.Duration(s.TimeoutMs) * time.Millisecond
}
