// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/morganforge/quill-tui/internal/util"
)

// =============================================================================
// CONFIGURATION MODEL
// =============================================================================

// Config holds the persisted user preferences for the composer.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Composer settings
	Composer ComposerConfig `toml:"composer" json:"composer"`

	// Draft storage settings
	Drafts DraftConfig `toml:"drafts" json:"drafts"`

	// UI settings
	UI UIConfig `toml:"ui" json:"ui"`
}

// ComposerConfig controls editing behavior.
type ComposerConfig struct {
	// EnterMode selects the send chord: "enter" or "ctrl+enter".
	EnterMode string `toml:"enter_mode" json:"enter_mode"`

	// TabWidth is the code block tab stop width in spaces.
	TabWidth int `toml:"tab_width" json:"tab_width"`

	// Placeholder is the hint shown in an empty composer.
	Placeholder string `toml:"placeholder" json:"placeholder"`
}

// DraftConfig controls draft persistence.
type DraftConfig struct {
	// DatabasePath overrides the default draft database location.
	DatabasePath string `toml:"database_path" json:"database_path"`

	// RetentionDays prunes drafts unchanged for this many days. 0 keeps
	// drafts forever.
	RetentionDays int `toml:"retention_days" json:"retention_days"`

	// DebounceMs delays draft writes after the last edit. 0 writes
	// synchronously on every change.
	DebounceMs int `toml:"debounce_ms" json:"debounce_ms"`
}

// UIConfig controls presentation.
type UIConfig struct {
	// Theme is the syntax highlighting style name.
	Theme string `toml:"theme" json:"theme"`

	// MaxComposerHeight caps the composer's height in rows.
	MaxComposerHeight int `toml:"max_composer_height" json:"max_composer_height"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		Composer: ComposerConfig{
			EnterMode:   "enter",
			TabWidth:    2,
			Placeholder: "Type a message...",
		},
		Drafts: DraftConfig{
			RetentionDays: 30,
			DebounceMs:    500,
		},
		UI: UIConfig{
			Theme:             "monokai",
			MaxComposerHeight: 10,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the quill configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".quill"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DraftDBPath returns the draft database location, honoring the override.
func (c *Config) DraftDBPath() (string, error) {
	if c.Drafts.DatabasePath != "" {
		return c.Drafts.DatabasePath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "drafts.db"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the config file, falling back to defaults when the file is
// absent or malformed. Preferences are conveniences; a broken file never
// blocks startup.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}
	if err := LoadFrom(cfg, path); err != nil && !os.IsNotExist(err) {
		return Default(), nil
	}
	cfg.fillDefaults()
	return cfg, nil
}

// LoadFrom merges the TOML file at path into cfg.
func LoadFrom(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Save writes the configuration to the default location.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the configuration as TOML to path. The write is atomic
// so a crash mid-save never leaves a truncated config.
func SaveTo(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# quill configuration file\n\n")

	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0o600)
}

// fillDefaults repairs missing or invalid fields after a partial load.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Composer.EnterMode != "enter" && c.Composer.EnterMode != "ctrl+enter" {
		c.Composer.EnterMode = def.Composer.EnterMode
	}
	if c.Composer.TabWidth <= 0 {
		c.Composer.TabWidth = def.Composer.TabWidth
	}
	if c.Composer.Placeholder == "" {
		c.Composer.Placeholder = def.Composer.Placeholder
	}
	if c.Drafts.RetentionDays < 0 {
		c.Drafts.RetentionDays = def.Drafts.RetentionDays
	}
	if c.Drafts.DebounceMs < 0 {
		c.Drafts.DebounceMs = def.Drafts.DebounceMs
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
	if c.UI.MaxComposerHeight <= 0 {
		c.UI.MaxComposerHeight = def.UI.MaxComposerHeight
	}
}

// CycleEnterMode flips the send chord preference and returns the new
// value's persisted form.
func (c *Config) CycleEnterMode() string {
	if c.Composer.EnterMode == "enter" {
		c.Composer.EnterMode = "ctrl+enter"
	} else {
		c.Composer.EnterMode = "enter"
	}
	return c.Composer.EnterMode
}
