// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for quill.
//
// Configuration lives in ~/.quill/config.toml with sensible defaults. A
// missing or malformed file never blocks startup; affected values fall
// back to their defaults.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ComposerConfig: Editing behavior (send chord, tab width, placeholder)
//   - DraftConfig: Draft persistence (database path, retention)
//   - UIConfig: Presentation (theme, composer height)
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	mode := cfg.Composer.EnterMode
//	width := cfg.Composer.TabWidth
package config
