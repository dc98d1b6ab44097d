// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for the quill application.
//
// # Key Functions
//
//   - AtomicWriteFile: Crash-safe file writes via temp file + rename
//   - TruncateRunes: Rune-safe string truncation with ellipsis
//   - TruncateWidth: Terminal-cell-aware truncation for rendering
package util
