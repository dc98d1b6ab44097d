// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the quill TUI.
//
// Colors are lipgloss.AdaptiveColor values that pick a light or dark
// variant based on the detected terminal background. Styles are shared
// between the composer and the chat panel so formatting reads the same
// everywhere.
package styles
