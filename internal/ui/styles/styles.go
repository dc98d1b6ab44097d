// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// INLINE MARK STYLES
// =============================================================================

var (
	Text       = lipgloss.NewStyle().Foreground(TextPrimary)
	Bold       = lipgloss.NewStyle().Bold(true)
	Italic     = lipgloss.NewStyle().Italic(true)
	Strike     = lipgloss.NewStyle().Strikethrough(true)
	InlineCode = lipgloss.NewStyle().Foreground(Rose).Background(CodeBg)
	Link       = lipgloss.NewStyle().Foreground(Blue).Underline(true)
)

// =============================================================================
// BLOCK STYLES
// =============================================================================

var (
	Heading     = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	Marker      = lipgloss.NewStyle().Foreground(TextSecondary)
	QuoteBar    = lipgloss.NewStyle().Foreground(Overlay)
	CodeFence   = lipgloss.NewStyle().Foreground(Overlay)
	Rule        = lipgloss.NewStyle().Foreground(Overlay)
	Placeholder = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
	Cursor      = lipgloss.NewStyle().Reverse(true)
)

// =============================================================================
// PANEL STYLES
// =============================================================================

var (
	RoleUser  = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	RoleAgent = lipgloss.NewStyle().Bold(true).Foreground(Emerald)
	RoleTool  = lipgloss.NewStyle().Bold(true).Foreground(TextSecondary)
	Approval  = lipgloss.NewStyle().Bold(true).Foreground(Amber)
	Plan      = lipgloss.NewStyle().Bold(true).Foreground(Amber)
	StatusBar = lipgloss.NewStyle().Foreground(TextSecondary)

	ComposerBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Overlay).
			Padding(0, 1)
	ComposerBoxFocused = ComposerBox.
				BorderForeground(Cyan)
)
