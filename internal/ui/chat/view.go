// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/quill-tui/internal/ui/styles"
	"github.com/morganforge/quill-tui/internal/util"
)

// statusBarHeight is the fixed row count of the bottom status line.
const statusBarHeight = 1

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderComposer())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m *Model) renderComposer() string {
	style := styles.ComposerBox
	if m.composer.Focused() {
		style = styles.ComposerBoxFocused
	}
	return style.Width(m.width - 2).Render(m.composer.View())
}

// composerBoxHeight is the composer's rendered height plus its border.
func (m *Model) composerBoxHeight() int {
	return lipgloss.Height(m.renderComposer())
}

func (m *Model) renderStatusBar() string {
	parts := []string{
		util.TruncateWidth(m.conversationLabel(), 40),
		m.EnterModeLabel(),
	}
	if m.planMode {
		parts = append(parts, styles.Plan.Render("PLAN"))
	}
	if m.conversation().Approval != nil {
		parts = append(parts, styles.Approval.Render("awaiting approval reply"))
	}
	return styles.StatusBar.Render(strings.Join(parts, "  ·  "))
}

func (m *Model) conversationLabel() string {
	conv := m.conversation()
	if conv.Title != "" {
		return conv.Title
	}
	return "new conversation"
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshTranscript re-renders every message into the viewport. Messages
// are markdown rendered through glamour; render failures fall back to the
// raw text.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}

	var b strings.Builder
	conv := m.conversation()
	for _, msg := range conv.Messages {
		b.WriteString(m.roleStyle(msg.Role.String()).Render(msg.Role.DisplayName()))
		b.WriteString("\n")
		b.WriteString(m.renderMarkdown(msg.Content))
		b.WriteString("\n")
	}
	if conv.Approval != nil {
		b.WriteString(styles.Approval.Render("⚠ " + conv.Approval.Prompt))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
}

func (m *Model) roleStyle(role string) lipgloss.Style {
	switch role {
	case "user":
		return styles.RoleUser
	case "agent":
		return styles.RoleAgent
	default:
		return styles.RoleTool
	}
}

func (m *Model) renderMarkdown(md string) string {
	if m.renderer == nil {
		return md
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n") + "\n"
}
