// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// keyMap holds the bindings the handler chain matches against. The chain
// never rebinds at runtime, so a single shared map is enough.
type keyMap struct {
	Enter      key.Binding
	ShiftEnter key.Binding
	CtrlEnter  key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Backspace  key.Binding
	Delete     key.Binding
	Left       key.Binding
	Right      key.Binding
	Down       key.Binding
	Escape     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send / new line"),
		),
		ShiftEnter: key.NewBinding(
			key.WithKeys("shift+enter", "ctrl+j"),
			key.WithHelp("S-Enter", "line break"),
		),
		CtrlEnter: key.NewBinding(
			key.WithKeys("ctrl+enter", "alt+enter"),
			key.WithHelp("C-Enter", "send"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "indent"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-Tab", "outdent"),
		),
		Backspace: key.NewBinding(
			key.WithKeys("backspace"),
			key.WithHelp("Bksp", "delete back"),
		),
		Delete: key.NewBinding(
			key.WithKeys("delete"),
			key.WithHelp("Del", "delete forward"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("Left", "move left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("Right", "move right"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("Down", "move down"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "leave block"),
		),
	}
}
