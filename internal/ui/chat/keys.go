// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// keyMap holds the panel-level chords. Everything else goes to the
// composer.
type keyMap struct {
	Quit        key.Binding
	NewConv     key.Binding
	NextConv    key.Binding
	DiscardConv key.Binding
	CycleEnter  key.Binding
	ScrollUp    key.Binding
	ScrollDown  key.Binding
	FocusEditor key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
		NewConv: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new conversation"),
		),
		NextConv: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "next conversation"),
		),
		DiscardConv: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "discard conversation"),
		),
		CycleEnter: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "toggle enter mode"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		FocusEditor: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "focus composer"),
		),
	}
}
