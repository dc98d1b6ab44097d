// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/quill-tui/internal/command"
	"github.com/morganforge/quill-tui/internal/doc"
)

// =============================================================================
// SELECTION WRAP
// =============================================================================

// wrapPairs are the delimiters that enclose a selection instead of
// replacing it.
var wrapPairs = map[rune]string{
	'(':  ")",
	'[':  "]",
	'{':  "}",
	'"':  `"`,
	'\'': "'",
}

// wrapMarks are the delimiters that toggle a mark over the selection.
var wrapMarks = map[rune]doc.MarkType{
	'`': doc.MarkCode,
	'*': doc.MarkBold,
	'_': doc.MarkItalic,
	'~': doc.MarkStrike,
}

// wrapHandler intercepts delimiter keys while a range is selected: bracket
// characters wrap the selection in the matching pair, markdown delimiter
// characters toggle the matching mark. Inside a code block the handler
// stays out of the way, so the key replaces the selection literally.
type wrapHandler struct{}

func (h *wrapHandler) Name() string { return "selection-wrap" }

func (h *wrapHandler) CanHandle(msg tea.KeyMsg, ctx *Context) bool {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 || ctx.Sel.IsCaret() {
		return false
	}
	r := msg.Runes[0]
	if _, pair := wrapPairs[r]; !pair {
		if _, mark := wrapMarks[r]; !mark {
			return false
		}
	}
	a := ctx.Doc.Resolve(ctx.Sel.Head)
	return a.Leaf.Type != doc.NodeCodeBlock
}

func (h *wrapHandler) Handle(msg tea.KeyMsg, ctx *Context) (*Result, error) {
	r := msg.Runes[0]

	if mt, ok := wrapMarks[r]; ok {
		tx, err := command.ToggleMark(ctx.Doc, ctx.Sel, doc.Mark{Type: mt})
		if err != nil {
			return nil, err
		}
		return &Result{Tx: tx}, nil
	}

	open, closing := string(r), wrapPairs[r]
	from, to := ctx.Sel.From(), ctx.Sel.To()

	// Closing delimiter first so the opening insert does not shift it.
	tx, err := doc.Apply(ctx.Doc, ctx.Sel, doc.InsertText{Pos: to, Text: closing})
	if err != nil {
		return nil, err
	}
	tx, err = doc.Apply(tx.Doc, tx.Sel, doc.InsertText{Pos: from, Text: open})
	if err != nil {
		return nil, err
	}
	tx.Sel = doc.Selection{Anchor: from + 1, Head: to + 1}
	return &Result{Tx: tx}, nil
}
