// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipeline implements the composer's keystroke interception chain.
//
// Every key event is offered to an ordered list of independent handlers;
// the first handler that claims the event produces the outcome and stops
// the chain. Unclaimed events fall through to the editor surface's default
// behavior. Ordering is a correctness contract: send-on-enter must see
// Enter before generic newline insertion would, and code block handlers
// must see Enter before send-on-enter does.
package pipeline

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/quill-tui/internal/doc"
)

// =============================================================================
// ENTER MODE
// =============================================================================

// EnterMode selects which chord sends the message.
type EnterMode int

const (
	// EnterSends sends on plain Enter; newline needs Shift+Enter.
	EnterSends EnterMode = iota
	// CtrlEnterSends sends on Ctrl+Enter; plain Enter inserts a newline.
	CtrlEnterSends
)

// String returns the persisted form of the mode.
func (m EnterMode) String() string {
	if m == CtrlEnterSends {
		return "ctrl+enter"
	}
	return "enter"
}

// ParseEnterMode maps a persisted string back to a mode. Unknown values
// fall back to EnterSends.
func ParseEnterMode(s string) EnterMode {
	if s == "ctrl+enter" {
		return CtrlEnterSends
	}
	return EnterSends
}

// =============================================================================
// DISPATCH TYPES
// =============================================================================

// Context is the editor state a handler evaluates against.
type Context struct {
	Doc      *doc.Document
	Sel      doc.Selection
	Mode     EnterMode
	TabWidth int
}

// Result is a claimed event's outcome. A nil Tx means the event was
// swallowed without an edit (the claim still suppresses default behavior).
type Result struct {
	Tx             *doc.Transaction
	Send           bool
	TogglePlan     bool
	ScrollIntoView bool
}

// Handler is one link of the chain. CanHandle must be side-effect free;
// Handle runs only after CanHandle reports true for the same event.
type Handler interface {
	Name() string
	CanHandle(msg tea.KeyMsg, ctx *Context) bool
	Handle(msg tea.KeyMsg, ctx *Context) (*Result, error)
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline evaluates handlers in priority order, first claim wins.
type Pipeline struct {
	keys     keyMap
	handlers []Handler
}

// New builds the standard chain.
func New() *Pipeline {
	km := defaultKeyMap()
	p := &Pipeline{keys: km}
	p.handlers = []Handler{
		&sendHandler{keys: km},
		&listEnterHandler{keys: km},
		&tabHandler{keys: km},
		&codeBlockBackspaceHandler{keys: km},
		&codeBlockKeysHandler{keys: km},
		&codeSpanArrowHandler{keys: km},
		&codeSpanBackspaceHandler{keys: km},
		&listDeleteHandler{keys: km},
		&blockquoteBackspaceHandler{keys: km},
		&markdownShortcutHandler{},
		&punctuationHandler{},
		&wrapHandler{},
	}
	return p
}

// Handlers returns the chain in evaluation order.
func (p *Pipeline) Handlers() []Handler {
	return p.handlers
}

// Dispatch offers the event to the chain. A nil result with a nil error
// means no handler claimed it and default behavior should run. A handler
// error rejects the event outright: the claim stands but nothing changes.
func (p *Pipeline) Dispatch(msg tea.KeyMsg, ctx *Context) (*Result, error) {
	for _, h := range p.handlers {
		if !h.CanHandle(msg, ctx) {
			continue
		}
		res, err := h.Handle(msg, ctx)
		if err != nil {
			return &Result{}, nil // claimed, edit rejected
		}
		return res, nil
	}
	return nil, nil
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// replaceSelection deletes a range selection and inserts text at the
// collapse point, as one composed transaction.
func replaceSelection(ctx *Context, text string, marks []doc.Mark) (*doc.Transaction, error) {
	d, sel := ctx.Doc, ctx.Sel
	if !sel.IsCaret() {
		tx, err := doc.Apply(d, sel, doc.DeleteRange{From: sel.From(), To: sel.To()})
		if err != nil {
			return nil, err
		}
		d, sel = tx.Doc, tx.Sel
	}
	return doc.Apply(d, sel, doc.InsertText{Pos: sel.Head, Text: text, Marks: marks})
}

// firstLeaf returns the first leaf block under n (n itself when a leaf).
func firstLeaf(n *doc.Node) *doc.Node {
	if n.Type.IsLeaf() {
		return n
	}
	for _, ch := range n.Children {
		if l := firstLeaf(ch); l != nil {
			return l
		}
	}
	return nil
}
