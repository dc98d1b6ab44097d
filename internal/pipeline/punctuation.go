// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/quill-tui/internal/doc"
)

// =============================================================================
// SMART PUNCTUATION SUPPRESSION
// =============================================================================

// asciiPunctuation maps typographic substitutions back to the literal
// source characters markdown and code need.
var asciiPunctuation = map[rune]string{
	'“': `"`,   // left double quote
	'”': `"`,   // right double quote
	'‘': "'",   // left single quote
	'’': "'",   // right single quote
	'–': "-",   // en dash
	'—': "--",  // em dash
	'…': "...", // ellipsis
	' ': " ",   // no-break space
}

// punctuationHandler undoes platform-level smart punctuation on input
// inside code contexts, where a curly quote or long dash would corrupt the
// source text. Input elsewhere keeps whatever the platform delivered.
type punctuationHandler struct{}

func (h *punctuationHandler) Name() string { return "punctuation-suppression" }

func (h *punctuationHandler) CanHandle(msg tea.KeyMsg, ctx *Context) bool {
	if msg.Type != tea.KeyRunes {
		return false
	}
	hasSmart := false
	for _, r := range msg.Runes {
		if _, ok := asciiPunctuation[r]; ok {
			hasSmart = true
			break
		}
	}
	if !hasSmart {
		return false
	}
	a := ctx.Doc.Resolve(ctx.Sel.Head)
	return a.Leaf.Type == doc.NodeCodeBlock || ctx.Doc.InCodeSpan(ctx.Sel.Head)
}

func (h *punctuationHandler) Handle(msg tea.KeyMsg, ctx *Context) (*Result, error) {
	var b strings.Builder
	for _, r := range msg.Runes {
		if repl, ok := asciiPunctuation[r]; ok {
			b.WriteString(repl)
		} else {
			b.WriteRune(r)
		}
	}
	tx, err := replaceSelection(ctx, b.String(), nil)
	if err != nil {
		return nil, err
	}
	return &Result{Tx: tx}, nil
}
