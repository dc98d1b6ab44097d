// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/quill-tui/internal/doc"
)

// =============================================================================
// MARKDOWN SHORTCUTS
// =============================================================================

// shortcut is a recognized block prefix and the conversion it triggers.
type shortcut struct {
	wrap doc.NodeType // NodeList or NodeBlockquote
	kind doc.ListKind
	code bool
	lang string
}

// markdownShortcutHandler converts a paragraph when a markdown prefix is
// completed with a space: "- " opens a bullet list, "1. " an ordered
// list, "> " a blockquote, and "```lang" a code block. The prefix is
// consumed; the space is not inserted.
type markdownShortcutHandler struct{}

func (h *markdownShortcutHandler) Name() string { return "markdown-shortcut" }

func (h *markdownShortcutHandler) CanHandle(msg tea.KeyMsg, ctx *Context) bool {
	if !isSpaceKey(msg) || !ctx.Sel.IsCaret() {
		return false
	}
	a := ctx.Doc.Resolve(ctx.Sel.Head)
	if a.Leaf.Type != doc.NodeParagraph || a.ListItem() != nil {
		return false
	}
	_, ok := shortcutFor(leafPrefix(a))
	return ok
}

func (h *markdownShortcutHandler) Handle(msg tea.KeyMsg, ctx *Context) (*Result, error) {
	head := ctx.Sel.Head
	a := ctx.Doc.Resolve(head)
	start := head - a.Offset
	sc, ok := shortcutFor(leafPrefix(a))
	if !ok {
		return nil, nil
	}

	tx, err := doc.Apply(ctx.Doc, ctx.Sel, doc.DeleteRange{From: start, To: head})
	if err != nil {
		return nil, err
	}
	switch {
	case sc.code:
		tx, err = doc.Apply(tx.Doc, tx.Sel, doc.SetType{Pos: start, Type: doc.NodeCodeBlock, Language: sc.lang})
	case sc.wrap == doc.NodeList:
		tx, err = doc.Apply(tx.Doc, tx.Sel, doc.WrapRange{From: start, To: start, Type: doc.NodeList, Kind: sc.kind})
	default:
		tx, err = doc.Apply(tx.Doc, tx.Sel, doc.WrapRange{From: start, To: start, Type: doc.NodeBlockquote})
	}
	if err != nil {
		return nil, err
	}
	return &Result{Tx: tx}, nil
}

// leafPrefix returns the leaf text from the block start up to the caret.
func leafPrefix(a doc.Ancestry) string {
	return string([]rune(a.Leaf.Text())[:a.Offset])
}

// shortcutFor maps a typed prefix to its conversion. Only a prefix that
// spans the whole block start qualifies; the caller guarantees that.
func shortcutFor(prefix string) (shortcut, bool) {
	switch prefix {
	case "-", "+":
		return shortcut{wrap: doc.NodeList, kind: doc.ListBullet}, true
	case ">":
		return shortcut{wrap: doc.NodeBlockquote}, true
	}
	if isOrdinal(prefix) {
		return shortcut{wrap: doc.NodeList, kind: doc.ListOrdered}, true
	}
	if lang, ok := strings.CutPrefix(prefix, "```"); ok && isFenceInfo(lang) {
		return shortcut{code: true, lang: lang}, true
	}
	return shortcut{}, false
}

// isOrdinal reports whether s is an ordered-list marker: digits closed
// by "." or ")".
func isOrdinal(s string) bool {
	if len(s) < 2 || len(s) > 10 {
		return false
	}
	last := s[len(s)-1]
	if last != '.' && last != ')' {
		return false
	}
	for _, r := range s[:len(s)-1] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isFenceInfo reports whether s can stand as a fence language tag.
func isFenceInfo(s string) bool {
	return !strings.ContainsAny(s, "` \n")
}

// isSpaceKey matches the space bar however the terminal delivers it.
func isSpaceKey(msg tea.KeyMsg) bool {
	if msg.Type == tea.KeySpace {
		return true
	}
	return msg.Type == tea.KeyRunes && len(msg.Runes) == 1 && msg.Runes[0] == ' '
}
