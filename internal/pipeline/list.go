// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/quill-tui/internal/doc"
)

// =============================================================================
// LIST ITEM ENTER
// =============================================================================

// listEnterHandler continues lists on Enter: an empty item exits the list,
// any other position splits the item in two. A split task item starts
// unchecked.
type listEnterHandler struct {
	keys keyMap
}

func (h *listEnterHandler) Name() string { return "list-item-enter" }

func (h *listEnterHandler) CanHandle(msg tea.KeyMsg, ctx *Context) bool {
	if !key.Matches(msg, h.keys.Enter) {
		return false
	}
	a := ctx.Doc.Resolve(ctx.Sel.Head)
	return a.Leaf.Type != doc.NodeCodeBlock && a.ListItem() != nil
}

func (h *listEnterHandler) Handle(msg tea.KeyMsg, ctx *Context) (*Result, error) {
	d, sel := ctx.Doc, ctx.Sel
	if !sel.IsCaret() {
		tx, err := doc.Apply(d, sel, doc.DeleteRange{From: sel.From(), To: sel.To()})
		if err != nil {
			return nil, err
		}
		d, sel = tx.Doc, tx.Sel
	}

	a := d.Resolve(sel.Head)
	item := a.ListItem()
	if item != nil && itemIsEmpty(item) {
		tx, err := doc.Apply(d, sel, doc.OutdentItem{Pos: sel.Head})
		if err != nil {
			return nil, err
		}
		return &Result{Tx: tx}, nil
	}

	tx, err := doc.Apply(d, sel, doc.SplitItem{Pos: sel.Head})
	if err != nil {
		return nil, err
	}
	return &Result{Tx: tx}, nil
}

// itemIsEmpty reports whether a list item holds a single empty leaf.
func itemIsEmpty(item *doc.Node) bool {
	if len(item.Children) != 1 {
		return false
	}
	leaf := item.Children[0]
	return leaf.Type.IsLeaf() && leaf.IsEmpty()
}

// =============================================================================
// LIST FORWARD DELETE
// =============================================================================

// listDeleteHandler guards list structure against forward delete at the
// start of an item, which would otherwise merge the next block into the
// item. It deletes the preceding character instead.
type listDeleteHandler struct {
	keys keyMap
}

func (h *listDeleteHandler) Name() string { return "list-delete-fix" }

func (h *listDeleteHandler) CanHandle(msg tea.KeyMsg, ctx *Context) bool {
	if !key.Matches(msg, h.keys.Delete) || !ctx.Sel.IsCaret() {
		return false
	}
	a := ctx.Doc.Resolve(ctx.Sel.Head)
	return a.ListItem() != nil && a.Offset == 0
}

func (h *listDeleteHandler) Handle(msg tea.KeyMsg, ctx *Context) (*Result, error) {
	// The slot directly before the caret is the block separator; the
	// preceding character ends one slot earlier. Deleting the separator
	// would merge the items, which is exactly the corruption to avoid.
	pos := ctx.Sel.Head
	if pos < 2 {
		return &Result{}, nil
	}
	tx, err := doc.Apply(ctx.Doc, ctx.Sel, doc.DeleteRange{From: pos - 2, To: pos - 1})
	if err != nil {
		return nil, err
	}
	return &Result{Tx: tx}, nil
}
