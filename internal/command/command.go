// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package command implements the composer's toggle and transform commands:
// mark toggles, heading levels, list kind switching, blockquote and code
// block conversion. Every command goes through the transaction engine, so
// a command either produces a fully valid document or leaves the current
// one untouched.
package command

import (
	"github.com/morganforge/quill-tui/internal/doc"
)

// =============================================================================
// MARK TOGGLES
// =============================================================================

// ToggleMark applies the mark to the selected range, or removes it when the
// whole range already carries it. A caret selection is a no-op.
func ToggleMark(d *doc.Document, sel doc.Selection, mark doc.Mark) (*doc.Transaction, error) {
	if sel.IsCaret() {
		return &doc.Transaction{Doc: d, Sel: sel}, nil
	}
	from, to := sel.From(), sel.To()
	if d.RangeHasMark(from, to, mark.Type) {
		return doc.Apply(d, sel, doc.RemoveMarkRange{From: from, To: to, Type: mark.Type})
	}
	return doc.Apply(d, sel, doc.AddMarkRange{From: from, To: to, Mark: mark})
}

// ToggleBold toggles bold over the selection.
func ToggleBold(d *doc.Document, sel doc.Selection) (*doc.Transaction, error) {
	return ToggleMark(d, sel, doc.Mark{Type: doc.MarkBold})
}

// ToggleItalic toggles italic over the selection.
func ToggleItalic(d *doc.Document, sel doc.Selection) (*doc.Transaction, error) {
	return ToggleMark(d, sel, doc.Mark{Type: doc.MarkItalic})
}

// ToggleStrike toggles strikethrough over the selection.
func ToggleStrike(d *doc.Document, sel doc.Selection) (*doc.Transaction, error) {
	return ToggleMark(d, sel, doc.Mark{Type: doc.MarkStrike})
}

// ToggleInlineCode toggles the inline code mark over the selection.
func ToggleInlineCode(d *doc.Document, sel doc.Selection) (*doc.Transaction, error) {
	return ToggleMark(d, sel, doc.Mark{Type: doc.MarkCode})
}

// SetLink applies a link over the selection, or removes the existing one
// when href is empty.
func SetLink(d *doc.Document, sel doc.Selection, href string) (*doc.Transaction, error) {
	if sel.IsCaret() {
		return &doc.Transaction{Doc: d, Sel: sel}, nil
	}
	from, to := sel.From(), sel.To()
	if href == "" {
		return doc.Apply(d, sel, doc.RemoveMarkRange{From: from, To: to, Type: doc.MarkLink})
	}
	return doc.Apply(d, sel, doc.AddMarkRange{From: from, To: to, Mark: doc.Mark{Type: doc.MarkLink, Href: href}})
}

// =============================================================================
// BLOCK TRANSFORMS
// =============================================================================

// SetHeading retypes the block at the selection head: level 1-6 makes it a
// heading, level 0 makes it a paragraph. Toggling the current level back to
// paragraph is the caller's job via level 0.
func SetHeading(d *doc.Document, sel doc.Selection, level int) (*doc.Transaction, error) {
	if level == 0 {
		return doc.Apply(d, sel, doc.SetType{Pos: sel.Head, Type: doc.NodeParagraph})
	}
	return doc.Apply(d, sel, doc.SetType{Pos: sel.Head, Type: doc.NodeHeading, Level: level})
}

// ToggleHeading sets the given level, or back to paragraph when the block
// is already a heading of that level.
func ToggleHeading(d *doc.Document, sel doc.Selection, level int) (*doc.Transaction, error) {
	a := d.Resolve(sel.Head)
	if a.Leaf.Type == doc.NodeHeading && a.Leaf.Level == level {
		return SetHeading(d, sel, 0)
	}
	return SetHeading(d, sel, level)
}

// ToggleCodeBlock converts the block at the selection head to a code block,
// or back to a paragraph when it already is one. Marks do not survive the
// trip in.
func ToggleCodeBlock(d *doc.Document, sel doc.Selection, language string) (*doc.Transaction, error) {
	a := d.Resolve(sel.Head)
	if a.Leaf.Type == doc.NodeCodeBlock {
		return doc.Apply(d, sel, doc.SetType{Pos: sel.Head, Type: doc.NodeParagraph})
	}
	return doc.Apply(d, sel, doc.SetType{Pos: sel.Head, Type: doc.NodeCodeBlock, Language: language})
}

// SetCodeLanguage updates the language attribute of the code block at pos.
func SetCodeLanguage(d *doc.Document, sel doc.Selection, pos int, language string) (*doc.Transaction, error) {
	return doc.Apply(d, sel, doc.SetAttrs{Pos: pos, Language: &language})
}

// ToggleBlockquote wraps the selected blocks in a blockquote, or lifts the
// block at the selection head out when it is already quoted.
func ToggleBlockquote(d *doc.Document, sel doc.Selection) (*doc.Transaction, error) {
	a := d.Resolve(sel.Head)
	if a.InType(doc.NodeBlockquote) {
		return doc.Apply(d, sel, doc.Lift{Pos: sel.Head})
	}
	return doc.Apply(d, sel, doc.WrapRange{From: sel.From(), To: sel.To(), Type: doc.NodeBlockquote})
}

// =============================================================================
// LIST COMMANDS
// =============================================================================

// ToggleList switches the list at the selection to the given kind. Outside
// a list the selected blocks are wrapped into a new one; inside a list of
// another kind the container is rewritten in place, keeping item content
// and nesting; inside a list of the same kind the item leaves the list.
func ToggleList(d *doc.Document, sel doc.Selection, kind doc.ListKind) (*doc.Transaction, error) {
	a := d.Resolve(sel.Head)
	list := a.List()
	if list == nil {
		return doc.Apply(d, sel, doc.WrapRange{From: sel.From(), To: sel.To(), Type: doc.NodeList, Kind: kind})
	}
	if list.Kind == kind {
		return doc.Apply(d, sel, doc.OutdentItem{Pos: sel.Head})
	}
	k := kind
	return doc.Apply(d, sel, doc.SetAttrs{Pos: sel.Head, Kind: &k})
}

// ToggleChecked flips the checkbox of the task item at the selection head.
// A no-op outside task lists.
func ToggleChecked(d *doc.Document, sel doc.Selection) (*doc.Transaction, error) {
	a := d.Resolve(sel.Head)
	item := a.ListItem()
	if item == nil || item.Checked == doc.CheckNone {
		return &doc.Transaction{Doc: d, Sel: sel}, nil
	}
	next := doc.CheckChecked
	if item.Checked == doc.CheckChecked {
		next = doc.CheckUnchecked
	}
	return doc.Apply(d, sel, doc.SetAttrs{Pos: sel.Head, Checked: &next})
}
