// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"github.com/morganforge/quill-tui/internal/doc"
)

// =============================================================================
// TOOLBAR STATE OBSERVER
// =============================================================================

// ToolbarState holds the active-format booleans for the current selection,
// recomputed after every document or selection change. It is read-only
// state for the surrounding UI, never part of the claim chain.
type ToolbarState struct {
	Bold       bool
	Italic     bool
	Strike     bool
	Code       bool
	Link       bool
	CodeBlock  bool
	Blockquote bool

	HeadingLevel int          // 0 = not a heading
	InList       bool
	ListKind     doc.ListKind // valid when InList
}

// ComputeToolbar derives the toolbar state. A caret uses the marks of the
// character before it; a range is "active" for a mark only when every
// character in it carries the mark.
func ComputeToolbar(d *doc.Document, sel doc.Selection) ToolbarState {
	var st ToolbarState

	if sel.IsCaret() {
		marks := d.MarksAt(sel.Head)
		st.Bold = doc.HasMark(marks, doc.MarkBold)
		st.Italic = doc.HasMark(marks, doc.MarkItalic)
		st.Strike = doc.HasMark(marks, doc.MarkStrike)
		st.Code = doc.HasMark(marks, doc.MarkCode)
		st.Link = doc.HasMark(marks, doc.MarkLink)
	} else {
		from, to := sel.From(), sel.To()
		st.Bold = d.RangeHasMark(from, to, doc.MarkBold)
		st.Italic = d.RangeHasMark(from, to, doc.MarkItalic)
		st.Strike = d.RangeHasMark(from, to, doc.MarkStrike)
		st.Code = d.RangeHasMark(from, to, doc.MarkCode)
		st.Link = d.RangeHasMark(from, to, doc.MarkLink)
	}

	a := d.Resolve(sel.Head)
	st.CodeBlock = a.Leaf.Type == doc.NodeCodeBlock
	st.Blockquote = a.InType(doc.NodeBlockquote)
	if a.Leaf.Type == doc.NodeHeading {
		st.HeadingLevel = a.Leaf.Level
	}
	if list := a.List(); list != nil {
		st.InList = true
		st.ListKind = list.Kind
	}
	return st
}

// =============================================================================
// CODE LANGUAGE OBSERVER
// =============================================================================

// LanguageTarget identifies the code block a language picker currently
// applies to.
type LanguageTarget struct {
	Block    *doc.Node
	Language string
	Pos      int // a position inside the block, for SetCodeLanguage
}

// CodeLanguageAt returns the picker target for the current selection, nil
// when the caret is not in a code block.
func CodeLanguageAt(d *doc.Document, sel doc.Selection) *LanguageTarget {
	a := d.Resolve(sel.Head)
	if a.Leaf.Type != doc.NodeCodeBlock {
		return nil
	}
	return &LanguageTarget{Block: a.Leaf, Language: a.Leaf.Language, Pos: sel.Head}
}

// =============================================================================
// PLACEHOLDER
// =============================================================================

// Placeholder decides what hint text an empty composer shows. The hint
// appears only while the document is a single empty paragraph and the
// composer is enabled.
type Placeholder struct {
	Text     string
	Disabled string // shown instead of Text while the composer is disabled
}

// For returns the hint to render and whether to render one at all.
func (p Placeholder) For(d *doc.Document, enabled bool) (string, bool) {
	if !d.IsBlank() {
		return "", false
	}
	if !enabled {
		if p.Disabled == "" {
			return "", false
		}
		return p.Disabled, true
	}
	if p.Text == "" {
		return "", false
	}
	return p.Text, true
}
