// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package editor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/morganforge/quill-tui/internal/doc"
	"github.com/morganforge/quill-tui/internal/ui/styles"
)

const cursorGlyph = "▏"

// =============================================================================
// VIEW
// =============================================================================

// View renders the composer content.
func (e *Editor) View() string {
	if !e.mounted {
		return ""
	}
	if text, show := e.placeholderFor(); show {
		return styles.Placeholder.Render(text)
	}

	caretLeaf, caretOffset := e.caretTarget()
	var lines []string
	for _, b := range e.doc.Blocks {
		lines = append(lines, e.renderBlock(b, "", caretLeaf, caretOffset)...)
	}

	if e.maxHeight > 0 && len(lines) > e.maxHeight {
		// Keep the caret's portion visible; the simple policy shows the
		// tail, where editing normally happens.
		lines = lines[len(lines)-e.maxHeight:]
	}
	return strings.Join(lines, "\n")
}

func (e *Editor) placeholderFor() (string, bool) {
	if !e.doc.IsBlank() {
		return "", false
	}
	if e.disabled {
		return e.placeholder, e.placeholder != ""
	}
	if e.placeholder == "" {
		return cursorGlyph, e.focused
	}
	return cursorGlyph + " " + e.placeholder, true
}

func (e *Editor) caretTarget() (*doc.Node, int) {
	if !e.focused || !e.sel.IsCaret() {
		return nil, 0
	}
	a := e.doc.Resolve(e.sel.Head)
	return a.Leaf, a.Offset
}

// contentHeight is the rendered row count before the max-height clamp.
func (e *Editor) contentHeight() int {
	if e.doc.IsBlank() {
		return 1
	}
	n := 0
	for _, b := range e.doc.Blocks {
		n += len(e.renderBlock(b, "", nil, 0))
	}
	return n
}

// =============================================================================
// BLOCK RENDERING
// =============================================================================

func (e *Editor) renderBlock(n *doc.Node, indent string, caretLeaf *doc.Node, caretOffset int) []string {
	switch n.Type {
	case doc.NodeParagraph:
		return prefixAll(indent, e.renderRunLines(n, caretLeaf, caretOffset, styles.Text))
	case doc.NodeHeading:
		marker := styles.Marker.Render(strings.Repeat("#", n.Level) + " ")
		lines := e.renderRunLines(n, caretLeaf, caretOffset, styles.Heading)
		if len(lines) > 0 {
			lines[0] = marker + lines[0]
		}
		return prefixAll(indent, lines)
	case doc.NodeCodeBlock:
		return prefixAll(indent, e.renderCodeBlock(n, caretLeaf, caretOffset))
	case doc.NodeRule:
		width := e.width - runewidth.StringWidth(indent)
		if width < 3 {
			width = 3
		}
		return []string{indent + styles.Rule.Render(strings.Repeat("─", width))}
	case doc.NodeBlockquote:
		var lines []string
		for _, c := range n.Children {
			lines = append(lines, e.renderBlock(c, "", caretLeaf, caretOffset)...)
		}
		bar := styles.QuoteBar.Render("│ ")
		for i := range lines {
			lines[i] = indent + bar + lines[i]
		}
		return lines
	case doc.NodeList:
		return e.renderList(n, indent, caretLeaf, caretOffset)
	default:
		return nil
	}
}

func (e *Editor) renderList(list *doc.Node, indent string, caretLeaf *doc.Node, caretOffset int) []string {
	var lines []string
	for i, item := range list.Children {
		marker := listGlyph(list, i, item)
		cont := strings.Repeat(" ", runewidth.StringWidth(marker))
		first := true
		for _, c := range item.Children {
			for _, line := range e.renderBlock(c, "", caretLeaf, caretOffset) {
				if first {
					lines = append(lines, indent+styles.Marker.Render(marker)+line)
					first = false
				} else {
					lines = append(lines, indent+cont+line)
				}
			}
		}
		if first {
			lines = append(lines, indent+styles.Marker.Render(marker))
		}
	}
	return lines
}

func listGlyph(list *doc.Node, index int, item *doc.Node) string {
	switch list.Kind {
	case doc.ListOrdered:
		return fmt.Sprintf("%d. ", index+1)
	case doc.ListTask:
		if item.Checked == doc.CheckChecked {
			return "☑ "
		}
		return "☐ "
	default:
		return "• "
	}
}

// =============================================================================
// CODE BLOCK RENDERING
// =============================================================================

func (e *Editor) renderCodeBlock(n *doc.Node, caretLeaf *doc.Node, caretOffset int) []string {
	code := n.Text()
	label := n.Language
	lines := []string{styles.CodeFence.Render("```" + label)}

	rows := e.highlighter.Highlight(n.Language, code)
	if rows == nil || n == caretLeaf {
		// Unknown language, or the caret lives here: render plain so
		// the cursor can be spliced in at a rune offset.
		body := strings.Split(code, "\n")
		off := 0
		for _, line := range body {
			lineRunes := len([]rune(line))
			if n == caretLeaf && caretOffset >= off && caretOffset <= off+lineRunes {
				lines = append(lines, spliceCursor(line, caretOffset-off, styles.InlineCode))
			} else {
				lines = append(lines, styles.InlineCode.Render(line))
			}
			off += lineRunes + 1
		}
	} else {
		for _, row := range rows {
			var sb strings.Builder
			for _, tok := range row {
				st := lipgloss.NewStyle()
				if tok.Color != "" {
					st = st.Foreground(lipgloss.Color(tok.Color))
				}
				if tok.Bold {
					st = st.Bold(true)
				}
				if tok.Italic {
					st = st.Italic(true)
				}
				sb.WriteString(st.Render(tok.Text))
			}
			lines = append(lines, sb.String())
		}
	}

	lines = append(lines, styles.CodeFence.Render("```"))
	return lines
}

// =============================================================================
// INLINE RENDERING
// =============================================================================

// renderRunLines renders a leaf's runs, splitting on soft breaks and
// splicing the cursor glyph into the caret's line.
func (e *Editor) renderRunLines(n *doc.Node, caretLeaf *doc.Node, caretOffset int, base lipgloss.Style) []string {
	lines := []string{""}
	off := 0
	caretPlaced := n != caretLeaf

	for _, r := range n.Runs {
		st := runStyle(r.Marks, base)
		parts := strings.Split(r.Text, "\n")
		for pi, part := range parts {
			if pi > 0 {
				off++ // soft break
				lines = append(lines, "")
			}
			partRunes := len([]rune(part))
			if !caretPlaced && caretOffset >= off && caretOffset <= off+partRunes {
				lines[len(lines)-1] += spliceCursor(part, caretOffset-off, st)
				caretPlaced = true
			} else {
				lines[len(lines)-1] += st.Render(part)
			}
			off += partRunes
		}
	}
	if !caretPlaced {
		lines[len(lines)-1] += styles.Cursor.Render(" ")
	}
	return lines
}

func runStyle(marks []doc.Mark, base lipgloss.Style) lipgloss.Style {
	st := base
	for _, m := range marks {
		switch m.Type {
		case doc.MarkBold:
			st = st.Bold(true)
		case doc.MarkItalic:
			st = st.Italic(true)
		case doc.MarkStrike:
			st = st.Strikethrough(true)
		case doc.MarkCode:
			st = styles.InlineCode
		case doc.MarkLink:
			st = styles.Link
		}
	}
	return st
}

// spliceCursor renders text with a reversed cell at the given rune offset.
func spliceCursor(text string, offset int, st lipgloss.Style) string {
	runes := []rune(text)
	if offset < 0 {
		offset = 0
	}
	if offset > len(runes) {
		offset = len(runes)
	}
	before := st.Render(string(runes[:offset]))
	if offset == len(runes) {
		return before + styles.Cursor.Render(" ")
	}
	at := styles.Cursor.Render(string(runes[offset]))
	after := st.Render(string(runes[offset+1:]))
	return before + at + after
}

func prefixAll(prefix string, lines []string) []string {
	if prefix == "" {
		return lines
	}
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return lines
}
