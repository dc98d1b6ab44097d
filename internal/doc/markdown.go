// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package doc

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// =============================================================================
// PARSING
// =============================================================================

var mdParser = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Parse builds a document from GitHub-flavored markdown. Unsupported
// constructs degrade to their plain text. An empty or whitespace-only
// source yields a blank document.
func Parse(source string) *Document {
	src := []byte(source)
	root := mdParser.Parser().Parse(text.NewReader(src))

	d := &Document{}
	for ch := root.FirstChild(); ch != nil; ch = ch.NextSibling() {
		if b := parseBlock(ch, src); b != nil {
			d.Blocks = append(d.Blocks, b...)
		}
	}
	if len(d.Blocks) == 0 {
		return New()
	}
	return d
}

func parseBlock(n ast.Node, src []byte) []*Node {
	switch b := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return []*Node{{Type: NodeParagraph, Runs: parseInlines(n, src, nil)}}

	case *ast.Heading:
		level := b.Level
		if level > 6 {
			level = 6
		}
		return []*Node{{Type: NodeHeading, Level: level, Runs: parseInlines(n, src, nil)}}

	case *ast.FencedCodeBlock:
		return []*Node{{
			Type:     NodeCodeBlock,
			Language: string(b.Language(src)),
			Runs:     codeRuns(b.Lines(), src),
		}}

	case *ast.CodeBlock:
		return []*Node{{Type: NodeCodeBlock, Runs: codeRuns(b.Lines(), src)}}

	case *ast.ThematicBreak:
		return []*Node{{Type: NodeRule}}

	case *ast.Blockquote:
		quote := &Node{Type: NodeBlockquote}
		for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
			quote.Children = append(quote.Children, parseBlock(ch, src)...)
		}
		if len(quote.Children) == 0 {
			return nil
		}
		return []*Node{quote}

	case *ast.List:
		return []*Node{parseList(b, src)}

	case *ast.HTMLBlock:
		return []*Node{{Type: NodeParagraph, Runs: codeRuns(b.Lines(), src)}}

	default:
		return nil
	}
}

func parseList(l *ast.List, src []byte) *Node {
	list := &Node{Type: NodeList, Kind: ListBullet}
	if l.IsOrdered() {
		list.Kind = ListOrdered
	}
	for ch := l.FirstChild(); ch != nil; ch = ch.NextSibling() {
		item := &Node{Type: NodeListItem}
		for c := ch.FirstChild(); c != nil; c = c.NextSibling() {
			// A task checkbox sits as the first inline of the item's first
			// block; its presence promotes the whole list to a task list.
			if checked, ok := taskState(c); ok {
				item.Checked = checked
				list.Kind = ListTask
			}
			item.Children = append(item.Children, parseBlock(c, src)...)
		}
		if len(item.Children) == 0 {
			item.Children = []*Node{NewParagraph("")}
		}
		list.Children = append(list.Children, item)
	}
	if list.Kind == ListTask {
		for _, item := range list.Children {
			if item.Checked == CheckNone {
				item.Checked = CheckUnchecked
			}
		}
	}
	if len(list.Children) == 0 {
		list.Children = []*Node{{Type: NodeListItem, Children: []*Node{NewParagraph("")}}}
	}
	return list
}

// taskState inspects a block's first inline for a GFM task checkbox.
func taskState(block ast.Node) (CheckState, bool) {
	first := block.FirstChild()
	if cb, ok := first.(*extast.TaskCheckBox); ok {
		if cb.IsChecked {
			return CheckChecked, true
		}
		return CheckUnchecked, true
	}
	return CheckNone, false
}

// parseInlines flattens an inline tree into marked runs.
func parseInlines(n ast.Node, src []byte, marks []Mark) []Run {
	var runs []Run
	for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
		switch in := ch.(type) {
		case *ast.Text:
			// Segments carry raw source; backslash escapes resolve here
			// the way a renderer would resolve them.
			t := string(util.UnescapePunctuations(in.Segment.Value(src)))
			if in.SoftLineBreak() || in.HardLineBreak() {
				t += "\n"
			}
			runs = append(runs, Run{Text: t, Marks: marks})

		case *ast.Emphasis:
			m := Mark{Type: MarkItalic}
			if in.Level >= 2 {
				m = Mark{Type: MarkBold}
			}
			runs = append(runs, parseInlines(ch, src, AddMark(marks, m))...)

		case *extast.Strikethrough:
			runs = append(runs, parseInlines(ch, src, AddMark(marks, Mark{Type: MarkStrike}))...)

		case *ast.CodeSpan:
			runs = append(runs, Run{Text: inlineText(ch, src), Marks: AddMark(marks, Mark{Type: MarkCode})})

		case *ast.Link:
			m := Mark{Type: MarkLink, Href: string(in.Destination)}
			runs = append(runs, parseInlines(ch, src, AddMark(marks, m))...)

		case *ast.AutoLink:
			url := string(in.URL(src))
			runs = append(runs, Run{Text: url, Marks: AddMark(marks, Mark{Type: MarkLink, Href: url})})

		case *extast.TaskCheckBox:
			// Consumed by the list parser.

		case *ast.RawHTML, *ast.String:
			runs = append(runs, Run{Text: inlineText(ch, src), Marks: marks})

		default:
			runs = append(runs, parseInlines(ch, src, marks)...)
		}
	}
	return normalizeRuns(runs)
}

// inlineText concatenates the text segments under an inline node.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
		if t, ok := ch.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
		}
	}
	return b.String()
}

// codeRuns joins a block's raw source lines into a single unmarked run,
// dropping the trailing newline so the block's text matches what the
// editor shows.
func codeRuns(lines *text.Segments, src []byte) []Run {
	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	s := strings.TrimSuffix(b.String(), "\n")
	if s == "" {
		return nil
	}
	return []Run{{Text: s}}
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// Serialize renders the document as GitHub-flavored markdown. Soft line
// breaks inside paragraphs come out as hard breaks so they survive the
// round trip.
func Serialize(d *Document) string {
	var parts []string
	for _, b := range d.Blocks {
		parts = append(parts, serializeBlock(b))
	}
	return strings.Join(parts, "\n\n")
}

func serializeBlock(n *Node) string {
	switch n.Type {
	case NodeParagraph:
		return serializeRuns(n.Runs)

	case NodeHeading:
		return strings.Repeat("#", n.Level) + " " + strings.ReplaceAll(serializeRuns(n.Runs), "\\\n", " ")

	case NodeCodeBlock:
		fence := "```"
		body := n.Text()
		for strings.Contains(body, fence) {
			fence += "`"
		}
		if body == "" {
			return fence + n.Language + "\n" + fence
		}
		return fence + n.Language + "\n" + body + "\n" + fence

	case NodeRule:
		return "---"

	case NodeBlockquote:
		var parts []string
		for _, ch := range n.Children {
			parts = append(parts, serializeBlock(ch))
		}
		return prefixLines(strings.Join(parts, "\n\n"), "> ")

	case NodeList:
		return serializeList(n)

	default:
		return n.Text()
	}
}

func serializeList(list *Node) string {
	var lines []string
	for i, item := range list.Children {
		marker := listMarker(list, i, item)
		indent := strings.Repeat(" ", len(marker))

		var parts []string
		for _, ch := range item.Children {
			parts = append(parts, serializeBlock(ch))
		}
		body := strings.Join(parts, "\n")

		itemLines := strings.Split(body, "\n")
		for j, l := range itemLines {
			if j == 0 {
				lines = append(lines, marker+l)
			} else if l == "" {
				lines = append(lines, "")
			} else {
				lines = append(lines, indent+l)
			}
		}
	}
	return strings.Join(lines, "\n")
}

func listMarker(list *Node, index int, item *Node) string {
	switch list.Kind {
	case ListOrdered:
		return fmt.Sprintf("%d. ", index+1)
	case ListTask:
		if item.Checked == CheckChecked {
			return "- [x] "
		}
		return "- [ ] "
	default:
		return "- "
	}
}

// serializeRuns renders marked runs with inline delimiters. Runs are
// wrapped independently; normalization keeps adjacent same-marked text in
// one run so delimiters never double up.
func serializeRuns(runs []Run) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(serializeRun(r))
	}
	lines := strings.Split(b.String(), "\n")
	for i, l := range lines {
		lines[i] = escapeLineStart(l)
	}
	// Soft breaks become hard breaks.
	return strings.Join(lines, "\\\n")
}

func serializeRun(r Run) string {
	if HasMark(r.Marks, MarkCode) {
		s := r.Text
		delim := "`"
		for strings.Contains(s, delim) {
			delim += "`"
		}
		return delim + s + delim
	}
	s := escapeInline(r.Text)
	if HasMark(r.Marks, MarkStrike) {
		s = "~~" + s + "~~"
	}
	if HasMark(r.Marks, MarkItalic) {
		s = "*" + s + "*"
	}
	if HasMark(r.Marks, MarkBold) {
		s = "**" + s + "**"
	}
	for _, m := range r.Marks {
		if m.Type == MarkLink {
			s = "[" + s + "](" + m.Href + ")"
		}
	}
	return s
}

// escapeInline backslash-escapes the characters that would reparse as
// inline markdown syntax, so literal typed punctuation stays literal.
// Code-marked runs skip this; backtick delimiters already quote them.
func escapeInline(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '`', '*', '_', '~', '[', ']', '<', '&':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// escapeLineStart neutralizes characters that would open a block
// construct at the start of a reparsed line: headings, bullets,
// blockquotes, ordered-list markers, and setext underlines.
func escapeLineStart(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if trimmed == "" {
		return line
	}
	pad := line[:len(line)-len(trimmed)]
	switch trimmed[0] {
	case '#', '-', '+', '>', '=':
		return pad + "\\" + trimmed
	}
	if i := ordinalMarker(trimmed); i > 0 {
		return pad + trimmed[:i] + "\\" + trimmed[i:]
	}
	return line
}

// ordinalMarker returns the index of the "." or ")" closing a leading
// ordered-list marker, 0 when the line starts with none.
func ordinalMarker(s string) int {
	i := 0
	for i < len(s) && i < 9 && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(s) {
		return 0
	}
	if s[i] == '.' || s[i] == ')' {
		return i
	}
	return 0
}

// prefixLines prepends prefix to every line of s.
func prefixLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = strings.TrimRight(prefix, " ")
		} else {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}
