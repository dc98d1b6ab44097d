// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package doc

import (
	"fmt"
)

// =============================================================================
// ERRORS
// =============================================================================

// ValidationError is returned when an operation would produce a structurally
// invalid document. The operation is rejected wholesale; no partial mutation
// is ever observable. Use errors.Is(err, ErrValidation) to check.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "doc: " + e.Message
}

// Is implements errors.Is support: any two ValidationErrors match, so
// callers can test against ErrValidation without caring about the message.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// ErrValidation is the sentinel for errors.Is checks against rejected ops.
var ErrValidation = &ValidationError{Message: "invalid operation"}

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// =============================================================================
// TRANSACTION ENGINE
// =============================================================================

// Transaction is the result of applying an operation: a new document version
// plus the selection remapped onto it.
type Transaction struct {
	Doc *Document
	Sel Selection
}

// Op is an atomic edit operation.
type Op interface {
	apply(d *Document, sel Selection) (Selection, error)
}

// Apply runs op against a clone of the document and returns the resulting
// transaction. On any error the input document and selection are untouched.
func Apply(d *Document, sel Selection, op Op) (*Transaction, error) {
	work := d.Clone()
	s := sel.Clamp(work.Length())

	ns, err := op.apply(work, s)
	if err != nil {
		return nil, err
	}

	work.pruneEmpty()
	work.normalizeLeaves()
	if err := work.validate(); err != nil {
		return nil, err
	}

	return &Transaction{Doc: work, Sel: ns.Clamp(work.Length())}, nil
}

// =============================================================================
// TEXT OPS
// =============================================================================

// InsertText inserts text at Pos. Marks defaults to the marks of the
// character preceding Pos when nil; inside a code block marks are always
// suppressed. Newlines are legal and represent soft line breaks (or literal
// newlines inside code blocks).
type InsertText struct {
	Pos   int
	Text  string
	Marks []Mark
}

func (op InsertText) apply(d *Document, sel Selection) (Selection, error) {
	if op.Text == "" {
		return sel, nil
	}
	sp, ok := d.leafAt(op.Pos)
	if !ok {
		return sel, validationf("insert at %d: position out of range", op.Pos)
	}
	if sp.node.Type == NodeRule {
		return sel, validationf("insert at %d: rule holds no text", op.Pos)
	}

	offset := op.Pos - sp.start
	marks := op.Marks
	if marks == nil {
		marks = marksAt(sp.node, offset)
	}
	if sp.node.Type == NodeCodeBlock {
		marks = nil
	}

	sp.node.Runs = spliceRuns(sp.node.Runs, offset, 0, []Run{{Text: op.Text, Marks: marks}})

	ins := len([]rune(op.Text))
	ns := MapSelection(sel, op.Pos, 0, ins)
	if sel.IsCaret() && sel.Head == op.Pos {
		ns = Caret(op.Pos + ins) // typing advances the caret
	}
	return ns, nil
}

// DeleteRange removes the flattened-text range [From, To). Ranges spanning
// block boundaries delete the covered separators and merge the boundary
// leaves; fully covered blocks are removed.
type DeleteRange struct {
	From int
	To   int
}

func (op DeleteRange) apply(d *Document, sel Selection) (Selection, error) {
	if op.From > op.To {
		return sel, validationf("delete range [%d,%d): inverted", op.From, op.To)
	}
	if op.From == op.To {
		return sel, nil
	}
	length := d.Length()
	if op.From < 0 || op.To > length {
		return sel, validationf("delete range [%d,%d): out of range 0..%d", op.From, op.To, length)
	}

	spans := d.spans()
	si, ei := -1, -1
	for i, sp := range spans {
		if si < 0 && op.From >= sp.start && op.From <= sp.end {
			si = i
		}
		if op.To >= sp.start && op.To <= sp.end {
			ei = i
			break
		}
	}
	if si < 0 || ei < 0 {
		return sel, validationf("delete range [%d,%d): could not resolve blocks", op.From, op.To)
	}

	startSp, endSp := spans[si], spans[ei]
	if startSp.node == endSp.node {
		startSp.node.Runs = spliceRuns(startSp.node.Runs, op.From-startSp.start, op.To-op.From, nil)
		return MapSelection(sel, op.From, op.To-op.From, 0), nil
	}

	// Truncate the boundary leaves, then absorb the end leaf's suffix into
	// the start leaf and drop everything in between.
	startSp.node.Runs = spliceRuns(startSp.node.Runs, op.From-startSp.start, startSp.end-op.From, nil)
	endSp.node.Runs = spliceRuns(endSp.node.Runs, 0, op.To-endSp.start, nil)

	suffix := endSp.node.Runs
	if startSp.node.Type == NodeCodeBlock {
		suffix = stripMarks(suffix)
	}
	startSp.node.Runs = append(startSp.node.Runs, suffix...)

	for i := ei; i > si; i-- {
		d.removeLeaf(spans[i])
	}
	return MapSelection(sel, op.From, op.To-op.From, 0), nil
}

// =============================================================================
// MARK OPS
// =============================================================================

// AddMarkRange applies a mark to the flattened-text range [From, To),
// skipping code blocks (their content is structurally unmarked).
type AddMarkRange struct {
	From int
	To   int
	Mark Mark
}

func (op AddMarkRange) apply(d *Document, sel Selection) (Selection, error) {
	return sel, mapMarkRange(d, op.From, op.To, func(marks []Mark) []Mark {
		return AddMark(marks, op.Mark)
	})
}

// RemoveMarkRange removes marks of the given type from [From, To).
type RemoveMarkRange struct {
	From int
	To   int
	Type MarkType
}

func (op RemoveMarkRange) apply(d *Document, sel Selection) (Selection, error) {
	return sel, mapMarkRange(d, op.From, op.To, func(marks []Mark) []Mark {
		return RemoveMark(marks, op.Type)
	})
}

// mapMarkRange rewrites the mark sets of every character in [from, to).
func mapMarkRange(d *Document, from, to int, f func([]Mark) []Mark) error {
	if from > to {
		return validationf("mark range [%d,%d): inverted", from, to)
	}
	if to > d.Length() || from < 0 {
		return validationf("mark range [%d,%d): out of range", from, to)
	}
	for _, sp := range d.spans() {
		if sp.node.Type == NodeCodeBlock || sp.node.Type == NodeRule {
			continue
		}
		lo, hi := from-sp.start, to-sp.start
		if hi <= 0 || lo >= sp.node.RuneLen() {
			continue
		}
		if lo < 0 {
			lo = 0
		}
		if n := sp.node.RuneLen(); hi > n {
			hi = n
		}
		sp.node.Runs = rewriteMarks(sp.node.Runs, lo, hi, f)
	}
	return nil
}

// =============================================================================
// TYPE AND ATTRIBUTE OPS
// =============================================================================

// SetType changes the leaf block at Pos to another leaf type. Converting to
// a code block strips all marks; converting away keeps the text plain.
type SetType struct {
	Pos      int
	Type     NodeType
	Level    int    // heading level when Type is NodeHeading
	Language string // language when Type is NodeCodeBlock
}

func (op SetType) apply(d *Document, sel Selection) (Selection, error) {
	if !op.Type.IsLeaf() {
		return sel, validationf("set type: %s is not a leaf type", op.Type)
	}
	sp, ok := d.leafAt(op.Pos)
	if !ok {
		return sel, validationf("set type at %d: position out of range", op.Pos)
	}
	n := sp.node
	if n.Type == NodeRule {
		return sel, validationf("set type at %d: cannot retype a rule", op.Pos)
	}

	n.Type = op.Type
	n.Level = 0
	n.Language = ""
	switch op.Type {
	case NodeHeading:
		n.Level = op.Level
	case NodeCodeBlock:
		n.Language = op.Language
		n.Runs = stripMarks(n.Runs)
	}
	return sel, nil
}

// SetAttrs updates attributes in place. Nil fields are left untouched.
// Level applies to the heading at Pos, Language to the code block at Pos,
// Checked to the nearest list item ancestor, Kind to the nearest list
// ancestor (rewriting every item's Checked to satisfy the task invariant).
type SetAttrs struct {
	Pos      int
	Level    *int
	Language *string
	Checked  *CheckState
	Kind     *ListKind
}

func (op SetAttrs) apply(d *Document, sel Selection) (Selection, error) {
	sp, ok := d.leafAt(op.Pos)
	if !ok {
		return sel, validationf("set attrs at %d: position out of range", op.Pos)
	}
	if op.Level != nil {
		if sp.node.Type != NodeHeading {
			return sel, validationf("set attrs at %d: level on non-heading", op.Pos)
		}
		sp.node.Level = *op.Level
	}
	if op.Language != nil {
		if sp.node.Type != NodeCodeBlock {
			return sel, validationf("set attrs at %d: language on non-code block", op.Pos)
		}
		sp.node.Language = *op.Language
	}
	if op.Checked != nil {
		item := nearestAncestor(sp.parents, NodeListItem)
		if item == nil {
			return sel, validationf("set attrs at %d: checked outside a list item", op.Pos)
		}
		item.Checked = *op.Checked
	}
	if op.Kind != nil {
		list := nearestAncestor(sp.parents, NodeList)
		if list == nil {
			return sel, validationf("set attrs at %d: kind outside a list", op.Pos)
		}
		setListKind(list, *op.Kind)
	}
	return sel, nil
}

// setListKind rewrites a list container's kind in place, normalizing each
// item's Checked attribute: task lists get unchecked boxes where none
// existed, other kinds drop them. Nested lists are left alone.
func setListKind(list *Node, kind ListKind) {
	list.Kind = kind
	for _, item := range list.Children {
		if item.Type != NodeListItem {
			continue
		}
		if kind == ListTask {
			if item.Checked == CheckNone {
				item.Checked = CheckUnchecked
			}
		} else {
			item.Checked = CheckNone
		}
	}
}

// =============================================================================
// STRUCTURE OPS
// =============================================================================

// WrapRange wraps the sibling blocks covered by [From, To] into a new
// container. Wrapping into a list puts each covered block inside its own
// list item.
type WrapRange struct {
	From int
	To   int
	Type NodeType // NodeBlockquote or NodeList
	Kind ListKind // list kind when Type is NodeList
}

func (op WrapRange) apply(d *Document, sel Selection) (Selection, error) {
	if op.Type != NodeBlockquote && op.Type != NodeList {
		return sel, validationf("wrap: %s is not a wrappable container", op.Type)
	}
	startSp, ok := d.leafAt(op.From)
	if !ok {
		return sel, validationf("wrap: position %d out of range", op.From)
	}
	endSp, ok := d.leafAt(op.To)
	if !ok {
		return sel, validationf("wrap: position %d out of range", op.To)
	}

	parent := immediateParent(startSp.parents)
	if immediateParent(endSp.parents) != parent {
		return sel, validationf("wrap: range crosses container boundaries")
	}

	siblings := d.siblings(parent)
	lo := indexOf(*siblings, topChild(startSp, parent))
	hi := indexOf(*siblings, topChild(endSp, parent))
	if lo < 0 || hi < 0 || lo > hi {
		return sel, validationf("wrap: could not resolve sibling range")
	}

	covered := append([]*Node(nil), (*siblings)[lo:hi+1]...)
	wrapper := &Node{Type: op.Type}
	if op.Type == NodeList {
		wrapper.Kind = op.Kind
		for _, b := range covered {
			item := &Node{Type: NodeListItem, Children: []*Node{b}}
			if op.Kind == ListTask {
				item.Checked = CheckUnchecked
			}
			wrapper.Children = append(wrapper.Children, item)
		}
	} else {
		wrapper.Children = covered
	}

	*siblings = append((*siblings)[:lo], append([]*Node{wrapper}, (*siblings)[hi+1:]...)...)
	return sel, nil // wrapping does not reorder leaves, offsets are stable
}

// Lift moves the block at Pos out of its nearest enclosing container. For
// a list item the item leaves the list entirely (its content becomes a
// sibling of the list, splitting the list when lifted from the middle).
// For a blockquote the covered child moves before, after, or out of the
// quote the same way.
type Lift struct {
	Pos int
}

func (op Lift) apply(d *Document, sel Selection) (Selection, error) {
	sp, ok := d.leafAt(op.Pos)
	if !ok {
		return sel, validationf("lift at %d: position out of range", op.Pos)
	}
	if len(sp.parents) == 0 {
		return sel, validationf("lift at %d: block is already at top level", op.Pos)
	}

	// Lifting out of a list removes the whole (list -> item) layer at once
	// so the item's content lands beside the list.
	inner := sp.parents[len(sp.parents)-1]
	if inner.Type == NodeListItem {
		return sel, d.liftListItem(sp)
	}
	return sel, d.liftFromContainer(sp, inner)
}

// liftFromContainer moves the child of container that covers sp out to the
// container's parent, splitting the container when the child sits in the
// middle.
func (d *Document) liftFromContainer(sp leafSpan, container *Node) error {
	outerParents := sp.parents[:len(sp.parents)-1]
	outer := immediateParent(outerParents)
	outerSiblings := d.siblings(outer)

	child := childCovering(container, sp.node)
	ci := indexOf(container.Children, child)
	wi := indexOf(*outerSiblings, container)
	if ci < 0 || wi < 0 {
		return validationf("lift: could not resolve container position")
	}

	before := append([]*Node(nil), container.Children[:ci]...)
	after := append([]*Node(nil), container.Children[ci+1:]...)

	var replacement []*Node
	if len(before) > 0 {
		replacement = append(replacement, &Node{Type: container.Type, Kind: container.Kind, Children: before})
	}
	replacement = append(replacement, child)
	if len(after) > 0 {
		replacement = append(replacement, &Node{Type: container.Type, Kind: container.Kind, Children: after})
	}

	*outerSiblings = append((*outerSiblings)[:wi], append(replacement, (*outerSiblings)[wi+1:]...)...)
	return nil
}

// liftListItem moves the item covering sp out of its list. The item's
// blocks drop their task state on the way out.
func (d *Document) liftListItem(sp leafSpan) error {
	item := sp.parents[len(sp.parents)-1]
	listIdx := len(sp.parents) - 2
	if listIdx < 0 || sp.parents[listIdx].Type != NodeList {
		return validationf("lift: list item without a list parent")
	}
	list := sp.parents[listIdx]

	outerParents := sp.parents[:listIdx]
	outer := immediateParent(outerParents)
	outerSiblings := d.siblings(outer)

	ii := indexOf(list.Children, item)
	li := indexOf(*outerSiblings, list)
	if ii < 0 || li < 0 {
		return validationf("lift: could not resolve list position")
	}

	before := append([]*Node(nil), list.Children[:ii]...)
	after := append([]*Node(nil), list.Children[ii+1:]...)

	var replacement []*Node
	if len(before) > 0 {
		replacement = append(replacement, &Node{Type: NodeList, Kind: list.Kind, Children: before})
	}
	replacement = append(replacement, item.Children...)
	if len(after) > 0 {
		replacement = append(replacement, &Node{Type: NodeList, Kind: list.Kind, Children: after})
	}

	*outerSiblings = append((*outerSiblings)[:li], append(replacement, (*outerSiblings)[li+1:]...)...)
	return nil
}

// SplitBlock splits the leaf at Pos into two sibling leaves of the same
// type. The caret lands at the start of the new leaf.
type SplitBlock struct {
	Pos int
}

func (op SplitBlock) apply(d *Document, sel Selection) (Selection, error) {
	sp, ok := d.leafAt(op.Pos)
	if !ok {
		return sel, validationf("split at %d: position out of range", op.Pos)
	}
	n := sp.node
	if n.Type == NodeRule {
		return sel, validationf("split at %d: cannot split a rule", op.Pos)
	}

	offset := op.Pos - sp.start
	tail := tailRuns(n.Runs, offset)
	n.Runs = headRuns(n.Runs, offset)

	next := &Node{Type: n.Type, Level: n.Level, Language: n.Language, Runs: tail}

	parent := immediateParent(sp.parents)
	siblings := d.siblings(parent)
	i := indexOf(*siblings, n)
	if i < 0 {
		return sel, validationf("split: could not resolve block position")
	}
	insertChild(siblings, i+1, next)

	ns := MapSelection(sel, op.Pos, 0, 1)
	if sel.IsCaret() && sel.Head == op.Pos {
		ns = Caret(op.Pos + 1)
	}
	return ns, nil
}

// SplitItem splits the list item enclosing Pos into two items at that
// position. The new item inherits the task checkbox unchecked.
type SplitItem struct {
	Pos int
}

func (op SplitItem) apply(d *Document, sel Selection) (Selection, error) {
	sp, ok := d.leafAt(op.Pos)
	if !ok {
		return sel, validationf("split item at %d: position out of range", op.Pos)
	}
	item := nearestAncestor(sp.parents, NodeListItem)
	if item == nil {
		return sel, validationf("split item at %d: not inside a list item", op.Pos)
	}
	itemIdx := -1
	for i, p := range sp.parents {
		if p == item {
			itemIdx = i
		}
	}
	list := immediateParent(sp.parents[:itemIdx])
	if list == nil || list.Type != NodeList {
		return sel, validationf("split item: item without a list parent")
	}

	// Split the covered leaf, then move the trailing half (and any blocks
	// after it inside the item) into a fresh item.
	n := sp.node
	offset := op.Pos - sp.start
	tail := tailRuns(n.Runs, offset)
	n.Runs = headRuns(n.Runs, offset)
	tailLeaf := &Node{Type: n.Type, Level: n.Level, Language: n.Language, Runs: tail}

	covered := childCovering(item, n)
	ci := indexOf(item.Children, covered)
	if ci < 0 {
		return sel, validationf("split item: could not resolve item position")
	}

	moved := append([]*Node{tailLeaf}, item.Children[ci+1:]...)
	item.Children = item.Children[:ci+1]

	newItem := &Node{Type: NodeListItem, Children: moved}
	if item.Checked != CheckNone {
		newItem.Checked = CheckUnchecked
	}

	ii := indexOf(list.Children, item)
	insertChild(&list.Children, ii+1, newItem)

	ns := MapSelection(sel, op.Pos, 0, 1)
	if sel.IsCaret() && sel.Head == op.Pos {
		ns = Caret(op.Pos + 1)
	}
	return ns, nil
}

// MergeBlocks joins the leaf containing Pos with the leaf before it,
// absorbing its text (marks stripped when merging into a code block).
type MergeBlocks struct {
	Pos int
}

func (op MergeBlocks) apply(d *Document, sel Selection) (Selection, error) {
	spans := d.spans()
	var idx = -1
	for i, sp := range spans {
		if op.Pos >= sp.start && op.Pos <= sp.end {
			idx = i
			break
		}
	}
	if idx < 0 {
		return sel, validationf("merge at %d: position out of range", op.Pos)
	}
	if idx == 0 {
		return sel, validationf("merge at %d: no previous block", op.Pos)
	}

	prev, cur := spans[idx-1], spans[idx]
	if prev.node.Type == NodeRule || cur.node.Type == NodeRule {
		return sel, validationf("merge at %d: cannot merge a rule", op.Pos)
	}

	absorbed := cur.node.Runs
	if prev.node.Type == NodeCodeBlock {
		absorbed = stripMarks(absorbed)
	}
	prev.node.Runs = append(prev.node.Runs, absorbed...)
	d.removeLeaf(cur)

	return MapSelection(sel, prev.end, 1, 0), nil
}

// InsertBlockAfter inserts a block as the next sibling of the block
// containing Pos, at the same nesting depth. The caret lands at the start
// of the new block.
type InsertBlockAfter struct {
	Pos   int
	Block *Node
}

func (op InsertBlockAfter) apply(d *Document, sel Selection) (Selection, error) {
	if op.Block == nil {
		return sel, validationf("insert block: nil block")
	}
	sp, ok := d.leafAt(op.Pos)
	if !ok {
		return sel, validationf("insert block at %d: position out of range", op.Pos)
	}
	parent := immediateParent(sp.parents)
	siblings := d.siblings(parent)
	i := indexOf(*siblings, sp.node)
	if i < 0 {
		return sel, validationf("insert block: could not resolve position")
	}
	insertChild(siblings, i+1, op.Block)
	return Caret(sp.end + 1), nil
}

// IndentItem nests the list item at Pos one level deeper by moving it into
// a sublist of the previous item. The first item of a list cannot indent.
type IndentItem struct {
	Pos int
}

func (op IndentItem) apply(d *Document, sel Selection) (Selection, error) {
	sp, ok := d.leafAt(op.Pos)
	if !ok {
		return sel, validationf("indent at %d: position out of range", op.Pos)
	}
	item := nearestAncestor(sp.parents, NodeListItem)
	if item == nil {
		return sel, validationf("indent at %d: not inside a list item", op.Pos)
	}
	list := parentOf(sp.parents, item)
	if list == nil || list.Type != NodeList {
		return sel, validationf("indent: item without a list parent")
	}
	ii := indexOf(list.Children, item)
	if ii <= 0 {
		return sel, validationf("indent: first item cannot nest")
	}

	prev := list.Children[ii-1]
	removeChild(&list.Children, ii)

	// Reuse a trailing sublist on the previous item when present, otherwise
	// open a new one of the same kind.
	var sub *Node
	if n := len(prev.Children); n > 0 && prev.Children[n-1].Type == NodeList {
		sub = prev.Children[n-1]
	} else {
		sub = &Node{Type: NodeList, Kind: list.Kind}
		prev.Children = append(prev.Children, sub)
	}
	if sub.Kind != ListTask && item.Checked != CheckNone {
		item.Checked = CheckNone
	}
	if sub.Kind == ListTask && item.Checked == CheckNone {
		item.Checked = CheckUnchecked
	}
	sub.Children = append(sub.Children, item)

	return sel, nil // leaf order unchanged, offsets stable
}

// OutdentItem lifts the list item at Pos one level up. An item in a
// top-level list leaves the list entirely, becoming a paragraph-level
// block.
type OutdentItem struct {
	Pos int
}

func (op OutdentItem) apply(d *Document, sel Selection) (Selection, error) {
	sp, ok := d.leafAt(op.Pos)
	if !ok {
		return sel, validationf("outdent at %d: position out of range", op.Pos)
	}
	item := nearestAncestor(sp.parents, NodeListItem)
	if item == nil {
		return sel, validationf("outdent at %d: not inside a list item", op.Pos)
	}
	list := parentOf(sp.parents, item)
	if list == nil || list.Type != NodeList {
		return sel, validationf("outdent: item without a list parent")
	}

	// A nested item becomes a sibling of the item holding it; a top-level
	// item leaves the list entirely.
	outerItem := parentOf(sp.parents, list)
	if outerItem == nil || outerItem.Type != NodeListItem {
		return sel, d.liftListItem(sp)
	}
	outerList := parentOf(sp.parents, outerItem)
	if outerList == nil || outerList.Type != NodeList {
		return sel, validationf("outdent: nested item without an outer list")
	}

	ii := indexOf(list.Children, item)
	if ii < 0 {
		return sel, validationf("outdent: could not resolve item position")
	}

	// Items after it stay in order by nesting under the moved item.
	trailing := append([]*Node(nil), list.Children[ii+1:]...)
	list.Children = list.Children[:ii]
	if li := indexOf(outerItem.Children, list); li >= 0 && len(list.Children) == 0 {
		removeChild(&outerItem.Children, li)
	}
	if len(trailing) > 0 {
		item.Children = append(item.Children, &Node{Type: NodeList, Kind: list.Kind, Children: trailing})
	}

	if outerList.Kind == ListTask && item.Checked == CheckNone {
		item.Checked = CheckUnchecked
	}
	if outerList.Kind != ListTask {
		item.Checked = CheckNone
	}

	oi := indexOf(outerList.Children, outerItem)
	insertChild(&outerList.Children, oi+1, item)
	return sel, nil
}

// =============================================================================
// RUN SPLICING HELPERS
// =============================================================================

// spliceRuns replaces delLen runes starting at offset with the given runs.
func spliceRuns(runs []Run, offset, delLen int, ins []Run) []Run {
	head := headRuns(runs, offset)
	tail := tailRuns(runs, offset+delLen)
	out := make([]Run, 0, len(head)+len(ins)+len(tail))
	out = append(out, head...)
	out = append(out, ins...)
	out = append(out, tail...)
	return normalizeRuns(out)
}

// headRuns returns the runs covering [0, offset).
func headRuns(runs []Run, offset int) []Run {
	var out []Run
	seen := 0
	for _, r := range runs {
		rl := r.runeLen()
		if seen+rl <= offset {
			out = append(out, r)
			seen += rl
			continue
		}
		if offset > seen {
			rs := []rune(r.Text)
			out = append(out, Run{Text: string(rs[:offset-seen]), Marks: r.Marks})
		}
		break
	}
	return out
}

// tailRuns returns the runs covering [offset, end).
func tailRuns(runs []Run, offset int) []Run {
	var out []Run
	seen := 0
	for _, r := range runs {
		rl := r.runeLen()
		if seen >= offset {
			out = append(out, r)
			seen += rl
			continue
		}
		if seen+rl > offset {
			rs := []rune(r.Text)
			out = append(out, Run{Text: string(rs[offset-seen:]), Marks: r.Marks})
		}
		seen += rl
	}
	return out
}

// rewriteMarks applies f to the mark sets of the characters in [lo, hi).
func rewriteMarks(runs []Run, lo, hi int, f func([]Mark) []Mark) []Run {
	var out []Run
	seen := 0
	for _, r := range runs {
		rl := r.runeLen()
		rLo, rHi := seen, seen+rl
		seen = rHi

		if rHi <= lo || rLo >= hi {
			out = append(out, r)
			continue
		}
		rs := []rune(r.Text)
		cutLo, cutHi := max(lo-rLo, 0), min(hi-rLo, rl)
		if cutLo > 0 {
			out = append(out, Run{Text: string(rs[:cutLo]), Marks: r.Marks})
		}
		out = append(out, Run{Text: string(rs[cutLo:cutHi]), Marks: f(append([]Mark(nil), r.Marks...))})
		if cutHi < rl {
			out = append(out, Run{Text: string(rs[cutHi:]), Marks: r.Marks})
		}
	}
	return normalizeRuns(out)
}

// stripMarks removes every mark from the given runs.
func stripMarks(runs []Run) []Run {
	out := make([]Run, len(runs))
	for i, r := range runs {
		out[i] = Run{Text: r.Text}
	}
	return normalizeRuns(out)
}

// =============================================================================
// TREE HELPERS
// =============================================================================

// siblings returns the child slice that holds the children of parent, or
// the document's top-level blocks for a nil parent.
func (d *Document) siblings(parent *Node) *[]*Node {
	if parent == nil {
		return &d.Blocks
	}
	return &parent.Children
}

// immediateParent returns the last node of a parent chain, nil at the top.
func immediateParent(parents []*Node) *Node {
	if len(parents) == 0 {
		return nil
	}
	return parents[len(parents)-1]
}

// parentOf returns the node directly above target in the chain.
func parentOf(parents []*Node, target *Node) *Node {
	for i, p := range parents {
		if p == target {
			if i == 0 {
				return nil
			}
			return parents[i-1]
		}
	}
	return nil
}

// nearestAncestor returns the innermost ancestor of the given type.
func nearestAncestor(parents []*Node, t NodeType) *Node {
	for i := len(parents) - 1; i >= 0; i-- {
		if parents[i].Type == t {
			return parents[i]
		}
	}
	return nil
}

// topChild returns the direct child of parent on the path down to sp's
// leaf (the leaf itself when parent is its immediate parent).
func topChild(sp leafSpan, parent *Node) *Node {
	if immediateParent(sp.parents) == parent {
		return sp.node
	}
	for i, p := range sp.parents {
		if p == parent {
			return sp.parents[i+1]
		}
	}
	if parent == nil && len(sp.parents) > 0 {
		return sp.parents[0]
	}
	return sp.node
}

// childCovering returns the direct child of container on the path to leaf.
func childCovering(container *Node, leaf *Node) *Node {
	var find func(n *Node) bool
	find = func(n *Node) bool {
		if n == leaf {
			return true
		}
		for _, ch := range n.Children {
			if find(ch) {
				return true
			}
		}
		return false
	}
	for _, ch := range container.Children {
		if find(ch) {
			return ch
		}
	}
	return nil
}

// indexOf returns the index of n in list, -1 when absent.
func indexOf(list []*Node, n *Node) int {
	for i, c := range list {
		if c == n {
			return i
		}
	}
	return -1
}

// insertChild inserts nodes at index i.
func insertChild(list *[]*Node, i int, nodes ...*Node) {
	*list = append((*list)[:i], append(append([]*Node(nil), nodes...), (*list)[i:]...)...)
}

// removeChild removes the node at index i.
func removeChild(list *[]*Node, i int) {
	*list = append((*list)[:i], (*list)[i+1:]...)
}

// removeLeaf removes a leaf from its parent and prunes any containers
// emptied by the removal.
func (d *Document) removeLeaf(sp leafSpan) {
	parent := immediateParent(sp.parents)
	siblings := d.siblings(parent)
	if i := indexOf(*siblings, sp.node); i >= 0 {
		removeChild(siblings, i)
	}
	for i := len(sp.parents) - 1; i >= 0; i-- {
		n := sp.parents[i]
		if len(n.Children) > 0 {
			break
		}
		var outer *Node
		if i > 0 {
			outer = sp.parents[i-1]
		}
		outerSiblings := d.siblings(outer)
		if j := indexOf(*outerSiblings, n); j >= 0 {
			removeChild(outerSiblings, j)
		}
	}
}

// pruneEmpty drops empty containers and guarantees the document keeps at
// least one block.
func (d *Document) pruneEmpty() {
	var prune func(list *[]*Node)
	prune = func(list *[]*Node) {
		out := (*list)[:0]
		for _, n := range *list {
			if n.Type.IsContainer() {
				prune(&n.Children)
				if len(n.Children) == 0 {
					continue
				}
			}
			out = append(out, n)
		}
		*list = out
	}
	prune(&d.Blocks)
	if len(d.Blocks) == 0 {
		d.Blocks = []*Node{NewParagraph("")}
	}
}

// normalizeLeaves normalizes every leaf's run list.
func (d *Document) normalizeLeaves() {
	for _, sp := range d.spans() {
		sp.node.Runs = normalizeRuns(sp.node.Runs)
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// validate checks the structural invariants of the document tree.
func (d *Document) validate() error {
	if len(d.Blocks) == 0 {
		return validationf("document has no blocks")
	}
	var check func(n *Node, parent *Node) error
	check = func(n *Node, parent *Node) error {
		switch n.Type {
		case NodeHeading:
			if n.Level < 1 || n.Level > 6 {
				return validationf("heading level %d out of range", n.Level)
			}
		case NodeCodeBlock:
			for _, r := range n.Runs {
				if len(r.Marks) > 0 {
					return validationf("code block content carries marks")
				}
			}
			if len(n.Children) > 0 {
				return validationf("code block holds child blocks")
			}
		case NodeRule:
			if len(n.Runs) > 0 || len(n.Children) > 0 {
				return validationf("rule holds content")
			}
		case NodeList:
			if len(n.Children) == 0 {
				return validationf("empty list")
			}
			for _, ch := range n.Children {
				if ch.Type != NodeListItem {
					return validationf("list holds %s", ch.Type)
				}
			}
		case NodeListItem:
			if parent == nil || parent.Type != NodeList {
				return validationf("list item outside a list")
			}
			if len(n.Children) == 0 {
				return validationf("empty list item")
			}
			isTask := parent.Kind == ListTask
			if isTask && n.Checked == CheckNone {
				return validationf("task list item without a checkbox")
			}
			if !isTask && n.Checked != CheckNone {
				return validationf("checkbox on a non-task list item")
			}
		case NodeBlockquote:
			if len(n.Children) == 0 {
				return validationf("empty blockquote")
			}
		}
		// Link marks are exclusive per run.
		for _, r := range n.Runs {
			links := 0
			for _, m := range r.Marks {
				if m.Type == MarkLink {
					links++
				}
			}
			if links > 1 {
				return validationf("run carries multiple links")
			}
		}
		for _, ch := range n.Children {
			if err := check(ch, n); err != nil {
				return err
			}
		}
		return nil
	}
	for _, b := range d.Blocks {
		if err := check(b, nil); err != nil {
			return err
		}
	}
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
