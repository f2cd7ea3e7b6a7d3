package parser

import (
	"strings"

	"github.com/dgallion1/syllabest/internal/doctree"
)

// treeBuilder nests headings by level and attaches text and tables to the
// innermost open heading. Content before the first heading becomes an
// untitled leading node.
type treeBuilder struct {
	root    *doctree.DocNode
	stack   []stackEntry
	current strings.Builder
}

type stackEntry struct {
	node  *doctree.DocNode
	level int
}

func newTreeBuilder(title string) *treeBuilder {
	root := &doctree.DocNode{Title: title}
	return &treeBuilder{root: root, stack: []stackEntry{{node: root, level: 0}}}
}

func (b *treeBuilder) top() *doctree.DocNode {
	return b.stack[len(b.stack)-1].node
}

func (b *treeBuilder) flush() {
	t := strings.TrimSpace(b.current.String())
	if t != "" {
		top := b.top()
		if top.Text != "" {
			top.Text += "\n\n" + t
		} else {
			top.Text = t
		}
	}
	b.current.Reset()
}

func (b *treeBuilder) heading(level int, title string) {
	if title == "" {
		return
	}
	b.flush()
	node := &doctree.DocNode{Title: title}
	// Pop until the parent has a lower level.
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.top()
	parent.Children = append(parent.Children, node)
	b.stack = append(b.stack, stackEntry{node: node, level: level})
}

func (b *treeBuilder) text(t string) {
	if t == "" {
		return
	}
	if b.current.Len() > 0 {
		b.current.WriteString("\n\n")
	}
	b.current.WriteString(t)
}

func (b *treeBuilder) table(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	b.flush()
	top := b.top()
	top.Tables = append(top.Tables, rows)
}

func (b *treeBuilder) finish() []*doctree.DocNode {
	b.flush()
	children := b.root.Children
	if b.root.Text != "" || len(b.root.Tables) > 0 {
		lead := &doctree.DocNode{Text: b.root.Text, Tables: b.root.Tables}
		children = append([]*doctree.DocNode{lead}, children...)
	}
	return children
}
