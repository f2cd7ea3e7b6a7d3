package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/syllabest/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. GFM tables become
// Source tables.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Source, error) {
	tree, err := p.Tree(r, filename)
	if err != nil {
		return nil, err
	}
	return tree.Source(filename), nil
}

// Tree builds the heading hierarchy of a Markdown document.
func (p *MarkdownParser) Tree(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	tree := &doctree.DocTree{Title: Stem(filename)}
	b := newTreeBuilder(tree.Title)

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			b.heading(node.Level, extractText(n, src))
		case *east.Table:
			b.table(markdownRows(node, src))
		default:
			b.text(extractText(n, src))
		}
	}
	tree.Children = b.finish()
	return tree, nil
}

func markdownRows(t *east.Table, src []byte) [][]string {
	var rows [][]string
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, extractText(cell, src))
		}
		rows = append(rows, cells)
	}
	return rows
}

// extractText gets the text content of a goldmark AST node. Blocks with
// inline children are walked; leaf blocks such as code use their lines.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	writeInline(&buf, n, src)
	return strings.TrimSpace(buf.String())
}

func writeInline(buf *bytes.Buffer, n ast.Node, src []byte) {
	if !n.HasChildren() {
		if n.Type() == ast.TypeBlock {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(src))
			}
		}
		switch t := n.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		writeInline(buf, c, src)
		if c.Type() == ast.TypeBlock && c.NextSibling() != nil {
			buf.WriteString("\n")
		}
	}
}
