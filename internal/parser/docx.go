package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/syllabest/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Word tables become Source tables.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Source, error) {
	tree, err := p.Tree(r, filename)
	if err != nil {
		return nil, err
	}
	return tree.Source(filename), nil
}

// Tree builds the heading hierarchy of a Word document.
func (p *DOCXParser) Tree(r io.Reader, filename string) (*doctree.DocTree, error) {
	// go-docx needs a ReaderAt and a size.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	tree := &doctree.DocTree{Title: Stem(filename)}
	b := newTreeBuilder(tree.Title)

	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			text := docxParagraphText(it)
			if level := docxHeadingLevel(it); level > 0 {
				b.heading(level, text)
			} else {
				b.text(text)
			}
		case *docx.Table:
			b.table(docxRows(it))
		}
	}
	tree.Children = b.finish()
	return tree, nil
}

func docxRows(t *docx.Table) [][]string {
	var rows [][]string
	for _, tr := range t.TableRows {
		cells := make([]string, 0, len(tr.TableCells))
		for _, tc := range tr.TableCells {
			var paras []string
			for _, para := range tc.Paragraphs {
				if s := docxParagraphText(para); s != "" {
					paras = append(paras, s)
				}
			}
			cells = append(cells, strings.Join(paras, "\n"))
		}
		rows = append(rows, cells)
	}
	return rows
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if len(style) == len("heading1") && strings.HasPrefix(style, "heading") {
		if d := style[len(style)-1]; d >= '1' && d <= '6' {
			return int(d - '0')
		}
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
