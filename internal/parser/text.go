package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/syllabest/internal/doctree"
)

// TextParser handles plain text files. Form feeds separate pages, as in
// pdftotext output; blank-line runs inside a page collapse to one.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Source, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var pages [][]string
	var paragraphs []string
	var current strings.Builder

	endParagraph := func() {
		if current.Len() > 0 {
			paragraphs = append(paragraphs, current.String())
			current.Reset()
		}
	}
	endPage := func() {
		endParagraph()
		pages = append(pages, paragraphs)
		paragraphs = nil
	}

	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), "\f")
		for i, line := range parts {
			if i > 0 {
				endPage()
			}
			if strings.TrimSpace(line) == "" {
				endParagraph()
				continue
			}
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	endPage()

	src := &doctree.Source{Name: filename}
	for i, paras := range pages {
		text := strings.Join(paras, "\n\n")
		if text == "" {
			continue
		}
		pt := doctree.PageText{Number: i + 1, Text: text}
		src.Pages = append(src.Pages, pt)
		src.Outside = append(src.Outside, pt)
		src.PageCount = i + 1
	}
	return src, nil
}
