package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingHierarchy(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

### Subsection A1

Subsection A1 content.

## Section B

Section B content.
`
	p := &MarkdownParser{}
	tree, err := p.Tree(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tree.Title != "doc" {
		t.Errorf("expected title %q, got %q", "doc", tree.Title)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 top-level child (h1), got %d", len(tree.Children))
	}

	h1 := tree.Children[0]
	if h1.Title != "Title" {
		t.Errorf("expected h1 title %q, got %q", "Title", h1.Title)
	}
	if h1.Text != "Intro text." {
		t.Errorf("expected h1 text %q, got %q", "Intro text.", h1.Text)
	}
	if len(h1.Children) != 2 {
		t.Fatalf("expected 2 h2 children, got %d", len(h1.Children))
	}

	secA := h1.Children[0]
	if secA.Title != "Section A" || secA.Text != "Section A content." {
		t.Errorf("section A = %q / %q", secA.Title, secA.Text)
	}
	if len(secA.Children) != 1 || secA.Children[0].Title != "Subsection A1" {
		t.Fatalf("expected Subsection A1 under Section A")
	}
	if h1.Children[1].Title != "Section B" {
		t.Errorf("expected %q, got %q", "Section B", h1.Children[1].Title)
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	input := `Just some plain text.

Another paragraph here.`

	p := &MarkdownParser{}
	tree, err := p.Tree(strings.NewReader(input), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 child for headingless markdown, got %d", len(tree.Children))
	}
	text := tree.Children[0].Text
	if !strings.Contains(text, "Just some plain text.") || !strings.Contains(text, "Another paragraph here.") {
		t.Errorf("unexpected text %q", text)
	}
}

func TestMarkdownParser_CodeBlockKeptInSection(t *testing.T) {
	input := "# API Reference\n\nSome intro.\n\n## Endpoints\n\nList of endpoints:\n\n```\nGET /api/users\nPOST /api/users\n```\n\nMore text after code.\n"

	p := &MarkdownParser{}
	tree, err := p.Tree(strings.NewReader(input), "api.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	endpoints := tree.Children[0].Children[0]
	if !strings.Contains(endpoints.Text, "GET /api/users") {
		t.Errorf("expected code block content in text, got %q", endpoints.Text)
	}
	if !strings.Contains(endpoints.Text, "More text after code.") {
		t.Errorf("expected post-code text, got %q", endpoints.Text)
	}
}

func TestMarkdownParser_TableBecomesSourceTable(t *testing.T) {
	input := `# Programme

| Séances | Thèmes | Travail à domicile | Références | Evaluation |
|---|---|---|---|---|
| 1 | Graphes | Lire ch. 1 | | |

# Compétences

RNCP1 Analyser RNCP2 Concevoir
`
	p := &MarkdownParser{}
	src, err := p.Parse(strings.NewReader(input), "plan.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.Pages) != 2 {
		t.Fatalf("expected one page per top-level heading, got %d", len(src.Pages))
	}
	if len(src.Tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(src.Tables))
	}
	tbl := src.Tables[0]
	if tbl.Page != 1 || tbl.Width() != 5 {
		t.Errorf("table page=%d width=%d", tbl.Page, tbl.Width())
	}
	if len(tbl.Rows) != 2 || tbl.Rows[1][1] != "Graphes" {
		t.Errorf("rows = %q", tbl.Rows)
	}
	if !strings.HasPrefix(src.Pages[1].Text, "Compétences\n") {
		t.Errorf("heading should stay as first line, got %q", src.Pages[1].Text)
	}
	if strings.Contains(src.Outside[0].Text, "Graphes") {
		t.Errorf("table text leaked outside: %q", src.Outside[0].Text)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	src, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.Pages) != 0 {
		t.Errorf("expected 0 pages for empty input, got %d", len(src.Pages))
	}
}

func TestMarkdownParser_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"dir/plain.md", "plain"},
	}
	p := &MarkdownParser{}
	for _, tt := range tests {
		tree, err := p.Tree(strings.NewReader("text"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if tree.Title != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, tree.Title)
		}
	}
}

func TestHTMLParser_TablesAndHeadings(t *testing.T) {
	input := `<html><head><title>Syllabus</title></head><body>
<h1>Détails du syllabus</h1><p>Matière : Réseaux</p>
<table><tr><th>Examen</th><th>QCM</th></tr><tr><td>X</td><td></td></tr></table>
<h1>Objectifs pédagogiques</h1><p>Comprendre TCP</p>
</body></html>`
	p := &HTMLParser{}
	src, err := p.Parse(strings.NewReader(input), "s.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(src.Pages))
	}
	if len(src.Tables) != 1 || src.Tables[0].Rows[0][1] != "QCM" || src.Tables[0].Rows[1][0] != "X" {
		t.Errorf("tables = %+v", src.Tables)
	}
	if src.Pages[1].Text != "Objectifs pédagogiques\nComprendre TCP" {
		t.Errorf("page 2 = %q", src.Pages[1].Text)
	}
}
