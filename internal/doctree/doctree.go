package doctree

import "strings"

// PageText is the text of one source page. Number starts at 1.
type PageText struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
}

// Table is one table detected on a page.
type Table struct {
	Page  int        // Page the table sits on
	Index int        // Discovery order on that page
	Rows  [][]string // Cell grid, first row is the header when there is one
	Text  string     // Line-preserving text inside the table bounds
}

// Header returns the first row, or nil for an empty table.
func (t Table) Header() []string {
	if len(t.Rows) == 0 {
		return nil
	}
	return t.Rows[0]
}

// Width returns the number of cells in the first row.
func (t Table) Width() int {
	return len(t.Header())
}

// Source is everything a loader pulled out of one input file.
type Source struct {
	Name      string     // Base file name
	PageCount int        // Pages in the file, even those without text
	Pages     []PageText // Full page text, ordered by Number
	Tables    []Table    // Tables ordered by (Page, Index)
	Outside   []PageText // Text outside table regions, ordered by Number
}

// DocTree is the heading structure of a source without page boundaries
// (Markdown, HTML, DOCX). Loaders flatten it with Source.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string       // Section heading (empty for leaf text)
	Text     string       // Text content of this node (may be empty for container nodes)
	Tables   [][][]string // Tables that appear under this heading
	Children []*DocNode   // Subsections
}

// Source flattens the tree into one page per top-level section. The heading
// stays as the first line so section patterns still find it, nested
// headings are kept inline in reading order and tables land on the page of
// their top-level section.
func (t *DocTree) Source(name string) *Source {
	src := &Source{Name: name}
	for _, child := range t.Children {
		var sb strings.Builder
		var tables [][][]string
		writeNode(&sb, child, &tables)
		text := strings.TrimSpace(sb.String())
		if text == "" && len(tables) == 0 {
			continue
		}
		page := len(src.Pages) + 1
		src.Pages = append(src.Pages, PageText{Number: page, Text: text})

		var outside strings.Builder
		writeText(&outside, child)
		if o := strings.TrimSpace(outside.String()); o != "" {
			src.Outside = append(src.Outside, PageText{Number: page, Text: o})
		}
		for i, rows := range tables {
			src.Tables = append(src.Tables, Table{Page: page, Index: i, Rows: rows, Text: RowsText(rows)})
		}
	}
	src.PageCount = len(src.Pages)
	return src
}

// RowsText renders a cell grid as one line per row, cells separated by a
// space, empty cells dropped.
func RowsText(rows [][]string) string {
	var lines []string
	for _, row := range rows {
		var cells []string
		for _, c := range row {
			if c = strings.TrimSpace(c); c != "" {
				cells = append(cells, c)
			}
		}
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, " "))
		}
	}
	return strings.Join(lines, "\n")
}

func writeNode(sb *strings.Builder, n *DocNode, tables *[][][]string) {
	if n.Title != "" {
		sb.WriteString(n.Title)
		sb.WriteString("\n")
	}
	if n.Text != "" {
		sb.WriteString(n.Text)
		sb.WriteString("\n")
	}
	for _, rows := range n.Tables {
		*tables = append(*tables, rows)
		sb.WriteString(RowsText(rows))
		sb.WriteString("\n")
	}
	for _, c := range n.Children {
		writeNode(sb, c, tables)
	}
}

func writeText(sb *strings.Builder, n *DocNode) {
	if n.Title != "" {
		sb.WriteString(n.Title)
		sb.WriteString("\n")
	}
	if n.Text != "" {
		sb.WriteString(n.Text)
		sb.WriteString("\n")
	}
	for _, c := range n.Children {
		writeText(sb, c)
	}
}
