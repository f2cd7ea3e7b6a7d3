package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/syllabest/internal/doctree"
)

// CSVParser handles CSV files as a single page holding one table.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Source, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	src := &doctree.Source{Name: filename}
	text := doctree.RowsText(records)
	if text == "" {
		return src, nil
	}
	src.PageCount = 1
	src.Pages = []doctree.PageText{{Number: 1, Text: text}}
	src.Tables = []doctree.Table{{Page: 1, Rows: records, Text: text}}
	return src, nil
}
