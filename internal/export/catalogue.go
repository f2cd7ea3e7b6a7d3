// Package export writes the parsed documents of a run as an XLSX catalogue:
// one sheet per document type, one row per document.
package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/syllabest/internal/doctree"
	"github.com/dgallion1/syllabest/internal/document"
)

// Sheet names.
const (
	SheetCourses  = "Cours"
	SheetSubjects = "Syllabus matière"
	SheetProjects = "Syllabus projet"
)

// Catalogue holds the documents to export.
type Catalogue struct {
	Courses  []doctree.CourseDocument
	Subjects []doctree.Document
	Projects []doctree.Document
}

// column reads one cell of a document row.
type column struct {
	header string
	value  func(doctree.Document) any
}

// Write renders the catalogue and returns the workbook bytes.
func Write(c Catalogue, log *slog.Logger) ([]byte, error) {
	if log == nil {
		log = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}

	courseRows := make([][]any, 0, len(c.Courses))
	for _, d := range c.Courses {
		courseRows = append(courseRows, []any{d.Meta.Source, d.Meta.PageCount, nonEmptyPages(d)})
	}
	if err := writeSheet(f, SheetCourses, []string{"Fichier", "Pages", "Pages avec texte"}, courseRows, bold, log); err != nil {
		return nil, err
	}
	for _, s := range []struct {
		name string
		typ  string
		docs []doctree.Document
	}{
		{SheetSubjects, doctree.TypeSubject, c.Subjects},
		{SheetProjects, doctree.TypeProject, c.Projects},
	} {
		cols := columns(s.typ)
		headers := make([]string, len(cols))
		for i, col := range cols {
			headers[i] = col.header
		}
		rows := make([][]any, 0, len(s.docs))
		for _, d := range s.docs {
			row := make([]any, len(cols))
			for i, col := range cols {
				row[i] = col.value(d)
			}
			rows = append(rows, row)
		}
		if err := writeSheet(f, s.name, headers, rows, bold, log); err != nil {
			return nil, err
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("xlsx delete default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(SheetSubjects); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	log.Info("export.xlsx.ok",
		"courses", len(c.Courses),
		"subjects", len(c.Subjects),
		"projects", len(c.Projects),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any, style int, log *slog.Logger) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("xlsx sheet %q: %w", sheet, err)
	}
	for i, h := range headers {
		if err := setCell(f, sheet, i+1, 1, h); err != nil {
			return err
		}
	}
	if len(headers) > 0 {
		last, err := excelize.CoordinatesToCellName(len(headers), 1)
		if err != nil {
			return fmt.Errorf("xlsx header range: %w", err)
		}
		if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
			return fmt.Errorf("xlsx header style: %w", err)
		}
	}
	for r, row := range rows {
		for i, v := range row {
			if s, ok := v.(string); ok && utf8.RuneCountInString(s) > excelize.TotalCellChars {
				log.Warn("export.xlsx.truncated",
					"sheet", sheet,
					"row", r+2,
					"column", i+1,
					"chars", utf8.RuneCountInString(s),
				)
				v = string([]rune(s)[:excelize.TotalCellChars])
			}
			if err := setCell(f, sheet, i+1, r+2, v); err != nil {
				return err
			}
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 36); err != nil {
		return fmt.Errorf("xlsx column width: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("xlsx cell: %w", err)
	}
	if err := f.SetCellValue(sheet, cell, v); err != nil {
		return fmt.Errorf("xlsx %s!%s: %w", sheet, cell, err)
	}
	return nil
}

// columns flattens the schema of a document type: one column per group
// field, one per leaf section, one per list section.
func columns(docType string) []column {
	cols := []column{{header: "Fichier", value: func(d doctree.Document) any { return d.Source }}}
	for _, sec := range document.Schema(docType) {
		switch {
		case sec.List:
			cols = append(cols, column{header: sec.Section, value: listCell(sec.Section)})
		case sec.Fields != nil:
			for _, name := range sec.Fields {
				cols = append(cols, column{header: sec.Section + " / " + name, value: fieldCell(sec.Section, name)})
			}
		default:
			cols = append(cols, column{header: sec.Section, value: leafCell(sec.Section)})
		}
	}
	return cols
}

func fieldCell(section, name string) func(doctree.Document) any {
	return func(d doctree.Document) any {
		n, _ := d.Section(section)
		g, _ := n.(doctree.Group)
		return g.Field(name).Text()
	}
}

func leafCell(section string) func(doctree.Document) any {
	return func(d doctree.Document) any {
		n, _ := d.Section(section)
		v, _ := n.(doctree.FieldValue)
		return v.Text()
	}
}

// listCell joins plain items one per line and counts record items.
func listCell(section string) func(doctree.Document) any {
	return func(d doctree.Document) any {
		n, _ := d.Section(section)
		l, _ := n.(doctree.List)
		var lines []string
		records := 0
		for _, item := range l {
			if v, ok := item.(doctree.FieldValue); ok {
				if !v.Empty() {
					lines = append(lines, v.Text())
				}
				continue
			}
			records++
		}
		if len(lines) == 0 {
			return records
		}
		return strings.Join(lines, "\n")
	}
}

func nonEmptyPages(d doctree.CourseDocument) int {
	n := 0
	for _, p := range d.Pages {
		if strings.TrimSpace(p.Text) != "" {
			n++
		}
	}
	return n
}
