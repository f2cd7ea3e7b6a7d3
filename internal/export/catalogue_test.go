package export

import (
	"bytes"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/syllabest/internal/doctree"
	"github.com/dgallion1/syllabest/internal/document"
)

func TestWrite_Sheets(t *testing.T) {
	subject := document.Subject(&doctree.Source{
		Name:  "algo.pdf",
		Pages: []doctree.PageText{{Number: 1, Text: "Détails du syllabus\nMatière : Algorithmique"}},
	})
	project := document.Project(&doctree.Source{
		Name: "projet.pdf",
		Tables: []doctree.Table{{
			Page: 3,
			Rows: [][]string{{"1", "Rapport", "Remis en PDF", "lundi 12/05/2025 23h59"}},
		}},
	})
	course := doctree.CourseDocument{
		Meta:  doctree.CourseMeta{Source: "cours.pdf", PageCount: 2},
		Pages: []doctree.PageText{{Number: 1, Text: "a"}, {Number: 2}},
	}

	b, err := Write(Catalogue{
		Courses:  []doctree.CourseDocument{course},
		Subjects: []doctree.Document{subject},
		Projects: []doctree.Document{project},
	}, nil)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	for _, want := range []string{SheetCourses, SheetSubjects, SheetProjects} {
		if !slices.Contains(sheets, want) {
			t.Errorf("sheet %q missing from %v", want, sheets)
		}
	}
	if slices.Contains(sheets, "Sheet1") {
		t.Error("default sheet left in workbook")
	}

	rows, err := f.GetRows(SheetSubjects)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and 1 row, got %d", len(rows))
	}
	if rows[0][1] != document.SectionDetails+" / Matière" || rows[1][0] != "algo.pdf" || rows[1][1] != "Algorithmique" {
		t.Errorf("subject rows = %v", rows)
	}

	rows, err = f.GetRows(SheetProjects)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	col := slices.Index(rows[0], document.SectionDeliverables)
	if col < 0 {
		t.Fatalf("deliverables column missing: %v", rows[0])
	}
	if got := rows[1][col]; got != "Étape 1: Rapport - Remis en PDF - Date de rendu: lundi 12/05/2025 23h59" {
		t.Errorf("deliverables cell = %q", got)
	}

	rows, err = f.GetRows(SheetCourses)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "cours.pdf" || rows[1][1] != "2" || rows[1][2] != "1" {
		t.Errorf("course rows = %v", rows)
	}
}

func TestColumns_CoverSchema(t *testing.T) {
	for _, typ := range []string{doctree.TypeSubject, doctree.TypeProject} {
		want := 1
		for _, sec := range document.Schema(typ) {
			if sec.Fields != nil && !sec.List {
				want += len(sec.Fields)
			} else {
				want++
			}
		}
		if got := len(columns(typ)); got != want {
			t.Errorf("%s: %d columns, want %d", typ, got, want)
		}
	}
}

func TestWrite_TruncatesOversizedCell(t *testing.T) {
	doc := document.Subject(&doctree.Source{Name: "long.pdf"})
	long := strings.Repeat("é", excelize.TotalCellChars+10)
	doc.Sections.Set(document.SectionObjectives, doctree.FieldValue{Value: long, Page: 1})

	var logs bytes.Buffer
	b, err := Write(Catalogue{Subjects: []doctree.Document{doc}}, slog.New(slog.NewTextHandler(&logs, nil)))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(logs.String(), "export.xlsx.truncated") {
		t.Errorf("truncation not logged: %s", logs.String())
	}

	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	idx := slices.IndexFunc(columns(doctree.TypeSubject), func(c column) bool { return c.header == document.SectionObjectives })
	if idx < 0 {
		t.Fatal("objectives column missing")
	}
	cell, _ := excelize.CoordinatesToCellName(idx+1, 2)
	got, err := f.GetCellValue(SheetSubjects, cell)
	if err != nil {
		t.Fatalf("cell: %v", err)
	}
	if n := utf8.RuneCountInString(got); n != excelize.TotalCellChars {
		t.Errorf("cell holds %d chars, want %d", n, excelize.TotalCellChars)
	}
}
