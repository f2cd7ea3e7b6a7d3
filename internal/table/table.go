// Package table reads structured records out of the tables detected on a
// document's pages: the assessment grid and the session plan of a subject
// syllabus, and the deliverable steps of a project syllabus.
package table

import (
	"slices"
	"strings"

	"github.com/dgallion1/syllabest/internal/doctree"
	"github.com/dgallion1/syllabest/internal/normalize"
)

// DefaultControlPage is reported when no assessment grid is found.
const DefaultControlPage = 1

// Control finds the first table whose header holds every column of cols,
// locates the row whose first cell starts with marker and flags each column
// marked "X". Columns default to false. The page is the page of the first
// matching header, or DefaultControlPage.
func Control(tables []doctree.Table, cols []string, marker string) (map[string]bool, int) {
	res := make(map[string]bool, len(cols))
	for _, c := range cols {
		res[c] = false
	}
	page := DefaultControlPage
	found := false
	marker = strings.ToLower(marker)

	for _, t := range tables {
		header := cleanRow(t.Header())
		if len(header) == 0 || !containsAll(header, cols) {
			continue
		}
		if !found {
			page = t.Page
			found = true
		}
		for _, row := range t.Rows[1:] {
			if len(row) == 0 || !strings.HasPrefix(strings.ToLower(clean(row[0])), marker) {
				continue
			}
			for i := 1; i < len(row) && i < len(header); i++ {
				if _, known := res[header[i]]; known && strings.EqualFold(clean(row[i]), "X") {
					res[header[i]] = true
				}
			}
			return res, t.Page
		}
	}
	return res, page
}

// Sessions finds the first table with at least len(headers) columns whose
// header holds every anchor, and maps each following non-empty row onto
// headers, padding short rows. ok is false when no table matches.
func Sessions(tables []doctree.Table, headers, anchors []string) (rows doctree.List, page int, ok bool) {
	for _, t := range tables {
		header := cleanRow(t.Header())
		if len(header) < len(headers) || !containsAll(header, anchors) {
			continue
		}
		rows = doctree.List{}
		for _, raw := range t.Rows[1:] {
			if blankRow(raw) {
				continue
			}
			rec := make(doctree.Group, 0, len(headers))
			for i, h := range headers {
				cell := ""
				if i < len(raw) {
					cell = clean(raw[i])
				}
				rec = append(rec, doctree.Entry{Name: h, Node: doctree.FieldValue{Value: cell, Page: t.Page}})
			}
			rows = append(rows, rec)
		}
		return rows, t.Page, true
	}
	return nil, 0, false
}

func clean(s string) string {
	return normalize.Normalize(s)
}

func cleanRow(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = clean(c)
	}
	return out
}

func containsAll(have, want []string) bool {
	for _, w := range want {
		if !slices.Contains(have, w) {
			return false
		}
	}
	return true
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
