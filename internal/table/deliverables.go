package table

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/dgallion1/syllabest/internal/doctree"
)

// DeliverablesHeading opens the deliverables section of a project syllabus.
const DeliverablesHeading = "4 Livrables et étapes de suivi"

// DeliverableWidth is the cell count of a deliverables row.
const DeliverableWidth = 4

var (
	deliverablesHeadingRe = regexp.MustCompile(`4\s+Livrables et étapes de suivi`)
	// Tables of the defense section share the four-column layout.
	defenseRe = regexp.MustCompile(`Audience|Durée de présentation`)
	// Heading tables of the other project sections.
	otherSectionRe = regexp.MustCompile(`1\s+Matières, formations et groupes|2\s+Sujet\(s\) du projet|3\s+Détails du projet|5\s+Soutenance`)

	numberRe  = regexp.MustCompile(`^\d+$`)
	dateRe    = regexp.MustCompile(`(?i)\d{1,2}/\d{1,2}/\d{4}|\d+h\d+|lundi|mardi|mercredi|jeudi|vendredi|samedi|dimanche`)
	leadNumRe = regexp.MustCompile(`^(\d+)\s*(.*)$`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// Deliverables gathers the rows of every four-column table in page order,
// then table order, skipping defense tables, heading rows and empty rows.
// Identical rows are kept once. Each row is classified and rendered; rows
// without a description are dropped. An item's page is the page of the
// table its row came from.
func Deliverables(tables []doctree.Table) doctree.List {
	items := doctree.List{}
	seen := make(map[string]bool)

	for _, t := range ordered(tables) {
		if t.Width() != DeliverableWidth || defenseRe.MatchString(tableText(t)) {
			continue
		}
		if otherSectionRe.MatchString(t.Text) && !deliverablesHeadingRe.MatchString(t.Text) {
			continue
		}
		for _, row := range t.Rows {
			if headingRow(row) || blankRow(row) {
				continue
			}
			key := rowKey(row)
			if seen[key] {
				continue
			}
			seen[key] = true

			if s := Classify(row).Render(); s != "" {
				items = append(items, doctree.FieldValue{Value: s, Page: t.Page})
			}
		}
	}
	return items
}

// Step is a deliverable row split into its parts.
type Step struct {
	Number      string
	Description string
	Detail      string
	Date        string
}

// Classify assigns each cell of a row to a part, first rule wins:
//
//  1. digits only: step number (the first one)
//  2. date, weekday or time: due date
//  3. first cell longer than two characters: description
//  4. next cell: detail
//
// With no number cell, a leading integer of the detail becomes the number.
// Rows with fewer than three non-empty cells yield an empty Step.
func Classify(row []string) Step {
	var parts []string
	for _, c := range row {
		if c = strings.TrimSpace(spaceRe.ReplaceAllString(c, " ")); c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) < 3 {
		return Step{}
	}

	var s Step
	for _, p := range parts {
		switch {
		case numberRe.MatchString(p) && s.Number == "":
			s.Number = p
		case dateRe.MatchString(p):
			s.Date = p
		case s.Description == "" && len([]rune(p)) > 2 && !numberRe.MatchString(p):
			s.Description = p
		case s.Description != "" && s.Detail == "":
			s.Detail = p
		}
	}
	if s.Number == "" && s.Detail != "" {
		if m := leadNumRe.FindStringSubmatch(s.Detail); m != nil {
			s.Number, s.Detail = m[1], m[2]
		}
	}
	return s
}

// Render formats the step as
// "Étape {n}: {description} - {detail} - Date de rendu: {date}", leaving out
// empty parts. A step without description renders as "".
func (s Step) Render() string {
	if s.Description == "" {
		return ""
	}
	num := s.Number
	if num == "" {
		num = "?"
	}
	var sb strings.Builder
	sb.WriteString("Étape " + num + ": " + s.Description)
	if s.Detail != "" && s.Detail != s.Description {
		sb.WriteString(" - " + s.Detail)
	}
	if s.Date != "" {
		sb.WriteString(" - Date de rendu: " + s.Date)
	}
	return sb.String()
}

func ordered(tables []doctree.Table) []doctree.Table {
	out := slices.Clone(tables)
	slices.SortStableFunc(out, func(a, b doctree.Table) int {
		if c := cmp.Compare(a.Page, b.Page); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
	return out
}

func tableText(t doctree.Table) string {
	var sb strings.Builder
	sb.WriteString(t.Text)
	for _, row := range t.Rows {
		for _, c := range row {
			sb.WriteString(" ")
			sb.WriteString(c)
		}
	}
	return sb.String()
}

func headingRow(row []string) bool {
	for _, c := range row {
		if deliverablesHeadingRe.MatchString(c) {
			return true
		}
	}
	return false
}

func rowKey(row []string) string {
	cells := make([]string, len(row))
	for i, c := range row {
		cells[i] = strings.TrimSpace(c)
	}
	return strings.Join(cells, "\x1f")
}
