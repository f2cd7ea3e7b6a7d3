// Package field pulls labeled values ("Label : value") out of a section
// block. A label that never appears is not an error: its value stays empty.
package field

import (
	"regexp"
	"slices"
	"strings"

	"github.com/dgallion1/syllabest/internal/doctree"
	"github.com/dgallion1/syllabest/internal/normalize"
)

var hoursRe = regexp.MustCompile(`\d[\d,]*\s*h`)

// LabelPattern builds the case-insensitive alternation `(a|b|...)\s*:\s*`
// over names. Longer names are tried first so "Dossier Individuel" is not
// cut short by "Dossier".
func LabelPattern(names []string) *regexp.Regexp {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	sortByLengthDesc(quoted)
	return regexp.MustCompile(`(?i)(` + strings.Join(quoted, "|") + `)\s*:\s*`)
}

// Extract returns a value for every name. Values run from the end of one
// label match to the start of the next, are stripped of any stray label and
// collapsed to one line. All values carry page.
func Extract(block string, names []string, label *regexp.Regexp, page int) map[string]doctree.FieldValue {
	out := make(map[string]doctree.FieldValue, len(names))
	for _, n := range names {
		out[n] = doctree.FieldValue{Page: page}
	}

	matches := label.FindAllStringSubmatchIndex(block, -1)
	for i, m := range matches {
		name, ok := canonical(block[m[2]:m[3]], names)
		if !ok {
			continue
		}
		end := len(block)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		val := label.ReplaceAllString(block[m[1]:end], "")
		out[name] = doctree.FieldValue{Value: normalize.Collapse(val), Page: page}
	}
	return out
}

// Group is Extract with the result ordered like names.
func Group(block string, names []string, label *regexp.Regexp, page int) doctree.Group {
	values := Extract(block, names, label, page)
	g := make(doctree.Group, 0, len(names))
	for _, n := range names {
		g = append(g, doctree.Entry{Name: n, Node: values[n]})
	}
	return g
}

// Hours keeps the first "number + h" token of a workload value, for example
// "120 h" out of "environ 120 h de travail personnel".
func Hours(s string) string {
	return hoursRe.FindString(s)
}

func canonical(matched string, names []string) (string, bool) {
	for _, n := range names {
		if strings.EqualFold(n, matched) {
			return n, true
		}
	}
	return "", false
}

func sortByLengthDesc(s []string) {
	slices.SortStableFunc(s, func(a, b string) int { return len(b) - len(a) })
}
