// Package enrich fills the empty fields of a parsed project syllabus from
// the text found outside its tables.
//
// Each field has an ordered list of rules. The rules run against the dump
// text of the field's page first and against the whole dump after that;
// the first acceptable value wins. A field that stays empty is reported as
// missed, never as an error.
package enrich

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/syllabest/internal/doctree"
	"github.com/dgallion1/syllabest/internal/document"
	"github.com/dgallion1/syllabest/internal/normalize"
)

var (
	printedRe = regexp.MustCompile(`(?m)Imprimé le : .*$`)
	rejected  = []string{"-", "_", "NA", "N/A"}
)

// Summary reports what one run changed, as "section/field" paths.
type Summary struct {
	Updated []string
	Missed  []string
}

// Run returns a copy of doc where empty group fields found in dump are
// filled. The deliverables section is left as is. doc is not modified.
func Run(doc doctree.Document, dump string) (doctree.Document, Summary) {
	var sum Summary
	pages := Parse(dump)

	out := doctree.Document{Type: doc.Type, Source: doc.Source, Sections: make(doctree.Group, 0, len(doc.Sections))}
	for _, sec := range doc.Sections {
		g, ok := sec.Node.(doctree.Group)
		if !ok || sec.Name == document.SectionDeliverables {
			out.Sections = append(out.Sections, sec)
			continue
		}
		g = slices.Clone(g)
		for i, e := range g {
			v, isLeaf := e.Node.(doctree.FieldValue)
			if !isLeaf || !v.Empty() {
				continue
			}
			path := sec.Name + "/" + e.Name
			value, found := Lookup(e.Name, v.Page, pages, dump)
			if !found {
				sum.Missed = append(sum.Missed, path)
				continue
			}
			v.Value = value
			g[i].Node = v
			sum.Updated = append(sum.Updated, path)
		}
		out.Sections = append(out.Sections, doctree.Entry{Name: sec.Name, Node: g})
	}
	return out, sum
}

// Lookup searches the value of one field, first on its page then in the
// whole dump.
func Lookup(name string, page int, pages map[int]string, dump string) (string, bool) {
	rules := Rules[name]
	if len(rules) == 0 {
		return "", false
	}
	if text, ok := pages[page]; ok && page > 0 {
		if v, ok := search(rules, text); ok {
			return v, true
		}
	}
	return search(rules, dump)
}

func search(rules []Rule, text string) (string, bool) {
	for _, r := range rules {
		raw, ok := r.Match(text)
		if !ok {
			continue
		}
		if v := Clean(raw); acceptable(v) {
			return v, true
		}
	}
	return "", false
}

// Clean drops print stamps and collapses whitespace.
func Clean(s string) string {
	return normalize.Collapse(printedRe.ReplaceAllString(strings.TrimSpace(s), ""))
}

func acceptable(v string) bool {
	return utf8.RuneCountInString(v) > 2 && !slices.Contains(rejected, v)
}
