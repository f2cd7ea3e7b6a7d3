// Package section finds named sections in the concatenated text of a
// document and slices it into per-section blocks with page provenance.
//
// Location runs in two phases. Every pattern is matched against the whole
// text first, then the hits are ordered by offset; a section's block runs
// to the start of the next hit. Declaration order only breaks ties.
package section

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/syllabest/internal/doctree"
	"github.com/dgallion1/syllabest/internal/normalize"
)

// Separator joins consecutive pages in the concatenated text.
const Separator = "\n"

// Def names a section and the heading pattern that opens it.
type Def struct {
	Name    string
	Pattern *regexp.Regexp
}

// MustDef compiles pattern case-insensitive and multi-line.
func MustDef(name, pattern string) Def {
	return Def{Name: name, Pattern: regexp.MustCompile(`(?im)` + pattern)}
}

// Span is one located section.
type Span struct {
	Name  string
	Start int // Offset of the heading match in the concatenated text
	End   int // Start of the next section, or len(text)
	Page  int
}

// Result holds the located sections of one document.
type Result struct {
	Text   string // Pages joined by Separator
	Found  []Span // Sorted by Start
	blocks map[string]string
	pages  map[string]int
}

// Block returns the section body with its heading line dropped and each
// line cleaned. Line breaks are kept for line-oriented consumers.
func (r Result) Block(name string) string {
	return r.blocks[name]
}

// Flat returns the section body collapsed to a single line.
func (r Result) Flat(name string) string {
	return normalize.Collapse(r.blocks[name])
}

// Has reports whether the section was found.
func (r Result) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Page returns the page the section starts on, or fallback when absent.
func (r Result) Page(name string, fallback int) int {
	if p, ok := r.pages[name]; ok {
		return p
	}
	return fallback
}

// Locate finds every section of defs in pages.
func Locate(pages []doctree.PageText, defs []Def) Result {
	text, starts := Join(pages)
	res := Result{
		Text:   text,
		blocks: make(map[string]string),
		pages:  make(map[string]int),
	}

	// Phase 1: first match of every pattern, in declaration order.
	for _, d := range defs {
		loc := d.Pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		res.Found = append(res.Found, Span{
			Name:  d.Name,
			Start: loc[0],
			Page:  PageAt(pages, starts, loc[0]),
		})
	}

	// Phase 2: order by position. The stable sort keeps declaration order
	// on equal offsets, so the later-declared section owns the shared slice.
	sort.SliceStable(res.Found, func(i, j int) bool {
		return res.Found[i].Start < res.Found[j].Start
	})

	for i := range res.Found {
		end := len(text)
		if i+1 < len(res.Found) {
			end = res.Found[i+1].Start
		}
		sp := &res.Found[i]
		sp.End = end
		res.blocks[sp.Name] = dropHeading(text[sp.Start:end])
		res.pages[sp.Name] = sp.Page
	}
	return res
}

// Join concatenates page texts with Separator and returns each page's start
// offset.
func Join(pages []doctree.PageText) (string, []int) {
	var sb strings.Builder
	starts := make([]int, len(pages))
	for i, p := range pages {
		if i > 0 {
			sb.WriteString(Separator)
		}
		starts[i] = sb.Len()
		sb.WriteString(p.Text)
	}
	return sb.String(), starts
}

// PageAt maps an offset of the joined text to the page containing it. An
// offset on a separator belongs to the page that follows.
func PageAt(pages []doctree.PageText, starts []int, offset int) int {
	if len(pages) == 0 {
		return 0
	}
	idx := sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
	if idx < 0 {
		idx = 0
	}
	if offset >= starts[idx]+len(pages[idx].Text) && idx+1 < len(pages) {
		idx++
	}
	return pages[idx].Number
}

func dropHeading(block string) string {
	if i := strings.IndexByte(block, '\n'); i >= 0 {
		return normalize.Lines(block[i+1:])
	}
	return ""
}
