package enrich

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/syllabest/internal/doctree"
)

var markerRe = regexp.MustCompile(`--- TEXTE HORS-TABLE \(PAGE (\d+)\) ---\n`)

// Format renders the text found outside tables as the page-tagged dump
// written next to a project syllabus. Pages without text are left out.
func Format(pages []doctree.PageText) string {
	var sb strings.Builder
	for _, p := range pages {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&sb, "--- TEXTE HORS-TABLE (PAGE %d) ---\n%s\n\n", p.Number, text)
	}
	return sb.String()
}

// Parse splits a dump back into its pages. Each page's text runs to the
// next page marker or the end of the dump.
func Parse(dump string) map[int]string {
	out := make(map[int]string)
	marks := markerRe.FindAllStringSubmatchIndex(dump, -1)
	for i, m := range marks {
		n, err := strconv.Atoi(dump[m[2]:m[3]])
		if err != nil {
			continue
		}
		end := len(dump)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		if _, seen := out[n]; !seen {
			out[n] = dump[m[1]:end]
		}
	}
	return out
}
