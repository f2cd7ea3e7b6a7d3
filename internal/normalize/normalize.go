// Package normalize repairs text extracted from PDFs: broken accents,
// ligature glyphs, mojibake and irregular whitespace.
package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// glyphs maps characters that common syllabus fonts decode wrongly.
var glyphs = strings.NewReplacer(
	"Ø", "é",
	"Ł", "è",
	"Œ", "œ",
	"ﬂ", "fl",
	"ﬁ", "fi",
	"ﬀ", "ff",
	"ﬃ", "ffi",
	"ﬄ", "ffl",
)

var (
	multiSpace  = regexp.MustCompile(`\s+`)
	inlineSpace = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
)

// Normalize repairs raw and collapses all whitespace, newlines included,
// to single spaces.
func Normalize(raw string) string {
	return Collapse(Repair(raw))
}

// Repair fixes encoding artifacts without touching whitespace. Unmapped
// characters pass through unchanged.
func Repair(s string) string {
	s = fixMojibake(s)
	s = norm.NFC.String(s)
	return glyphs.Replace(s)
}

// Collapse turns every whitespace run into one space and trims the ends.
func Collapse(s string) string {
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}

// Lines repairs s and cleans each line on its own: inner blank runs become
// one space, lines are trimmed, empty lines dropped. Line breaks survive.
func Lines(s string) string {
	s = Repair(strings.ReplaceAll(s, "\r\n", "\n"))
	var out []string
	for _, ln := range strings.Split(s, "\n") {
		ln = strings.TrimSpace(inlineSpace.ReplaceAllString(ln, " "))
		if ln != "" {
			out = append(out, ln)
		}
	}
	return strings.Join(out, "\n")
}

// fixMojibake undoes UTF-8 text that was decoded as Windows-1252 ("Ã©"
// for "é"). The round trip is kept only when it yields valid UTF-8 with
// fewer suspicious characters.
func fixMojibake(s string) string {
	if !strings.ContainsAny(s, "ÃÂâ") {
		return s
	}
	raw, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil || !utf8.ValidString(raw) {
		return s
	}
	if suspicious(raw) >= suspicious(s) {
		return s
	}
	return raw
}

func suspicious(s string) int {
	return strings.Count(s, "Ã") + strings.Count(s, "Â") + strings.Count(s, "â€")
}
