// Package document assembles the parsed form of each document type from a
// loaded source: course transcripts, subject syllabi and project syllabi.
package document

import (
	"github.com/dgallion1/syllabest/internal/doctree"
	"github.com/dgallion1/syllabest/internal/normalize"
)

// Course lists every page of a course transcript with its text normalized.
// Pages without text are kept with an empty text so numbering has no gaps.
func Course(src *doctree.Source) doctree.CourseDocument {
	count := src.PageCount
	byNumber := make(map[int]string, len(src.Pages))
	for _, p := range src.Pages {
		byNumber[p.Number] = p.Text
		count = max(count, p.Number)
	}

	doc := doctree.CourseDocument{
		Meta:  doctree.CourseMeta{Source: src.Name, PageCount: count},
		Pages: make([]doctree.PageText, 0, count),
	}
	for i := 1; i <= count; i++ {
		doc.Pages = append(doc.Pages, doctree.PageText{Number: i, Text: normalize.Normalize(byNumber[i])})
	}
	return doc
}
