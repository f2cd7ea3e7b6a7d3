// Package chunker projects parsed documents into retrieval chunks: one chunk
// per non-empty leaf of a syllabus, one per non-empty page of a course.
package chunker

import (
	"strings"

	"github.com/dgallion1/syllabest/internal/doctree"
	"github.com/dgallion1/syllabest/internal/document"
)

// Document labels written to metadata.titre_document.
const (
	LabelCourse  = "Cours"
	LabelSubject = "Syllabus matière"
	LabelProject = "Syllabus projet"
)

// Label returns the chunk label of a document type.
func Label(docType string) string {
	switch docType {
	case doctree.TypeCourse:
		return LabelCourse
	case doctree.TypeProject:
		return LabelProject
	default:
		return LabelSubject
	}
}

// Options fill the metadata shared by every chunk of a document.
type Options struct {
	DocumentPath string // Defaults to the document's source file.
	Matiere      string // Defaults to the subject field of the document.
}

// Config controls splitting of course pages.
type Config struct {
	ChunkSize    int // Target chunk size in tokens; 0 keeps one chunk per page.
	ChunkOverlap int // Overlap between consecutive chunks in tokens.
}

// DefaultConfig returns the splitting used by the service.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1500,
		ChunkOverlap: 200,
	}
}

type projector struct {
	base   doctree.ChunkMetadata
	chunks []doctree.Chunk
}

// Project walks doc section by section and emits a chunk for every
// non-empty leaf. A section-level leaf reads "<section>: <value>", a group
// field "<field>: <value>" under the enclosing label, and a leaf held
// directly by a list is its value alone.
func Project(doc doctree.Document, label string, opts Options) []doctree.Chunk {
	if opts.DocumentPath == "" {
		opts.DocumentPath = doc.Source
	}
	if opts.Matiere == "" {
		opts.Matiere = subjectOf(doc)
	}
	p := &projector{
		base: doctree.ChunkMetadata{
			TitreDocument: label,
			Matiere:       opts.Matiere,
			DocumentPath:  opts.DocumentPath,
		},
		chunks: []doctree.Chunk{},
	}
	for _, e := range doc.Sections {
		if e.Name == doctree.MetaKey {
			continue
		}
		if v, ok := e.Node.(doctree.FieldValue); ok {
			p.emit(e.Name, e.Name+": ", v)
			continue
		}
		p.visit(e.Name, e.Node)
	}
	return p.chunks
}

func (p *projector) visit(label string, n doctree.Node) {
	switch n := n.(type) {
	case doctree.Group:
		for _, e := range n {
			switch child := e.Node.(type) {
			case doctree.FieldValue:
				p.emit(label, e.Name+": ", child)
			default:
				p.visit(e.Name, child)
			}
		}
	case doctree.List:
		for _, item := range n {
			if v, ok := item.(doctree.FieldValue); ok {
				p.emit(label, "", v)
				continue
			}
			p.visit(label, item)
		}
	}
}

func (p *projector) emit(section, prefix string, v doctree.FieldValue) {
	if v.Empty() {
		return
	}
	text := v.Text()
	if strings.TrimSpace(text) == "" {
		return
	}
	md := p.base
	md.TitreSection = section
	md.NumeroPage = doctree.PageRef(v.Page)
	p.chunks = append(p.chunks, doctree.Chunk{Content: prefix + text, Metadata: md})
}

// subjectOf reads the subject name a syllabus declares about itself.
func subjectOf(doc doctree.Document) string {
	sec, key := document.SectionDetails, "Matière"
	if doc.Type == doctree.TypeProject {
		sec, key = document.SectionGroups, document.SubjectKey
	}
	n, ok := doc.Section(sec)
	if !ok {
		return ""
	}
	g, ok := n.(doctree.Group)
	if !ok {
		return ""
	}
	return g.Field(key).Value
}

// ProjectCourse emits one chunk per non-empty page of a course. With a
// positive cfg.ChunkSize, pages above the budget are split on sentence
// boundaries; every part keeps the page number.
func ProjectCourse(course doctree.CourseDocument, cfg Config, opts Options) []doctree.Chunk {
	if opts.DocumentPath == "" {
		opts.DocumentPath = course.Meta.Source
	}
	chunks := []doctree.Chunk{}
	for _, page := range course.Pages {
		text := strings.TrimSpace(page.Text)
		if text == "" {
			continue
		}
		parts := []string{text}
		if cfg.ChunkSize > 0 && EstimateTokens(text) > cfg.ChunkSize {
			parts = splitText(text, cfg.ChunkSize, cfg.ChunkOverlap)
		}
		for _, part := range parts {
			chunks = append(chunks, doctree.Chunk{
				Content: part,
				Metadata: doctree.ChunkMetadata{
					TitreDocument: LabelCourse,
					NumeroPage:    doctree.PageRef(page.Number),
					Matiere:       opts.Matiere,
					DocumentPath:  opts.DocumentPath,
				},
			})
		}
	}
	return chunks
}
