package pipeline

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/dgallion1/syllabest/internal/chunker"
	"github.com/dgallion1/syllabest/internal/doctree"
	"github.com/dgallion1/syllabest/internal/document"
	"github.com/dgallion1/syllabest/internal/enrich"
	"github.com/dgallion1/syllabest/internal/parser"
)

// Kind names an input family. It is both the batch step and the API path
// segment that handles it.
type Kind string

const (
	KindCourse  Kind = "cours"
	KindSubject Kind = "matiere"
	KindProject Kind = "projet"
)

// Kinds lists the input families in batch order.
var Kinds = []Kind{KindCourse, KindSubject, KindProject}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown document kind %q", s)
}

// DocType is the document type of the kind, also its directory name.
func (k Kind) DocType() string {
	switch k {
	case KindCourse:
		return doctree.TypeCourse
	case KindProject:
		return doctree.TypeProject
	default:
		return doctree.TypeSubject
	}
}

// Output is everything derived from one input file.
type Output struct {
	Kind     Kind
	Course   doctree.CourseDocument // KindCourse only
	Document doctree.Document       // Syllabi only
	Dump     string                 // Text outside tables, KindProject only
	Enrich   enrich.Summary
	Chunks   []doctree.Chunk
}

// Assemble builds the document of kind from src and checks syllabi
// against their schema.
func Assemble(kind Kind, src *doctree.Source) (*Output, error) {
	out := &Output{Kind: kind}
	switch kind {
	case KindCourse:
		out.Course = document.Course(src)
		return out, nil
	case KindSubject:
		out.Document = document.Subject(src)
	case KindProject:
		out.Document = document.Project(src)
		out.Dump = enrich.Format(src.Outside)
	default:
		return nil, fmt.Errorf("assemble: unknown kind %q", kind)
	}
	if err := document.Validate(out.Document); err != nil {
		return nil, fmt.Errorf("assemble %s: %w", src.Name, err)
	}
	return out, nil
}

// EnrichProject fills empty project fields from the dump. Other kinds are
// left untouched.
func (o *Output) EnrichProject() {
	if o.Kind != KindProject {
		return
	}
	o.Document, o.Enrich = enrich.Run(o.Document, o.Dump)
}

// Project computes the chunks of the output.
func (o *Output) Project(cfg chunker.Config, opts chunker.Options) {
	if o.Kind == KindCourse {
		o.Chunks = chunker.ProjectCourse(o.Course, cfg, opts)
		return
	}
	o.Chunks = chunker.Project(o.Document, chunker.Label(o.Kind.DocType()), opts)
}

// Process runs every stage for one uploaded file: load, assemble,
// enrich, chunk.
func Process(kind Kind, r io.Reader, filename string, popts parser.Options, cfg chunker.Config) (*Output, error) {
	src, err := parser.Load(r, filename, popts)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(filename), err)
	}
	out, err := Assemble(kind, src)
	if err != nil {
		return nil, err
	}
	out.EnrichProject()
	out.Project(cfg, chunker.Options{DocumentPath: src.Name})
	return out, nil
}
