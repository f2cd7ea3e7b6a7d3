package doctree

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document types, also used as output directory names.
const (
	TypeCourse  = "cours"
	TypeSubject = "syllabus_matiere"
	TypeProject = "syllabus_projet"
)

// MetaKey is the reserved top-level key carrying provenance. It is never a
// section and never produces chunks.
const MetaKey = "_meta"

// Document is the parsed form of one syllabus. Sections keep schema order.
type Document struct {
	Type     string
	Source   string
	Sections Group
}

type documentMeta struct {
	SourcePDF string `json:"source_pdf"`
	Type      string `json:"type,omitempty"`
}

func (d Document) MarshalJSON() ([]byte, error) {
	meta, err := marshalNoEscape(documentMeta{SourcePDF: d.Source, Type: d.Type})
	if err != nil {
		return nil, err
	}
	body, err := d.Sections.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`{"` + MetaKey + `":`)
	buf.Write(meta)
	if len(d.Sections) > 0 {
		buf.WriteByte(',')
		buf.Write(body[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	n, err := DecodeNode(data)
	if err != nil {
		return err
	}
	g, ok := n.(Group)
	if !ok {
		return fmt.Errorf("document: expected object, got %T", n)
	}
	*d = Document{}
	for _, e := range g {
		if e.Name != MetaKey {
			d.Sections = append(d.Sections, e)
		}
	}

	// Decode the meta block on its own: DecodeNode has no use for its
	// plain string fields.
	var head struct {
		Meta documentMeta `json:"_meta"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("document meta: %w", err)
	}
	d.Source = head.Meta.SourcePDF
	d.Type = head.Meta.Type
	return nil
}

// Section returns the top-level node called name.
func (d Document) Section(name string) (Node, bool) {
	return d.Sections.Get(name)
}

// CourseMeta describes the source of a course document.
type CourseMeta struct {
	Source    string `json:"source"`
	PageCount int    `json:"page_count"`
}

// CourseDocument is a course transcript: its pages, normalized.
type CourseDocument struct {
	Meta  CourseMeta `json:"meta"`
	Pages []PageText `json:"pages"`
}

// ChunkMetadata travels with every chunk into the vector index.
type ChunkMetadata struct {
	TitreDocument string `json:"titre_document"`
	NumeroPage    *int   `json:"numero_page"`
	TitreSection  string `json:"titre_section"`
	Matiere       string `json:"matiere"`
	DocumentPath  string `json:"document_path"`
}

// Chunk is one retrieval fragment derived from a non-empty leaf.
type Chunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// PageRef converts a 1-based page to the chunk representation, nil when
// unknown.
func PageRef(page int) *int {
	if page <= 0 {
		return nil
	}
	return &page
}
