package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgallion1/syllabest/internal/doctree"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrIncomplete is returned by Validate when a document misses part of its
// schema.
var ErrIncomplete = errors.New("document incomplete")

// Fields lists the required field names of a section. A nil Fields marks a
// leaf section; Record holds the fields of each element of a list section.
type Fields struct {
	Section string
	Fields  []string
	Record  []string
	List    bool
}

// Schema returns the fixed sections and fields of a document type.
func Schema(docType string) []Fields {
	switch docType {
	case doctree.TypeSubject:
		out := []Fields{
			{Section: SectionDetails, Fields: append(append([]string{}, DetailKeys...), ControlKey)},
			{Section: SectionEvaluation, Fields: EvalKeys},
			{Section: SectionObjectives},
			{Section: SectionSessions, List: true, Record: SessionHeaders},
			{Section: SectionSkills, List: true, Record: []string{"Titre", "Compétence"}},
		}
		for _, d := range SubjectSections {
			switch d.Name {
			case SectionDetails, SectionEvaluation, SectionPrereq, SectionObjectives, SectionSessions, SectionSkills:
				continue
			}
			out = append(out, Fields{Section: d.Name})
		}
		return out
	case doctree.TypeProject:
		var out []Fields
		for _, s := range projectSections {
			names := make([]string, len(s.fields))
			for i, f := range s.fields {
				names[i] = f.name
			}
			out = append(out, Fields{Section: s.name, Fields: names})
			if s.name == SectionDetailsProj {
				out = append(out, Fields{Section: SectionDeliverables, List: true})
			}
		}
		return out
	}
	return nil
}

var leafSchema = map[string]any{
	"type":                 "object",
	"required":             []string{"value", "page"},
	"additionalProperties": false,
	"properties": map[string]any{
		"value": map[string]any{"type": []string{"string", "object"}},
		"page":  map[string]any{"type": []string{"integer", "null"}, "minimum": 1},
	},
}

func groupSchema(fields []string) map[string]any {
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		props[f] = leafSchema
	}
	return map[string]any{
		"type":       "object",
		"required":   fields,
		"properties": props,
	}
}

// JSONSchema renders the schema of a document type as a JSON Schema
// document.
func JSONSchema(docType string) map[string]any {
	secs := Schema(docType)
	props := map[string]any{
		doctree.MetaKey: map[string]any{
			"type":     "object",
			"required": []string{"source_pdf"},
		},
	}
	required := []string{doctree.MetaKey}
	for _, s := range secs {
		required = append(required, s.Section)
		switch {
		case s.List && s.Record != nil:
			props[s.Section] = map[string]any{"type": "array", "items": groupSchema(s.Record)}
		case s.List:
			props[s.Section] = map[string]any{"type": "array", "items": leafSchema}
		case s.Fields != nil:
			props[s.Section] = groupSchema(s.Fields)
		default:
			props[s.Section] = leafSchema
		}
	}
	return map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"required":   required,
		"properties": props,
	}
}

var compiled sync.Map // document type -> compileResult

type compileResult struct {
	schema *jsonschema.Schema
	err    error
}

func compile(docType string) (*jsonschema.Schema, error) {
	if v, ok := compiled.Load(docType); ok {
		r := v.(compileResult)
		return r.schema, r.err
	}
	b, err := json.Marshal(JSONSchema(docType))
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	url := docType + ".schema.json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	s, err := c.Compile(url)
	compiled.Store(docType, compileResult{schema: s, err: err})
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return s, nil
}

// Validate checks that doc carries every section and field of its type.
func Validate(doc doctree.Document) error {
	if Schema(doc.Type) == nil {
		return fmt.Errorf("%w: unknown type %q", ErrIncomplete, doc.Type)
	}
	s, err := compile(doc.Type)
	if err != nil {
		return err
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrIncomplete, err)
	}
	return nil
}
