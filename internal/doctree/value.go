package doctree

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FieldValue is one extracted fact and the page it came from.
//
// Value holds text. Checks, when non-nil, replaces Value with a structured
// object of boolean flags (the assessment grid of a subject syllabus). Page
// is 1-based; 0 means the page is unknown and is written as null.
type FieldValue struct {
	Value  string
	Checks map[string]bool
	Page   int
}

// Empty reports whether the value carries no data.
func (v FieldValue) Empty() bool {
	return v.Checks == nil && v.Value == ""
}

// Text returns the value as it appears in a chunk: the text itself, or the
// flags as compact JSON. Map keys marshal sorted, so the output is stable.
func (v FieldValue) Text() string {
	if v.Checks == nil {
		return v.Value
	}
	b, err := marshalNoEscape(v.Checks)
	if err != nil {
		return ""
	}
	return string(b)
}

type fieldValueJSON struct {
	Value json.RawMessage `json:"value"`
	Page  *int            `json:"page"`
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	var val any = v.Value
	if v.Checks != nil {
		val = v.Checks
	}
	raw, err := marshalNoEscape(val)
	if err != nil {
		return nil, err
	}
	out := fieldValueJSON{Value: raw}
	if v.Page > 0 {
		p := v.Page
		out.Page = &p
	}
	return marshalNoEscape(out)
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var in fieldValueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*v = FieldValue{}
	if in.Page != nil {
		v.Page = *in.Page
	}
	trimmed := bytes.TrimSpace(in.Value)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
	case trimmed[0] == '"':
		return json.Unmarshal(trimmed, &v.Value)
	case trimmed[0] == '{':
		v.Checks = map[string]bool{}
		return json.Unmarshal(trimmed, &v.Checks)
	default:
		return fmt.Errorf("field value: unsupported json %s", trimmed)
	}
	return nil
}

// Encode renders v as indented JSON without HTML escaping, the format of
// every artifact written to disk.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
