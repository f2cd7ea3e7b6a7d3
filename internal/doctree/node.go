package doctree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Node is one position in a Document tree. It is exactly one of:
//
//	FieldValue  a leaf fact
//	Group       named children in a fixed order
//	List        a sequence of records
type Node interface {
	isNode()
}

func (FieldValue) isNode() {}
func (Group) isNode()      {}
func (List) isNode()       {}

// Entry is a named child of a Group.
type Entry struct {
	Name string
	Node Node
}

// Group maps names to nodes and keeps declaration order.
type Group []Entry

// List is an ordered sequence of records.
type List []Node

// Get returns the child called name.
func (g Group) Get(name string) (Node, bool) {
	for _, e := range g {
		if e.Name == name {
			return e.Node, true
		}
	}
	return nil, false
}

// Field returns the leaf called name, or a zero FieldValue.
func (g Group) Field(name string) FieldValue {
	n, ok := g.Get(name)
	if !ok {
		return FieldValue{}
	}
	v, _ := n.(FieldValue)
	return v
}

// Set replaces the child called name in place, or appends it.
func (g *Group) Set(name string, n Node) {
	for i := range *g {
		if (*g)[i].Name == name {
			(*g)[i].Node = n
			return
		}
	}
	*g = append(*g, Entry{Name: name, Node: n})
}

// Names returns the child names in order.
func (g Group) Names() []string {
	names := make([]string, len(g))
	for i, e := range g {
		names[i] = e.Name
	}
	return names
}

func (g Group) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range g {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalNode(e.Node)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (l List) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, n := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		val, err := marshalNode(n)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalNode(n Node) ([]byte, error) {
	switch v := n.(type) {
	case FieldValue:
		return v.MarshalJSON()
	case Group:
		return v.MarshalJSON()
	case List:
		return v.MarshalJSON()
	case nil:
		return []byte("null"), nil
	default:
		return nil, fmt.Errorf("unknown node type %T", n)
	}
}

func (g *Group) UnmarshalJSON(data []byte) error {
	n, err := DecodeNode(data)
	if err != nil {
		return err
	}
	switch v := n.(type) {
	case Group:
		*g = v
	default:
		return fmt.Errorf("group: expected object, got %T", n)
	}
	return nil
}

func (l *List) UnmarshalJSON(data []byte) error {
	n, err := DecodeNode(data)
	if err != nil {
		return err
	}
	v, ok := n.(List)
	if !ok {
		return fmt.Errorf("list: expected array, got %T", n)
	}
	*l = v
	return nil
}

// DecodeNode reads one node from JSON, keeping object key order. An object
// whose keys are exactly "value" and "page" is a leaf.
func DecodeNode(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	n, err := decodeNode(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decode node: trailing data")
	}
	return n, nil
}

func decodeNode(dec *json.Decoder) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			var list List
			for dec.More() {
				n, err := decodeNode(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, n)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			if list == nil {
				list = List{}
			}
			return list, nil
		case '{':
			return decodeObject(dec)
		}
	case string:
		return FieldValue{Value: t}, nil
	case nil:
		return FieldValue{}, nil
	}
	return nil, fmt.Errorf("decode node: unexpected token %v", tok)
}

func decodeObject(dec *json.Decoder) (Node, error) {
	var raw []struct {
		name string
		data json.RawMessage
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("decode node: object key %v", tok)
		}
		var data json.RawMessage
		if err := dec.Decode(&data); err != nil {
			return nil, err
		}
		raw = append(raw, struct {
			name string
			data json.RawMessage
		}{key, data})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	if len(raw) == 2 && hasKeys(raw[0].name, raw[1].name, "value", "page") {
		var buf bytes.Buffer
		buf.WriteString(`{"` + raw[0].name + `":`)
		buf.Write(raw[0].data)
		buf.WriteString(`,"` + raw[1].name + `":`)
		buf.Write(raw[1].data)
		buf.WriteByte('}')
		var v FieldValue
		if err := v.UnmarshalJSON(buf.Bytes()); err != nil {
			return nil, err
		}
		return v, nil
	}

	g := Group{}
	for _, r := range raw {
		n, err := DecodeNode(r.data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.name, err)
		}
		g = append(g, Entry{Name: r.name, Node: n})
	}
	return g, nil
}

func hasKeys(a, b, x, y string) bool {
	return (a == x && b == y) || (a == y && b == x)
}
