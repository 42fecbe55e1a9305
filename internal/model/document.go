package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is one regional database file: a JSON object whose category
// arrays (militaryUnits, vehicles, ...) this tool edits and whose remaining
// keys pass through untouched. Top-level key order is preserved on write so
// diffs against hand-maintained files stay readable.
type Document struct {
	fields map[string]json.RawMessage
	order  []string
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{fields: make(map[string]json.RawMessage)}
}

// ParseDocument decodes a database file.
func ParseDocument(data []byte) (*Document, error) {
	d := NewDocument()
	if err := d.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return d, nil
}

// Keys returns the top-level keys in file order.
func (d *Document) Keys() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Has reports whether the document contains the given top-level key.
func (d *Document) Has(key string) bool {
	_, ok := d.fields[key]
	return ok
}

// Raw returns the raw JSON value stored under key.
func (d *Document) Raw(key string) (json.RawMessage, bool) {
	raw, ok := d.fields[key]
	return raw, ok
}

// SetRaw stores a raw JSON value, appending the key if it is new.
func (d *Document) SetRaw(key string, raw json.RawMessage) {
	if _, ok := d.fields[key]; !ok {
		d.order = append(d.order, key)
	}
	d.fields[key] = raw
}

// Entities decodes the category array under key. A missing key yields an
// empty slice: files routinely omit arrays they have no records for.
func (d *Document) Entities(key string) ([]Entity, error) {
	raw, ok := d.fields[key]
	if !ok {
		return nil, nil
	}
	var list []Entity
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return list, nil
}

// SetEntities replaces the category array under key.
func (d *Document) SetEntities(key string, list []Entity) error {
	if list == nil {
		list = []Entity{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	d.SetRaw(key, raw)
	return nil
}

// Types decodes the type-descriptor array under key.
func (d *Document) Types(key string) ([]TypeDescriptor, error) {
	raw, ok := d.fields[key]
	if !ok {
		return nil, nil
	}
	var list []TypeDescriptor
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return list, nil
}

// SetTypes replaces the type-descriptor array under key.
func (d *Document) SetTypes(key string, list []TypeDescriptor) error {
	if list == nil {
		list = []TypeDescriptor{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	d.SetRaw(key, raw)
	return nil
}

// UnmarshalJSON decodes the object and records its key order.
func (d *Document) UnmarshalJSON(data []byte) error {
	d.fields = make(map[string]json.RawMessage)
	d.order = nil

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode document: top level is not a JSON object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode document key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("decode document: non-string key %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode document value %q: %w", key, err)
		}
		if _, dup := d.fields[key]; !dup {
			d.order = append(d.order, key)
		}
		d.fields[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// MarshalJSON writes the object with its original key order, new keys last.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("encode document key %q: %w", key, err)
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(d.fields[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encode renders the document as UTF-8 JSON with 2-space indentation, the
// format the analyzer suite and the hand-edited files use.
func (d *Document) Encode() ([]byte, error) {
	compact, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, fmt.Errorf("indent document: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
