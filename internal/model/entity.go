package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Entity represents one record in a category array: a military unit, vehicle,
// aircraft, missile, or missile system. Database files carry fields beyond
// the ones modeled here, so unknown keys are kept verbatim in Extra and
// written back on marshal.
type Entity struct {
	ID             string         `json:"id"`
	Type           string         `json:"type,omitempty"` // type descriptor id
	Names          []Name         `json:"names,omitempty"`
	Identifiers    []Identifier   `json:"identifiers,omitempty"`
	Specifications map[string]any `json:"specifications,omitempty"`
	States         []State        `json:"states,omitempty"`

	// Extra holds top-level keys this tool does not interpret.
	Extra map[string]json.RawMessage `json:"-"`
}

// Name is one of the entity's designations.
type Name struct {
	Value    string `json:"value"`
	Language string `json:"language,omitempty"`
	NameType string `json:"nameType,omitempty"`
}

// Identifier is an externally issued identifier (NATO designation, GRAU
// index, hull number, and so on).
type Identifier struct {
	Value            string `json:"value"`
	IdentifierType   string `json:"identifierType,omitempty"`
	IssuingAuthority string `json:"issuingAuthority,omitempty"`
}

// State records when and where the entity was formed, deployed, or active.
type State struct {
	StateType string `json:"stateType"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Location  string `json:"location,omitempty"`
}

// PrimaryName returns the first name value, or the id when no names exist.
func (e Entity) PrimaryName() string {
	for _, n := range e.Names {
		if strings.TrimSpace(n.Value) != "" {
			return n.Value
		}
	}
	return e.ID
}

// entity keys handled by the typed fields above.
var entityKnownKeys = map[string]bool{
	"id": true, "type": true, "names": true, "identifiers": true,
	"specifications": true, "states": true,
}

// UnmarshalJSON decodes the known fields and stashes everything else in
// Extra so a load/modify/save cycle never drops data.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode entity: %w", err)
	}

	type known struct {
		ID             string         `json:"id"`
		Type           string         `json:"type"`
		Names          []Name         `json:"names"`
		Identifiers    []Identifier   `json:"identifiers"`
		Specifications map[string]any `json:"specifications"`
		States         []State        `json:"states"`
	}
	var k known
	if err := json.Unmarshal(data, &k); err != nil {
		return fmt.Errorf("decode entity fields: %w", err)
	}

	e.ID = k.ID
	e.Type = k.Type
	e.Names = k.Names
	e.Identifiers = k.Identifiers
	e.Specifications = k.Specifications
	e.States = k.States
	e.Extra = nil
	for key, raw := range fields {
		if entityKnownKeys[key] {
			continue
		}
		if e.Extra == nil {
			e.Extra = make(map[string]json.RawMessage)
		}
		e.Extra[key] = raw
	}
	return nil
}

// MarshalJSON merges the typed fields with the preserved Extra keys.
func (e Entity) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(e.Extra)+6)
	for key, raw := range e.Extra {
		out[key] = raw
	}

	put := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode entity %q: %w", key, err)
		}
		out[key] = raw
		return nil
	}

	if err := put("id", e.ID); err != nil {
		return nil, err
	}
	if e.Type != "" {
		if err := put("type", e.Type); err != nil {
			return nil, err
		}
	}
	if e.Names != nil {
		if err := put("names", e.Names); err != nil {
			return nil, err
		}
	}
	if e.Identifiers != nil {
		if err := put("identifiers", e.Identifiers); err != nil {
			return nil, err
		}
	}
	if e.Specifications != nil {
		if err := put("specifications", e.Specifications); err != nil {
			return nil, err
		}
	}
	if e.States != nil {
		if err := put("states", e.States); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

// TypeDescriptor describes one category of entity (e.g. motor-rifle-brigade)
// and is shared by every entity of that category within a file.
type TypeDescriptor struct {
	ID              string           `json:"id"`
	Name            string           `json:"name,omitempty"`
	Characteristics []Characteristic `json:"characteristics,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Characteristic is one shared key/value attribute of a type.
type Characteristic struct {
	Key      string `json:"key"`
	Value    any    `json:"value"`
	DataType string `json:"dataType,omitempty"`
}

var typeKnownKeys = map[string]bool{
	"id": true, "name": true, "characteristics": true,
}

func (t *TypeDescriptor) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode type descriptor: %w", err)
	}

	type known struct {
		ID              string           `json:"id"`
		Name            string           `json:"name"`
		Characteristics []Characteristic `json:"characteristics"`
	}
	var k known
	if err := json.Unmarshal(data, &k); err != nil {
		return fmt.Errorf("decode type descriptor fields: %w", err)
	}

	t.ID = k.ID
	t.Name = k.Name
	t.Characteristics = k.Characteristics
	t.Extra = nil
	for key, raw := range fields {
		if typeKnownKeys[key] {
			continue
		}
		if t.Extra == nil {
			t.Extra = make(map[string]json.RawMessage)
		}
		t.Extra[key] = raw
	}
	return nil
}

func (t TypeDescriptor) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(t.Extra)+3)
	for key, raw := range t.Extra {
		out[key] = raw
	}

	raw, err := json.Marshal(t.ID)
	if err != nil {
		return nil, fmt.Errorf("encode type id: %w", err)
	}
	out["id"] = raw

	if t.Name != "" {
		raw, err = json.Marshal(t.Name)
		if err != nil {
			return nil, fmt.Errorf("encode type name: %w", err)
		}
		out["name"] = raw
	}
	if t.Characteristics != nil {
		raw, err = json.Marshal(t.Characteristics)
		if err != nil {
			return nil, fmt.Errorf("encode type characteristics: %w", err)
		}
		out["characteristics"] = raw
	}
	return json.Marshal(out)
}
