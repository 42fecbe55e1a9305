// Package manifest reads the payload and batch files that replaced the old
// per-entity scripts. A payload describes one record; a manifest is a list
// of add/remove operations across databases.
//
// Files may be YAML or JSON. YAML input is converted to JSON before
// decoding so both formats share the entity codec.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opforge/ies4ctl/internal/model"
	"github.com/opforge/ies4ctl/internal/registry"
)

// Action selects what an operation does.
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

// Payload describes one entity operation: the record itself, its type
// descriptor, and the identity-match signals.
type Payload struct {
	// Database optionally names the target database; the --db flag wins.
	Database string `json:"database,omitempty"`
	// Category is the entity array key, e.g. "militaryUnits".
	Category string `json:"category"`
	// Match carries the identity signals. When absent on an add, the
	// matcher is derived from the entity's own id, names, and
	// identifiers.
	Match *registry.Matcher `json:"match,omitempty"`
	// Entity is the record to insert. Optional for remove operations
	// that carry an explicit Match.
	Entity *model.Entity `json:"entity,omitempty"`
	// Type is the shared type descriptor for the entity's category.
	Type *model.TypeDescriptor `json:"type,omitempty"`
}

// Matcher returns the payload's match signals, derived from the entity when
// no explicit match block was given.
func (p *Payload) Matcher() (registry.Matcher, error) {
	if p.Match != nil {
		if p.Match.Empty() {
			return registry.Matcher{}, fmt.Errorf("payload match block is empty")
		}
		return *p.Match, nil
	}
	if p.Entity == nil {
		return registry.Matcher{}, fmt.Errorf("payload has neither a match block nor an entity")
	}
	m := registry.MatcherForEntity(*p.Entity)
	if m.Empty() {
		return registry.Matcher{}, fmt.Errorf("entity has no id, names, or identifiers to match on")
	}
	return m, nil
}

// Validate checks the payload for an operation of the given action.
func (p *Payload) Validate(action Action) error {
	if p.Category == "" {
		return fmt.Errorf("payload is missing category")
	}
	if action == ActionAdd && p.Entity == nil {
		return fmt.Errorf("add payload is missing entity")
	}
	if _, err := p.Matcher(); err != nil {
		return err
	}
	return nil
}

// Operation is one step of a batch manifest.
type Operation struct {
	Action   Action  `json:"action"`
	Database string  `json:"database"`
	Payload  Payload `json:"payload"`
	// File optionally points at a separate payload file instead of an
	// inline payload; relative paths resolve against the manifest.
	File string `json:"file,omitempty"`
}

// Manifest is a batch of operations.
type Manifest struct {
	Operations []Operation `json:"operations"`
}

// LoadPayload reads a payload file.
func LoadPayload(path string) (*Payload, error) {
	data, err := readAsJSON(path)
	if err != nil {
		return nil, err
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode payload %s: %w", path, err)
	}
	return &p, nil
}

// Load reads a batch manifest and resolves any file-referenced payloads.
func Load(path string) (*Manifest, error) {
	data, err := readAsJSON(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	if len(m.Operations) == 0 {
		return nil, fmt.Errorf("manifest %s has no operations", path)
	}

	dir := filepath.Dir(path)
	for i := range m.Operations {
		op := &m.Operations[i]
		switch op.Action {
		case ActionAdd, ActionRemove:
		default:
			return nil, fmt.Errorf("manifest %s: operation %d has unknown action %q", path, i+1, op.Action)
		}
		if op.File != "" {
			ref := op.File
			if !filepath.IsAbs(ref) {
				ref = filepath.Join(dir, ref)
			}
			p, err := LoadPayload(ref)
			if err != nil {
				return nil, fmt.Errorf("manifest %s: operation %d: %w", path, i+1, err)
			}
			op.Payload = *p
		}
		if op.Database == "" {
			op.Database = op.Payload.Database
		}
		if op.Database == "" {
			return nil, fmt.Errorf("manifest %s: operation %d names no database", path, i+1)
		}
		if err := op.Payload.Validate(op.Action); err != nil {
			return nil, fmt.Errorf("manifest %s: operation %d: %w", path, i+1, err)
		}
	}
	return &m, nil
}

// readAsJSON reads a file and returns its contents as JSON bytes,
// converting from YAML when the extension says so.
func readAsJSON(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlToJSON(data)
	default:
		return data, nil
	}
}

// yamlToJSON converts a YAML document to JSON so the entity types' JSON
// codecs apply to both formats.
func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	v = normalizeYAML(v)
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("convert yaml to json: %w", err)
	}
	return out, nil
}

// normalizeYAML rewrites map[any]any keys (possible with older yaml inputs)
// into string keys for json.Marshal.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeYAML(item)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case []any:
		for i, item := range val {
			val[i] = normalizeYAML(item)
		}
		return val
	default:
		return v
	}
}
