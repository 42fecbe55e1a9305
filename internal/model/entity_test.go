package model

import (
	"encoding/json"
	"testing"
)

func TestEntityRoundTripPreservesUnknownFields(t *testing.T) {
	in := []byte(`{
		"id": "unit-39th-guards-mrb-op7-001",
		"type": "motor-rifle-brigade",
		"names": [{"value": "39th Guards Motor Rifle Brigade", "language": "en", "nameType": "official"}],
		"identifiers": [{"value": "39 gv. omsbr", "identifierType": "short", "issuingAuthority": "MoD"}],
		"specifications": {"personnel": 3500},
		"states": [{"stateType": "deployed", "startDate": "2024-03-01", "location": "Odesa Oblast"}],
		"customField": {"nested": [1, 2, 3]},
		"anotherExtra": "kept"
	}`)

	var e Entity
	if err := json.Unmarshal(in, &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if e.ID != "unit-39th-guards-mrb-op7-001" {
		t.Errorf("unexpected id: %s", e.ID)
	}
	if e.Type != "motor-rifle-brigade" {
		t.Errorf("unexpected type: %s", e.Type)
	}
	if len(e.Names) != 1 || e.Names[0].Value != "39th Guards Motor Rifle Brigade" {
		t.Errorf("unexpected names: %+v", e.Names)
	}
	if len(e.Extra) != 2 {
		t.Fatalf("expected 2 extra fields, got %d: %v", len(e.Extra), e.Extra)
	}

	out, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got, want map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if err := json.Unmarshal(in, &want); err != nil {
		t.Fatalf("unmarshal input: %v", err)
	}
	assertEqualJSON(t, got, want)
}

func TestEntityMarshalOmitsEmptyCollections(t *testing.T) {
	out, err := json.Marshal(Entity{ID: "vehicle-t90m-op3-001"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(m) != 1 {
		t.Errorf("expected only id, got %v", m)
	}
	if m["id"] != "vehicle-t90m-op3-001" {
		t.Errorf("unexpected id: %v", m["id"])
	}
}

func TestEntityPrimaryName(t *testing.T) {
	e := Entity{
		ID: "unit-x-op1-001",
		Names: []Name{
			{Value: ""},
			{Value: "93rd Mechanized Brigade"},
		},
	}
	if got := e.PrimaryName(); got != "93rd Mechanized Brigade" {
		t.Errorf("unexpected primary name: %s", got)
	}
	if got := (Entity{ID: "unit-x-op1-001"}).PrimaryName(); got != "unit-x-op1-001" {
		t.Errorf("expected id fallback, got %s", got)
	}
}

func TestTypeDescriptorRoundTrip(t *testing.T) {
	in := []byte(`{
		"id": "motor-rifle-brigade",
		"name": "Motor Rifle Brigade",
		"characteristics": [{"key": "echelon", "value": "brigade", "dataType": "string"}],
		"doctrine": "combined arms"
	}`)

	var td TypeDescriptor
	if err := json.Unmarshal(in, &td); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if td.ID != "motor-rifle-brigade" {
		t.Errorf("unexpected id: %s", td.ID)
	}
	if _, ok := td.Extra["doctrine"]; !ok {
		t.Fatalf("extra field dropped: %v", td.Extra)
	}

	out, err := json.Marshal(td)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got, want map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if err := json.Unmarshal(in, &want); err != nil {
		t.Fatalf("unmarshal input: %v", err)
	}
	assertEqualJSON(t, got, want)
}

// assertEqualJSON compares two decoded JSON values structurally.
func assertEqualJSON(t *testing.T, got, want any) {
	t.Helper()
	g, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal got: %v", err)
	}
	w, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal want: %v", err)
	}
	if string(g) != string(w) {
		t.Errorf("JSON mismatch:\n got: %s\nwant: %s", g, w)
	}
}
