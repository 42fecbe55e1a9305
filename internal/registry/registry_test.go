package registry

import (
	"encoding/json"
	"testing"

	"github.com/opforge/ies4ctl/internal/catalog"
	"github.com/opforge/ies4ctl/internal/model"
)

func unitsCategory(t *testing.T) catalog.Category {
	t.Helper()
	cat, err := catalog.CategoryByKey("militaryUnits")
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	return cat
}

func emptyOblastDoc(t *testing.T) *model.Document {
	t.Helper()
	doc, err := model.ParseDocument([]byte(`{"title": "Odesa Oblast", "militaryUnits": [], "unitTypes": []}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func brigade() (model.Entity, *model.TypeDescriptor) {
	e := model.Entity{
		ID:    "unit-39th-guards-mrb-op7-001",
		Type:  "motor-rifle-brigade",
		Names: []model.Name{{Value: "39th Guards Motor Rifle Brigade", Language: "en", NameType: "official"}},
		Identifiers: []model.Identifier{
			{Value: "39 gv. omsbr", IdentifierType: "short", IssuingAuthority: "MoD"},
		},
	}
	td := &model.TypeDescriptor{
		ID:   "motor-rifle-brigade",
		Name: "Motor Rifle Brigade",
		Characteristics: []model.Characteristic{
			{Key: "echelon", Value: "brigade", DataType: "string"},
		},
	}
	return e, td
}

func TestUpsertAppendsWhenNoMatch(t *testing.T) {
	doc := emptyOblastDoc(t)
	cat := unitsCategory(t)
	entity, td := brigade()

	res, err := Upsert(doc, cat, entity, td, MatcherForEntity(entity))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if res.Replaced {
		t.Error("expected append, got replace")
	}
	if !res.TypeAdded {
		t.Error("expected type descriptor to be added")
	}
	if res.ID != "unit-39th-guards-mrb-op7-001" {
		t.Errorf("unexpected id: %s", res.ID)
	}

	units, err := doc.Entities(cat.Key)
	if err != nil {
		t.Fatalf("entities: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(units))
	}
	types, err := doc.Types(cat.TypesKey)
	if err != nil {
		t.Fatalf("types: %v", err)
	}
	if len(types) != 1 || types[0].ID != "motor-rifle-brigade" {
		t.Fatalf("unexpected types: %+v", types)
	}
}

func TestUpsertReplacesInPlacePreservingID(t *testing.T) {
	doc := emptyOblastDoc(t)
	cat := unitsCategory(t)
	entity, td := brigade()

	if _, err := Upsert(doc, cat, entity, td, MatcherForEntity(entity)); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// Same real-world entity under a new payload id and updated specs.
	updated := entity
	updated.ID = "unit-39th-guards-mrb-op7-999"
	updated.Specifications = map[string]any{"personnel": 3200}

	res, err := Upsert(doc, cat, updated, td, MatcherForEntity(updated))
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if !res.Replaced {
		t.Fatal("expected replace")
	}
	if res.ID != "unit-39th-guards-mrb-op7-001" {
		t.Errorf("original id not preserved: %s", res.ID)
	}
	if res.TypeAdded {
		t.Error("type descriptor added twice")
	}

	units, err := doc.Entities(cat.Key)
	if err != nil {
		t.Fatalf("entities: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("array length changed on update: %d", len(units))
	}
	if units[0].ID != "unit-39th-guards-mrb-op7-001" {
		t.Errorf("stored id = %s", units[0].ID)
	}
	if units[0].Specifications["personnel"] != float64(3200) {
		t.Errorf("content not updated: %+v", units[0].Specifications)
	}
}

func TestUpsertLeavesOtherEntitiesUntouched(t *testing.T) {
	doc, err := model.ParseDocument([]byte(`{
		"militaryUnits": [
			{"id": "unit-126th-tdf-op7-001", "type": "territorial-defense",
			 "names": [{"value": "126th TDF Brigade"}],
			 "customField": {"keep": true}}
		],
		"unitTypes": [{"id": "territorial-defense"}]
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cat := unitsCategory(t)
	entity, td := brigade()

	res, err := Upsert(doc, cat, entity, td, MatcherForEntity(entity))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if res.Replaced {
		t.Fatal("matched an unrelated unit")
	}

	units, err := doc.Entities(cat.Key)
	if err != nil {
		t.Fatalf("entities: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	raw, err := json.Marshal(units[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["customField"]; !ok {
		t.Error("pre-existing unit lost its custom field")
	}
}

func TestRemoveAllCountsAndPrunesType(t *testing.T) {
	doc := emptyOblastDoc(t)
	cat := unitsCategory(t)
	entity, td := brigade()

	if _, err := Upsert(doc, cat, entity, td, MatcherForEntity(entity)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	res, err := RemoveAll(doc, cat, MatcherForEntity(entity), td.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if res.Removed != 1 {
		t.Errorf("removed = %d, want 1", res.Removed)
	}
	if len(res.IDs) != 1 || res.IDs[0] != "unit-39th-guards-mrb-op7-001" {
		t.Errorf("unexpected removed ids: %v", res.IDs)
	}
	if !res.TypePruned {
		t.Error("orphaned type descriptor not pruned")
	}

	units, err := doc.Entities(cat.Key)
	if err != nil {
		t.Fatalf("entities: %v", err)
	}
	if len(units) != 0 {
		t.Errorf("expected empty array, got %d", len(units))
	}
	types, err := doc.Types(cat.TypesKey)
	if err != nil {
		t.Fatalf("types: %v", err)
	}
	if len(types) != 0 {
		t.Errorf("expected empty types, got %+v", types)
	}
}

func TestRemoveAllKeepsTypeWhileReferenced(t *testing.T) {
	doc := emptyOblastDoc(t)
	cat := unitsCategory(t)
	first, td := brigade()

	second := model.Entity{
		ID:    "unit-28th-mrb-op7-001",
		Type:  "motor-rifle-brigade",
		Names: []model.Name{{Value: "28th Mechanized Brigade"}},
	}

	if _, err := Upsert(doc, cat, first, td, MatcherForEntity(first)); err != nil {
		t.Fatalf("upsert first: %v", err)
	}
	if _, err := Upsert(doc, cat, second, td, MatcherForEntity(second)); err != nil {
		t.Fatalf("upsert second: %v", err)
	}

	res, err := RemoveAll(doc, cat, MatcherForEntity(first), td.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if res.Removed != 1 {
		t.Errorf("removed = %d, want 1", res.Removed)
	}
	if res.TypePruned {
		t.Error("type descriptor pruned while a sibling still references it")
	}

	types, err := doc.Types(cat.TypesKey)
	if err != nil {
		t.Fatalf("types: %v", err)
	}
	if len(types) != 1 {
		t.Errorf("expected 1 type, got %d", len(types))
	}
}

func TestRemoveAllDropsEveryMatch(t *testing.T) {
	doc, err := model.ParseDocument([]byte(`{
		"militaryUnits": [
			{"id": "unit-39th-guards-mrb-op7-001", "names": [{"value": "39th Guards Brigade"}]},
			{"id": "unit-39th-guards-mrb-op7-002", "names": [{"value": "39th Guards Brigade (duplicate)"}]},
			{"id": "unit-126th-tdf-op7-001", "names": [{"value": "126th TDF Brigade"}]}
		],
		"unitTypes": []
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cat := unitsCategory(t)

	res, err := RemoveAll(doc, cat, Matcher{Names: []string{"39th Guards"}}, "")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if res.Removed != 2 {
		t.Errorf("removed = %d, want 2", res.Removed)
	}

	units, err := doc.Entities(cat.Key)
	if err != nil {
		t.Fatalf("entities: %v", err)
	}
	if len(units) != 1 || units[0].ID != "unit-126th-tdf-op7-001" {
		t.Errorf("wrong survivor: %+v", units)
	}
}

func TestRemoveAllNoMatchIsNoop(t *testing.T) {
	doc := emptyOblastDoc(t)
	cat := unitsCategory(t)

	res, err := RemoveAll(doc, cat, Matcher{Names: []string{"nobody"}}, "motor-rifle-brigade")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if res.Removed != 0 || res.TypePruned {
		t.Errorf("expected no-op, got %+v", res)
	}
}

func TestNextID(t *testing.T) {
	doc, err := model.ParseDocument([]byte(`{
		"militaryUnits": [
			{"id": "unit-39th-guards-mrb-op7-001"},
			{"id": "unit-39th-guards-mrb-op7-007"},
			{"id": "unit-126th-tdf-op7-001"}
		]
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cat := unitsCategory(t)

	id, err := NextID(doc, cat, "39th-guards-mrb", "OP7")
	if err != nil {
		t.Fatalf("next id: %v", err)
	}
	if id != "unit-39th-guards-mrb-op7-008" {
		t.Errorf("id = %s, want unit-39th-guards-mrb-op7-008", id)
	}

	id, err = NextID(doc, cat, "new-unit", "OP7")
	if err != nil {
		t.Fatalf("next id: %v", err)
	}
	if id != "unit-new-unit-op7-001" {
		t.Errorf("id = %s, want unit-new-unit-op7-001", id)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct{ in, want string }{
		{"39th Guards Motor Rifle Brigade", "39th-guards-motor-rifle-brigade"},
		{"  T-90M  ", "t-90m"},
		{"S-400 \"Triumf\"", "s-400-triumf"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
