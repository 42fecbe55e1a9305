package catalog

import (
	"strings"
	"testing"
)

func TestDatabaseByCode(t *testing.T) {
	db, err := DatabaseByCode("OP7")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if db.Name != "Odesa Oblast" || db.File != "odesa_oblast.json" {
		t.Errorf("unexpected database: %+v", db)
	}

	// Codes are case-insensitive.
	lower, err := DatabaseByCode("op7")
	if err != nil {
		t.Fatalf("lowercase lookup: %v", err)
	}
	if lower.Code != db.Code {
		t.Errorf("case-insensitive lookup mismatch: %+v", lower)
	}

	if _, err := DatabaseByCode("OP99"); err == nil {
		t.Error("expected error for unknown code")
	} else if !strings.Contains(err.Error(), "OP99") {
		t.Errorf("error should name the bad code: %v", err)
	}
}

func TestCountryDatabases(t *testing.T) {
	db, err := DatabaseByCode("russia")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if db.File != "ies4_russia_consolidated.json" {
		t.Errorf("unexpected file: %s", db.File)
	}
}

func TestCategoryByKey(t *testing.T) {
	cat, err := CategoryByKey("militaryUnits")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	// The pairing is irregular: militaryUnits goes with unitTypes.
	if cat.TypesKey != "unitTypes" {
		t.Errorf("TypesKey = %s, want unitTypes", cat.TypesKey)
	}
	if cat.Kind != "unit" {
		t.Errorf("Kind = %s, want unit", cat.Kind)
	}

	if _, err := CategoryByKey("submarines"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestGeographicAndEventCategories(t *testing.T) {
	// The oblast files carry areas and events arrays alongside the
	// equipment categories; both must be addressable.
	area, err := CategoryByKey("areas")
	if err != nil {
		t.Fatalf("areas lookup: %v", err)
	}
	if area.TypesKey != "areaTypes" || area.Kind != "area" {
		t.Errorf("unexpected areas category: %+v", area)
	}

	event, err := CategoryByKey("events")
	if err != nil {
		t.Fatalf("events lookup: %v", err)
	}
	if event.TypesKey != "eventTypes" || event.Kind != "event" {
		t.Errorf("unexpected events category: %+v", event)
	}
}

func TestCategoriesHaveDistinctKeys(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range Categories() {
		if seen[c.Key] {
			t.Errorf("duplicate category key %s", c.Key)
		}
		seen[c.Key] = true
		if c.TypesKey == "" || c.Kind == "" {
			t.Errorf("incomplete category %+v", c)
		}
	}
}
