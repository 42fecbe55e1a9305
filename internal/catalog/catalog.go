// Package catalog holds the static tables shared with the analyzer suite:
// the database code registry and the category/type-array pairings.
package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Database maps a short code to a display name and a file in the data
// directory. The table mirrors the analyzer's DATABASE_CONFIGS.
type Database struct {
	Code string
	Name string
	File string
}

var databases = []Database{
	{Code: "OP1", Name: "Donetsk Oblast", File: "donetsk_oblast.json"},
	{Code: "OP2", Name: "Dnipropetrovsk Oblast", File: "dnipropetrovsk_oblast.json"},
	{Code: "OP3", Name: "Zaporizhzhia Oblast", File: "zaporizhzhia_oblast.json"},
	{Code: "OP4", Name: "Kyiv Oblast", File: "kyiv_oblast.json"},
	{Code: "OP5", Name: "Kirovohrad Oblast", File: "kirovohrad_oblast.json"},
	{Code: "OP6", Name: "Mykolaiv Oblast", File: "mykolaiv_oblast.json"},
	{Code: "OP7", Name: "Odesa Oblast", File: "odesa_oblast.json"},
	{Code: "OP8", Name: "Sumy Oblast", File: "sumy_oblast.json"},
	{Code: "combined", Name: "Combined", File: "ies4_consolidated.json"},
	{Code: "usa", Name: "United States", File: "ies4_usa_consolidated.json"},
	{Code: "uk", Name: "United Kingdom", File: "ies4_uk_consolidated.json"},
	{Code: "sweden", Name: "Sweden", File: "ies4_sweden_consolidated.json"},
	{Code: "russia", Name: "Russia", File: "ies4_russia_consolidated.json"},
	{Code: "poland", Name: "Poland", File: "ies4_poland_consolidated.json"},
	{Code: "germany", Name: "Germany", File: "ies4_germany_consolidated.json"},
	{Code: "finland", Name: "Finland", File: "ies4_finland_consolidated.json"},
	{Code: "iran", Name: "Iran", File: "ies4_iran_consolidated.json"},
	{Code: "china", Name: "China", File: "ies4_china_consolidated.json"},
	{Code: "france", Name: "France", File: "ies4_france_consolidated.json"},
	{Code: "north_korea", Name: "North Korea", File: "ies4_north_korea_consolidated.json"},
}

// DatabaseByCode resolves a database code. Codes are case-insensitive so
// "op7" and "OP7" are the same database.
func DatabaseByCode(code string) (Database, error) {
	for _, db := range databases {
		if strings.EqualFold(db.Code, code) {
			return db, nil
		}
	}
	return Database{}, fmt.Errorf("unknown database code %q (expected one of %s)", code, strings.Join(Codes(), ", "))
}

// Databases returns the full registry.
func Databases() []Database {
	out := make([]Database, len(databases))
	copy(out, databases)
	return out
}

// Codes returns all known database codes.
func Codes() []string {
	out := make([]string, 0, len(databases))
	for _, db := range databases {
		out = append(out, db.Code)
	}
	return out
}

// Category pairs an entity array with its type-descriptor array. The pairing
// is irregular (militaryUnits goes with unitTypes) so it is a table, not a
// naming convention.
type Category struct {
	// Key is the entity array's top-level key in the document.
	Key string
	// TypesKey is the paired type-descriptor array's key.
	TypesKey string
	// Kind is the id prefix for generated entity ids.
	Kind string
}

var categories = []Category{
	{Key: "militaryUnits", TypesKey: "unitTypes", Kind: "unit"},
	{Key: "vehicles", TypesKey: "vehicleTypes", Kind: "vehicle"},
	{Key: "aircraft", TypesKey: "aircraftTypes", Kind: "aircraft"},
	{Key: "missiles", TypesKey: "missileTypes", Kind: "missile"},
	{Key: "missileSystems", TypesKey: "missileSystemTypes", Kind: "missile-system"},
	{Key: "weapons", TypesKey: "weaponTypes", Kind: "weapon"},
	{Key: "organizations", TypesKey: "organizationTypes", Kind: "org"},
	{Key: "people", TypesKey: "peopleTypes", Kind: "person"},
	{Key: "areas", TypesKey: "areaTypes", Kind: "area"},
	{Key: "events", TypesKey: "eventTypes", Kind: "event"},
}

// CategoryByKey resolves a category by its entity array key.
func CategoryByKey(key string) (Category, error) {
	for _, c := range categories {
		if c.Key == key {
			return c, nil
		}
	}
	keys := make([]string, 0, len(categories))
	for _, c := range categories {
		keys = append(keys, c.Key)
	}
	sort.Strings(keys)
	return Category{}, fmt.Errorf("unknown category %q (expected one of %s)", key, strings.Join(keys, ", "))
}

// Categories returns every known category pairing.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}
