// Package registry implements the shared record logic behind every add and
// remove operation: upsert-by-heuristic-match into a category array, delete
// of all matches, and type-descriptor lifecycle alongside both.
package registry

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/opforge/ies4ctl/internal/catalog"
	"github.com/opforge/ies4ctl/internal/model"
)

// UpsertResult reports what an upsert did.
type UpsertResult struct {
	// ID is the id the record carries after the operation. On a replace
	// this is the matched record's original id, not the candidate's.
	ID string
	// Replaced is true when an existing record was updated in place,
	// false when the candidate was appended.
	Replaced bool
	// ReplacedID is the id of the record that was replaced, when Replaced.
	ReplacedID string
	// TypeAdded is true when the type descriptor was appended.
	TypeAdded bool
}

// Upsert inserts candidate into the category array of doc, or replaces the
// first record the matcher identifies. A replace keeps the original record's
// id so references from other files stay valid. When typeDesc is non-nil its
// descriptor is appended to the paired types array unless one with the same
// id is already present.
func Upsert(doc *model.Document, cat catalog.Category, candidate model.Entity, typeDesc *model.TypeDescriptor, m Matcher) (UpsertResult, error) {
	entities, err := doc.Entities(cat.Key)
	if err != nil {
		return UpsertResult{}, err
	}

	res := UpsertResult{ID: candidate.ID}
	matched := -1
	for i, e := range entities {
		if m.Matches(e) {
			matched = i
			break
		}
	}

	if matched >= 0 {
		original := entities[matched].ID
		if original != "" {
			candidate.ID = original
		}
		entities[matched] = candidate
		res.ID = candidate.ID
		res.Replaced = true
		res.ReplacedID = original
	} else {
		entities = append(entities, candidate)
	}
	if err := doc.SetEntities(cat.Key, entities); err != nil {
		return UpsertResult{}, err
	}

	if typeDesc != nil && typeDesc.ID != "" {
		added, err := ensureType(doc, cat, *typeDesc)
		if err != nil {
			return UpsertResult{}, err
		}
		res.TypeAdded = added
	}
	return res, nil
}

// ensureType appends desc to the category's types array when no descriptor
// with the same id exists yet.
func ensureType(doc *model.Document, cat catalog.Category, desc model.TypeDescriptor) (bool, error) {
	types, err := doc.Types(cat.TypesKey)
	if err != nil {
		return false, err
	}
	for _, t := range types {
		if t.ID == desc.ID {
			return false, nil
		}
	}
	types = append(types, desc)
	if err := doc.SetTypes(cat.TypesKey, types); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveResult reports what a removal did.
type RemoveResult struct {
	// Removed is the number of records dropped.
	Removed int
	// IDs lists the ids of the dropped records, in array order, so the
	// caller can surface exactly what the heuristic matched.
	IDs []string
	// TypePruned is true when the type descriptor was dropped because no
	// surviving record references it.
	TypePruned bool
}

// RemoveAll drops every record in the category array that the matcher
// identifies. When typeID is non-empty and no surviving record references
// it, the corresponding type descriptor is pruned from the types array.
func RemoveAll(doc *model.Document, cat catalog.Category, m Matcher, typeID string) (RemoveResult, error) {
	entities, err := doc.Entities(cat.Key)
	if err != nil {
		return RemoveResult{}, err
	}

	res := RemoveResult{}
	kept := entities[:0]
	for _, e := range entities {
		if m.Matches(e) {
			res.Removed++
			res.IDs = append(res.IDs, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	if res.Removed == 0 {
		return res, nil
	}
	if err := doc.SetEntities(cat.Key, kept); err != nil {
		return RemoveResult{}, err
	}

	if typeID != "" {
		pruned, err := pruneType(doc, cat, kept, typeID)
		if err != nil {
			return RemoveResult{}, err
		}
		res.TypePruned = pruned
	}
	return res, nil
}

// pruneType drops the descriptor for typeID unless some remaining entity
// still references it.
func pruneType(doc *model.Document, cat catalog.Category, remaining []model.Entity, typeID string) (bool, error) {
	for _, e := range remaining {
		if e.Type == typeID {
			return false, nil
		}
	}
	types, err := doc.Types(cat.TypesKey)
	if err != nil {
		return false, err
	}
	kept := types[:0]
	pruned := false
	for _, t := range types {
		if t.ID == typeID {
			pruned = true
			continue
		}
		kept = append(kept, t)
	}
	if !pruned {
		return false, nil
	}
	if err := doc.SetTypes(cat.TypesKey, kept); err != nil {
		return false, err
	}
	return true, nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slug normalizes a display name into the lowercase hyphenated form used in
// entity ids.
func Slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugStrip.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NextID builds an id of the conventional form <kind>-<slug>-<db>-<seq>,
// where seq is one past the highest sequence already used with the same
// prefix in the category array.
func NextID(doc *model.Document, cat catalog.Category, slug, dbCode string) (string, error) {
	entities, err := doc.Entities(cat.Key)
	if err != nil {
		return "", err
	}
	prefix := fmt.Sprintf("%s-%s-%s-", cat.Kind, slug, strings.ToLower(dbCode))
	max := 0
	for _, e := range entities {
		id := strings.ToLower(e.ID)
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		n, err := strconv.Atoi(id[len(prefix):])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, max+1), nil
}
