package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/opforge/ies4ctl/internal/catalog"
	"github.com/opforge/ies4ctl/internal/manifest"
	"github.com/opforge/ies4ctl/internal/registry"
)

// Run executes one operation against its database: load, mutate, save,
// notify. It satisfies worker.Runner so the batch command can reuse it.
func (a *app) Run(ctx context.Context, op manifest.Operation) error {
	db, err := catalog.DatabaseByCode(op.Database)
	if err != nil {
		return err
	}
	cat, err := catalog.CategoryByKey(op.Payload.Category)
	if err != nil {
		return err
	}
	matcher, err := op.Payload.Matcher()
	if err != nil {
		return err
	}

	doc, err := a.store.Load(db, false)
	if err != nil {
		return err
	}

	switch op.Action {
	case manifest.ActionAdd:
		entity := *op.Payload.Entity
		if entity.Type == "" && op.Payload.Type != nil {
			entity.Type = op.Payload.Type.ID
		}
		if entity.ID == "" {
			slug := registry.Slug(entity.PrimaryName())
			if slug == "" {
				return fmt.Errorf("entity has neither an id nor a name to derive one from")
			}
			entity.ID, err = registry.NextID(doc, cat, slug, db.Code)
			if err != nil {
				return err
			}
		}

		res, err := registry.Upsert(doc, cat, entity, op.Payload.Type, matcher)
		if err != nil {
			return err
		}
		if err := a.store.Save(db, doc); err != nil {
			return err
		}

		if res.Replaced {
			fmt.Printf("Updated %s in %s (%s), kept id %s\n", entity.PrimaryName(), db.Name, cat.Key, res.ID)
		} else {
			fmt.Printf("Added %s to %s (%s) as %s\n", entity.PrimaryName(), db.Name, cat.Key, res.ID)
		}
		if res.TypeAdded {
			fmt.Printf("Registered type descriptor %s in %s\n", op.Payload.Type.ID, cat.TypesKey)
		}

	case manifest.ActionRemove:
		typeID := ""
		if op.Payload.Type != nil {
			typeID = op.Payload.Type.ID
		} else if op.Payload.Entity != nil {
			typeID = op.Payload.Entity.Type
		}

		res, err := registry.RemoveAll(doc, cat, matcher, typeID)
		if err != nil {
			return err
		}
		if res.Removed == 0 {
			// Nothing changed on disk, so nothing to save or notify.
			fmt.Printf("No records in %s (%s) matched; nothing removed\n", db.Name, cat.Key)
			return nil
		}
		if err := a.store.Save(db, doc); err != nil {
			return err
		}

		fmt.Printf("Removed %d record(s) from %s (%s): %s\n", res.Removed, db.Name, cat.Key, strings.Join(res.IDs, ", "))
		if res.TypePruned {
			fmt.Printf("Pruned type descriptor %s from %s (no remaining references)\n", typeID, cat.TypesKey)
		}

	default:
		return fmt.Errorf("unknown action %q", op.Action)
	}

	a.notifyChange(ctx, db.Code)
	return nil
}

// warnMatcher prints the identity signals in play so the operator can see
// what the fuzzy match will key on.
func warnMatcher(m registry.Matcher) {
	if !verbose {
		return
	}
	fmt.Fprintf(os.Stderr, "Matching on id substrings %v, names %v, identifiers %v\n",
		m.IDSubstrings, m.Names, m.Identifiers)
}
