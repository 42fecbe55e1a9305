// Package consolidate merges several regional databases into one combined
// document, the way the analyzer suite's consolidator builds
// ies4_consolidated.json.
package consolidate

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/opforge/ies4ctl/internal/catalog"
	"github.com/opforge/ies4ctl/internal/model"
)

// Source is one input database.
type Source struct {
	Database catalog.Database
	Doc      *model.Document
}

// Stats summarizes a merge.
type Stats struct {
	Sources    int
	Entities   map[string]int // per category key
	Types      map[string]int // per types key
	Duplicates int            // entities skipped because their id was already merged
}

// Merge combines the sources into a fresh consolidated document. Entities
// are deduplicated by id across sources, first occurrence wins, and each
// merged record is tagged with the file it came from. Type descriptors are
// merged by id.
func Merge(sources []Source, now time.Time) (*model.Document, *Stats, error) {
	if len(sources) == 0 {
		return nil, nil, fmt.Errorf("no source databases to consolidate")
	}

	out := model.NewDocument()
	stats := &Stats{
		Sources:  len(sources),
		Entities: make(map[string]int),
		Types:    make(map[string]int),
	}

	files := make([]string, 0, len(sources))
	for _, src := range sources {
		files = append(files, src.Database.File)
	}
	header := map[string]any{
		"title":          "Consolidated IES4 Military Database",
		"description":    "Consolidated from regional database files",
		"consolidatedAt": now.UTC().Format(time.RFC3339),
		"sourceFiles":    files,
	}
	for _, key := range []string{"title", "description", "consolidatedAt", "sourceFiles"} {
		raw, err := json.Marshal(header[key])
		if err != nil {
			return nil, nil, fmt.Errorf("encode header %s: %w", key, err)
		}
		out.SetRaw(key, raw)
	}

	for _, cat := range catalog.Categories() {
		var merged []model.Entity
		seen := make(map[string]bool)
		for _, src := range sources {
			entities, err := src.Doc.Entities(cat.Key)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w", src.Database.File, err)
			}
			for _, e := range entities {
				if e.ID != "" && seen[e.ID] {
					stats.Duplicates++
					continue
				}
				if e.ID != "" {
					seen[e.ID] = true
				}
				merged = append(merged, tagSource(e, src.Database.File))
			}
		}

		var mergedTypes []model.TypeDescriptor
		seenTypes := make(map[string]bool)
		for _, src := range sources {
			types, err := src.Doc.Types(cat.TypesKey)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w", src.Database.File, err)
			}
			for _, t := range types {
				if t.ID != "" && seenTypes[t.ID] {
					continue
				}
				if t.ID != "" {
					seenTypes[t.ID] = true
				}
				mergedTypes = append(mergedTypes, t)
			}
		}

		if merged == nil && mergedTypes == nil {
			continue
		}
		if err := out.SetEntities(cat.Key, merged); err != nil {
			return nil, nil, err
		}
		if err := out.SetTypes(cat.TypesKey, mergedTypes); err != nil {
			return nil, nil, err
		}
		stats.Entities[cat.Key] = len(merged)
		stats.Types[cat.TypesKey] = len(mergedTypes)
	}

	return out, stats, nil
}

// tagSource records the originating file on the entity, matching the
// consolidator's _consolidation metadata.
func tagSource(e model.Entity, file string) model.Entity {
	meta, err := json.Marshal(map[string]string{"sourceFile": file})
	if err != nil {
		return e
	}
	extra := make(map[string]json.RawMessage, len(e.Extra)+1)
	for k, v := range e.Extra {
		extra[k] = v
	}
	extra["_consolidation"] = meta
	e.Extra = extra
	return e
}
