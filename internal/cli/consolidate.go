package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/opforge/ies4ctl/internal/catalog"
	"github.com/opforge/ies4ctl/internal/consolidate"
)

var (
	consolidateOut string
	consolidateDBs []string
)

// consolidateCmd represents the consolidate command
var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Merge regional databases into one combined file",
	Long: `Consolidate merges several databases into a single combined document,
deduplicating entities by id (first occurrence wins) and tagging every
record with its source file.

Example:
  ies4ctl consolidate --out ies4_consolidated.json
  ies4ctl consolidate --out south.json --db OP3 --db OP6 --db OP7`,
	Args: cobra.NoArgs,
	RunE: runConsolidate,
}

func init() {
	rootCmd.AddCommand(consolidateCmd)

	consolidateCmd.Flags().StringVar(&consolidateOut, "out", "ies4_consolidated.json", "output file (relative paths resolve against the data directory)")
	consolidateCmd.Flags().StringSliceVar(&consolidateDBs, "db", nil, "database codes to merge (default: OP1..OP8)")
}

func runConsolidate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	codes := consolidateDBs
	if len(codes) == 0 {
		// Default to the oblast databases; merging an earlier
		// consolidated file into itself would double everything.
		codes = []string{"OP1", "OP2", "OP3", "OP4", "OP5", "OP6", "OP7", "OP8"}
	}

	var sources []consolidate.Source
	for _, code := range codes {
		db, err := catalog.DatabaseByCode(code)
		if err != nil {
			return err
		}
		doc, err := a.store.Load(db, noCache)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping %s: %v\n", db.Code, err)
			continue
		}
		sources = append(sources, consolidate.Source{Database: db, Doc: doc})
	}

	merged, stats, err := consolidate.Merge(sources, time.Now())
	if err != nil {
		return err
	}

	out := consolidateOut
	if !filepath.IsAbs(out) {
		out = filepath.Join(a.cfg.DataDir, out)
	}
	data, err := merged.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Printf("Consolidated %d database(s) into %s\n", stats.Sources, out)
	keys := make([]string, 0, len(stats.Entities))
	for k := range stats.Entities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-20s %d record(s)\n", k, stats.Entities[k])
	}
	if stats.Duplicates > 0 {
		fmt.Printf("  %d duplicate id(s) skipped\n", stats.Duplicates)
	}
	return nil
}
