package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/opforge/ies4ctl/internal/catalog"
	"github.com/opforge/ies4ctl/internal/notify"
)

var diagDB string

// diagnosticCmd represents the diagnostic command
var diagnosticCmd = &cobra.Command{
	Use:   "diagnostic",
	Short: "Inspect a database file and the analyzer service",
	Long: `Diagnostic reports the state of one database: file location and size,
per-category record and type counts, and whether the analyzer web service
is reachable, including its filter suggestions for the database.

Example:
  ies4ctl diagnostic --db OP7`,
	Args: cobra.NoArgs,
	RunE: runDiagnostic,
}

func init() {
	rootCmd.AddCommand(diagnosticCmd)

	diagnosticCmd.Flags().StringVar(&diagDB, "db", "", "database code (OP1..OP8 or a country code)")
	_ = diagnosticCmd.MarkFlagRequired("db")
}

func runDiagnostic(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	db, err := catalog.DatabaseByCode(diagDB)
	if err != nil {
		return err
	}

	path := a.store.Path(db)
	fmt.Printf("Database:  %s (%s)\n", db.Name, db.Code)
	fmt.Printf("File:      %s\n", path)

	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Status:    missing (%v)\n", err)
		return nil
	}
	fmt.Printf("Size:      %d bytes\n", info.Size())
	fmt.Printf("Modified:  %s\n", info.ModTime().Format(time.RFC3339))

	doc, err := a.store.Load(db, true)
	if err != nil {
		fmt.Printf("Status:    unreadable (%v)\n", err)
		return nil
	}
	fmt.Printf("Keys:      %d top-level\n", len(doc.Keys()))

	fmt.Println("\nRecords:")
	for _, cat := range catalog.Categories() {
		entities, err := doc.Entities(cat.Key)
		if err != nil {
			fmt.Printf("  %-20s decode error: %v\n", cat.Key, err)
			continue
		}
		types, err := doc.Types(cat.TypesKey)
		if err != nil {
			fmt.Printf("  %-20s types decode error: %v\n", cat.TypesKey, err)
			continue
		}
		if len(entities) == 0 && len(types) == 0 && !doc.Has(cat.Key) {
			continue
		}
		fmt.Printf("  %-20s %d record(s), %d type(s)\n", cat.Key, len(entities), len(types))
	}

	if a.cfg.Service.Enabled {
		printServiceStatus(a, db)
	}
	return nil
}

// printServiceStatus probes the analyzer and shows its filter suggestions.
// Failures are informational: the diagnostic itself always succeeds.
func printServiceStatus(a *app, db catalog.Database) {
	fmt.Printf("\nService:   %s\n", a.cfg.Service.BaseURL)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := notify.NewClient(a.cfg.Service, a.log)
	dbs, err := client.Databases(ctx)
	if err != nil {
		fmt.Printf("Reachable: no (%v)\n", err)
		return
	}
	fmt.Printf("Reachable: yes, %d database(s) loaded\n", len(dbs))

	suggestions, err := client.FilterSuggestions(ctx, db.Code)
	if err != nil {
		fmt.Printf("Filters:   unavailable (%v)\n", err)
		return
	}
	keys := make([]string, 0, len(suggestions))
	for k := range suggestions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("Filters:   %s: %v\n", k, suggestions[k])
	}
}
