package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/opforge/ies4ctl/internal/catalog"
)

var (
	listDB       string
	listCategory string
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the entity records of a database",
	Long: `List prints the records of one database, per category, with their
ids, primary names, and type references.

Example:
  ies4ctl list --db OP7
  ies4ctl list --db OP7 --category militaryUnits`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listDB, "db", "", "database code (OP1..OP8 or a country code)")
	listCmd.Flags().StringVar(&listCategory, "category", "", "limit output to one entity array key")
	_ = listCmd.MarkFlagRequired("db")
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	db, err := catalog.DatabaseByCode(listDB)
	if err != nil {
		return err
	}

	cats := catalog.Categories()
	if listCategory != "" {
		cat, err := catalog.CategoryByKey(listCategory)
		if err != nil {
			return err
		}
		cats = []catalog.Category{cat}
	}

	doc, err := a.store.Load(db, noCache)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s): %s\n", db.Name, db.Code, a.store.Path(db))
	total := 0
	for _, cat := range cats {
		entities, err := doc.Entities(cat.Key)
		if err != nil {
			return err
		}
		if len(entities) == 0 {
			continue
		}
		total += len(entities)

		fmt.Printf("\n%s (%d)\n", cat.Key, len(entities))
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  ID\tNAME\tTYPE")
		for _, e := range entities {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", e.ID, e.PrimaryName(), e.Type)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	if total == 0 {
		fmt.Println("No records")
	}
	return nil
}
