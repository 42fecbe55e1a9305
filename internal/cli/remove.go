package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/opforge/ies4ctl/internal/manifest"
	"github.com/opforge/ies4ctl/internal/model"
	"github.com/opforge/ies4ctl/internal/registry"
)

var errNoDatabase = errors.New("no database selected: pass --db or set database in the payload")

var (
	removeDB          string
	removeFile        string
	removeCategory    string
	removeMatchIDs    []string
	removeMatchNames  []string
	removeMatchIdents []string
	removeTypeID      string
	removeTimeout     time.Duration
)

// removeCmd represents the remove command
var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove matching entity records from a database",
	Long: `Remove drops every record the identity match identifies, then prunes
the category's type descriptor when no remaining record references it.

The match comes either from a payload file (its match block, or the
entity's own id/names/identifiers) or from explicit flags.

Example:
  ies4ctl remove --db OP7 -f payloads/39th-guards-mrb.yaml
  ies4ctl remove --db OP7 --category militaryUnits --match-name "39th Guards" --type motor-rifle-brigade`,
	Args: cobra.NoArgs,
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)

	removeCmd.Flags().StringVar(&removeDB, "db", "", "database code (OP1..OP8 or a country code)")
	removeCmd.Flags().StringVarP(&removeFile, "file", "f", "", "payload file (YAML or JSON)")
	removeCmd.Flags().StringVar(&removeCategory, "category", "", "entity array key, e.g. militaryUnits")
	removeCmd.Flags().StringSliceVar(&removeMatchIDs, "match-id", nil, "id substring to match (repeatable)")
	removeCmd.Flags().StringSliceVar(&removeMatchNames, "match-name", nil, "name to match exactly or as substring (repeatable)")
	removeCmd.Flags().StringSliceVar(&removeMatchIdents, "match-identifier", nil, "identifier value to match exactly (repeatable)")
	removeCmd.Flags().StringVar(&removeTypeID, "type", "", "type descriptor id to prune when orphaned")
	removeCmd.Flags().DurationVar(&removeTimeout, "timeout", 2*time.Minute, "overall operation timeout")
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), removeTimeout)
	defer cancel()

	payload, err := removePayload()
	if err != nil {
		return err
	}
	op, err := buildOperation(manifest.ActionRemove, removeDB, payload)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	m, _ := op.Payload.Matcher()
	warnMatcher(m)

	return a.Run(ctx, op)
}

// removePayload builds the payload from the file or from the match flags.
func removePayload() (*manifest.Payload, error) {
	if removeFile != "" {
		p, err := manifest.LoadPayload(removeFile)
		if err != nil {
			return nil, err
		}
		if removeCategory != "" {
			p.Category = removeCategory
		}
		return p, nil
	}

	m := registry.Matcher{
		IDSubstrings: removeMatchIDs,
		Names:        removeMatchNames,
		Identifiers:  removeMatchIdents,
	}
	if m.Empty() {
		return nil, errors.New("nothing to match: pass -f, or at least one of --match-id/--match-name/--match-identifier")
	}
	if removeCategory == "" {
		return nil, errors.New("--category is required when matching by flags")
	}
	p := &manifest.Payload{
		Category: removeCategory,
		Match:    &m,
	}
	if removeTypeID != "" {
		p.Type = &model.TypeDescriptor{ID: removeTypeID}
	}
	return p, nil
}
