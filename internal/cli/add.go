package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/opforge/ies4ctl/internal/manifest"
)

var (
	addDB      string
	addFile    string
	addTimeout time.Duration
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Insert or update one entity record in a database",
	Long: `Add upserts a record described by a payload file into a database:
- An existing record matched by id substring, name, or identifier is
  replaced in place, keeping its original id
- Otherwise the record is appended, generating an id when the payload
  carries none
- The category's type descriptor is registered on first use
- The analyzer web service is asked to reload and reanalyze afterwards

Example:
  ies4ctl add --db OP7 -f payloads/39th-guards-mrb.yaml
  ies4ctl add --db OP3 -f t90m.json --no-notify`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVar(&addDB, "db", "", "database code (OP1..OP8 or a country code)")
	addCmd.Flags().StringVarP(&addFile, "file", "f", "", "payload file (YAML or JSON)")
	addCmd.Flags().DurationVar(&addTimeout, "timeout", 2*time.Minute, "overall operation timeout")
	_ = addCmd.MarkFlagRequired("file")
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), addTimeout)
	defer cancel()

	payload, err := manifest.LoadPayload(addFile)
	if err != nil {
		return err
	}
	op, err := buildOperation(manifest.ActionAdd, addDB, payload)
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

// buildOperation combines a payload with the --db flag, the flag winning.
func buildOperation(action manifest.Action, dbFlag string, payload *manifest.Payload) (manifest.Operation, error) {
	op := manifest.Operation{
		Action:   action,
		Database: payload.Database,
		Payload:  *payload,
	}
	if dbFlag != "" {
		op.Database = dbFlag
	}
	if op.Database == "" {
		return manifest.Operation{}, errNoDatabase
	}
	if err := op.Payload.Validate(action); err != nil {
		return manifest.Operation{}, err
	}
	return op, nil
}
