package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/opforge/ies4ctl/internal/manifest"
	"github.com/opforge/ies4ctl/internal/worker"
)

var (
	batchFile    string
	concurrency  int
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Apply a manifest of add/remove operations",
	Long: `Batch applies many operations from one manifest file:
- Operations run in parallel across databases
- Operations on the same database run sequentially, in manifest order,
  because concurrent writes to one file would race
- Each changed database triggers one notification sequence per change

Example:
  ies4ctl batch -f rotations/2026-08.yaml
  ies4ctl batch -f rotations/2026-08.yaml --concurrency 2`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "manifest file (YAML or JSON)")
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "worker count (default: concurrency.workers config)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for the batch")
	_ = batchCmd.MarkFlagRequired("file")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	m, err := manifest.Load(batchFile)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	workers := concurrency
	if workers <= 0 {
		workers = a.cfg.Concurrency.Workers
	}

	fmt.Fprintf(os.Stderr, "Applying %d operation(s) from %s with %d worker(s)\n", len(m.Operations), batchFile, workers)

	processor := worker.NewBatchProcessor(a, workers)
	results := processor.Process(ctx, m.Operations)

	failed := 0
	applied := 0
	for _, res := range results {
		applied += res.Applied
		if res.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", res.Database, res.Err)
		}
	}

	fmt.Fprintf(os.Stderr, "Applied %d operation(s), %d database batch(es) failed\n", applied, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d database batch(es) failed", failed, len(results))
	}
	return nil
}
