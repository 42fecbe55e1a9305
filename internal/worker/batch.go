package worker

import (
	"context"

	"github.com/opforge/ies4ctl/internal/manifest"
)

// Runner executes a single manifest operation.
type Runner interface {
	Run(ctx context.Context, op manifest.Operation) error
}

// BatchResult is the outcome of one database's slice of a batch.
type BatchResult struct {
	Database string
	Applied  int
	Err      error
}

// GetError returns the batch error, if any.
func (r *BatchResult) GetError() error {
	return r.Err
}

// databaseJob runs all of one database's operations sequentially. Operations
// on the same file must not interleave: the store has no cross-process lock,
// so the batch at least keeps its own writes ordered.
type databaseJob struct {
	database string
	ops      []manifest.Operation
	runner   Runner
}

func (j *databaseJob) Execute(ctx context.Context) Result {
	res := &BatchResult{Database: j.database}
	for _, op := range j.ops {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		if err := j.runner.Run(ctx, op); err != nil {
			res.Err = err
			return res
		}
		res.Applied++
	}
	return res
}

// BatchProcessor applies manifest operations with bounded concurrency,
// parallel across databases and sequential within each.
type BatchProcessor struct {
	runner      Runner
	concurrency int
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(runner Runner, concurrency int) *BatchProcessor {
	return &BatchProcessor{runner: runner, concurrency: concurrency}
}

// Process runs every operation and returns one result per database.
func (b *BatchProcessor) Process(ctx context.Context, ops []manifest.Operation) []*BatchResult {
	if len(ops) == 0 {
		return nil
	}

	byDB := make(map[string][]manifest.Operation)
	var order []string
	for _, op := range ops {
		if _, seen := byDB[op.Database]; !seen {
			order = append(order, op.Database)
		}
		byDB[op.Database] = append(byDB[op.Database], op)
	}

	workers := b.concurrency
	if workers > len(order) {
		workers = len(order)
	}
	pool := NewPool(workers)
	pool.Start()
	stop := context.AfterFunc(ctx, pool.Shutdown)
	defer stop()

	for _, db := range order {
		pool.Submit(&databaseJob{database: db, ops: byDB[db], runner: b.runner})
	}

	results := pool.Wait()
	out := make([]*BatchResult, 0, len(results))
	for _, res := range results {
		out = append(out, res.(*BatchResult))
	}
	return out
}
