package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opforge/ies4ctl/internal/model"
)

// Step names the stages of the notification sequence.
type Step string

const (
	StepProbe        Step = "probe"
	StepReload       Step = "reload"
	StepAnalyze      Step = "analyze"
	StepReport       Step = "report"
	StepDelayedRetry Step = "delayed_analyze"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Step Step
	Err  error
}

// Sequence is the outcome of a notification run. It never carries the
// delayed analyze repeat: that call is deliberately decoupled and its
// failure is observable only in the logs.
type Sequence struct {
	RunID     string
	Database  string
	Reachable bool
	Steps     []StepResult
}

// Failed counts the steps that errored.
func (s *Sequence) Failed() int {
	n := 0
	for _, st := range s.Steps {
		if st.Err != nil {
			n++
		}
	}
	return n
}

// Notifier runs the post-write notification sequence against the analyzer
// service.
type Notifier struct {
	client *Client
	log    *zap.SugaredLogger
	delay  time.Duration

	// repeats tracks outstanding delayed analyze goroutines. Concurrent
	// NotifyChange calls (the batch command) each add their own.
	repeats sync.WaitGroup

	// sleep is a test seam for the delayed repeat.
	sleep func(time.Duration)
}

// NewNotifier creates a notifier using the given client.
func NewNotifier(client *Client, cfg model.ServiceConfig, log *zap.SugaredLogger) *Notifier {
	return &Notifier{
		client: client,
		log:    log,
		delay:  cfg.RepeatDelay,
		sleep:  time.Sleep,
	}
}

// NotifyChange runs the sequence for databaseName: reachability probe,
// reload, analyze, report refresh, then a detached delayed analyze repeat.
// Every step is attempted and logged independently; a failing step never
// stops the ones after it, and nothing here fails the caller's operation.
func (n *Notifier) NotifyChange(ctx context.Context, databaseName string) *Sequence {
	seq := &Sequence{
		RunID:    uuid.NewString(),
		Database: databaseName,
	}
	log := n.log.With("run_id", seq.RunID, "database", databaseName)

	dbs, err := n.client.Databases(ctx)
	seq.Reachable = err == nil
	n.record(seq, log, StepProbe, err)
	if err == nil {
		log.Debugw("service reachable", "databases", len(dbs))
	}

	n.record(seq, log, StepReload, n.client.LoadDatabase(ctx, databaseName))

	analyze := AnalyzeRequest{
		DatabaseName: databaseName,
		ShowLabels:   true,
		ForceReload:  true,
	}
	n.record(seq, log, StepAnalyze, n.client.Analyze(ctx, analyze))
	n.record(seq, log, StepReport, n.client.RefreshReport(ctx))

	// The web UI caches the last analysis; a second analyze after a short
	// delay makes it pick up the new data. Decoupled from this call's
	// result on purpose: the operation has already succeeded. The process
	// must still outlive it, which is what Wait is for.
	n.repeats.Add(1)
	go func() {
		defer n.repeats.Done()
		n.sleep(n.delay)
		if err := n.client.Analyze(context.Background(), analyze); err != nil {
			log.Warnw("delayed analyze failed", "step", StepDelayedRetry, "error", err)
			return
		}
		log.Infow("delayed analyze complete", "step", StepDelayedRetry)
	}()

	return seq
}

// Wait blocks until every outstanding delayed repeat has finished. The CLI
// calls it before exiting; a one-shot process would otherwise die before the
// delay elapses and the repeat would never reach the service.
func (n *Notifier) Wait() {
	n.repeats.Wait()
}

func (n *Notifier) record(seq *Sequence, log *zap.SugaredLogger, step Step, err error) {
	seq.Steps = append(seq.Steps, StepResult{Step: step, Err: err})
	if err != nil {
		log.Warnw("notification step failed", "step", step, "error", err)
		return
	}
	log.Infow("notification step ok", "step", step)
}
