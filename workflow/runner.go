package workflow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/textloom/loom"
)

// Store is the persistence surface the runner needs. The store package
// provides implementations.
type Store interface {
	// GetWorkflow loads a definition, or ErrNotFound.
	GetWorkflow(ctx context.Context, id uuid.UUID) (*WorkflowDefinition, error)

	// CreateRun persists a new run record.
	CreateRun(ctx context.Context, run *RunRecord) error

	// AppendStepResult persists one step result.
	AppendStepResult(ctx context.Context, res *StepResult) error

	// SetRunStatus transitions a run to the given status.
	SetRunStatus(ctx context.Context, runID uuid.UUID, status RunStatus) error
}

// ChainRunner orchestrates the ordered execution of a workflow's steps for
// one run, feeding each step's validated output into the next step.
//
// Runs are isolated: each run owns its RunRecord and StepResults exclusively,
// and concurrent runs share nothing but the store.
type ChainRunner struct {
	store    Store
	executor *StepExecutor
	log      *slog.Logger
}

// NewChainRunner creates a runner. The generation options are applied to
// every provider call made on behalf of a run.
func NewChainRunner(store Store, provider loom.Provider, opts ...loom.Option) *ChainRunner {
	return &ChainRunner{
		store:    store,
		executor: NewStepExecutor(provider, opts...),
		log:      slog.Default(),
	}
}

// Run starts executing the workflow against the input text.
//
// The returned RunRecord is already persisted with status running; the
// channel delivers events in execution order and is closed after the
// terminal event. If the workflow does not exist, Run returns ErrNotFound
// and no run record is created.
func (r *ChainRunner) Run(ctx context.Context, workflowID uuid.UUID, inputText string) (*RunRecord, <-chan Event, error) {
	wf, err := r.store.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, nil, err
	}

	run := &RunRecord{
		ID:         uuid.New(),
		WorkflowID: wf.ID,
		InputText:  inputText,
		Status:     StatusRunning,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.store.CreateRun(ctx, run); err != nil {
		return nil, nil, err
	}

	log := r.log.With("workflow_id", wf.ID.String(), "run_id", run.ID.String())
	log.Info("run started", "steps", len(wf.Steps))

	ch := make(chan Event)
	go func() {
		defer close(ch)
		if err := r.execute(ctx, wf, run, ch); err != nil {
			r.fail(ctx, run, err, ch, log)
			return
		}
		r.complete(ctx, run, ch, log)
	}()

	return run, ch, nil
}

// execute walks the step list. Each StepResult is persisted before the
// step's completion event is emitted, so a crash mid-run never leaves the
// caller having observed more than the store holds.
func (r *ChainRunner) execute(ctx context.Context, wf *WorkflowDefinition, run *RunRecord, ch chan<- Event) error {
	input := run.InputText

	for i, spec := range wf.Steps {
		step := i + 1
		if err := ctx.Err(); err != nil {
			return err
		}

		if !emit(ctx, ch, Event{Type: EventStepStarted, Step: step, Action: spec.Action}) {
			return ctx.Err()
		}

		output, err := r.executor.Execute(ctx, spec.Action, input, step, ch)
		if err != nil {
			return &StepError{Step: step, Action: spec.Action, Err: err}
		}

		res := &StepResult{
			ID:         uuid.New(),
			RunID:      run.ID,
			StepOrder:  step,
			Action:     spec.Action,
			OutputText: output,
		}
		if err := r.store.AppendStepResult(ctx, res); err != nil {
			return &StepError{Step: step, Action: spec.Action, Err: err}
		}
		run.Steps = append(run.Steps, *res)

		validated := strings.TrimSpace(output)
		if validated == "" {
			return &EmptyOutputError{Step: step, Action: spec.Action}
		}

		if !emit(ctx, ch, Event{Type: EventStepCompleted, Step: step, FinalOutput: validated}) {
			return ctx.Err()
		}
		input = validated
	}
	return nil
}

// complete seals a successful run. The status is persisted before the
// terminal event reaches the caller.
func (r *ChainRunner) complete(ctx context.Context, run *RunRecord, ch chan<- Event, log *slog.Logger) {
	if err := r.store.SetRunStatus(ctx, run.ID, StatusCompleted); err != nil {
		r.fail(ctx, run, err, ch, log)
		return
	}
	run.Status = StatusCompleted
	log.Info("run completed", "steps", len(run.Steps))
	emit(ctx, ch, Event{Type: EventRunCompleted, RunID: run.ID.String()})
}

// fail seals a failed run. The status write uses a detached context so an
// abandoned caller still leaves the record terminal rather than running
// forever.
func (r *ChainRunner) fail(ctx context.Context, run *RunRecord, cause error, ch chan<- Event, log *slog.Logger) {
	if err := r.store.SetRunStatus(context.WithoutCancel(ctx), run.ID, StatusFailed); err != nil {
		log.Error("failed to mark run failed", "error", err)
	}
	run.Status = StatusFailed
	log.Error("run failed", "error", cause)
	emit(ctx, ch, Event{Type: EventRunFailed, Err: cause})
}
