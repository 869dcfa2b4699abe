package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/textloom/loom"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// String returns the status identifier.
func (s RunStatus) String() string { return string(s) }

// IsTerminal returns true for completed and failed.
func (s RunStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// RunRecord is one execution of a workflow against an input text.
// It is owned exclusively by the ChainRunner while Status is running and
// read-only once terminal.
type RunRecord struct {
	ID         uuid.UUID    `json:"id"`
	WorkflowID uuid.UUID    `json:"workflow_id"`
	InputText  string       `json:"input_text"`
	Status     RunStatus    `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	Steps      []StepResult `json:"step_runs"`
}

// StepResult is the persisted output of one executed step. It is appended
// exactly once per step, in step order, and never mutated afterwards.
// OutputText may be empty if all retries were exhausted.
type StepResult struct {
	ID         uuid.UUID   `json:"id"`
	RunID      uuid.UUID   `json:"workflow_run_id"`
	StepOrder  int         `json:"step_order"`
	Action     loom.Action `json:"step_type"`
	OutputText string      `json:"output_text"`
}
