package workflow

import (
	"errors"
	"fmt"

	"github.com/textloom/loom"
)

// ErrNotFound indicates a referenced workflow or run does not exist.
var ErrNotFound = errors.New("workflow: not found")

// DuplicateStepError indicates two adjacent steps with the same action.
// First and Second are 1-based step positions.
type DuplicateStepError struct {
	First  int
	Second int
	Action loom.Action
}

func (e *DuplicateStepError) Error() string {
	return fmt.Sprintf("workflow: consecutive duplicate actions are not allowed: step %d and step %d are both %q",
		e.First, e.Second, string(e.Action))
}

// EmptyOutputError indicates a step's output was empty after all retry
// attempts were exhausted. It is fatal to the run.
type EmptyOutputError struct {
	Step   int
	Action loom.Action
}

func (e *EmptyOutputError) Error() string {
	return fmt.Sprintf("workflow: step %d (%s) produced empty output after retries", e.Step, string(e.Action))
}

// StepError wraps a fatal error from step execution with its position.
type StepError struct {
	Step   int
	Action loom.Action
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("workflow: step %d (%s) failed: %v", e.Step, string(e.Action), e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
