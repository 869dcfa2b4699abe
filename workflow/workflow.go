package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/textloom/loom"
)

// StepSpec is one step of a workflow definition: the action to execute plus
// free-form parameters reserved for future action-specific tuning.
type StepSpec struct {
	Action loom.Action    `json:"action"`
	Params map[string]any `json:"params,omitempty"`
}

// WorkflowDefinition is an ordered chain of text-transformation steps.
// Definitions are immutable once created.
type WorkflowDefinition struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Steps       []StepSpec `json:"steps"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ValidateSteps checks a step list for creation-time constraints: every
// action must be registered, and no two adjacent steps may share an action.
func ValidateSteps(steps []StepSpec) error {
	for i, s := range steps {
		if !s.Action.Valid() {
			return &loom.UnknownActionError{Action: s.Action}
		}
		if i > 0 && steps[i-1].Action == s.Action {
			return &DuplicateStepError{First: i, Second: i + 1, Action: s.Action}
		}
	}
	return nil
}
