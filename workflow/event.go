package workflow

import (
	"context"
	"encoding/json"

	"github.com/textloom/loom"
)

// EventType identifies the kind of run event.
type EventType string

const (
	// EventStepStarted fires when a step begins.
	EventStepStarted EventType = "step_started"

	// EventChunk fires for each streamed output fragment.
	EventChunk EventType = "chunk"

	// EventRetrying fires when a step is retried after empty output.
	EventRetrying EventType = "retrying"

	// EventStepCompleted fires when a step's output has been persisted and validated.
	EventStepCompleted EventType = "step_completed"

	// EventRunCompleted is the terminal event of a successful run.
	EventRunCompleted EventType = "run_completed"

	// EventRunFailed is the terminal event of a failed run.
	EventRunFailed EventType = "run_failed"
)

// Event is one observable occurrence during a run. The set of variants is
// closed; Type determines which fields are meaningful.
type Event struct {
	Type EventType

	// Step is the 1-based step order for step-scoped events.
	Step int

	// Action is the action of the step for EventStepStarted.
	Action loom.Action

	// Chunk is the output fragment for EventChunk.
	Chunk string

	// Reason describes why a retry happens for EventRetrying.
	Reason string

	// FinalOutput is the validated step output for EventStepCompleted.
	FinalOutput string

	// RunID identifies the run for EventRunCompleted.
	RunID string

	// Err is the failure for EventRunFailed.
	Err error
}

// Wire shapes. Serialized one per line as newline-delimited JSON.
type (
	stepStartedWire struct {
		Step   int    `json:"step"`
		Action string `json:"action"`
		Status string `json:"status"`
	}
	chunkWire struct {
		Step  int    `json:"step"`
		Chunk string `json:"chunk"`
	}
	retryingWire struct {
		Step   int    `json:"step"`
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	stepCompletedWire struct {
		Step        int    `json:"step"`
		Status      string `json:"status"`
		FinalOutput string `json:"final_output"`
	}
	runCompletedWire struct {
		Status string `json:"status"`
		RunID  string `json:"run_id"`
	}
	runFailedWire struct {
		Error string `json:"error"`
	}
)

// MarshalJSON serializes the event in the run-stream wire format.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventStepStarted:
		return json.Marshal(stepStartedWire{Step: e.Step, Action: e.Action.String(), Status: "started"})
	case EventChunk:
		return json.Marshal(chunkWire{Step: e.Step, Chunk: e.Chunk})
	case EventRetrying:
		return json.Marshal(retryingWire{Step: e.Step, Status: "retrying", Reason: e.Reason})
	case EventStepCompleted:
		return json.Marshal(stepCompletedWire{Step: e.Step, Status: "completed", FinalOutput: e.FinalOutput})
	case EventRunCompleted:
		return json.Marshal(runCompletedWire{Status: "workflow_completed", RunID: e.RunID})
	case EventRunFailed:
		msg := "unknown error"
		if e.Err != nil {
			msg = e.Err.Error()
		}
		return json.Marshal(runFailedWire{Error: msg})
	default:
		return nil, &UnknownEventTypeError{Type: e.Type}
	}
}

// UnknownEventTypeError indicates an event with no wire representation.
type UnknownEventTypeError struct {
	Type EventType
}

func (e *UnknownEventTypeError) Error() string {
	return "workflow: unknown event type " + string(e.Type)
}

// emit delivers an event to the caller, blocking until it is received.
// It returns false if the context is cancelled first; events are never
// dropped while the caller is still listening.
func emit(ctx context.Context, ch chan<- Event, e Event) bool {
	select {
	case ch <- e:
		return true
	case <-ctx.Done():
		return false
	}
}
