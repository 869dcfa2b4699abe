package workflow

import (
	"context"
	"strings"

	"github.com/textloom/loom"
)

// maxEmptyRetries is how many extra attempts a step gets when the provider
// stream ends with only whitespace accumulated. Two attempts total.
const maxEmptyRetries = 1

// emptyOutputReason is the reason carried by EventRetrying.
const emptyOutputReason = "empty output"

// StepExecutor runs one chain step: it builds the prompt, drives the
// provider stream, forwards every fragment to the caller as it arrives,
// and applies the bounded empty-output retry policy.
type StepExecutor struct {
	provider loom.Provider
	genOpts  []loom.Option
}

// NewStepExecutor creates an executor bound to a provider. The options are
// passed to every generation call.
func NewStepExecutor(p loom.Provider, opts ...loom.Option) *StepExecutor {
	return &StepExecutor{provider: p, genOpts: opts}
}

// Execute runs a single step and returns the accumulated output.
//
// If the stream ends with only whitespace, the whole call is retried once
// with a repair prompt after an EventRetrying notification. An output that
// is still empty after retries is returned as-is with a nil error; the
// runner's validation decides the run's fate. Any provider error is
// returned unretried.
func (e *StepExecutor) Execute(ctx context.Context, action loom.Action, inputText string, step int, events chan<- Event) (string, error) {
	prompt, err := loom.BuildPrompt(action, inputText)
	if err != nil {
		return "", err
	}

	var output string
	for attempt := 0; ; attempt++ {
		stream, err := e.provider.GenerateStream(ctx, prompt, e.genOpts...)
		if err != nil {
			return "", err
		}

		output = ""
		for ev := range stream {
			if ev.Err != nil {
				return "", ev.Err
			}
			if ev.Delta == "" {
				continue
			}
			output += ev.Delta
			if !emit(ctx, events, Event{Type: EventChunk, Step: step, Chunk: ev.Delta}) {
				return "", ctx.Err()
			}
		}

		if strings.TrimSpace(output) != "" || attempt == maxEmptyRetries {
			return output, nil
		}

		if !emit(ctx, events, Event{Type: EventRetrying, Step: step, Reason: emptyOutputReason}) {
			return "", ctx.Err()
		}
		prompt = loom.RepairPrompt(prompt)
	}
}
