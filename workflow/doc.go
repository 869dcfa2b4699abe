// Package workflow implements the step-chain execution engine.
//
// A WorkflowDefinition is an ordered list of actions. ChainRunner executes a
// definition against an input text: each step's validated output becomes the
// next step's input, provider tokens are streamed to the caller as Chunk
// events while they are produced, each step's result is persisted before its
// completion event, and the run's terminal status is persisted exactly once
// before the terminal event is emitted.
//
// StepExecutor drives a single step: it builds the prompt, consumes the
// provider stream, and retries once with a repair prompt when the accumulated
// output is empty. Provider failures are never retried; they propagate to the
// runner, which marks the run failed.
package workflow
