package loom

import "fmt"

// Action identifies a text transformation bound to one prompt template.
type Action string

// Supported actions.
const (
	ActionClean     Action = "clean"
	ActionSummarize Action = "summarize"
	ActionKeypoints Action = "keypoints"
	ActionSimplify  Action = "simplify"
	ActionAnalogy   Action = "analogy"
	ActionClassify  Action = "classify"
	ActionTone      Action = "tone"
)

// String returns the action identifier.
func (a Action) String() string { return string(a) }

// Valid returns true if the action has a registered prompt template.
func (a Action) Valid() bool {
	_, ok := prompts[a]
	return ok
}

// Actions returns all supported actions in a stable order.
func Actions() []Action {
	return []Action{
		ActionClean,
		ActionSummarize,
		ActionKeypoints,
		ActionSimplify,
		ActionAnalogy,
		ActionClassify,
		ActionTone,
	}
}

// ParseAction converts an identifier to an Action.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.Valid() {
		return "", &UnknownActionError{Action: a}
	}
	return a, nil
}

// UnknownActionError indicates an action with no registered prompt template.
// Upstream validation enforces the action enum, so this should be unreachable
// in practice, but the engine still handles it as a fatal step failure.
type UnknownActionError struct {
	Action Action
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("loom: unknown action %q", string(e.Action))
}
