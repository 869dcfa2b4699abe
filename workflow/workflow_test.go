package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textloom/loom"
)

func TestValidateSteps(t *testing.T) {
	tests := []struct {
		name    string
		actions []loom.Action
		wantErr bool
	}{
		{"empty", nil, false},
		{"single", []loom.Action{loom.ActionClean}, false},
		{"distinct chain", []loom.Action{loom.ActionClean, loom.ActionSummarize, loom.ActionKeypoints}, false},
		{"repeat non-adjacent", []loom.Action{loom.ActionClean, loom.ActionSummarize, loom.ActionClean}, false},
		{"adjacent duplicate", []loom.Action{loom.ActionClean, loom.ActionClean}, true},
		{"adjacent duplicate later", []loom.Action{loom.ActionClean, loom.ActionSummarize, loom.ActionSummarize}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := make([]StepSpec, len(tt.actions))
			for i, a := range tt.actions {
				steps[i] = StepSpec{Action: a}
			}
			err := ValidateSteps(steps)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSteps_DuplicatePositions(t *testing.T) {
	err := ValidateSteps([]StepSpec{
		{Action: loom.ActionClean},
		{Action: loom.ActionClean},
	})

	var dup *DuplicateStepError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, 1, dup.First)
	assert.Equal(t, 2, dup.Second)
	assert.Equal(t, loom.ActionClean, dup.Action)
	assert.Contains(t, err.Error(), "step 1 and step 2")
}

func TestValidateSteps_UnknownAction(t *testing.T) {
	err := ValidateSteps([]StepSpec{{Action: loom.Action("frobnicate")}})
	var uae *loom.UnknownActionError
	require.ErrorAs(t, err, &uae)
}

func TestRunStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusRunning.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}
