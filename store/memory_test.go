package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textloom/loom"
	"github.com/textloom/loom/workflow"
)

func newRun(t *testing.T, m *Memory, input string) *workflow.RunRecord {
	t.Helper()
	run := &workflow.RunRecord{
		ID:         uuid.New(),
		WorkflowID: uuid.New(),
		InputText:  input,
		Status:     workflow.StatusRunning,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, m.CreateRun(context.Background(), run))
	return run
}

func TestMemory_WorkflowRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	wf := &workflow.WorkflowDefinition{
		ID:   uuid.New(),
		Name: "quick",
		Steps: []workflow.StepSpec{
			{Action: loom.ActionClean},
			{Action: loom.ActionSummarize},
		},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, m.CreateWorkflow(ctx, wf))

	got, err := m.GetWorkflow(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, wf.Name, got.Name)
	require.Len(t, got.Steps, 2)
	assert.Equal(t, loom.ActionClean, got.Steps[0].Action)

	_, err = m.GetWorkflow(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_RunLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	run := newRun(t, m, "some input")

	for i := 1; i <= 2; i++ {
		require.NoError(t, m.AppendStepResult(ctx, &workflow.StepResult{
			ID:         uuid.New(),
			RunID:      run.ID,
			StepOrder:  i,
			Action:     loom.ActionClean,
			OutputText: fmt.Sprintf("output %d", i),
		}))
	}
	require.NoError(t, m.SetRunStatus(ctx, run.ID, workflow.StatusCompleted))

	got, err := m.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, got.Status)
	require.Len(t, got.Steps, 2)
	assert.Equal(t, 1, got.Steps[0].StepOrder)
	assert.Equal(t, "output 1", got.Steps[0].OutputText)
	assert.Equal(t, 2, got.Steps[1].StepOrder)
}

func TestMemory_RunLifecycle_NotFound(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	assert.ErrorIs(t, m.AppendStepResult(ctx, &workflow.StepResult{RunID: uuid.New()}), ErrNotFound)
	assert.ErrorIs(t, m.SetRunStatus(ctx, uuid.New(), workflow.StatusFailed), ErrNotFound)
	_, err := m.GetRun(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ListRecentRuns(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		newRun(t, m, fmt.Sprintf("input %d", i))
	}

	runs, err := m.ListRecentRuns(ctx, 5, 0)
	require.NoError(t, err)
	require.Len(t, runs, 5)
	// Most recent first: the 7th created run leads.
	assert.Equal(t, "input 7", runs[0].InputText)
	assert.Equal(t, "input 3", runs[4].InputText)

	// Offset skips from the newest end.
	page, err := m.ListRecentRuns(ctx, 5, 5)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "input 2", page[0].InputText)

	empty, err := m.ListRecentRuns(ctx, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemory_CopiesAreDefensive(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	run := newRun(t, m, "input")

	got, err := m.GetRun(ctx, run.ID)
	require.NoError(t, err)
	got.Status = workflow.StatusFailed
	got.InputText = "mutated"

	again, err := m.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRunning, again.Status)
	assert.Equal(t, "input", again.InputText)
}

func TestMemory_ListWorkflows(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		wf := &workflow.WorkflowDefinition{
			ID:        uuid.New(),
			Name:      fmt.Sprintf("workflow %d", i+1),
			Steps:     []workflow.StepSpec{{Action: loom.ActionClean}},
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, m.CreateWorkflow(ctx, wf))
	}

	workflows, err := m.ListWorkflows(ctx)
	require.NoError(t, err)
	require.Len(t, workflows, 3)
	assert.Equal(t, "workflow 3", workflows[0].Name)
	assert.Equal(t, "workflow 1", workflows[2].Name)
}
