package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/textloom/loom/workflow"
)

// Memory is a thread-safe in-memory store.
type Memory struct {
	mu        sync.RWMutex
	workflows map[uuid.UUID]*workflow.WorkflowDefinition
	runs      map[uuid.UUID]*workflow.RunRecord
	results   map[uuid.UUID][]workflow.StepResult
	runOrder  []uuid.UUID // insertion order, oldest first
	wfOrder   []uuid.UUID
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		workflows: make(map[uuid.UUID]*workflow.WorkflowDefinition),
		runs:      make(map[uuid.UUID]*workflow.RunRecord),
		results:   make(map[uuid.UUID][]workflow.StepResult),
	}
}

// CreateWorkflow persists a new workflow definition.
func (m *Memory) CreateWorkflow(_ context.Context, wf *workflow.WorkflowDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *wf
	cp.Steps = append([]workflow.StepSpec(nil), wf.Steps...)
	m.workflows[wf.ID] = &cp
	m.wfOrder = append(m.wfOrder, wf.ID)
	return nil
}

// ListWorkflows returns all workflow definitions, most recent first.
func (m *Memory) ListWorkflows(_ context.Context) ([]*workflow.WorkflowDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*workflow.WorkflowDefinition, 0, len(m.wfOrder))
	for i := len(m.wfOrder) - 1; i >= 0; i-- {
		wf := m.workflows[m.wfOrder[i]]
		cp := *wf
		cp.Steps = append([]workflow.StepSpec(nil), wf.Steps...)
		out = append(out, &cp)
	}
	return out, nil
}

// GetWorkflow loads a definition, or ErrNotFound.
func (m *Memory) GetWorkflow(_ context.Context, id uuid.UUID) (*workflow.WorkflowDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wf, ok := m.workflows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *wf
	cp.Steps = append([]workflow.StepSpec(nil), wf.Steps...)
	return &cp, nil
}

// CreateRun persists a new run record.
func (m *Memory) CreateRun(_ context.Context, run *workflow.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *run
	cp.Steps = nil
	m.runs[run.ID] = &cp
	m.runOrder = append(m.runOrder, run.ID)
	return nil
}

// AppendStepResult persists one step result.
func (m *Memory) AppendStepResult(_ context.Context, res *workflow.StepResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[res.RunID]; !ok {
		return ErrNotFound
	}
	m.results[res.RunID] = append(m.results[res.RunID], *res)
	return nil
}

// SetRunStatus transitions a run to the given status.
func (m *Memory) SetRunStatus(_ context.Context, runID uuid.UUID, status workflow.RunStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return ErrNotFound
	}
	run.Status = status
	return nil
}

// GetRun loads a run with its step results in step order, or ErrNotFound.
func (m *Memory) GetRun(_ context.Context, id uuid.UUID) (*workflow.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.copyRun(run), nil
}

// ListRecentRuns returns up to limit runs, most recent first.
func (m *Memory) ListRecentRuns(_ context.Context, limit, offset int) ([]*workflow.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Newest first; insertion order breaks creation-timestamp ties.
	ids := make([]uuid.UUID, len(m.runOrder))
	for i, id := range m.runOrder {
		ids[len(m.runOrder)-1-i] = id
	}

	if offset >= len(ids) {
		return nil, nil
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	runs := make([]*workflow.RunRecord, 0, len(ids))
	for _, id := range ids {
		runs = append(runs, m.copyRun(m.runs[id]))
	}
	return runs, nil
}

// Ping always succeeds for the in-memory store.
func (m *Memory) Ping(context.Context) error { return nil }

// copyRun returns a defensive copy with step results attached. Caller holds
// at least a read lock.
func (m *Memory) copyRun(run *workflow.RunRecord) *workflow.RunRecord {
	cp := *run
	cp.Steps = append([]workflow.StepResult(nil), m.results[run.ID]...)
	return &cp
}

var _ Store = (*Memory)(nil)
