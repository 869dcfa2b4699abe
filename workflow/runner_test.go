package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textloom/loom"
)

// --- Mock provider ---

type mockResponse struct {
	content string
	err     error
}

type mockProvider struct {
	mu        sync.Mutex
	responses []mockResponse
	callCount int
	prompts   []string
}

func (m *mockProvider) Generate(ctx context.Context, prompt string, opts ...loom.Option) (*loom.Response, error) {
	ch, err := m.GenerateStream(ctx, prompt, opts...)
	if err != nil {
		return nil, err
	}
	var content string
	for ev := range ch {
		if ev.Err != nil {
			return nil, ev.Err
		}
		content += ev.Delta
	}
	return &loom.Response{Content: content}, nil
}

func (m *mockProvider) GenerateStream(ctx context.Context, prompt string, opts ...loom.Option) (<-chan loom.StreamEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)

	var resp mockResponse
	if m.callCount < len(m.responses) {
		resp = m.responses[m.callCount]
	}
	m.callCount++

	ch := make(chan loom.StreamEvent)
	go func() {
		defer close(ch)
		if resp.err != nil {
			ch <- loom.StreamEvent{Err: resp.err}
			return
		}
		for _, r := range resp.content {
			select {
			case <-ctx.Done():
				ch <- loom.StreamEvent{Err: ctx.Err()}
				return
			case ch <- loom.StreamEvent{Delta: string(r)}:
			}
		}
		ch <- loom.StreamEvent{Done: true, Response: &loom.Response{
			Content: resp.content,
			Usage:   loom.Usage{InputTokens: 10, OutputTokens: 20},
		}}
	}()
	return ch, nil
}

func (m *mockProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// --- Mock store ---

type mockStore struct {
	mu        sync.Mutex
	workflows map[uuid.UUID]*WorkflowDefinition
	runs      map[uuid.UUID]*RunRecord
	results   []StepResult
	statuses  []RunStatus
}

func newMockStore() *mockStore {
	return &mockStore{
		workflows: make(map[uuid.UUID]*WorkflowDefinition),
		runs:      make(map[uuid.UUID]*RunRecord),
	}
}

func (s *mockStore) addWorkflow(actions ...loom.Action) uuid.UUID {
	steps := make([]StepSpec, len(actions))
	for i, a := range actions {
		steps[i] = StepSpec{Action: a}
	}
	wf := &WorkflowDefinition{ID: uuid.New(), Name: "test", Steps: steps}
	s.workflows[wf.ID] = wf
	return wf.ID
}

func (s *mockStore) GetWorkflow(_ context.Context, id uuid.UUID) (*WorkflowDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wf, ok := s.workflows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return wf, nil
}

func (s *mockStore) CreateRun(_ context.Context, run *RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

func (s *mockStore) AppendStepResult(_ context.Context, res *StepResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, *res)
	return nil
}

func (s *mockStore) SetRunStatus(_ context.Context, runID uuid.UUID, status RunStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return ErrNotFound
	}
	run.Status = status
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *mockStore) runStatus(runID uuid.UUID) RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[runID].Status
}

func (s *mockStore) stepResults() []StepResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StepResult(nil), s.results...)
}

func collect(ch <-chan Event) []Event {
	var events []Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

// --- Runner tests ---

func TestChainRunner_Run_TwoSteps(t *testing.T) {
	store := newMockStore()
	wfID := store.addWorkflow(loom.ActionClean, loom.ActionSummarize)
	provider := &mockProvider{responses: []mockResponse{
		{content: "Messy text."},
		{content: "A summary."},
	}}

	runner := NewChainRunner(store, provider)
	run, ch, err := runner.Run(context.Background(), wfID, "  messy   text. ")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, StatusRunning, run.Status)

	events := collect(ch)
	require.NotEmpty(t, events)
	assert.Equal(t, EventRunCompleted, events[len(events)-1].Type)
	assert.Equal(t, run.ID.String(), events[len(events)-1].RunID)

	results := store.stepResults()
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].StepOrder)
	assert.Equal(t, loom.ActionClean, results[0].Action)
	assert.Equal(t, "Messy text.", results[0].OutputText)
	assert.Equal(t, 2, results[1].StepOrder)
	assert.Equal(t, loom.ActionSummarize, results[1].Action)
	assert.Equal(t, "A summary.", results[1].OutputText)

	assert.Equal(t, StatusCompleted, store.runStatus(run.ID))
	assert.Equal(t, StatusCompleted, run.Status)

	// Step 1's validated output feeds step 2's prompt.
	require.Equal(t, 2, provider.calls())
	assert.Contains(t, provider.prompts[1], "Messy text.")
}

func TestChainRunner_Run_EventOrdering(t *testing.T) {
	store := newMockStore()
	wfID := store.addWorkflow(loom.ActionClean)
	provider := &mockProvider{responses: []mockResponse{{content: "ok!"}}}

	runner := NewChainRunner(store, provider)
	_, ch, err := runner.Run(context.Background(), wfID, "input")
	require.NoError(t, err)

	events := collect(ch)
	types := eventTypes(events)

	// Exactly [started, chunk*, completed, workflow_completed].
	require.GreaterOrEqual(t, len(types), 3)
	assert.Equal(t, EventStepStarted, types[0])
	assert.Equal(t, EventStepCompleted, types[len(types)-2])
	assert.Equal(t, EventRunCompleted, types[len(types)-1])
	for _, ty := range types[1 : len(types)-2] {
		assert.Equal(t, EventChunk, ty)
	}
	// One chunk per streamed fragment, delivered before completion.
	assert.Len(t, types[1:len(types)-2], len("ok!"))
}

func TestChainRunner_Run_EmptyOutputFailsRun(t *testing.T) {
	store := newMockStore()
	wfID := store.addWorkflow(loom.ActionClean, loom.ActionSummarize)
	provider := &mockProvider{responses: []mockResponse{
		{content: "   "},
		{content: ""},
	}}

	runner := NewChainRunner(store, provider)
	run, ch, err := runner.Run(context.Background(), wfID, "input")
	require.NoError(t, err)

	events := collect(ch)
	var retries int
	for _, ev := range events {
		if ev.Type == EventRetrying {
			retries++
			assert.Equal(t, "empty output", ev.Reason)
		}
	}
	assert.Equal(t, 1, retries, "exactly one retry notification")

	last := events[len(events)-1]
	require.Equal(t, EventRunFailed, last.Type)
	var empty *EmptyOutputError
	require.ErrorAs(t, last.Err, &empty)
	assert.Equal(t, 1, empty.Step)

	// The empty result is still persisted before the run fails.
	results := store.stepResults()
	require.Len(t, results, 1)
	assert.Equal(t, "   ", results[0].OutputText)

	assert.Equal(t, StatusFailed, store.runStatus(run.ID))
	// Both attempts hit the provider; step 2 never started.
	assert.Equal(t, 2, provider.calls())
}

func TestChainRunner_Run_ProviderErrorMidChain(t *testing.T) {
	store := newMockStore()
	wfID := store.addWorkflow(loom.ActionClean, loom.ActionSummarize, loom.ActionKeypoints)
	connErr := loom.NewTransientError("connection reset", 0, errors.New("read tcp: reset"))
	provider := &mockProvider{responses: []mockResponse{
		{content: "cleaned"},
		{err: connErr},
	}}

	runner := NewChainRunner(store, provider)
	run, ch, err := runner.Run(context.Background(), wfID, "input")
	require.NoError(t, err)

	events := collect(ch)
	last := events[len(events)-1]
	require.Equal(t, EventRunFailed, last.Type)

	var stepErr *StepError
	require.ErrorAs(t, last.Err, &stepErr)
	assert.Equal(t, 2, stepErr.Step)
	assert.ErrorIs(t, last.Err, connErr)

	// Only step 1 was persisted; steps 2 and 3 never produced results.
	results := store.stepResults()
	require.Len(t, results, 1)
	assert.Equal(t, loom.ActionClean, results[0].Action)

	assert.Equal(t, StatusFailed, store.runStatus(run.ID))
	assert.Equal(t, 2, provider.calls())
}

func TestChainRunner_Run_WorkflowNotFound(t *testing.T) {
	store := newMockStore()
	provider := &mockProvider{}

	runner := NewChainRunner(store, provider)
	run, ch, err := runner.Run(context.Background(), uuid.New(), "input")

	require.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, run)
	assert.Nil(t, ch)
	// No run record was created.
	assert.Empty(t, store.runs)
	assert.Zero(t, provider.calls())
}

func TestChainRunner_Run_StatusPersistedBeforeTerminalEvent(t *testing.T) {
	store := newMockStore()
	wfID := store.addWorkflow(loom.ActionClean)
	provider := &mockProvider{responses: []mockResponse{{content: "done"}}}

	runner := NewChainRunner(store, provider)
	run, ch, err := runner.Run(context.Background(), wfID, "input")
	require.NoError(t, err)

	for ev := range ch {
		if ev.Type == EventRunCompleted {
			// By the time the terminal event is observed the status is sealed.
			assert.Equal(t, StatusCompleted, store.runStatus(run.ID))
		}
	}
}

func TestChainRunner_Run_CancelledMidRunMarksFailed(t *testing.T) {
	store := newMockStore()
	wfID := store.addWorkflow(loom.ActionClean, loom.ActionSummarize)
	provider := &mockProvider{responses: []mockResponse{
		{content: strings.Repeat("a", 50)},
		{content: "never reached"},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner := NewChainRunner(store, provider)
	run, ch, err := runner.Run(ctx, wfID, "input")
	require.NoError(t, err)

	// Abandon the stream after the first chunk.
	for ev := range ch {
		if ev.Type == EventChunk {
			cancel()
		}
	}

	assert.Equal(t, StatusFailed, store.runStatus(run.ID))
}
