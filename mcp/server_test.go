package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textloom/loom"
	"github.com/textloom/loom/store"
	"github.com/textloom/loom/workflow"
)

type staticProvider struct {
	output string
}

func (p *staticProvider) Generate(ctx context.Context, prompt string, opts ...loom.Option) (*loom.Response, error) {
	return &loom.Response{Content: p.output}, nil
}

func (p *staticProvider) GenerateStream(ctx context.Context, prompt string, opts ...loom.Option) (<-chan loom.StreamEvent, error) {
	ch := make(chan loom.StreamEvent)
	go func() {
		defer close(ch)
		ch <- loom.StreamEvent{Delta: p.output}
		ch <- loom.StreamEvent{Done: true, Response: &loom.Response{Content: p.output}}
	}()
	return ch, nil
}

func startClient(t *testing.T, st store.Store, provider loom.Provider) *client.Client {
	t.Helper()
	srv := NewServer(st, provider)
	c, err := client.NewInProcessClient(srv)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	t.Cleanup(func() { c.Close() })

	_, err = c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "test-client",
				Version: "1.0.0",
			},
		},
	})
	require.NoError(t, err)
	return c
}

func seedWorkflow(t *testing.T, st store.Store, name string, actions ...loom.Action) uuid.UUID {
	t.Helper()
	steps := make([]workflow.StepSpec, len(actions))
	for i, a := range actions {
		steps[i] = workflow.StepSpec{Action: a}
	}
	wf := &workflow.WorkflowDefinition{
		ID:        uuid.New(),
		Name:      name,
		Steps:     steps,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.CreateWorkflow(context.Background(), wf))
	return wf.ID
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return textContent.Text
}

func TestListWorkflowsTool(t *testing.T) {
	st := store.NewMemory()
	seedWorkflow(t, st, "quick", loom.ActionClean, loom.ActionSummarize)
	c := startClient(t, st, &staticProvider{output: "done"})

	result, err := c.CallTool(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: "list_workflows"},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var workflows []workflow.WorkflowDefinition
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &workflows))
	require.Len(t, workflows, 1)
	assert.Equal(t, "quick", workflows[0].Name)
}

func TestRunWorkflowTool(t *testing.T) {
	st := store.NewMemory()
	id := seedWorkflow(t, st, "quick", loom.ActionClean, loom.ActionSummarize)
	c := startClient(t, st, &staticProvider{output: "transformed"})

	result, err := c.CallTool(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "run_workflow",
			Arguments: map[string]any{
				"workflow_id": id.String(),
				"input_text":  "raw text",
			},
		},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var run workflow.RunRecord
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &run))
	assert.Equal(t, workflow.StatusCompleted, run.Status)
	require.Len(t, run.Steps, 2)
	assert.Equal(t, "transformed", run.Steps[1].OutputText)
}

func TestRunWorkflowToolErrors(t *testing.T) {
	st := store.NewMemory()
	c := startClient(t, st, &staticProvider{output: "done"})

	result, err := c.CallTool(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "run_workflow",
			Arguments: map[string]any{
				"workflow_id": "not-a-uuid",
				"input_text":  "raw text",
			},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = c.CallTool(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "run_workflow",
			Arguments: map[string]any{
				"workflow_id": uuid.NewString(),
				"input_text":  "raw text",
			},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
