// Package mcp exposes the workflow engine over the Model Context
// Protocol, so MCP clients like Claude Desktop can list workflows and
// run them against input text.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/textloom/loom"
	"github.com/textloom/loom/store"
	"github.com/textloom/loom/workflow"
)

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name    string
	version string
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

var listWorkflowsSchema = json.RawMessage(`{
	"type": "object",
	"properties": {}
}`)

var runWorkflowSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"workflow_id": {
			"type": "string",
			"description": "UUID of the workflow to run"
		},
		"input_text": {
			"type": "string",
			"description": "Text the workflow transforms"
		}
	},
	"required": ["workflow_id", "input_text"]
}`)

// NewServer creates an MCP server exposing list_workflows and
// run_workflow tools backed by the given store and provider.
func NewServer(st store.Store, provider loom.Provider, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{
		name:    "loom-mcp-server",
		version: "1.0.0",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := server.NewMCPServer(
		cfg.name,
		cfg.version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewToolWithRawSchema("list_workflows",
			"List all saved workflows with their step chains.", listWorkflowsSchema),
		listWorkflowsHandler(st),
	)
	s.AddTool(
		mcp.NewToolWithRawSchema("run_workflow",
			"Run a workflow against input text and return the finished run with all step outputs.", runWorkflowSchema),
		runWorkflowHandler(st, provider),
	)

	return s
}

// ServeStdio starts an MCP server that communicates over stdin/stdout.
// This is the standard transport for MCP servers invoked as subprocesses.
func ServeStdio(st store.Store, provider loom.Provider, opts ...ServerOption) error {
	return server.ServeStdio(NewServer(st, provider, opts...))
}

func listWorkflowsHandler(st store.Store) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		workflows, err := st.ListWorkflows(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		data, err := json.MarshalIndent(workflows, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

type runWorkflowArgs struct {
	WorkflowID string `json:"workflow_id"`
	InputText  string `json:"input_text"`
}

func runWorkflowHandler(st store.Store, provider loom.Provider) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args runWorkflowArgs
		if req.Params.Arguments != nil {
			data, err := json.Marshal(req.Params.Arguments)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to marshal arguments: %v", err)), nil
			}
			if err := json.Unmarshal(data, &args); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
		}

		id, err := uuid.Parse(args.WorkflowID)
		if err != nil {
			return mcp.NewToolResultError("workflow_id must be a UUID"), nil
		}
		if args.InputText == "" {
			return mcp.NewToolResultError("input_text is required"), nil
		}

		runner := workflow.NewChainRunner(st, provider)
		run, events, err := runner.Run(ctx, id, args.InputText)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		for range events {
		}

		final, err := st.GetRun(ctx, run.ID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		data, err := json.MarshalIndent(final, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}
