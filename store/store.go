// Package store provides durable persistence for workflow definitions,
// run records, and step results.
//
// Two implementations are available: Memory for tests and single-process
// deployments, and Postgres for production. Both satisfy workflow.Store,
// the narrow surface the execution engine consumes.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/textloom/loom/workflow"
)

// ErrNotFound indicates a referenced workflow or run does not exist.
var ErrNotFound = workflow.ErrNotFound

// Store is the full persistence surface of the service. It extends the
// engine-facing workflow.Store with the authoring and query operations used
// by the HTTP layer.
type Store interface {
	workflow.Store

	// CreateWorkflow persists a new workflow definition.
	CreateWorkflow(ctx context.Context, wf *workflow.WorkflowDefinition) error

	// ListWorkflows returns all workflow definitions, most recent first.
	ListWorkflows(ctx context.Context) ([]*workflow.WorkflowDefinition, error)

	// GetRun loads a run with its step results in step order, or ErrNotFound.
	GetRun(ctx context.Context, id uuid.UUID) (*workflow.RunRecord, error)

	// ListRecentRuns returns up to limit runs, most recent first, skipping
	// offset runs. Step results are included in step order.
	ListRecentRuns(ctx context.Context, limit, offset int) ([]*workflow.RunRecord, error)

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error
}
