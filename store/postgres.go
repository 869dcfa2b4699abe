package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/textloom/loom/workflow"
)

// Postgres is a PostgreSQL implementation of Store backed by a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store over an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the schema if it does not exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS workflows (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			steps JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS workflow_runs (
			id UUID PRIMARY KEY,
			workflow_id UUID NOT NULL REFERENCES workflows(id),
			input_text TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_workflow_runs_created_at ON workflow_runs (created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS workflow_step_runs (
			id UUID PRIMARY KEY,
			workflow_run_id UUID NOT NULL REFERENCES workflow_runs(id),
			step_order INT NOT NULL,
			step_type TEXT NOT NULL,
			output_text TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_workflow_step_runs_run ON workflow_step_runs (workflow_run_id, step_order)`,
	}
	for _, q := range ddl {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// CreateWorkflow persists a new workflow definition.
func (s *Postgres) CreateWorkflow(ctx context.Context, wf *workflow.WorkflowDefinition) error {
	stepsJSON, err := json.Marshal(wf.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO workflows (id, name, description, steps, created_at) VALUES ($1, $2, $3, $4, $5)`,
		wf.ID, wf.Name, wf.Description, stepsJSON, wf.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert workflow: %w", err)
	}
	return nil
}

// GetWorkflow loads a definition, or ErrNotFound.
func (s *Postgres) GetWorkflow(ctx context.Context, id uuid.UUID) (*workflow.WorkflowDefinition, error) {
	var (
		wf        workflow.WorkflowDefinition
		stepsJSON []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description, steps, created_at FROM workflows WHERE id = $1`, id,
	).Scan(&wf.ID, &wf.Name, &wf.Description, &stepsJSON, &wf.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select workflow: %w", err)
	}
	if err := json.Unmarshal(stepsJSON, &wf.Steps); err != nil {
		return nil, fmt.Errorf("unmarshal steps: %w", err)
	}
	return &wf, nil
}

// ListWorkflows returns all workflow definitions, most recent first.
func (s *Postgres) ListWorkflows(ctx context.Context) ([]*workflow.WorkflowDefinition, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, steps, created_at FROM workflows ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select workflows: %w", err)
	}
	defer rows.Close()

	var out []*workflow.WorkflowDefinition
	for rows.Next() {
		var (
			wf        workflow.WorkflowDefinition
			stepsJSON []byte
		)
		if err := rows.Scan(&wf.ID, &wf.Name, &wf.Description, &stepsJSON, &wf.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		if err := json.Unmarshal(stepsJSON, &wf.Steps); err != nil {
			return nil, fmt.Errorf("unmarshal steps: %w", err)
		}
		out = append(out, &wf)
	}
	return out, rows.Err()
}

// CreateRun persists a new run record.
func (s *Postgres) CreateRun(ctx context.Context, run *workflow.RunRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO workflow_runs (id, workflow_id, input_text, status, created_at) VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.WorkflowID, run.InputText, run.Status, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// AppendStepResult persists one step result.
func (s *Postgres) AppendStepResult(ctx context.Context, res *workflow.StepResult) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO workflow_step_runs (id, workflow_run_id, step_order, step_type, output_text) VALUES ($1, $2, $3, $4, $5)`,
		res.ID, res.RunID, res.StepOrder, res.Action, res.OutputText,
	)
	if err != nil {
		return fmt.Errorf("insert step result: %w", err)
	}
	return nil
}

// SetRunStatus transitions a run to the given status.
func (s *Postgres) SetRunStatus(ctx context.Context, runID uuid.UUID, status workflow.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE workflow_runs SET status = $1 WHERE id = $2`, status, runID,
	)
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRun loads a run with its step results in step order, or ErrNotFound.
func (s *Postgres) GetRun(ctx context.Context, id uuid.UUID) (*workflow.RunRecord, error) {
	var run workflow.RunRecord
	err := s.pool.QueryRow(ctx,
		`SELECT id, workflow_id, input_text, status, created_at FROM workflow_runs WHERE id = $1`, id,
	).Scan(&run.ID, &run.WorkflowID, &run.InputText, &run.Status, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select run: %w", err)
	}
	if run.Steps, err = s.stepResults(ctx, run.ID); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRecentRuns returns up to limit runs, most recent first.
func (s *Postgres) ListRecentRuns(ctx context.Context, limit, offset int) ([]*workflow.RunRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, workflow_id, input_text, status, created_at
		 FROM workflow_runs
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer rows.Close()

	var runs []*workflow.RunRecord
	for rows.Next() {
		var run workflow.RunRecord
		if err := rows.Scan(&run.ID, &run.WorkflowID, &run.InputText, &run.Status, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	for _, run := range runs {
		if run.Steps, err = s.stepResults(ctx, run.ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// Ping reports whether the database is reachable.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Postgres) stepResults(ctx context.Context, runID uuid.UUID) ([]workflow.StepResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, workflow_run_id, step_order, step_type, output_text
		 FROM workflow_step_runs
		 WHERE workflow_run_id = $1
		 ORDER BY step_order`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("select step results: %w", err)
	}
	defer rows.Close()

	var results []workflow.StepResult
	for rows.Next() {
		var res workflow.StepResult
		if err := rows.Scan(&res.ID, &res.RunID, &res.StepOrder, &res.Action, &res.OutputText); err != nil {
			return nil, fmt.Errorf("scan step result: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate step results: %w", err)
	}
	return results, nil
}

var _ Store = (*Postgres)(nil)
