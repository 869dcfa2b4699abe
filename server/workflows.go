package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/textloom/loom/workflow"
)

func (s *Server) handleCreateWorkflow(c echo.Context) error {
	var req createWorkflowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}

	name := sanitizeText(req.Name, maxNameLength)
	if name == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "name is required")
	}
	if len(req.Steps) == 0 {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "at least one step is required")
	}
	if err := workflow.ValidateSteps(req.Steps); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	wf := &workflow.WorkflowDefinition{
		ID:          uuid.New(),
		Name:        name,
		Description: sanitizeText(req.Description, maxTextLength),
		Steps:       req.Steps,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateWorkflow(c.Request().Context(), wf); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save workflow: "+err.Error())
	}

	s.log.Info("workflow created", "workflow_id", wf.ID)
	return c.JSON(http.StatusOK, wf)
}

func (s *Server) handleGetWorkflow(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid workflow id")
	}

	wf, err := s.store.GetWorkflow(c.Request().Context(), id)
	if errors.Is(err, workflow.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Workflow not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, wf)
}

// handleRunWorkflow executes the full chain synchronously and returns the
// finished run record with its step results.
func (s *Server) handleRunWorkflow(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid workflow id")
	}

	var req runRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	input := sanitizeText(req.InputText, maxTextLength)
	if input == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "input_text is required")
	}

	runner, err := s.runnerFor(c)
	if err != nil {
		return err
	}

	ctx, cancel := s.runContext(c)
	defer cancel()

	run, events, err := runner.Run(ctx, id, input)
	if errors.Is(err, workflow.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Workflow not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	runsStarted.Inc()

	for ev := range events {
		observeEvent(ev)
	}

	final, err := s.store.GetRun(c.Request().Context(), run.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, final)
}

// handleRunStream executes the chain and streams engine events to the
// client as newline-delimited JSON, one event per line, flushed as they
// happen.
func (s *Server) handleRunStream(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid workflow id")
	}

	var req runRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	input := sanitizeText(req.InputText, maxTextLength)
	if input == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "input_text is required")
	}

	runner, err := s.runnerFor(c)
	if err != nil {
		return err
	}

	ctx, cancel := s.runContext(c)
	defer cancel()

	run, events, err := runner.Run(ctx, id, input)
	if errors.Is(err, workflow.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Workflow not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	runsStarted.Inc()
	s.log.Info("streaming workflow run started", "workflow_id", id, "run_id", run.ID)

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "application/x-ndjson")
	resp.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(resp)
	for ev := range events {
		observeEvent(ev)
		if err := enc.Encode(ev); err != nil {
			// Client went away; the runner notices via the request context.
			return nil
		}
		resp.Flush()
	}
	return nil
}

// runContext bounds a run by the configured timeout while staying tied to
// the request so client disconnects cancel the run.
func (s *Server) runContext(c echo.Context) (context.Context, context.CancelFunc) {
	ctx := c.Request().Context()
	if s.stepTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.stepTimeout)
}
