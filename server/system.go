package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/textloom/loom"
	"github.com/textloom/loom/workflow"
)

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.store.Ping(c.Request().Context()); err != nil {
		s.log.Error("health check failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Database connection failed: "+err.Error())
	}
	return c.JSON(http.StatusOK, healthResponse{Status: "healthy", Database: "connected"})
}

func (s *Server) handleValidateKey(c echo.Context) error {
	var req keyValidationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if req.APIKey == "" || s.providerFor == nil {
		return c.JSON(http.StatusUnauthorized, keyValidationResponse{Valid: false, Error: "Invalid API Key or connection failed"})
	}

	provider, err := s.providerFor(req.APIKey)
	if err != nil {
		s.log.Warn("API key validation failed", "error", err)
		return c.JSON(http.StatusUnauthorized, keyValidationResponse{Valid: false, Error: "Invalid API Key or connection failed"})
	}

	verifier, ok := provider.(loom.KeyVerifier)
	if !ok {
		return c.JSON(http.StatusOK, keyValidationResponse{Valid: true})
	}
	if err := verifier.VerifyKey(c.Request().Context()); err != nil {
		s.log.Warn("API key validation failed", "error", err)
		return c.JSON(http.StatusUnauthorized, keyValidationResponse{Valid: false, Error: "Invalid API Key or connection failed"})
	}

	s.log.Info("API key validated successfully")
	return c.JSON(http.StatusOK, keyValidationResponse{Valid: true})
}

func (s *Server) handleListRuns(c echo.Context) error {
	limit := queryIntOrDefault(c, "limit", 5)
	skip := queryIntOrDefault(c, "skip", 0)

	runs, err := s.store.ListRecentRuns(c.Request().Context(), limit, skip)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if runs == nil {
		runs = []*workflow.RunRecord{}
	}
	return c.JSON(http.StatusOK, runs)
}

func (s *Server) handleGetRun(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid run id")
	}

	run, err := s.store.GetRun(c.Request().Context(), id)
	if errors.Is(err, workflow.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Run not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, run)
}

func (s *Server) handleTemplates(c echo.Context) error {
	return c.JSON(http.StatusOK, predefinedTemplates)
}

func queryIntOrDefault(c echo.Context, name string, defaultValue int) int {
	if value := c.QueryParam(name); value != "" {
		if i, err := strconv.Atoi(value); err == nil && i >= 0 {
			return i
		}
	}
	return defaultValue
}
