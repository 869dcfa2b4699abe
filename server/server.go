// Package server exposes the workflow engine over HTTP.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/textloom/loom"
	"github.com/textloom/loom/store"
	"github.com/textloom/loom/workflow"
)

// ProviderFactory builds a provider bound to the given API key. It is
// invoked when a request carries its own key in the X-Api-Key header.
type ProviderFactory func(apiKey string) (loom.Provider, error)

// Server holds the dependencies for the HTTP API.
type Server struct {
	store       store.Store
	provider    loom.Provider
	providerFor ProviderFactory
	log         *slog.Logger
	genOpts     []loom.Option
	stepTimeout time.Duration
	rateLimit   rate.Limit
}

// Option configures the server.
type Option func(*Server)

// WithProviderFactory enables per-request provider keys.
func WithProviderFactory(f ProviderFactory) Option {
	return func(s *Server) { s.providerFor = f }
}

// WithLogger sets the request and run logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithGenOptions sets generation options applied to every provider call.
func WithGenOptions(opts ...loom.Option) Option {
	return func(s *Server) { s.genOpts = opts }
}

// WithStepTimeout bounds the wall time of a single run request.
func WithStepTimeout(d time.Duration) Option {
	return func(s *Server) { s.stepTimeout = d }
}

// WithRateLimit sets the allowed requests per second per client.
func WithRateLimit(rps float64) Option {
	return func(s *Server) { s.rateLimit = rate.Limit(rps) }
}

// New creates a Server backed by the given store and default provider.
func New(st store.Store, provider loom.Provider, opts ...Option) *Server {
	s := &Server{
		store:       st,
		provider:    provider,
		log:         slog.Default(),
		stepTimeout: 2 * time.Minute,
		rateLimit:   rate.Limit(10),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register mounts middleware and routes on the echo instance.
func (s *Server) Register(e *echo.Echo) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			s.log.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(s.rateLimit)))

	e.POST("/workflows", s.handleCreateWorkflow)
	e.GET("/workflows/:id", s.handleGetWorkflow)
	e.POST("/workflows/:id/run", s.handleRunWorkflow)
	e.POST("/workflows/:id/run_stream", s.handleRunStream)

	e.GET("/runs", s.handleListRuns)
	e.GET("/runs/:id", s.handleGetRun)
	e.GET("/health", s.handleHealth)
	e.POST("/validate-key", s.handleValidateKey)
	e.GET("/templates", s.handleTemplates)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// runnerFor builds a chain runner for this request, honoring a per-request
// API key when the factory is configured.
func (s *Server) runnerFor(c echo.Context) (*workflow.ChainRunner, error) {
	provider := s.provider
	if key := c.Request().Header.Get("X-Api-Key"); key != "" && s.providerFor != nil {
		p, err := s.providerFor(key)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid API key: "+err.Error())
		}
		provider = p
	}
	if provider == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "API Key missing")
	}
	return workflow.NewChainRunner(s.store, provider, s.genOpts...), nil
}
