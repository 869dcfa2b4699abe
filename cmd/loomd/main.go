// Command loomd serves the workflow engine over HTTP.
//
// Configuration is via environment variables (a .env file is honored):
//
//	LOOM_PORT         - Server port (default: 8000)
//	LOOM_LOG_LEVEL    - debug, info, warn, error (default: info)
//	DATABASE_URL      - Postgres DSN; empty selects the in-memory store
//	LOOM_PROVIDER     - anthropic, openai, or google (default: anthropic)
//	LOOM_MODEL        - Model override (optional, uses provider default)
//	LOOM_MAX_TOKENS   - Max tokens per generation (default: 4096)
//	LOOM_STEP_TIMEOUT - Wall-clock bound per run request (default: 2m)
//	LOOM_RATE_LIMIT   - Requests per second per client (default: 10)
//	ANTHROPIC_API_KEY - Anthropic API key
//	OPENAI_API_KEY    - OpenAI API key
//	GOOGLE_API_KEY    - Google API key
//
// Usage:
//
//	LOOM_PROVIDER=anthropic go run ./cmd/loomd
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/textloom/loom"
	"github.com/textloom/loom/config"
	"github.com/textloom/loom/provider"
	"github.com/textloom/loom/server"
	"github.com/textloom/loom/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	log := setupLogger(cfg.LogLevel)

	ctx := context.Background()

	st, cleanup, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	defaultProvider, err := provider.New(ctx, cfg.Provider, cfg.APIKey(), cfg.Model)
	if err != nil {
		log.Error("failed to create provider", "error", err)
		os.Exit(1)
	}

	factory := func(apiKey string) (loom.Provider, error) {
		return provider.New(ctx, cfg.Provider, apiKey, cfg.Model)
	}

	srv := server.New(st, defaultProvider,
		server.WithProviderFactory(factory),
		server.WithLogger(log),
		server.WithGenOptions(loom.WithMaxTokens(cfg.MaxTokens)),
		server.WithStepTimeout(cfg.StepTimeout),
		server.WithRateLimit(cfg.RateLimit),
	)

	e := echo.New()
	e.HideBanner = true
	srv.Register(e)

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     e,
		ReadTimeout: 10 * time.Second,
		// Streaming runs need no write timeout.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown error", "error", err)
		}
	}()

	log.Info("loomd starting", "port", cfg.Port, "provider", cfg.Provider)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(log)
	return log
}

// openStore selects postgres when DATABASE_URL is set, otherwise the
// in-memory store.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Info("using in-memory store")
		return store.NewMemory(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	pg := store.NewPostgres(pool)
	if err := pg.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	log.Info("using postgres store")
	return pg, pool.Close, nil
}
