// Command loom-mcp exposes the workflow engine as an MCP server over
// stdio, so MCP clients like Claude Desktop can list and run workflows.
//
// Configuration for Claude Desktop (~/Library/Application Support/Claude/claude_desktop_config.json):
//
//	{
//	    "mcpServers": {
//	        "loom": {
//	            "command": "go",
//	            "args": ["run", "./cmd/loom-mcp"],
//	            "cwd": "/path/to/loom"
//	        }
//	    }
//	}
package main

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/textloom/loom/config"
	"github.com/textloom/loom/mcp"
	"github.com/textloom/loom/provider"
	"github.com/textloom/loom/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	ctx := context.Background()

	var st store.Store
	if cfg.DatabaseURL == "" {
		st = store.NewMemory()
	} else {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer pool.Close()
		pg := store.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
		st = pg
	}

	p, err := provider.New(ctx, cfg.Provider, cfg.APIKey(), cfg.Model)
	if err != nil {
		log.Fatalf("failed to create provider: %v", err)
	}

	if err := mcp.ServeStdio(st, p,
		mcp.WithName("loom"),
		mcp.WithVersion("1.0.0"),
	); err != nil {
		log.Fatal(err)
	}
}
