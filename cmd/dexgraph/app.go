package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"dexgraph/internal/cache"
	"dexgraph/internal/config"
	"dexgraph/internal/graph"
	"dexgraph/internal/graph/cached"
	"dexgraph/internal/graph/sqlite"
	"dexgraph/internal/ingest"
	"dexgraph/internal/observability"
)

// App wires the graph database, the query cache and the observability
// stack behind one handle for the command modes.
type App struct {
	cfg   *config.Config
	paths config.ResolvedPaths

	store *sqlite.Store
	Graph graph.GraphSource

	obsServer    *observability.Server
	traceCleanup func(context.Context) error
}

func NewApp(cfg *config.Config, paths config.ResolvedPaths, noCache bool) (*App, error) {
	app := &App{cfg: cfg, paths: paths}

	store, err := sqlite.Open(paths.DBPath)
	if err != nil {
		return nil, err
	}
	app.store = store
	app.Graph = store

	if cfg.Cache.IsEnabled() && !noCache {
		fsStore, err := cache.NewFSStore(paths.CacheDir)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		app.Graph = cached.New(store, fsStore)
	}

	ctx := context.Background()
	if cfg.Tracing.Enabled {
		cleanup, err := observability.SetupTracing(ctx, cfg.Tracing.Endpoint, VERSION)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			app.traceCleanup = cleanup
		}
	}
	if cfg.Observability.Enabled {
		app.obsServer = observability.NewServer(cfg.Observability.Address)
		if err := app.obsServer.Start(ctx); err != nil {
			slog.Warn("observability server not started", "error", err)
			app.obsServer = nil
		}
	}

	return app, nil
}

func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.obsServer != nil {
		if err := a.obsServer.Stop(ctx); err != nil {
			slog.Warn("observability server shutdown failed", "error", err)
		}
	}
	if a.traceCleanup != nil {
		if err := a.traceCleanup(ctx); err != nil {
			slog.Warn("trace flush failed", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		slog.Warn("database close failed", "error", err)
	}
}

func (a *App) Ingest(ctx context.Context, source, root string) error {
	in, err := ingest.New(a.store, ingest.Options{
		Excludes:       a.cfg.Ingest.Excludes,
		FilesPerSecond: a.cfg.Ingest.FilesPerSecond,
		Burst:          a.cfg.Ingest.Burst,
	})
	if err != nil {
		return err
	}

	stats, err := in.Run(ctx, source, root)
	if err != nil {
		return err
	}
	fmt.Printf("ingested %s: %d files, %d classes, %d methods, %d call edges (%d skipped)\n",
		source, stats.Files, stats.Classes, stats.Methods, stats.Calls, stats.Skipped)
	return nil
}

func (a *App) RemoveSource(ctx context.Context, source string) error {
	if err := a.store.RemoveSource(ctx, source); err != nil {
		return err
	}
	fmt.Printf("removed %s\n", source)
	return nil
}

func (a *App) Wipe(ctx context.Context) error {
	if err := a.store.Wipe(ctx); err != nil {
		return err
	}
	fmt.Println("graph wiped")
	return nil
}

// Print renders any query result as indented JSON on stdout.
func (a *App) Print(result any, err error) error {
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
