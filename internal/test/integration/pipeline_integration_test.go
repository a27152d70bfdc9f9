package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dexgraph/internal/cache"
	"dexgraph/internal/graph"
	"dexgraph/internal/graph/cached"
	"dexgraph/internal/graph/sqlite"
	"dexgraph/internal/ingest"
)

func createJavaTree(t *testing.T, tmpDir string) {
	files := map[string]string{
		"com/example/app/Task.java": `package com.example.app;
public interface Task {
    void run();
}`,
		"com/example/app/Worker.java": `package com.example.app;
public class Worker implements Task {
    public void run() {
        int n = helper(2);
    }
    int helper(int x) { return x; }
}`,
		"com/example/app/Main.java": `package com.example.app;
public class Main {
    public void start() {
        run();
    }
}`,
	}
	for rel, body := range files {
		path := filepath.Join(tmpDir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
}

func TestFullPipelineIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	createJavaTree(t, tmpDir)

	dbPath := filepath.Join(t.TempDir(), "graph.db")
	store, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	ingestor, err := ingest.New(store, ingest.Options{})
	require.NoError(t, err)

	ctx := context.Background()
	stats, err := ingestor.Run(ctx, "app.apk", tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Files)
	assert.Equal(t, 3, stats.Classes)

	cacheRoot := t.TempDir()
	fsStore, err := cache.NewFSStore(cacheRoot)
	require.NoError(t, err)
	proxy := cached.New(store, fsStore)

	// First pass fills the cache from the database.
	impls, err := proxy.FindClassesImplementing(ctx, graph.ImplementorsQuery{Interface: "com.example.app.Task"})
	require.NoError(t, err)
	require.Len(t, impls, 1)
	assert.Equal(t, graph.ClassName("com.example.app.Worker"), impls[0].Name)

	callers, err := proxy.FindCallers(ctx, graph.CallersQuery{Name: "helper"})
	require.NoError(t, err)
	assert.Len(t, callers, 2, "direct chain plus the transitive one through start")

	sources, err := proxy.GetAllSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.apk"}, sources)
}

func TestCacheReplaysWithoutDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	createJavaTree(t, tmpDir)

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	defer store.Close()

	ingestor, err := ingest.New(store, ingest.Options{})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = ingestor.Run(ctx, "app.apk", tmpDir)
	require.NoError(t, err)

	cacheRoot := t.TempDir()
	fsStore, err := cache.NewFSStore(cacheRoot)
	require.NoError(t, err)

	warm := cached.New(store, fsStore)
	want, err := warm.FindCallers(ctx, graph.CallersQuery{Name: "helper"})
	require.NoError(t, err)
	require.NotEmpty(t, want)

	// A fresh proxy over an empty database must replay the warm entry
	// byte for byte instead of touching the new database.
	empty, err := sqlite.Open(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer empty.Close()

	fsStore2, err := cache.NewFSStore(cacheRoot)
	require.NoError(t, err)
	cold := cached.New(empty, fsStore2)

	got, err := cold.FindCallers(ctx, graph.CallersQuery{Name: "helper"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
