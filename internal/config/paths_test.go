package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePaths_DefaultLayout(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, DefaultConfigFile), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	got, err := ResolvePaths(cfg, root)
	if err != nil {
		t.Fatal(err)
	}
	if got.ProjectRoot != filepath.Clean(root) {
		t.Fatalf("expected project root %q, got %q", root, got.ProjectRoot)
	}
	if got.CacheDir != filepath.Join(root, "data/cache") {
		t.Fatalf("unexpected cache dir: %q", got.CacheDir)
	}
	if got.DBPath != filepath.Join(root, "data/database", "graph.db") {
		t.Fatalf("unexpected db path: %q", got.DBPath)
	}
}

func TestResolvePaths_AbsoluteOverrides(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(root, "custom", "graph.db")
	cfg := &Config{
		Paths: Paths{
			ProjectRoot: root,
			CacheDir:    filepath.Join(root, "cachehome"),
		},
		DB: Database{
			Path: dbPath,
		},
	}
	applyDefaults(cfg)

	got, err := ResolvePaths(cfg, root)
	if err != nil {
		t.Fatal(err)
	}
	if got.CacheDir != filepath.Join(root, "cachehome") {
		t.Fatalf("unexpected cache dir: %q", got.CacheDir)
	}
	if got.DBPath != dbPath {
		t.Fatalf("unexpected db path: %q", got.DBPath)
	}
}

func TestResolvePaths_CacheDirOverride(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.Paths.ProjectRoot = root
	cfg.Cache.Dir = "other/cache"

	got, err := ResolvePaths(cfg, root)
	if err != nil {
		t.Fatal(err)
	}
	if got.CacheDir != filepath.Join(root, "other/cache") {
		t.Fatalf("cache.dir override not applied: %q", got.CacheDir)
	}
}

func TestDetectProjectRoot_FallbackOrder(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, DefaultConfigFile), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := DetectProjectRoot([]string{sub})
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Clean(root) {
		t.Fatalf("expected %q, got %q", root, got)
	}
}
