package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Version != 1 {
		t.Fatalf("expected version 1, got %d", cfg.Version)
	}
	if cfg.Paths.CacheDir != "data/cache" {
		t.Fatalf("unexpected cache dir default: %q", cfg.Paths.CacheDir)
	}
	if cfg.DB.Path != "graph.db" {
		t.Fatalf("unexpected db path default: %q", cfg.DB.Path)
	}
	if cfg.DB.BusyTimeout != 5*time.Second {
		t.Fatalf("unexpected busy timeout default: %v", cfg.DB.BusyTimeout)
	}
	if !cfg.Cache.IsEnabled() {
		t.Fatal("cache must default to enabled")
	}
}

func TestLoad_CacheDisabled(t *testing.T) {
	path := writeConfig(t, "[cache]\nenabled = false\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.IsEnabled() {
		t.Fatal("expected cache disabled")
	}
}

func TestLoad_RejectsUnknownVersion(t *testing.T) {
	path := writeConfig(t, "version = 7\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unsupported version")
	}
}

func TestLoad_RejectsBadExcludePattern(t *testing.T) {
	path := writeConfig(t, "[ingest]\nexcludes = [\"[\"]\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an invalid glob pattern")
	}
}

func TestLoad_RejectsNegativeThrottle(t *testing.T) {
	path := writeConfig(t, "[ingest]\nfiles_per_second = -1.0\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a negative throttle rate")
	}
}

func TestLoad_ThrottleBurstDefault(t *testing.T) {
	path := writeConfig(t, "[ingest]\nfiles_per_second = 20.0\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ingest.Burst != 1 {
		t.Fatalf("expected burst default of 1, got %d", cfg.Ingest.Burst)
	}
}
