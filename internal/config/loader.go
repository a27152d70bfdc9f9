package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateDatabase(&cfg); err != nil {
		return nil, err
	}
	if err := validateIngest(&cfg); err != nil {
		return nil, err
	}
	if err := validateObservability(&cfg); err != nil {
		return nil, err
	}
	if err := validateTracing(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Paths.CacheDir) == "" {
		cfg.Paths.CacheDir = "data/cache"
	}
	if strings.TrimSpace(cfg.Paths.DatabaseDir) == "" {
		cfg.Paths.DatabaseDir = "data/database"
	}

	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "graph.db"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}

	if cfg.Ingest.FilesPerSecond > 0 && cfg.Ingest.Burst <= 0 {
		cfg.Ingest.Burst = 1
	}

	if strings.TrimSpace(cfg.Observability.Address) == "" {
		cfg.Observability.Address = "127.0.0.1:9091"
	}
	if strings.TrimSpace(cfg.Tracing.Endpoint) == "" {
		cfg.Tracing.Endpoint = "localhost:4317"
	}
}

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateDatabase(cfg *Config) error {
	if strings.TrimSpace(cfg.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty")
	}
	return nil
}

func validateIngest(cfg *Config) error {
	if cfg.Ingest.FilesPerSecond < 0 {
		return fmt.Errorf("ingest.files_per_second must not be negative")
	}
	for i, pattern := range cfg.Ingest.Excludes {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("ingest.excludes[%d] must not be empty", i)
		}
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("ingest.excludes[%d]: invalid pattern %q: %w", i, pattern, err)
		}
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if cfg.Observability.Enabled && strings.TrimSpace(cfg.Observability.Address) == "" {
		return fmt.Errorf("observability.address must not be empty when observability.enabled=true")
	}
	return nil
}

func validateTracing(cfg *Config) error {
	if cfg.Tracing.Enabled && strings.TrimSpace(cfg.Tracing.Endpoint) == "" {
		return fmt.Errorf("tracing.endpoint must not be empty when tracing.enabled=true")
	}
	return nil
}
