package config

import "time"

// DefaultConfigFile is looked up in the project root when no explicit
// config path is given on the command line.
const DefaultConfigFile = "dexgraph.toml"

type Config struct {
	Version       int           `toml:"version"`
	Paths         Paths         `toml:"paths"`
	DB            Database      `toml:"db"`
	Cache         Cache         `toml:"cache"`
	Ingest        Ingest        `toml:"ingest"`
	Observability Observability `toml:"observability"`
	Tracing       Tracing       `toml:"tracing"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
	CacheDir    string `toml:"cache_dir"`
	DatabaseDir string `toml:"database_dir"`
}

type Database struct {
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Cache struct {
	Enabled *bool  `toml:"enabled"`
	Dir     string `toml:"dir"`
}

func (c Cache) IsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

type Ingest struct {
	Excludes []string `toml:"excludes"`
	// FilesPerSecond throttles how fast ingest reads source files.
	// Zero disables throttling.
	FilesPerSecond float64 `toml:"files_per_second"`
	Burst          int     `toml:"burst"`
}

type Observability struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
}

type Tracing struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
}
