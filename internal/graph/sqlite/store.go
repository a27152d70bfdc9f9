// Package sqlite implements graph.GraphSource on an embedded SQLite
// database holding the class, method, call and inheritance tables built by
// ingest.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"dexgraph/internal/errors"
	"dexgraph/internal/graph"
)

const sqliteDriverName = "sqlite"

// schemaVersion is tracked through PRAGMA user_version.
const schemaVersion = 1

type Store struct {
	db *sql.DB
}

var _ graph.GraphSource = (*Store)(nil)

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, errors.New(errors.CodeValidationError, "graph database path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, errors.New(errors.CodeValidationError, fmt.Sprintf("graph database path %q is a directory, expected file", cleanPath))
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, errors.CodeStorageError, fmt.Sprintf("create graph database directory %q", dir))
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(sqliteDriverName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, fmt.Sprintf("open graph database %q", cleanPath))
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.CodeStorageError, fmt.Sprintf("ping graph database %q", cleanPath))
	}

	if err := migrateSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying handle so tests can assert row-level state.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.db
}

func migrateSchema(db *sql.DB) error {
	var version int
	_ = db.QueryRow(`PRAGMA user_version`).Scan(&version)

	if version > schemaVersion {
		return errors.New(errors.CodeStorageError, fmt.Sprintf("graph schema version %d is newer than supported version %d", version, schemaVersion))
	}

	if version == 0 {
		_, err := db.Exec(`
CREATE TABLE sources (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE
);

CREATE TABLE classes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  source_id INTEGER NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  access_flags INTEGER NOT NULL DEFAULT 0,
  UNIQUE (source_id, name)
);
CREATE INDEX idx_classes_name ON classes(name);

CREATE TABLE methods (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  class_id INTEGER NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
  source_id INTEGER NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  args TEXT NOT NULL DEFAULT '',
  ret TEXT NOT NULL DEFAULT '',
  access_flags INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX idx_methods_name ON methods(name);
CREATE INDEX idx_methods_class ON methods(class_id);
CREATE INDEX idx_methods_source ON methods(source_id);

CREATE TABLE calls (
  caller INTEGER NOT NULL REFERENCES methods(id) ON DELETE CASCADE,
  callee INTEGER NOT NULL REFERENCES methods(id) ON DELETE CASCADE,
  PRIMARY KEY (caller, callee)
);
CREATE INDEX idx_calls_callee ON calls(callee);

CREATE TABLE supers (
  parent INTEGER NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
  child INTEGER NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
  PRIMARY KEY (parent, child)
);

CREATE TABLE interfaces (
  iface INTEGER NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
  class INTEGER NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
  PRIMARY KEY (iface, class)
);

CREATE TABLE ingest_runs (
  id TEXT PRIMARY KEY,
  source TEXT NOT NULL,
  started_at_utc TEXT NOT NULL,
  finished_at_utc TEXT NOT NULL DEFAULT '',
  file_count INTEGER NOT NULL DEFAULT 0,
  class_count INTEGER NOT NULL DEFAULT 0,
  method_count INTEGER NOT NULL DEFAULT 0,
  call_count INTEGER NOT NULL DEFAULT 0
);

PRAGMA user_version = 1;
`)
		if err != nil {
			return errors.Wrap(err, errors.CodeStorageError, "create graph schema v1")
		}
	}

	return nil
}

// RemoveSource drops one source and, through cascading deletes, every class,
// method and edge it owns.
func (s *Store) RemoveSource(ctx context.Context, source string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sources WHERE name = ?`, source)
	if err != nil {
		return errors.AddContext(
			errors.Wrap(err, errors.CodeStorageError, "remove source"),
			errors.CtxSource, source)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return errors.AddContext(
			errors.New(errors.CodeNotFound, "source not in graph"),
			errors.CtxSource, source)
	}
	return nil
}

// Wipe removes every row from the graph. The schema stays in place.
func (s *Store) Wipe(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "begin wipe tx")
	}
	for _, table := range []string{"calls", "supers", "interfaces", "methods", "classes", "sources", "ingest_runs"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, errors.CodeStorageError, fmt.Sprintf("wipe %s", table))
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "commit wipe tx")
	}
	return nil
}
