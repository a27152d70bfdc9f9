package sqlite

import (
	"context"
	"database/sql"
	"time"

	"dexgraph/internal/errors"
	"dexgraph/internal/graph"
)

// Batch groups the writes of one ingest run into a single transaction.
type Batch struct {
	tx *sql.Tx
}

func (s *Store) BeginBatch(ctx context.Context) (*Batch, error) {
	if s == nil || s.db == nil {
		return nil, errors.New(errors.CodeInternal, "store not initialized")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "begin ingest tx")
	}
	return &Batch{tx: tx}, nil
}

// EnsureSource inserts the source if absent and returns its row id.
func (b *Batch) EnsureSource(name string) (int64, error) {
	if _, err := b.tx.Exec(`INSERT OR IGNORE INTO sources (name) VALUES (?)`, name); err != nil {
		return 0, errors.Wrap(err, errors.CodeStorageError, "insert source")
	}
	var id int64
	if err := b.tx.QueryRow(`SELECT id FROM sources WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, errors.Wrap(err, errors.CodeStorageError, "select source id")
	}
	return id, nil
}

// ClearSource drops every class the source owns, cascading to methods and
// edges. Re-ingesting a source replaces its previous rows.
func (b *Batch) ClearSource(sourceID int64) error {
	if _, err := b.tx.Exec(`DELETE FROM classes WHERE source_id = ?`, sourceID); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "clear source classes")
	}
	return nil
}

// EnsureClass inserts the class if absent and returns its row id. Non-zero
// flags replace a placeholder row created earlier by an edge reference.
func (b *Batch) EnsureClass(sourceID int64, name graph.ClassName, flags graph.AccessFlags) (int64, error) {
	if _, err := b.tx.Exec(`INSERT OR IGNORE INTO classes (source_id, name, access_flags) VALUES (?, ?, ?)`,
		sourceID, string(name), uint32(flags)); err != nil {
		return 0, errors.Wrap(err, errors.CodeStorageError, "insert class")
	}
	if flags != 0 {
		if _, err := b.tx.Exec(`UPDATE classes SET access_flags = ? WHERE source_id = ? AND name = ? AND access_flags = 0`,
			uint32(flags), sourceID, string(name)); err != nil {
			return 0, errors.Wrap(err, errors.CodeStorageError, "update class flags")
		}
	}
	var id int64
	if err := b.tx.QueryRow(`SELECT id FROM classes WHERE source_id = ? AND name = ?`, sourceID, string(name)).Scan(&id); err != nil {
		return 0, errors.Wrap(err, errors.CodeStorageError, "select class id")
	}
	return id, nil
}

func (b *Batch) AddMethod(sourceID, classID int64, name, args, ret string, flags graph.AccessFlags) (int64, error) {
	res, err := b.tx.Exec(`INSERT INTO methods (class_id, source_id, name, args, ret, access_flags) VALUES (?, ?, ?, ?, ?, ?)`,
		classID, sourceID, name, args, ret, uint32(flags))
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeStorageError, "insert method")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeStorageError, "method row id")
	}
	return id, nil
}

func (b *Batch) AddCall(caller, callee int64) error {
	if _, err := b.tx.Exec(`INSERT OR IGNORE INTO calls (caller, callee) VALUES (?, ?)`, caller, callee); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "insert call edge")
	}
	return nil
}

func (b *Batch) AddSuper(parent, child int64) error {
	if _, err := b.tx.Exec(`INSERT OR IGNORE INTO supers (parent, child) VALUES (?, ?)`, parent, child); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "insert super edge")
	}
	return nil
}

func (b *Batch) AddInterface(iface, class int64) error {
	if _, err := b.tx.Exec(`INSERT OR IGNORE INTO interfaces (iface, class) VALUES (?, ?)`, iface, class); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "insert interface edge")
	}
	return nil
}

// MethodIDsByName resolves every method of one source with the given name.
// Ingest uses it to connect call sites to their possible targets.
func (b *Batch) MethodIDsByName(sourceID int64, name string) ([]int64, error) {
	rows, err := b.tx.Query(`SELECT id FROM methods WHERE source_id = ? AND name = ?`, sourceID, name)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "select methods by name")
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, errors.CodeStorageError, "scan method id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RunStats summarizes one ingest run for the ingest_runs log.
type RunStats struct {
	ID        string
	Source    string
	StartedAt time.Time
	Files     int
	Classes   int
	Methods   int
	Calls     int
}

func (b *Batch) RecordRun(stats RunStats) error {
	_, err := b.tx.Exec(`INSERT INTO ingest_runs (id, source, started_at_utc, finished_at_utc, file_count, class_count, method_count, call_count)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		stats.ID,
		stats.Source,
		stats.StartedAt.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		stats.Files,
		stats.Classes,
		stats.Methods,
		stats.Calls,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "record ingest run")
	}
	return nil
}

func (b *Batch) Commit() error {
	if err := b.tx.Commit(); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "commit ingest tx")
	}
	return nil
}

func (b *Batch) Rollback() error {
	return b.tx.Rollback()
}
