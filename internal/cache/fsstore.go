package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"dexgraph/internal/errors"
)

// Subdir is the fixed namespace appended to the project cache root.
const Subdir = "graph-db"

const entryExt = ".json"

// FSStore persists one file per cache entry under
// <project-cache-root>/graph-db/<key>.json. The directory is created with
// owner-only permissions on first construction; construction is idempotent
// and never disturbs existing entries.
type FSStore struct {
	dir string
}

func NewFSStore(cacheRoot string) (*FSStore, error) {
	if cacheRoot == "" {
		return nil, errors.New(errors.CodeValidationError, "cache root must not be empty")
	}
	dir := filepath.Join(cacheRoot, Subdir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, fmt.Sprintf("create cache directory %q", dir))
	}
	return &FSStore{dir: dir}, nil
}

// Dir returns the resolved cache directory.
func (s *FSStore) Dir() string { return s.dir }

func (s *FSStore) Get(key string) ([]byte, bool, error) {
	blob, err := os.ReadFile(s.entryPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.AddContext(
			errors.Wrap(err, errors.CodeStorageError, "read cache entry"),
			errors.CtxKey, key)
	}
	return blob, true, nil
}

// Put writes to a temp file in the cache directory and renames it into
// place, so a concurrent reader never observes a truncated entry.
func (s *FSStore) Put(key string, blob []byte) error {
	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return errors.AddContext(
			errors.Wrap(err, errors.CodeStorageError, "create temp cache file"),
			errors.CtxKey, key)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.AddContext(
			errors.Wrap(err, errors.CodeStorageError, "write cache entry"),
			errors.CtxKey, key)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.AddContext(
			errors.Wrap(err, errors.CodeStorageError, "close temp cache file"),
			errors.CtxKey, key)
	}
	if err := os.Rename(tmpName, s.entryPath(key)); err != nil {
		_ = os.Remove(tmpName)
		return errors.AddContext(
			errors.Wrap(err, errors.CodeStorageError, "publish cache entry"),
			errors.CtxKey, key)
	}
	return nil
}

func (s *FSStore) entryPath(key string) string {
	return filepath.Join(s.dir, key+entryExt)
}
