// Package store provides the per-kind record store: one directory per
// record kind (libraries, documents, chunks), one JSON file per id.
// Writes are atomic (write-temp-then-rename); there are no cross-file
// transactions.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/aaronbannin/vectordb/internal/vdberrors"
)

// jsonExt is the suffix every record file carries. Files without it
// (including half-written temp files) are ignored by List.
const jsonExt = ".json"

// Store is a directory of JSON files, one per id, for a single record
// kind. It is safe for concurrent use by multiple goroutines; the
// directory-scoped flock additionally guards against two OS processes
// pointing at the same data directory (see Put/Delete).
type Store struct {
	dir  string
	kind string // used only in error messages
	lock *flock.Flock
}

// Open returns a Store rooted at dir, creating dir if it does not exist.
// kind is a human-readable label (e.g. "chunk") used in NotFound errors.
func Open(dir, kind string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, vdberrors.StorageIO("create store directory", err)
	}
	lockPath := filepath.Join(dir, ".store.lock")
	return &Store{
		dir:  dir,
		kind: kind,
		lock: flock.New(lockPath),
	}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+jsonExt)
}

// Put serializes payload to JSON and atomically writes it to
// {id}.json, overwriting any existing file for that id.
func (s *Store) Put(id string, payload any) error {
	if err := s.lock.Lock(); err != nil {
		return vdberrors.StorageIO("acquire store lock", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	data, err := json.Marshal(payload)
	if err != nil {
		return vdberrors.StorageIO("marshal record", err)
	}

	final := s.path(id)
	tmp := final + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return vdberrors.StorageIO("create temp file", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return vdberrors.StorageIO("write temp file", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return vdberrors.StorageIO("close temp file", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return vdberrors.StorageIO("rename into place", err)
	}
	return nil
}

// Get reads and deserializes the record for id into out (a pointer).
// Returns a NotFound error if the id is absent.
func (s *Store) Get(id string, out any) error {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return vdberrors.NotFound(s.kind, id)
		}
		return vdberrors.StorageIO("read record", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return vdberrors.StorageIO("unmarshal record", err)
	}
	return nil
}

// Delete unlinks the file for id. Idempotent: deleting an absent id
// returns a NotFound error but leaves the store unchanged either way.
func (s *Store) Delete(id string) error {
	if err := s.lock.Lock(); err != nil {
		return vdberrors.StorageIO("acquire store lock", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return vdberrors.NotFound(s.kind, id)
		}
		return vdberrors.StorageIO("delete record", err)
	}
	return nil
}

// Exists reports whether id has a record file.
func (s *Store) Exists(id string) bool {
	_, err := os.Stat(s.path(id))
	return err == nil
}

// List enumerates ids by scanning filenames and stripping the .json
// suffix. Half-written *.json.tmp files are skipped because they don't
// carry the bare .json suffix.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, vdberrors.StorageIO("list store directory", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, jsonExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, jsonExt))
	}
	return ids, nil
}
