package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore keeps one JSON file per record under
// <root>/<collection>/<id>.json.
type FileStore struct {
	root string
}

// NewFileStore creates a file-backed store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &PersistenceError{Op: "init", Err: err}
	}
	return &FileStore{root: dir}, nil
}

func (f *FileStore) path(collection, id string) string {
	return filepath.Join(f.root, sanitize(collection), sanitize(id)+".json")
}

// Get reads a record by id.
func (f *FileStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(collection, id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "get", Err: err}
	}
	return data, nil
}

// Put writes a record, replacing any previous version. The write goes through
// a temp file and rename so readers never observe a partial record.
func (f *FileStore) Put(ctx context.Context, collection, id string, record json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := f.path(collection, id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &PersistenceError{Op: "put", Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return &PersistenceError{Op: "put", Err: err}
	}
	if _, err := tmp.Write(record); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &PersistenceError{Op: "put", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &PersistenceError{Op: "put", Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return &PersistenceError{Op: "put", Err: err}
	}
	return nil
}

// List returns all records in a collection whose id starts with prefix,
// ordered by id.
func (f *FileStore) List(ctx context.Context, collection, prefix string) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := filepath.Join(f.root, sanitize(collection))
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		if strings.HasPrefix(id, sanitize(prefix)) || prefix == "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	records := make([]json.RawMessage, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, &PersistenceError{Op: "list", Err: err}
		}
		records = append(records, data)
	}
	return records, nil
}

// Delete removes a record. Returns true if a record was deleted.
func (f *FileStore) Delete(ctx context.Context, collection, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := os.Remove(f.path(collection, id))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &PersistenceError{Op: "delete", Err: err}
	}
	return true, nil
}

// sanitize makes a collection or record id safe to use as a file name.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
