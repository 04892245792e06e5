package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	fileStore, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating file store: %v", err)
	}

	sqliteStore, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening sqlite store: %v", err)
	}
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Store{"file": fileStore, "sqlite": sqliteStore}
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			record := json.RawMessage(`{"id": "p1", "name": "Alex"}`)
			if err := s.Put(ctx, CollectionPersonas, "p1", record); err != nil {
				t.Fatalf("put: %v", err)
			}

			got, err := s.Get(ctx, CollectionPersonas, "p1")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			var decoded map[string]any
			if err := json.Unmarshal(got, &decoded); err != nil {
				t.Fatalf("decoding: %v", err)
			}
			if decoded["name"] != "Alex" {
				t.Errorf("expected name=Alex, got %v", decoded["name"])
			}
		})
	}
}

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, CollectionPersonas, "nope")
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestPutReplaces(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Put(ctx, CollectionResearch, "k", json.RawMessage(`{"v": 1}`)); err != nil {
				t.Fatalf("first put: %v", err)
			}
			if err := s.Put(ctx, CollectionResearch, "k", json.RawMessage(`{"v": 2}`)); err != nil {
				t.Fatalf("second put: %v", err)
			}

			got, err := s.Get(ctx, CollectionResearch, "k")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			var decoded map[string]any
			if err := json.Unmarshal(got, &decoded); err != nil {
				t.Fatalf("decoding: %v", err)
			}
			if decoded["v"] != float64(2) {
				t.Errorf("expected v=2, got %v", decoded["v"])
			}
		})
	}
}

func TestListPrefixOrdered(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"2026-02-01_a", "2026-01-15_b", "2026-01-20_c", "other"} {
				record, _ := json.Marshal(map[string]string{"id": id})
				if err := s.Put(ctx, CollectionArtifacts, id, record); err != nil {
					t.Fatalf("put %s: %v", id, err)
				}
			}

			records, err := s.List(ctx, CollectionArtifacts, "2026-01")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(records) != 2 {
				t.Fatalf("expected 2 records, got %d", len(records))
			}

			var first, second map[string]string
			json.Unmarshal(records[0], &first)
			json.Unmarshal(records[1], &second)
			if first["id"] != "2026-01-15_b" || second["id"] != "2026-01-20_c" {
				t.Errorf("unexpected order: %s, %s", first["id"], second["id"])
			}
		})
	}
}

func TestListEmptyCollection(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			records, err := s.List(ctx, "empty-collection", "")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(records) != 0 {
				t.Errorf("expected no records, got %d", len(records))
			}
		})
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Put(ctx, CollectionPersonas, "gone", json.RawMessage(`{}`)); err != nil {
				t.Fatalf("put: %v", err)
			}

			deleted, err := s.Delete(ctx, CollectionPersonas, "gone")
			if err != nil {
				t.Fatalf("delete: %v", err)
			}
			if !deleted {
				t.Error("expected deleted=true")
			}

			deleted, err = s.Delete(ctx, CollectionPersonas, "gone")
			if err != nil {
				t.Fatalf("second delete: %v", err)
			}
			if deleted {
				t.Error("expected deleted=false for missing record")
			}

			if _, err := s.Get(ctx, CollectionPersonas, "gone"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	type doc struct {
		ID    string `json:"id"`
		Count int    `json:"count"`
	}

	if err := PutJSON(ctx, s, CollectionResearch, "d1", doc{ID: "d1", Count: 7}); err != nil {
		t.Fatalf("PutJSON: %v", err)
	}

	var got doc
	if err := GetJSON(ctx, s, CollectionResearch, "d1", &got); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if got.Count != 7 {
		t.Errorf("expected count=7, got %d", got.Count)
	}
}

func TestPersistenceErrorUnwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := &PersistenceError{Op: "put", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to reach inner error")
	}
}
