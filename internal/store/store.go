// Package store provides the keyed persistence port used by the pipeline.
// Records are opaque JSON documents grouped into named collections.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection names used by the pipeline.
const (
	CollectionPersonas  = "personas"
	CollectionResearch  = "research-cache"
	CollectionArtifacts = "run-artifacts"
)

// ErrNotFound is returned by Get when no record exists for the given id.
var ErrNotFound = errors.New("record not found")

// Store is the persistence port. Implementations must be safe for concurrent
// use.
type Store interface {
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)
	Put(ctx context.Context, collection, id string, record json.RawMessage) error
	List(ctx context.Context, collection, prefix string) ([]json.RawMessage, error)
	Delete(ctx context.Context, collection, id string) (bool, error)
}

// PersistenceError marks a storage failure. It is the only error kind the
// pipeline propagates to its caller.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// GetJSON reads a record and unmarshals it into v.
func GetJSON(ctx context.Context, s Store, collection, id string, v any) error {
	raw, err := s.Get(ctx, collection, id)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %s/%s: %w", collection, id, err)
	}
	return nil
}

// PutJSON marshals v and writes it as a record.
func PutJSON(ctx context.Context, s Store, collection, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s/%s: %w", collection, id, err)
	}
	return s.Put(ctx, collection, id, data)
}
