// Package memory provides an in-memory store driver. It backs unit tests
// and local development; documents are normalized through JSON so structs
// and maps behave identically to a document database.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/fintrakhq/banksync/internal/sync/store"
	"github.com/fintrakhq/banksync/pkg/idx"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

func New() *Store {
	return &Store{collections: make(map[string]*collection)}
}

func (s *Store) Collection(name string) store.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		c = &collection{}
		s.collections[name] = c
	}
	return c
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close(ctx context.Context) error { return nil }

type collection struct {
	mu   sync.RWMutex
	docs []store.Record
}

func (c *collection) FindOne(ctx context.Context, filter store.Filter) (store.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, doc := range c.docs {
		if matches(doc, filter) {
			return cloneRecord(doc), nil
		}
	}
	return nil, store.ErrNotFound
}

func (c *collection) InsertOne(ctx context.Context, doc any) (any, error) {
	rec, err := normalize(doc)
	if err != nil {
		return nil, err
	}
	if rec["_id"] == nil || rec["_id"] == "" {
		rec["_id"] = idx.New().String()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = append(c.docs, rec)
	return rec["_id"], nil
}

func (c *collection) DeleteOne(ctx context.Context, filter store.Filter) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, doc := range c.docs {
		if matches(doc, filter) {
			c.docs = append(c.docs[:i], c.docs[i+1:]...)
			return nil
		}
	}
	return nil
}

// normalize flattens any document shape into a Record via a JSON
// round-trip, mirroring how a document database would store it.
func normalize(doc any) (store.Record, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("memory: failed to encode document: %w", err)
	}
	var rec store.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("memory: document is not an object: %w", err)
	}
	// Struct documents expose their ID under "id"; store it as "_id" like
	// a document database would.
	if id, ok := rec["id"]; ok {
		delete(rec, "id")
		if rec["_id"] == nil {
			rec["_id"] = id
		}
	}
	return rec, nil
}

func matches(doc store.Record, filter store.Filter) bool {
	for k, want := range filter {
		if !valuesEqual(doc[k], want) {
			return false
		}
	}
	return true
}

// valuesEqual compares a stored value against a filter value, tolerating
// the type drift JSON normalization introduces (int vs float64, idx.ID vs
// string).
func valuesEqual(got, want any) bool {
	if reflect.DeepEqual(got, want) {
		return true
	}
	return fmt.Sprintf("%v", got) == fmt.Sprintf("%v", want)
}

func cloneRecord(rec store.Record) store.Record {
	out := make(store.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
