package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/rankup/pkg/rankup/corpus"
	"github.com/cognicore/rankup/pkg/rankup/internalerr"
)

// Store is an in-memory corpus, used by tests and one-shot CLI runs.
type Store struct {
	mu   sync.RWMutex
	docs map[string]corpus.Doc
	now  func() time.Time
}

// New creates an empty store, optionally seeded with docs.
func New(docs ...corpus.Doc) *Store {
	s := &Store{docs: make(map[string]corpus.Doc, len(docs)), now: time.Now}
	for _, d := range docs {
		_ = s.UpsertDoc(context.Background(), d)
	}
	return s
}

// Close implements corpus.Store.
func (s *Store) Close() error { return nil }

// UpsertDoc inserts or replaces a document, keyed by ID.
func (s *Store) UpsertDoc(ctx context.Context, d corpus.Doc) error {
	if d.ID == "" {
		return fmt.Errorf("%w: document id is empty", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.AddedAt.IsZero() {
		d.AddedAt = s.now().UTC()
	}
	s.docs[d.ID] = d
	return nil
}

// GetDoc returns a document by ID.
func (s *Store) GetDoc(ctx context.Context, id string) (corpus.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.docs[id]
	if !ok {
		return corpus.Doc{}, fmt.Errorf("doc %s: %w", id, internalerr.ErrNotFound)
	}
	return d, nil
}

// DeleteDoc removes a document. Deleting an unknown ID is not an error.
func (s *Store) DeleteDoc(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

// Docs returns every document ordered by ID.
func (s *Store) Docs(ctx context.Context) ([]corpus.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]corpus.Doc, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Count returns the number of documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}
