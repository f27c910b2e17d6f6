package dataset

import (
	"context"
	"sync"
	"sync/atomic"
)

// Store owns the current snapshot. Readers take whole snapshots and never
// lock; Reload builds the replacement off to the side and swaps the pointer,
// so a reader mid-query keeps the tables it started with.
type Store struct {
	src Sources

	mu      sync.Mutex // serializes concurrent reloads
	current atomic.Pointer[Tables]
}

// Open performs the initial load. Any load error is fatal to startup; the
// Store is never created over a partial dataset.
func Open(ctx context.Context, src Sources) (*Store, error) {
	tables, err := Load(ctx, src)
	if err != nil {
		return nil, err
	}
	store := &Store{src: src}
	store.current.Store(tables)
	return store, nil
}

// Snapshot returns the current immutable table set.
func (s *Store) Snapshot() *Tables {
	return s.current.Load()
}

// Reload re-reads the sources and swaps in the new snapshot. On failure the
// previous snapshot stays current.
func (s *Store) Reload(ctx context.Context) (*Tables, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables, err := Load(ctx, s.src)
	if err != nil {
		return nil, err
	}
	s.current.Store(tables)
	return tables, nil
}
