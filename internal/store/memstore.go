package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/systemshift/memex-vc/internal/dag"
)

// MemStore keeps canonical entry bytes in memory.
type MemStore struct {
	mu      sync.RWMutex
	entries map[dag.Address][]byte
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[dag.Address][]byte)}
}

// Put implements Store.
func (s *MemStore) Put(ctx context.Context, e *dag.Entry) (dag.Address, error) {
	if err := ctx.Err(); err != nil {
		return dag.Undef, err
	}
	data, addr, err := encode(e)
	if err != nil {
		return dag.Undef, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[addr]; !ok {
		s.entries[addr] = data
	}
	return addr, nil
}

// Get implements Store.
func (s *MemStore) Get(ctx context.Context, addr dag.Address) (*dag.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkAddress(addr); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, ok := s.entries[addr]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, addr)
	}
	return decode(addr, data)
}

// Len returns the number of distinct entries held.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
