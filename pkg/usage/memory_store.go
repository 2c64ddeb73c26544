package usage

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore implements Store with in-process state. Safe for concurrent
// use; intended for tests and single-node deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Record
}

// NewMemoryStore creates an empty in-memory usage store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]*Record)}
}

func (s *MemoryStore) Get(ctx context.Context, tenantID uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[tenantID]
	if !ok {
		return nil, ErrUsageNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.TenantID] = record.Clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, tenantID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, tenantID)
	return nil
}
