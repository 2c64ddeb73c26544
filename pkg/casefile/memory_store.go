package casefile

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore implements Store with in-process state. Safe for concurrent
// use; intended for tests and single-node deployments.
type MemoryStore struct {
	mu    sync.RWMutex
	cases map[uuid.UUID]*Case
}

// NewMemoryStore creates an empty in-memory case store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cases: make(map[uuid.UUID]*Case)}
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cases[id]
	if !ok {
		return nil, ErrCaseNotFound
	}
	return c.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, c *Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cases[c.ID] = c.Clone()
	return nil
}

func (s *MemoryStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Case
	for _, c := range s.cases {
		if c.TenantID == tenantID {
			out = append(out, c.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *Case) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) CountByTenantStatus(ctx context.Context, tenantID uuid.UUID, status Status) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, c := range s.cases {
		if c.TenantID == tenantID && c.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DeleteByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, c := range s.cases {
		if c.TenantID == tenantID {
			delete(s.cases, id)
			n++
		}
	}
	return n, nil
}
