package pilot

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore implements Store with in-process state. Safe for concurrent
// use; intended for tests and single-node deployments.
type MemoryStore struct {
	mu            sync.RWMutex
	trials        map[uuid.UUID]*Trial
	subscriptions map[uuid.UUID]*Subscription
}

// NewMemoryStore creates an empty in-memory pilot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trials:        make(map[uuid.UUID]*Trial),
		subscriptions: make(map[uuid.UUID]*Subscription),
	}
}

func (s *MemoryStore) GetTrial(ctx context.Context, tenantID uuid.UUID) (*Trial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.trials[tenantID]
	if !ok {
		return nil, ErrTrialNotFound
	}
	return t.Clone(), nil
}

func (s *MemoryStore) SaveTrial(ctx context.Context, t *Trial) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trials[t.TenantID] = t.Clone()
	return nil
}

func (s *MemoryStore) GetSubscription(ctx context.Context, tenantID uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subscriptions[tenantID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return sub.Clone(), nil
}

func (s *MemoryStore) SaveSubscription(ctx context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscriptions[sub.TenantID] = sub.Clone()
	return nil
}
