package tenant

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryProvider implements Provider with in-process state. Intended for
// tests and single-node deployments; production deployments back Provider
// with their account store.
type MemoryProvider struct {
	mu      sync.RWMutex
	tenants map[uuid.UUID]*Tenant
}

// NewMemoryProvider creates an empty in-memory tenant provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{tenants: make(map[uuid.UUID]*Tenant)}
}

func (p *MemoryProvider) Get(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	t, ok := p.tenants[id]
	if !ok {
		return nil, ErrTenantNotFound
	}
	cp := *t
	return &cp, nil
}

// Put creates or replaces a tenant record.
func (p *MemoryProvider) Put(t *Tenant) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cp := *t
	p.tenants[t.ID] = &cp
}
