package usage

import (
	"sync"

	"github.com/google/uuid"
)

// tenantMutex provides one mutex per tenant so ledger mutations are
// serialized per record while distinct tenants proceed in parallel.
// Mutexes are never evicted; the set of tenants is bounded.
type tenantMutex struct {
	locks sync.Map // uuid.UUID -> *sync.Mutex
}

// lock acquires the tenant's mutex and returns its unlock func.
func (m *tenantMutex) lock(tenantID uuid.UUID) func() {
	v, _ := m.locks.LoadOrStore(tenantID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
