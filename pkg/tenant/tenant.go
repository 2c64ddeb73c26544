package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountStatus is the administrative state of a tenant account.
type AccountStatus string

const (
	StatusActive     AccountStatus = "active"
	StatusSuspended  AccountStatus = "suspended"
	StatusTerminated AccountStatus = "terminated"
)

// Tenant carries the minimal identity the core needs for gating decisions.
type Tenant struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	AccountStatus AccountStatus `json:"account_status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Operable reports whether tenant-scoped operations may run at all.
// Suspended and terminated accounts fail closed regardless of billing mode.
func (t *Tenant) Operable() bool {
	return t.AccountStatus == StatusActive
}

// Provider loads tenant records from a data source.
type Provider interface {
	// Get retrieves a tenant by ID. Returns ErrTenantNotFound if absent.
	Get(ctx context.Context, id uuid.UUID) (*Tenant, error)
}
