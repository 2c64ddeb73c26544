package usage

import (
	"context"

	"github.com/google/uuid"
)

// Store defines the persistence interface for usage records. One record per
// tenant; TenantID is the primary key.
//
// Implementations only need to be internally consistent: serialization of
// concurrent mutations for the same tenant is provided by the Ledger, which
// holds a per-tenant mutex across every read-modify-write cycle.
type Store interface {
	// Get retrieves the record for a tenant.
	// Returns ErrUsageNotFound if none exists yet.
	Get(ctx context.Context, tenantID uuid.UUID) (*Record, error)

	// Save creates or replaces the record for record.TenantID.
	Save(ctx context.Context, record *Record) error

	// Delete removes the record. Deleting a missing record is a no-op so the
	// retention purge stays idempotent.
	Delete(ctx context.Context, tenantID uuid.UUID) error
}
