package casefile

import (
	"context"

	"github.com/google/uuid"
)

// Store defines persistence for case records.
type Store interface {
	// Get retrieves a case by ID. Returns ErrCaseNotFound if absent.
	Get(ctx context.Context, id uuid.UUID) (*Case, error)

	// Save creates or replaces the case identified by c.ID.
	Save(ctx context.Context, c *Case) error

	// ListByTenant returns all of a tenant's cases ordered by creation time,
	// oldest first.
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*Case, error)

	// CountByTenantStatus counts a tenant's cases currently in the given
	// status. Backs the admission controller's live concurrency check.
	CountByTenantStatus(ctx context.Context, tenantID uuid.UUID, status Status) (int64, error)

	// DeleteByTenant removes every case owned by the tenant and returns how
	// many were deleted. Used by the retention purge; must be idempotent.
	DeleteByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}
