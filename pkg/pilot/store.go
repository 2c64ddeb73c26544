package pilot

import (
	"context"

	"github.com/google/uuid"
)

// Store defines persistence for trial and subscription records. Both are
// keyed by tenant ID; each tenant has at most one of each.
type Store interface {
	// GetTrial retrieves the tenant's trial record.
	// Returns ErrTrialNotFound if none exists.
	GetTrial(ctx context.Context, tenantID uuid.UUID) (*Trial, error)

	// SaveTrial creates or replaces the trial record.
	SaveTrial(ctx context.Context, t *Trial) error

	// GetSubscription retrieves the tenant's subscription record.
	// Returns ErrSubscriptionNotFound if none exists.
	GetSubscription(ctx context.Context, tenantID uuid.UUID) (*Subscription, error)

	// SaveSubscription creates or replaces the subscription record.
	SaveSubscription(ctx context.Context, s *Subscription) error
}
