package pilot

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is the subscription record's state as mirrored from the
// billing provider.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
)

// Subscription is a tenant's recurring plan. Presence with an active status
// supersedes pilot gating entirely.
type Subscription struct {
	TenantID uuid.UUID          `json:"tenant_id" bson:"tenant_id"`
	PlanID   string             `json:"plan_id" bson:"plan_id"`
	Status   SubscriptionStatus `json:"status" bson:"status"`

	// Per-subscription credit overrides. Zero means "use the tier default".
	CaseCreditsPerPeriod       int64 `json:"case_credits_per_period,omitempty" bson:"case_credits_per_period,omitempty"`
	PaymentRowCreditsPerPeriod int64 `json:"payment_row_credits_per_period,omitempty" bson:"payment_row_credits_per_period,omitempty"`

	// ProviderSubID is the billing provider's subscription identifier.
	ProviderSubID string `json:"provider_sub_id,omitempty" bson:"provider_sub_id,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// IsActive reports whether this subscription currently grants access.
func (s *Subscription) IsActive() bool {
	return s != nil && s.Status == SubscriptionActive
}

// Clone returns a copy.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
