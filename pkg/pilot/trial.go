package pilot

import (
	"time"

	"github.com/google/uuid"
)

// TrialStatus is the pilot record's lifecycle state.
type TrialStatus string

const (
	TrialActive   TrialStatus = "active"
	TrialComplete TrialStatus = "complete"
)

// Trial is a tenant's pilot period. At most one exists per tenant; it is
// created lazily on first access.
type Trial struct {
	TenantID  uuid.UUID   `json:"tenant_id" bson:"tenant_id"`
	Status    TrialStatus `json:"status" bson:"status"`
	StartedAt time.Time   `json:"started_at" bson:"started_at"`

	// EndsAt is always StartedAt plus the granted trial days (or later,
	// after an extension).
	EndsAt time.Time `json:"ends_at" bson:"ends_at"`

	// RetentionDeleteAt is set only once the trial completes, as EndsAt plus
	// the retention window. Data may be purged after this instant.
	RetentionDeleteAt *time.Time `json:"retention_delete_at,omitempty" bson:"retention_delete_at,omitempty"`

	// PurgedAt records that the destructive retention purge already ran, so
	// repeat reap calls can short-circuit. The gating conditions are still
	// re-checked before every purge.
	PurgedAt *time.Time `json:"purged_at,omitempty" bson:"purged_at,omitempty"`

	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// ExpiredAt reports whether the trial window has ended as of now.
func (t *Trial) ExpiredAt(now time.Time) bool {
	return !now.Before(t.EndsAt)
}

// Clone returns a deep copy.
func (t *Trial) Clone() *Trial {
	if t == nil {
		return nil
	}
	cp := *t
	if t.RetentionDeleteAt != nil {
		ts := *t.RetentionDeleteAt
		cp.RetentionDeleteAt = &ts
	}
	if t.PurgedAt != nil {
		ts := *t.PurgedAt
		cp.PurgedAt = &ts
	}
	return &cp
}
