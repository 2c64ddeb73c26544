package casefile

import (
	"time"

	"github.com/google/uuid"
)

// Status is a case's position in the processing lifecycle. Forward-only.
type Status string

const (
	StatusUploadReceived Status = "UPLOAD_RECEIVED"
	StatusAnalyzing      Status = "ANALYZING"
	StatusDraftReady     Status = "DRAFT_READY"
)

// rank orders statuses along the lifecycle so monotonicity can be asserted.
func (s Status) rank() int {
	switch s {
	case StatusUploadReceived:
		return 0
	case StatusAnalyzing:
		return 1
	case StatusDraftReady:
		return 2
	}
	return -1
}

// AtLeast reports whether s is at or past other in the lifecycle.
func (s Status) AtLeast(other Status) bool {
	return s.rank() >= other.rank()
}

// Draft is the analysis output attached when a case completes.
type Draft struct {
	DenialSummary  string `json:"denial_summary"`
	DraftText      string `json:"draft_text"`
	Category       string `json:"category"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
}

// Case is a submitted denial case owned by exactly one tenant. Lifecycle
// transitions through the Service are the sole mutator.
type Case struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	AIStartedAt *time.Time `json:"ai_started_at,omitempty"`
	Paid        bool       `json:"paid"`
	Draft       *Draft     `json:"draft,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Clone returns a deep copy so stored state cannot be mutated by callers.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	cp := *c
	if c.AIStartedAt != nil {
		ts := *c.AIStartedAt
		cp.AIStartedAt = &ts
	}
	if c.Draft != nil {
		d := *c.Draft
		cp.Draft = &d
	}
	return &cp
}
