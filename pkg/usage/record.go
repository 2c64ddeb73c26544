package usage

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// jobWindow is the trailing duration the job-timestamp log is pruned to.
// The admission controller's rate check counts entries inside this window.
const jobWindow = time.Hour

// Record is the durable usage state for a single tenant.
type Record struct {
	TenantID uuid.UUID `json:"tenant_id"`

	// Pilot-scoped counters. Monotonic for the lifetime of the trial; they
	// are never reset by period rollover.
	TrialCasesUsed       int64 `json:"trial_cases_used"`
	TrialPaymentRowsUsed int64 `json:"trial_payment_rows_used"`

	// PeriodKey identifies the calendar month the period counters belong to,
	// formatted "2006-01" in UTC.
	PeriodKey string `json:"period_key"`

	PeriodCaseCreditsUsed    int64 `json:"period_case_credits_used"`
	PeriodCaseOverageCount   int64 `json:"period_case_overage_count"`
	PeriodPaymentRowsUsed    int64 `json:"period_payment_rows_used"`
	PeriodPaymentCreditsUsed int64 `json:"period_payment_credits_used"`

	// JobTimestamps is the sliding-window log of admitted analysis jobs,
	// ordered oldest first and pruned to the trailing hour on every access.
	JobTimestamps []time.Time `json:"job_timestamps"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	cp.JobTimestamps = slices.Clone(r.JobTimestamps)
	return &cp
}

// JobsWithin counts log entries inside the trailing window ending at now.
func (r *Record) JobsWithin(now time.Time) int {
	cutoff := now.Add(-jobWindow)
	n := 0
	for _, ts := range r.JobTimestamps {
		if ts.After(cutoff) {
			n++
		}
	}
	return n
}

// pruneJobs drops log entries older than the trailing window. Reports whether
// anything was removed.
func (r *Record) pruneJobs(now time.Time) bool {
	cutoff := now.Add(-jobWindow)
	kept := r.JobTimestamps[:0]
	for _, ts := range r.JobTimestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	changed := len(kept) != len(r.JobTimestamps)
	r.JobTimestamps = kept
	return changed
}

// rollover resets the period-scoped counters when the month key has moved on.
// Pilot counters are deliberately left alone. Reports whether a reset
// happened.
func (r *Record) rollover(key string) bool {
	if r.PeriodKey == key {
		return false
	}
	r.PeriodKey = key
	r.PeriodCaseCreditsUsed = 0
	r.PeriodCaseOverageCount = 0
	r.PeriodPaymentRowsUsed = 0
	r.PeriodPaymentCreditsUsed = 0
	return true
}

// PeriodKeyAt returns the calendar-month period key for the given instant.
func PeriodKeyAt(t time.Time) string {
	return t.UTC().Format("2006-01")
}
