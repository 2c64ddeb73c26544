package usage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/casepilot/casepilot/pkg/plan"
)

// ProfileResolver reports the tenant's effective limit profile. It matches
// the signature of plan.Resolver.Resolve so the resolver can be passed in
// directly.
type ProfileResolver func(ctx context.Context, tenantID uuid.UUID) plan.Profile

// Ledger implements the tenant usage/credit accounting on top of a Store.
// Every mutation is a full read-modify-write of the tenant's record under a
// per-tenant mutex.
type Ledger struct {
	store    Store
	profiles ProfileResolver
	now      func() time.Time
	log      *slog.Logger
	tenants  tenantMutex
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock injects a time source. Defaults to time.Now; tests use fixed or
// stepping clocks to drive period rollover and window pruning.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the ledger's logger.
func WithLogger(log *slog.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLedger creates a Ledger. Panics if store or profiles is nil to fail
// fast on wiring mistakes.
func NewLedger(store Store, profiles ProfileResolver, opts ...Option) *Ledger {
	if store == nil {
		panic("usage: Store is required")
	}
	if profiles == nil {
		panic("usage: ProfileResolver is required")
	}

	l := &Ledger{
		store:    store,
		profiles: profiles,
		now:      time.Now,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// load returns the tenant's record, creating a zeroed one on first access,
// rolling period counters when the month key changed, and pruning the job
// log to the trailing hour. Reports whether the record needs persisting.
// Callers must hold the tenant's mutex.
func (l *Ledger) load(ctx context.Context, tenantID uuid.UUID, now time.Time) (*Record, bool, error) {
	rec, err := l.store.Get(ctx, tenantID)
	switch {
	case errors.Is(err, ErrUsageNotFound):
		return &Record{
			TenantID:  tenantID,
			PeriodKey: PeriodKeyAt(now),
		}, true, nil
	case err != nil:
		return nil, false, errors.Join(ErrFailedToLoadUsage, err)
	}

	rolled := rec.rollover(PeriodKeyAt(now))
	pruned := rec.pruneJobs(now)
	if rolled {
		l.log.InfoContext(ctx, "usage period rolled over",
			slog.String("tenant_id", tenantID.String()),
			slog.String("period_key", rec.PeriodKey))
	}
	return rec, rolled || pruned, nil
}

func (l *Ledger) save(ctx context.Context, rec *Record, now time.Time) error {
	rec.UpdatedAt = now
	if err := l.store.Save(ctx, rec); err != nil {
		return errors.Join(ErrFailedToStoreUsage, err)
	}
	return nil
}

// GetUsage returns the tenant's current record, creating it on first call.
// Period rollover and window pruning are applied (and persisted) before the
// record is returned.
func (l *Ledger) GetUsage(ctx context.Context, tenantID uuid.UUID) (*Record, error) {
	unlock := l.tenants.lock(tenantID)
	defer unlock()

	now := l.now().UTC()
	rec, dirty, err := l.load(ctx, tenantID, now)
	if err != nil {
		return nil, err
	}
	if dirty {
		if err := l.save(ctx, rec, now); err != nil {
			return nil, err
		}
	}
	return rec.Clone(), nil
}

// ConsumeCaseCredit charges one case against the tenant. Pilot tenants
// increment their lifetime counter unconditionally (admission is capped
// separately); subscription tenants increment the period counter and, when
// the post-increment value exceeds the monthly allotment, record exactly one
// overage event. Returns whether this consumption was an overage.
func (l *Ledger) ConsumeCaseCredit(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	unlock := l.tenants.lock(tenantID)
	defer unlock()

	now := l.now().UTC()
	rec, _, err := l.load(ctx, tenantID, now)
	if err != nil {
		return false, err
	}

	prof := l.profiles(ctx, tenantID)
	overage := false
	if prof.Mode == plan.ModeTrial {
		rec.TrialCasesUsed++
	} else {
		rec.PeriodCaseCreditsUsed++
		if rec.PeriodCaseCreditsUsed > prof.CaseCreditsPerPeriod {
			rec.PeriodCaseOverageCount++
			overage = true
			l.log.InfoContext(ctx, "case credit overage",
				slog.String("tenant_id", tenantID.String()),
				slog.Int64("overage_count", rec.PeriodCaseOverageCount))
		}
	}

	if err := l.save(ctx, rec, now); err != nil {
		return false, err
	}
	return overage, nil
}

// ConsumePaymentRows charges an uploaded payment ledger of rows rows.
// Subscription tenants additionally consume ceil(rows / rowsPerCredit)
// payment credits; partial blocks always round up so a tenant is never
// under-charged. A zero row count is a no-op.
func (l *Ledger) ConsumePaymentRows(ctx context.Context, tenantID uuid.UUID, rows int64) error {
	if rows < 0 {
		return ErrInvalidRowCount
	}
	if rows == 0 {
		return nil
	}

	unlock := l.tenants.lock(tenantID)
	defer unlock()

	now := l.now().UTC()
	rec, _, err := l.load(ctx, tenantID, now)
	if err != nil {
		return err
	}

	prof := l.profiles(ctx, tenantID)
	if prof.Mode == plan.ModeTrial {
		rec.TrialPaymentRowsUsed += rows
	} else {
		rec.PeriodPaymentRowsUsed += rows
		perCredit := prof.PaymentRowsPerCredit
		if perCredit <= 0 {
			perCredit = 1
		}
		rec.PeriodPaymentCreditsUsed += (rows + perCredit - 1) / perCredit
	}

	return l.save(ctx, rec, now)
}

// PaymentRowAllowance returns how many payment rows the tenant may still
// upload under its current profile. Never negative.
func (l *Ledger) PaymentRowAllowance(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	unlock := l.tenants.lock(tenantID)
	defer unlock()

	now := l.now().UTC()
	rec, dirty, err := l.load(ctx, tenantID, now)
	if err != nil {
		return 0, err
	}
	if dirty {
		if err := l.save(ctx, rec, now); err != nil {
			return 0, err
		}
	}

	prof := l.profiles(ctx, tenantID)
	var remaining int64
	if prof.Mode == plan.ModeTrial {
		remaining = prof.IncludedPaymentRows - rec.TrialPaymentRowsUsed
	} else {
		remaining = prof.PaymentRowCreditsPerPeriod*prof.PaymentRowsPerCredit - rec.PeriodPaymentRowsUsed
	}
	return max(remaining, 0), nil
}

// RecordJob prunes the job log to the trailing hour and appends the current
// instant. Called when a case is admitted into analysis.
func (l *Ledger) RecordJob(ctx context.Context, tenantID uuid.UUID) error {
	unlock := l.tenants.lock(tenantID)
	defer unlock()

	now := l.now().UTC()
	rec, _, err := l.load(ctx, tenantID, now)
	if err != nil {
		return err
	}

	rec.JobTimestamps = append(rec.JobTimestamps, now)
	return l.save(ctx, rec, now)
}

// PruneJobs prunes the job log and returns the number of jobs remaining in
// the trailing window. The prune is persisted even when the caller goes on
// to deny admission, so the window advances monotonically.
func (l *Ledger) PruneJobs(ctx context.Context, tenantID uuid.UUID) (int, error) {
	unlock := l.tenants.lock(tenantID)
	defer unlock()

	now := l.now().UTC()
	rec, dirty, err := l.load(ctx, tenantID, now)
	if err != nil {
		return 0, err
	}
	if dirty {
		if err := l.save(ctx, rec, now); err != nil {
			return 0, err
		}
	}
	return len(rec.JobTimestamps), nil
}

// ResetTrialCounters zeroes the tenant's lifetime trial counters. Called
// when a trial is granted anew after expiry so the restarted pilot begins
// with a clean allotment. Period counters and the job log are untouched.
func (l *Ledger) ResetTrialCounters(ctx context.Context, tenantID uuid.UUID) error {
	unlock := l.tenants.lock(tenantID)
	defer unlock()

	now := l.now().UTC()
	rec, _, err := l.load(ctx, tenantID, now)
	if err != nil {
		return err
	}

	rec.TrialCasesUsed = 0
	rec.TrialPaymentRowsUsed = 0
	return l.save(ctx, rec, now)
}

// DeleteUsage removes the tenant's record. Used by the retention purge;
// deleting an absent record is a no-op.
func (l *Ledger) DeleteUsage(ctx context.Context, tenantID uuid.UUID) error {
	unlock := l.tenants.lock(tenantID)
	defer unlock()

	return l.store.Delete(ctx, tenantID)
}
