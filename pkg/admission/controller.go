package admission

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/casepilot/casepilot/pkg/plan"
	"github.com/casepilot/casepilot/pkg/usage"
)

// JobLedger is the slice of the usage ledger the controller consumes.
// *usage.Ledger satisfies it.
type JobLedger interface {
	PruneJobs(ctx context.Context, tenantID uuid.UUID) (int, error)
	RecordJob(ctx context.Context, tenantID uuid.UUID) error
	GetUsage(ctx context.Context, tenantID uuid.UUID) (*usage.Record, error)
}

// ActiveCaseCounter returns the number of cases currently in analysis for a
// tenant. Counted live from case state, not from the ledger, so a leftover
// stuck case cannot poison the window accounting.
type ActiveCaseCounter func(ctx context.Context, tenantID uuid.UUID) (int64, error)

// Controller implements the two-stage admission gate.
type Controller struct {
	ledger      JobLedger
	profiles    usage.ProfileResolver
	activeCases ActiveCaseCounter
	log         *slog.Logger
	tenants     sync.Map // uuid.UUID -> *sync.Mutex
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// NewController creates a Controller. Panics if any dependency is nil to
// fail fast on wiring mistakes.
func NewController(ledger JobLedger, profiles usage.ProfileResolver, activeCases ActiveCaseCounter, opts ...Option) *Controller {
	if ledger == nil {
		panic("admission: JobLedger is required")
	}
	if profiles == nil {
		panic("admission: ProfileResolver is required")
	}
	if activeCases == nil {
		panic("admission: ActiveCaseCounter is required")
	}

	c := &Controller{
		ledger:      ledger,
		profiles:    profiles,
		activeCases: activeCases,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) lock(tenantID uuid.UUID) func() {
	v, _ := c.tenants.LoadOrStore(tenantID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// CanAdmitJob reports whether a new analysis job may start for the tenant
// right now, without claiming a slot. The window prune it triggers is
// persisted regardless of the outcome.
func (c *Controller) CanAdmitJob(ctx context.Context, tenantID uuid.UUID) (Decision, error) {
	unlock := c.lock(tenantID)
	defer unlock()

	return c.check(ctx, tenantID)
}

// AdmitJob atomically checks admission and, when allowed, records the job in
// the ledger. Callers starting an analysis must use this instead of
// CanAdmitJob + RecordJob so the last slot cannot be claimed twice.
func (c *Controller) AdmitJob(ctx context.Context, tenantID uuid.UUID) (Decision, error) {
	unlock := c.lock(tenantID)
	defer unlock()

	d, err := c.check(ctx, tenantID)
	if err != nil || !d.Allowed {
		return d, err
	}
	if err := c.ledger.RecordJob(ctx, tenantID); err != nil {
		return Decision{}, err
	}
	return d, nil
}

func (c *Controller) check(ctx context.Context, tenantID uuid.UUID) (Decision, error) {
	prof := c.profiles(ctx, tenantID)

	active, err := c.activeCases(ctx, tenantID)
	if err != nil {
		return Decision{}, errors.Join(ErrFailedToCountActiveCases, err)
	}
	if active >= int64(prof.MaxConcurrentProcessing) {
		c.log.DebugContext(ctx, "admission denied on concurrency",
			slog.String("tenant_id", tenantID.String()),
			slog.Int64("active", active),
			slog.Int("limit", prof.MaxConcurrentProcessing))
		return deny(ReasonConcurrencyLimit), nil
	}

	// PruneJobs persists the trimmed log even when we deny below.
	inWindow, err := c.ledger.PruneJobs(ctx, tenantID)
	if err != nil {
		return Decision{}, err
	}
	if inWindow >= prof.MaxJobsPerHour {
		c.log.DebugContext(ctx, "admission denied on hourly rate",
			slog.String("tenant_id", tenantID.String()),
			slog.Int("in_window", inWindow),
			slog.Int("limit", prof.MaxJobsPerHour))
		return deny(ReasonRateLimit), nil
	}

	return allow(), nil
}

// PilotCanCreateCase enforces the pilot-mode lifetime case cap. Subscription
// tenants always pass: exceeding their allotment is an overage billing event,
// not a hard block.
func (c *Controller) PilotCanCreateCase(ctx context.Context, tenantID uuid.UUID) (Decision, error) {
	prof := c.profiles(ctx, tenantID)
	if prof.Mode != plan.ModeTrial {
		return allow(), nil
	}

	rec, err := c.ledger.GetUsage(ctx, tenantID)
	if err != nil {
		return Decision{}, err
	}
	if rec.TrialCasesUsed >= prof.MaxCasesTotal {
		return deny(ReasonPilotCaseLimit), nil
	}
	return allow(), nil
}
