package casefile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/casepilot/casepilot/pkg/admission"
)

// DefaultProcessingDelay is how long a case sits in ANALYZING before the
// draft generator is invoked.
const DefaultProcessingDelay = 90 * time.Second

// Admitter is the slice of the admission controller the lifecycle consumes.
// *admission.Controller satisfies it.
type Admitter interface {
	AdmitJob(ctx context.Context, tenantID uuid.UUID) (admission.Decision, error)
}

// Service drives case lifecycle transitions.
type Service struct {
	store           Store
	admitter        Admitter
	generator       DraftGenerator
	processingDelay time.Duration
	now             func() time.Time
	log             *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithProcessingDelay overrides the fixed analysis delay.
func WithProcessingDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.processingDelay = d
		}
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service's logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates the lifecycle service. Panics if store, admitter or
// generator is nil to fail fast on wiring mistakes.
func NewService(store Store, admitter Admitter, generator DraftGenerator, opts ...Option) *Service {
	if store == nil {
		panic("casefile: Store is required")
	}
	if admitter == nil {
		panic("casefile: Admitter is required")
	}
	if generator == nil {
		panic("casefile: DraftGenerator is required")
	}

	s := &Service{
		store:           store,
		admitter:        admitter,
		generator:       generator,
		processingDelay: DefaultProcessingDelay,
		now:             time.Now,
		log:             slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new case in UPLOAD_RECEIVED and immediately attempts
// one admission. If the gate denies, the case stays queued and is retried on
// the next observation.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID) (*Case, error) {
	now := s.now().UTC()
	c := &Case{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Status:    StatusUploadReceived,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, errors.Join(ErrFailedToStoreCase, err)
	}
	return s.Advance(ctx, c)
}

// Advance applies every lifecycle transition currently due for the case and
// returns the updated record. Safe to call on every poll: transitions are
// idempotent and status never regresses. Progress is driven entirely by such
// observations.
func (s *Service) Advance(ctx context.Context, c *Case) (*Case, error) {
	c = c.Clone()

	if c.Status == StatusUploadReceived {
		d, err := s.admitter.AdmitJob(ctx, c.TenantID)
		if err != nil {
			return c, err
		}
		if !d.Allowed {
			s.log.DebugContext(ctx, "case held at upload",
				slog.String("case_id", c.ID.String()),
				slog.String("reason", string(d.Reason)))
			return c, nil
		}

		now := s.now().UTC()
		c.Status = StatusAnalyzing
		c.AIStartedAt = &now
		c.UpdatedAt = now
		if err := s.store.Save(ctx, c); err != nil {
			return nil, errors.Join(ErrFailedToStoreCase, err)
		}
		s.log.InfoContext(ctx, "case admitted into analysis",
			slog.String("case_id", c.ID.String()),
			slog.String("tenant_id", c.TenantID.String()))
	}

	if c.Status == StatusAnalyzing && c.AIStartedAt != nil {
		now := s.now().UTC()
		if now.Sub(*c.AIStartedAt) >= s.processingDelay {
			draft, err := s.generator.Generate(ctx, c)
			if err != nil {
				return c, errors.Join(ErrDraftGeneration, err)
			}

			// Floor to whole seconds but never report zero, even for
			// sub-second completions.
			elapsed := int64(now.Sub(*c.AIStartedAt) / time.Second)
			if elapsed < 1 {
				elapsed = 1
			}
			draft.ElapsedSeconds = elapsed

			c.Draft = draft
			c.Status = StatusDraftReady
			c.UpdatedAt = now
			if err := s.store.Save(ctx, c); err != nil {
				return nil, errors.Join(ErrFailedToStoreCase, err)
			}
			s.log.InfoContext(ctx, "case draft ready",
				slog.String("case_id", c.ID.String()),
				slog.Int64("elapsed_seconds", elapsed))
		}
	}

	return c, nil
}

// Observe loads a case and advances it. This is the polling entry point.
func (s *Service) Observe(ctx context.Context, id uuid.UUID) (*Case, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Advance(ctx, c)
}

// MarkPaid flags the case as billed as an overage and persists it.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) (*Case, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Paid {
		return c, nil
	}

	c = c.Clone()
	c.Paid = true
	c.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, c); err != nil {
		return nil, errors.Join(ErrFailedToStoreCase, err)
	}
	return c, nil
}

// Get loads a case without advancing it.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Case, error) {
	return s.store.Get(ctx, id)
}

// List returns a tenant's cases, oldest first, without advancing them.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID) ([]*Case, error) {
	return s.store.ListByTenant(ctx, tenantID)
}

// ActiveCount reports how many of the tenant's cases are in analysis right
// now. Wire this as the admission controller's ActiveCaseCounter.
func (s *Service) ActiveCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.store.CountByTenantStatus(ctx, tenantID, StatusAnalyzing)
}

// DeleteTenantCases removes every case owned by the tenant. Used by the
// retention purge.
func (s *Service) DeleteTenantCases(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.store.DeleteByTenant(ctx, tenantID)
}
