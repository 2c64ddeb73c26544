package pilot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/casepilot/casepilot/pkg/plan"
	"github.com/casepilot/casepilot/pkg/tenant"
)

const (
	// DefaultTrialDays is the pilot period granted on first access.
	DefaultTrialDays = 14

	// DefaultRetentionDays is how long a completed trial's data survives
	// before ReapExpiredTenant may purge it.
	DefaultRetentionDays = 30
)

// Purger removes one slice of a tenant's data during the retention purge.
// Purgers must be idempotent: a failed purge pass is retried in full.
type Purger func(ctx context.Context, tenantID uuid.UUID) error

type namedPurger struct {
	name string
	fn   Purger
}

// Service owns the trial and subscription lifecycles. All time-based
// transitions happen lazily inside the observing call; the service runs no
// background timers.
type Service struct {
	store     Store
	tenants   tenant.Provider
	provider  BillingProvider
	trialDays int
	retention time.Duration
	now       func() time.Time
	log       *slog.Logger
	purgers   []namedPurger
	onRestart func(ctx context.Context, tenantID uuid.UUID) error
	mu        sync.Map // tenantID -> *sync.Mutex
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock injects a time source. Defaults to time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithTrialDays overrides the pilot period length.
func WithTrialDays(days int) ServiceOption {
	return func(s *Service) {
		if days > 0 {
			s.trialDays = days
		}
	}
}

// WithRetentionDays overrides the post-trial retention window.
func WithRetentionDays(days int) ServiceOption {
	return func(s *Service) {
		if days > 0 {
			s.retention = time.Duration(days) * 24 * time.Hour
		}
	}
}

// WithBillingProvider wires the payment provider. Without one, webhook
// handling and checkout links return errors but trial gating still works.
func WithBillingProvider(p BillingProvider) ServiceOption {
	return func(s *Service) {
		s.provider = p
	}
}

// WithPurger registers a named purge hook run by ReapExpiredTenant once the
// retention window has passed. Hooks run in registration order.
func WithPurger(name string, fn Purger) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.purgers = append(s.purgers, namedPurger{name: name, fn: fn})
		}
	}
}

// WithTrialRestartHook registers a callback fired when an expired trial is
// granted anew, typically to reset the tenant's trial usage counters.
func WithTrialRestartHook(fn func(ctx context.Context, tenantID uuid.UUID) error) ServiceOption {
	return func(s *Service) {
		s.onRestart = fn
	}
}

// NewService creates the pilot lifecycle service. Panics if store or tenants
// is nil to fail fast on wiring mistakes.
func NewService(store Store, tenants tenant.Provider, opts ...ServiceOption) *Service {
	if store == nil {
		panic("pilot: Store is required")
	}
	if tenants == nil {
		panic("pilot: tenant.Provider is required")
	}

	s := &Service{
		store:     store,
		tenants:   tenants,
		trialDays: DefaultTrialDays,
		retention: DefaultRetentionDays * 24 * time.Hour,
		now:       time.Now,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) lock(tenantID uuid.UUID) func() {
	v, _ := s.mu.LoadOrStore(tenantID, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// IsAccessEnabled is the single gate every tenant-scoped operation passes
// through. Suspended and terminated accounts fail closed. An active
// subscription grants access outright; otherwise the tenant's trial is
// ensured (created lazily on first access), advanced to complete if its
// window has passed, and access follows the trial's state.
func (s *Service) IsAccessEnabled(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	t, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return false, err
	}
	if !t.Operable() {
		return false, nil
	}

	sub, err := s.store.GetSubscription(ctx, tenantID)
	if err != nil && !errors.Is(err, ErrSubscriptionNotFound) {
		return false, err
	}
	if sub.IsActive() {
		return true, nil
	}

	trial, err := s.EnsureTrial(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return trial.Status == TrialActive, nil
}

// EnsureTrial returns the tenant's trial record, creating one on first
// access and completing it (exactly once) if its window has already passed.
func (s *Service) EnsureTrial(ctx context.Context, tenantID uuid.UUID) (*Trial, error) {
	unlock := s.lock(tenantID)
	defer unlock()
	return s.ensureTrialLocked(ctx, tenantID)
}

func (s *Service) ensureTrialLocked(ctx context.Context, tenantID uuid.UUID) (*Trial, error) {
	now := s.now().UTC()

	trial, err := s.store.GetTrial(ctx, tenantID)
	switch {
	case errors.Is(err, ErrTrialNotFound):
		trial = &Trial{
			TenantID:  tenantID,
			Status:    TrialActive,
			StartedAt: now,
			EndsAt:    now.Add(time.Duration(s.trialDays) * 24 * time.Hour),
			UpdatedAt: now,
		}
		if err := s.store.SaveTrial(ctx, trial); err != nil {
			return nil, err
		}
		s.log.InfoContext(ctx, "trial started",
			slog.String("tenant_id", tenantID.String()),
			slog.Time("ends_at", trial.EndsAt))
		return trial.Clone(), nil
	case err != nil:
		return nil, err
	}

	if trial.Status == TrialActive && trial.ExpiredAt(now) {
		deleteAt := trial.EndsAt.Add(s.retention)
		trial.Status = TrialComplete
		trial.RetentionDeleteAt = &deleteAt
		trial.UpdatedAt = now
		if err := s.store.SaveTrial(ctx, trial); err != nil {
			return nil, err
		}
		s.log.InfoContext(ctx, "trial completed",
			slog.String("tenant_id", tenantID.String()),
			slog.Time("retention_delete_at", deleteAt))
	}
	return trial.Clone(), nil
}

// GrantOrExtendTrial starts a trial of days days, or extends an existing one
// by that much from now or its current end, whichever is later. Restarting a
// completed trial reactivates it, clears the retention markers, and fires
// the trial-restart hook so usage counters start fresh.
func (s *Service) GrantOrExtendTrial(ctx context.Context, tenantID uuid.UUID, days int) (*Trial, error) {
	if days <= 0 {
		return nil, ErrInvalidTrialDays
	}

	unlock := s.lock(tenantID)
	defer unlock()

	now := s.now().UTC()
	extension := time.Duration(days) * 24 * time.Hour

	trial, err := s.store.GetTrial(ctx, tenantID)
	switch {
	case errors.Is(err, ErrTrialNotFound):
		trial = &Trial{
			TenantID:  tenantID,
			Status:    TrialActive,
			StartedAt: now,
			EndsAt:    now.Add(extension),
			UpdatedAt: now,
		}
	case err != nil:
		return nil, err
	default:
		restarted := trial.Status == TrialComplete
		base := trial.EndsAt
		if base.Before(now) {
			base = now
		}
		trial.Status = TrialActive
		trial.EndsAt = base.Add(extension)
		trial.RetentionDeleteAt = nil
		trial.PurgedAt = nil
		trial.UpdatedAt = now

		if restarted && s.onRestart != nil {
			if err := s.onRestart(ctx, tenantID); err != nil {
				return nil, err
			}
		}
	}

	if err := s.store.SaveTrial(ctx, trial); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "trial granted",
		slog.String("tenant_id", tenantID.String()),
		slog.Int("days", days),
		slog.Time("ends_at", trial.EndsAt))
	return trial.Clone(), nil
}

// ReapExpiredTenant advances the tenant's trial lifecycle and, once the
// retention window has passed without a subscription, runs the registered
// purge hooks. The pass that completes a trial never purges; purging waits
// for a later pass after RetentionDeleteAt. A successful purge is recorded
// in PurgedAt so repeat calls become no-ops. A failed purge leaves PurgedAt
// unset and the whole pass is retried next call; hooks must tolerate that.
func (s *Service) ReapExpiredTenant(ctx context.Context, tenantID uuid.UUID) error {
	unlock := s.lock(tenantID)
	defer unlock()

	sub, err := s.store.GetSubscription(ctx, tenantID)
	if err != nil && !errors.Is(err, ErrSubscriptionNotFound) {
		return err
	}
	if sub.IsActive() {
		return nil
	}

	now := s.now().UTC()
	trial, err := s.store.GetTrial(ctx, tenantID)
	switch {
	case errors.Is(err, ErrTrialNotFound):
		return nil
	case err != nil:
		return err
	}

	if trial.Status == TrialActive {
		if !trial.ExpiredAt(now) {
			return nil
		}
		deleteAt := trial.EndsAt.Add(s.retention)
		trial.Status = TrialComplete
		trial.RetentionDeleteAt = &deleteAt
		trial.UpdatedAt = now
		return s.store.SaveTrial(ctx, trial)
	}

	if trial.PurgedAt != nil {
		return nil
	}
	if trial.RetentionDeleteAt == nil || now.Before(*trial.RetentionDeleteAt) {
		return nil
	}

	for _, p := range s.purgers {
		if err := p.fn(ctx, tenantID); err != nil {
			s.log.ErrorContext(ctx, "retention purge hook failed",
				slog.String("tenant_id", tenantID.String()),
				slog.String("purger", p.name),
				slog.Any("error", err))
			return errors.Join(ErrPurgeFailed, err)
		}
	}

	trial.PurgedAt = &now
	trial.UpdatedAt = now
	if err := s.store.SaveTrial(ctx, trial); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "tenant data purged",
		slog.String("tenant_id", tenantID.String()))
	return nil
}

// SubscriptionState adapts the service to plan.SubscriptionLookup: it
// reports the tenant's active subscription, or nil when the tenant operates
// in pilot mode.
func (s *Service) SubscriptionState(ctx context.Context, tenantID uuid.UUID) (*plan.SubscriptionState, error) {
	sub, err := s.store.GetSubscription(ctx, tenantID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !sub.IsActive() {
		return nil, nil
	}
	return &plan.SubscriptionState{
		PlanID:                     sub.PlanID,
		CaseCreditsPerPeriod:       sub.CaseCreditsPerPeriod,
		PaymentRowCreditsPerPeriod: sub.PaymentRowCreditsPerPeriod,
	}, nil
}

// GetSubscription retrieves the tenant's subscription record.
func (s *Service) GetSubscription(ctx context.Context, tenantID uuid.UUID) (*Subscription, error) {
	return s.store.GetSubscription(ctx, tenantID)
}

// ActivateSubscription creates or reactivates the tenant's subscription on
// the given plan. Activation ends pilot gating immediately and cancels any
// pending retention delete.
func (s *Service) ActivateSubscription(ctx context.Context, tenantID uuid.UUID, planID, providerSubID string) (*Subscription, error) {
	unlock := s.lock(tenantID)
	defer unlock()

	now := s.now().UTC()
	sub, err := s.store.GetSubscription(ctx, tenantID)
	switch {
	case errors.Is(err, ErrSubscriptionNotFound):
		sub = &Subscription{
			TenantID:  tenantID,
			CreatedAt: now,
		}
	case err != nil:
		return nil, err
	}

	sub.PlanID = planID
	sub.Status = SubscriptionActive
	if providerSubID != "" {
		sub.ProviderSubID = providerSubID
	}
	sub.UpdatedAt = now
	if err := s.store.SaveSubscription(ctx, sub); err != nil {
		return nil, err
	}

	// A converted tenant's trial no longer schedules deletion.
	if trial, err := s.store.GetTrial(ctx, tenantID); err == nil && trial.RetentionDeleteAt != nil && trial.PurgedAt == nil {
		trial.RetentionDeleteAt = nil
		trial.UpdatedAt = now
		if err := s.store.SaveTrial(ctx, trial); err != nil {
			return nil, err
		}
	}

	s.log.InfoContext(ctx, "subscription activated",
		slog.String("tenant_id", tenantID.String()),
		slog.String("plan_id", planID))
	return sub.Clone(), nil
}

// CancelSubscription marks the tenant's subscription inactive. The tenant
// falls back to whatever its trial state allows.
func (s *Service) CancelSubscription(ctx context.Context, tenantID uuid.UUID) error {
	unlock := s.lock(tenantID)
	defer unlock()

	sub, err := s.store.GetSubscription(ctx, tenantID)
	if err != nil {
		return err
	}

	sub.Status = SubscriptionInactive
	sub.UpdatedAt = s.now().UTC()
	if err := s.store.SaveSubscription(ctx, sub); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "subscription cancelled",
		slog.String("tenant_id", tenantID.String()))
	return nil
}

// CheckoutOptions carries optional checkout parameters.
type CheckoutOptions struct {
	Email      string
	SuccessURL string
	CancelURL  string
}

// CreateCheckoutLink opens a hosted checkout session for the tenant on the
// given plan. The tenant ID rides along as checkout custom data so the
// subscription webhook can be attributed back.
func (s *Service) CreateCheckoutLink(ctx context.Context, tenantID uuid.UUID, priceID string, opts CheckoutOptions) (*CheckoutLink, error) {
	if s.provider == nil {
		return nil, ErrNoCheckoutURL
	}
	return s.provider.CreateCheckoutLink(ctx, CheckoutRequest{
		PriceID:    priceID,
		CustomerID: tenantID.String(),
		Email:      opts.Email,
		SuccessURL: opts.SuccessURL,
		CancelURL:  opts.CancelURL,
	})
}

// HandleWebhook verifies and applies a billing provider webhook. Unknown
// event types are acknowledged without effect so the provider stops
// retrying them.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.provider == nil {
		return ErrWebhookVerificationFailed
	}

	event, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}

	tenantID, err := uuid.Parse(event.CustomerID)
	if err != nil {
		return errors.Join(ErrUnknownWebhookTenant, err)
	}

	switch event.Type {
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		if event.Status != "" && event.Status != "active" && event.Status != "trialing" {
			return s.CancelSubscription(ctx, tenantID)
		}
		_, err := s.ActivateSubscription(ctx, tenantID, event.PlanID, event.SubscriptionID)
		return err
	case EventSubscriptionCancelled:
		err := s.CancelSubscription(ctx, tenantID)
		if errors.Is(err, ErrSubscriptionNotFound) {
			return nil
		}
		return err
	default:
		s.log.DebugContext(ctx, "ignoring webhook event",
			slog.String("event_type", string(event.Type)),
			slog.String("provider_event", event.ProviderEvent))
		return nil
	}
}
