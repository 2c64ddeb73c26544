package plan

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// SubscriptionState is the slice of a tenant's subscription record the
// resolver needs: which tier it bought and any per-subscription credit
// overrides. Zero override fields mean "use the tier default".
type SubscriptionState struct {
	PlanID                     string
	CaseCreditsPerPeriod       int64
	PaymentRowCreditsPerPeriod int64
}

// SubscriptionLookup reports the tenant's currently active subscription.
// A nil state (with nil error) means the tenant has no active subscription
// and operates in pilot mode.
type SubscriptionLookup func(ctx context.Context, tenantID uuid.UUID) (*SubscriptionState, error)

// Resolver maps a tenant to its effective limit profile.
type Resolver struct {
	profiles map[string]Profile
	lookup   SubscriptionLookup
	log      *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the logger used for degraded-resolution warnings.
func WithResolverLogger(log *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// NewResolver loads the tier catalog from src and returns a Resolver.
// lookup may be nil, in which case every tenant resolves to the pilot tier.
func NewResolver(ctx context.Context, src Source, lookup SubscriptionLookup, opts ...ResolverOption) (*Resolver, error) {
	if src == nil {
		src = NewInMemSource(nil)
	}

	profiles, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}
	if _, ok := profiles[PilotPlanID]; !ok {
		return nil, ErrCatalogMissingPilotTier
	}

	// Normalize every entry against the built-in tier it names so sparse
	// catalog files still produce complete profiles.
	defaults := DefaultCatalog()
	for id, p := range profiles {
		fallback, ok := defaults[id]
		if !ok {
			fallback = defaults[StandardPlanID]
		}
		p.ID = id
		profiles[id] = applyDefaults(p, fallback)
	}

	r := &Resolver{
		profiles: profiles,
		lookup:   lookup,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve returns the effective profile for the tenant. It never fails: a
// missing or unreadable subscription degrades to the pilot tier, and unknown
// plan IDs resolve to the standard tier, so callers always get a usable
// limit set.
func (r *Resolver) Resolve(ctx context.Context, tenantID uuid.UUID) Profile {
	if r.lookup == nil {
		return r.pilot()
	}

	state, err := r.lookup(ctx, tenantID)
	if err != nil {
		r.log.WarnContext(ctx, "subscription lookup failed, resolving pilot profile",
			slog.String("tenant_id", tenantID.String()), slog.Any("error", err))
		return r.pilot()
	}
	if state == nil {
		return r.pilot()
	}

	p, ok := r.profiles[state.PlanID]
	if !ok {
		p = r.standard()
	}
	p.Mode = ModeSubscription

	if state.CaseCreditsPerPeriod > 0 {
		p.CaseCreditsPerPeriod = state.CaseCreditsPerPeriod
	}
	if state.PaymentRowCreditsPerPeriod > 0 {
		p.PaymentRowCreditsPerPeriod = state.PaymentRowCreditsPerPeriod
	}
	return p
}

func (r *Resolver) pilot() Profile {
	return r.profiles[PilotPlanID]
}

func (r *Resolver) standard() Profile {
	if p, ok := r.profiles[StandardPlanID]; ok {
		return p
	}
	return DefaultCatalog()[StandardPlanID]
}
