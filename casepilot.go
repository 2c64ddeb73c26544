package casepilot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/casepilot/casepilot/pkg/admission"
	"github.com/casepilot/casepilot/pkg/casefile"
	"github.com/casepilot/casepilot/pkg/file"
	"github.com/casepilot/casepilot/pkg/pilot"
	"github.com/casepilot/casepilot/pkg/plan"
	"github.com/casepilot/casepilot/pkg/tenant"
	"github.com/casepilot/casepilot/pkg/usage"
)

var (
	ErrAccessDisabled  = errors.New("tenant access is disabled")
	ErrCaseRejected    = errors.New("case creation rejected")
	ErrTooManyFiles    = errors.New("case file limit reached")
	ErrRowsExceedQuota = errors.New("payment rows exceed remaining allowance")
)

// Core is the assembled CasePilot backend.
type Core struct {
	Plans   *plan.Resolver
	Usage   *usage.Ledger
	Gate    *admission.Controller
	Cases   *casefile.Service
	Pilot   *pilot.Service
	Tenants tenant.Provider
	Files   file.Storage

	log *slog.Logger
	now func() time.Time
}

// CoreOption configures construction of a Core.
type CoreOption func(*coreDeps)

type coreDeps struct {
	usageStore usage.Store
	caseStore  casefile.Store
	pilotStore pilot.Store
	tenants    tenant.Provider
	files      file.Storage
	generator  casefile.DraftGenerator
	billing    pilot.BillingProvider
	planSource plan.Source
	clock      func() time.Time
	log        *slog.Logger
	delay      time.Duration
}

// WithUsageStore sets the usage record backend. Defaults to in-memory.
func WithUsageStore(s usage.Store) CoreOption {
	return func(d *coreDeps) { d.usageStore = s }
}

// WithCaseStore sets the case record backend. Defaults to in-memory.
func WithCaseStore(s casefile.Store) CoreOption {
	return func(d *coreDeps) { d.caseStore = s }
}

// WithPilotStore sets the trial/subscription backend. Defaults to in-memory.
func WithPilotStore(s pilot.Store) CoreOption {
	return func(d *coreDeps) { d.pilotStore = s }
}

// WithTenantProvider sets the tenant source. Defaults to an empty in-memory
// provider, which fails every access check until tenants are added.
func WithTenantProvider(p tenant.Provider) CoreOption {
	return func(d *coreDeps) { d.tenants = p }
}

// WithFileStorage sets the upload backend. Without one, uploads are refused
// and the purge skips file deletion.
func WithFileStorage(s file.Storage) CoreOption {
	return func(d *coreDeps) { d.files = s }
}

// WithDraftGenerator sets the draft pipeline. Defaults to the stub generator.
func WithDraftGenerator(g casefile.DraftGenerator) CoreOption {
	return func(d *coreDeps) { d.generator = g }
}

// WithBillingProvider wires the payment provider for webhooks and checkout.
func WithBillingProvider(p pilot.BillingProvider) CoreOption {
	return func(d *coreDeps) { d.billing = p }
}

// WithPlanSource overrides the tier catalog source.
func WithPlanSource(s plan.Source) CoreOption {
	return func(d *coreDeps) { d.planSource = s }
}

// WithClock injects a shared time source into every component.
func WithClock(now func() time.Time) CoreOption {
	return func(d *coreDeps) {
		if now != nil {
			d.clock = now
		}
	}
}

// WithLogger sets the logger shared by all components.
func WithLogger(log *slog.Logger) CoreOption {
	return func(d *coreDeps) {
		if log != nil {
			d.log = log
		}
	}
}

// WithProcessingDelay overrides the fixed analysis delay. Tests use short
// delays with an injected clock.
func WithProcessingDelay(delay time.Duration) CoreOption {
	return func(d *coreDeps) {
		if delay > 0 {
			d.delay = delay
		}
	}
}

// New assembles a Core from configuration and options. Every backend
// defaults to its in-memory implementation so a Core with no options is a
// fully working single-process instance.
func New(ctx context.Context, cfg Config, opts ...CoreOption) (*Core, error) {
	deps := &coreDeps{
		clock: time.Now,
		log:   slog.Default(),
		delay: casefile.DefaultProcessingDelay,
	}
	if cfg.ProcessingDelay > 0 {
		deps.delay = cfg.ProcessingDelay
	}
	for _, opt := range opts {
		opt(deps)
	}

	if deps.usageStore == nil {
		deps.usageStore = usage.NewMemoryStore()
	}
	if deps.caseStore == nil {
		deps.caseStore = casefile.NewMemoryStore()
	}
	if deps.pilotStore == nil {
		deps.pilotStore = pilot.NewMemoryStore()
	}
	if deps.tenants == nil {
		deps.tenants = tenant.NewMemoryProvider()
	}
	if deps.generator == nil {
		deps.generator = casefile.StubGenerator{}
	}
	if deps.planSource == nil && cfg.PlanCatalogPath != "" {
		deps.planSource = plan.NewYAMLSource(cfg.PlanCatalogPath)
	}

	core := &Core{
		Tenants: deps.tenants,
		Files:   deps.files,
		log:     deps.log,
		now:     deps.clock,
	}

	// The resolver consults the pilot service for active subscriptions; the
	// closure defers the lookup until the field is set below.
	resolver, err := plan.NewResolver(ctx, deps.planSource,
		func(ctx context.Context, tenantID uuid.UUID) (*plan.SubscriptionState, error) {
			return core.Pilot.SubscriptionState(ctx, tenantID)
		},
		plan.WithResolverLogger(deps.log))
	if err != nil {
		return nil, err
	}
	core.Plans = resolver

	core.Usage = usage.NewLedger(deps.usageStore, resolver.Resolve,
		usage.WithClock(deps.clock),
		usage.WithLogger(deps.log))

	core.Gate = admission.NewController(core.Usage, resolver.Resolve,
		func(ctx context.Context, tenantID uuid.UUID) (int64, error) {
			return core.Cases.ActiveCount(ctx, tenantID)
		},
		admission.WithLogger(deps.log))

	core.Cases = casefile.NewService(deps.caseStore, core.Gate, deps.generator,
		casefile.WithClock(deps.clock),
		casefile.WithLogger(deps.log),
		casefile.WithProcessingDelay(deps.delay))

	pilotOpts := []pilot.ServiceOption{
		pilot.WithClock(deps.clock),
		pilot.WithLogger(deps.log),
		pilot.WithTrialDays(cfg.TrialDays),
		pilot.WithRetentionDays(cfg.RetentionDays),
		pilot.WithTrialRestartHook(core.Usage.ResetTrialCounters),
		pilot.WithPurger("cases", func(ctx context.Context, tenantID uuid.UUID) error {
			_, err := core.Cases.DeleteTenantCases(ctx, tenantID)
			return err
		}),
		pilot.WithPurger("usage", core.Usage.DeleteUsage),
	}
	if deps.files != nil {
		pilotOpts = append(pilotOpts, pilot.WithPurger("files",
			func(ctx context.Context, tenantID uuid.UUID) error {
				return deps.files.DeleteDir(ctx, file.TenantDir(tenantID))
			}))
	}
	if deps.billing != nil {
		pilotOpts = append(pilotOpts, pilot.WithBillingProvider(deps.billing))
	}
	core.Pilot = pilot.NewService(deps.pilotStore, deps.tenants, pilotOpts...)

	return core, nil
}

// CreateCase runs the full gated creation flow: access check, pilot lifetime
// cap, credit consumption, then case creation with one advance attempt. The
// returned case carries Paid=true when a subscription overage was billed.
func (c *Core) CreateCase(ctx context.Context, tenantID uuid.UUID) (*casefile.Case, error) {
	enabled, err := c.Pilot.IsAccessEnabled(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, ErrAccessDisabled
	}

	decision, err := c.Gate.PilotCanCreateCase(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrCaseRejected, decision.Reason)
	}

	overage, err := c.Usage.ConsumeCaseCredit(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	created, err := c.Cases.Create(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if overage {
		return c.Cases.MarkPaid(ctx, created.ID)
	}
	return created, nil
}

// ObserveCase loads a case and advances its lifecycle as far as current
// conditions allow.
func (c *Core) ObserveCase(ctx context.Context, id uuid.UUID) (*casefile.Case, error) {
	return c.Cases.Observe(ctx, id)
}

// ListCases returns the tenant's cases ordered by creation time.
func (c *Core) ListCases(ctx context.Context, tenantID uuid.UUID) ([]*casefile.Case, error) {
	return c.Cases.List(ctx, tenantID)
}

// UploadCaseFile validates an upload against the tenant's plan limits and
// stores it under the case's prefix.
func (c *Core) UploadCaseFile(ctx context.Context, tenantID, caseID uuid.UUID, filename string, size int64, r io.Reader) (*file.Object, error) {
	if c.Files == nil {
		return nil, file.ErrInvalidConfig
	}

	enabled, err := c.Pilot.IsAccessEnabled(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, ErrAccessDisabled
	}

	if _, err := c.Cases.Get(ctx, caseID); err != nil {
		return nil, err
	}

	prof := c.Plans.Resolve(ctx, tenantID)
	if err := file.ValidateSize(size, prof.MaxFileSize); err != nil {
		return nil, err
	}

	existing, err := c.Files.List(ctx, file.CaseDir(tenantID, caseID))
	if err == nil && len(existing) >= prof.MaxFilesPerCase {
		return nil, fmt.Errorf("%w: %d files", ErrTooManyFiles, prof.MaxFilesPerCase)
	}

	obj, err := c.Files.Save(ctx, file.CasePath(tenantID, caseID, filename), r)
	if err != nil {
		return nil, err
	}
	if err := file.ValidateContentType(obj.ContentType); err != nil {
		_ = c.Files.Delete(ctx, obj.Path)
		return nil, err
	}
	if err := file.ValidateSize(obj.Size, prof.MaxFileSize); err != nil {
		_ = c.Files.Delete(ctx, obj.Path)
		return nil, err
	}
	return obj, nil
}

// IngestPaymentRows charges an uploaded payment ledger of rows rows against
// the tenant's allowance. Trial tenants are hard-capped at their included
// rows; subscription tenants consume credits with ceil rounding.
func (c *Core) IngestPaymentRows(ctx context.Context, tenantID uuid.UUID, rows int64) error {
	enabled, err := c.Pilot.IsAccessEnabled(ctx, tenantID)
	if err != nil {
		return err
	}
	if !enabled {
		return ErrAccessDisabled
	}

	prof := c.Plans.Resolve(ctx, tenantID)
	if prof.Mode == plan.ModeTrial {
		allowance, err := c.Usage.PaymentRowAllowance(ctx, tenantID)
		if err != nil {
			return err
		}
		if rows > allowance {
			return fmt.Errorf("%w: %d rows remaining", ErrRowsExceedQuota, allowance)
		}
	}

	return c.Usage.ConsumePaymentRows(ctx, tenantID, rows)
}

// ReapExpiredTenant advances the tenant's trial lifecycle and runs the
// retention purge when due.
func (c *Core) ReapExpiredTenant(ctx context.Context, tenantID uuid.UUID) error {
	return c.Pilot.ReapExpiredTenant(ctx, tenantID)
}

// HandleBillingWebhook applies a billing provider webhook.
func (c *Core) HandleBillingWebhook(ctx context.Context, payload []byte, signature string) error {
	return c.Pilot.HandleWebhook(ctx, payload, signature)
}
