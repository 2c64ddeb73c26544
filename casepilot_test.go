package casepilot_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casepilot/casepilot"
	"github.com/casepilot/casepilot/pkg/casefile"
	"github.com/casepilot/casepilot/pkg/file"
	"github.com/casepilot/casepilot/pkg/pilot"
	"github.com/casepilot/casepilot/pkg/tenant"
)

type steppingClock struct {
	t time.Time
}

func (c *steppingClock) now() time.Time { return c.t }

func (c *steppingClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	core     *casepilot.Core
	tenants  *tenant.MemoryProvider
	clock    *steppingClock
	tenantID uuid.UUID
}

func newFixture(t *testing.T, opts ...casepilot.CoreOption) *fixture {
	t.Helper()
	f := &fixture{
		tenants:  tenant.NewMemoryProvider(),
		clock:    &steppingClock{t: time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)},
		tenantID: uuid.New(),
	}
	f.tenants.Put(&tenant.Tenant{ID: f.tenantID, Name: "Acme Clinic", AccountStatus: tenant.StatusActive})

	opts = append([]casepilot.CoreOption{
		casepilot.WithTenantProvider(f.tenants),
		casepilot.WithClock(f.clock.now),
		casepilot.WithProcessingDelay(time.Second),
	}, opts...)

	core, err := casepilot.New(context.Background(),
		casepilot.Config{TrialDays: 14, RetentionDays: 30}, opts...)
	require.NoError(t, err)
	f.core = core
	return f
}

func TestCoreCreateCase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("suspended tenant is refused", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.tenants.Put(&tenant.Tenant{ID: f.tenantID, AccountStatus: tenant.StatusSuspended})

		_, err := f.core.CreateCase(ctx, f.tenantID)
		require.ErrorIs(t, err, casepilot.ErrAccessDisabled)
	})

	t.Run("expired trial is refused", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.core.CreateCase(ctx, f.tenantID)
		require.NoError(t, err)

		f.clock.advance(15 * 24 * time.Hour)
		_, err = f.core.CreateCase(ctx, f.tenantID)
		require.ErrorIs(t, err, casepilot.ErrAccessDisabled)
	})

	t.Run("pilot cases queue behind the concurrency limit", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		first, err := f.core.CreateCase(ctx, f.tenantID)
		require.NoError(t, err)
		assert.Equal(t, casefile.StatusAnalyzing, first.Status)

		second, err := f.core.CreateCase(ctx, f.tenantID)
		require.NoError(t, err)
		assert.Equal(t, casefile.StatusAnalyzing, second.Status)

		// Pilot tier allows 2 concurrent analyses.
		third, err := f.core.CreateCase(ctx, f.tenantID)
		require.NoError(t, err)
		assert.Equal(t, casefile.StatusUploadReceived, third.Status)

		f.clock.advance(2 * time.Second)
		first, err = f.core.ObserveCase(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, casefile.StatusDraftReady, first.Status)
		require.NotNil(t, first.Draft)

		// Concurrency has freed up but the hourly window still holds two
		// admissions, so the queued case waits for the window to clear.
		third, err = f.core.ObserveCase(ctx, third.ID)
		require.NoError(t, err)
		assert.Equal(t, casefile.StatusUploadReceived, third.Status)

		f.clock.advance(61 * time.Minute)
		third, err = f.core.ObserveCase(ctx, third.ID)
		require.NoError(t, err)
		assert.Equal(t, casefile.StatusAnalyzing, third.Status)
	})

	t.Run("pilot lifetime cap rejects the 26th case", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		for i := 0; i < 25; i++ {
			_, err := f.core.CreateCase(ctx, f.tenantID)
			require.NoError(t, err, "case %d", i+1)
		}

		_, err := f.core.CreateCase(ctx, f.tenantID)
		require.ErrorIs(t, err, casepilot.ErrCaseRejected)

		cases, err := f.core.ListCases(ctx, f.tenantID)
		require.NoError(t, err)
		assert.Len(t, cases, 25)
	})

	t.Run("subscription overage marks the case paid", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.core.Pilot.ActivateSubscription(ctx, f.tenantID, "standard", "sub_1")
		require.NoError(t, err)

		for i := 0; i < 40; i++ {
			_, err := f.core.Usage.ConsumeCaseCredit(ctx, f.tenantID)
			require.NoError(t, err)
		}

		c, err := f.core.CreateCase(ctx, f.tenantID)
		require.NoError(t, err)
		assert.True(t, c.Paid)

		stored, err := f.core.Cases.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, stored.Paid)
	})

	t.Run("within-allotment subscription case is unpaid", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.core.Pilot.ActivateSubscription(ctx, f.tenantID, "standard", "sub_1")
		require.NoError(t, err)

		c, err := f.core.CreateCase(ctx, f.tenantID)
		require.NoError(t, err)
		assert.False(t, c.Paid)
		assert.Equal(t, casefile.StatusAnalyzing, c.Status)
	})
}

func TestCoreIngestPaymentRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("trial rows are hard-capped", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		require.NoError(t, f.core.IngestPaymentRows(ctx, f.tenantID, 400))
		require.NoError(t, f.core.IngestPaymentRows(ctx, f.tenantID, 100))

		err := f.core.IngestPaymentRows(ctx, f.tenantID, 1)
		require.ErrorIs(t, err, casepilot.ErrRowsExceedQuota)
	})

	t.Run("subscription rows consume credits without blocking", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.core.Pilot.ActivateSubscription(ctx, f.tenantID, "standard", "sub_1")
		require.NoError(t, err)

		require.NoError(t, f.core.IngestPaymentRows(ctx, f.tenantID, 5000))

		rec, err := f.core.Usage.GetUsage(ctx, f.tenantID)
		require.NoError(t, err)
		assert.Equal(t, int64(5000), rec.PeriodPaymentRowsUsed)
		assert.Equal(t, int64(50), rec.PeriodPaymentCreditsUsed)
	})
}

func TestCoreUploadCaseFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	pdf := []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")

	newFileFixture := func(t *testing.T) (*fixture, *casefile.Case) {
		t.Helper()
		storage, err := file.NewLocalStorage(t.TempDir(), "https://files.example.com")
		require.NoError(t, err)
		f := newFixture(t, casepilot.WithFileStorage(storage))

		c, err := f.core.CreateCase(ctx, f.tenantID)
		require.NoError(t, err)
		return f, c
	}

	t.Run("no storage configured", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		c, err := f.core.CreateCase(ctx, f.tenantID)
		require.NoError(t, err)

		_, err = f.core.UploadCaseFile(ctx, f.tenantID, c.ID, "denial.pdf", int64(len(pdf)), bytes.NewReader(pdf))
		require.ErrorIs(t, err, file.ErrInvalidConfig)
	})

	t.Run("stores a valid upload under the case prefix", func(t *testing.T) {
		t.Parallel()
		f, c := newFileFixture(t)

		obj, err := f.core.UploadCaseFile(ctx, f.tenantID, c.ID, "denial letter.pdf", int64(len(pdf)), bytes.NewReader(pdf))
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", obj.ContentType)
		assert.Equal(t, int64(len(pdf)), obj.Size)
		assert.Equal(t, file.CasePath(f.tenantID, c.ID, "denial letter.pdf"), obj.Path)
		assert.True(t, f.core.Files.Exists(ctx, obj.Path))
	})

	t.Run("unknown case", func(t *testing.T) {
		t.Parallel()
		f, _ := newFileFixture(t)
		_, err := f.core.UploadCaseFile(ctx, f.tenantID, uuid.New(), "denial.pdf", int64(len(pdf)), bytes.NewReader(pdf))
		require.ErrorIs(t, err, casefile.ErrCaseNotFound)
	})

	t.Run("declared size over the plan limit", func(t *testing.T) {
		t.Parallel()
		f, c := newFileFixture(t)

		// Pilot max file size is 10 MiB.
		_, err := f.core.UploadCaseFile(ctx, f.tenantID, c.ID, "scan.pdf", 11<<20, bytes.NewReader(pdf))
		require.ErrorIs(t, err, file.ErrFileTooLarge)
	})

	t.Run("disallowed content type is rejected and removed", func(t *testing.T) {
		t.Parallel()
		f, c := newFileFixture(t)

		zip := []byte("PK\x03\x04archive-bytes")
		_, err := f.core.UploadCaseFile(ctx, f.tenantID, c.ID, "evidence.zip", int64(len(zip)), bytes.NewReader(zip))
		require.ErrorIs(t, err, file.ErrContentTypeNotAllowed)

		entries, err := f.core.Files.List(ctx, file.CaseDir(f.tenantID, c.ID))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("per-case file cap", func(t *testing.T) {
		t.Parallel()
		f, c := newFileFixture(t)

		// Pilot tier allows 5 files per case.
		for i := 0; i < 5; i++ {
			name := fmt.Sprintf("page-%d.pdf", i+1)
			_, err := f.core.UploadCaseFile(ctx, f.tenantID, c.ID, name, int64(len(pdf)), bytes.NewReader(pdf))
			require.NoError(t, err)
		}

		_, err := f.core.UploadCaseFile(ctx, f.tenantID, c.ID, "one-too-many.pdf", int64(len(pdf)), bytes.NewReader(pdf))
		require.ErrorIs(t, err, casepilot.ErrTooManyFiles)
	})
}

func TestCoreRetentionPurge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	storage, err := file.NewLocalStorage(t.TempDir(), "https://files.example.com")
	require.NoError(t, err)
	f := newFixture(t, casepilot.WithFileStorage(storage))

	c, err := f.core.CreateCase(ctx, f.tenantID)
	require.NoError(t, err)
	require.NoError(t, f.core.IngestPaymentRows(ctx, f.tenantID, 200))

	pdf := []byte("%PDF-1.4\nminimal\n")
	obj, err := f.core.UploadCaseFile(ctx, f.tenantID, c.ID, "denial.pdf", int64(len(pdf)), bytes.NewReader(pdf))
	require.NoError(t, err)

	// First reap completes the trial, second one purges after retention.
	f.clock.advance(15 * 24 * time.Hour)
	require.NoError(t, f.core.ReapExpiredTenant(ctx, f.tenantID))

	cases, err := f.core.ListCases(ctx, f.tenantID)
	require.NoError(t, err)
	require.Len(t, cases, 1, "data survives through the retention window")

	f.clock.advance(31 * 24 * time.Hour)
	require.NoError(t, f.core.ReapExpiredTenant(ctx, f.tenantID))

	cases, err = f.core.ListCases(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Empty(t, cases)

	rec, err := f.core.Usage.GetUsage(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Zero(t, rec.TrialCasesUsed)
	assert.Zero(t, rec.TrialPaymentRowsUsed)

	assert.False(t, f.core.Files.Exists(ctx, obj.Path))

	require.NoError(t, f.core.ReapExpiredTenant(ctx, f.tenantID), "repeat reap is a no-op")
}

func TestCoreTrialRestartResetsCounters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	for i := 0; i < 25; i++ {
		_, err := f.core.CreateCase(ctx, f.tenantID)
		require.NoError(t, err)
	}
	_, err := f.core.CreateCase(ctx, f.tenantID)
	require.ErrorIs(t, err, casepilot.ErrCaseRejected)

	f.clock.advance(15 * 24 * time.Hour)
	_, err = f.core.Pilot.EnsureTrial(ctx, f.tenantID) // completes the trial
	require.NoError(t, err)

	_, err = f.core.Pilot.GrantOrExtendTrial(ctx, f.tenantID, 14)
	require.NoError(t, err)

	c, err := f.core.CreateCase(ctx, f.tenantID)
	require.NoError(t, err, "restarted trial starts with a fresh allotment")
	assert.Equal(t, f.tenantID, c.TenantID)

	rec, err := f.core.Usage.GetUsage(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.TrialCasesUsed)
}

// webhookBilling is a scripted pilot.BillingProvider for webhook wiring.
type webhookBilling struct {
	event *pilot.WebhookEvent
}

func (b *webhookBilling) CreateCheckoutLink(ctx context.Context, req pilot.CheckoutRequest) (*pilot.CheckoutLink, error) {
	return &pilot.CheckoutLink{URL: "https://pay.example.com/s/abc"}, nil
}

func (b *webhookBilling) ParseWebhook(ctx context.Context, payload []byte, signature string) (*pilot.WebhookEvent, error) {
	return b.event, nil
}

func TestCoreHandleBillingWebhook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	billing := &webhookBilling{}
	f := newFixture(t, casepilot.WithBillingProvider(billing))

	// Exhaust the pilot allotment first.
	for i := 0; i < 25; i++ {
		_, err := f.core.CreateCase(ctx, f.tenantID)
		require.NoError(t, err)
	}
	_, err := f.core.CreateCase(ctx, f.tenantID)
	require.ErrorIs(t, err, casepilot.ErrCaseRejected)

	billing.event = &pilot.WebhookEvent{
		Type:           pilot.EventSubscriptionCreated,
		CustomerID:     f.tenantID.String(),
		SubscriptionID: "sub_42",
		Status:         "active",
		PlanID:         "standard",
	}
	require.NoError(t, f.core.HandleBillingWebhook(ctx, []byte("{}"), "sig"))

	// The converted tenant is no longer hard-capped.
	c, err := f.core.CreateCase(ctx, f.tenantID)
	require.NoError(t, err)
	assert.False(t, c.Paid, "first subscription case is within the allotment")
}
