package usage_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casepilot/casepilot/pkg/plan"
	"github.com/casepilot/casepilot/pkg/usage"
)

// steppingClock returns a controllable time source starting at start.
type steppingClock struct {
	t time.Time
}

func (c *steppingClock) now() time.Time { return c.t }

func (c *steppingClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func pilotResolver(ctx context.Context, tenantID uuid.UUID) plan.Profile {
	return plan.DefaultCatalog()[plan.PilotPlanID]
}

func standardResolver(ctx context.Context, tenantID uuid.UUID) plan.Profile {
	return plan.DefaultCatalog()[plan.StandardPlanID]
}

func TestLedgerGetUsage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates record on first access", func(t *testing.T) {
		t.Parallel()
		clock := &steppingClock{t: time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)}
		l := usage.NewLedger(usage.NewMemoryStore(), pilotResolver, usage.WithClock(clock.now))

		rec, err := l.GetUsage(ctx, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, "2025-07", rec.PeriodKey)
		assert.Zero(t, rec.TrialCasesUsed)
		assert.Empty(t, rec.JobTimestamps)
	})

	t.Run("rolls period counters on month change", func(t *testing.T) {
		t.Parallel()
		clock := &steppingClock{t: time.Date(2025, 7, 31, 23, 0, 0, 0, time.UTC)}
		l := usage.NewLedger(usage.NewMemoryStore(), standardResolver, usage.WithClock(clock.now))
		tenantID := uuid.New()

		_, err := l.ConsumeCaseCredit(ctx, tenantID)
		require.NoError(t, err)
		require.NoError(t, l.ConsumePaymentRows(ctx, tenantID, 250))

		clock.advance(2 * time.Hour) // crosses into August

		rec, err := l.GetUsage(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, "2025-08", rec.PeriodKey)
		assert.Zero(t, rec.PeriodCaseCreditsUsed)
		assert.Zero(t, rec.PeriodPaymentRowsUsed)
		assert.Zero(t, rec.PeriodPaymentCreditsUsed)
	})

	t.Run("rollover leaves trial counters alone", func(t *testing.T) {
		t.Parallel()
		clock := &steppingClock{t: time.Date(2025, 7, 31, 23, 0, 0, 0, time.UTC)}
		l := usage.NewLedger(usage.NewMemoryStore(), pilotResolver, usage.WithClock(clock.now))
		tenantID := uuid.New()

		_, err := l.ConsumeCaseCredit(ctx, tenantID)
		require.NoError(t, err)
		require.NoError(t, l.ConsumePaymentRows(ctx, tenantID, 100))

		clock.advance(48 * time.Hour)

		rec, err := l.GetUsage(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rec.TrialCasesUsed)
		assert.Equal(t, int64(100), rec.TrialPaymentRowsUsed)
	})
}

func TestLedgerConsumeCaseCredit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("trial increments lifetime counter without overage", func(t *testing.T) {
		t.Parallel()
		l := usage.NewLedger(usage.NewMemoryStore(), pilotResolver)
		tenantID := uuid.New()

		for i := 0; i < 30; i++ {
			overage, err := l.ConsumeCaseCredit(ctx, tenantID)
			require.NoError(t, err)
			assert.False(t, overage)
		}

		rec, err := l.GetUsage(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, int64(30), rec.TrialCasesUsed)
		assert.Zero(t, rec.PeriodCaseCreditsUsed)
	})

	t.Run("subscription overage starts past the allotment", func(t *testing.T) {
		t.Parallel()
		l := usage.NewLedger(usage.NewMemoryStore(), standardResolver)
		tenantID := uuid.New()

		for i := 0; i < 40; i++ {
			overage, err := l.ConsumeCaseCredit(ctx, tenantID)
			require.NoError(t, err)
			assert.False(t, overage, "case %d should be within the allotment", i+1)
		}

		overage, err := l.ConsumeCaseCredit(ctx, tenantID)
		require.NoError(t, err)
		assert.True(t, overage)

		overage, err = l.ConsumeCaseCredit(ctx, tenantID)
		require.NoError(t, err)
		assert.True(t, overage)

		rec, err := l.GetUsage(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, int64(42), rec.PeriodCaseCreditsUsed)
		assert.Equal(t, int64(2), rec.PeriodCaseOverageCount)
		assert.Zero(t, rec.TrialCasesUsed)
	})
}

func TestLedgerConsumePaymentRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("negative rows rejected", func(t *testing.T) {
		t.Parallel()
		l := usage.NewLedger(usage.NewMemoryStore(), pilotResolver)
		err := l.ConsumePaymentRows(ctx, uuid.New(), -1)
		require.ErrorIs(t, err, usage.ErrInvalidRowCount)
	})

	t.Run("zero rows is a no-op", func(t *testing.T) {
		t.Parallel()
		store := usage.NewMemoryStore()
		l := usage.NewLedger(store, pilotResolver)
		tenantID := uuid.New()

		require.NoError(t, l.ConsumePaymentRows(ctx, tenantID, 0))
		_, err := store.Get(ctx, tenantID)
		require.ErrorIs(t, err, usage.ErrUsageNotFound)
	})

	t.Run("subscription credits round up", func(t *testing.T) {
		t.Parallel()
		l := usage.NewLedger(usage.NewMemoryStore(), standardResolver)
		tenantID := uuid.New()

		// 100 rows per credit: 1, 150 and 101 rows cost 1, 2 and 2 credits.
		require.NoError(t, l.ConsumePaymentRows(ctx, tenantID, 1))
		require.NoError(t, l.ConsumePaymentRows(ctx, tenantID, 150))
		require.NoError(t, l.ConsumePaymentRows(ctx, tenantID, 101))

		rec, err := l.GetUsage(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, int64(252), rec.PeriodPaymentRowsUsed)
		assert.Equal(t, int64(5), rec.PeriodPaymentCreditsUsed)
	})

	t.Run("exact blocks cost exact credits", func(t *testing.T) {
		t.Parallel()
		l := usage.NewLedger(usage.NewMemoryStore(), standardResolver)
		tenantID := uuid.New()

		require.NoError(t, l.ConsumePaymentRows(ctx, tenantID, 300))

		rec, err := l.GetUsage(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), rec.PeriodPaymentCreditsUsed)
	})
}

func TestLedgerPaymentRowAllowance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("trial allowance shrinks with use", func(t *testing.T) {
		t.Parallel()
		l := usage.NewLedger(usage.NewMemoryStore(), pilotResolver)
		tenantID := uuid.New()

		allowance, err := l.PaymentRowAllowance(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, int64(500), allowance)

		require.NoError(t, l.ConsumePaymentRows(ctx, tenantID, 380))

		allowance, err = l.PaymentRowAllowance(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, int64(120), allowance)
	})

	t.Run("allowance never goes negative", func(t *testing.T) {
		t.Parallel()
		l := usage.NewLedger(usage.NewMemoryStore(), pilotResolver)
		tenantID := uuid.New()

		require.NoError(t, l.ConsumePaymentRows(ctx, tenantID, 600))

		allowance, err := l.PaymentRowAllowance(ctx, tenantID)
		require.NoError(t, err)
		assert.Zero(t, allowance)
	})

	t.Run("subscription allowance derives from period credits", func(t *testing.T) {
		t.Parallel()
		l := usage.NewLedger(usage.NewMemoryStore(), standardResolver)
		tenantID := uuid.New()

		// 20 credits x 100 rows per credit.
		allowance, err := l.PaymentRowAllowance(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, int64(2000), allowance)

		require.NoError(t, l.ConsumePaymentRows(ctx, tenantID, 500))

		allowance, err = l.PaymentRowAllowance(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, int64(1500), allowance)
	})
}

func TestLedgerJobWindow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("prune drops entries older than an hour", func(t *testing.T) {
		t.Parallel()
		clock := &steppingClock{t: time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)}
		l := usage.NewLedger(usage.NewMemoryStore(), pilotResolver, usage.WithClock(clock.now))
		tenantID := uuid.New()

		require.NoError(t, l.RecordJob(ctx, tenantID))
		clock.advance(30 * time.Minute)
		require.NoError(t, l.RecordJob(ctx, tenantID))

		n, err := l.PruneJobs(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		clock.advance(31 * time.Minute) // first job is now 61m old

		n, err = l.PruneJobs(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		clock.advance(30 * time.Minute)

		n, err = l.PruneJobs(ctx, tenantID)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("prune persists even without a record afterwards", func(t *testing.T) {
		t.Parallel()
		clock := &steppingClock{t: time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)}
		store := usage.NewMemoryStore()
		l := usage.NewLedger(store, pilotResolver, usage.WithClock(clock.now))
		tenantID := uuid.New()

		require.NoError(t, l.RecordJob(ctx, tenantID))
		clock.advance(2 * time.Hour)

		_, err := l.PruneJobs(ctx, tenantID)
		require.NoError(t, err)

		stored, err := store.Get(ctx, tenantID)
		require.NoError(t, err)
		assert.Empty(t, stored.JobTimestamps)
	})
}

func TestLedgerResetTrialCounters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	l := usage.NewLedger(usage.NewMemoryStore(), pilotResolver)
	tenantID := uuid.New()

	_, err := l.ConsumeCaseCredit(ctx, tenantID)
	require.NoError(t, err)
	require.NoError(t, l.ConsumePaymentRows(ctx, tenantID, 200))
	require.NoError(t, l.RecordJob(ctx, tenantID))

	require.NoError(t, l.ResetTrialCounters(ctx, tenantID))

	rec, err := l.GetUsage(ctx, tenantID)
	require.NoError(t, err)
	assert.Zero(t, rec.TrialCasesUsed)
	assert.Zero(t, rec.TrialPaymentRowsUsed)
	assert.Len(t, rec.JobTimestamps, 1, "job log is not part of the trial reset")
}

func TestLedgerDeleteUsage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	l := usage.NewLedger(usage.NewMemoryStore(), pilotResolver)
	tenantID := uuid.New()

	_, err := l.ConsumeCaseCredit(ctx, tenantID)
	require.NoError(t, err)

	require.NoError(t, l.DeleteUsage(ctx, tenantID))
	require.NoError(t, l.DeleteUsage(ctx, tenantID), "deleting an absent record is a no-op")

	rec, err := l.GetUsage(ctx, tenantID)
	require.NoError(t, err)
	assert.Zero(t, rec.TrialCasesUsed, "a fresh record is created after deletion")
}
