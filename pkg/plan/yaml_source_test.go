package plan_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casepilot/casepilot/pkg/plan"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plans.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestYAMLSource(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("loads catalog file", func(t *testing.T) {
		t.Parallel()
		path := writeCatalog(t, `
plans:
  pilot:
    name: Pilot
    mode: trial
    max_cases_total: 15
    included_payment_rows: 300
  standard:
    name: Standard
    mode: subscription
    case_credits_per_period: 60
    overage_price_per_case:
      amount: 5900
      currency: USD
`)
		profiles, err := plan.NewYAMLSource(path).Load(ctx)
		require.NoError(t, err)
		require.Len(t, profiles, 2)

		pilot := profiles[plan.PilotPlanID]
		assert.Equal(t, plan.PilotPlanID, pilot.ID)
		assert.Equal(t, plan.ModeTrial, pilot.Mode)
		assert.Equal(t, int64(15), pilot.MaxCasesTotal)
		assert.Equal(t, int64(300), pilot.IncludedPaymentRows)

		std := profiles[plan.StandardPlanID]
		assert.Equal(t, int64(60), std.CaseCreditsPerPeriod)
		assert.Equal(t, int64(5900), std.OveragePricePerCase.Amount)
		assert.Equal(t, "USD", std.OveragePricePerCase.Currency)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := plan.NewYAMLSource(filepath.Join(t.TempDir(), "absent.yml")).Load(ctx)
		require.ErrorIs(t, err, plan.ErrCatalogFileNotFound)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()
		path := writeCatalog(t, "plans: [not: a: map")
		_, err := plan.NewYAMLSource(path).Load(ctx)
		require.ErrorIs(t, err, plan.ErrFailedToParseCatalogFile)
	})

	t.Run("empty catalog", func(t *testing.T) {
		t.Parallel()
		path := writeCatalog(t, "plans: {}")
		_, err := plan.NewYAMLSource(path).Load(ctx)
		require.ErrorIs(t, err, plan.ErrInvalidCatalog)
	})

	t.Run("resolver fills omitted fields", func(t *testing.T) {
		t.Parallel()
		path := writeCatalog(t, `
plans:
  pilot:
    max_jobs_per_hour: 4
`)
		r, err := plan.NewResolver(ctx, plan.NewYAMLSource(path), nil)
		require.NoError(t, err)

		p := r.Resolve(ctx, uuid.New())
		assert.Equal(t, 4, p.MaxJobsPerHour)
		assert.Equal(t, int64(25), p.MaxCasesTotal)
		assert.Equal(t, plan.ModeTrial, p.Mode)
	})
}
