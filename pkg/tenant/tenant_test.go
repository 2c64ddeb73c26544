package tenant_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casepilot/casepilot/pkg/tenant"
)

func TestTenantOperable(t *testing.T) {
	t.Parallel()

	assert.True(t, (&tenant.Tenant{AccountStatus: tenant.StatusActive}).Operable())
	assert.False(t, (&tenant.Tenant{AccountStatus: tenant.StatusSuspended}).Operable())
	assert.False(t, (&tenant.Tenant{AccountStatus: tenant.StatusTerminated}).Operable())
}

func TestMemoryProvider(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("get unknown tenant", func(t *testing.T) {
		t.Parallel()
		p := tenant.NewMemoryProvider()
		_, err := p.Get(ctx, uuid.New())
		require.ErrorIs(t, err, tenant.ErrTenantNotFound)
	})

	t.Run("put then get returns a copy", func(t *testing.T) {
		t.Parallel()
		p := tenant.NewMemoryProvider()
		id := uuid.New()
		p.Put(&tenant.Tenant{ID: id, Name: "Acme Clinic", AccountStatus: tenant.StatusActive})

		got, err := p.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Acme Clinic", got.Name)

		got.Name = "mutated"
		again, err := p.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Acme Clinic", again.Name)
	})
}

func TestContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		want := &tenant.Tenant{ID: uuid.New(), AccountStatus: tenant.StatusActive}
		ctx := tenant.WithContext(context.Background(), want)

		got, err := tenant.FromContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("absent tenant", func(t *testing.T) {
		t.Parallel()
		_, err := tenant.FromContext(context.Background())
		require.ErrorIs(t, err, tenant.ErrNoTenantInContext)
	})
}
