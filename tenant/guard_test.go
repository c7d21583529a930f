package tenant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/solar-engine/solar"
	"github.com/warp/solar-engine/store/memory"
	"github.com/warp/solar-engine/tenant"
)

func TestGuard(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.SaveUnit(ctx, solar.Unit{ID: "unit-solar", Segments: []string{"retail", "Solar"}}))
	require.NoError(t, store.SaveUnit(ctx, solar.Unit{ID: "unit-retail", Segments: []string{"retail"}}))

	guard := tenant.NewGuard(store, "")

	assert.NoError(t, guard.Check(ctx, "unit-solar"))

	// Missing tenant and unentitled tenant are indistinguishable.
	errMissing := guard.Check(ctx, "unit-ghost")
	errRetail := guard.Check(ctx, "unit-retail")
	assert.ErrorIs(t, errMissing, solar.ErrNotFound)
	assert.ErrorIs(t, errRetail, solar.ErrNotFound)

	var nf *solar.NotFoundError
	require.ErrorAs(t, errRetail, &nf)
	assert.Equal(t, "tenant", nf.Kind)
}

func TestGuard_CustomCapability(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.SaveUnit(ctx, solar.Unit{ID: "u1", Segments: []string{"energia-solar"}}))

	assert.NoError(t, tenant.NewGuard(store, "energia-solar").Check(ctx, "u1"))
	assert.ErrorIs(t, tenant.NewGuard(store, "solar").Check(ctx, "u1"), solar.ErrNotFound)
}

// countingDirectory counts directory lookups.
type countingDirectory struct {
	solar.UnitDirectory
	calls int
}

func (c *countingDirectory) GetUnit(ctx context.Context, t solar.TenantID) (*solar.Unit, error) {
	c.calls++
	return c.UnitDirectory.GetUnit(ctx, t)
}

func TestGuard_AdmitSkipsRepeatLookups(t *testing.T) {
	// GIVEN: A guard over a counting directory
	// WHEN: A tenant is admitted and then checked repeatedly
	// THEN: Only the admission hits the directory; other tenants still do

	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.SaveUnit(ctx, solar.Unit{ID: "unit-solar", Segments: []string{"solar"}}))
	dir := &countingDirectory{UnitDirectory: store}
	guard := tenant.NewGuard(dir, "")

	admitted, err := guard.Admit(ctx, "unit-solar")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, guard.Check(admitted, "unit-solar"))
	}
	assert.Equal(t, 1, dir.calls)

	assert.ErrorIs(t, guard.Check(admitted, "unit-ghost"), solar.ErrNotFound)
	assert.Equal(t, 2, dir.calls)

	// A guard for another capability does not trust the admission.
	assert.ErrorIs(t, tenant.NewGuard(dir, "wind").Check(admitted, "unit-solar"), solar.ErrNotFound)

	_, err = guard.Admit(ctx, "unit-ghost")
	assert.ErrorIs(t, err, solar.ErrNotFound)
}
