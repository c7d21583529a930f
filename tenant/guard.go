// Package tenant gates every engine operation on the tenant directory.
//
// A tenant passes the guard when its unit record exists and declares the
// solar capability among its market segments. Both failures surface as the
// same solar.ErrNotFound so callers cannot tell which tenants exist.
package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/warp/solar-engine/solar"
)

// DefaultCapability is the segment a unit must declare.
const DefaultCapability = "solar"

type Guard struct {
	dir        solar.UnitDirectory
	capability string
}

func NewGuard(dir solar.UnitDirectory, capability string) *Guard {
	if capability == "" {
		capability = DefaultCapability
	}
	return &Guard{dir: dir, capability: capability}
}

// admission marks a context whose tenant already passed a guard with the
// same capability.
type admission struct {
	tenant     solar.TenantID
	capability string
}

type admissionKey struct{}

// Admit checks tenant once and returns a context under which later Checks
// for the same tenant and capability skip the directory lookup. Composite
// reads that fan out over several components use it.
func (g *Guard) Admit(ctx context.Context, tenant solar.TenantID) (context.Context, error) {
	if err := g.Check(ctx, tenant); err != nil {
		return ctx, err
	}
	return context.WithValue(ctx, admissionKey{}, admission{tenant: tenant, capability: g.capability}), nil
}

// Check returns nil when tenant may use the engine.
func (g *Guard) Check(ctx context.Context, tenant solar.TenantID) error {
	if a, ok := ctx.Value(admissionKey{}).(admission); ok && a.tenant == tenant && a.capability == g.capability {
		return nil
	}
	unit, err := g.dir.GetUnit(ctx, tenant)
	if err != nil {
		if errors.Is(err, solar.ErrNotFound) {
			return &solar.NotFoundError{Kind: "tenant", TenantID: tenant}
		}
		return fmt.Errorf("tenant lookup: %w", err)
	}
	if !unit.HasSegment(g.capability) {
		return &solar.NotFoundError{Kind: "tenant", TenantID: tenant}
	}
	return nil
}
