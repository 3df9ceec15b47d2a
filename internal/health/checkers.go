package health

import (
	"context"
	"fmt"

	"github.com/aurelink/aurelink/pkg/pool"
	"github.com/aurelink/aurelink/pkg/routeplanner"
)

// PoolChecker returns a [Checker] reporting the shared byte pool unhealthy
// if it has grown past its own budget, which would mean the accounting in
// [pool.Pool] itself is broken (Release enforces the MaxPoolBytes cap, so
// this should never actually fire in a correct build).
func PoolChecker(p *pool.Pool) Checker {
	return Checker{
		Name: "byte_pool",
		Check: func(_ context.Context) error {
			stats := p.Stats()
			if stats.TotalBytes > pool.MaxPoolBytes {
				return fmt.Errorf("pool holds %d bytes, over the %d byte budget", stats.TotalBytes, pool.MaxPoolBytes)
			}
			return nil
		},
	}
}

// RoutePlannerChecker returns a [Checker] reporting the configured route
// planner unhealthy once it can no longer offer an address — every entry
// in its block is excluded or marked failing, so every subsequent load
// would bind from the same (likely banned) address. Address() has no
// side effect beyond its normal rotation bookkeeping, so probing it here
// is safe to run on every /readyz request.
func RoutePlannerChecker(planner routeplanner.Planner) Checker {
	return Checker{
		Name: "route_planner",
		Check: func(_ context.Context) error {
			if planner == nil {
				return nil
			}
			if _, ok := planner.Address(); !ok {
				return fmt.Errorf("route planner has no free address: %+v", planner.Status())
			}
			return nil
		},
	}
}
