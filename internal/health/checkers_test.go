package health

import (
	"context"
	"testing"

	"github.com/aurelink/aurelink/pkg/pool"
	"github.com/aurelink/aurelink/pkg/routeplanner"
)

func TestPoolChecker_HealthyWhenUnderBudget(t *testing.T) {
	p := pool.New()
	if err := PoolChecker(p).Check(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRoutePlannerChecker_NilPlannerIsHealthy(t *testing.T) {
	if err := RoutePlannerChecker(nil).Check(context.Background()); err != nil {
		t.Fatalf("unexpected error for nil planner: %v", err)
	}
}

func TestRoutePlannerChecker_HealthyWithFreeAddress(t *testing.T) {
	planner, err := routeplanner.NewRotatingIP("10.0.0.0/30", nil)
	if err != nil {
		t.Fatalf("NewRotatingIP: %v", err)
	}
	if err := RoutePlannerChecker(planner).Check(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRoutePlannerChecker_FailsWhenExhausted(t *testing.T) {
	planner, err := routeplanner.NewRotatingIP("10.0.0.0/30", []string{"10.0.0.0", "10.0.0.1", "10.0.0.2", "10.0.0.3"})
	if err != nil {
		t.Fatalf("NewRotatingIP: %v", err)
	}
	if err := RoutePlannerChecker(planner).Check(context.Background()); err == nil {
		t.Fatal("expected an error when every address is excluded")
	}
}
