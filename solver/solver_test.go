package solver

import (
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/cascadehpc/simsched/sim"
)

func mustCost(t *testing.T, nx, ny, nz, nt int) sim.Cost {
	t.Helper()
	cost, err := sim.EstimateCost(sim.Profile{NX: nx, NY: ny, NZ: nz, NT: nt})
	if err != nil {
		t.Fatalf("EstimateCost: %v", err)
	}
	return cost
}

func preset(t *testing.T, name string) ScalingPolicyConfig {
	t.Helper()
	pol, ok := Preset(name)
	if !ok {
		t.Fatalf("no preset %q", name)
	}
	return pol
}

// A 400^3 grid at 20k steps fits one node and finishes well under the
// small-job bound, so efficiency-first must not add nodes for speed.
func Test_EfficiencyFirst_SmallJobStaysOnOneNode(t *testing.T) {
	cost := mustCost(t, 400, 400, 400, 20000)
	plan, err := New(DefaultHardware, preset(t, "interactive"), nil).Solve(cost)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Nodes != 1 {
		t.Errorf("Nodes = %d, want 1\n%s", plan.Nodes, spew.Sdump(plan))
	}
	if plan.TasksPerNode != DefaultHardware.CoresPerNode {
		t.Errorf("TasksPerNode = %d, want %d", plan.TasksPerNode, DefaultHardware.CoresPerNode)
	}
	if plan.PredictedSeconds >= 5*3600 {
		t.Errorf("predicted %f s should be under the small-job bound", plan.PredictedSeconds)
	}
}

// The same grid at 2M steps cannot approach a 1 hour target, so the solver
// scales to the node cap chasing it.
func Test_EfficiencyFirst_LargeJobScalesToCap(t *testing.T) {
	cost := mustCost(t, 400, 400, 400, 2000000)
	plan, err := New(DefaultHardware, preset(t, "interactive"), nil).Solve(cost)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Nodes != DefaultHardware.MaxNodes {
		t.Errorf("Nodes = %d, want cap %d", plan.Nodes, DefaultHardware.MaxNodes)
	}
	wantPred := DefaultSlope * cost.Volume / float64(plan.TotalCores())
	if math.Abs(plan.PredictedSeconds-wantPred) > 1e-6 {
		t.Errorf("PredictedSeconds = %f, want %f", plan.PredictedSeconds, wantPred)
	}
}

func Test_CapPolicy_StrictVsClamp(t *testing.T) {
	// ~7.2 TB of grid memory, far past a 10 node cap.
	cost := sim.Cost{MemoryGB: 7200, Volume: 1e12}

	_, err := New(DefaultHardware, preset(t, "interactive"), nil).Solve(cost)
	if !IsCapacityExceeded(err) {
		t.Errorf("strict: err = %v, want CapacityExceededError", err)
	}

	plan, err := New(DefaultHardware, preset(t, "cybershake"), nil).Solve(cost)
	if err != nil {
		t.Fatalf("clamp: unexpected error: %v", err)
	}
	if plan.Nodes != DefaultHardware.MaxNodes {
		t.Errorf("clamp: Nodes = %d, want cap %d", plan.Nodes, DefaultHardware.MaxNodes)
	}
}

// Compute-threshold sizes from required cores but reports the runtime of the
// clamped allocation, not the ideal one.
func Test_ComputeThreshold_ReportsActualRuntime(t *testing.T) {
	cost := mustCost(t, 400, 400, 400, 2000000)
	pol := preset(t, "throughput")
	plan, err := New(DefaultHardware, pol, nil).Solve(cost)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Nodes != DefaultHardware.MaxNodes {
		t.Errorf("Nodes = %d, want cap %d", plan.Nodes, DefaultHardware.MaxNodes)
	}
	if plan.TasksPerNode != DefaultHardware.CoresPerNode {
		t.Errorf("TasksPerNode = %d, want full %d", plan.TasksPerNode, DefaultHardware.CoresPerNode)
	}
	wantPred := pol.SlopeSecPerByteStep * cost.Volume / float64(plan.TotalCores())
	if math.Abs(plan.PredictedSeconds-wantPred) > 1e-6 {
		t.Errorf("PredictedSeconds = %f, want %f (actual cores)", plan.PredictedSeconds, wantPred)
	}
}

// 600 GB of grid: every low node count lands in the high-memory tier once
// per-rank overhead is added, but ten nodes squeeze under the standard
// ceiling. Standard tier must win despite needing far more nodes.
func Test_QueueTier_PrefersStandardTier(t *testing.T) {
	cost := sim.Cost{MemoryGB: 600, Volume: 1e12}
	pol := preset(t, "tierpack")
	plan, err := New(DefaultHardware, pol, nil).Solve(cost)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Nodes != 10 {
		t.Errorf("Nodes = %d, want 10 (cheapest standard-tier candidate)", plan.Nodes)
	}
	if plan.MemPerNodeGB >= pol.StandardTierCeilingGB {
		t.Errorf("MemPerNodeGB = %f, want under the %f standard ceiling",
			plan.MemPerNodeGB, pol.StandardTierCeilingGB)
	}
}

func Test_QueueTier_Infeasible(t *testing.T) {
	cost := sim.Cost{MemoryGB: 8000, Volume: 1e12}
	_, err := New(DefaultHardware, preset(t, "tierpack"), nil).Solve(cost)
	if !IsInfeasible(err) {
		t.Errorf("err = %v, want InfeasibleError", err)
	}
}

func Test_DensityThrottle(t *testing.T) {
	pol := preset(t, "interactive")
	pol.HighDensityThresholdGB = 500
	pol.MinGBPerCoreDense = 8

	s := New(DefaultHardware, pol, nil)
	c := s.evaluate(sim.Cost{MemoryGB: 640, Volume: 1e12}, 1)
	if c.tasks != 80 {
		t.Errorf("tasks = %d, want 80 (640 GB / 8 GB per core)", c.tasks)
	}

	// The throttle floors at one task even under absurd density demands.
	pol.MinGBPerCoreDense = 10000
	s = New(DefaultHardware, pol, nil)
	c = s.evaluate(sim.Cost{MemoryGB: 640, Volume: 1e12}, 1)
	if c.tasks != 1 {
		t.Errorf("tasks = %d, want floor of 1", c.tasks)
	}
}

func Test_WalltimePadding(t *testing.T) {
	cost := mustCost(t, 400, 400, 400, 20000)
	pol := preset(t, "interactive")
	plan, err := New(DefaultHardware, pol, nil).Solve(cost)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	min := plan.PredictedSeconds * 1.2
	if plan.Walltime.Seconds() < min {
		t.Errorf("Walltime %f s below the 1.2x margin (%f s)", plan.Walltime.Seconds(), min)
	}
	if plan.Walltime.Seconds() < plan.PredictedSeconds+float64(pol.WalltimePadSeconds) {
		t.Errorf("Walltime %f s missing the %d s additive pad", plan.Walltime.Seconds(), pol.WalltimePadSeconds)
	}
}
