package solver

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/cascadehpc/simsched/sim"
)

// Solver invariants that must hold for every valid profile, under every
// strategy preset that can't legitimately refuse the job.
func Test_SolverInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	for _, name := range []string{"interactive", "cybershake", "throughput"} {
		pol, _ := Preset(name)
		hw := DefaultHardware

		properties.Property("plan respects capacity and margins under "+name, prop.ForAll(
			func(nx, ny, nz, nt int) bool {
				cost, err := sim.EstimateCost(sim.Profile{NX: nx, NY: ny, NZ: nz, NT: nt})
				if err != nil {
					return false
				}
				plan, err := New(hw, pol, nil).Solve(cost)
				if err != nil {
					// Grids in this range always fit the cap.
					return false
				}

				minNodesMem := int(math.Ceil(cost.MemoryGB / hw.UsableRAMPerNodeGB()))
				if minNodesMem < 1 {
					minNodesMem = 1
				}
				if plan.Nodes < minNodesMem || plan.Nodes > hw.MaxNodes {
					return false
				}
				if plan.MemPerNodeGB*float64(plan.Nodes) < cost.MemoryGB {
					return false
				}
				if plan.MemPerNodeGB > hw.RAMPerNodeGB {
					return false
				}
				if plan.TasksPerNode < 1 || plan.TasksPerNode > hw.CoresPerNode {
					return false
				}
				if plan.Walltime.Seconds() < 1.2*plan.PredictedSeconds {
					return false
				}
				return true
			},
			gen.IntRange(64, 512),
			gen.IntRange(64, 512),
			gen.IntRange(64, 512),
			gen.IntRange(1000, 1000000),
		))
	}

	properties.TestingRun(t)
}

// The density throttle never drops below one task per node, no matter how
// aggressive the per-core memory floor is.
func Test_DensityThrottleFloorProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("tasks per node >= 1", prop.ForAll(
		func(memGB float64, minPerCore float64, n int) bool {
			pol, _ := Preset("interactive")
			pol.HighDensityThresholdGB = 1 // throttle always active
			pol.MinGBPerCoreDense = minPerCore
			s := New(DefaultHardware, pol, nil)
			c := s.evaluate(sim.Cost{MemoryGB: memGB, Volume: 1e9}, n)
			return c.tasks >= 1 && c.tasks <= DefaultHardware.CoresPerNode
		},
		gen.Float64Range(0.1, 10000),
		gen.Float64Range(0.5, 10000),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}
