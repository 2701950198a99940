package solver

import (
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cascadehpc/simsched/common/stats"
	"github.com/cascadehpc/simsched/sim"
)

// Solver sizes an allocation for one simulation against a hardware profile
// and scaling policy. Pure computation; safe to construct per call.
type Solver struct {
	hw   HardwareProfile
	pol  ScalingPolicyConfig
	stat stats.StatsReceiver
}

func New(hw HardwareProfile, pol ScalingPolicyConfig, stat stats.StatsReceiver) *Solver {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return &Solver{hw: hw, pol: pol, stat: stat.Scope("solver")}
}

// A candidate allocation at one node count.
type candidate struct {
	nodes   int
	tasks   int
	cores   int
	predSec float64
}

// Solve picks (nodes, tasksPerNode) for cost under the configured strategy,
// then pads the predicted runtime into a requested walltime.
func (s *Solver) Solve(cost sim.Cost) (ResourcePlan, error) {
	minNodes, err := s.minNodesMem(cost)
	if err != nil {
		s.stat.Counter("capacityExceeded").Inc(1)
		return ResourcePlan{}, err
	}

	var best candidate
	switch s.pol.Mode {
	case ComputeThreshold:
		best = s.solveComputeThreshold(cost, minNodes)
	case QueueTierOptimized:
		best, err = s.solveQueueTier(cost)
		if err != nil {
			s.stat.Counter("infeasible").Inc(1)
			return ResourcePlan{}, err
		}
	default:
		best = s.solveEfficiencyFirst(cost, minNodes)
	}

	plan := s.finish(cost, best)
	s.stat.Counter("plans").Inc(1)
	s.stat.Gauge("lastNodes").Update(int64(plan.Nodes))
	s.stat.GaugeFloat("lastPredictedHours").Update(plan.PredictedSeconds / 3600)
	log.WithFields(log.Fields{
		"mode":       s.pol.Mode,
		"nodes":      plan.Nodes,
		"tasks":      plan.TasksPerNode,
		"memGB":      cost.MemoryGB,
		"predicted":  time.Duration(plan.PredictedSeconds * float64(time.Second)),
		"walltime":   plan.WalltimeStr(),
		"totalCores": plan.TotalCores(),
	}).Info("Resource plan selected")
	return plan, nil
}

// minNodesMem is the node count needed to hold the grid in usable RAM,
// subject to the cap policy.
func (s *Solver) minNodesMem(cost sim.Cost) (int, error) {
	n := int(math.Ceil(cost.MemoryGB / s.hw.UsableRAMPerNodeGB()))
	if n < 1 {
		n = 1
	}
	if n > s.hw.MaxNodes {
		if s.pol.CapPolicy == CapStrict {
			return 0, &CapacityExceededError{NodesNeeded: n, Cap: s.hw.MaxNodes, MemoryGB: cost.MemoryGB}
		}
		log.WithFields(log.Fields{
			"nodesNeeded": n,
			"cap":         s.hw.MaxNodes,
			"memGB":       cost.MemoryGB,
		}).Warn("Memory requirement exceeds node cap, clamping; job may OOM")
		n = s.hw.MaxNodes
	}
	return n, nil
}

// evaluate applies the density throttle at node count n and predicts runtime.
func (s *Solver) evaluate(cost sim.Cost, n int) candidate {
	memPerNode := cost.MemoryGB / float64(n)
	tasks := s.hw.CoresPerNode
	if memPerNode > s.pol.HighDensityThresholdGB {
		maxSafe := int(memPerNode / s.pol.MinGBPerCoreDense)
		if maxSafe < tasks {
			tasks = maxSafe
		}
		if tasks < 1 {
			tasks = 1
		}
	}
	cores := n * tasks
	return candidate{
		nodes:   n,
		tasks:   tasks,
		cores:   cores,
		predSec: s.predictSeconds(cost, cores),
	}
}

func (s *Solver) predictSeconds(cost sim.Cost, cores int) float64 {
	return s.pol.SlopeSecPerByteStep * cost.Volume / float64(cores)
}

// solveEfficiencyFirst walks node counts up from the memory minimum. A job
// that already fits the small-job bound at the minimum stays there; adding
// nodes purely for speed wastes node-hours.
func (s *Solver) solveEfficiencyFirst(cost sim.Cost, minNodes int) candidate {
	targetSec := s.pol.TargetHours * 3600
	smallSec := s.pol.SmallJobHours * 3600

	var best candidate
	for n := minNodes; n <= s.hw.MaxNodes; n++ {
		c := s.evaluate(cost, n)
		if best.nodes == 0 {
			best = c
		}
		if n == minNodes && c.predSec < smallSec {
			return c
		}
		if c.predSec <= targetSec {
			return c
		}
		if c.cores > best.cores {
			best = c
		}
	}
	return best
}

// solveComputeThreshold derives the node count straight from the core count
// the target demands, then reports the runtime of the real (possibly
// clamped) allocation rather than the ideal one.
func (s *Solver) solveComputeThreshold(cost sim.Cost, minNodes int) candidate {
	targetSec := s.pol.TargetHours * 3600
	requiredCores := s.pol.SlopeSecPerByteStep * cost.Volume / targetSec
	minNodesCompute := int(math.Ceil(requiredCores / float64(s.hw.CoresPerNode)))

	n := minNodes
	if minNodesCompute > n {
		n = minNodesCompute
	}
	if n > s.hw.MaxNodes {
		n = s.hw.MaxNodes
	}
	cores := n * s.hw.CoresPerNode
	return candidate{
		nodes:   n,
		tasks:   s.hw.CoresPerNode,
		cores:   cores,
		predSec: s.predictSeconds(cost, cores),
	}
}

// Tier penalty: any standard-queue candidate beats any high-memory one, and
// within a tier fewer nodes win.
const highMemPenalty = 1 << 16

// solveQueueTier enumerates every node count, accounts per-rank overhead on
// top of the grid, and scores feasible candidates by (tier penalty, nodes).
func (s *Solver) solveQueueTier(cost sim.Cost) (candidate, error) {
	maxSec := s.pol.MaxWalltimeHours * 3600

	bestScore := math.MaxInt32
	var best candidate
	for n := 1; n <= s.hw.MaxNodes; n++ {
		c := s.evaluate(cost, n)
		totalMem := cost.MemoryGB + float64(c.cores)*s.pol.PerTaskOverheadGB
		memPerNode := totalMem / float64(n)

		score := c.nodes
		switch {
		case memPerNode < s.pol.StandardTierCeilingGB:
		case memPerNode < s.pol.HighMemTierCeilingGB:
			score += highMemPenalty
		default:
			continue
		}
		if c.predSec > maxSec && n < s.hw.MaxNodes {
			continue
		}
		if score < bestScore {
			bestScore = score
			best = c
		}
	}
	if best.nodes == 0 {
		return candidate{}, &InfeasibleError{
			Reason: "no node count satisfies both a queue tier memory ceiling and the walltime bound",
		}
	}
	return best, nil
}

// finish pads the prediction into the requested walltime and fills the plan.
// The 20% margin plus the additive pad absorbs startup and I/O variance.
func (s *Solver) finish(cost sim.Cost, c candidate) ResourcePlan {
	reqSec := int(c.predSec*1.2) + s.pol.WalltimePadSeconds
	plan := ResourcePlan{
		Nodes:            c.nodes,
		TasksPerNode:     c.tasks,
		PredictedSeconds: c.predSec,
		Walltime:         time.Duration(reqSec) * time.Second,
	}
	if s.pol.Mode == QueueTierOptimized {
		plan.TotalMemGB = cost.MemoryGB + float64(c.cores)*s.pol.PerTaskOverheadGB
		plan.MemPerNodeGB = plan.TotalMemGB / float64(c.nodes)
	} else {
		plan.MemPerNodeGB = s.hw.RequestRAMGB
		plan.TotalMemGB = s.hw.RequestRAMGB * float64(c.nodes)
	}
	return plan
}
