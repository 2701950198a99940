package solver

import (
	"time"

	"github.com/cascadehpc/simsched/common/walltime"
)

// ResourcePlan is one sized allocation: what to reserve and how long it
// should run. Produced fresh per estimate, never mutated afterward.
type ResourcePlan struct {
	Nodes            int
	TasksPerNode     int
	PredictedSeconds float64
	// MemPerNodeGB is the per-node memory request; MemPerNodeGB*Nodes always
	// covers the modeled footprint.
	MemPerNodeGB float64
	TotalMemGB   float64
	Walltime     time.Duration
}

// TotalCores is the reserved core count, nodes * tasks per node.
func (p ResourcePlan) TotalCores() int {
	return p.Nodes * p.TasksPerNode
}

// WalltimeStr renders the requested walltime as HH:MM:SS for the scheduler.
func (p ResourcePlan) WalltimeStr() string {
	return walltime.Format(p.Walltime)
}
