package solver

import (
	"fmt"

	"github.com/pkg/errors"
)

// CapacityExceededError means the memory footprint alone needs more nodes
// than the operator cap allows, before any compute scaling. Raised only
// under CapStrict; CapClamp degrades with a warning instead.
type CapacityExceededError struct {
	NodesNeeded int
	Cap         int
	MemoryGB    float64
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("job needs %d nodes for %.2f GB of memory, exceeding the %d node cap",
		e.NodesNeeded, e.MemoryGB, e.Cap)
}

// IsCapacityExceeded reports whether err (or its cause) is a
// CapacityExceededError.
func IsCapacityExceeded(err error) bool {
	_, ok := errors.Cause(err).(*CapacityExceededError)
	return ok
}

// InfeasibleError means no candidate node count satisfied both a queue tier
// memory ceiling and the walltime bound.
type InfeasibleError struct {
	Reason string
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("no feasible resource plan: %s", e.Reason)
}

// IsInfeasible reports whether err (or its cause) is an InfeasibleError.
func IsInfeasible(err error) bool {
	_, ok := errors.Cause(err).(*InfeasibleError)
	return ok
}
