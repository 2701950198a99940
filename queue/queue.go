// Package queue maps a resource request onto the cluster's scheduler
// partitions. Partitions are bucketed two ways: per-node memory (standard vs
// high-memory nodes) and requested walltime (short vs long).
package queue

import (
	"time"
)

// Tier is a scheduler partition name.
type Tier string

const (
	StandardShort Tier = "shortq"
	StandardLong  Tier = "longq"
	HighMemShort  Tier = "high_mem_shortq"
	HighMemLong   Tier = "high_mem_longq"
)

// Config holds the partition boundaries. The high-memory cutoff differs
// across deployments (450, 500 and 735 GB have all been live values), so it
// is configuration, never a constant in code.
type Config struct {
	HighMemCutoffGB float64
	LongBoundary    time.Duration
}

// DefaultConfig matches the current Cascade partition layout.
var DefaultConfig = Config{
	HighMemCutoffGB: 500.0,
	LongBoundary:    48 * time.Hour,
}

// Classify picks the partition for a per-node memory request and requested
// walltime. Total over the 2x2 tier space; no side effects.
func (c Config) Classify(memPerNodeGB float64, walltime time.Duration) Tier {
	long := walltime > c.LongBoundary
	if memPerNodeGB > c.HighMemCutoffGB {
		if long {
			return HighMemLong
		}
		return HighMemShort
	}
	if long {
		return StandardLong
	}
	return StandardShort
}
