package solver

// HardwareProfile describes one cluster node flavor. RequestRAMGB is the
// schedulable memory below the physical RAMPerNodeGB (the remainder is held
// back for OS and filesystem cache), and SafeRAMFraction further discounts
// it for MPI buffer and launcher overhead when sizing capacity.
type HardwareProfile struct {
	CoresPerNode    int
	RAMPerNodeGB    float64
	RequestRAMGB    float64
	SafeRAMFraction float64
	MaxNodes        int
}

// UsableRAMPerNodeGB is the per-node capacity the solver sizes against.
func (h HardwareProfile) UsableRAMPerNodeGB() float64 {
	return h.RequestRAMGB * h.SafeRAMFraction
}

// Mode selects which scaling strategy the solver runs.
type Mode int

const (
	// EfficiencyFirst starts at the memory minimum and only adds nodes when
	// the predicted runtime misses the target, never purely for speed on
	// small jobs.
	EfficiencyFirst Mode = iota
	// ComputeThreshold sizes directly from the core count needed to hit the
	// target walltime, then reports the runtime of the real allocation.
	ComputeThreshold
	// QueueTierOptimized enumerates all node counts and picks the cheapest
	// feasible candidate, preferring standard-queue placements over
	// high-memory ones.
	QueueTierOptimized
)

func (m Mode) String() string {
	switch m {
	case EfficiencyFirst:
		return "efficiency-first"
	case ComputeThreshold:
		return "compute-threshold"
	case QueueTierOptimized:
		return "queue-tier-optimized"
	}
	return "unknown"
}

// CapPolicy decides what happens when the memory minimum alone exceeds
// MaxNodes. Deployments disagree on this, so it's configuration.
type CapPolicy int

const (
	// CapStrict fails the estimate outright.
	CapStrict CapPolicy = iota
	// CapClamp caps at MaxNodes with a loud warning; the job may OOM.
	CapClamp
)

// ScalingPolicyConfig carries the strategy choice plus every tunable the
// historical deployment scripts hardcoded.
type ScalingPolicyConfig struct {
	Mode      Mode
	CapPolicy CapPolicy

	// SlopeSecPerByteStep converts computational volume into wall-seconds
	// per core. Empirical, cluster-specific.
	SlopeSecPerByteStep float64

	TargetHours      float64
	SmallJobHours    float64
	MaxWalltimeHours float64

	// Density throttle: above HighDensityThresholdGB per node, tasks are
	// reduced so each keeps MinGBPerCoreDense of headroom.
	HighDensityThresholdGB float64
	MinGBPerCoreDense      float64

	// Requested walltime is predicted*1.2 + WalltimePadSeconds.
	WalltimePadSeconds int

	// QueueTierOptimized only.
	PerTaskOverheadGB     float64
	StandardTierCeilingGB float64
	HighMemTierCeilingGB  float64
}

// DefaultHardware is the Cascade (Sapphire Rapids) high-memory node flavor.
var DefaultHardware = HardwareProfile{
	CoresPerNode:    192,
	RAMPerNodeGB:    755.0,
	RequestRAMGB:    735.0,
	SafeRAMFraction: 0.85,
	MaxNodes:        10,
}

// The empirical slope tuned against production runs on Cascade.
const DefaultSlope = 1.9e-9

// Presets name the historical per-deployment policy scripts.
var Presets = map[string]ScalingPolicyConfig{
	// Day-to-day single-fault estimation: keep small jobs on one node,
	// otherwise chase a 1 hour target. Fails rather than clamps at the cap.
	"interactive": {
		Mode:                   EfficiencyFirst,
		CapPolicy:              CapStrict,
		SlopeSecPerByteStep:    DefaultSlope,
		TargetHours:            1.0,
		SmallJobHours:          5.0,
		MaxWalltimeHours:       48.0,
		HighDensityThresholdGB: 755.0 * 0.85,
		MinGBPerCoreDense:      2.0,
		WalltimePadSeconds:     300,
	},
	// Cybershake batches: minimize node-hours and queue friction. Let jobs
	// run up to 24 h on few nodes; clamp rather than fail at the cap.
	"cybershake": {
		Mode:                   EfficiencyFirst,
		CapPolicy:              CapClamp,
		SlopeSecPerByteStep:    DefaultSlope,
		TargetHours:            24.0,
		SmallJobHours:          24.0,
		MaxWalltimeHours:       24.0,
		HighDensityThresholdGB: 755.0 * 0.85,
		MinGBPerCoreDense:      2.0,
		WalltimePadSeconds:     600,
	},
	// Deadline-driven runs: size straight from the core count the target
	// walltime demands.
	"throughput": {
		Mode:                   ComputeThreshold,
		CapPolicy:              CapStrict,
		SlopeSecPerByteStep:    DefaultSlope,
		TargetHours:            1.0,
		SmallJobHours:          1.0,
		MaxWalltimeHours:       48.0,
		HighDensityThresholdGB: 755.0 * 0.85,
		MinGBPerCoreDense:      2.0,
		WalltimePadSeconds:     300,
	},
	// Queue-tier packer: account per-rank overhead and prefer standard-queue
	// placements over high-memory ones.
	"tierpack": {
		Mode:                   QueueTierOptimized,
		CapPolicy:              CapStrict,
		SlopeSecPerByteStep:    DefaultSlope,
		TargetHours:            24.0,
		SmallJobHours:          24.0,
		MaxWalltimeHours:       48.0,
		HighDensityThresholdGB: 755.0 * 0.85,
		MinGBPerCoreDense:      2.0,
		WalltimePadSeconds:     900,
		PerTaskOverheadGB:      1.5,
		StandardTierCeilingGB:  350.0,
		HighMemTierCeilingGB:   730.0,
	},
}

// Preset returns a copy of the named preset policy.
func Preset(name string) (ScalingPolicyConfig, bool) {
	p, ok := Presets[name]
	return p, ok
}
