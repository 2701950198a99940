// Sizes the resources for one simulation fault and prints a shell-evaluable
// KEY=VALUE contract on stdout. All diagnostics go to stderr so callers can
// eval the output directly.
package main

import (
	"fmt"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cascadehpc/simsched/common/stats"
	"github.com/cascadehpc/simsched/estimate"
	"github.com/cascadehpc/simsched/paths"
	"github.com/cascadehpc/simsched/sim"
	"github.com/cascadehpc/simsched/solver"
)

type estimateCmd struct {
	preset      string
	targetHours float64
	maxNodes    int
	savePath    string
}

func main() {
	log.SetOutput(os.Stderr)

	ec := &estimateCmd{}
	rootCmd := &cobra.Command{
		Use:           "estimate <fault-name-or-path> [target-hours]",
		Short:         "estimate sizes node/task/memory/walltime requests for a simulation",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ec.run(args)
		},
	}
	rootCmd.Flags().StringVar(&ec.preset, "preset", "interactive", "scaling policy preset (interactive, cybershake, throughput, tierpack)")
	rootCmd.Flags().Float64Var(&ec.targetHours, "target-hours", 0, "override the preset's target walltime in hours")
	rootCmd.Flags().IntVar(&ec.maxNodes, "max-nodes", 0, "override the node cap")
	rootCmd.Flags().StringVar(&ec.savePath, "save", "", "also persist the estimate record to this path (rotating any prior record)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (ec *estimateCmd) run(args []string) error {
	pol, ok := solver.Preset(ec.preset)
	if !ok {
		return fmt.Errorf("unknown preset %q", ec.preset)
	}
	if len(args) > 1 {
		hours, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("bad target hours %q: %v", args[1], err)
		}
		pol.TargetHours = hours
	}
	if ec.targetHours > 0 {
		pol.TargetHours = ec.targetHours
	}
	hw := solver.DefaultHardware
	if ec.maxNodes > 0 {
		hw.MaxNodes = ec.maxNodes
	}

	resolver := paths.FS{}
	vmPath, rootPath, err := resolver.ResolveProfile(args[0])
	if err != nil {
		return err
	}
	profile, err := sim.LoadProfile(vmPath, rootPath)
	if err != nil {
		return err
	}
	cost, err := sim.EstimateCost(profile)
	if err != nil {
		return err
	}

	stat := stats.DefaultStatsReceiver()
	plan, err := solver.New(hw, pol, stat).Solve(cost)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"totalMemGB":     fmt.Sprintf("%.2f", cost.MemoryGB),
		"predictedHours": fmt.Sprintf("%.2f", plan.PredictedSeconds/3600),
	}).Info("Estimate details")

	// The stdout contract. Nothing else may print here.
	fmt.Printf("NODES=%d\n", plan.Nodes)
	fmt.Printf("TASKS_PER_NODE=%d\n", plan.TasksPerNode)
	fmt.Printf("MEM_PER_NODE=%dgb\n", int(plan.MemPerNodeGB))
	fmt.Printf("WALLTIME=%s\n", plan.WalltimeStr())

	if ec.savePath != "" {
		if err := estimate.Save(ec.savePath, estimate.FromPlan(plan)); err != nil {
			return err
		}
	}
	return nil
}
