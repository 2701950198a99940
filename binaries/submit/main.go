// Reconciles a fault's run directories against their lifecycle states and
// dispatches one scheduler submission: the median run as a single job, or
// every pending realisation as an array job.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cascadehpc/simsched/common/stats"
	"github.com/cascadehpc/simsched/estimate"
	"github.com/cascadehpc/simsched/paths"
	"github.com/cascadehpc/simsched/pbs"
	"github.com/cascadehpc/simsched/planner"
	"github.com/cascadehpc/simsched/runstate"
	"github.com/cascadehpc/simsched/sim"
	"github.com/cascadehpc/simsched/solver"
)

const (
	defaultBin      = "/uoc/project/uoc40001/EMOD3D/tools/emod3d-mpi_v3.0.8"
	defaultsName    = "emod3d_defaults.yaml"
	estimateName    = "emod3d_estimate.yaml"
	masterPBSScript = "run_emod3d.pbs"
)

type submitCmd struct {
	estYAML    string
	force      bool
	reEstimate bool
	yes        bool
	dryRun     bool
	preset     string
	binPath    string
	script     string

	stat stats.StatsReceiver
}

func main() {
	log.SetOutput(os.Stderr)

	sc := &submitCmd{}
	rootCmd := &cobra.Command{
		Use:           "submit <fault-name> [MEDIAN|ALL]",
		Short:         "submit dispatches pending simulation runs to the batch scheduler",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := "MEDIAN"
			if len(args) > 1 {
				mode = args[1]
			}
			return sc.run(args[0], mode)
		},
	}
	rootCmd.Flags().StringVar(&sc.estYAML, "est-yaml", "", "override the estimate record path")
	rootCmd.Flags().BoolVar(&sc.force, "force", false, "submit runs even if they appear IN_PROGRESS")
	rootCmd.Flags().BoolVar(&sc.reEstimate, "re-estimate", false, "regenerate the estimate record before submitting")
	rootCmd.Flags().BoolVar(&sc.yes, "yes", false, "answer yes to all confirmations (non-interactive)")
	rootCmd.Flags().BoolVar(&sc.dryRun, "dry-run", false, "plan the submission but don't call the scheduler")
	rootCmd.Flags().StringVar(&sc.preset, "preset", "cybershake", "scaling policy preset for (re-)estimation")
	rootCmd.Flags().StringVar(&sc.binPath, "bin", defaultBin, "simulator binary path handed to the job")
	rootCmd.Flags().StringVar(&sc.script, "script", masterPBSScript, "master PBS job script")

	if err := rootCmd.Execute(); err != nil {
		if err == planner.ErrNoEligibleTargets {
			fmt.Fprintln(os.Stderr, "All runs finished or in progress; nothing to submit.")
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (sc *submitCmd) run(faultName, mode string) error {
	sc.stat = stats.DefaultStatsReceiver()

	resolver := paths.FS{}
	faultDir, runsRoot, err := resolver.ResolveFault(faultName)
	if err != nil {
		return err
	}
	defaultsFile := paths.DefaultsPath(runsRoot, defaultsName)
	if _, err := os.Stat(defaultsFile); err != nil {
		return fmt.Errorf("defaults file missing: %s", defaultsFile)
	}

	rec, err := sc.resolveRecord(faultName, faultDir, resolver)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"nodes":    rec.Nodes,
		"tasks":    rec.TasksPerNode,
		"memGB":    rec.MemGB,
		"walltime": rec.Walltime,
	}).Info("Loaded resource estimate")

	var runDirs []string
	switch mode {
	case "MEDIAN":
		medianDir := filepath.Join(faultDir, faultName)
		if fi, err := os.Stat(medianDir); err != nil || !fi.IsDir() {
			return fmt.Errorf("median directory missing: %s", medianDir)
		}
		runDirs = []string{medianDir}
	case "ALL":
		runDirs, err = realisationDirs(faultDir, faultName)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown mode %q, want MEDIAN or ALL", mode)
	}

	var confirm planner.Confirmer = &planner.StdinConfirmer{OnNonInteractive: sc.force}
	if sc.yes {
		confirm = planner.AlwaysYes
	}

	logsDir := filepath.Join(faultDir, "Logs_Submission")
	if err := os.MkdirAll(logsDir, 0777); err != nil {
		return err
	}

	p := planner.New(runstate.DefaultTracker, confirm, sc.stat)
	req, targets, err := p.Plan(planner.Request{
		FaultName:    faultName,
		RunDirs:      runDirs,
		Record:       rec,
		Force:        sc.force,
		BinPath:      sc.binPath,
		DefaultsPath: defaultsFile,
		ManifestPath: filepath.Join(logsDir, fmt.Sprintf("%s_realisations.map", faultName)),
		Script:       sc.script,
	})
	if err != nil {
		return err
	}
	for _, t := range targets {
		log.WithFields(log.Fields{"target": filepath.Base(t)}).Info("Dispatch target")
	}

	if sc.dryRun {
		fmt.Fprintln(os.Stderr, spew.Sdump(req))
		return nil
	}
	return pbs.NewExecSubmitter(sc.stat).Submit(req)
}

// resolveRecord loads the estimate record, regenerating it first when asked.
// A custom --est-yaml path is used as-is and never regenerated.
func (sc *submitCmd) resolveRecord(faultName, faultDir string, resolver paths.Resolver) (estimate.Record, error) {
	recPath := filepath.Join(faultDir, estimateName)
	if sc.estYAML != "" {
		return estimate.Load(sc.estYAML)
	}
	if sc.reEstimate {
		rec, err := sc.estimateFresh(faultName, resolver)
		if err != nil {
			return estimate.Record{}, err
		}
		if err := estimate.Save(recPath, rec); err != nil {
			return estimate.Record{}, err
		}
		return rec, nil
	}
	if _, err := os.Stat(recPath); os.IsNotExist(err) {
		// First submission for this fault: estimate and persist.
		rec, err := sc.estimateFresh(faultName, resolver)
		if err != nil {
			return estimate.Record{}, err
		}
		if err := estimate.Save(recPath, rec); err != nil {
			return estimate.Record{}, err
		}
		return rec, nil
	}
	return estimate.Load(recPath)
}

func (sc *submitCmd) estimateFresh(faultName string, resolver paths.Resolver) (estimate.Record, error) {
	pol, ok := solver.Preset(sc.preset)
	if !ok {
		return estimate.Record{}, fmt.Errorf("unknown preset %q", sc.preset)
	}
	vmPath, rootPath, err := resolver.ResolveProfile(faultName)
	if err != nil {
		return estimate.Record{}, err
	}
	profile, err := sim.LoadProfile(vmPath, rootPath)
	if err != nil {
		return estimate.Record{}, err
	}
	cost, err := sim.EstimateCost(profile)
	if err != nil {
		return estimate.Record{}, err
	}
	plan, err := solver.New(solver.DefaultHardware, pol, sc.stat).Solve(cost)
	if err != nil {
		return estimate.Record{}, err
	}
	return estimate.FromPlan(plan), nil
}

// realisationDirs lists <fault>_REL* run directories in stable order.
func realisationDirs(faultDir, faultName string) ([]string, error) {
	pattern := filepath.Join(faultDir, fmt.Sprintf("%s_REL*", faultName))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	dirs := []string{}
	for _, m := range matches {
		if fi, err := os.Stat(m); err == nil && fi.IsDir() {
			dirs = append(dirs, m)
		}
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no realisation directories match %s", pattern)
	}
	return dirs, nil
}
