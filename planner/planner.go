// Package planner turns a set of candidate run directories plus their
// lifecycle states into one scheduler dispatch request, applying operator
// policy: finished runs are never resubmitted, fresh runs always are, and
// apparently-running runs need an explicit force plus confirmation.
package planner

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	uuid "github.com/nu7hatch/gouuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/cascadehpc/simsched/common/stats"
	"github.com/cascadehpc/simsched/common/walltime"
	"github.com/cascadehpc/simsched/estimate"
	"github.com/cascadehpc/simsched/pbs"
	"github.com/cascadehpc/simsched/queue"
	"github.com/cascadehpc/simsched/runstate"
)

// ErrAborted means the operator declined the confirmation prompt.
var ErrAborted = errors.New("submission aborted by operator")

// ErrNoEligibleTargets means every candidate is finished or still running.
// Not a failure; there is simply nothing to dispatch.
var ErrNoEligibleTargets = errors.New("all runs finished or in progress")

// The allocator guard keeps each rank this far below its literal memory
// share, leaving headroom for non-modeled overhead.
const maxMemSafety = 0.85

// Request is everything the planner needs for one dispatch decision.
type Request struct {
	FaultName    string
	RunDirs      []string
	Record       estimate.Record
	Force        bool
	BinPath      string
	DefaultsPath string
	ManifestPath string
	Script       string
	Restart      bool
}

// Planner holds the injected collaborators. Zero-value fields get safe
// defaults (DefaultTracker, AlwaysNo confirmation, default queue layout).
type Planner struct {
	Tracker  runstate.Tracker
	Confirm  Confirmer
	QueueCfg queue.Config
	// ReviseWalltime, when set, may raise the requested walltime before a
	// forced resubmission. Never lowers it.
	ReviseWalltime func(current time.Duration) time.Duration
	Stat           stats.StatsReceiver
}

func New(tracker runstate.Tracker, confirm Confirmer, stat stats.StatsReceiver) *Planner {
	if confirm == nil {
		confirm = AlwaysNo
	}
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return &Planner{
		Tracker:  tracker,
		Confirm:  confirm,
		QueueCfg: queue.DefaultConfig,
		Stat:     stat.Scope("planner"),
	}
}

// Plan filters req.RunDirs by lifecycle state, writes the target manifest,
// and assembles the scheduler request. Returns the ordered target list
// alongside the request.
func (p *Planner) Plan(req Request) (pbs.SubmitRequest, []string, error) {
	targets, forced := p.selectTargets(req)
	if len(targets) == 0 {
		return pbs.SubmitRequest{}, nil, ErrNoEligibleTargets
	}

	wall, err := walltime.Parse(req.Record.Walltime)
	if err != nil {
		return pbs.SubmitRequest{}, nil, errors.Wrap(err, "estimate record walltime")
	}

	if len(forced) > 0 {
		names := make([]string, len(forced))
		for i, d := range forced {
			names[i] = filepath.Base(d)
		}
		prompt := fmt.Sprintf("About to resubmit %d runs that appear IN_PROGRESS: %s. Proceed?",
			len(forced), strings.Join(names, ", "))
		if !p.Confirm.Confirm(prompt) {
			p.Stat.Counter("aborted").Inc(1)
			return pbs.SubmitRequest{}, nil, ErrAborted
		}
		if p.ReviseWalltime != nil {
			if revised := p.ReviseWalltime(wall); revised > wall {
				log.WithFields(log.Fields{
					"old": walltime.Format(wall),
					"new": walltime.Format(revised),
				}).Info("Walltime revised upward for forced resubmission")
				wall = revised
			}
		}
	}

	if err := writeManifest(req.ManifestPath, targets); err != nil {
		return pbs.SubmitRequest{}, nil, err
	}

	sub, err := p.assemble(req, targets, wall)
	if err != nil {
		return pbs.SubmitRequest{}, nil, err
	}
	p.Stat.Counter("planned").Inc(1)
	p.Stat.Gauge("lastTargets").Update(int64(len(targets)))
	return sub, targets, nil
}

// selectTargets applies the state policy: COMPLETED is excluded even under
// force, NEW always included, IN_PROGRESS included only under force (those
// are returned separately for the confirmation step).
func (p *Planner) selectTargets(req Request) (targets, forced []string) {
	for _, dir := range req.RunDirs {
		state := p.Tracker.State(dir)
		switch state {
		case runstate.Completed:
			log.WithFields(log.Fields{"run": filepath.Base(dir)}).Info("Skipping finished run")
			p.Stat.Counter("skippedCompleted").Inc(1)
		case runstate.InProgress:
			if req.Force {
				log.WithFields(log.Fields{"run": filepath.Base(dir)}).Warn("Force-including run that appears in progress")
				targets = append(targets, dir)
				forced = append(forced, dir)
				p.Stat.Counter("forced").Inc(1)
			} else {
				log.WithFields(log.Fields{"run": filepath.Base(dir)}).Info("Skipping run in progress (use force to retry)")
				p.Stat.Counter("skippedInProgress").Inc(1)
			}
		default:
			targets = append(targets, dir)
		}
	}
	return targets, forced
}

// assemble builds the scheduler request from the estimate record and target
// count. A single remaining target is submitted as a standard job with an
// injected array-index-1 marker, because the scheduler rejects -J 1-1.
func (p *Planner) assemble(req Request, targets []string, wall time.Duration) (pbs.SubmitRequest, error) {
	rec := req.Record
	if rec.Nodes < 1 || rec.TasksPerNode < 1 {
		return pbs.SubmitRequest{}, errors.Errorf("estimate record has invalid shape: %d nodes x %d tasks",
			rec.Nodes, rec.TasksPerNode)
	}

	memPerNodeMB := (rec.MemGB * 1024) / rec.Nodes
	if memPerNodeMB < 1024 {
		memPerNodeMB = 1024
	}
	totalTasks := rec.Nodes * rec.TasksPerNode
	maxMem := int(float64(rec.MemGB*1024) / float64(totalTasks) * maxMemSafety)

	id, err := uuid.NewV4()
	if err != nil {
		return pbs.SubmitRequest{}, errors.Wrap(err, "generating submission id")
	}

	restart := "no"
	if req.Restart {
		restart = "yes"
	}
	env := map[string]string{
		"MAXMEM":          fmt.Sprintf("%d", maxMem),
		"EMOD3D_BIN":      req.BinPath,
		"EMOD3D_DEFAULTS": req.DefaultsPath,
		"ENABLE_RESTART":  restart,
		"ARRAY_MAP_FILE":  req.ManifestPath,
		"SUBMISSION_ID":   id.String(),
	}

	arrayRange := ""
	if len(targets) == 1 {
		env["PBS_ARRAY_INDEX"] = "1"
	} else {
		arrayRange = fmt.Sprintf("1-%d", len(targets))
	}

	tier := p.QueueCfg.Classify(float64(memPerNodeMB)/1024, wall)
	return pbs.SubmitRequest{
		Name:         fmt.Sprintf("%s_Arr", req.FaultName),
		Queue:        tier,
		Nodes:        rec.Nodes,
		TasksPerNode: rec.TasksPerNode,
		MemPerNodeMB: memPerNodeMB,
		Walltime:     walltime.Format(wall),
		ArrayRange:   arrayRange,
		Env:          env,
		Script:       req.Script,
	}, nil
}
