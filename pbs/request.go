// Package pbs adapts a submission decision onto the external batch
// scheduler. It knows qsub's command-line surface and nothing about how the
// request was sized; dispatch failures are fatal and never retried here.
package pbs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cascadehpc/simsched/queue"
)

// SubmitRequest is one scheduler dispatch: a resource selection, a queue, a
// walltime limit, an optional array index range, and the environment handed
// to the job script.
type SubmitRequest struct {
	Name         string
	Queue        queue.Tier
	Nodes        int
	TasksPerNode int
	MemPerNodeMB int
	Walltime     string
	// ArrayRange is "1-N" for a true array job, empty for a single job.
	ArrayRange string
	Env        map[string]string
	Script     string
}

// ResourceSelect renders the PBS select statement. Memory is requested in MB
// to avoid rounding inflation at the GB granularity.
func (r SubmitRequest) ResourceSelect() string {
	return fmt.Sprintf("select=%d:ncpus=%d:mpiprocs=%d:ompthreads=1:mem=%dmb",
		r.Nodes, r.TasksPerNode, r.TasksPerNode, r.MemPerNodeMB)
}

// EnvString renders the -v argument with keys sorted for determinism.
func (r SubmitRequest) EnvString() string {
	keys := make([]string, 0, len(r.Env))
	for k := range r.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, r.Env[k]))
	}
	return strings.Join(pairs, ",")
}

// Argv is the full qsub invocation for this request.
func (r SubmitRequest) Argv() []string {
	argv := []string{
		"qsub",
		"-N", r.Name,
		"-q", string(r.Queue),
		"-l", r.ResourceSelect(),
		"-l", fmt.Sprintf("walltime=%s", r.Walltime),
	}
	if r.ArrayRange != "" {
		argv = append(argv, "-J", r.ArrayRange)
	}
	argv = append(argv, "-v", r.EnvString(), r.Script)
	return argv
}
