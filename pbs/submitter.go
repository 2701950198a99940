package pbs

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/cascadehpc/simsched/common/stats"
)

// Submitter dispatches one request to the scheduler.
type Submitter interface {
	Submit(req SubmitRequest) error
}

// DispatchFailureError means the scheduler invocation itself failed. Fatal;
// the only recovery is operator re-invocation.
type DispatchFailureError struct {
	Cause error
}

func (e *DispatchFailureError) Error() string {
	return fmt.Sprintf("scheduler dispatch failed: %v", e.Cause)
}

// IsDispatchFailure reports whether err (or its cause) is a
// DispatchFailureError.
func IsDispatchFailure(err error) bool {
	_, ok := errors.Cause(err).(*DispatchFailureError)
	return ok
}

// ExecSubmitter shells out to qsub. The child inherits our stderr so
// scheduler diagnostics reach the operator, and stdout (the job id) is
// logged.
type ExecSubmitter struct {
	Stat stats.StatsReceiver
}

func NewExecSubmitter(stat stats.StatsReceiver) *ExecSubmitter {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return &ExecSubmitter{Stat: stat.Scope("pbs")}
}

func (s *ExecSubmitter) Submit(req SubmitRequest) error {
	argv := req.Argv()
	log.WithFields(log.Fields{
		"name":     req.Name,
		"queue":    req.Queue,
		"select":   req.ResourceSelect(),
		"walltime": req.Walltime,
		"array":    req.ArrayRange,
	}).Info("Submitting to scheduler")

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stderr = os.Stderr
	out, err := cmd.Output()
	if err != nil {
		s.Stat.Counter("dispatchFailures").Inc(1)
		return &DispatchFailureError{Cause: err}
	}
	s.Stat.Counter("dispatches").Inc(1)
	log.WithFields(log.Fields{"jobId": string(out)}).Info("Scheduler accepted job")
	return nil
}
