// Package runstate classifies a simulation run directory's lifecycle from
// its log artifacts, without executing or monitoring the job itself. The
// classification is a derived, best-effort view: it is recomputed on every
// query and never cached or written back.
package runstate

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	log "github.com/sirupsen/logrus"
)

// State is the lifecycle of one run directory.
type State int

const (
	// New: the run directory exists but nothing has logged yet.
	New State = iota
	// InProgress: a log exists but the terminal success marker hasn't
	// appeared. Also the fail-open result for unreadable logs, so a caller
	// never silently resubmits a run that might actually be running.
	InProgress
	// Completed: the newest log ends with the terminal success marker.
	// Never leaves this state automatically; resubmission is an explicit
	// operator override.
	Completed
)

func (s State) String() string {
	switch s {
	case New:
		return "NEW"
	case InProgress:
		return "IN_PROGRESS"
	case Completed:
		return "COMPLETED"
	}
	return "UNKNOWN"
}

// Tracker locates and reads run logs. The zero value is unusable; use
// DefaultTracker or fill all fields.
type Tracker struct {
	// LogSubdir is the log directory relative to the run directory.
	LogSubdir string
	// Pattern globs log files within LogSubdir.
	Pattern string
	// Marker is the terminal success string the simulator prints on a
	// normal finish.
	Marker string
	// TailBytes bounds how much of the newest log is scanned for Marker.
	TailBytes int64
}

// DefaultTracker reads EMOD3D rank logs.
var DefaultTracker = Tracker{
	LogSubdir: filepath.Join("LF", "Rlog"),
	Pattern:   "*.rlog",
	Marker:    "PROGRAM emod3d-mpi IS FINISHED",
	TailBytes: 8192,
}

// State classifies runDir. Read-only and idempotent over unchanged logs.
func (t Tracker) State(runDir string) State {
	logDir := filepath.Join(runDir, t.LogSubdir)
	matches, err := filepath.Glob(filepath.Join(logDir, t.Pattern))
	if err != nil || len(matches) == 0 {
		return New
	}

	latest, ok := newestFile(matches)
	if !ok {
		return New
	}
	finished, err := t.tailContainsMarker(latest)
	if err != nil {
		// Malformed or unreadable log artifact: recover locally by assuming
		// the run is still going.
		log.WithFields(log.Fields{
			"runDir": runDir,
			"log":    latest,
			"error":  err,
		}).Debug("Could not read log tail, treating run as in progress")
		return InProgress
	}
	if finished {
		return Completed
	}
	return InProgress
}

// newestFile picks the most recently modified path, ignoring entries that
// disappear mid-scan.
func newestFile(paths []string) (string, bool) {
	type entry struct {
		path string
		mod  int64
	}
	entries := []entry{}
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil || fi.IsDir() {
			continue
		}
		entries = append(entries, entry{path: p, mod: fi.ModTime().UnixNano()})
	}
	if len(entries) == 0 {
		return "", false
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].mod > entries[j].mod })
	return entries[0].path, true
}

// tailContainsMarker scans the final TailBytes of path for the marker.
func (t Tracker) tailContainsMarker(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return false, err
	}
	if fi.Size() > t.TailBytes {
		if _, err := f.Seek(-t.TailBytes, io.SeekEnd); err != nil {
			return false, err
		}
	}
	tail, err := ioutil.ReadAll(f)
	if err != nil {
		return false, err
	}
	return bytes.Contains(tail, []byte(t.Marker)), nil
}
