// Package estimate persists the per-run resource-estimate record. The record
// is written fresh per estimation and never mutated; a prior version is
// rotated to a suffix-numbered backup first. Concurrent re-estimation of the
// same run is a read-modify-write race by design: callers are independent
// short-lived processes coordinating only through the filesystem, and the
// last writer wins.
package estimate

import (
	"io/ioutil"
	"math"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v3"

	"github.com/cascadehpc/simsched/common/walltime"
	"github.com/cascadehpc/simsched/solver"
)

// Record is the persisted form of a resource plan, consumed later by the
// submission path without re-running the solver.
type Record struct {
	Nodes        int    `yaml:"nodes"`
	TasksPerNode int    `yaml:"tasks_per_node"`
	MemGB        int    `yaml:"mem_gb"`
	Walltime     string `yaml:"walltime"`
}

// FromPlan rounds a solved plan into its persisted form. MemGB is the total
// request across all nodes.
func FromPlan(p solver.ResourcePlan) Record {
	return Record{
		Nodes:        p.Nodes,
		TasksPerNode: p.TasksPerNode,
		MemGB:        int(math.Ceil(p.TotalMemGB)),
		Walltime:     p.WalltimeStr(),
	}
}

// Save rotates any existing record at path to a numbered backup, then writes
// rec as YAML.
func Save(path string, rec Record) error {
	if err := Backup(path); err != nil {
		return err
	}
	raw, err := yaml.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshaling estimate record")
	}
	if err := ioutil.WriteFile(path, raw, 0666); err != nil {
		return errors.Wrapf(err, "writing estimate record %s", path)
	}
	return nil
}

// Load reads a record and sanitizes the walltime field. YAML decoders read
// XX:YY:ZZ as sexagesimal integer seconds, so the field round-trips through
// the walltime parser rather than being trusted as a string.
func Load(path string) (Record, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return Record{}, errors.Wrapf(err, "reading estimate record %s", path)
	}
	var rec Record
	if err := yaml.Unmarshal(raw, &rec); err != nil {
		// Retry with walltime as a bare int (sexagesimal decode).
		var alt struct {
			Nodes        int    `yaml:"nodes"`
			TasksPerNode int    `yaml:"tasks_per_node"`
			MemGB        int    `yaml:"mem_gb"`
			Walltime     int    `yaml:"walltime"`
		}
		if err2 := yaml.Unmarshal(raw, &alt); err2 != nil {
			return Record{}, errors.Wrapf(err, "parsing estimate record %s", path)
		}
		rec = Record{Nodes: alt.Nodes, TasksPerNode: alt.TasksPerNode, MemGB: alt.MemGB,
			Walltime: walltime.FromSeconds(alt.Walltime)}
		return rec, nil
	}
	d, err := walltime.Parse(rec.Walltime)
	if err != nil {
		return Record{}, errors.Wrapf(err, "sanitizing walltime in %s", path)
	}
	rec.Walltime = walltime.Format(d)
	return rec, nil
}
