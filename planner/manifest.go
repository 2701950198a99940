package planner

import (
	"io/ioutil"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/cascadehpc/simsched/estimate"
)

// writeManifest records the ordered target directories, one per line. The
// dispatched job indexes into this file with its array index to find its
// own target. A pre-existing manifest is rotated, never overwritten, so a
// still-queued prior array keeps the mapping it was submitted with.
func writeManifest(path string, targets []string) error {
	if path == "" {
		return errors.New("manifest path not set")
	}
	if err := estimate.Backup(path); err != nil {
		return errors.Wrap(err, "rotating prior manifest")
	}
	body := strings.Join(targets, "\n") + "\n"
	if err := ioutil.WriteFile(path, []byte(body), 0666); err != nil {
		return errors.Wrapf(err, "writing manifest %s", path)
	}
	log.WithFields(log.Fields{"manifest": path, "targets": len(targets)}).Info("Wrote target manifest")
	return nil
}
