package estimate

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Backup rotates the file at path to the lowest free suffix-numbered name
// (path.1, path.2, ...). Backups are append-only: existing ones are never
// overwritten. The backup name is claimed with O_EXCL so two processes
// rotating the same file race for distinct suffixes instead of clobbering
// each other; a lost race is retried with fresh suffix discovery.
func Backup(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	op := func() error {
		return tryBackup(path)
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxElapsedTime = 5 * time.Second
	return backoff.Retry(op, bo)
}

func tryBackup(path string) error {
	for i := 1; ; i++ {
		backupPath := fmt.Sprintf("%s.%d", path, i)
		dst, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0666)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return backoff.Permanent(errors.Wrapf(err, "creating backup %s", backupPath))
		}
		if err := copyInto(dst, path); err != nil {
			dst.Close()
			os.Remove(backupPath)
			// Source may be mid-rewrite by a concurrent writer; retry.
			return err
		}
		if err := dst.Close(); err != nil {
			return backoff.Permanent(errors.Wrapf(err, "closing backup %s", backupPath))
		}
		log.WithFields(log.Fields{"from": path, "to": backupPath}).Info("Backed up prior file")
		return nil
	}
}

func copyInto(dst io.Writer, srcPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return errors.Wrapf(err, "opening %s for backup", srcPath)
	}
	defer src.Close()
	_, err = io.Copy(dst, src)
	return errors.Wrapf(err, "copying %s to backup", srcPath)
}
