// Package walltime converts between scheduler HH:MM:SS walltime strings and
// time.Duration. PBS accepts H:M:S, H:M and bare-hour forms, and YAML
// decoders are prone to reading XX:YY:ZZ as sexagesimal integer seconds, so
// parsing is deliberately permissive.
package walltime

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Format renders d as zero-padded HH:MM:SS. Hours may exceed two digits.
func Format(d time.Duration) string {
	secs := int64(d / time.Second)
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FromSeconds is Format over a whole-second count.
func FromSeconds(secs int) string {
	return Format(time.Duration(secs) * time.Second)
}

// Parse accepts "HH:MM:SS", "HH:MM", a bare hour count, or a plain integer
// second count (the sexagesimal-decoding fallback).
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty walltime")
	}
	parts := strings.Split(s, ":")
	var h, m, sec int
	var err error
	switch len(parts) {
	case 3:
		if h, err = atoi(parts[0]); err == nil {
			if m, err = atoi(parts[1]); err == nil {
				sec, err = atoi(parts[2])
			}
		}
	case 2:
		if h, err = atoi(parts[0]); err == nil {
			m, err = atoi(parts[1])
		}
	case 1:
		// A bare integer is a second count if it doesn't fit a sane hour
		// field, otherwise hours. Estimate records only ever round-trip
		// through Format so this is a recovery path, not a format.
		var n int
		if n, err = atoi(parts[0]); err == nil {
			if n >= 168 {
				return time.Duration(n) * time.Second, nil
			}
			h = n
		}
	default:
		return 0, errors.Errorf("malformed walltime %q", s)
	}
	if err != nil {
		return 0, errors.Wrapf(err, "malformed walltime %q", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
}

func atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
