package sim

import (
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v3"
)

// DefaultDT is the time-step length assumed when neither the run defaults
// file nor the velocity-model profile carries an explicit dt.
const DefaultDT = 0.005

// Profile describes one simulation domain: grid point counts per axis and a
// resolved time-step count. NT is derived from SimDuration/DT when the
// profile file doesn't state it directly.
type Profile struct {
	NX int
	NY int
	NZ int
	NT int
	DT float64
}

// MissingParameterError reports a required profile field that could not be
// resolved from any input source. Unrecoverable for the profile.
type MissingParameterError struct {
	Param string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing parameter: %s", e.Param)
}

// IsMissingParameter reports whether err (or its cause) is a
// MissingParameterError.
func IsMissingParameter(err error) bool {
	_, ok := errors.Cause(err).(*MissingParameterError)
	return ok
}

type profileFile struct {
	NX          *int     `yaml:"nx"`
	NY          *int     `yaml:"ny"`
	NZ          *int     `yaml:"nz"`
	NT          *int     `yaml:"nt"`
	SimDuration *float64 `yaml:"sim_duration"`
	DT          *float64 `yaml:"dt"`
}

type defaultsFile struct {
	DT *float64 `yaml:"dt"`
}

// LoadProfile reads the velocity-model profile at vmPath and resolves NT and
// DT. rootPath optionally names the run defaults file; its dt takes
// precedence over the profile's, and both fall back to DefaultDT. rootPath
// may be empty or point at a missing file.
func LoadProfile(vmPath, rootPath string) (Profile, error) {
	raw, err := ioutil.ReadFile(vmPath)
	if err != nil {
		return Profile{}, errors.Wrapf(err, "reading profile %s", vmPath)
	}
	var pf profileFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return Profile{}, errors.Wrapf(err, "parsing profile %s", vmPath)
	}

	dt := DefaultDT
	if rootDT := loadDefaultsDT(rootPath); rootDT != nil {
		dt = *rootDT
	} else if pf.DT != nil {
		dt = *pf.DT
	}

	p := Profile{DT: dt}
	for _, dim := range []struct {
		name string
		src  *int
		dst  *int
	}{
		{"nx", pf.NX, &p.NX},
		{"ny", pf.NY, &p.NY},
		{"nz", pf.NZ, &p.NZ},
	} {
		if dim.src == nil {
			return Profile{}, &MissingParameterError{Param: dim.name}
		}
		*dim.dst = *dim.src
	}

	switch {
	case pf.NT != nil:
		p.NT = *pf.NT
	case pf.SimDuration != nil:
		p.NT = int(*pf.SimDuration / dt)
	default:
		return Profile{}, &MissingParameterError{Param: "nt or sim_duration"}
	}
	return p, nil
}

// loadDefaultsDT best-effort reads dt from the run defaults file. A missing
// or unreadable defaults file just means no override.
func loadDefaultsDT(rootPath string) *float64 {
	if rootPath == "" {
		return nil
	}
	raw, err := ioutil.ReadFile(rootPath)
	if err != nil {
		return nil
	}
	var df defaultsFile
	if err := yaml.Unmarshal(raw, &df); err != nil {
		return nil
	}
	return df.DT
}
