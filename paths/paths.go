// Package paths locates the simulation project's files on disk: the
// per-fault velocity-model profile, the run defaults, and fault run
// directories. The core solver and planner only ever see resolved paths;
// all directory-tree heuristics live here.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Resolver finds project files for a fault name or path argument.
type Resolver interface {
	// ResolveProfile maps a fault name, run path, or direct yaml path to the
	// velocity-model profile and (optionally) the run defaults file. The
	// defaults path is empty when no project root was found.
	ResolveProfile(arg string) (vmPath, rootPath string, err error)

	// ResolveFault maps a fault name to its run directory and the Runs root
	// containing it.
	ResolveFault(name string) (faultDir, runsRoot string, err error)
}

// FS resolves against the real filesystem, walking up from Start (or the
// working directory when empty) looking for the Data/Runs project markers.
type FS struct {
	Start string
}

const (
	profileName  = "vm_params.yaml"
	defaultsName = "root_params.yaml"
)

func (r FS) start() string {
	if r.Start != "" {
		return r.Start
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// findProjectRoot walks up from start until a directory holding Data or Runs.
func findProjectRoot(start string) string {
	curr, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	for {
		if isDir(filepath.Join(curr, "Data")) || isDir(filepath.Join(curr, "Runs")) {
			return curr
		}
		parent := filepath.Dir(curr)
		if parent == curr {
			return ""
		}
		curr = parent
	}
}

func (r FS) ResolveProfile(arg string) (string, string, error) {
	// A direct yaml path wins outright.
	if isFile(arg) && strings.HasSuffix(arg, "yaml") {
		vm, err := filepath.Abs(arg)
		if err != nil {
			return "", "", errors.Wrapf(err, "resolving %s", arg)
		}
		return vm, rootParamsPath(findProjectRoot(filepath.Dir(vm))), nil
	}

	searchFrom := r.start()
	if exists(arg) {
		searchFrom = arg
	}
	projectRoot := findProjectRoot(searchFrom)

	// Derive the fault name: from a Runs/<fault>/... path component, from a
	// directory that exists under Data/VMs, or take the argument literally.
	faultName := ""
	if exists(arg) {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return "", "", errors.Wrapf(err, "resolving %s", arg)
		}
		parts := strings.Split(abs, string(os.PathSeparator))
		for i, p := range parts {
			if p == "Runs" && i+1 < len(parts) {
				faultName = parts[i+1]
				break
			}
		}
		if faultName == "" && projectRoot != "" {
			base := filepath.Base(abs)
			if isDir(filepath.Join(projectRoot, "Data", "VMs", base)) {
				faultName = base
			}
		}
	} else {
		faultName = arg
	}

	vmPath := ""
	rootPath := ""
	if projectRoot != "" {
		if faultName != "" {
			candidate := filepath.Join(projectRoot, "Data", "VMs", faultName, profileName)
			if isFile(candidate) {
				vmPath = candidate
			}
		}
		rootPath = rootParamsPath(projectRoot)
	}
	if vmPath == "" && isDir(arg) {
		local := filepath.Join(arg, profileName)
		if isFile(local) {
			vmPath = local
		}
	}
	if vmPath == "" {
		return "", "", errors.Errorf("%s not found for %q", profileName, arg)
	}
	return vmPath, rootPath, nil
}

func (r FS) ResolveFault(name string) (string, string, error) {
	cwd := r.start()

	runsRoot := ""
	sep := string(os.PathSeparator)
	if i := strings.Index(cwd, sep+"Runs"); i >= 0 {
		runsRoot = cwd[:i] + sep + "Runs"
	} else if isDir(filepath.Join(cwd, "Runs")) {
		runsRoot = filepath.Join(cwd, "Runs")
	} else if isDir(filepath.Join(cwd, name)) {
		runsRoot = cwd
	} else {
		return "", "", errors.Errorf("could not determine Runs root from %s", cwd)
	}

	faultDir := filepath.Join(runsRoot, name)
	if !isDir(faultDir) {
		return "", "", errors.Errorf("could not locate fault directory %s", faultDir)
	}
	return faultDir, runsRoot, nil
}

// DefaultsPath names the simulator defaults file next to the Runs root.
func DefaultsPath(runsRoot, name string) string {
	return filepath.Join(filepath.Dir(runsRoot), name)
}

func rootParamsPath(projectRoot string) string {
	if projectRoot == "" {
		return ""
	}
	p := filepath.Join(projectRoot, "Runs", defaultsName)
	if isFile(p) {
		return p
	}
	return ""
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}
