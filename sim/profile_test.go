package sim

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := ioutil.WriteFile(p, []byte(body), 0666); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadProfileExplicitNT(t *testing.T) {
	dir, err := ioutil.TempDir("", "sim")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	vm := writeTemp(t, dir, "vm_params.yaml", "nx: 400\nny: 420\nnz: 380\nnt: 20000\n")
	p, err := LoadProfile(vm, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.NX != 400 || p.NY != 420 || p.NZ != 380 || p.NT != 20000 {
		t.Errorf("got %+v", p)
	}
	if p.DT != DefaultDT {
		t.Errorf("DT = %v, want default %v", p.DT, DefaultDT)
	}
}

func TestLoadProfileDerivesNTFromDuration(t *testing.T) {
	dir, err := ioutil.TempDir("", "sim")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	vm := writeTemp(t, dir, "vm_params.yaml", "nx: 100\nny: 100\nnz: 100\nsim_duration: 100.0\ndt: 0.01\n")
	p, err := LoadProfile(vm, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.NT != 10000 {
		t.Errorf("NT = %d, want 10000 (100s / 0.01s)", p.NT)
	}
}

func TestLoadProfileDefaultsFileDTPrecedence(t *testing.T) {
	dir, err := ioutil.TempDir("", "sim")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	vm := writeTemp(t, dir, "vm_params.yaml", "nx: 100\nny: 100\nnz: 100\nsim_duration: 100.0\ndt: 0.01\n")
	root := writeTemp(t, dir, "root_params.yaml", "dt: 0.005\n")

	p, err := LoadProfile(vm, root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Run defaults dt (0.005) wins over the profile's own dt (0.01).
	if p.NT != 20000 {
		t.Errorf("NT = %d, want 20000", p.NT)
	}

	// A missing defaults file falls back to the profile's dt.
	p, err = LoadProfile(vm, filepath.Join(dir, "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.NT != 10000 {
		t.Errorf("NT = %d, want 10000", p.NT)
	}
}

func TestLoadProfileMissingParams(t *testing.T) {
	dir, err := ioutil.TempDir("", "sim")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	noNT := writeTemp(t, dir, "no_nt.yaml", "nx: 100\nny: 100\nnz: 100\n")
	if _, err := LoadProfile(noNT, ""); !IsMissingParameter(err) {
		t.Errorf("missing nt: err = %v, want MissingParameterError", err)
	}

	noDim := writeTemp(t, dir, "no_dim.yaml", "nx: 100\nny: 100\nnt: 100\n")
	if _, err := LoadProfile(noDim, ""); !IsMissingParameter(err) {
		t.Errorf("missing nz: err = %v, want MissingParameterError", err)
	}

	if _, err := LoadProfile(filepath.Join(dir, "absent.yaml"), ""); err == nil {
		t.Error("expected error for absent profile file")
	}
}
