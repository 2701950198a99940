package walltime

import (
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	for _, tc := range []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{90 * time.Second, "00:01:30"},
		{time.Hour + 10*time.Minute + 5*time.Second, "01:10:05"},
		{120 * time.Hour, "120:00:00"},
	} {
		if got := Format(tc.d); got != tc.want {
			t.Errorf("Format(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want time.Duration
	}{
		{"01:10:05", time.Hour + 10*time.Minute + 5*time.Second},
		{"48:00:00", 48 * time.Hour},
		{"02:30", 2*time.Hour + 30*time.Minute},
		{"5", 5 * time.Hour},
		// A big bare integer is sexagesimal-decoded seconds.
		{"4200", 4200 * time.Second},
	} {
		got, err := Parse(tc.in)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "a:b:c", "1:2:3:4"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) should fail", in)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"00:05:00", "01:00:00", "27:14:59"} {
		d, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if got := Format(d); got != s {
			t.Errorf("round trip %q -> %q", s, got)
		}
	}
}
