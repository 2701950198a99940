package planner

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Confirmer is the injected confirmation capability for destructive choices
// (resubmitting runs that look in-progress). Core logic never reads a
// terminal directly, so non-interactive callers supply a policy instead.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(prompt string) bool

func (f ConfirmerFunc) Confirm(prompt string) bool { return f(prompt) }

// AlwaysYes and AlwaysNo are the deterministic policies for automation.
var (
	AlwaysYes Confirmer = ConfirmerFunc(func(string) bool { return true })
	AlwaysNo  Confirmer = ConfirmerFunc(func(string) bool { return false })
)

// StdinConfirmer prompts on stderr and reads a y/N answer from In. When the
// input stream is closed (non-interactive invocation) it answers with
// OnNonInteractive rather than hanging or failing.
type StdinConfirmer struct {
	In               io.Reader
	OnNonInteractive bool
}

func (c *StdinConfirmer) Confirm(prompt string) bool {
	in := c.In
	if in == nil {
		in = os.Stdin
	}
	fmt.Fprintf(os.Stderr, "%s (y/N): ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && strings.TrimSpace(line) == "" {
		fmt.Fprintf(os.Stderr, "non-interactive session, defaulting to %v\n", c.OnNonInteractive)
		return c.OnNonInteractive
	}
	return strings.ToLower(strings.TrimSpace(line)) == "y"
}
