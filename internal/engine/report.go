package engine

import (
	"github.com/vk/confprobe/internal/classify"
)

// Failure describes one test that did not succeed. Err carries a
// *MalformedOutputError when the test printed something unparsable.
type Failure struct {
	Test     string
	Kind     classify.Kind
	Reason   string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// Report summarizes a configuration pass.
type Report struct {
	// Executed counts tests that were dispatched.
	Executed int
	// Skipped counts helper files that are not tests.
	Skipped int
	// Unrecognized lists test files with an unknown qualifier.
	Unrecognized []string
	Failures     []Failure
}

// OK reports whether every executed test succeeded.
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}
