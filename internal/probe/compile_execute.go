package probe

import (
	"context"
	"strings"

	"github.com/vk/confprobe/internal/ctxlog"
	"github.com/vk/confprobe/internal/procrun"
)

// ExecOutcome is the result of a CompileAndExecuteTest.
//
// When the compile phase fails Ran is false and only Compile is populated.
// When an expected output was supplied Checked is true and Matched holds the
// comparison; callers interested only in the boolean read Matched.
type ExecOutcome struct {
	Run     procrun.Result
	Compile procrun.Result
	Ran     bool
	Checked bool
	Matched bool
}

// Status is the run exit code, or the compile exit code when nothing ran.
func (o ExecOutcome) Status() int {
	if o.Ran {
		return o.Run.ExitCode
	}
	return o.Compile.ExitCode
}

// Stdout is the run phase stdout, or the compiler's when nothing ran.
func (o ExecOutcome) Stdout() string {
	if o.Ran {
		return o.Run.Stdout
	}
	return o.Compile.Stdout
}

// Stderr is the run phase stderr, or the compiler's when nothing ran.
func (o ExecOutcome) Stderr() string {
	if o.Ran {
		return o.Run.Stderr
	}
	return o.Compile.Stderr
}

// Success reports whether both phases exited zero and, when checked, the
// output matched.
func (o ExecOutcome) Success() bool {
	if !o.Ran || !o.Run.Success() {
		return false
	}
	return !o.Checked || o.Matched
}

// Fields returns run status, run stdout, run stderr, compile status,
// compile stdout and compile stderr, in that order.
func (o ExecOutcome) Fields() (int, string, string, int, string, string) {
	return o.Run.ExitCode, o.Run.Stdout, o.Run.Stderr, o.Compile.ExitCode, o.Compile.Stdout, o.Compile.Stderr
}

// ExecOption tweaks a CompileAndExecuteTest.
type ExecOption func(*CompileAndExecuteTest)

// WithArgs passes args to the compiled executable.
func WithArgs(args ...string) ExecOption {
	return func(t *CompileAndExecuteTest) { t.args = append([]string(nil), args...) }
}

// WithExpectedOutput turns the outcome into a comparison of the trimmed run
// stdout against expected. An empty string disables the comparison.
func WithExpectedOutput(expected string) ExecOption {
	return func(t *CompileAndExecuteTest) { t.expected = expected }
}

// CompileAndExecuteTest compiles a source file and runs the result.
type CompileAndExecuteTest struct {
	*CompileTest
	args     []string
	expected string
}

// NewCompileAndExecuteTest builds the test. KeepExecutable among compileOpts
// governs cleanup after the run phase; the executable always survives the
// compile phase.
func NewCompileAndExecuteTest(runner procrun.Runner, name, compiler, source string, flags []string, compileOpts []CompileOption, opts ...ExecOption) *CompileAndExecuteTest {
	t := &CompileAndExecuteTest{
		CompileTest: NewCompileTest(runner, name, compiler, source, flags, compileOpts...),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Execute compiles, then runs the executable if compilation succeeded.
func (t *CompileAndExecuteTest) Execute(ctx context.Context) (ExecOutcome, error) {
	logger := ctxlog.FromContext(ctx).With("test", t.name)

	compileRes, err := t.compile(ctx, true)
	if !t.keepExecutable {
		defer t.removeExecutable(ctx)
	}
	if err != nil {
		return ExecOutcome{}, err
	}
	outcome := ExecOutcome{Compile: compileRes}
	if !compileRes.Success() {
		logger.Debug("Compilation failed, skipping run phase.", "exit_code", compileRes.ExitCode)
		return outcome, nil
	}

	argv := append([]string{t.executable}, t.args...)
	runRes, err := t.runner.Run(ctx, argv)
	if err != nil {
		return outcome, err
	}
	outcome.Run = runRes
	outcome.Ran = true

	if t.expected != "" {
		outcome.Checked = true
		outcome.Matched = strings.TrimSpace(runRes.Stdout) == t.expected
		logger.Debug("Compared run output.", "expected", t.expected, "matched", outcome.Matched)
	}
	return outcome, nil
}
