package probe

import (
	"context"
	"regexp"

	"github.com/vk/confprobe/internal/ctxlog"
	"github.com/vk/confprobe/internal/procrun"
)

// CommandExecuteTest runs a command and returns its raw result.
type CommandExecuteTest struct {
	name   string
	argv   []string
	runner procrun.Runner
}

// NewCommandExecuteTest resolves cmd into an argument vector. A raw command
// line that cannot be lexed (an unterminated quote, say) is rejected here.
func NewCommandExecuteTest(runner procrun.Runner, name string, cmd Command) (*CommandExecuteTest, error) {
	argv, err := resolve(cmd)
	if err != nil {
		return nil, err
	}
	return &CommandExecuteTest{name: name, argv: argv, runner: runner}, nil
}

// Name returns the test's display name.
func (t *CommandExecuteTest) Name() string { return t.name }

// Argv returns a copy of the resolved argument vector.
func (t *CommandExecuteTest) Argv() []string { return append([]string(nil), t.argv...) }

// Execute runs the command. The result is returned uninterpreted.
func (t *CommandExecuteTest) Execute(ctx context.Context) (procrun.Result, error) {
	ctxlog.FromContext(ctx).Debug("Executing command test.", "test", t.name, "argv", t.argv)
	return t.runner.Run(ctx, t.argv)
}

var versionPattern = regexp.MustCompile(`\d+(?:\.\d+)+`)

// CommandVersionTest runs a command and scrapes a dotted version number from
// its standard output.
type CommandVersionTest struct {
	*CommandExecuteTest
}

// NewCommandVersionTest is NewCommandExecuteTest for version probes.
func NewCommandVersionTest(runner procrun.Runner, name string, cmd Command) (*CommandVersionTest, error) {
	inner, err := NewCommandExecuteTest(runner, name, cmd)
	if err != nil {
		return nil, err
	}
	return &CommandVersionTest{CommandExecuteTest: inner}, nil
}

// Execute returns the first version token on a zero exit, or an empty string
// when stdout has none. On a non-zero exit the version is empty and the raw
// result should be inspected instead.
func (t *CommandVersionTest) Execute(ctx context.Context) (string, procrun.Result, error) {
	res, err := t.CommandExecuteTest.Execute(ctx)
	if err != nil || !res.Success() {
		return "", res, err
	}
	return ScrapeVersion(res.Stdout), res, nil
}

// ScrapeVersion returns the first run of two or more digit groups joined by
// dots, e.g. "11.3.0" from "g++ (GCC) 11.3.0".
func ScrapeVersion(s string) string {
	return versionPattern.FindString(s)
}
