package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vk/confprobe/internal/classify"
	"github.com/vk/confprobe/internal/fsutil"
	"github.com/vk/confprobe/internal/probe"
	"github.com/vk/confprobe/internal/procrun"
)

// execution is what a single test produced, before any merging.
type execution struct {
	test   string
	kind   classify.Kind
	result procrun.Result
	// parse is false when stdout must not be interpreted, e.g. after a
	// failed compile.
	parse  bool
	failed bool
	reason string
}

// passSnapshot holds the state every test of a pass sees.
type passSnapshot struct {
	compiler     string
	compileFlags []string
	flagsErr     error
	// interpreter is the discovered PYTHON, used when no script
	// interpreter is configured.
	interpreter string
}

type runFunc func(ctx context.Context, e *Engine, test string, snap passSnapshot) (execution, error)

type mergeFunc func(ctx context.Context, e *Engine, test string, def Definition)

type handler struct {
	run   runFunc
	merge mergeFunc
}

var dispatch = map[classify.Kind]handler{
	classify.CppFeature:  {run: runCompiled, merge: mergeFeature},
	classify.CppPassFail: {run: runCompiled},
	classify.CppConfig:   {run: runCompiled, merge: mergeConfiguration},
	classify.PyFeature:   {run: runScript, merge: mergeFeature},
	classify.PyPassFail:  {run: runScript},
	classify.PyConfig:    {run: runScript, merge: mergeConfiguration},
}

// BuildInfoPath returns the sidecar holding run arguments for a compiled
// test: the source path with its extension replaced by "-buildinfo".
func BuildInfoPath(source string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + classify.BuildInfoSuffix
}

func readBuildInfo(source string) ([]string, error) {
	path := BuildInfoPath(source)
	if !fsutil.FileExists(path) {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read build info: %w", err)
	}
	args, err := probe.Split(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to split build info: %w", err)
	}
	return args, nil
}

func runCompiled(ctx context.Context, e *Engine, test string, snap passSnapshot) (execution, error) {
	exec := execution{test: test, kind: classify.Classify(test)}
	if snap.compiler == "" {
		exec.failed = true
		exec.reason = "no C++ compiler available, specify one with the CXX environment variable"
		return exec, nil
	}
	if snap.flagsErr != nil {
		exec.failed = true
		exec.reason = fmt.Sprintf("invalid CXXFLAGS: %v", snap.flagsErr)
		return exec, nil
	}
	args, err := readBuildInfo(test)
	if err != nil {
		exec.failed = true
		exec.reason = err.Error()
		return exec, nil
	}

	t := probe.NewCompileAndExecuteTest(e.runner, filepath.Base(test), snap.compiler, test, snap.compileFlags,
		[]probe.CompileOption{probe.WithWorkDir(e.opts.WorkDir)}, probe.WithArgs(args...))
	outcome, err := t.Execute(ctx)
	if err != nil {
		return exec, err
	}
	if !outcome.Ran {
		exec.result = outcome.Compile
		exec.failed = true
		exec.reason = describeExit("compilation", outcome.Compile)
		return exec, nil
	}
	exec.result = outcome.Run
	exec.parse = true
	if !outcome.Run.Success() {
		exec.failed = true
		exec.reason = describeExit("test", outcome.Run)
	}
	return exec, nil
}

// runScript runs a script test through the configured interpreter, else the
// discovered PYTHON, else directly. Only a direct run can fail to start
// because of the test file itself; that is the test's failure, not the pass's.
func runScript(ctx context.Context, e *Engine, test string, snap passSnapshot) (execution, error) {
	exec := execution{test: test, kind: classify.Classify(test)}

	interpreter := e.opts.ScriptInterpreter
	if interpreter == "" {
		interpreter = snap.interpreter
	}
	argv := probe.Argv{test}
	if interpreter != "" {
		interp, err := probe.Split(interpreter)
		if err != nil {
			return exec, fmt.Errorf("invalid script interpreter %q: %w", interpreter, err)
		}
		argv = append(probe.Argv(interp), test)
	}

	t, err := probe.NewCommandExecuteTest(e.runner, filepath.Base(test), argv)
	if err != nil {
		return exec, err
	}
	res, err := t.Execute(ctx)
	if err != nil {
		if interpreter == "" && procrun.IsSpawnError(err) {
			exec.result.ExitCode = -1
			exec.failed = true
			exec.reason = fmt.Sprintf("cannot execute test (make it executable or configure a script interpreter): %v", err)
			return exec, nil
		}
		return exec, err
	}
	exec.result = res
	exec.parse = true
	if !res.Success() {
		exec.failed = true
		exec.reason = describeExit("test", res)
	}
	return exec, nil
}

func describeExit(phase string, res procrun.Result) string {
	if res.TimedOut {
		return fmt.Sprintf("%s timed out after %s", phase, res.Duration.Round(time.Millisecond))
	}
	return fmt.Sprintf("%s exited with status %d", phase, res.ExitCode)
}
