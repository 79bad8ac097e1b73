package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/vk/confprobe/internal/classify"
	"github.com/vk/confprobe/internal/confstate"
	"github.com/vk/confprobe/internal/ctxlog"
	"github.com/vk/confprobe/internal/fsutil"
	"github.com/vk/confprobe/internal/probe"
	"github.com/vk/confprobe/internal/procrun"
)

// Options tunes a configuration pass.
type Options struct {
	// Workers bounds how many tests execute at once. Values below 1 mean 1.
	Workers int
	// WorkDir receives temporary test executables. Empty means the
	// current directory.
	WorkDir string
	// ScriptInterpreter, when set, is shell-split and prepended to every
	// script test invocation.
	ScriptInterpreter string
}

// Engine runs configuration tests against a shared State.
type Engine struct {
	runner procrun.Runner
	state  *confstate.State
	opts   Options
}

// New creates an Engine merging into state.
func New(runner procrun.Runner, state *confstate.State, opts Options) *Engine {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Engine{runner: runner, state: state, opts: opts}
}

// Run executes every test in dir and merges the results.
//
// Per-test failures are collected in the Report. The returned error is
// reserved for conditions that make the pass meaningless: an unreadable
// directory, a test that could not be spawned, or cancellation. In that case
// nothing is merged.
func (e *Engine) Run(ctx context.Context, dir string) (*Report, error) {
	logger := ctxlog.FromContext(ctx)

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tests directory %q: %w", dir, err)
	}
	files, err := fsutil.ListFiles(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests directory %q: %w", dir, err)
	}

	report := &Report{}
	var tests []string
	for _, file := range files {
		switch kind := classify.Classify(file); {
		case kind == classify.Ignored:
			report.Skipped++
		case kind == classify.Unrecognized:
			name := filepath.Base(file)
			logger.Warn("Unknown config test found, leaving it alone.", "test", name)
			report.Unrecognized = append(report.Unrecognized, name)
		default:
			tests = append(tests, file)
		}
	}
	logger.Info("Discovered configuration tests.", "dir", abs, "tests", len(tests), "skipped", report.Skipped, "unrecognized", len(report.Unrecognized))

	snap := e.snapshot()
	results := make([]execution, len(tests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, test := range tests {
		g.Go(func() error {
			kind := classify.Classify(test)
			logger.Debug("Running configuration test.", "test", filepath.Base(test), "kind", kind)
			res, err := dispatch[kind].run(gctx, e, test, snap)
			if err != nil {
				return fmt.Errorf("configuration test %q: %w", filepath.Base(test), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("Configuration pass aborted.", "error", err)
		return nil, err
	}

	for _, res := range results {
		e.merge(ctx, report, res)
	}
	report.Executed = len(tests)

	logger.Info("Configuration pass finished.", "executed", report.Executed, "failures", len(report.Failures))
	return report, nil
}

func (e *Engine) snapshot() passSnapshot {
	var snap passSnapshot
	snap.compiler, _ = e.state.Get("CXX")
	snap.interpreter, _ = e.state.Get("PYTHON")
	if flags, _ := e.state.Get("CXXFLAGS"); flags != "" {
		snap.compileFlags, snap.flagsErr = probe.Split(flags)
	}
	return snap
}

// merge folds one execution into the state and report. It is only ever
// called from the goroutine running the pass.
func (e *Engine) merge(ctx context.Context, report *Report, res execution) {
	logger := ctxlog.FromContext(ctx).With("test", filepath.Base(res.test), "kind", res.kind)

	failure := -1
	if res.failed {
		logger.Warn("Configuration test failed.", "reason", res.reason, "status", res.result.ExitCode)
		failure = len(report.Failures)
		report.Failures = append(report.Failures, Failure{
			Test:     res.test,
			Kind:     res.kind,
			Reason:   res.reason,
			ExitCode: res.result.ExitCode,
			Stdout:   res.result.Stdout,
			Stderr:   res.result.Stderr,
		})
	}

	mergeDef := dispatch[res.kind].merge
	if !res.parse || mergeDef == nil {
		return
	}

	defs, err := ParseOutput(res.result.Stdout)
	for _, def := range defs {
		mergeDef(ctx, e, res.test, def)
	}
	if err == nil {
		return
	}

	logger.Warn("Configuration test printed malformed output.", "error", err)
	// One entry per test: a test that already failed carries the detail.
	if failure >= 0 {
		f := &report.Failures[failure]
		f.Reason += "; " + err.Error()
		f.Err = err
		return
	}
	report.Failures = append(report.Failures, Failure{
		Test:     res.test,
		Kind:     res.kind,
		Reason:   err.Error(),
		ExitCode: res.result.ExitCode,
		Stdout:   res.result.Stdout,
		Stderr:   res.result.Stderr,
		Err:      err,
	})
}

func mergeFeature(ctx context.Context, e *Engine, test string, def Definition) {
	value := e.state.Append(def.Key, def.Value)
	ctxlog.FromContext(ctx).Debug("Appended feature value.", "test", filepath.Base(test), "key", def.Key, "value", value)
}

func mergeConfiguration(ctx context.Context, e *Engine, test string, def Definition) {
	previous, overwrote := e.state.Define(def.Key, def.Value)
	if overwrote {
		ctxlog.FromContext(ctx).Warn("Overwriting a configuration option.",
			slog.String("test", filepath.Base(test)),
			slog.String("key", def.Key),
			slog.String("previous", previous),
			slog.String("value", def.Value))
	}
}
