package app

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/vk/confprobe/internal/confstate"
	"github.com/vk/confprobe/internal/config"
	"github.com/vk/confprobe/internal/ctxlog"
	"github.com/vk/confprobe/internal/discovery"
	"github.com/vk/confprobe/internal/engine"
	"github.com/vk/confprobe/internal/envfile"
	"github.com/vk/confprobe/internal/procrun"
)

// Result is everything a finished run produced.
type Result struct {
	Settings *config.Settings
	Missing  []*discovery.ToolNotFoundError
	Report   *engine.Report
	State    confstate.Snapshot
}

// Run performs one configure pass: discover tools, run the configuration
// tests and write the hand-off document. Test failures are reported in the
// summary and the Result; only fatal conditions return an error.
func (a *App) Run(ctx context.Context) (*Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	settings, err := a.loader.Load(ctx, a.config.SettingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	a.config.apply(settings)
	a.logger.Debug("Settings resolved.", "tests_dir", settings.TestsDir, "workers", settings.Workers, "timeout", settings.Timeout)

	env, err := envfile.Load(a.config.EnvFile)
	if err != nil {
		return nil, err
	}

	runner := procrun.NewExecRunner(settings.Timeout)
	state := confstate.New()

	var opts []discovery.Option
	for _, key := range slices.Sorted(maps.Keys(settings.Tools)) {
		opts = append(opts, discovery.WithCandidates(key, settings.Tools[key]))
	}
	disc, err := discovery.New(runner, env, opts...)
	if err != nil {
		return nil, err
	}
	missing, err := disc.Run(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("tool discovery failed: %w", err)
	}

	for _, name := range slices.Sorted(maps.Keys(settings.Profiles)) {
		state.AddProfile(name)
		for key, value := range settings.Profiles[name] {
			state.SetProfile(name, key, value)
		}
	}

	a.logger.Info("🚀 Running configuration tests...", "dir", settings.TestsDir)
	eng := engine.New(runner, state, engine.Options{
		Workers:           settings.Workers,
		WorkDir:           settings.WorkDir,
		ScriptInterpreter: settings.ScriptInterpreter,
	})
	report, err := eng.Run(ctx, settings.TestsDir)
	if err != nil {
		return nil, fmt.Errorf("configuration pass failed: %w", err)
	}

	res := &Result{Settings: settings, Missing: missing, Report: report, State: state.Snapshot()}
	if err := a.writeOutput(ctx, res.State); err != nil {
		return nil, err
	}
	printSummary(a.summaryWriter(), a.config.OutPath, res)

	a.logger.Info("🏁 Configuration finished.", "failures", len(report.Failures), "missing_tools", len(missing))
	return res, nil
}

func (a *App) writeOutput(ctx context.Context, snap confstate.Snapshot) error {
	if a.config.OutPath == StdoutPath {
		return a.writer.Write(ctx, a.outW, snap)
	}

	f, err := os.Create(a.config.OutPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := a.writer.Write(ctx, f, snap); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	a.logger.Debug("Hand-off document written.", "path", a.config.OutPath)
	return nil
}

// summaryWriter keeps the summary out of a hand-off document sent to stdout.
func (a *App) summaryWriter() io.Writer {
	if a.config.OutPath == StdoutPath {
		return a.logW
	}
	return a.outW
}
