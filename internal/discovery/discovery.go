package discovery

import (
	"context"
	"fmt"
	"runtime"

	"github.com/vk/confprobe/internal/confstate"
	"github.com/vk/confprobe/internal/ctxlog"
	"github.com/vk/confprobe/internal/envfile"
	"github.com/vk/confprobe/internal/probe"
	"github.com/vk/confprobe/internal/procrun"
)

// Option tweaks a Discovery.
type Option func(*Discovery)

// WithCandidates replaces the candidate list of the tool with the given key.
// Unknown keys add a new tool to probe.
func WithCandidates(key string, candidates []string) Option {
	return func(d *Discovery) {
		for i := range d.tools {
			if d.tools[i].Key == key {
				d.tools[i].Candidates = append([]string(nil), candidates...)
				return
			}
		}
		d.tools = append(d.tools, Tool{Key: key, Description: key, Candidates: append([]string(nil), candidates...)})
	}
}

// Discovery probes for build tools.
type Discovery struct {
	runner procrun.Runner
	env    *envfile.Environment
	tools  []Tool
}

// New creates a Discovery over runner, reading overrides from env.
func New(runner procrun.Runner, env *envfile.Environment, opts ...Option) (*Discovery, error) {
	cached, err := newCachingRunner(runner)
	if err != nil {
		return nil, fmt.Errorf("failed to create probe cache: %w", err)
	}
	d := &Discovery{runner: cached, env: env}
	for _, t := range DefaultTools {
		t.Candidates = append([]string(nil), t.Candidates...)
		d.tools = append(d.tools, t)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Tools returns the tools this Discovery will look for.
func (d *Discovery) Tools() []Tool {
	return append([]Tool(nil), d.tools...)
}

// Run locates every tool, records results in state and returns one
// diagnostic per missing tool. It only fails when ctx is cancelled.
func (d *Discovery) Run(ctx context.Context, state *confstate.State) ([]*ToolNotFoundError, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Tool discovery started.", "tools", len(d.tools))

	state.SetSystem("OS", runtime.GOOS)
	state.SetSystem("ARCH", runtime.GOARCH)

	var missing []*ToolNotFoundError
	for _, tool := range d.tools {
		if err := ctx.Err(); err != nil {
			return missing, err
		}
		command, found, err := d.locate(ctx, tool)
		if err != nil {
			return missing, err
		}
		if !found {
			nf := &ToolNotFoundError{Tool: tool, Tried: tool.Candidates}
			logger.Warn(nf.Error(), "tool", tool.Key)
			missing = append(missing, nf)
			continue
		}
		state.Set(tool.Key, command)
		logger.Info("Found tool.", "tool", tool.Key, "command", command)
		d.recordVersion(ctx, state, tool, command)
	}

	for _, name := range FlagVariables {
		state.Set(name, d.env.Get(name, ""))
	}

	logger.Debug("Tool discovery finished.", "missing", len(missing))
	return missing, nil
}

// locate returns the override or the first candidate whose --version exits
// zero. A candidate that cannot be spawned is simply absent.
func (d *Discovery) locate(ctx context.Context, tool Tool) (string, bool, error) {
	logger := ctxlog.FromContext(ctx).With("tool", tool.Key)

	if override, ok := d.env.Lookup(tool.Key); ok && override != "" {
		logger.Debug("Using override.", "command", override)
		return override, true, nil
	}

	for _, candidate := range tool.Candidates {
		test, err := probe.NewCommandExecuteTest(d.runner, tool.Key+" finder", probe.Argv{candidate, "--version"})
		if err != nil {
			return "", false, err
		}
		res, err := test.Execute(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return "", false, ctx.Err()
			}
			logger.Debug("Candidate not available.", "candidate", candidate, "error", err)
			continue
		}
		if res.Success() {
			return candidate, true, nil
		}
		logger.Debug("Candidate rejected.", "candidate", candidate, "exit_code", res.ExitCode)
	}
	return "", false, nil
}

// recordVersion stores <KEY>_VERSION in the system map when the tool reports
// a dotted version. Failures here are logged and otherwise ignored.
func (d *Discovery) recordVersion(ctx context.Context, state *confstate.State, tool Tool, command string) {
	logger := ctxlog.FromContext(ctx).With("tool", tool.Key)

	argv, err := probe.Split(command)
	if err != nil || len(argv) == 0 {
		logger.Debug("Cannot split tool command for version probe.", "command", command, "error", err)
		return
	}
	test, err := probe.NewCommandVersionTest(d.runner, tool.Key+" version", probe.Argv(append(argv, "--version")))
	if err != nil {
		return
	}
	version, res, err := test.Execute(ctx)
	switch {
	case err != nil:
		logger.Debug("Version probe failed to start.", "error", err)
	case !res.Success():
		logger.Debug("Version probe exited non-zero.", "exit_code", res.ExitCode)
	case version == "":
		logger.Debug("No version number in tool output.")
	default:
		state.SetSystem(tool.Key+"_VERSION", version)
	}
}
