package hcl

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/confprobe/internal/config"
	"github.com/vk/confprobe/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// settingsFile mirrors the accepted top-level attributes and blocks. Fields
// are prefilled with defaults; gohcl leaves absent optional attributes alone.
type settingsFile struct {
	TestsDir          string          `hcl:"tests_dir,optional"`
	Timeout           string          `hcl:"timeout,optional"`
	Workers           int             `hcl:"workers,optional"`
	ScriptInterpreter string          `hcl:"script_interpreter,optional"`
	WorkDir           string          `hcl:"work_dir,optional"`
	Tools             []*toolBlock    `hcl:"tool,block"`
	Profiles          []*profileBlock `hcl:"profile,block"`
}

type toolBlock struct {
	Key        string   `hcl:"key,label"`
	Candidates []string `hcl:"candidates"`
}

type profileBlock struct {
	Name string            `hcl:"name,label"`
	Vars map[string]string `hcl:"vars,optional"`
}

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new HCL settings loader.
func NewLoader() *Loader {
	return &Loader{}
}

// evalContext exposes host facts to settings expressions, e.g.
// vars = { CXXFLAGS = os == "darwin" ? "-O2" : "-O3" }.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"os":   cty.StringVal(runtime.GOOS),
			"arch": cty.StringVal(runtime.GOARCH),
		},
	}
}

// Load parses the settings file at path.
func (l *Loader) Load(ctx context.Context, path string) (*config.Settings, error) {
	logger := ctxlog.FromContext(ctx)
	settings := config.Default()

	if path == "" {
		return settings, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("No settings file, using defaults.", "path", path)
			return settings, nil
		}
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}
	return l.parse(ctx, path, src, settings)
}

func (l *Loader) parse(ctx context.Context, path string, src []byte, settings *config.Settings) (*config.Settings, error) {
	logger := ctxlog.FromContext(ctx)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, diags)
	}

	root := settingsFile{
		TestsDir:          settings.TestsDir,
		Timeout:           settings.Timeout.String(),
		Workers:           settings.Workers,
		ScriptInterpreter: settings.ScriptInterpreter,
		WorkDir:           settings.WorkDir,
	}
	diags = gohcl.DecodeBody(file.Body, evalContext(), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode settings file %s: %w", path, diags)
	}

	timeout, err := time.ParseDuration(root.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout %q in %s: %w", root.Timeout, path, err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout in %s must be positive, got %s", path, timeout)
	}
	if root.Workers < 1 {
		return nil, fmt.Errorf("workers in %s must be at least 1, got %d", path, root.Workers)
	}

	settings.TestsDir = root.TestsDir
	settings.Timeout = timeout
	settings.Workers = root.Workers
	settings.ScriptInterpreter = root.ScriptInterpreter
	settings.WorkDir = root.WorkDir

	for _, tool := range root.Tools {
		if _, dup := settings.Tools[tool.Key]; dup {
			return nil, fmt.Errorf("tool %q declared twice in %s", tool.Key, path)
		}
		settings.Tools[tool.Key] = tool.Candidates
	}
	for _, p := range root.Profiles {
		if _, dup := settings.Profiles[p.Name]; dup {
			return nil, fmt.Errorf("profile %q declared twice in %s", p.Name, path)
		}
		vars := p.Vars
		if vars == nil {
			vars = map[string]string{}
		}
		settings.Profiles[p.Name] = vars
	}

	logger.Debug("Settings file loaded.", "path", path, "tools", len(settings.Tools), "profiles", len(settings.Profiles))
	return settings, nil
}
