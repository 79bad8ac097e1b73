package config

import (
	"os"
	"time"

	"github.com/vk/confprobe/internal/procrun"
)

// Settings tune a configure run. Zero values mean "use the default".
type Settings struct {
	// TestsDir holds the configuration test files.
	TestsDir string
	// Timeout bounds every subprocess.
	Timeout time.Duration
	// Workers is the number of tests executed concurrently.
	Workers int
	// ScriptInterpreter runs script tests; empty executes them directly.
	ScriptInterpreter string
	// WorkDir receives temporary executables.
	WorkDir string
	// Tools replaces the candidate list of a tool, keyed by tool key.
	Tools map[string][]string
	// Profiles seeds named build profiles with variables.
	Profiles map[string]map[string]string
}

// Default returns the built-in settings.
func Default() *Settings {
	return &Settings{
		TestsDir: "config-tests",
		Timeout:  procrun.DefaultTimeout,
		Workers:  1,
		WorkDir:  os.TempDir(),
		Tools:    map[string][]string{},
		Profiles: map[string]map[string]string{},
	}
}
