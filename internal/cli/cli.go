package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/confprobe/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("confprobe", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
confprobe - Probe the build environment and record its configuration.

Usage:
  confprobe [options] [TESTS_DIR]

Arguments:
  TESTS_DIR
    Directory of configuration tests. Defaults to the settings file value,
    or "config-tests".

Environment:
  CC, CXX, AR, LD, BISON, FLEX,
  PYTHON                           override tool discovery
  CXXFLAGS, CFLAGS, LDFLAGS, ...   seed the flag variables
  Values may also come from the --env-file; the process environment wins.

Options:
`)
		flagSet.PrintDefaults()
	}

	testsDirFlag := flagSet.String("tests-dir", "", "Directory of configuration tests.")
	dFlag := flagSet.String("d", "", "Directory of configuration tests (shorthand).")
	configFlag := flagSet.String("config", "", "Optional HCL settings file.")
	outFlag := flagSet.String("out", "build-config.hcl", "Where to write the configuration. '-' writes to stdout.")
	envFileFlag := flagSet.String("env-file", ".env", "File of KEY=VALUE overrides, read when present.")
	workersFlag := flagSet.Int("workers", 0, "Tests executed concurrently. 0 uses the settings file value (default 1).")
	timeoutFlag := flagSet.Duration("timeout", 0, "Limit for every subprocess. 0 uses the settings file value (default 2m).")
	workDirFlag := flagSet.String("work-dir", "", "Directory for temporary test executables.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	testsDir := ""
	switch {
	case *testsDirFlag != "":
		testsDir = *testsDirFlag
	case *dFlag != "":
		testsDir = *dFlag
	case flagSet.NArg() > 0:
		testsDir = flagSet.Arg(0)
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected arguments: %s", strings.Join(flagSet.Args()[1:], " "))}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		TestsDir:     testsDir,
		SettingsPath: *configFlag,
		OutPath:      *outFlag,
		EnvFile:      *envFileFlag,
		Workers:      *workersFlag,
		Timeout:      *timeoutFlag,
		WorkDir:      *workDirFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
