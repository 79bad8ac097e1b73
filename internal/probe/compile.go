package probe

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/vk/confprobe/internal/ctxlog"
	"github.com/vk/confprobe/internal/procrun"
)

// TempExecutablePrefix marks generated executables as disposable.
const TempExecutablePrefix = "confprobe-tmp-"

// CompileOption tweaks a CompileTest.
type CompileOption func(*CompileTest)

// WithExecutable names the produced executable instead of generating one.
func WithExecutable(path string) CompileOption {
	return func(t *CompileTest) { t.executable = path }
}

// WithWorkDir places a generated executable in dir.
func WithWorkDir(dir string) CompileOption {
	return func(t *CompileTest) { t.workDir = dir }
}

// KeepExecutable leaves the produced executable on disk.
func KeepExecutable() CompileOption {
	return func(t *CompileTest) { t.keepExecutable = true }
}

// CompileTest compiles a single source file into an executable.
type CompileTest struct {
	name           string
	compiler       string
	source         string
	flags          []string
	executable     string
	workDir        string
	keepExecutable bool
	runner         procrun.Runner
}

// NewCompileTest builds the test. Without WithExecutable the executable name
// is TempExecutablePrefix followed by a random UUID, so concurrent probes
// never collide.
func NewCompileTest(runner procrun.Runner, name, compiler, source string, flags []string, opts ...CompileOption) *CompileTest {
	t := &CompileTest{
		name:     name,
		compiler: compiler,
		source:   source,
		flags:    append([]string(nil), flags...),
		runner:   runner,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.executable == "" {
		t.executable = TempExecutablePrefix + uuid.NewString()
		if t.workDir != "" {
			t.executable = filepath.Join(t.workDir, t.executable)
		}
	}
	// exec only skips the PATH lookup for names containing a separator.
	if !strings.ContainsRune(t.executable, filepath.Separator) {
		t.executable = "." + string(filepath.Separator) + t.executable
	}
	return t
}

// Name returns the test's display name.
func (t *CompileTest) Name() string { return t.name }

// Executable returns the path of the executable the compiler is asked to write.
func (t *CompileTest) Executable() string { return t.executable }

// Argv returns [compiler, flags..., source, "-o", executable].
func (t *CompileTest) Argv() []string {
	argv := make([]string, 0, len(t.flags)+4)
	argv = append(argv, t.compiler)
	argv = append(argv, t.flags...)
	return append(argv, t.source, "-o", t.executable)
}

// Execute runs the compiler and, unless the executable is kept, removes it.
func (t *CompileTest) Execute(ctx context.Context) (procrun.Result, error) {
	return t.compile(ctx, t.keepExecutable)
}

func (t *CompileTest) compile(ctx context.Context, keep bool) (procrun.Result, error) {
	logger := ctxlog.FromContext(ctx).With("test", t.name)
	logger.Debug("Compiling test source.", "source", t.source, "executable", t.executable)

	res, err := t.runner.Run(ctx, t.Argv())
	if !keep {
		t.removeExecutable(ctx)
	}
	return res, err
}

func (t *CompileTest) removeExecutable(ctx context.Context) {
	err := os.Remove(t.executable)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		ctxlog.FromContext(ctx).Warn("Failed to remove temporary executable.", "path", t.executable, "error", err)
	}
}
