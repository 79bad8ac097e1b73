package probe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/confprobe/internal/procrun"
	"github.com/vk/confprobe/internal/testutil"
)

// countingRunner records how many commands were started.
type countingRunner struct {
	inner procrun.Runner
	calls atomic.Int32
	mu    sync.Mutex
	argvs [][]string
}

func (r *countingRunner) Run(ctx context.Context, argv []string) (procrun.Result, error) {
	r.calls.Add(1)
	r.mu.Lock()
	r.argvs = append(r.argvs, argv)
	r.mu.Unlock()
	return r.inner.Run(ctx, argv)
}

func newRunner() *countingRunner {
	return &countingRunner{inner: procrun.NewExecRunner(10 * time.Second)}
}

func setup(t *testing.T, program string) (dir, compiler, source string) {
	t.Helper()
	dir = t.TempDir()
	compiler = testutil.WriteFakeCompiler(t, dir)
	testutil.WriteFiles(t, dir, map[string]string{"probe.cpp": program})
	return dir, compiler, filepath.Join(dir, "probe.cpp")
}

func TestCompileTest_ArgvShapeAndCleanup(t *testing.T) {
	t.Parallel()
	dir, compiler, source := setup(t, "#!/bin/sh\necho hi\n")
	runner := newRunner()

	ct := NewCompileTest(runner, "compile", compiler, source, []string{"-std=c++11", "-O2"}, WithWorkDir(dir))
	res, err := ct.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "flags: -std=c++11 -O2\n", res.Stdout)
	assert.Equal(t, []string{compiler, "-std=c++11", "-O2", source, "-o", ct.Executable()}, runner.argvs[0])
	assert.True(t, strings.HasPrefix(filepath.Base(ct.Executable()), TempExecutablePrefix))
	assert.NoFileExists(t, ct.Executable())
}

func TestCompileTest_KeepExecutable(t *testing.T) {
	t.Parallel()
	dir, compiler, source := setup(t, "#!/bin/sh\necho hi\n")
	exe := filepath.Join(dir, "kept")

	ct := NewCompileTest(newRunner(), "compile", compiler, source, nil, WithExecutable(exe), KeepExecutable())
	_, err := ct.Execute(context.Background())

	require.NoError(t, err)
	assert.FileExists(t, exe)
}

func TestCompileTest_GeneratedNamesAreUnique(t *testing.T) {
	t.Parallel()
	const n = 200
	names := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			names <- NewCompileTest(nil, "c", "cc", "x.cpp", nil).Executable()
		}()
	}
	wg.Wait()
	close(names)

	seen := make(map[string]struct{}, n)
	for name := range names {
		assert.True(t, strings.HasPrefix(name, "./"+TempExecutablePrefix), name)
		seen[name] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestCompileAndExecuteTest_ReturnsBothPhases(t *testing.T) {
	t.Parallel()
	dir, compiler, source := setup(t, "#!/bin/sh\necho \"run $1\"\necho warn >&2\n")

	cet := NewCompileAndExecuteTest(newRunner(), "both", compiler, source, []string{"-Wall"},
		[]CompileOption{WithWorkDir(dir)}, WithArgs("--fast"))
	out, err := cet.Execute(context.Background())
	require.NoError(t, err)

	runStatus, runOut, runErr, compileStatus, compileOut, compileErr := out.Fields()
	assert.Equal(t, 0, runStatus)
	assert.Equal(t, "run --fast\n", runOut)
	assert.Equal(t, "warn\n", runErr)
	assert.Equal(t, 0, compileStatus)
	assert.Equal(t, "flags: -Wall\n", compileOut)
	assert.Equal(t, "", compileErr)
	assert.True(t, out.Ran)
	assert.False(t, out.Checked)
	assert.True(t, out.Success())
	assert.NoFileExists(t, cet.Executable())
}

func TestCompileAndExecuteTest_ExpectedOutput(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		prints  string
		matched bool
	}{
		{name: "matching output", prints: "8", matched: true},
		{name: "different output", prints: "9", matched: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			dir, compiler, source := setup(t, "#!/bin/sh\necho "+tc.prints+"\n")

			cet := NewCompileAndExecuteTest(newRunner(), "64 bit tester", compiler, source, []string{"-std=c++11"},
				[]CompileOption{WithWorkDir(dir)}, WithExpectedOutput("8"))
			out, err := cet.Execute(context.Background())

			require.NoError(t, err)
			assert.True(t, out.Checked)
			assert.Equal(t, tc.matched, out.Matched)
		})
	}
}

func TestCompileAndExecuteTest_CompileFailureSkipsRun(t *testing.T) {
	t.Parallel()
	dir, compiler, source := setup(t, "COMPILE_ERROR\n")
	runner := newRunner()

	cet := NewCompileAndExecuteTest(runner, "broken", compiler, source, nil, []CompileOption{WithWorkDir(dir)}, WithExpectedOutput("8"))
	out, err := cet.Execute(context.Background())

	require.NoError(t, err)
	assert.False(t, out.Ran)
	assert.False(t, out.Checked, "no comparison happens without a run phase")
	assert.Equal(t, 1, out.Status())
	assert.Contains(t, out.Stderr(), "forced failure")
	assert.EqualValues(t, 1, runner.calls.Load(), "the run phase must never start")
	assert.NoFileExists(t, cet.Executable())
}

func TestCompileAndExecuteTest_CleansUpWhenRunFails(t *testing.T) {
	t.Parallel()

	t.Run("non-zero exit", func(t *testing.T) {
		t.Parallel()
		dir, compiler, source := setup(t, "#!/bin/sh\necho partial\nexit 4\n")

		cet := NewCompileAndExecuteTest(newRunner(), "failing", compiler, source, nil, []CompileOption{WithWorkDir(dir)})
		out, err := cet.Execute(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 4, out.Status())
		assert.Equal(t, "partial\n", out.Stdout())
		assert.NoFileExists(t, cet.Executable())
	})

	t.Run("run phase cannot start", func(t *testing.T) {
		t.Parallel()
		// No shebang and not a binary: exec refuses to start it.
		dir, compiler, source := setup(t, "plain text, not a program\n")

		cet := NewCompileAndExecuteTest(newRunner(), "unrunnable", compiler, source, nil, []CompileOption{WithWorkDir(dir)})
		_, err := cet.Execute(context.Background())

		require.Error(t, err)
		assert.True(t, procrun.IsSpawnError(err))
		assert.NoFileExists(t, cet.Executable())
	})
}

func TestCompileAndExecuteTest_KeepExecutableSurvivesRun(t *testing.T) {
	t.Parallel()
	dir, compiler, source := setup(t, "#!/bin/sh\necho 1\n")

	cet := NewCompileAndExecuteTest(newRunner(), "keep", compiler, source, nil,
		[]CompileOption{WithWorkDir(dir), KeepExecutable()})
	_, err := cet.Execute(context.Background())

	require.NoError(t, err)
	assert.FileExists(t, cet.Executable())
	require.NoError(t, os.Remove(cet.Executable()))
}

func TestCommandExecuteTest(t *testing.T) {
	t.Parallel()

	t.Run("raw command line is shell split", func(t *testing.T) {
		t.Parallel()
		cmd, err := NewCommandExecuteTest(newRunner(), "echo", Raw(`/bin/sh -c "echo 'a  b'; exit 2"`))
		require.NoError(t, err)
		assert.Equal(t, []string{"/bin/sh", "-c", "echo 'a  b'; exit 2"}, cmd.Argv())

		res, err := cmd.Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, res.ExitCode)
		assert.Equal(t, "a  b\n", res.Stdout)
	})

	t.Run("argument vector is used verbatim", func(t *testing.T) {
		t.Parallel()
		cmd, err := NewCommandExecuteTest(newRunner(), "echo", Argv{"/bin/echo", "x y"})
		require.NoError(t, err)
		res, err := cmd.Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "x y\n", res.Stdout)
	})

	t.Run("unterminated quote is rejected at construction", func(t *testing.T) {
		t.Parallel()
		_, err := NewCommandExecuteTest(newRunner(), "bad", Raw(`echo "oops`))
		require.Error(t, err)
	})

	t.Run("empty command is rejected at construction", func(t *testing.T) {
		t.Parallel()
		_, err := NewCommandExecuteTest(newRunner(), "empty", Raw("   "))
		require.Error(t, err)
	})
}

func TestCommandVersionTest(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		script   string
		version  string
		exitCode int
	}{
		{name: "gcc banner", script: "echo 'g++ (GCC) 11.3.0'", version: "11.3.0"},
		{name: "two groups", script: "echo 'bison (GNU Bison) 3.8'", version: "3.8"},
		{name: "first token wins", script: "printf 'clang version 15.0.7\\nTarget: x86_64\\nInstalledDir 1.2\\n'", version: "15.0.7"},
		{name: "no dotted token", script: "echo 'version unknown 42'", version: ""},
		{name: "non-zero exit propagates raw result", script: "echo 'tool 1.2.3'; exit 3", version: "", exitCode: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			vt, err := NewCommandVersionTest(newRunner(), tc.name, Argv{"/bin/sh", "-c", tc.script})
			require.NoError(t, err)

			version, res, err := vt.Execute(context.Background())

			require.NoError(t, err)
			assert.Equal(t, tc.version, version)
			assert.Equal(t, tc.exitCode, res.ExitCode)
			if tc.exitCode != 0 {
				assert.Contains(t, res.Stdout, "1.2.3")
			}
		})
	}
}

func TestScrapeVersion(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "11.3.0", ScrapeVersion("g++ (GCC) 11.3.0"))
	assert.Equal(t, "", ScrapeVersion("no version here"))
	assert.Equal(t, "2.6.4", ScrapeVersion("flex 2.6.4"))
}
