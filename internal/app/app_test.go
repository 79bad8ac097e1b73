package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gookit/color"
	hclv2 "github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/confprobe/internal/hcl"
	"github.com/vk/confprobe/internal/procrun"
	"github.com/vk/confprobe/internal/testutil"
)

// setupAppTest lays out a project with a fake compiler wired in through a
// .env file and tool candidates that never resolve, so runs do not depend
// on the host toolchain.
func setupAppTest(t *testing.T, tests map[string]string) (cfg Config, root string) {
	t.Helper()
	root = t.TempDir()
	compiler := testutil.WriteFakeCompiler(t, root)

	testsDir := filepath.Join(root, "config-tests")
	for name, body := range tests {
		testutil.WriteScript(t, testsDir, name, body)
	}

	testutil.WriteFiles(t, root, map[string]string{
		".env": "CXX=" + compiler + "\n",
		"settings.hcl": `
tool "CC"    { candidates = ["/nonexistent/cc"] }
tool "AR"    { candidates = ["/nonexistent/ar"] }
tool "LD"    { candidates = ["/nonexistent/ld"] }
tool "BISON" { candidates = ["/nonexistent/bison"] }
tool "FLEX"  { candidates = ["/nonexistent/flex"] }
tool "PYTHON" { candidates = ["/nonexistent/python3"] }

profile "debug" {
  vars = { CXXFLAGS = "-g -O0" }
}
`,
	})

	return Config{
		TestsDir:     testsDir,
		SettingsPath: filepath.Join(root, "settings.hcl"),
		OutPath:      filepath.Join(root, "build-config.hcl"),
		EnvFile:      filepath.Join(root, ".env"),
		WorkDir:      t.TempDir(),
		LogLevel:     "debug",
		LogFormat:    "text",
	}, root
}

func hclPos() hclv2.Pos {
	return hclv2.Pos{Line: 1, Column: 1, Byte: 0}
}

func newTestApp(t *testing.T, cfg Config) (*App, *bytes.Buffer, *testutil.SafeBuffer) {
	t.Helper()
	c, err := NewConfig(cfg)
	require.NoError(t, err)
	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	t.Cleanup(func() {
		if os.Getenv("CONFPROBE_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return NewApp(out, logs, c, hcl.NewLoader(), hcl.NewWriter()), out, logs
}

func TestApp_Run_EndToEnd(t *testing.T) {
	t.Parallel()
	cfg, _ := setupAppTest(t, map[string]string{
		"sse-feature-test.py":           `echo "CXXFLAGS = -msse4.2"`,
		"threads-configuration-test.py": `echo "HAVE_THREADS = 1"`,
		"broken-pass-fail.py":           "echo 'missing header' >&2\nexit 1",
	})
	testApp, out, _ := newTestApp(t, cfg)

	res, err := testApp.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Report.Executed)
	require.Len(t, res.Report.Failures, 1)
	assert.NotEmpty(t, res.Missing)
	assert.Equal(t, " -msse4.2", res.State.Project["CXXFLAGS"])
	assert.Equal(t, "1", res.State.Defines["HAVE_THREADS"])
	assert.Equal(t, "-g -O0", res.State.Profiles["debug"]["CXXFLAGS"])
	assert.NotEmpty(t, res.State.System["OS"])

	doc, err := os.ReadFile(cfg.OutPath)
	require.NoError(t, err)
	_, diags := hclsyntax.ParseConfig(doc, cfg.OutPath, hclPos())
	require.False(t, diags.HasErrors(), diags.Error())
	assert.Contains(t, string(doc), "HAVE_THREADS")

	summary := color.ClearCode(out.String())
	assert.Contains(t, summary, "tests run: 3")
	assert.Contains(t, summary, "FAILED broken-pass-fail.py (py-pass-fail)")
	assert.Contains(t, summary, "missing header")
	assert.Contains(t, summary, "MISSING")
	assert.Contains(t, summary, "Wrote "+cfg.OutPath)
}

func TestApp_Run_StdoutKeepsSummaryOut(t *testing.T) {
	t.Parallel()
	cfg, _ := setupAppTest(t, map[string]string{
		"ok-configuration-test.py": `echo "LEVEL = 2"`,
	})
	cfg.OutPath = StdoutPath
	testApp, out, logs := newTestApp(t, cfg)

	_, err := testApp.Run(context.Background())
	require.NoError(t, err)

	_, diags := hclsyntax.ParseConfig(out.Bytes(), "stdout", hclPos())
	require.False(t, diags.HasErrors(), diags.Error())
	assert.NotContains(t, out.String(), "Configuration summary")
	assert.Contains(t, color.ClearCode(logs.String()), "OK all configuration tests passed")
}

func TestApp_Run_CommandLineOverridesSettings(t *testing.T) {
	t.Parallel()
	cfg, _ := setupAppTest(t, nil)
	cfg.TestsDir = t.TempDir()
	cfg.Workers = 3
	testApp, _, _ := newTestApp(t, cfg)

	res, err := testApp.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, cfg.TestsDir, res.Settings.TestsDir)
	assert.Equal(t, 3, res.Settings.Workers)
	assert.Equal(t, procrun.DefaultTimeout, res.Settings.Timeout)
	assert.Zero(t, res.Report.Executed)
}

func TestApp_Run_FatalErrors(t *testing.T) {
	t.Parallel()

	t.Run("bad settings file", func(t *testing.T) {
		t.Parallel()
		cfg, root := setupAppTest(t, nil)
		testutil.WriteFiles(t, root, map[string]string{"settings.hcl": "workers = \n"})
		testApp, _, _ := newTestApp(t, cfg)

		_, err := testApp.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load settings")
	})

	t.Run("spawn failure", func(t *testing.T) {
		t.Parallel()
		cfg, root := setupAppTest(t, map[string]string{"x-feature-test.py": "echo 'X = 1'"})
		testutil.WriteFiles(t, root, map[string]string{".env": "PYTHON=/nonexistent/python3\n"})
		testApp, _, _ := newTestApp(t, cfg)

		_, err := testApp.Run(context.Background())
		require.Error(t, err)
		assert.True(t, procrun.IsSpawnError(err))
		_, statErr := os.Stat(cfg.OutPath)
		assert.ErrorIs(t, statErr, os.ErrNotExist, "no hand-off document after an aborted pass")
	})

	t.Run("missing tests directory", func(t *testing.T) {
		t.Parallel()
		cfg, root := setupAppTest(t, nil)
		cfg.TestsDir = filepath.Join(root, "nope")
		testApp, _, _ := newTestApp(t, cfg)

		_, err := testApp.Run(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestNewConfig(t *testing.T) {
	t.Parallel()

	_, err := NewConfig(Config{})
	assert.ErrorContains(t, err, "OutPath")

	_, err = NewConfig(Config{OutPath: "-", Workers: -1})
	assert.ErrorContains(t, err, "workers")

	c, err := NewConfig(Config{OutPath: "-"})
	require.NoError(t, err)
	assert.Equal(t, StdoutPath, c.OutPath)
}
