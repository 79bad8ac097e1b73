package system

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/gookit/color"
	"github.com/stretchr/testify/require"
	"github.com/vk/confprobe/internal/app"
	"github.com/vk/confprobe/internal/hcl"
	"github.com/vk/confprobe/internal/testutil"
)

// project is a throwaway source tree with a fake C++ toolchain.
type project struct {
	root     string
	testsDir string
	compiler string
	settings string
}

// unresolvable keeps discovery away from the host toolchain.
const unresolvable = `
tool "CC"    { candidates = ["/nonexistent/cc"] }
tool "AR"    { candidates = ["/nonexistent/ar"] }
tool "LD"    { candidates = ["/nonexistent/ld"] }
tool "BISON" { candidates = ["/nonexistent/bison"] }
tool "FLEX"  { candidates = ["/nonexistent/flex"] }
tool "PYTHON" { candidates = ["/nonexistent/python3"] }
`

func newProject(t *testing.T, env string) *project {
	t.Helper()
	root := t.TempDir()
	p := &project{
		root:     root,
		testsDir: filepath.Join(root, "config-tests"),
		compiler: testutil.WriteFakeCompiler(t, filepath.Join(root, "bin")),
		settings: filepath.Join(root, "confprobe.hcl"),
	}
	require.NoError(t, os.MkdirAll(p.testsDir, 0o755))
	testutil.WriteFiles(t, root, map[string]string{
		".env":          "CXX=" + p.compiler + "\n" + env,
		"confprobe.hcl": unresolvable,
	})
	return p
}

// settingsFile appends extra HCL to the project's settings file.
func (p *project) settingsFile(t *testing.T, extra string) {
	t.Helper()
	testutil.WriteFiles(t, p.root, map[string]string{"confprobe.hcl": unresolvable + extra})
}

// script adds an executable script test.
func (p *project) script(t *testing.T, name, body string) {
	t.Helper()
	testutil.WriteScript(t, p.testsDir, name, body)
}

// file adds a plain file to the tests directory.
func (p *project) file(t *testing.T, name, content string) {
	t.Helper()
	testutil.WriteFiles(t, p.testsDir, map[string]string{name: content})
}

type outcome struct {
	result  *app.Result
	err     error
	doc     string
	summary string
	logs    string
}

func (p *project) configure(t *testing.T) outcome {
	t.Helper()
	cfg, err := app.NewConfig(app.Config{
		TestsDir:     p.testsDir,
		SettingsPath: p.settings,
		OutPath:      filepath.Join(p.root, "build-config.hcl"),
		EnvFile:      filepath.Join(p.root, ".env"),
		WorkDir:      t.TempDir(),
		LogLevel:     "debug",
		LogFormat:    "text",
	})
	require.NoError(t, err)

	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	res, runErr := app.NewApp(out, logs, cfg, hcl.NewLoader(), hcl.NewWriter()).Run(context.Background())

	t.Cleanup(func() {
		if os.Getenv("CONFPROBE_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	o := outcome{result: res, err: runErr, summary: color.ClearCode(out.String()), logs: logs.String()}
	if doc, err := os.ReadFile(cfg.OutPath); err == nil {
		o.doc = string(doc)
	}
	return o
}

// hasAttr reports whether doc assigns value to key, ignoring the alignment
// whitespace hclwrite inserts.
func hasAttr(doc, key, value string) bool {
	re := regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(key) + `\s*=\s*` + regexp.QuoteMeta(`"`+value+`"`) + `\s*$`)
	return re.MatchString(doc)
}
