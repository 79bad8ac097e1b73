package testutil

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeCompiler accepts the same argument shape as a real compiler driver:
// flags, one source file, "-o", output. The "source" is itself a shell
// script, so compiling is copying it into place and marking it executable.
// A source containing COMPILE_ERROR fails like a real syntax error. The
// received flags are written to the output's stderr stream for inspection.
const fakeCompiler = `#!/bin/sh
src=""
out=""
flags=""
next_is_out=0
for a in "$@"; do
	if [ "$next_is_out" = 1 ]; then
		out="$a"
		next_is_out=0
		continue
	fi
	case "$a" in
		-o) next_is_out=1 ;;
		-*) flags="$flags $a" ;;
		*) src="$a" ;;
	esac
done
if grep -q COMPILE_ERROR "$src"; then
	echo "$src:1:1: error: forced failure" >&2
	exit 1
fi
echo "flags:$flags"
cp "$src" "$out" && chmod +x "$out"
`

// WriteFakeCompiler installs the fake compiler in dir and returns its path.
func WriteFakeCompiler(t *testing.T, dir string) string {
	t.Helper()
	return WriteScript(t, dir, "fake-cxx", fakeCompiler)
}

// WriteScript writes an executable file named name into dir. A body without
// a shebang line is run by /bin/sh.
func WriteScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if len(body) < 2 || body[:2] != "#!" {
		body = "#!/bin/sh\n" + body
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

// WriteTool installs a fake executable named name that prints version and
// exits with code, for tool discovery tests.
func WriteTool(t *testing.T, dir, name, version string, code int) string {
	t.Helper()
	body := "echo \"" + name + " (fake) " + version + "\"\nexit " + strconv.Itoa(code) + "\n"
	return WriteScript(t, dir, name, body)
}
