package probe

import (
	"errors"
	"fmt"

	"github.com/google/shlex"
)

// Command is either a raw command line or an argument vector. It is resolved
// to an argument vector once, when a test is constructed.
type Command interface {
	argv() ([]string, error)
}

// Raw is a command line split using shell lexing rules.
type Raw string

// Argv is an already split argument vector used verbatim.
type Argv []string

func (r Raw) argv() ([]string, error) {
	return Split(string(r))
}

func (a Argv) argv() ([]string, error) {
	return append([]string(nil), a...), nil
}

// Split tokenizes s into words using shell quoting rules. An empty or
// all-whitespace string yields an empty slice.
func Split(s string) ([]string, error) {
	words, err := shlex.Split(s)
	if err != nil {
		return nil, fmt.Errorf("failed to split %q: %w", s, err)
	}
	return words, nil
}

func resolve(cmd Command) ([]string, error) {
	if cmd == nil {
		return nil, errors.New("no command given")
	}
	argv, err := cmd.argv()
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, errors.New("command resolves to an empty argument vector")
	}
	return argv, nil
}
