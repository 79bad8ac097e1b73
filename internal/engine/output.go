package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedOutput is wrapped by every *MalformedOutputError.
var ErrMalformedOutput = errors.New("malformed test output")

// MalformedOutputError identifies the offending line of a test's output.
type MalformedOutputError struct {
	LineNo int
	Line   string
	Reason string
}

// Error implements the error interface for MalformedOutputError.
func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("%v: line %d %q: %s", ErrMalformedOutput, e.LineNo, e.Line, e.Reason)
}

// Unwrap lets errors.Is match ErrMalformedOutput.
func (e *MalformedOutputError) Unwrap() error {
	return ErrMalformedOutput
}

// Definition is one KEY = VALUE pair.
type Definition struct {
	Key   string
	Value string
}

// ParseLine parses a single non-blank output line.
func ParseLine(line string) (Definition, error) {
	switch n := strings.Count(line, "="); {
	case n == 0:
		return Definition{}, &MalformedOutputError{Line: line, Reason: "missing '=' separator"}
	case n > 1:
		return Definition{}, &MalformedOutputError{Line: line, Reason: fmt.Sprintf("%d '=' separators, expected exactly one", n)}
	}
	key, value, _ := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	if key == "" {
		return Definition{}, &MalformedOutputError{Line: line, Reason: "empty key"}
	}
	return Definition{Key: key, Value: strings.TrimSpace(value)}, nil
}

// ParseOutput parses a whole stdout. On a malformed line it returns the
// definitions preceding it together with a *MalformedOutputError.
func ParseOutput(stdout string) ([]Definition, error) {
	var defs []Definition
	for i, line := range strings.Split(stdout, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		def, err := ParseLine(strings.TrimRight(line, "\r"))
		if err != nil {
			var malformed *MalformedOutputError
			if errors.As(err, &malformed) {
				malformed.LineNo = i + 1
			}
			return defs, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}
