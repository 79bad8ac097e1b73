package discovery

import "fmt"

// Tool describes one build tool to locate.
type Tool struct {
	// Key is both the configuration key and the override variable name.
	Key string
	// Description names the tool in diagnostics.
	Description string
	// Candidates are probed in order when no override is set.
	Candidates []string
}

// DefaultTools is the set of tools probed by a configure run.
var DefaultTools = []Tool{
	{Key: "CC", Description: "C compiler", Candidates: []string{"gcc", "clang"}},
	{Key: "CXX", Description: "C++ compiler", Candidates: []string{"g++", "clang++"}},
	{Key: "AR", Description: "archiver", Candidates: []string{"ar", "llvm-ar"}},
	{Key: "LD", Description: "linker", Candidates: []string{"ld", "ld.lld"}},
	{Key: "BISON", Description: "parser generator", Candidates: []string{"bison"}},
	{Key: "FLEX", Description: "lexer generator", Candidates: []string{"flex"}},
	{Key: "PYTHON", Description: "Python interpreter", Candidates: []string{"python3", "python"}},
}

// FlagVariables are seeded from overrides, defaulting to empty strings.
var FlagVariables = []string{"CXXFLAGS", "CFLAGS", "LDFLAGS", "BISONFLAGS", "FLEXFLAGS"}

// ToolNotFoundError reports a tool that has no override and no working
// candidate.
type ToolNotFoundError struct {
	Tool  Tool
	Tried []string
}

// Error implements the error interface for ToolNotFoundError.
func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("could not find a suitable %s (tried %v); please specify one with the %s environment variable",
		e.Tool.Description, e.Tried, e.Tool.Key)
}
