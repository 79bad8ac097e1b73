// Package classify maps configuration test file names to test kinds using
// the naming convention <name>-<qualifier>.<ext>.
package classify

import "strings"

// Kind is the closed set of classifications a file name can receive.
type Kind int

const (
	// Ignored files are skipped silently.
	Ignored Kind = iota
	// Unrecognized files have a test language suffix but no known qualifier.
	Unrecognized
	CppFeature
	CppPassFail
	CppConfig
	PyFeature
	PyPassFail
	PyConfig
)

// Language is the source language of a test.
type Language int

const (
	NoLanguage Language = iota
	Cpp
	Python
)

// Policy is what a test contributes to the configuration.
type Policy int

const (
	NoPolicy Policy = iota
	// Feature tests append KEY = VALUE output to the project map.
	Feature
	// PassFail tests contribute nothing but their exit status.
	PassFail
	// Configuration tests insert KEY = VALUE output into the defines map.
	Configuration
)

// BuildInfoSuffix names the sidecar file next to a compiled test, and marks
// Python helper files that are never tests themselves.
const BuildInfoSuffix = "-buildinfo"

var cppExtensions = []string{".cpp", ".C", ".cxx", ".cc"}

var qualifiers = []struct {
	suffix string
	policy Policy
}{
	{"-feature-test", Feature},
	{"-pass-fail", PassFail},
	{"-configuration-test", Configuration},
}

var kinds = map[Language]map[Policy]Kind{
	Cpp:    {Feature: CppFeature, PassFail: CppPassFail, Configuration: CppConfig},
	Python: {Feature: PyFeature, PassFail: PyPassFail, Configuration: PyConfig},
}

// Classify returns the kind of the file called name. Only the base name is
// considered and matching is case sensitive.
func Classify(name string) Kind {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}

	lang, stem := splitLanguage(name)
	if lang == NoLanguage {
		return Ignored
	}
	for _, q := range qualifiers {
		if strings.HasSuffix(stem, q.suffix) {
			return kinds[lang][q.policy]
		}
	}
	return Unrecognized
}

// splitLanguage strips a recognized extension and reports its language.
func splitLanguage(name string) (Language, string) {
	for _, ext := range cppExtensions {
		if strings.HasSuffix(name, ext) {
			return Cpp, strings.TrimSuffix(name, ext)
		}
	}
	if stem, ok := strings.CutSuffix(name, ".py"); ok && !strings.HasSuffix(stem, BuildInfoSuffix) {
		return Python, stem
	}
	return NoLanguage, name
}

// Language returns the source language of k.
func (k Kind) Language() Language {
	switch k {
	case CppFeature, CppPassFail, CppConfig:
		return Cpp
	case PyFeature, PyPassFail, PyConfig:
		return Python
	}
	return NoLanguage
}

// Policy returns what a test of kind k contributes.
func (k Kind) Policy() Policy {
	switch k {
	case CppFeature, PyFeature:
		return Feature
	case CppPassFail, PyPassFail:
		return PassFail
	case CppConfig, PyConfig:
		return Configuration
	}
	return NoPolicy
}

// Runnable reports whether k names a test that should be executed.
func (k Kind) Runnable() bool {
	return k.Policy() != NoPolicy
}

func (k Kind) String() string {
	switch k {
	case Ignored:
		return "ignored"
	case Unrecognized:
		return "unrecognized"
	case CppFeature:
		return "cpp-feature"
	case CppPassFail:
		return "cpp-pass-fail"
	case CppConfig:
		return "cpp-configuration"
	case PyFeature:
		return "py-feature"
	case PyPassFail:
		return "py-pass-fail"
	case PyConfig:
		return "py-configuration"
	}
	return "unknown"
}

func (p Policy) String() string {
	switch p {
	case Feature:
		return "feature"
	case PassFail:
		return "pass-fail"
	case Configuration:
		return "configuration"
	}
	return "none"
}
