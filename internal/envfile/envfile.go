// Package envfile resolves environment-style overrides (CC, CXX, CXXFLAGS,
// ...) from the process environment layered over an optional .env file.
package envfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment answers override lookups. Process variables win over values
// read from the file, matching godotenv.Load.
type Environment struct {
	file   map[string]string
	lookup func(string) (string, bool)
}

// Load reads path when it exists. A missing file yields an environment
// backed by the process only.
func Load(path string) (*Environment, error) {
	env := &Environment{file: map[string]string{}, lookup: os.LookupEnv}
	if path == "" {
		return env, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return env, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	env.file = values
	return env, nil
}

// FromMap builds an environment that consults only values, never the process.
func FromMap(values map[string]string) *Environment {
	return &Environment{
		file:   values,
		lookup: func(string) (string, bool) { return "", false },
	}
}

// Lookup returns the override for key and whether one is set.
func (e *Environment) Lookup(key string) (string, bool) {
	if v, ok := e.lookup(key); ok {
		return v, true
	}
	v, ok := e.file[key]
	return v, ok
}

// Get returns the override for key or fallback.
func (e *Environment) Get(key, fallback string) string {
	if v, ok := e.Lookup(key); ok {
		return v
	}
	return fallback
}
