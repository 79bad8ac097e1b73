package app

import (
	"errors"
	"time"

	"github.com/vk/confprobe/internal/config"
)

// StdoutPath selects standard output as the hand-off destination.
const StdoutPath = "-"

// Config holds the command-line level configuration of a run. Zero values
// defer to the settings file, which in turn defers to the defaults.
type Config struct {
	TestsDir     string
	SettingsPath string // optional HCL settings file
	OutPath      string // hand-off document, or StdoutPath
	EnvFile      string

	Workers int
	Timeout time.Duration
	WorkDir string

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.OutPath == "" {
		return nil, errors.New("OutPath is a required configuration field and cannot be empty")
	}
	if cfg.Workers < 0 {
		return nil, errors.New("workers cannot be negative")
	}
	if cfg.Timeout < 0 {
		return nil, errors.New("timeout cannot be negative")
	}
	return &cfg, nil
}

// apply layers the explicitly set command-line values over settings.
func (c *Config) apply(s *config.Settings) {
	if c.TestsDir != "" {
		s.TestsDir = c.TestsDir
	}
	if c.Workers > 0 {
		s.Workers = c.Workers
	}
	if c.Timeout > 0 {
		s.Timeout = c.Timeout
	}
	if c.WorkDir != "" {
		s.WorkDir = c.WorkDir
	}
}
