package app

import (
	"io"
	"log/slog"

	"github.com/vk/confprobe/internal/config"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logW   io.Writer
	logger *slog.Logger
	config *Config
	loader config.Loader
	writer config.Writer
}

// NewApp is the constructor for the main application. The summary and a
// stdout hand-off document go to outW; logs go to logW.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, writer config.Writer) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		logW:   logW,
		logger: logger,
		config: cfg,
		loader: loader,
		writer: writer,
	}
}
