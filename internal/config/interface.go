package config

import (
	"context"
	"io"

	"github.com/vk/confprobe/internal/confstate"
)

// Loader reads settings from a path. A path that does not exist yields the
// defaults; a malformed file is an error.
type Loader interface {
	Load(ctx context.Context, path string) (*Settings, error)
}

// Writer serializes the final configuration state for the build generator.
type Writer interface {
	Write(ctx context.Context, w io.Writer, snap confstate.Snapshot) error
}
