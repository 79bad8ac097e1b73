package discovery

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vk/confprobe/internal/procrun"
)

// cacheSize comfortably holds every --version probe of a run.
const cacheSize = 64

// cachingRunner memoizes results by argument vector so that locating a tool
// and reading its version spawn the same command only once. Spawn failures
// are not cached.
type cachingRunner struct {
	inner procrun.Runner
	cache *lru.Cache[string, procrun.Result]
}

func newCachingRunner(inner procrun.Runner) (*cachingRunner, error) {
	cache, err := lru.New[string, procrun.Result](cacheSize)
	if err != nil {
		return nil, err
	}
	return &cachingRunner{inner: inner, cache: cache}, nil
}

func (r *cachingRunner) Run(ctx context.Context, argv []string) (procrun.Result, error) {
	key := strings.Join(argv, "\x00")
	if res, ok := r.cache.Get(key); ok {
		return res, nil
	}
	res, err := r.inner.Run(ctx, argv)
	if err != nil {
		return res, err
	}
	r.cache.Add(key, res)
	return res, nil
}
