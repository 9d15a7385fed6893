package importer

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/chungus/internal/logger"
)

// Cached memoizes successful imports by path and flags so objects sharing a
// model file parse it once. Returned scenes are shared and must be treated
// as read-only.
type Cached struct {
	mu     sync.Mutex
	next   Importer
	scenes map[cacheKey]*Scene
	log    *zap.Logger
}

type cacheKey struct {
	path  string
	flags Flags
}

// NewCached wraps next.
func NewCached(next Importer) *Cached {
	return &Cached{
		next:   next,
		scenes: make(map[cacheKey]*Scene),
		log:    logger.Named("importer"),
	}
}

// Import returns the cached scene or imports it. Failures are not cached.
func (c *Cached) Import(path string, flags Flags) (*Scene, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{path: path, flags: flags}
	if s, ok := c.scenes[key]; ok {
		c.log.Debug("import cache hit", zap.String("path", path))
		return s, nil
	}
	s, err := c.next.Import(path, flags)
	if err != nil {
		return nil, err
	}
	c.scenes[key] = s
	return s, nil
}

// Forget drops every cached scene.
func (c *Cached) Forget() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.scenes)
}
