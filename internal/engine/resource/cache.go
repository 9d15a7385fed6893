// Package resource caches GPU textures by source path so every file is
// decoded and uploaded at most once per graphics context.
package resource

import (
	"context"
	"fmt"
	"image"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/chungus/internal/assets"
	"github.com/Faultbox/chungus/internal/engine/gpu"
	"github.com/Faultbox/chungus/internal/engine/texture"
	"github.com/Faultbox/chungus/internal/logger"
)

// Texture is an uploaded image tagged with the material slot it fills.
// The handle is shared by every mesh that references the same path.
type Texture struct {
	Handle uint32
	Kind   texture.Kind
	Path   string
}

// Stats reports cache activity.
type Stats struct {
	Hits    int
	Misses  int
	Uploads int
}

// Option configures a Cache.
type Option func(*Cache)

// WithDecodeWorkers bounds the number of goroutines Preload decodes on.
func WithDecodeWorkers(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.workers = n
		}
	}
}

// Cache maps normalized texture paths to GPU handles. Entries are never
// evicted; Release frees them all when the graphics context goes away.
//
// Uploads go through the backend and must run on the render goroutine.
// The mutex only makes lookup-and-insert atomic.
type Cache struct {
	backend gpu.Backend
	decoder texture.Decoder
	workers int
	log     *zap.Logger

	mu      sync.Mutex
	handles map[string]uint32
	stats   Stats
}

// New creates an empty cache uploading through backend.
func New(backend gpu.Backend, decoder texture.Decoder, opts ...Option) *Cache {
	c := &Cache{
		backend: backend,
		decoder: decoder,
		workers: 4,
		log:     logger.Named("resource"),
		handles: make(map[string]uint32),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrLoadTexture returns the handle for path, decoding and uploading the
// image on first use. Failures are returned and never cached, so a later
// call retries.
func (c *Cache) GetOrLoadTexture(path string) (uint32, error) {
	key := assets.Normalize(path)
	if key == "" {
		return 0, fmt.Errorf("empty texture path: %w", assets.ErrAssetNotFound)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.handles[key]; ok {
		c.stats.Hits++
		c.log.Debug("texture cache hit", zap.String("path", key), zap.Uint32("handle", h))
		return h, nil
	}
	c.stats.Misses++

	img, err := c.decoder.Decode(key)
	if err != nil {
		return 0, err
	}
	return c.uploadLocked(key, img)
}

// Texture resolves path through the cache and tags it with kind.
func (c *Cache) Texture(path string, kind texture.Kind) (Texture, error) {
	h, err := c.GetOrLoadTexture(path)
	if err != nil {
		return Texture{}, err
	}
	return Texture{Handle: h, Kind: kind, Path: assets.Normalize(path)}, nil
}

// Preload decodes every uncached path on worker goroutines, then uploads the
// results on the calling goroutine. If any decode fails nothing is uploaded
// and the first error is returned.
func (c *Cache) Preload(ctx context.Context, paths []string) error {
	var pending []string
	seen := make(map[string]bool)

	c.mu.Lock()
	for _, p := range paths {
		key := assets.Normalize(p)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if _, ok := c.handles[key]; !ok {
			pending = append(pending, key)
		}
	}
	c.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	images := make([]*image.RGBA, len(pending))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, key := range pending {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := c.decoder.Decode(key)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("preload textures: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, key := range pending {
		if _, ok := c.handles[key]; ok {
			continue
		}
		c.stats.Misses++
		if _, err := c.uploadLocked(key, images[i]); err != nil {
			return err
		}
	}
	c.log.Info("textures preloaded", zap.Int("count", len(pending)))
	return nil
}

func (c *Cache) uploadLocked(key string, img *image.RGBA) (uint32, error) {
	h, err := c.backend.CreateTexture(img, gpu.DefaultTextureParams)
	if err != nil {
		return 0, fmt.Errorf("upload texture %s: %w", key, err)
	}
	c.handles[key] = h
	c.stats.Uploads++
	c.log.Debug("texture uploaded",
		zap.String("path", key),
		zap.Uint32("handle", h),
		zap.Int("width", img.Rect.Dx()),
		zap.Int("height", img.Rect.Dy()),
	)
	return h, nil
}

// Len returns the number of cached textures.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handles)
}

// Stats returns cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Release deletes every cached texture. Call it once, on the render
// goroutine, before the graphics context is destroyed.
func (c *Cache) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, h := range c.handles {
		c.backend.DeleteTexture(h)
		delete(c.handles, key)
	}
	c.log.Debug("texture cache released", zap.Int("hits", c.stats.Hits), zap.Int("misses", c.stats.Misses))
}
