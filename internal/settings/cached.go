package settings

import (
	"context"
	"sync"
)

// Cached serves Load from memory in front of a backing Service. Save writes
// through; Set replaces the cached copy, which is how Follow applies edits
// made on disk by another process.
type Cached struct {
	backing Service

	mu     sync.Mutex
	loaded bool
	cached Settings
}

// NewCached wraps backing. The first Load reads through.
func NewCached(backing Service) *Cached {
	return &Cached{backing: backing}
}

// Load returns a copy of the cached settings, reading the backing service
// on first use.
func (c *Cached) Load() (Settings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		loaded, err := c.backing.Load()
		if err != nil {
			return Settings{}, err
		}
		c.cached, c.loaded = loaded, true
	}
	return c.cached.Clone(), nil
}

// Save writes s to the backing service and caches the normalized result.
func (c *Cached) Save(s Settings) error {
	normalized, err := s.Normalize()
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.backing.Save(normalized); err != nil {
		return err
	}
	c.cached, c.loaded = normalized, true
	return nil
}

// Set replaces the cached settings without writing them back.
func (c *Cached) Set(s Settings) {
	c.mu.Lock()
	c.cached, c.loaded = s.Clone(), true
	c.mu.Unlock()
}

// Follow keeps the cache in step with store until ctx is done. onChange, if
// set, runs after each refresh.
func (c *Cached) Follow(ctx context.Context, store *FileStore, onChange func(Settings)) error {
	return store.Watch(ctx, func(s Settings) {
		c.Set(s)
		if onChange != nil {
			onChange(s)
		}
	})
}
