package activity

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/andrasnagy-data/weekplan/internal/shared/metrics"
)

// cachedStore keeps the last GetAll result and drops it on every successful write.
// Concurrent misses share one fetch per generation. A fetch that started before an
// invalidation cannot repopulate the cache.
type cachedStore struct {
	Store

	group singleflight.Group

	fetchTimeout time.Duration

	mu         sync.RWMutex
	generation uint64
	items      []Activity
	valid      bool
}

const defaultFetchTimeout = 10 * time.Second

func newCachedStore(backend Store) *cachedStore {
	return &cachedStore{Store: backend, fetchTimeout: defaultFetchTimeout}
}

func (c *cachedStore) GetAll(ctx context.Context) ([]Activity, error) {
	c.mu.RLock()
	if c.valid {
		items := slices.Clone(c.items)
		c.mu.RUnlock()
		metrics.RecordCacheLookup(true)
		return items, nil
	}
	generation := c.generation
	c.mu.RUnlock()

	metrics.RecordCacheLookup(false)

	// The shared fetch outlives any single caller; each caller only waits on its own ctx.
	results := c.group.DoChan(strconv.FormatUint(generation, 10), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		items, err := c.Store.GetAll(fetchCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.generation == generation {
			c.items = items
			c.valid = true
		}
		c.mu.Unlock()
		return items, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]Activity)), nil
	}
}

func (c *cachedStore) Insert(ctx context.Context, doc Activity) (string, error) {
	id, err := c.Store.Insert(ctx, doc)
	if err == nil {
		c.invalidate()
	}
	return id, err
}

func (c *cachedStore) Update(ctx context.Context, id string, patch Patch) (*Activity, error) {
	updated, err := c.Store.Update(ctx, id, patch)
	// A conflict means someone else wrote, so the cached copy is stale too.
	if err == nil || errors.Is(err, ErrVersionConflict) {
		c.invalidate()
	}
	return updated, err
}

func (c *cachedStore) Delete(ctx context.Context, id string) error {
	err := c.Store.Delete(ctx, id)
	if err == nil {
		c.invalidate()
	}
	return err
}

func (c *cachedStore) invalidate() {
	c.mu.Lock()
	c.generation++
	c.items = nil
	c.valid = false
	c.mu.Unlock()
	metrics.RecordCacheInvalidation()
}
