// Package cache is the server-state cache shared by every view: keyed
// queries with request de-duplication, stale-while-revalidate reads and
// explicit invalidation.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const DefaultStaleTime = 30 * time.Second

type EventType int

const (
	EventUpdated EventType = iota
	EventInvalidated
)

func (t EventType) String() string {
	if t == EventInvalidated {
		return "invalidated"
	}
	return "updated"
}

// Event is delivered to subscribers. For invalidations Key may carry an
// empty Param; use Key.Matches to test interest.
type Event struct {
	Type EventType
	Key  Key
}

type Options struct {
	StaleTime time.Duration
	Now       func() time.Time
	Logger    *slog.Logger
}

type Cache struct {
	staleTime time.Duration
	now       func() time.Time
	log       *slog.Logger
	group     singleflight.Group

	mu      sync.Mutex
	entries map[Key]*entry
	gens    map[Key]uint64
	subs    map[int]func(Event)
	nextSub int
}

type entry struct {
	value      any
	fetchedAt  time.Time
	gen        uint64
	invalid    bool
	refreshing bool
}

func New(opts Options) *Cache {
	if opts.StaleTime <= 0 {
		opts.StaleTime = DefaultStaleTime
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Cache{
		staleTime: opts.StaleTime,
		now:       opts.Now,
		log:       opts.Logger,
		entries:   make(map[Key]*entry),
		gens:      make(map[Key]uint64),
		subs:      make(map[int]func(Event)),
	}
}

// Subscribe registers fn for cache events and returns a function that
// removes it. fn runs synchronously and must not block.
func (c *Cache) Subscribe(fn func(Event)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Cache) notify(ev Event) {
	c.mu.Lock()
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Invalidate marks every matching entry stale and notifies subscribers.
// Cached values are kept until a refetch replaces them.
func (c *Cache) Invalidate(keys ...Key) {
	for _, k := range keys {
		c.mu.Lock()
		for ek, e := range c.entries {
			if k.Matches(ek) {
				e.invalid = true
			}
		}
		for gk := range c.gens {
			if k.Matches(gk) {
				c.gens[gk]++
				// Later callers start a new fetch instead of joining one
				// that began before the invalidation.
				c.group.Forget(gk.String())
			}
		}
		c.mu.Unlock()
		c.log.Debug("cache invalidated", "key", k.String())
		c.notify(Event{Type: EventInvalidated, Key: k})
	}
}

// Peek returns the cached value without fetching.
func (c *Cache) Peek(key Key) (value any, ok bool, stale bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, false
	}
	return e.value, true, c.isStale(e)
}

func (c *Cache) isStale(e *entry) bool {
	return e.invalid || c.now().Sub(e.fetchedAt) >= c.staleTime
}

// load runs fetch once per key across concurrent callers and stores the
// result. A value fetched across an invalidation is stored but stays stale,
// unless a fetch started after the invalidation has already stored its value.
func (c *Cache) load(ctx context.Context, key Key, fetch func(context.Context) (any, error)) (any, error) {
	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		c.mu.Lock()
		gen, seen := c.gens[key]
		if !seen {
			c.gens[key] = 0
		}
		c.mu.Unlock()

		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		cur := c.gens[key]
		if prev, ok := c.entries[key]; ok && gen != cur && prev.gen == cur && !prev.invalid {
			// A newer fetch already landed.
			c.mu.Unlock()
			return v, nil
		}
		c.entries[key] = &entry{value: v, fetchedAt: c.now(), gen: gen, invalid: gen != cur}
		c.mu.Unlock()
		c.notify(Event{Type: EventUpdated, Key: key})
		return v, nil
	})
	return v, err
}

func (c *Cache) refreshInBackground(ctx context.Context, key Key, fetch func(context.Context) (any, error)) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.refreshing {
		c.mu.Unlock()
		return
	}
	e.refreshing = true
	c.mu.Unlock()

	go func() {
		_, err := c.load(context.WithoutCancel(ctx), key, fetch)
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok {
			cur.refreshing = false
		}
		c.mu.Unlock()
		if err != nil {
			c.log.Debug("cache background refresh failed", "key", key.String(), "err", err)
		}
	}()
}

func erase[T any](fetch func(context.Context) (T, error)) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}
}

func typed[T any](key Key, v any) (T, error) {
	out, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache: %s holds %T", key, v)
	}
	return out, nil
}

// Get serves the cached value when there is one and starts a background
// refresh if it is stale. With nothing cached it blocks on fetch.
func Get[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	var (
		v     any
		stale bool
	)
	if ok {
		v = e.value
		stale = c.isStale(e)
	}
	c.mu.Unlock()

	if ok {
		if stale {
			c.refreshInBackground(ctx, key, erase(fetch))
		}
		return typed[T](key, v)
	}
	v, err := c.load(ctx, key, erase(fetch))
	if err != nil {
		var zero T
		return zero, err
	}
	return typed[T](key, v)
}

// Fetch returns fresh data, blocking on fetch when the entry is stale or
// missing.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	fresh := ok && !c.isStale(e)
	var v any
	if fresh {
		v = e.value
	}
	c.mu.Unlock()

	if fresh {
		return typed[T](key, v)
	}
	v, err := c.load(ctx, key, erase(fetch))
	if err != nil {
		var zero T
		return zero, err
	}
	return typed[T](key, v)
}

// Mutate runs a write exactly once and, when it succeeds, invalidates the
// given keys. Writes are never retried.
func (c *Cache) Mutate(ctx context.Context, write func(context.Context) error, invalidate ...Key) error {
	if err := write(ctx); err != nil {
		return err
	}
	c.Invalidate(invalidate...)
	return nil
}
