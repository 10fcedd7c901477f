// Package cache holds the console's read-through copy of backend state.
//
// Entries are keyed by Key, expire after a per-entity staleness window and
// can be invalidated by key prefix. Concurrent fetches of one key share a
// single load. Writes go through Mutation, which applies an optimistic value
// and either commits the server's answer or restores the previous entry.
package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/diewo77/go-hoardings/internal/apperr"
)

// Loader performs the remote read for a key.
type Loader func(ctx context.Context) (any, error)

// State is the lifecycle position of one entry.
type State int

const (
	StateAbsent State = iota
	StateLoading
	StateFresh
	StateStale
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	default:
		return "absent"
	}
}

// Options configures a Cache.
type Options struct {
	// Staleness maps an entity (first key segment) to its window.
	Staleness map[string]time.Duration
	// DefaultStaleness applies to entities missing from Staleness.
	DefaultStaleness time.Duration
	// LoadTimeout bounds a load once detached from its caller.
	LoadTimeout time.Duration
	// ReadRetries is the number of extra attempts after a retryable failure.
	ReadRetries int
	// RetryBackoff is the first backoff; it doubles per attempt.
	RetryBackoff time.Duration
	// Now overrides the clock (tests).
	Now func() time.Time
	// Registerer receives the cache metrics. Nil skips registration.
	Registerer prometheus.Registerer
}

// DefaultOptions returns the console defaults: sites and clients stay fresh
// for 5 minutes, activities and dashboard data for 3.
func DefaultOptions() Options {
	return Options{
		Staleness: map[string]time.Duration{
			EntitySites:      5 * time.Minute,
			EntityClients:    5 * time.Minute,
			EntityActivities: 3 * time.Minute,
			EntityDashboard:  3 * time.Minute,
			EntityUser:       5 * time.Minute,
		},
		DefaultStaleness: 3 * time.Minute,
		LoadTimeout:      30 * time.Second,
		ReadRetries:      2,
		RetryBackoff:     200 * time.Millisecond,
	}
}

type entry struct {
	value    any
	storedAt time.Time
	stale    bool
}

// flight tracks a load in progress so that invalidation and eviction can
// reach results that have not landed yet.
type flight struct {
	invalidated bool
	dropped     bool
}

// Cache is safe for concurrent use. Values are stored by reference; callers
// must treat returned values as read-only.
type Cache struct {
	opts    Options
	metrics *metrics
	group   singleflight.Group

	mu       sync.Mutex
	entries  map[string]*entry
	inflight map[string]*flight
	locks    map[string]*keyLock
	// epoch advances on Clear; mutations begun earlier stop writing.
	epoch uint64
}

// New builds a cache. Zero fields in opts fall back to DefaultOptions.
func New(opts Options) *Cache {
	def := DefaultOptions()
	if opts.Staleness == nil {
		opts.Staleness = def.Staleness
	}
	if opts.DefaultStaleness <= 0 {
		opts.DefaultStaleness = def.DefaultStaleness
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = def.LoadTimeout
	}
	if opts.ReadRetries < 0 {
		opts.ReadRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = def.RetryBackoff
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		opts:     opts,
		metrics:  newMetrics(opts.Registerer),
		entries:  make(map[string]*entry),
		inflight: make(map[string]*flight),
		locks:    make(map[string]*keyLock),
	}
}

func (c *Cache) window(k Key) time.Duration {
	if d, ok := c.opts.Staleness[k.Entity()]; ok {
		return d
	}
	return c.opts.DefaultStaleness
}

// fresh must be called with c.mu held.
func (c *Cache) fresh(k Key, e *entry) bool {
	return !e.stale && c.opts.Now().Sub(e.storedAt) < c.window(k)
}

// Fetch returns the value for key, loading it when absent or stale.
// Concurrent fetches of the same key share one load. If ctx ends first the
// caller gets ctx.Err() while the load keeps running and still fills the
// cache for the next reader.
func (c *Cache) Fetch(ctx context.Context, key Key, loader Loader) (any, error) {
	id := key.id()

	c.mu.Lock()
	if e, ok := c.entries[id]; ok && c.fresh(key, e) {
		c.mu.Unlock()
		c.metrics.hits.Inc()
		return e.value, nil
	}
	c.mu.Unlock()
	c.metrics.misses.Inc()

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(id, func() (any, error) {
		return c.load(detached, key, loader)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.metrics.shared.Inc()
		}
		return res.Val, res.Err
	}
}

func (c *Cache) load(ctx context.Context, key Key, loader Loader) (any, error) {
	id := key.id()
	f := &flight{}
	c.mu.Lock()
	if prev, ok := c.inflight[id]; ok {
		// A forgotten load may still be running; it must not overwrite this one.
		prev.dropped = true
	}
	c.inflight[id] = f
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.inflight[id] == f {
			delete(c.inflight, id)
		}
		c.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, c.opts.LoadTimeout)
	defer cancel()

	var (
		val any
		err error
	)
	for attempt := 0; ; attempt++ {
		c.metrics.loads.Inc()
		val, err = loader(ctx)
		if err == nil || attempt >= c.opts.ReadRetries || !apperr.IsRetryable(err) {
			break
		}
		backoff := time.Duration(1<<uint(attempt)) * c.opts.RetryBackoff
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			err = fmt.Errorf("load %s: %w", key, ctx.Err())
		case <-timer.C:
			continue
		}
		break
	}
	if err != nil {
		c.metrics.loadErrors.Inc()
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !f.dropped {
		c.entries[id] = &entry{value: val, storedAt: c.opts.Now(), stale: f.invalidated}
	}
	return val, nil
}

// Get is the typed form of Fetch.
func Get[T any](ctx context.Context, c *Cache, key Key, load func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache: %s holds %T, not %T", key, v, zero)
	}
	return t, nil
}

// Peek returns the cached value for key regardless of freshness.
func (c *Cache) Peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.id()]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Set stores a fresh value, replacing any entry and superseding a running load.
func (c *Cache) Set(key Key, value any) {
	id := key.id()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.write(id, value)
}

// Invalidate marks every entry under prefix stale and returns how many were
// marked. Loads already running under prefix store their result as stale and
// the next Fetch starts a new load instead of joining them.
func (c *Cache) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for id, e := range c.entries {
		if parseKey(id).HasPrefix(prefix) && !e.stale {
			e.stale = true
			n++
		}
	}
	for id, f := range c.inflight {
		if parseKey(id).HasPrefix(prefix) {
			f.invalidated = true
			c.group.Forget(id)
		}
	}
	c.metrics.invalidations.Add(float64(n))
	return n
}

// Remove evicts key. A load running for key will not store its result.
func (c *Cache) Remove(key Key) {
	id := key.id()
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	if f, ok := c.inflight[id]; ok {
		f.dropped = true
		c.group.Forget(id)
	}
}

// Clear drops every entry and detaches running loads from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.epoch++
	for id, f := range c.inflight {
		f.dropped = true
		c.group.Forget(id)
	}
}

// State reports where key sits in its lifecycle.
func (c *Cache) State(key Key) State {
	id := key.id()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inflight[id]; ok {
		return StateLoading
	}
	e, ok := c.entries[id]
	switch {
	case !ok:
		return StateAbsent
	case c.fresh(key, e):
		return StateFresh
	default:
		return StateStale
	}
}

// Keys lists the cached keys in lexical order.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	c.mu.Unlock()
	sort.Strings(ids)
	keys := make([]Key, len(ids))
	for i, id := range ids {
		keys[i] = parseKey(id)
	}
	return keys
}
