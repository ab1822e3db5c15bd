// Package query holds the client's only shared mutable state: the cache of
// station and point query results, together with the synchronizer that keeps
// it fresh. Reads are stale-while-revalidate and never block on the network
// once a value exists; concurrent reads of one key share a single in-flight
// fetch; completions are applied last-request-wins so a slow stale response
// can never clobber fresher data.
package query

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FetchFunc loads the authoritative value for a cache key.
type FetchFunc func(ctx context.Context) (interface{}, error)

// Result is a cache read. Value is the last successfully fetched value (nil
// when none exists yet), Err the most recent fetch failure. A failed refresh
// keeps the previous Value, so both fields can be set at once.
type Result struct {
	Value     interface{}
	Err       error
	FetchedAt time.Time
}

type entry struct {
	mu    sync.Mutex
	ttl   time.Duration
	fetch FetchFunc

	value     interface{}
	hasValue  bool
	lastErr   error
	fetchedAt time.Time
	stale     bool

	inflight int
	latest   chan struct{}
	rerun    bool

	seq     uint64
	applied uint64

	subs    map[int]chan Result
	nextSub int
}

// Cache stores one entry per distinct query key. All mutation of an entry
// happens under its own mutex; the outer mutex only guards the key map.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *zap.Logger
}

// NewCache builds an empty cache.
func NewCache(logger *zap.Logger) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		entries: make(map[string]*entry),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
	}
}

// Close stops background fetch activity.
func (c *Cache) Close() {
	c.cancel()
}

// Get reads key, fetching through fetch on a miss. A fresh hit returns
// immediately. A stale hit returns the cached value immediately and triggers
// a background refresh unless one is already running. A miss blocks until the
// (possibly shared) fetch completes or ctx is done.
func (c *Cache) Get(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) Result {
	e := c.entryFor(key, ttl, fetch)

	e.mu.Lock()
	if e.hasValue {
		if e.expiredLocked(time.Now()) && e.inflight == 0 {
			c.spawnLocked(key, e)
		}
		res := e.resultLocked()
		e.mu.Unlock()
		return res
	}

	var done chan struct{}
	if e.inflight > 0 {
		done = e.latest
	} else {
		done = c.spawnLocked(key, e)
	}
	e.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	}

	e.mu.Lock()
	res := e.resultLocked()
	e.mu.Unlock()
	return res
}

// Subscribe registers interest in key and returns a channel receiving every
// applied update. While at least one subscription exists, invalidating the
// key refreshes it eagerly. The returned cancel func must be called when the
// consumer goes away.
func (c *Cache) Subscribe(key string, ttl time.Duration, fetch FetchFunc) (<-chan Result, func()) {
	e := c.entryFor(key, ttl, fetch)

	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	ch := make(chan Result, 1)
	e.subs[id] = ch
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		if _, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(ch)
		}
		e.mu.Unlock()
	}
	return ch, cancel
}

// Invalidate marks key stale. If a fetch is in flight the entry is scheduled
// for exactly one more fetch after it resolves; otherwise a refresh starts
// right away when anyone is subscribed.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	e := c.entries[key]
	c.mu.Unlock()
	if e == nil {
		return
	}

	e.mu.Lock()
	e.stale = true
	switch {
	case e.inflight > 0:
		e.rerun = true
	case len(e.subs) > 0:
		c.spawnLocked(key, e)
	}
	e.mu.Unlock()
}

// InvalidatePrefix invalidates every key in a namespace.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	c.mu.Unlock()

	for _, key := range keys {
		c.Invalidate(key)
	}
}

// Refresh forces a new fetch for key even if one is already running. The
// ordering guard makes sure only the newest completion is applied.
func (c *Cache) Refresh(key string) {
	c.mu.Lock()
	e := c.entries[key]
	c.mu.Unlock()
	if e == nil {
		return
	}

	e.mu.Lock()
	c.spawnLocked(key, e)
	e.mu.Unlock()
}

// RefreshStale re-fetches every subscribed entry whose value has gone stale.
// Driven by the background sweeper.
func (c *Cache) RefreshStale() {
	c.mu.Lock()
	snapshot := make(map[string]*entry, len(c.entries))
	for key, e := range c.entries {
		snapshot[key] = e
	}
	c.mu.Unlock()

	now := time.Now()
	for key, e := range snapshot {
		e.mu.Lock()
		if len(e.subs) > 0 && e.hasValue && e.expiredLocked(now) && e.inflight == 0 {
			c.spawnLocked(key, e)
		}
		e.mu.Unlock()
	}
}

func (c *Cache) entryFor(key string, ttl time.Duration, fetch FetchFunc) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &entry{subs: make(map[int]chan Result)}
		c.entries[key] = e
	}
	e.mu.Lock()
	e.ttl = ttl
	if fetch != nil {
		e.fetch = fetch
	}
	e.mu.Unlock()
	return e
}

// spawnLocked starts a fetch for e. Caller holds e.mu.
func (c *Cache) spawnLocked(key string, e *entry) chan struct{} {
	if e.fetch == nil {
		done := make(chan struct{})
		close(done)
		return done
	}

	e.seq++
	n := e.seq
	done := make(chan struct{})
	e.inflight++
	e.latest = done
	fetch := e.fetch

	go c.runFetch(key, e, n, fetch, done)
	return done
}

func (c *Cache) runFetch(key string, e *entry, n uint64, fetch FetchFunc, done chan struct{}) {
	value, err := fetch(c.ctx)

	e.mu.Lock()
	e.inflight--

	applied := false
	if n > e.applied {
		e.applied = n
		applied = true
		if err == nil {
			e.value = value
			e.hasValue = true
			e.fetchedAt = time.Now()
			e.stale = false
			e.lastErr = nil
		} else {
			e.lastErr = err
		}
	}

	if e.inflight == 0 && e.rerun {
		e.rerun = false
		c.spawnLocked(key, e)
	}

	if applied {
		// Notify under the entry lock so a concurrent unsubscribe cannot
		// close a channel mid-send. Sends never block: channels are buffered
		// and laggards just miss an update.
		res := e.resultLocked()
		for _, ch := range e.subs {
			select {
			case ch <- res:
			default:
			}
		}
	}
	e.mu.Unlock()

	close(done)

	if err != nil {
		c.logger.Warn("cache fetch failed", zap.String("key", key), zap.Error(err))
	} else {
		c.logger.Debug("cache entry updated", zap.String("key", key), zap.Uint64("request", n))
	}
}

func (e *entry) expiredLocked(now time.Time) bool {
	if e.stale {
		return true
	}
	return e.ttl > 0 && now.Sub(e.fetchedAt) >= e.ttl
}

func (e *entry) resultLocked() Result {
	return Result{Value: e.value, Err: e.lastErr, FetchedAt: e.fetchedAt}
}
