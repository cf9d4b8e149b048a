// Package availability caches catalog and availability reads in front of a
// booking backend.
package availability

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ateliercarvalho/atelier/internal/observability/metrics"
	"github.com/ateliercarvalho/atelier/internal/session"
	"golang.org/x/sync/singleflight"
)

// DefaultFetchTimeout bounds a shared fetch, which no single caller owns.
const DefaultFetchTimeout = 15 * time.Second

// Policy controls how long an entry is served without refetching (StaleTime)
// and how long an unused entry is kept at all (GCTime).
type Policy struct {
	StaleTime time.Duration
	GCTime    time.Duration
}

type entry struct {
	value     any
	fetchedAt time.Time
	lastUsed  time.Time
	policy    Policy
}

// Cache is a keyed query cache. Concurrent fetches of the same key share one
// call. Values handed out are shared and must be treated as read-only.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	epoch   uint64
	group   singleflight.Group
	now     func() time.Time
	metrics *metrics.AtelierMetrics

	fetchTimeout time.Duration
}

// NewCache builds an empty cache. m may be nil.
func NewCache(m *metrics.AtelierMetrics) *Cache {
	return &Cache{
		entries:      make(map[string]*entry),
		now:          time.Now,
		metrics:      m,
		fetchTimeout: DefaultFetchTimeout,
	}
}

var keyEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

// Key joins the parts that identify a query. Separators inside a part are
// escaped, so different part lists never share a key.
func Key(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, part := range parts {
		escaped[i] = keyEscaper.Replace(part)
	}
	return strings.Join(escaped, ":")
}

// Fetch returns the cached value for key while it is fresh, and otherwise
// runs fn once for all concurrent callers and caches its result. Errors are
// never cached.
//
// The shared fn runs on a context detached from the caller: it keeps request
// values but not cancellation or the caller's sessions, and is bounded by the
// cache's fetch timeout. Each caller still stops waiting when its own ctx is
// done.
func Fetch[T any](ctx context.Context, c *Cache, key string, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	resource, _, _ := strings.Cut(key, ":")

	c.mu.Lock()
	now := c.now()
	e, ok := c.entries[key]
	if ok && now.Sub(e.lastUsed) >= e.policy.GCTime {
		delete(c.entries, key)
		ok = false
	}
	if ok {
		v, typed := e.value.(T)
		switch {
		case !typed:
			delete(c.entries, key)
			ok = false
		case now.Sub(e.fetchedAt) < e.policy.StaleTime:
			e.lastUsed = now
			c.mu.Unlock()
			c.metrics.ObserveCache(resource, "hit")
			return v, nil
		default:
			e.lastUsed = now
		}
	}
	epoch := c.epoch
	timeout := c.fetchTimeout
	c.mu.Unlock()

	if ok {
		c.metrics.ObserveCache(resource, "stale")
	} else {
		c.metrics.ObserveCache(resource, "miss")
	}

	flight := fmt.Sprintf("%s#%d#%T", key, epoch, (*T)(nil))
	ch := c.group.DoChan(flight, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(session.Anonymous(context.WithoutCancel(ctx)), timeout)
		defer cancel()
		val, err := fn(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		// An invalidation during the fetch makes the result stale on arrival.
		if c.epoch == epoch {
			at := c.now()
			c.entries[key] = &entry{value: val, fetchedAt: at, lastUsed: at, policy: p}
		}
		c.mu.Unlock()
		return val, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, typed := res.Val.(T)
		if !typed {
			return zero, fmt.Errorf("availability: %s holds %T", key, res.Val)
		}
		return v, nil
	}
}

// Invalidate drops every entry whose key starts with prefix. Fetches already
// in flight will not store their results.
func (c *Cache) Invalidate(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Sweep removes entries unused for longer than their GC time.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.Sub(e.lastUsed) >= e.policy.GCTime {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Run sweeps on every tick until ctx is done.
func (c *Cache) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}
