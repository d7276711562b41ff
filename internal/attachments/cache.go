package attachments

import (
	"context"
	"sync"
	"time"

	"collapsible/internal/shared/logging"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCacheSize = 512
	defaultCacheTTL  = 10 * time.Minute
)

type cachedType struct {
	mime     string
	storedAt time.Time
}

// flight is the shared probe for one address. It is cancelled once every
// caller waiting on it has gone.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// CachingProber memoizes remote probe results in memory and collapses
// concurrent probes for the same address into one request. The shared request
// outlives any single caller and is abandoned when the last one leaves. Inline
// references are never cached. Nothing survives the process.
type CachingProber struct {
	delegate Prober
	base     string
	cache    *lru.Cache[string, cachedType]
	ttl      time.Duration
	group    singleflight.Group
	recorder ProbeRecorder
	logger   logging.Logger
	now      func() time.Time

	mu      sync.Mutex
	hits    int64
	misses  int64
	flights map[string]*flight
}

// CacheStats reports lookup counters since creation.
type CacheStats struct {
	Size   int
	Hits   int64
	Misses int64
}

// NewCachingProber wraps delegate. baseURL is used to key relative references
// by their resolved address. A non-positive size or ttl selects the defaults.
func NewCachingProber(delegate Prober, baseURL string, size int, ttl time.Duration, recorder ProbeRecorder, logger logging.Logger) *CachingProber {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	cache, err := lru.New[string, cachedType](size)
	if err != nil {
		// Only fails on size <= 0, which is handled above.
		panic(err)
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &CachingProber{
		delegate: delegate,
		base:     baseURL,
		cache:    cache,
		ttl:      ttl,
		recorder: recorder,
		logger:   logging.OrNop(logger),
		now:      time.Now,
		flights:  make(map[string]*flight),
	}
}

func (c *CachingProber) Probe(ctx context.Context, ref string) (string, error) {
	if Classify(ref) != KindRemote {
		return c.delegate.Probe(ctx, ref)
	}

	key := Resolve(ref, c.base)
	if mime, ok := c.lookup(key); ok {
		c.recordLookup(ctx, true)
		return mime, nil
	}
	c.recordLookup(ctx, false)

	f := c.join(ctx, key)
	ch := c.group.DoChan(key, func() (any, error) {
		mime, err := c.delegate.Probe(f.ctx, ref)
		if err == nil {
			c.cache.Add(key, cachedType{mime: mime, storedAt: c.now()})
		}
		return mime, err
	})

	select {
	case <-ctx.Done():
		c.leave(key, f, true)
		return "", ctx.Err()
	case res := <-ch:
		c.leave(key, f, false)
		mime, _ := res.Val.(string)
		if res.Shared {
			c.logger.Debug("Shared in-flight probe for %s", key)
		}
		return mime, res.Err
	}
}

// join registers the caller on the flight for key, creating it if needed.
// The flight context keeps ctx's values but not its cancellation.
func (c *CachingProber) join(ctx context.Context, key string) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		c.flights[key] = f
	}
	f.waiters++
	return f
}

func (c *CachingProber) leave(key string, f *flight, abandoned bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if c.flights[key] == f {
		delete(c.flights, key)
	}
	if abandoned {
		// A caller arriving now must start a fresh request, not join the
		// cancelled one.
		c.group.Forget(key)
		c.logger.Debug("Abandoned probe for %s: no callers left", key)
	}
}

func (c *CachingProber) lookup(key string) (string, bool) {
	entry, ok := c.cache.Get(key)
	if !ok {
		return "", false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		c.cache.Remove(key)
		return "", false
	}
	return entry.mime, true
}

func (c *CachingProber) recordLookup(ctx context.Context, hit bool) {
	c.mu.Lock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
	c.recorder.RecordCacheLookup(ctx, hit)
}

// Stats returns the current cache size and lookup counters.
func (c *CachingProber) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Size: c.cache.Len(), Hits: c.hits, Misses: c.misses}
}

// Purge drops every cached entry.
func (c *CachingProber) Purge() {
	c.cache.Purge()
}
