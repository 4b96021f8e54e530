// Package streamcache keeps resolved stream descriptors in memory and on disk until they expire.
//
// Lookups hit memory first and fall back to the persistent tier, promoting
// entries that are still valid. Writes go to both tiers and then prune
// expired entries and everything beyond the capacity, oldest first.
// The persistent tier is best effort: when it fails the cache keeps working
// from memory alone.
package streamcache

import (
	"sort"
	"sync"
	"time"

	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
	"github.com/vidora/vidora/filesystem"
	"github.com/vidora/vidora/log"
	"github.com/vidora/vidora/video"
)

const (
	DefaultTTL      = 5 * time.Hour
	DefaultCapacity = 50
)

// Entry is a cached descriptor with its lifetime.
type Entry struct {
	Info      video.StreamInfo `json:"info"`
	CachedAt  time.Time        `json:"cached_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Expired reports whether the entry is past its expiry at now.
func (e *Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

type Options struct {
	// Path of the persistent tier. Empty keeps the cache in memory only.
	Path     string
	TTL      time.Duration
	Capacity int
	// Now is the clock, time.Now when nil.
	Now func() time.Time
}

// Stats is a point-in-time view of the cache.
type Stats struct {
	Memory     int           `json:"memory"`
	Persisted  int           `json:"persisted"`
	Expired    int           `json:"expired"`
	Capacity   int           `json:"capacity"`
	TTL        time.Duration `json:"ttl"`
	Hits       int           `json:"hits"`
	Misses     int           `json:"misses"`
	Persistent bool          `json:"persistent"`
}

type Cache struct {
	mu       sync.Mutex
	mem      map[string]*Entry
	disk     *gache.Cache[map[string]*Entry]
	ttl      time.Duration
	capacity int
	now      func() time.Time
	hits     int
	misses   int
	log      *logrus.Entry
}

func New(opts Options) *Cache {
	c := &Cache{
		mem:      make(map[string]*Entry),
		ttl:      opts.TTL,
		capacity: opts.Capacity,
		now:      opts.Now,
		log:      log.Component("streamcache"),
	}

	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.capacity <= 0 {
		c.capacity = DefaultCapacity
	}
	if c.now == nil {
		c.now = time.Now
	}

	if opts.Path != "" {
		c.disk = gache.New[map[string]*Entry](&gache.Options{
			Path:       opts.Path,
			FileSystem: &filesystem.GacheFs{},
		})
	}

	return c
}

func cacheKey(p video.Platform, id string) string {
	return video.Key{Platform: p, VideoID: id}.String()
}

// Get returns a copy of the descriptor unless it is missing or expired.
func (c *Cache) Get(p video.Platform, id string) mo.Option[*video.StreamInfo] {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookup(cacheKey(p, id))
	if !ok {
		c.misses++
		return mo.None[*video.StreamInfo]()
	}

	c.hits++
	info := e.Info
	return mo.Some(&info)
}

// Has reports whether a valid descriptor is cached, without touching the hit counters.
func (c *Cache) Has(p video.Platform, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.lookup(cacheKey(p, id))
	return ok
}

func (c *Cache) lookup(k string) (*Entry, bool) {
	now := c.now()

	if e, ok := c.mem[k]; ok {
		if !e.Expired(now) {
			return e, true
		}
		delete(c.mem, k)
	}

	stored, ok := c.load()
	if !ok {
		return nil, false
	}

	e, ok := stored[k]
	if !ok || e == nil || e.Expired(now) {
		return nil, false
	}

	c.mem[k] = e
	return e, true
}

// Set caches info for the platform video. An upstream expiry earlier than the TTL wins.
func (c *Cache) Set(p video.Platform, id string, info *video.StreamInfo) {
	if info == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e := &Entry{Info: *info, CachedAt: now, ExpiresAt: now.Add(c.ttl)}
	if info.ExpiresAt != nil && info.ExpiresAt.Before(e.ExpiresAt) {
		e.ExpiresAt = *info.ExpiresAt
	}

	k := cacheKey(p, id)
	c.mem[k] = e
	c.mem = c.prune(c.mem, now)

	if stored, ok := c.load(); ok {
		stored[k] = e
		c.store(c.prune(stored, now))
	}
}

// Remove drops the descriptor from both tiers.
func (c *Cache) Remove(p video.Platform, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := cacheKey(p, id)
	delete(c.mem, k)

	if stored, ok := c.load(); ok {
		if _, exists := stored[k]; exists {
			delete(stored, k)
			c.store(stored)
		}
	}
}

// Clear empties both tiers and resets the counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mem = make(map[string]*Entry)
	c.hits, c.misses = 0, 0
	if c.disk != nil {
		c.store(make(map[string]*Entry))
	}
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	s := Stats{
		Memory:     len(c.mem),
		Capacity:   c.capacity,
		TTL:        c.ttl,
		Hits:       c.hits,
		Misses:     c.misses,
		Persistent: c.disk != nil,
	}

	if stored, ok := c.load(); ok {
		s.Persisted = len(stored)
		s.Expired = lo.CountBy(lo.Values(stored), func(e *Entry) bool {
			return e == nil || e.Expired(now)
		})
	}

	return s
}

// Entries returns every valid entry from both tiers keyed by platform:id.
func (c *Cache) Entries() map[string]Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	out := make(map[string]Entry, len(c.mem))

	stored, _ := c.load()
	for _, m := range []map[string]*Entry{stored, c.mem} {
		for k, e := range m {
			if e != nil && !e.Expired(now) {
				out[k] = *e
			}
		}
	}
	return out
}

// prune removes expired entries and keeps only the newest capacity entries.
func (c *Cache) prune(m map[string]*Entry, now time.Time) map[string]*Entry {
	for k, e := range m {
		if e == nil || e.Expired(now) {
			delete(m, k)
		}
	}

	if len(m) <= c.capacity {
		return m
	}

	keys := lo.Keys(m)
	sort.Slice(keys, func(i, j int) bool {
		a, b := m[keys[i]], m[keys[j]]
		if a.CachedAt.Equal(b.CachedAt) {
			return keys[i] < keys[j]
		}
		return a.CachedAt.After(b.CachedAt)
	})

	for _, k := range keys[c.capacity:] {
		delete(m, k)
	}
	return m
}

func (c *Cache) load() (map[string]*Entry, bool) {
	if c.disk == nil {
		return nil, false
	}

	stored, expired, err := c.disk.Get()
	if err != nil {
		c.log.WithError(err).Warn("reading persistent tier, using memory only")
		return nil, false
	}
	if expired || stored == nil {
		return make(map[string]*Entry), true
	}
	return stored, true
}

func (c *Cache) store(m map[string]*Entry) {
	if err := c.disk.Set(m); err != nil {
		c.log.WithError(err).Warn("writing persistent tier, using memory only")
	}
}
