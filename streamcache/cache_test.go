package streamcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
	"github.com/vidora/vidora/filesystem"
	"github.com/vidora/vidora/video"
)

func init() {
	filesystem.SetMemMapFs()
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

var pathSeq atomic.Int64

func tempPath() string {
	return fmt.Sprintf("/cache/streams-%d.json", pathSeq.Add(1))
}

func info(url string) *video.StreamInfo {
	return &video.StreamInfo{StreamURL: url, Quality: "720p"}
}

func TestGetSet(t *testing.T) {
	Convey("Given an empty cache", t, func() {
		clk := newClock()
		c := New(Options{Path: tempPath(), TTL: time.Hour, Now: clk.Now})

		Convey("Misses return None", func() {
			So(c.Get(video.YouTube, "a").IsAbsent(), ShouldBeTrue)
			So(c.Has(video.YouTube, "a"), ShouldBeFalse)
		})

		Convey("A stored descriptor is returned", func() {
			c.Set(video.YouTube, "a", info("https://cdn/a"))

			got := c.Get(video.YouTube, "a")
			So(got.IsPresent(), ShouldBeTrue)
			So(got.MustGet().StreamURL, ShouldEqual, "https://cdn/a")
			So(c.Has(video.YouTube, "a"), ShouldBeTrue)

			Convey("and callers get a copy", func() {
				got.MustGet().StreamURL = "mutated"
				So(c.Get(video.YouTube, "a").MustGet().StreamURL, ShouldEqual, "https://cdn/a")
			})
		})

		Convey("Keys are scoped by platform", func() {
			c.Set(video.YouTube, "a", info("https://cdn/a"))
			So(c.Has(video.Vimeo, "a"), ShouldBeFalse)
		})

		Convey("Nil descriptors are ignored", func() {
			c.Set(video.YouTube, "a", nil)
			So(c.Has(video.YouTube, "a"), ShouldBeFalse)
		})
	})
}

func TestExpiry(t *testing.T) {
	Convey("Given a descriptor cached with a one hour TTL", t, func() {
		clk := newClock()
		path := tempPath()
		c := New(Options{Path: path, TTL: time.Hour, Now: clk.Now})
		c.Set(video.YouTube, "a", info("https://cdn/a"))

		Convey("It is valid just before the TTL", func() {
			clk.Advance(time.Hour - time.Second)
			So(c.Get(video.YouTube, "a").IsPresent(), ShouldBeTrue)
		})

		Convey("It is gone just after the TTL", func() {
			clk.Advance(time.Hour + time.Millisecond)
			So(c.Get(video.YouTube, "a").IsAbsent(), ShouldBeTrue)

			Convey("and the persistent tier does not resurrect it", func() {
				fresh := New(Options{Path: path, TTL: time.Hour, Now: clk.Now})
				So(fresh.Get(video.YouTube, "a").IsAbsent(), ShouldBeTrue)
			})
		})
	})

	Convey("An upstream expiry earlier than the TTL wins", t, func() {
		clk := newClock()
		c := New(Options{TTL: 5 * time.Hour, Now: clk.Now})

		soon := clk.Now().Add(10 * time.Minute)
		i := info("https://cdn/b")
		i.ExpiresAt = &soon
		c.Set(video.Vimeo, "b", i)

		clk.Advance(11 * time.Minute)
		So(c.Get(video.Vimeo, "b").IsAbsent(), ShouldBeTrue)
	})

	Convey("An upstream expiry later than the TTL is capped", t, func() {
		clk := newClock()
		c := New(Options{TTL: time.Hour, Now: clk.Now})

		later := clk.Now().Add(48 * time.Hour)
		i := info("https://cdn/c")
		i.ExpiresAt = &later
		c.Set(video.Vimeo, "c", i)

		clk.Advance(2 * time.Hour)
		So(c.Has(video.Vimeo, "c"), ShouldBeFalse)
	})
}

func TestEviction(t *testing.T) {
	Convey("Given a cache with capacity 3", t, func() {
		clk := newClock()
		c := New(Options{Path: tempPath(), TTL: time.Hour, Capacity: 3, Now: clk.Now})

		for _, id := range []string{"a", "b", "c"} {
			c.Set(video.YouTube, id, info("https://cdn/"+id))
			clk.Advance(time.Second)
		}

		Convey("Inserting a fourth entry evicts the oldest", func() {
			c.Set(video.YouTube, "d", info("https://cdn/d"))

			So(c.Has(video.YouTube, "a"), ShouldBeFalse)
			So(c.Has(video.YouTube, "b"), ShouldBeTrue)
			So(c.Has(video.YouTube, "c"), ShouldBeTrue)
			So(c.Has(video.YouTube, "d"), ShouldBeTrue)
			So(c.Stats().Persisted, ShouldEqual, 3)
		})

		Convey("Re-caching an entry makes it the newest", func() {
			c.Set(video.YouTube, "a", info("https://cdn/a2"))
			clk.Advance(time.Second)
			c.Set(video.YouTube, "d", info("https://cdn/d"))

			So(c.Has(video.YouTube, "a"), ShouldBeTrue)
			So(c.Has(video.YouTube, "b"), ShouldBeFalse)
		})

		Convey("Expired entries are pruned before counting", func() {
			clk.Advance(time.Hour)
			c.Set(video.YouTube, "d", info("https://cdn/d"))
			So(c.Stats().Persisted, ShouldEqual, 1)
		})
	})
}

func TestPersistence(t *testing.T) {
	Convey("Given two caches sharing a persistent tier", t, func() {
		clk := newClock()
		path := tempPath()
		first := New(Options{Path: path, Now: clk.Now})
		first.Set(video.Dailymotion, "x", info("https://cdn/x"))

		second := New(Options{Path: path, Now: clk.Now})

		Convey("A miss in memory is served from disk and promoted", func() {
			So(second.Stats().Memory, ShouldEqual, 0)
			So(second.Get(video.Dailymotion, "x").MustGet().StreamURL, ShouldEqual, "https://cdn/x")
			So(second.Stats().Memory, ShouldEqual, 1)
		})

		Convey("Remove drops it from both tiers", func() {
			first.Remove(video.Dailymotion, "x")
			third := New(Options{Path: path, Now: clk.Now})
			So(third.Has(video.Dailymotion, "x"), ShouldBeFalse)
		})

		Convey("Clear empties everything", func() {
			first.Clear()
			stats := first.Stats()
			So(stats.Memory, ShouldEqual, 0)
			So(stats.Persisted, ShouldEqual, 0)
		})
	})

	Convey("Without a path the cache works from memory", t, func() {
		c := New(Options{})
		c.Set(video.YouTube, "a", info("https://cdn/a"))
		So(c.Has(video.YouTube, "a"), ShouldBeTrue)
		So(c.Stats().Persistent, ShouldBeFalse)
	})
}

func TestStats(t *testing.T) {
	Convey("Stats count hits and misses", t, func() {
		c := New(Options{Path: tempPath()})
		c.Set(video.YouTube, "a", info("https://cdn/a"))

		c.Get(video.YouTube, "a")
		c.Get(video.YouTube, "a")
		c.Get(video.YouTube, "missing")

		s := c.Stats()
		So(s.Hits, ShouldEqual, 2)
		So(s.Misses, ShouldEqual, 1)
		So(s.Capacity, ShouldEqual, DefaultCapacity)
		So(s.TTL, ShouldEqual, DefaultTTL)
		So(len(c.Entries()), ShouldEqual, 1)
	})
}

type fakeSource struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeSource) Resolve(_ context.Context, p video.Platform, id string) (*video.StreamInfo, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()

	if f.fail[id] {
		return nil, errors.New("boom")
	}
	return info("https://cdn/" + id), nil
}

func TestPrefetch(t *testing.T) {
	Convey("Given a prefetcher over an empty cache", t, func() {
		c := New(Options{})
		src := &fakeSource{fail: map[string]bool{"bad": true}}
		p := NewPrefetcher(c, src, 2, time.Second)

		items := []video.Item{
			{Platform: video.YouTube, VideoID: "a"},
			{Platform: video.YouTube, VideoID: "bad"},
			{Platform: video.Instagram, VideoID: "insta"},
			{Platform: video.Vimeo, VideoID: "c"},
		}

		Convey("It caches what resolves and ignores failures", func() {
			So(p.Run(context.Background(), items), ShouldEqual, 2)
			So(c.Has(video.YouTube, "a"), ShouldBeTrue)
			So(c.Has(video.Vimeo, "c"), ShouldBeTrue)
			So(c.Has(video.YouTube, "bad"), ShouldBeFalse)
		})

		Convey("Platforms without direct streams are never resolved", func() {
			p.Run(context.Background(), items)
			So(src.calls, ShouldNotContain, "insta")
		})

		Convey("Cached items are skipped", func() {
			c.Set(video.YouTube, "a", info("https://cdn/a"))
			p.Run(context.Background(), items)
			So(src.calls, ShouldNotContain, "a")
		})
	})
}

func TestReadOnlyDisk(t *testing.T) {
	Convey("Given a cache whose file cannot be written", t, func() {
		filesystem.SetFs(afero.NewReadOnlyFs(afero.NewMemMapFs()))
		Reset(filesystem.SetMemMapFs)

		clk := newClock()
		c := New(Options{Path: tempPath(), TTL: time.Hour, Now: clk.Now})

		Convey("Then it keeps working from memory", func() {
			So(func() { c.Set(video.YouTube, "a", info("https://cdn/a")) }, ShouldNotPanic)
			So(c.Get(video.YouTube, "a").MustGet().StreamURL, ShouldEqual, "https://cdn/a")
			So(c.Has(video.YouTube, "b"), ShouldBeFalse)

			clk.Advance(2 * time.Hour)
			So(c.Get(video.YouTube, "a").IsAbsent(), ShouldBeTrue)
		})
	})
}
