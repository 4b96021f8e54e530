package streamcache

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vidora/vidora/log"
	"github.com/vidora/vidora/video"
	"golang.org/x/sync/errgroup"
)

// Source resolves a stream descriptor from the network.
type Source interface {
	Resolve(ctx context.Context, platform video.Platform, id string) (*video.StreamInfo, error)
}

// Prefetcher resolves upcoming queue items in the background so advancing
// to them does not wait on the network.
type Prefetcher struct {
	cache   *Cache
	source  Source
	limit   int
	timeout time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
	log      *logrus.Entry
}

// NewPrefetcher runs at most limit resolutions at once, each bounded by timeout.
func NewPrefetcher(cache *Cache, source Source, limit int, timeout time.Duration) *Prefetcher {
	if limit <= 0 {
		limit = 2
	}
	return &Prefetcher{
		cache:    cache,
		source:   source,
		limit:    limit,
		timeout:  timeout,
		inflight: make(map[string]struct{}),
		log:      log.Component("prefetch"),
	}
}

// Prefetch starts resolving items and returns immediately.
func (p *Prefetcher) Prefetch(ctx context.Context, items []video.Item) {
	go p.Run(ctx, items)
}

// Run resolves every item that needs it and returns how many were cached.
// Items already cached, already in flight or on platforms without direct
// streams are skipped. Failures are logged and otherwise ignored.
func (p *Prefetcher) Run(ctx context.Context, items []video.Item) int {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)

	var (
		mu     sync.Mutex
		cached int
	)

	for _, item := range items {
		if !p.claim(item) {
			continue
		}

		g.Go(func() error {
			defer p.release(item)

			rctx := ctx
			if p.timeout > 0 {
				var cancel context.CancelFunc
				rctx, cancel = context.WithTimeout(ctx, p.timeout)
				defer cancel()
			}

			info, err := p.source.Resolve(rctx, item.Platform, item.VideoID)
			if err != nil || info == nil {
				p.log.WithFields(logrus.Fields{
					"platform": item.Platform,
					"videoId":  item.VideoID,
				}).WithError(err).Debug("prefetch failed")
				return nil
			}

			p.cache.Set(item.Platform, item.VideoID, info)

			mu.Lock()
			cached++
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return cached
}

func (p *Prefetcher) claim(item video.Item) bool {
	if !video.CapabilitiesOf(item.Platform).DirectStream {
		return false
	}
	if p.cache.Has(item.Platform, item.VideoID) {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	k := item.Key().String()
	if _, busy := p.inflight[k]; busy {
		return false
	}
	p.inflight[k] = struct{}{}
	return true
}

func (p *Prefetcher) release(item video.Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inflight, item.Key().String())
}
