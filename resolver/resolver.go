// Package resolver turns a (platform, video id) pair into a playable stream descriptor.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vidora/vidora/log"
	"github.com/vidora/vidora/streamcache"
	"github.com/vidora/vidora/video"
)

// ErrUnavailable means a resolver has no stream for the video.
// Chains move on to the next resolver when they see it.
var ErrUnavailable = errors.New("stream unavailable")

type Resolver interface {
	Resolve(ctx context.Context, platform video.Platform, id string) (*video.StreamInfo, error)
}

// Func adapts a function to Resolver.
type Func func(ctx context.Context, platform video.Platform, id string) (*video.StreamInfo, error)

func (f Func) Resolve(ctx context.Context, platform video.Platform, id string) (*video.StreamInfo, error) {
	return f(ctx, platform, id)
}

// Chain tries each resolver in order and returns the first stream found.
type Chain []Resolver

func (c Chain) Resolve(ctx context.Context, platform video.Platform, id string) (*video.StreamInfo, error) {
	var errs []error

	for _, r := range c {
		if r == nil {
			continue
		}

		info, err := r.Resolve(ctx, platform, id)
		if err == nil && info.HasStream() {
			return info, nil
		}
		if err == nil {
			err = ErrUnavailable
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("resolve %s:%s: %w", platform, id, ctxErr)
		}
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("resolve %s:%s: %w", platform, id, ErrUnavailable)
	}
	return nil, fmt.Errorf("resolve %s:%s: %w", platform, id, errors.Join(errs...))
}

// Cached reads through the stream cache.
type Cached struct {
	Cache *streamcache.Cache
	Next  Resolver
	log   *logrus.Entry
}

func NewCached(cache *streamcache.Cache, next Resolver) *Cached {
	return &Cached{Cache: cache, Next: next, log: log.Component("resolver")}
}

func (c *Cached) Resolve(ctx context.Context, platform video.Platform, id string) (*video.StreamInfo, error) {
	if info, ok := c.Cache.Get(platform, id).Get(); ok {
		return info, nil
	}

	info, err := c.Next.Resolve(ctx, platform, id)
	if err != nil {
		return nil, err
	}

	c.Cache.Set(platform, id, info)
	if c.log != nil {
		c.log.WithFields(logrus.Fields{"platform": platform, "videoId": id}).Debug("stream resolved")
	}
	return info, nil
}
