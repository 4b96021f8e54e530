package mediasession

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vidora/vidora/log"
	"github.com/vidora/vidora/video"
)

// Target receives the commands coming from the OS controls.
type Target interface {
	Play()
	Pause()
	Seek(offset float64)
	SeekTo(position float64)
	PlayNext()
	PlayPrevious()
	Close()
	CurrentTime() float64
	Duration() float64
}

// State is what the bridge mirrors outward.
// Duration is 0 until the backend reports one.
type State struct {
	Open     bool
	Item     video.Item
	Playing  bool
	Duration float64
}

// Bridge keeps a Surface in sync with playback and relays its commands to a Target.
type Bridge struct {
	surface  Surface
	target   Target
	interval time.Duration

	mu      sync.Mutex
	last    State
	started bool
	// length is the duration in the last published metadata.
	length float64

	log *logrus.Entry
}

func NewBridge(surface Surface, target Target, interval time.Duration) *Bridge {
	if surface == nil {
		surface = Noop{}
	}
	if interval <= 0 {
		interval = time.Second
	}

	b := &Bridge{
		surface:  surface,
		target:   target,
		interval: interval,
		log:      log.Component("mediasession"),
	}
	surface.OnCommand(b.handle)
	return b
}

// Update publishes s. Metadata is only resent when the item or its known duration changes.
func (b *Bridge) Update(s State) {
	b.mu.Lock()
	prev, started := b.last, b.started
	b.last, b.started = s, true
	b.mu.Unlock()

	if !s.Open {
		if !started || prev.Open {
			b.setLength(0)
			b.report(b.surface.SetMetadata(Metadata{}))
			b.report(b.surface.SetStatus(Stopped))
		}
		return
	}

	changed := !started || !prev.Open || prev.Item.Key() != s.Item.Key() || prev.Item.Title != s.Item.Title
	b.publishMetadata(s, changed)

	if !started || prev.Playing != s.Playing || !prev.Open {
		b.report(b.surface.SetStatus(statusOf(s)))
	}
}

// publishMetadata sends the item's metadata when forced or when the
// duration differs from the one last published.
func (b *Bridge) publishMetadata(s State, force bool) {
	duration := s.Duration
	if duration <= 0 {
		duration = b.target.Duration()
	}
	if duration <= 0 {
		duration = s.Item.Duration
	}

	b.mu.Lock()
	stale := duration > 0 && duration != b.length
	b.mu.Unlock()

	if !force && !stale {
		return
	}

	b.setLength(duration)
	b.report(b.surface.SetMetadata(metadataOf(s.Item, duration)))
}

func (b *Bridge) setLength(d float64) {
	b.mu.Lock()
	b.length = d
	b.mu.Unlock()
}

// Run applies states as they arrive and publishes the position on every
// interval until ctx ends or states is closed.
func (b *Bridge) Run(ctx context.Context, states <-chan State) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-states:
			if !ok {
				return
			}
			b.Update(s)
		case <-ticker.C:
			b.tick()
		}
	}
}

func (b *Bridge) tick() {
	b.mu.Lock()
	s := b.last
	b.mu.Unlock()

	if !s.Open {
		return
	}

	// The duration is often unknown until the backend has loaded.
	b.publishMetadata(s, false)
	b.report(b.surface.SetPosition(b.target.CurrentTime()))
}

func (b *Bridge) handle(c Command) {
	b.mu.Lock()
	s := b.last
	b.mu.Unlock()

	if !s.Open {
		return
	}

	switch c.Kind {
	case CmdPlay:
		b.target.Play()
	case CmdPause:
		b.target.Pause()
	case CmdPlayPause:
		if s.Playing {
			b.target.Pause()
		} else {
			b.target.Play()
		}
	case CmdStop:
		b.target.Close()
	case CmdNext:
		b.target.PlayNext()
	case CmdPrevious:
		b.target.PlayPrevious()
	case CmdSeek:
		b.target.Seek(c.Seconds)
	case CmdSeekTo:
		b.target.SeekTo(c.Seconds)
	}
}

func (b *Bridge) report(err error) {
	if err != nil {
		b.log.WithError(err).Debug("media session update failed")
	}
}

func (b *Bridge) Close() error {
	return b.surface.Close()
}

func metadataOf(item video.Item, duration float64) Metadata {
	return Metadata{
		TrackID: item.Key().String(),
		Title:   item.DisplayTitle(),
		Artist:  item.Channel,
		ArtURL:  item.Thumbnail,
		URL:     item.URL,
		Length:  time.Duration(duration * float64(time.Second)),
	}
}

func statusOf(s State) Status {
	switch {
	case !s.Open:
		return Stopped
	case s.Playing:
		return Playing
	default:
		return Paused
	}
}
