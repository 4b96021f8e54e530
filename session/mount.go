package session

import (
	"context"
	"errors"
	"time"

	"github.com/samber/mo"
	"github.com/vidora/vidora/control"
	"github.com/vidora/vidora/embed"
	"github.com/vidora/vidora/player"
	"github.com/vidora/vidora/progress"
	"github.com/vidora/vidora/resolver"
	"github.com/vidora/vidora/strategy"
	"github.com/vidora/vidora/video"
)

type (
	resolvedMsg struct {
		gen  uint64
		info *video.StreamInfo
		err  error
	}
	mountedMsg struct {
		mount uint64
		inst  player.Instance
		err   error
	}
	eventMsg struct {
		mount uint64
		event player.Event
	}
	readyTimeoutMsg struct{ mount uint64 }
)

// resolve fetches the stream descriptor off the loop, then mounts.
// A failed or slow resolution just leaves the stream empty, which rules
// out the strategies that need one.
func (c *controller) resolve() {
	c.s.switching = true

	r := c.o.opts.Resolver
	if r == nil {
		c.mountNext()
		return
	}

	c.s.resolving = true
	gen, item := c.s.gen, c.s.item
	timeout := c.o.opts.ResolveTimeout

	go func() {
		ctx, cancel := context.WithTimeout(c.o.ctx, timeout)
		defer cancel()

		info, err := r.Resolve(ctx, item.Platform, item.VideoID)
		c.o.post(resolvedMsg{gen: gen, info: info, err: err})
	}()
}

func (c *controller) resolved(m resolvedMsg) {
	if !c.s.open() || m.gen != c.s.gen || !c.s.resolving {
		return
	}
	c.s.resolving = false

	switch {
	case m.err == nil:
		c.s.stream = m.info
		if m.info != nil && m.info.Duration > 0 && c.s.duration == 0 {
			c.s.duration = m.info.Duration
		}
	case errors.Is(m.err, resolver.ErrUnavailable):
		c.log().Debug("no direct stream")
	default:
		c.log().WithError(m.err).Warn("stream resolution failed")
	}

	c.mountNext()
}

func (c *controller) selectStrategy() strategy.Strategy {
	opts := c.o.opts.Embed
	opts.Start = int(c.resumeAt())

	in := strategy.Input{
		Item:     c.s.item,
		Stream:   c.s.stream,
		Embed:    embed.ResolveWith(c.s.item.Platform, c.s.item.VideoID, opts),
		Override: *c.override,
		Unusable: c.s.unusable,
	}
	return strategy.Select(in)
}

// resumeAt is the effective playhead for the next mount.
func (c *controller) resumeAt() float64 {
	return progress.Effective(c.s.saved, c.o.opts.Store, c.s.item)
}

// mountNext mounts the best strategy still usable for the item.
func (c *controller) mountNext() {
	s := c.s
	s.switching = true
	s.mount++
	s.readyEarly = false
	s.strategy = c.selectStrategy()

	start := c.resumeAt()
	s.position = start
	if start > 0 {
		s.seek = mo.Some(start)
	} else {
		s.seek = mo.None[float64]()
	}

	embedOpts := c.o.opts.Embed
	embedOpts.Start = int(start)

	req := player.Request{
		Item:     s.item,
		Strategy: s.strategy,
		Stream:   s.stream,
		Embed:    embed.ResolveWith(s.item.Platform, s.item.VideoID, embedOpts),
		Mode:     s.mode,
		Start:    start,
	}

	c.log().WithField("mode", s.mode).Info("mounting backend")

	mount := s.mount
	emit := func(e player.Event) {
		c.o.post(eventMsg{mount: mount, event: e})
	}

	go func() {
		inst, err := c.o.opts.Mounter.Mount(c.o.ctx, req, emit)
		c.o.post(mountedMsg{mount: mount, inst: inst, err: err})
	}()

	s.readyTimer = time.AfterFunc(c.o.opts.ReadyTimeout, func() {
		c.o.post(readyTimeoutMsg{mount: mount})
	})
}

func (c *controller) mounted(m mountedMsg) {
	if m.mount != c.s.mount || !c.s.open() {
		if m.inst != nil {
			go m.inst.Close()
		}
		return
	}

	if m.err != nil {
		c.fail(m.err)
		return
	}

	c.s.inst = m.inst
	c.s.mounted = c.s.mode
	if b, ok := m.inst.Control().Get(); ok {
		c.s.unregister = c.o.opts.Bus.Register(b)
	}

	if c.s.readyEarly {
		c.ready()
	}
}

func (c *controller) event(m eventMsg) {
	if m.mount != c.s.mount || !c.s.open() {
		return
	}

	e := m.event
	switch e.Kind {
	case player.EventReady:
		if c.s.inst == nil {
			c.s.readyEarly = true
			return
		}
		c.ready()

	case player.EventError:
		c.fail(e.Err)

	case player.EventEnded:
		c.log().Info("playback ended")
		c.advance()

	case player.EventExit:
		c.log().Info("backend exited")
		c.close()

	case player.EventTime:
		c.s.position = e.Position
		if e.Duration > 0 {
			c.s.duration = e.Duration
		}

	case player.EventPlayState:
		c.s.playing = e.Playing
	}
}

// ready hands the saved playhead to the new backend and ends the switch.
func (c *controller) ready() {
	if !c.s.switching {
		return
	}

	if p, ok := c.s.seek.Get(); ok && c.s.unregister != nil {
		c.o.opts.Bus.SeekTo(p)
	}
	if d := c.o.opts.Bus.Duration(); d > 0 {
		c.s.duration = d
	}

	c.s.seek = mo.None[float64]()
	c.s.saved = mo.None[float64]()
	c.s.playing = true
	c.settle()
	c.log().Debug("backend ready")
}

func (c *controller) readyTimeout(m readyTimeoutMsg) {
	if m.mount != c.s.mount || !c.s.switching || !c.s.open() {
		return
	}

	c.log().WithField("timeout", c.o.opts.ReadyTimeout).Warn("backend never reported ready")
	if c.s.inst == nil {
		c.fail(errors.New("backend did not mount in time"))
		return
	}
	c.ready()
}

// fail marks the current strategy unusable for this item and mounts the next one.
// Every strategy fails at most once per item, so this cannot loop.
func (c *controller) fail(err error) {
	failed := c.s.strategy
	c.log().WithError(err).Warn("backend failed")

	if c.s.inst != nil && c.s.saved.IsAbsent() {
		c.s.saved = mo.Some(c.capture())
	}
	c.unmount()

	if failed == strategy.Unembeddable {
		c.log().Error("no backend could play the item")
		c.s.playing = false
		c.settle()
		return
	}

	c.s.unusable[failed] = true
	c.mountNext()
}

// unmount unregisters from the bus and closes the backend in the background.
func (c *controller) unmount() {
	if c.s.readyTimer != nil {
		c.s.readyTimer.Stop()
		c.s.readyTimer = nil
	}
	if c.s.unregister != nil {
		c.s.unregister()
		c.s.unregister = nil
	}
	if c.s.inst != nil {
		inst, l := c.s.inst, c.log()
		c.s.inst = nil
		go func() {
			if err := inst.Close(); err != nil {
				l.WithError(err).Warn("close backend")
			}
		}()
	}

	// Anything still in flight for the old mount is stale from here on.
	c.s.mount++
	c.s.mounted = player.Closed
}

// capture refreshes position and duration from the active backend.
func (c *controller) capture() float64 {
	bus := c.o.opts.Bus
	if c.s.unregister != nil && bus.Active() != control.None {
		if p := bus.CurrentTime(); p > 0 {
			c.s.position = p
		}
		if d := bus.Duration(); d > 0 {
			c.s.duration = d
		}
	}
	return c.s.position
}
