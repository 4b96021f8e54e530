package session

import (
	"context"
	"time"

	"github.com/vidora/vidora/video"
)

type (
	tickMsg struct {
		gen    uint64
		remote bool
	}
	remoteDoneMsg struct {
		gen      uint64
		key      string
		watched  bool
		position float64
		err      error
	}
)

// startTimers runs the local and remote progress tickers for the current
// generation. They stop when the item is retired.
func (c *controller) startTimers() {
	ctx, cancel := context.WithCancel(c.o.ctx)
	c.s.stopTimers = cancel

	gen := c.s.gen
	settings := c.o.opts.Settings

	go c.o.ticker(ctx, settings.LocalInterval, tickMsg{gen: gen})
	go c.o.ticker(ctx, settings.RemoteInterval, tickMsg{gen: gen, remote: true})
}

func (o *Orchestrator) ticker(ctx context.Context, every time.Duration, msg tickMsg) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			select {
			case o.inbox <- envelope{msg: msg}:
			case <-ctx.Done():
				return
			case <-o.stopped:
				return
			}
		}
	}
}

func (c *controller) tick(m tickMsg) {
	s := c.s
	if !s.open() || m.gen != s.gen || s.tracker == nil {
		return
	}

	pos := c.capture()
	if !m.remote {
		s.tracker.LocalTick(pos, s.duration)
		return
	}

	d := s.tracker.RemoteTick(pos, s.duration)
	remote := c.o.opts.Remote
	if remote == nil {
		return
	}

	if d.Push {
		go c.o.push(remote.SaveProgress, s.item, m.gen, d.Position, false)
	}
	if d.MarkWatched {
		c.log().WithField("position", d.Position).Info("watched threshold crossed")
		c.markWatched(d.Position)
	}
}

func (c *controller) markWatched(position float64) {
	if remote := c.o.opts.Remote; remote != nil {
		go c.o.push(remote.MarkWatched, c.s.item, c.s.gen, position, true)
	}
}

type remoteCall func(ctx context.Context, item video.Item, seconds float64) error

func (o *Orchestrator) push(call remoteCall, item video.Item, gen uint64, position float64, watched bool) {
	ctx, cancel := context.WithTimeout(o.ctx, o.opts.ResolveTimeout)
	defer cancel()

	err := call(ctx, item, position)
	o.post(remoteDoneMsg{gen: gen, key: item.ProgressKey(), watched: watched, position: position, err: err})
}

// remoteDone applies a finished remote write unless its item was replaced
// meanwhile. An acknowledged watched mark for a replaced item only settles
// the pending record its item left behind.
func (c *controller) remoteDone(m remoteDoneMsg) {
	s := c.s
	if !s.open() || m.gen != s.gen || s.tracker == nil {
		if m.watched && m.err == nil {
			_ = c.o.opts.Store.ClearWatched(m.key)
		}
		return
	}

	if m.err != nil {
		if m.watched {
			c.log().WithError(m.err).Warn("mark watched")
			s.tracker.WatchedFailed()
			return
		}
		c.log().WithError(m.err).Warn("save remote progress")
		return
	}

	if m.watched {
		s.tracker.Watched(m.position)
		return
	}
	s.tracker.Pushed(m.position)
}
