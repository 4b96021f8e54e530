package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
	"github.com/vidora/vidora/log"
	"github.com/vidora/vidora/player"
	"github.com/vidora/vidora/progress"
	"github.com/vidora/vidora/queue"
	"github.com/vidora/vidora/strategy"
	"github.com/vidora/vidora/video"
)

type (
	openMsg struct {
		items []video.Item
		start int
	}
	switchMsg   struct{ mode player.Mode }
	closeMsg    struct{}
	hideMsg     struct{}
	stopMsg     struct{}
	overrideMsg struct{ strategy strategy.Strategy }
	navMsg      struct {
		step     int
		index    int
		absolute bool
	}
)

// state is the session, owned by the loop goroutine.
type state struct {
	id    string
	mode  player.Mode
	queue *queue.Queue
	item  video.Item

	// gen changes whenever a different item starts loading.
	gen uint64
	// mount changes on every mount attempt, including remounts of the same item.
	mount uint64

	stream    *video.StreamInfo
	resolving bool
	strategy  strategy.Strategy
	unusable  map[strategy.Strategy]bool

	inst       player.Instance
	unregister func()
	// mounted is the mode the current backend was mounted for.
	mounted player.Mode
	// readyEarly is set when the backend reported ready before Mount returned.
	readyEarly bool
	readyTimer *time.Timer

	// saved is the playhead captured for a handoff, cleared once consumed.
	saved mo.Option[float64]
	// seek is where to move the new backend once it is ready.
	seek      mo.Option[float64]
	switching bool
	pending   []envelope

	playing  bool
	position float64
	duration float64

	tracker    *progress.Tracker
	stopTimers context.CancelFunc
}

func (s *state) open() bool {
	return s.mode != player.Closed
}

func (o *Orchestrator) loop() {
	s := &state{mode: player.Closed}
	var override mo.Option[strategy.Strategy]

	ctl := &controller{o: o, s: s, override: &override}

	for env := range o.inbox {
		stop := ctl.dispatch(env)
		if stop {
			o.cancel()
			close(o.stopped)
			return
		}
	}
}

type controller struct {
	o        *Orchestrator
	s        *state
	override *mo.Option[strategy.Strategy]
}

func (c *controller) log() *logrus.Entry {
	fields := log.Fields{"component": "session"}
	if c.s.open() {
		fields["session"] = c.s.id
		fields["platform"] = c.s.item.Platform
		fields["videoId"] = c.s.item.VideoID
		if c.s.strategy != "" {
			fields["strategy"] = c.s.strategy
		}
	}
	return log.With(fields)
}

// dispatch handles one envelope and reports whether the loop should end.
func (c *controller) dispatch(env envelope) (stop bool) {
	defer func() {
		if env.done != nil {
			close(env.done)
		}
	}()

	switch m := env.msg.(type) {
	case stopMsg:
		c.close()
		return true

	case openMsg, switchMsg, navMsg, overrideMsg:
		if c.s.switching {
			c.defer_(env)
			return false
		}
		c.command(m)

	case closeMsg:
		if c.s.switching {
			c.defer_(env)
			return false
		}
		c.close()

	case hideMsg:
		c.flush()

	case resolvedMsg:
		c.resolved(m)
	case mountedMsg:
		c.mounted(m)
	case eventMsg:
		c.event(m)
	case readyTimeoutMsg:
		c.readyTimeout(m)
	case tickMsg:
		c.tick(m)
	case remoteDoneMsg:
		c.remoteDone(m)
	}

	c.drain()
	c.publish()
	return false
}

// defer_ queues a command behind the switch in flight. The caller is
// released right away; the command runs once the switch settles.
func (c *controller) defer_(env envelope) {
	c.s.pending = append(c.s.pending, envelope{msg: env.msg})
	c.log().WithField("pending", len(c.s.pending)).Debug("deferred behind mode switch")
}

// settle ends the switch in flight.
func (c *controller) settle() {
	c.s.switching = false
	if c.s.readyTimer != nil {
		c.s.readyTimer.Stop()
		c.s.readyTimer = nil
	}
}

// drain runs deferred commands in order until one of them starts another switch.
func (c *controller) drain() {
	for len(c.s.pending) > 0 && !c.s.switching {
		env := c.s.pending[0]
		c.s.pending = c.s.pending[1:]

		switch m := env.msg.(type) {
		case closeMsg:
			c.close()
		default:
			c.command(m)
		}
	}
}

func (c *controller) command(msg any) {
	switch m := msg.(type) {
	case openMsg:
		c.openQueue(m.items, m.start)
	case switchMsg:
		c.switchMode(m.mode)
	case navMsg:
		c.navigate(m)
	case overrideMsg:
		c.setOverride(m.strategy)
	}
}

func (c *controller) openQueue(items []video.Item, start int) {
	if len(items) == 0 {
		c.log().Warn("open with an empty queue ignored")
		return
	}

	if c.s.open() {
		c.close()
	}

	q := queue.New(items, start)
	item, _ := q.Current().Get()

	c.s.id = uuid.NewString()
	c.s.mode = c.o.opts.DefaultMode
	c.s.queue = q
	c.log().WithField("queue", q.Len()).Info("session opened")

	c.load(item)
}

// load makes item the playing item, flushing and retiring the previous one.
func (c *controller) load(item video.Item) {
	c.retire()

	s := c.s
	s.gen++
	s.item = item
	s.stream = nil
	s.resolving = false
	s.strategy = ""
	s.unusable = make(map[strategy.Strategy]bool)
	s.saved = mo.None[float64]()
	s.playing = false
	s.duration = item.Duration
	s.position = progress.Effective(s.saved, c.o.opts.Store, item)
	s.tracker = progress.NewTracker(c.o.opts.Store, item, c.o.opts.Settings)

	c.startTimers()
	c.prefetch()
	c.resolve()
}

// retire flushes the current item and tears down everything tied to it.
func (c *controller) retire() {
	if t := c.s.tracker; t != nil {
		c.capture()
		t.Close(c.s.position, c.s.duration)
		c.s.tracker = nil

		// Without a remote store a watched item simply starts over next time.
		if c.o.opts.Remote == nil {
			_ = c.o.opts.Store.ClearWatched(c.s.item.ProgressKey())
		}
	}
	if c.s.stopTimers != nil {
		c.s.stopTimers()
		c.s.stopTimers = nil
	}
	c.unmount()
}

func (c *controller) close() {
	if !c.s.open() {
		return
	}

	c.retire()
	c.o.opts.Bus.Reset()
	c.log().Info("session closed")

	pending := c.s.pending
	*c.s = state{mode: player.Closed, gen: c.s.gen, mount: c.s.mount}
	// Commands deferred behind a switch still run, now against the closed session.
	c.s.pending = pending
}

func (c *controller) flush() {
	if !c.s.open() || c.s.tracker == nil {
		return
	}
	c.capture()
	c.s.tracker.Flush(c.s.position, c.s.duration)
}

func (c *controller) navigate(m navMsg) {
	if !c.s.open() {
		return
	}

	var next mo.Option[video.Item]
	switch {
	case m.absolute:
		item, err := c.s.queue.GoTo(m.index)
		if err != nil {
			c.log().WithError(err).Warn("go to index")
			return
		}
		next = mo.Some(item)
	case m.step > 0:
		next = c.s.queue.Next()
	default:
		next = c.s.queue.Previous()
	}

	if item, ok := next.Get(); ok {
		c.load(item)
	}
}

// advance moves to the next item on natural end, closing at the end of the queue.
// An item that ends is watched, whether or not a remote tick saw it cross the threshold.
func (c *controller) advance() {
	if t := c.s.tracker; t != nil {
		c.capture()
		if c.s.duration > 0 {
			c.s.position = c.s.duration
			if t.End(c.s.duration) {
				c.markWatched(c.s.duration)
			}
		}
	}

	if item, ok := c.s.queue.Next().Get(); ok {
		c.load(item)
		return
	}
	c.close()
}

func (c *controller) prefetch() {
	p := c.o.opts.Prefetcher
	if p == nil || c.s.queue == nil {
		return
	}
	if items := c.s.queue.Lookahead(c.o.opts.PrefetchCount); len(items) > 0 {
		p.Prefetch(c.o.ctx, items)
	}
}

func (c *controller) switchMode(mode player.Mode) {
	if !c.s.open() || mode == c.s.mode {
		return
	}

	c.log().WithFields(logrus.Fields{"from": c.s.mode, "to": mode}).Info("switching mode")

	if mode == player.Minimized && c.s.inst != nil && c.s.inst.Background() {
		c.s.mode = mode
		return
	}

	// Back from a minimize that kept the backend running.
	if c.s.inst != nil && mode == c.s.mounted {
		c.s.mode = mode
		return
	}

	// Backends with no control handle play on their own surface; there is
	// nothing to hand off, so only the mode changes.
	if c.s.inst != nil && c.s.unregister == nil {
		c.s.mode = mode
		return
	}

	c.handoff()
	c.s.mode = mode

	if mode == player.Minimized {
		c.s.playing = false
		return
	}
	c.mountNext()
}

// handoff captures the playhead and unmounts the current backend.
func (c *controller) handoff() {
	if c.s.inst != nil || c.s.saved.IsAbsent() {
		c.s.saved = mo.Some(c.capture())
	}
	c.unmount()
}

func (c *controller) setOverride(s strategy.Strategy) {
	if s == "" {
		*c.override = mo.None[strategy.Strategy]()
	} else {
		*c.override = mo.Some(s)
	}

	if !c.s.open() {
		return
	}

	if c.selectStrategy() == c.s.strategy {
		return
	}
	c.handoff()
	if c.s.mode != player.Minimized {
		c.mountNext()
	}
}

func (c *controller) publish() {
	s := c.s
	snap := Snapshot{Mode: s.mode}
	if o, ok := c.override.Get(); ok {
		snap.Override = o
	}

	if s.open() {
		snap.ID = s.id
		snap.Item = s.item
		snap.Index = s.queue.Index()
		snap.Length = s.queue.Len()
		snap.Strategy = s.strategy
		snap.Playing = s.playing
		snap.Position = s.position
		snap.Duration = s.duration
		snap.Switching = s.switching
	}

	c.o.publish(snap)
}
