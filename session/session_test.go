package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidora/vidora/control"
	"github.com/vidora/vidora/player"
	"github.com/vidora/vidora/progress"
	"github.com/vidora/vidora/resolver"
	"github.com/vidora/vidora/strategy"
	"github.com/vidora/vidora/streamcache"
	"github.com/vidora/vidora/video"
)

type fakeElement struct {
	mu       sync.Mutex
	time     float64
	duration float64
	playing  bool
}

func (e *fakeElement) Play() error  { e.mu.Lock(); e.playing = true; e.mu.Unlock(); return nil }
func (e *fakeElement) Pause() error { e.mu.Lock(); e.playing = false; e.mu.Unlock(); return nil }

func (e *fakeElement) SetCurrentTime(s float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.time = s
	return nil
}

func (e *fakeElement) CurrentTime() (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.time, nil
}

func (e *fakeElement) Duration() (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration, nil
}

func (e *fakeElement) PlayVideo() error                 { return e.Play() }
func (e *fakeElement) PauseVideo() error                { return e.Pause() }
func (e *fakeElement) SeekTo(s float64, _ bool) error   { return e.SetCurrentTime(s) }
func (e *fakeElement) GetCurrentTime() (float64, error) { return e.CurrentTime() }
func (e *fakeElement) GetDuration() (float64, error)    { return e.Duration() }

func (e *fakeElement) set(s float64) { _ = e.SetCurrentTime(s) }

func (e *fakeElement) at() float64 {
	t, _ := e.CurrentTime()
	return t
}

type fakeInstance struct {
	el         *fakeElement
	strategy   strategy.Strategy
	background bool

	mu     sync.Mutex
	closed bool
}

func (i *fakeInstance) Control() mo.Option[control.Backend] {
	switch i.strategy {
	case strategy.DirectStream:
		return mo.Some(control.Native(i.el))
	case strategy.Audio:
		return mo.Some(control.Audio(i.el))
	case strategy.PlatformAPI:
		return mo.Some(control.Platform(i.el))
	default:
		return mo.None[control.Backend]()
	}
}

func (i *fakeInstance) Background() bool { return i.background }

func (i *fakeInstance) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	return nil
}

func (i *fakeInstance) isClosed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.closed
}

type mount struct {
	req  player.Request
	emit player.Emit
	inst *fakeInstance
}

type fakeMounter struct {
	mu         sync.Mutex
	mounts     []*mount
	attempts   []strategy.Strategy
	fail       map[strategy.Strategy]bool
	refuse     map[strategy.Strategy]bool
	background bool
}

func (m *fakeMounter) Mount(_ context.Context, req player.Request, emit player.Emit) (player.Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempts = append(m.attempts, req.Strategy)
	if m.refuse[req.Strategy] {
		return nil, errors.New("refused")
	}

	inst := &fakeInstance{el: &fakeElement{duration: 600}, strategy: req.Strategy, background: m.background}
	m.mounts = append(m.mounts, &mount{req: req, emit: emit, inst: inst})

	if m.fail[req.Strategy] {
		go emit(player.Event{Kind: player.EventError, Err: errors.New("failed to load")})
	} else {
		go emit(player.Event{Kind: player.EventReady})
	}
	return inst, nil
}

func (m *fakeMounter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mounts)
}

func (m *fakeMounter) last() *mount {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mounts[len(m.mounts)-1]
}

func (m *fakeMounter) tried() []strategy.Strategy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.attempts)
}

type fakeRemote struct {
	mu       sync.Mutex
	saves    []float64
	watched  int
	attempts int
	// failWatched is how many watched marks fail before one succeeds.
	failWatched int
	// gate, when set, holds progress writes until it is closed.
	gate chan struct{}
}

func (r *fakeRemote) SaveProgress(ctx context.Context, _ video.Item, s float64) error {
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, s)
	return nil
}

func (r *fakeRemote) MarkWatched(context.Context, video.Item, float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
	if r.failWatched > 0 {
		r.failWatched--
		return errors.New("backend unavailable")
	}
	r.watched++
	return nil
}

func (r *fakeRemote) watchedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.watched
}

func (r *fakeRemote) attemptCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

func (r *fakeRemote) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

func streams() resolver.Resolver {
	return resolver.Func(func(_ context.Context, _ video.Platform, id string) (*video.StreamInfo, error) {
		return &video.StreamInfo{StreamURL: "https://cdn.example/" + id + ".mp4"}, nil
	})
}

type harness struct {
	o       *Orchestrator
	mounter *fakeMounter
	store   *progress.LocalStore
	remote  *fakeRemote
}

func newHarness(t *testing.T, tune func(*Options)) *harness {
	h := &harness{
		mounter: &fakeMounter{},
		store:   progress.NewLocalStore(""),
		remote:  &fakeRemote{},
	}

	opts := Options{
		Mounter:  h.mounter,
		Bus:      control.NewBus(),
		Store:    h.store,
		Resolver: streams(),
		Remote:   h.remote,
		Settings: progress.Settings{
			LocalMinDelta:    2,
			RemoteMinDelta:   5,
			WatchedThreshold: 0.9,
		},
		ReadyTimeout: 2 * time.Second,
	}
	if tune != nil {
		tune(&opts)
	}

	h.o = New(opts)
	t.Cleanup(h.o.Stop)
	return h
}

// settled waits for the session to finish mounting.
func (h *harness) settled() bool {
	return eventually(func() bool {
		s := h.o.Snapshot()
		return s.Open() && !s.Switching
	})
}

func eventually(f func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return f()
}

func yt(id string) video.Item {
	return video.Item{Platform: video.YouTube, VideoID: id, Title: id}
}

func TestOpenAndClose(t *testing.T) {
	Convey("Given an orchestrator", t, func() {
		h := newHarness(t, nil)

		Convey("Control calls with no session are no-ops", func() {
			So(func() {
				h.o.Play()
				h.o.Pause()
				h.o.Seek(10)
				h.o.SeekTo(5)
				h.o.PlayNext()
				h.o.PlayPrevious()
				h.o.GoToIndex(3)
				h.o.SwitchToPiP()
				h.o.Close()
			}, ShouldNotPanic)
			So(h.o.Snapshot().Open(), ShouldBeFalse)
			So(h.o.CurrentTime(), ShouldEqual, 0)
		})

		Convey("Opening mounts the best strategy in the default mode", func() {
			h.o.Open(yt("a"))
			So(h.settled(), ShouldBeTrue)

			s := h.o.Snapshot()
			So(s.Mode, ShouldEqual, player.Modal)
			So(s.Strategy, ShouldEqual, strategy.DirectStream)
			So(s.Item.VideoID, ShouldEqual, "a")
			So(s.ID, ShouldNotBeEmpty)

			m := h.mounter.last()
			So(m.req.Target(), ShouldEqual, "https://cdn.example/a.mp4")

			Convey("Control calls reach the backend", func() {
				m.inst.el.set(30)
				So(h.o.CurrentTime(), ShouldEqual, 30)
				h.o.Seek(15)
				So(m.inst.el.at(), ShouldEqual, 45)
				h.o.SeekTo(1000)
				So(m.inst.el.at(), ShouldEqual, 600)
			})

			Convey("Closing flushes progress and tears down the backend", func() {
				m.inst.el.set(42)
				h.o.Close()

				So(h.o.Snapshot().Open(), ShouldBeFalse)
				r, ok := h.store.Get(yt("a").ProgressKey()).Get()
				So(ok, ShouldBeTrue)
				So(r.Position, ShouldEqual, 42)
				So(eventually(m.inst.isClosed), ShouldBeTrue)
				So(h.o.CurrentTime(), ShouldEqual, 0)
			})

			Convey("Closing leaves no control backend registered", func() {
				h.o.opts.Bus.Register(control.Audio(m.inst.el))
				h.o.Close()

				So(h.o.Snapshot().Open(), ShouldBeFalse)
				So(h.o.opts.Bus.Active(), ShouldEqual, control.None)
			})

			Convey("Hiding flushes without closing", func() {
				m.inst.el.set(33)
				h.o.Hide()
				So(h.o.Snapshot().Open(), ShouldBeTrue)
				r, _ := h.store.Get(yt("a").ProgressKey()).Get()
				So(r.Position, ShouldEqual, 33)
			})

			Convey("A backend exiting on its own closes the session", func() {
				m.emit(player.Event{Kind: player.EventExit})
				So(eventually(func() bool { return !h.o.Snapshot().Open() }), ShouldBeTrue)
			})
		})

		Convey("A resumed item starts from its effective progress", func() {
			item := yt("r")
			item.Progress = 50
			So(h.store.Save(item, 80, 600), ShouldBeNil)

			h.o.Open(item)
			So(h.settled(), ShouldBeTrue)

			m := h.mounter.last()
			So(m.req.Start, ShouldEqual, 80)
			So(m.inst.el.at(), ShouldEqual, 80)
		})
	})
}

func TestAtMostOneSession(t *testing.T) {
	Convey("Opening a second item replaces the first and stops its timers", t, func() {
		h := newHarness(t, func(o *Options) {
			o.Settings.LocalInterval = 10 * time.Millisecond
			o.Settings.RemoteInterval = 15 * time.Millisecond
		})

		h.o.Open(yt("a"))
		So(h.settled(), ShouldBeTrue)
		first := h.mounter.last()
		first.inst.el.set(10)

		So(eventually(func() bool { return h.store.Get(yt("a").ProgressKey()).IsPresent() }), ShouldBeTrue)

		h.o.Open(yt("b"))
		So(h.settled(), ShouldBeTrue)
		So(h.o.Snapshot().Item.VideoID, ShouldEqual, "b")
		So(eventually(first.inst.isClosed), ShouldBeTrue)

		So(h.store.Clear(yt("a").ProgressKey()), ShouldBeNil)
		h.mounter.last().inst.el.set(20)

		So(eventually(func() bool { return h.store.Get(yt("b").ProgressKey()).IsPresent() }), ShouldBeTrue)
		time.Sleep(60 * time.Millisecond)
		So(h.store.Get(yt("a").ProgressKey()).IsPresent(), ShouldBeFalse)
	})
}

func TestWatchedOnce(t *testing.T) {
	Convey("Crossing the watched threshold marks watched exactly once", t, func() {
		h := newHarness(t, func(o *Options) {
			o.Settings.LocalInterval = 5 * time.Millisecond
			o.Settings.RemoteInterval = 10 * time.Millisecond
		})

		h.o.Open(yt("w"))
		So(h.settled(), ShouldBeTrue)
		el := h.mounter.last().inst.el

		el.set(550)
		So(eventually(func() bool { return h.remote.watchedCount() == 1 }), ShouldBeTrue)

		el.set(100)
		time.Sleep(30 * time.Millisecond)
		el.set(580)
		time.Sleep(60 * time.Millisecond)

		So(h.remote.watchedCount(), ShouldEqual, 1)
		So(eventually(func() bool { return h.store.Get(yt("w").ProgressKey()).IsAbsent() }), ShouldBeTrue)

		Convey("and the local record stays cleared through close", func() {
			h.o.Close()
			So(h.store.Get(yt("w").ProgressKey()).IsAbsent(), ShouldBeTrue)
		})
	})
}

func TestWatchedRetry(t *testing.T) {
	Convey("A failed watched mark is sent again on a later remote tick", t, func() {
		h := newHarness(t, func(o *Options) {
			o.Settings.LocalInterval = 5 * time.Millisecond
			o.Settings.RemoteInterval = 10 * time.Millisecond
		})
		h.remote.failWatched = 1

		h.o.Open(yt("retry"))
		So(h.settled(), ShouldBeTrue)
		h.mounter.last().inst.el.set(580)

		So(eventually(func() bool { return h.remote.watchedCount() == 1 }), ShouldBeTrue)
		So(h.remote.attemptCount(), ShouldEqual, 2)
		So(eventually(func() bool { return h.store.Get(yt("retry").ProgressKey()).IsAbsent() }), ShouldBeTrue)

		time.Sleep(50 * time.Millisecond)
		So(h.remote.watchedCount(), ShouldEqual, 1)
	})
}

func TestNaturalEnd(t *testing.T) {
	Convey("Given an item whose end comes before any remote tick", t, func() {
		h := newHarness(t, func(o *Options) {
			o.Settings.LocalInterval = time.Hour
			o.Settings.RemoteInterval = time.Hour
		})
		item := yt("e")

		Convey("Ending marks it watched and leaves no resume point", func() {
			h.o.Open(item)
			So(h.settled(), ShouldBeTrue)
			m := h.mounter.last()
			m.inst.el.set(600)
			m.emit(player.Event{Kind: player.EventEnded})

			So(eventually(func() bool { return !h.o.Snapshot().Open() }), ShouldBeTrue)
			So(eventually(func() bool { return h.remote.watchedCount() == 1 }), ShouldBeTrue)
			So(eventually(func() bool { return h.store.Get(item.ProgressKey()).IsAbsent() }), ShouldBeTrue)
		})

		Convey("A mark that fails at the end is left for reconciliation", func() {
			h.remote.failWatched = 1

			h.o.Open(item)
			So(h.settled(), ShouldBeTrue)
			m := h.mounter.last()
			m.inst.el.set(600)
			m.emit(player.Event{Kind: player.EventEnded})

			So(eventually(func() bool { return h.remote.attemptCount() == 1 }), ShouldBeTrue)
			So(eventually(func() bool { return !h.o.Snapshot().Open() }), ShouldBeTrue)

			r, ok := h.store.Get(item.ProgressKey()).Get()
			So(ok, ShouldBeTrue)
			So(r.Watched, ShouldBeTrue)
			So(progress.Effective(mo.None[float64](), h.store, item), ShouldEqual, 0)

			n, err := progress.Reconcile(context.Background(), h.store, h.remote)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
			So(h.remote.watchedCount(), ShouldEqual, 1)
			So(h.store.Get(item.ProgressKey()).IsAbsent(), ShouldBeTrue)
		})
	})

	Convey("Without a remote store an ended item starts over next time", t, func() {
		h := newHarness(t, func(o *Options) {
			o.Remote = nil
			o.Settings.LocalInterval = time.Hour
			o.Settings.RemoteInterval = time.Hour
		})

		h.o.Open(yt("solo"))
		So(h.settled(), ShouldBeTrue)
		m := h.mounter.last()
		m.inst.el.set(600)
		m.emit(player.Event{Kind: player.EventEnded})

		So(eventually(func() bool { return !h.o.Snapshot().Open() }), ShouldBeTrue)
		So(h.store.Get(yt("solo").ProgressKey()).IsAbsent(), ShouldBeTrue)
	})
}

func TestStaleCompletions(t *testing.T) {
	Convey("A progress write finishing after the item changed is discarded", t, func() {
		gate := make(chan struct{})
		h := newHarness(t, func(o *Options) {
			o.Settings.RemoteInterval = 10 * time.Millisecond
		})
		h.remote.gate = gate

		h.o.OpenWithQueue([]video.Item{yt("A"), yt("B")}, 0)
		So(h.settled(), ShouldBeTrue)
		h.mounter.last().inst.el.set(300)
		So(eventually(func() bool { return h.store.Get(yt("A").ProgressKey()).IsPresent() }), ShouldBeTrue)

		h.o.GoToIndex(1)
		So(h.settled(), ShouldBeTrue)
		So(h.o.Snapshot().Item.VideoID, ShouldEqual, "B")

		// Below the remote delta, so B never pushes on its own.
		h.mounter.last().inst.el.set(3)
		h.o.Hide()
		So(h.store.Get(yt("B").ProgressKey()).MustGet().Synced, ShouldBeFalse)

		close(gate)
		So(eventually(func() bool { return h.remote.saveCount() > 0 }), ShouldBeTrue)
		time.Sleep(20 * time.Millisecond)

		b := h.store.Get(yt("B").ProgressKey()).MustGet()
		So(b.Position, ShouldEqual, 3)
		So(b.Synced, ShouldBeFalse)
	})

	Convey("Navigation during a slow resolution waits for it and mounts the new item's stream", t, func() {
		gate := make(chan struct{})
		h := newHarness(t, func(o *Options) {
			o.Resolver = resolver.Func(func(ctx context.Context, _ video.Platform, id string) (*video.StreamInfo, error) {
				if id == "slow" {
					select {
					case <-gate:
					case <-ctx.Done():
						return nil, ctx.Err()
					}
				}
				return &video.StreamInfo{StreamURL: "https://cdn.example/" + id + ".mp4"}, nil
			})
		})

		h.o.OpenWithQueue([]video.Item{yt("slow"), yt("fast")}, 0)
		h.o.GoToIndex(1)
		So(h.o.Snapshot().Item.VideoID, ShouldEqual, "slow")

		close(gate)
		So(eventually(func() bool {
			s := h.o.Snapshot()
			return s.Item.VideoID == "fast" && !s.Switching
		}), ShouldBeTrue)

		last := h.mounter.last()
		So(last.req.Item.VideoID, ShouldEqual, "fast")
		So(last.req.Target(), ShouldEqual, "https://cdn.example/fast.mp4")
	})
}

func TestModeSwitch(t *testing.T) {
	Convey("Given an open session", t, func() {
		h := newHarness(t, nil)
		h.o.Open(yt("m"))
		So(h.settled(), ShouldBeTrue)
		modal := h.mounter.last()
		modal.inst.el.set(120)

		Convey("modal to pip to modal keeps the playhead", func() {
			h.o.SwitchToPiP()
			So(h.settled(), ShouldBeTrue)

			pip := h.mounter.last()
			So(h.o.Snapshot().Mode, ShouldEqual, player.PiP)
			So(pip.req.Mode, ShouldEqual, player.PiP)
			So(pip.inst.el.at(), ShouldAlmostEqual, 120, 1)
			So(eventually(modal.inst.isClosed), ShouldBeTrue)

			pip.inst.el.set(130)
			h.o.SwitchToModal()
			So(h.settled(), ShouldBeTrue)

			back := h.mounter.last()
			So(h.o.Snapshot().Mode, ShouldEqual, player.Modal)
			So(back.inst.el.at(), ShouldAlmostEqual, 130, 1)
			So(h.mounter.count(), ShouldEqual, 3)
		})

		Convey("minimizing a foreground-only backend tears it down", func() {
			h.o.Minimize()
			So(h.o.Snapshot().Mode, ShouldEqual, player.Minimized)
			So(eventually(modal.inst.isClosed), ShouldBeTrue)
			So(h.o.CurrentTime(), ShouldEqual, 120)

			h.o.SwitchToModal()
			So(h.settled(), ShouldBeTrue)
			So(h.mounter.last().inst.el.at(), ShouldAlmostEqual, 120, 1)
		})
	})

	Convey("Minimizing a background-capable backend keeps it playing", t, func() {
		h := newHarness(t, func(o *Options) {
			o.Mounter.(*fakeMounter).background = true
		})
		h.o.Open(yt("bg"))
		So(h.settled(), ShouldBeTrue)

		h.o.Minimize()
		So(h.o.Snapshot().Mode, ShouldEqual, player.Minimized)
		h.o.SwitchToModal()
		So(h.o.Snapshot().Mode, ShouldEqual, player.Modal)
		So(h.mounter.count(), ShouldEqual, 1)
		So(h.mounter.last().inst.isClosed(), ShouldBeFalse)
	})
}

func TestDeferredCommands(t *testing.T) {
	Convey("Commands issued mid-switch run in order once it settles", t, func() {
		gate := make(chan struct{})
		h := newHarness(t, func(o *Options) {
			o.Resolver = resolver.Func(func(ctx context.Context, _ video.Platform, id string) (*video.StreamInfo, error) {
				select {
				case <-gate:
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				return &video.StreamInfo{StreamURL: "https://cdn.example/" + id + ".mp4"}, nil
			})
		})

		h.o.Open(yt("d"))
		So(h.o.Snapshot().Switching, ShouldBeTrue)

		h.o.SwitchToPiP()
		h.o.Close()
		So(h.o.Snapshot().Open(), ShouldBeTrue)

		close(gate)
		So(eventually(func() bool { return !h.o.Snapshot().Open() }), ShouldBeTrue)

		tried := h.mounter.tried()
		So(len(tried), ShouldEqual, 2)
		So(h.mounter.last().req.Mode, ShouldEqual, player.PiP)
	})
}

func TestFallbackChain(t *testing.T) {
	Convey("Failing backends fall through to the outbound link", t, func() {
		h := newHarness(t, func(o *Options) {
			m := o.Mounter.(*fakeMounter)
			m.fail = map[strategy.Strategy]bool{strategy.DirectStream: true, strategy.GenericEmbed: true}
			m.refuse = map[strategy.Strategy]bool{strategy.PlatformAPI: true}
		})

		h.o.Open(yt("f"))
		So(eventually(func() bool {
			s := h.o.Snapshot()
			return s.Strategy == strategy.Unembeddable && !s.Switching
		}), ShouldBeTrue)

		So(h.mounter.tried(), ShouldResemble, []strategy.Strategy{
			strategy.DirectStream,
			strategy.PlatformAPI,
			strategy.GenericEmbed,
			strategy.Unembeddable,
		})
	})

	Convey("A failed resolution skips direct streams", t, func() {
		h := newHarness(t, func(o *Options) {
			o.Resolver = resolver.Func(func(context.Context, video.Platform, string) (*video.StreamInfo, error) {
				return nil, resolver.ErrUnavailable
			})
		})

		h.o.Open(yt("n"))
		So(h.settled(), ShouldBeTrue)
		So(h.o.Snapshot().Strategy, ShouldEqual, strategy.PlatformAPI)
	})

	Convey("An override pins the strategy and remounts with the playhead", t, func() {
		h := newHarness(t, nil)
		h.o.Open(yt("o"))
		So(h.settled(), ShouldBeTrue)
		h.mounter.last().inst.el.set(200)

		h.o.SetOverride(strategy.PlatformAPI)
		So(h.settled(), ShouldBeTrue)

		s := h.o.Snapshot()
		So(s.Strategy, ShouldEqual, strategy.PlatformAPI)
		So(s.Override, ShouldEqual, strategy.PlatformAPI)
		So(h.mounter.last().inst.el.at(), ShouldAlmostEqual, 200, 1)
	})
}

type countingSource struct {
	mu  sync.Mutex
	ids []string
}

func (s *countingSource) Resolve(_ context.Context, _ video.Platform, id string) (*video.StreamInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, id)
	return &video.StreamInfo{StreamURL: "https://cdn.example/" + id + ".mp4"}, nil
}

func (s *countingSource) resolved(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.ids, id)
}

func TestQueue(t *testing.T) {
	Convey("Given a queue of A, B and C", t, func() {
		source := &countingSource{}
		h := newHarness(t, func(o *Options) {
			o.Prefetcher = streamcache.NewPrefetcher(streamcache.New(streamcache.Options{}), source, 2, time.Second)
			o.PrefetchCount = 1
		})

		h.o.OpenWithQueue([]video.Item{yt("A"), yt("B"), yt("C")}, 0)
		So(h.settled(), ShouldBeTrue)
		So(eventually(func() bool { return source.resolved("B") }), ShouldBeTrue)
		So(source.resolved("C"), ShouldBeFalse)

		Convey("natural ends advance and prefetch, then close", func() {
			h.mounter.last().emit(player.Event{Kind: player.EventEnded})
			So(eventually(func() bool {
				s := h.o.Snapshot()
				return s.Index == 1 && s.Item.VideoID == "B" && !s.Switching
			}), ShouldBeTrue)
			So(eventually(func() bool { return source.resolved("C") }), ShouldBeTrue)
			So(h.o.Snapshot().Mode, ShouldEqual, player.Modal)

			h.mounter.last().emit(player.Event{Kind: player.EventEnded})
			So(eventually(func() bool { return h.o.Snapshot().Item.VideoID == "C" && !h.o.Snapshot().Switching }), ShouldBeTrue)
			So(h.o.Snapshot().HasNext(), ShouldBeFalse)

			h.mounter.last().emit(player.Event{Kind: player.EventEnded})
			So(eventually(func() bool { return !h.o.Snapshot().Open() }), ShouldBeTrue)
		})

		Convey("navigation moves within the queue", func() {
			h.o.GoToIndex(2)
			So(h.o.Snapshot().Item.VideoID, ShouldEqual, "C")
			So(h.settled(), ShouldBeTrue)

			h.o.PlayNext()
			So(h.o.Snapshot().Item.VideoID, ShouldEqual, "C")

			h.o.PlayPrevious()
			So(h.o.Snapshot().Item.VideoID, ShouldEqual, "B")

			h.o.GoToIndex(7)
			So(h.o.Snapshot().Index, ShouldEqual, 1)
		})
	})
}

func TestSubscribe(t *testing.T) {
	Convey("Subscribers see the latest snapshot", t, func() {
		h := newHarness(t, nil)
		ch, cancel := h.o.Subscribe()
		defer cancel()

		So((<-ch).Open(), ShouldBeFalse)

		h.o.Open(yt("s"))
		So(h.settled(), ShouldBeTrue)
		So(eventually(func() bool {
			select {
			case s := <-ch:
				return s.Open() && !s.Switching
			default:
				return false
			}
		}), ShouldBeTrue)
	})
}
