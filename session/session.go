// Package session owns the one playback session: which item is playing, in
// which presentation mode, through which backend, and where it resumes.
//
// All session state lives in a single goroutine. Public operations are
// messages into its inbox; backend events, resolver results, progress ticks
// and remote completions re-enter the same inbox tagged with the playback
// generation that produced them, so anything arriving for a replaced item is
// dropped. Mode switches are serialized: requests that arrive while a switch
// is in flight wait in FIFO order until the new backend is ready.
package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/spf13/viper"
	"github.com/vidora/vidora/config"
	"github.com/vidora/vidora/control"
	"github.com/vidora/vidora/embed"
	"github.com/vidora/vidora/key"
	"github.com/vidora/vidora/player"
	"github.com/vidora/vidora/progress"
	"github.com/vidora/vidora/resolver"
	"github.com/vidora/vidora/strategy"
	"github.com/vidora/vidora/streamcache"
	"github.com/vidora/vidora/video"
)

// Options are the orchestrator's collaborators. Mounter, Bus and Store are required.
type Options struct {
	Mounter  player.Mounter
	Bus      *control.Bus
	Store    *progress.LocalStore
	Resolver resolver.Resolver
	Remote   progress.Remote
	// Prefetcher resolves upcoming queue items after each advance.
	Prefetcher    *streamcache.Prefetcher
	PrefetchCount int

	Settings       progress.Settings
	ResolveTimeout time.Duration
	ReadyTimeout   time.Duration
	DefaultMode    player.Mode
	Embed          embed.Options
}

// OptionsFromConfig fills the tunables from configuration. Collaborators are left to the caller.
func OptionsFromConfig() Options {
	mode, err := player.ParseMode(viper.GetString(key.PlayerDefaultMode))
	if err != nil {
		mode = player.Modal
	}

	return Options{
		PrefetchCount:  viper.GetInt(key.StreamPrefetchCount),
		Settings:       progress.SettingsFromConfig(),
		ResolveTimeout: config.Seconds(key.StreamResolveTimeout),
		ReadyTimeout:   config.Seconds(key.PlayerReadyTimeout),
		DefaultMode:    mode,
		Embed:          embed.Options{ParentHost: viper.GetString(key.EmbedParentHost)},
	}
}

func (o *Options) defaults() {
	if o.ResolveTimeout <= 0 {
		o.ResolveTimeout = 10 * time.Second
	}
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = 15 * time.Second
	}
	if o.PrefetchCount <= 0 {
		o.PrefetchCount = 3
	}
	if o.DefaultMode == "" || o.DefaultMode == player.Closed {
		o.DefaultMode = player.Modal
	}
	if o.Settings == (progress.Settings{}) {
		o.Settings = progress.DefaultSettings()
	}
}

// Snapshot is a read-only view of the session.
type Snapshot struct {
	ID       string            `json:"id,omitempty"`
	Mode     player.Mode       `json:"mode"`
	Item     video.Item        `json:"item"`
	Index    int               `json:"index"`
	Length   int               `json:"length"`
	Strategy strategy.Strategy `json:"strategy,omitempty"`
	Playing  bool              `json:"playing"`
	Position float64           `json:"position"`
	Duration float64           `json:"duration"`
	// Switching is set while a backend is being mounted.
	Switching bool              `json:"switching"`
	Override  strategy.Strategy `json:"override,omitempty"`
}

// Open reports whether a session exists.
func (s Snapshot) Open() bool {
	return s.Mode != player.Closed
}

func (s Snapshot) HasNext() bool {
	return s.Open() && s.Index+1 < s.Length
}

func (s Snapshot) HasPrevious() bool {
	return s.Open() && s.Index > 0
}

// Orchestrator is the session actor. Construct it with New and release it with Stop.
type Orchestrator struct {
	opts Options

	inbox   chan envelope
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}

	mu   sync.Mutex
	last Snapshot
	subs map[int]chan Snapshot
	next int
}

func New(opts Options) *Orchestrator {
	opts.defaults()

	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		opts:    opts,
		inbox:   make(chan envelope, 64),
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
		last:    Snapshot{Mode: player.Closed},
		subs:    make(map[int]chan Snapshot),
	}

	go o.loop()
	return o
}

type envelope struct {
	msg  any
	done chan struct{}
}

// send delivers a command and waits until it is processed or deferred.
func (o *Orchestrator) send(msg any) {
	done := make(chan struct{})
	select {
	case o.inbox <- envelope{msg: msg, done: done}:
	case <-o.stopped:
		return
	}

	select {
	case <-done:
	case <-o.stopped:
	}
}

// post delivers an internal message without waiting.
func (o *Orchestrator) post(msg any) {
	select {
	case o.inbox <- envelope{msg: msg}:
	case <-o.stopped:
	}
}

// Open replaces any session with one playing item.
func (o *Orchestrator) Open(item video.Item) {
	o.OpenWithQueue([]video.Item{item}, 0)
}

// OpenWithQueue replaces any session with one playing items from start.
func (o *Orchestrator) OpenWithQueue(items []video.Item, start int) {
	o.send(openMsg{items: slices.Clone(items), start: start})
}

func (o *Orchestrator) SwitchToPiP()   { o.send(switchMsg{mode: player.PiP}) }
func (o *Orchestrator) SwitchToModal() { o.send(switchMsg{mode: player.Modal}) }
func (o *Orchestrator) Minimize()      { o.send(switchMsg{mode: player.Minimized}) }

// Close flushes progress and ends the session.
func (o *Orchestrator) Close() { o.send(closeMsg{}) }

// Hide records that the host went out of view and flushes progress.
func (o *Orchestrator) Hide() { o.send(hideMsg{}) }

func (o *Orchestrator) PlayNext()       { o.send(navMsg{step: 1}) }
func (o *Orchestrator) PlayPrevious()   { o.send(navMsg{step: -1}) }
func (o *Orchestrator) GoToIndex(i int) { o.send(navMsg{index: i, absolute: true}) }

// SetOverride pins a strategy for the current and later items. An empty strategy clears the pin.
func (o *Orchestrator) SetOverride(s strategy.Strategy) { o.send(overrideMsg{strategy: s}) }

func (o *Orchestrator) Play()                  { o.opts.Bus.Play() }
func (o *Orchestrator) Pause()                 { o.opts.Bus.Pause() }
func (o *Orchestrator) Seek(offset float64)    { o.opts.Bus.Seek(offset) }
func (o *Orchestrator) SeekTo(seconds float64) { o.opts.Bus.SeekTo(seconds) }

// CurrentTime asks the active backend, falling back to the last known position.
func (o *Orchestrator) CurrentTime() float64 {
	if o.opts.Bus.Active() != control.None {
		return o.opts.Bus.CurrentTime()
	}
	return o.Snapshot().Position
}

func (o *Orchestrator) Duration() float64 {
	if o.opts.Bus.Active() != control.None {
		if d := o.opts.Bus.Duration(); d > 0 {
			return d
		}
	}
	return o.Snapshot().Duration
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// Subscribe delivers the latest snapshot after every change. Slow readers
// only see the most recent one.
func (o *Orchestrator) Subscribe() (<-chan Snapshot, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ch := make(chan Snapshot, 1)
	ch <- o.last

	id := o.next
	o.next++
	o.subs[id] = ch

	return ch, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subs, id)
	}
}

func (o *Orchestrator) publish(s Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.last = s
	for _, ch := range o.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

// Stop closes the session, flushing progress, and ends the actor.
func (o *Orchestrator) Stop() {
	select {
	case <-o.stopped:
		return
	default:
	}

	o.send(stopMsg{})
	<-o.stopped
}
