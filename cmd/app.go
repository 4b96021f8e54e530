package cmd

import (
	"context"
	"errors"

	"github.com/spf13/viper"
	"github.com/vidora/vidora/auth"
	"github.com/vidora/vidora/backend"
	"github.com/vidora/vidora/config"
	"github.com/vidora/vidora/control"
	"github.com/vidora/vidora/key"
	"github.com/vidora/vidora/library"
	"github.com/vidora/vidora/log"
	"github.com/vidora/vidora/mediasession"
	"github.com/vidora/vidora/player"
	"github.com/vidora/vidora/progress"
	"github.com/vidora/vidora/resolver"
	"github.com/vidora/vidora/session"
	"github.com/vidora/vidora/streamcache"
	"github.com/vidora/vidora/where"
)

// app holds the stores and clients shared by the commands.
// Optional parts are nil when disabled in the configuration.
type app struct {
	cache   *streamcache.Cache
	store   *progress.LocalStore
	library *library.Store
	backend *backend.Client
}

func newApp() (*app, error) {
	a := &app{
		cache: streamcache.New(streamcache.Options{
			Path:     where.Streams(),
			TTL:      config.Seconds(key.StreamTTL),
			Capacity: viper.GetInt(key.StreamCapacity),
		}),
		store: progress.NewLocalStore(where.Progress()),
	}

	if viper.GetBool(key.LibraryEnable) {
		lib, err := library.Open(where.Library())
		if err != nil {
			return nil, err
		}
		a.library = lib
	}

	client, err := backend.New(backend.Options{
		BaseURL: viper.GetString(key.BackendURL),
		Timeout: config.Seconds(key.BackendTimeout),
		Token:   auth.TokenSource(),
	})
	switch {
	case err == nil:
		a.backend = client
	case errors.Is(err, backend.ErrNoBaseURL):
		log.Debug("no sync backend configured")
	default:
		_ = a.Close()
		return nil, err
	}

	return a, nil
}

// source is the uncached resolver chain: the library for local files, then
// the backend, then yt-dlp.
func (a *app) source() resolver.Chain {
	var chain resolver.Chain
	if a.library != nil {
		chain = append(chain, a.library)
	}
	if a.backend != nil {
		chain = append(chain, a.backend)
	}
	if viper.GetBool(key.StreamYtdlp) {
		chain = append(chain, resolver.YtDLP{Install: true})
	}
	return chain
}

// remote is the durable progress store: the backend when configured,
// otherwise the offline library.
func (a *app) remote() progress.Remote {
	switch {
	case a.backend != nil:
		return a.backend
	case a.library != nil:
		return a.library
	default:
		return nil
	}
}

func (a *app) session(mounter player.Mounter) *session.Orchestrator {
	opts := session.OptionsFromConfig()
	source := a.source()

	opts.Mounter = mounter
	opts.Bus = control.NewBus()
	opts.Store = a.store
	opts.Resolver = resolver.NewCached(a.cache, source)
	opts.Remote = a.remote()
	opts.Prefetcher = streamcache.NewPrefetcher(a.cache, source, opts.PrefetchCount, opts.ResolveTimeout)

	return session.New(opts)
}

// mirror feeds session snapshots to the OS media controls until the
// subscription ends or ctx is done.
func mirror(ctx context.Context, o *session.Orchestrator) (stop func()) {
	if !viper.GetBool(key.MediaSessionEnable) {
		return func() {}
	}

	bridge := mediasession.NewBridge(
		mediasession.Open(),
		o,
		config.Seconds(key.MediaSessionPositionInterval),
	)

	snapshots, unsubscribe := o.Subscribe()
	ctx, cancel := context.WithCancel(ctx)
	states := pump(ctx, snapshots)

	go bridge.Run(ctx, states)

	return func() {
		unsubscribe()
		cancel()
		if err := bridge.Close(); err != nil {
			log.Component("mediasession").WithError(err).Debug("close")
		}
	}
}

// pump converts snapshots to bridge states until ctx is done or snapshots closes.
// The returned channel is closed when it stops.
func pump(ctx context.Context, snapshots <-chan session.Snapshot) <-chan mediasession.State {
	states := make(chan mediasession.State, 1)

	go func() {
		defer close(states)
		for {
			var snap session.Snapshot
			select {
			case <-ctx.Done():
				return
			case s, ok := <-snapshots:
				if !ok {
					return
				}
				snap = s
			}

			select {
			case states <- stateOf(snap):
			case <-ctx.Done():
				return
			}
		}
	}()

	return states
}

func stateOf(s session.Snapshot) mediasession.State {
	return mediasession.State{
		Open:     s.Open(),
		Item:     s.Item,
		Playing:  s.Playing,
		Duration: s.Duration,
	}
}

func (a *app) Close() error {
	if a.library == nil {
		return nil
	}
	return a.library.Close()
}

// mustApp is newApp for command bodies.
func mustApp() *app {
	a, err := newApp()
	handleErr(err)
	return a
}
