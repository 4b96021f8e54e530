package progress

import (
	"context"
	"time"

	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/vidora/vidora/config"
	"github.com/vidora/vidora/key"
	"github.com/vidora/vidora/log"
	"github.com/vidora/vidora/util"
	"github.com/vidora/vidora/video"
)

// Remote is the durable progress store.
type Remote interface {
	SaveProgress(ctx context.Context, item video.Item, seconds float64) error
	MarkWatched(ctx context.Context, item video.Item, seconds float64) error
}

type Settings struct {
	LocalInterval    time.Duration
	RemoteInterval   time.Duration
	LocalMinDelta    float64
	RemoteMinDelta   float64
	WatchedThreshold float64
}

func DefaultSettings() Settings {
	return Settings{
		LocalInterval:    3 * time.Second,
		RemoteInterval:   15 * time.Second,
		LocalMinDelta:    2,
		RemoteMinDelta:   5,
		WatchedThreshold: 0.9,
	}
}

// SettingsFromConfig reads the progress.* keys.
func SettingsFromConfig() Settings {
	s := DefaultSettings()
	s.LocalInterval = config.Seconds(key.ProgressLocalInterval)
	s.RemoteInterval = config.Seconds(key.ProgressRemoteInterval)

	if v := viper.GetFloat64(key.ProgressLocalMinDelta); v > 0 {
		s.LocalMinDelta = v
	}
	if v := viper.GetFloat64(key.ProgressRemoteMinDelta); v > 0 {
		s.RemoteMinDelta = v
	}
	if v := viper.GetFloat64(key.ProgressWatchedThreshold); v > 0 && v <= 100 {
		s.WatchedThreshold = v / 100
	}
	return s
}

// Decision tells the caller which remote calls a remote tick calls for.
type Decision struct {
	Position    float64
	Push        bool
	MarkWatched bool
}

// Tracker holds the write bookkeeping for the item of one playback.
// It is not safe for concurrent use; the session actor owns it.
type Tracker struct {
	store    *LocalStore
	item     video.Item
	settings Settings

	lastLocal  float64
	lastRemote float64
	// watchedSent is set while a watched mark is in flight or acknowledged.
	watchedSent bool
	// completed suppresses local writes once the item is watched.
	completed bool

	log *logrus.Entry
}

func NewTracker(store *LocalStore, item video.Item, settings Settings) *Tracker {
	t := &Tracker{
		store:      store,
		item:       item,
		settings:   settings,
		lastRemote: item.Progress,
		log: log.With(log.Fields{
			"platform": item.Platform,
			"videoId":  item.VideoID,
		}),
	}

	if r, ok := store.Get(item.ProgressKey()).Get(); ok {
		t.lastLocal = r.Position
		// A mark still waiting for Reconcile counts as sent.
		if r.Watched {
			t.watchedSent = true
			t.completed = true
		}
	}
	return t
}

// LocalTick saves position when it moved at least LocalMinDelta since the last local write.
func (t *Tracker) LocalTick(position, duration float64) bool {
	if t.completed || util.Abs(position-t.lastLocal) < t.settings.LocalMinDelta {
		return false
	}
	return t.saveLocal(position, duration)
}

// RemoteTick always saves locally, then decides whether to push and whether
// the watched threshold was crossed with no mark in flight.
func (t *Tracker) RemoteTick(position, duration float64) Decision {
	if !t.completed {
		t.saveLocal(position, duration)
	}

	d := Decision{Position: position}
	d.Push = util.Abs(position-t.lastRemote) >= t.settings.RemoteMinDelta

	if !t.watchedSent && duration > 0 && position/duration >= t.settings.WatchedThreshold {
		t.watchedSent = true
		d.MarkWatched = true
	}
	return d
}

// Pushed records a successful remote progress write.
func (t *Tracker) Pushed(position float64) {
	t.lastRemote = position
	if !t.completed {
		_ = t.store.MarkSynced(t.item.ProgressKey(), position)
	}
}

// Watched records a successful watched mark and drops the local record.
func (t *Tracker) Watched(position float64) {
	t.lastRemote = position
	t.completed = true
	if err := t.store.Clear(t.item.ProgressKey()); err != nil {
		t.log.WithError(err).Warn("clear local progress after watched")
	}
}

// WatchedFailed lets the next remote tick send the mark again.
func (t *Tracker) WatchedFailed() {
	if !t.completed {
		t.watchedSent = false
	}
}

// End settles the item after playback reached its end and reports whether
// the watched mark still has to be sent. The end position is kept only as a
// pending watched mark, so the item never resumes at its end.
func (t *Tracker) End(duration float64) bool {
	if t.completed || duration <= 0 {
		return false
	}

	due := !t.watchedSent
	t.watchedSent = true
	t.pending(duration, duration)
	return due
}

// Flush saves position regardless of deltas.
func (t *Tracker) Flush(position, duration float64) {
	if t.completed {
		return
	}
	t.saveLocal(position, duration)
}

// Close is the final flush of the item. A watched mark still in flight is
// kept as pending so Reconcile can finish it.
func (t *Tracker) Close(position, duration float64) {
	if t.completed {
		return
	}
	if t.watchedSent {
		t.pending(position, duration)
		return
	}
	t.saveLocal(position, duration)
}

func (t *Tracker) pending(position, duration float64) {
	t.completed = true
	if err := t.store.SaveWatched(t.item, position, duration); err != nil {
		t.log.WithError(err).Warn("save pending watched mark")
	}
}

func (t *Tracker) saveLocal(position, duration float64) bool {
	if position <= 0 {
		return false
	}

	if err := t.store.Save(t.item, position, duration); err != nil {
		t.log.WithError(err).Warn("save local progress")
	}
	t.lastLocal = position
	return true
}

// Effective is the resume position: a saved mode-switch playhead when
// present, otherwise the larger of the local record and the last known
// remote value. A pending watched mark does not count as a local record.
func Effective(saved mo.Option[float64], store *LocalStore, item video.Item) float64 {
	if p, ok := saved.Get(); ok {
		return p
	}

	local := 0.0
	if store != nil {
		if r, ok := store.Get(item.ProgressKey()).Get(); ok && !r.Watched {
			local = r.Position
		}
	}
	return max(local, item.Progress)
}
