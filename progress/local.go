// Package progress persists playhead positions to a fast local store and a durable remote one.
package progress

import (
	"sort"
	"sync"
	"time"

	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
	"github.com/vidora/vidora/filesystem"
	"github.com/vidora/vidora/log"
	"github.com/vidora/vidora/video"
)

// LocalStore keeps one Record per source key.
// The in-memory map is authoritative; the file behind it is best effort.
type LocalStore struct {
	mu      sync.Mutex
	records map[string]*Record
	disk    *gache.Cache[map[string]*Record]
	now     func() time.Time
	log     *logrus.Entry
}

// NewLocalStore loads the records stored at path. An empty path keeps them in memory.
func NewLocalStore(path string) *LocalStore {
	s := &LocalStore{
		records: make(map[string]*Record),
		now:     time.Now,
		log:     log.Component("progress"),
	}

	if path == "" {
		return s
	}

	s.disk = gache.New[map[string]*Record](&gache.Options{
		Path:       path,
		FileSystem: &filesystem.GacheFs{},
	})

	stored, expired, err := s.disk.Get()
	switch {
	case err != nil:
		s.log.WithError(err).Warn("load local progress")
	case !expired && stored != nil:
		s.records = stored
	}

	return s
}

// Save stores position for item unless a larger one is already recorded.
// A pending watched mark is left alone.
func (s *LocalStore) Save(item video.Item, position, duration float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := item.ProgressKey()
	record, ok := s.records[key]
	if !ok {
		record = newRecord(item)
		s.records[key] = record
	}

	if record.Watched {
		return nil
	}
	if position > record.Position {
		record.Position = position
		record.Synced = false
	}
	if duration > 0 {
		record.Duration = duration
	}
	record.UpdatedAt = s.now()

	return s.store()
}

// SaveWatched records that item was watched up to position but the remote
// store has not acknowledged it yet. Reconcile sends the mark later.
func (s *LocalStore) SaveWatched(item video.Item, position, duration float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := item.ProgressKey()
	record, ok := s.records[key]
	if !ok {
		record = newRecord(item)
		s.records[key] = record
	}

	record.Position = max(record.Position, position)
	if duration > 0 {
		record.Duration = duration
	}
	record.Watched = true
	record.Synced = false
	record.UpdatedAt = s.now()

	return s.store()
}

// ClearWatched removes the record for key if it is a pending watched mark.
func (s *LocalStore) ClearWatched(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.records[key]; !ok || !record.Watched {
		return nil
	}

	delete(s.records, key)
	return s.store()
}

// MarkSynced flags the record as known to the remote store up to position.
func (s *LocalStore) MarkSynced(key string, position float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok || record.Position > position {
		return nil
	}

	record.Synced = true
	return s.store()
}

// Get returns a copy of the record for key.
func (s *LocalStore) Get(key string) mo.Option[Record] {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok {
		return mo.None[Record]()
	}
	return mo.Some(*record)
}

// Clear removes the record for key.
func (s *LocalStore) Clear(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[key]; !ok {
		return nil
	}

	delete(s.records, key)
	return s.store()
}

// ClearAll removes every record.
func (s *LocalStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*Record)
	return s.store()
}

// All returns copies of every record, most recently updated first.
func (s *LocalStore) All() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := lo.MapToSlice(s.records, func(_ string, r *Record) Record {
		return *r
	})
	sort.Slice(all, func(i, j int) bool {
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})
	return all
}

func (s *LocalStore) store() error {
	if s.disk == nil {
		return nil
	}

	if err := s.disk.Set(s.records); err != nil {
		s.log.WithError(err).Warn("persist local progress")
		return err
	}
	return nil
}
