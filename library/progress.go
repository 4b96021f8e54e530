package library

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vidora/vidora/video"
)

// Progress is a row of the offline progress table.
type Progress struct {
	Key       string         `json:"key"`
	Platform  video.Platform `json:"platform"`
	VideoID   string         `json:"video_id"`
	Seconds   float64        `json:"progress_seconds"`
	Watched   bool           `json:"watched"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SaveProgress stores the position as the durable value for the item.
func (s *Store) SaveProgress(ctx context.Context, item video.Item, seconds float64) error {
	return s.upsertProgress(ctx, item, seconds, false)
}

// MarkWatched stores the position and flags the item watched.
func (s *Store) MarkWatched(ctx context.Context, item video.Item, seconds float64) error {
	return s.upsertProgress(ctx, item, seconds, true)
}

func (s *Store) upsertProgress(ctx context.Context, item video.Item, seconds float64, watched bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO progress(progress_key, platform, video_id, progress_seconds, watched, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(progress_key) DO UPDATE SET
			progress_seconds = excluded.progress_seconds,
			watched          = MAX(progress.watched, excluded.watched),
			updated_at       = excluded.updated_at`,
		item.ProgressKey(), string(item.Platform), item.VideoID, seconds, watched, s.now().Unix(),
	)
	return err
}

func (s *Store) Progress(ctx context.Context, item video.Item) (Progress, error) {
	var (
		p         Progress
		platform  string
		watched   int
		updatedAt int64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT progress_key, platform, video_id, progress_seconds, watched, updated_at
		FROM progress WHERE progress_key = ?`, item.ProgressKey(),
	).Scan(&p.Key, &platform, &p.VideoID, &p.Seconds, &watched, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Progress{}, ErrNotFound
	}
	if err != nil {
		return Progress{}, err
	}

	p.Platform = video.Platform(platform)
	p.Watched = watched != 0
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return p, nil
}

// Hydrate fills the item's last known durable position from the table.
func (s *Store) Hydrate(ctx context.Context, item video.Item) video.Item {
	if p, err := s.Progress(ctx, item); err == nil && !p.Watched {
		item.Progress = max(item.Progress, p.Seconds)
	}
	return item
}

func (s *Store) ClearProgress(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM progress`)
	return err
}
