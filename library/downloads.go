package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/vidora/vidora/resolver"
	"github.com/vidora/vidora/video"
)

var audioExtensions = []string{".mp3", ".m4a", ".flac", ".ogg", ".opus", ".wav", ".aac"}

// Download is a local media file registered in the library.
type Download struct {
	ID          string            `json:"id"`
	Path        string            `json:"path"`
	Title       string            `json:"title"`
	Artist      string            `json:"artist,omitempty"`
	Album       string            `json:"album,omitempty"`
	ContentType video.ContentType `json:"content_type"`
	Format      string            `json:"format,omitempty"`
	Size        int64             `json:"size_bytes"`
	AddedAt     time.Time         `json:"added_at"`
}

// Item is the playable item for the download.
func (d Download) Item() video.Item {
	return video.Item{
		Platform:    video.Local,
		VideoID:     d.ID,
		SourceType:  video.SavedVideo,
		SourceID:    d.ID,
		Title:       d.Title,
		Channel:     d.Artist,
		URL:         d.Path,
		ContentType: d.ContentType,
	}
}

// Add registers the file at path, reading its tags when it has any.
// Adding the same path twice returns the existing entry.
func (s *Store) Add(ctx context.Context, path string) (Download, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Download{}, err
	}

	if existing, err := s.byPath(ctx, abs); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return Download{}, err
	}

	d, err := inspect(abs)
	if err != nil {
		return Download{}, err
	}
	d.ID = uuid.NewString()
	d.AddedAt = s.now().UTC().Truncate(time.Second)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO downloads(id, path, title, artist, album, content_type, format, size_bytes, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Path, d.Title, d.Artist, d.Album, string(d.ContentType), d.Format, d.Size, d.AddedAt.Unix(),
	)
	if err != nil {
		return Download{}, fmt.Errorf("insert download: %w", err)
	}

	s.log.WithField("path", abs).Info("added to library")
	return d, nil
}

func inspect(path string) (Download, error) {
	f, err := os.Open(path)
	if err != nil {
		return Download{}, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return Download{}, err
	}
	if stat.IsDir() {
		return Download{}, fmt.Errorf("%s is a directory", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	d := Download{
		Path:        path,
		Title:       strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		ContentType: video.ContentVideo,
		Format:      strings.TrimPrefix(ext, "."),
		Size:        stat.Size(),
	}
	if lo.Contains(audioExtensions, ext) {
		d.ContentType = video.ContentAudio
	}

	m, err := tag.ReadFrom(f)
	if err != nil {
		// untagged files keep the name derived from the path
		return d, nil
	}

	if t := strings.TrimSpace(m.Title()); t != "" {
		d.Title = t
	}
	d.Artist = strings.TrimSpace(lo.Ternary(m.Artist() != "", m.Artist(), m.AlbumArtist()))
	d.Album = strings.TrimSpace(m.Album())
	if ft := m.FileType(); ft != "" {
		d.Format = strings.ToLower(string(ft))
	}
	return d, nil
}

const downloadColumns = `id, path, title, artist, album, content_type, format, size_bytes, added_at`

func scanDownload(row interface{ Scan(...any) error }) (Download, error) {
	var (
		d       Download
		ct      string
		addedAt int64
	)
	if err := row.Scan(&d.ID, &d.Path, &d.Title, &d.Artist, &d.Album, &ct, &d.Format, &d.Size, &addedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Download{}, ErrNotFound
		}
		return Download{}, err
	}
	d.ContentType = video.ContentType(ct)
	d.AddedAt = time.Unix(addedAt, 0).UTC()
	return d, nil
}

func (s *Store) Get(ctx context.Context, id string) (Download, error) {
	return scanDownload(s.db.QueryRowContext(ctx, `SELECT `+downloadColumns+` FROM downloads WHERE id = ?`, id))
}

func (s *Store) byPath(ctx context.Context, path string) (Download, error) {
	return scanDownload(s.db.QueryRowContext(ctx, `SELECT `+downloadColumns+` FROM downloads WHERE path = ?`, path))
}

// List returns every download, newest first.
func (s *Store) List(ctx context.Context) ([]Download, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+downloadColumns+` FROM downloads ORDER BY added_at DESC, title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Remove unregisters a download. The file itself is left alone.
func (s *Store) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM downloads WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Resolve serves local downloads as direct streams. Files never expire.
func (s *Store) Resolve(ctx context.Context, platform video.Platform, id string) (*video.StreamInfo, error) {
	if platform != video.Local {
		return nil, resolver.ErrUnavailable
	}

	d, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", resolver.ErrUnavailable, err)
	}
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(d.Path); err != nil {
		return nil, fmt.Errorf("%w: %v", resolver.ErrUnavailable, err)
	}

	info := &video.StreamInfo{StreamURL: d.Path, Quality: d.Format}
	if d.ContentType == video.ContentAudio {
		info.AudioURL = d.Path
	}
	return info, nil
}
