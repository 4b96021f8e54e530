package progress

import (
	"fmt"
	"time"

	"github.com/vidora/vidora/util"
	"github.com/vidora/vidora/video"
)

// Record is the locally saved progress of one item, keyed by its source.
type Record struct {
	Key      string         `json:"key"`
	Platform video.Platform `json:"platform"`
	VideoID  string         `json:"video_id"`
	Title    string         `json:"title"`
	// Source fields address the item in the remote store.
	SourceType   video.SourceType `json:"source_type,omitempty"`
	SourceID     string           `json:"source_id,omitempty"`
	CollectionID string           `json:"collection_id,omitempty"`
	Position     float64          `json:"position"`
	Duration     float64          `json:"duration"`
	Synced       bool             `json:"synced"`
	// Watched marks a record kept only until the remote store acknowledges the watched mark.
	Watched   bool      `json:"watched"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newRecord(item video.Item) *Record {
	return &Record{
		Key:      item.ProgressKey(),
		Platform: item.Platform,
		VideoID:  item.VideoID,
		Title:    item.DisplayTitle(),

		SourceType:   item.SourceType,
		SourceID:     item.SourceID,
		CollectionID: item.CollectionID,
	}
}

// Item rebuilds enough of the item to address it in the remote store.
func (r *Record) Item() video.Item {
	return video.Item{
		Platform:     r.Platform,
		VideoID:      r.VideoID,
		Title:        r.Title,
		SourceType:   r.SourceType,
		SourceID:     r.SourceID,
		CollectionID: r.CollectionID,
		Duration:     r.Duration,
	}
}

// Fraction is the watched share of the item, 0 when the duration is unknown.
func (r *Record) Fraction() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return util.Clamp(r.Position/r.Duration, 0, 1)
}

func (r *Record) String() string {
	if r.Duration > 0 {
		return fmt.Sprintf("%s %s / %s", r.Title, util.Timestamp(r.Position), util.Timestamp(r.Duration))
	}
	return fmt.Sprintf("%s %s", r.Title, util.Timestamp(r.Position))
}
