// Package video defines the items vidora plays and the stream descriptors resolved for them.
package video

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies where a video is hosted.
type Platform string

const (
	YouTube     Platform = "youtube"
	Vimeo       Platform = "vimeo"
	Dailymotion Platform = "dailymotion"
	Twitch      Platform = "twitch"
	SoundCloud  Platform = "soundcloud"
	Bandcamp    Platform = "bandcamp"
	Bilibili    Platform = "bilibili"
	Rumble      Platform = "rumble"
	TikTok      Platform = "tiktok"
	Streamable  Platform = "streamable"
	Instagram   Platform = "instagram"
	Local       Platform = "local"
)

// ParsePlatform normalizes user input such as "YouTube" or " vimeo ".
func ParsePlatform(s string) Platform {
	return Platform(strings.ToLower(strings.TrimSpace(s)))
}

// SourceType tells which backend collection an item came from.
// Progress is stored per source type.
type SourceType string

const (
	FeedItem       SourceType = "feed_item"
	SavedVideo     SourceType = "saved_video"
	CollectionItem SourceType = "collection_item"
)

type ContentType string

const (
	ContentVideo ContentType = "video"
	ContentAudio ContentType = "audio"
)

// Item is a playable entry. Items are never mutated once queued; a refreshed
// item replaces the old one in its slot.
type Item struct {
	Platform     Platform    `json:"platform" jsonschema:"required"`
	VideoID      string      `json:"video_id" jsonschema:"required"`
	SourceType   SourceType  `json:"source_type,omitempty" jsonschema:"enum=feed_item,enum=saved_video,enum=collection_item"`
	SourceID     string      `json:"source_id,omitempty"`
	CollectionID string      `json:"collection_id,omitempty"`
	Title        string      `json:"title,omitempty"`
	Thumbnail    string      `json:"thumbnail,omitempty"`
	Channel      string      `json:"channel,omitempty"`
	Description  string      `json:"description,omitempty"`
	URL          string      `json:"url,omitempty"`
	Duration     float64     `json:"duration_seconds,omitempty"`
	ContentType  ContentType `json:"content_type,omitempty" jsonschema:"enum=video,enum=audio"`
	// Progress is the last position known to the remote store, in seconds.
	Progress float64 `json:"progress_seconds,omitempty"`
}

// Key identifies a video across sources.
type Key struct {
	Platform Platform
	VideoID  string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Platform, k.VideoID)
}

func (i Item) Key() Key {
	return Key{Platform: i.Platform, VideoID: i.VideoID}
}

// ProgressKey identifies the item's progress record.
// Items without a source fall back to their video key.
func (i Item) ProgressKey() string {
	if i.SourceType == "" || i.SourceID == "" {
		return i.Key().String()
	}
	return fmt.Sprintf("%s:%s", i.SourceType, i.SourceID)
}

// IsAudio reports explicit audio content or an audio-only platform.
func (i Item) IsAudio() bool {
	return i.ContentType == ContentAudio || CapabilitiesOf(i.Platform).AudioOnly
}

// DisplayTitle falls back to the video key for untitled items.
func (i Item) DisplayTitle() string {
	if i.Title != "" {
		return i.Title
	}
	return i.Key().String()
}

func (i Item) String() string {
	return fmt.Sprintf("%s (%s)", i.DisplayTitle(), i.Key())
}

// StreamInfo is a resolved, time-limited direct media descriptor.
type StreamInfo struct {
	StreamURL     string            `json:"stream_url"`
	AlternateURLs []string          `json:"stream_urls,omitempty"`
	AudioURL      string            `json:"audio_url,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
	RequiresAuth  bool              `json:"requires_auth"`
	IsLive        bool              `json:"is_live"`
	Quality       string            `json:"quality,omitempty"`
	Duration      float64           `json:"duration_seconds,omitempty"`
	// ExpiresAt is the upstream URL expiry when the resolver knows it.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// HasStream reports whether there is a video stream URL to play.
func (s *StreamInfo) HasStream() bool {
	return s != nil && s.StreamURL != ""
}

// HasAudio reports whether the descriptor can feed an audio-only backend.
func (s *StreamInfo) HasAudio() bool {
	return s != nil && (s.AudioURL != "" || s.StreamURL != "")
}

// BestAudio picks the dedicated audio URL over the muxed stream.
func (s *StreamInfo) BestAudio() string {
	if s == nil {
		return ""
	}
	if s.AudioURL != "" {
		return s.AudioURL
	}
	return s.StreamURL
}
