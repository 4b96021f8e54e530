package resolver

import (
	"context"
	"fmt"
	"sync"
	"time"

	ytdlp "github.com/lrstanley/go-ytdlp"
	"github.com/samber/lo"
	"github.com/vidora/vidora/embed"
	"github.com/vidora/vidora/video"
)

const (
	videoFormat = "best[protocol^=http][vcodec!=none][acodec!=none]/best"
	audioFormat = "ba[acodec^=opus]/ba[ext=m4a]/bestaudio/best"

	signedURLLifetime = 4 * time.Hour
	maxAlternates     = 3
)

var installOnce sync.Once

// YtDLP extracts streams locally with yt-dlp, installing it on first use.
type YtDLP struct {
	// Install downloads yt-dlp when it is missing from PATH.
	Install bool
	// Audio prefers audio-only formats.
	Audio bool
}

func (y YtDLP) Resolve(ctx context.Context, platform video.Platform, id string) (*video.StreamInfo, error) {
	if !video.CapabilitiesOf(platform).DirectStream || platform == video.Local {
		return nil, ErrUnavailable
	}

	if y.Install {
		installOnce.Do(func() {
			ytdlp.MustInstall(ctx, nil)
		})
	}

	format := videoFormat
	if y.Audio || video.CapabilitiesOf(platform).AudioOnly {
		format = audioFormat
	}

	res, err := ytdlp.New().
		Format(format).
		NoCheckCertificates().
		NoPlaylist().
		DumpJSON().
		Run(ctx, embed.PageURL(platform, id))
	if err != nil {
		return nil, fmt.Errorf("yt-dlp run: %w", err)
	}

	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("parse yt-dlp json: %w", err)
	}
	if len(infos) == 0 || infos[0] == nil {
		return nil, fmt.Errorf("yt-dlp: %w", ErrUnavailable)
	}

	return fromExtracted(infos[0], format == audioFormat), nil
}

func fromExtracted(ext *ytdlp.ExtractedInfo, audio bool) *video.StreamInfo {
	info := &video.StreamInfo{
		StreamURL: lo.FromPtr(ext.URL),
		IsLive:    lo.FromPtr(ext.IsLive),
		Duration:  lo.FromPtr(ext.Duration),
	}

	// merged selections list the video format first, then the audio one
	requested := lo.FilterMap(ext.RequestedFormats, func(f *ytdlp.ExtractedFormat, _ int) (string, bool) {
		return lo.FromPtr(f).URL, f != nil && f.URL != ""
	})
	if info.StreamURL == "" && len(requested) > 0 {
		info.StreamURL = requested[0]
		requested = requested[1:]
	}
	if len(requested) > 0 {
		info.AudioURL = requested[0]
	}
	if audio && info.AudioURL == "" {
		info.AudioURL = info.StreamURL
	}

	info.AlternateURLs = lo.Without(lo.Uniq(lo.FilterMap(ext.Formats, func(f *ytdlp.ExtractedFormat, _ int) (string, bool) {
		return lo.FromPtr(f).URL, f != nil && f.URL != ""
	})), info.StreamURL, info.AudioURL)
	if len(info.AlternateURLs) > maxAlternates {
		info.AlternateURLs = info.AlternateURLs[len(info.AlternateURLs)-maxAlternates:]
	}

	// signed CDN urls from yt-dlp are typically valid for a few hours
	expires := time.Now().Add(signedURLLifetime)
	info.ExpiresAt = &expires

	return info
}
