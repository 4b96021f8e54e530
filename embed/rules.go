package embed

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	"github.com/vidora/vidora/video"
)

var re = regexp.MustCompile

var rules = map[video.Platform]rule{
	video.YouTube: {
		patterns: []*regexp.Regexp{
			re(`(?:youtube\.com/(?:watch\?(?:.*&)?v=|shorts/|embed/|live/|v/)|youtu\.be/)([A-Za-z0-9_-]{11})`),
			re(`^([A-Za-z0-9_-]{11})$`),
		},
		embed: func(id string, opts Options) string {
			u := "https://www.youtube-nocookie.com/embed/" + id + "?enablejsapi=1&playsinline=1&rel=0"
			if opts.Start > 0 {
				u += "&start=" + strconv.Itoa(opts.Start)
			}
			return u
		},
		page: func(id string) string { return "https://www.youtube.com/watch?v=" + id },
	},

	video.Vimeo: {
		patterns: []*regexp.Regexp{
			re(`vimeo\.com/(?:video/|channels/[^/]+/|groups/[^/]+/videos/)?(\d+)`),
			re(`^(\d+)$`),
		},
		embed: func(id string, opts Options) string {
			u := "https://player.vimeo.com/video/" + id + "?api=1"
			if opts.Start > 0 {
				u += fmt.Sprintf("#t=%ds", opts.Start)
			}
			return u
		},
		page: func(id string) string { return "https://vimeo.com/" + id },
	},

	video.Dailymotion: {
		patterns: []*regexp.Regexp{
			re(`dailymotion\.com/(?:embed/)?video/([A-Za-z0-9]+)`),
			re(`dai\.ly/([A-Za-z0-9]+)`),
			re(`^([A-Za-z0-9]+)$`),
		},
		embed: func(id string, opts Options) string {
			u := "https://www.dailymotion.com/embed/video/" + id + "?api=postMessage"
			if opts.Start > 0 {
				u += "&start=" + strconv.Itoa(opts.Start)
			}
			return u
		},
		page: func(id string) string { return "https://www.dailymotion.com/video/" + id },
	},

	video.Twitch: {
		patterns: []*regexp.Regexp{
			re(`twitch\.tv/videos/(\d+)`),
			re(`^v?(\d+)$`),
		},
		embed: func(id string, opts Options) string {
			parent := opts.ParentHost
			if parent == "" {
				parent = "localhost"
			}
			q := url.Values{}
			q.Set("video", "v"+id)
			q.Set("parent", parent)
			q.Set("autoplay", "true")
			if opts.Start > 0 {
				q.Set("time", twitchTime(opts.Start))
			}
			return "https://player.twitch.tv/?" + q.Encode()
		},
		page: func(id string) string { return "https://www.twitch.tv/videos/" + id },
	},

	video.SoundCloud: {
		patterns: []*regexp.Regexp{
			re(`^(https?://(?:www\.|m\.)?soundcloud\.com/[^/\s]+/[^/\s?#]+)`),
			re(`^(\d+)$`),
		},
		embed: func(id string, _ Options) string {
			track := id
			if _, err := strconv.Atoi(id); err == nil {
				track = "https://api.soundcloud.com/tracks/" + id
			}
			return "https://w.soundcloud.com/player/?url=" + url.QueryEscape(track) + "&auto_play=true"
		},
		page: func(id string) string { return "https://api.soundcloud.com/tracks/" + id },
	},

	video.Bilibili: {
		patterns: []*regexp.Regexp{
			re(`(BV[0-9A-Za-z]{10})`),
		},
		embed: func(id string, opts Options) string {
			u := "https://player.bilibili.com/player.html?bvid=" + id + "&autoplay=0"
			if opts.Start > 0 {
				u += "&t=" + strconv.Itoa(opts.Start)
			}
			return u
		},
		page: func(id string) string { return "https://www.bilibili.com/video/" + id },
	},

	video.Rumble: {
		patterns: []*regexp.Regexp{
			re(`rumble\.com/embed/([a-z0-9]+)`),
			re(`^(v[a-z0-9]+)$`),
		},
		embed: func(id string, _ Options) string { return "https://rumble.com/embed/" + id + "/" },
		page:  func(id string) string { return "https://rumble.com/embed/" + id + "/" },
	},

	video.TikTok: {
		patterns: []*regexp.Regexp{
			re(`tiktok\.com/@[^/]+/video/(\d+)`),
			re(`tiktok\.com/embed/(?:v2/)?(\d+)`),
			re(`^(\d+)$`),
		},
		embed: func(id string, _ Options) string { return "https://www.tiktok.com/embed/v2/" + id },
		page:  func(id string) string { return "https://www.tiktok.com/embed/v2/" + id },
	},

	video.Streamable: {
		patterns: []*regexp.Regexp{
			re(`streamable\.com/(?:e/|o/)?([a-z0-9]+)`),
			re(`^([a-z0-9]+)$`),
		},
		embed: func(id string, _ Options) string { return "https://streamable.com/e/" + id },
		page:  func(id string) string { return "https://streamable.com/" + id },
	},

	video.Bandcamp: {
		patterns: []*regexp.Regexp{
			re(`^(https?://[a-z0-9-]+\.bandcamp\.com/track/[^/\s?#]+)`),
		},
		reason: "bandcamp embeds need an internal track id",
		page:   func(id string) string { return id },
	},

	video.Instagram: {
		patterns: []*regexp.Regexp{
			re(`instagram\.com/(?:p|reel|reels|tv)/([A-Za-z0-9_-]+)`),
			re(`^([A-Za-z0-9_-]+)$`),
		},
		reason: "instagram does not allow embedded playback",
		page:   func(id string) string { return "https://www.instagram.com/reel/" + id + "/" },
	},

	video.Local: {
		reason: "local files play natively",
	},
}

func twitchTime(seconds int) string {
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	return fmt.Sprintf("%dh%dm%ds", h, m, s)
}
