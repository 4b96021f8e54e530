package embed

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidora/vidora/video"
)

func TestResolveYouTube(t *testing.T) {
	Convey("Given youtube inputs in every common shape", t, func() {
		inputs := []string{
			"dQw4w9WgXcQ",
			"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ",
			"https://youtu.be/dQw4w9WgXcQ?t=3",
			"https://youtube.com/shorts/dQw4w9WgXcQ",
			"https://www.youtube.com/embed/dQw4w9WgXcQ",
		}

		Convey("They all resolve to the same privacy-enhanced embed", func() {
			for _, in := range inputs {
				cfg := Resolve(video.YouTube, in)
				So(cfg.SupportsEmbed, ShouldBeTrue)
				So(cfg.EmbedURL, ShouldEqual, "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ?enablejsapi=1&playsinline=1&rel=0")
				So(cfg.FallbackReason, ShouldBeEmpty)
			}
		})

		Convey("A start offset is appended", func() {
			cfg := ResolveWith(video.YouTube, "dQw4w9WgXcQ", Options{Start: 42})
			So(cfg.EmbedURL, ShouldEndWith, "&start=42")
		})
	})
}

func TestResolvePlatforms(t *testing.T) {
	Convey("Each platform builds its own embed shape", t, func() {
		cases := []struct {
			platform video.Platform
			raw      string
			want     string
		}{
			{video.Vimeo, "https://vimeo.com/76979871", "https://player.vimeo.com/video/76979871?api=1"},
			{video.Dailymotion, "https://dai.ly/x8abc12", "https://www.dailymotion.com/embed/video/x8abc12?api=postMessage"},
			{video.Bilibili, "https://www.bilibili.com/video/BV1GJ411x7h7", "https://player.bilibili.com/player.html?bvid=BV1GJ411x7h7&autoplay=0"},
			{video.TikTok, "https://www.tiktok.com/@someone/video/7106594312292453675", "https://www.tiktok.com/embed/v2/7106594312292453675"},
			{video.Streamable, "https://streamable.com/moo", "https://streamable.com/e/moo"},
			{video.Rumble, "https://rumble.com/embed/v1abcd/", "https://rumble.com/embed/v1abcd/"},
		}

		for _, c := range cases {
			cfg := Resolve(c.platform, c.raw)
			So(cfg.SupportsEmbed, ShouldBeTrue)
			So(cfg.EmbedURL, ShouldEqual, c.want)
		}
	})

	Convey("Twitch embeds carry the parent host", t, func() {
		cfg := ResolveWith(video.Twitch, "https://www.twitch.tv/videos/123456", Options{ParentHost: "vidora.app"})
		So(cfg.SupportsEmbed, ShouldBeTrue)
		So(cfg.EmbedURL, ShouldContainSubstring, "video=v123456")
		So(cfg.EmbedURL, ShouldContainSubstring, "parent=vidora.app")

		Convey("and an h/m/s start time", func() {
			cfg := ResolveWith(video.Twitch, "123456", Options{Start: 3725})
			So(cfg.EmbedURL, ShouldContainSubstring, "time=1h2m5s")
			So(cfg.EmbedURL, ShouldContainSubstring, "parent=localhost")
		})
	})

	Convey("SoundCloud embeds escape the track URL", t, func() {
		cfg := Resolve(video.SoundCloud, "https://soundcloud.com/artist/track-name")
		So(cfg.EmbedURL, ShouldEqual, "https://w.soundcloud.com/player/?url=https%3A%2F%2Fsoundcloud.com%2Fartist%2Ftrack-name&auto_play=true")

		numeric := Resolve(video.SoundCloud, "123")
		So(numeric.EmbedURL, ShouldContainSubstring, "api.soundcloud.com%2Ftracks%2F123")
	})
}

func TestResolveFallbacks(t *testing.T) {
	Convey("Platforms that never embed explain why", t, func() {
		cfg := Resolve(video.Instagram, "https://www.instagram.com/reel/Cabc123/")
		So(cfg.SupportsEmbed, ShouldBeFalse)
		So(cfg.EmbedURL, ShouldBeEmpty)
		So(cfg.FallbackReason, ShouldContainSubstring, "instagram")

		So(Resolve(video.Local, "/videos/a.mp4").SupportsEmbed, ShouldBeFalse)
	})

	Convey("Unknown platforms are unsupported", t, func() {
		cfg := Resolve("myspace", "abc")
		So(cfg.SupportsEmbed, ShouldBeFalse)
		So(cfg.FallbackReason, ShouldEqual, `unsupported platform "myspace"`)
	})

	Convey("Unparseable ids are unsupported", t, func() {
		cfg := Resolve(video.YouTube, "https://example.com/nothing")
		So(cfg.SupportsEmbed, ShouldBeFalse)
		So(cfg.FallbackReason, ShouldContainSubstring, "could not find a youtube video id")
	})

	Convey("Resolution is deterministic", t, func() {
		So(Resolve(video.Vimeo, "1234"), ShouldResemble, Resolve(video.Vimeo, "1234"))
	})
}

func TestPageURL(t *testing.T) {
	Convey("PageURL", t, func() {
		So(PageURL(video.YouTube, "dQw4w9WgXcQ"), ShouldEqual, "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
		So(PageURL(video.Instagram, "Cabc123"), ShouldEqual, "https://www.instagram.com/reel/Cabc123/")
		So(PageURL(video.Vimeo, "https://vimeo.com/1"), ShouldEqual, "https://vimeo.com/1")
		So(PageURL("myspace", "x"), ShouldBeEmpty)
		So(PageURL(video.Local, "/a.mp4"), ShouldBeEmpty)
	})

	Convey("ExtractID", t, func() {
		id, ok := ExtractID(video.YouTube, "https://youtu.be/dQw4w9WgXcQ")
		So(ok, ShouldBeTrue)
		So(id, ShouldEqual, "dQw4w9WgXcQ")

		_, ok = ExtractID("myspace", "x")
		So(ok, ShouldBeFalse)
	})
}
