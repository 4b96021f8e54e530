package cmd

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidora/vidora/config"
	"github.com/vidora/vidora/key"
	"github.com/vidora/vidora/player"
	"github.com/vidora/vidora/session"
	"github.com/vidora/vidora/strategy"
	"github.com/vidora/vidora/video"
	"github.com/vidora/vidora/where"
)

func TestParsePlatform(t *testing.T) {
	Convey("Given a platform name", t, func() {
		Convey("Known names are accepted in any casing", func() {
			p, err := parsePlatform("YouTube")
			So(err, ShouldBeNil)
			So(p, ShouldEqual, video.YouTube)
		})

		Convey("Typos suggest the closest platform", func() {
			_, err := parsePlatform("youtub")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "youtube")
		})
	})
}

func TestParseItems(t *testing.T) {
	Convey("Given ids and URLs for one platform", t, func() {
		items := parseItems(video.YouTube, []string{
			"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			"9bZkp7q19f0",
		})

		Convey("Then each becomes a queue item with its bare id", func() {
			So(items, ShouldHaveLength, 2)
			So(items[0].VideoID, ShouldEqual, "dQw4w9WgXcQ")
			So(items[1].VideoID, ShouldEqual, "9bZkp7q19f0")
			So(items[1].Platform, ShouldEqual, video.YouTube)
		})
	})
}

func TestStartIndex(t *testing.T) {
	Convey("Given a titled queue", t, func() {
		items := []video.Item{
			{Platform: video.YouTube, VideoID: "a", Title: "Opening Ceremony"},
			{Platform: video.YouTube, VideoID: "b", Title: "Closing Keynote"},
		}

		Convey("An index is clamped to the queue", func() {
			i, err := startIndex(items, "", 7)
			So(err, ShouldBeNil)
			So(i, ShouldEqual, 1)
		})

		Convey("A title query picks the best match", func() {
			i, err := startIndex(items, "keynote", 0)
			So(err, ShouldBeNil)
			So(i, ShouldEqual, 1)
		})

		Convey("A query with no match fails", func() {
			_, err := startIndex(items, "zzz", 0)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestParseValue(t *testing.T) {
	Convey("Given config fields", t, func() {
		Convey("Integers are parsed and bounds checked", func() {
			field := config.Default[key.ProgressWatchedThreshold]

			v, err := parseValue(field, []string{"95"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 95)

			_, err = parseValue(field, []string{"150"})
			So(err, ShouldNotBeNil)

			_, err = parseValue(field, []string{"lots"})
			So(err, ShouldNotBeNil)
		})

		Convey("Booleans and strings are parsed", func() {
			v, err := parseValue(config.Default[key.CliColored], []string{"false"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, false)

			v, err = parseValue(config.Default[key.PlayerDefaultMode], []string{"pip"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "pip")
		})
	})
}

func TestMask(t *testing.T) {
	Convey("Only the last four characters of a token are shown", t, func() {
		So(mask("abcdefgh"), ShouldEqual, "****efgh")
		So(mask("abc"), ShouldEqual, "***")
	})
}

func TestEnvVars(t *testing.T) {
	Convey("Every setting has a prefixed variable", t, func() {
		vars := envVars()
		So(vars, ShouldContain, "VIDORA_BACKEND_URL")
		So(vars, ShouldContain, where.EnvConfigPath)
		So(vars, ShouldHaveLength, len(config.EnvExposed)+1)
	})
}

func TestStateOf(t *testing.T) {
	Convey("Given session snapshots", t, func() {
		item := video.Item{Platform: video.YouTube, VideoID: "a"}

		Convey("An open snapshot mirrors its item and playback", func() {
			s := stateOf(session.Snapshot{Mode: player.PiP, Item: item, Playing: true})
			So(s.Open, ShouldBeTrue)
			So(s.Playing, ShouldBeTrue)
			So(s.Item, ShouldResemble, item)
		})

		Convey("A closed snapshot is not open", func() {
			So(stateOf(session.Snapshot{Mode: player.Closed}).Open, ShouldBeFalse)
		})
	})
}

func TestPump(t *testing.T) {
	Convey("Given a subscription that is never closed", t, func() {
		snapshots := make(chan session.Snapshot, 1)
		ctx, cancel := context.WithCancel(context.Background())
		states := pump(ctx, snapshots)

		snapshots <- session.Snapshot{Mode: player.Modal, Duration: 300}
		s := <-states
		So(s.Open, ShouldBeTrue)
		So(s.Duration, ShouldEqual, 300)

		Convey("Cancelling stops the pump and closes its output", func() {
			cancel()

			closed := false
			select {
			case _, ok := <-states:
				closed = !ok
			case <-time.After(time.Second):
			}
			So(closed, ShouldBeTrue)
		})
	})
}

func TestStrategiesFor(t *testing.T) {
	Convey("Given a video before its stream is resolved", t, func() {
		Convey("Platforms with a player API list it ahead of the fallback", func() {
			s := strategiesFor(video.YouTube, "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
			So(s[0], ShouldEqual, strategy.PlatformAPI)
			So(s[len(s)-1], ShouldEqual, strategy.Unembeddable)
			So(s, ShouldNotContain, strategy.DirectStream)
		})

		Convey("Platforms without one still end at the fallback", func() {
			s := strategiesFor(video.Instagram, "Cabc123")
			So(s, ShouldNotContain, strategy.PlatformAPI)
			So(s[len(s)-1], ShouldEqual, strategy.Unembeddable)
		})
	})
}
