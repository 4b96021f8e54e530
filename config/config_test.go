package config

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/vidora/vidora/filesystem"
	"github.com/vidora/vidora/key"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Given a fresh configuration", t, func() {
		So(Setup(), ShouldBeNil)

		Convey("Every registered key has a value", func() {
			for name := range Default {
				So(viper.IsSet(name), ShouldBeTrue)
			}
		})

		Convey("Progress cadences default to 3s and 15s", func() {
			So(Seconds(key.ProgressLocalInterval), ShouldEqual, 3*time.Second)
			So(Seconds(key.ProgressRemoteInterval), ShouldEqual, 15*time.Second)
		})

		Convey("Stream entries live for five hours", func() {
			So(Seconds(key.StreamTTL), ShouldEqual, 5*time.Hour)
		})

		Convey("A non-positive override falls back to the default", func() {
			viper.Set(key.StreamResolveTimeout, 0)
			defer viper.Set(key.StreamResolveTimeout, Default[key.StreamResolveTimeout].Value)

			So(Seconds(key.StreamResolveTimeout), ShouldEqual, 10*time.Second)
		})
	})
}

func TestField(t *testing.T) {
	Convey("Given the watched threshold field", t, func() {
		f := Default[key.ProgressWatchedThreshold]

		Convey("Values inside its bounds are accepted", func() {
			So(f.Check(90), ShouldBeNil)
			So(f.Check(1), ShouldBeNil)
		})

		Convey("Values outside its bounds are rejected", func() {
			So(f.Check(0), ShouldNotBeNil)
			So(f.Check(101), ShouldNotBeNil)
		})

		Convey("Its env name carries the application prefix", func() {
			So(f.Env(), ShouldEqual, "VIDORA_PROGRESS_WATCHED_THRESHOLD")
		})
	})

	Convey("EnvKeyReplacer converts dots to underscores", t, func() {
		So(EnvKeyReplacer.Replace("stream.resolve_timeout"), ShouldEqual, "stream_resolve_timeout")
	})
}
