package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/vidora/vidora/filesystem"

	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestCompare(t *testing.T) {
	Convey("Given two versions", t, func() {
		Convey("Then they are ordered component by component", func() {
			So(must(Compare("1.2.3", "1.2.3")), ShouldEqual, 0)
			So(must(Compare("v1.10.0", "1.9.9")), ShouldEqual, 1)
			So(must(Compare("0.4.0", "0.4.1")), ShouldEqual, -1)
			So(must(Compare("2.0.0", "v10.0.0")), ShouldEqual, -1)
		})

		Convey("Then a pre-release sorts before its release", func() {
			So(must(Compare("1.4.0-rc.1", "1.4.0")), ShouldEqual, -1)
			So(must(Compare("v1.4.0", "1.4.0-rc.2")), ShouldEqual, 1)
			So(must(Compare("1.4.0-rc.1", "1.4.0-rc.2")), ShouldEqual, -1)
			So(must(Compare("1.4.0-rc.1", "1.3.9")), ShouldEqual, 1)
		})

		Convey("Then build metadata is ignored", func() {
			So(must(Compare("1.4.0+abc", "1.4.0")), ShouldEqual, 0)
		})

		Convey("When one is malformed", func() {
			_, err := Compare("latest", "1.0.0")

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
				_, err = Compare("1.0", "1.0.0")
				So(err, ShouldNotBeNil)
				_, err = Compare("1.0.x", "1.0.0")
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func must(n int, err error) int {
	So(err, ShouldBeNil)
	return n
}

func TestLatest(t *testing.T) {
	Convey("Given a release endpoint", t, func() {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			_, _ = w.Write([]byte(`{"tag_name":"v9.1.0"}`))
		}))
		defer srv.Close()

		previous := ReleasesURL
		ReleasesURL = srv.URL
		defer func() { ReleasesURL = previous }()

		Convey("When the latest version is requested twice", func() {
			first, err := Latest(context.Background())
			So(err, ShouldBeNil)
			second, err := Latest(context.Background())
			So(err, ShouldBeNil)

			Convey("Then the prefix is stripped and the answer is cached", func() {
				So(first, ShouldEqual, "9.1.0")
				So(second, ShouldEqual, "9.1.0")
				So(hits.Load(), ShouldEqual, 1)
			})
		})
	})
}
