package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidora/vidora/progress"
	"github.com/vidora/vidora/resolver"
	"github.com/vidora/vidora/video"
	"golang.org/x/oauth2"
)

type call struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]float64
}

type fakeBackend struct {
	mu    sync.Mutex
	calls []call
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /stream/{platform}/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		switch r.PathValue("id") {
		case "missing":
			http.NotFound(w, r)
		case "empty":
			_ = json.NewEncoder(w).Encode(video.StreamInfo{})
		default:
			_ = json.NewEncoder(w).Encode(video.StreamInfo{
				StreamURL: "https://cdn/" + r.PathValue("platform") + "/" + r.PathValue("id"),
				Quality:   "1080p",
			})
		}
	})

	mux.HandleFunc("PUT /", func(w http.ResponseWriter, r *http.Request) {
		c := f.record(r)
		if r.Header.Get("Authorization") == "Bearer expired" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(ProgressRecord{ProgressSeconds: c.Body["progress_seconds"]})
	})

	return mux
}

func (f *fakeBackend) record(r *http.Request) call {
	c := call{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&c.Body)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return c
}

func (f *fakeBackend) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newClient(srv *httptest.Server, token string) *Client {
	opts := Options{BaseURL: srv.URL + "/", HTTP: srv.Client()}
	if token != "" {
		opts.Token = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	}

	c, err := New(opts)
	So(err, ShouldBeNil)
	return c
}

func TestStreamInfo(t *testing.T) {
	Convey("Given a backend", t, func() {
		fake := &fakeBackend{}
		srv := httptest.NewServer(fake.handler())
		defer srv.Close()

		c := newClient(srv, "secret")
		ctx := context.Background()

		Convey("It fetches stream info with the bearer token", func() {
			info, err := c.StreamInfo(ctx, video.YouTube, "abc")
			So(err, ShouldBeNil)
			So(info.StreamURL, ShouldEqual, "https://cdn/youtube/abc")
			So(fake.last().Path, ShouldEqual, "/stream/youtube/abc")
			So(fake.last().Auth, ShouldEqual, "Bearer secret")
		})

		Convey("Missing and empty streams are unavailable", func() {
			_, err := c.StreamInfo(ctx, video.YouTube, "missing")
			So(errors.Is(err, resolver.ErrUnavailable), ShouldBeTrue)

			_, err = c.Resolve(ctx, video.YouTube, "empty")
			So(errors.Is(err, resolver.ErrUnavailable), ShouldBeTrue)
		})
	})
}

func TestProgress(t *testing.T) {
	Convey("Given a backend", t, func() {
		fake := &fakeBackend{}
		srv := httptest.NewServer(fake.handler())
		defer srv.Close()

		c := newClient(srv, "")
		ctx := context.Background()

		Convey("Progress is routed by source type", func() {
			feed := video.Item{Platform: video.YouTube, VideoID: "v", SourceType: video.FeedItem, SourceID: "f1"}
			So(c.SaveProgress(ctx, feed, 12.5), ShouldBeNil)
			So(fake.last().Method, ShouldEqual, http.MethodPut)
			So(fake.last().Path, ShouldEqual, "/feed/f1/progress")
			So(fake.last().Body["progress_seconds"], ShouldEqual, 12.5)
			So(fake.last().Auth, ShouldBeEmpty)

			saved := video.Item{Platform: video.YouTube, VideoID: "v", SourceType: video.SavedVideo, SourceID: "s1"}
			So(c.MarkWatched(ctx, saved, 300), ShouldBeNil)
			So(fake.last().Path, ShouldEqual, "/videos/s1/watched")

			item := video.Item{Platform: video.YouTube, VideoID: "v", SourceType: video.CollectionItem, SourceID: "i1", CollectionID: "c9"}
			So(c.SaveProgress(ctx, item, 1), ShouldBeNil)
			So(fake.last().Path, ShouldEqual, "/collections/c9/items/i1/progress")
		})

		Convey("Items without a routable source are rejected locally", func() {
			n := len(fake.calls)
			err := c.SaveProgress(ctx, video.Item{SourceType: video.FeedItem}, 1)
			So(errors.Is(err, progress.ErrUnaddressable), ShouldBeTrue)
			err = c.SaveProgress(ctx, video.Item{SourceType: video.CollectionItem, SourceID: "i"}, 1)
			So(errors.Is(err, progress.ErrUnaddressable), ShouldBeTrue)
			So(len(fake.calls), ShouldEqual, n)
		})

		Convey("A rejected token maps to ErrUnauthorized", func() {
			expired := newClient(srv, "expired")
			err := expired.SaveProgress(ctx, video.Item{SourceType: video.FeedItem, SourceID: "f"}, 1)
			So(errors.Is(err, ErrUnauthorized), ShouldBeTrue)
		})
	})
}

func TestNew(t *testing.T) {
	Convey("The base url is validated", t, func() {
		_, err := New(Options{})
		So(errors.Is(err, ErrNoBaseURL), ShouldBeTrue)

		_, err = New(Options{BaseURL: "ftp://example.com"})
		So(err, ShouldNotBeNil)

		c, err := New(Options{BaseURL: "https://api.example.com/v1/"})
		So(err, ShouldBeNil)
		So(c.base.String(), ShouldEqual, "https://api.example.com/v1")
	})
}
